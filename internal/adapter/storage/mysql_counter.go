package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rl1809/vote-score/internal/core/domain"
)

const counterRowID = 1

var ErrCounterMissing = errors.New("score counter row missing")

var schema = []string{
	`CREATE TABLE IF NOT EXISTS score_counter (
		id INT PRIMARY KEY,
		value BIGINT NOT NULL DEFAULT 0,
		upvotes BIGINT NOT NULL DEFAULT 0,
		downvotes BIGINT NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS votes (
		id CHAR(36) PRIMARY KEY,
		direction VARCHAR(8) NOT NULL,
		score BIGINT NOT NULL,
		created_at DATETIME(6) NOT NULL
	)`,
	`INSERT IGNORE INTO score_counter (id, value, upvotes, downvotes) VALUES (1, 0, 0, 0)`,
}

type MySQLCounter struct {
	db *sql.DB
}

func NewMySQLCounter(db *sql.DB) *MySQLCounter {
	return &MySQLCounter{db: db}
}

// EnsureSchema creates the tables and the initial counter row if they do not exist.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

func (m *MySQLCounter) Add(ctx context.Context, direction domain.Direction) (int64, error) {
	var column string
	switch direction {
	case domain.DirectionUp:
		column = "upvotes"
	case domain.DirectionDown:
		column = "downvotes"
	default:
		return 0, domain.ErrInvalidDirection
	}

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	// the UPDATE holds the row lock until commit, so the SELECT sees our own write
	result, err := tx.ExecContext(ctx, `
		UPDATE score_counter
		SET value = value + ?, `+column+` = `+column+` + 1, updated_at = NOW()
		WHERE id = ?`,
		direction.Delta(), counterRowID,
	)
	if err != nil {
		return 0, fmt.Errorf("update counter: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return 0, ErrCounterMissing
	}

	var value int64
	err = tx.QueryRowContext(ctx, `SELECT value FROM score_counter WHERE id = ?`, counterRowID).Scan(&value)
	if err != nil {
		return 0, fmt.Errorf("query counter: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return value, nil
}

func (m *MySQLCounter) Get(ctx context.Context) (int64, error) {
	var value int64
	err := m.db.QueryRowContext(ctx, `SELECT value FROM score_counter WHERE id = ?`, counterRowID).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrCounterMissing
	}
	if err != nil {
		return 0, fmt.Errorf("query counter: %w", err)
	}
	return value, nil
}

func (m *MySQLCounter) Tally(ctx context.Context) (domain.Tally, error) {
	var t domain.Tally
	err := m.db.QueryRowContext(ctx, `
		SELECT upvotes, downvotes, value
		FROM score_counter WHERE id = ?`, counterRowID,
	).Scan(&t.Upvotes, &t.Downvotes, &t.Score)

	if errors.Is(err, sql.ErrNoRows) {
		return domain.Tally{}, ErrCounterMissing
	}
	if err != nil {
		return domain.Tally{}, fmt.Errorf("query tally: %w", err)
	}
	return t, nil
}
