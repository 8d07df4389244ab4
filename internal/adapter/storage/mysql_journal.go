package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rl1809/vote-score/internal/core/domain"
)

// MySQLJournal appends applied votes to the votes table.
type MySQLJournal struct {
	db *sql.DB
}

func NewMySQLJournal(db *sql.DB) *MySQLJournal {
	return &MySQLJournal{db: db}
}

func (m *MySQLJournal) RecordVote(ctx context.Context, vote domain.Vote) error {
	_, err := m.db.ExecContext(ctx, `
		INSERT INTO votes (id, direction, score, created_at)
		VALUES (?, ?, ?, ?)`,
		vote.ID, string(vote.Direction), vote.Score, vote.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert vote: %w", err)
	}
	return nil
}
