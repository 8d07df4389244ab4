package port

import (
	"context"

	"github.com/rl1809/vote-score/internal/core/domain"
)

type CounterRepository interface {
	// Add atomically applies one vote and returns the new score
	Add(ctx context.Context, direction domain.Direction) (int64, error)

	// Get returns the current score without changing it
	Get(ctx context.Context) (int64, error)

	// Tally returns a consistent snapshot of vote counts and score
	Tally(ctx context.Context) (domain.Tally, error)
}
