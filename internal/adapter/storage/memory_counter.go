package storage

import (
	"context"
	"sync"

	"github.com/rl1809/vote-score/internal/core/domain"
)

// MemoryCounter keeps the score in process memory. It starts at zero and is
// lost on restart. Every method runs inside one critical section, so it never
// loses updates and never fails.
type MemoryCounter struct {
	mu    sync.RWMutex
	tally domain.Tally
}

func NewMemoryCounter() *MemoryCounter {
	return &MemoryCounter{}
}

func (m *MemoryCounter) Add(_ context.Context, direction domain.Direction) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch direction {
	case domain.DirectionUp:
		m.tally.Upvotes++
	case domain.DirectionDown:
		m.tally.Downvotes++
	default:
		return 0, domain.ErrInvalidDirection
	}
	m.tally.Score += direction.Delta()
	return m.tally.Score, nil
}

func (m *MemoryCounter) Get(_ context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.tally.Score, nil
}

func (m *MemoryCounter) Tally(_ context.Context) (domain.Tally, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.tally, nil
}
