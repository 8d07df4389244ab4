package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rl1809/vote-score/internal/core/domain"
	"github.com/rl1809/vote-score/internal/metrics"
	"github.com/rl1809/vote-score/internal/port"
)

var ErrInvalidDirection = domain.ErrInvalidDirection

type ScoreService struct {
	counter port.CounterRepository
	metrics *metrics.Metrics

	mu     sync.RWMutex
	closed bool
	votes  chan domain.Vote
}

// NewScoreService creates a service over counter. Applied votes are offered
// to a journal queue of queueSize; a size of 0 disables journaling.
func NewScoreService(counter port.CounterRepository, queueSize int, m *metrics.Metrics) *ScoreService {
	s := &ScoreService{
		counter: counter,
		metrics: m,
	}
	if queueSize <= 0 {
		s.votes = make(chan domain.Vote)
		s.Close()
		return s
	}
	s.votes = make(chan domain.Vote, queueSize)
	return s
}

// Upvote increments the score and returns the new value.
func (s *ScoreService) Upvote(ctx context.Context) (domain.Score, error) {
	return s.vote(ctx, domain.DirectionUp)
}

// Downvote decrements the score and returns the new value. The score has no floor.
func (s *ScoreService) Downvote(ctx context.Context) (domain.Score, error) {
	return s.vote(ctx, domain.DirectionDown)
}

func (s *ScoreService) vote(ctx context.Context, direction domain.Direction) (domain.Score, error) {
	if !direction.Valid() {
		return domain.Score{}, ErrInvalidDirection
	}

	value, err := s.counter.Add(ctx, direction)
	if err != nil {
		return domain.Score{}, fmt.Errorf("apply %s vote: %w", direction, err)
	}

	s.metrics.ObserveVote(direction, value)
	s.publish(domain.Vote{
		ID:        uuid.New().String(),
		Direction: direction,
		Score:     value,
		CreatedAt: time.Now(),
	})

	return domain.Score{Value: value}, nil
}

// Score returns the current value without mutating it.
func (s *ScoreService) Score(ctx context.Context) (domain.Score, error) {
	value, err := s.counter.Get(ctx)
	if err != nil {
		return domain.Score{}, fmt.Errorf("read score: %w", err)
	}
	s.metrics.ObserveScore(value)
	return domain.Score{Value: value}, nil
}

func (s *ScoreService) Tally(ctx context.Context) (domain.Tally, error) {
	tally, err := s.counter.Tally(ctx)
	if err != nil {
		return domain.Tally{}, fmt.Errorf("read tally: %w", err)
	}
	return tally, nil
}

// publish never blocks: when the queue is full the vote is left out of the
// journal. The counter already holds it.
func (s *ScoreService) publish(vote domain.Vote) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return
	}

	select {
	case s.votes <- vote:
	default:
		s.metrics.JournalDropped()
	}
}

func (s *ScoreService) Votes() <-chan domain.Vote {
	return s.votes
}

// Close stops journaling and closes the queue so workers can drain it.
// Votes applied after Close still update the counter.
func (s *ScoreService) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	close(s.votes)
}
