package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/rl1809/vote-score/internal/core/domain"
)

type mockJournal struct {
	votes []domain.Vote
	fail  bool
	mu    sync.Mutex
}

func (m *mockJournal) RecordVote(ctx context.Context, vote domain.Vote) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.fail {
		return errors.New("journal unavailable")
	}
	m.votes = append(m.votes, vote)
	return nil
}

func TestJournalWorker_DrainsQueue(t *testing.T) {
	journal := &mockJournal{}
	svc := NewScoreService(&mockCounterRepo{}, 100, nil)

	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			NewJournalWorker(id, journal, zap.NewNop().Sugar(), nil).Run(svc.Votes())
		}(i)
	}

	ctx := context.Background()
	for i := 0; i < 20; i++ {
		svc.Upvote(ctx)
	}
	svc.Downvote(ctx)

	svc.Close()
	wg.Wait()

	if len(journal.votes) != 21 {
		t.Fatalf("expected 21 journaled votes, got %d", len(journal.votes))
	}

	var downs int
	for _, v := range journal.votes {
		if v.Direction == domain.DirectionDown {
			downs++
		}
	}
	if downs != 1 {
		t.Errorf("expected 1 downvote in journal, got %d", downs)
	}
}

func TestJournalWorker_FailureDoesNotStop(t *testing.T) {
	journal := &mockJournal{fail: true}
	svc := NewScoreService(&mockCounterRepo{}, 10, nil)

	done := make(chan struct{})
	go func() {
		NewJournalWorker(0, journal, zap.NewNop().Sugar(), nil).Run(svc.Votes())
		close(done)
	}()

	svc.Upvote(context.Background())
	svc.Upvote(context.Background())
	svc.Close()
	<-done

	score, _ := svc.Score(context.Background())
	if score.Value != 2 {
		t.Errorf("expected score 2, got %d", score.Value)
	}
}
