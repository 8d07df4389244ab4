package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/rl1809/vote-score/internal/core/domain"
	"github.com/rl1809/vote-score/internal/metrics"
	"github.com/rl1809/vote-score/internal/port"
)

const journalWriteTimeout = 5 * time.Second

// JournalWorker drains the vote queue into a VoteJournal until the queue is closed.
type JournalWorker struct {
	id      int
	journal port.VoteJournal
	logger  *zap.SugaredLogger
	metrics *metrics.Metrics
}

func NewJournalWorker(id int, journal port.VoteJournal, logger *zap.SugaredLogger, m *metrics.Metrics) *JournalWorker {
	return &JournalWorker{
		id:      id,
		journal: journal,
		logger:  logger.With(zap.Int("worker", id)),
		metrics: m,
	}
}

func (w *JournalWorker) Run(queue <-chan domain.Vote) {
	for vote := range queue {
		ctx, cancel := context.WithTimeout(context.Background(), journalWriteTimeout)

		if err := w.journal.RecordVote(ctx, vote); err != nil {
			w.metrics.JournalFailed()
			w.logger.Errorf("failed to journal vote %s: %v", vote.ID, err)
		} else {
			w.logger.Debugf("journaled vote %s (%s -> %d)", vote.ID, vote.Direction, vote.Score)
		}

		cancel()
	}
}
