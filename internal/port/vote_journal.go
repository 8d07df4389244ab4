package port

import (
	"context"

	"github.com/rl1809/vote-score/internal/core/domain"
)

type VoteJournal interface {
	// RecordVote durably appends a vote that was already applied to the counter
	RecordVote(ctx context.Context, vote domain.Vote) error
}
