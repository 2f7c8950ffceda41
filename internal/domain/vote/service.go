package vote

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/johnjomin/OneVote/internal/domain/poll"
	"github.com/johnjomin/OneVote/internal/metrics"
)

var (
	ErrPollClosed      = errors.New("poll is closed")
	ErrOptionNotInPoll = errors.New("option does not belong to poll")
)

const refreshTimeout = 5 * time.Second

// ResultsRefresher is the post-commit hook into the results subsystem:
// invalidation is synchronous, refresh runs off the request path.
type ResultsRefresher interface {
	Invalidate(pollID string)
	Refresh(ctx context.Context, pollID string) error
}

type Service struct {
	polls   poll.Repository
	votes   Repository
	results ResultsRefresher
	log     *slog.Logger
	now     func() time.Time
}

func NewService(polls poll.Repository, votes Repository, results ResultsRefresher, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		polls:   polls,
		votes:   votes,
		results: results,
		log:     log,
		now:     time.Now,
	}
}

// Cast records one vote for voterID in the poll. Duplicate prevention rests
// entirely on the storage layer's (poll, voter) uniqueness constraint; there
// is deliberately no has-voted pre-check here, since two requests for the
// same voter can interleave between a check and the insert.
func (s *Service) Cast(ctx context.Context, pollID, optionID, voterID string) error {
	p, err := s.polls.GetByID(ctx, pollID)
	if err != nil {
		return err
	}
	if p.Closed(s.now()) {
		return ErrPollClosed
	}
	if !p.HasOption(optionID) {
		return ErrOptionNotInPoll
	}

	v := &Vote{
		ID:        uuid.NewString(),
		PollID:    pollID,
		OptionID:  optionID,
		VoterID:   voterID,
		CreatedAt: s.now(),
	}
	if err := s.votes.Create(ctx, v); err != nil {
		return err
	}
	metrics.IncVote()

	// The vote is committed. Everything below is best-effort: a failed
	// refresh or broadcast must never surface to the voter.
	s.results.Invalidate(pollID)
	go s.refresh(pollID)

	return nil
}

func (s *Service) refresh(pollID string) {
	ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	defer cancel()

	if err := s.results.Refresh(ctx, pollID); err != nil {
		s.log.Error("results refresh after vote failed", "poll_id", pollID, "error", err)
	}
}
