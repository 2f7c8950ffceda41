package results

import (
	"context"
	"time"

	"github.com/johnjomin/OneVote/internal/domain/poll"
	"github.com/johnjomin/OneVote/internal/domain/vote"
	"github.com/johnjomin/OneVote/internal/metrics"
)

type PollReader interface {
	GetByID(ctx context.Context, id string) (*poll.Poll, error)
}

type VoteReader interface {
	ListByPoll(ctx context.Context, pollID string) ([]vote.Vote, error)
}

// Publisher receives every freshly recomputed snapshot after a vote.
type Publisher interface {
	Publish(snap Snapshot)
}

// Response is either a hidden marker (poll hides results until it closes)
// or a snapshot of the current aggregates.
type Response struct {
	Hidden   bool
	ClosesAt time.Time
	Snapshot Snapshot
}

type Service struct {
	polls PollReader
	votes VoteReader
	cache *Cache
	pub   Publisher
	now   func() time.Time
}

func NewService(polls PollReader, votes VoteReader, cache *Cache, pub Publisher) *Service {
	return &Service{
		polls: polls,
		votes: votes,
		cache: cache,
		pub:   pub,
		now:   time.Now,
	}
}

// Get returns the poll's results, serving from the cache when a snapshot is
// younger than the TTL. The hidden variant is never cached; it is derived
// from the poll's close time on every call.
func (s *Service) Get(ctx context.Context, pollID string) (Response, error) {
	p, err := s.polls.GetByID(ctx, pollID)
	if err != nil {
		return Response{}, err
	}

	now := s.now()
	if p.HideResultsUntilClose && now.Before(p.ClosesAt) {
		return Response{Hidden: true, ClosesAt: p.ClosesAt}, nil
	}

	if snap, ok := s.cache.Get(pollID); ok {
		metrics.IncCacheHit()
		return Response{Snapshot: snap}, nil
	}
	metrics.IncCacheMiss()

	snap, err := s.compute(ctx, p, now)
	if err != nil {
		return Response{}, err
	}
	return Response{Snapshot: snap}, nil
}

// Invalidate drops the cached snapshot for the poll so the next read
// reflects the latest votes.
func (s *Service) Invalidate(pollID string) {
	s.cache.Invalidate(pollID)
}

// Refresh recomputes the poll's results and publishes them to live
// subscribers. Polls still hiding their results are skipped; subscribers
// would only see the hidden variant anyway.
func (s *Service) Refresh(ctx context.Context, pollID string) error {
	p, err := s.polls.GetByID(ctx, pollID)
	if err != nil {
		return err
	}

	now := s.now()
	if p.HideResultsUntilClose && now.Before(p.ClosesAt) {
		return nil
	}

	snap, err := s.compute(ctx, p, now)
	if err != nil {
		return err
	}
	if s.pub != nil {
		s.pub.Publish(snap)
	}
	return nil
}

func (s *Service) compute(ctx context.Context, p *poll.Poll, now time.Time) (Snapshot, error) {
	votes, err := s.votes.ListByPoll(ctx, p.ID)
	if err != nil {
		return Snapshot{}, err
	}
	snap := Aggregate(p, votes, now)
	s.cache.Set(snap)
	return snap, nil
}
