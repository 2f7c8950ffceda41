package worker

import (
	"context"
	"log/slog"
	"time"
)

// CacheSweeper periodically evicts expired result snapshots. Lazy expiry on
// read already keeps served data fresh; the sweeper only bounds memory for
// polls that stop getting reads.
type CacheSweeper struct {
	cache    Sweepable
	interval time.Duration
	log      *slog.Logger
}

type Sweepable interface {
	Sweep() int
}

func NewCacheSweeper(cache Sweepable, interval time.Duration, log *slog.Logger) *CacheSweeper {
	if log == nil {
		log = slog.Default()
	}
	return &CacheSweeper{cache: cache, interval: interval, log: log}
}

func (s *CacheSweeper) Run(ctx context.Context) {
	s.log.Info("cache sweeper started", "interval", s.interval.String())
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("cache sweeper stopped")
			return
		case <-ticker.C:
			if removed := s.cache.Sweep(); removed > 0 {
				s.log.Debug("swept expired result snapshots", "removed", removed)
			}
		}
	}
}
