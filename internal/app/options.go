package service

import (
	"time"

	"github.com/okian/squadup/internal/adapters/repository"
	"github.com/okian/squadup/internal/domain/draft"
	"github.com/okian/squadup/internal/domain/stats"
	"github.com/okian/squadup/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithRepository sets the persistence backend. The default is in memory.
func WithRepository(repo repository.Repository) Option {
	return func(s *Service) {
		if repo != nil {
			s.repo = repo
		}
	}
}

// WithRanking sets the leaderboard store.
func WithRanking(r repository.Ranking) Option {
	return func(s *Service) {
		if r != nil {
			s.ranking = r
		}
	}
}

// WithBalancer sets the draft balancer.
func WithBalancer(b *draft.Balancer) Option {
	return func(s *Service) {
		if b != nil {
			s.balancer = b
		}
	}
}

// WithAggregator sets the statistics aggregator.
func WithAggregator(a *stats.Aggregator) Option {
	return func(s *Service) {
		if a != nil {
			s.aggregator = a
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock overrides the time source. Times are truncated to milliseconds,
// the resolution of persisted timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = func() time.Time { return now().UTC().Truncate(time.Millisecond) }
		}
	}
}

// WithIDGenerator overrides how player and match ids are minted.
func WithIDGenerator(next func() string) Option {
	return func(s *Service) {
		if next != nil {
			s.newID = next
		}
	}
}
