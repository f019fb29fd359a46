package rewards

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jichangyoon/samu-rewards/logging"
	"github.com/jichangyoon/samu-rewards/metrics"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/singleflight"
)

// Reader loads the ledger of one contest.
type Reader interface {
	Read(ctx context.Context, contestID string) (Ledger, error)
}

type ServiceConfig struct {
	Reader   Reader
	Ratios   ShareRatios
	CacheTTL time.Duration
	// ReadTimeout bounds one shared ledger read. The read is detached from
	// the caller that started it, so one cancelled request does not fail the
	// others waiting on the same contest.
	ReadTimeout time.Duration
	Clock       clockwork.Clock
}

func (cfg *ServiceConfig) Validate() error {
	if cfg.Reader == nil {
		return errors.New("ledger reader is required")
	}
	if err := cfg.Ratios.Validate(); err != nil {
		return err
	}
	if cfg.CacheTTL < 0 {
		return errors.New("cache ttl must not be negative")
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = 10 * time.Second
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	return nil
}

type cachedBreakdown struct {
	breakdown Breakdown
	expires   time.Time
}

// Service serves breakdowns, caching each contest for at most CacheTTL.
// Concurrent misses for one contest share a single ledger read.
type Service struct {
	cfg   ServiceConfig
	group singleflight.Group

	mu      sync.Mutex
	entries map[string]cachedBreakdown
	// generation is bumped by Invalidate so an in-flight read started before
	// a vote does not repopulate the cache with pre-vote data.
	generation map[string]uint64
}

func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Service{
		cfg:        cfg,
		entries:    make(map[string]cachedBreakdown),
		generation: make(map[string]uint64),
	}, nil
}

func (s *Service) Ratios() ShareRatios {
	return s.cfg.Ratios
}

func (s *Service) Breakdown(ctx context.Context, contestID string) (Breakdown, error) {
	s.mu.Lock()
	if e, ok := s.entries[contestID]; ok && s.cfg.Clock.Now().Before(e.expires) {
		s.mu.Unlock()
		metrics.BreakdownCacheTotal.WithLabelValues("hit").Inc()
		return e.breakdown, nil
	}
	gen := s.generation[contestID]
	s.mu.Unlock()
	metrics.BreakdownCacheTotal.WithLabelValues("miss").Inc()

	flight := s.group.DoChan(contestID, func() (interface{}, error) {
		readCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.ReadTimeout)
		defer cancel()
		ledger, err := s.cfg.Reader.Read(readCtx, contestID)
		if err != nil {
			return Breakdown{}, err
		}
		b := Calculate(ledger, s.cfg.Ratios)

		s.mu.Lock()
		if s.cfg.CacheTTL > 0 && s.generation[contestID] == gen {
			s.entries[contestID] = cachedBreakdown{breakdown: b, expires: s.cfg.Clock.Now().Add(s.cfg.CacheTTL)}
		}
		s.mu.Unlock()
		return b, nil
	})

	select {
	case <-ctx.Done():
		return Breakdown{}, ctx.Err()
	case res := <-flight:
		if res.Err != nil {
			logging.Log.Errorf("REWARDS: failed to compute breakdown for contest %s: %v", contestID, res.Err)
			return Breakdown{}, res.Err
		}
		return res.Val.(Breakdown), nil
	}
}

// Invalidate drops the cached breakdown of a contest. Called after every
// recorded vote.
func (s *Service) Invalidate(contestID string) {
	s.mu.Lock()
	delete(s.entries, contestID)
	s.generation[contestID]++
	s.mu.Unlock()
	s.group.Forget(contestID)
}
