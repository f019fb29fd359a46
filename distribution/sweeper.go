package distribution

import (
	"context"
	"errors"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/jichangyoon/samu-rewards/logging"
	"github.com/jichangyoon/samu-rewards/metrics"
	"github.com/jichangyoon/samu-rewards/storage"
	"github.com/jonboulle/clockwork"
)

const staleSweepJobName = "stale-distribution-sweep"

type SweeperConfig struct {
	Store      storage.DistributionStorage
	StaleAfter time.Duration
	Interval   time.Duration
	Clock      clockwork.Clock
}

func (cfg *SweeperConfig) Validate() error {
	if cfg.Store == nil {
		return errors.New("distribution storage is required")
	}
	if cfg.StaleAfter <= 0 {
		return errors.New("stale window must be positive")
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 10 * time.Minute
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	return nil
}

// Sweeper reports distributions stuck outside completed. It never changes a
// record: failed transfers are retried by operators, not automatically.
type Sweeper struct {
	cfg       SweeperConfig
	scheduler gocron.Scheduler
}

func NewSweeper(cfg SweeperConfig) (*Sweeper, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Sweeper{cfg: cfg}, nil
}

// Stale returns the non-completed distributions older than StaleAfter.
func (s *Sweeper) Stale(ctx context.Context) ([]*storage.Distribution, error) {
	open, err := s.cfg.Store.ListByStatus(ctx,
		storage.DistributionPendingCreatorTransfer,
		storage.DistributionTransferFailed,
	)
	if err != nil {
		return nil, err
	}

	cutoff := s.cfg.Clock.Now().Add(-s.cfg.StaleAfter)
	stale := make([]*storage.Distribution, 0)
	for _, d := range open {
		if d.CreatedAt.Before(cutoff) {
			stale = append(stale, d)
		}
	}
	return stale, nil
}

// Sweep runs one pass and publishes the stale count.
func (s *Sweeper) Sweep(ctx context.Context) {
	stale, err := s.Stale(ctx)
	if err != nil {
		logging.Log.Errorf("DISTRIBUTION: stale sweep failed: %v", err)
		return
	}
	metrics.StaleDistributions.Set(float64(len(stale)))
	for _, d := range stale {
		logging.Log.Warnf("DISTRIBUTION: order %s in status %s since %s", d.OrderID, d.Status, d.CreatedAt.Format(time.RFC3339))
	}
	logging.Log.Debugf("DISTRIBUTION: stale sweep found %d records", len(stale))
}

func (s *Sweeper) Start() error {
	scheduler, err := gocron.NewScheduler(gocron.WithClock(s.cfg.Clock))
	if err != nil {
		return err
	}
	_, err = scheduler.NewJob(
		gocron.DurationJob(s.cfg.Interval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), s.cfg.Interval)
			defer cancel()
			s.Sweep(ctx)
		}),
		gocron.WithName(staleSweepJobName),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = scheduler.Shutdown()
		return err
	}
	scheduler.Start()
	s.scheduler = scheduler
	logging.Log.Infof("DISTRIBUTION: stale sweeper started, interval %s", s.cfg.Interval)
	return nil
}

func (s *Sweeper) Stop() {
	if s.scheduler == nil {
		return
	}
	if err := s.scheduler.Shutdown(); err != nil {
		logging.Log.Errorf("DISTRIBUTION: failed to shutdown sweeper: %v", err)
	}
	s.scheduler = nil
}
