package distribution

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jichangyoon/samu-rewards/logging"
	"github.com/jichangyoon/samu-rewards/metrics"
	"github.com/jichangyoon/samu-rewards/rewards"
	"github.com/jichangyoon/samu-rewards/storage"
	"github.com/jonboulle/clockwork"
	"github.com/shopspring/decimal"
)

var (
	ErrInvalidAmount  = errors.New("total amount must be positive")
	ErrInvalidRequest = errors.New("order id and contest id are required")
)

const (
	DefaultCurrency         = "SOL"
	DefaultCurrencyDecimals = 9
)

type RecorderConfig struct {
	Store            storage.DistributionStorage
	Currency         string
	CurrencyDecimals int32
	Clock            clockwork.Clock
}

func (cfg *RecorderConfig) Validate() error {
	if cfg.Store == nil {
		return errors.New("distribution storage is required")
	}
	if cfg.Currency == "" {
		cfg.Currency = DefaultCurrency
	}
	if cfg.CurrencyDecimals < 0 {
		return errors.New("currency decimals must not be negative")
	}
	if cfg.CurrencyDecimals == 0 {
		cfg.CurrencyDecimals = DefaultCurrencyDecimals
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	return nil
}

// Recorder persists one Distribution per completed sale.
type Recorder struct {
	cfg RecorderConfig
}

func NewRecorder(cfg RecorderConfig) (*Recorder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Recorder{cfg: cfg}, nil
}

// Split divides total into creator, voter pool and platform amounts. Creator
// and voter amounts are rounded half-up to places; platform takes whatever is
// left so the three always add up to total exactly.
func Split(total decimal.Decimal, ratios rewards.ShareRatios, places int32) (creator, voterPool, platform decimal.Decimal) {
	creator = total.Mul(ratios.Creator).Round(places)
	voterPool = total.Mul(ratios.Voter).Round(places)
	platform = total.Sub(creator).Sub(voterPool)
	if platform.IsNegative() {
		// Only reachable with a zero platform ratio and two upward roundings.
		voterPool = voterPool.Add(platform)
		platform = decimal.Zero
	}
	return creator, voterPool, platform
}

// Record stores the distribution for orderID. The order id is the idempotency
// key: a second call for the same order returns storage.ErrDistributionExists
// and leaves the first record untouched.
func (r *Recorder) Record(ctx context.Context, orderID, contestID string, total decimal.Decimal, ratios rewards.ShareRatios) (*storage.Distribution, error) {
	orderID, contestID = strings.TrimSpace(orderID), strings.TrimSpace(contestID)
	if orderID == "" || contestID == "" {
		metrics.DistributionsTotal.WithLabelValues("invalid").Inc()
		return nil, ErrInvalidRequest
	}
	if !total.IsPositive() {
		metrics.DistributionsTotal.WithLabelValues("invalid").Inc()
		return nil, ErrInvalidAmount
	}
	if err := ratios.Validate(); err != nil {
		metrics.DistributionsTotal.WithLabelValues("invalid").Inc()
		return nil, err
	}

	creator, voterPool, platform := Split(total, ratios, r.cfg.CurrencyDecimals)
	now := r.cfg.Clock.Now().UTC()
	d := &storage.Distribution{
		ID:              uuid.NewString(),
		OrderID:         orderID,
		ContestID:       contestID,
		Currency:        r.cfg.Currency,
		TotalAmount:     total,
		CreatorAmount:   creator,
		VoterPoolAmount: voterPool,
		PlatformAmount:  platform,
		CreatorRatio:    ratios.Creator,
		VoterRatio:      ratios.Voter,
		PlatformRatio:   ratios.Platform,
		Status:          storage.DistributionPendingCreatorTransfer,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := r.cfg.Store.Create(ctx, d); err != nil {
		if errors.Is(err, storage.ErrDistributionExists) {
			metrics.DistributionsTotal.WithLabelValues("duplicate").Inc()
			return nil, err
		}
		metrics.DistributionsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("record distribution for order %s: %w", orderID, err)
	}

	metrics.DistributionsTotal.WithLabelValues("recorded").Inc()
	logging.Log.Infof("DISTRIBUTION: recorded order %s for contest %s total=%s creator=%s voters=%s platform=%s",
		orderID, contestID, total, creator, voterPool, platform)
	return d, nil
}

func (r *Recorder) Get(ctx context.Context, orderID string) (*storage.Distribution, error) {
	return r.cfg.Store.GetByOrder(ctx, orderID)
}

func (r *Recorder) ListByContest(ctx context.Context, contestID string) ([]*storage.Distribution, error) {
	return r.cfg.Store.ListByContest(ctx, contestID)
}
