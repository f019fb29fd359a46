package balance

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jichangyoon/samu-rewards/logging"
	"github.com/jichangyoon/samu-rewards/metrics"
	"github.com/jichangyoon/samu-rewards/solana"
	"github.com/jichangyoon/samu-rewards/wallet"
	"github.com/jonboulle/clockwork"
	"github.com/shopspring/decimal"
)

var (
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrTransferInProgress  = errors.New("a transfer for this wallet and token is already pending")
	ErrTransferFailed      = errors.New("transfer failed")
	ErrSessionMismatch     = errors.New("wallet session does not own the source wallet")
	ErrInvalidTransfer     = errors.New("invalid transfer request")
)

// Fetcher reads the authoritative on-chain balance.
type Fetcher interface {
	Balance(ctx context.Context, wallet string, token solana.TokenType) (decimal.Decimal, error)
}

// Relay submits signed transactions and reports their confirmation.
type Relay interface {
	SendTransaction(ctx context.Context, rawTx []byte) (string, error)
	SignatureStatus(ctx context.Context, signature string) (solana.Confirmation, error)
}

type ReconcilerConfig struct {
	Fetcher Fetcher
	Relay   Relay
	// Sessions is optional. When set, settled balances of a wallet are
	// dropped as soon as one of its sessions disconnects.
	Sessions     wallet.StatusSource
	RefreshDelay time.Duration
	// CacheTTL is how long a settled balance is served before the chain is
	// read again. Pending entries are kept until their transfer reconciles.
	CacheTTL     time.Duration
	PollInitial  time.Duration
	PollMax      time.Duration
	FetchTimeout time.Duration
	Clock        clockwork.Clock
}

func (cfg *ReconcilerConfig) Validate() error {
	if cfg.Fetcher == nil {
		return errors.New("balance fetcher is required")
	}
	if cfg.Relay == nil {
		return errors.New("transaction relay is required")
	}
	if cfg.RefreshDelay <= 0 {
		cfg.RefreshDelay = 30 * time.Second
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = time.Minute
	}
	if cfg.PollInitial <= 0 {
		cfg.PollInitial = time.Second
	}
	if cfg.PollMax < cfg.PollInitial {
		cfg.PollMax = 8 * cfg.PollInitial
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 10 * time.Second
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	return nil
}

// View is a displayed balance.
type View struct {
	Wallet  string
	Token   solana.TokenType
	Amount  decimal.Decimal
	Pending bool
}

type TransferRequest struct {
	Session    *wallet.Session
	FromWallet string
	ToAddress  string
	Amount     decimal.Decimal
	Token      solana.TokenType
	RawTx      []byte
}

type TransferResult struct {
	Signature string
	Displayed decimal.Decimal
}

// Reconciler keeps displayed balances optimistic across transfers and
// reconciles them with the chain once the transfer settles.
type Reconciler struct {
	cfg   ReconcilerConfig
	cache *Cache

	mu        sync.Mutex
	inflight  map[Key]*tracker
	lastEvict time.Time
	closed    bool
	wg        sync.WaitGroup

	unsubscribe func()
}

func NewReconciler(cfg ReconcilerConfig) (*Reconciler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	r := &Reconciler{
		cfg:      cfg,
		cache:    NewCache(),
		inflight: make(map[Key]*tracker),
	}
	if cfg.Sessions != nil {
		r.unsubscribe = cfg.Sessions.Subscribe(r.onSessionEvent)
	}
	return r, nil
}

func (r *Reconciler) onSessionEvent(ev wallet.StatusEvent) {
	if ev.Connected {
		return
	}
	if n := r.cache.DropWallet(ev.Wallet); n > 0 {
		logging.Log.Debugf("BALANCE: dropped %d cached balances of %s on disconnect", n, ev.Wallet)
	}
}

// Balance returns the displayed balance. Settled entries older than CacheTTL
// are read from the chain again.
func (r *Reconciler) Balance(ctx context.Context, address string, token solana.TokenType) (View, error) {
	key := Key{Wallet: address, Token: token}
	r.evictExpired()

	if e, ok := r.cache.Get(key); ok && (e.Pending || r.fresh(e)) {
		return View{Wallet: address, Token: token, Amount: e.Displayed, Pending: e.Pending}, nil
	}
	amount, err := r.cfg.Fetcher.Balance(ctx, key.Wallet, key.Token)
	if err != nil {
		return View{}, err
	}
	e := r.cache.Fill(key, amount, r.cfg.Clock.Now())
	return View{Wallet: address, Token: token, Amount: e.Displayed, Pending: e.Pending}, nil
}

func (r *Reconciler) fresh(e Entry) bool {
	return r.cfg.Clock.Since(e.FetchedAt) < r.cfg.CacheTTL
}

// evictExpired drops settled entries past CacheTTL, at most once per TTL.
func (r *Reconciler) evictExpired() {
	now := r.cfg.Clock.Now()
	r.mu.Lock()
	if now.Sub(r.lastEvict) < r.cfg.CacheTTL {
		r.mu.Unlock()
		return
	}
	r.lastEvict = now
	r.mu.Unlock()

	if n := r.cache.Evict(now.Add(-r.cfg.CacheTTL)); n > 0 {
		logging.Log.Debugf("BALANCE: evicted %d expired balances", n)
	}
}

// fetch reads the chain and overwrites the entry, pending or not. Only the
// holder of the key's transfer reservation may call it.
func (r *Reconciler) fetch(ctx context.Context, key Key) (decimal.Decimal, error) {
	amount, err := r.cfg.Fetcher.Balance(ctx, key.Wallet, key.Token)
	if err != nil {
		return decimal.Zero, err
	}
	r.cache.Set(key, amount, r.cfg.Clock.Now())
	return amount, nil
}

// settled returns the key's entry, reading the chain when it is missing or
// expired. The caller holds the transfer reservation of the key.
func (r *Reconciler) settled(ctx context.Context, key Key) (Entry, error) {
	if e, ok := r.cache.Get(key); ok && r.fresh(e) {
		return e, nil
	}
	amount, err := r.fetch(ctx, key)
	if err != nil {
		return Entry{}, err
	}
	return Entry{Confirmed: amount, Displayed: amount, FetchedAt: r.cfg.Clock.Now()}, nil
}

func (r *Reconciler) validate(req TransferRequest) error {
	if req.Session == nil || req.Session.Wallet != req.FromWallet {
		return ErrSessionMismatch
	}
	if _, err := solana.ValidateAddress(req.ToAddress); err != nil {
		return err
	}
	if strings.TrimSpace(req.ToAddress) == req.FromWallet {
		return fmt.Errorf("%w: source and destination are the same wallet", ErrInvalidTransfer)
	}
	if !req.Amount.IsPositive() {
		return fmt.Errorf("%w: amount must be positive", ErrInvalidTransfer)
	}
	if _, err := solana.ParseTokenType(string(req.Token)); err != nil {
		return err
	}
	if len(req.RawTx) == 0 {
		return fmt.Errorf("%w: signed transaction is required", ErrInvalidTransfer)
	}
	return nil
}

// SubmitTransfer lowers the displayed balance, relays the signed transaction
// and, on success, reconciles in the background. A failed submission
// restores the previous balance before returning. Only one transfer per
// wallet and token may be pending at a time.
func (r *Reconciler) SubmitTransfer(ctx context.Context, req TransferRequest) (TransferResult, error) {
	if err := r.validate(req); err != nil {
		logging.Log.Warnf("BALANCE: rejected transfer from %s: %v", req.FromWallet, err)
		return TransferResult{}, err
	}
	key := Key{Wallet: req.FromWallet, Token: req.Token}

	t, err := r.reserve(key)
	if err != nil {
		return TransferResult{}, err
	}

	entry, err := r.settled(ctx, key)
	if err != nil {
		r.release(key, t)
		return TransferResult{}, err
	}
	prev, err := r.cache.Debit(key, req.Amount, entry)
	if err != nil {
		r.release(key, t)
		logging.Log.Warnf("BALANCE: %s has %s %s, transfer of %s rejected", key.Wallet, prev.Displayed, key.Token, req.Amount)
		return TransferResult{}, err
	}
	metrics.ReconcilerEventsTotal.WithLabelValues("applied").Inc()
	optimistic := prev.Displayed.Sub(req.Amount)

	signature, err := r.cfg.Relay.SendTransaction(ctx, req.RawTx)
	if err != nil {
		r.cache.Rollback(key, prev)
		r.release(key, t)
		metrics.ReconcilerEventsTotal.WithLabelValues("rollback").Inc()
		logging.Log.Errorf("BALANCE: transfer of %s %s from %s failed, restored %s: %v",
			req.Amount, key.Token, key.Wallet, prev.Displayed, err)
		return TransferResult{}, fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}

	logging.Log.Infof("BALANCE: transfer %s of %s %s from %s submitted", signature, req.Amount, key.Token, key.Wallet)
	r.track(key, t, signature)
	return TransferResult{Signature: signature, Displayed: optimistic}, nil
}

func (r *Reconciler) reserve(key Key) (*tracker, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, errors.New("reconciler closed")
	}
	if _, busy := r.inflight[key]; busy {
		logging.Log.Warnf("BALANCE: transfer already pending for %s %s", key.Wallet, key.Token)
		return nil, ErrTransferInProgress
	}
	t := newTracker()
	r.inflight[key] = t
	r.wg.Add(1)
	return t, nil
}

func (r *Reconciler) release(key Key, t *tracker) {
	r.mu.Lock()
	owned := r.inflight[key] == t
	if owned {
		delete(r.inflight, key)
	}
	r.mu.Unlock()
	if owned {
		r.wg.Done()
	}
}

// Pending reports whether a transfer for the key awaits reconciliation.
func (r *Reconciler) Pending(address string, token solana.TokenType) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.inflight[Key{Wallet: address, Token: token}]
	return ok
}

// Close stops every pending confirmation without refreshing and waits for
// in-flight submissions to finish.
func (r *Reconciler) Close() {
	r.mu.Lock()
	r.closed = true
	trackers := make([]*tracker, 0, len(r.inflight))
	for _, t := range r.inflight {
		trackers = append(trackers, t)
	}
	r.mu.Unlock()

	for _, t := range trackers {
		t.stop()
	}
	r.wg.Wait()
	if r.unsubscribe != nil {
		r.unsubscribe()
	}
}
