package balance

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jichangyoon/samu-rewards/solana"
	"github.com/jichangyoon/samu-rewards/wallet"
	"github.com/jonboulle/clockwork"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

const (
	fromWallet = "So11111111111111111111111111111111111111112"
	toWallet   = "11111111111111111111111111111111"
)

type fakeFetcher struct {
	mu      sync.Mutex
	balance decimal.Decimal
	err     error
	calls   int
}

func (f *fakeFetcher) Balance(_ context.Context, _ string, _ solana.TokenType) (decimal.Decimal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.balance, f.err
}

func (f *fakeFetcher) set(balance decimal.Decimal, err error) {
	f.mu.Lock()
	f.balance, f.err = balance, err
	f.mu.Unlock()
}

func (f *fakeFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeRelay struct {
	mu      sync.Mutex
	sendErr error
	status  solana.Confirmation
}

func (f *fakeRelay) SendTransaction(_ context.Context, _ []byte) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return "", f.sendErr
	}
	return "sig-1", nil
}

func (f *fakeRelay) SignatureStatus(_ context.Context, _ string) (solana.Confirmation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status, nil
}

func (f *fakeRelay) setStatus(st solana.Confirmation) {
	f.mu.Lock()
	f.status = st
	f.mu.Unlock()
}

type fixture struct {
	clock   *clockwork.FakeClock
	fetcher *fakeFetcher
	relay   *fakeRelay
	rec     *Reconciler
	session *wallet.Session
}

func newFixture(t *testing.T, sessions wallet.StatusSource) *fixture {
	t.Helper()
	f := &fixture{
		clock:   clockwork.NewFakeClock(),
		fetcher: &fakeFetcher{balance: decimal.NewFromInt(100)},
		relay:   &fakeRelay{},
		session: &wallet.Session{ID: "s1", Wallet: fromWallet},
	}
	rec, err := NewReconciler(ReconcilerConfig{
		Fetcher:      f.fetcher,
		Relay:        f.relay,
		Sessions:     sessions,
		RefreshDelay: 30 * time.Second,
		PollInitial:  time.Second,
		PollMax:      4 * time.Second,
		Clock:        f.clock,
	})
	require.NoError(t, err)
	f.rec = rec
	return f
}

func (f *fixture) transfer(amount int64) TransferRequest {
	return TransferRequest{
		Session:    f.session,
		FromWallet: fromWallet,
		ToAddress:  toWallet,
		Amount:     decimal.NewFromInt(amount),
		Token:      solana.TokenSAMU,
		RawTx:      []byte{1},
	}
}

func (f *fixture) waitForTimers(t *testing.T, n int) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, f.clock.BlockUntilContext(ctx, n))
}

func TestSubmitTransferOptimistic(t *testing.T) {
	defer goleak.VerifyNone(t)
	ctx := context.Background()

	t.Run("Happy path - displayed balance drops at once", func(t *testing.T) {
		f := newFixture(t, nil)
		defer f.rec.Close()

		view, err := f.rec.Balance(ctx, fromWallet, solana.TokenSAMU)
		require.NoError(t, err)
		assert.True(t, decimal.NewFromInt(100).Equal(view.Amount))

		res, err := f.rec.SubmitTransfer(ctx, f.transfer(30))
		require.NoError(t, err)
		assert.Equal(t, "sig-1", res.Signature)
		assert.True(t, decimal.NewFromInt(70).Equal(res.Displayed), res.Displayed.String())

		view, err = f.rec.Balance(ctx, fromWallet, solana.TokenSAMU)
		require.NoError(t, err)
		assert.True(t, decimal.NewFromInt(70).Equal(view.Amount))
		assert.True(t, view.Pending)
		assert.True(t, f.rec.Pending(fromWallet, solana.TokenSAMU))
	})

	t.Run("Unhappy path - failed submission restores the balance", func(t *testing.T) {
		f := newFixture(t, nil)
		defer f.rec.Close()
		f.relay.sendErr = errors.New("blockhash not found")

		_, err := f.rec.Balance(ctx, fromWallet, solana.TokenSAMU)
		require.NoError(t, err)

		_, err = f.rec.SubmitTransfer(ctx, f.transfer(30))
		assert.ErrorIs(t, err, ErrTransferFailed)

		view, err := f.rec.Balance(ctx, fromWallet, solana.TokenSAMU)
		require.NoError(t, err)
		assert.True(t, decimal.NewFromInt(100).Equal(view.Amount), view.Amount.String())
		assert.False(t, view.Pending)
		assert.False(t, f.rec.Pending(fromWallet, solana.TokenSAMU))
	})

	t.Run("Unhappy path - more than the balance is rejected before any change", func(t *testing.T) {
		f := newFixture(t, nil)
		defer f.rec.Close()

		_, err := f.rec.SubmitTransfer(ctx, f.transfer(150))
		assert.ErrorIs(t, err, ErrInsufficientBalance)

		view, err := f.rec.Balance(ctx, fromWallet, solana.TokenSAMU)
		require.NoError(t, err)
		assert.True(t, decimal.NewFromInt(100).Equal(view.Amount))
		assert.False(t, view.Pending)
	})

	t.Run("Unhappy path - second transfer while one is pending", func(t *testing.T) {
		f := newFixture(t, nil)
		defer f.rec.Close()

		_, err := f.rec.SubmitTransfer(ctx, f.transfer(10))
		require.NoError(t, err)
		_, err = f.rec.SubmitTransfer(ctx, f.transfer(10))
		assert.ErrorIs(t, err, ErrTransferInProgress)

		sol := f.transfer(1)
		sol.Token = solana.TokenSOL
		_, err = f.rec.SubmitTransfer(ctx, sol)
		assert.NoError(t, err)
	})

	t.Run("Unhappy path - session does not own the wallet", func(t *testing.T) {
		f := newFixture(t, nil)
		defer f.rec.Close()

		req := f.transfer(10)
		req.Session = &wallet.Session{ID: "s2", Wallet: toWallet}
		_, err := f.rec.SubmitTransfer(ctx, req)
		assert.ErrorIs(t, err, ErrSessionMismatch)

		req.Session = nil
		_, err = f.rec.SubmitTransfer(ctx, req)
		assert.ErrorIs(t, err, ErrSessionMismatch)
	})

	t.Run("Unhappy path - validation", func(t *testing.T) {
		f := newFixture(t, nil)
		defer f.rec.Close()

		req := f.transfer(10)
		req.ToAddress = "bogus"
		_, err := f.rec.SubmitTransfer(ctx, req)
		assert.ErrorIs(t, err, solana.ErrInvalidAddress)

		req = f.transfer(0)
		_, err = f.rec.SubmitTransfer(ctx, req)
		assert.ErrorIs(t, err, ErrInvalidTransfer)

		req = f.transfer(10)
		req.ToAddress = fromWallet
		_, err = f.rec.SubmitTransfer(ctx, req)
		assert.ErrorIs(t, err, ErrInvalidTransfer)

		req = f.transfer(10)
		req.RawTx = nil
		_, err = f.rec.SubmitTransfer(ctx, req)
		assert.ErrorIs(t, err, ErrInvalidTransfer)

		assert.Zero(t, f.fetcher.callCount())
	})
}

func TestReconcile(t *testing.T) {
	defer goleak.VerifyNone(t)
	ctx := context.Background()

	t.Run("Happy path - refreshed as soon as confirmed", func(t *testing.T) {
		f := newFixture(t, nil)
		defer f.rec.Close()

		_, err := f.rec.SubmitTransfer(ctx, f.transfer(30))
		require.NoError(t, err)
		f.fetcher.set(decimal.NewFromInt(70), nil)
		f.relay.setStatus(solana.ConfirmationConfirmed)

		f.waitForTimers(t, 2)
		f.clock.Advance(time.Second)

		require.Eventually(t, func() bool { return !f.rec.Pending(fromWallet, solana.TokenSAMU) }, 2*time.Second, 5*time.Millisecond)
		view, err := f.rec.Balance(ctx, fromWallet, solana.TokenSAMU)
		require.NoError(t, err)
		assert.True(t, decimal.NewFromInt(70).Equal(view.Amount))
		assert.False(t, view.Pending)
	})

	t.Run("Happy path - refresh delay bounds an unconfirmed transfer", func(t *testing.T) {
		f := newFixture(t, nil)
		defer f.rec.Close()

		_, err := f.rec.SubmitTransfer(ctx, f.transfer(30))
		require.NoError(t, err)
		f.fetcher.set(decimal.NewFromInt(65), nil)

		f.waitForTimers(t, 2)
		f.clock.Advance(time.Second)
		f.waitForTimers(t, 2)
		assert.True(t, f.rec.Pending(fromWallet, solana.TokenSAMU))

		f.clock.Advance(30 * time.Second)
		require.Eventually(t, func() bool { return !f.rec.Pending(fromWallet, solana.TokenSAMU) }, 2*time.Second, 5*time.Millisecond)

		view, err := f.rec.Balance(ctx, fromWallet, solana.TokenSAMU)
		require.NoError(t, err)
		assert.True(t, decimal.NewFromInt(65).Equal(view.Amount), view.Amount.String())
	})

	t.Run("Happy path - chain failure refreshes to the real balance", func(t *testing.T) {
		f := newFixture(t, nil)
		defer f.rec.Close()

		_, err := f.rec.SubmitTransfer(ctx, f.transfer(30))
		require.NoError(t, err)
		f.relay.setStatus(solana.ConfirmationFailed)

		f.waitForTimers(t, 2)
		f.clock.Advance(time.Second)
		require.Eventually(t, func() bool { return !f.rec.Pending(fromWallet, solana.TokenSAMU) }, 2*time.Second, 5*time.Millisecond)

		view, err := f.rec.Balance(ctx, fromWallet, solana.TokenSAMU)
		require.NoError(t, err)
		assert.True(t, decimal.NewFromInt(100).Equal(view.Amount))
	})

	t.Run("Unhappy path - failed refresh leaves the next read to the chain", func(t *testing.T) {
		f := newFixture(t, nil)
		defer f.rec.Close()

		_, err := f.rec.SubmitTransfer(ctx, f.transfer(30))
		require.NoError(t, err)
		f.fetcher.set(decimal.Zero, errors.New("rpc down"))
		f.relay.setStatus(solana.ConfirmationConfirmed)

		f.waitForTimers(t, 2)
		f.clock.Advance(time.Second)
		require.Eventually(t, func() bool { return !f.rec.Pending(fromWallet, solana.TokenSAMU) }, 2*time.Second, 5*time.Millisecond)

		_, ok := f.rec.cache.Get(Key{Wallet: fromWallet, Token: solana.TokenSAMU})
		assert.False(t, ok)

		f.fetcher.set(decimal.NewFromInt(70), nil)
		view, err := f.rec.Balance(ctx, fromWallet, solana.TokenSAMU)
		require.NoError(t, err)
		assert.True(t, decimal.NewFromInt(70).Equal(view.Amount))
	})

	t.Run("Happy path - close stops pending confirmations", func(t *testing.T) {
		f := newFixture(t, nil)
		_, err := f.rec.SubmitTransfer(ctx, f.transfer(30))
		require.NoError(t, err)
		f.rec.Close()

		assert.False(t, f.rec.Pending(fromWallet, solana.TokenSAMU))
		_, err = f.rec.SubmitTransfer(ctx, f.transfer(1))
		assert.Error(t, err)
	})
}

func TestDisconnectDropsBalances(t *testing.T) {
	defer goleak.VerifyNone(t)
	ctx := context.Background()

	registry, err := wallet.NewRegistry(wallet.RegistryConfig{})
	require.NoError(t, err)
	f := newFixture(t, registry)
	defer f.rec.Close()

	session, err := registry.Connect(fromWallet)
	require.NoError(t, err)

	_, err = f.rec.Balance(ctx, fromWallet, solana.TokenSAMU)
	require.NoError(t, err)
	_, err = f.rec.Balance(ctx, fromWallet, solana.TokenSAMU)
	require.NoError(t, err)
	assert.Equal(t, 1, f.fetcher.callCount())

	require.NoError(t, registry.Disconnect(session.ID))
	_, err = f.rec.Balance(ctx, fromWallet, solana.TokenSAMU)
	require.NoError(t, err)
	assert.Equal(t, 2, f.fetcher.callCount())
}

func TestBalanceExpiry(t *testing.T) {
	defer goleak.VerifyNone(t)
	ctx := context.Background()

	t.Run("Happy path - settled balance is read again after the ttl", func(t *testing.T) {
		f := newFixture(t, nil)
		defer f.rec.Close()

		view, err := f.rec.Balance(ctx, fromWallet, solana.TokenSAMU)
		require.NoError(t, err)
		assert.True(t, decimal.NewFromInt(100).Equal(view.Amount))

		f.fetcher.set(decimal.NewFromInt(5), nil)
		f.clock.Advance(30 * time.Second)
		view, err = f.rec.Balance(ctx, fromWallet, solana.TokenSAMU)
		require.NoError(t, err)
		assert.True(t, decimal.NewFromInt(100).Equal(view.Amount), "served from cache within the ttl")
		assert.Equal(t, 1, f.fetcher.callCount())

		f.clock.Advance(72 * time.Hour)
		view, err = f.rec.Balance(ctx, fromWallet, solana.TokenSAMU)
		require.NoError(t, err)
		assert.True(t, decimal.NewFromInt(5).Equal(view.Amount), view.Amount.String())
		assert.Equal(t, 2, f.fetcher.callCount())
	})

	t.Run("Happy path - transfer checks against a fresh balance", func(t *testing.T) {
		f := newFixture(t, nil)
		defer f.rec.Close()

		_, err := f.rec.Balance(ctx, fromWallet, solana.TokenSAMU)
		require.NoError(t, err)

		f.fetcher.set(decimal.NewFromInt(20), nil)
		f.clock.Advance(2 * time.Minute)
		_, err = f.rec.SubmitTransfer(ctx, f.transfer(30))
		assert.ErrorIs(t, err, ErrInsufficientBalance)
		assert.False(t, f.rec.Pending(fromWallet, solana.TokenSAMU))
	})

	t.Run("Happy path - expired entries are evicted", func(t *testing.T) {
		f := newFixture(t, nil)
		defer f.rec.Close()

		_, err := f.rec.Balance(ctx, fromWallet, solana.TokenSAMU)
		require.NoError(t, err)
		_, err = f.rec.Balance(ctx, fromWallet, solana.TokenSOL)
		require.NoError(t, err)
		assert.Equal(t, 2, f.rec.cache.Len())

		f.clock.Advance(2 * time.Minute)
		_, err = f.rec.Balance(ctx, toWallet, solana.TokenSAMU)
		require.NoError(t, err)
		assert.Equal(t, 1, f.rec.cache.Len(), "only the entry just read remains")
	})

	t.Run("Happy path - pending entry outlives the ttl", func(t *testing.T) {
		f := newFixture(t, nil)
		defer f.rec.Close()

		_, err := f.rec.SubmitTransfer(ctx, f.transfer(30))
		require.NoError(t, err)

		f.rec.cache.Evict(f.clock.Now().Add(time.Hour))
		view, err := f.rec.Balance(ctx, fromWallet, solana.TokenSAMU)
		require.NoError(t, err)
		assert.True(t, decimal.NewFromInt(70).Equal(view.Amount), view.Amount.String())
		assert.True(t, view.Pending)
	})
}

func TestCache(t *testing.T) {
	key := Key{Wallet: fromWallet, Token: solana.TokenSOL}
	now := time.Now()

	t.Run("Happy path - debit and rollback", func(t *testing.T) {
		c := NewCache()
		c.Set(key, decimal.NewFromInt(5), now)

		prev, err := c.Debit(key, decimal.NewFromInt(5), Entry{})
		require.NoError(t, err)
		e, _ := c.Get(key)
		assert.True(t, e.Displayed.IsZero())
		assert.True(t, e.Pending)
		assert.Equal(t, 0, c.DropWallet(fromWallet), "pending entries survive a disconnect")

		c.Rollback(key, prev)
		e, _ = c.Get(key)
		assert.True(t, decimal.NewFromInt(5).Equal(e.Displayed))
		assert.Equal(t, 1, c.DropWallet(fromWallet))
	})

	t.Run("Unhappy path - debit above the displayed balance", func(t *testing.T) {
		c := NewCache()
		c.Set(key, decimal.NewFromInt(5), now)

		_, err := c.Debit(key, decimal.NewFromInt(8), Entry{})
		assert.ErrorIs(t, err, ErrInsufficientBalance)
		e, _ := c.Get(key)
		assert.True(t, decimal.NewFromInt(5).Equal(e.Displayed))
		assert.False(t, e.Pending)
	})

	t.Run("Happy path - entry dropped before the debit", func(t *testing.T) {
		c := NewCache()
		c.Set(key, decimal.NewFromInt(5), now)
		read, _ := c.Get(key)
		c.DropWallet(fromWallet)

		prev, err := c.Debit(key, decimal.NewFromInt(2), read)
		require.NoError(t, err)
		e, _ := c.Get(key)
		assert.True(t, decimal.NewFromInt(3).Equal(e.Displayed))

		c.Rollback(key, prev)
		e, ok := c.Get(key)
		require.True(t, ok)
		assert.True(t, decimal.NewFromInt(5).Equal(e.Displayed), e.Displayed.String())
	})

	t.Run("Happy path - rollback of an unfetched entry drops it", func(t *testing.T) {
		c := NewCache()
		c.Rollback(key, Entry{})
		_, ok := c.Get(key)
		assert.False(t, ok)
	})

	t.Run("Happy path - fill leaves a pending entry alone", func(t *testing.T) {
		c := NewCache()
		c.Set(key, decimal.NewFromInt(5), now)
		_, err := c.Debit(key, decimal.NewFromInt(1), Entry{})
		require.NoError(t, err)

		e := c.Fill(key, decimal.NewFromInt(100), now)
		assert.True(t, decimal.NewFromInt(4).Equal(e.Displayed))
		assert.True(t, e.Pending)
	})
}
