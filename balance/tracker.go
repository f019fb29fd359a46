package balance

import (
	"context"
	"sync"

	"github.com/jichangyoon/samu-rewards/logging"
	"github.com/jichangyoon/samu-rewards/metrics"
	"github.com/jichangyoon/samu-rewards/solana"
)

// tracker is the reservation of one pending transfer.
type tracker struct {
	once   sync.Once
	stopCh chan struct{}
}

func newTracker() *tracker {
	return &tracker{stopCh: make(chan struct{})}
}

func (t *tracker) stop() {
	t.once.Do(func() { close(t.stopCh) })
}

func (r *Reconciler) track(key Key, t *tracker, signature string) {
	go func() {
		defer r.release(key, t)
		r.reconcile(key, t, signature)
	}()
}

// reconcile polls the signature with a doubling interval and refreshes the
// balance as soon as the transfer settles. RefreshDelay bounds the wait: when
// it elapses the balance is refreshed whatever the status.
func (r *Reconciler) reconcile(key Key, t *tracker, signature string) {
	deadline := r.cfg.Clock.NewTimer(r.cfg.RefreshDelay)
	defer deadline.Stop()

	wait := r.cfg.PollInitial
	for {
		poll := r.cfg.Clock.NewTimer(wait)
		select {
		case <-t.stopCh:
			poll.Stop()
			return
		case <-deadline.Chan():
			poll.Stop()
			r.refresh(key, "deadline")
			return
		case <-poll.Chan():
		}

		switch status := r.status(signature); status {
		case solana.ConfirmationConfirmed:
			r.refresh(key, "confirmed")
			return
		case solana.ConfirmationFailed:
			logging.Log.Warnf("BALANCE: transfer %s failed on chain", signature)
			metrics.ReconcilerEventsTotal.WithLabelValues("chain_failed").Inc()
			r.refresh(key, "chain_failed")
			return
		}

		wait *= 2
		if wait > r.cfg.PollMax {
			wait = r.cfg.PollMax
		}
	}
}

func (r *Reconciler) status(signature string) solana.Confirmation {
	ctx, cancel := context.WithTimeout(context.Background(), r.cfg.FetchTimeout)
	defer cancel()
	st, err := r.cfg.Relay.SignatureStatus(ctx, signature)
	if err != nil {
		logging.Log.Warnf("BALANCE: status check for %s failed: %v", signature, err)
		return solana.ConfirmationPending
	}
	return st
}

// refresh replaces the optimistic entry with the chain balance. When the
// fetch fails the entry is dropped so the next read goes to the chain.
func (r *Reconciler) refresh(key Key, reason string) {
	ctx, cancel := context.WithTimeout(context.Background(), r.cfg.FetchTimeout)
	defer cancel()

	amount, err := r.fetch(ctx, key)
	if err != nil {
		r.cache.Delete(key)
		metrics.ReconcilerEventsTotal.WithLabelValues("refresh_error").Inc()
		logging.Log.Errorf("BALANCE: refresh of %s %s after %s failed: %v", key.Wallet, key.Token, reason, err)
		return
	}
	metrics.ReconcilerEventsTotal.WithLabelValues("refresh").Inc()
	logging.Log.Infof("BALANCE: %s %s reconciled to %s (%s)", key.Wallet, key.Token, amount, reason)
}
