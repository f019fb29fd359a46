package balance

import (
	"sync"
	"time"

	"github.com/jichangyoon/samu-rewards/solana"
	"github.com/shopspring/decimal"
)

type Key struct {
	Wallet string
	Token  solana.TokenType
}

// Entry is what the cache knows about one balance. Displayed differs from
// Confirmed only while a transfer is pending confirmation.
type Entry struct {
	Confirmed decimal.Decimal
	Displayed decimal.Decimal
	Pending   bool
	FetchedAt time.Time
}

// Cache holds displayed balances keyed by wallet and token.
type Cache struct {
	mu      sync.RWMutex
	entries map[Key]Entry
}

func NewCache() *Cache {
	return &Cache{entries: make(map[Key]Entry)}
}

func (c *Cache) Get(key Key) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	return e, ok
}

// Set stores an authoritative balance and clears any optimistic state.
func (c *Cache) Set(key Key, amount decimal.Decimal, fetchedAt time.Time) {
	c.mu.Lock()
	c.entries[key] = Entry{Confirmed: amount, Displayed: amount, FetchedAt: fetchedAt}
	c.mu.Unlock()
}

// Fill stores a fetched balance unless a transfer went pending on the key in
// the meantime. It returns the entry the cache holds afterwards.
func (c *Cache) Fill(key Key, amount decimal.Decimal, fetchedAt time.Time) Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[key]; ok && e.Pending {
		return e
	}
	e := Entry{Confirmed: amount, Displayed: amount, FetchedAt: fetchedAt}
	c.entries[key] = e
	return e
}

// Debit lowers the displayed balance by amount and returns the entry as it
// was before so it can be rolled back. The balance check and the debit
// happen under one lock. When the key was dropped since the caller read it,
// fallback stands in for the missing entry.
func (c *Cache) Debit(key Key, amount decimal.Decimal, fallback Entry) (Entry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	prev, ok := c.entries[key]
	if !ok {
		prev = fallback
	}
	if amount.GreaterThan(prev.Displayed) {
		return prev, ErrInsufficientBalance
	}
	next := prev
	next.Displayed = prev.Displayed.Sub(amount)
	next.Pending = true
	c.entries[key] = next
	return prev, nil
}

// Rollback restores an entry captured by Debit. An entry that was never
// fetched is dropped rather than stored as a zero balance.
func (c *Cache) Rollback(key Key, prev Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if prev.FetchedAt.IsZero() {
		delete(c.entries, key)
		return
	}
	c.entries[key] = prev
}

// Evict removes settled entries fetched before cutoff.
func (c *Cache) Evict(cutoff time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for k, e := range c.entries {
		if !e.Pending && e.FetchedAt.Before(cutoff) {
			delete(c.entries, k)
			n++
		}
	}
	return n
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *Cache) Delete(key Key) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// DropWallet removes every settled entry of the wallet. Entries with a
// transfer in flight stay until that transfer is reconciled.
func (c *Cache) DropWallet(wallet string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for k, e := range c.entries {
		if k.Wallet == wallet && !e.Pending {
			delete(c.entries, k)
			n++
		}
	}
	return n
}
