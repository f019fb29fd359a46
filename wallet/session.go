package wallet

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jichangyoon/samu-rewards/logging"
	"github.com/jichangyoon/samu-rewards/solana"
	"github.com/jonboulle/clockwork"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

var ErrSessionNotFound = errors.New("wallet session not found")

const sessionIDLength = 24

// Session is the connection context of one wallet. It is created on connect
// and torn down on disconnect or after sitting idle for too long.
type Session struct {
	ID          string
	Wallet      string
	ConnectedAt time.Time
	LastSeen    time.Time
}

// StatusEvent reports a session coming up or going away.
type StatusEvent struct {
	SessionID string
	Wallet    string
	Connected bool
}

// StatusSource is what other components need to follow connection state.
type StatusSource interface {
	Subscribe(fn func(StatusEvent)) (unsubscribe func())
}

type RegistryConfig struct {
	IdleTimeout time.Duration
	Clock       clockwork.Clock
}

func (cfg *RegistryConfig) Validate() error {
	if cfg.IdleTimeout < 0 {
		return errors.New("idle timeout must not be negative")
	}
	if cfg.IdleTimeout == 0 {
		cfg.IdleTimeout = 24 * time.Hour
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	return nil
}

// Registry holds the live sessions of the process.
type Registry struct {
	cfg RegistryConfig

	mu          sync.Mutex
	sessions    map[string]*Session
	subscribers map[int]func(StatusEvent)
	nextSub     int
}

func NewRegistry(cfg RegistryConfig) (*Registry, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Registry{
		cfg:         cfg,
		sessions:    make(map[string]*Session),
		subscribers: make(map[int]func(StatusEvent)),
	}, nil
}

func (r *Registry) Connect(address string) (*Session, error) {
	pk, err := solana.ValidateAddress(address)
	if err != nil {
		return nil, err
	}
	id, err := gonanoid.New(sessionIDLength)
	if err != nil {
		return nil, err
	}

	now := r.cfg.Clock.Now()
	s := &Session{ID: id, Wallet: pk.String(), ConnectedAt: now, LastSeen: now}

	r.mu.Lock()
	r.sessions[id] = s
	r.mu.Unlock()

	logging.Log.Infof("WALLET: %s connected, session %s", s.Wallet, id)
	r.publish(StatusEvent{SessionID: id, Wallet: s.Wallet, Connected: true})
	copied := *s
	return &copied, nil
}

// Get returns the session and marks it as seen. Expired sessions are torn
// down on access.
func (r *Registry) Get(id string) (*Session, error) {
	now := r.cfg.Clock.Now()

	r.mu.Lock()
	s, ok := r.sessions[id]
	if !ok {
		r.mu.Unlock()
		return nil, ErrSessionNotFound
	}
	if now.Sub(s.LastSeen) > r.cfg.IdleTimeout {
		delete(r.sessions, id)
		r.mu.Unlock()
		logging.Log.Infof("WALLET: session %s for %s expired", id, s.Wallet)
		r.publish(StatusEvent{SessionID: id, Wallet: s.Wallet, Connected: false})
		return nil, ErrSessionNotFound
	}
	s.LastSeen = now
	copied := *s
	r.mu.Unlock()
	return &copied, nil
}

func (r *Registry) Disconnect(id string) error {
	r.mu.Lock()
	s, ok := r.sessions[id]
	if ok {
		delete(r.sessions, id)
	}
	r.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}

	logging.Log.Infof("WALLET: %s disconnected, session %s", s.Wallet, id)
	r.publish(StatusEvent{SessionID: id, Wallet: s.Wallet, Connected: false})
	return nil
}

// Connected reports whether any live session belongs to the wallet.
func (r *Registry) Connected(address string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sessions {
		if s.Wallet == address {
			return true
		}
	}
	return false
}

func (r *Registry) Subscribe(fn func(StatusEvent)) func() {
	r.mu.Lock()
	id := r.nextSub
	r.nextSub++
	r.subscribers[id] = fn
	r.mu.Unlock()

	return func() {
		r.mu.Lock()
		delete(r.subscribers, id)
		r.mu.Unlock()
	}
}

// publish runs subscribers outside the lock so they may call back into the
// registry.
func (r *Registry) publish(ev StatusEvent) {
	r.mu.Lock()
	fns := make([]func(StatusEvent), 0, len(r.subscribers))
	for _, fn := range r.subscribers {
		fns = append(fns, fn)
	}
	r.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}

type sessionKey struct{}

func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

func FromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(*Session)
	return s, ok && s != nil
}
