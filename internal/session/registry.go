package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"storefront/internal/carousel"
	"storefront/internal/logging"
	"storefront/internal/notify"
	cartsvc "storefront/internal/service/cart"
)

// StoreFactory builds the cart store of a new session.
type StoreFactory func(identity cartsvc.Identity, sink notify.Sink) *cartsvc.Store

type forgetter interface {
	Forget(sessionID string)
}

// Options configures a Registry.
type Options struct {
	Feed             notify.Feed
	NewStore         StoreFactory
	IdleTTL          time.Duration
	CarouselInterval time.Duration
	Logger           *zap.Logger
}

// Registry owns every live session. Sessions idle for longer than IdleTTL are
// dropped by Sweep, which also stops their carousel.
type Registry struct {
	feed     notify.Feed
	newStore StoreFactory
	ttl      time.Duration
	interval time.Duration
	logger   *zap.Logger
	now      func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewRegistry(opts Options) *Registry {
	ttl := opts.IdleTTL
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &Registry{
		feed:     opts.Feed,
		newStore: opts.NewStore,
		ttl:      ttl,
		interval: opts.CarouselInterval,
		logger:   logging.OrNop(opts.Logger),
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
}

// Get returns the live session with id and marks it as seen.
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.Lock()
	s, ok := r.sessions[id]
	r.mu.Unlock()
	if !ok {
		return nil, false
	}
	s.touch(r.now())
	return s, true
}

// Create starts a new session with a fresh id. Its carousel only starts
// ticking once something reads it.
func (r *Registry) Create() *Session {
	id := uuid.NewString()
	s := &Session{
		id:       id,
		carousel: carousel.New(carousel.Slides, r.interval),
		lastSeen: r.now(),
	}
	s.sink = notify.Bind(r.feed, id, func(sessionID string, err error) {
		r.logger.Warn("session: push notification", zap.String("session_id", sessionID), zap.Error(err))
	})
	s.cart = r.newStore(s, s.sink)

	r.mu.Lock()
	r.sessions[id] = s
	r.mu.Unlock()
	r.logger.Debug("session: created", zap.String("session_id", id))
	return s
}

// GetOrCreate resolves id, creating a new session when it is unknown.
func (r *Registry) GetOrCreate(id string) (*Session, bool) {
	if id != "" {
		if s, ok := r.Get(id); ok {
			return s, false
		}
	}
	return r.Create(), true
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep drops sessions idle for longer than the TTL and returns how many
// were dropped.
func (r *Registry) Sweep() int {
	now := r.now()
	var expired []*Session

	r.mu.Lock()
	for id, s := range r.sessions {
		if s.idleSince(now) > r.ttl {
			expired = append(expired, s)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, s := range expired {
		r.release(s)
	}
	if len(expired) > 0 {
		r.logger.Info("session: swept idle sessions", zap.Int("count", len(expired)))
	}
	return len(expired)
}

// Run sweeps every interval until ctx is done, then closes all sessions.
func (r *Registry) Run(ctx context.Context, every time.Duration) error {
	if every <= 0 {
		every = time.Minute
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			r.Close()
			return nil
		case <-ticker.C:
			r.Sweep()
		}
	}
}

// Close drops every session.
func (r *Registry) Close() {
	r.mu.Lock()
	all := make([]*Session, 0, len(r.sessions))
	for id, s := range r.sessions {
		all = append(all, s)
		delete(r.sessions, id)
	}
	r.mu.Unlock()
	for _, s := range all {
		r.release(s)
	}
}

func (r *Registry) release(s *Session) {
	s.close()
	if f, ok := r.feed.(forgetter); ok {
		f.Forget(s.id)
	}
}
