package cart

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"storefront/internal/domain"
	"storefront/internal/keylock"
	"storefront/internal/logging"
	"storefront/internal/notify"
)

var (
	// ErrLoginRequired is returned by operations that need an authenticated user.
	ErrLoginRequired = errors.New("login required")
	// ErrInvalidQuantity is returned when an add asks for fewer than one unit.
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
)

// State is the lifecycle of a cart session.
type State string

const (
	StateUnauthenticated State = "unauthenticated"
	StateIdle            State = "idle"
	StateRefreshing      State = "refreshing"
)

// Identity reports the user currently signed in to the owning session.
type Identity interface {
	UserID() (string, bool)
}

type cartRepo interface {
	ListByUser(ctx context.Context, userID string) ([]domain.CartLineItem, error)
	Increment(ctx context.Context, userID, productID string, quantity int) (*domain.CartLineItem, error)
	SetQuantity(ctx context.Context, userID, lineID string, quantity int) error
	Delete(ctx context.Context, userID, lineID string) error
	DeleteByUser(ctx context.Context, userID string) (int64, error)
}

// Options tunes a Store. Zero values are usable.
type Options struct {
	// Locks serializes adds per (user, product). Share one Map across all
	// stores so two sessions of the same user also serialize.
	Locks *keylock.Map
	// Timeout bounds each remote call; zero leaves calls unbounded.
	Timeout time.Duration
	Logger  *zap.Logger
}

// Store is the session-scoped cart: a read-through cache of the signed-in
// user's line items over the remote table. The remote table is the source of
// truth; the cache is replaced wholesale on every successful fetch.
type Store struct {
	repo     cartRepo
	identity Identity
	sink     notify.Sink
	locks    *keylock.Map
	timeout  time.Duration
	logger   *zap.Logger

	mu         sync.RWMutex
	owner      string
	items      []domain.CartLineItem
	fetching   int
	busy       int
	fetchSeq   uint64
	appliedSeq uint64
}

func New(repo cartRepo, identity Identity, sink notify.Sink, opts Options) *Store {
	locks := opts.Locks
	if locks == nil {
		locks = keylock.New()
	}
	return &Store{
		repo:     repo,
		identity: identity,
		sink:     sink,
		locks:    locks,
		timeout:  opts.Timeout,
		logger:   logging.OrNop(opts.Logger),
		items:    []domain.CartLineItem{},
	}
}

// Snapshot is a consistent read of the cache and its aggregates.
type Snapshot struct {
	Items      []domain.CartLineItem `json:"items"`
	Loading    bool                  `json:"loading"`
	State      State                 `json:"state"`
	TotalItems int                   `json:"totalItems"`
	TotalPrice decimal.Decimal       `json:"totalPrice"`
}

// FetchItems replaces the cache with the user's current lines. Without a user
// the cache is reset to empty. On failure the cache is left untouched and a
// notification is emitted.
func (s *Store) FetchItems(ctx context.Context) error {
	userID, ok := s.identity.UserID()
	if !ok {
		s.adopt("")
		return nil
	}
	s.adopt(userID)
	return s.refresh(ctx, userID)
}

// AddOrIncrement adds quantity units of productID to the user's cart, growing
// the existing line when there is one. Adds for the same (user, product) are
// serialized and the write is a single atomic increment on the remote table.
func (s *Store) AddOrIncrement(ctx context.Context, productID string, quantity int) (*domain.CartLineItem, error) {
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}
	userID, ok := s.identity.UserID()
	if !ok {
		return nil, ErrLoginRequired
	}
	s.adopt(userID)
	done := s.track()
	defer done()

	unlock, err := s.locks.Lock(ctx, userID+"/"+productID)
	if err != nil {
		return nil, fmt.Errorf("wait for cart line: %w", err)
	}
	line, err := s.increment(ctx, userID, productID, quantity)
	unlock()
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		s.logger.Error("cart: add", zap.String("user_id", userID), zap.String("product_id", productID), zap.Error(err))
		s.sink.Notify(ctx, msgAddFailed)
		return nil, fmt.Errorf("add to cart: %w", err)
	}

	if err := s.refresh(ctx, userID); err != nil {
		return line, err
	}
	return line, nil
}

// SetQuantity overwrites a line's quantity; zero or less removes the line.
func (s *Store) SetQuantity(ctx context.Context, lineID string, quantity int) error {
	if quantity <= 0 {
		return s.RemoveItem(ctx, lineID)
	}
	userID, ok := s.identity.UserID()
	if !ok {
		return ErrLoginRequired
	}
	s.adopt(userID)
	done := s.track()
	defer done()

	rctx, cancel := s.remote(ctx)
	err := s.repo.SetQuantity(rctx, userID, lineID, quantity)
	cancel()
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			_ = s.refresh(ctx, userID)
			return err
		}
		s.logger.Error("cart: set quantity", zap.String("line_id", lineID), zap.Error(err))
		s.sink.Notify(ctx, msgUpdateFailed)
		return fmt.Errorf("set quantity: %w", err)
	}
	return s.refresh(ctx, userID)
}

// RemoveItem deletes a line and confirms it to the user. A line that is
// already gone counts as removed.
func (s *Store) RemoveItem(ctx context.Context, lineID string) error {
	userID, ok := s.identity.UserID()
	if !ok {
		return ErrLoginRequired
	}
	s.adopt(userID)
	done := s.track()
	defer done()

	rctx, cancel := s.remote(ctx)
	err := s.repo.Delete(rctx, userID, lineID)
	cancel()
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		s.logger.Error("cart: remove", zap.String("line_id", lineID), zap.Error(err))
		s.sink.Notify(ctx, msgRemoveFailed)
		return fmt.Errorf("remove item: %w", err)
	}

	refreshErr := s.refresh(ctx, userID)
	s.sink.Notify(ctx, msgRemoved)
	return refreshErr
}

// ClearCart deletes every line of the user. It is a no-op without a user.
func (s *Store) ClearCart(ctx context.Context) error {
	userID, ok := s.identity.UserID()
	if !ok {
		return nil
	}
	s.adopt(userID)
	done := s.track()
	defer done()

	// The clear takes a sequence number like a fetch that returns nothing:
	// fetches issued before it are discarded, later ones still apply.
	s.mu.Lock()
	s.fetchSeq++
	seq := s.fetchSeq
	s.mu.Unlock()

	rctx, cancel := s.remote(ctx)
	n, err := s.repo.DeleteByUser(rctx, userID)
	cancel()
	if err != nil {
		s.logger.Error("cart: clear", zap.String("user_id", userID), zap.Error(err))
		s.sink.Notify(ctx, msgClearFailed)
		return fmt.Errorf("clear cart: %w", err)
	}

	s.mu.Lock()
	if s.owner == userID && seq > s.appliedSeq {
		s.items = []domain.CartLineItem{}
		s.appliedSeq = seq
	}
	s.mu.Unlock()

	s.logger.Debug("cart: cleared", zap.String("user_id", userID), zap.Int64("lines", n))
	s.sink.Notify(ctx, msgCleared)
	return nil
}

// IdentityChanged drops the cache and refetches for whoever is signed in now.
// Call it after login and logout.
func (s *Store) IdentityChanged(ctx context.Context) error {
	s.mu.Lock()
	s.owner = ""
	s.items = []domain.CartLineItem{}
	s.appliedSeq = s.fetchSeq
	s.mu.Unlock()
	return s.FetchItems(ctx)
}

// Items returns a copy of the cached lines of the signed-in user.
func (s *Store) Items() []domain.CartLineItem {
	return s.Snapshot().Items
}

func (s *Store) Loading() bool {
	return s.Snapshot().Loading
}

func (s *Store) State() State {
	return s.Snapshot().State
}

func (s *Store) TotalItems() int {
	return s.Snapshot().TotalItems
}

func (s *Store) TotalPrice() decimal.Decimal {
	return s.Snapshot().TotalPrice
}

// Snapshot reads the cache. Lines cached for a different user than the one
// signed in now are never returned.
func (s *Store) Snapshot() Snapshot {
	userID, ok := s.identity.UserID()

	s.mu.RLock()
	defer s.mu.RUnlock()

	items := []domain.CartLineItem{}
	if ok && s.owner == userID {
		items = make([]domain.CartLineItem, len(s.items))
		copy(items, s.items)
	}

	state := StateIdle
	switch {
	case !ok:
		state = StateUnauthenticated
	case s.busy > 0 || s.fetching > 0:
		state = StateRefreshing
	}

	agg := domain.AggregateOf(items)
	return Snapshot{
		Items:      items,
		Loading:    ok && s.fetching > 0,
		State:      state,
		TotalItems: agg.TotalItems,
		TotalPrice: agg.TotalPrice,
	}
}

func (s *Store) increment(ctx context.Context, userID, productID string, quantity int) (*domain.CartLineItem, error) {
	rctx, cancel := s.remote(ctx)
	defer cancel()
	return s.repo.Increment(rctx, userID, productID, quantity)
}

// refresh fetches the user's lines and applies them unless a newer fetch, a
// clear, or an identity change got there first.
func (s *Store) refresh(ctx context.Context, userID string) error {
	s.mu.Lock()
	s.fetching++
	s.fetchSeq++
	seq := s.fetchSeq
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.fetching--
		s.mu.Unlock()
	}()

	rctx, cancel := s.remote(ctx)
	lines, err := s.repo.ListByUser(rctx, userID)
	cancel()
	if err != nil {
		s.logger.Error("cart: fetch", zap.String("user_id", userID), zap.Error(err))
		s.sink.Notify(ctx, msgFetchFailed)
		return fmt.Errorf("fetch cart: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.owner != userID || seq <= s.appliedSeq {
		s.logger.Debug("cart: discarded stale fetch", zap.String("user_id", userID), zap.Uint64("seq", seq))
		return nil
	}
	if lines == nil {
		lines = []domain.CartLineItem{}
	}
	s.items = lines
	s.appliedSeq = seq
	return nil
}

// adopt makes userID the cache owner, discarding lines cached for anyone else.
func (s *Store) adopt(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.owner == userID {
		return
	}
	s.owner = userID
	s.items = []domain.CartLineItem{}
	s.appliedSeq = s.fetchSeq
}

func (s *Store) track() func() {
	s.mu.Lock()
	s.busy++
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		s.busy--
		s.mu.Unlock()
	}
}

func (s *Store) remote(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}
