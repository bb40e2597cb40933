package session

import (
	"context"
	"testing"
	"time"

	"storefront/internal/domain"
	"storefront/internal/notify"
	cartsvc "storefront/internal/service/cart"
)

type emptyCarts struct{}

func (emptyCarts) ListByUser(context.Context, string) ([]domain.CartLineItem, error) {
	return nil, nil
}

func (emptyCarts) Increment(_ context.Context, userID, productID string, quantity int) (*domain.CartLineItem, error) {
	return &domain.CartLineItem{ID: "line", UserID: userID, ProductID: productID, Quantity: quantity}, nil
}

func (emptyCarts) SetQuantity(context.Context, string, string, int) error {
	return nil
}

func (emptyCarts) Delete(context.Context, string, string) error {
	return nil
}

func (emptyCarts) DeleteByUser(context.Context, string) (int64, error) {
	return 0, nil
}

func newTestRegistry(feed notify.Feed, ttl time.Duration) *Registry {
	return NewRegistry(Options{
		Feed: feed,
		NewStore: func(identity cartsvc.Identity, sink notify.Sink) *cartsvc.Store {
			return cartsvc.New(emptyCarts{}, identity, sink, cartsvc.Options{})
		},
		IdleTTL:          ttl,
		CarouselInterval: time.Hour,
	})
}

func TestGetOrCreate(t *testing.T) {
	reg := newTestRegistry(notify.NewMemory(), time.Minute)
	defer reg.Close()

	s, created := reg.GetOrCreate("")
	if !created || s.ID() == "" {
		t.Fatalf("expected new session")
	}
	again, created := reg.GetOrCreate(s.ID())
	if created || again != s {
		t.Fatalf("expected same session back")
	}
	other, created := reg.GetOrCreate("unknown-id")
	if !created || other.ID() == "unknown-id" {
		t.Fatalf("unknown ids must not be adopted")
	}
	if reg.Len() != 2 {
		t.Fatalf("expected 2 sessions, got %d", reg.Len())
	}
}

func TestSweepDropsIdleSessionsAndStopsCarousel(t *testing.T) {
	feed := notify.NewMemory()
	reg := newTestRegistry(feed, time.Minute)
	now := time.Now()
	reg.now = func() time.Time { return now }

	idle := reg.Create()
	active := reg.Create()
	idle.Sink().Notify(context.Background(), domain.Info("t", "d"))
	if idle.carousel.Running() {
		t.Fatalf("carousel must not tick before first use")
	}
	if !idle.Carousel().Running() {
		t.Fatalf("carousel should run once read")
	}
	_ = active.Carousel()

	now = now.Add(45 * time.Second)
	reg.Get(active.ID())
	now = now.Add(30 * time.Second)

	if n := reg.Sweep(); n != 1 {
		t.Fatalf("expected 1 swept, got %d", n)
	}
	if _, ok := reg.Get(idle.ID()); ok {
		t.Fatalf("idle session should be gone")
	}
	if _, ok := reg.Get(active.ID()); !ok {
		t.Fatalf("active session should survive")
	}
	if idle.Carousel().Running() {
		t.Fatalf("idle session carousel should be stopped")
	}
	pending, _ := feed.Drain(context.Background(), idle.ID())
	if len(pending) != 0 {
		t.Fatalf("pending notifications should be forgotten")
	}

	reg.Close()
	if active.Carousel().Running() || reg.Len() != 0 {
		t.Fatalf("close should stop everything")
	}
}

func TestSessionIdentity(t *testing.T) {
	reg := newTestRegistry(notify.NewMemory(), time.Minute)
	defer reg.Close()
	s := reg.Create()

	if _, ok := s.UserID(); ok {
		t.Fatalf("new session must be anonymous")
	}
	if s.Cart().State() != cartsvc.StateUnauthenticated {
		t.Fatalf("unexpected cart state %s", s.Cart().State())
	}

	s.SignIn(&domain.User{ID: "u1", Email: "a@b.co", PasswordHash: "secret"}, "tok")
	if id, ok := s.UserID(); !ok || id != "u1" {
		t.Fatalf("expected u1, got %q", id)
	}
	if s.User().PasswordHash != "" {
		t.Fatalf("password hash must not be kept on the session")
	}
	if s.Cart().State() != cartsvc.StateIdle {
		t.Fatalf("unexpected cart state %s", s.Cart().State())
	}

	s.OpenDialog("Caneca")
	if tok := s.SignOut(); tok != "tok" {
		t.Fatalf("expected bound token back, got %q", tok)
	}
	if s.Dialog().Open {
		t.Fatalf("sign out should close the dialog")
	}
}

func TestRunClosesOnCancel(t *testing.T) {
	reg := newTestRegistry(notify.NewMemory(), time.Minute)
	s := reg.Create()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = reg.Run(ctx, time.Hour)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("run did not return")
	}
	if s.Carousel().Running() {
		t.Fatalf("carousel should be stopped after run exits")
	}
}

func TestCreateDoesNotStartCarousel(t *testing.T) {
	reg := newTestRegistry(notify.NewMemory(), time.Minute)
	defer reg.Close()

	sessions := make([]*Session, 0, 50)
	for i := 0; i < 50; i++ {
		s, _ := reg.GetOrCreate("")
		sessions = append(sessions, s)
	}
	for _, s := range sessions {
		if s.carousel.Running() {
			t.Fatalf("session %s started a carousel without being asked to", s.ID())
		}
	}

	first := sessions[0]
	first.Carousel()
	first.Carousel()
	if !first.carousel.Running() {
		t.Fatalf("carousel should run after first use")
	}
	if sessions[1].carousel.Running() {
		t.Fatalf("other sessions must stay idle")
	}
}

func TestReleasedSessionNeverRestartsCarousel(t *testing.T) {
	reg := newTestRegistry(notify.NewMemory(), time.Minute)
	s := reg.Create()
	s.Carousel()
	reg.Close()

	if s.Carousel().Running() {
		t.Fatalf("carousel restarted on a released session")
	}
}
