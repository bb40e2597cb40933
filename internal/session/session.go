// Package session keeps per-visitor state: the signed-in user, the cart
// store, and ephemeral UI state such as the menu, dialog and carousel.
package session

import (
	"context"
	"sync"
	"time"

	"storefront/internal/carousel"
	"storefront/internal/domain"
	"storefront/internal/notify"
	cartsvc "storefront/internal/service/cart"
)

// Dialog is the add-to-cart confirmation state.
type Dialog struct {
	Open        bool   `json:"open"`
	ProductName string `json:"productName,omitempty"`
}

// Session is one visitor. It satisfies cart.Identity.
type Session struct {
	id       string
	sink     notify.Sink
	cart     *cartsvc.Store
	carousel *carousel.Carousel

	mu       sync.RWMutex
	user     *domain.User
	token    string
	menuOpen bool
	dialog   Dialog
	lastSeen time.Time
	verified time.Time
	closed   bool
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) Sink() notify.Sink {
	return s.sink
}

func (s *Session) Cart() *cartsvc.Store {
	return s.cart
}

// Carousel returns the hero carousel, starting auto-advance on first use.
// A released session never restarts it.
func (s *Session) Carousel() *carousel.Carousel {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.carousel.Start(context.Background())
	}
	return s.carousel
}

// UserID reports the bound user, if any.
func (s *Session) UserID() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return "", false
	}
	return s.user.ID, true
}

// User returns a copy of the bound user or nil.
func (s *Session) User() *domain.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

func (s *Session) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// SignIn binds u to the session. The caller must follow up with
// Cart().IdentityChanged.
func (s *Session) SignIn(u *domain.User, accessToken string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *u
	clone.PasswordHash = ""
	s.user = &clone
	s.token = accessToken
	s.verified = time.Now()
}

// SignOut unbinds the user and returns the token that was bound.
func (s *Session) SignOut() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	token := s.token
	s.user = nil
	s.token = ""
	s.dialog = Dialog{}
	return token
}

// VerificationDue returns the bound access token when it was last verified
// at least every ago. Sessions without a token are never due.
func (s *Session) VerificationDue(now time.Time, every time.Duration) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token == "" {
		return "", false
	}
	return s.token, now.Sub(s.verified) >= every
}

// MarkVerified records a successful check of token, unless another token has
// been bound meanwhile.
func (s *Session) MarkVerified(token string, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token == token {
		s.verified = now
	}
}

// Expire signs the session out if token is still the bound one and reports
// whether it did.
func (s *Session) Expire(token string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if token == "" || s.token != token {
		return false
	}
	s.user = nil
	s.token = ""
	s.dialog = Dialog{}
	return true
}

func (s *Session) ToggleMenu() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.menuOpen = !s.menuOpen
	return s.menuOpen
}

func (s *Session) CloseMenu() {
	s.mu.Lock()
	s.menuOpen = false
	s.mu.Unlock()
}

func (s *Session) MenuOpen() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.menuOpen
}

func (s *Session) OpenDialog(productName string) {
	s.mu.Lock()
	s.dialog = Dialog{Open: true, ProductName: productName}
	s.mu.Unlock()
}

func (s *Session) CloseDialog() {
	s.mu.Lock()
	s.dialog = Dialog{}
	s.mu.Unlock()
}

func (s *Session) Dialog() Dialog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dialog
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idleSince(now time.Time) time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return now.Sub(s.lastSeen)
}

func (s *Session) close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.carousel.Stop()
}
