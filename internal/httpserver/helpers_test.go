package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"storefront/internal/domain"
	"storefront/internal/notify"
	authsvc "storefront/internal/service/auth"
	cartsvc "storefront/internal/service/cart"
	"storefront/internal/session"
)

type stubCatalog struct {
	products []domain.Product
	err      error
}

func (s *stubCatalog) ListProducts(ctx context.Context, sink notify.Sink) ([]domain.Product, error) {
	if s.err != nil {
		sink.Notify(ctx, domain.Failure("Erro", "Não foi possível carregar os produtos."))
		return []domain.Product{}, s.err
	}
	return s.products, nil
}

func (s *stubCatalog) Get(ctx context.Context, id string, sink notify.Sink) (*domain.Product, error) {
	if s.err != nil {
		sink.Notify(ctx, domain.Failure("Erro", "Não foi possível carregar os produtos."))
		return nil, s.err
	}
	for _, p := range s.products {
		if p.ID == id {
			p := p
			return &p, nil
		}
	}
	return nil, domain.ErrNotFound
}

// stubAuth issues access-N tokens and honours revocation the way the real
// token store does.
type stubAuth struct {
	mu        sync.Mutex
	user      *domain.User
	loginErr  error
	signErr   error
	lookupErr error
	live      map[string]*domain.User
	issued    int
	lookups   int
	revoked   []string
	allFor    []string
}

func newStubAuth(user *domain.User) *stubAuth {
	// "access" is a pre-issued token for bearer-only callers.
	return &stubAuth{user: user, live: map[string]*domain.User{"access": user}}
}

func (s *stubAuth) issue() string {
	s.issued++
	token := fmt.Sprintf("access-%d", s.issued)
	s.live[token] = s.user
	return token
}

func (s *stubAuth) Signup(_ context.Context, in authsvc.Credentials) (*domain.User, error) {
	if s.signErr != nil {
		return nil, s.signErr
	}
	return &domain.User{ID: "user-new", Email: in.Email}, nil
}

func (s *stubAuth) Login(_ context.Context, _ authsvc.Credentials) (*authsvc.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loginErr != nil {
		return nil, s.loginErr
	}
	return &authsvc.Session{User: s.user, AccessToken: s.issue(), RefreshToken: "refresh", ExpiresIn: 3600}, nil
}

func (s *stubAuth) Refresh(_ context.Context, token string) (*authsvc.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if token != "refresh" {
		return nil, authsvc.ErrInvalidToken
	}
	return &authsvc.Session{User: s.user, AccessToken: s.issue(), RefreshToken: token, ExpiresIn: 3600}, nil
}

func (s *stubAuth) Logout(_ context.Context, tokens ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range tokens {
		if t != "" {
			s.revoked = append(s.revoked, t)
			delete(s.live, t)
		}
	}
	return nil
}

func (s *stubAuth) RevokeAll(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.allFor = append(s.allFor, userID)
	for token, u := range s.live {
		if u != nil && u.ID == userID {
			delete(s.live, token)
		}
	}
	return nil
}

func (s *stubAuth) LookupByToken(_ context.Context, token string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lookups++
	if s.lookupErr != nil {
		return nil, s.lookupErr
	}
	u, ok := s.live[token]
	if !ok || u == nil {
		return nil, authsvc.ErrInvalidToken
	}
	return u, nil
}

// memCarts is a minimal in-memory cart table.
type memCarts struct {
	mu       sync.Mutex
	products map[string]domain.Product
	lines    []domain.CartLineItem
	next     int
	failList bool
}

func (m *memCarts) ListByUser(_ context.Context, userID string) ([]domain.CartLineItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failList {
		return nil, errors.New("db down")
	}
	var out []domain.CartLineItem
	for _, l := range m.lines {
		if l.UserID == userID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (m *memCarts) Increment(_ context.Context, userID, productID string, qty int) (*domain.CartLineItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[productID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	for i := range m.lines {
		if m.lines[i].UserID == userID && m.lines[i].ProductID == productID {
			m.lines[i].Quantity += qty
			l := m.lines[i]
			return &l, nil
		}
	}
	m.next++
	l := domain.CartLineItem{ID: fmt.Sprintf("line-%d", m.next), UserID: userID, ProductID: productID, Quantity: qty, Product: p.Summary()}
	m.lines = append(m.lines, l)
	return &l, nil
}

func (m *memCarts) SetQuantity(_ context.Context, userID, lineID string, qty int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.lines {
		if m.lines[i].UserID == userID && m.lines[i].ID == lineID {
			m.lines[i].Quantity = qty
			return nil
		}
	}
	return domain.ErrNotFound
}

func (m *memCarts) Delete(_ context.Context, userID, lineID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.lines {
		if m.lines[i].UserID == userID && m.lines[i].ID == lineID {
			m.lines = append(m.lines[:i], m.lines[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (m *memCarts) DeleteByUser(_ context.Context, userID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var kept []domain.CartLineItem
	var n int64
	for _, l := range m.lines {
		if l.UserID == userID {
			n++
			continue
		}
		kept = append(kept, l)
	}
	m.lines = kept
	return n, nil
}

func storeFactory(carts *memCarts) session.StoreFactory {
	return func(identity cartsvc.Identity, sink notify.Sink) *cartsvc.Store {
		return cartsvc.New(carts, identity, sink, cartsvc.Options{})
	}
}

func newHarnessStoreFactory() session.StoreFactory {
	return storeFactory(&memCarts{products: map[string]domain.Product{}})
}

type harness struct {
	router  *gin.Engine
	catalog *stubCatalog
	auth    *stubAuth
	carts   *memCarts
	cookie  *http.Cookie
}

func newHarness(t *testing.T, products ...domain.Product) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	carts := &memCarts{products: map[string]domain.Product{}}
	for _, p := range products {
		carts.products[p.ID] = p
	}
	feed := notify.NewMemory()
	reg := session.NewRegistry(session.Options{
		Feed:             feed,
		NewStore:         storeFactory(carts),
		IdleTTL:          time.Minute,
		CarouselInterval: time.Hour,
	})
	t.Cleanup(reg.Close)

	h := &harness{
		catalog: &stubCatalog{products: products},
		auth:    newStubAuth(&domain.User{ID: "user-1", Email: "ana@example.com"}),
		carts:   carts,
	}
	router, err := buildRouter(nil, Deps{
		Catalog:  h.catalog,
		Auth:     h.auth,
		Sessions: reg,
		Feed:     feed,
	})
	if err != nil {
		t.Fatalf("build router: %v", err)
	}
	h.router = router
	return h
}

type result struct {
	Code int
	Body map[string]any
	Raw  string
}

func (r result) notifications() []map[string]any {
	raw, _ := r.Body["notifications"].([]any)
	out := make([]map[string]any, 0, len(raw))
	for _, n := range raw {
		out = append(out, n.(map[string]any))
	}
	return out
}

func (r result) view() map[string]any {
	v, _ := r.Body["view"].(map[string]any)
	return v
}

// do sends a request carrying the harness session cookie, capturing it on
// first use.
func (h *harness) do(t *testing.T, method, path, body string, headers ...string) result {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	if h.cookie != nil {
		req.AddCookie(h.cookie)
	}
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)

	for _, c := range rec.Result().Cookies() {
		if c.Name == sessionCookie {
			h.cookie = c
		}
	}
	res := result{Code: rec.Code, Raw: rec.Body.String()}
	_ = json.Unmarshal(rec.Body.Bytes(), &res.Body)
	return res
}

func (h *harness) login(t *testing.T) {
	t.Helper()
	res := h.do(t, http.MethodPost, "/auth/login", `{"email":"ana@example.com","password":"Abcdefg1"}`)
	if res.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d body=%s", res.Code, res.Raw)
	}
}
