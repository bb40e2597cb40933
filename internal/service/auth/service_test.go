package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"storefront/internal/domain"
	tokenrepo "storefront/internal/repository/token"
)

// memoryRepo is a lightweight in-memory user repository for tests.
type memoryRepo struct {
	byEmail map[string]domain.User
}

type memoryTokenRepo struct {
	tokens map[string]tokenrepo.Token
	getErr error
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{byEmail: make(map[string]domain.User)}
}

func newMemoryTokenRepo() *memoryTokenRepo {
	return &memoryTokenRepo{tokens: make(map[string]tokenrepo.Token)}
}

func (r *memoryTokenRepo) Create(_ context.Context, token tokenrepo.Token) error {
	if _, exists := r.tokens[token.Token]; exists {
		return domain.ErrAlreadyExists
	}
	r.tokens[token.Token] = token
	return nil
}

func (r *memoryTokenRepo) Get(_ context.Context, token string) (*tokenrepo.Token, error) {
	if r.getErr != nil {
		return nil, r.getErr
	}
	t, ok := r.tokens[token]
	if !ok {
		return nil, domain.ErrNotFound
	}
	clone := t
	return &clone, nil
}

func (r *memoryTokenRepo) Delete(_ context.Context, token string) error {
	if _, ok := r.tokens[token]; !ok {
		return domain.ErrNotFound
	}
	delete(r.tokens, token)
	return nil
}

func (r *memoryTokenRepo) DeleteByUser(_ context.Context, userID string) error {
	for k, t := range r.tokens {
		if t.UserID == userID {
			delete(r.tokens, k)
		}
	}
	return nil
}

func (r *memoryRepo) Create(_ context.Context, u domain.User) (*domain.User, error) {
	if _, exists := r.byEmail[u.Email]; exists {
		return nil, domain.ErrAlreadyExists
	}
	clone := u
	if clone.ID == "" {
		clone.ID = "user-" + u.Email
	}
	r.byEmail[clone.Email] = clone
	return &clone, nil
}

func (r *memoryRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	if u, ok := r.byEmail[email]; ok {
		clone := u
		return &clone, nil
	}
	return nil, domain.ErrNotFound
}

func (r *memoryRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	for _, u := range r.byEmail {
		if u.ID == id {
			clone := u
			return &clone, nil
		}
	}
	return nil, domain.ErrNotFound
}

func TestSignupAndLogin_SucceedsWithTrimmedPassword(t *testing.T) {
	svc := New(newMemoryRepo(), newMemoryTokenRepo(), nil)
	ctx := context.Background()

	u, err := svc.Signup(ctx, Credentials{Email: " User@Example.com ", Password: " Abcdefg1 "})
	if err != nil {
		t.Fatalf("signup returned error: %v", err)
	}
	if u.Email != "user@example.com" {
		t.Fatalf("expected normalized email, got %q", u.Email)
	}

	sess, err := svc.Login(ctx, Credentials{Email: "user@example.com", Password: "Abcdefg1"})
	if err != nil {
		t.Fatalf("login failed with trimmed password: %v", err)
	}
	if sess.AccessToken == "" || sess.RefreshToken == "" || sess.AccessToken == sess.RefreshToken {
		t.Fatalf("unexpected tokens %+v", sess)
	}
	if sess.ExpiresIn != int((48 * time.Hour).Seconds()) {
		t.Fatalf("unexpected expires in %d", sess.ExpiresIn)
	}
}

func TestSignup_RejectsWeakPassword(t *testing.T) {
	svc := New(newMemoryRepo(), newMemoryTokenRepo(), nil)
	for _, pw := range []string{"short1A", "alllowercase1", "ALLUPPER123", "NoDigitsHere"} {
		if _, err := svc.Signup(context.Background(), Credentials{Email: "a@b.co", Password: pw}); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("password %q: expected ErrInvalidInput, got %v", pw, err)
		}
	}
}

func TestSignup_DuplicateEmail(t *testing.T) {
	svc := New(newMemoryRepo(), newMemoryTokenRepo(), nil)
	ctx := context.Background()
	in := Credentials{Email: "dup@example.com", Password: "Abcdefg1"}
	if _, err := svc.Signup(ctx, in); err != nil {
		t.Fatalf("first signup: %v", err)
	}
	if _, err := svc.Signup(ctx, in); !errors.Is(err, domain.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestLogin_InvalidCredentials(t *testing.T) {
	svc := New(newMemoryRepo(), newMemoryTokenRepo(), nil)
	ctx := context.Background()
	if _, err := svc.Signup(ctx, Credentials{Email: "a@example.com", Password: "Abcdefg1"}); err != nil {
		t.Fatalf("signup: %v", err)
	}

	if _, err := svc.Login(ctx, Credentials{Email: "a@example.com", Password: "Wrong1234"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for bad password, got %v", err)
	}
	if _, err := svc.Login(ctx, Credentials{Email: "nobody@example.com", Password: "Abcdefg1"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown email, got %v", err)
	}
}

func TestLookupByToken_AndLogout(t *testing.T) {
	tokens := newMemoryTokenRepo()
	svc := New(newMemoryRepo(), tokens, nil)
	ctx := context.Background()
	if _, err := svc.Signup(ctx, Credentials{Email: "a@example.com", Password: "Abcdefg1"}); err != nil {
		t.Fatalf("signup: %v", err)
	}
	sess, err := svc.Login(ctx, Credentials{Email: "a@example.com", Password: "Abcdefg1"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	u, err := svc.LookupByToken(ctx, sess.AccessToken)
	if err != nil || u.ID != sess.User.ID {
		t.Fatalf("lookup: %v %+v", err, u)
	}
	if _, err := svc.LookupByToken(ctx, sess.RefreshToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("refresh token must not authenticate, got %v", err)
	}

	if err := svc.Logout(ctx, sess.AccessToken, sess.RefreshToken, "unknown"); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := svc.LookupByToken(ctx, sess.AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected revoked token to fail, got %v", err)
	}
	if len(tokens.tokens) != 0 {
		t.Fatalf("expected tokens removed, have %d", len(tokens.tokens))
	}
}

func TestLookupByToken_ExpiredIsDeleted(t *testing.T) {
	tokens := newMemoryTokenRepo()
	svc := New(newMemoryRepo(), tokens, nil)
	ctx := context.Background()
	if _, err := svc.Signup(ctx, Credentials{Email: "a@example.com", Password: "Abcdefg1"}); err != nil {
		t.Fatalf("signup: %v", err)
	}
	sess, err := svc.Login(ctx, Credentials{Email: "a@example.com", Password: "Abcdefg1"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	svc.tokens.now = func() time.Time { return time.Now().Add(72 * time.Hour) }
	if _, err := svc.LookupByToken(ctx, sess.AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
	if _, ok := tokens.tokens[sess.AccessToken]; ok {
		t.Fatalf("expired token should be deleted")
	}
}

func TestRefresh_IssuesNewAccessToken(t *testing.T) {
	svc := New(newMemoryRepo(), newMemoryTokenRepo(), nil)
	ctx := context.Background()
	if _, err := svc.Signup(ctx, Credentials{Email: "a@example.com", Password: "Abcdefg1"}); err != nil {
		t.Fatalf("signup: %v", err)
	}
	sess, _ := svc.Login(ctx, Credentials{Email: "a@example.com", Password: "Abcdefg1"})

	next, err := svc.Refresh(ctx, sess.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if next.AccessToken == sess.AccessToken {
		t.Fatalf("expected a fresh access token")
	}
	if _, err := svc.Refresh(ctx, sess.AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("access token must not refresh, got %v", err)
	}
}

func TestRevokeAll(t *testing.T) {
	tokens := newMemoryTokenRepo()
	svc := New(newMemoryRepo(), tokens, nil)
	ctx := context.Background()
	if _, err := svc.Signup(ctx, Credentials{Email: "a@example.com", Password: "Abcdefg1"}); err != nil {
		t.Fatalf("signup: %v", err)
	}
	first, _ := svc.Login(ctx, Credentials{Email: "a@example.com", Password: "Abcdefg1"})
	second, _ := svc.Login(ctx, Credentials{Email: "a@example.com", Password: "Abcdefg1"})

	if err := svc.RevokeAll(ctx, first.User.ID); err != nil {
		t.Fatalf("revoke all: %v", err)
	}
	for _, tok := range []string{first.AccessToken, second.AccessToken} {
		if _, err := svc.LookupByToken(ctx, tok); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("expected every token revoked, got %v", err)
		}
	}
}

func TestLookupByToken_StoreFailureIsNotInvalidToken(t *testing.T) {
	tokens := newMemoryTokenRepo()
	svc := New(newMemoryRepo(), tokens, nil)
	ctx := context.Background()
	if _, err := svc.Signup(ctx, Credentials{Email: "a@example.com", Password: "Abcdefg1"}); err != nil {
		t.Fatalf("signup: %v", err)
	}
	sess, _ := svc.Login(ctx, Credentials{Email: "a@example.com", Password: "Abcdefg1"})

	down := errors.New("db down")
	tokens.getErr = down
	_, err := svc.LookupByToken(ctx, sess.AccessToken)
	if !errors.Is(err, down) || errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected the store error, got %v", err)
	}

	tokens.getErr = nil
	if _, err := svc.LookupByToken(ctx, sess.AccessToken); err != nil {
		t.Fatalf("token should still be valid: %v", err)
	}
}
