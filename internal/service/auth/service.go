package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"storefront/internal/domain"
	"storefront/internal/logging"
	tokenrepo "storefront/internal/repository/token"
	userrepo "storefront/internal/repository/user"
)

var (
	// ErrInvalidCredentials is returned when email/password do not match.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidToken indicates the provided token could not be validated.
	ErrInvalidToken = errors.New("invalid token")
	// ErrInvalidInput wraps signup validation failures.
	ErrInvalidInput = errors.New("invalid input")
)

// Service handles signup, login and token lookups.
type Service struct {
	repo        userrepo.Repository
	tokens      *tokenManager
	accessTTL   time.Duration
	refreshTTL  time.Duration
	passwordMin int
	logger      *zap.Logger
}

func New(repo userrepo.Repository, tokens tokenrepo.Repository, logger *zap.Logger) *Service {
	return &Service{
		repo:        repo,
		tokens:      newTokenManager(tokens),
		accessTTL:   48 * time.Hour,
		refreshTTL:  30 * 24 * time.Hour,
		passwordMin: 8,
		logger:      logging.OrNop(logger),
	}
}

// Credentials is the signup and login payload.
type Credentials struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Session is the outcome of a successful login.
type Session struct {
	User         *domain.User
	AccessToken  string
	RefreshToken string
	ExpiresIn    int
}

// Signup registers a new account.
func (s *Service) Signup(ctx context.Context, in Credentials) (*domain.User, error) {
	email := strings.TrimSpace(strings.ToLower(in.Email))
	if email == "" {
		return nil, fmt.Errorf("%w: email required", ErrInvalidInput)
	}
	password := strings.TrimSpace(in.Password)
	if err := validatePassword(password, s.passwordMin); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	u, err := s.repo.Create(ctx, domain.User{Email: email, PasswordHash: string(hashed)})
	if err != nil {
		return nil, err
	}
	s.logger.Info("auth: signup", zap.String("user_id", u.ID))
	return u, nil
}

// Login validates credentials and issues an access and a refresh token.
func (s *Service) Login(ctx context.Context, in Credentials) (*Session, error) {
	email := strings.TrimSpace(strings.ToLower(in.Email))
	password := strings.TrimSpace(in.Password)
	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	access, err := s.tokens.Issue(ctx, u.ID, kindAccess, s.accessTTL)
	if err != nil {
		return nil, err
	}
	refresh, err := s.tokens.Issue(ctx, u.ID, kindRefresh, s.refreshTTL)
	if err != nil {
		return nil, err
	}
	s.logger.Info("auth: login", zap.String("user_id", u.ID))
	return &Session{
		User:         u,
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int(s.accessTTL.Seconds()),
	}, nil
}

// Refresh trades a refresh token for a new access token.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	meta, err := s.tokens.Validate(ctx, refreshToken, kindRefresh)
	if err != nil {
		return nil, err
	}
	u, err := s.user(ctx, meta.UserID)
	if err != nil {
		return nil, err
	}
	access, err := s.tokens.Issue(ctx, u.ID, kindAccess, s.accessTTL)
	if err != nil {
		return nil, err
	}
	return &Session{User: u, AccessToken: access, RefreshToken: refreshToken, ExpiresIn: int(s.accessTTL.Seconds())}, nil
}

// Logout revokes the given tokens. Unknown tokens are ignored.
func (s *Service) Logout(ctx context.Context, tokens ...string) error {
	for _, t := range tokens {
		if t == "" {
			continue
		}
		if err := s.tokens.Revoke(ctx, t); err != nil {
			return fmt.Errorf("revoke token: %w", err)
		}
	}
	return nil
}

// RevokeAll signs the user out of every device.
func (s *Service) RevokeAll(ctx context.Context, userID string) error {
	if err := s.tokens.repo.DeleteByUser(ctx, userID); err != nil {
		return fmt.Errorf("revoke tokens: %w", err)
	}
	s.logger.Info("auth: revoked all tokens", zap.String("user_id", userID))
	return nil
}

// LookupByToken returns the user bound to a valid access token.
func (s *Service) LookupByToken(ctx context.Context, token string) (*domain.User, error) {
	meta, err := s.tokens.Validate(ctx, token, kindAccess)
	if err != nil {
		return nil, err
	}
	return s.user(ctx, meta.UserID)
}

func (s *Service) user(ctx context.Context, id string) (*domain.User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	return u, nil
}

func validatePassword(p string, min int) error {
	if len(p) < min {
		return fmt.Errorf("password must be at least %d characters", min)
	}
	hasUpper := false
	hasLower := false
	hasDigit := false
	for _, r := range p {
		switch {
		case r >= 'A' && r <= 'Z':
			hasUpper = true
		case r >= 'a' && r <= 'z':
			hasLower = true
		case r >= '0' && r <= '9':
			hasDigit = true
		}
	}
	if !hasUpper || !hasLower || !hasDigit {
		return errors.New("password must contain at least 1 uppercase letter, 1 lowercase letter, and 1 number")
	}
	return nil
}
