package user

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"storefront/internal/db"
	"storefront/internal/domain"
	"storefront/internal/logging"
)

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewPostgres returns a Repository backed by Postgres.
func NewPostgres(pool *pgxpool.Pool, logger *zap.Logger) Repository {
	return &postgresRepo{pool: pool, logger: logging.OrNop(logger)}
}

func (r *postgresRepo) Create(ctx context.Context, u domain.User) (*domain.User, error) {
	const q = `
INSERT INTO users (email, password_hash)
VALUES ($1, $2)
RETURNING id::text, email, password_hash, created_at
`
	out, err := scanUser(r.pool.QueryRow(ctx, q, strings.ToLower(u.Email), u.PasswordHash))
	if err != nil {
		if db.IsCode(err, db.CodeUniqueViolation) {
			return nil, domain.ErrAlreadyExists
		}
		r.logger.Error("user repo: create", zap.Error(err))
		return nil, err
	}
	r.logger.Debug("user repo: created", zap.String("id", out.ID))
	return out, nil
}

func (r *postgresRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	const q = `
SELECT id::text, email, password_hash, created_at
FROM users
WHERE email = $1
`
	return r.get(ctx, q, strings.ToLower(strings.TrimSpace(email)))
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	const q = `
SELECT id::text, email, password_hash, created_at
FROM users
WHERE id = $1::uuid
`
	return r.get(ctx, q, id)
}

func (r *postgresRepo) get(ctx context.Context, q string, arg string) (*domain.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, q, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || db.IsCode(err, db.CodeInvalidText) {
			return nil, domain.ErrNotFound
		}
		r.logger.Error("user repo: get", zap.Error(err))
		return nil, err
	}
	return u, nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}
