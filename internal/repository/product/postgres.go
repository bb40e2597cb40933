package product

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"storefront/internal/db"
	"storefront/internal/domain"
	"storefront/internal/logging"
)

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *zap.Logger) Repository {
	return &postgresRepo{pool: pool, logger: logging.OrNop(logger)}
}

const selectColumns = `id::text, name, price::text, image_url, COALESCE(description, ''), stock_quantity, created_at`

func (r *postgresRepo) ListNewestFirst(ctx context.Context) ([]domain.Product, error) {
	q := `SELECT ` + selectColumns + ` FROM products ORDER BY created_at DESC, id`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		r.logger.Error("product repo: list", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	result := make([]domain.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		r.logger.Error("product repo: list rows", zap.Error(err))
		return nil, err
	}
	r.logger.Debug("product repo: list", zap.Int("count", len(result)))
	return result, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	q := `SELECT ` + selectColumns + ` FROM products WHERE id = $1::uuid`
	p, err := scanProduct(r.pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || db.IsCode(err, db.CodeInvalidText) {
			r.logger.Debug("product repo: get not found", zap.String("id", id))
			return nil, domain.ErrNotFound
		}
		r.logger.Error("product repo: get", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return &p, nil
}

func (r *postgresRepo) Upsert(ctx context.Context, product domain.Product) (*domain.Product, error) {
	const q = `
INSERT INTO products (name, price, image_url, description, stock_quantity)
VALUES ($1, $2::numeric, $3, NULLIF($4, ''), $5)
ON CONFLICT (name) DO UPDATE SET
    price = EXCLUDED.price,
    image_url = EXCLUDED.image_url,
    description = EXCLUDED.description,
    stock_quantity = EXCLUDED.stock_quantity
RETURNING ` + selectColumns
	res, err := scanProduct(r.pool.QueryRow(ctx, q,
		product.Name,
		product.Price.StringFixed(2),
		product.ImageURL,
		product.Description,
		product.StockQuantity,
	))
	if err != nil {
		r.logger.Error("product repo: upsert", zap.String("name", product.Name), zap.Error(err))
		return nil, err
	}
	r.logger.Debug("product repo: upserted", zap.String("name", res.Name), zap.String("id", res.ID))
	return &res, nil
}

func scanProduct(row pgx.Row) (domain.Product, error) {
	var (
		p     domain.Product
		price string
	)
	if err := row.Scan(&p.ID, &p.Name, &price, &p.ImageURL, &p.Description, &p.StockQuantity, &p.CreatedAt); err != nil {
		return domain.Product{}, err
	}
	d, err := decimal.NewFromString(price)
	if err != nil {
		return domain.Product{}, fmt.Errorf("parse price %q: %w", price, err)
	}
	p.Price = d
	return p, nil
}
