package cart

import (
	"context"
	"fmt"

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

func (r *postgresRepo) ListByUser(ctx context.Context, userID string) ([]domain.CartLineItem, error) {
	const q = `
SELECT ci.id::text, ci.user_id::text, ci.product_id::text, ci.quantity, ci.created_at,
       p.id::text, p.name, p.price::text, p.image_url, COALESCE(p.description, '')
FROM cart_items ci
JOIN products p ON p.id = ci.product_id
WHERE ci.user_id = $1::uuid
ORDER BY ci.created_at ASC, ci.id
`
	rows, err := r.pool.Query(ctx, q, userID)
	if err != nil {
		if db.IsCode(err, db.CodeInvalidText) {
			return []domain.CartLineItem{}, nil
		}
		r.logger.Error("cart repo: list", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	lines := make([]domain.CartLineItem, 0)
	for rows.Next() {
		var (
			line  domain.CartLineItem
			price string
		)
		if err := rows.Scan(
			&line.ID,
			&line.UserID,
			&line.ProductID,
			&line.Quantity,
			&line.CreatedAt,
			&line.Product.ID,
			&line.Product.Name,
			&price,
			&line.Product.ImageURL,
			&line.Product.Description,
		); err != nil {
			return nil, err
		}
		d, err := decimal.NewFromString(price)
		if err != nil {
			return nil, fmt.Errorf("parse price %q: %w", price, err)
		}
		line.Product.Price = d
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		if db.IsCode(err, db.CodeInvalidText) {
			return []domain.CartLineItem{}, nil
		}
		return nil, err
	}
	r.logger.Debug("cart repo: list", zap.String("user_id", userID), zap.Int("count", len(lines)))
	return lines, nil
}

func (r *postgresRepo) Increment(ctx context.Context, userID, productID string, quantity int) (*domain.CartLineItem, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("cart repo: non-positive increment %d", quantity)
	}
	const q = `
INSERT INTO cart_items (user_id, product_id, quantity)
VALUES ($1::uuid, $2::uuid, $3)
ON CONFLICT (user_id, product_id) DO UPDATE
SET quantity = cart_items.quantity + EXCLUDED.quantity
RETURNING id::text, user_id::text, product_id::text, quantity, created_at
`
	var line domain.CartLineItem
	err := r.pool.QueryRow(ctx, q, userID, productID, quantity).Scan(
		&line.ID,
		&line.UserID,
		&line.ProductID,
		&line.Quantity,
		&line.CreatedAt,
	)
	if err != nil {
		if db.IsCode(err, db.CodeForeignKeyViolation, db.CodeInvalidText) {
			return nil, domain.ErrNotFound
		}
		r.logger.Error("cart repo: increment", zap.String("user_id", userID), zap.String("product_id", productID), zap.Error(err))
		return nil, err
	}
	r.logger.Debug("cart repo: increment",
		zap.String("line_id", line.ID),
		zap.Int("delta", quantity),
		zap.Int("quantity", line.Quantity),
	)
	return &line, nil
}

func (r *postgresRepo) SetQuantity(ctx context.Context, userID, lineID string, quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("cart repo: non-positive quantity %d", quantity)
	}
	cmd, err := r.pool.Exec(ctx, `
UPDATE cart_items
SET quantity = $1
WHERE id = $2::uuid AND user_id = $3::uuid
`, quantity, lineID, userID)
	if err != nil {
		if db.IsCode(err, db.CodeInvalidText) {
			return domain.ErrNotFound
		}
		r.logger.Error("cart repo: set quantity", zap.String("line_id", lineID), zap.Error(err))
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) Delete(ctx context.Context, userID, lineID string) error {
	cmd, err := r.pool.Exec(ctx, `
DELETE FROM cart_items
WHERE id = $1::uuid AND user_id = $2::uuid
`, lineID, userID)
	if err != nil {
		if db.IsCode(err, db.CodeInvalidText) {
			return domain.ErrNotFound
		}
		r.logger.Error("cart repo: delete", zap.String("line_id", lineID), zap.Error(err))
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM cart_items WHERE user_id = $1::uuid`, userID)
	if err != nil {
		if db.IsCode(err, db.CodeInvalidText) {
			return 0, nil
		}
		r.logger.Error("cart repo: clear", zap.String("user_id", userID), zap.Error(err))
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

