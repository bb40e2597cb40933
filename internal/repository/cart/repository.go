package cart

import (
	"context"

	"storefront/internal/domain"
)

// Repository is the remote line-item table. Every call is scoped to the
// owning user.
type Repository interface {
	// ListByUser returns the user's lines joined with product display fields.
	ListByUser(ctx context.Context, userID string) ([]domain.CartLineItem, error)
	// Increment adds quantity to the (user, product) line, creating it when
	// absent, as one atomic statement. It returns the resulting line.
	Increment(ctx context.Context, userID, productID string, quantity int) (*domain.CartLineItem, error)
	// SetQuantity overwrites a positive quantity on an existing line.
	SetQuantity(ctx context.Context, userID, lineID string, quantity int) error
	Delete(ctx context.Context, userID, lineID string) error
	DeleteByUser(ctx context.Context, userID string) (int64, error)
}
