package product

import (
	"context"

	"storefront/internal/domain"
)

// Repository reads the catalog. Upsert exists for seeding and imports only.
type Repository interface {
	ListNewestFirst(ctx context.Context) ([]domain.Product, error)
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	Upsert(ctx context.Context, product domain.Product) (*domain.Product, error)
}
