package seed

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"storefront/internal/domain"
	"storefront/internal/logging"
)

type ProductWriter interface {
	Upsert(ctx context.Context, product domain.Product) (*domain.Product, error)
}

// Products is the demo catalog.
var Products = []domain.Product{
	{
		Name:          "Caneca Artesanal",
		Price:         decimal.RequireFromString("45.90"),
		ImageURL:      "/assets/product-mug.jpg",
		Description:   "Caneca de cerâmica pintada à mão com motivos brasileiros",
		StockQuantity: 25,
	},
	{
		Name:          "Colar de Capim Dourado",
		Price:         decimal.RequireFromString("89.90"),
		ImageURL:      "/assets/product-jewelry.jpg",
		Description:   "Bijuteria artesanal feita com capim dourado do Jalapão",
		StockQuantity: 15,
	},
	{
		Name:          "Sabonete Natural",
		Price:         decimal.RequireFromString("19.90"),
		ImageURL:      "/assets/product-soap.jpg",
		Description:   "Sabonete vegetal com ervas e óleos essenciais",
		StockQuantity: 40,
	},
}

// Apply inserts the demo catalog. It is idempotent via the upsert on name.
func Apply(ctx context.Context, repo ProductWriter, logger *zap.Logger) error {
	logger = logging.OrNop(logger)
	for _, p := range Products {
		saved, err := repo.Upsert(ctx, p)
		if err != nil {
			return fmt.Errorf("upsert product %s: %w", p.Name, err)
		}
		logger.Info("seeded product", zap.String("id", saved.ID), zap.String("name", saved.Name))
	}
	return nil
}
