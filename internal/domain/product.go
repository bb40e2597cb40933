package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a sellable catalog entry. It is maintained outside the storefront
// and only read here.
type Product struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Price         decimal.Decimal `json:"price"`
	ImageURL      string          `json:"imageUrl"`
	Description   string          `json:"description,omitempty"`
	StockQuantity int             `json:"stockQuantity"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// ProductSummary carries the product display fields joined onto a cart line.
type ProductSummary struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	ImageURL    string          `json:"imageUrl"`
	Description string          `json:"description,omitempty"`
}

// Summary projects the display fields of p.
func (p Product) Summary() ProductSummary {
	return ProductSummary{
		ID:          p.ID,
		Name:        p.Name,
		Price:       p.Price,
		ImageURL:    p.ImageURL,
		Description: p.Description,
	}
}
