package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartLineItem is a single (user, product, quantity) record. At most one line
// exists per (user, product) pair and a stored quantity is always positive.
type CartLineItem struct {
	ID        string         `json:"id"`
	UserID    string         `json:"-"`
	ProductID string         `json:"productId"`
	Quantity  int            `json:"quantity"`
	Product   ProductSummary `json:"product"`
	CreatedAt time.Time      `json:"createdAt"`
}

// Aggregate holds totals derived from the current line items. It is never
// persisted.
type Aggregate struct {
	TotalItems int             `json:"totalItems"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
}

// TotalItems sums line quantities.
func TotalItems(lines []CartLineItem) int {
	total := 0
	for _, line := range lines {
		total += line.Quantity
	}
	return total
}

// TotalPrice sums quantity times the referenced product price.
func TotalPrice(lines []CartLineItem) decimal.Decimal {
	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(line.Product.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	return total
}

// AggregateOf computes both totals over lines.
func AggregateOf(lines []CartLineItem) Aggregate {
	return Aggregate{
		TotalItems: TotalItems(lines),
		TotalPrice: TotalPrice(lines),
	}
}
