package view

import (
	"fmt"

	"github.com/shopspring/decimal"

	"storefront/internal/domain"
)

const (
	CartLoading = "loading"
	CartEmpty   = "empty"
	CartItems   = "items"
)

type EmptyCart struct {
	Title   string `json:"title"`
	Message string `json:"message"`
	Action  Link   `json:"action"`
}

type CartLine struct {
	ID         string          `json:"id"`
	ProductID  string          `json:"productId"`
	Name       string          `json:"name"`
	ImageURL   string          `json:"imageUrl"`
	UnitPrice  decimal.Decimal `json:"unitPrice"`
	PriceLabel string          `json:"priceLabel"`
	Quantity   int             `json:"quantity"`
	Subtotal   decimal.Decimal `json:"subtotal"`
	// Decrement reaching zero removes the line.
	Decrement int `json:"decrement"`
	Increment int `json:"increment"`
}

type CartSummary struct {
	Title         string          `json:"title"`
	ItemsLabel    string          `json:"itemsLabel"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	SubtotalLabel string          `json:"subtotalLabel"`
	Shipping      string          `json:"shipping"`
	Total         decimal.Decimal `json:"total"`
	TotalLabel    string          `json:"totalLabel"`
	Checkout      string          `json:"checkout"`
	Continue      Link            `json:"continue"`
}

type CartPage struct {
	Header   Header       `json:"header"`
	Status   string       `json:"status"`
	Title    string       `json:"title"`
	Empty    *EmptyCart   `json:"empty,omitempty"`
	Items    []CartLine   `json:"items"`
	Clear    string       `json:"clear,omitempty"`
	Summary  *CartSummary `json:"summary,omitempty"`
	Skeleton int          `json:"skeleton,omitempty"`
	Footer   Footer       `json:"footer"`
}

var continueShopping = Link{Label: "Continuar Comprando", Href: "/"}

// NewCartPage renders the cart body. Loading wins over the empty state so a
// refresh in flight never flashes "empty".
func NewCartPage(header Header, lines []domain.CartLineItem, loading bool) CartPage {
	page := CartPage{
		Header: header,
		Title:  "Meu Carrinho",
		Items:  []CartLine{},
		Footer: NewFooter(),
	}
	switch {
	case loading && len(lines) == 0:
		page.Status = CartLoading
		page.Skeleton = 3
	case len(lines) == 0:
		page.Status = CartEmpty
		page.Empty = &EmptyCart{
			Title:   "Seu carrinho está vazio",
			Message: "Adicione alguns produtos incríveis ao seu carrinho!",
			Action:  continueShopping,
		}
	default:
		page.Status = CartItems
		page.Clear = "Limpar Carrinho"
		for _, l := range lines {
			page.Items = append(page.Items, newCartLine(l))
		}
		agg := domain.AggregateOf(lines)
		page.Summary = &CartSummary{
			Title:         "Resumo do Pedido",
			ItemsLabel:    fmt.Sprintf("Itens (%d)", agg.TotalItems),
			Subtotal:      agg.TotalPrice,
			SubtotalLabel: Money(agg.TotalPrice),
			Shipping:      "Grátis",
			Total:         agg.TotalPrice,
			TotalLabel:    Money(agg.TotalPrice),
			Checkout:      "Finalizar Compra",
			Continue:      continueShopping,
		}
	}
	return page
}

func newCartLine(l domain.CartLineItem) CartLine {
	return CartLine{
		ID:         l.ID,
		ProductID:  l.ProductID,
		Name:       l.Product.Name,
		ImageURL:   imageOrFallback(l.Product.ImageURL),
		UnitPrice:  l.Product.Price,
		PriceLabel: Money(l.Product.Price),
		Quantity:   l.Quantity,
		Subtotal:   l.Product.Price.Mul(decimal.NewFromInt(int64(l.Quantity))),
		Decrement:  l.Quantity - 1,
		Increment:  l.Quantity + 1,
	}
}
