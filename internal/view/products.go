package view

import (
	"fmt"

	"github.com/shopspring/decimal"

	"storefront/internal/carousel"
	"storefront/internal/domain"
)

const (
	MinQuantity = 1
	MaxQuantity = 10

	fallbackImage = "/assets/product-mug.jpg"
)

// ValidQuantity reports whether q is selectable on a product card.
func ValidQuantity(q int) bool {
	return q >= MinQuantity && q <= MaxQuantity
}

var quantityOptions = func() []int {
	out := make([]int, 0, MaxQuantity)
	for q := MinQuantity; q <= MaxQuantity; q++ {
		out = append(out, q)
	}
	return out
}()

type ProductCard struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Description     string          `json:"description,omitempty"`
	ImageURL        string          `json:"imageUrl"`
	Price           decimal.Decimal `json:"price"`
	PriceLabel      string          `json:"priceLabel"`
	QuantityLabel   string          `json:"quantityLabel"`
	QuantityOptions []int           `json:"quantityOptions"`
	Quantity        int             `json:"quantity"`
	Action          string          `json:"action"`
}

func NewProductCard(p domain.Product) ProductCard {
	return ProductCard{
		ID:              p.ID,
		Name:            p.Name,
		Description:     p.Description,
		ImageURL:        imageOrFallback(p.ImageURL),
		Price:           p.Price,
		PriceLabel:      Money(p.Price),
		QuantityLabel:   "Quantidade",
		QuantityOptions: quantityOptions,
		Quantity:        MinQuantity,
		Action:          "Adicionar ao Carrinho",
	}
}

type DialogAction struct {
	Label  string `json:"label"`
	Method string `json:"method"`
	Href   string `json:"href"`
}

type Dialog struct {
	Open    bool           `json:"open"`
	Title   string         `json:"title,omitempty"`
	Message string         `json:"message,omitempty"`
	Actions []DialogAction `json:"actions,omitempty"`
}

// NewDialog renders the add-to-cart confirmation. A closed dialog carries no
// content.
func NewDialog(open bool, productName string) Dialog {
	if !open {
		return Dialog{}
	}
	return Dialog{
		Open:    true,
		Title:   "Produto adicionado com sucesso!",
		Message: productName + " foi adicionado ao seu carrinho.",
		Actions: []DialogAction{
			{Label: "Continuar Comprando", Method: "POST", Href: "/dialog/continue"},
			{Label: "Ir para o Carrinho", Method: "POST", Href: "/dialog/cart"},
		},
	}
}

type ProductsSection struct {
	Title    string        `json:"title"`
	Intro    string        `json:"intro"`
	Products []ProductCard `json:"products"`
	Dialog   Dialog        `json:"dialog"`
}

func NewProductsSection(products []domain.Product, dialog Dialog) ProductsSection {
	cards := make([]ProductCard, 0, len(products))
	for _, p := range products {
		cards = append(cards, NewProductCard(p))
	}
	return ProductsSection{
		Title:    "Nossos Produtos",
		Intro:    "Descubra nossa coleção especial de produtos artesanais brasileiros, feitos com carinho e ingredientes de qualidade.",
		Products: cards,
		Dialog:   dialog,
	}
}

type Carousel struct {
	Slides  []carousel.Slide `json:"slides"`
	Current int              `json:"current"`
}

func NewCarousel(current int) Carousel {
	return Carousel{Slides: carousel.Slides, Current: current}
}

// Landing is the home page.
type Landing struct {
	Header   Header          `json:"header"`
	Carousel Carousel        `json:"carousel"`
	Products ProductsSection `json:"products"`
	About    About           `json:"about"`
	Footer   Footer          `json:"footer"`
}

var MsgLoginRequired = domain.Failure("Login necessário", "Faça login para adicionar produtos ao carrinho.")

// Added confirms quantity units of name went into the cart.
func Added(quantity int, name string) domain.Notification {
	return domain.Info("Produto adicionado!", fmt.Sprintf("%dx %s foi adicionado ao carrinho.", quantity, name))
}

func imageOrFallback(url string) string {
	if url == "" {
		return fallbackImage
	}
	return url
}
