// Package view builds the JSON view models the storefront renders.
package view

import (
	"fmt"

	"github.com/shopspring/decimal"
)

const Brand = "Lojinha das Graças"

type Link struct {
	Label string `json:"label"`
	Href  string `json:"href"`
}

var navLinks = []Link{
	{Label: "Início", Href: "#inicio"},
	{Label: "Sobre Nós", Href: "#sobre"},
	{Label: "Contato", Href: "#contato"},
}

var quickLinks = []Link{
	{Label: "Início", Href: "#inicio"},
	{Label: "Produtos", Href: "#produtos"},
	{Label: "Sobre Nós", Href: "#sobre"},
	{Label: "Contato", Href: "#contato"},
}

type Header struct {
	Brand     string `json:"brand"`
	Nav       []Link `json:"nav"`
	Account   string `json:"account"`
	SignedIn  bool   `json:"signedIn"`
	CartLabel string `json:"cartLabel"`
	CartCount int    `json:"cartCount"`
	MenuOpen  bool   `json:"menuOpen"`
}

// HeaderState is what the header needs from the session.
type HeaderState struct {
	Email     string
	SignedIn  bool
	CartCount int
	MenuOpen  bool
}

func NewHeader(st HeaderState) Header {
	account := "Entrar"
	if st.SignedIn {
		account = st.Email
	}
	return Header{
		Brand:     Brand,
		Nav:       navLinks,
		Account:   account,
		SignedIn:  st.SignedIn,
		CartLabel: "Carrinho",
		CartCount: st.CartCount,
		MenuOpen:  st.MenuOpen,
	}
}

type Contact struct {
	Phone    string `json:"phone"`
	Email    string `json:"email"`
	Location string `json:"location"`
}

type Footer struct {
	Brand      string  `json:"brand"`
	About      string  `json:"about"`
	QuickLinks []Link  `json:"quickLinks"`
	Contact    Contact `json:"contact"`
	Copyright  string  `json:"copyright"`
}

func NewFooter() Footer {
	return Footer{
		Brand:      Brand,
		About:      "Produtos artesanais brasileiros feitos com carinho e ingredientes de qualidade. Levamos o melhor do Brasil até você.",
		QuickLinks: quickLinks,
		Contact: Contact{
			Phone:    "(11) 99999-9999",
			Email:    "contato@lojinhadasgracas.com.br",
			Location: "São Paulo, SP - Brasil",
		},
		Copyright: fmt.Sprintf("© 2024 %s. Todos os direitos reservados.", Brand),
	}
}

type About struct {
	Title      string   `json:"title"`
	Paragraphs []string `json:"paragraphs"`
}

func NewAbout() About {
	return About{
		Title: "Sobre a " + Brand,
		Paragraphs: []string{
			"Nascemos do amor pela cultura brasileira e pela arte de criar produtos únicos. Nossa missão é levar até você o melhor do artesanato brasileiro, com produtos feitos à mão por artesãos talentosos de todo o país.",
			"Cada produto é cuidadosamente selecionado e carrega consigo a história, tradição e o carinho de quem o fez. Valorizamos o trabalho artesanal e acreditamos na beleza das coisas feitas com as mãos.",
		},
	}
}

// Money renders an amount in BRL with two decimals.
func Money(d decimal.Decimal) string {
	return "R$ " + d.StringFixed(2)
}
