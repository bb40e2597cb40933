package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/internal/view"
)

func (h *handlers) landing(c *gin.Context) {
	sess := currentSession(c)
	products, err := h.catalog.ListProducts(c.Request.Context(), sess.Sink())
	status := http.StatusOK
	if err != nil {
		c.Error(err)
		status = http.StatusBadGateway
	}

	dialog := sess.Dialog()
	h.respond(c, status, envelope{View: view.Landing{
		Header:   headerFor(sess),
		Carousel: view.NewCarousel(sess.Carousel().Current()),
		Products: view.NewProductsSection(products, view.NewDialog(dialog.Open, dialog.ProductName)),
		About:    view.NewAbout(),
		Footer:   view.NewFooter(),
	}})
}

func (h *handlers) listProducts(c *gin.Context) {
	sess := currentSession(c)
	products, err := h.catalog.ListProducts(c.Request.Context(), sess.Sink())
	status := http.StatusOK
	if err != nil {
		c.Error(err)
		status = http.StatusBadGateway
	}
	dialog := sess.Dialog()
	h.respond(c, status, envelope{View: view.NewProductsSection(products, view.NewDialog(dialog.Open, dialog.ProductName))})
}
