package httpserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/internal/domain"
	"storefront/internal/service/cart"
	"storefront/internal/session"
	"storefront/internal/view"
)

type addToCartRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,min=1,max=10"`
}

type setQuantityRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

type addToCartResponse struct {
	Line   *domain.CartLineItem `json:"line"`
	Header view.Header          `json:"header"`
	Dialog view.Dialog          `json:"dialog"`
}

func (h *handlers) cartPage(c *gin.Context) {
	sess := currentSession(c)
	status := http.StatusOK
	if err := sess.Cart().FetchItems(c.Request.Context()); err != nil {
		c.Error(err)
		status = http.StatusBadGateway
	}
	h.renderCart(c, sess, status)
}

// addToCart is the products section flow: require login, require the product
// to exist, add, then confirm with the dialog and a toast.
func (h *handlers) addToCart(c *gin.Context) {
	sess := currentSession(c)
	var req addToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, http.StatusBadRequest, "invalid payload")
		return
	}
	ctx := c.Request.Context()

	if _, ok := sess.UserID(); !ok {
		sess.Sink().Notify(ctx, view.MsgLoginRequired)
		h.fail(c, http.StatusUnauthorized, "login required")
		return
	}

	product, err := h.catalog.Get(ctx, req.ProductID, sess.Sink())
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			h.fail(c, http.StatusNotFound, "product not found")
			return
		}
		c.Error(err)
		h.fail(c, http.StatusBadGateway, "catalog unavailable")
		return
	}

	line, err := sess.Cart().AddOrIncrement(ctx, product.ID, req.Quantity)
	h.metrics.CartOp("add", err)
	if err != nil && line == nil {
		h.cartError(c, sess, err)
		return
	}
	if err != nil {
		// written, but the refresh failed and has already been reported
		c.Error(err)
	}

	sess.OpenDialog(product.Name)
	sess.Sink().Notify(ctx, view.Added(req.Quantity, product.Name))
	h.respond(c, http.StatusCreated, envelope{View: addToCartResponse{
		Line:   line,
		Header: headerFor(sess),
		Dialog: view.NewDialog(true, product.Name),
	}})
}

func (h *handlers) setQuantity(c *gin.Context) {
	sess := currentSession(c)
	var req setQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, http.StatusBadRequest, "invalid payload")
		return
	}
	err := sess.Cart().SetQuantity(c.Request.Context(), c.Param("id"), *req.Quantity)
	h.metrics.CartOp("set_quantity", err)
	if err != nil {
		h.cartError(c, sess, err)
		return
	}
	h.renderCart(c, sess, http.StatusOK)
}

func (h *handlers) removeItem(c *gin.Context) {
	sess := currentSession(c)
	err := sess.Cart().RemoveItem(c.Request.Context(), c.Param("id"))
	h.metrics.CartOp("remove", err)
	if err != nil {
		h.cartError(c, sess, err)
		return
	}
	h.renderCart(c, sess, http.StatusOK)
}

func (h *handlers) clearCart(c *gin.Context) {
	sess := currentSession(c)
	err := sess.Cart().ClearCart(c.Request.Context())
	h.metrics.CartOp("clear", err)
	if err != nil {
		h.cartError(c, sess, err)
		return
	}
	h.renderCart(c, sess, http.StatusOK)
}

// cartError maps store errors onto statuses. Remote failures have already
// been reported to the user by the store, so the cart view is still rendered.
func (h *handlers) cartError(c *gin.Context, sess *session.Session, err error) {
	switch {
	case errors.Is(err, cart.ErrLoginRequired):
		sess.Sink().Notify(c.Request.Context(), view.MsgLoginRequired)
		h.fail(c, http.StatusUnauthorized, "login required")
	case errors.Is(err, cart.ErrInvalidQuantity):
		h.fail(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		h.fail(c, http.StatusNotFound, "not found")
	default:
		c.Error(err)
		h.renderCart(c, sess, http.StatusBadGateway)
	}
}

func (h *handlers) renderCart(c *gin.Context, sess *session.Session, status int) {
	snap := sess.Cart().Snapshot()
	h.respond(c, status, envelope{View: view.NewCartPage(headerFor(sess), snap.Items, snap.Loading)})
}
