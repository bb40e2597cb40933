package httpserver

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"storefront/internal/view"
)

func (h *handlers) carouselState(c *gin.Context) {
	h.respond(c, http.StatusOK, envelope{View: view.NewCarousel(currentSession(c).Carousel().Current())})
}

func (h *handlers) carouselNext(c *gin.Context) {
	h.respond(c, http.StatusOK, envelope{View: view.NewCarousel(currentSession(c).Carousel().Next())})
}

func (h *handlers) carouselPrev(c *gin.Context) {
	h.respond(c, http.StatusOK, envelope{View: view.NewCarousel(currentSession(c).Carousel().Prev())})
}

func (h *handlers) carouselSelect(c *gin.Context) {
	idx, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		h.fail(c, http.StatusBadRequest, "invalid slide index")
		return
	}
	h.respond(c, http.StatusOK, envelope{View: view.NewCarousel(currentSession(c).Carousel().Select(idx))})
}

func (h *handlers) toggleMenu(c *gin.Context) {
	sess := currentSession(c)
	sess.ToggleMenu()
	h.respond(c, http.StatusOK, envelope{View: headerFor(sess)})
}

func (h *handlers) dialogContinue(c *gin.Context) {
	currentSession(c).CloseDialog()
	h.respond(c, http.StatusOK, envelope{View: view.NewDialog(false, "")})
}

func (h *handlers) dialogCart(c *gin.Context) {
	currentSession(c).CloseDialog()
	h.respond(c, http.StatusOK, envelope{View: view.NewDialog(false, ""), Redirect: "/cart"})
}
