package httpserver

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront/internal/domain"
	"storefront/internal/session"
	"storefront/internal/view"
)

type envelope struct {
	View          any                   `json:"view,omitempty"`
	Error         string                `json:"error,omitempty"`
	Redirect      string                `json:"redirect,omitempty"`
	Notifications []domain.Notification `json:"notifications"`
}

// respond writes payload together with every notification queued for the
// session since its last response.
func (h *handlers) respond(c *gin.Context, status int, payload envelope) {
	sess := currentSession(c)
	pending, err := h.feed.Drain(c.Request.Context(), sess.ID())
	if err != nil {
		h.logger.Warn("drain notifications", zap.String("session_id", sess.ID()), zap.Error(err))
	}
	if pending == nil {
		pending = []domain.Notification{}
	}
	payload.Notifications = pending
	c.JSON(status, payload)
}

func (h *handlers) fail(c *gin.Context, status int, msg string) {
	h.respond(c, status, envelope{Error: msg})
}

func headerFor(sess *session.Session) view.Header {
	st := view.HeaderState{
		CartCount: sess.Cart().TotalItems(),
		MenuOpen:  sess.MenuOpen(),
	}
	if u := sess.User(); u != nil {
		st.SignedIn = true
		st.Email = u.Email
	}
	return view.NewHeader(st)
}
