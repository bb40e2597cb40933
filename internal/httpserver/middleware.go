package httpserver

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"storefront/internal/metrics"
	authsvc "storefront/internal/service/auth"
	"storefront/internal/session"
)

const (
	sessionCookie = "sid"
	sessionKey    = "session"
	requestIDKey  = "request_id"
)

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader("X-Request-ID")
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Set(requestIDKey, rid)
		c.Header("X-Request-ID", rid)
		c.Next()
	}
}

// requestLogger emits one structured line per request, leveled by status.
func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
			zap.Int("body_size", c.Writer.Size()),
		}
		if rid := c.GetString(requestIDKey); rid != "" {
			fields = append(fields, zap.String("request_id", rid))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		switch {
		case status >= 500:
			logger.Error("http_request", fields...)
		case status >= 400:
			logger.Warn("http_request", fields...)
		default:
			logger.Info("http_request", fields...)
		}
	}
}

func instrument(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.Requests.WithLabelValues(route, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
		m.Latency.WithLabelValues(route, c.Request.Method).Observe(time.Since(start).Seconds())
	}
}

// sessionMiddleware resolves the sid cookie, minting a new session when the
// cookie is missing or stale.
func (h *handlers) sessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		sid, _ := c.Cookie(sessionCookie)
		sess, created := h.sessions.GetOrCreate(sid)
		if created {
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(sessionCookie, sess.ID(), 0, "/", "", h.secure, true)
		}
		c.Set(sessionKey, sess)
		c.Next()
	}
}

// identity binds the user behind an Authorization bearer token to the
// session when it differs from the one already bound, then re-checks the
// bound token so revoked or expired tokens end the session. Invalid bearer
// tokens leave the session as it is.
func (h *handlers) identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		sess := currentSession(c)
		if token := bearerToken(c.GetHeader("Authorization")); token != "" && token != sess.AccessToken() {
			u, err := h.auth.LookupByToken(ctx, token)
			if err == nil {
				sess.SignIn(u, token)
				_ = sess.Cart().IdentityChanged(ctx)
				c.Next()
				return
			}
			h.logger.Debug("bearer token rejected", zap.String("session_id", sess.ID()), zap.Error(err))
		}
		h.recheck(ctx, sess)
		c.Next()
	}
}

// recheck validates the session's bound token at most once per
// h.recheckEvery. A store failure keeps the session signed in.
func (h *handlers) recheck(ctx context.Context, sess *session.Session) {
	token, due := sess.VerificationDue(time.Now(), h.recheckEvery)
	if !due {
		return
	}
	_, err := h.auth.LookupByToken(ctx, token)
	switch {
	case err == nil:
		sess.MarkVerified(token, time.Now())
	case errors.Is(err, authsvc.ErrInvalidToken):
		if sess.Expire(token) {
			h.logger.Info("session token no longer valid, signed out", zap.String("session_id", sess.ID()))
			_ = sess.Cart().IdentityChanged(ctx)
		}
	default:
		h.logger.Warn("session token check", zap.String("session_id", sess.ID()), zap.Error(err))
	}
}

func bearerToken(header string) string {
	const prefix = "bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

func currentSession(c *gin.Context) *session.Session {
	return c.MustGet(sessionKey).(*session.Session)
}
