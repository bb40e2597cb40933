package httpserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront/internal/domain"
	authsvc "storefront/internal/service/auth"
	"storefront/internal/view"
)

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

type userResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type tokenResponse struct {
	User         userResponse `json:"user"`
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
	ExpiresIn    int          `json:"expiresIn"`
	TokenType    string       `json:"tokenType"`
	Header       view.Header  `json:"header"`
}

func toUserResponse(u *domain.User) userResponse {
	return userResponse{ID: u.ID, Email: u.Email}
}

func (h *handlers) signup(c *gin.Context) {
	var req authsvc.Credentials
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, http.StatusBadRequest, "invalid payload")
		return
	}
	u, err := h.auth.Signup(c.Request.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, authsvc.ErrInvalidInput):
			h.fail(c, http.StatusBadRequest, err.Error())
		case errors.Is(err, domain.ErrAlreadyExists):
			h.fail(c, http.StatusConflict, "email already registered")
		default:
			c.Error(err)
			h.fail(c, http.StatusInternalServerError, "signup failed")
		}
		return
	}
	h.respond(c, http.StatusCreated, envelope{View: toUserResponse(u)})
}

// login authenticates and binds the user to the session, which refetches the
// cart for the new identity.
func (h *handlers) login(c *gin.Context) {
	sess := currentSession(c)
	var req authsvc.Credentials
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, http.StatusBadRequest, "invalid payload")
		return
	}
	ctx := c.Request.Context()
	res, err := h.auth.Login(ctx, req)
	if err != nil {
		if errors.Is(err, authsvc.ErrInvalidCredentials) {
			h.fail(c, http.StatusUnauthorized, "invalid credentials")
			return
		}
		c.Error(err)
		h.fail(c, http.StatusInternalServerError, "login failed")
		return
	}

	sess.SignIn(res.User, res.AccessToken)
	if err := sess.Cart().IdentityChanged(ctx); err != nil {
		c.Error(err)
	}
	h.respond(c, http.StatusOK, envelope{View: h.tokens(res, headerFor(sess))})
}

func (h *handlers) refresh(c *gin.Context) {
	sess := currentSession(c)
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, http.StatusBadRequest, "invalid payload")
		return
	}
	res, err := h.auth.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		if errors.Is(err, authsvc.ErrInvalidToken) {
			h.fail(c, http.StatusUnauthorized, "invalid token")
			return
		}
		c.Error(err)
		h.fail(c, http.StatusInternalServerError, "refresh failed")
		return
	}
	if id, ok := sess.UserID(); ok && id == res.User.ID {
		sess.SignIn(res.User, res.AccessToken)
	}
	h.respond(c, http.StatusOK, envelope{View: h.tokens(res, headerFor(sess))})
}

// logout unbinds the session user. With ?all=true every token of the user is
// revoked, not only the ones presented.
func (h *handlers) logout(c *gin.Context) {
	sess := currentSession(c)
	ctx := c.Request.Context()
	if id, ok := sess.UserID(); ok && c.Query("all") == "true" {
		if err := h.auth.RevokeAll(ctx, id); err != nil {
			h.logger.Warn("logout: revoke all", zap.String("user_id", id), zap.Error(err))
		}
	}
	token := sess.SignOut()
	if err := h.auth.Logout(ctx, token, bearerToken(c.GetHeader("Authorization"))); err != nil {
		h.logger.Warn("logout: revoke token", zap.String("session_id", sess.ID()), zap.Error(err))
	}
	if err := sess.Cart().IdentityChanged(ctx); err != nil {
		c.Error(err)
	}
	h.respond(c, http.StatusOK, envelope{View: headerFor(sess)})
}

func (h *handlers) me(c *gin.Context) {
	u := currentSession(c).User()
	if u == nil {
		h.fail(c, http.StatusUnauthorized, "not signed in")
		return
	}
	h.respond(c, http.StatusOK, envelope{View: toUserResponse(u)})
}

func (h *handlers) tokens(res *authsvc.Session, header view.Header) tokenResponse {
	return tokenResponse{
		User:         toUserResponse(res.User),
		AccessToken:  res.AccessToken,
		RefreshToken: res.RefreshToken,
		ExpiresIn:    res.ExpiresIn,
		TokenType:    "Bearer",
		Header:       header,
	}
}
