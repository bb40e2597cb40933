package httpserver

import (
	"context"
	"errors"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"storefront/internal/domain"
	"storefront/internal/logging"
	"storefront/internal/metrics"
	"storefront/internal/notify"
	authsvc "storefront/internal/service/auth"
	"storefront/internal/session"
)

type pinger interface {
	Ping(ctx context.Context) error
}

type catalogReader interface {
	ListProducts(ctx context.Context, sink notify.Sink) ([]domain.Product, error)
	Get(ctx context.Context, id string, sink notify.Sink) (*domain.Product, error)
}

type authService interface {
	Signup(ctx context.Context, in authsvc.Credentials) (*domain.User, error)
	Login(ctx context.Context, in authsvc.Credentials) (*authsvc.Session, error)
	Refresh(ctx context.Context, refreshToken string) (*authsvc.Session, error)
	Logout(ctx context.Context, tokens ...string) error
	RevokeAll(ctx context.Context, userID string) error
	LookupByToken(ctx context.Context, token string) (*domain.User, error)
}

// Deps are the collaborators the handlers need.
type Deps struct {
	DB       pinger
	Catalog  catalogReader
	Auth     authService
	Sessions *session.Registry
	Feed     notify.Feed
	// Gatherer serves /metrics; nil disables the endpoint.
	Gatherer       prometheus.Gatherer
	Metrics        *metrics.Metrics
	AllowedOrigins []string
	SecureCookies  bool
	// TokenRecheck is how often a session's bound access token is
	// re-validated; zero checks on every request.
	TokenRecheck time.Duration
}

type handlers struct {
	logger   *zap.Logger
	catalog  catalogReader
	auth     authService
	sessions *session.Registry
	feed     notify.Feed
	metrics  *metrics.Metrics
	secure   bool

	recheckEvery time.Duration
}

// buildRouter wires routes for the API.
func buildRouter(logger *zap.Logger, deps Deps) (*gin.Engine, error) {
	logger = logging.OrNop(logger)
	if deps.Catalog == nil || deps.Auth == nil || deps.Sessions == nil || deps.Feed == nil {
		return nil, errors.New("httpserver: catalog, auth, sessions and feed are required")
	}

	router := gin.New()
	router.Use(requestID(), requestLogger(logger), gin.Recovery())
	if deps.Metrics != nil {
		router.Use(instrument(deps.Metrics))
	}
	if len(deps.AllowedOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     deps.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
			ExposeHeaders:    []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(deps.DB))
	if deps.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	h := &handlers{
		logger:   logger,
		catalog:  deps.Catalog,
		auth:     deps.Auth,
		sessions: deps.Sessions,
		feed:     deps.Feed,
		metrics:  deps.Metrics,
		secure:   deps.SecureCookies,

		recheckEvery: deps.TokenRecheck,
	}

	site := router.Group("/")
	site.Use(h.sessionMiddleware(), h.identity())

	site.GET("/", h.landing)
	site.GET("/products", h.listProducts)

	site.POST("/auth/signup", h.signup)
	site.POST("/auth/login", h.login)
	site.POST("/auth/refresh", h.refresh)
	site.POST("/auth/logout", h.logout)
	site.GET("/auth/me", h.me)

	site.GET("/cart", h.cartPage)
	site.POST("/cart/items", h.addToCart)
	site.PATCH("/cart/items/:id", h.setQuantity)
	site.DELETE("/cart/items/:id", h.removeItem)
	site.DELETE("/cart", h.clearCart)

	site.GET("/carousel", h.carouselState)
	site.POST("/carousel/next", h.carouselNext)
	site.POST("/carousel/prev", h.carouselPrev)
	site.POST("/carousel/select/:index", h.carouselSelect)

	site.POST("/menu/toggle", h.toggleMenu)
	site.POST("/dialog/continue", h.dialogContinue)
	site.POST("/dialog/cart", h.dialogCart)

	return router, nil
}
