package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"storefront/internal/config"
	"storefront/internal/db"
	"storefront/internal/httpserver"
	"storefront/internal/keylock"
	"storefront/internal/logging"
	"storefront/internal/metrics"
	"storefront/internal/migrate"
	"storefront/internal/notify"
	cartrepo "storefront/internal/repository/cart"
	productrepo "storefront/internal/repository/product"
	tokenrepo "storefront/internal/repository/token"
	userrepo "storefront/internal/repository/user"
	authsvc "storefront/internal/service/auth"
	cartsvc "storefront/internal/service/cart"
	catalogsvc "storefront/internal/service/catalog"
	"storefront/internal/session"
)

func main() {
	cfg := config.FromEnv()
	logger, err := logging.New(cfg.Env, "api")
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbpool, err := db.Connect(ctx, cfg.DBConnString, logger)
	if err != nil {
		logger.Fatal("connect to db", zap.Error(err))
	}
	defer dbpool.Close()

	if cfg.AutoMigrate {
		if err := migrate.Apply(ctx, dbpool, logger); err != nil {
			logger.Fatal("apply migrations", zap.Error(err))
		}
	}

	feed, closeFeed := notificationFeed(ctx, cfg, logger)
	defer closeFeed()

	productRepo := productrepo.NewPostgres(dbpool, logger)
	cartRepo := cartrepo.NewPostgres(dbpool, logger)
	catalog := catalogsvc.New(productRepo, cfg.RemoteTimeout, logger)
	auth := authsvc.New(userrepo.NewPostgres(dbpool, logger), tokenrepo.NewPostgres(dbpool), logger)

	locks := keylock.New()
	sessions := session.NewRegistry(session.Options{
		Feed: feed,
		NewStore: func(identity cartsvc.Identity, sink notify.Sink) *cartsvc.Store {
			return cartsvc.New(cartRepo, identity, sink, cartsvc.Options{
				Locks:   locks,
				Timeout: cfg.RemoteTimeout,
				Logger:  logger,
			})
		},
		IdleTTL:          cfg.SessionIdleTTL,
		CarouselInterval: cfg.CarouselInterval,
		Logger:           logger,
	})

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	srv, err := httpserver.New(cfg.HTTPAddr, logger, httpserver.Deps{
		DB:             dbpool,
		Catalog:        catalog,
		Auth:           auth,
		Sessions:       sessions,
		Feed:           feed,
		Gatherer:       reg,
		Metrics:        metrics.New(reg, sessions.Len),
		AllowedOrigins: cfg.CORSAllowedOrigins,
		SecureCookies:  cfg.Production(),
		TokenRecheck:   cfg.TokenRecheck,
	})
	if err != nil {
		logger.Fatal("init server", zap.Error(err))
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return sessions.Run(gctx, time.Minute)
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server stopped with error", zap.Error(err))
		return
	}
	logger.Info("server stopped")
}

// notificationFeed picks Redis when REDIS_URL is set so notifications survive
// restarts and are shared between replicas, and memory otherwise.
func notificationFeed(ctx context.Context, cfg config.Config, logger *zap.Logger) (notify.Feed, func()) {
	if cfg.RedisURL == "" {
		logger.Info("notification feed: memory")
		return notify.NewMemory(), func() {}
	}
	client, err := notify.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		logger.Fatal("connect redis", zap.Error(err))
	}
	logger.Info("notification feed: redis")
	return notify.NewRedis(client, cfg.SessionIdleTTL), func() { _ = client.Close() }
}
