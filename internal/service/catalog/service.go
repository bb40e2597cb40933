package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"storefront/internal/domain"
	"storefront/internal/logging"
	"storefront/internal/notify"
)

var msgListFailed = domain.Failure("Erro", "Não foi possível carregar os produtos.")

type productRepo interface {
	ListNewestFirst(ctx context.Context) ([]domain.Product, error)
	GetByID(ctx context.Context, id string) (*domain.Product, error)
}

// Reader lists the catalog for display.
type Reader struct {
	repo    productRepo
	timeout time.Duration
	logger  *zap.Logger
}

func New(repo productRepo, timeout time.Duration, logger *zap.Logger) *Reader {
	return &Reader{repo: repo, timeout: timeout, logger: logging.OrNop(logger)}
}

// ListProducts returns every product, newest first. On failure the sink gets
// a destructive notification and the result is an empty, non-nil slice.
func (r *Reader) ListProducts(ctx context.Context, sink notify.Sink) ([]domain.Product, error) {
	rctx, cancel := r.remote(ctx)
	defer cancel()

	products, err := r.repo.ListNewestFirst(rctx)
	if err != nil {
		r.logger.Error("catalog: list products", zap.Error(err))
		if sink != nil {
			sink.Notify(ctx, msgListFailed)
		}
		return []domain.Product{}, fmt.Errorf("list products: %w", err)
	}
	if products == nil {
		products = []domain.Product{}
	}
	return products, nil
}

// Get looks a single product up. A missing or malformed id is
// domain.ErrNotFound and stays silent; other failures notify the sink.
func (r *Reader) Get(ctx context.Context, id string, sink notify.Sink) (*domain.Product, error) {
	rctx, cancel := r.remote(ctx)
	defer cancel()

	p, err := r.repo.GetByID(rctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		r.logger.Error("catalog: get product", zap.String("product_id", id), zap.Error(err))
		if sink != nil {
			sink.Notify(ctx, msgListFailed)
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

func (r *Reader) remote(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, r.timeout)
}
