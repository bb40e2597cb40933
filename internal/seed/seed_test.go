package seed

import (
	"context"
	"errors"
	"testing"

	"storefront/internal/dbtest"
	"storefront/internal/domain"
	productrepo "storefront/internal/repository/product"
)

type stubRepo struct {
	byName map[string]domain.Product
	err    error
}

func (s *stubRepo) Upsert(_ context.Context, p domain.Product) (*domain.Product, error) {
	if s.err != nil {
		return nil, s.err
	}
	p.ID = "id-" + p.Name
	s.byName[p.Name] = p
	return &p, nil
}

func TestApply_Idempotent(t *testing.T) {
	repo := &stubRepo{byName: map[string]domain.Product{}}
	for i := 0; i < 2; i++ {
		if err := Apply(context.Background(), repo, nil); err != nil {
			t.Fatalf("apply: %v", err)
		}
	}
	if len(repo.byName) != len(Products) {
		t.Fatalf("expected %d products, got %d", len(Products), len(repo.byName))
	}
}

func TestApply_Error(t *testing.T) {
	repo := &stubRepo{byName: map[string]domain.Product{}, err: errors.New("boom")}
	if err := Apply(context.Background(), repo, nil); err == nil {
		t.Fatalf("expected error")
	}
}

func TestApply_Integration(t *testing.T) {
	ctx := context.Background()
	pool := dbtest.Pool(ctx, t)
	repo := productrepo.NewPostgres(pool, nil)

	if err := Apply(ctx, repo, nil); err != nil {
		t.Fatalf("first apply: %v", err)
	}
	if err := Apply(ctx, repo, nil); err != nil {
		t.Fatalf("second apply: %v", err)
	}
	products, err := repo.ListNewestFirst(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(products) != len(Products) {
		t.Fatalf("expected %d products, got %d", len(Products), len(products))
	}
}
