package v1

import (
	"context"
	"errors"
	"testing"

	"github.com/duynhne/marketplace/internal/core/domain"
)

func TestProductCreateValidation(t *testing.T) {
	svc := NewProductService(newFakeProducts())
	ctx := context.Background()

	if _, err := svc.Create(ctx, 1, domain.CreateProductRequest{Title: "   ", Price: 10}); !errors.Is(err, ErrInvalidProduct) {
		t.Fatalf("blank title: err = %v", err)
	}
	if _, err := svc.Create(ctx, 1, domain.CreateProductRequest{Title: "Bike", Price: -1}); !errors.Is(err, ErrInvalidProduct) {
		t.Fatalf("negative price: err = %v", err)
	}

	p, err := svc.Create(ctx, 1, domain.CreateProductRequest{Title: "  Bike ", Price: 120, City: "Lyon"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if p.Title != "Bike" || p.SellerID != 1 {
		t.Fatalf("unexpected product: %+v", p)
	}
}

func TestProductGetNotFound(t *testing.T) {
	svc := NewProductService(newFakeProducts())
	if _, err := svc.Get(context.Background(), 42); !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("err = %v, want ErrProductNotFound", err)
	}
}

func TestProductUpdateOwnership(t *testing.T) {
	repo := newFakeProducts()
	svc := NewProductService(repo)
	ctx := context.Background()

	p, err := svc.Create(ctx, 7, domain.CreateProductRequest{Title: "Lamp", Price: 15})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	price := 20.0
	if _, err := svc.Update(ctx, 8, p.ID, domain.UpdateProductRequest{Price: &price}); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("other seller: err = %v, want ErrNotOwner", err)
	}
	if _, err := svc.Update(ctx, 7, 999, domain.UpdateProductRequest{Price: &price}); !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("missing product: err = %v, want ErrProductNotFound", err)
	}

	updated, err := svc.Update(ctx, 7, p.ID, domain.UpdateProductRequest{Price: &price})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Price != 20 || updated.Title != "Lamp" {
		t.Fatalf("unexpected product after update: %+v", updated)
	}
}

func TestProductListPropagatesStoreError(t *testing.T) {
	repo := newFakeProducts()
	repo.err = errStore
	svc := NewProductService(repo)

	if _, err := svc.List(context.Background(), domain.ProductFilter{}); !errors.Is(err, errStore) {
		t.Fatalf("err = %v, want errStore", err)
	}
}
