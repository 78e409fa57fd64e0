package v1

import (
	"context"
	"fmt"
	"math"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/duynhne/marketplace/internal/core/domain"
	"github.com/duynhne/marketplace/middleware"
)

const maxListLimit = 100

// ProductService implements listing rules: anyone can browse, only the
// seller can edit their own product.
type ProductService struct {
	products domain.ProductRepository
}

// NewProductService creates a new ProductService.
func NewProductService(products domain.ProductRepository) *ProductService {
	return &ProductService{products: products}
}

// List returns listings matching filter with the page size clamped.
func (s *ProductService) List(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error) {
	ctx, span := middleware.StartSpan(ctx, "product.list", trace.WithAttributes(
		attribute.String("layer", "logic"),
		attribute.String("filter.city", filter.City),
	))
	defer span.End()

	if filter.Limit <= 0 || filter.Limit > maxListLimit {
		filter.Limit = maxListLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	products, err := s.products.List(ctx, filter)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("list products: %w", err)
	}

	span.SetAttributes(attribute.Int("product.count", len(products)))
	return products, nil
}

// Get returns one listing or ErrProductNotFound.
func (s *ProductService) Get(ctx context.Context, id int64) (*domain.Product, error) {
	ctx, span := middleware.StartSpan(ctx, "product.get", trace.WithAttributes(
		attribute.String("layer", "logic"),
		attribute.Int64("product.id", id),
	))
	defer span.End()

	p, err := s.products.Get(ctx, id)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("get product %d: %w", id, err)
	}
	if p == nil {
		return nil, fmt.Errorf("get product %d: %w", id, ErrProductNotFound)
	}
	return p, nil
}

// Create stores a new listing owned by sellerID.
func (s *ProductService) Create(ctx context.Context, sellerID int, req domain.CreateProductRequest) (*domain.Product, error) {
	ctx, span := middleware.StartSpan(ctx, "product.create", trace.WithAttributes(
		attribute.String("layer", "logic"),
		attribute.Int("seller.id", sellerID),
	))
	defer span.End()

	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		return nil, fmt.Errorf("create product: title is required: %w", ErrInvalidProduct)
	}
	if err := checkPrice(req.Price); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}

	p, err := s.products.Create(ctx, sellerID, req)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("create product: %w", err)
	}

	span.SetAttributes(attribute.Int64("product.id", p.ID))
	span.AddEvent("product.created")
	return p, nil
}

// Update applies a partial update on behalf of callerID.
func (s *ProductService) Update(ctx context.Context, callerID int, id int64, req domain.UpdateProductRequest) (*domain.Product, error) {
	ctx, span := middleware.StartSpan(ctx, "product.update", trace.WithAttributes(
		attribute.String("layer", "logic"),
		attribute.Int64("product.id", id),
		attribute.Int("caller.id", callerID),
	))
	defer span.End()

	if req.Title != nil {
		t := strings.TrimSpace(*req.Title)
		if t == "" {
			return nil, fmt.Errorf("update product %d: title cannot be blank: %w", id, ErrInvalidProduct)
		}
		req.Title = &t
	}
	if req.Price != nil {
		if err := checkPrice(*req.Price); err != nil {
			return nil, fmt.Errorf("update product %d: %w", id, err)
		}
	}

	current, err := s.products.Get(ctx, id)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("load product %d: %w", id, err)
	}
	if current == nil {
		return nil, fmt.Errorf("update product %d: %w", id, ErrProductNotFound)
	}
	if current.SellerID != callerID {
		span.SetAttributes(attribute.Bool("product.owner", false))
		return nil, fmt.Errorf("update product %d: %w", id, ErrNotOwner)
	}

	updated, err := s.products.Update(ctx, id, req)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("update product %d: %w", id, err)
	}
	if updated == nil {
		return nil, fmt.Errorf("update product %d: %w", id, ErrProductNotFound)
	}

	span.AddEvent("product.updated")
	return updated, nil
}

func checkPrice(price float64) error {
	if price < 0 || math.IsNaN(price) || math.IsInf(price, 0) {
		return fmt.Errorf("price %v out of range: %w", price, ErrInvalidProduct)
	}
	return nil
}
