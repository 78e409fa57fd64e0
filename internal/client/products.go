package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/duynhne/marketplace/internal/core/domain"
)

// UploadResult is the backend's answer to an image upload.
type UploadResult struct {
	URL string `json:"url"`
}

// ListProducts returns the listings matching filter.
func (c *Client) ListProducts(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error) {
	q := url.Values{}
	if filter.City != "" {
		q.Set("city", filter.City)
	}
	if filter.Limit > 0 {
		q.Set("limit", strconv.Itoa(filter.Limit))
	}
	if filter.Offset > 0 {
		q.Set("offset", strconv.Itoa(filter.Offset))
	}

	var products []domain.Product
	if err := c.doJSON(ctx, http.MethodGet, "/products", q, nil, &products); err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

// GetProduct fetches one listing by ID.
func (c *Client) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	var p domain.Product
	if err := c.doJSON(ctx, http.MethodGet, "/products/"+strconv.FormatInt(id, 10), nil, nil, &p); err != nil {
		return nil, fmt.Errorf("get product %d: %w", id, err)
	}
	return &p, nil
}

// CreateProduct publishes a listing owned by the logged-in user.
func (c *Client) CreateProduct(ctx context.Context, req domain.CreateProductRequest) (*domain.Product, error) {
	var p domain.Product
	if err := c.doJSON(ctx, http.MethodPost, "/products", nil, req, &p); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	return &p, nil
}

// UpdateProduct applies the non-nil fields of req to listing id.
func (c *Client) UpdateProduct(ctx context.Context, id int64, req domain.UpdateProductRequest) (*domain.Product, error) {
	var p domain.Product
	if err := c.doJSON(ctx, http.MethodPatch, "/products/"+strconv.FormatInt(id, 10), nil, req, &p); err != nil {
		return nil, fmt.Errorf("update product %d: %w", id, err)
	}
	return &p, nil
}

// UploadImage posts content as multipart field "file" with the longer upload timeout.
func (c *Client) UploadImage(ctx context.Context, filename string, content io.Reader) (*UploadResult, error) {
	var res UploadResult
	if err := c.doMultipart(ctx, "/uploads", "file", filename, content, &res); err != nil {
		return nil, fmt.Errorf("upload %s: %w", filename, err)
	}
	return &res, nil
}
