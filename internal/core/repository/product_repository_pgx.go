package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/duynhne/marketplace/internal/core/domain"
)

const productColumns = `id, seller_id, title, description, price, location, city, zip_code, image_url, created_at, updated_at`

// PgxProductRepository is the pgx-backed domain.ProductRepository. It also
// satisfies domain.ProductRecordStore for the postal-code backfill.
type PgxProductRepository struct {
	pool *pgxpool.Pool
}

// NewProductRepository creates a new PgxProductRepository.
func NewProductRepository(pool *pgxpool.Pool) *PgxProductRepository {
	return &PgxProductRepository{pool: pool}
}

// List returns products matching filter, newest first.
func (r *PgxProductRepository) List(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error) {
	var (
		where []string
		args  []any
	)
	if city := strings.TrimSpace(filter.City); city != "" {
		args = append(args, city)
		where = append(where, fmt.Sprintf("LOWER(city) = LOWER($%d)", len(args)))
	}
	if filter.SellerID > 0 {
		args = append(args, filter.SellerID)
		where = append(where, fmt.Sprintf("seller_id = $%d", len(args)))
	}

	query := `SELECT ` + productColumns + ` FROM products`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at DESC, id DESC`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	return r.queryProducts(ctx, query, args...)
}

// Get returns (nil, nil) when the product does not exist.
func (r *PgxProductRepository) Get(ctx context.Context, id int64) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	p, err := scanProduct(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select product %d: %w", id, err)
	}
	return p, nil
}

// Create inserts a new product and returns the stored row.
func (r *PgxProductRepository) Create(ctx context.Context, sellerID int, req domain.CreateProductRequest) (*domain.Product, error) {
	query := `
		INSERT INTO products (seller_id, title, description, price, location, city, zip_code, image_url)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''), NULLIF($7, ''), NULLIF($8, ''))
		RETURNING ` + productColumns

	p, err := scanProduct(r.pool.QueryRow(ctx, query,
		sellerID, req.Title, req.Description, req.Price,
		strings.TrimSpace(req.Location), strings.TrimSpace(req.City),
		strings.TrimSpace(req.ZipCode), strings.TrimSpace(req.ImageURL),
	))
	if err != nil {
		return nil, fmt.Errorf("insert product: %w", err)
	}
	return p, nil
}

// Update applies the non-nil fields of req. An empty string clears a
// nullable column. Returns (nil, nil) when the product does not exist.
func (r *PgxProductRepository) Update(ctx context.Context, id int64, req domain.UpdateProductRequest) (*domain.Product, error) {
	query := `
		UPDATE products SET
			title       = COALESCE($2::text, title),
			description = COALESCE($3::text, description),
			price       = COALESCE($4::double precision, price),
			location    = CASE WHEN $5::text IS NULL THEN location  ELSE NULLIF($5::text, '') END,
			city        = CASE WHEN $6::text IS NULL THEN city      ELSE NULLIF($6::text, '') END,
			zip_code    = CASE WHEN $7::text IS NULL THEN zip_code  ELSE NULLIF($7::text, '') END,
			image_url   = CASE WHEN $8::text IS NULL THEN image_url ELSE NULLIF($8::text, '') END,
			updated_at  = CURRENT_TIMESTAMP
		WHERE id = $1
		RETURNING ` + productColumns

	p, err := scanProduct(r.pool.QueryRow(ctx, query,
		id, req.Title, req.Description, req.Price,
		req.Location, req.City, req.ZipCode, req.ImageURL,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("update product %d: %w", id, err)
	}
	return p, nil
}

// ListAll returns every product in id order.
func (r *PgxProductRepository) ListAll(ctx context.Context) ([]domain.Product, error) {
	return r.queryProducts(ctx, `SELECT `+productColumns+` FROM products ORDER BY id`)
}

// UpdateZipCode writes only the zip_code column of one product.
func (r *PgxProductRepository) UpdateZipCode(ctx context.Context, id int64, zipCode string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE products SET zip_code = $2 WHERE id = $1`, id, zipCode)
	if err != nil {
		return fmt.Errorf("update zip_code of product %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update zip_code of product %d: %w", id, pgx.ErrNoRows)
	}
	return nil
}

func (r *PgxProductRepository) queryProducts(ctx context.Context, query string, args ...any) ([]domain.Product, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	products := make([]domain.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}
	return products, nil
}

func scanProduct(row pgx.Row) (*domain.Product, error) {
	var (
		p                                 domain.Product
		location, city, zipCode, imageURL *string
	)
	err := row.Scan(
		&p.ID, &p.SellerID, &p.Title, &p.Description, &p.Price,
		&location, &city, &zipCode, &imageURL,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.Location = deref(location)
	p.City = deref(city)
	p.ZipCode = deref(zipCode)
	p.ImageURL = deref(imageURL)
	return &p, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
