package domain

import "context"

// ProductRepository is the data-access contract for listings.
type ProductRepository interface {
	// List returns products matching filter, newest first.
	List(ctx context.Context, filter ProductFilter) ([]Product, error)

	// Get returns (nil, nil) when no product has the given id.
	Get(ctx context.Context, id int64) (*Product, error)

	// Create inserts a product for sellerID and returns it.
	Create(ctx context.Context, sellerID int, req CreateProductRequest) (*Product, error)

	// Update applies the non-nil fields of req and returns the new row,
	// or (nil, nil) when the product does not exist.
	Update(ctx context.Context, id int64, req UpdateProductRequest) (*Product, error)
}

// ProductRecordStore is the narrow view the postal-code backfill needs:
// a full scan and a single-field write.
type ProductRecordStore interface {
	// ListAll returns every product ordered by ID.
	ListAll(ctx context.Context) ([]Product, error)
	// UpdateZipCode overwrites the postal code of product id.
	UpdateZipCode(ctx context.Context, id int64, zipCode string) error
}
