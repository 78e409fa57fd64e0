package domain

import "time"

// User is the public view of an account.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RegisterRequest is the body of POST /auth/register.
type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=50"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

// AuthResponse is returned by login and register.
type AuthResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// Product is a marketplace listing. Location, City and ZipCode may be
// empty when the seller left them out.
type Product struct {
	ID          int64     `json:"id"`
	SellerID    int       `json:"sellerId"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	Location    string    `json:"location,omitempty"`
	City        string    `json:"city,omitempty"`
	ZipCode     string    `json:"zipCode,omitempty"`
	ImageURL    string    `json:"imageUrl,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// CreateProductRequest is the body of POST /products.
type CreateProductRequest struct {
	Title       string  `json:"title" binding:"required,max=200"`
	Description string  `json:"description" binding:"max=5000"`
	Price       float64 `json:"price" binding:"gte=0"`
	Location    string  `json:"location,omitempty"`
	City        string  `json:"city,omitempty"`
	ZipCode     string  `json:"zipCode,omitempty"`
	ImageURL    string  `json:"imageUrl,omitempty"`
}

// UpdateProductRequest is a partial update; nil fields are left unchanged.
type UpdateProductRequest struct {
	Title       *string  `json:"title,omitempty" binding:"omitempty,max=200"`
	Description *string  `json:"description,omitempty" binding:"omitempty,max=5000"`
	Price       *float64 `json:"price,omitempty" binding:"omitempty,gte=0"`
	Location    *string  `json:"location,omitempty"`
	City        *string  `json:"city,omitempty"`
	ZipCode     *string  `json:"zipCode,omitempty"`
	ImageURL    *string  `json:"imageUrl,omitempty"`
}

// ProductFilter narrows product listings. Zero values mean no filter.
type ProductFilter struct {
	City     string
	SellerID int
	Limit    int
	Offset   int
}
