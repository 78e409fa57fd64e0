// Package v1 holds the marketplace business rules for API version 1.
//
// Methods return sentinel errors from this file wrapped with context:
//
//	return nil, fmt.Errorf("authenticate user %q: %w", username, ErrInvalidCredentials)
//
// Handlers map them to HTTP statuses with errors.Is:
//
//	switch {
//	case errors.Is(err, logicv1.ErrInvalidCredentials):
//	    c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
//	case errors.Is(err, logicv1.ErrProductNotFound):
//	    c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
//	}
package v1

import "errors"

var (
	// ErrInvalidCredentials: 401.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrUserNotFound: 401, so the response does not reveal which usernames exist.
	ErrUserNotFound = errors.New("user not found")

	// ErrUserExists: 409.
	ErrUserExists = errors.New("user already exists")

	// ErrSessionNotFound: 401.
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionExpired: 401.
	ErrSessionExpired = errors.New("session expired")

	// ErrProductNotFound: 404.
	ErrProductNotFound = errors.New("product not found")

	// ErrNotOwner means the caller tried to modify another seller's listing: 403.
	ErrNotOwner = errors.New("not the product owner")

	// ErrInvalidProduct: 400.
	ErrInvalidProduct = errors.New("invalid product")
)
