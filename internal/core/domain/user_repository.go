package domain

import "context"

// UserRow is a stored account including its bcrypt hash.
type UserRow struct {
	ID           int
	Username     string
	Email        string
	PasswordHash string
}

// UserRepository is the data-access contract for accounts.
// Logic code depends on this interface, never on pgx directly.
type UserRepository interface {
	// GetByUsername returns (nil, nil) when no user matches.
	GetByUsername(ctx context.Context, username string) (*UserRow, error)

	// ExistsByUsernameOrEmail reports whether either value is already taken.
	ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error)

	// Create inserts a user and returns its generated ID.
	Create(ctx context.Context, username, email, passwordHash string) (int, error)

	// UpdateLastLogin stamps the user's last_login with the current time.
	UpdateLastLogin(ctx context.Context, userID int) error
}
