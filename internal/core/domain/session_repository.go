package domain

import (
	"context"
	"time"
)

// SessionRow is a session joined with the user that owns it.
type SessionRow struct {
	UserID    int
	Username  string
	Email     string
	ExpiresAt time.Time
}

// SessionRepository stores server-side bearer sessions.
type SessionRepository interface {
	// Create stores a session token for userID.
	Create(ctx context.Context, userID int, token string, expiresAt time.Time) error

	// GetUserByToken returns (nil, nil) when the token is unknown.
	GetUserByToken(ctx context.Context, token string) (*SessionRow, error)

	// Delete removes the session. Deleting an unknown token is not an error.
	Delete(ctx context.Context, token string) error

	// DeleteExpired purges sessions that expired before now and reports how many were removed.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
