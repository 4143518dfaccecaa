// Package refreshtokens stores server-side refresh tokens. A token row is
// deleted on rotation, on logout, and lazily on expired use.
package refreshtokens

import (
	"context"
	"time"
)

// Token is one refresh token row. The ID itself is the secret handed to
// the client.
type Token struct {
	ID        string
	UserID    string
	ExpiresAt time.Time
}

// Repository describes persistence operations for refresh tokens.
type Repository interface {
	// Create inserts a new token.
	Create(ctx context.Context, t *Token) error

	// Get returns the token with the given id, or common.ErrNotFound.
	Get(ctx context.Context, id string) (*Token, error)

	// Delete removes the token; deleting an absent token is not an error.
	Delete(ctx context.Context, id string) error

	// DeleteByUser removes all tokens of one user.
	DeleteByUser(ctx context.Context, userID string) error
}
