// Package users stores user accounts.
package users

import (
	"context"
	"time"
)

// User is one account row.
type User struct {
	ID           string
	Email        string
	DisplayName  string
	PasswordHash string
	Disabled     bool
	CreatedAt    time.Time
}

// Repository describes persistence operations for users.
type Repository interface {
	// Create inserts a new user. A duplicate email yields
	// common.ErrEmailInUse.
	Create(ctx context.Context, u *User) error

	// GetByEmail returns the user with the given email, or
	// common.ErrNotFound.
	GetByEmail(ctx context.Context, email string) (*User, error)

	// GetByID returns the user with the given id, or common.ErrNotFound.
	GetByID(ctx context.Context, id string) (*User, error)

	// UpdateDisplayName sets the display name; common.ErrNotFound when the
	// id does not resolve.
	UpdateDisplayName(ctx context.Context, id, name string) error
}
