// Package records stores inventory records. Every operation that targets a
// single record is scoped by owner: a record belonging to someone else is
// indistinguishable from a missing one.
package records

import (
	"context"
	"time"
)

// Record is one inventory row.
type Record struct {
	ID          string
	OwnerID     string
	Kind        string
	Name        string
	Category    string
	Stock       int
	Price       float64
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Repository describes persistence operations for records.
type Repository interface {
	// Insert writes a new record.
	Insert(ctx context.Context, rec *Record) error

	// GetByID returns one record scoped by owner, or common.ErrNotFound.
	GetByID(ctx context.Context, ownerID, id string) (*Record, error)

	// Update overwrites all mutable columns of an existing record;
	// common.ErrNotFound when the scoped id does not resolve.
	Update(ctx context.Context, rec *Record) error

	// Delete removes one record scoped by owner; common.ErrNotFound when
	// the scoped id does not resolve.
	Delete(ctx context.Context, ownerID, id string) error

	// ListByOwner returns every record of one owner, unordered.
	ListByOwner(ctx context.Context, ownerID string) ([]Record, error)
}
