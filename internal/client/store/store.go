// Package store defines the document-store collaborator contract: record
// mutations plus a live, cancellable subscription delivering full snapshots
// of one owner's records. The websocket implementation talks to the
// stocklive server; tests substitute in-process fakes.
package store

import (
	"context"
	"time"

	"github.com/msavelyev/stocklive/internal/client/models"
)

// Subscription is one live query. Snapshots delivers payloads in the order
// the remote store emits them and is closed when the subscription ends.
// Cancel is idempotent.
type Subscription interface {
	Snapshots() <-chan models.Snapshot
	Cancel()
}

// Store is the remote document store scoped to record operations.
type Store interface {
	// Subscribe opens a live query for every record owned by ownerID.
	Subscribe(ctx context.Context, ownerID string) (Subscription, error)

	// Insert writes a new record and returns the assigned identifier.
	Insert(ctx context.Context, rec models.Record) (string, error)

	// Patch merges fields into an existing record and moves its
	// last-update timestamp to updatedAt.
	Patch(ctx context.Context, id string, patch models.Fields, updatedAt time.Time) error

	// Remove deletes a record.
	Remove(ctx context.Context, id string) error
}
