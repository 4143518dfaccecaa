// Package models defines the client-side domain types: the authenticated
// Actor, inventory Records, and snapshot payloads delivered by the live
// subscription.
package models

import "time"

// Record kinds. Products and stores flow through the same pipeline; the
// kind is a discriminator, not a separate type.
const (
	KindProduct = "product"
	KindStore   = "store"
)

// Actor is the authenticated identity operating the client.
type Actor struct {
	ID          string
	Email       string
	DisplayName string
}

// Record is a single inventory entity owned by exactly one actor.
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

// Snapshot is a full point-in-time payload of all records matching a live
// subscription. Order is irrelevant; the synchronizer sorts locally.
type Snapshot []Record

// Draft is raw user input for a new record. Stock and price arrive as
// free text from forms and are parsed with zero defaults.
type Draft struct {
	Kind        string
	Name        string
	Category    string
	Stock       string
	Price       string
	Description string
}

// Fields is a merge patch for an existing record: nil fields stay untouched.
type Fields struct {
	Kind        *string
	Name        *string
	Category    *string
	Stock       *int
	Price       *float64
	Description *string
}
