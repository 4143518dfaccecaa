// Package gateway issues record mutations against the remote store. Writes
// are stamped with the current actor and wall-clock timestamps; their
// effect becomes visible only when the store echoes the change back through
// the live subscription, so callers must not expect the local view to
// reflect a mutation the moment a call returns.
package gateway

import (
	"context"
	"fmt"
	"time"

	"github.com/msavelyev/stocklive/internal/client/models"
	"github.com/msavelyev/stocklive/internal/client/session"
	"github.com/msavelyev/stocklive/internal/client/store"
)

// SessionReader is the slice of the session store the gateway needs.
type SessionReader interface {
	Snapshot() session.State
}

// Gateway is the mutation front end for the record collection.
type Gateway struct {
	store   store.Store
	session SessionReader
	now     func() time.Time
}

// New builds a gateway. The session reader supplies the owning actor for
// every write.
func New(st store.Store, sess SessionReader) *Gateway {
	return &Gateway{store: st, session: sess, now: time.Now}
}

// Create inserts a new record built from the draft: owner stamped from the
// current actor, both timestamps set to now, stock and price parsed with
// zero defaults. An absent actor is a precondition violation, not a
// default.
func (g *Gateway) Create(ctx context.Context, draft models.Draft) (string, error) {
	state := g.session.Snapshot()
	if state.Actor == nil {
		return "", store.NewError(store.KindUnknown, fmt.Errorf("no authenticated actor"))
	}

	kind := draft.Kind
	if kind == "" {
		kind = models.KindProduct
	}

	now := g.now().UTC()
	rec := models.Record{
		OwnerID:     state.Actor.ID,
		Kind:        kind,
		Name:        draft.Name,
		Category:    draft.Category,
		Stock:       models.ParseStock(draft.Stock),
		Price:       models.ParsePrice(draft.Price),
		Description: draft.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	id, err := g.store.Insert(ctx, rec)
	if err != nil {
		return "", err
	}
	return id, nil
}

// Update merges fields into an existing record and refreshes its
// last-update timestamp.
func (g *Gateway) Update(ctx context.Context, id string, fields models.Fields) error {
	state := g.session.Snapshot()
	if state.Actor == nil {
		return store.NewError(store.KindUnknown, fmt.Errorf("no authenticated actor"))
	}
	return g.store.Patch(ctx, id, fields, g.now().UTC())
}

// Delete removes a record. Whether deleting an absent record is an error
// is up to the store; no existence check happens here.
func (g *Gateway) Delete(ctx context.Context, id string) error {
	state := g.session.Snapshot()
	if state.Actor == nil {
		return store.NewError(store.KindUnknown, fmt.Errorf("no authenticated actor"))
	}
	return g.store.Remove(ctx, id)
}
