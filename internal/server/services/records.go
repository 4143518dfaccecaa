package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/msavelyev/stocklive/internal/api"
	"github.com/msavelyev/stocklive/internal/dbx"
	"github.com/msavelyev/stocklive/internal/server/repositories/records"
)

// Notifier is told after every committed mutation so live watchers can be
// pushed a fresh snapshot. The watch hub implements it.
type Notifier interface {
	RecordsChanged(ownerID string)
}

type noopNotifier struct{}

func (noopNotifier) RecordsChanged(string) {}

// Records implements record mutations and queries, scoped by owner.
type Records struct {
	db       *sql.DB
	repo     records.Repository
	notifier Notifier
	now      func() time.Time
}

// NewRecords builds the records service. notifier may be nil.
func NewRecords(db *sql.DB, repo records.Repository, notifier Notifier) *Records {
	if notifier == nil {
		notifier = noopNotifier{}
	}
	return &Records{db: db, repo: repo, notifier: notifier, now: time.Now}
}

// SetNotifier replaces the notifier. Used during wiring, before traffic.
func (s *Records) SetNotifier(n Notifier) {
	s.notifier = n
}

// Insert stores a new record for ownerID and returns the assigned id. The
// owner always comes from the caller's verified identity, never from the
// payload. Zero timestamps default to now.
func (s *Records) Insert(ctx context.Context, ownerID string, wire api.Record) (string, error) {
	now := s.now().UTC()
	createdAt := wire.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}
	updatedAt := wire.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = now
	}

	kind := wire.Kind
	if kind == "" {
		kind = api.KindProduct
	}

	rec := &records.Record{
		ID:          uuid.NewString(),
		OwnerID:     ownerID,
		Kind:        kind,
		Name:        wire.Name,
		Category:    wire.Category,
		Stock:       clampInt(wire.Stock),
		Price:       clampFloat(wire.Price),
		Description: wire.Description,
		CreatedAt:   createdAt,
		UpdatedAt:   updatedAt,
	}
	if err := s.repo.Insert(ctx, rec); err != nil {
		return "", err
	}

	s.notifier.RecordsChanged(ownerID)
	return rec.ID, nil
}

// Patch merges non-nil fields into the record. Read and write happen in
// one transaction so concurrent patches never interleave half-applied.
func (s *Records) Patch(ctx context.Context, ownerID, id string, patch api.RecordPatch) error {
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := records.NewSQLiteRepository(tx)
		rec, err := repo.GetByID(ctx, ownerID, id)
		if err != nil {
			return err
		}
		applyPatch(rec, patch, s.now().UTC())
		return repo.Update(ctx, rec)
	})
	if err != nil {
		return err
	}

	s.notifier.RecordsChanged(ownerID)
	return nil
}

// Delete removes the record.
func (s *Records) Delete(ctx context.Context, ownerID, id string) error {
	if err := s.repo.Delete(ctx, ownerID, id); err != nil {
		return err
	}
	s.notifier.RecordsChanged(ownerID)
	return nil
}

// List returns the owner's full record set as wire records.
func (s *Records) List(ctx context.Context, ownerID string) ([]api.Record, error) {
	rows, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("listing records: %w", err)
	}

	out := make([]api.Record, 0, len(rows))
	for _, rec := range rows {
		out = append(out, api.Record{
			ID:          rec.ID,
			OwnerID:     rec.OwnerID,
			Kind:        rec.Kind,
			Name:        rec.Name,
			Category:    rec.Category,
			Stock:       rec.Stock,
			Price:       rec.Price,
			Description: rec.Description,
			CreatedAt:   rec.CreatedAt,
			UpdatedAt:   rec.UpdatedAt,
		})
	}
	return out, nil
}

func applyPatch(rec *records.Record, patch api.RecordPatch, now time.Time) {
	if patch.Kind != nil {
		rec.Kind = *patch.Kind
	}
	if patch.Name != nil {
		rec.Name = *patch.Name
	}
	if patch.Category != nil {
		rec.Category = *patch.Category
	}
	if patch.Stock != nil {
		rec.Stock = clampInt(*patch.Stock)
	}
	if patch.Price != nil {
		rec.Price = clampFloat(*patch.Price)
	}
	if patch.Description != nil {
		rec.Description = *patch.Description
	}
	if patch.UpdatedAt != nil && !patch.UpdatedAt.IsZero() {
		rec.UpdatedAt = patch.UpdatedAt.UTC()
	} else {
		rec.UpdatedAt = now
	}
}

func clampInt(n int) int {
	if n < 0 {
		return 0
	}
	return n
}

func clampFloat(f float64) float64 {
	if f < 0 {
		return 0
	}
	return f
}
