package passwordresets

import (
	"context"
	"fmt"

	"github.com/msavelyev/stocklive/internal/dbx"
)

// SQLiteRepository implements Repository over a DBTX.
type SQLiteRepository struct {
	db dbx.DBTX
}

// NewSQLiteRepository binds a repository to the given handle.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Create(ctx context.Context, req *Request) error {
	query := `INSERT INTO password_resets (id, user_id, requested_at) VALUES (?, ?, ?)`
	if _, err := r.db.ExecContext(ctx, query, req.ID, req.UserID, req.RequestedAt); err != nil {
		return fmt.Errorf("failed to insert reset request: %w", err)
	}
	return nil
}
