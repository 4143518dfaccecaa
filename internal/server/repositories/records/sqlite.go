package records

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/msavelyev/stocklive/internal/common"
	"github.com/msavelyev/stocklive/internal/dbx"
)

// SQLiteRepository implements Repository over a DBTX (either *sql.DB or
// *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

// NewSQLiteRepository binds a repository to the given handle.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Insert(ctx context.Context, rec *Record) error {
	query := `INSERT INTO records
		(id, owner_id, kind, name, category, stock, price, description, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		rec.ID, rec.OwnerID, rec.Kind, rec.Name, rec.Category,
		rec.Stock, rec.Price, rec.Description, rec.CreatedAt, rec.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert record: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, ownerID, id string) (*Record, error) {
	query := `SELECT id, owner_id, kind, name, category, stock, price, description, created_at, updated_at
		FROM records WHERE owner_id = ? AND id = ?`
	row := r.db.QueryRowContext(ctx, query, ownerID, id)

	rec := &Record{}
	err := row.Scan(&rec.ID, &rec.OwnerID, &rec.Kind, &rec.Name, &rec.Category,
		&rec.Stock, &rec.Price, &rec.Description, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan record: %w", err)
	}
	return rec, nil
}

func (r *SQLiteRepository) Update(ctx context.Context, rec *Record) error {
	query := `UPDATE records SET kind = ?, name = ?, category = ?, stock = ?,
		price = ?, description = ?, updated_at = ?
		WHERE owner_id = ? AND id = ?`
	res, err := r.db.ExecContext(ctx, query,
		rec.Kind, rec.Name, rec.Category, rec.Stock, rec.Price,
		rec.Description, rec.UpdatedAt, rec.OwnerID, rec.ID)
	if err != nil {
		return fmt.Errorf("failed to update record: %w", err)
	}
	ra, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if ra == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, ownerID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM records WHERE owner_id = ? AND id = ?`, ownerID, id)
	if err != nil {
		return fmt.Errorf("failed to delete record: %w", err)
	}
	ra, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if ra == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) ListByOwner(ctx context.Context, ownerID string) ([]Record, error) {
	query := `SELECT id, owner_id, kind, name, category, stock, price, description, created_at, updated_at
		FROM records WHERE owner_id = ?`
	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to select records: %w", err)
	}
	defer rows.Close()

	var result []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.OwnerID, &rec.Kind, &rec.Name, &rec.Category,
			&rec.Stock, &rec.Price, &rec.Description, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
