// Package passwordresets records password reset requests. Rows are an
// audit trail for the delivery pipeline; the API never reads them back.
package passwordresets

import (
	"context"
	"time"
)

// Request is one recorded reset request.
type Request struct {
	ID          string
	UserID      string
	RequestedAt time.Time
}

// Repository describes persistence operations for reset requests.
type Repository interface {
	// Create inserts a new reset request.
	Create(ctx context.Context, r *Request) error
}
