package passwordresets

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/msavelyev/stocklive/internal/server/migrations"
)

func newTestRepo(t *testing.T) (*SQLiteRepository, *sql.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:resets_%s?mode=memory&cache=shared", t.Name())
	db, err := sql.Open("sqlite", dsn)
	require.NoError(t, err)
	db.SetMaxIdleConns(1)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, migrations.Up(context.Background(), db))
	return NewSQLiteRepository(db), db
}

func TestCreateRequest(t *testing.T) {
	repo, db := newTestRepo(t)
	ctx := context.Background()

	at := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Create(ctx, &Request{ID: "r1", UserID: "u1", RequestedAt: at}))

	var userID string
	var requestedAt time.Time
	err := db.QueryRowContext(ctx,
		`SELECT user_id, requested_at FROM password_resets WHERE id = ?`, "r1").
		Scan(&userID, &requestedAt)
	require.NoError(t, err)
	assert.Equal(t, "u1", userID)
	assert.True(t, requestedAt.Equal(at))
}

func TestCreateDuplicateID(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &Request{ID: "r1", UserID: "u1", RequestedAt: time.Now()}))
	assert.Error(t, repo.Create(ctx, &Request{ID: "r1", UserID: "u1", RequestedAt: time.Now()}))
}
