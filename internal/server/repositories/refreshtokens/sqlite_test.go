package refreshtokens

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/msavelyev/stocklive/internal/common"
	"github.com/msavelyev/stocklive/internal/server/migrations"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	dsn := fmt.Sprintf("file:tokens_%s?mode=memory&cache=shared", t.Name())
	db, err := sql.Open("sqlite", dsn)
	require.NoError(t, err)
	db.SetMaxIdleConns(1)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, migrations.Up(context.Background(), db))
	return NewSQLiteRepository(db)
}

func TestCreateAndGet(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	expires := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Create(ctx, &Token{ID: "t1", UserID: "u1", ExpiresAt: expires}))

	got, err := repo.Get(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.UserID)
	assert.True(t, got.ExpiresAt.Equal(expires))
}

func TestGetMissingToken(t *testing.T) {
	repo := newTestRepo(t)
	_, err := repo.Get(context.Background(), "ghost")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestDeleteToken(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &Token{ID: "t1", UserID: "u1", ExpiresAt: time.Now().Add(time.Hour)}))
	require.NoError(t, repo.Delete(ctx, "t1"))

	_, err := repo.Get(ctx, "t1")
	assert.ErrorIs(t, err, common.ErrNotFound)

	// Deleting an absent token is not an error.
	assert.NoError(t, repo.Delete(ctx, "t1"))
}

func TestDeleteByUser(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &Token{ID: "t1", UserID: "u1", ExpiresAt: time.Now().Add(time.Hour)}))
	require.NoError(t, repo.Create(ctx, &Token{ID: "t2", UserID: "u1", ExpiresAt: time.Now().Add(time.Hour)}))
	require.NoError(t, repo.Create(ctx, &Token{ID: "t3", UserID: "u2", ExpiresAt: time.Now().Add(time.Hour)}))

	require.NoError(t, repo.DeleteByUser(ctx, "u1"))

	_, err := repo.Get(ctx, "t1")
	assert.ErrorIs(t, err, common.ErrNotFound)
	_, err = repo.Get(ctx, "t2")
	assert.ErrorIs(t, err, common.ErrNotFound)

	kept, err := repo.Get(ctx, "t3")
	require.NoError(t, err)
	assert.Equal(t, "u2", kept.UserID)
}
