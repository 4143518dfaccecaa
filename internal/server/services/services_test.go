package services

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/msavelyev/stocklive/internal/server/config"
	"github.com/msavelyev/stocklive/internal/server/migrations"
	"github.com/msavelyev/stocklive/internal/server/repositories/passwordresets"
	"github.com/msavelyev/stocklive/internal/server/repositories/records"
	"github.com/msavelyev/stocklive/internal/server/repositories/refreshtokens"
	"github.com/msavelyev/stocklive/internal/server/repositories/users"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:services_%s?mode=memory&cache=shared", t.Name())
	db, err := sql.Open("sqlite", dsn)
	require.NoError(t, err)
	// Shared-cache memory databases vanish when the last connection closes.
	db.SetMaxIdleConns(1)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, migrations.Up(context.Background(), db))
	return db
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.DatabaseDSN = ":memory:"
	return cfg
}

func newTestUsers(t *testing.T) (*Users, *sql.DB) {
	t.Helper()
	db := newTestDB(t)
	svc := NewUsers(db, users.NewSQLiteRepository(db), refreshtokens.NewSQLiteRepository(db), passwordresets.NewSQLiteRepository(db), testConfig())
	return svc, db
}

func newTestRecords(t *testing.T, n Notifier) (*Records, *sql.DB) {
	t.Helper()
	db := newTestDB(t)
	svc := NewRecords(db, records.NewSQLiteRepository(db), n)
	return svc, db
}

// countingNotifier records change notifications per owner.
type countingNotifier struct {
	changed []string
}

func (c *countingNotifier) RecordsChanged(ownerID string) {
	c.changed = append(c.changed, ownerID)
}
