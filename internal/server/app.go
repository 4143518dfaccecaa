// Package server wires the stocklive backend together: storage, services,
// the HTTP surface and graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "modernc.org/sqlite"

	"github.com/msavelyev/stocklive/internal/logging"
	"github.com/msavelyev/stocklive/internal/server/config"
	"github.com/msavelyev/stocklive/internal/server/httpapi"
	"github.com/msavelyev/stocklive/internal/server/migrations"
	"github.com/msavelyev/stocklive/internal/server/repositories/passwordresets"
	"github.com/msavelyev/stocklive/internal/server/repositories/records"
	"github.com/msavelyev/stocklive/internal/server/repositories/refreshtokens"
	"github.com/msavelyev/stocklive/internal/server/repositories/users"
	"github.com/msavelyev/stocklive/internal/server/services"
)

// App is the composed backend.
type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	server *httpapi.Server
}

// NewApp opens the database, migrates it and builds the service graph.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	logger := logging.NewJSON(os.Stdout)

	db, err := sql.Open("sqlite", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db open: %w", err)
	}
	if err := migrations.Up(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db migrate: %w", err)
	}

	us := services.NewUsers(db, users.NewSQLiteRepository(db), refreshtokens.NewSQLiteRepository(db), passwordresets.NewSQLiteRepository(db), cfg)
	rs := services.NewRecords(db, records.NewSQLiteRepository(db), nil)
	srv := httpapi.NewServer(cfg, logger, us, rs)

	return &App{config: cfg, logger: logger, db: db, server: srv}, nil
}

// Run serves until an interrupt or the HTTP server fails.
func (app *App) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer app.db.Close()

	app.initSignalHandler(cancel)

	app.logger.Info(ctx, "Starting app...")

	if err := app.server.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
	}

	app.logger.Info(ctx, "App stopped")
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}
