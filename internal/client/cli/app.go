// Package cli implements the stocklive command tree. Every command wires
// the same client stack: identity client, session store, synchronizer and
// mutation gateway, all injected explicitly.
package cli

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/msavelyev/stocklive/internal/client/config"
	"github.com/msavelyev/stocklive/internal/client/gateway"
	"github.com/msavelyev/stocklive/internal/client/identity"
	"github.com/msavelyev/stocklive/internal/client/session"
	"github.com/msavelyev/stocklive/internal/client/store"
	syncpkg "github.com/msavelyev/stocklive/internal/client/sync"
	"github.com/msavelyev/stocklive/internal/logging"
)

// App is the wired client stack behind every command.
type App struct {
	cfg      *config.Config
	log      logging.Logger
	db       *sql.DB
	identity *identity.Client
	session  *session.Store
	sync     *syncpkg.Synchronizer
	gateway  *gateway.Gateway
	guard    *session.Guard
}

// commandRoutes classifies the command tree for the session guard: public
// commands only make sense signed out, private ones only signed in.
// Commands absent from the table (whoami, logout) run either way.
var commandRoutes = map[string]session.RouteClass{
	"register": session.RoutePublic,
	"login":    session.RoutePublic,
	"reset":    session.RoutePublic,

	"add":        session.RoutePrivate,
	"update":     session.RoutePrivate,
	"rm":         session.RoutePrivate,
	"list":       session.RoutePrivate,
	"stats":      session.RoutePrivate,
	"categories": session.RoutePrivate,
	"watch":      session.RoutePrivate,
	"rename":     session.RoutePrivate,
}

// newApp builds the stack, starts the session state machine and resolves
// any persisted credentials. The returned App is ready once newApp
// returns: the session's loading phase is over.
func newApp(ctx context.Context, cfg *config.Config) (*App, error) {
	log := logging.NewJSON(os.Stderr)

	if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}
	db, err := sql.Open("sqlite", filepath.Join(cfg.DataDir, "client.db"))
	if err != nil {
		return nil, fmt.Errorf("opening local db: %w", err)
	}

	idClient := identity.NewClient(cfg.ServerURL, identity.NewCache(db), log)
	sess := session.NewStore(idClient, log)
	stClient := store.NewClient(cfg.ServerURL, idClient, log)
	syn := syncpkg.NewSynchronizer(stClient, log)

	app := &App{
		cfg:      cfg,
		log:      log,
		db:       db,
		identity: idClient,
		session:  sess,
		sync:     syn,
		gateway:  gateway.New(stClient, sess),
		guard:    session.NewGuard(commandRoutes, "login", "list"),
	}

	go sess.Run(ctx)
	go syn.Run(ctx, sess.Watch())

	if err := idClient.Start(ctx); err != nil {
		app.Close()
		return nil, fmt.Errorf("starting identity client: %w", err)
	}
	if err := sess.WaitReady(ctx); err != nil {
		app.Close()
		return nil, err
	}
	return app, nil
}

// Close releases the stack's resources.
func (a *App) Close() {
	_ = a.identity.Close()
	_ = a.db.Close()
}

// gate checks the session guard's verdict for one command.
func (a *App) gate(command string) error {
	return gateCommand(a.guard, a.session.Snapshot(), command)
}

// gateCommand translates a guard decision into a friendly error. The
// guard thinks in redirects; on a CLI the redirect target becomes the
// command to suggest instead.
func gateCommand(g *session.Guard, state session.State, command string) error {
	d := g.Decide(state, command)
	switch {
	case d.Allow:
		return nil
	case d.Pending:
		return fmt.Errorf("session is still resolving, try again")
	case state.Authenticated():
		return fmt.Errorf("already logged in; run 'stocklive logout' before '%s'", command)
	default:
		return fmt.Errorf("not logged in; run 'stocklive %s' first", d.RedirectTo)
	}
}

// waitView gates the command and blocks until the synchronizer has
// applied the first snapshot.
func (a *App) waitView(ctx context.Context, command string) error {
	if err := a.gate(command); err != nil {
		return err
	}
	if err := a.sync.WaitSynced(ctx); err != nil {
		return fmt.Errorf("waiting for record sync: %w", err)
	}
	return nil
}
