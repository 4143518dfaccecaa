// Package session owns the client's authentication state machine. A single
// long-lived subscription to the identity collaborator's change stream is
// the only path that mutates session state; the command methods (SignUp,
// LogIn, LogOut, ResetPassword) merely trigger collaborator-side changes
// that the subscription then observes. A command can therefore fail without
// session state ever having moved, and the collaborator can complete before
// the local call returns.
package session

import (
	"context"
	"errors"
	"sync"

	"github.com/msavelyev/stocklive/internal/client/identity"
	"github.com/msavelyev/stocklive/internal/client/models"
	"github.com/msavelyev/stocklive/internal/logging"
)

// State is the session read model. Loading is true only until the first
// change notification arrives, covering resolution of persisted
// credentials at startup; protected views must not render while it is set.
//
// Epoch increments on every transition into the authenticated state, so a
// logout immediately followed by a login as the same actor is still
// distinguishable downstream even when a lagging watcher never saw the
// intermediate absence.
type State struct {
	Actor   *models.Actor
	Loading bool
	Epoch   uint64
}

// Authenticated reports whether an actor is present.
func (s State) Authenticated() bool { return s.Actor != nil }

// Store is the session store. Construct with NewStore, start Run in its
// own goroutine, then use the command methods and read model.
type Store struct {
	provider identity.Provider
	log      logging.Logger

	mu       sync.Mutex
	state    State
	watchers []chan State
	ready    chan struct{}
}

// NewStore builds a session store around the given identity collaborator.
func NewStore(provider identity.Provider, log logging.Logger) *Store {
	return &Store{
		provider: provider,
		log:      log.With("module", "session"),
		state:    State{Loading: true},
		ready:    make(chan struct{}),
	}
}

// Run consumes the collaborator's change stream until ctx is done or the
// stream closes. It is the single authoritative transition path.
func (s *Store) Run(ctx context.Context) {
	changes := s.provider.SessionChanges()
	for {
		select {
		case <-ctx.Done():
			return
		case change, ok := <-changes:
			if !ok {
				return
			}
			s.apply(ctx, change)
		}
	}
}

func (s *Store) apply(ctx context.Context, change identity.Change) {
	s.mu.Lock()
	first := s.state.Loading
	epoch := s.state.Epoch
	if change.Actor != nil && s.state.Actor == nil {
		epoch++
	}
	s.state = State{Actor: change.Actor, Loading: false, Epoch: epoch}
	state := s.state
	watchers := append([]chan State(nil), s.watchers...)
	s.mu.Unlock()

	if first {
		close(s.ready)
	}
	if change.Actor != nil {
		s.log.Debug(ctx, "session authenticated", "actor_id", change.Actor.ID)
	} else {
		s.log.Debug(ctx, "session unauthenticated")
	}

	for _, w := range watchers {
		notifyLatest(w, state)
	}
}

// notifyLatest delivers state on w, replacing a pending value when the
// consumer lags. Watchers only ever care about the newest state.
func notifyLatest(w chan State, state State) {
	select {
	case w <- state:
	default:
		select {
		case <-w:
		default:
		}
		select {
		case w <- state:
		default:
		}
	}
}

// Snapshot returns the current session state.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Watch registers a new state watcher. Every applied change is delivered;
// a slow watcher sees only the latest state, never a stale one.
func (s *Store) Watch() <-chan State {
	w := make(chan State, 1)
	s.mu.Lock()
	s.watchers = append(s.watchers, w)
	state, loading := s.state, s.state.Loading
	s.mu.Unlock()

	// A watcher attached after the first change still needs a starting point.
	if !loading {
		notifyLatest(w, state)
	}
	return w
}

// WaitReady blocks until the first change notification has been applied,
// i.e. until Loading turns false.
func (s *Store) WaitReady(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-s.ready:
		return nil
	}
}

// SignUp creates an account with an optional display name. The session
// transition to authenticated happens asynchronously via the change
// stream, not here.
func (s *Store) SignUp(ctx context.Context, email, password, displayName string) error {
	_, err := s.provider.CreateAccount(ctx, email, password, displayName)
	return err
}

// LogIn selects the persistence mode, then verifies credentials. The mode
// must be committed before the exchange because it governs how the
// resulting session survives a restart; a selector failure aborts the
// attempt instead of silently falling back.
func (s *Store) LogIn(ctx context.Context, email, password string, rememberMe bool) error {
	mode := identity.ModeEphemeral
	if rememberMe {
		mode = identity.ModeDurable
	}
	if err := s.provider.SetPersistenceMode(ctx, mode); err != nil {
		var ie *identity.Error
		if errors.As(err, &ie) {
			return err
		}
		return identity.NewError(identity.KindUnknown, err)
	}
	if _, err := s.provider.VerifyCredentials(ctx, email, password); err != nil {
		return err
	}
	return nil
}

// LogOut requests collaborator sign-out. Calling it while already
// unauthenticated is a no-op from the caller's perspective.
func (s *Store) LogOut(ctx context.Context) error {
	return s.provider.SignOut(ctx)
}

// ResetPassword asks the collaborator to send a reset message. Callers
// must guard against an empty email before invoking.
func (s *Store) ResetPassword(ctx context.Context, email string) error {
	return s.provider.SendReset(ctx, email)
}

// UpdateDisplayName updates the current actor's profile name.
func (s *Store) UpdateDisplayName(ctx context.Context, name string) error {
	return s.provider.UpdateDisplayName(ctx, name)
}
