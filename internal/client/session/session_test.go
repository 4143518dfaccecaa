package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msavelyev/stocklive/internal/client/identity"
	"github.com/msavelyev/stocklive/internal/client/models"
	"github.com/msavelyev/stocklive/internal/logging"
)

// fakeProvider records calls and lets tests drive the change stream by
// hand.
type fakeProvider struct {
	changes chan identity.Change
	calls   []string

	createErr error
	verifyErr error
	modeErr   error
	resetErr  error
	nameErr   error
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{changes: make(chan identity.Change, 4)}
}

func (f *fakeProvider) Start(ctx context.Context) error { return nil }

func (f *fakeProvider) SessionChanges() <-chan identity.Change { return f.changes }

func (f *fakeProvider) CreateAccount(ctx context.Context, email, password, displayName string) (*models.Actor, error) {
	f.calls = append(f.calls, "create:"+displayName)
	if f.createErr != nil {
		return nil, f.createErr
	}
	actor := &models.Actor{ID: "u1", Email: email, DisplayName: displayName}
	f.changes <- identity.Change{Actor: actor}
	return actor, nil
}

func (f *fakeProvider) VerifyCredentials(ctx context.Context, email, password string) (*models.Actor, error) {
	f.calls = append(f.calls, "verify")
	if f.verifyErr != nil {
		return nil, f.verifyErr
	}
	actor := &models.Actor{ID: "u1", Email: email}
	f.changes <- identity.Change{Actor: actor}
	return actor, nil
}

func (f *fakeProvider) SignOut(ctx context.Context) error {
	f.calls = append(f.calls, "signout")
	f.changes <- identity.Change{}
	return nil
}

func (f *fakeProvider) SendReset(ctx context.Context, email string) error {
	f.calls = append(f.calls, "reset")
	return f.resetErr
}

func (f *fakeProvider) UpdateDisplayName(ctx context.Context, name string) error {
	f.calls = append(f.calls, "name:"+name)
	return f.nameErr
}

func (f *fakeProvider) SetPersistenceMode(ctx context.Context, mode identity.PersistenceMode) error {
	f.calls = append(f.calls, "mode:"+mode.String())
	return f.modeErr
}

func (f *fakeProvider) Close() error {
	close(f.changes)
	return nil
}

func startStore(t *testing.T, p identity.Provider) (*Store, context.Context) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	s := NewStore(p, logging.NewJSON(testWriter{t}))
	go s.Run(ctx)
	return s, ctx
}

type testWriter struct{ t *testing.T }

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Log(string(p))
	return len(p), nil
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}

func TestStoreStartsLoading(t *testing.T) {
	p := newFakeProvider()
	s, _ := startStore(t, p)

	state := s.Snapshot()
	assert.True(t, state.Loading)
	assert.False(t, state.Authenticated())
}

func TestFirstChangeClearsLoading(t *testing.T) {
	p := newFakeProvider()
	s, ctx := startStore(t, p)

	p.changes <- identity.Change{}

	waitCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	require.NoError(t, s.WaitReady(waitCtx))

	state := s.Snapshot()
	assert.False(t, state.Loading)
	assert.False(t, state.Authenticated())
}

func TestLogInSelectsModeBeforeVerify(t *testing.T) {
	p := newFakeProvider()
	s, ctx := startStore(t, p)

	require.NoError(t, s.LogIn(ctx, "a@b.c", "secret", true))
	require.Equal(t, []string{"mode:durable", "verify"}, p.calls)

	waitFor(t, func() bool { return s.Snapshot().Authenticated() })
	assert.Equal(t, "a@b.c", s.Snapshot().Actor.Email)
}

func TestLogInEphemeralByDefault(t *testing.T) {
	p := newFakeProvider()
	s, ctx := startStore(t, p)

	require.NoError(t, s.LogIn(ctx, "a@b.c", "secret", false))
	require.Equal(t, []string{"mode:ephemeral", "verify"}, p.calls)
}

func TestLogInModeFailureAbortsAttempt(t *testing.T) {
	p := newFakeProvider()
	p.modeErr = errors.New("disk gone")
	s, ctx := startStore(t, p)

	err := s.LogIn(ctx, "a@b.c", "secret", true)
	require.Error(t, err)
	assert.Equal(t, identity.KindUnknown, identity.KindOf(err))
	assert.Equal(t, []string{"mode:durable"}, p.calls, "credentials must not be sent after a selector failure")
}

func TestLogInWrongPasswordLeavesStateUntouched(t *testing.T) {
	p := newFakeProvider()
	s, ctx := startStore(t, p)

	p.changes <- identity.Change{}
	require.NoError(t, s.WaitReady(ctx))

	p.verifyErr = identity.NewError(identity.KindWrongPassword, errors.New("wrong password"))
	err := s.LogIn(ctx, "a@b.c", "nope", false)
	require.Error(t, err)
	assert.Equal(t, identity.KindWrongPassword, identity.KindOf(err))

	state := s.Snapshot()
	assert.False(t, state.Authenticated())
	assert.False(t, state.Loading)
}

func TestSignUpSendsDisplayNameWithRegistration(t *testing.T) {
	p := newFakeProvider()
	s, ctx := startStore(t, p)

	require.NoError(t, s.SignUp(ctx, "a@b.c", "secret", "Ann"))
	assert.Equal(t, []string{"create:Ann"}, p.calls, "the name travels with the registration, not as a follow-up")
}

func TestSignUpWithoutDisplayName(t *testing.T) {
	p := newFakeProvider()
	s, ctx := startStore(t, p)

	require.NoError(t, s.SignUp(ctx, "a@b.c", "secret", ""))
	assert.Equal(t, []string{"create:"}, p.calls)
}

func TestLogOutTransitionsViaChangeStream(t *testing.T) {
	p := newFakeProvider()
	s, ctx := startStore(t, p)

	require.NoError(t, s.LogIn(ctx, "a@b.c", "secret", false))
	waitFor(t, func() bool { return s.Snapshot().Authenticated() })

	require.NoError(t, s.LogOut(ctx))
	waitFor(t, func() bool { return !s.Snapshot().Authenticated() })
}

func TestEpochBumpsOnEachSignIn(t *testing.T) {
	p := newFakeProvider()
	s, _ := startStore(t, p)

	p.changes <- identity.Change{Actor: &models.Actor{ID: "u1"}}
	waitFor(t, func() bool { return s.Snapshot().Epoch == 1 })

	// Changes within the same authenticated session keep the epoch.
	p.changes <- identity.Change{Actor: &models.Actor{ID: "u1", DisplayName: "Ann"}}
	waitFor(t, func() bool {
		a := s.Snapshot().Actor
		return a != nil && a.DisplayName == "Ann"
	})
	assert.Equal(t, uint64(1), s.Snapshot().Epoch)

	// Signing out and back in as the same actor starts a new epoch, even
	// if a lagging watcher coalesces away the absence in between.
	p.changes <- identity.Change{}
	p.changes <- identity.Change{Actor: &models.Actor{ID: "u1"}}
	waitFor(t, func() bool { return s.Snapshot().Epoch == 2 })
	assert.True(t, s.Snapshot().Authenticated())
}

func TestWatchDeliversCurrentThenUpdates(t *testing.T) {
	p := newFakeProvider()
	s, ctx := startStore(t, p)

	p.changes <- identity.Change{}
	require.NoError(t, s.WaitReady(ctx))

	w := s.Watch()
	select {
	case state := <-w:
		assert.False(t, state.Authenticated())
	case <-time.After(2 * time.Second):
		t.Fatal("no initial state delivered")
	}

	p.changes <- identity.Change{Actor: &models.Actor{ID: "u1"}}
	select {
	case state := <-w:
		assert.True(t, state.Authenticated())
	case <-time.After(2 * time.Second):
		t.Fatal("no update delivered")
	}
}

func TestWatchLaggingConsumerSeesLatestOnly(t *testing.T) {
	p := newFakeProvider()
	s, _ := startStore(t, p)

	w := s.Watch()

	p.changes <- identity.Change{Actor: &models.Actor{ID: "old"}}
	p.changes <- identity.Change{Actor: &models.Actor{ID: "new"}}
	waitFor(t, func() bool {
		a := s.Snapshot().Actor
		return a != nil && a.ID == "new"
	})

	// The buffered slot is replaced, so the consumer converges on the
	// newest state without working through a backlog.
	deadline := time.After(2 * time.Second)
	for {
		select {
		case state := <-w:
			if state.Actor != nil && state.Actor.ID == "new" {
				return
			}
		case <-deadline:
			t.Fatal("latest state never delivered")
		}
	}
}
