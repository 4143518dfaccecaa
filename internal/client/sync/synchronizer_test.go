package sync

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msavelyev/stocklive/internal/client/models"
	"github.com/msavelyev/stocklive/internal/client/session"
	"github.com/msavelyev/stocklive/internal/client/store"
	"github.com/msavelyev/stocklive/internal/logging"
)

type fakeSub struct {
	snaps    chan models.Snapshot
	cancels  chan struct{}
	canceled bool
}

func newFakeSub() *fakeSub {
	return &fakeSub{snaps: make(chan models.Snapshot, 4), cancels: make(chan struct{}, 1)}
}

func (f *fakeSub) Snapshots() <-chan models.Snapshot { return f.snaps }

func (f *fakeSub) Cancel() {
	if f.canceled {
		return
	}
	f.canceled = true
	close(f.snaps)
	f.cancels <- struct{}{}
}

// fakeStore hands out one prepared subscription per Subscribe call.
type fakeStore struct {
	subs   chan *fakeSub
	opened chan string
}

func newFakeStore() *fakeStore {
	return &fakeStore{subs: make(chan *fakeSub, 4), opened: make(chan string, 4)}
}

func (f *fakeStore) prepare() *fakeSub {
	sub := newFakeSub()
	f.subs <- sub
	return sub
}

func (f *fakeStore) Subscribe(ctx context.Context, ownerID string) (store.Subscription, error) {
	f.opened <- ownerID
	return <-f.subs, nil
}

func (f *fakeStore) Insert(ctx context.Context, rec models.Record) (string, error) {
	return "", nil
}

func (f *fakeStore) Patch(ctx context.Context, id string, fields models.Fields, updatedAt time.Time) error {
	return nil
}

func (f *fakeStore) Remove(ctx context.Context, id string) error { return nil }

type syncHarness struct {
	store  *fakeStore
	syn    *Synchronizer
	states chan session.State
}

func startSync(t *testing.T) *syncHarness {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	fs := newFakeStore()
	syn := NewSynchronizer(fs, logging.NewJSON(logWriter{t}))
	states := make(chan session.State, 4)
	go syn.Run(ctx, states)
	return &syncHarness{store: fs, syn: syn, states: states}
}

type logWriter struct{ t *testing.T }

func (w logWriter) Write(p []byte) (int, error) {
	w.t.Log(string(p))
	return len(p), nil
}

func (h *syncHarness) login(t *testing.T, ownerID string) *fakeSub {
	t.Helper()
	sub := h.store.prepare()
	h.states <- session.State{Actor: &models.Actor{ID: ownerID}}
	select {
	case opened := <-h.store.opened:
		require.Equal(t, ownerID, opened)
	case <-time.After(2 * time.Second):
		t.Fatal("subscription never opened")
	}
	return sub
}

func (h *syncHarness) waitView(t *testing.T, cond func(View) bool) View {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		v := h.syn.View()
		if cond(v) {
			return v
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("view never reached expected state")
	return View{}
}

func TestSnapshotReplacesView(t *testing.T) {
	h := startSync(t)
	sub := h.login(t, "u1")

	sub.snaps <- models.Snapshot{{ID: "a", CreatedAt: ts(1)}, {ID: "b", CreatedAt: ts(2)}}
	view := h.waitView(t, func(v View) bool { return len(v.Records) == 2 })
	assert.Equal(t, "b", view.Records[0].ID)

	// A record missing from the next snapshot is gone from the view, not
	// merged in.
	sub.snaps <- models.Snapshot{{ID: "b", CreatedAt: ts(2)}}
	view = h.waitView(t, func(v View) bool { return len(v.Records) == 1 })
	assert.Equal(t, "b", view.Records[0].ID)
}

func TestViewLoadingUntilFirstSnapshot(t *testing.T) {
	h := startSync(t)
	sub := h.login(t, "u1")

	view := h.waitView(t, func(v View) bool { return v.Loading })
	assert.Empty(t, view.Records)

	sub.snaps <- models.Snapshot{}
	view = h.waitView(t, func(v View) bool { return !v.Loading })
	assert.Empty(t, view.Records)
}

func TestLogoutClearsViewAndCancelsSubscription(t *testing.T) {
	h := startSync(t)
	sub := h.login(t, "u1")

	sub.snaps <- models.Snapshot{{ID: "a", CreatedAt: ts(1)}}
	h.waitView(t, func(v View) bool { return len(v.Records) == 1 })

	h.states <- session.State{}
	select {
	case <-sub.cancels:
	case <-time.After(2 * time.Second):
		t.Fatal("subscription never cancelled")
	}
	view := h.waitView(t, func(v View) bool { return len(v.Records) == 0 })
	assert.Empty(t, view.Categories)
}

func TestActorSwitchReplacesSubscription(t *testing.T) {
	h := startSync(t)
	first := h.login(t, "u1")
	first.snaps <- models.Snapshot{{ID: "mine", CreatedAt: ts(1)}}
	h.waitView(t, func(v View) bool { return len(v.Records) == 1 })

	second := h.login(t, "u2")
	select {
	case <-first.cancels:
	case <-time.After(2 * time.Second):
		t.Fatal("old subscription never cancelled")
	}

	second.snaps <- models.Snapshot{{ID: "theirs", CreatedAt: ts(2)}}
	view := h.waitView(t, func(v View) bool {
		return len(v.Records) == 1 && v.Records[0].ID == "theirs"
	})
	assert.Equal(t, "theirs", view.Records[0].ID)
}

func TestStaleSnapshotDiscardedAfterLogout(t *testing.T) {
	h := startSync(t)
	sub := h.login(t, "u1")
	sub.snaps <- models.Snapshot{{ID: "a", CreatedAt: ts(1)}}
	h.waitView(t, func(v View) bool { return len(v.Records) == 1 })

	// Logout races with an in-flight snapshot. Deliver it after teardown
	// and make sure it never resurrects the view.
	h.states <- session.State{}
	h.waitView(t, func(v View) bool { return len(v.Records) == 0 })

	h.syn.apply(0, models.Snapshot{{ID: "stale", CreatedAt: ts(9)}})

	time.Sleep(20 * time.Millisecond)
	assert.Empty(t, h.syn.View().Records)
}

func TestLoadingStateIgnored(t *testing.T) {
	h := startSync(t)

	h.states <- session.State{Loading: true}
	time.Sleep(20 * time.Millisecond)
	select {
	case owner := <-h.store.opened:
		t.Fatalf("unexpected subscription for %q", owner)
	default:
	}
}

func TestSameActorDoesNotResubscribe(t *testing.T) {
	h := startSync(t)
	sub := h.login(t, "u1")
	sub.snaps <- models.Snapshot{{ID: "a", CreatedAt: ts(1)}}
	h.waitView(t, func(v View) bool { return len(v.Records) == 1 })

	h.states <- session.State{Actor: &models.Actor{ID: "u1"}}
	time.Sleep(20 * time.Millisecond)
	select {
	case owner := <-h.store.opened:
		t.Fatalf("unexpected resubscribe for %q", owner)
	default:
	}
	assert.Len(t, h.syn.View().Records, 1)
}

func TestFreshLoginSameActorResubscribes(t *testing.T) {
	h := startSync(t)
	first := h.login(t, "u1")
	first.snaps <- models.Snapshot{{ID: "old", CreatedAt: ts(1)}}
	h.waitView(t, func(v View) bool { return len(v.Records) == 1 })

	// A logout followed by an immediate login as the same actor can reach a
	// lagging watcher as a single coalesced state with no absence in
	// between. The bumped sign-in epoch still forces a fresh subscription.
	second := h.store.prepare()
	h.states <- session.State{Actor: &models.Actor{ID: "u1"}, Epoch: 1}
	select {
	case <-first.cancels:
	case <-time.After(2 * time.Second):
		t.Fatal("old subscription never cancelled")
	}
	select {
	case opened := <-h.store.opened:
		require.Equal(t, "u1", opened)
	case <-time.After(2 * time.Second):
		t.Fatal("subscription never reopened")
	}

	second.snaps <- models.Snapshot{{ID: "fresh", CreatedAt: ts(2)}}
	view := h.waitView(t, func(v View) bool {
		return len(v.Records) == 1 && v.Records[0].ID == "fresh"
	})
	assert.Equal(t, "fresh", view.Records[0].ID)
}

func TestWaitSynced(t *testing.T) {
	h := startSync(t)
	sub := h.login(t, "u1")

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	require.Error(t, h.syn.WaitSynced(ctx), "must not report synced before the first snapshot")

	sub.snaps <- models.Snapshot{{ID: "a", CreatedAt: ts(1)}}
	ctx2, cancel2 := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel2()
	require.NoError(t, h.syn.WaitSynced(ctx2))
}
