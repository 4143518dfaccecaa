package sync

import (
	"context"
	"sync"

	"github.com/msavelyev/stocklive/internal/client/models"
	"github.com/msavelyev/stocklive/internal/client/session"
	"github.com/msavelyev/stocklive/internal/client/store"
	"github.com/msavelyev/stocklive/internal/logging"
)

// Synchronizer mirrors the current actor's remote records into a local
// view. It holds at most one live subscription: an actor transition closes
// the previous subscription before opening the next, and snapshots from a
// closed subscription are discarded by generation check rather than
// applied late.
type Synchronizer struct {
	store store.Store
	log   logging.Logger

	mu      sync.Mutex
	view    View
	owner   string
	epoch   uint64
	gen     uint64
	sub     store.Subscription
	synced  bool
	updates chan struct{}
}

// NewSynchronizer builds a synchronizer over the given store collaborator.
func NewSynchronizer(st store.Store, log logging.Logger) *Synchronizer {
	return &Synchronizer{
		store:   st,
		log:     log.With("module", "sync"),
		updates: make(chan struct{}, 1),
	}
}

// Run follows session state changes until ctx is done. Call it in its own
// goroutine with a channel from session.Store.Watch.
func (s *Synchronizer) Run(ctx context.Context, states <-chan session.State) {
	defer s.teardown()
	for {
		select {
		case <-ctx.Done():
			return
		case state, ok := <-states:
			if !ok {
				return
			}
			s.transition(ctx, state)
		}
	}
}

// transition reacts to one session state: open a subscription when an
// actor appears or changes, tear everything down when the actor is gone.
// The sign-in epoch is part of the identity of a subscription, so a fresh
// login as the same actor replaces the old subscription instead of
// silently reusing it.
func (s *Synchronizer) transition(ctx context.Context, state session.State) {
	if state.Loading {
		return
	}
	if state.Actor == nil {
		s.mu.Lock()
		hadOwner := s.owner != ""
		s.mu.Unlock()
		if hadOwner {
			s.teardown()
			s.log.Debug(ctx, "view cleared")
			s.signal()
		}
		return
	}

	ownerID := state.Actor.ID
	s.mu.Lock()
	same := s.owner == ownerID && s.epoch == state.Epoch
	s.mu.Unlock()
	if same {
		return
	}

	// Close the old subscription before opening the new one so that two
	// can never deliver concurrently.
	s.teardown()

	sub, err := s.store.Subscribe(ctx, ownerID)
	if err != nil {
		s.log.Error(ctx, "subscribe failed", "owner_id", ownerID, "err", err)
		return
	}

	s.mu.Lock()
	s.gen++
	gen := s.gen
	s.sub = sub
	s.owner = ownerID
	s.epoch = state.Epoch
	s.view = View{Loading: true}
	s.mu.Unlock()
	s.signal()

	s.log.Debug(ctx, "subscription opened", "owner_id", ownerID)
	go s.consume(gen, sub)
}

// consume applies snapshots in delivery order. The generation check drops
// anything arriving after the subscription was cancelled.
func (s *Synchronizer) consume(gen uint64, sub store.Subscription) {
	for snap := range sub.Snapshots() {
		s.apply(gen, snap)
	}
}

func (s *Synchronizer) apply(gen uint64, snap models.Snapshot) {
	view := Reduce(snap)

	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		return
	}
	// Records and categories swap together, derived from the same snapshot.
	s.view = view
	s.synced = true
	s.mu.Unlock()
	s.signal()
}

// teardown cancels the active subscription and clears the view.
func (s *Synchronizer) teardown() {
	s.mu.Lock()
	sub := s.sub
	s.gen++
	s.sub = nil
	s.owner = ""
	s.view = View{}
	s.synced = false
	s.mu.Unlock()

	if sub != nil {
		sub.Cancel()
	}
}

// View returns a copy of the current read model.
func (s *Synchronizer) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	view := View{
		Records:    append([]models.Record(nil), s.view.Records...),
		Categories: append([]string(nil), s.view.Categories...),
		Loading:    s.view.Loading,
	}
	return view
}

// Updates signals view changes, coalesced to at most one pending tick.
func (s *Synchronizer) Updates() <-chan struct{} {
	return s.updates
}

// WaitSynced blocks until the first snapshot of the current subscription
// has been applied.
func (s *Synchronizer) WaitSynced(ctx context.Context) error {
	for {
		s.mu.Lock()
		synced := s.synced
		s.mu.Unlock()
		if synced {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.updates:
		}
	}
}

func (s *Synchronizer) signal() {
	select {
	case s.updates <- struct{}{}:
	default:
	}
}
