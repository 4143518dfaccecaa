package httpapi

import (
	"context"
	"sync"

	"github.com/msavelyev/stocklive/internal/logging"
)

// Hub fans record-change notifications out to the watch sockets of one
// owner. A subscriber holds a one-slot dirty signal: consecutive changes
// coalesce, so a slow socket always catches up to the latest state with a
// single fresh snapshot instead of replaying every intermediate one.
type Hub struct {
	log logging.Logger

	mu   sync.Mutex
	subs map[string]map[*HubSubscriber]struct{}
}

// HubSubscriber is one watch socket's registration.
type HubSubscriber struct {
	ownerID string
	dirty   chan struct{}
}

// Dirty signals that the owner's records changed since the last snapshot
// the subscriber sent.
func (s *HubSubscriber) Dirty() <-chan struct{} {
	return s.dirty
}

// NewHub builds an empty hub.
func NewHub(log logging.Logger) *Hub {
	return &Hub{
		log:  log.With("module", "watch_hub"),
		subs: make(map[string]map[*HubSubscriber]struct{}),
	}
}

// Subscribe registers a watcher for ownerID.
func (h *Hub) Subscribe(ownerID string) *HubSubscriber {
	sub := &HubSubscriber{ownerID: ownerID, dirty: make(chan struct{}, 1)}

	h.mu.Lock()
	set, ok := h.subs[ownerID]
	if !ok {
		set = make(map[*HubSubscriber]struct{})
		h.subs[ownerID] = set
	}
	set[sub] = struct{}{}
	h.mu.Unlock()
	return sub
}

// Unsubscribe removes a watcher. Safe to call more than once.
func (h *Hub) Unsubscribe(sub *HubSubscriber) {
	h.mu.Lock()
	if set, ok := h.subs[sub.ownerID]; ok {
		delete(set, sub)
		if len(set) == 0 {
			delete(h.subs, sub.ownerID)
		}
	}
	h.mu.Unlock()
}

// RecordsChanged implements services.Notifier.
func (h *Hub) RecordsChanged(ownerID string) {
	h.mu.Lock()
	set := h.subs[ownerID]
	subs := make([]*HubSubscriber, 0, len(set))
	for sub := range set {
		subs = append(subs, sub)
	}
	h.mu.Unlock()

	for _, sub := range subs {
		select {
		case sub.dirty <- struct{}{}:
		default:
			// Already dirty; the pending signal covers this change too.
		}
	}

	if len(subs) > 0 {
		h.log.Debug(context.Background(), "change fanned out",
			"owner_id", ownerID, "watchers", len(subs))
	}
}
