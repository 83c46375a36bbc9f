// README: Change notification hub. Delivers "something changed" signals, not
// state; subscribers re-fetch from the API after a wake-up.
package notify

import (
	"sync"

	"github.com/basgenix4u/fuw-campus-shuttle/internal/observability"
	"github.com/basgenix4u/fuw-campus-shuttle/internal/types"
)

// Event identifies a committed change. It intentionally carries no ride
// state: the store stays the single source of truth.
type Event struct {
	Table       string   `json:"table"`
	Kind        string   `json:"kind"`
	RideID      types.ID `json:"ride_id"`
	PassengerID types.ID `json:"passenger_id"`
}

// Filter scopes a subscription. Zero-value fields match everything.
type Filter struct {
	RideID      types.ID
	PassengerID types.ID
}

func (f Filter) matches(e Event) bool {
	if f.RideID != "" && f.RideID != e.RideID {
		return false
	}
	if f.PassengerID != "" && f.PassengerID != e.PassengerID {
		return false
	}
	return true
}

type subscriber struct {
	filter Filter
	ch     chan Event
}

// Hub fans committed-change events out to subscribers. Each subscriber gets a
// buffer of one event; publishing to a full buffer drops the event, which is
// safe because the queued event already forces the re-fetch that would pick
// up the later change.
type Hub struct {
	mu   sync.Mutex
	subs map[*subscriber]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[*subscriber]struct{})}
}

// Subscribe registers a filtered listener. The returned cancel func must be
// called to release the subscription; the channel is closed by cancel.
func (h *Hub) Subscribe(f Filter) (<-chan Event, func()) {
	sub := &subscriber{filter: f, ch: make(chan Event, 1)}
	h.mu.Lock()
	h.subs[sub] = struct{}{}
	h.mu.Unlock()
	observability.FeedSubscribers.Inc()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, sub)
			h.mu.Unlock()
			close(sub.ch)
			observability.FeedSubscribers.Dec()
		})
	}
	return sub.ch, cancel
}

// Publish delivers e to every matching subscriber, coalescing when a
// subscriber has not drained its previous event.
func (h *Hub) Publish(e Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subs {
		if !sub.filter.matches(e) {
			continue
		}
		select {
		case sub.ch <- e:
		default:
			observability.NotificationsDroppedTotal.Inc()
		}
	}
}

// RideChanged implements the ride controller's notifier for single-instance
// deployments with no broker between the controller and the hub.
func (h *Hub) RideChanged(rideID, passengerID types.ID, kind string) {
	h.Publish(Event{Table: "rides", Kind: kind, RideID: rideID, PassengerID: passengerID})
}
