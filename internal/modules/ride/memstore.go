// README: In-memory ride store with the same conditional-write semantics as
// the Postgres store; used by tests and local development.
package ride

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/basgenix4u/fuw-campus-shuttle/internal/types"
)

type MemStore struct {
	mu     sync.RWMutex
	rides  map[types.ID]*Ride
	events []Event
	nextID int64
}

func NewMemStore() *MemStore {
	return &MemStore{rides: make(map[types.ID]*Ride)}
}

func (m *MemStore) Create(_ context.Context, r *Ride) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *r
	m.rides[r.ID] = &cp
	return nil
}

func (m *MemStore) Get(_ context.Context, id types.ID) (*Ride, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.rides[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *MemStore) UpdateStatus(_ context.Context, id types.ID, from, to Status, upd StatusUpdate) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rides[id]
	if !ok {
		return false, ErrNotFound
	}
	if r.Status != from {
		return false, nil
	}
	// Same constraint as the partial unique index on active rides: a driver
	// holds at most one active assignment.
	if a := upd.Assign; a != nil && to.Active() {
		for _, other := range m.rides {
			if other.ID != id && other.DriverID != nil && *other.DriverID == a.DriverID && other.Status.Active() {
				return false, ErrActiveRide
			}
		}
	}
	r.Status = to
	at := upd.At
	switch to {
	case StatusAccepted:
		r.AcceptedAt = &at
	case StatusInProgress:
		r.StartedAt = &at
	case StatusCompleted:
		r.CompletedAt = &at
	case StatusCancelled:
		r.CancelledAt = &at
	}
	if a := upd.Assign; a != nil {
		d, v := a.DriverID, a.VehicleID
		r.DriverID, r.VehicleID = &d, &v
		dist, score := a.DistanceKm, a.Score
		r.DistanceKm = &dist
		est := a.EstimatedMinutes
		r.EstimatedMinutes = &est
		method := a.Method
		r.AllocationMethod = &method
		r.MatchScore = &score
	}
	if upd.ActualMinutes != nil {
		n := *upd.ActualMinutes
		r.ActualMinutes = &n
	}
	return true, nil
}

func (m *MemStore) ActiveByDriver(_ context.Context, driverID types.ID) (*Ride, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, r := range m.rides {
		if r.DriverID != nil && *r.DriverID == driverID && r.Status.Active() {
			cp := *r
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *MemStore) ActiveByPassenger(_ context.Context, passengerID types.ID) (*Ride, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var latest *Ride
	for _, r := range m.rides {
		if r.PassengerID != passengerID || r.Status.Terminal() {
			continue
		}
		if latest == nil || r.CreatedAt.After(latest.CreatedAt) {
			latest = r
		}
	}
	if latest == nil {
		return nil, nil
	}
	cp := *latest
	return &cp, nil
}

func (m *MemStore) ActiveAssignments(_ context.Context) ([]Occupied, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Occupied
	for _, r := range m.rides {
		if r.Status.Active() && r.DriverID != nil && r.VehicleID != nil {
			out = append(out, Occupied{DriverID: *r.DriverID, VehicleID: *r.VehicleID})
		}
	}
	return out, nil
}

func (m *MemStore) PendingUnassigned(_ context.Context, limit int) ([]*Ride, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*Ride
	for _, r := range m.rides {
		if r.Status == StatusPending && r.DriverID == nil {
			cp := *r
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemStore) HistoryByPassenger(_ context.Context, passengerID types.ID, limit int) ([]*Ride, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*Ride
	for _, r := range m.rides {
		if r.PassengerID == passengerID && r.Status.Terminal() {
			cp := *r
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemStore) CompletedByDriverSince(_ context.Context, driverID types.ID, since time.Time) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, r := range m.rides {
		if r.DriverID != nil && *r.DriverID == driverID && r.Status == StatusCompleted &&
			r.CompletedAt != nil && !r.CompletedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

func (m *MemStore) AppendEvent(_ context.Context, e *Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	cp := *e
	cp.ID = m.nextID
	m.events = append(m.events, cp)
	return nil
}

// Events returns a copy of the recorded state events in append order.
func (m *MemStore) Events() []Event {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Event, len(m.events))
	copy(out, m.events)
	return out
}
