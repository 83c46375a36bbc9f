// README: In-memory driver/vehicle store for tests and local development.
package driver

import (
	"context"
	"sort"
	"sync"

	"github.com/basgenix4u/fuw-campus-shuttle/internal/types"
)

type MemStore struct {
	mu       sync.RWMutex
	drivers  map[types.ID]*Driver
	vehicles map[types.ID]*Vehicle
}

func NewMemStore() *MemStore {
	return &MemStore{
		drivers:  make(map[types.ID]*Driver),
		vehicles: make(map[types.ID]*Vehicle),
	}
}

// Seed installs a driver and its vehicle, replacing any previous entries.
func (m *MemStore) Seed(d Driver, v Vehicle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drivers[d.ID] = &d
	m.vehicles[v.ID] = &v
}

func (m *MemStore) Get(_ context.Context, id types.ID) (*Driver, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.drivers[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (m *MemStore) GetByUser(_ context.Context, userID types.ID) (*Driver, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, d := range m.drivers {
		if d.UserID == userID {
			cp := *d
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemStore) ListByStatus(_ context.Context, status Status) ([]*Driver, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*Driver
	for _, d := range m.drivers {
		if d.Status == status {
			cp := *d
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemStore) SetStatus(_ context.Context, driverID types.ID, status Status) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.drivers[driverID]
	if !ok {
		return false, ErrNotFound
	}
	if d.Status == status {
		return false, nil
	}
	d.Status = status
	return true, nil
}

func (m *MemStore) IncrementRides(_ context.Context, driverID types.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.drivers[driverID]
	if !ok {
		return ErrNotFound
	}
	d.TotalRides++
	return nil
}

func (m *MemStore) Vehicle(_ context.Context, id types.ID) (*Vehicle, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.vehicles[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *v
	return &cp, nil
}

func (m *MemStore) SetVehicleStatus(_ context.Context, vehicleID types.ID, status VehicleStatus, passengers int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.vehicles[vehicleID]
	if !ok {
		return false, ErrNotFound
	}
	if v.Status == status && v.Passengers == passengers {
		return false, nil
	}
	v.Status = status
	v.Passengers = passengers
	return true, nil
}

func (m *MemStore) SetVehiclePosition(_ context.Context, vehicleID types.ID, p types.Point) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.vehicles[vehicleID]
	if !ok {
		return ErrNotFound
	}
	pp := p
	v.Position = &pp
	return nil
}
