// README: Ride persistence contract; the conditional status update is the only
// concurrency-control primitive in the system.
package ride

import (
	"context"
	"time"

	"github.com/basgenix4u/fuw-campus-shuttle/internal/types"
)

// Assignment carries the driver/vehicle binding written on pending→accepted.
type Assignment struct {
	DriverID         types.ID
	VehicleID        types.ID
	DistanceKm       float64
	EstimatedMinutes int
	Method           AllocationMethod
	Score            float64
}

// Occupied is a driver/vehicle pair currently bound to an active ride.
type Occupied struct {
	DriverID  types.ID
	VehicleID types.ID
}

// StatusUpdate is the side data written together with a transition.
type StatusUpdate struct {
	At            time.Time
	Assign        *Assignment
	ActualMinutes *int
}

type Store interface {
	Create(ctx context.Context, r *Ride) error
	Get(ctx context.Context, id types.ID) (*Ride, error)

	// UpdateStatus applies the transition only if the stored status still
	// equals from; it reports false when another writer got there first.
	UpdateStatus(ctx context.Context, id types.ID, from, to Status, upd StatusUpdate) (bool, error)

	ActiveByDriver(ctx context.Context, driverID types.ID) (*Ride, error)
	ActiveByPassenger(ctx context.Context, passengerID types.ID) (*Ride, error)
	ActiveAssignments(ctx context.Context) ([]Occupied, error)
	PendingUnassigned(ctx context.Context, limit int) ([]*Ride, error)
	HistoryByPassenger(ctx context.Context, passengerID types.ID, limit int) ([]*Ride, error)
	CompletedByDriverSince(ctx context.Context, driverID types.ID, since time.Time) (int, error)

	AppendEvent(ctx context.Context, e *Event) error
}
