// README: Ride aggregate, status definitions, and the lifecycle transition table.
package ride

import (
	"time"

	"github.com/basgenix4u/fuw-campus-shuttle/internal/types"
)

type Status string

const (
	StatusNone       Status = "none"
	StatusPending    Status = "pending"
	StatusAccepted   Status = "accepted"
	StatusArriving   Status = "arriving"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

type AllocationMethod string

const (
	AllocationSystem AllocationMethod = "system_allocated"
	AllocationDriver AllocationMethod = "driver_accepted"
)

type Ride struct {
	ID                types.ID
	PassengerID       types.ID
	DriverID          *types.ID
	VehicleID         *types.ID
	PickupLocationID  *types.ID
	Pickup            types.Point
	PickupAddress     string
	DropoffLocationID *types.ID
	Dropoff           types.Point
	DropoffAddress    string
	Status            Status
	DistanceKm        *float64
	EstimatedMinutes  *int
	ActualMinutes     *int
	AllocationMethod  *AllocationMethod
	MatchScore        *float64
	CreatedAt         time.Time
	AcceptedAt        *time.Time
	StartedAt         *time.Time
	CompletedAt       *time.Time
	CancelledAt       *time.Time
}

// Event is one committed status transition, kept for audit and history.
type Event struct {
	ID         int64
	RideID     types.ID
	FromStatus Status
	ToStatus   Status
	ActorType  string
	ActorID    *types.ID
	CreatedAt  time.Time
}

// AllowedTransitions represents the ride state flow as code. Cancellation is
// reachable from pending and accepted only; later cancellation is unsupported.
var AllowedTransitions = map[Status][]Status{
	StatusPending:    {StatusAccepted, StatusCancelled},
	StatusAccepted:   {StatusArriving, StatusCancelled},
	StatusArriving:   {StatusInProgress},
	StatusInProgress: {StatusCompleted},
}

func CanTransition(from, to Status) bool {
	next, ok := AllowedTransitions[from]
	if !ok {
		return false
	}
	for _, s := range next {
		if s == to {
			return true
		}
	}
	return false
}

// Terminal reports whether a ride in this status can never change again.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Active reports whether the ride currently occupies a driver.
func (s Status) Active() bool {
	return s == StatusAccepted || s == StatusArriving || s == StatusInProgress
}
