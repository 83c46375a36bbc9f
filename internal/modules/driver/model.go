// README: Driver and vehicle aggregates with their status vocabularies.
package driver

import (
	"github.com/basgenix4u/fuw-campus-shuttle/internal/types"
)

type Status string

const (
	StatusAvailable Status = "available"
	StatusBusy      Status = "busy"
	StatusOffline   Status = "offline"
)

type VehicleStatus string

const (
	VehicleAvailable VehicleStatus = "available"
	VehicleInTransit VehicleStatus = "in_transit"
	VehicleOffline   VehicleStatus = "offline"
)

// Driver is a shuttle driver profile. Name comes from the linked user account;
// every driver is paired with exactly one vehicle.
type Driver struct {
	ID         types.ID
	UserID     types.ID
	VehicleID  types.ID
	Name       string
	Status     Status
	Rating     float64
	TotalRides int
}

type Vehicle struct {
	ID         types.ID
	Name       string
	Number     string
	Capacity   int
	Status     VehicleStatus
	Passengers int
	Position   *types.Point
}

// Stats is the dashboard summary a driver sees about their own work.
type Stats struct {
	RidesToday int     `json:"rides_today"`
	TotalRides int     `json:"total_rides"`
	Rating     float64 `json:"rating"`
	Status     Status  `json:"status"`
}
