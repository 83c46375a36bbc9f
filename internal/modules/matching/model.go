// README: Matching candidates and ranked results.
package matching

import (
	"github.com/basgenix4u/fuw-campus-shuttle/internal/types"
)

// Candidate is an available driver considered for a pickup. Position is nil
// when the driver's vehicle has never reported a location.
type Candidate struct {
	DriverID  types.ID
	VehicleID types.ID
	Name      string
	Plate     string
	Position  *types.Point
}

// Ranked is a candidate annotated with its distance to the pickup point and
// the proximity score derived from it.
type Ranked struct {
	Candidate
	DistanceKm float64
	Score      float64
}
