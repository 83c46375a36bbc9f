// README: Driver/vehicle persistence contract. Status writes are idempotent
// and report whether a row actually changed, so repair passes can count them.
package driver

import (
	"context"

	"github.com/basgenix4u/fuw-campus-shuttle/internal/types"
)

type Store interface {
	Get(ctx context.Context, id types.ID) (*Driver, error)
	GetByUser(ctx context.Context, userID types.ID) (*Driver, error)
	ListByStatus(ctx context.Context, status Status) ([]*Driver, error)
	SetStatus(ctx context.Context, driverID types.ID, status Status) (bool, error)
	IncrementRides(ctx context.Context, driverID types.ID) error

	Vehicle(ctx context.Context, id types.ID) (*Vehicle, error)
	SetVehicleStatus(ctx context.Context, vehicleID types.ID, status VehicleStatus, passengers int) (bool, error)
	SetVehiclePosition(ctx context.Context, vehicleID types.ID, p types.Point) error
}
