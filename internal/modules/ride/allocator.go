// README: Database-hosted allocation procedure; a thin wrapper around the
// allocate_ride function so the controller never parses its internals.
package ride

import (
	"context"
	"database/sql"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/basgenix4u/fuw-campus-shuttle/internal/types"
)

// PGAllocator invokes the allocate_ride procedure. The procedure owns its own
// selection logic; callers only learn whether a driver was assigned.
type PGAllocator struct {
	db *pgxpool.Pool
}

func NewPGAllocator(db *pgxpool.Pool) *PGAllocator {
	return &PGAllocator{db: db}
}

func (a *PGAllocator) Allocate(ctx context.Context, rideID types.ID) (AllocationOutcome, error) {
	var (
		success    bool
		driverName sql.NullString
	)
	row := a.db.QueryRow(ctx, `SELECT success, driver_name FROM allocate_ride($1)`, string(rideID))
	if err := row.Scan(&success, &driverName); err != nil {
		return AllocationOutcome{}, err
	}
	return AllocationOutcome{Success: success, DriverName: driverName.String}, nil
}
