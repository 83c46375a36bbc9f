// README: Campus location persistence contract.
package location

import (
	"context"

	"github.com/basgenix4u/fuw-campus-shuttle/internal/types"
)

type Store interface {
	Get(ctx context.Context, id types.ID) (*CampusLocation, error)
	ListStops(ctx context.Context) ([]*CampusLocation, error)
}
