// README: Campus locations; named stops passengers can pick from.
package location

import (
	"github.com/basgenix4u/fuw-campus-shuttle/internal/types"
)

type CampusLocation struct {
	ID            types.ID    `json:"id"`
	Name          string      `json:"name"`
	Type          string      `json:"location_type"`
	Position      types.Point `json:"position"`
	IsShuttleStop bool        `json:"is_shuttle_stop"`
}
