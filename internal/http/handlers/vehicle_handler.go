// README: Nearby-vehicle handler for the passenger map.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/basgenix4u/fuw-campus-shuttle/internal/geo"
	"github.com/basgenix4u/fuw-campus-shuttle/internal/modules/location"
	"github.com/basgenix4u/fuw-campus-shuttle/internal/modules/matching"
	"github.com/basgenix4u/fuw-campus-shuttle/internal/types"
)

type VehicleHandler struct {
	matcher   *matching.Service
	locations *location.Service
}

func NewVehicleHandler(matcher *matching.Service, locations *location.Service) *VehicleHandler {
	return &VehicleHandler{matcher: matcher, locations: locations}
}

// Nearby lists available shuttles ranked by distance from the caller's
// position, defaulting to the campus center when no position is given.
func (h *VehicleHandler) Nearby(c *gin.Context) {
	var from *types.Point
	if lat, latErr := floatQuery(c, "lat"); latErr == nil {
		if lng, lngErr := floatQuery(c, "lng"); lngErr == nil {
			from = &types.Point{Lat: lat, Lng: lng}
		}
	}
	pos := h.locations.Resolve(from)

	ranked, err := h.matcher.Candidates(c.Request.Context(), pos)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "could not list vehicles")
		return
	}

	out := make([]gin.H, len(ranked))
	for i, r := range ranked {
		km := r.DistanceKm
		out[i] = gin.H{
			"driver_id":   r.DriverID,
			"vehicle_id":  r.VehicleID,
			"driver_name": r.Name,
			"plate":       r.Plate,
			"position":    r.Position,
			"distance_km": km,
			"distance":    geo.FormatDistance(&km),
			"score":       r.Score,
		}
	}
	writeJSON(c, http.StatusOK, gin.H{"vehicles": out})
}
