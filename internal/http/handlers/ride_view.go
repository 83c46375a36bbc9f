// README: JSON projection of a ride for API responses.
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/basgenix4u/fuw-campus-shuttle/internal/geo"
	"github.com/basgenix4u/fuw-campus-shuttle/internal/modules/ride"
)

func rideView(r *ride.Ride) gin.H {
	var est *float64
	if r.EstimatedMinutes != nil {
		v := float64(*r.EstimatedMinutes)
		est = &v
	}
	return gin.H{
		"id":           r.ID,
		"passenger_id": r.PassengerID,
		"driver_id":    r.DriverID,
		"vehicle_id":   r.VehicleID,
		"status":       r.Status,
		"pickup": gin.H{
			"location_id": r.PickupLocationID,
			"lat":         r.Pickup.Lat,
			"lng":         r.Pickup.Lng,
			"address":     r.PickupAddress,
		},
		"dropoff": gin.H{
			"location_id": r.DropoffLocationID,
			"lat":         r.Dropoff.Lat,
			"lng":         r.Dropoff.Lng,
			"address":     r.DropoffAddress,
		},
		"distance_km":                r.DistanceKm,
		"distance":                   geo.FormatDistance(r.DistanceKm),
		"estimated_duration_minutes": r.EstimatedMinutes,
		"estimated_duration":         geo.FormatDuration(est),
		"actual_duration_minutes":    r.ActualMinutes,
		"allocation_method":          r.AllocationMethod,
		"match_score":                r.MatchScore,
		"created_at":                 r.CreatedAt,
		"accepted_at":                r.AcceptedAt,
		"started_at":                 r.StartedAt,
		"completed_at":               r.CompletedAt,
		"cancelled_at":               r.CancelledAt,
	}
}

func rideViews(rs []*ride.Ride) []gin.H {
	out := make([]gin.H, len(rs))
	for i, r := range rs {
		out[i] = rideView(r)
	}
	return out
}
