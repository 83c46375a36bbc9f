// Package geo contains pure geographic computation and display helpers.
package geo

import (
	"fmt"
	"math"

	"github.com/basgenix4u/fuw-campus-shuttle/internal/types"
)

const earthRadiusKm = 6371.0

// DistanceKm returns the great-circle distance in kilometres between two
// points specified in decimal degrees. Malformed coordinates yield NaN, which
// is propagated rather than special-cased.
func DistanceKm(a, b types.Point) float64 {
	dLat := degreesToRadians(b.Lat - a.Lat)
	dLng := degreesToRadians(b.Lng - a.Lng)

	rLat1 := degreesToRadians(a.Lat)
	rLat2 := degreesToRadians(b.Lat)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rLat1)*math.Cos(rLat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadiusKm * c
}

func degreesToRadians(deg float64) float64 {
	return deg * math.Pi / 180.0
}

// FormatDistance renders a distance for display: metres below 1 km, otherwise
// kilometres to one decimal place. A nil distance renders as "--".
func FormatDistance(km *float64) string {
	if km == nil {
		return "--"
	}
	if *km < 1 {
		return fmt.Sprintf("%d m", int(math.Round(*km*1000)))
	}
	return fmt.Sprintf("%.1f km", *km)
}

// FormatDuration renders minutes for display, switching to "XhYm" above an
// hour. A nil duration renders as "--".
func FormatDuration(minutes *float64) string {
	if minutes == nil {
		return "--"
	}
	if *minutes < 60 {
		return fmt.Sprintf("%d min", int(math.Round(*minutes)))
	}
	hours := int(*minutes) / 60
	mins := int(math.Round(math.Mod(*minutes, 60)))
	return fmt.Sprintf("%dh %dm", hours, mins)
}

// EstimateDurationMinutes is the fixed speed-derived heuristic (~20 km/h)
// used wherever no richer routing estimate exists.
func EstimateDurationMinutes(km float64) float64 {
	return math.Ceil(km * 3)
}
