// README: Nearest-driver ranking policy; pure functions over candidates.
package matching

import (
	"sort"

	"github.com/basgenix4u/fuw-campus-shuttle/internal/geo"
	"github.com/basgenix4u/fuw-campus-shuttle/internal/types"
)

const (
	scoreBase  = 100.0
	scorePerKm = 10.0
)

// Score maps a pickup distance to a proximity score, clamped to [0, 100].
func Score(distanceKm float64) float64 {
	s := scoreBase - scorePerKm*distanceKm
	if s < 0 {
		return 0
	}
	return s
}

// Rank orders candidates by distance to the pickup, nearest first, with the
// driver ID breaking ties so repeated calls return the same order. Candidates
// with no known position are measured from the campus center so they still
// rank rather than vanish.
func Rank(pickup, campusCenter types.Point, cands []Candidate) []Ranked {
	ranked := make([]Ranked, len(cands))
	for i, c := range cands {
		pos := campusCenter
		if c.Position != nil {
			pos = *c.Position
		}
		d := geo.DistanceKm(pos, pickup)
		ranked[i] = Ranked{Candidate: c, DistanceKm: d, Score: Score(d)}
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].DistanceKm != ranked[j].DistanceKm {
			return ranked[i].DistanceKm < ranked[j].DistanceKm
		}
		return ranked[i].DriverID < ranked[j].DriverID
	})
	return ranked
}
