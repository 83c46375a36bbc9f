// README: Campus location service; stop listing, nearest-stop lookup, and
// position resolution with the campus-center default.
package location

import (
	"context"
	"errors"

	"github.com/basgenix4u/fuw-campus-shuttle/internal/config"
	"github.com/basgenix4u/fuw-campus-shuttle/internal/geo"
	"github.com/basgenix4u/fuw-campus-shuttle/internal/types"
)

var ErrNotFound = errors.New("location not found")

type Service struct {
	store  Store
	center types.Point
}

func NewService(store Store, cfg config.MatchingConfig) *Service {
	return &Service{
		store:  store,
		center: types.Point{Lat: cfg.CampusCenter.Lat, Lng: cfg.CampusCenter.Lng},
	}
}

func (s *Service) Get(ctx context.Context, id types.ID) (*CampusLocation, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) ListStops(ctx context.Context) ([]*CampusLocation, error) {
	return s.store.ListStops(ctx)
}

// NearestStop finds the shuttle stop closest to p.
func (s *Service) NearestStop(ctx context.Context, p types.Point) (*CampusLocation, float64, error) {
	stops, err := s.store.ListStops(ctx)
	if err != nil {
		return nil, 0, err
	}
	if len(stops) == 0 {
		return nil, 0, ErrNotFound
	}
	best := stops[0]
	bestKm := geo.DistanceKm(p, best.Position)
	for _, stop := range stops[1:] {
		if d := geo.DistanceKm(p, stop.Position); d < bestKm {
			best, bestKm = stop, d
		}
	}
	return best, bestKm, nil
}

// Resolve turns an optional reported position into a concrete one, defaulting
// to the campus center when the caller has none.
func (s *Service) Resolve(p *types.Point) types.Point {
	if p == nil {
		return s.center
	}
	return *p
}

// CampusCenter is the fixed fallback position for this deployment.
func (s *Service) CampusCenter() types.Point {
	return s.center
}
