// README: Matching service joins available drivers with the position index
// and ranks them for a pickup.
package matching

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/basgenix4u/fuw-campus-shuttle/internal/config"
	"github.com/basgenix4u/fuw-campus-shuttle/internal/types"
)

// AvailableDrivers lists drivers currently open to assignment, each paired
// with an active vehicle.
type AvailableDrivers interface {
	ListAvailable(ctx context.Context) ([]Candidate, error)
}

type Service struct {
	drivers AvailableDrivers
	geo     *GeoStore
	cfg     config.MatchingConfig
	log     *logrus.Logger
}

func NewService(drivers AvailableDrivers, geo *GeoStore, cfg config.MatchingConfig, log *logrus.Logger) *Service {
	if log == nil {
		log = logrus.New()
	}
	return &Service{drivers: drivers, geo: geo, cfg: cfg, log: log}
}

// Candidates returns every available driver ranked by distance to the pickup.
// A degraded position index is tolerated: drivers then rank from the campus
// center instead of dropping out of the list.
func (s *Service) Candidates(ctx context.Context, pickup types.Point) ([]Ranked, error) {
	cands, err := s.drivers.ListAvailable(ctx)
	if err != nil {
		return nil, err
	}
	if len(cands) == 0 {
		return nil, nil
	}

	var positions map[types.ID]types.Point
	if s.geo != nil {
		vehicleIDs := make([]types.ID, len(cands))
		for i, c := range cands {
			vehicleIDs[i] = c.VehicleID
		}
		positions, err = s.geo.Positions(ctx, vehicleIDs)
		if err != nil {
			s.log.WithError(err).Warn("matching: position lookup failed, falling back to campus center")
			positions = nil
		}
	}
	for i := range cands {
		if p, ok := positions[cands[i].VehicleID]; ok {
			pp := p
			cands[i].Position = &pp
		}
	}

	center := types.Point{Lat: s.cfg.CampusCenter.Lat, Lng: s.cfg.CampusCenter.Lng}
	return Rank(pickup, center, cands), nil
}

// Best returns the top-ranked candidate for a pickup, or false when no driver
// is available.
func (s *Service) Best(ctx context.Context, pickup types.Point) (Ranked, bool, error) {
	ranked, err := s.Candidates(ctx, pickup)
	if err != nil || len(ranked) == 0 {
		return Ranked{}, false, err
	}
	return ranked[0], true, nil
}
