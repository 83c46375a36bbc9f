// README: Driver service; availability toggling, dashboard stats, and the
// busy/release surface the ride controller drives.
package driver

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/basgenix4u/fuw-campus-shuttle/internal/auth"
	"github.com/basgenix4u/fuw-campus-shuttle/internal/modules/matching"
	"github.com/basgenix4u/fuw-campus-shuttle/internal/modules/ride"
	"github.com/basgenix4u/fuw-campus-shuttle/internal/types"
)

var (
	ErrNotFound   = errors.New("driver not found")
	ErrActiveRide = errors.New("driver has an active ride")
	ErrForbidden  = errors.New("not allowed for this actor")
)

// Rides is the ride query surface this service needs: enough to refuse a
// toggle mid-ride and to count completed trips.
type Rides interface {
	ActiveForDriver(ctx context.Context, driverID types.ID) (*ride.Ride, error)
	CompletedSince(ctx context.Context, driverID types.ID, since time.Time) (int, error)
}

// PositionIndex is the live vehicle position index kept for matching.
type PositionIndex interface {
	Upsert(ctx context.Context, vehicleID types.ID, p types.Point) error
	Remove(ctx context.Context, vehicleID types.ID) error
}

type Service struct {
	store Store
	rides Rides
	geo   PositionIndex
	log   *logrus.Logger
}

func NewService(store Store, rides Rides, geo PositionIndex, log *logrus.Logger) *Service {
	if log == nil {
		log = logrus.New()
	}
	return &Service{store: store, rides: rides, geo: geo, log: log}
}

// BindRides wires the ride query surface after construction. The ride service
// needs this service first, so the dependency closes here.
func (s *Service) BindRides(r Rides) {
	s.rides = r
}

// ByUser resolves the driver profile behind a user account.
func (s *Service) ByUser(ctx context.Context, userID types.ID) (*Driver, error) {
	return s.store.GetByUser(ctx, userID)
}

// ToggleAvailability flips a driver between available and offline. Toggling is
// refused while the driver is serving a ride; completion or cancellation is
// the only way back to available from busy.
func (s *Service) ToggleAvailability(ctx context.Context, sess auth.Session) (*Driver, error) {
	if sess.Role != auth.RoleDriver {
		return nil, ErrForbidden
	}
	d, err := s.store.GetByUser(ctx, sess.UserID)
	if err != nil {
		return nil, err
	}
	if d.Status == StatusBusy {
		return nil, ErrActiveRide
	}
	if s.rides != nil {
		if active, err := s.rides.ActiveForDriver(ctx, d.ID); err != nil {
			return nil, err
		} else if active != nil {
			return nil, ErrActiveRide
		}
	}

	next, vehicleNext := StatusAvailable, VehicleAvailable
	if d.Status == StatusAvailable {
		next, vehicleNext = StatusOffline, VehicleOffline
	}
	if _, err := s.store.SetStatus(ctx, d.ID, next); err != nil {
		return nil, err
	}
	if _, err := s.store.SetVehicleStatus(ctx, d.VehicleID, vehicleNext, 0); err != nil {
		s.log.WithError(err).WithField("vehicle_id", d.VehicleID).Error("vehicle status update failed on toggle")
	}
	if s.geo != nil && next == StatusOffline {
		if err := s.geo.Remove(ctx, d.VehicleID); err != nil {
			s.log.WithError(err).WithField("vehicle_id", d.VehicleID).Warn("position index removal failed")
		}
	}

	d.Status = next
	s.log.WithFields(logrus.Fields{"driver_id": d.ID, "status": next}).Info("driver availability toggled")
	return d, nil
}

// UpdatePosition records a vehicle's reported position in both the durable
// store and the live matching index.
func (s *Service) UpdatePosition(ctx context.Context, sess auth.Session, p types.Point) error {
	if sess.Role != auth.RoleDriver {
		return ErrForbidden
	}
	d, err := s.store.GetByUser(ctx, sess.UserID)
	if err != nil {
		return err
	}
	if err := s.store.SetVehiclePosition(ctx, d.VehicleID, p); err != nil {
		return err
	}
	if s.geo != nil {
		if err := s.geo.Upsert(ctx, d.VehicleID, p); err != nil {
			s.log.WithError(err).WithField("vehicle_id", d.VehicleID).Warn("position index update failed")
		}
	}
	return nil
}

// Stats summarizes a driver's day for the dashboard.
func (s *Service) Stats(ctx context.Context, sess auth.Session) (*Stats, error) {
	if sess.Role != auth.RoleDriver {
		return nil, ErrForbidden
	}
	d, err := s.store.GetByUser(ctx, sess.UserID)
	if err != nil {
		return nil, err
	}
	st := &Stats{TotalRides: d.TotalRides, Rating: d.Rating, Status: d.Status}
	if s.rides != nil {
		midnight := time.Now().UTC().Truncate(24 * time.Hour)
		n, err := s.rides.CompletedSince(ctx, d.ID, midnight)
		if err != nil {
			return nil, err
		}
		st.RidesToday = n
	}
	return st, nil
}

// Vehicle returns the vehicle paired with a driver.
func (s *Service) Vehicle(ctx context.Context, vehicleID types.ID) (*Vehicle, error) {
	return s.store.Vehicle(ctx, vehicleID)
}

// ListAvailable feeds the matching policy: every available driver paired with
// its vehicle and last stored position.
func (s *Service) ListAvailable(ctx context.Context) ([]matching.Candidate, error) {
	ds, err := s.store.ListByStatus(ctx, StatusAvailable)
	if err != nil {
		return nil, err
	}
	out := make([]matching.Candidate, 0, len(ds))
	for _, d := range ds {
		c := matching.Candidate{DriverID: d.ID, VehicleID: d.VehicleID, Name: d.Name}
		if v, err := s.store.Vehicle(ctx, d.VehicleID); err == nil {
			c.Plate = v.Number
			c.Position = v.Position
		}
		out = append(out, c)
	}
	return out, nil
}

// IsAvailable implements the ride controller's availability check.
func (s *Service) IsAvailable(ctx context.Context, driverID types.ID) (bool, error) {
	d, err := s.store.Get(ctx, driverID)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return d.Status == StatusAvailable, nil
}

// SetBusy marks a driver and vehicle as serving a ride. The vehicle carries
// one passenger while in transit.
func (s *Service) SetBusy(ctx context.Context, driverID, vehicleID types.ID) (bool, error) {
	changed, err := s.store.SetStatus(ctx, driverID, StatusBusy)
	if err != nil {
		return false, err
	}
	if _, err := s.store.SetVehicleStatus(ctx, vehicleID, VehicleInTransit, 1); err != nil {
		return changed, err
	}
	return changed, nil
}

// Release returns a driver and vehicle to available. A completed ride also
// bumps the driver's trip counter.
func (s *Service) Release(ctx context.Context, driverID, vehicleID types.ID, rideCompleted bool) (bool, error) {
	changed, err := s.store.SetStatus(ctx, driverID, StatusAvailable)
	if err != nil {
		return false, err
	}
	if _, err := s.store.SetVehicleStatus(ctx, vehicleID, VehicleAvailable, 0); err != nil {
		return changed, err
	}
	if rideCompleted {
		if err := s.store.IncrementRides(ctx, driverID); err != nil {
			s.log.WithError(err).WithField("driver_id", driverID).Error("trip counter update failed")
		}
	}
	return changed, nil
}

// ListBusy implements the reconciler's view of occupied drivers.
func (s *Service) ListBusy(ctx context.Context) ([]ride.Occupied, error) {
	ds, err := s.store.ListByStatus(ctx, StatusBusy)
	if err != nil {
		return nil, err
	}
	out := make([]ride.Occupied, 0, len(ds))
	for _, d := range ds {
		out = append(out, ride.Occupied{DriverID: d.ID, VehicleID: d.VehicleID})
	}
	return out, nil
}
