// README: Ride lifecycle controller; sole writer of ride status, with
// coordinated driver/vehicle side effects and a compensating reconciler.
package ride

import (
	"context"
	"errors"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/basgenix4u/fuw-campus-shuttle/internal/auth"
	"github.com/basgenix4u/fuw-campus-shuttle/internal/geo"
	"github.com/basgenix4u/fuw-campus-shuttle/internal/modules/matching"
	"github.com/basgenix4u/fuw-campus-shuttle/internal/observability"
	"github.com/basgenix4u/fuw-campus-shuttle/internal/types"
)

var (
	ErrNotFound          = errors.New("ride not found")
	ErrInvalidState      = errors.New("invalid state transition")
	ErrConflict          = errors.New("ride no longer available")
	ErrActiveRide        = errors.New("an active ride already exists")
	ErrDriverUnavailable = errors.New("driver is not available")
	ErrInFlight          = errors.New("another request for this ride is in flight")
	ErrForbidden         = errors.New("not allowed for this actor")
	ErrBadRequest        = errors.New("bad request")
)

// Drivers is the driver/vehicle availability surface the controller mutates
// in lockstep with ride transitions. Writes are idempotent; the returned
// changed flag reports whether a repair actually happened.
type Drivers interface {
	IsAvailable(ctx context.Context, driverID types.ID) (bool, error)
	SetBusy(ctx context.Context, driverID, vehicleID types.ID) (bool, error)
	Release(ctx context.Context, driverID, vehicleID types.ID, rideCompleted bool) (bool, error)
	ListBusy(ctx context.Context) ([]Occupied, error)
}

// AllocationOutcome is the contract of the opaque allocate_ride procedure.
type AllocationOutcome struct {
	Success    bool
	DriverName string
}

// Allocator is the injected capability wrapping the external allocation
// procedure. Best effort: a failure never blocks ride creation.
type Allocator interface {
	Allocate(ctx context.Context, rideID types.ID) (AllocationOutcome, error)
}

// Notifier receives a signal after every committed ride write. The payload
// identifies what changed, never the authoritative state.
type Notifier interface {
	RideChanged(rideID, passengerID types.ID, kind string)
}

// Estimator mirrors eta.Estimator without importing it.
type Estimator interface {
	EstimateMinutes(ctx context.Context, from, to types.Point) (float64, error)
}

type Service struct {
	store     Store
	drivers   Drivers
	allocator Allocator
	notifier  Notifier
	estimator Estimator
	log       *logrus.Logger

	mu       sync.Mutex
	inFlight map[types.ID]struct{}
}

func NewService(store Store, drivers Drivers, log *logrus.Logger) *Service {
	if log == nil {
		log = logrus.New()
	}
	return &Service{
		store:    store,
		drivers:  drivers,
		log:      log,
		inFlight: make(map[types.ID]struct{}),
	}
}

// WithAllocator installs the external allocation capability.
func (s *Service) WithAllocator(a Allocator) *Service {
	s.allocator = a
	return s
}

// WithNotifier installs the change notification sink.
func (s *Service) WithNotifier(n Notifier) *Service {
	s.notifier = n
	return s
}

// WithEstimator installs a routing-based duration estimator; without one the
// fixed-speed heuristic is used.
func (s *Service) WithEstimator(e Estimator) *Service {
	s.estimator = e
	return s
}

// Place is one endpoint of a requested ride.
type Place struct {
	LocationID *types.ID
	Position   types.Point
	Address    string
}

type RequestCommand struct {
	Session auth.Session
	Pickup  Place
	Dropoff Place
}

type AcceptCommand struct {
	Session    auth.Session
	RideID     types.ID
	DriverID   types.ID
	VehicleID  types.ID
	DistanceKm float64
}

type ArriveCommand struct {
	Session  auth.Session
	RideID   types.ID
	DriverID types.ID
}

type StartCommand struct {
	Session  auth.Session
	RideID   types.ID
	DriverID types.ID
}

type CompleteCommand struct {
	Session  auth.Session
	RideID   types.ID
	DriverID types.ID
}

type CancelCommand struct {
	Session auth.Session
	RideID  types.ID
}

// Request creates a pending ride and triggers best-effort auto-allocation.
// The outcome is nil when the allocator is absent or failed; the ride stays
// pending for a manual driver accept in that case.
func (s *Service) Request(ctx context.Context, cmd RequestCommand) (*Ride, *AllocationOutcome, error) {
	if cmd.Session.Role != auth.RolePassenger {
		return nil, nil, ErrForbidden
	}
	if cmd.Pickup.LocationID != nil && cmd.Dropoff.LocationID != nil &&
		*cmd.Pickup.LocationID == *cmd.Dropoff.LocationID {
		return nil, nil, ErrBadRequest
	}

	active, err := s.store.ActiveByPassenger(ctx, cmd.Session.UserID)
	if err != nil {
		return nil, nil, err
	}
	if active != nil {
		return nil, nil, ErrActiveRide
	}

	distance := geo.DistanceKm(cmd.Pickup.Position, cmd.Dropoff.Position)
	estimated := s.estimateMinutes(ctx, cmd.Pickup.Position, cmd.Dropoff.Position, distance)

	now := time.Now().UTC()
	r := &Ride{
		ID:                types.ID(uuid.NewString()),
		PassengerID:       cmd.Session.UserID,
		PickupLocationID:  cmd.Pickup.LocationID,
		Pickup:            cmd.Pickup.Position,
		PickupAddress:     cmd.Pickup.Address,
		DropoffLocationID: cmd.Dropoff.LocationID,
		Dropoff:           cmd.Dropoff.Position,
		DropoffAddress:    cmd.Dropoff.Address,
		Status:            StatusPending,
		DistanceKm:        &distance,
		EstimatedMinutes:  &estimated,
		CreatedAt:         now,
	}
	if err := s.store.Create(ctx, r); err != nil {
		return nil, nil, err
	}
	observability.RidesRequestedTotal.Inc()
	passengerID := cmd.Session.UserID
	_ = s.store.AppendEvent(ctx, &Event{
		RideID:     r.ID,
		FromStatus: StatusNone,
		ToStatus:   StatusPending,
		ActorType:  auth.RolePassenger,
		ActorID:    &passengerID,
		CreatedAt:  now,
	})
	s.notify(r.ID, r.PassengerID, "insert")
	s.log.WithFields(logrus.Fields{"ride_id": r.ID, "passenger_id": r.PassengerID}).Info("ride requested")

	outcome := s.tryAllocate(ctx, r.ID)
	if outcome != nil && outcome.Success {
		// The procedure moved the ride to accepted server-side; re-read so the
		// caller sees the assignment.
		if fresh, err := s.store.Get(ctx, r.ID); err == nil {
			r = fresh
		}
		s.notify(r.ID, r.PassengerID, "update")
	}
	return r, outcome, nil
}

func (s *Service) tryAllocate(ctx context.Context, rideID types.ID) *AllocationOutcome {
	if s.allocator == nil {
		return nil
	}
	outcome, err := s.allocator.Allocate(ctx, rideID)
	if err != nil {
		observability.AllocationsTotal.WithLabelValues("error").Inc()
		s.log.WithError(err).WithField("ride_id", rideID).Warn("auto-allocation failed; ride stays pending")
		return nil
	}
	if outcome.Success {
		observability.AllocationsTotal.WithLabelValues("allocated").Inc()
	} else {
		observability.AllocationsTotal.WithLabelValues("declined").Inc()
	}
	return &outcome
}

// Accept claims a pending ride for a driver. First committed writer wins;
// the loser gets ErrConflict and should refresh its candidate list.
func (s *Service) Accept(ctx context.Context, cmd AcceptCommand) error {
	if cmd.Session.Role != auth.RoleDriver {
		return ErrForbidden
	}
	if !s.begin(cmd.RideID) {
		return ErrInFlight
	}
	defer s.end(cmd.RideID)

	r, err := s.store.Get(ctx, cmd.RideID)
	if err != nil {
		return err
	}
	if !CanTransition(r.Status, StatusAccepted) {
		return ErrInvalidState
	}

	available, err := s.drivers.IsAvailable(ctx, cmd.DriverID)
	if err != nil {
		return err
	}
	if !available {
		return ErrDriverUnavailable
	}
	if active, err := s.store.ActiveByDriver(ctx, cmd.DriverID); err != nil {
		return err
	} else if active != nil {
		return ErrActiveRide
	}

	now := time.Now().UTC()
	assign := &Assignment{
		DriverID:         cmd.DriverID,
		VehicleID:        cmd.VehicleID,
		DistanceKm:       cmd.DistanceKm,
		EstimatedMinutes: int(geo.EstimateDurationMinutes(cmd.DistanceKm)),
		Method:           AllocationDriver,
		Score:            matching.Score(cmd.DistanceKm),
	}
	ok, err := s.store.UpdateStatus(ctx, r.ID, StatusPending, StatusAccepted, StatusUpdate{At: now, Assign: assign})
	if err != nil {
		return err
	}
	if !ok {
		observability.AcceptConflictsTotal.Inc()
		return ErrConflict
	}

	if _, err := s.drivers.SetBusy(ctx, cmd.DriverID, cmd.VehicleID); err != nil {
		// Ride write already committed; the reconciler repairs this.
		s.log.WithError(err).WithFields(logrus.Fields{
			"ride_id": r.ID, "driver_id": cmd.DriverID,
		}).Error("driver busy update failed after accept")
	}

	s.commit(ctx, r.ID, r.PassengerID, StatusPending, StatusAccepted, auth.RoleDriver, &cmd.DriverID, now)
	return nil
}

// Arrive marks the driver as on the way to the pickup point.
func (s *Service) Arrive(ctx context.Context, cmd ArriveCommand) error {
	return s.driverTransition(ctx, cmd.Session, cmd.RideID, cmd.DriverID, StatusArriving, nil)
}

// Start marks the trip as underway and stamps started_at.
func (s *Service) Start(ctx context.Context, cmd StartCommand) error {
	return s.driverTransition(ctx, cmd.Session, cmd.RideID, cmd.DriverID, StatusInProgress, nil)
}

// Complete finishes the trip: stamps completed_at, records the actual
// duration, counts the ride for the driver, and releases driver and vehicle.
func (s *Service) Complete(ctx context.Context, cmd CompleteCommand) error {
	release := func(ctx context.Context, r *Ride) {
		if r.DriverID == nil || r.VehicleID == nil {
			return
		}
		if _, err := s.drivers.Release(ctx, *r.DriverID, *r.VehicleID, true); err != nil {
			s.log.WithError(err).WithFields(logrus.Fields{
				"ride_id": r.ID, "driver_id": *r.DriverID,
			}).Error("driver release failed after completion")
		}
	}
	return s.driverTransition(ctx, cmd.Session, cmd.RideID, cmd.DriverID, StatusCompleted, release)
}

func (s *Service) driverTransition(ctx context.Context, sess auth.Session, rideID, driverID types.ID, to Status, after func(context.Context, *Ride)) error {
	if sess.Role != auth.RoleDriver {
		return ErrForbidden
	}
	if !s.begin(rideID) {
		return ErrInFlight
	}
	defer s.end(rideID)

	r, err := s.store.Get(ctx, rideID)
	if err != nil {
		return err
	}
	if r.DriverID == nil || *r.DriverID != driverID {
		return ErrForbidden
	}
	if !CanTransition(r.Status, to) {
		return ErrInvalidState
	}

	now := time.Now().UTC()
	upd := StatusUpdate{At: now}
	if to == StatusCompleted && r.StartedAt != nil {
		minutes := int(math.Round(now.Sub(*r.StartedAt).Minutes()))
		upd.ActualMinutes = &minutes
	}
	ok, err := s.store.UpdateStatus(ctx, r.ID, r.Status, to, upd)
	if err != nil {
		return err
	}
	if !ok {
		return ErrConflict
	}
	if after != nil {
		after(ctx, r)
	}
	s.commit(ctx, r.ID, r.PassengerID, r.Status, to, auth.RoleDriver, &driverID, now)
	return nil
}

// Cancel withdraws a ride. Passengers may cancel their own pending or
// accepted rides; cancelling an accepted ride releases the driver and
// vehicle back to available.
func (s *Service) Cancel(ctx context.Context, cmd CancelCommand) error {
	if !s.begin(cmd.RideID) {
		return ErrInFlight
	}
	defer s.end(cmd.RideID)

	r, err := s.store.Get(ctx, cmd.RideID)
	if err != nil {
		return err
	}
	switch cmd.Session.Role {
	case auth.RoleAdmin:
	case auth.RolePassenger:
		if r.PassengerID != cmd.Session.UserID {
			return ErrForbidden
		}
	default:
		return ErrForbidden
	}
	if !CanTransition(r.Status, StatusCancelled) {
		return ErrInvalidState
	}

	now := time.Now().UTC()
	ok, err := s.store.UpdateStatus(ctx, r.ID, r.Status, StatusCancelled, StatusUpdate{At: now})
	if err != nil {
		return err
	}
	if !ok {
		return ErrConflict
	}
	if r.Status == StatusAccepted && r.DriverID != nil && r.VehicleID != nil {
		if _, err := s.drivers.Release(ctx, *r.DriverID, *r.VehicleID, false); err != nil {
			s.log.WithError(err).WithFields(logrus.Fields{
				"ride_id": r.ID, "driver_id": *r.DriverID,
			}).Error("driver release failed after cancellation")
		}
	}
	actorID := cmd.Session.UserID
	s.commit(ctx, r.ID, r.PassengerID, r.Status, StatusCancelled, cmd.Session.Role, &actorID, now)
	return nil
}

func (s *Service) Get(ctx context.Context, id types.ID) (*Ride, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) ActiveForPassenger(ctx context.Context, passengerID types.ID) (*Ride, error) {
	return s.store.ActiveByPassenger(ctx, passengerID)
}

func (s *Service) ActiveForDriver(ctx context.Context, driverID types.ID) (*Ride, error) {
	return s.store.ActiveByDriver(ctx, driverID)
}

func (s *Service) History(ctx context.Context, passengerID types.ID, limit int) ([]*Ride, error) {
	if limit <= 0 || limit > 50 {
		limit = 20
	}
	return s.store.HistoryByPassenger(ctx, passengerID, limit)
}

func (s *Service) PendingUnassigned(ctx context.Context, limit int) ([]*Ride, error) {
	if limit <= 0 || limit > 50 {
		limit = 10
	}
	return s.store.PendingUnassigned(ctx, limit)
}

func (s *Service) CompletedSince(ctx context.Context, driverID types.ID, since time.Time) (int, error) {
	return s.store.CompletedByDriverSince(ctx, driverID, since)
}

func (s *Service) estimateMinutes(ctx context.Context, from, to types.Point, distanceKm float64) int {
	if s.estimator != nil {
		if m, err := s.estimator.EstimateMinutes(ctx, from, to); err == nil {
			return int(math.Ceil(m))
		}
	}
	return int(geo.EstimateDurationMinutes(distanceKm))
}

func (s *Service) commit(ctx context.Context, rideID, passengerID types.ID, from, to Status, actorType string, actorID *types.ID, at time.Time) {
	observability.TransitionsTotal.WithLabelValues(string(from), string(to)).Inc()
	_ = s.store.AppendEvent(ctx, &Event{
		RideID:     rideID,
		FromStatus: from,
		ToStatus:   to,
		ActorType:  actorType,
		ActorID:    actorID,
		CreatedAt:  at,
	})
	s.notify(rideID, passengerID, "update")
	s.log.WithFields(logrus.Fields{
		"ride_id": rideID, "from": from, "to": to, "actor": actorType,
	}).Info("ride transition")
}

func (s *Service) notify(rideID, passengerID types.ID, kind string) {
	if s.notifier != nil {
		s.notifier.RideChanged(rideID, passengerID, kind)
	}
}

// begin registers a ride as having a transition in flight. The UI used to be
// the only duplicate-submission guard; here it is enforced in the controller.
func (s *Service) begin(id types.ID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inFlight[id]; busy {
		return false
	}
	s.inFlight[id] = struct{}{}
	return true
}

func (s *Service) end(id types.ID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, id)
}
