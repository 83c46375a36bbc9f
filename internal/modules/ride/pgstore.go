// README: Ride store backed by PostgreSQL via pgx.
package ride

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/basgenix4u/fuw-campus-shuttle/internal/types"
)

type PGStore struct {
	db *pgxpool.Pool
}

func NewPGStore(db *pgxpool.Pool) *PGStore {
	return &PGStore{db: db}
}

const rideColumns = `
        id, passenger_id, driver_id, vehicle_id,
        pickup_location_id, pickup_latitude, pickup_longitude, pickup_address,
        dropoff_location_id, dropoff_latitude, dropoff_longitude, dropoff_address,
        status, distance_km, estimated_duration_minutes, actual_duration_minutes,
        allocation_method, match_score,
        created_at, accepted_at, started_at, completed_at, cancelled_at`

func (s *PGStore) Create(ctx context.Context, r *Ride) error {
	_, err := s.db.Exec(ctx, `
        INSERT INTO rides (
            id, passenger_id,
            pickup_location_id, pickup_latitude, pickup_longitude, pickup_address,
            dropoff_location_id, dropoff_latitude, dropoff_longitude, dropoff_address,
            status, distance_km, estimated_duration_minutes, created_at
        ) VALUES (
            $1, $2,
            $3, $4, $5, $6,
            $7, $8, $9, $10,
            $11, $12, $13, $14
        )`,
		string(r.ID),
		string(r.PassengerID),
		idPtr(r.PickupLocationID),
		r.Pickup.Lat, r.Pickup.Lng, r.PickupAddress,
		idPtr(r.DropoffLocationID),
		r.Dropoff.Lat, r.Dropoff.Lng, r.DropoffAddress,
		string(r.Status),
		r.DistanceKm,
		r.EstimatedMinutes,
		r.CreatedAt,
	)
	return err
}

func (s *PGStore) Get(ctx context.Context, id types.ID) (*Ride, error) {
	row := s.db.QueryRow(ctx, `SELECT `+rideColumns+` FROM rides WHERE id = $1`, string(id))
	r, err := scanRide(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return r, err
}

func (s *PGStore) UpdateStatus(ctx context.Context, id types.ID, from, to Status, upd StatusUpdate) (bool, error) {
	var driverID, vehicleID *string
	var distance, score *float64
	var estimated *int
	var method *string
	if a := upd.Assign; a != nil {
		d, v := string(a.DriverID), string(a.VehicleID)
		driverID, vehicleID = &d, &v
		distance = &a.DistanceKm
		estimated = &a.EstimatedMinutes
		m := string(a.Method)
		method = &m
		score = &a.Score
	}
	tag, err := s.db.Exec(ctx, `
        UPDATE rides
        SET status = $1,
            driver_id = COALESCE($2, driver_id),
            vehicle_id = COALESCE($3, vehicle_id),
            distance_km = COALESCE($4, distance_km),
            estimated_duration_minutes = COALESCE($5, estimated_duration_minutes),
            allocation_method = COALESCE($6, allocation_method),
            match_score = COALESCE($7, match_score),
            actual_duration_minutes = COALESCE($8, actual_duration_minutes),
            accepted_at = CASE WHEN $1 = 'accepted' THEN $9 ELSE accepted_at END,
            started_at = CASE WHEN $1 = 'in_progress' THEN $9 ELSE started_at END,
            completed_at = CASE WHEN $1 = 'completed' THEN $9 ELSE completed_at END,
            cancelled_at = CASE WHEN $1 = 'cancelled' THEN $9 ELSE cancelled_at END
        WHERE id = $10 AND status = $11`,
		string(to),
		driverID,
		vehicleID,
		distance,
		estimated,
		method,
		score,
		upd.ActualMinutes,
		upd.At,
		string(id),
		string(from),
	)
	if err != nil {
		// The partial unique index on active rides rejects a driver's second
		// concurrent accept after the per-ride checks already passed.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return false, ErrActiveRide
		}
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *PGStore) ActiveByDriver(ctx context.Context, driverID types.ID) (*Ride, error) {
	row := s.db.QueryRow(ctx, `
        SELECT `+rideColumns+`
        FROM rides
        WHERE driver_id = $1 AND status IN ('accepted','arriving','in_progress')
        LIMIT 1`, string(driverID))
	r, err := scanRide(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return r, err
}

func (s *PGStore) ActiveByPassenger(ctx context.Context, passengerID types.ID) (*Ride, error) {
	row := s.db.QueryRow(ctx, `
        SELECT `+rideColumns+`
        FROM rides
        WHERE passenger_id = $1 AND status IN ('pending','accepted','arriving','in_progress')
        ORDER BY created_at DESC
        LIMIT 1`, string(passengerID))
	r, err := scanRide(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return r, err
}

func (s *PGStore) ActiveAssignments(ctx context.Context) ([]Occupied, error) {
	rows, err := s.db.Query(ctx, `
        SELECT driver_id, vehicle_id
        FROM rides
        WHERE status IN ('accepted','arriving','in_progress')`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Occupied
	for rows.Next() {
		var d, v string
		if err := rows.Scan(&d, &v); err != nil {
			return nil, err
		}
		out = append(out, Occupied{DriverID: types.ID(d), VehicleID: types.ID(v)})
	}
	return out, rows.Err()
}

func (s *PGStore) PendingUnassigned(ctx context.Context, limit int) ([]*Ride, error) {
	rows, err := s.db.Query(ctx, `
        SELECT `+rideColumns+`
        FROM rides
        WHERE status = 'pending' AND driver_id IS NULL
        ORDER BY created_at ASC
        LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRides(rows)
}

func (s *PGStore) HistoryByPassenger(ctx context.Context, passengerID types.ID, limit int) ([]*Ride, error) {
	rows, err := s.db.Query(ctx, `
        SELECT `+rideColumns+`
        FROM rides
        WHERE passenger_id = $1 AND status IN ('completed','cancelled')
        ORDER BY created_at DESC
        LIMIT $2`, string(passengerID), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRides(rows)
}

func (s *PGStore) CompletedByDriverSince(ctx context.Context, driverID types.ID, since time.Time) (int, error) {
	row := s.db.QueryRow(ctx, `
        SELECT COUNT(*)
        FROM rides
        WHERE driver_id = $1 AND status = 'completed' AND completed_at >= $2`,
		string(driverID), since)
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (s *PGStore) AppendEvent(ctx context.Context, e *Event) error {
	_, err := s.db.Exec(ctx, `
        INSERT INTO ride_state_events (ride_id, from_status, to_status, actor_type, actor_id, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)`,
		string(e.RideID),
		string(e.FromStatus),
		string(e.ToStatus),
		e.ActorType,
		idPtr(e.ActorID),
		e.CreatedAt,
	)
	return err
}

func scanRides(rows pgx.Rows) ([]*Ride, error) {
	var out []*Ride
	for rows.Next() {
		r, err := scanRide(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func scanRide(row pgx.Row) (*Ride, error) {
	var r Ride
	var driverID, vehicleID, pickupLoc, dropoffLoc, method sql.NullString
	var distance, score sql.NullFloat64
	var estimated, actual sql.NullInt64
	var acceptedAt, startedAt, completedAt, cancelledAt sql.NullTime

	err := row.Scan(
		&r.ID, &r.PassengerID, &driverID, &vehicleID,
		&pickupLoc, &r.Pickup.Lat, &r.Pickup.Lng, &r.PickupAddress,
		&dropoffLoc, &r.Dropoff.Lat, &r.Dropoff.Lng, &r.DropoffAddress,
		&r.Status, &distance, &estimated, &actual,
		&method, &score,
		&r.CreatedAt, &acceptedAt, &startedAt, &completedAt, &cancelledAt,
	)
	if err != nil {
		return nil, err
	}

	r.DriverID = toIDPtr(driverID)
	r.VehicleID = toIDPtr(vehicleID)
	r.PickupLocationID = toIDPtr(pickupLoc)
	r.DropoffLocationID = toIDPtr(dropoffLoc)
	if method.Valid {
		m := AllocationMethod(method.String)
		r.AllocationMethod = &m
	}
	if distance.Valid {
		r.DistanceKm = &distance.Float64
	}
	if score.Valid {
		r.MatchScore = &score.Float64
	}
	if estimated.Valid {
		n := int(estimated.Int64)
		r.EstimatedMinutes = &n
	}
	if actual.Valid {
		n := int(actual.Int64)
		r.ActualMinutes = &n
	}
	r.AcceptedAt = toTimePtr(acceptedAt)
	r.StartedAt = toTimePtr(startedAt)
	r.CompletedAt = toTimePtr(completedAt)
	r.CancelledAt = toTimePtr(cancelledAt)
	return &r, nil
}

func idPtr(v *types.ID) *string {
	if v == nil {
		return nil
	}
	s := string(*v)
	return &s
}

func toIDPtr(v sql.NullString) *types.ID {
	if !v.Valid {
		return nil
	}
	id := types.ID(v.String)
	return &id
}

func toTimePtr(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time
	return &t
}
