// README: Driver/vehicle store backed by PostgreSQL via pgx.
package driver

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/basgenix4u/fuw-campus-shuttle/internal/types"
)

type PGStore struct {
	db *pgxpool.Pool
}

func NewPGStore(db *pgxpool.Pool) *PGStore {
	return &PGStore{db: db}
}

const driverColumns = `
        d.id, d.user_id, d.vehicle_id, u.full_name, d.status, d.rating, d.total_rides`

func (s *PGStore) Get(ctx context.Context, id types.ID) (*Driver, error) {
	row := s.db.QueryRow(ctx, `
        SELECT `+driverColumns+`
        FROM drivers d JOIN users u ON u.id = d.user_id
        WHERE d.id = $1`, string(id))
	return scanDriver(row)
}

func (s *PGStore) GetByUser(ctx context.Context, userID types.ID) (*Driver, error) {
	row := s.db.QueryRow(ctx, `
        SELECT `+driverColumns+`
        FROM drivers d JOIN users u ON u.id = d.user_id
        WHERE d.user_id = $1`, string(userID))
	return scanDriver(row)
}

func (s *PGStore) ListByStatus(ctx context.Context, status Status) ([]*Driver, error) {
	rows, err := s.db.Query(ctx, `
        SELECT `+driverColumns+`
        FROM drivers d JOIN users u ON u.id = d.user_id
        WHERE d.status = $1
        ORDER BY d.id`, string(status))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Driver
	for rows.Next() {
		d, err := scanDriver(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *PGStore) SetStatus(ctx context.Context, driverID types.ID, status Status) (bool, error) {
	tag, err := s.db.Exec(ctx, `
        UPDATE drivers SET status = $2 WHERE id = $1 AND status <> $2`,
		string(driverID), string(status))
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *PGStore) IncrementRides(ctx context.Context, driverID types.ID) error {
	_, err := s.db.Exec(ctx, `
        UPDATE drivers SET total_rides = total_rides + 1 WHERE id = $1`, string(driverID))
	return err
}

func (s *PGStore) Vehicle(ctx context.Context, id types.ID) (*Vehicle, error) {
	row := s.db.QueryRow(ctx, `
        SELECT id, vehicle_name, vehicle_number, capacity, status, current_passengers,
               current_latitude, current_longitude
        FROM vehicles
        WHERE id = $1`, string(id))

	var v Vehicle
	var lat, lng sql.NullFloat64
	err := row.Scan(&v.ID, &v.Name, &v.Number, &v.Capacity, &v.Status, &v.Passengers, &lat, &lng)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if lat.Valid && lng.Valid {
		v.Position = &types.Point{Lat: lat.Float64, Lng: lng.Float64}
	}
	return &v, nil
}

func (s *PGStore) SetVehicleStatus(ctx context.Context, vehicleID types.ID, status VehicleStatus, passengers int) (bool, error) {
	tag, err := s.db.Exec(ctx, `
        UPDATE vehicles SET status = $2, current_passengers = $3
        WHERE id = $1 AND (status <> $2 OR current_passengers <> $3)`,
		string(vehicleID), string(status), passengers)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *PGStore) SetVehiclePosition(ctx context.Context, vehicleID types.ID, p types.Point) error {
	_, err := s.db.Exec(ctx, `
        UPDATE vehicles SET current_latitude = $2, current_longitude = $3 WHERE id = $1`,
		string(vehicleID), p.Lat, p.Lng)
	return err
}

func scanDriver(row pgx.Row) (*Driver, error) {
	var d Driver
	err := row.Scan(&d.ID, &d.UserID, &d.VehicleID, &d.Name, &d.Status, &d.Rating, &d.TotalRides)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}
