// README: Campus location store backed by PostgreSQL via pgx.
package location

import (
	"context"
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

func (s *PGStore) Get(ctx context.Context, id types.ID) (*CampusLocation, error) {
	row := s.db.QueryRow(ctx, `
        SELECT id, name, location_type, latitude, longitude, is_shuttle_stop
        FROM campus_locations
        WHERE id = $1`, string(id))
	loc, err := scanLocation(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return loc, err
}

func (s *PGStore) ListStops(ctx context.Context) ([]*CampusLocation, error) {
	rows, err := s.db.Query(ctx, `
        SELECT id, name, location_type, latitude, longitude, is_shuttle_stop
        FROM campus_locations
        WHERE is_shuttle_stop
        ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*CampusLocation
	for rows.Next() {
		loc, err := scanLocation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, loc)
	}
	return out, rows.Err()
}

func scanLocation(row pgx.Row) (*CampusLocation, error) {
	var loc CampusLocation
	if err := row.Scan(&loc.ID, &loc.Name, &loc.Type, &loc.Position.Lat, &loc.Position.Lng, &loc.IsShuttleStop); err != nil {
		return nil, err
	}
	return &loc, nil
}
