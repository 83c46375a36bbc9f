// README: Vehicle position index backed by Redis GEO.
package matching

import (
	"context"

	"github.com/redis/go-redis/v9"

	"github.com/basgenix4u/fuw-campus-shuttle/internal/types"
)

const vehicleGeoKey = "matching:vehicles"

// GeoStore keeps the last reported position of each vehicle in a Redis GEO
// set keyed by vehicle ID.
type GeoStore struct {
	redis *redis.Client
}

func NewGeoStore(redis *redis.Client) *GeoStore {
	return &GeoStore{redis: redis}
}

func (s *GeoStore) Upsert(ctx context.Context, vehicleID types.ID, p types.Point) error {
	return s.redis.GeoAdd(ctx, vehicleGeoKey, &redis.GeoLocation{
		Name:      string(vehicleID),
		Longitude: p.Lng,
		Latitude:  p.Lat,
	}).Err()
}

func (s *GeoStore) Remove(ctx context.Context, vehicleID types.ID) error {
	return s.redis.ZRem(ctx, vehicleGeoKey, string(vehicleID)).Err()
}

// Positions resolves the known positions of the given vehicles in one round
// trip. Vehicles never seen by the index are absent from the result.
func (s *GeoStore) Positions(ctx context.Context, vehicleIDs []types.ID) (map[types.ID]types.Point, error) {
	if len(vehicleIDs) == 0 {
		return map[types.ID]types.Point{}, nil
	}
	members := make([]string, len(vehicleIDs))
	for i, id := range vehicleIDs {
		members[i] = string(id)
	}
	pos, err := s.redis.GeoPos(ctx, vehicleGeoKey, members...).Result()
	if err != nil {
		return nil, err
	}
	out := make(map[types.ID]types.Point, len(pos))
	for i, p := range pos {
		if p == nil {
			continue
		}
		out[vehicleIDs[i]] = types.Point{Lat: p.Latitude, Lng: p.Longitude}
	}
	return out, nil
}

// Nearby returns vehicle IDs within radiusKm of p, nearest first.
func (s *GeoStore) Nearby(ctx context.Context, p types.Point, radiusKm float64, limit int) ([]types.ID, error) {
	results, err := s.redis.GeoSearch(ctx, vehicleGeoKey, &redis.GeoSearchQuery{
		Longitude:  p.Lng,
		Latitude:   p.Lat,
		Radius:     radiusKm,
		RadiusUnit: "km",
		Sort:       "ASC",
		Count:      limit,
	}).Result()
	if err != nil {
		return nil, err
	}
	ids := make([]types.ID, len(results))
	for i, r := range results {
		ids[i] = types.ID(r)
	}
	return ids, nil
}
