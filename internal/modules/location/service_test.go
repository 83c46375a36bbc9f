// README: Campus location service tests.
package location

import (
	"context"
	"testing"

	"github.com/basgenix4u/fuw-campus-shuttle/internal/config"
	"github.com/basgenix4u/fuw-campus-shuttle/internal/types"
)

type memStore struct {
	stops []*CampusLocation
}

func (m *memStore) Get(_ context.Context, id types.ID) (*CampusLocation, error) {
	for _, s := range m.stops {
		if s.ID == id {
			return s, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memStore) ListStops(_ context.Context) ([]*CampusLocation, error) {
	return m.stops, nil
}

func testConfig() config.MatchingConfig {
	return config.MatchingConfig{
		CampusCenter: config.Coordinate{Lat: 7.8540, Lng: 9.7835},
	}
}

func testStops() *memStore {
	return &memStore{stops: []*CampusLocation{
		{ID: "loc_main_gate", Name: "Main Gate", Position: types.Point{Lat: 7.8561, Lng: 9.7791}, IsShuttleStop: true},
		{ID: "loc_library", Name: "University Library", Position: types.Point{Lat: 7.8544, Lng: 9.7830}, IsShuttleStop: true},
		{ID: "loc_sports", Name: "Sports Complex", Position: types.Point{Lat: 7.8501, Lng: 9.7883}, IsShuttleStop: true},
	}}
}

func TestNearestStop(t *testing.T) {
	svc := NewService(testStops(), testConfig())

	// A point right next to the library must resolve to it.
	stop, km, err := svc.NearestStop(context.Background(), types.Point{Lat: 7.8545, Lng: 9.7831})
	if err != nil {
		t.Fatalf("nearest stop: %v", err)
	}
	if stop.ID != "loc_library" {
		t.Fatalf("expected loc_library, got %s", stop.ID)
	}
	if km > 0.1 {
		t.Fatalf("expected sub-100m distance, got %v km", km)
	}
}

func TestNearestStopEmpty(t *testing.T) {
	svc := NewService(&memStore{}, testConfig())
	if _, _, err := svc.NearestStop(context.Background(), types.Point{Lat: 7.85, Lng: 9.78}); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound with no stops, got %v", err)
	}
}

func TestResolveFallsBackToCampusCenter(t *testing.T) {
	svc := NewService(testStops(), testConfig())

	got := svc.Resolve(nil)
	if got.Lat != 7.8540 || got.Lng != 9.7835 {
		t.Fatalf("expected campus center fallback, got %+v", got)
	}

	p := types.Point{Lat: 7.86, Lng: 9.79}
	if got := svc.Resolve(&p); got != p {
		t.Fatalf("expected reported position to pass through, got %+v", got)
	}
}
