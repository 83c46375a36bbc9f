// README: End-to-end API tests over in-memory stores.
package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/basgenix4u/fuw-campus-shuttle/internal/auth"
	"github.com/basgenix4u/fuw-campus-shuttle/internal/config"
	"github.com/basgenix4u/fuw-campus-shuttle/internal/modules/driver"
	"github.com/basgenix4u/fuw-campus-shuttle/internal/modules/location"
	"github.com/basgenix4u/fuw-campus-shuttle/internal/modules/matching"
	"github.com/basgenix4u/fuw-campus-shuttle/internal/modules/ride"
	"github.com/basgenix4u/fuw-campus-shuttle/internal/notify"
	"github.com/basgenix4u/fuw-campus-shuttle/internal/types"
)

type apiEnv struct {
	handler http.Handler
	drivers *driver.MemStore
}

func newAPIEnv(t *testing.T) *apiEnv {
	t.Helper()
	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)

	authStore := auth.NewMemStore()
	authSvc := auth.NewService(authStore, "test-secret", time.Hour)

	rideStore := ride.NewMemStore()
	driverStore := driver.NewMemStore()

	hub := notify.NewHub()
	driverSvc := driver.NewService(driverStore, nil, nil, log)
	rideSvc := ride.NewService(rideStore, driverSvc, log).WithNotifier(hub)
	driverSvc.BindRides(rideSvc)

	locStore := &memLocations{stops: []*location.CampusLocation{
		{ID: "loc_main_gate", Name: "Main Gate", Position: types.Point{Lat: 7.8561, Lng: 9.7791}, IsShuttleStop: true},
		{ID: "loc_library", Name: "University Library", Position: types.Point{Lat: 7.8544, Lng: 9.7830}, IsShuttleStop: true},
	}}
	matchCfg := config.MatchingConfig{
		CampusCenter: config.Coordinate{Lat: 7.8540, Lng: 9.7835},
	}
	locSvc := location.NewService(locStore, matchCfg)
	matcher := matching.NewService(driverSvc, nil, matchCfg, log)

	handler := NewRouter(RouterDeps{
		Auth:      authSvc,
		Rides:     rideSvc,
		Drivers:   driverSvc,
		Locations: locSvc,
		Matcher:   matcher,
		Hub:       hub,
		Log:       log,
	})
	return &apiEnv{handler: handler, drivers: driverStore}
}

type memLocations struct{ stops []*location.CampusLocation }

func (m *memLocations) Get(_ context.Context, id types.ID) (*location.CampusLocation, error) {
	for _, s := range m.stops {
		if s.ID == id {
			return s, nil
		}
	}
	return nil, location.ErrNotFound
}

func (m *memLocations) ListStops(_ context.Context) ([]*location.CampusLocation, error) {
	return m.stops, nil
}

func (e *apiEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	e.handler.ServeHTTP(w, req)
	return w
}

func (e *apiEnv) register(t *testing.T, email, role string) (types.ID, string) {
	t.Helper()
	w := e.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email": email, "password": "pass-1234", "full_name": "Test User", "role": role,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var reg struct {
		UserID types.ID `json:"user_id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &reg))

	w = e.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": email, "password": "pass-1234",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var login struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &login))
	return reg.UserID, login.Token
}

func TestFullRideFlowOverAPI(t *testing.T) {
	env := newAPIEnv(t)

	_, passengerToken := env.register(t, "passenger@fuwukari.edu.ng", "passenger")
	driverUserID, driverToken := env.register(t, "driver@fuwukari.edu.ng", "driver")

	env.drivers.Seed(
		driver.Driver{ID: "d1", UserID: driverUserID, VehicleID: "v1", Name: "Test Driver", Status: driver.StatusOffline, Rating: 5},
		driver.Vehicle{ID: "v1", Name: "Shuttle Bus", Number: "FUW-001", Capacity: 14, Status: driver.VehicleOffline},
	)

	// Driver comes online.
	w := env.do(t, http.MethodPost, "/api/driver/availability/toggle", driverToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "available")

	// The shuttle now shows on the passenger map.
	w = env.do(t, http.MethodGet, "/api/vehicles/nearby", passengerToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "FUW-001")

	// Passenger requests a ride between two stops.
	w = env.do(t, http.MethodPost, "/api/passenger/rides", passengerToken, map[string]any{
		"pickup":  map[string]any{"location_id": "loc_main_gate"},
		"dropoff": map[string]any{"location_id": "loc_library"},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created struct {
		Ride struct {
			ID     types.ID `json:"id"`
			Status string   `json:"status"`
		} `json:"ride"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "pending", created.Ride.Status)
	rideID := created.Ride.ID

	// The ride shows up in the driver's pending queue.
	w = env.do(t, http.MethodGet, "/api/driver/rides/pending", driverToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), string(rideID))

	// Driver accepts and runs the trip to completion.
	base := fmt.Sprintf("/api/driver/rides/%s", rideID)
	for _, step := range []string{"accept", "arrive", "start", "complete"} {
		w = env.do(t, http.MethodPost, base+"/"+step, driverToken, nil)
		require.Equal(t, http.StatusOK, w.Code, "step %s: %s", step, w.Body.String())
	}

	// Passenger sees the completed ride in history.
	w = env.do(t, http.MethodGet, "/api/passenger/rides/history", passengerToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "completed")

	// Driver stats reflect the completed trip.
	w = env.do(t, http.MethodGet, "/api/driver/stats", driverToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"rides_today":1`)
}

func TestCancelRideOverAPI(t *testing.T) {
	env := newAPIEnv(t)
	_, passengerToken := env.register(t, "p2@fuwukari.edu.ng", "passenger")

	w := env.do(t, http.MethodPost, "/api/passenger/rides", passengerToken, map[string]any{
		"pickup":  map[string]any{"lat": 7.8561, "lng": 9.7791},
		"dropoff": map[string]any{"lat": 7.8544, "lng": 9.7830},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created struct {
		Ride struct {
			ID types.ID `json:"id"`
		} `json:"ride"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	w = env.do(t, http.MethodPost, fmt.Sprintf("/api/passenger/rides/%s/cancel", created.Ride.ID), passengerToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// A second cancel is rejected: the ride is already terminal.
	w = env.do(t, http.MethodPost, fmt.Sprintf("/api/passenger/rides/%s/cancel", created.Ride.ID), passengerToken, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestRoleBoundariesOverAPI(t *testing.T) {
	env := newAPIEnv(t)
	_, passengerToken := env.register(t, "p3@fuwukari.edu.ng", "passenger")

	// A passenger cannot reach driver routes.
	w := env.do(t, http.MethodGet, "/api/driver/stats", passengerToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Unauthenticated requests are rejected.
	w = env.do(t, http.MethodGet, "/api/locations/stops", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestStopsAndNearestOverAPI(t *testing.T) {
	env := newAPIEnv(t)
	_, token := env.register(t, "p4@fuwukari.edu.ng", "passenger")

	w := env.do(t, http.MethodGet, "/api/locations/stops", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "Main Gate")

	w = env.do(t, http.MethodGet, "/api/locations/nearest-stop?lat=7.8560&lng=9.7792", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "loc_main_gate")

	// No coordinates: the campus center picks the nearest stop to it.
	w = env.do(t, http.MethodGet, "/api/locations/nearest-stop", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "loc_library")
}
