// README: Postgres store tests; skipped unless SHUTTLE_TEST_DSN is set.
package ride

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/basgenix4u/fuw-campus-shuttle/internal/types"
)

func setupPGStore(t *testing.T) *PGStore {
	t.Helper()

	dsn := os.Getenv("SHUTTLE_TEST_DSN")
	if dsn == "" {
		t.Skip("SHUTTLE_TEST_DSN not set; skipping DB-backed store tests")
	}

	ctx := context.Background()
	db, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := applyMigration(ctx, db); err != nil {
		t.Fatalf("apply migration: %v", err)
	}
	if _, err := db.Exec(ctx, "TRUNCATE TABLE ride_state_events, rides"); err != nil {
		t.Fatalf("truncate tables: %v", err)
	}

	return NewPGStore(db)
}

func TestPGStoreCreateGet(t *testing.T) {
	store := setupPGStore(t)
	ctx := context.Background()

	dist := 1.4
	est := 5
	r := &Ride{
		ID:               "ride-pg-1",
		PassengerID:      "p_pg",
		Pickup:           types.Point{Lat: 7.8540, Lng: 9.7835},
		PickupAddress:    "Main Gate",
		Dropoff:          types.Point{Lat: 7.8710, Lng: 9.7902},
		DropoffAddress:   "Library",
		Status:           StatusPending,
		DistanceKm:       &dist,
		EstimatedMinutes: &est,
		CreatedAt:        time.Now().UTC(),
	}
	if err := store.Create(ctx, r); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := store.Get(ctx, r.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != StatusPending || got.PassengerID != "p_pg" {
		t.Fatalf("unexpected ride: %+v", got)
	}
	if got.DriverID != nil || got.AcceptedAt != nil {
		t.Fatalf("unassigned ride must have nil driver fields: %+v", got)
	}
	if got.DistanceKm == nil || *got.DistanceKm != dist {
		t.Fatalf("distance not persisted: %v", got.DistanceKm)
	}

	if _, err := store.Get(ctx, "ride-missing"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPGStoreConditionalUpdate(t *testing.T) {
	store := setupPGStore(t)
	ctx := context.Background()

	r := &Ride{
		ID:          "ride-pg-cas",
		PassengerID: "p_cas",
		Pickup:      types.Point{Lat: 7.8540, Lng: 9.7835},
		Dropoff:     types.Point{Lat: 7.8710, Lng: 9.7902},
		Status:      StatusPending,
		CreatedAt:   time.Now().UTC(),
	}
	if err := store.Create(ctx, r); err != nil {
		t.Fatalf("create: %v", err)
	}

	now := time.Now().UTC()
	ok, err := store.UpdateStatus(ctx, r.ID, StatusPending, StatusAccepted, StatusUpdate{
		At: now,
		Assign: &Assignment{
			DriverID:         "d_cas",
			VehicleID:        "v_cas",
			DistanceKm:       0.8,
			EstimatedMinutes: 3,
			Method:           AllocationDriver,
			Score:            92,
		},
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !ok {
		t.Fatal("expected first conditional update to win")
	}

	// Second writer with a stale expectation loses without error.
	ok, err = store.UpdateStatus(ctx, r.ID, StatusPending, StatusAccepted, StatusUpdate{At: now})
	if err != nil {
		t.Fatalf("stale update: %v", err)
	}
	if ok {
		t.Fatal("stale conditional update must not win")
	}

	got, err := store.Get(ctx, r.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != StatusAccepted {
		t.Fatalf("expected accepted, got %s", got.Status)
	}
	if got.DriverID == nil || *got.DriverID != "d_cas" {
		t.Fatalf("assignment not persisted: %+v", got)
	}
	if got.AcceptedAt == nil {
		t.Fatal("accepted_at not stamped")
	}
	if got.MatchScore == nil || *got.MatchScore != 92 {
		t.Fatalf("match score not persisted: %v", got.MatchScore)
	}
}

func TestPGStoreOneActiveRidePerDriver(t *testing.T) {
	store := setupPGStore(t)
	ctx := context.Background()

	now := time.Now().UTC()
	for _, id := range []types.ID{"ride-pg-uniq-1", "ride-pg-uniq-2"} {
		r := &Ride{
			ID:          id,
			PassengerID: "p_" + id,
			Pickup:      types.Point{Lat: 7.8540, Lng: 9.7835},
			Dropoff:     types.Point{Lat: 7.8710, Lng: 9.7902},
			Status:      StatusPending,
			CreatedAt:   now,
		}
		if err := store.Create(ctx, r); err != nil {
			t.Fatalf("create %s: %v", id, err)
		}
	}

	assign := &Assignment{DriverID: "d_uniq", VehicleID: "v_uniq", Method: AllocationDriver}
	ok, err := store.UpdateStatus(ctx, "ride-pg-uniq-1", StatusPending, StatusAccepted, StatusUpdate{At: now, Assign: assign})
	if err != nil || !ok {
		t.Fatalf("first accept: ok=%v err=%v", ok, err)
	}

	// The partial unique index blocks a second active assignment for the
	// same driver even though this ride's own predicate still matches.
	if _, err := store.UpdateStatus(ctx, "ride-pg-uniq-2", StatusPending, StatusAccepted, StatusUpdate{At: now, Assign: assign}); err != ErrActiveRide {
		t.Fatalf("expected ErrActiveRide, got %v", err)
	}

	got, err := store.Get(ctx, "ride-pg-uniq-2")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != StatusPending {
		t.Fatalf("losing ride must stay pending, got %s", got.Status)
	}
}

func TestPGStoreActiveQueries(t *testing.T) {
	store := setupPGStore(t)
	ctx := context.Background()

	r := &Ride{
		ID:          "ride-pg-active",
		PassengerID: "p_active",
		Pickup:      types.Point{Lat: 7.8540, Lng: 9.7835},
		Dropoff:     types.Point{Lat: 7.8710, Lng: 9.7902},
		Status:      StatusPending,
		CreatedAt:   time.Now().UTC(),
	}
	if err := store.Create(ctx, r); err != nil {
		t.Fatalf("create: %v", err)
	}

	active, err := store.ActiveByPassenger(ctx, "p_active")
	if err != nil {
		t.Fatalf("active by passenger: %v", err)
	}
	if active == nil || active.ID != r.ID {
		t.Fatalf("expected pending ride to count as active, got %+v", active)
	}

	pending, err := store.PendingUnassigned(ctx, 5)
	if err != nil {
		t.Fatalf("pending unassigned: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != r.ID {
		t.Fatalf("expected ride in pending queue, got %+v", pending)
	}

	now := time.Now().UTC()
	if ok, err := store.UpdateStatus(ctx, r.ID, StatusPending, StatusAccepted, StatusUpdate{
		At:     now,
		Assign: &Assignment{DriverID: "d_active", VehicleID: "v_active", Method: AllocationDriver},
	}); err != nil || !ok {
		t.Fatalf("accept: ok=%v err=%v", ok, err)
	}

	byDriver, err := store.ActiveByDriver(ctx, "d_active")
	if err != nil {
		t.Fatalf("active by driver: %v", err)
	}
	if byDriver == nil || byDriver.ID != r.ID {
		t.Fatalf("expected active ride for driver, got %+v", byDriver)
	}

	occ, err := store.ActiveAssignments(ctx)
	if err != nil {
		t.Fatalf("active assignments: %v", err)
	}
	if len(occ) != 1 || occ[0].DriverID != "d_active" || occ[0].VehicleID != "v_active" {
		t.Fatalf("unexpected assignments: %+v", occ)
	}
}

func applyMigration(ctx context.Context, db *pgxpool.Pool) error {
	root, err := repoRoot()
	if err != nil {
		return err
	}
	content, err := os.ReadFile(filepath.Join(root, "migrations", "0001_init.sql"))
	if err != nil {
		return err
	}
	cleaned := stripSQLComments(string(content))
	for _, stmt := range splitSQL(cleaned) {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func repoRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for i := 0; i < 6; i++ {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", os.ErrNotExist
}

func stripSQLComments(input string) string {
	var b strings.Builder
	scanner := bufio.NewScanner(strings.NewReader(input))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "--") {
			continue
		}
		b.WriteString(scanner.Text())
		b.WriteString("\n")
	}
	return b.String()
}

func splitSQL(input string) []string {
	parts := strings.Split(input, ";")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		stmt := strings.TrimSpace(p)
		if stmt == "" {
			continue
		}
		out = append(out, stmt)
	}
	return out
}
