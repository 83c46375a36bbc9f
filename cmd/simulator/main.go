// README: Vehicle simulator; logs in as a driver and streams positions along a
// loop through the campus stops so the map and matching have live data.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"
)

type Config struct {
	BaseURL  string
	Email    string
	Password string
	Interval time.Duration
	StepKm   float64
}

func loadConfig() Config {
	var cfg Config
	flag.StringVar(&cfg.BaseURL, "base-url", envOrDefault("SHUTTLE_SIM_BASE_URL", "http://localhost:8080"), "API base URL")
	flag.StringVar(&cfg.Email, "email", envOrDefault("SHUTTLE_SIM_EMAIL", "driver@fuwukari.edu.ng"), "Driver account email")
	flag.StringVar(&cfg.Password, "password", envOrDefault("SHUTTLE_SIM_PASSWORD", "password"), "Driver account password")
	flag.DurationVar(&cfg.Interval, "interval", envOrDefaultDuration("SHUTTLE_SIM_INTERVAL", 3*time.Second), "Position report interval")
	flag.Float64Var(&cfg.StepKm, "step-km", 0.05, "Distance moved per report")
	flag.Parse()
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return cfg
}

type point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// A loop through the seeded shuttle stops.
var route = []point{
	{7.8561, 9.7791}, // Main Gate
	{7.8552, 9.7810}, // Senate Building
	{7.8544, 9.7830}, // University Library
	{7.8536, 9.7851}, // Science Complex
	{7.8528, 9.7872}, // Student Hostel A
	{7.8536, 9.7851},
	{7.8544, 9.7830},
	{7.8552, 9.7810},
}

type simulator struct {
	cfg   Config
	httpc *http.Client
	token string
}

func main() {
	cfg := loadConfig()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sim := &simulator{cfg: cfg, httpc: &http.Client{Timeout: 10 * time.Second}}
	if err := sim.login(ctx); err != nil {
		log.Fatalf("login: %v", err)
	}
	if err := sim.ensureAvailable(ctx); err != nil {
		log.Printf("availability toggle: %v", err)
	}

	log.Printf("simulating %s every %s", cfg.Email, cfg.Interval)
	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	leg := 0
	pos := route[0]
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pos, leg = advance(pos, leg, cfg.StepKm)
			if err := sim.report(ctx, pos); err != nil {
				log.Printf("report: %v", err)
			}
		}
	}
}

// advance moves stepKm toward the current leg target, hopping to the next leg
// on arrival.
func advance(pos point, leg int, stepKm float64) (point, int) {
	target := route[(leg+1)%len(route)]
	dLat := target.Lat - pos.Lat
	dLng := target.Lng - pos.Lng
	// Rough degrees-per-km near the equator; close enough for a simulator.
	step := stepKm / 111.0
	dist := dLat*dLat + dLng*dLng
	if dist < step*step {
		return target, (leg + 1) % len(route)
	}
	scale := step / math.Sqrt(dist)
	return point{Lat: pos.Lat + dLat*scale, Lng: pos.Lng + dLng*scale}, leg
}

func (s *simulator) login(ctx context.Context) error {
	body, status, err := s.post(ctx, "/api/auth/login", map[string]string{
		"email": s.cfg.Email, "password": s.cfg.Password,
	})
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("status %d: %s", status, body)
	}
	var resp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return err
	}
	s.token = resp.Token
	return nil
}

func (s *simulator) ensureAvailable(ctx context.Context) error {
	body, status, err := s.post(ctx, "/api/driver/availability/toggle", nil)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("status %d: %s", status, body)
	}
	if strings.Contains(string(body), "offline") {
		// The toggle took an available driver offline; flip back.
		_, _, err = s.post(ctx, "/api/driver/availability/toggle", nil)
	}
	return err
}

func (s *simulator) report(ctx context.Context, p point) error {
	req, err := s.newRequest(ctx, http.MethodPut, "/api/driver/vehicle/position", p)
	if err != nil {
		return err
	}
	resp, err := s.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	return nil
}

func (s *simulator) post(ctx context.Context, path string, payload any) ([]byte, int, error) {
	req, err := s.newRequest(ctx, http.MethodPost, path, payload)
	if err != nil {
		return nil, 0, err
	}
	resp, err := s.httpc.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()
	var buf bytes.Buffer
	_, _ = buf.ReadFrom(resp.Body)
	return buf.Bytes(), resp.StatusCode, nil
}

func (s *simulator) newRequest(ctx context.Context, method, path string, payload any) (*http.Request, error) {
	var body bytes.Buffer
	if payload != nil {
		if err := json.NewEncoder(&body).Encode(payload); err != nil {
			return nil, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, s.cfg.BaseURL+path, &body)
	if err != nil {
		return nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	return req, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envOrDefaultDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
