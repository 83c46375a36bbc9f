// README: Trip duration estimation; Google routing when configured, speed heuristic otherwise.
package eta

import (
	"context"
	"fmt"

	"googlemaps.github.io/maps"

	"github.com/basgenix4u/fuw-campus-shuttle/internal/geo"
	"github.com/basgenix4u/fuw-campus-shuttle/internal/types"
)

// Estimator produces a trip duration estimate in minutes.
type Estimator interface {
	EstimateMinutes(ctx context.Context, from, to types.Point) (float64, error)
}

// GoogleEstimator queries the Distance Matrix API for a driving duration.
type GoogleEstimator struct {
	client *maps.Client
}

func NewGoogleEstimator(apiKey string) (*GoogleEstimator, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("maps client: %w", err)
	}
	return &GoogleEstimator{client: client}, nil
}

func (g *GoogleEstimator) EstimateMinutes(ctx context.Context, from, to types.Point) (float64, error) {
	r := &maps.DistanceMatrixRequest{
		Origins:      []string{fmt.Sprintf("%f,%f", from.Lat, from.Lng)},
		Destinations: []string{fmt.Sprintf("%f,%f", to.Lat, to.Lng)},
		Mode:         maps.TravelModeDriving,
	}
	resp, err := g.client.DistanceMatrix(ctx, r)
	if err != nil {
		return 0, fmt.Errorf("distance matrix: %w", err)
	}
	if len(resp.Rows) == 0 || len(resp.Rows[0].Elements) == 0 {
		return 0, fmt.Errorf("distance matrix: empty response")
	}
	el := resp.Rows[0].Elements[0]
	if el.Status != "OK" {
		return 0, fmt.Errorf("distance matrix: element status %s", el.Status)
	}
	return el.Duration.Minutes(), nil
}

// Heuristic falls back to the fixed-speed estimate when no routing backend is
// configured.
type Heuristic struct{}

func (Heuristic) EstimateMinutes(_ context.Context, from, to types.Point) (float64, error) {
	return geo.EstimateDurationMinutes(geo.DistanceKm(from, to)), nil
}
