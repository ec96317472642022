package route

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/prakhar811/opticart-DAA/internal/domain"
	"github.com/prakhar811/opticart-DAA/internal/infra"
)

const defaultParallelism = 4

// Stitcher maps tours and trees onto road geometry. Provider failures never
// propagate: the affected segment is left empty.
type Stitcher struct {
	provider    domain.GeometryProvider
	parallelism int
	metrics     *infra.Metrics
}

// NewStitcher creates a stitcher. parallelism bounds concurrent per-edge requests.
func NewStitcher(provider domain.GeometryProvider, parallelism int) *Stitcher {
	if parallelism <= 0 {
		parallelism = defaultParallelism
	}
	return &Stitcher{
		provider:    provider,
		parallelism: parallelism,
		metrics:     infra.GlobalMetrics,
	}
}

// TourGeometry requests one polyline for the whole tour, closing return included.
func (s *Stitcher) TourGeometry(ctx context.Context, points []domain.GeoPoint, tour Tour) string {
	if s.provider == nil {
		return ""
	}
	waypoints := make([]domain.LonLat, len(tour))
	for i, idx := range tour {
		waypoints[i] = points[idx].LonLat()
	}

	geometry, err := s.provider.Route(ctx, waypoints)
	if err != nil {
		s.metrics.RecordGeometryFailure()
		slog.Warn("Tour geometry unavailable",
			slog.Int("waypoints", len(waypoints)),
			slog.Any("error", err),
		)
		return ""
	}
	return geometry
}

// TreeGeometry requests one two-waypoint polyline per edge, concurrently.
// The result is aligned with edges; failed segments are "".
func (s *Stitcher) TreeGeometry(ctx context.Context, points []domain.GeoPoint, edges []domain.Edge) []string {
	lines := make([]string, len(edges))
	if s.provider == nil {
		return lines
	}

	// Tasks always return nil so one failure never cancels its siblings.
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.parallelism)

	for i, e := range edges {
		i, e := i, e
		g.Go(func() error {
			waypoints := []domain.LonLat{points[e.Parent()].LonLat(), points[e.Child()].LonLat()}
			geometry, err := s.provider.Route(gctx, waypoints)
			if err != nil {
				s.metrics.RecordGeometryFailure()
				slog.Warn("Edge geometry unavailable",
					slog.Int("from", e.Parent()),
					slog.Int("to", e.Child()),
					slog.Any("error", err),
				)
				return nil
			}
			lines[i] = geometry
			return nil
		})
	}
	_ = g.Wait()

	return lines
}
