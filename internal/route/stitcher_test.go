package route

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prakhar811/opticart-DAA/internal/domain"
	"github.com/prakhar811/opticart-DAA/internal/infra"
)

// fakeProvider returns "geo:<n>" for every request and fails for waypoint
// sequences whose first longitude is listed in failOn.
type fakeProvider struct {
	mu       sync.Mutex
	calls    [][]domain.LonLat
	failOn   map[float64]bool
	inFlight atomic.Int32
	peak     atomic.Int32
}

func (f *fakeProvider) Route(ctx context.Context, waypoints []domain.LonLat) (string, error) {
	cur := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		p := f.peak.Load()
		if cur <= p || f.peak.CompareAndSwap(p, cur) {
			break
		}
	}

	f.mu.Lock()
	f.calls = append(f.calls, waypoints)
	f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", err
	}
	if f.failOn[waypoints[0][0]] {
		return "", domain.NewUpstreamError("route", errors.New("status 502"))
	}
	return fmt.Sprintf("geo:%d", len(waypoints)), nil
}

func newTestStitcher(p domain.GeometryProvider, parallelism int) (*Stitcher, *infra.Metrics) {
	s := NewStitcher(p, parallelism)
	s.metrics = &infra.Metrics{}
	return s, s.metrics
}

func TestStitcher_TourGeometry_SingleRequest(t *testing.T) {
	p := &fakeProvider{}
	s, _ := newTestStitcher(p, 2)
	pts := triangle()

	geometry := s.TourGeometry(context.Background(), pts, Tour{0, 1, 2, 0})

	require.Equal(t, "geo:4", geometry)
	require.Len(t, p.calls, 1)
	assert.Equal(t, []domain.LonLat{{0, 0}, {0, 3}, {4, 0}, {0, 0}}, p.calls[0])
}

func TestStitcher_TourGeometry_FailureIsEmpty(t *testing.T) {
	p := &fakeProvider{failOn: map[float64]bool{0: true}}
	s, m := newTestStitcher(p, 2)

	geometry := s.TourGeometry(context.Background(), triangle(), Tour{0, 1, 2, 0})

	assert.Empty(t, geometry)
	assert.Equal(t, uint64(1), m.Snapshot().GeometryFailures)
}

func TestStitcher_TreeGeometry_PartialFailure(t *testing.T) {
	pts := []domain.GeoPoint{{X: 0}, {X: 1}, {X: 2}, {X: 3}, {X: 4}}
	edges := []domain.Edge{{0, 1}, {1, 2}, {2, 3}, {3, 4}}
	// Edge 1->2 fails; its siblings must still resolve.
	p := &fakeProvider{failOn: map[float64]bool{1: true}}
	s, m := newTestStitcher(p, 2)

	lines := s.TreeGeometry(context.Background(), pts, edges)

	require.Equal(t, []string{"geo:2", "", "geo:2", "geo:2"}, lines)
	assert.Len(t, p.calls, len(edges))
	assert.Equal(t, uint64(1), m.Snapshot().GeometryFailures)
	assert.LessOrEqual(t, p.peak.Load(), int32(2))
}

func TestStitcher_TreeGeometry_AllFail(t *testing.T) {
	pts := []domain.GeoPoint{{X: 0}, {X: 1}, {X: 2}}
	edges := []domain.Edge{{0, 1}, {0, 2}}
	p := &fakeProvider{failOn: map[float64]bool{0: true}}
	s, m := newTestStitcher(p, 4)

	lines := s.TreeGeometry(context.Background(), pts, edges)

	assert.Equal(t, []string{"", ""}, lines)
	assert.Equal(t, uint64(2), m.Snapshot().GeometryFailures)
}

func TestStitcher_NoProvider(t *testing.T) {
	s, _ := newTestStitcher(nil, 1)

	assert.Empty(t, s.TourGeometry(context.Background(), triangle(), Tour{0, 1, 2, 0}))
	assert.Equal(t, []string{"", ""}, s.TreeGeometry(context.Background(), triangle(), []domain.Edge{{0, 1}, {0, 2}}))
}
