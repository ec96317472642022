package route

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/prakhar811/opticart-DAA/internal/domain"
	"github.com/prakhar811/opticart-DAA/internal/infra"
)

// Options tune an Optimizer. Zero values fall back to defaults.
type Options struct {
	Metric     Metric
	RoadFactor float64
	Plan       DeliveryPlan
}

// Result is the outcome of one optimization. Tour fields are set for TSP,
// tree fields for MST.
type Result struct {
	Algorithm domain.Algorithm

	Tour     Tour
	Distance float64
	Geometry string

	Tree  []domain.Edge
	Cost  float64
	Lines []string

	Stops    []string
	Schedule Schedule
}

// Optimizer is the route optimization entry point.
type Optimizer struct {
	stitcher *Stitcher
	history  domain.RouteHistory
	opts     Options
	metrics  *infra.Metrics
	now      func() time.Time
}

// NewOptimizer creates an optimizer. history may be nil.
func NewOptimizer(stitcher *Stitcher, history domain.RouteHistory, opts Options) *Optimizer {
	if opts.Metric == nil {
		opts.Metric = Haversine
	}
	if opts.RoadFactor <= 0 {
		opts.RoadFactor = DefaultRoadFactor
	}
	return &Optimizer{
		stitcher: stitcher,
		history:  history,
		opts:     opts,
		metrics:  infra.GlobalMetrics,
		now:      time.Now,
	}
}

// Optimize solves the requested algorithm over points and attaches road geometry.
// Geometry failures are absorbed; only invalid input and internal faults are returned.
func (o *Optimizer) Optimize(ctx context.Context, points []domain.GeoPoint, alg domain.Algorithm) (res *Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Optimizer panic recovered", slog.Any("panic", r), slog.String("algorithm", alg.String()))
			res, err = nil, fmt.Errorf("%v: %w", r, domain.ErrOptimizationFailed)
		}
		switch {
		case err == nil:
			o.metrics.RecordOptimize(infra.OptimizeOK)
		case errors.Is(err, domain.ErrInvalidInput):
			o.metrics.RecordOptimize(infra.OptimizeInvalid)
		default:
			o.metrics.RecordOptimize(infra.OptimizeFailed)
		}
	}()

	switch alg {
	case domain.AlgorithmTSP:
		res, err = o.optimizeTour(ctx, points)
	case domain.AlgorithmMST:
		res, err = o.optimizeTree(ctx, points)
	default:
		return nil, fmt.Errorf("algorithm %d: %w", alg, domain.ErrInvalidInput)
	}
	if err != nil {
		return nil, err
	}

	res.Schedule = o.opts.Plan.Plan(res.total(), len(res.Stops))
	o.record(ctx, points, res)
	return res, nil
}

func (o *Optimizer) optimizeTour(ctx context.Context, points []domain.GeoPoint) (*Result, error) {
	tour, raw, err := SolveTSP(points, o.opts.Metric)
	if err != nil {
		return nil, err
	}
	if err := tour.Validate(len(points)); err != nil {
		panic(err)
	}

	stops := make([]string, len(tour))
	for i, idx := range tour {
		stops[i] = points[idx].Label(idx)
	}
	return &Result{
		Algorithm: domain.AlgorithmTSP,
		Tour:      tour,
		Distance:  RoadAdjusted(raw, o.opts.RoadFactor),
		Geometry:  o.stitcher.TourGeometry(ctx, points, tour),
		Stops:     stops,
	}, nil
}

func (o *Optimizer) optimizeTree(ctx context.Context, points []domain.GeoPoint) (*Result, error) {
	edges, raw, err := BuildMST(points, o.opts.Metric)
	if err != nil {
		return nil, err
	}
	if len(edges) != len(points)-1 {
		panic(fmt.Sprintf("spanning tree has %d edges for %d points", len(edges), len(points)))
	}

	order := TreeOrder(edges)
	stops := make([]string, len(order))
	for i, idx := range order {
		stops[i] = points[idx].Label(idx)
	}
	return &Result{
		Algorithm: domain.AlgorithmMST,
		Tree:      edges,
		Cost:      RoadAdjusted(raw, o.opts.RoadFactor),
		Lines:     o.stitcher.TreeGeometry(ctx, points, edges),
		Stops:     stops,
	}, nil
}

func (r *Result) total() float64 {
	if r.Algorithm == domain.AlgorithmTSP {
		return r.Distance
	}
	return r.Cost
}

// record stores the result in route history. Failures are logged only.
func (o *Optimizer) record(ctx context.Context, points []domain.GeoPoint, res *Result) {
	if o.history == nil {
		return
	}
	rec := &domain.RouteRecord{
		ID:        uuid.NewString(),
		Algorithm: res.Algorithm.String(),
		Cost:      res.total(),
		Stops:     res.Stops,
		Points:    points,
		CreatedAt: o.now(),
	}
	if err := o.history.SaveRoute(ctx, rec); err != nil {
		slog.Warn("Failed to save route history", slog.String("algorithm", rec.Algorithm), slog.Any("error", err))
	}
}
