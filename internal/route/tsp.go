package route

import (
	"fmt"
	"math"

	"github.com/prakhar811/opticart-DAA/internal/domain"
)

// Tour is a closed visiting order. It starts and ends at index 0.
type Tour []int

// Validate checks that t visits each of n points exactly once and returns to 0.
func (t Tour) Validate(n int) error {
	if len(t) != n+1 {
		return fmt.Errorf("tour length %d, want %d", len(t), n+1)
	}
	if t[0] != 0 || t[n] != 0 {
		return fmt.Errorf("tour must start and end at 0")
	}
	seen := make([]bool, n)
	for _, v := range t[:n] {
		if v < 0 || v >= n || seen[v] {
			return fmt.Errorf("vertex %d repeated or out of range", v)
		}
		seen[v] = true
	}
	return nil
}

// SolveTSP builds a nearest-neighbor tour from point 0 and returns it with its
// raw (unadjusted) length. Exact ties go to the lowest index.
//
// Time: O(n²). Space: O(n).
func SolveTSP(points []domain.GeoPoint, dist Metric) (Tour, float64, error) {
	if err := validatePoints(points); err != nil {
		return nil, 0, fmt.Errorf("tsp needs at least 2 finite points, got %d: %w", len(points), err)
	}
	n := len(points)
	visited := make([]bool, n)
	tour := make(Tour, 0, n+1)

	cur := 0
	visited[0] = true
	tour = append(tour, 0)
	total := 0.0

	for step := 1; step < n; step++ {
		next, best := -1, math.Inf(1)
		for v := 0; v < n; v++ {
			if visited[v] {
				continue
			}
			if d := dist(points[cur], points[v]); d < best {
				next, best = v, d
			}
		}
		visited[next] = true
		tour = append(tour, next)
		total += best
		cur = next
	}

	total += dist(points[cur], points[0])
	tour = append(tour, 0)
	return tour, total, nil
}

// Length sums the hop distances of t.
func (t Tour) Length(points []domain.GeoPoint, dist Metric) float64 {
	total := 0.0
	for i := 1; i < len(t); i++ {
		total += dist(points[t[i-1]], points[t[i]])
	}
	return total
}
