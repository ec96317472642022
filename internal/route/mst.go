package route

import (
	"fmt"
	"math"

	"github.com/prakhar811/opticart-DAA/internal/domain"
)

// BuildMST grows a minimum spanning tree from point 0 using Prim's algorithm on
// the complete graph. Edges are returned in insertion order as (parent, child)
// together with the raw total cost.
//
// Time: O(n²). Space: O(n).
func BuildMST(points []domain.GeoPoint, dist Metric) ([]domain.Edge, float64, error) {
	if err := validatePoints(points); err != nil {
		return nil, 0, fmt.Errorf("mst needs at least 2 finite points, got %d: %w", len(points), err)
	}
	n := len(points)
	inTree := make([]bool, n)
	bestCost := make([]float64, n)
	parent := make([]int, n)
	for v := range bestCost {
		bestCost[v] = math.Inf(1)
		parent[v] = -1
	}
	bestCost[0] = 0

	edges := make([]domain.Edge, 0, n-1)
	total := 0.0

	for it := 0; it < n; it++ {
		u := -1
		for v := 0; v < n; v++ {
			if !inTree[v] && (u == -1 || bestCost[v] < bestCost[u]) {
				u = v
			}
		}
		inTree[u] = true
		if parent[u] >= 0 {
			edges = append(edges, domain.Edge{parent[u], u})
			total += bestCost[u]
		}

		for v := 0; v < n; v++ {
			if inTree[v] {
				continue
			}
			if d := dist(points[u], points[v]); d < bestCost[v] {
				bestCost[v] = d
				parent[v] = u
			}
		}
	}

	return edges, total, nil
}

// TreeOrder lists vertices in first-appearance order over the edge list.
func TreeOrder(edges []domain.Edge) []int {
	seen := make(map[int]bool, len(edges)+1)
	order := make([]int, 0, len(edges)+1)
	for _, e := range edges {
		for _, v := range e {
			if !seen[v] {
				seen[v] = true
				order = append(order, v)
			}
		}
	}
	return order
}
