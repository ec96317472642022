package domain

import (
	"fmt"
	"strings"
)

// GeoPoint is a delivery location. X is longitude, Y is latitude.
type GeoPoint struct {
	ID   int     `json:"id"`
	Name string  `json:"name"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

// LonLat is a waypoint as sent to the road geometry provider.
type LonLat [2]float64

// LonLat returns the point as a provider waypoint.
func (p GeoPoint) LonLat() LonLat {
	return LonLat{p.X, p.Y}
}

// Label returns the point name or a positional fallback.
func (p GeoPoint) Label(idx int) string {
	if p.Name != "" {
		return p.Name
	}
	return fmt.Sprintf("#%d", idx)
}

// Edge is an undirected spanning tree edge (Parent, Child), serialised as [from, to].
type Edge [2]int

// Parent returns the tree-side endpoint.
func (e Edge) Parent() int { return e[0] }

// Child returns the newly attached endpoint.
func (e Edge) Child() int { return e[1] }

// Algorithm selects the route optimization strategy.
type Algorithm int

const (
	AlgorithmTSP Algorithm = iota + 1
	AlgorithmMST
)

// String returns the wire name of the algorithm
func (a Algorithm) String() string {
	switch a {
	case AlgorithmTSP:
		return "TSP"
	case AlgorithmMST:
		return "MST"
	default:
		return "UNKNOWN"
	}
}

// ParseAlgorithm maps a wire name onto the closed Algorithm set.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "TSP":
		return AlgorithmTSP, nil
	case "MST":
		return AlgorithmMST, nil
	default:
		return 0, fmt.Errorf("unknown algorithm %q: %w", s, ErrInvalidInput)
	}
}
