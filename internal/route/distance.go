package route

import (
	"math"

	"github.com/prakhar811/opticart-DAA/internal/domain"
)

// earthRadiusKm matches the WGS-84 equatorial radius.
const earthRadiusKm = 6378.137

// DefaultRoadFactor converts straight-line distance to an estimated road distance.
const DefaultRoadFactor = 1.2

// Metric returns the distance between two points.
type Metric func(a, b domain.GeoPoint) float64

// Haversine is the great-circle distance in kilometers. X is longitude, Y is latitude.
func Haversine(a, b domain.GeoPoint) float64 {
	lat1 := a.Y * math.Pi / 180
	lat2 := b.Y * math.Pi / 180
	dLat := lat2 - lat1
	dLon := (b.X - a.X) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKm * math.Asin(math.Min(1, math.Sqrt(h)))
}

// Euclidean is the planar distance, used for synthetic coordinates.
func Euclidean(a, b domain.GeoPoint) float64 {
	return math.Hypot(b.X-a.X, b.Y-a.Y)
}

// RoadAdjusted scales a raw distance by factor and rounds to 2 decimals.
func RoadAdjusted(raw, factor float64) float64 {
	return math.Round(raw*factor*100) / 100
}

func validatePoints(points []domain.GeoPoint) error {
	if len(points) < 2 {
		return domain.ErrInvalidInput
	}
	for _, p := range points {
		if math.IsNaN(p.X) || math.IsNaN(p.Y) || math.IsInf(p.X, 0) || math.IsInf(p.Y, 0) {
			return domain.ErrInvalidInput
		}
	}
	return nil
}
