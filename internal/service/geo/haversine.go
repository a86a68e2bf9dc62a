package geo

import (
	"math"

	"github.com/ougirez/shoplist/internal/domain"
)

const EarthRadiusKm = 6371.0

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

// Distance returns the great-circle distance between a and b in kilometres.
func Distance(a, b domain.Point) float64 {
	dLat := toRadians(b.Lat - a.Lat)
	dLng := toRadians(b.Lng - a.Lng)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(a.Lat))*math.Cos(toRadians(b.Lat))*math.Sin(dLng/2)*math.Sin(dLng/2)

	return 2 * EarthRadiusKm * math.Asin(math.Min(1, math.Sqrt(h)))
}
