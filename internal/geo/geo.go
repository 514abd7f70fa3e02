package geo

import (
	"math"

	"github.com/passbi/transit_catalogue/internal/models"
)

const earthRadius = 6371000 // meters

// ComputeDistance calculates the great-circle distance between two points in meters
func ComputeDistance(from, to models.Coordinates) float64 {
	if from == to {
		return 0
	}

	lat1Rad := from.Lat * math.Pi / 180
	lat2Rad := to.Lat * math.Pi / 180
	deltaLat := (to.Lat - from.Lat) * math.Pi / 180
	deltaLng := (to.Lng - from.Lng) * math.Pi / 180

	a := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(deltaLng/2)*math.Sin(deltaLng/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadius * c
}
