package util

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
)

// EarthRadiusKm is the mean Earth radius used for all distance figures shown to callers
const EarthRadiusKm = 6371.0

// boundPadding widens prefilter boxes. orb sizes boxes with the equatorial radius, which is
// slightly larger than EarthRadiusKm and would otherwise clip points near the edge.
const boundPadding = 1.01

// CalculateDistance calculates the distance between two geographic points using the Haversine formula
// Parameters: lat1, lon1, lat2, lon2 in degrees
// Returns: distance in kilometers
func CalculateDistance(lat1, lon1, lat2, lon2 float64) float64 {
	lat1Rad := degToRad(lat1)
	lat2Rad := degToRad(lat2)
	dLat := lat2Rad - lat1Rad
	dLon := degToRad(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusKm * c
}

// DistanceBetween is CalculateDistance over orb points (lon, lat order)
func DistanceBetween(a, b orb.Point) float64 {
	return CalculateDistance(a.Lat(), a.Lon(), b.Lat(), b.Lon())
}

// BoundAround returns a lat/lng box that contains every point within radiusKm of center.
// It is a cheap SQL prefilter; exact membership is decided with CalculateDistance.
func BoundAround(center orb.Point, radiusKm float64) orb.Bound {
	return geo.NewBoundAroundPoint(center, radiusKm*1000*boundPadding)
}

// degToRad converts degrees to radians
func degToRad(deg float64) float64 {
	return deg * (math.Pi / 180.0)
}
