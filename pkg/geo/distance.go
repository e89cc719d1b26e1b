package geo

import "math"

const (
	earthRadiusKM = 6371.0
	earthRadiusM  = 6371007
)

func havFunction(angleRad float64) float64 {
	return (1 - math.Cos(angleRad)) / 2.0
}

func degreeToRadians(angle float64) float64 {
	return angle * (math.Pi / 180.0)
}

func radiansToDegree(angle float64) float64 {
	return angle * (180.0 / math.Pi)
}

// CalculateHaversineDistance returns the great-circle distance in meter
// between two (lat, lon) pairs on a sphere of Earth's mean radius.
func CalculateHaversineDistance(latOne, longOne, latTwo, longTwo float64) float64 {
	latOne = degreeToRadians(latOne)
	longOne = degreeToRadians(longOne)
	latTwo = degreeToRadians(latTwo)
	longTwo = degreeToRadians(longTwo)

	a := havFunction(latOne-latTwo) + math.Cos(latOne)*math.Cos(latTwo)*havFunction(longOne-longTwo)
	c := 2.0 * math.Asin(math.Sqrt(a))
	return earthRadiusM * c
}

// GetDestinationPoint returns the point reached from (lat, lon) after
// traveling distKm kilometer along the given initial bearing (degree).
func GetDestinationPoint(lat, lon, bearing, distKm float64) (float64, float64) {
	angularDist := distKm / earthRadiusKM
	bearingRad := degreeToRadians(bearing)
	latRad := degreeToRadians(lat)
	lonRad := degreeToRadians(lon)

	destLat := math.Asin(math.Sin(latRad)*math.Cos(angularDist) +
		math.Cos(latRad)*math.Sin(angularDist)*math.Cos(bearingRad))
	destLon := lonRad + math.Atan2(
		math.Sin(bearingRad)*math.Sin(angularDist)*math.Cos(latRad),
		math.Cos(angularDist)-math.Sin(latRad)*math.Sin(destLat),
	)

	return radiansToDegree(destLat), radiansToDegree(destLon)
}
