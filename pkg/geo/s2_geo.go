package geo

import (
	"github.com/golang/geo/s2"
)

// ProjectPointToLineCoord projects a query point onto the great-circle segment
// between two road-segment endpoints. Used when an origin/destination
// coordinate falls between two graph nodes.
func ProjectPointToLineCoord(segStartLat, segStartLon, segEndLat, segEndLon,
	queryLat, queryLon float64) (float64, float64) {
	segStartS2 := s2.PointFromLatLng(s2.LatLngFromDegrees(segStartLat, segStartLon))
	segEndS2 := s2.PointFromLatLng(s2.LatLngFromDegrees(segEndLat, segEndLon))
	queryS2 := s2.PointFromLatLng(s2.LatLngFromDegrees(queryLat, queryLon))
	projection := s2.Project(queryS2, segStartS2, segEndS2)
	projectLatLng := s2.LatLngFromPoint(projection)
	return projectLatLng.Lat.Degrees(), projectLatLng.Lng.Degrees()
}

// AngleDistanceKm returns the s2 angle distance between two coordinates in
// kilometer.
func AngleDistanceKm(latOne, lonOne, latTwo, lonTwo float64) float64 {
	angle := s2.LatLngFromDegrees(latOne, lonOne).Distance(s2.LatLngFromDegrees(latTwo, lonTwo))
	return angle.Radians() * earthRadiusKM
}
