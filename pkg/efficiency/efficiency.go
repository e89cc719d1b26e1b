// Package efficiency scores a route by how close it follows the straight line
// between its endpoints: great-circle distance divided by traveled network
// distance. 1.0 means the route is a single straight segment, values near 0
// mean a long detour.
package efficiency

import (
	"errors"
	"fmt"

	"github.com/danastri/streetlab/pkg/datastructure"
	"github.com/danastri/streetlab/pkg/geo"
)

var (
	// ErrInvalidRoute means the route is degenerate (fewer than 2 nodes) or
	// references nodes/edges missing from the graph.
	ErrInvalidRoute = errors.New("efficiency: route must visit at least 2 graph nodes")

	// ErrZeroLengthTrip means the traveled distance is 0 and the ratio is
	// undefined. Callers must exclude such trips from aggregates instead of
	// propagating NaN into statistics.
	ErrZeroLengthTrip = errors.New("efficiency: trip distance is zero, ratio undefined")
)

// Efficiency returns greatCircle(first, last) / sum(edge length along route).
// Per hop the minimum-length parallel edge is charged, matching what a
// length-weighted shortest-path oracle traversed.
func Efficiency(g *datastructure.Graph, route []int32) (float64, error) {
	if len(route) < 2 {
		return 0, ErrInvalidRoute
	}

	tripDistance := 0.0
	for i := 0; i < len(route)-1; i++ {
		edge, err := g.EdgeBetween(route[i], route[i+1], datastructure.WeightLength)
		if err != nil {
			return 0, fmt.Errorf("%w: %v", ErrInvalidRoute, err)
		}
		tripDistance += edge.Dist
	}
	if tripDistance == 0 {
		return 0, ErrZeroLengthTrip
	}

	origin, err := g.GetNode(route[0])
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidRoute, err)
	}
	dest, err := g.GetNode(route[len(route)-1])
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidRoute, err)
	}

	greatCircle := geo.CalculateHaversineDistance(origin.Lat, origin.Lon, dest.Lat, dest.Lon)
	return greatCircle / tripDistance, nil
}
