package datastructure

import (
	"github.com/twpayne/go-polyline"
)

// RenderPath encodes route coordinates as a google polyline for compact
// transport in API responses.
func RenderPath(path []Coordinate) string {
	coords := make([][]float64, 0, len(path))
	for _, p := range path {
		coords = append(coords, []float64{p.Lat, p.Lon})
	}
	return string(polyline.EncodeCoords(coords))
}

// RouteCoordinates resolves a route of node IDs into node coordinates.
func RouteCoordinates(g *Graph, route []int32) ([]Coordinate, error) {
	coords := make([]Coordinate, 0, len(route))
	for _, nodeID := range route {
		node, err := g.GetNode(nodeID)
		if err != nil {
			return nil, err
		}
		coords = append(coords, NewCoordinate(node.Lat, node.Lon))
	}
	return coords, nil
}
