package snap

import (
	"errors"
	"log"

	"github.com/danastri/streetlab/pkg/datastructure"
	"github.com/danastri/streetlab/pkg/geo"

	"github.com/dhconnelly/rtreego"
)

var (
	ErrEmptyIndex = errors.New("snap: node index is empty")
)

// pointTol degree extent of a node leaf rectangle. rtreego rejects
// zero-length rects.
const pointTol = 1e-7

const (
	// searchRadiusKm half-extent of the candidate bounding box. 300 meter
	searchRadiusKm = 0.3

	streetCandidateK = 5
)

type nodeLeaf struct {
	nodeID int32
	bound  rtreego.Rect
}

func (l *nodeLeaf) Bounds() rtreego.Rect {
	return l.bound
}

// NodeSnapper maps raw query coordinates to their nearest graph node via an
// r-tree over the node set.
type NodeSnapper struct {
	rtree *rtreego.Rtree
	size  int
}

// NewNodeSnapper indexes every node of the graph. The graph is read-only from
// the snapper's point of view; perturbed graphs need their own snapper.
func NewNodeSnapper(g *datastructure.Graph) (*NodeSnapper, error) {
	rt := rtreego.NewTree(2, 25, 50)
	count := 0
	for _, node := range g.Nodes() {
		bound, err := rtreego.NewRect(rtreego.Point{node.Lat, node.Lon}, []float64{pointTol, pointTol})
		if err != nil {
			return nil, err
		}
		rt.Insert(&nodeLeaf{nodeID: node.ID, bound: bound})
		count++
		if count%100000 == 0 {
			log.Printf("insert node %d to r-tree...", count)
		}
	}
	return &NodeSnapper{rtree: rt, size: count}, nil
}

// NearestNode returns the graph node closest to the query coordinate.
func (s *NodeSnapper) NearestNode(lat, lon float64) (int32, error) {
	if s.size == 0 {
		return 0, ErrEmptyIndex
	}
	nearest := s.rtree.NearestNeighbor(rtreego.Point{lat, lon})
	if nearest == nil {
		return 0, ErrEmptyIndex
	}
	return nearest.(*nodeLeaf).nodeID, nil
}

// NearestNodes returns up to k node IDs ordered by distance from the query
// coordinate.
func (s *NodeSnapper) NearestNodes(k int, lat, lon float64) ([]int32, error) {
	if s.size == 0 {
		return nil, ErrEmptyIndex
	}
	neighbors := s.rtree.NearestNeighbors(k, rtreego.Point{lat, lon})
	nodeIDs := make([]int32, 0, len(neighbors))
	for _, n := range neighbors {
		if n == nil {
			break
		}
		nodeIDs = append(nodeIDs, n.(*nodeLeaf).nodeID)
	}
	return nodeIDs, nil
}

// NearestStreetPoint snaps the query coordinate onto the road network itself:
// the query is projected onto every segment leaving the candidate nodes around
// it, and the closer endpoint of the best segment is returned together with
// the projected coordinate on that segment. Queries around isolated nodes fall
// back to plain nearest-node snapping.
func (s *NodeSnapper) NearestStreetPoint(g *datastructure.Graph, lat, lon float64) (int32, datastructure.Coordinate, error) {
	candidates, err := s.streetCandidates(lat, lon)
	if err != nil {
		return 0, datastructure.Coordinate{}, err
	}

	var (
		bestEdge datastructure.Edge
		bestProj datastructure.Coordinate
	)
	bestDist := -1.0
	for _, nodeID := range candidates {
		node, err := g.GetNode(nodeID)
		if err != nil {
			continue
		}
		for _, edge := range g.GetNodeOutEdges(nodeID) {
			toNode, err := g.GetNode(edge.ToNodeID)
			if err != nil {
				continue
			}
			projLat, projLon := geo.ProjectPointToLineCoord(node.Lat, node.Lon,
				toNode.Lat, toNode.Lon, lat, lon)
			dist := geo.CalculateHaversineDistance(lat, lon, projLat, projLon)
			if bestDist < 0 || dist < bestDist {
				bestEdge = edge
				bestProj = datastructure.NewCoordinate(projLat, projLon)
				bestDist = dist
			}
		}
	}
	if bestDist < 0 {
		// every candidate is an isolated node
		nodeID, err := s.NearestNode(lat, lon)
		if err != nil {
			return 0, datastructure.Coordinate{}, err
		}
		node, err := g.GetNode(nodeID)
		if err != nil {
			return 0, datastructure.Coordinate{}, err
		}
		return nodeID, datastructure.NewCoordinate(node.Lat, node.Lon), nil
	}

	fromNode, err := g.GetNode(bestEdge.FromNodeID)
	if err != nil {
		return 0, datastructure.Coordinate{}, err
	}
	toNode, err := g.GetNode(bestEdge.ToNodeID)
	if err != nil {
		return 0, datastructure.Coordinate{}, err
	}
	distFrom := geo.CalculateHaversineDistance(lat, lon, fromNode.Lat, fromNode.Lon)
	distTo := geo.CalculateHaversineDistance(lat, lon, toNode.Lat, toNode.Lon)
	if distFrom < distTo {
		return bestEdge.FromNodeID, bestProj, nil
	}
	return bestEdge.ToNodeID, bestProj, nil
}

// streetCandidates collects node IDs inside the search box around the query,
// falling back to the k nearest nodes when the box is empty.
func (s *NodeSnapper) streetCandidates(lat, lon float64) ([]int32, error) {
	if s.size == 0 {
		return nil, ErrEmptyIndex
	}

	upperLat, upperLon := geo.GetDestinationPoint(lat, lon, 45, 2*searchRadiusKm)
	lowerLat, lowerLon := geo.GetDestinationPoint(lat, lon, 225, 2*searchRadiusKm)
	bound, err := rtreego.NewRect(rtreego.Point{lowerLat, lowerLon},
		[]float64{upperLat - lowerLat, upperLon - lowerLon})
	if err != nil {
		return nil, err
	}

	inside := s.rtree.SearchIntersect(bound)
	if len(inside) == 0 {
		return s.NearestNodes(streetCandidateK, lat, lon)
	}
	nodeIDs := make([]int32, 0, len(inside))
	for _, leaf := range inside {
		nodeIDs = append(nodeIDs, leaf.(*nodeLeaf).nodeID)
	}
	return nodeIDs, nil
}

// SnapDistance returns the great-circle distance in meter between the query
// coordinate and its snapped node.
func (s *NodeSnapper) SnapDistance(g *datastructure.Graph, lat, lon float64) (int32, float64, error) {
	nodeID, err := s.NearestNode(lat, lon)
	if err != nil {
		return 0, 0, err
	}
	node, err := g.GetNode(nodeID)
	if err != nil {
		return 0, 0, err
	}
	return nodeID, geo.CalculateHaversineDistance(lat, lon, node.Lat, node.Lon), nil
}
