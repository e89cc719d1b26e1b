package datastructure

import (
	"errors"
	"fmt"
)

const (
	WeightLength     = "length"      // meter
	WeightTravelTime = "travel_time" // second
)

var (
	ErrNodeExists      = errors.New("graph: node already exists")
	ErrNodeNotFound    = errors.New("graph: node not found")
	ErrEdgeNotFound    = errors.New("graph: edge not found")
	ErrUnknownWeight   = errors.New("graph: unknown weight key")
	ErrInvalidEdgeCost = errors.New("graph: edge weight must be positive")
)

type Node struct {
	ID          int32
	OsmID       int64
	Lat         float64
	Lon         float64
	Elevation   float64
	StreetCount int
}

func NewNode(id int32, lat, lon float64) Node {
	return Node{
		ID:  id,
		Lat: lat,
		Lon: lon,
	}
}

// Edge is one directed road segment. Parallel edges between the same ordered
// node pair are allowed and distinguished by Key.
type Edge struct {
	FromNodeID int32
	ToNodeID   int32
	Key        int32
	Dist       float64 // meter
	MaxSpeed   float64 // km/h
	TravelTime float64 // second
	StreetName string
}

func (e Edge) Weight(weightKey string) (float64, error) {
	switch weightKey {
	case WeightLength:
		return e.Dist, nil
	case WeightTravelTime:
		return e.TravelTime, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownWeight, weightKey)
}

// Graph is a directed multigraph with spatially located nodes. Nodes keep
// insertion order so that random sampling over the node set is reproducible.
type Graph struct {
	nodes     []Node
	nodeIndex map[int32]int
	outEdges  map[int32][]Edge
	numEdges  int
}

func NewGraph() *Graph {
	return &Graph{
		nodes:     make([]Node, 0),
		nodeIndex: make(map[int32]int),
		outEdges:  make(map[int32][]Edge),
	}
}

func (g *Graph) AddNode(node Node) error {
	if _, ok := g.nodeIndex[node.ID]; ok {
		return fmt.Errorf("%w: %d", ErrNodeExists, node.ID)
	}
	g.nodeIndex[node.ID] = len(g.nodes)
	g.nodes = append(g.nodes, node)
	return nil
}

// AddEdge appends a directed edge. The parallel-edge key is assigned from the
// current number of edges between the same ordered pair.
func (g *Graph) AddEdge(from, to int32, dist, maxSpeed, travelTime float64, streetName string) (Edge, error) {
	if _, ok := g.nodeIndex[from]; !ok {
		return Edge{}, fmt.Errorf("%w: from node %d", ErrNodeNotFound, from)
	}
	if _, ok := g.nodeIndex[to]; !ok {
		return Edge{}, fmt.Errorf("%w: to node %d", ErrNodeNotFound, to)
	}
	if dist < 0 || travelTime < 0 {
		return Edge{}, ErrInvalidEdgeCost
	}

	key := int32(0)
	for _, e := range g.outEdges[from] {
		if e.ToNodeID == to {
			key++
		}
	}

	edge := Edge{
		FromNodeID: from,
		ToNodeID:   to,
		Key:        key,
		Dist:       dist,
		MaxSpeed:   maxSpeed,
		TravelTime: travelTime,
		StreetName: streetName,
	}
	g.outEdges[from] = append(g.outEdges[from], edge)
	g.numEdges++
	return edge, nil
}

func (g *Graph) GetNode(id int32) (Node, error) {
	idx, ok := g.nodeIndex[id]
	if !ok {
		return Node{}, fmt.Errorf("%w: %d", ErrNodeNotFound, id)
	}
	return g.nodes[idx], nil
}

func (g *Graph) HasNode(id int32) bool {
	_, ok := g.nodeIndex[id]
	return ok
}

// Nodes returns the node set in insertion order. Callers must not mutate the
// returned slice.
func (g *Graph) Nodes() []Node {
	return g.nodes
}

func (g *Graph) NodeIDs() []int32 {
	ids := make([]int32, len(g.nodes))
	for i, n := range g.nodes {
		ids[i] = n.ID
	}
	return ids
}

func (g *Graph) GetNodeOutEdges(id int32) []Edge {
	return g.outEdges[id]
}

// EdgeBetween returns the minimum-weight edge among the parallel edges from u
// to v under the given weight key.
func (g *Graph) EdgeBetween(u, v int32, weightKey string) (Edge, error) {
	var best Edge
	bestWeight := -1.0
	for _, e := range g.outEdges[u] {
		if e.ToNodeID != v {
			continue
		}
		w, err := e.Weight(weightKey)
		if err != nil {
			return Edge{}, err
		}
		if bestWeight < 0 || w < bestWeight {
			best = e
			bestWeight = w
		}
	}
	if bestWeight < 0 {
		return Edge{}, fmt.Errorf("%w: %d->%d", ErrEdgeNotFound, u, v)
	}
	return best, nil
}

func (g *Graph) NumNodes() int {
	return len(g.nodes)
}

func (g *Graph) NumEdges() int {
	return g.numEdges
}

// Clone returns a deep structural copy. The clone shares no mutable state with
// the receiver, so a perturbed copy never leaks partial mutation into the base
// graph.
func (g *Graph) Clone() *Graph {
	clone := &Graph{
		nodes:     make([]Node, len(g.nodes)),
		nodeIndex: make(map[int32]int, len(g.nodeIndex)),
		outEdges:  make(map[int32][]Edge, len(g.outEdges)),
		numEdges:  g.numEdges,
	}
	copy(clone.nodes, g.nodes)
	for id, idx := range g.nodeIndex {
		clone.nodeIndex[id] = idx
	}
	for id, edges := range g.outEdges {
		edgesCopy := make([]Edge, len(edges))
		copy(edgesCopy, edges)
		clone.outEdges[id] = edgesCopy
	}
	return clone
}

// UpdateStreetCounts sets each node's StreetCount to its number of distinct
// in/out neighbors.
func (g *Graph) UpdateStreetCounts() {
	neighbors := make(map[int32]map[int32]struct{}, len(g.nodes))
	for from, edges := range g.outEdges {
		for _, e := range edges {
			if neighbors[from] == nil {
				neighbors[from] = make(map[int32]struct{})
			}
			neighbors[from][e.ToNodeID] = struct{}{}
			if neighbors[e.ToNodeID] == nil {
				neighbors[e.ToNodeID] = make(map[int32]struct{})
			}
			neighbors[e.ToNodeID][from] = struct{}{}
		}
	}
	for i := range g.nodes {
		g.nodes[i].StreetCount = len(neighbors[g.nodes[i].ID])
	}
}

// Reverse returns a new graph with every edge direction flipped. A span from
// sources on the reversed graph gives per-node cost toward those sources on
// the original graph.
func (g *Graph) Reverse() *Graph {
	reversed := NewGraph()
	for _, n := range g.nodes {
		reversed.AddNode(n)
	}
	for _, edges := range g.outEdges {
		for _, e := range edges {
			reversed.AddEdge(e.ToNodeID, e.FromNodeID, e.Dist, e.MaxSpeed, e.TravelTime, e.StreetName)
		}
	}
	return reversed
}

// RemoveNodes removes the given nodes and every edge touching them, in place.
// Surviving nodes keep their relative insertion order.
func (g *Graph) RemoveNodes(ids []int32) {
	removed := make(map[int32]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := g.nodeIndex[id]; ok {
			removed[id] = struct{}{}
		}
	}
	if len(removed) == 0 {
		return
	}

	survivors := make([]Node, 0, len(g.nodes)-len(removed))
	for _, n := range g.nodes {
		if _, gone := removed[n.ID]; !gone {
			survivors = append(survivors, n)
		}
	}
	g.nodes = survivors
	g.nodeIndex = make(map[int32]int, len(survivors))
	for i, n := range survivors {
		g.nodeIndex[n.ID] = i
	}

	numEdges := 0
	outEdges := make(map[int32][]Edge, len(survivors))
	for from, edges := range g.outEdges {
		if _, gone := removed[from]; gone {
			continue
		}
		kept := make([]Edge, 0, len(edges))
		for _, e := range edges {
			if _, gone := removed[e.ToNodeID]; gone {
				continue
			}
			kept = append(kept, e)
		}
		if len(kept) > 0 {
			outEdges[from] = kept
			numEdges += len(kept)
		}
	}
	g.outEdges = outEdges
	g.numEdges = numEdges
}
