package routing

import (
	"errors"
	"fmt"
	"math"

	"github.com/danastri/streetlab/pkg/datastructure"
	"github.com/danastri/streetlab/pkg/util"
)

var (
	// ErrNoPath means origin and destination live in different components
	// under the chosen weight. Expected during perturbation runs, not fatal.
	ErrNoPath = errors.New("routing: no path between origin and destination")
)

type cameFromPair struct {
	Edge datastructure.Edge
	Prev int32
}

// RouteAlgorithm is a plain Dijkstra shortest-path solver over the analysis
// graph. It is the reference routing oracle; any solver satisfying the same
// contract (an optimized hierarchy index for production scale) can replace it.
type RouteAlgorithm struct {
	g *datastructure.Graph
}

func NewRouteAlgorithm(g *datastructure.Graph) *RouteAlgorithm {
	return &RouteAlgorithm{g: g}
}

// ShortestPath returns the optimal route from `from` to `to` as an ordered
// node-ID sequence plus its total weight under weightKey. Same origin and
// destination yield a single-node route with distance 0.
func (rt *RouteAlgorithm) ShortestPath(from, to int32, weightKey string) ([]int32, float64, error) {
	if _, err := rt.g.GetNode(from); err != nil {
		return nil, -1, err
	}
	if _, err := rt.g.GetNode(to); err != nil {
		return nil, -1, err
	}
	if from == to {
		return []int32{from}, 0, nil
	}

	pq := datastructure.NewMinHeap[int32]()
	dist := make(map[int32]float64)
	cameFrom := make(map[int32]cameFromPair)
	visited := make(map[int32]struct{})

	dist[from] = 0.0
	pq.Insert(datastructure.PriorityQueueNode[int32]{Rank: 0, Item: from})

	for pq.Size() > 0 {
		node, _ := pq.ExtractMin()
		if _, ok := visited[node.Item]; ok {
			continue
		}
		visited[node.Item] = struct{}{}

		if node.Item == to {
			route := rt.createPath(from, to, cameFrom)
			return route, dist[to], nil
		}

		for _, edge := range rt.g.GetNodeOutEdges(node.Item) {
			cost, err := edge.Weight(weightKey)
			if err != nil {
				return nil, -1, err
			}
			toNID := edge.ToNodeID

			// relax edge
			newCost := cost + dist[node.Item]
			oldCost, ok := dist[toNID]
			if !ok {
				dist[toNID] = newCost
				pq.Insert(datastructure.PriorityQueueNode[int32]{Rank: newCost, Item: toNID})
				cameFrom[toNID] = cameFromPair{edge, node.Item}
			} else if newCost < oldCost {
				dist[toNID] = newCost
				pq.DecreaseKey(datastructure.PriorityQueueNode[int32]{Rank: newCost, Item: toNID})
				cameFrom[toNID] = cameFromPair{edge, node.Item}
			}
		}
	}

	return nil, -1, fmt.Errorf("%w: %d -> %d", ErrNoPath, from, to)
}

func (rt *RouteAlgorithm) createPath(from, to int32, cameFrom map[int32]cameFromPair) []int32 {
	path := make([]int32, 0)
	current := to
	for current != from {
		path = append(path, current)
		current = cameFrom[current].Prev
	}
	path = append(path, from)
	return util.ReverseG(path)
}

// SpanFromSources runs a bounded multi-source Dijkstra: per reachable node the
// cheapest cost from any of the sources, capped at maxCost. Nodes beyond the
// budget are absent from the result. A non-positive maxCost means unbounded.
func (rt *RouteAlgorithm) SpanFromSources(sources []int32, weightKey string, maxCost float64) (map[int32]float64, error) {
	if maxCost <= 0 {
		maxCost = math.MaxFloat64
	}

	pq := datastructure.NewMinHeap[int32]()
	dist := make(map[int32]float64)
	visited := make(map[int32]struct{})

	for _, src := range sources {
		if _, err := rt.g.GetNode(src); err != nil {
			return nil, err
		}
		if old, ok := dist[src]; !ok || old > 0 {
			dist[src] = 0.0
			pq.Insert(datastructure.PriorityQueueNode[int32]{Rank: 0, Item: src})
		}
	}

	for pq.Size() > 0 {
		node, _ := pq.ExtractMin()
		if _, ok := visited[node.Item]; ok {
			continue
		}
		visited[node.Item] = struct{}{}

		for _, edge := range rt.g.GetNodeOutEdges(node.Item) {
			cost, err := edge.Weight(weightKey)
			if err != nil {
				return nil, err
			}
			toNID := edge.ToNodeID

			newCost := cost + dist[node.Item]
			if newCost > maxCost {
				continue
			}
			oldCost, ok := dist[toNID]
			if !ok {
				dist[toNID] = newCost
				pq.Insert(datastructure.PriorityQueueNode[int32]{Rank: newCost, Item: toNID})
			} else if newCost < oldCost {
				dist[toNID] = newCost
				pq.DecreaseKey(datastructure.PriorityQueueNode[int32]{Rank: newCost, Item: toNID})
			}
		}
	}

	return dist, nil
}
