// Package accessibility answers amenity-reachability questions over the
// street graph: per node, how far are the nearest K points of interest of a
// category, and how many POIs are reachable within a travel budget. The
// shortest-path work is delegated to the routing oracle; this package only
// snaps, fans out the spans and shapes the results.
package accessibility

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/danastri/streetlab/pkg/concurrent"
	"github.com/danastri/streetlab/pkg/datastructure"
	"github.com/danastri/streetlab/pkg/routing"
)

var (
	ErrCategoryNotFound = errors.New("accessibility: poi category not registered")
	ErrInvalidMaxItems  = errors.New("accessibility: max items must be positive")
)

const (
	spanWorkers = 8
)

type NodeSnapper interface {
	NearestNode(lat, lon float64) (int32, error)
}

// DecayFunc weights a reachable POI by its distance relative to the budget.
type DecayFunc func(dist, maxDist float64) float64

func DecayFlat(dist, maxDist float64) float64 {
	return 1
}

func DecayLinear(dist, maxDist float64) float64 {
	return 1 - dist/maxDist
}

func DecayExponential(dist, maxDist float64) float64 {
	return math.Exp(-dist / maxDist)
}

type poiSet struct {
	category    string
	nodes       []int32
	maxItems    int
	maxDistance float64
}

// Index registers POI categories against one graph and answers nearest-K and
// count-within-budget queries per graph node.
type Index struct {
	g         *datastructure.Graph
	snapper   NodeSnapper
	weightKey string

	// spans run on the reversed graph so distances are measured from each
	// node toward the POIs, matching travel direction on a directed network.
	reversedSpanner *routing.RouteAlgorithm

	pois map[string]*poiSet
}

func NewIndex(g *datastructure.Graph, snapper NodeSnapper, weightKey string) *Index {
	return &Index{
		g:               g,
		snapper:         snapper,
		weightKey:       weightKey,
		reversedSpanner: routing.NewRouteAlgorithm(g.Reverse()),
		pois:            make(map[string]*poiSet),
	}
}

// RegisterPOIs snaps every POI coordinate onto its nearest graph node and
// stores the set under the category label. maxItems is the K of nearest-K
// queries, maxDistance the category's search budget.
func (idx *Index) RegisterPOIs(category string, coords []datastructure.Coordinate, maxItems int, maxDistance float64) error {
	if maxItems <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidMaxItems, maxItems)
	}
	nodes := make([]int32, 0, len(coords))
	for _, c := range coords {
		nodeID, err := idx.snapper.NearestNode(c.Lat, c.Lon)
		if err != nil {
			return err
		}
		nodes = append(nodes, nodeID)
	}
	idx.pois[category] = &poiSet{
		category:    category,
		nodes:       nodes,
		maxItems:    maxItems,
		maxDistance: maxDistance,
	}
	return nil
}

// spanPerPOI computes, for every POI of the set, the per-node cost of
// reaching that POI, bounded by maxDistance. One bounded span per POI, fanned
// out over a worker pool.
func (idx *Index) spanPerPOI(set *poiSet, maxDistance float64) []map[int32]float64 {
	spans := make([]map[int32]float64, len(set.nodes))
	if len(set.nodes) == 0 {
		return spans
	}

	type spanResult struct {
		round int
		dist  map[int32]float64
	}

	workers := concurrent.NewWorkerPool[concurrent.PoiSpanJob, spanResult](spanWorkers, len(set.nodes))
	for i, poiNode := range set.nodes {
		workers.AddJob(concurrent.PoiSpanJob{Round: i, Sources: []int32{poiNode}})
	}
	workers.Close()
	workers.Start(func(job concurrent.PoiSpanJob) spanResult {
		dist, err := idx.reversedSpanner.SpanFromSources(job.Sources, idx.weightKey, maxDistance)
		if err != nil {
			return spanResult{round: job.Round, dist: map[int32]float64{}}
		}
		return spanResult{round: job.Round, dist: dist}
	})
	workers.Wait()

	for res := range workers.CollectResults() {
		spans[res.round] = res.dist
	}
	return spans
}

// NearestPOIDistances returns, per graph node, the ascending distances to the
// nearest K POIs of the category within its registered budget. Slots past
// the reachable POIs hold +Inf. An empty category yields all +Inf vectors.
func (idx *Index) NearestPOIDistances(category string) (map[int32][]float64, error) {
	set, ok := idx.pois[category]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrCategoryNotFound, category)
	}

	spans := idx.spanPerPOI(set, set.maxDistance)

	result := make(map[int32][]float64, idx.g.NumNodes())
	for _, node := range idx.g.Nodes() {
		dists := make([]float64, 0, len(spans))
		for _, span := range spans {
			if d, ok := span[node.ID]; ok {
				dists = append(dists, d)
			}
		}
		sort.Float64s(dists)
		if len(dists) > set.maxItems {
			dists = dists[:set.maxItems]
		}
		for len(dists) < set.maxItems {
			dists = append(dists, math.Inf(1))
		}
		result[node.ID] = dists
	}
	return result, nil
}

// POICountWithin returns, per graph node, the decay-weighted count of POIs of
// the category reachable within maxDistance, clipped at countCap. countCap <= 0
// means uncapped. With DecayFlat the value is the plain reachable count.
func (idx *Index) POICountWithin(category string, maxDistance float64, decay DecayFunc, countCap int) (map[int32]float64, error) {
	set, ok := idx.pois[category]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrCategoryNotFound, category)
	}
	if decay == nil {
		decay = DecayFlat
	}

	spans := idx.spanPerPOI(set, maxDistance)

	result := make(map[int32]float64, idx.g.NumNodes())
	for _, node := range idx.g.Nodes() {
		count := 0.0
		for _, span := range spans {
			if d, ok := span[node.ID]; ok && d <= maxDistance {
				count += decay(d, maxDistance)
			}
		}
		if countCap > 0 && count > float64(countCap) {
			// diminishing marginal utility of additional reachable amenities
			count = float64(countCap)
		}
		result[node.ID] = count
	}
	return result, nil
}
