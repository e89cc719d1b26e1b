// Package simulator runs batches of origin-destination commute trips over a
// street graph and aggregates route-efficiency statistics, before and after a
// perturbation.
package simulator

import (
	"context"
	"errors"
	"log"

	"github.com/danastri/streetlab/pkg/concurrent"
	"github.com/danastri/streetlab/pkg/datastructure"
	"github.com/danastri/streetlab/pkg/efficiency"
	"github.com/danastri/streetlab/pkg/routing"
)

const (
	defaultWorkers = 8
)

type RouteAlgorithm interface {
	ShortestPath(from, to int32, weightKey string) ([]int32, float64, error)
}

type NodeSnapper interface {
	NearestNode(lat, lon float64) (int32, error)
}

// RouteCache memoizes solved routes. A cache is only valid for the graph it
// was filled from; perturbed runs must pass a nil cache.
type RouteCache interface {
	GetRoute(homeLat, homeLon, workLat, workLon float64, weightKey string) ([]int32, float64, bool)
	PutRoute(homeLat, homeLon, workLat, workLon float64, weightKey string, route []int32, dist float64) error
}

// ODPair is one home -> work commute sampled from a census-style dataset.
type ODPair struct {
	HomeLat float64
	HomeLon float64
	WorkLat float64
	WorkLon float64
}

// TripResult is the outcome of routing one OD pair. Solved is false for
// unreachable pairs, degenerate (same snapped node) trips and zero-length
// routes; those carry Err but are expected outcomes, not batch failures.
type TripResult struct {
	Index      int
	OriginNode int32
	DestNode   int32
	Route      []int32
	Dist       float64
	Efficiency float64
	Solved     bool
	Err        error
}

type BatchTripSimulator struct {
	g          *datastructure.Graph
	snapper    NodeSnapper
	routeAlgo  RouteAlgorithm
	cache      RouteCache
	numWorkers int
}

func NewBatchTripSimulator(g *datastructure.Graph, snapper NodeSnapper, routeAlgo RouteAlgorithm,
	cache RouteCache) *BatchTripSimulator {
	return &BatchTripSimulator{
		g:          g,
		snapper:    snapper,
		routeAlgo:  routeAlgo,
		cache:      cache,
		numWorkers: defaultWorkers,
	}
}

func (sim *BatchTripSimulator) SetNumWorkers(n int) {
	if n > 0 {
		sim.numWorkers = n
	}
}

// SimulateTrips routes every OD pair and returns one TripResult per pair, in
// input order regardless of which worker solved it. Per-pair routing failures
// are recorded on the result and never abort the batch.
func (sim *BatchTripSimulator) SimulateTrips(ctx context.Context, odPairs []ODPair, weightKey string) []TripResult {
	results := make([]TripResult, len(odPairs))
	if len(odPairs) == 0 {
		return results
	}

	workers := concurrent.NewWorkerPool[concurrent.TripJob, TripResult](sim.numWorkers, len(odPairs))
	for i, od := range odPairs {
		workers.AddJob(concurrent.NewTripJob(i, od.HomeLat, od.HomeLon, od.WorkLat, od.WorkLon))
	}
	workers.Close()
	workers.Start(func(job concurrent.TripJob) TripResult {
		select {
		case <-ctx.Done():
			return TripResult{Index: job.Index, Err: ctx.Err()}
		default:
		}
		return sim.simulateTrip(job, weightKey)
	})
	workers.Wait()

	for res := range workers.CollectResults() {
		results[res.Index] = res
	}
	return results
}

func (sim *BatchTripSimulator) simulateTrip(job concurrent.TripJob, weightKey string) TripResult {
	result := TripResult{Index: job.Index}

	originNode, err := sim.snapper.NearestNode(job.HomeLat, job.HomeLon)
	if err != nil {
		result.Err = err
		return result
	}
	destNode, err := sim.snapper.NearestNode(job.WorkLat, job.WorkLon)
	if err != nil {
		result.Err = err
		return result
	}
	result.OriginNode = originNode
	result.DestNode = destNode

	route, dist, cached := sim.cachedRoute(job, weightKey)
	if !cached {
		route, dist, err = sim.routeAlgo.ShortestPath(originNode, destNode, weightKey)
		if err != nil {
			// unreachable pair. expected after perturbation, excluded and counted.
			result.Err = err
			return result
		}
		sim.storeRoute(job, weightKey, route, dist)
	}
	result.Route = route
	result.Dist = dist

	if len(route) < 2 {
		// origin and destination snapped to the same node
		result.Err = efficiency.ErrInvalidRoute
		return result
	}

	eff, err := efficiency.Efficiency(sim.g, route)
	if err != nil {
		if !errors.Is(err, efficiency.ErrZeroLengthTrip) {
			log.Printf("trip %d: %v", job.Index, err)
		}
		result.Err = err
		return result
	}

	result.Efficiency = eff
	result.Solved = true
	return result
}

func (sim *BatchTripSimulator) cachedRoute(job concurrent.TripJob, weightKey string) ([]int32, float64, bool) {
	if sim.cache == nil {
		return nil, 0, false
	}
	return sim.cache.GetRoute(job.HomeLat, job.HomeLon, job.WorkLat, job.WorkLon, weightKey)
}

func (sim *BatchTripSimulator) storeRoute(job concurrent.TripJob, weightKey string, route []int32, dist float64) {
	if sim.cache == nil {
		return
	}
	if err := sim.cache.PutRoute(job.HomeLat, job.HomeLon, job.WorkLat, job.WorkLon, weightKey, route, dist); err != nil {
		log.Printf("route cache put: %v", err)
	}
}

var _ RouteAlgorithm = (*routing.RouteAlgorithm)(nil)
