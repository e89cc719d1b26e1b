package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/danastri/streetlab/pkg/accessibility"
	"github.com/danastri/streetlab/pkg/datastructure"
	"github.com/danastri/streetlab/pkg/efficiency"
	"github.com/danastri/streetlab/pkg/perturb"
	"github.com/danastri/streetlab/pkg/routing"
	"github.com/danastri/streetlab/pkg/simulator"
	"github.com/danastri/streetlab/pkg/snap"
)

var (
	ErrUnknownDecay = errors.New("service: unknown decay function")
)

type RouteAlgorithm interface {
	ShortestPath(from, to int32, weightKey string) ([]int32, float64, error)
}

type NodeSnapper interface {
	NearestNode(lat, lon float64) (int32, error)
	NearestStreetPoint(g *datastructure.Graph, lat, lon float64) (int32, datastructure.Coordinate, error)
}

type RouteResult struct {
	Route      []datastructure.Coordinate
	Polyline   string
	Dist       float64
	Efficiency float64
}

type PerturbationReport struct {
	RemovedNodes int
	Before       simulator.Summary
	After        simulator.Summary
	Comparison   simulator.Comparison
}

type AccessibilityResult struct {
	NearestDistances map[int32][]float64
	Counts           map[int32]float64
}

type AnalysisService struct {
	g         *datastructure.Graph
	snapper   NodeSnapper
	routeAlgo RouteAlgorithm
	cache     simulator.RouteCache
}

func NewAnalysisService(g *datastructure.Graph, snapper NodeSnapper, routeAlgo RouteAlgorithm,
	cache simulator.RouteCache) *AnalysisService {
	return &AnalysisService{
		g:         g,
		snapper:   snapper,
		routeAlgo: routeAlgo,
		cache:     cache,
	}
}

// Route solves a single OD pair and scores its efficiency. Endpoints snap
// onto the road segments themselves so the rendered path starts and ends at
// the query's street points, not at the nearest intersections.
func (s *AnalysisService) Route(ctx context.Context, homeLat, homeLon, workLat, workLon float64,
	weightKey string) (RouteResult, error) {
	originNode, originPoint, err := s.snapper.NearestStreetPoint(s.g, homeLat, homeLon)
	if err != nil {
		return RouteResult{}, err
	}
	destNode, destPoint, err := s.snapper.NearestStreetPoint(s.g, workLat, workLon)
	if err != nil {
		return RouteResult{}, err
	}

	route, dist, err := s.routeAlgo.ShortestPath(originNode, destNode, weightKey)
	if err != nil {
		return RouteResult{}, err
	}

	eff := 0.0
	if len(route) >= 2 {
		eff, err = efficiency.Efficiency(s.g, route)
		if err != nil && !errors.Is(err, efficiency.ErrZeroLengthTrip) {
			return RouteResult{}, err
		}
	}

	coords, err := datastructure.RouteCoordinates(s.g, route)
	if err != nil {
		return RouteResult{}, err
	}
	if len(coords) > 0 {
		if coords[0] != originPoint {
			coords = append([]datastructure.Coordinate{originPoint}, coords...)
		}
		if coords[len(coords)-1] != destPoint {
			coords = append(coords, destPoint)
		}
	}

	return RouteResult{
		Route:      coords,
		Polyline:   datastructure.RenderPath(coords),
		Dist:       dist,
		Efficiency: eff,
	}, nil
}

// SimulateTrips routes the OD batch on the base graph and aggregates its
// efficiency statistics.
func (s *AnalysisService) SimulateTrips(ctx context.Context, odPairs []simulator.ODPair,
	weightKey string) (simulator.Summary, error) {
	sim := simulator.NewBatchTripSimulator(s.g, s.snapper, s.routeAlgo, s.cache)
	results := sim.SimulateTrips(ctx, odPairs, weightKey)
	return simulator.Summarize(results), nil
}

// PerturbationAnalysis runs the OD batch on the base graph and on a degraded
// copy with the given node fraction removed, and reports the comparative
// metrics.
func (s *AnalysisService) PerturbationAnalysis(ctx context.Context, odPairs []simulator.ODPair,
	weightKey string, fraction float64, seed uint64) (PerturbationReport, error) {
	baseSim := simulator.NewBatchTripSimulator(s.g, s.snapper, s.routeAlgo, s.cache)
	before := simulator.Summarize(baseSim.SimulateTrips(ctx, odPairs, weightKey))

	degraded, err := perturb.Perturb(s.g, fraction, seed)
	if err != nil {
		return PerturbationReport{}, err
	}

	degradedSnapper, err := snap.NewNodeSnapper(degraded)
	if err != nil {
		return PerturbationReport{}, err
	}
	degradedRouting := routing.NewRouteAlgorithm(degraded)

	// no cache on the degraded run: cached routes belong to the base graph
	degradedSim := simulator.NewBatchTripSimulator(degraded, degradedSnapper, degradedRouting, nil)
	after := simulator.Summarize(degradedSim.SimulateTrips(ctx, odPairs, weightKey))

	return PerturbationReport{
		RemovedNodes: s.g.NumNodes() - degraded.NumNodes(),
		Before:       before,
		After:        after,
		Comparison:   simulator.Compare(before, after),
	}, nil
}

// Accessibility registers the POI set under its category and answers both
// nearest-K distances and the capped count within budget, per graph node.
func (s *AnalysisService) Accessibility(ctx context.Context, category string,
	pois []datastructure.Coordinate, maxItems int, maxDistance float64, weightKey string,
	decayName string, countCap int) (AccessibilityResult, error) {
	decay, err := decayByName(decayName)
	if err != nil {
		return AccessibilityResult{}, err
	}

	idx := accessibility.NewIndex(s.g, s.snapper, weightKey)
	if err := idx.RegisterPOIs(category, pois, maxItems, maxDistance); err != nil {
		return AccessibilityResult{}, err
	}

	nearest, err := idx.NearestPOIDistances(category)
	if err != nil {
		return AccessibilityResult{}, err
	}
	counts, err := idx.POICountWithin(category, maxDistance, decay, countCap)
	if err != nil {
		return AccessibilityResult{}, err
	}

	return AccessibilityResult{
		NearestDistances: nearest,
		Counts:           counts,
	}, nil
}

func decayByName(name string) (accessibility.DecayFunc, error) {
	switch name {
	case "", "flat":
		return accessibility.DecayFlat, nil
	case "linear":
		return accessibility.DecayLinear, nil
	case "exponential":
		return accessibility.DecayExponential, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownDecay, name)
}
