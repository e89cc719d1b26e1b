package simulator

import (
	"context"
	"strings"
	"testing"

	"github.com/danastri/streetlab/pkg/datastructure"
	"github.com/danastri/streetlab/pkg/geo"
	"github.com/danastri/streetlab/pkg/perturb"
	"github.com/danastri/streetlab/pkg/routing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gridSnapper snaps to the nearest node by brute force, avoiding an r-tree
// dependency in these tests.
type gridSnapper struct {
	g *datastructure.Graph
}

func (s *gridSnapper) NearestNode(lat, lon float64) (int32, error) {
	best := int32(-1)
	bestDist := -1.0
	for _, node := range s.g.Nodes() {
		d := geo.CalculateHaversineDistance(lat, lon, node.Lat, node.Lon)
		if bestDist < 0 || d < bestDist {
			best = node.ID
			bestDist = d
		}
	}
	return best, nil
}

// buildChain is a line of n nodes spaced ~111m apart with bidirectional
// edges whose length matches the node spacing.
func buildChain(t *testing.T, n int32) *datastructure.Graph {
	g := datastructure.NewGraph()
	for i := int32(0); i < n; i++ {
		require.NoError(t, g.AddNode(datastructure.NewNode(i, float64(i)*0.001, 0)))
	}
	for i := int32(0); i < n-1; i++ {
		from, _ := g.GetNode(i)
		to, _ := g.GetNode(i + 1)
		dist := geo.CalculateHaversineDistance(from.Lat, from.Lon, to.Lat, to.Lon)
		_, err := g.AddEdge(i, i+1, dist, 30, dist/8.33, "")
		require.NoError(t, err)
		_, err = g.AddEdge(i+1, i, dist, 30, dist/8.33, "")
		require.NoError(t, err)
	}
	return g
}

func chainOD(fromIdx, toIdx int32) ODPair {
	return ODPair{
		HomeLat: float64(fromIdx) * 0.001,
		HomeLon: 0,
		WorkLat: float64(toIdx) * 0.001,
		WorkLon: 0,
	}
}

func newChainSimulator(t *testing.T, g *datastructure.Graph) *BatchTripSimulator {
	return NewBatchTripSimulator(g, &gridSnapper{g}, routing.NewRouteAlgorithm(g), nil)
}

func TestSimulateTripsKeepsInputOrder(t *testing.T) {
	g := buildChain(t, 10)
	sim := newChainSimulator(t, g)

	odPairs := []ODPair{
		chainOD(0, 9),
		chainOD(9, 0),
		chainOD(2, 5),
		chainOD(7, 1),
	}
	results := sim.SimulateTrips(context.Background(), odPairs, datastructure.WeightLength)

	require.Len(t, results, len(odPairs))
	for i, res := range results {
		assert.Equal(t, i, res.Index)
		assert.True(t, res.Solved)
	}
	assert.Equal(t, int32(0), results[0].OriginNode)
	assert.Equal(t, int32(9), results[0].DestNode)
	assert.Equal(t, int32(9), results[1].OriginNode)
	assert.Equal(t, int32(0), results[1].DestNode)
}

func TestSimulateTripsStraightChainEfficiencyOne(t *testing.T) {
	g := buildChain(t, 10)
	sim := newChainSimulator(t, g)

	results := sim.SimulateTrips(context.Background(), []ODPair{chainOD(0, 9)}, datastructure.WeightLength)
	require.Len(t, results, 1)
	require.True(t, results[0].Solved)
	assert.Equal(t, 10, len(results[0].Route))
	assert.InDelta(t, 1.0, results[0].Efficiency, 1e-6)
}

func TestSimulateTripsExcludesDegeneratePairs(t *testing.T) {
	g := buildChain(t, 10)
	sim := newChainSimulator(t, g)

	// both ends snap to node 4
	results := sim.SimulateTrips(context.Background(), []ODPair{chainOD(4, 4)}, datastructure.WeightLength)
	require.Len(t, results, 1)
	assert.False(t, results[0].Solved)
	assert.Error(t, results[0].Err)

	summary := Summarize(results)
	assert.Equal(t, 0, summary.Solved)
	assert.Equal(t, 1, summary.Excluded)
}

func TestSimulateTripsUnreachableExcludedNotFatal(t *testing.T) {
	g := buildChain(t, 10)
	// split the chain: remove the middle node
	g.RemoveNodes([]int32{5})
	sim := newChainSimulator(t, g)

	odPairs := []ODPair{
		chainOD(0, 9), // crosses the cut, unreachable
		chainOD(0, 4), // stays on the left side
	}
	results := sim.SimulateTrips(context.Background(), odPairs, datastructure.WeightLength)

	assert.False(t, results[0].Solved)
	assert.ErrorIs(t, results[0].Err, routing.ErrNoPath)
	assert.True(t, results[1].Solved)

	summary := Summarize(results)
	assert.Equal(t, 1, summary.Solved)
	assert.Equal(t, 1, summary.Excluded)
	assert.LessOrEqual(t, summary.Solved, len(odPairs))
}

func TestSummarizeStatistics(t *testing.T) {
	results := []TripResult{
		{Solved: true, Efficiency: 0.5},
		{Solved: true, Efficiency: 0.7},
		{Solved: true, Efficiency: 0.9},
		{Solved: false},
	}
	summary := Summarize(results)

	assert.Equal(t, 3, summary.Solved)
	assert.Equal(t, 1, summary.Excluded)
	assert.InDelta(t, 0.7, summary.MeanEfficiency, 1e-9)
	assert.Equal(t, 0.5, summary.MinEfficiency)
	assert.Equal(t, 0.9, summary.MaxEfficiency)
	assert.Equal(t, 0.7, summary.MedEfficiency)
}

func TestSummarizeEmpty(t *testing.T) {
	summary := Summarize(nil)
	assert.Equal(t, 0, summary.Solved)
	assert.Equal(t, 0, summary.Excluded)
	assert.Equal(t, 0.0, summary.MeanEfficiency)
}

func TestCompareMetrics(t *testing.T) {
	before := Summary{Solved: 100, MeanEfficiency: 0.75}
	after := Summary{Solved: 80, MeanEfficiency: 0.60}

	cmp := Compare(before, after)
	require.True(t, cmp.FractionUnsolvableDefined)
	require.True(t, cmp.EfficiencyDegradationDefined)
	assert.InDelta(t, 0.20, cmp.FractionUnsolvable, 1e-9)
	assert.InDelta(t, 0.20, cmp.EfficiencyDegradation, 1e-9)
}

func TestCompareUndefinedWhenNothingSolvedBefore(t *testing.T) {
	cmp := Compare(Summary{}, Summary{Solved: 5, MeanEfficiency: 0.5})
	assert.False(t, cmp.FractionUnsolvableDefined)
	assert.False(t, cmp.EfficiencyDegradationDefined)
}

func TestPerturbationComparisonEndToEnd(t *testing.T) {
	g := buildChain(t, 20)
	sim := newChainSimulator(t, g)

	odPairs := []ODPair{
		chainOD(0, 19),
		chainOD(3, 15),
		chainOD(18, 1),
		chainOD(5, 12),
	}
	before := Summarize(sim.SimulateTrips(context.Background(), odPairs, datastructure.WeightLength))
	require.Equal(t, 4, before.Solved)

	degraded, err := perturb.Perturb(g, 0.25, 11)
	require.NoError(t, err)
	degradedSim := NewBatchTripSimulator(degraded, &gridSnapper{degraded}, routing.NewRouteAlgorithm(degraded), nil)
	after := Summarize(degradedSim.SimulateTrips(context.Background(), odPairs, datastructure.WeightLength))

	assert.LessOrEqual(t, after.Solved, before.Solved)

	cmp := Compare(before, after)
	require.True(t, cmp.FractionUnsolvableDefined)
	assert.GreaterOrEqual(t, cmp.FractionUnsolvable, 0.0)

	// base graph untouched by the whole comparison
	assert.Equal(t, 20, g.NumNodes())
}

func TestReadODPairs(t *testing.T) {
	csv := `home_lat,home_lon,work_lat,work_lon
-6.2000,106.8000,-6.1754,106.8272
-6.2100,106.8100,-6.1900,106.8200
`
	odPairs, err := ReadODPairs(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, odPairs, 2)
	assert.Equal(t, -6.2, odPairs[0].HomeLat)
	assert.Equal(t, 106.8272, odPairs[0].WorkLon)
}

func TestReadODPairsNoHeader(t *testing.T) {
	csv := "-6.2,106.8,-6.1,106.9\n"
	odPairs, err := ReadODPairs(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, odPairs, 1)
}

func TestReadODPairsMalformed(t *testing.T) {
	csv := "-6.2,106.8,-6.1,106.9\nfoo,bar,baz,qux\n"
	_, err := ReadODPairs(strings.NewReader(csv))
	assert.Error(t, err)
}
