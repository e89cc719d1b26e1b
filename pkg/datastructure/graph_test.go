package datastructure

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildTriangle(t *testing.T) *Graph {
	g := NewGraph()
	require.NoError(t, g.AddNode(NewNode(0, 0.0, 0.0)))
	require.NoError(t, g.AddNode(NewNode(1, 0.0, 1.0)))
	require.NoError(t, g.AddNode(NewNode(2, 1.0, 0.0)))

	_, err := g.AddEdge(0, 1, 100, 30, 12, "jalan satu")
	require.NoError(t, err)
	_, err = g.AddEdge(1, 0, 100, 30, 12, "jalan satu")
	require.NoError(t, err)
	_, err = g.AddEdge(1, 2, 200, 30, 24, "jalan dua")
	require.NoError(t, err)
	_, err = g.AddEdge(2, 0, 150, 30, 18, "jalan tiga")
	require.NoError(t, err)
	return g
}

func TestAddEdgeParallelKeys(t *testing.T) {
	g := NewGraph()
	require.NoError(t, g.AddNode(NewNode(0, 0, 0)))
	require.NoError(t, g.AddNode(NewNode(1, 0, 1)))

	e1, err := g.AddEdge(0, 1, 100, 30, 12, "")
	require.NoError(t, err)
	e2, err := g.AddEdge(0, 1, 80, 30, 10, "")
	require.NoError(t, err)

	assert.Equal(t, int32(0), e1.Key)
	assert.Equal(t, int32(1), e2.Key)
	assert.Equal(t, 2, g.NumEdges())

	// minimum-weight parallel edge wins
	best, err := g.EdgeBetween(0, 1, WeightLength)
	require.NoError(t, err)
	assert.Equal(t, 80.0, best.Dist)
	assert.Equal(t, int32(1), best.Key)
}

func TestAddEdgeMissingNode(t *testing.T) {
	g := NewGraph()
	require.NoError(t, g.AddNode(NewNode(0, 0, 0)))

	_, err := g.AddEdge(0, 99, 100, 30, 12, "")
	assert.ErrorIs(t, err, ErrNodeNotFound)
}

func TestAddNodeDuplicate(t *testing.T) {
	g := NewGraph()
	require.NoError(t, g.AddNode(NewNode(0, 0, 0)))
	assert.ErrorIs(t, g.AddNode(NewNode(0, 1, 1)), ErrNodeExists)
}

func TestCloneIsIndependent(t *testing.T) {
	g := buildTriangle(t)
	clone := g.Clone()

	assert.Equal(t, g.NumNodes(), clone.NumNodes())
	assert.Equal(t, g.NumEdges(), clone.NumEdges())
	assert.Equal(t, g.NodeIDs(), clone.NodeIDs())

	clone.RemoveNodes([]int32{1})

	// base graph must not observe the clone's mutation
	assert.Equal(t, 3, g.NumNodes())
	assert.Equal(t, 4, g.NumEdges())
	assert.Equal(t, 2, clone.NumNodes())
	_, err := g.GetNode(1)
	assert.NoError(t, err)
}

func TestRemoveNodesDropsIncidentEdges(t *testing.T) {
	g := buildTriangle(t)
	g.RemoveNodes([]int32{1})

	assert.Equal(t, 2, g.NumNodes())
	// only 2->0 survives: 0->1, 1->0 and 1->2 all touch node 1
	assert.Equal(t, 1, g.NumEdges())
	_, err := g.EdgeBetween(2, 0, WeightLength)
	assert.NoError(t, err)
	_, err = g.EdgeBetween(0, 1, WeightLength)
	assert.ErrorIs(t, err, ErrEdgeNotFound)

	// surviving nodes keep insertion order
	assert.Equal(t, []int32{0, 2}, g.NodeIDs())
}

func TestRemoveNodesUnknownIDIsNoop(t *testing.T) {
	g := buildTriangle(t)
	g.RemoveNodes([]int32{99})
	assert.Equal(t, 3, g.NumNodes())
	assert.Equal(t, 4, g.NumEdges())
}

func TestReverse(t *testing.T) {
	g := buildTriangle(t)
	reversed := g.Reverse()

	assert.Equal(t, g.NumNodes(), reversed.NumNodes())
	assert.Equal(t, g.NumEdges(), reversed.NumEdges())
	assert.Equal(t, g.NodeIDs(), reversed.NodeIDs())

	// 1->2 becomes 2->1
	_, err := reversed.EdgeBetween(2, 1, WeightLength)
	assert.NoError(t, err)
	_, err = reversed.EdgeBetween(1, 2, WeightLength)
	assert.ErrorIs(t, err, ErrEdgeNotFound)
}

func TestEdgeWeightKeys(t *testing.T) {
	e := Edge{Dist: 120, TravelTime: 14.4}

	w, err := e.Weight(WeightLength)
	assert.NoError(t, err)
	assert.Equal(t, 120.0, w)

	w, err = e.Weight(WeightTravelTime)
	assert.NoError(t, err)
	assert.Equal(t, 14.4, w)

	_, err = e.Weight("speed_of_light")
	assert.ErrorIs(t, err, ErrUnknownWeight)
}

func TestUpdateStreetCounts(t *testing.T) {
	g := buildTriangle(t)
	g.UpdateStreetCounts()

	node, err := g.GetNode(0)
	require.NoError(t, err)
	assert.Equal(t, 2, node.StreetCount) // neighbors 1 and 2
}
