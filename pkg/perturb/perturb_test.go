package perturb

import (
	"math"
	"testing"

	"github.com/danastri/streetlab/pkg/datastructure"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildGrid(t *testing.T, n int32) *datastructure.Graph {
	g := datastructure.NewGraph()
	for i := int32(0); i < n; i++ {
		require.NoError(t, g.AddNode(datastructure.NewNode(i, float64(i)*0.001, 0)))
	}
	for i := int32(0); i < n-1; i++ {
		_, err := g.AddEdge(i, i+1, 100, 30, 12, "")
		require.NoError(t, err)
		_, err = g.AddEdge(i+1, i, 100, 30, 12, "")
		require.NoError(t, err)
	}
	return g
}

func TestPerturbInvalidFraction(t *testing.T) {
	g := buildGrid(t, 10)

	_, err := Perturb(g, -0.1, 1)
	assert.ErrorIs(t, err, ErrInvalidFraction)

	_, err = Perturb(g, 1.1, 1)
	assert.ErrorIs(t, err, ErrInvalidFraction)

	// NaN fails every ordered comparison and must not slip past the guard
	_, err = Perturb(g, math.NaN(), 1)
	assert.ErrorIs(t, err, ErrInvalidFraction)

	_, err = RemovedNodes(g, math.NaN(), 1)
	assert.ErrorIs(t, err, ErrInvalidFraction)
}

func TestPerturbFractionZeroKeepsGraphIntact(t *testing.T) {
	g := buildGrid(t, 10)

	degraded, err := Perturb(g, 0, 7)
	require.NoError(t, err)

	assert.Equal(t, g.NumNodes(), degraded.NumNodes())
	assert.Equal(t, g.NumEdges(), degraded.NumEdges())
	assert.Equal(t, g.NodeIDs(), degraded.NodeIDs())
}

func TestPerturbRemovesExactFloorCount(t *testing.T) {
	g := buildGrid(t, 10)

	// floor(0.25 * 10) = 2
	degraded, err := Perturb(g, 0.25, 7)
	require.NoError(t, err)
	assert.Equal(t, 8, degraded.NumNodes())

	// floor(1.0 * 10) = 10
	empty, err := Perturb(g, 1.0, 7)
	require.NoError(t, err)
	assert.Equal(t, 0, empty.NumNodes())
	assert.Equal(t, 0, empty.NumEdges())
}

func TestPerturbDoesNotMutateInput(t *testing.T) {
	g := buildGrid(t, 10)

	_, err := Perturb(g, 0.5, 7)
	require.NoError(t, err)

	assert.Equal(t, 10, g.NumNodes())
	assert.Equal(t, 18, g.NumEdges())
}

func TestPerturbRemovesIncidentEdges(t *testing.T) {
	g := buildGrid(t, 10)

	removed, err := RemovedNodes(g, 0.3, 7)
	require.NoError(t, err)
	require.Len(t, removed, 3)

	degraded, err := Perturb(g, 0.3, 7)
	require.NoError(t, err)

	removedSet := make(map[int32]struct{})
	for _, id := range removed {
		removedSet[id] = struct{}{}
		assert.False(t, degraded.HasNode(id))
	}
	for _, id := range degraded.NodeIDs() {
		for _, e := range degraded.GetNodeOutEdges(id) {
			_, fromGone := removedSet[e.FromNodeID]
			_, toGone := removedSet[e.ToNodeID]
			assert.False(t, fromGone)
			assert.False(t, toGone)
		}
	}
}

func TestPerturbDeterministicPerSeed(t *testing.T) {
	g := buildGrid(t, 100)

	first, err := RemovedNodes(g, 0.1, 42)
	require.NoError(t, err)
	second, err := RemovedNodes(g, 0.1, 42)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	other, err := RemovedNodes(g, 0.1, 43)
	require.NoError(t, err)
	assert.NotEqual(t, first, other)
}

func TestRemovedNodesAreDistinct(t *testing.T) {
	g := buildGrid(t, 50)

	removed, err := RemovedNodes(g, 0.5, 3)
	require.NoError(t, err)
	require.Len(t, removed, 25)

	seen := make(map[int32]struct{})
	for _, id := range removed {
		_, dup := seen[id]
		assert.False(t, dup)
		seen[id] = struct{}{}
		assert.True(t, g.HasNode(id))
	}
}
