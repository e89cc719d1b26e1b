// Package perturb simulates random infrastructure failure: it removes a
// uniformly sampled fraction of nodes from a structural copy of the street
// graph so before/after analyses can run side by side.
package perturb

import (
	"errors"
	"fmt"

	"github.com/danastri/streetlab/pkg/datastructure"

	"golang.org/x/exp/rand"
)

var (
	ErrInvalidFraction = errors.New("perturb: fraction must be in [0, 1]")
)

// RemovedNodes samples floor(fraction * numNodes) distinct node IDs uniformly
// without replacement over the graph's node insertion order. Identical seed,
// fraction and node ordering always select the same subset.
func RemovedNodes(g *datastructure.Graph, fraction float64, seed uint64) ([]int32, error) {
	// the negated form also rejects NaN, which fails every ordered comparison
	if !(fraction >= 0 && fraction <= 1) {
		return nil, fmt.Errorf("%w: got %f", ErrInvalidFraction, fraction)
	}

	n := int(fraction * float64(g.NumNodes()))
	if n == 0 {
		return []int32{}, nil
	}

	// partial Fisher-Yates over a copy of the node ordering
	rng := rand.New(rand.NewSource(seed))
	ids := g.NodeIDs()
	for i := 0; i < n; i++ {
		j := i + rng.Intn(len(ids)-i)
		ids[i], ids[j] = ids[j], ids[i]
	}
	return ids[:n], nil
}

// Perturb returns an independent degraded copy of the graph with the sampled
// nodes and every edge touching them removed. The input graph is never
// mutated.
func Perturb(g *datastructure.Graph, fraction float64, seed uint64) (*datastructure.Graph, error) {
	removed, err := RemovedNodes(g, fraction, seed)
	if err != nil {
		return nil, err
	}
	degraded := g.Clone()
	degraded.RemoveNodes(removed)
	return degraded, nil
}
