package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/danastri/streetlab/pkg/osmloader"
	"github.com/danastri/streetlab/pkg/perturb"
	"github.com/danastri/streetlab/pkg/routing"
	"github.com/danastri/streetlab/pkg/simulator"
	"github.com/danastri/streetlab/pkg/snap"
)

var (
	mapFile   = flag.String("f", "jakarta.osm.pbf", "openstreetmap file for the road network graph")
	odFile    = flag.String("od", "od_pairs.csv", "csv of home_lat,home_lon,work_lat,work_lon pairs")
	weightKey = flag.String("weight", "length", "edge weight key (length or travel_time)")
	fraction  = flag.Float64("fraction", 0.10, "fraction of nodes to remove")
	seed      = flag.Uint64("seed", 42, "rng seed for reproducible node sampling")
	workers   = flag.Int("workers", 8, "number of routing workers")
)

func main() {
	flag.Parse()
	ctx := context.Background()

	loader := osmloader.NewLoader()
	graph, err := loader.LoadGraph(ctx, *mapFile)
	if err != nil {
		log.Fatal(err)
	}

	odPairs, err := simulator.LoadODPairs(*odFile)
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("loaded %d od pairs from %s", len(odPairs), *odFile)

	snapper, err := snap.NewNodeSnapper(graph)
	if err != nil {
		log.Fatal(err)
	}
	baseSim := simulator.NewBatchTripSimulator(graph, snapper, routing.NewRouteAlgorithm(graph), nil)
	baseSim.SetNumWorkers(*workers)
	before := simulator.Summarize(baseSim.SimulateTrips(ctx, odPairs, *weightKey))

	degraded, err := perturb.Perturb(graph, *fraction, *seed)
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("removed %d of %d nodes", graph.NumNodes()-degraded.NumNodes(), graph.NumNodes())

	degradedSnapper, err := snap.NewNodeSnapper(degraded)
	if err != nil {
		log.Fatal(err)
	}
	degradedSim := simulator.NewBatchTripSimulator(degraded, degradedSnapper, routing.NewRouteAlgorithm(degraded), nil)
	degradedSim.SetNumWorkers(*workers)
	after := simulator.Summarize(degradedSim.SimulateTrips(ctx, odPairs, *weightKey))

	cmp := simulator.Compare(before, after)

	fmt.Printf("\nbefore perturbation: %d solved, %d excluded, mean efficiency %.4f (std %.4f)\n",
		before.Solved, before.Excluded, before.MeanEfficiency, before.StdEfficiency)
	fmt.Printf("after  perturbation: %d solved, %d excluded, mean efficiency %.4f (std %.4f)\n",
		after.Solved, after.Excluded, after.MeanEfficiency, after.StdEfficiency)

	if cmp.FractionUnsolvableDefined {
		fmt.Printf("fraction of trips now unsolvable: %.4f\n", cmp.FractionUnsolvable)
	} else {
		fmt.Println("fraction of trips now unsolvable: undefined (no trips solved before)")
	}
	if cmp.EfficiencyDegradationDefined {
		fmt.Printf("relative efficiency degradation:  %.4f\n", cmp.EfficiencyDegradation)
	} else {
		fmt.Println("relative efficiency degradation:  undefined (zero mean efficiency before)")
	}
}
