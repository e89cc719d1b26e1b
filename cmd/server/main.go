package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"runtime/pprof"
	"strings"

	"github.com/danastri/streetlab/pkg/cache"
	"github.com/danastri/streetlab/pkg/osmloader"
	"github.com/danastri/streetlab/pkg/routing"
	"github.com/danastri/streetlab/pkg/server/rest"
	"github.com/danastri/streetlab/pkg/server/rest/service"
	"github.com/danastri/streetlab/pkg/snap"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	_ "net/http/pprof"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

var (
	listenAddr = flag.String("listenaddr", ":5000", "server listen address")
	mapFile    = flag.String("f", "jakarta.osm.pbf", "openstreetmap file for the road network graph")
	cacheDir   = flag.String("cachedir", "./streetlab-cache", "badger directory for the route cache")
	memprofile = flag.String("memprofile", "", "write memory profile to this file")
)

func main() {
	flag.Parse()

	loader := osmloader.NewLoader()
	graph, err := loader.LoadGraph(context.Background(), *mapFile)
	if err != nil {
		log.Fatal(err)
	}

	recordMemProfile(memprofile, "load_graph")

	snapper, err := snap.NewNodeSnapper(graph)
	if err != nil {
		log.Fatal(err)
	}
	routeAlgo := routing.NewRouteAlgorithm(graph)

	db, err := badger.Open(badger.DefaultOptions(*cacheDir))
	if err != nil {
		log.Fatal(err)
	}
	routeCache := cache.NewRouteCache(db)
	defer routeCache.Close()

	reg := prometheus.NewRegistry()
	m := rest.NewMetrics(reg)

	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(rest.PromeHTTPMiddleware(m))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Mount("/debug", middleware.Profiler())
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	analysisSvc := service.NewAnalysisService(graph, snapper, routeAlgo, routeCache)
	recordMemProfile(memprofile, "service_init")

	rest.AnalysisRouter(r, analysisSvc, m)

	fmt.Printf("\nstreet network analysis ready!!")
	fmt.Printf("\nserver started at %s\n", *listenAddr)

	log.Fatal(http.ListenAndServe(*listenAddr, r))
}

func recordMemProfile(memprofile *string, name string) {
	if *memprofile != "" {
		*memprofile = strings.Replace(*memprofile, ".mprof", fmt.Sprintf("%s.mprof", name), -1)
		f, err := os.Create(*memprofile)
		if err != nil {
			log.Fatal(err)
		}
		pprof.WriteHeapProfile(f)
		f.Close()
	}
}
