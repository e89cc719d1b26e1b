package cache

import (
	"errors"
	"fmt"
	"log"

	"github.com/dgraph-io/badger/v4"
	"github.com/uber/h3-go/v4"
)

var (
	ErrRouteNotFound = errors.New("cache: route not found")
)

// keyResolution h3 resolution for cache keys. Resolution 12 cells are ~9m
// across, small enough that two OD pairs sharing a key snap to the same
// graph nodes in practice.
const keyResolution = 12

// RouteCache memoizes solved routes in a badger KV store, keyed by the h3
// cells of the raw origin/destination coordinates plus the weight key.
type RouteCache struct {
	db *badger.DB
}

func NewRouteCache(db *badger.DB) *RouteCache {
	return &RouteCache{db}
}

func routeKey(homeLat, homeLon, workLat, workLon float64, weightKey string) []byte {
	homeCell := h3.LatLngToCell(h3.NewLatLng(homeLat, homeLon), keyResolution)
	workCell := h3.LatLngToCell(h3.NewLatLng(workLat, workLon), keyResolution)
	return []byte(fmt.Sprintf("%s|%s|%s", homeCell.String(), workCell.String(), weightKey))
}

func (c *RouteCache) get(key []byte) ([]byte, error) {
	var val []byte
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		val, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrRouteNotFound
	}
	return val, err
}

// GetRoute returns the cached route for the OD pair, or ok=false on a miss.
func (c *RouteCache) GetRoute(homeLat, homeLon, workLat, workLon float64, weightKey string) ([]int32, float64, bool) {
	val, err := c.get(routeKey(homeLat, homeLon, workLat, workLon, weightKey))
	if err != nil {
		if !errors.Is(err, ErrRouteNotFound) {
			log.Printf("route cache get: %v", err)
		}
		return nil, 0, false
	}
	cached, err := loadRoute(val)
	if err != nil {
		log.Printf("route cache decode: %v", err)
		return nil, 0, false
	}
	return cached.Route, cached.Dist, true
}

// PutRoute stores a solved route for the OD pair.
func (c *RouteCache) PutRoute(homeLat, homeLon, workLat, workLon float64, weightKey string, route []int32, dist float64) error {
	val, err := encodeRoute(cachedRoute{Route: route, Dist: dist})
	if err != nil {
		return err
	}
	return c.db.Update(func(txn *badger.Txn) error {
		return txn.Set(routeKey(homeLat, homeLon, workLat, workLon, weightKey), val)
	})
}

func (c *RouteCache) Close() {
	c.db.Close()
}
