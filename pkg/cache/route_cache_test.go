package cache

import (
	"testing"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) *RouteCache {
	opts := badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	db, err := badger.Open(opts)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewRouteCache(db)
}

func TestGetRouteMiss(t *testing.T) {
	c := newTestCache(t)

	_, err := c.get(routeKey(-6.1753, 106.8271, -6.1950, 106.8230, "length"))
	assert.ErrorIs(t, err, ErrRouteNotFound)

	route, dist, ok := c.GetRoute(-6.1753, 106.8271, -6.1950, 106.8230, "length")
	assert.False(t, ok)
	assert.Nil(t, route)
	assert.Equal(t, 0.0, dist)
}

func TestPutThenGetRoute(t *testing.T) {
	c := newTestCache(t)

	want := []int32{0, 4, 9, 12}
	require.NoError(t, c.PutRoute(-6.1753, 106.8271, -6.1950, 106.8230, "length", want, 2180.5))

	route, dist, ok := c.GetRoute(-6.1753, 106.8271, -6.1950, 106.8230, "length")
	require.True(t, ok)
	assert.Equal(t, want, route)
	assert.InDelta(t, 2180.5, dist, 1e-9)

	// a different weight key is a different entry
	_, _, ok = c.GetRoute(-6.1753, 106.8271, -6.1950, 106.8230, "travel_time")
	assert.False(t, ok)
}
