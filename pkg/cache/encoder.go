package cache

import (
	"github.com/DataDog/zstd"
	"github.com/kelindar/binary"
)

type cachedRoute struct {
	Route []int32
	Dist  float64
}

func encodeRoute(route cachedRoute) ([]byte, error) {
	bb, err := binary.Marshal(route)
	if err != nil {
		return nil, err
	}
	return compress(bb)
}

func loadRoute(bbCompressed []byte) (cachedRoute, error) {
	bb, err := decompress(bbCompressed)
	if err != nil {
		return cachedRoute{}, err
	}
	var route cachedRoute
	err = binary.Unmarshal(bb, &route)
	return route, err
}

func compress(bb []byte) ([]byte, error) {
	var bbCompressed []byte
	bbCompressed, err := zstd.Compress(bbCompressed, bb)
	if err != nil {
		return []byte{}, err
	}
	return bbCompressed, nil
}

func decompress(bbCompressed []byte) ([]byte, error) {
	var bb []byte
	bb, err := zstd.Decompress(bb, bbCompressed)
	if err != nil {
		return []byte{}, err
	}
	return bb, nil
}
