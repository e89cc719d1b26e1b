// Package osmloader builds the analysis graph from an openstreetmap pbf
// extract. Parsing is delegated to paulmach/osm; this package only filters
// drivable ways and derives per-edge length, speed and travel time.
package osmloader

import (
	"context"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/danastri/streetlab/pkg/datastructure"
	"github.com/danastri/streetlab/pkg/geo"

	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmpbf"
)

var skipHighway = map[string]struct{}{
	"footway":      {},
	"construction": {},
	"cycleway":     {},
	"path":         {},
	"pedestrian":   {},
	"busway":       {},
	"steps":        {},
	"bridleway":    {},
	"corridor":     {},
	"proposed":     {},
	"abandoned":    {},
	"platform":     {},
	"raceway":      {},
	"track":        {},
}

func RoadTypeMaxSpeed(roadType string) float64 {
	switch roadType {
	case "motorway":
		return 95
	case "trunk":
		return 85
	case "primary":
		return 75
	case "secondary":
		return 65
	case "tertiary":
		return 50
	case "unclassified":
		return 50
	case "residential":
		return 30
	case "service":
		return 20
	case "motorway_link":
		return 90
	case "trunk_link":
		return 80
	case "primary_link":
		return 70
	case "secondary_link":
		return 60
	case "tertiary_link":
		return 50
	case "living_street":
		return 20
	default:
		return 40
	}
}

type acceptedWay struct {
	nodeIDs []int64
	speed   float64
	oneway  bool
	name    string
}

type Loader struct {
	acceptedNodeCoord map[int64][2]float64
	nodeIDMap         map[int64]int32
	nextNodeID        int32
}

func NewLoader() *Loader {
	return &Loader{
		acceptedNodeCoord: make(map[int64][2]float64),
		nodeIDMap:         make(map[int64]int32),
	}
}

// LoadGraph scans the pbf file twice: ways first to learn which nodes belong
// to the drivable network, then nodes for their coordinates.
func (l *Loader) LoadGraph(ctx context.Context, mapFile string) (*datastructure.Graph, error) {
	ways, usedNodes, err := l.scanWays(ctx, mapFile)
	if err != nil {
		return nil, err
	}
	log.Printf("accepted %d drivable ways from %s", len(ways), mapFile)

	if err := l.scanNodes(ctx, mapFile, usedNodes); err != nil {
		return nil, err
	}
	log.Printf("resolved %d way node coordinates", len(l.acceptedNodeCoord))

	return l.buildGraph(ways)
}

func (l *Loader) scanWays(ctx context.Context, mapFile string) ([]acceptedWay, map[int64]struct{}, error) {
	f, err := os.Open(mapFile)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	scanner := osmpbf.New(ctx, f, 1)
	defer scanner.Close()

	ways := make([]acceptedWay, 0)
	usedNodes := make(map[int64]struct{})

	for scanner.Scan() {
		way, ok := scanner.Object().(*osm.Way)
		if !ok {
			continue
		}
		highway := way.Tags.Find("highway")
		if highway == "" {
			continue
		}
		if _, skip := skipHighway[highway]; skip {
			continue
		}
		if len(way.Nodes) < 2 {
			continue
		}

		nodeIDs := make([]int64, 0, len(way.Nodes))
		for _, wn := range way.Nodes {
			nodeIDs = append(nodeIDs, int64(wn.ID))
			usedNodes[int64(wn.ID)] = struct{}{}
		}

		ways = append(ways, acceptedWay{
			nodeIDs: nodeIDs,
			speed:   waySpeed(way, highway),
			oneway:  isOneway(way),
			name:    way.Tags.Find("name"),
		})
	}
	if err := scanner.Err(); err != nil && err != io.EOF {
		return nil, nil, err
	}
	return ways, usedNodes, nil
}

func (l *Loader) scanNodes(ctx context.Context, mapFile string, usedNodes map[int64]struct{}) error {
	f, err := os.Open(mapFile)
	if err != nil {
		return err
	}
	defer f.Close()

	scanner := osmpbf.New(ctx, f, 1)
	defer scanner.Close()

	for scanner.Scan() {
		node, ok := scanner.Object().(*osm.Node)
		if !ok {
			continue
		}
		if _, used := usedNodes[int64(node.ID)]; !used {
			continue
		}
		l.acceptedNodeCoord[int64(node.ID)] = [2]float64{node.Lat, node.Lon}
	}
	if err := scanner.Err(); err != nil && err != io.EOF {
		return err
	}
	return nil
}

func (l *Loader) graphNodeID(g *datastructure.Graph, osmID int64) (int32, bool) {
	if id, ok := l.nodeIDMap[osmID]; ok {
		return id, true
	}
	coord, ok := l.acceptedNodeCoord[osmID]
	if !ok {
		// node referenced by a way but missing from the extract
		return 0, false
	}
	id := l.nextNodeID
	l.nextNodeID++
	l.nodeIDMap[osmID] = id
	g.AddNode(datastructure.Node{
		ID:    id,
		OsmID: osmID,
		Lat:   coord[0],
		Lon:   coord[1],
	})
	return id, true
}

func (l *Loader) buildGraph(ways []acceptedWay) (*datastructure.Graph, error) {
	g := datastructure.NewGraph()
	for _, way := range ways {
		for i := 0; i < len(way.nodeIDs)-1; i++ {
			fromID, ok := l.graphNodeID(g, way.nodeIDs[i])
			if !ok {
				continue
			}
			toID, ok := l.graphNodeID(g, way.nodeIDs[i+1])
			if !ok {
				continue
			}

			fromNode, _ := g.GetNode(fromID)
			toNode, _ := g.GetNode(toID)
			dist := geo.CalculateHaversineDistance(fromNode.Lat, fromNode.Lon, toNode.Lat, toNode.Lon)
			travelTime := dist / (way.speed / 3.6) // second

			if _, err := g.AddEdge(fromID, toID, dist, way.speed, travelTime, way.name); err != nil {
				return nil, err
			}
			if !way.oneway {
				if _, err := g.AddEdge(toID, fromID, dist, way.speed, travelTime, way.name); err != nil {
					return nil, err
				}
			}
		}
	}
	g.UpdateStreetCounts()
	log.Printf("built graph: %d nodes, %d edges", g.NumNodes(), g.NumEdges())
	return g, nil
}

func waySpeed(way *osm.Way, highway string) float64 {
	maxspeed := way.Tags.Find("maxspeed")
	if maxspeed != "" {
		maxspeed = strings.TrimSuffix(maxspeed, " km/h")
		if speed, err := strconv.ParseFloat(maxspeed, 64); err == nil && speed > 0 {
			return speed
		}
	}
	return RoadTypeMaxSpeed(highway)
}

func isOneway(way *osm.Way) bool {
	switch way.Tags.Find("oneway") {
	case "yes", "1", "true":
		return true
	}
	junction := way.Tags.Find("junction")
	return junction == "roundabout" || junction == "circular"
}
