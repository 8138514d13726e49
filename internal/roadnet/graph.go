// Package roadnet builds a weighted undirected graph from road polylines and
// answers shortest-path and nearest-node queries against it. A graph is built
// once per optimization run and never mutated afterwards.
package roadnet

import (
	"container/heap"
	"fmt"
	"math"

	"github.com/QuantamAIDevelopment/solid-waste-management/internal/model"
)

// MetersPerDegree is the linear degrees-to-meters approximation used when
// reporting segment lengths externally. Internal edge weights stay in native
// coordinate units so path-cost comparisons are unaffected.
const MetersPerDegree = 111000.0

// gridDeg quantizes node coordinates before they are used as map keys.
// Roughly one centimeter at the equator; coincident vertices from different
// source features collapse to a single node even with floating-point noise.
const gridDeg = 1e-7

// NodeID indexes the graph's node table. Node order is insertion order,
// which keeps snapping tie-breaks stable between runs.
type NodeID int32

type halfEdge struct {
	to     NodeID
	weight float64
}

// GeometryError reports a degenerate road geometry. The builder skips the
// feature and keeps going; callers read the skip count off the graph.
type GeometryError struct {
	Index    int
	Vertices int
}

func (e *GeometryError) Error() string {
	return fmt.Sprintf("road geometry %d is degenerate (%d vertices)", e.Index, e.Vertices)
}

// Graph is a weighted undirected road graph.
type Graph struct {
	nodes   []model.Coordinate
	index   map[[2]int64]NodeID
	adj     [][]halfEdge
	skipped int
}

// Build constructs a graph from road polylines. For every consecutive vertex
// pair an undirected edge is added, weighted by planar Euclidean distance.
// Degenerate polylines (fewer than two vertices) are skipped, not fatal.
func Build(lines [][]model.Coordinate) *Graph {
	g := &Graph{index: map[[2]int64]NodeID{}}
	for i, line := range lines {
		if err := g.addLine(i, line); err != nil {
			g.skipped++
		}
	}
	return g
}

func (g *Graph) addLine(idx int, line []model.Coordinate) error {
	if len(line) < 2 {
		return &GeometryError{Index: idx, Vertices: len(line)}
	}
	prev := g.node(line[0])
	for _, c := range line[1:] {
		cur := g.node(c)
		if cur != prev {
			w := euclid(g.nodes[prev], g.nodes[cur])
			g.adj[prev] = append(g.adj[prev], halfEdge{to: cur, weight: w})
			g.adj[cur] = append(g.adj[cur], halfEdge{to: prev, weight: w})
		}
		prev = cur
	}
	return nil
}

// node returns the NodeID for a coordinate, interning it if unseen.
func (g *Graph) node(c model.Coordinate) NodeID {
	key := [2]int64{int64(math.Round(c.Lon / gridDeg)), int64(math.Round(c.Lat / gridDeg))}
	if id, ok := g.index[key]; ok {
		return id
	}
	id := NodeID(len(g.nodes))
	g.index[key] = id
	g.nodes = append(g.nodes, c)
	g.adj = append(g.adj, nil)
	return id
}

// NumNodes reports the number of distinct nodes.
func (g *Graph) NumNodes() int { return len(g.nodes) }

// SkippedGeometries reports how many degenerate input polylines were dropped.
func (g *Graph) SkippedGeometries() int { return g.skipped }

// Coord returns the coordinate of a node.
func (g *Graph) Coord(id NodeID) model.Coordinate { return g.nodes[id] }

// IncidentSegments returns every edge touching the given node, with lengths
// rescaled to meters for external reporting.
func (g *Graph) IncidentSegments(id NodeID) []model.RoadSegment {
	out := make([]model.RoadSegment, 0, len(g.adj[id]))
	for _, e := range g.adj[id] {
		out = append(out, model.RoadSegment{
			Start:          g.nodes[id],
			End:            g.nodes[e.to],
			DistanceMeters: e.weight * MetersPerDegree,
		})
	}
	return out
}

// pqItem / pq implement the Dijkstra frontier on container/heap.
type pqItem struct {
	node NodeID
	dist float64
}

type pq []pqItem

func (p pq) Len() int           { return len(p) }
func (p pq) Less(i, j int) bool { return p[i].dist < p[j].dist }
func (p pq) Swap(i, j int)      { p[i], p[j] = p[j], p[i] }
func (p *pq) Push(x any)        { *p = append(*p, x.(pqItem)) }
func (p *pq) Pop() any {
	old := *p
	n := len(old)
	item := old[n-1]
	*p = old[:n-1]
	return item
}

// ShortestPath runs Dijkstra between two nodes. The boolean result is false
// when the nodes live in disconnected components.
func (g *Graph) ShortestPath(src, dst NodeID) ([]NodeID, float64, bool) {
	if src == dst {
		return []NodeID{src}, 0, true
	}
	dist := map[NodeID]float64{src: 0}
	prev := map[NodeID]NodeID{}
	frontier := &pq{}
	heap.Push(frontier, pqItem{node: src, dist: 0})

	for frontier.Len() > 0 {
		cur := heap.Pop(frontier).(pqItem)
		u := cur.node
		if u == dst {
			break
		}
		if cur.dist > dist[u] {
			continue // stale entry
		}
		for _, e := range g.adj[u] {
			nd := dist[u] + e.weight
			if old, seen := dist[e.to]; !seen || nd < old {
				dist[e.to] = nd
				prev[e.to] = u
				heap.Push(frontier, pqItem{node: e.to, dist: nd})
			}
		}
	}

	total, ok := dist[dst]
	if !ok {
		return nil, 0, false
	}
	path := []NodeID{}
	for cur := dst; cur != src; cur = prev[cur] {
		path = append(path, cur)
	}
	path = append(path, src)
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path, total, true
}

func euclid(a, b model.Coordinate) float64 {
	dx := a.Lon - b.Lon
	dy := a.Lat - b.Lat
	return math.Sqrt(dx*dx + dy*dy)
}
