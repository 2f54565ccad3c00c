package graph

import (
	"errors"
	"fmt"
	"slices"

	"github.com/rs/zerolog/log"
	"golang.org/x/exp/maps"

	"github.com/ScottSallinen/celfpp/utils"
)

var ErrUnknownNode = errors.New("unknown node")

// Adjacency is the raw input form: raw id -> raw ids of its neighbours.
// Listing an edge in both directions (or more than once) is fine; Build deduplicates.
type Adjacency map[uint32][]uint32

// Per-replica activation state of a vertex.
type State uint8

const (
	Inactive               State = iota
	SeedActive                   // Reached by the cascade from the seed set.
	BestActive                   // Reached by the cascade from the best-other candidate.
	CandidateActive              // Reached by the cascade from the candidate, and not explained by best-other.
	CandidateActiveViaBest       // Reached by the candidate, but also by best-other (directly or through an ancestor).
)

func (s State) String() string {
	switch s {
	case Inactive:
		return "Inactive"
	case SeedActive:
		return "SeedActive"
	case BestActive:
		return "BestActive"
	case CandidateActive:
		return "CandidateActive"
	case CandidateActiveViaBest:
		return "CandidateActiveViaBest"
	}
	return "State(" + utils.V(uint8(s)) + ")"
}

type Vertex struct {
	Id         uint32   // Raw (external) ID of the vertex.
	Neighbours []uint32 // Internal indices.
	State      State
}

// Graph is an undirected graph with dense internal indices.
// Structure is immutable after Build; only vertex State changes, so each simulating goroutine needs its own Clone.
type Graph struct {
	VertexMap map[uint32]uint32 // Raw to internal
	Vertices  []Vertex
	numEdges  uint64
}

// Build creates the graph from the adjacency. Internal indices follow ascending raw id order.
// Every id that appears (as key or neighbour) becomes a vertex. Self loops are dropped.
func Build(adj Adjacency) *Graph {
	present := make(map[uint32]struct{}, len(adj))
	for id, nbrs := range adj {
		present[id] = struct{}{}
		for _, n := range nbrs {
			present[n] = struct{}{}
		}
	}
	ids := maps.Keys(present)
	slices.Sort(ids)

	g := &Graph{
		VertexMap: make(map[uint32]uint32, len(ids)),
		Vertices:  make([]Vertex, len(ids)),
	}
	for idx, id := range ids {
		g.VertexMap[id] = uint32(idx)
		g.Vertices[idx].Id = id
	}

	// Link each unordered pair once, in both directions, walking in index order so the
	// neighbour order is reproducible.
	seen := make(map[[2]uint32]struct{})
	for idx, id := range ids {
		for _, n := range adj[id] {
			if n == id {
				continue
			}
			a, b := uint32(idx), g.VertexMap[n]
			key := [2]uint32{utils.Min(a, b), utils.Max(a, b)}
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			g.Vertices[a].Neighbours = append(g.Vertices[a].Neighbours, b)
			g.Vertices[b].Neighbours = append(g.Vertices[b].Neighbours, a)
			g.numEdges++
		}
	}
	return g
}

// Clone returns an independent deep copy (structure and states).
func (g *Graph) Clone() *Graph {
	c := &Graph{
		VertexMap: make(map[uint32]uint32, len(g.VertexMap)),
		Vertices:  make([]Vertex, len(g.Vertices)),
		numEdges:  g.numEdges,
	}
	for k, v := range g.VertexMap {
		c.VertexMap[k] = v
	}
	for vidx := range g.Vertices {
		c.Vertices[vidx] = g.Vertices[vidx]
		c.Vertices[vidx].Neighbours = slices.Clone(g.Vertices[vidx].Neighbours)
	}
	return c
}

func (g *Graph) NodeCount() int {
	return len(g.Vertices)
}

func (g *Graph) EdgeCount() uint64 {
	return g.numEdges
}

// Lookup maps a raw id to its internal index.
func (g *Graph) Lookup(raw uint32) (uint32, error) {
	if idx, ok := g.VertexMap[raw]; ok {
		return idx, nil
	}
	return 0, fmt.Errorf("%w: %d", ErrUnknownNode, raw)
}

// RawIds gives the raw ids in internal index order (ascending).
func (g *Graph) RawIds() []uint32 {
	ids := make([]uint32, len(g.Vertices))
	for vidx := range g.Vertices {
		ids[vidx] = g.Vertices[vidx].Id
	}
	return ids
}

func (g *Graph) ResetStates() {
	for vidx := range g.Vertices {
		g.Vertices[vidx].State = Inactive
	}
}

func (g *Graph) ComputeGraphStats() {
	if len(g.Vertices) == 0 {
		log.Info().Msg("----GraphStats---- empty graph")
		return
	}
	numIsolated := 0
	listDegree := make([]int, len(g.Vertices))
	for vidx := range g.Vertices {
		deg := len(g.Vertices[vidx].Neighbours)
		if deg == 0 {
			numIsolated++
		}
		listDegree[vidx] = deg
	}
	meanDegree := float64(utils.Sum(listDegree)) / float64(len(listDegree))

	log.Info().Msg("----GraphStats----")
	log.Info().Msg("Vertices " + utils.V(len(g.Vertices)))
	log.Info().Msg("Edges " + utils.V(g.numEdges))
	log.Info().Msg("Isolated " + utils.V(numIsolated) + " pct: " + utils.F("%.3f", float64(numIsolated)*100.0/float64(len(g.Vertices))))
	log.Info().Msg("MaxDeg " + utils.V(utils.MaxSlice(listDegree)) + " MeanDeg " + utils.F("%.3f", meanDegree))
	log.Info().Msg("MedianDeg " + utils.V(utils.Median(listDegree)) + " P99Deg " + utils.V(utils.Percentile(listDegree, 99)))
	log.Info().Msg("----EndStats----")
}
