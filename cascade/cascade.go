// Package cascade runs independent cascade replicas over one private graph copy.
//
// A single replica produces two counts from the same random draws: how many nodes the candidate
// activates on top of the seed set, and how many of those the best-other candidate's cascade
// would not have reached.
package cascade

import (
	"math/rand/v2"

	"github.com/ScottSallinen/celfpp/graph"
	"github.com/ScottSallinen/celfpp/utils"
)

// Target of a simulation, in internal vertex indices.
type Target struct {
	Candidate uint32
	Best      uint32
	HasBest   bool
	Seeds     []uint32
}

// Gain holds running sums over replicas.
type Gain struct {
	Covered        uint64 // Nodes newly activated by the candidate.
	CoveredNetBest uint64 // Of those, the ones the best-other cascade does not explain.
}

func (g *Gain) Add(o Gain) {
	g.Covered += o.Covered
	g.CoveredNetBest += o.CoveredNetBest
}

// Simulator is not safe for concurrent use; it owns the graph states and the random stream.
type Simulator struct {
	g        *graph.Graph
	p        float64
	rng      *rand.Rand
	frontier utils.Deque[uint32]
}

// New takes ownership of g. Every edge fires with probability p per attempt.
func New(g *graph.Graph, p float64, rng *rand.Rand) *Simulator {
	return &Simulator{g: g, p: p, rng: rng}
}

func (s *Simulator) Graph() *graph.Graph {
	return s.g
}

// Run sums count replicas. Indices in t must be valid for the simulator's graph.
func (s *Simulator) Run(t Target, count uint64) (sum Gain) {
	for i := uint64(0); i < count; i++ {
		s.g.ResetStates()
		sum.Add(s.replica(t))
	}
	return sum
}

func (s *Simulator) fires() bool {
	return s.rng.Float64() < s.p
}

func (s *Simulator) replica(t Target) (gain Gain) {
	vs := s.g.Vertices

	// Baseline footprint of the seed set.
	s.frontier.Clear()
	for _, sidx := range t.Seeds {
		if vs[sidx].State == graph.Inactive {
			vs[sidx].State = graph.SeedActive
			s.frontier.PushBack(sidx)
		}
	}
	s.spread(graph.SeedActive)

	// Best-other footprint, excluding what the seeds already reach.
	if t.HasBest && vs[t.Best].State == graph.Inactive {
		vs[t.Best].State = graph.BestActive
		s.frontier.PushBack(t.Best)
		s.spread(graph.BestActive)
	}

	if vs[t.Candidate].State == graph.SeedActive {
		return gain
	}

	// Candidate footprint. Best-active nodes may be reached again; anything reached through them is
	// tagged so it is not credited as the candidate's own contribution.
	gain.Covered++
	if vs[t.Candidate].State == graph.BestActive {
		vs[t.Candidate].State = graph.CandidateActiveViaBest
	} else {
		vs[t.Candidate].State = graph.CandidateActive
		gain.CoveredNetBest++
	}
	s.frontier.PushBack(t.Candidate)
	for s.frontier.Len() > 0 {
		curr := s.frontier.PopFront()
		viaBest := vs[curr].State == graph.CandidateActiveViaBest
		for _, n := range vs[curr].Neighbours {
			st := vs[n].State
			if st != graph.Inactive && st != graph.BestActive {
				continue
			}
			if !s.fires() {
				continue
			}
			gain.Covered++
			if viaBest || st == graph.BestActive {
				vs[n].State = graph.CandidateActiveViaBest
			} else {
				vs[n].State = graph.CandidateActive
				gain.CoveredNetBest++
			}
			s.frontier.PushBack(n)
		}
	}
	return gain
}

// Breadth first diffusion from the current frontier over inactive vertices, which take state mark.
func (s *Simulator) spread(mark graph.State) {
	vs := s.g.Vertices
	for s.frontier.Len() > 0 {
		curr := s.frontier.PopFront()
		for _, n := range vs[curr].Neighbours {
			if vs[n].State != graph.Inactive {
				continue
			}
			if s.fires() {
				vs[n].State = mark
				s.frontier.PushBack(n)
			}
		}
	}
}
