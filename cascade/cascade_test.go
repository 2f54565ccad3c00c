package cascade

import (
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ScottSallinen/celfpp/graph"
	"github.com/ScottSallinen/celfpp/utils"
)

func newSim(t *testing.T, edges string, p float64, seed uint64) *Simulator {
	t.Helper()
	adj, _, err := graph.ReadEdgeList(strings.NewReader(edges))
	require.NoError(t, err)
	return New(graph.Build(adj), p, rand.New(rand.NewPCG(seed, 0)))
}

func target(t *testing.T, s *Simulator, candidate uint32, best *uint32, seeds ...uint32) Target {
	t.Helper()
	g := s.Graph()
	var err error
	tgt := Target{}
	tgt.Candidate, err = g.Lookup(candidate)
	require.NoError(t, err)
	if best != nil {
		tgt.HasBest = true
		tgt.Best, err = g.Lookup(*best)
		require.NoError(t, err)
	}
	for _, raw := range seeds {
		idx, err := g.Lookup(raw)
		require.NoError(t, err)
		tgt.Seeds = append(tgt.Seeds, idx)
	}
	return tgt
}

func ptr(v uint32) *uint32 { return &v }

const path = "1 2\n2 3\n3 4\n"

func TestCandidateInSeedsIsZero(t *testing.T) {
	s := newSim(t, path, 0.5, 1)
	for _, best := range []*uint32{nil, ptr(4)} {
		gain := s.Run(target(t, s, 2, best, 2), 100)
		assert.Equal(t, Gain{}, gain)
	}
}

func TestCandidateReachedBySeedsIsZero(t *testing.T) {
	s := newSim(t, path, 1.0, 1)
	gain := s.Run(target(t, s, 1, nil, 3), 10)
	assert.Equal(t, Gain{}, gain)
}

func TestDeterministicFullSpread(t *testing.T) {
	s := newSim(t, path, 1.0, 1)
	gain := s.Run(target(t, s, 1, nil), 5)
	assert.Equal(t, Gain{Covered: 20, CoveredNetBest: 20}, gain)
}

func TestNoSpreadCountsCandidateOnly(t *testing.T) {
	s := newSim(t, path, 0.0, 1)
	gain := s.Run(target(t, s, 2, ptr(3)), 7)
	assert.Equal(t, Gain{Covered: 7, CoveredNetBest: 7}, gain)
}

func TestBestExplainsWholeComponent(t *testing.T) {
	s := newSim(t, path, 1.0, 1)
	gain := s.Run(target(t, s, 1, ptr(4)), 3)
	assert.Equal(t, Gain{Covered: 12, CoveredNetBest: 0}, gain)
}

func TestBestInOtherComponent(t *testing.T) {
	s := newSim(t, "1 2\n2 3\n10 11\n", 1.0, 1)
	gain := s.Run(target(t, s, 1, ptr(10)), 2)
	assert.Equal(t, Gain{Covered: 6, CoveredNetBest: 6}, gain)
}

// Best is blocked by the seed set, so it contributes nothing and the candidate keeps its full gain.
func TestBestAlreadySeedActive(t *testing.T) {
	s := newSim(t, "1 2\n3 4\n4 5\n", 1.0, 1)
	gain := s.Run(target(t, s, 4, ptr(2), 1), 2)
	assert.Equal(t, Gain{Covered: 6, CoveredNetBest: 6}, gain)
}

func TestStatesAfterReplica(t *testing.T) {
	// Best's component 1-2-3, candidate's component 5-6, and an isolated seed 4.
	s := newSim(t, "1 2\n2 3\n5 6\n4 4\n", 1.0, 1)
	gain := s.Run(target(t, s, 5, ptr(1), 4), 1)
	assert.Equal(t, Gain{Covered: 2, CoveredNetBest: 2}, gain)

	want := map[uint32]graph.State{
		1: graph.BestActive, 2: graph.BestActive, 3: graph.BestActive,
		4: graph.SeedActive, 5: graph.CandidateActive, 6: graph.CandidateActive,
	}
	for raw, st := range want {
		idx, _ := s.Graph().Lookup(raw)
		assert.Equal(t, st, s.Graph().Vertices[idx].State, "vertex %d", raw)
	}
}

func TestViaBestTagPropagates(t *testing.T) {
	// Best (2) reaches the whole component first, so the candidate starts tagged and every
	// vertex it reaches inherits the tag.
	s := newSim(t, "1 2\n2 3\n1 4\n", 1.0, 1)
	gain := s.Run(target(t, s, 1, ptr(2)), 1)
	assert.Equal(t, Gain{Covered: 4, CoveredNetBest: 0}, gain)
	for _, raw := range []uint32{1, 2, 3, 4} {
		idx, _ := s.Graph().Lookup(raw)
		assert.Equal(t, graph.CandidateActiveViaBest, s.Graph().Vertices[idx].State, "vertex %d", raw)
	}
}

func TestNetNeverExceedsCovered(t *testing.T) {
	r := rand.New(rand.NewPCG(7, 7))
	var sb strings.Builder
	for i := 0; i < 60; i++ {
		sb.WriteString(utils.V(r.IntN(20)) + " " + utils.V(r.IntN(20)) + "\n")
	}
	s := newSim(t, sb.String(), 0.4, 3)
	ids := s.Graph().RawIds()
	for i := 0; i < 200; i++ {
		u := ids[r.IntN(len(ids))]
		b := ids[r.IntN(len(ids))]
		gain := s.Run(target(t, s, u, &b, ids[r.IntN(len(ids))]), 1)
		assert.LessOrEqual(t, gain.CoveredNetBest, gain.Covered)
	}
}

func TestExpectedGainTwoNodes(t *testing.T) {
	const replicas = 40000
	s := newSim(t, "1 2\n", 0.5, 11)
	gain := s.Run(target(t, s, 1, nil), replicas)
	assert.InDelta(t, 1.5, float64(gain.Covered)/replicas, 0.02)
}

// Marginal gain shrinks (in expectation) as the seed set grows.
func TestSubmodularity(t *testing.T) {
	const replicas = 30000
	edges := "1 2\n1 3\n2 3\n3 4\n4 5\n5 6\n4 6\n6 7\n"
	s := newSim(t, edges, 0.4, 5)

	avg := func(seeds ...uint32) float64 {
		return float64(s.Run(target(t, s, 4, nil, seeds...), replicas).Covered) / replicas
	}
	g0 := avg()
	g1 := avg(3)
	g2 := avg(3, 6)
	g3 := avg(3, 6, 5)
	const slack = 0.03
	assert.GreaterOrEqual(t, g0+slack, g1)
	assert.GreaterOrEqual(t, g1+slack, g2)
	assert.GreaterOrEqual(t, g2+slack, g3)
}

func TestSameStreamSameResult(t *testing.T) {
	a := newSim(t, path, 0.5, 42)
	b := newSim(t, path, 0.5, 42)
	ta := target(t, a, 2, ptr(4))
	tb := target(t, b, 2, ptr(4))
	for i := 0; i < 5; i++ {
		assert.Equal(t, a.Run(ta, 50), b.Run(tb, 50))
	}
}

func BenchmarkReplica(b *testing.B) {
	r := rand.New(rand.NewPCG(1, 1))
	adj := graph.Adjacency{}
	for i := 0; i < 4000; i++ {
		u, v := uint32(r.IntN(1000)), uint32(r.IntN(1000))
		adj[u] = append(adj[u], v)
		adj[v] = append(adj[v], u)
	}
	g := graph.Build(adj)
	s := New(g, 0.1, rand.New(rand.NewPCG(2, 2)))
	tgt := Target{Candidate: 1, Best: 2, HasBest: true, Seeds: []uint32{3, 4, 5}}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s.Run(tgt, 1)
	}
}
