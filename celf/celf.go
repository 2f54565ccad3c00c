// Package celf selects seed nodes with the CELF++ lazy greedy loop.
//
// Every node carries two cached marginal gains: mg1 against the current seed set, and mg2
// against the seed set plus the best candidate known when mg1 was computed. When that best
// candidate is the next node accepted, mg2 is already the exact gain for the new seed set and
// can be promoted without another simulation.
package celf

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/ScottSallinen/celfpp/metrics"
	"github.com/ScottSallinen/celfpp/pool"
	"github.com/ScottSallinen/celfpp/utils"
)

var ErrTooManySeeds = errors.New("more seeds requested than nodes in the graph")

// Estimator answers marginal gain queries. *pool.Pool is the production implementation.
type Estimator interface {
	Estimate(q pool.Query) (pool.Estimate, error)
}

type Seed struct {
	Id   uint32
	Gain float64 // Marginal gain at the time of acceptance.
}

type Stats struct {
	Queries    uint64 // Estimator calls, including initialization.
	Accepted   uint64
	Reused     uint64 // Pops resolved by promoting mg2.
	Recomputed uint64 // Pops that needed a fresh query.
}

type Result struct {
	Seeds []Seed
	Total float64
	Stats Stats
}

// Per node lazy evaluation record.
type candidate struct {
	id       uint32
	order    int // Position in the node list; breaks ties in favour of earlier nodes.
	mg1      float64
	mg2      float64
	flag     int // Seed set size mg1 and mg2 were computed against.
	prevBest *candidate
}

func (c *candidate) Less(o *candidate) bool {
	if c.mg1 != o.mg1 {
		return c.mg1 > o.mg1
	}
	return c.order < o.order
}

type Selector struct {
	est     Estimator
	nodes   []uint32
	metrics *metrics.Metrics
}

// New prepares a selector over nodes, which also fixes the initialization and tie-break order.
// The metrics may be nil.
func New(est Estimator, nodes []uint32, m *metrics.Metrics) *Selector {
	return &Selector{est: est, nodes: nodes, metrics: m}
}

// run holds the mutable state of one greedy loop.
type run struct {
	*Selector
	queue    utils.PQ[*candidate]
	seeds    []uint32
	lastSeed *candidate
	curBest  *candidate
	res      Result
}

// Run selects k seeds. k == 0 returns an empty result without querying.
func (s *Selector) Run(k int) (Result, error) {
	if k < 0 {
		return Result{}, fmt.Errorf("seed count %d is negative", k)
	}
	if k > len(s.nodes) {
		return Result{}, fmt.Errorf("%w: k=%d, nodes=%d", ErrTooManySeeds, k, len(s.nodes))
	}
	r := &run{Selector: s, res: Result{Seeds: make([]Seed, 0, k)}}
	if k == 0 {
		return r.res, nil
	}

	watch := utils.Watch{}
	watch.Start()
	if err := r.initialize(); err != nil {
		return Result{}, err
	}
	log.Info().Msg("Initialized " + utils.V(len(s.nodes)) + " candidates in " + utils.V(watch.Lap().Milliseconds()) + " ms")

	for len(r.seeds) < k {
		if err := r.step(); err != nil {
			return Result{}, err
		}
	}
	log.Info().Msg("Selected " + utils.V(k) + " seeds, total expected spread " + utils.F("%.4f", r.res.Total) +
		", queries " + utils.V(r.res.Stats.Queries) + ", reused " + utils.V(r.res.Stats.Reused) +
		", in " + utils.V(watch.Elapsed().Milliseconds()) + " ms")
	return r.res, nil
}

func (r *run) query(u *candidate, best *candidate) (pool.Estimate, error) {
	q := pool.Query{Candidate: u.id, Seeds: r.seeds}
	if best != nil {
		q.Best, q.HasBest = best.id, true
	}
	r.res.Stats.Queries++
	est, err := r.est.Estimate(q)
	if err != nil {
		return est, fmt.Errorf("estimate node %d: %w", u.id, err)
	}
	return est, nil
}

// Evaluates u against the current seed set and best candidate, recording which best was used.
// A node is never its own best-other; that pairing carries no information and is treated as none.
func (r *run) evaluate(u *candidate) error {
	best := r.curBest
	if best == u {
		best = nil
	}
	est, err := r.query(u, best)
	if err != nil {
		return err
	}
	u.mg1 = est.Gain
	u.mg2 = est.Gain
	if best != nil {
		u.mg2 = est.GainNetBest
	}
	u.prevBest = best
	return nil
}

func (r *run) initialize() error {
	r.queue = make(utils.PQ[*candidate], 0, len(r.nodes))
	for i, id := range r.nodes {
		u := &candidate{id: id, order: i}
		if err := r.evaluate(u); err != nil {
			return err
		}
		r.metrics.Decision(metrics.Initial)
		r.queue.Push(u)
		if r.curBest == nil || u.mg1 > r.curBest.mg1 {
			r.curBest = u
		}
		if (i+1)%1000 == 0 {
			log.Debug().Msg(utils.V(i+1) + " nodes ready")
		}
	}
	return nil
}

// One queue pop.
func (r *run) step() error {
	u := r.queue.Pop()
	selected := len(r.seeds)

	if u.flag == selected {
		r.seeds = append(r.seeds, u.id)
		r.res.Seeds = append(r.res.Seeds, Seed{Id: u.id, Gain: u.mg1})
		r.res.Total += u.mg1
		r.res.Stats.Accepted++
		r.lastSeed = u
		r.curBest = nil
		r.metrics.Decision(metrics.Accept)
		r.metrics.SeedAccepted(len(r.seeds), r.res.Total)
		log.Info().Int("k", len(r.seeds)).Uint32("id", u.id).Float64("gain", u.mg1).Float64("total", r.res.Total).Msg("Accepted seed")
		return nil
	}

	if u.prevBest != nil && u.prevBest == r.lastSeed && u.flag == selected-1 {
		u.mg1 = u.mg2
		r.res.Stats.Reused++
		r.metrics.Decision(metrics.Reuse)
		log.Trace().Uint32("id", u.id).Float64("mg1", u.mg1).Msg("reuse")
	} else {
		if err := r.evaluate(u); err != nil {
			return err
		}
		r.res.Stats.Recomputed++
		r.metrics.Decision(metrics.Recompute)
		log.Trace().Uint32("id", u.id).Float64("mg1", u.mg1).Float64("mg2", u.mg2).Msg("recompute")
	}
	u.flag = selected
	r.queue.Push(u)
	r.curBest = r.queue.Peek()
	return nil
}
