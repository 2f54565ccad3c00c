package pool

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/stat"

	"github.com/ScottSallinen/celfpp/cascade"
	"github.com/ScottSallinen/celfpp/graph"
	"github.com/ScottSallinen/celfpp/metrics"
	"github.com/ScottSallinen/celfpp/utils"
)

var (
	ErrNoWorkers   = errors.New("worker count must be at least 1")
	ErrNoReplicas  = errors.New("replica count must be at least 1")
	ErrProbability = errors.New("activation probability must be within [0, 1]")
	ErrClosed      = errors.New("pool is closed")
)

type Options struct {
	Workers     int     // Long lived simulating goroutines, each with its own graph copy.
	Replicas    uint64  // Total replicas per query, split across workers.
	Probability float64 // Per edge activation probability.
	Seed        uint64  // Master seed; worker i streams from PCG(Seed, i).
}

// Query names nodes by raw id.
type Query struct {
	Candidate uint32
	Best      uint32
	HasBest   bool
	Seeds     []uint32
}

// Estimate of the marginal gains, averaged over all replicas.
// Without a best-other candidate GainNetBest equals Gain.
type Estimate struct {
	Gain        float64
	GainNetBest float64
	Spread      float64 // Replica weighted standard deviation of the per worker Gain.
	Replicas    uint64
}

type worker struct {
	idx      int
	replicas uint64
	jobs     chan cascade.Target
	results  chan cascade.Gain
}

// Pool fans each query out to every worker and sums the partial results.
// Workers are created once; each blocks on its job channel between queries.
type Pool struct {
	mu      sync.Mutex
	g       *graph.Graph // Reference copy for id lookups; never simulated on.
	opts    Options
	workers []*worker
	wg      sync.WaitGroup
	metrics *metrics.Metrics
	closed  bool

	means   []float64
	weights []float64
}

// Replica split: every worker runs Replicas/Workers, and the first Replicas%Workers run one more.
func split(replicas uint64, workers int) []uint64 {
	shares := make([]uint64, workers)
	base := replicas / uint64(workers)
	extra := replicas % uint64(workers)
	for i := range shares {
		shares[i] = base
		if uint64(i) < extra {
			shares[i]++
		}
	}
	return shares
}

// New starts the workers. g is kept as a read-only reference; each worker simulates on its own clone.
// The metrics may be nil.
func New(g *graph.Graph, opts Options, m *metrics.Metrics) (*Pool, error) {
	if opts.Workers < 1 {
		return nil, fmt.Errorf("%w (got %d)", ErrNoWorkers, opts.Workers)
	}
	if opts.Replicas < 1 {
		return nil, ErrNoReplicas
	}
	if !(opts.Probability >= 0 && opts.Probability <= 1) {
		return nil, fmt.Errorf("%w (got %v)", ErrProbability, opts.Probability)
	}

	p := &Pool{
		g:       g,
		opts:    opts,
		workers: make([]*worker, opts.Workers),
		metrics: m,
		means:   make([]float64, 0, opts.Workers),
		weights: make([]float64, 0, opts.Workers),
	}
	shares := split(opts.Replicas, opts.Workers)
	p.wg.Add(opts.Workers)
	for i := range p.workers {
		w := &worker{
			idx:      i,
			replicas: shares[i],
			jobs:     make(chan cascade.Target, 1),
			results:  make(chan cascade.Gain, 1),
		}
		p.workers[i] = w
		go w.run(g, opts, &p.wg)
	}
	log.Debug().Msg("Started " + utils.V(opts.Workers) + " workers, " + utils.V(opts.Replicas) + " replicas per query")
	return p, nil
}

func (w *worker) run(ref *graph.Graph, opts Options, wg *sync.WaitGroup) {
	defer wg.Done()
	sim := cascade.New(ref.Clone(), opts.Probability, rand.New(rand.NewPCG(opts.Seed, uint64(w.idx))))
	for t := range w.jobs {
		w.results <- sim.Run(t, w.replicas)
	}
	log.Trace().Msg("Worker " + utils.V(w.idx) + " stopped")
}

func (p *Pool) Workers() int {
	return p.opts.Workers
}

func (p *Pool) Replicas() uint64 {
	return p.opts.Replicas
}

// Graph returns the read-only reference graph.
func (p *Pool) Graph() *graph.Graph {
	return p.g
}

func (p *Pool) resolve(q Query) (t cascade.Target, err error) {
	if t.Candidate, err = p.g.Lookup(q.Candidate); err != nil {
		return t, fmt.Errorf("candidate: %w", err)
	}
	if q.HasBest {
		t.HasBest = true
		if t.Best, err = p.g.Lookup(q.Best); err != nil {
			return t, fmt.Errorf("best-other: %w", err)
		}
	}
	t.Seeds = make([]uint32, len(q.Seeds))
	for i, raw := range q.Seeds {
		if t.Seeds[i], err = p.g.Lookup(raw); err != nil {
			return t, fmt.Errorf("seed: %w", err)
		}
	}
	return t, nil
}

// Estimate runs the query on every worker and blocks until all have answered.
func (p *Pool) Estimate(q Query) (Estimate, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return Estimate{}, ErrClosed
	}
	t, err := p.resolve(q)
	if err != nil {
		return Estimate{}, err
	}

	m0 := time.Now()
	for _, w := range p.workers {
		w.jobs <- t
	}
	var sum cascade.Gain
	p.means, p.weights = p.means[:0], p.weights[:0]
	for _, w := range p.workers {
		partial := <-w.results
		sum.Add(partial)
		if w.replicas > 0 {
			p.means = append(p.means, float64(partial.Covered)/float64(w.replicas))
			p.weights = append(p.weights, float64(w.replicas))
		}
	}
	elapsed := time.Since(m0)
	p.metrics.ObserveQuery(elapsed, p.opts.Replicas)

	total := float64(p.opts.Replicas)
	est := Estimate{
		Gain:        float64(sum.Covered) / total,
		GainNetBest: float64(sum.CoveredNetBest) / total,
		Replicas:    p.opts.Replicas,
	}
	if len(p.means) > 1 {
		_, est.Spread = stat.MeanStdDev(p.means, p.weights)
	}
	log.Trace().Uint32("candidate", q.Candidate).Float64("gain", est.Gain).Float64("net", est.GainNetBest).
		Float64("spread", est.Spread).Dur("took", elapsed).Msg("query")
	return est, nil
}

// Close stops and joins all workers. Safe to call more than once.
func (p *Pool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	for _, w := range p.workers {
		close(w.jobs)
	}
	p.wg.Wait()
	log.Debug().Msg("Workers joined")
}
