package main

import (
	"context"
	"net/http"
	_ "net/http/pprof"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"

	"github.com/ScottSallinen/celfpp/celf"
	"github.com/ScottSallinen/celfpp/config"
	"github.com/ScottSallinen/celfpp/graph"
	"github.com/ScottSallinen/celfpp/metrics"
	"github.com/ScottSallinen/celfpp/pool"
	"github.com/ScottSallinen/celfpp/utils"
)

func main() {
	opts, err := config.FlagsToOptions()
	utils.SetLoggerConsole(opts.NoColour)
	utils.SetLevel(opts.DebugLevel)
	if err != nil {
		log.Fatal().Err(err).Msg("Bad options.")
	}
	utils.SetRunId(uuid.NewString())

	if opts.PprofAddr != "" {
		go func() {
			log.Info().Msg("pprof Starting on " + opts.PprofAddr)
			if err := http.ListenAndServe(opts.PprofAddr, nil); err != nil {
				log.Error().Err(err).Msg("pprof Failed to start.")
			}
		}()
	}

	if _, err := run(opts); err != nil {
		log.Fatal().Err(err).Msg("Run failed.")
	}
}

// run loads the graph, selects the seeds and writes them to opts.Output.
func run(opts config.Options) (celf.Result, error) {
	watch := utils.Watch{}
	watch.Start()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)
	if opts.MetricsAddr != "" {
		srv := metrics.Serve(opts.MetricsAddr, reg)
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			_ = srv.Shutdown(ctx)
		}()
	}

	adj, err := graph.LoadEdgeList(opts.Graph)
	if err != nil {
		return celf.Result{}, err
	}
	g := graph.Build(adj)
	g.ComputeGraphStats()
	log.Info().Int("nodes", g.NodeCount()).Uint64("edges", g.EdgeCount()).Msg("Graph ready in " + utils.V(watch.Lap().Milliseconds()) + " ms")

	p, err := pool.New(g, pool.Options{
		Workers:     opts.Workers,
		Replicas:    opts.Replicas,
		Probability: opts.Probability,
		Seed:        opts.RandomSeed,
	}, m)
	if err != nil {
		return celf.Result{}, err
	}
	defer p.Close()

	res, err := celf.New(p, g.RawIds(), m).Run(opts.Seeds)
	if err != nil {
		return res, err
	}
	if err := celf.SaveResult(opts.Output, res); err != nil {
		return res, err
	}
	log.Info().Str("output", opts.Output).Float64("total", res.Total).Msg("Done in " + utils.V(watch.Elapsed().Milliseconds()) + " ms")
	utils.MemoryStats()
	return res, nil
}
