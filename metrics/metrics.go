package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// Selector decision kinds.
const (
	Accept    = "accept"
	Reuse     = "reuse"
	Recompute = "recompute"
	Initial   = "initial"
)

// Metrics for one run. A nil *Metrics is valid and records nothing.
type Metrics struct {
	queries       prometheus.Counter
	replicas      prometheus.Counter
	queryDuration prometheus.Histogram
	decisions     *prometheus.CounterVec
	seeds         prometheus.Gauge
	spread        prometheus.Gauge
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		queries: factory.NewCounter(prometheus.CounterOpts{
			Name: "celfpp_queries_total",
			Help: "Marginal gain queries dispatched to the worker pool",
		}),
		replicas: factory.NewCounter(prometheus.CounterOpts{
			Name: "celfpp_replicas_total",
			Help: "Independent cascade replicas simulated across all workers",
		}),
		queryDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "celfpp_query_duration_seconds",
			Help:    "Wall time of one marginal gain query",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
		}),
		decisions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "celfpp_selector_decisions_total",
			Help: "Queue pops by outcome",
		}, []string{"kind"}),
		seeds: factory.NewGauge(prometheus.GaugeOpts{
			Name: "celfpp_seeds_selected",
			Help: "Seeds accepted so far",
		}),
		spread: factory.NewGauge(prometheus.GaugeOpts{
			Name: "celfpp_expected_spread",
			Help: "Running total of accepted marginal gains",
		}),
	}
}

func (m *Metrics) ObserveQuery(d time.Duration, replicas uint64) {
	if m == nil {
		return
	}
	m.queries.Inc()
	m.replicas.Add(float64(replicas))
	m.queryDuration.Observe(d.Seconds())
}

func (m *Metrics) Decision(kind string) {
	if m == nil {
		return
	}
	m.decisions.WithLabelValues(kind).Inc()
}

func (m *Metrics) SeedAccepted(count int, total float64) {
	if m == nil {
		return
	}
	m.seeds.Set(float64(count))
	m.spread.Set(total)
}

// Serve exposes the gatherer on addr under /metrics until the server fails or is closed.
func Serve(addr string, g prometheus.Gatherer) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		log.Info().Msg("metrics Starting on " + addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("metrics Failed to start.")
		}
	}()
	return srv
}
