// Package metrics collects per-run scoring metrics and exports them in the
// Prometheus text format for the node_exporter textfile collector.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/spigell/match-scorer/internal/matching"
)

const namespace = "match_scorer"

// Recorder implements matching.Observer and keeps run-level metrics on its
// own registry.
type Recorder struct {
	registry *prometheus.Registry

	profilesLoaded prometheus.Gauge
	recordsSkipped *prometheus.CounterVec
	pairsScored    prometheus.Counter
	pairsExcluded  prometheus.Counter
	scores         prometheus.Histogram
	runDuration    prometheus.Gauge
}

var _ matching.Observer = (*Recorder)(nil)

// New creates a Recorder with all metrics registered.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		profilesLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "profiles_loaded",
			Help:      "Number of profiles that passed validation.",
		}),
		recordsSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_skipped_total",
			Help:      "Input records skipped during loading, by reason.",
		}, []string{"reason"}),
		pairsScored: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pairs_scored_total",
			Help:      "Ordered profile pairs that received a score.",
		}),
		pairsExcluded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pairs_excluded_total",
			Help:      "Ordered profile pairs left out because a side had no importance weight.",
		}),
		scores: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "score",
			Help:      "Distribution of pairwise match scores.",
			Buckets:   []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1},
		}),
		runDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of the scoring run.",
		}),
	}

	r.registry.MustRegister(
		r.profilesLoaded,
		r.recordsSkipped,
		r.pairsScored,
		r.pairsExcluded,
		r.scores,
		r.runDuration,
	)
	return r
}

// PairScored implements matching.Observer.
func (r *Recorder) PairScored(ps matching.PairScore) {
	r.pairsScored.Inc()
	r.scores.Observe(ps.Score)
}

// PairExcluded implements matching.Observer.
func (r *Recorder) PairExcluded(int, int) {
	r.pairsExcluded.Inc()
}

// Loaded records the outcome of input loading.
func (r *Recorder) Loaded(profiles int, skippedBy map[string]int) {
	r.profilesLoaded.Set(float64(profiles))
	for reason, n := range skippedBy {
		r.recordsSkipped.WithLabelValues(reason).Add(float64(n))
	}
}

// Finished records the run duration.
func (r *Recorder) Finished(d time.Duration) {
	r.runDuration.Set(d.Seconds())
}

// Gatherer exposes the registry.
func (r *Recorder) Gatherer() prometheus.Gatherer { return r.registry }

// WriteTextfile writes all metrics to path atomically.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("writing metrics textfile: %w", err)
	}
	return nil
}
