// Package metrics exposes Prometheus collectors for inference and training.
//
// A nil *Recorder is valid and records nothing, so models can be constructed
// without a registry in tests and in the CLI.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder holds the toolkit's collectors
type Recorder struct {
	predictions       *prometheus.CounterVec
	inferenceDuration *prometheus.HistogramVec
	cacheHits         *prometheus.CounterVec
	cacheMisses       *prometheus.CounterVec
	anomaliesFlagged  *prometheus.CounterVec
	trainingRuns      *prometheus.CounterVec
	trainingDuration  *prometheus.HistogramVec
	modelReady        *prometheus.GaugeVec
}

// New creates the collectors and registers them with reg. A nil reg leaves them unregistered.
func New(reg prometheus.Registerer) *Recorder {
	r := &Recorder{}

	r.predictions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "estimateml_predictions_total",
			Help: "Total number of inference calls per model and mode",
		},
		[]string{"model", "mode"},
	)

	r.inferenceDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "estimateml_inference_duration_seconds",
			Help:    "Latency of single inference calls",
			Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10),
		},
		[]string{"model"},
	)

	r.cacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "estimateml_cache_hits_total",
			Help: "Total number of prediction cache hits",
		},
		[]string{"model"},
	)

	r.cacheMisses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "estimateml_cache_misses_total",
			Help: "Total number of prediction cache misses",
		},
		[]string{"model"},
	)

	r.anomaliesFlagged = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "estimateml_anomalies_flagged_total",
			Help: "Total number of items flagged as price anomalies",
		},
		[]string{"type"},
	)

	r.trainingRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "estimateml_training_runs_total",
			Help: "Total number of training runs per model and outcome",
		},
		[]string{"model", "outcome"},
	)

	r.trainingDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "estimateml_training_duration_seconds",
			Help:    "Wall time of training runs",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"model"},
	)

	r.modelReady = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "estimateml_model_ready",
			Help: "Model readiness (1=ready, 0=fallback or error)",
		},
		[]string{"model"},
	)

	if reg != nil {
		reg.MustRegister(
			r.predictions,
			r.inferenceDuration,
			r.cacheHits,
			r.cacheMisses,
			r.anomaliesFlagged,
			r.trainingRuns,
			r.trainingDuration,
			r.modelReady,
		)
	}
	return r
}

// ObservePrediction counts one inference call and its latency
func (r *Recorder) ObservePrediction(model, mode string, d time.Duration) {
	if r == nil {
		return
	}
	r.predictions.WithLabelValues(model, mode).Inc()
	r.inferenceDuration.WithLabelValues(model).Observe(d.Seconds())
}

// CacheHit counts a cache hit
func (r *Recorder) CacheHit(model string) {
	if r == nil {
		return
	}
	r.cacheHits.WithLabelValues(model).Inc()
}

// CacheMiss counts a cache miss
func (r *Recorder) CacheMiss(model string) {
	if r == nil {
		return
	}
	r.cacheMisses.WithLabelValues(model).Inc()
}

// AnomalyFlagged counts one flagged item
func (r *Recorder) AnomalyFlagged(anomalyType string) {
	if r == nil {
		return
	}
	r.anomaliesFlagged.WithLabelValues(anomalyType).Inc()
}

// TrainingRun records the outcome and duration of one training run
func (r *Recorder) TrainingRun(model string, d time.Duration, success bool) {
	if r == nil {
		return
	}
	outcome := "success"
	if !success {
		outcome = "failure"
	}
	r.trainingRuns.WithLabelValues(model, outcome).Inc()
	r.trainingDuration.WithLabelValues(model).Observe(d.Seconds())
}

// SetReady sets the readiness gauge for a model
func (r *Recorder) SetReady(model string, ready bool) {
	if r == nil {
		return
	}
	v := 0.0
	if ready {
		v = 1
	}
	r.modelReady.WithLabelValues(model).Set(v)
}
