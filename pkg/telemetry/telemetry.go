// Package telemetry collects training and prediction metrics with the
// Prometheus client and exports them in the text exposition format, so a
// node exporter textfile collector can pick up batch runs.
package telemetry

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/YuminosukeSato/sortinghat/pkg/errors"
)

const namespace = "sortinghat"

// Run status label values.
const (
	StatusSuccess     = "success"
	StatusFailed      = "failed"
	StatusInterrupted = "interrupted"
)

// Recorder owns a private registry; nothing is registered globally.
type Recorder struct {
	mu       sync.Mutex
	registry *prometheus.Registry

	Runs        *prometheus.CounterVec
	Duration    prometheus.Histogram
	Accuracy    *prometheus.GaugeVec
	FinalCost   *prometheus.GaugeVec
	Divergences *prometheus.CounterVec
	Predictions *prometheus.CounterVec
}

// NewRecorder creates a recorder with every collector registered.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		Runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "training_runs_total",
			Help:      "Training runs by outcome.",
		}, []string{"status"}),
		Duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "training_duration_seconds",
			Help:      "Wall time of a full one-vs-all training run.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 10),
		}),
		Accuracy: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "house_training_accuracy_percent",
			Help:      "Self reported training accuracy per house.",
		}, []string{"house"}),
		FinalCost: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "house_final_cost",
			Help:      "Cross entropy of the final parameters per house.",
		}, []string{"house"}),
		Divergences: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "divergences_total",
			Help:      "Runs aborted because the sampled cost became undefined.",
		}, []string{"house"}),
		Predictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "predictions_total",
			Help:      "Predicted labels, including None.",
		}, []string{"label"}),
	}
	r.registry.MustRegister(r.Runs, r.Duration, r.Accuracy, r.FinalCost, r.Divergences, r.Predictions)
	return r
}

// ObserveRun records the outcome and duration of a training run.
func (r *Recorder) ObserveRun(status string, d time.Duration) {
	r.Runs.WithLabelValues(status).Inc()
	if status == StatusSuccess {
		r.Duration.Observe(d.Seconds())
	}
}

// ObserveHouse records the result of one house.
func (r *Recorder) ObserveHouse(house string, accuracy, finalCost float64) {
	r.Accuracy.WithLabelValues(house).Set(accuracy)
	r.FinalCost.WithLabelValues(house).Set(finalCost)
}

// ObserveDivergence counts a diverged house.
func (r *Recorder) ObserveDivergence(house string) {
	r.Divergences.WithLabelValues(house).Inc()
}

// ObservePrediction counts one predicted label.
func (r *Recorder) ObservePrediction(label string) {
	r.Predictions.WithLabelValues(label).Inc()
}

// Gatherer exposes the private registry.
func (r *Recorder) Gatherer() prometheus.Gatherer {
	return r.registry
}

// WriteTextfile writes every metric to path in the text format.
func (r *Recorder) WriteTextfile(path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return errors.Wrapf(prometheus.WriteToTextfile(path, r.registry), "write metrics %s", path)
}
