// Package metrics provides Prometheus metrics for the recording
// launcher: worker lifecycle counters and run-level gauges.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	retinaInfo = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "retina_run_info",
			Help: "Information about the current run (value always 1)",
		},
		[]string{"version", "run_dir"},
	)

	retinaCamerasConfigured = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "retina_cameras_configured",
			Help: "Number of cameras in the loaded configuration",
		},
	)

	retinaWorkersActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "retina_workers_active",
			Help: "Recording workers currently running",
		},
	)

	retinaWorkersFailed = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "retina_workers_failed",
			Help: "Workers that exhausted their restart budget",
		},
	)

	retinaWorkerStartsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "retina_worker_starts_total",
			Help: "Total recording process starts, including restarts",
		},
	)

	retinaWorkerRestartsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "retina_worker_restarts_total",
			Help: "Total restart attempts across all workers",
		},
	)

	retinaWorkerExitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "retina_worker_exits_total",
			Help: "Total recording process exits by class",
		},
		[]string{"class"},
	)
)

var registerOnce sync.Once

// Collector updates the launcher's Prometheus metrics. Registration
// with the default registry happens once, on first construction.
type Collector struct{}

// NewCollector creates a Collector, registering metrics on first use.
func NewCollector() *Collector {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			retinaInfo,
			retinaCamerasConfigured,
			retinaWorkersActive,
			retinaWorkersFailed,
			retinaWorkerStartsTotal,
			retinaWorkerRestartsTotal,
			retinaWorkerExitsTotal,
		)
	})
	return &Collector{}
}

// SetRunInfo records the run identity labels.
func (c *Collector) SetRunInfo(version, runDir string) {
	retinaInfo.WithLabelValues(version, runDir).Set(1)
}

// SetCamerasConfigured records the size of the camera list.
func (c *Collector) SetCamerasConfigured(n int) {
	retinaCamerasConfigured.Set(float64(n))
}

// SetActiveWorkers records the number of running workers.
func (c *Collector) SetActiveWorkers(n int) {
	retinaWorkersActive.Set(float64(n))
}

// SetFailedWorkers records the number of permanently failed workers.
func (c *Collector) SetFailedWorkers(n int) {
	retinaWorkersFailed.Set(float64(n))
}

// WorkerStarted increments the start counter.
func (c *Collector) WorkerStarted() {
	retinaWorkerStartsTotal.Inc()
}

// WorkerRestarted increments the restart counter.
func (c *Collector) WorkerRestarted() {
	retinaWorkerRestartsTotal.Inc()
}

// WorkerExited increments the exit counter for the code's class.
func (c *Collector) WorkerExited(exitCode int) {
	retinaWorkerExitsTotal.WithLabelValues(exitClass(exitCode)).Inc()
}

// exitClass buckets exit codes into clean / error / signal.
func exitClass(code int) string {
	switch {
	case code == 0:
		return "clean"
	case code > 128:
		return "signal"
	default:
		return "error"
	}
}
