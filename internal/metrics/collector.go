// Package metrics provides Prometheus metrics for sparql-bench.
package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// --- Run overview ---
var (
	benchInfo = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "sparql_bench_info",
			Help: "Information about the benchmark run (value always 1)",
		},
		[]string{"version", "store", "dataset_size", "parallelism"},
	)

	benchPhase = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "sparql_bench_phase",
			Help: "Current run phase (1 for the active phase, 0 otherwise)",
		},
		[]string{"phase"},
	)

	benchElapsedSeconds = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "sparql_bench_elapsed_seconds",
			Help: "Seconds since the run started",
		},
	)

	benchServerUp = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "sparql_bench_server_up",
			Help: "Whether the store server process is alive",
		},
	)

	benchReadinessWaitSeconds = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "sparql_bench_readiness_wait_seconds",
			Help: "Time the readiness probe waited for the store",
		},
	)
)

// --- Phase durations ---
var (
	benchPhaseDurationSeconds = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "sparql_bench_phase_duration_seconds",
			Help: "Wall time spent in each completed phase",
		},
		[]string{"phase"},
	)
)

// --- Workloads ---
var (
	benchWorkloadsTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "sparql_bench_workloads_total",
			Help: "Number of configured workloads",
		},
	)

	benchWorkloadStatus = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "sparql_bench_workload_status",
			Help: "Workload status (1 for the current status, 0 otherwise)",
		},
		[]string{"workload", "status"},
	)

	benchWorkloadDurationSeconds = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "sparql_bench_workload_duration_seconds",
			Help: "Wall time of each finished workload",
		},
		[]string{"workload"},
	)

	benchSetupCommandsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sparql_bench_setup_commands_total",
			Help: "Setup commands executed",
		},
	)

	benchSetupFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sparql_bench_setup_failures_total",
			Help: "Setup commands that exited non-zero",
		},
	)
)

var registerOnce sync.Once

// workloadStatuses are the label values benchWorkloadStatus cycles
// through. Kept in sync with workload.Status strings.
var workloadStatuses = []string{"pending", "running", "succeeded", "failed", "skipped"}

// Collector updates the run metrics. One per run.
type Collector struct {
	startTime time.Time
	mu        sync.Mutex
	phase     string
}

// NewCollector creates a collector and registers all metrics with the
// default registry.
func NewCollector(version, store string, datasetSize, parallelism int) *Collector {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			benchInfo,
			benchPhase,
			benchElapsedSeconds,
			benchServerUp,
			benchReadinessWaitSeconds,
			benchPhaseDurationSeconds,
			benchWorkloadsTotal,
			benchWorkloadStatus,
			benchWorkloadDurationSeconds,
			benchSetupCommandsTotal,
			benchSetupFailuresTotal,
		)
	})

	benchInfo.WithLabelValues(version, store, strconv.Itoa(datasetSize), strconv.Itoa(parallelism)).Set(1)

	return &Collector{startTime: time.Now()}
}

// SetPhase marks phase as active and everything else inactive.
func (c *Collector) SetPhase(phase string) {
	c.mu.Lock()
	prev := c.phase
	c.phase = phase
	c.mu.Unlock()

	if prev != "" {
		benchPhase.WithLabelValues(prev).Set(0)
	}
	benchPhase.WithLabelValues(phase).Set(1)
	benchElapsedSeconds.Set(time.Since(c.startTime).Seconds())
}

// PhaseDone records the wall time of a completed phase.
func (c *Collector) PhaseDone(phase string, d time.Duration) {
	benchPhaseDurationSeconds.WithLabelValues(phase).Set(d.Seconds())
}

// ServerUp flips the server liveness gauge.
func (c *Collector) ServerUp(up bool) {
	if up {
		benchServerUp.Set(1)
	} else {
		benchServerUp.Set(0)
	}
}

// ReadinessWait records how long the probe waited.
func (c *Collector) ReadinessWait(d time.Duration) {
	benchReadinessWaitSeconds.Set(d.Seconds())
}

// SetWorkloadCount records the configured workload count.
func (c *Collector) SetWorkloadCount(n int) {
	benchWorkloadsTotal.Set(float64(n))
}

// WorkloadStatus sets the status gauge for one workload.
func (c *Collector) WorkloadStatus(name, status string) {
	for _, s := range workloadStatuses {
		v := 0.0
		if s == status {
			v = 1
		}
		benchWorkloadStatus.WithLabelValues(name, s).Set(v)
	}
}

// WorkloadDone records a finished workload's wall time.
func (c *Collector) WorkloadDone(name string, d time.Duration) {
	benchWorkloadDurationSeconds.WithLabelValues(name).Set(d.Seconds())
}

// SetupCommand counts one setup command, failed or not.
func (c *Collector) SetupCommand(failed bool) {
	benchSetupCommandsTotal.Inc()
	if failed {
		benchSetupFailuresTotal.Inc()
	}
}
