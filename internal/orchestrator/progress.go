package orchestrator

import (
	"time"

	"github.com/Anhod/sparql-bench/internal/metrics"
	"github.com/Anhod/sparql-bench/internal/workload"
)

// WorkloadRow is one workload's live state for display.
type WorkloadRow struct {
	Name     string
	Requires string
	Status   workload.Status
	Elapsed  time.Duration
}

// Progress is a point-in-time snapshot of the run for display. All
// fields are copies; the snapshot never aliases orchestrator state.
type Progress struct {
	Store       string
	DatasetSize int
	Parallelism int
	Phase       Phase
	Elapsed     time.Duration
	Workloads   []WorkloadRow
	ServerPID   int

	// StoreMetrics is nil when the backing store has no exporter.
	StoreMetrics *metrics.StoreMetrics
}

// Progress snapshots the run. Safe to call from any goroutine.
func (o *Orchestrator) Progress() Progress {
	o.mu.RLock()
	phase := o.phase
	tasks := o.tasks
	server := o.server
	o.mu.RUnlock()

	p := Progress{
		Store:        o.config.Store,
		DatasetSize:  o.config.DatasetSize,
		Parallelism:  o.config.Parallelism,
		Phase:        phase,
		Elapsed:      time.Since(o.startTime),
		StoreMetrics: o.scraper.Metrics(),
	}
	if server != nil && server.IsAlive() {
		p.ServerPID = server.PID()
	}
	for _, t := range tasks {
		p.Workloads = append(p.Workloads, WorkloadRow{
			Name:     t.w.Name,
			Requires: t.w.Requires,
			Status:   t.currentStatus(),
			Elapsed:  t.currentElapsed(),
		})
	}
	return p
}
