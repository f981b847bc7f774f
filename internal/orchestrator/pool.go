package orchestrator

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Anhod/sparql-bench/internal/process"
	"github.com/Anhod/sparql-bench/internal/store"
	"github.com/Anhod/sparql-bench/internal/workload"
)

// task carries one workload's mutable run state. done closes when the
// task reaches a terminal status, which is what dependents wait on.
type task struct {
	w    workload.Workload
	done chan struct{}

	mu      sync.Mutex
	status  workload.Status
	started time.Time
	elapsed time.Duration
	err     error
}

func newTask(w workload.Workload) *task {
	return &task{w: w, done: make(chan struct{})}
}

func (t *task) setStatus(s workload.Status) {
	t.mu.Lock()
	t.status = s
	if s == workload.StatusRunning {
		t.started = time.Now()
	}
	t.mu.Unlock()
}

// finish records the terminal status and releases dependents.
func (t *task) finish(s workload.Status, err error) {
	t.mu.Lock()
	t.status = s
	t.err = err
	if !t.started.IsZero() {
		t.elapsed = time.Since(t.started)
	}
	t.mu.Unlock()
	close(t.done)
}

func (t *task) currentStatus() workload.Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

// Elapsed returns the running or final duration.
func (t *task) currentElapsed() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.elapsed > 0 {
		return t.elapsed
	}
	if t.started.IsZero() {
		return 0
	}
	return time.Since(t.started)
}

func (t *task) outcome() WorkloadOutcome {
	t.mu.Lock()
	defer t.mu.Unlock()
	return WorkloadOutcome{
		Name:         t.w.Name,
		Requires:     t.w.Requires,
		Status:       t.status,
		Elapsed:      t.elapsed,
		ArtifactPath: t.w.OutputPath,
		Err:          t.err,
	}
}

// initTasks builds the task table in declaration order.
func (o *Orchestrator) initTasks(workloads []workload.Workload) {
	tasks := make([]*task, 0, len(workloads))
	for _, w := range workloads {
		tasks = append(tasks, newTask(w))
	}
	o.mu.Lock()
	o.tasks = tasks
	o.mu.Unlock()
}

// runWorkloads executes every workload, bounded by the configured
// parallelism. A workload whose prerequisite did not succeed is
// skipped; a failed workload never stops its siblings.
func (o *Orchestrator) runWorkloads(ctx context.Context) {
	o.mu.RLock()
	tasks := o.tasks
	o.mu.RUnlock()

	byName := make(map[string]*task, len(tasks))
	for _, t := range tasks {
		byName[t.w.Name] = t
	}

	sem := make(chan struct{}, o.config.Parallelism)
	var wg sync.WaitGroup

	for _, t := range tasks {
		wg.Add(1)
		go func(t *task) {
			defer wg.Done()
			o.runTask(ctx, t, byName[t.w.Requires], sem)
		}(t)
	}
	wg.Wait()
}

// runTask waits for the prerequisite, takes a pool slot, and runs the
// test driver to completion.
func (o *Orchestrator) runTask(ctx context.Context, t *task, prereq *task, sem chan struct{}) {
	if prereq != nil {
		select {
		case <-prereq.done:
		case <-ctx.Done():
			o.skipTask(t, "cancelled")
			return
		}
		if prereq.currentStatus() != workload.StatusSucceeded {
			o.skipTask(t, "prerequisite "+t.w.Requires+" did not succeed")
			return
		}
	}

	select {
	case sem <- struct{}{}:
		defer func() { <-sem }()
	case <-ctx.Done():
		o.skipTask(t, "cancelled")
		return
	}
	if ctx.Err() != nil {
		o.skipTask(t, "cancelled")
		return
	}

	t.setStatus(workload.StatusRunning)
	o.collector.WorkloadStatus(t.w.Name, workload.StatusRunning.String())
	o.logger.Info("workload_starting",
		"workload", t.w.Name,
		"endpoint", t.w.QueryEndpoint,
		"output", t.w.OutputPath,
	)

	spec := t.w.Spec(
		store.TestDriverPath(o.config.ToolsDir),
		o.config.Parallelism,
		o.config.Seed,
		o.config.CommandTimeout,
	)
	result, err := process.Run(ctx, spec, o.logger)

	if err != nil {
		t.finish(workload.StatusFailed, err)
		o.collector.WorkloadStatus(t.w.Name, workload.StatusFailed.String())
		o.logger.Error("workload_failed",
			"workload", t.w.Name,
			"error", err,
		)
		return
	}

	t.finish(workload.StatusSucceeded, nil)
	o.collector.WorkloadStatus(t.w.Name, workload.StatusSucceeded.String())
	o.collector.WorkloadDone(t.w.Name, result.Elapsed)
	o.logger.Info("workload_finished",
		"workload", t.w.Name,
		"elapsed", result.Elapsed.String(),
		"artifact", t.w.OutputPath,
	)
}

// skipTask marks a workload skipped. The reason lands in the report
// so a cancelled skip reads differently from a prerequisite skip.
func (o *Orchestrator) skipTask(t *task, reason string) {
	t.finish(workload.StatusSkipped, errors.New(reason))
	o.collector.WorkloadStatus(t.w.Name, workload.StatusSkipped.String())
	o.logger.Warn("workload_skipped",
		"workload", t.w.Name,
		"reason", reason,
	)
}
