package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/Anhod/sparql-bench/internal/config"
	"github.com/Anhod/sparql-bench/internal/logging"
	"github.com/Anhod/sparql-bench/internal/metrics"
	"github.com/Anhod/sparql-bench/internal/preflight"
	"github.com/Anhod/sparql-bench/internal/probe"
	"github.com/Anhod/sparql-bench/internal/process"
	"github.com/Anhod/sparql-bench/internal/store"
	"github.com/Anhod/sparql-bench/internal/workload"
	"github.com/Anhod/sparql-bench/internal/workspace"
)

// serverTailLines bounds how much store output an aborted run's
// report carries.
const serverTailLines = 10

// PhaseTiming records the wall time of one completed phase.
type PhaseTiming struct {
	Phase   Phase
	Elapsed time.Duration
}

// WorkloadOutcome is one workload's terminal state.
type WorkloadOutcome struct {
	Name         string
	Requires     string
	Status       workload.Status
	Elapsed      time.Duration
	ArtifactPath string
	Err          error
}

// Report aggregates everything a run produced.
type Report struct {
	Phase     Phase
	Store     string
	Duration  time.Duration
	Phases    []PhaseTiming
	Workloads []WorkloadOutcome

	// FatalClass/FatalErr describe the abort cause, if any.
	FatalClass FailureClass
	FatalErr   error

	// CleanupFailures counts workspace paths that survived release.
	CleanupFailures int

	// ServerTail holds the store's most recent output lines when the
	// run aborted, for the exit summary.
	ServerTail []string
}

// Class returns the failure class the exit code maps from: the abort
// cause when the run aborted, otherwise workload failure when any
// workload failed, otherwise none.
func (r *Report) Class() FailureClass {
	if r.FatalClass != FailureNone {
		return r.FatalClass
	}
	for _, w := range r.Workloads {
		if w.Status == workload.StatusFailed {
			return FailureWorkload
		}
	}
	return FailureNone
}

// Orchestrator composes the run: workspace, store driver, readiness
// probe, workload pool, metrics.
type Orchestrator struct {
	config *config.Config
	logger *slog.Logger
	driver store.Driver

	collector     *metrics.Collector
	metricsServer *metrics.Server
	scraper       *metrics.StoreScraper

	startTime time.Time

	// Mutable run state, guarded for TUI reads.
	mu              sync.RWMutex
	phase           Phase
	phaseStart      time.Time
	phaseTimings    []PhaseTiming
	tasks           []*task
	server          *process.Handle
	serverOutput    *logging.ServerOutput
	ws              *workspace.Workspace
	fatalErr        error
	fatalClass      FailureClass
	cleanupFailures int
}

// New creates an Orchestrator for one run.
func New(cfg *config.Config, version string, logger *slog.Logger) (*Orchestrator, error) {
	driver, err := store.New(store.Kind(cfg.Store), store.Options{
		ToolsDir:    cfg.ToolsDir,
		BinDir:      cfg.StoreBinDir,
		Host:        cfg.Host,
		HTTPPort:    cfg.HTTPPort,
		SQLPort:     cfg.SQLPort,
		DatasetSize: cfg.DatasetSize,
		Env:         cfg.StoreEnv,
	})
	if err != nil {
		return nil, err
	}

	return &Orchestrator{
		config:        cfg,
		logger:        logger,
		driver:        driver,
		collector:     metrics.NewCollector(version, cfg.Store, cfg.DatasetSize, cfg.Parallelism),
		metricsServer: metrics.NewServer(cfg.MetricsAddr, logger),
		scraper: metrics.NewStoreScraper(
			driver.MetricsEndpoint(), cfg.ScrapeInterval, cfg.ScrapeWindow, logger),
		phase: PhaseInit,
	}, nil
}

// Driver returns the store driver.
func (o *Orchestrator) Driver() store.Driver { return o.driver }

// Scraper returns the store exporter scraper (nil without exporter).
func (o *Orchestrator) Scraper() *metrics.StoreScraper { return o.scraper }

// resolveDecls returns the configured workload list or the store's
// default.
func (o *Orchestrator) resolveDecls() ([]workload.Decl, error) {
	if o.config.Workloads == "" {
		return o.driver.DefaultWorkloads(), nil
	}
	return workload.ParseList(o.config.Workloads)
}

// buildWorkloads resolves declarations into full workloads bound to
// the live workspace and endpoints.
func (o *Orchestrator) buildWorkloads(ws *workspace.Workspace, decls []workload.Decl) []workload.Workload {
	cfg := o.config
	workloads := make([]workload.Workload, 0, len(decls))

	for _, d := range decls {
		w := workload.Workload{
			Name:          d.Name,
			Requires:      d.Requires,
			UsecaseFile:   store.UsecaseFile(cfg.ToolsDir, d.Name),
			QueryEndpoint: o.driver.QueryEndpoint(),
			DataDir:       store.TestDriverDataDir(ws),
			OutputPath: filepath.Join(cfg.OutputDir,
				workload.ArtifactName(d.Name, cfg.Store, cfg.DatasetSize, cfg.Parallelism)),
		}
		if isUpdateUsecase(d.Name) {
			w.UpdateEndpoint = o.driver.UpdateEndpoint()
			w.UpdateDataset = store.UpdateStreamPath(ws, cfg.DatasetSize)
		}
		workloads = append(workloads, w)
	}
	return workloads
}

// isUpdateUsecase reports whether a use case mutates the store.
func isUpdateUsecase(name string) bool {
	return strings.Contains(strings.ToLower(name), "update")
}

// shutdownGrace returns the configured grace or the store default.
func (o *Orchestrator) shutdownGrace() time.Duration {
	if o.config.ShutdownGrace > 0 {
		return o.config.ShutdownGrace
	}
	return o.driver.ShutdownGrace()
}

// Execute runs the benchmark to completion. The returned report is
// non-nil even on failure; the fatal error, if any, is inside it.
// Termination and workspace release happen on every path.
func (o *Orchestrator) Execute(ctx context.Context) *Report {
	o.startTime = time.Now()
	o.setPhase(PhaseInit)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case sig := <-sigCh:
			o.logger.Info("received_signal", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()

	o.metricsServer.Start()
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		o.metricsServer.Shutdown(shutdownCtx)
	}()

	passed := true
	if !o.config.SkipPreflight {
		result := preflight.RunAll(o.preflightParams())
		// Stdout belongs to the TUI's alt screen when it is enabled.
		if !o.config.TUIEnabled {
			preflight.PrintResults(result)
		}
		if !result.Passed {
			for _, c := range result.Checks {
				if !c.Passed {
					o.logger.Error("preflight_check_failed",
						"check", c.Name,
						"message", c.Message,
					)
				}
			}
			o.abort(FailureSetup, fmt.Errorf("preflight checks failed (use -skip-preflight to override)"))
			passed = false
		}
	}

	if passed {
		o.run(ctx)
	}

	// Finalizing is unconditional: it runs after Done-bound and
	// Aborted-bound paths alike.
	o.finalize()

	report := o.report()
	o.logger.Info("run_finished",
		"phase", report.Phase.String(),
		"failure_class", report.Class().String(),
		"duration", report.Duration.String(),
	)
	return report
}

// run walks the happy path, recording the abort cause and returning
// early on the first fatal error.
func (o *Orchestrator) run(ctx context.Context) {
	cfg := o.config

	// Init -> WorkspaceReady
	ws, err := workspace.Acquire(cfg.WorkspaceBase, o.logger)
	if err != nil {
		o.abort(FailureSetup, err)
		return
	}
	o.mu.Lock()
	o.ws = ws
	o.mu.Unlock()

	decls, err := o.resolveDecls()
	if err != nil {
		o.abort(FailureSetup, err)
		return
	}
	workloads := o.buildWorkloads(ws, decls)
	o.initTasks(workloads)
	o.collector.SetWorkloadCount(len(workloads))
	o.setPhase(PhaseWorkspaceReady)

	// WorkspaceReady -> DataPrepared
	hasUpdate := false
	for _, w := range workloads {
		if w.IsUpdate() {
			hasUpdate = true
		}
	}

	setup := []process.Spec{
		store.GenerateSpec(ws, store.GenerateOptions{
			ToolsDir:         cfg.ToolsDir,
			DatasetSize:      cfg.DatasetSize,
			WithUpdateStream: hasUpdate,
			Timeout:          cfg.CommandTimeout,
		}),
	}
	prepare, err := o.driver.Prepare(ws, store.DatasetPath(ws, cfg.DatasetSize))
	if err != nil {
		o.abort(FailureSetup, err)
		return
	}
	setup = append(setup, prepare...)

	if err := o.runSetup(ctx, o.applyTimeout(setup)); err != nil {
		o.abort(FailureSetup, err)
		return
	}
	o.setPhase(PhaseDataPrepared)

	// DataPrepared -> ServerStarting
	if err := o.startServer(ctx); err != nil {
		o.abort(FailureSetup, err)
		return
	}
	o.setPhase(PhaseServerStarting)

	// ServerStarting -> ServerReady
	probeStart := time.Now()
	err = probe.WaitReady(ctx, o.driver.ReadyTarget(), cfg.ReadyInterval, cfg.ReadyDeadline, o.logger)
	o.collector.ReadinessWait(time.Since(probeStart))
	if err != nil {
		o.abort(FailureReadiness, err)
		return
	}

	// Online load for stores that need a live server.
	post := o.applyTimeout(o.driver.PostStartCommands(o.serverWorkspace()))
	if err := o.runSetup(ctx, post); err != nil {
		o.abort(FailureSetup, err)
		return
	}
	o.setPhase(PhaseServerReady)

	// ServerReady -> WorkloadsRunning
	scrapeCtx, scrapeCancel := context.WithCancel(ctx)
	defer scrapeCancel()
	go o.scraper.Run(scrapeCtx)

	o.setPhase(PhaseWorkloadsRunning)
	o.runWorkloads(ctx)

	// A cancelled run must not report clean success: whatever the
	// pool managed to skip or fail, the cancellation is the cause.
	if err := ctx.Err(); err != nil {
		o.abort(FailureInterrupted, err)
	}
}

// preflightParams maps the config onto the binaries and ports a run
// needs up front.
func (o *Orchestrator) preflightParams() preflight.Params {
	cfg := o.config
	p := preflight.Params{
		ToolsDir: cfg.ToolsDir,
		Ports:    []int{cfg.HTTPPort},
	}

	bin := func(name string) string {
		if cfg.StoreBinDir == "" {
			return name
		}
		return filepath.Join(cfg.StoreBinDir, name)
	}

	switch store.Kind(cfg.Store) {
	case store.KindJena:
		p.StoreBinaries = []string{bin("tdb2.tdbloader"), bin("fuseki-server")}
	case store.KindVirtuoso:
		p.StoreBinaries = []string{bin("virtuoso-t"), bin("isql")}
		p.Ports = append(p.Ports, cfg.SQLPort)
	}
	return p
}

// runSetup executes setup commands sequentially. The first failure is
// returned; later commands do not run.
func (o *Orchestrator) runSetup(ctx context.Context, specs []process.Spec) error {
	for _, spec := range specs {
		if err := ctx.Err(); err != nil {
			return err
		}
		_, err := process.Run(ctx, spec, o.logger)
		o.collector.SetupCommand(err != nil)
		if err != nil {
			return err
		}
	}
	return nil
}

// applyTimeout stamps the per-command timeout onto driver-built specs.
func (o *Orchestrator) applyTimeout(specs []process.Spec) []process.Spec {
	if o.config.CommandTimeout <= 0 {
		return specs
	}
	out := make([]process.Spec, len(specs))
	for i, s := range specs {
		s.Timeout = o.config.CommandTimeout
		out[i] = s
	}
	return out
}

// startServer spawns the store server with its output forwarded to
// the logger.
func (o *Orchestrator) startServer(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	spec := o.driver.ServeCommand(o.serverWorkspace())
	cmd := spec.Command()

	output := logging.NewServerOutput(spec.Name, o.logger, o.config.Verbose)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("server stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("server stderr pipe: %w", err)
	}

	handle, err := process.Start(spec.Name, cmd, o.logger)
	if err != nil {
		return err
	}

	go output.HandleReader(stdout)
	go output.HandleReader(stderr)

	o.mu.Lock()
	o.server = handle
	o.serverOutput = output
	o.mu.Unlock()
	o.collector.ServerUp(true)

	return nil
}

// serverWorkspace returns the live workspace; only valid after the
// WorkspaceReady phase.
func (o *Orchestrator) serverWorkspace() *workspace.Workspace {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.ws
}

// finalize terminates the server and releases the workspace. It runs
// on every exit path; its own failures are recorded but never
// overwrite an earlier fatal error.
func (o *Orchestrator) finalize() {
	aborted := false
	o.mu.Lock()
	aborted = o.fatalErr != nil
	server := o.server
	ws := o.ws
	o.mu.Unlock()

	o.setPhase(PhaseFinalizing)

	if server != nil {
		err := server.Terminate(syscall.SIGTERM, o.shutdownGrace())
		o.collector.ServerUp(false)
		switch {
		case err == nil:
		case err == process.ErrForcedKill:
			o.logger.Warn("server_forced_kill", "name", server.Name())
		default:
			o.logger.Error("server_termination_failed", "error", err)
			o.mu.Lock()
			if o.fatalErr == nil {
				o.fatalErr = err
				o.fatalClass = FailureTermination
				aborted = true
			}
			o.mu.Unlock()
		}
	}

	cleanupFailures := 0
	if ws != nil {
		if o.config.KeepWorkspace {
			o.logger.Info("workspace_kept", "root", ws.Root())
		} else {
			cleanupFailures = ws.Release()
		}
	}
	o.mu.Lock()
	o.cleanupFailures = cleanupFailures
	o.mu.Unlock()

	if aborted {
		o.setPhase(PhaseAborted)
	} else {
		o.setPhase(PhaseDone)
	}
}

// abort records the first fatal error. Later calls keep the original.
func (o *Orchestrator) abort(class FailureClass, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.fatalErr != nil {
		return
	}
	o.fatalErr = err
	o.fatalClass = class
	o.logger.Error("run_aborting",
		"class", class.String(),
		"error", err,
	)
}

// setPhase advances the state machine and records the previous
// phase's wall time.
func (o *Orchestrator) setPhase(p Phase) {
	now := time.Now()

	o.mu.Lock()
	prev := o.phase
	if !o.phaseStart.IsZero() && prev != p {
		o.phaseTimings = append(o.phaseTimings, PhaseTiming{
			Phase:   prev,
			Elapsed: now.Sub(o.phaseStart),
		})
		o.collector.PhaseDone(prev.String(), now.Sub(o.phaseStart))
	}
	o.phase = p
	o.phaseStart = now
	o.mu.Unlock()

	o.collector.SetPhase(p.String())
	o.logger.Info("phase_changed", "from", prev.String(), "to", p.String())
}

// Phase returns the current phase.
func (o *Orchestrator) Phase() Phase {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.phase
}

// Elapsed returns time since the run started.
func (o *Orchestrator) Elapsed() time.Duration {
	return time.Since(o.startTime)
}

// report snapshots the terminal state.
func (o *Orchestrator) report() *Report {
	o.mu.RLock()
	defer o.mu.RUnlock()

	r := &Report{
		Phase:           o.phase,
		Store:           o.config.Store,
		Duration:        time.Since(o.startTime),
		Phases:          append([]PhaseTiming(nil), o.phaseTimings...),
		FatalClass:      o.fatalClass,
		FatalErr:        o.fatalErr,
		CleanupFailures: o.cleanupFailures,
	}
	for _, t := range o.tasks {
		r.Workloads = append(r.Workloads, t.outcome())
	}
	if o.fatalErr != nil && o.serverOutput != nil {
		r.ServerTail = o.serverOutput.RecentLines(serverTailLines)
	}
	return r
}
