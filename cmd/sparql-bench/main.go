// Package main provides the sparql-bench CLI entry point.
//
// sparql-bench runs the Berlin SPARQL Benchmark against a managed
// triple store instance: it generates the dataset, loads it, starts
// the store, waits for readiness, drives the query mixes, and tears
// everything down again.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Anhod/sparql-bench/internal/config"
	"github.com/Anhod/sparql-bench/internal/logging"
	"github.com/Anhod/sparql-bench/internal/orchestrator"
	"github.com/Anhod/sparql-bench/internal/results"
	"github.com/Anhod/sparql-bench/internal/stats"
	"github.com/Anhod/sparql-bench/internal/sysinfo"
	"github.com/Anhod/sparql-bench/internal/tui"
	"github.com/Anhod/sparql-bench/internal/workload"
)

// version is set at build time via ldflags:
//
//	go build -ldflags "-X main.version=1.0.0" ./cmd/sparql-bench
var version = "dev"

// Exit codes. Each abort cause gets its own code so wrapper scripts
// can tell a store that never came up from a workload that failed.
const (
	exitOK          = 0
	exitInternal    = 1
	exitConfig      = 2
	exitSetup       = 3
	exitReadiness   = 4
	exitWorkload    = 5
	exitTermination = 6
	exitInterrupted = 7
)

func main() {
	os.Exit(run())
}

func run() int {
	if len(os.Args) > 1 {
		arg := os.Args[1]
		if arg == "-version" || arg == "--version" || arg == "version" {
			fmt.Printf("sparql-bench %s\n", version)
			return exitOK
		}
	}

	cfg, err := config.ParseArgs(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing flags: %v\n", err)
		return exitConfig
	}

	// When the TUI is enabled, logs would corrupt the display.
	var logger *slog.Logger
	if cfg.TUIEnabled {
		logger = logging.NewLoggerWithWriter(io.Discard, "json", "info")
	} else {
		logger = logging.NewLogger(cfg.LogFormat, "info", cfg.Verbose)
	}
	logging.SetDefault(logger)

	if err := config.Validate(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		return exitConfig
	}

	orch, err := orchestrator.New(cfg, version, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		return exitConfig
	}

	if cfg.PrintCmd {
		if err := orch.PrintCommands(os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return exitInternal
		}
		return exitOK
	}

	logger.Info("starting",
		"version", version,
		"store", cfg.Store,
		"dataset_size", cfg.DatasetSize,
		"parallelism", cfg.Parallelism,
		"metrics_addr", cfg.MetricsAddr,
	)

	if !cfg.TUIEnabled {
		printBanner(cfg)
	}

	report := runWithOptionalTUI(cfg, orch)

	fmt.Println(stats.FormatExitSummary(buildSummary(cfg, report)))

	return exitCode(report)
}

// runWithOptionalTUI executes the run, with the dashboard attached
// when requested. Quitting the TUI cancels the run; teardown still
// happens and the report still drives the exit code.
func runWithOptionalTUI(cfg *config.Config, orch *orchestrator.Orchestrator) *orchestrator.Report {
	if !cfg.TUIEnabled {
		return orch.Execute(context.Background())
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	model := tui.New(tui.Config{
		Source:      orch,
		MetricsAddr: cfg.MetricsAddr,
	})
	program := tea.NewProgram(model, tea.WithAltScreen())

	reportCh := make(chan *orchestrator.Report, 1)
	go func() {
		reportCh <- orch.Execute(ctx)
		tui.SendQuit(program)
	}()

	if _, err := program.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "TUI error: %v\n", err)
	}
	cancel()
	return <-reportCh
}

// exitCode maps the report's failure class onto the process exit code.
func exitCode(r *orchestrator.Report) int {
	switch r.Class() {
	case orchestrator.FailureNone:
		return exitOK
	case orchestrator.FailureSetup:
		return exitSetup
	case orchestrator.FailureReadiness:
		return exitReadiness
	case orchestrator.FailureWorkload:
		return exitWorkload
	case orchestrator.FailureTermination:
		return exitTermination
	case orchestrator.FailureInterrupted:
		return exitInterrupted
	}
	return exitInternal
}

// buildSummary converts the run report into the printable exit
// summary, folding in parsed benchmark artifacts and host info.
func buildSummary(cfg *config.Config, r *orchestrator.Report) stats.Summary {
	s := stats.Summary{
		Store:           cfg.Store,
		DatasetSize:     cfg.DatasetSize,
		Parallelism:     cfg.Parallelism,
		Duration:        r.Duration,
		HostLine:        sysinfo.Collect().String(),
		MetricsAddr:     cfg.MetricsAddr,
		CleanupFailures: r.CleanupFailures,
	}

	if r.FatalErr != nil {
		s.FatalClass = r.FatalClass.String()
		s.FatalError = r.FatalErr.Error()
		s.ServerTail = r.ServerTail
	}

	for _, p := range r.Phases {
		s.Phases = append(s.Phases, stats.PhaseTiming{
			Name:    p.Phase.String(),
			Elapsed: p.Elapsed,
		})
	}

	for _, w := range r.Workloads {
		wr := stats.WorkloadResult{
			Name:         w.Name,
			Status:       w.Status.String(),
			Elapsed:      w.Elapsed,
			ArtifactPath: w.ArtifactPath,
		}
		if w.Err != nil {
			wr.Error = w.Err.Error()
		}
		if w.Status == workload.StatusSucceeded {
			if dr, err := results.Parse(w.ArtifactPath); err == nil {
				wr.QMpH = dr.QMpH
				wr.QueryMixRuns = dr.QueryMixRuns
			}
		}
		s.Workloads = append(s.Workloads, wr)
	}

	return s
}

// printBanner prints the startup banner.
func printBanner(cfg *config.Config) {
	fmt.Println()
	fmt.Println("╔═══════════════════════════════════════════════════════════════════╗")
	fmt.Println("║                          sparql-bench                             ║")
	fmt.Println("║       Berlin SPARQL Benchmark with Managed Store Lifecycle        ║")
	fmt.Println("╚═══════════════════════════════════════════════════════════════════╝")
	fmt.Println()
	fmt.Printf("  Store:       %s\n", cfg.Store)
	fmt.Printf("  Dataset:     %d products\n", cfg.DatasetSize)
	fmt.Printf("  Parallelism: %d client threads\n", cfg.Parallelism)
	workloads := cfg.Workloads
	if workloads == "" {
		workloads = "(store default)"
	}
	fmt.Printf("  Workloads:   %s\n", workloads)
	fmt.Printf("  Output:      %s\n", cfg.OutputDir)
	fmt.Printf("  Metrics:     http://%s/metrics\n", cfg.MetricsAddr)
	if cfg.KeepWorkspace {
		fmt.Println("  Workspace:   KEPT after run")
	}
	fmt.Println()
	fmt.Println("Press Ctrl+C to abort; the store is always torn down.")
	fmt.Println()
}
