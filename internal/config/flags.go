package config

import (
	"flag"
	"fmt"
	"os"
	"strings"
)

// ParseArgs parses a subcommand plus flags into a Config.
// Usage: sparql-bench <jena|virtuoso> [flags]
func ParseArgs(args []string) (*Config, error) {
	if len(args) < 1 {
		printTopUsage()
		return nil, fmt.Errorf("missing store subcommand")
	}

	sub := args[0]
	switch sub {
	case "jena", "virtuoso":
	case "-h", "--help", "help":
		printTopUsage()
		return nil, flag.ErrHelp
	default:
		printTopUsage()
		return nil, fmt.Errorf("unknown store subcommand %q", sub)
	}

	cfg := DefaultConfig()
	cfg.Store = sub
	if sub == "virtuoso" {
		cfg.HTTPPort = 8890
	}

	fs := flag.NewFlagSet(sub, flag.ContinueOnError)

	// Run
	fs.IntVar(&cfg.DatasetSize, "dataset-size", cfg.DatasetSize, "BSBM product count for dataset generation")
	fs.IntVar(&cfg.Parallelism, "parallelism", cfg.Parallelism, "test driver thread count (-mt), also bounds concurrent independent workloads")
	fs.Int64Var(&cfg.Seed, "seed", cfg.Seed, "test driver random seed (0 = driver default)")
	fs.StringVar(&cfg.Workloads, "workloads", cfg.Workloads, "comma-separated use cases, each optionally name:prerequisite (empty = store default)")

	// Tooling
	fs.StringVar(&cfg.ToolsDir, "tools-dir", cfg.ToolsDir, "bsbm-tools directory (generate, testdriver, usecases/)")
	fs.StringVar(&cfg.StoreBinDir, "store-bin", cfg.StoreBinDir, "directory holding the store binaries (empty = PATH)")

	// Endpoints
	fs.StringVar(&cfg.Host, "host", cfg.Host, "host the store binds and the driver targets")
	fs.IntVar(&cfg.HTTPPort, "http-port", cfg.HTTPPort, "store SPARQL-over-HTTP port")
	fs.IntVar(&cfg.SQLPort, "sql-port", cfg.SQLPort, "Virtuoso isql port")

	// Filesystem
	fs.StringVar(&cfg.OutputDir, "output-dir", cfg.OutputDir, "directory for result XML artifacts")
	fs.StringVar(&cfg.WorkspaceBase, "workspace-base", cfg.WorkspaceBase, "base directory for the scoped workspace (empty = system temp)")
	fs.BoolVar(&cfg.KeepWorkspace, "keep-workspace", cfg.KeepWorkspace, "skip workspace removal (debugging)")

	// Timing
	fs.DurationVar(&cfg.ReadyInterval, "ready-interval", cfg.ReadyInterval, "readiness probe poll interval")
	fs.DurationVar(&cfg.ReadyDeadline, "ready-deadline", cfg.ReadyDeadline, "readiness probe deadline")
	fs.DurationVar(&cfg.CommandTimeout, "command-timeout", cfg.CommandTimeout, "per-command timeout for setup and workload commands (0 = unlimited)")
	fs.DurationVar(&cfg.ShutdownGrace, "shutdown-grace", cfg.ShutdownGrace, "time between SIGTERM and SIGKILL for the server (0 = store default)")

	// Observability
	fs.StringVar(&cfg.MetricsAddr, "metrics", cfg.MetricsAddr, "Prometheus metrics listen address")
	fs.DurationVar(&cfg.ScrapeInterval, "scrape-interval", cfg.ScrapeInterval, "store exporter scrape interval")
	fs.DurationVar(&cfg.ScrapeWindow, "scrape-window", cfg.ScrapeWindow, "rolling window for store request-rate percentiles")
	fs.BoolVar(&cfg.Verbose, "v", cfg.Verbose, "verbose (debug) logging")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "log format: json or text")
	fs.BoolVar(&cfg.TUIEnabled, "tui", cfg.TUIEnabled, "live terminal dashboard (suppresses logs)")

	// Diagnostics
	fs.BoolVar(&cfg.PrintCmd, "print-cmd", cfg.PrintCmd, "print the external commands that would run, then exit")
	fs.BoolVar(&cfg.SkipPreflight, "skip-preflight", cfg.SkipPreflight, "skip preflight checks")

	// Environment
	fs.StringVar(&cfg.EnvFile, "env-file", cfg.EnvFile, "dotenv file with store tuning overrides (JAVA_OPTIONS, ...)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `sparql-bench %s - run the BSBM benchmark against %s

Usage:
  sparql-bench %s [flags]

Run Flags:
`, sub, storeLabel(sub), sub)
		printFlagCategory(fs, []string{"dataset-size", "parallelism", "seed", "workloads"})

		fmt.Fprintf(os.Stderr, "\nTooling:\n")
		printFlagCategory(fs, []string{"tools-dir", "store-bin", "env-file"})

		fmt.Fprintf(os.Stderr, "\nEndpoints:\n")
		printFlagCategory(fs, []string{"host", "http-port", "sql-port"})

		fmt.Fprintf(os.Stderr, "\nFilesystem:\n")
		printFlagCategory(fs, []string{"output-dir", "workspace-base", "keep-workspace"})

		fmt.Fprintf(os.Stderr, "\nTiming:\n")
		printFlagCategory(fs, []string{"ready-interval", "ready-deadline", "command-timeout", "shutdown-grace"})

		fmt.Fprintf(os.Stderr, "\nObservability:\n")
		printFlagCategory(fs, []string{"metrics", "scrape-interval", "scrape-window", "v", "log-format", "tui"})

		fmt.Fprintf(os.Stderr, "\nDiagnostics:\n")
		printFlagCategory(fs, []string{"print-cmd", "skip-preflight"})

		fmt.Fprintf(os.Stderr, `
Examples:
  # Small Fuseki run, single driver thread
  sparql-bench jena -dataset-size 1000 -parallelism 1

  # Virtuoso with the full workload sequence
  sparql-bench virtuoso -dataset-size 10000 -parallelism 4 \
    -workloads explore,exploreAndUpdate:explore,businessIntelligence:exploreAndUpdate
`)
	}

	if err := fs.Parse(args[1:]); err != nil {
		return nil, err
	}

	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}

	if cfg.EnvFile != "" {
		if err := loadEnvFile(cfg); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// printTopUsage prints the subcommand overview.
func printTopUsage() {
	fmt.Fprintf(os.Stderr, `sparql-bench - BSBM benchmark orchestration for SPARQL stores

Usage:
  sparql-bench <store> [flags]

Stores:
  jena      Apache Jena TDB2 behind Fuseki
  virtuoso  OpenLink Virtuoso

Run "sparql-bench <store> -h" for store flags.
`)
}

// printFlagCategory prints a set of flags with aligned descriptions.
func printFlagCategory(fs *flag.FlagSet, names []string) {
	for _, name := range names {
		f := fs.Lookup(name)
		if f == nil {
			continue
		}
		def := ""
		if f.DefValue != "" && f.DefValue != "false" && f.DefValue != "0" && f.DefValue != "0s" {
			def = fmt.Sprintf(" (default %s)", f.DefValue)
		}
		fmt.Fprintf(os.Stderr, "  -%-18s %s%s\n", f.Name, f.Usage, def)
	}
}

func storeLabel(sub string) string {
	switch sub {
	case "jena":
		return "Apache Jena Fuseki"
	case "virtuoso":
		return "OpenLink Virtuoso"
	default:
		return sub
	}
}
