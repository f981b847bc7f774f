// Package config provides configuration management for sparql-bench.
package config

import "time"

// Config holds all configuration for one benchmark run. It is built
// once at startup and never mutated afterwards.
type Config struct {
	// Run identity
	Store       string `json:"store"` // jena, virtuoso
	DatasetSize int    `json:"dataset_size"`
	Parallelism int    `json:"parallelism"`
	Seed        int64  `json:"seed"`

	// Workloads is a comma-separated list of use cases, each
	// optionally "name:prerequisite". Empty uses the store's
	// default list.
	Workloads string `json:"workloads"`

	// External tooling
	ToolsDir    string `json:"tools_dir"`
	StoreBinDir string `json:"store_bin_dir"`

	// Store endpoints
	Host     string `json:"host"`
	HTTPPort int    `json:"http_port"`
	SQLPort  int    `json:"sql_port"`

	// Filesystem
	OutputDir     string `json:"output_dir"`
	WorkspaceBase string `json:"workspace_base"`
	KeepWorkspace bool   `json:"keep_workspace"`

	// Timing
	ReadyInterval  time.Duration `json:"ready_interval"`
	ReadyDeadline  time.Duration `json:"ready_deadline"`
	CommandTimeout time.Duration `json:"command_timeout"` // 0 = unlimited
	ShutdownGrace  time.Duration `json:"shutdown_grace"`  // 0 = store default

	// Observability
	MetricsAddr    string        `json:"metrics_addr"`
	ScrapeInterval time.Duration `json:"scrape_interval"`
	ScrapeWindow   time.Duration `json:"scrape_window"`
	Verbose        bool          `json:"verbose"`
	LogFormat      string        `json:"log_format"` // json, text
	TUIEnabled     bool          `json:"tui"`

	// StoreEnv is extra environment for spawned store processes
	// (JAVA_OPTIONS and friends), loaded from the env file.
	// Opaque to the harness.
	StoreEnv []string `json:"-"`

	// Diagnostic modes
	PrintCmd      bool `json:"print_cmd"`
	SkipPreflight bool `json:"skip_preflight"`

	// EnvFile is an optional dotenv file with store tuning
	// overrides.
	EnvFile string `json:"env_file"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		DatasetSize: 1000,
		Parallelism: 1,
		Seed:        0,

		ToolsDir: "bsbm-tools",

		Host:     "localhost",
		HTTPPort: 3030,
		SQLPort:  1111,

		OutputDir: ".",

		ReadyInterval: 500 * time.Millisecond,
		ReadyDeadline: 60 * time.Second,

		MetricsAddr:    "0.0.0.0:17092",
		ScrapeInterval: 2 * time.Second,
		ScrapeWindow:   60 * time.Second,
		LogFormat:      "json",
	}
}
