package config

import (
	"errors"
	"fmt"

	"github.com/Anhod/sparql-bench/internal/workload"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks the configuration for errors and inconsistencies.
// Returns nil if valid, or an error describing every problem found.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Store != "jena" && cfg.Store != "virtuoso" {
		errs = append(errs, ValidationError{
			Field:   "store",
			Message: fmt.Sprintf("unknown store %q", cfg.Store),
		})
	}

	if cfg.DatasetSize < 1 {
		errs = append(errs, ValidationError{
			Field:   "dataset_size",
			Message: "must be at least 1",
		})
	}

	if cfg.Parallelism < 1 {
		errs = append(errs, ValidationError{
			Field:   "parallelism",
			Message: "must be at least 1",
		})
	}

	if cfg.ToolsDir == "" {
		errs = append(errs, ValidationError{
			Field:   "tools_dir",
			Message: "is required",
		})
	}

	if cfg.HTTPPort < 1 || cfg.HTTPPort > 65535 {
		errs = append(errs, ValidationError{
			Field:   "http_port",
			Message: "must be in 1..65535",
		})
	}

	if cfg.Store == "virtuoso" && (cfg.SQLPort < 1 || cfg.SQLPort > 65535) {
		errs = append(errs, ValidationError{
			Field:   "sql_port",
			Message: "must be in 1..65535",
		})
	}

	if cfg.ReadyInterval <= 0 {
		errs = append(errs, ValidationError{
			Field:   "ready_interval",
			Message: "must be positive",
		})
	}

	if cfg.ReadyDeadline <= 0 {
		errs = append(errs, ValidationError{
			Field:   "ready_deadline",
			Message: "must be positive",
		})
	} else if cfg.ReadyInterval > 0 && cfg.ReadyDeadline < cfg.ReadyInterval {
		errs = append(errs, ValidationError{
			Field:   "ready_deadline",
			Message: "must be at least the probe interval",
		})
	}

	if cfg.CommandTimeout < 0 {
		errs = append(errs, ValidationError{
			Field:   "command_timeout",
			Message: "must not be negative",
		})
	}

	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		errs = append(errs, ValidationError{
			Field:   "log_format",
			Message: fmt.Sprintf("must be json or text, got %q", cfg.LogFormat),
		})
	}

	if cfg.Workloads != "" {
		if _, err := workload.ParseList(cfg.Workloads); err != nil {
			errs = append(errs, ValidationError{
				Field:   "workloads",
				Message: err.Error(),
			})
		}
	}

	return errors.Join(errs...)
}
