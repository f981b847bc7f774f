// Package workload describes benchmark driver invocations and their
// ordering constraints.
package workload

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Anhod/sparql-bench/internal/process"
)

// Status is the terminal outcome of one workload.
type Status int

const (
	// StatusPending means the workload has not run yet.
	StatusPending Status = iota

	// StatusRunning means the driver is currently executing.
	StatusRunning

	// StatusSucceeded means the driver exited zero.
	StatusSucceeded

	// StatusFailed means the driver exited non-zero or was killed.
	StatusFailed

	// StatusSkipped means a prerequisite did not succeed, so the
	// workload was never attempted.
	StatusSkipped
)

// String returns a human-readable name for the status.
func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusRunning:
		return "running"
	case StatusSucceeded:
		return "succeeded"
	case StatusFailed:
		return "failed"
	case StatusSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// Decl is a declared workload: a use-case name plus an optional
// prerequisite. Ordering constraints are explicit here, never
// inferred from names.
type Decl struct {
	Name     string
	Requires string
}

// ParseDecl parses "name" or "name:prerequisite".
func ParseDecl(s string) (Decl, error) {
	parts := strings.SplitN(s, ":", 2)
	name := strings.TrimSpace(parts[0])
	if name == "" {
		return Decl{}, fmt.Errorf("empty workload name in %q", s)
	}
	d := Decl{Name: name}
	if len(parts) == 2 {
		d.Requires = strings.TrimSpace(parts[1])
		if d.Requires == "" {
			return Decl{}, fmt.Errorf("empty prerequisite in %q", s)
		}
	}
	return d, nil
}

// ParseList parses a comma-separated workload list and checks that
// every prerequisite names an earlier entry.
func ParseList(s string) ([]Decl, error) {
	var decls []Decl
	seen := make(map[string]bool)

	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		d, err := ParseDecl(item)
		if err != nil {
			return nil, err
		}
		if seen[d.Name] {
			return nil, fmt.Errorf("duplicate workload %q", d.Name)
		}
		if d.Requires != "" && !seen[d.Requires] {
			return nil, fmt.Errorf("workload %q requires %q, which is not declared before it", d.Name, d.Requires)
		}
		seen[d.Name] = true
		decls = append(decls, d)
	}

	if len(decls) == 0 {
		return nil, fmt.Errorf("no workloads in %q", s)
	}
	return decls, nil
}

// Workload is one resolved benchmark driver run.
type Workload struct {
	// Name is the BSBM use case ("explore", "exploreAndUpdate",
	// "businessIntelligence").
	Name string

	// Requires names the workload whose side effects this one
	// depends on. Empty means independent.
	Requires string

	// UsecaseFile is the query mix file passed to -ucf.
	UsecaseFile string

	// QueryEndpoint is the SPARQL query URL.
	QueryEndpoint string

	// UpdateEndpoint is the SPARQL update URL. Only set for update
	// use cases.
	UpdateEndpoint string

	// UpdateDataset is the generated update stream file. Only set
	// for update use cases.
	UpdateDataset string

	// DataDir is the test driver data directory (-idir).
	DataDir string

	// OutputPath is where the driver writes its XML result.
	OutputPath string
}

// IsUpdate reports whether this workload mutates the store.
func (w Workload) IsUpdate() bool {
	return w.UpdateEndpoint != ""
}

// Spec builds the testdriver invocation for this workload.
// Parallelism is passed straight through as -mt, never interpreted.
func (w Workload) Spec(driverPath string, parallelism int, seed int64, timeout time.Duration) process.Spec {
	args := []string{
		"-mt", strconv.Itoa(parallelism),
		"-ucf", w.UsecaseFile,
	}
	if w.DataDir != "" {
		args = append(args, "-idir", w.DataDir)
	}
	if seed != 0 {
		args = append(args, "-seed", strconv.FormatInt(seed, 10))
	}
	args = append(args, "-o", w.OutputPath)
	if w.IsUpdate() {
		args = append(args, "-u", w.UpdateEndpoint)
		if w.UpdateDataset != "" {
			args = append(args, "-udataset", w.UpdateDataset)
		}
	}
	args = append(args, w.QueryEndpoint)

	return process.Spec{
		Name:    "testdriver " + w.Name,
		Path:    driverPath,
		Args:    args,
		Timeout: timeout,
	}
}

// ArtifactName returns the result file name the original workflow
// used: bsbm.<workload>.<store>.<size>.<parallelism>.xml.
func ArtifactName(name, store string, datasetSize, parallelism int) string {
	return fmt.Sprintf("bsbm.%s.%s.%d.%d.xml", name, store, datasetSize, parallelism)
}
