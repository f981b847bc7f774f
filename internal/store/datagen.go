package store

import (
	"path/filepath"
	"strconv"
	"time"

	"github.com/Anhod/sparql-bench/internal/process"
	"github.com/Anhod/sparql-bench/internal/workspace"
)

// GenerateOptions configures the BSBM dataset generator invocation.
type GenerateOptions struct {
	// ToolsDir is the bsbm-tools directory containing generate.
	ToolsDir string

	// DatasetSize is the product count (-pc).
	DatasetSize int

	// WithUpdateStream also emits the update transaction file
	// consumed by the exploreAndUpdate use case.
	WithUpdateStream bool

	// Timeout bounds the generator's runtime. Zero means unlimited.
	Timeout time.Duration
}

// DatasetPath returns the triple file the generator writes for ws.
func DatasetPath(ws *workspace.Workspace, datasetSize int) string {
	return ws.Path("explore-" + strconv.Itoa(datasetSize) + ".nt")
}

// UpdateStreamPath returns the update transaction file for ws.
func UpdateStreamPath(ws *workspace.Workspace, datasetSize int) string {
	return ws.Path("explore-update-" + strconv.Itoa(datasetSize) + ".nt")
}

// TestDriverDataDir returns the generator's auxiliary data directory,
// which the test driver consumes via -idir.
func TestDriverDataDir(ws *workspace.Workspace) string {
	return ws.Path("td_data")
}

// GenerateSpec builds the dataset generator command. The generator
// writes everything into the workspace, so cleanup needs no extra
// tracking.
func GenerateSpec(ws *workspace.Workspace, opts GenerateOptions) process.Spec {
	size := strconv.Itoa(opts.DatasetSize)
	prefix := ws.Path("explore-" + size)

	args := []string{
		"-fc",
		"-pc", size,
		"-s", "nt",
		"-dir", TestDriverDataDir(ws),
		"-fn", prefix,
	}
	if opts.WithUpdateStream {
		args = append(args,
			"-ud",
			"-ufn", ws.Path("explore-update-"+size),
		)
	}

	return process.Spec{
		Name:    "generate",
		Path:    filepath.Join(opts.ToolsDir, "generate"),
		Args:    args,
		Dir:     opts.ToolsDir,
		Timeout: opts.Timeout,
	}
}

// TestDriverPath returns the benchmark driver binary inside toolsDir.
func TestDriverPath(toolsDir string) string {
	return filepath.Join(toolsDir, "testdriver")
}

// UsecaseFile returns the query mix file for a named use case.
func UsecaseFile(toolsDir, name string) string {
	return filepath.Join(toolsDir, "usecases", name, "sparql.txt")
}
