// Package store models the triple stores a benchmark run can target.
//
// Each store is an external black box with its own bootstrap dance:
// Jena loads offline with tdb2.tdbloader before Fuseki starts, while
// Virtuoso starts first and loads through isql. The Driver interface
// absorbs that variance so the orchestrator stays store-agnostic.
package store

import (
	"fmt"
	"time"

	"github.com/Anhod/sparql-bench/internal/probe"
	"github.com/Anhod/sparql-bench/internal/process"
	"github.com/Anhod/sparql-bench/internal/workload"
	"github.com/Anhod/sparql-bench/internal/workspace"
)

// Kind enumerates the supported stores.
type Kind string

const (
	// KindJena is Apache Jena TDB2 served by Fuseki.
	KindJena Kind = "jena"

	// KindVirtuoso is OpenLink Virtuoso.
	KindVirtuoso Kind = "virtuoso"
)

// Kinds lists all supported store kinds.
func Kinds() []Kind {
	return []Kind{KindJena, KindVirtuoso}
}

// Options configures a driver. All paths point at external,
// pre-installed tooling; the harness never builds or installs them.
type Options struct {
	// ToolsDir is the bsbm-tools checkout holding generate,
	// testdriver and the usecases directory.
	ToolsDir string

	// BinDir holds the store's own binaries (fuseki-server,
	// tdb2.tdbloader, virtuoso-t, isql). Empty resolves via PATH.
	BinDir string

	// Host the server binds and the driver connects to.
	Host string

	// HTTPPort is the store's SPARQL-over-HTTP port.
	HTTPPort int

	// SQLPort is Virtuoso's isql port. Unused by Jena.
	SQLPort int

	// DatasetSize is the BSBM product count.
	DatasetSize int

	// Extra environment for store processes (JAVA_OPTIONS and
	// friends), passed through opaque.
	Env []string
}

// Driver is the per-store capability set.
type Driver interface {
	// Kind returns the store kind.
	Kind() Kind

	// Prepare writes store-specific files into the workspace and
	// returns the setup commands to run before the server starts
	// (offline loaders). Any failure aborts the run.
	Prepare(ws *workspace.Workspace, datasetPath string) ([]process.Spec, error)

	// ServeCommand returns the long-running server invocation.
	ServeCommand(ws *workspace.Workspace) process.Spec

	// ReadyTarget returns the probe target that confirms the
	// server accepts requests.
	ReadyTarget() probe.Target

	// PostStartCommands returns setup commands that need a live
	// server (online loaders). Run between readiness and the first
	// workload; any failure aborts the run.
	PostStartCommands(ws *workspace.Workspace) []process.Spec

	// QueryEndpoint returns the SPARQL query URL.
	QueryEndpoint() string

	// UpdateEndpoint returns the SPARQL update URL.
	UpdateEndpoint() string

	// MetricsEndpoint returns the store's Prometheus exposition
	// URL, or "" when the store has none.
	MetricsEndpoint() string

	// DefaultWorkloads returns the workload list the original
	// benchmark ran against this store.
	DefaultWorkloads() []workload.Decl

	// ShutdownGrace is how long the server gets between SIGTERM
	// and SIGKILL.
	ShutdownGrace() time.Duration
}

// New returns the driver for kind.
func New(kind Kind, opts Options) (Driver, error) {
	switch kind {
	case KindJena:
		return newJena(opts), nil
	case KindVirtuoso:
		return newVirtuoso(opts), nil
	default:
		return nil, fmt.Errorf("unknown store kind %q", kind)
	}
}
