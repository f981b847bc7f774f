package store

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/Anhod/sparql-bench/internal/probe"
	"github.com/Anhod/sparql-bench/internal/process"
	"github.com/Anhod/sparql-bench/internal/workload"
	"github.com/Anhod/sparql-bench/internal/workspace"
)

// jenaDataset is the Fuseki dataset name the endpoints hang off.
const jenaDataset = "bsbm"

// Jena runs a TDB2 database behind a Fuseki server. The database is
// bulk-loaded offline with tdb2.tdbloader before the server starts.
type Jena struct {
	opts Options
}

func newJena(opts Options) *Jena {
	return &Jena{opts: opts}
}

func (j *Jena) Kind() Kind { return KindJena }

// tdbDir is the TDB2 database location inside the workspace.
func (j *Jena) tdbDir(ws *workspace.Workspace) string {
	return ws.Path("tdb2")
}

func (j *Jena) bin(name string) string {
	if j.opts.BinDir == "" {
		return name
	}
	return filepath.Join(j.opts.BinDir, name)
}

// Prepare returns the offline bulk load command.
func (j *Jena) Prepare(ws *workspace.Workspace, datasetPath string) ([]process.Spec, error) {
	return []process.Spec{
		{
			Name: "tdb2.tdbloader",
			Path: j.bin("tdb2.tdbloader"),
			Args: []string{
				"--loader=parallel",
				"--loc", j.tdbDir(ws),
				datasetPath,
			},
			Env: j.opts.Env,
		},
	}, nil
}

// ServeCommand starts Fuseki over the loaded TDB2 database with
// SPARQL update enabled.
func (j *Jena) ServeCommand(ws *workspace.Workspace) process.Spec {
	return process.Spec{
		Name: "fuseki-server",
		Path: j.bin("fuseki-server"),
		Args: []string{
			"--tdb2",
			"--loc", j.tdbDir(ws),
			"--port", fmt.Sprintf("%d", j.opts.HTTPPort),
			"--update",
			"/" + jenaDataset,
		},
		Env: j.opts.Env,
	}
}

// ReadyTarget probes Fuseki's ping endpoint.
func (j *Jena) ReadyTarget() probe.Target {
	return probe.HTTPTarget{
		URL: fmt.Sprintf("http://%s:%d/$/ping", j.opts.Host, j.opts.HTTPPort),
	}
}

// PostStartCommands is empty: Jena's load is offline.
func (j *Jena) PostStartCommands(ws *workspace.Workspace) []process.Spec {
	return nil
}

func (j *Jena) QueryEndpoint() string {
	return fmt.Sprintf("http://%s:%d/%s/query", j.opts.Host, j.opts.HTTPPort, jenaDataset)
}

func (j *Jena) UpdateEndpoint() string {
	return fmt.Sprintf("http://%s:%d/%s/update", j.opts.Host, j.opts.HTTPPort, jenaDataset)
}

// MetricsEndpoint returns Fuseki's Prometheus exposition endpoint.
func (j *Jena) MetricsEndpoint() string {
	return fmt.Sprintf("http://%s:%d/$/metrics", j.opts.Host, j.opts.HTTPPort)
}

// DefaultWorkloads mirrors the original benchmark: the full explore,
// update, and business intelligence sequence.
func (j *Jena) DefaultWorkloads() []workload.Decl {
	return []workload.Decl{
		{Name: "explore"},
		{Name: "exploreAndUpdate", Requires: "explore"},
		{Name: "businessIntelligence", Requires: "exploreAndUpdate"},
	}
}

// ShutdownGrace allows the JVM time to flush TDB2 on SIGTERM.
func (j *Jena) ShutdownGrace() time.Duration {
	return 15 * time.Second
}
