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

// virtuosoGraph is the named graph the dataset is loaded into.
const virtuosoGraph = "urn:bsbm"

// Virtuoso runs virtuoso-t in the foreground and loads the dataset
// through isql once the SQL port is up.
type Virtuoso struct {
	opts Options
}

func newVirtuoso(opts Options) *Virtuoso {
	return &Virtuoso{opts: opts}
}

func (v *Virtuoso) Kind() Kind { return KindVirtuoso }

func (v *Virtuoso) bin(name string) string {
	if v.opts.BinDir == "" {
		return name
	}
	return filepath.Join(v.opts.BinDir, name)
}

// Prepare renders the server ini and the load script into the
// workspace. There are no offline load commands; loading happens
// through isql after the server is up.
func (v *Virtuoso) Prepare(ws *workspace.Workspace, datasetPath string) ([]process.Spec, error) {
	dbDir, err := ws.MkdirAll("virtuoso-db")
	if err != nil {
		return nil, err
	}

	ini := fmt.Sprintf(`[Database]
DatabaseFile = %[1]s/virtuoso.db
ErrorLogFile = %[1]s/virtuoso.log
LockFile = %[1]s/virtuoso.lck
TransactionFile = %[1]s/virtuoso.trx
xa_persistent_file = %[1]s/virtuoso.pxa

[Parameters]
ServerPort = %[2]d
DirsAllowed = %[3]s
NumberOfBuffers = 340000
MaxDirtyBuffers = 250000

[SPARQL]
ResultSetMaxRows = 1000000
MaxQueryExecutionTime = 600

[HTTPServer]
ServerPort = %[4]d
MaxClientConnections = 64
`, dbDir, v.opts.SQLPort, ws.Root(), v.opts.HTTPPort)

	if _, err := ws.WriteFile("virtuoso.ini", []byte(ini)); err != nil {
		return nil, err
	}

	load := fmt.Sprintf(`ld_dir('%s', '%s', '%s');
rdf_loader_run();
checkpoint;
GRANT SPARQL_UPDATE TO "SPARQL";
exit;
`, filepath.Dir(datasetPath), filepath.Base(datasetPath), virtuosoGraph)

	if _, err := ws.WriteFile("load.isql", []byte(load)); err != nil {
		return nil, err
	}

	return nil, nil
}

// ServeCommand starts the server in the foreground so the process
// handle owns it directly.
func (v *Virtuoso) ServeCommand(ws *workspace.Workspace) process.Spec {
	return process.Spec{
		Name: "virtuoso-t",
		Path: v.bin("virtuoso-t"),
		Args: []string{
			"+foreground",
			"+configfile", ws.Path("virtuoso.ini"),
		},
		Env: v.opts.Env,
	}
}

// ReadyTarget probes the SQL port, which opens once recovery is done.
func (v *Virtuoso) ReadyTarget() probe.Target {
	return probe.TCPTarget{
		Addr: fmt.Sprintf("%s:%d", v.opts.Host, v.opts.SQLPort),
	}
}

// PostStartCommands loads the dataset through isql.
func (v *Virtuoso) PostStartCommands(ws *workspace.Workspace) []process.Spec {
	return []process.Spec{
		{
			Name: "isql load",
			Path: v.bin("isql"),
			Args: []string{
				fmt.Sprintf("%s:%d", v.opts.Host, v.opts.SQLPort),
				"dba", "dba",
				ws.Path("load.isql"),
			},
			Env: v.opts.Env,
		},
	}
}

func (v *Virtuoso) QueryEndpoint() string {
	return fmt.Sprintf("http://%s:%d/sparql?default-graph-uri=%s", v.opts.Host, v.opts.HTTPPort, virtuosoGraph)
}

func (v *Virtuoso) UpdateEndpoint() string {
	return fmt.Sprintf("http://%s:%d/sparql", v.opts.Host, v.opts.HTTPPort)
}

// MetricsEndpoint is empty: Virtuoso has no Prometheus exposition.
func (v *Virtuoso) MetricsEndpoint() string { return "" }

// DefaultWorkloads is explore-only, matching the original benchmark
// scope for this store. The other use cases run when asked for
// explicitly via -workloads.
func (v *Virtuoso) DefaultWorkloads() []workload.Decl {
	return []workload.Decl{
		{Name: "explore"},
	}
}

func (v *Virtuoso) ShutdownGrace() time.Duration {
	return 20 * time.Second
}
