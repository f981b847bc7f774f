package orchestrator

import (
	"fmt"
	"io"

	"github.com/Anhod/sparql-bench/internal/store"
	"github.com/Anhod/sparql-bench/internal/workspace"
)

// PrintCommands writes every external command a run would execute,
// in execution order, without running any of them. A scratch
// workspace is acquired so the printed paths are concrete, then
// released.
func (o *Orchestrator) PrintCommands(w io.Writer) error {
	cfg := o.config

	ws, err := workspace.Acquire(cfg.WorkspaceBase, o.logger)
	if err != nil {
		return err
	}
	defer ws.Release()

	decls, err := o.resolveDecls()
	if err != nil {
		return err
	}
	workloads := o.buildWorkloads(ws, decls)

	hasUpdate := false
	for _, wl := range workloads {
		if wl.IsUpdate() {
			hasUpdate = true
		}
	}

	fmt.Fprintln(w, "# setup")
	fmt.Fprintln(w, store.GenerateSpec(ws, store.GenerateOptions{
		ToolsDir:         cfg.ToolsDir,
		DatasetSize:      cfg.DatasetSize,
		WithUpdateStream: hasUpdate,
	}).String())

	prepare, err := o.driver.Prepare(ws, store.DatasetPath(ws, cfg.DatasetSize))
	if err != nil {
		return err
	}
	for _, spec := range prepare {
		fmt.Fprintln(w, spec.String())
	}

	fmt.Fprintln(w, "\n# server")
	fmt.Fprintln(w, o.driver.ServeCommand(ws).String())

	if post := o.driver.PostStartCommands(ws); len(post) > 0 {
		fmt.Fprintln(w, "\n# after readiness")
		for _, spec := range post {
			fmt.Fprintln(w, spec.String())
		}
	}

	fmt.Fprintln(w, "\n# workloads")
	for _, wl := range workloads {
		spec := wl.Spec(store.TestDriverPath(cfg.ToolsDir), cfg.Parallelism, cfg.Seed, 0)
		fmt.Fprintln(w, spec.String())
	}
	return nil
}
