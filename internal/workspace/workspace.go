// Package workspace provides scoped filesystem state for one run.
// Every path created during a run is removed when the workspace is
// released, on success and on failure alike.
package workspace

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// Workspace owns a unique per-run directory plus any extra paths
// registered with Track. Release removes everything, deepest-first,
// best-effort: removal errors are logged and counted but never
// returned, so cleanup can never mask the run's primary failure.
type Workspace struct {
	root   string
	logger *slog.Logger

	mu       sync.Mutex
	tracked  []string
	released bool
}

// Acquire creates a fresh workspace directory under base.
// An empty base uses the system temp dir.
func Acquire(base string, logger *slog.Logger) (*Workspace, error) {
	if base != "" {
		if err := os.MkdirAll(base, 0o755); err != nil {
			return nil, fmt.Errorf("workspace base %s: %w", base, err)
		}
	}

	root, err := os.MkdirTemp(base, "sparql-bench-*")
	if err != nil {
		return nil, fmt.Errorf("acquire workspace: %w", err)
	}

	logger.Info("workspace_acquired", "root", root)

	return &Workspace{
		root:   root,
		logger: logger,
	}, nil
}

// Root returns the workspace directory.
func (w *Workspace) Root() string { return w.root }

// Path joins elem onto the workspace root.
func (w *Workspace) Path(elem ...string) string {
	return filepath.Join(append([]string{w.root}, elem...)...)
}

// Track registers a path outside the root for removal at release.
// Paths inside the root are removed with it and need no tracking.
func (w *Workspace) Track(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.tracked = append(w.tracked, path)
}

// MkdirAll creates a directory inside the workspace and returns it.
func (w *Workspace) MkdirAll(elem ...string) (string, error) {
	p := w.Path(elem...)
	if err := os.MkdirAll(p, 0o755); err != nil {
		return "", fmt.Errorf("workspace mkdir %s: %w", p, err)
	}
	return p, nil
}

// WriteFile writes a file inside the workspace and returns its path.
func (w *Workspace) WriteFile(name string, data []byte) (string, error) {
	p := w.Path(name)
	if err := os.WriteFile(p, data, 0o644); err != nil {
		return "", fmt.Errorf("workspace write %s: %w", p, err)
	}
	return p, nil
}

// Release removes all tracked paths and then the workspace root.
// Safe to call more than once; later calls are no-ops. Returns the
// number of paths that could not be removed.
func (w *Workspace) Release() int {
	w.mu.Lock()
	if w.released {
		w.mu.Unlock()
		return 0
	}
	w.released = true
	tracked := append([]string(nil), w.tracked...)
	w.mu.Unlock()

	// Deepest paths first so nested tracked entries vanish before
	// their parents.
	sort.Slice(tracked, func(i, j int) bool {
		return len(tracked[i]) > len(tracked[j])
	})

	failed := 0
	for _, p := range tracked {
		if err := os.RemoveAll(p); err != nil {
			failed++
			w.logger.Warn("workspace_cleanup_failed", "path", p, "error", err)
		}
	}

	if err := os.RemoveAll(w.root); err != nil {
		failed++
		w.logger.Warn("workspace_cleanup_failed", "path", w.root, "error", err)
	} else {
		w.logger.Info("workspace_released", "root", w.root, "failed_paths", failed)
	}

	return failed
}

// Released reports whether Release has run.
func (w *Workspace) Released() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.released
}
