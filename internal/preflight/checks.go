// Package preflight provides startup validation checks.
package preflight

import (
	"fmt"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"
)

// Check represents the result of a single preflight check.
type Check struct {
	Name    string // Name of the check
	Passed  bool   // Whether the check passed
	Warning bool   // True if it's a warning (non-fatal)
	Message string // Additional context
}

// Result holds the results of all preflight checks.
type Result struct {
	Checks []Check
	Passed bool
}

// String returns a human-readable summary of the check.
func (c Check) String() string {
	status := "✓"
	if !c.Passed {
		status = "✗"
	} else if c.Warning {
		status = "⚠"
	}
	return fmt.Sprintf("  %s %s: %s", status, c.Name, c.Message)
}

// Params names the external collaborators a run needs.
type Params struct {
	ToolsDir      string   // bsbm-tools checkout
	StoreBinaries []string // resolved store binary paths or PATH names
	Ports         []int    // ports that must be free before the run
}

// RunAll executes all preflight checks.
func RunAll(p Params) *Result {
	result := &Result{Passed: true}

	add := func(c Check) {
		result.Checks = append(result.Checks, c)
		if !c.Passed {
			result.Passed = false
		}
	}

	add(checkToolsDir(p.ToolsDir))
	add(checkBinary("generate", filepath.Join(p.ToolsDir, "generate")))
	add(checkBinary("testdriver", filepath.Join(p.ToolsDir, "testdriver")))
	for _, bin := range p.StoreBinaries {
		add(checkBinary(filepath.Base(bin), bin))
	}
	for _, port := range p.Ports {
		add(checkPortFree(port))
	}
	add(checkFDLimit())

	return result
}

// PrintResults writes the checks to stdout.
func PrintResults(r *Result) {
	fmt.Println("Preflight checks:")
	for _, c := range r.Checks {
		fmt.Println(c.String())
	}
	if !r.Passed {
		fmt.Println("  Preflight FAILED")
	}
	fmt.Println()
}

// checkToolsDir verifies the bsbm-tools directory exists.
func checkToolsDir(dir string) Check {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return Check{
			Name:    "tools dir",
			Passed:  false,
			Message: fmt.Sprintf("%s is not a directory", dir),
		}
	}
	return Check{
		Name:    "tools dir",
		Passed:  true,
		Message: dir,
	}
}

// checkBinary verifies a binary exists and is executable, via PATH
// when the path has no directory component.
func checkBinary(name, path string) Check {
	lookup := path
	if filepath.Dir(path) == "." {
		lookup = name
	}
	resolved, err := exec.LookPath(lookup)
	if err != nil {
		return Check{
			Name:    name,
			Passed:  false,
			Message: fmt.Sprintf("not executable: %v", err),
		}
	}
	return Check{
		Name:    name,
		Passed:  true,
		Message: resolved,
	}
}

// minOpenFiles covers the store's connections, the test driver's
// client threads, and the harness's own sockets.
const minOpenFiles = 1024

// checkFDLimit warns when the soft RLIMIT_NOFILE is low. Never fails
// the run.
func checkFDLimit() Check {
	var lim syscall.Rlimit
	if err := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &lim); err != nil {
		return Check{
			Name:    "open files",
			Passed:  true,
			Warning: true,
			Message: fmt.Sprintf("could not read limit: %v", err),
		}
	}
	if lim.Cur < minOpenFiles {
		return Check{
			Name:    "open files",
			Passed:  true,
			Warning: true,
			Message: fmt.Sprintf("soft limit %d is below %d", lim.Cur, minOpenFiles),
		}
	}
	return Check{
		Name:    "open files",
		Passed:  true,
		Message: fmt.Sprintf("soft limit %d", lim.Cur),
	}
}

// checkPortFree verifies nothing is already listening on the port a
// spawned server needs.
func checkPortFree(port int) Check {
	name := fmt.Sprintf("port %d", port)
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return Check{
			Name:    name,
			Passed:  false,
			Message: "already in use",
		}
	}
	ln.Close()
	return Check{
		Name:    name,
		Passed:  true,
		Message: "free",
	}
}
