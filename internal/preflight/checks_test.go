package preflight

import (
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// writeExecutable creates a fake binary for LookPath to find.
func writeExecutable(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
		t.Fatalf("setup: %v", err)
	}
	return path
}

func TestCheckToolsDir(t *testing.T) {
	dir := t.TempDir()

	c := checkToolsDir(dir)
	if !c.Passed {
		t.Errorf("existing dir failed: %s", c.Message)
	}

	c = checkToolsDir(filepath.Join(dir, "missing"))
	if c.Passed {
		t.Error("missing dir passed")
	}

	file := writeExecutable(t, dir, "not-a-dir")
	c = checkToolsDir(file)
	if c.Passed {
		t.Error("regular file passed as tools dir")
	}
}

func TestCheckBinary(t *testing.T) {
	dir := t.TempDir()
	path := writeExecutable(t, dir, "testdriver")

	c := checkBinary("testdriver", path)
	if !c.Passed {
		t.Errorf("executable failed: %s", c.Message)
	}
	if c.Message != path {
		t.Errorf("Message = %q, want resolved path %q", c.Message, path)
	}

	c = checkBinary("missing", filepath.Join(dir, "missing"))
	if c.Passed {
		t.Error("missing binary passed")
	}
}

func TestCheckBinary_PATHLookup(t *testing.T) {
	dir := t.TempDir()
	writeExecutable(t, dir, "fuseki-server")
	t.Setenv("PATH", dir)

	// A bare name resolves through PATH.
	c := checkBinary("fuseki-server", "fuseki-server")
	if !c.Passed {
		t.Errorf("PATH lookup failed: %s", c.Message)
	}
}

func TestCheckPortFree(t *testing.T) {
	ln, err := net.Listen("tcp", ":0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()
	port := ln.Addr().(*net.TCPAddr).Port

	c := checkPortFree(port)
	if c.Passed {
		t.Errorf("occupied port %d passed", port)
	}

	ln.Close()
	c = checkPortFree(port)
	if !c.Passed {
		t.Errorf("free port %d failed: %s", port, c.Message)
	}
}

func TestRunAll(t *testing.T) {
	tools := t.TempDir()
	writeExecutable(t, tools, "generate")
	writeExecutable(t, tools, "testdriver")
	storeBin := writeExecutable(t, t.TempDir(), "fuseki-server")

	r := RunAll(Params{
		ToolsDir:      tools,
		StoreBinaries: []string{storeBin},
	})
	if !r.Passed {
		for _, c := range r.Checks {
			t.Logf("%s", c.String())
		}
		t.Fatal("RunAll failed for a valid setup")
	}
	// tools dir + generate + testdriver + store binary + fd limit
	if len(r.Checks) != 5 {
		t.Errorf("RunAll ran %d checks, want 5", len(r.Checks))
	}
}

func TestCheckFDLimit_NeverFails(t *testing.T) {
	c := checkFDLimit()
	if !c.Passed {
		t.Errorf("checkFDLimit() failed: %s", c.Message)
	}
}

func TestRunAll_FailurePropagates(t *testing.T) {
	r := RunAll(Params{ToolsDir: "/definitely/not/here"})
	if r.Passed {
		t.Fatal("RunAll passed with a missing tools dir")
	}
}

func TestCheck_String(t *testing.T) {
	c := Check{Name: "port 3030", Passed: true, Message: "free"}
	if !strings.Contains(c.String(), "✓ port 3030: free") {
		t.Errorf("String() = %q", c.String())
	}

	c = Check{Name: "generate", Passed: false, Message: "not executable"}
	if !strings.Contains(c.String(), "✗") {
		t.Errorf("String() = %q", c.String())
	}
}
