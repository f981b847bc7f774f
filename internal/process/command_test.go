package process

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestSpec_String(t *testing.T) {
	s := Spec{
		Name: "generate",
		Path: "/tools/generate",
		Args: []string{"-fc", "-pc", "1000"},
	}
	if got := s.String(); got != "/tools/generate -fc -pc 1000" {
		t.Errorf("String() = %q", got)
	}
}

func TestRun_Success(t *testing.T) {
	spec := Spec{
		Name: "echo",
		Path: "/bin/sh",
		Args: []string{"-c", "echo out; echo err >&2"},
	}

	result, err := Run(context.Background(), spec, testLogger())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.ExitCode != 0 {
		t.Errorf("ExitCode = %d", result.ExitCode)
	}
	if !strings.Contains(result.Stdout, "out") {
		t.Errorf("Stdout = %q", result.Stdout)
	}
	if !strings.Contains(result.Stderr, "err") {
		t.Errorf("Stderr = %q", result.Stderr)
	}
	if result.Elapsed <= 0 {
		t.Errorf("Elapsed = %v", result.Elapsed)
	}
}

func TestRun_Failure(t *testing.T) {
	spec := Spec{
		Name: "fail",
		Path: "/bin/sh",
		Args: []string{"-c", "echo first problem >&2; echo second problem >&2; exit 3"},
	}

	result, err := Run(context.Background(), spec, testLogger())
	if err == nil {
		t.Fatal("expected failure")
	}

	var failure *ExternalFailure
	if !errors.As(err, &failure) {
		t.Fatalf("error type = %T, want *ExternalFailure", err)
	}
	if failure.Name != "fail" {
		t.Errorf("Name = %q", failure.Name)
	}
	if failure.ExitCode != 3 {
		t.Errorf("ExitCode = %d", failure.ExitCode)
	}
	if !strings.Contains(failure.StderrTail, "second problem") {
		t.Errorf("StderrTail = %q", failure.StderrTail)
	}
	if result == nil || result.ExitCode != 3 {
		t.Errorf("result = %+v", result)
	}
}

func TestRun_SpawnFailure(t *testing.T) {
	spec := Spec{Name: "missing", Path: "/no/such/binary"}

	_, err := Run(context.Background(), spec, testLogger())
	var spawnErr *SpawnError
	if !errors.As(err, &spawnErr) {
		t.Fatalf("error type = %T, want *SpawnError", err)
	}
}

func TestRun_Env(t *testing.T) {
	spec := Spec{
		Name: "env",
		Path: "/bin/sh",
		Args: []string{"-c", "echo $BENCH_TEST_VAR"},
		Env:  []string{"BENCH_TEST_VAR=hello"},
	}

	result, err := Run(context.Background(), spec, testLogger())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if strings.TrimSpace(result.Stdout) != "hello" {
		t.Errorf("Stdout = %q", result.Stdout)
	}
}

func TestRun_Dir(t *testing.T) {
	dir := t.TempDir()
	spec := Spec{
		Name: "pwd",
		Path: "/bin/sh",
		Args: []string{"-c", "pwd"},
		Dir:  dir,
	}

	result, err := Run(context.Background(), spec, testLogger())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if strings.TrimSpace(result.Stdout) != dir {
		t.Errorf("pwd = %q, want %q", result.Stdout, dir)
	}
}

func TestRun_Timeout(t *testing.T) {
	spec := Spec{
		Name:    "slow",
		Path:    "/bin/sh",
		Args:    []string{"-c", "sleep 30"},
		Timeout: 100 * time.Millisecond,
	}

	start := time.Now()
	_, err := Run(context.Background(), spec, testLogger())
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("error = %v, want DeadlineExceeded", err)
	}
	if elapsed := time.Since(start); elapsed > 10*time.Second {
		t.Errorf("Run took %v, command was not killed", elapsed)
	}
}

func TestRun_Cancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()

	spec := Spec{
		Name: "cancelled",
		Path: "/bin/sh",
		Args: []string{"-c", "sleep 30"},
	}

	_, err := Run(ctx, spec, testLogger())
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want Canceled", err)
	}
}

func TestExternalFailure_Error(t *testing.T) {
	testCases := []struct {
		name     string
		failure  ExternalFailure
		expected string
	}{
		{
			"no tail",
			ExternalFailure{Name: "loader", ExitCode: 2},
			"loader exited with code 2",
		},
		{
			"with tail",
			ExternalFailure{Name: "loader", ExitCode: 2, StderrTail: "disk full"},
			"loader exited with code 2: disk full",
		},
	}

	for _, tc := range testCases {
		if got := tc.failure.Error(); got != tc.expected {
			t.Errorf("%s: Error() = %q, want %q", tc.name, got, tc.expected)
		}
	}
}

func TestTail(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		n        int
		expected string
	}{
		{"empty", "", 3, ""},
		{"single", "one\n", 3, "one"},
		{"keeps last n", "a\nb\nc\nd\n", 2, "c; d"},
		{"skips blanks", "a\n\n  \nb\n", 3, "a; b"},
		{"trims whitespace", "  padded  \n", 3, "padded"},
	}

	for _, tc := range testCases {
		if got := tail(tc.input, tc.n); got != tc.expected {
			t.Errorf("%s: tail(%q, %d) = %q, want %q", tc.name, tc.input, tc.n, got, tc.expected)
		}
	}
}
