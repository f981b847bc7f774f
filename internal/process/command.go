package process

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"syscall"
	"time"
)

// StderrTailLines is the number of trailing stderr lines kept in an
// ExternalFailure for the run report.
const StderrTailLines = 20

// commandKillGrace is how long a cancelled command gets between
// SIGTERM and SIGKILL.
const commandKillGrace = 5 * time.Second

// Spec describes one external command invocation.
type Spec struct {
	// Name is a short label used in logs and errors ("generate",
	// "tdb2.tdbloader", "testdriver explore").
	Name string

	// Path is the binary to run, absolute or resolved via PATH.
	Path string

	Args []string

	// Env entries are appended to the inherited environment.
	Env []string

	// Dir is the working directory. Empty means the parent's.
	Dir string

	// Timeout bounds the command's runtime. Zero means unlimited.
	// On expiry the command's process group is terminated the same
	// way the server is (SIGTERM, then SIGKILL).
	Timeout time.Duration
}

// String renders the invocation roughly as a shell would see it.
func (s Spec) String() string {
	parts := append([]string{s.Path}, s.Args...)
	return strings.Join(parts, " ")
}

// Command builds the exec.Cmd for the spec. Env entries are appended
// to the inherited environment.
func (s Spec) Command() *exec.Cmd {
	cmd := exec.Command(s.Path, s.Args...)
	cmd.Dir = s.Dir
	if len(s.Env) > 0 {
		cmd.Env = append(os.Environ(), s.Env...)
	}
	return cmd
}

// Result captures the outcome of a finished command.
type Result struct {
	Name     string
	ExitCode int
	Stdout   string
	Stderr   string
	Elapsed  time.Duration
}

// ExternalFailure classifies a non-zero exit from an external tool.
// The tool's output is not interpreted beyond the exit code; the
// stderr tail is carried for the report only.
type ExternalFailure struct {
	Name       string
	ExitCode   int
	StderrTail string
}

func (e *ExternalFailure) Error() string {
	if e.StderrTail == "" {
		return fmt.Sprintf("%s exited with code %d", e.Name, e.ExitCode)
	}
	return fmt.Sprintf("%s exited with code %d: %s", e.Name, e.ExitCode, e.StderrTail)
}

// Run executes the spec to completion, capturing both streams.
// A spawn failure surfaces as *SpawnError, a non-zero exit as
// *ExternalFailure. Context cancellation or timeout expiry kills the
// command's process group; in-flight commands are never killed for
// any other reason.
func Run(ctx context.Context, spec Spec, logger *slog.Logger) (*Result, error) {
	if spec.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, spec.Timeout)
		defer cancel()
	}

	cmd := spec.Command()

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	logger.Info("command_starting",
		"name", spec.Name,
		"path", spec.Path,
		"args", strings.Join(spec.Args, " "),
	)

	start := time.Now()
	handle, err := Start(spec.Name, cmd, logger)
	if err != nil {
		return nil, err
	}

	watchDone := make(chan struct{})
	go func() {
		defer close(watchDone)
		select {
		case <-ctx.Done():
			handle.Terminate(syscall.SIGTERM, commandKillGrace)
		case <-handle.Done():
		}
	}()

	exitCode := handle.Wait()
	<-watchDone
	elapsed := time.Since(start)

	result := &Result{
		Name:     spec.Name,
		ExitCode: exitCode,
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Elapsed:  elapsed,
	}

	if ctx.Err() != nil {
		logger.Warn("command_cancelled",
			"name", spec.Name,
			"elapsed", elapsed.String(),
			"reason", ctx.Err().Error(),
		)
		return result, ctx.Err()
	}

	if exitCode != 0 {
		logger.Warn("command_failed",
			"name", spec.Name,
			"exit_code", exitCode,
			"elapsed", elapsed.String(),
		)
		return result, &ExternalFailure{
			Name:       spec.Name,
			ExitCode:   exitCode,
			StderrTail: tail(stderr.String(), StderrTailLines),
		}
	}

	logger.Info("command_finished",
		"name", spec.Name,
		"elapsed", elapsed.String(),
	)
	return result, nil
}

// tail returns the last n non-empty lines of s, joined by "; ".
func tail(s string, n int) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	kept := make([]string, 0, n)
	for i := len(lines) - 1; i >= 0 && len(kept) < n; i-- {
		line := strings.TrimSpace(lines[i])
		if line != "" {
			kept = append(kept, line)
		}
	}
	for i, j := 0, len(kept)-1; i < j; i, j = i+1, j-1 {
		kept[i], kept[j] = kept[j], kept[i]
	}
	return strings.Join(kept, "; ")
}
