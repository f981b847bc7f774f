// Package process provides abstractions for spawning and stopping
// the external binaries a benchmark run depends on: the dataset
// generator, the store server, the loaders, and the test driver.
package process

import (
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"sync"
	"syscall"
	"time"
)

// SpawnError indicates a process could not be started at all
// (binary missing, not executable, fork failure).
type SpawnError struct {
	Name string
	Err  error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("spawn %s: %v", e.Name, e.Err)
}

func (e *SpawnError) Unwrap() error { return e.Err }

// TerminationError indicates a process did not exit even after a
// forced kill. The run treats this as fatal.
type TerminationError struct {
	Name string
	PID  int
}

func (e *TerminationError) Error() string {
	return fmt.Sprintf("terminate %s (pid %d): process did not exit after SIGKILL", e.Name, e.PID)
}

// Handle owns exactly one running OS process. It is created by Start
// and must be released with Terminate or Wait.
type Handle struct {
	name   string
	cmd    *exec.Cmd
	logger *slog.Logger

	startTime time.Time

	// done is closed when the background Wait completes.
	done     chan struct{}
	waitOnce sync.Once
	waitErr  error

	mu       sync.Mutex
	exited   bool
	exitCode int
}

// Start spawns cmd and returns a Handle owning it. The command's
// stdout/stderr must be wired by the caller before Start. The child is
// placed in its own process group so Terminate can kill the whole tree.
func Start(name string, cmd *exec.Cmd, logger *slog.Logger) (*Handle, error) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setpgid: true,
	}

	if err := cmd.Start(); err != nil {
		return nil, &SpawnError{Name: name, Err: err}
	}

	h := &Handle{
		name:      name,
		cmd:       cmd,
		logger:    logger,
		startTime: time.Now(),
		done:      make(chan struct{}),
	}

	logger.Info("process_started",
		"name", name,
		"pid", cmd.Process.Pid,
	)

	// Reap in the background so IsAlive and Terminate see the exit
	// without the caller having to Wait first.
	go h.reap()

	return h, nil
}

// reap waits for the process and records its exit.
func (h *Handle) reap() {
	h.waitOnce.Do(func() {
		h.waitErr = h.cmd.Wait()

		code := ExitCode(h.waitErr)
		h.mu.Lock()
		h.exited = true
		h.exitCode = code
		h.mu.Unlock()

		h.logger.Info("process_exited",
			"name", h.name,
			"pid", h.cmd.Process.Pid,
			"exit_code", code,
			"uptime", time.Since(h.startTime).String(),
		)
		close(h.done)
	})
}

// PID returns the OS process ID.
func (h *Handle) PID() int {
	return h.cmd.Process.Pid
}

// Name returns the name the process was started under.
func (h *Handle) Name() string { return h.name }

// Uptime returns how long the process has been running (or ran).
func (h *Handle) Uptime() time.Duration {
	return time.Since(h.startTime)
}

// IsAlive reports whether the process is still running.
func (h *Handle) IsAlive() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return !h.exited
}

// Wait blocks until the process exits and returns its exit code.
func (h *Handle) Wait() int {
	<-h.done
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.exitCode
}

// Done returns a channel closed when the process has exited.
func (h *Handle) Done() <-chan struct{} { return h.done }

// ErrForcedKill reports that graceful termination timed out and the
// process had to be killed. The run is still considered cleaned up.
var ErrForcedKill = errors.New("process required SIGKILL")

// killReapTimeout bounds how long Terminate waits for the kernel to
// reap a SIGKILLed process.
const killReapTimeout = 5 * time.Second

// Terminate stops the process: it sends sig to the process group,
// waits up to timeout, then escalates to SIGKILL. Returns
// ErrForcedKill if the escalation was needed, or a TerminationError if
// the process survived even SIGKILL.
func (h *Handle) Terminate(sig syscall.Signal, timeout time.Duration) error {
	h.mu.Lock()
	exited := h.exited
	h.mu.Unlock()
	if exited {
		return nil
	}

	pid := h.cmd.Process.Pid
	h.logger.Info("process_terminating",
		"name", h.name,
		"pid", pid,
		"signal", sig.String(),
		"timeout", timeout.String(),
	)

	h.signalGroup(sig)

	select {
	case <-h.done:
		return nil
	case <-time.After(timeout):
	}

	h.logger.Warn("force_killing_process",
		"name", h.name,
		"pid", pid,
	)
	h.signalGroup(syscall.SIGKILL)

	// SIGKILL cannot be ignored; give the kernel a moment to reap.
	select {
	case <-h.done:
		return ErrForcedKill
	case <-time.After(killReapTimeout):
		return &TerminationError{Name: h.name, PID: pid}
	}
}

// signalGroup signals the whole process group, falling back to the
// single process if the group is gone.
func (h *Handle) signalGroup(sig syscall.Signal) {
	pid := h.cmd.Process.Pid
	if pgid, err := syscall.Getpgid(pid); err == nil {
		syscall.Kill(-pgid, sig)
	} else {
		h.cmd.Process.Signal(sig)
	}
}

// ExitCode extracts the exit code from a Wait() error.
// Signal exits are reported as 128 + signal number.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if status, ok := exitErr.Sys().(syscall.WaitStatus); ok {
			if status.Signaled() {
				return 128 + int(status.Signal())
			}
			return status.ExitStatus()
		}
	}

	return 1
}
