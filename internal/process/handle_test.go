package process

import (
	"errors"
	"io"
	"log/slog"
	"os/exec"
	"syscall"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestStart_SpawnError(t *testing.T) {
	cmd := exec.Command("/nonexistent/binary/for/sure")
	_, err := Start("missing", cmd, testLogger())
	if err == nil {
		t.Fatal("expected spawn error")
	}

	var spawnErr *SpawnError
	if !errors.As(err, &spawnErr) {
		t.Fatalf("error type = %T, want *SpawnError", err)
	}
	if spawnErr.Name != "missing" {
		t.Errorf("Name = %q", spawnErr.Name)
	}
}

func TestHandle_WaitExitCode(t *testing.T) {
	testCases := []struct {
		name     string
		args     []string
		expected int
	}{
		{"zero exit", []string{"-c", "exit 0"}, 0},
		{"nonzero exit", []string{"-c", "exit 7"}, 7},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cmd := exec.Command("/bin/sh", tc.args...)
			h, err := Start(tc.name, cmd, testLogger())
			if err != nil {
				t.Fatalf("Start: %v", err)
			}
			if code := h.Wait(); code != tc.expected {
				t.Errorf("Wait() = %d, want %d", code, tc.expected)
			}
			if h.IsAlive() {
				t.Error("IsAlive() = true after Wait")
			}
		})
	}
}

func TestHandle_IsAlive(t *testing.T) {
	cmd := exec.Command("/bin/sh", "-c", "sleep 10")
	h, err := Start("sleeper", cmd, testLogger())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer h.Terminate(syscall.SIGKILL, time.Second)

	if !h.IsAlive() {
		t.Error("IsAlive() = false for a running process")
	}
	if h.PID() <= 0 {
		t.Errorf("PID() = %d", h.PID())
	}
	if h.Name() != "sleeper" {
		t.Errorf("Name() = %q", h.Name())
	}
}

func TestHandle_TerminateGraceful(t *testing.T) {
	// sh exits on SIGTERM by default.
	cmd := exec.Command("/bin/sh", "-c", "sleep 60")
	h, err := Start("graceful", cmd, testLogger())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	if err := h.Terminate(syscall.SIGTERM, 5*time.Second); err != nil {
		t.Errorf("Terminate returned %v, want nil", err)
	}
	if h.IsAlive() {
		t.Error("process still alive after Terminate")
	}
}

func TestHandle_TerminateEscalatesToKill(t *testing.T) {
	// Trap SIGTERM so only SIGKILL can stop it.
	cmd := exec.Command("/bin/sh", "-c", "trap '' TERM; sleep 60 & wait")
	h, err := Start("stubborn", cmd, testLogger())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	// Give the shell a moment to install the trap.
	time.Sleep(100 * time.Millisecond)

	err = h.Terminate(syscall.SIGTERM, 200*time.Millisecond)
	if !errors.Is(err, ErrForcedKill) {
		t.Errorf("Terminate returned %v, want ErrForcedKill", err)
	}
	if h.IsAlive() {
		t.Error("process still alive after forced kill")
	}
}

func TestHandle_TerminateAfterExit(t *testing.T) {
	cmd := exec.Command("/bin/sh", "-c", "exit 0")
	h, err := Start("quick", cmd, testLogger())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	h.Wait()

	if err := h.Terminate(syscall.SIGTERM, time.Second); err != nil {
		t.Errorf("Terminate on exited process returned %v", err)
	}
}

func TestHandle_SignalExitCode(t *testing.T) {
	cmd := exec.Command("/bin/sh", "-c", "sleep 60")
	h, err := Start("killed", cmd, testLogger())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	h.Terminate(syscall.SIGKILL, time.Second)
	if code := h.Wait(); code != 128+int(syscall.SIGKILL) {
		t.Errorf("Wait() = %d, want %d", code, 128+int(syscall.SIGKILL))
	}
}

func TestHandle_Done(t *testing.T) {
	cmd := exec.Command("/bin/sh", "-c", "exit 0")
	h, err := Start("done", cmd, testLogger())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	select {
	case <-h.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("Done() not closed after exit")
	}
}

func TestExitCode(t *testing.T) {
	if got := ExitCode(nil); got != 0 {
		t.Errorf("ExitCode(nil) = %d", got)
	}
	if got := ExitCode(errors.New("not an exit error")); got != 1 {
		t.Errorf("ExitCode(generic) = %d, want 1", got)
	}
}
