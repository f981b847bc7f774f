// Package probe implements bounded readiness polling for the store
// server. A fixed sleep is either too short (flaky runs) or too long
// (wasted time); polling with a deadline is neither.
package probe

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"
)

// TimeoutError indicates the target never became ready within the
// deadline. The orchestrator aborts the run on this error.
type TimeoutError struct {
	Target   string
	Deadline time.Duration
	Attempts int
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("readiness probe %s: not ready after %s (%d attempts)", e.Target, e.Deadline, e.Attempts)
}

// Target is one readiness check. Check returns nil once the target is
// reachable.
type Target interface {
	// Check performs a single probe attempt.
	Check(ctx context.Context) error

	// String describes the target for logs and errors.
	String() string
}

// TCPTarget is ready when a TCP connection to Addr succeeds.
// Used for Virtuoso, whose SQL port opens once the server is up.
type TCPTarget struct {
	Addr string
}

func (t TCPTarget) Check(ctx context.Context) error {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", t.Addr)
	if err != nil {
		return err
	}
	return conn.Close()
}

func (t TCPTarget) String() string {
	return "tcp://" + t.Addr
}

// HTTPTarget is ready when a GET returns a 2xx status.
// Used for Fuseki's ping endpoint.
type HTTPTarget struct {
	URL    string
	Client *http.Client
}

func (t HTTPTarget) Check(ctx context.Context) error {
	client := t.Client
	if client == nil {
		client = &http.Client{Timeout: 2 * time.Second}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.URL, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	return nil
}

func (t HTTPTarget) String() string {
	return t.URL
}

// WaitReady polls target every interval until it is ready, the
// deadline elapses, or ctx is cancelled. No retries happen beyond the
// deadline; a *TimeoutError is terminal.
func WaitReady(ctx context.Context, target Target, interval, deadline time.Duration, logger *slog.Logger) error {
	ctx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	logger.Info("probe_waiting",
		"target", target.String(),
		"interval", interval.String(),
		"deadline", deadline.String(),
	)

	start := time.Now()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	attempts := 0
	for {
		attempts++
		err := target.Check(ctx)
		if err == nil {
			logger.Info("probe_ready",
				"target", target.String(),
				"attempts", attempts,
				"elapsed", time.Since(start).String(),
			)
			return nil
		}

		logger.Debug("probe_attempt_failed",
			"target", target.String(),
			"attempt", attempts,
			"error", err,
		)

		select {
		case <-ctx.Done():
			if ctx.Err() == context.DeadlineExceeded {
				return &TimeoutError{
					Target:   target.String(),
					Deadline: deadline,
					Attempts: attempts,
				}
			}
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
