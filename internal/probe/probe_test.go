package probe

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestTCPTarget_Check(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			conn.Close()
		}
	}()

	target := TCPTarget{Addr: ln.Addr().String()}
	if err := target.Check(context.Background()); err != nil {
		t.Errorf("Check against live listener: %v", err)
	}

	ln.Close()
	if err := target.Check(context.Background()); err == nil {
		t.Error("Check against closed listener succeeded")
	}
}

func TestTCPTarget_String(t *testing.T) {
	target := TCPTarget{Addr: "localhost:1111"}
	if got := target.String(); got != "tcp://localhost:1111" {
		t.Errorf("String() = %q", got)
	}
}

func TestHTTPTarget_Check(t *testing.T) {
	testCases := []struct {
		name    string
		status  int
		wantErr bool
	}{
		{"200 ok", http.StatusOK, false},
		{"204 no content", http.StatusNoContent, false},
		{"404", http.StatusNotFound, true},
		{"503", http.StatusServiceUnavailable, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
			}))
			defer srv.Close()

			target := HTTPTarget{URL: srv.URL}
			err := target.Check(context.Background())
			if tc.wantErr && err == nil {
				t.Error("expected error")
			}
			if !tc.wantErr && err != nil {
				t.Errorf("Check: %v", err)
			}
		})
	}
}

func TestWaitReady_ImmediateSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	err := WaitReady(context.Background(), HTTPTarget{URL: srv.URL},
		10*time.Millisecond, time.Second, testLogger())
	if err != nil {
		t.Errorf("WaitReady: %v", err)
	}
}

func TestWaitReady_EventualSuccess(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	err := WaitReady(context.Background(), HTTPTarget{URL: srv.URL},
		10*time.Millisecond, 5*time.Second, testLogger())
	if err != nil {
		t.Errorf("WaitReady: %v", err)
	}
	if calls.Load() < 3 {
		t.Errorf("probe gave up after %d attempts", calls.Load())
	}
}

func TestWaitReady_Timeout(t *testing.T) {
	// Reserve a port with no listener behind it.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	ln.Close()

	err = WaitReady(context.Background(), TCPTarget{Addr: addr},
		20*time.Millisecond, 150*time.Millisecond, testLogger())

	var timeoutErr *TimeoutError
	if !errors.As(err, &timeoutErr) {
		t.Fatalf("error type = %T (%v), want *TimeoutError", err, err)
	}
	if timeoutErr.Attempts < 1 {
		t.Errorf("Attempts = %d", timeoutErr.Attempts)
	}
	if timeoutErr.Target != "tcp://"+addr {
		t.Errorf("Target = %q", timeoutErr.Target)
	}
}

func TestWaitReady_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	err := WaitReady(ctx, TCPTarget{Addr: "127.0.0.1:1"},
		20*time.Millisecond, 30*time.Second, testLogger())
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want Canceled", err)
	}
}

func TestTimeoutError_Error(t *testing.T) {
	e := &TimeoutError{Target: "tcp://localhost:1111", Deadline: time.Minute, Attempts: 120}
	msg := e.Error()
	for _, want := range []string{"tcp://localhost:1111", "1m", "120"} {
		if !strings.Contains(msg, want) {
			t.Errorf("Error() = %q missing %q", msg, want)
		}
	}
}
