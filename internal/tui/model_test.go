package tui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Anhod/sparql-bench/internal/metrics"
	"github.com/Anhod/sparql-bench/internal/orchestrator"
	"github.com/Anhod/sparql-bench/internal/workload"
)

// staticSource returns a fixed snapshot.
type staticSource struct {
	progress orchestrator.Progress
}

func (s staticSource) Progress() orchestrator.Progress { return s.progress }

func testProgress() orchestrator.Progress {
	return orchestrator.Progress{
		Store:       "jena",
		DatasetSize: 1000,
		Parallelism: 4,
		Phase:       orchestrator.PhaseWorkloadsRunning,
		Elapsed:     90 * time.Second,
		ServerPID:   4242,
		Workloads: []orchestrator.WorkloadRow{
			{Name: "explore", Status: workload.StatusSucceeded, Elapsed: time.Minute},
			{Name: "exploreAndUpdate", Requires: "explore", Status: workload.StatusRunning, Elapsed: 10 * time.Second},
			{Name: "businessIntelligence", Requires: "exploreAndUpdate", Status: workload.StatusPending},
		},
		StoreMetrics: &metrics.StoreMetrics{
			RequestsTotal: 12345,
			RequestRate:   420.5,
			RateP50:       400,
			RateMax:       510,
			WindowSeconds: 60,
			Healthy:       true,
		},
	}
}

func TestModel_QuitKeys(t *testing.T) {
	for _, key := range []string{"q", "ctrl+c", "esc"} {
		m := New(Config{})
		updated, cmd := m.Update(keyMsg(key))
		if cmd == nil {
			t.Errorf("key %q did not produce a command", key)
		}
		if updated.(Model).View() != "" {
			t.Errorf("key %q did not blank the view", key)
		}
	}
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
}

func TestModel_TickFetchesProgress(t *testing.T) {
	m := New(Config{Source: staticSource{progress: testProgress()}})

	updated, cmd := m.Update(TickMsg(time.Now()))
	if cmd == nil {
		t.Error("tick did not schedule the next tick")
	}

	view := updated.(Model).View()
	for _, want := range []string{"jena", "explore", "exploreAndUpdate", "pid 4242"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestModel_WindowResize(t *testing.T) {
	m := New(Config{})
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	if updated.(Model).width != 120 {
		t.Errorf("width = %d", updated.(Model).width)
	}
}

func TestView_StoreMetricsSection(t *testing.T) {
	m := New(Config{Source: staticSource{progress: testProgress()}})
	updated, _ := m.Update(TickMsg(time.Now()))

	view := updated.(Model).View()
	if !strings.Contains(view, "Store Metrics") {
		t.Error("store metrics section missing")
	}
}

func TestView_NoMetricsForVirtuoso(t *testing.T) {
	p := testProgress()
	p.StoreMetrics = nil
	m := New(Config{Source: staticSource{progress: p}})
	updated, _ := m.Update(TickMsg(time.Now()))

	view := updated.(Model).View()
	if strings.Contains(view, "Store Metrics") {
		t.Error("store metrics section rendered without a scraper")
	}
}

func TestPhaseFraction(t *testing.T) {
	if got := phaseFraction(orchestrator.PhaseInit); got != 0 {
		t.Errorf("init fraction = %v", got)
	}
	if got := phaseFraction(orchestrator.PhaseDone); got != 1 {
		t.Errorf("done fraction = %v", got)
	}
	mid := phaseFraction(orchestrator.PhaseServerReady)
	if mid <= 0 || mid >= 1 {
		t.Errorf("server_ready fraction = %v", mid)
	}
	if got := phaseFraction(orchestrator.PhaseAborted); got != 0 {
		t.Errorf("aborted fraction = %v, aborted is off the happy path", got)
	}
}

func TestFormatDuration(t *testing.T) {
	testCases := []struct {
		input    time.Duration
		expected string
	}{
		{0, "00:00:00"},
		{61 * time.Second, "00:01:01"},
		{time.Hour + time.Minute, "01:01:00"},
	}

	for _, tc := range testCases {
		if got := formatDuration(tc.input); got != tc.expected {
			t.Errorf("formatDuration(%v) = %q, want %q", tc.input, got, tc.expected)
		}
	}
}

func TestFormatRate(t *testing.T) {
	testCases := []struct {
		input    float64
		expected string
	}{
		{0.25, "0.25/s"},
		{42, "42.0/s"},
		{1500, "1.5K/s"},
	}

	for _, tc := range testCases {
		if got := formatRate(tc.input); got != tc.expected {
			t.Errorf("formatRate(%v) = %q, want %q", tc.input, got, tc.expected)
		}
	}
}

func TestRenderProgressBar(t *testing.T) {
	bar := RenderProgressBar(0.5, 20)
	if !strings.Contains(bar, "50%") {
		t.Errorf("bar missing percent: %q", bar)
	}

	// Clamped inputs must not panic or overflow.
	RenderProgressBar(-1, 20)
	RenderProgressBar(2, 20)
	RenderProgressBar(0.5, 1)
}
