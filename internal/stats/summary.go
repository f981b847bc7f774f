// Package stats formats the run report printed at exit.
package stats

import (
	"fmt"
	"strings"
	"time"
)

// PhaseTiming is the wall time of one completed run phase.
type PhaseTiming struct {
	Name    string
	Elapsed time.Duration
}

// WorkloadResult is one workload's outcome for the report.
type WorkloadResult struct {
	Name         string
	Status       string
	Elapsed      time.Duration
	ArtifactPath string

	// QMpH is the driver-reported query mixes per hour, parsed from
	// the artifact. Zero when unknown.
	QMpH float64

	// QueryMixRuns is the driver-reported mix count. Zero when
	// unknown.
	QueryMixRuns int

	// Error is the failure description, if any.
	Error string
}

// Summary holds everything the exit report displays.
type Summary struct {
	Store       string
	DatasetSize int
	Parallelism int
	Duration    time.Duration
	HostLine    string
	MetricsAddr string

	Phases    []PhaseTiming
	Workloads []WorkloadResult

	// FatalClass and FatalError describe the first fatal error, if
	// the run aborted.
	FatalClass string
	FatalError string

	// ServerTail is the store's most recent output, shown only for
	// aborted runs.
	ServerTail []string

	// CleanupFailures counts workspace paths that survived release.
	CleanupFailures int
}

// FormatExitSummary renders the end-of-run report.
func FormatExitSummary(s Summary) string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString("═══════════════════════════════════════════════════════════════════════════════\n")
	b.WriteString("                           sparql-bench Run Summary\n")
	b.WriteString("═══════════════════════════════════════════════════════════════════════════════\n\n")

	fmt.Fprintf(&b, "Store:                  %s\n", s.Store)
	fmt.Fprintf(&b, "Dataset Size:           %d products\n", s.DatasetSize)
	fmt.Fprintf(&b, "Parallelism:            %d\n", s.Parallelism)
	fmt.Fprintf(&b, "Run Duration:           %s\n", FormatDuration(s.Duration))
	if s.HostLine != "" {
		fmt.Fprintf(&b, "Host:                   %s\n", s.HostLine)
	}
	b.WriteString("\n")

	if s.FatalError != "" {
		fmt.Fprintf(&b, "✗ RUN ABORTED (%s)\n", s.FatalClass)
		fmt.Fprintf(&b, "    %s\n", s.FatalError)
		if len(s.ServerTail) > 0 {
			b.WriteString("\n    Recent server output:\n")
			for _, line := range s.ServerTail {
				fmt.Fprintf(&b, "      %s\n", line)
			}
		}
		b.WriteString("\n")
	}

	if len(s.Phases) > 0 {
		b.WriteString("───────────────────────────────────────────────────────────────────────────────\n")
		b.WriteString("                                Phase Timings\n")
		b.WriteString("───────────────────────────────────────────────────────────────────────────────\n\n")
		for _, p := range s.Phases {
			fmt.Fprintf(&b, "  %-24s %s\n", p.Name, FormatDuration(p.Elapsed))
		}
		b.WriteString("\n")
	}

	if len(s.Workloads) > 0 {
		b.WriteString("───────────────────────────────────────────────────────────────────────────────\n")
		b.WriteString("                                  Workloads\n")
		b.WriteString("───────────────────────────────────────────────────────────────────────────────\n\n")
		fmt.Fprintf(&b, "  %-24s %-10s %10s %12s  %s\n", "Workload", "Status", "Elapsed", "QMpH", "Artifact")
		for _, w := range s.Workloads {
			qmph := "-"
			if w.QMpH > 0 {
				qmph = fmt.Sprintf("%.1f", w.QMpH)
			}
			artifact := w.ArtifactPath
			if artifact == "" {
				artifact = "-"
			}
			fmt.Fprintf(&b, "  %-24s %-10s %10s %12s  %s\n",
				w.Name,
				statusGlyph(w.Status)+" "+w.Status,
				FormatDuration(w.Elapsed),
				qmph,
				artifact,
			)
			if w.Error != "" {
				fmt.Fprintf(&b, "      %s\n", w.Error)
			}
		}
		b.WriteString("\n")
	}

	if s.CleanupFailures > 0 {
		fmt.Fprintf(&b, "⚠ %d workspace path(s) could not be removed (see log)\n\n", s.CleanupFailures)
	}

	if s.MetricsAddr != "" {
		fmt.Fprintf(&b, "Metrics endpoint was: http://%s/metrics\n", s.MetricsAddr)
	}
	b.WriteString("═══════════════════════════════════════════════════════════════════════════════\n")

	return b.String()
}

func statusGlyph(status string) string {
	switch status {
	case "succeeded":
		return "✓"
	case "failed":
		return "✗"
	case "skipped":
		return "→"
	default:
		return "·"
	}
}

// FormatDuration formats a duration as HH:MM:SS, or sub-second
// durations with millisecond precision.
func FormatDuration(d time.Duration) string {
	if d <= 0 {
		return "00:00:00"
	}
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	sec := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, sec)
}

// FormatNumber adds thousands separators for display.
func FormatNumber(n int64) string {
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}
	var parts []string
	for len(s) > 3 {
		parts = append([]string{s[len(s)-3:]}, parts...)
		s = s[:len(s)-3]
	}
	parts = append([]string{s}, parts...)
	return strings.Join(parts, ",")
}
