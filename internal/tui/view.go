package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Anhod/sparql-bench/internal/orchestrator"
	"github.com/Anhod/sparql-bench/internal/workload"
)

// =============================================================================
// Main View Rendering
// =============================================================================

func (m Model) render() string {
	var sections []string

	sections = append(sections, m.renderHeader())
	sections = append(sections, m.renderPhase())

	if len(m.progress.Workloads) > 0 {
		sections = append(sections, m.renderWorkloads())
	}

	if m.progress.StoreMetrics != nil {
		sections = append(sections, m.renderStoreMetrics())
	}

	sections = append(sections, m.renderFooter())

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// =============================================================================
// Header
// =============================================================================

func (m Model) renderHeader() string {
	p := m.progress

	server := "server: down"
	if p.ServerPID > 0 {
		server = fmt.Sprintf("server: pid %d", p.ServerPID)
	}

	header := fmt.Sprintf(
		" sparql-bench │ %s (%d products, -mt %d) │ %s │ Elapsed: %s ",
		p.Store,
		p.DatasetSize,
		p.Parallelism,
		server,
		formatDuration(p.Elapsed),
	)

	return headerStyle.Width(m.width).Render(header)
}

// =============================================================================
// Phase Section
// =============================================================================

// phaseOrder lists the happy-path phases in execution order, used to
// place the current phase on the progress bar.
var phaseOrder = []orchestrator.Phase{
	orchestrator.PhaseInit,
	orchestrator.PhaseWorkspaceReady,
	orchestrator.PhaseDataPrepared,
	orchestrator.PhaseServerStarting,
	orchestrator.PhaseServerReady,
	orchestrator.PhaseWorkloadsRunning,
	orchestrator.PhaseFinalizing,
	orchestrator.PhaseDone,
}

func phaseFraction(p orchestrator.Phase) float64 {
	for i, ph := range phaseOrder {
		if ph == p {
			return float64(i) / float64(len(phaseOrder)-1)
		}
	}
	return 0
}

func (m Model) renderPhase() string {
	p := m.progress

	barWidth := m.width - 30
	if barWidth < 20 {
		barWidth = 20
	}
	bar := RenderProgressBar(phaseFraction(p.Phase), barWidth)

	var status string
	switch p.Phase {
	case orchestrator.PhaseDone:
		status = statusOK.Render("✓ Run complete")
	case orchestrator.PhaseAborted:
		status = statusError.Render("✗ Run aborted")
	default:
		status = statusInfo.Render("Phase: " + p.Phase.String())
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		sectionHeaderStyle.Render("Run Progress"),
		bar,
		status,
	)

	return boxStyle.Width(m.width - 2).Render(content)
}

// =============================================================================
// Workload Table
// =============================================================================

func (m Model) renderWorkloads() string {
	rows := make([]string, 0, len(m.progress.Workloads))
	for _, w := range m.progress.Workloads {
		rows = append(rows, renderWorkloadRow(w))
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		append([]string{sectionHeaderStyle.Render("Workloads")}, rows...)...,
	)

	return boxStyle.Width(m.width - 2).Render(content)
}

func renderWorkloadRow(w orchestrator.WorkloadRow) string {
	var glyph string
	switch w.Status {
	case workload.StatusSucceeded:
		glyph = statusOK.Render("✓")
	case workload.StatusFailed:
		glyph = statusError.Render("✗")
	case workload.StatusRunning:
		glyph = statusInfo.Render("→")
	case workload.StatusSkipped:
		glyph = statusWarning.Render("-")
	default:
		glyph = dimStyle.Render("·")
	}

	elapsed := ""
	if w.Elapsed > 0 {
		elapsed = formatDuration(w.Elapsed)
	}

	name := w.Name
	if w.Requires != "" {
		name += dimStyle.Render(" (after " + w.Requires + ")")
	}

	return lipgloss.JoinHorizontal(lipgloss.Left,
		glyph, " ",
		labelStyle.Render(name),
		mutedStyle.Width(10).Render(w.Status.String()),
		valueStyle.Render(elapsed),
	)
}

// =============================================================================
// Store Metrics
// =============================================================================

func (m Model) renderStoreMetrics() string {
	sm := m.progress.StoreMetrics

	var rows []string
	if !sm.Healthy {
		msg := "exporter unreachable"
		if sm.Error != "" {
			msg = sm.Error
		}
		rows = append(rows, statusWarning.Render("● "+msg))
	} else {
		rows = append(rows,
			RenderKeyValue("Requests", formatCount(sm.RequestsTotal)),
			RenderKeyValue("Request rate", formatRate(sm.RequestRate)),
			RenderKeyValue("Rate p50",
				formatRate(sm.RateP50)+dimStyle.Render(
					fmt.Sprintf("  (max %s, %ds window)", formatRate(sm.RateMax), sm.WindowSeconds))),
		)
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		append([]string{sectionHeaderStyle.Render("Store Metrics")}, rows...)...,
	)

	return boxStyle.Width(m.width - 2).Render(content)
}

// =============================================================================
// Footer
// =============================================================================

func (m Model) renderFooter() string {
	parts := []string{
		"[q] quit",
		"[r] refresh",
	}
	if m.metricsAddr != "" {
		parts = append(parts, "metrics: "+m.metricsAddr)
	}
	parts = append(parts, "updated "+m.lastUpdate.Format("15:04:05"))

	return footerStyle.Render(strings.Join(parts, "  │  "))
}
