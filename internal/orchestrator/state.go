// Package orchestrator drives one benchmark run end to end: acquire a
// workspace, prepare data, start the store, wait for readiness, run
// workloads, then terminate and clean up unconditionally.
package orchestrator

// Phase is the run's position in its lifecycle.
type Phase int

const (
	// PhaseInit is the phase before anything has happened.
	PhaseInit Phase = iota

	// PhaseWorkspaceReady means the scoped workspace exists.
	PhaseWorkspaceReady

	// PhaseDataPrepared means dataset generation and offline load
	// commands finished.
	PhaseDataPrepared

	// PhaseServerStarting means the store process was spawned.
	PhaseServerStarting

	// PhaseServerReady means the readiness probe succeeded and any
	// online load finished.
	PhaseServerReady

	// PhaseWorkloadsRunning means driver workloads are executing.
	PhaseWorkloadsRunning

	// PhaseFinalizing means the server is being terminated and the
	// workspace released.
	PhaseFinalizing

	// PhaseDone is the successful terminal phase.
	PhaseDone

	// PhaseAborted is the failure terminal phase. Reached from any
	// phase; termination and cleanup still ran.
	PhaseAborted
)

// String returns a human-readable name for the phase.
func (p Phase) String() string {
	switch p {
	case PhaseInit:
		return "init"
	case PhaseWorkspaceReady:
		return "workspace_ready"
	case PhaseDataPrepared:
		return "data_prepared"
	case PhaseServerStarting:
		return "server_starting"
	case PhaseServerReady:
		return "server_ready"
	case PhaseWorkloadsRunning:
		return "workloads_running"
	case PhaseFinalizing:
		return "finalizing"
	case PhaseDone:
		return "done"
	case PhaseAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// IsTerminal reports whether the phase ends the run.
func (p Phase) IsTerminal() bool {
	return p == PhaseDone || p == PhaseAborted
}

// FailureClass buckets the first fatal error for exit-code mapping.
type FailureClass int

const (
	// FailureNone means the run completed.
	FailureNone FailureClass = iota

	// FailureSetup covers spawn errors and non-zero exits during
	// dataset generation and load.
	FailureSetup

	// FailureReadiness means the store never became reachable.
	FailureReadiness

	// FailureWorkload means at least one workload failed while the
	// rest of the run completed.
	FailureWorkload

	// FailureTermination means the server survived SIGKILL.
	FailureTermination

	// FailureInterrupted means the run was cancelled (signal or
	// operator quit) before the workloads could finish.
	FailureInterrupted
)

// String returns a human-readable name for the class.
func (c FailureClass) String() string {
	switch c {
	case FailureNone:
		return "none"
	case FailureSetup:
		return "setup_failure"
	case FailureReadiness:
		return "readiness_timeout"
	case FailureWorkload:
		return "workload_failure"
	case FailureTermination:
		return "termination_failure"
	case FailureInterrupted:
		return "interrupted"
	default:
		return "unknown"
	}
}
