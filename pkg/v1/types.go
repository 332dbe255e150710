package v1

import "github.com/4thel00z/lloyd/internal"

// Point is an (x, y) pair in domain coordinates.
type Point = internal.Point

// Scene is the set of drawable marks currently on the canvas.
type Scene = internal.Scene

// RunOutcome tells why a run ended.
type RunOutcome = internal.RunOutcome

const (
	Converged = internal.OutcomeConverged
	Exhausted = internal.OutcomeExhausted
	Cancelled = internal.OutcomeCancelled
	Failed    = internal.OutcomeFailed
)

// State is a JSON-friendly view of the controller.
type State struct {
	Clusters   int         `json:"clusters"`
	Mode       string      `json:"mode,omitempty"`
	Armed      bool        `json:"armed"`
	Phase      string      `json:"phase"`
	Points     []Point     `json:"points"`
	Centroids  []Point     `json:"centroids"`
	Assignment map[int]int `json:"assignment"`
	LastRun    *RunResult  `json:"last_run,omitempty"`
	LastError  string      `json:"last_error,omitempty"`
}

// RunResult summarizes a finished run.
type RunResult struct {
	Outcome    RunOutcome `json:"outcome"`
	Iterations int        `json:"iterations"`
	Error      string     `json:"error,omitempty"`
}

func stateFrom(s internal.Snapshot) State {
	st := State{
		Clusters:   s.K,
		Mode:       string(s.Mode),
		Armed:      s.Armed,
		Phase:      string(s.Phase),
		Points:     s.Points,
		Centroids:  s.Centroids,
		Assignment: s.Index,
	}
	if s.Run != nil {
		st.LastRun = &RunResult{Outcome: s.Run.Outcome, Iterations: s.Run.Iterations}
		if s.Run.Err != nil {
			st.LastRun.Error = s.Run.Err.Error()
		}
	}
	if s.LastError != nil {
		st.LastError = s.LastError.Error()
	}
	return st
}
