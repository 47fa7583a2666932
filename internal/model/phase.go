package model

import "time"

// PhaseOutcome classifies how one pipeline phase ended. A degraded phase
// produced partial or placeholder data; a skipped phase had its precondition
// unmet; a failed phase produced nothing. None of these block later phases.
type PhaseOutcome string

const (
	OutcomeOK       PhaseOutcome = "ok"
	OutcomeDegraded PhaseOutcome = "degraded"
	OutcomeSkipped  PhaseOutcome = "skipped"
	OutcomeFailed   PhaseOutcome = "failed"
)

// PhaseRecord is the persisted outcome of one phase of one analysis run.
type PhaseRecord struct {
	ID         string       `json:"id"`
	AnalysisID string       `json:"analysis_id"`
	Phase      string       `json:"phase"`
	Outcome    PhaseOutcome `json:"outcome"`
	Error      string       `json:"error,omitempty"`
	CreatedAt  time.Time    `json:"created_at"`
}
