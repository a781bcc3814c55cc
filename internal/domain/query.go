package domain

import (
	"time"
)

// QueryStatus tracks a query's position in the pipeline.
type QueryStatus string

const (
	StatusPlanning     QueryStatus = "planning"
	StatusResearching  QueryStatus = "researching"
	StatusVerifying    QueryStatus = "verifying"
	StatusSynthesizing QueryStatus = "synthesizing"
	StatusReflecting   QueryStatus = "reflecting"
	StatusCompleted    QueryStatus = "completed"
	StatusFailed       QueryStatus = "failed"
)

// Terminal reports whether the status is an end state.
func (s QueryStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// CanTransition reports whether moving from s to next is a legal pipeline
// transition. Transitions run forward only, with one backward edge: a retry
// re-enters researching from any stage at or past it. Failed is reachable
// from any non-terminal state.
func (s QueryStatus) CanTransition(next QueryStatus) bool {
	if s.Terminal() {
		return false
	}
	if next == StatusFailed {
		return true
	}
	switch s {
	case StatusPlanning:
		return next == StatusResearching
	case StatusResearching:
		return next == StatusVerifying || next == StatusResearching
	case StatusVerifying:
		return next == StatusSynthesizing || next == StatusResearching
	case StatusSynthesizing:
		return next == StatusReflecting || next == StatusCompleted || next == StatusResearching
	case StatusReflecting:
		return next == StatusResearching || next == StatusCompleted
	}
	return false
}

// ToolCall is one entry in a query's append-only tool log.
type ToolCall struct {
	Tool      string         `json:"tool"`
	Params    map[string]any `json:"params,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// ErrorRecord is one entry in a query's append-only error log.
type ErrorRecord struct {
	Stage     string    `json:"stage"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// QueryState is the live record of one in-flight query. It is owned by the
// orchestrator and mutated only through the state store's accessors.
type QueryState struct {
	ID        string      `json:"query_id"`
	Query     string      `json:"query"`
	Status    QueryStatus `json:"status"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`

	RetryCount int `json:"retry_count"`

	Plan         *PlanResult         `json:"plan,omitempty"`
	Findings     *ResearchFindings   `json:"research_findings,omitempty"`
	Verification *VerificationReport `json:"verification,omitempty"`
	Synthesis    *SynthesisResult    `json:"synthesis,omitempty"`
	Reflection   *ReflectionResult   `json:"reflection,omitempty"`
	FinalAnswer  string              `json:"final_answer,omitempty"`

	Confidence float64       `json:"confidence"`
	Sources    []string      `json:"sources"`
	ToolCalls  []ToolCall    `json:"tool_calls"`
	Errors     []ErrorRecord `json:"errors"`
}
