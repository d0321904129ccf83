package models

import "time"

// StepStatus represents the state of one workflow step.
type StepStatus string

const (
	// StepPending indicates the step has not started.
	StepPending StepStatus = "pending"
	// StepRunning indicates the step is executing.
	StepRunning StepStatus = "running"
	// StepDone indicates the step completed successfully.
	StepDone StepStatus = "done"
	// StepFailed indicates the step failed.
	StepFailed StepStatus = "failed"
	// StepSkipped indicates the step was skipped (already complete on resume).
	StepSkipped StepStatus = "skipped"
)

// Valid returns true if the status is a known value.
func (s StepStatus) Valid() bool {
	switch s {
	case StepPending, StepRunning, StepDone, StepFailed, StepSkipped:
		return true
	default:
		return false
	}
}

// Terminal returns true if the status will not change again.
func (s StepStatus) Terminal() bool {
	return s == StepDone || s == StepFailed || s == StepSkipped
}

// HistoryEntry records one agent invocation against the API.
type HistoryEntry struct {
	// ID is the unique identifier for this entry.
	ID string `json:"id"`
	// Project is the project name the invocation belonged to.
	Project string `json:"project"`
	// Role is the role whose prompt was used.
	Role Role `json:"role"`
	// Step is the workflow step name, if the invocation ran in a workflow.
	Step string `json:"step,omitempty"`
	// Model is the model id used for the call.
	Model string `json:"model"`
	// InputTokens is the number of input tokens consumed.
	InputTokens int64 `json:"input_tokens"`
	// OutputTokens is the number of output tokens produced.
	OutputTokens int64 `json:"output_tokens"`
	// CostUSD is the estimated cost of the call in US dollars.
	CostUSD float64 `json:"cost_usd"`
	// DurationMS is the wall-clock duration of the call in milliseconds.
	DurationMS int64 `json:"duration_ms"`
	// Status is the outcome of the invocation.
	Status StepStatus `json:"status"`
	// Error contains the error message if the invocation failed.
	Error string `json:"error,omitempty"`
	// CreatedAt is when the invocation started.
	CreatedAt time.Time `json:"created_at"`
}

// TotalTokens returns input plus output tokens for the entry.
func (h HistoryEntry) TotalTokens() int64 {
	return h.InputTokens + h.OutputTokens
}
