package db

import (
	"time"

	"github.com/google/uuid"
)

// Run status values
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// Document kinds
const (
	KindIssue      = "issue"
	KindProject    = "project"
	KindAttachment = "attachment"
)

// Run represents an export run record
type Run struct {
	ID           uuid.UUID  `json:"id"`
	BaseURL      string     `json:"base_url"`
	JQL          string     `json:"jql"`
	OutputDir    string     `json:"output_dir"`
	Status       string     `json:"status"`
	Total        *int       `json:"total,omitempty"`
	Processed    *int       `json:"processed,omitempty"`
	ErrorMessage *string    `json:"error_message,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

// RunInput holds the fields recorded when a run starts
type RunInput struct {
	BaseURL   string
	JQL       string
	OutputDir string
}

// RunResult holds the fields recorded when a run ends
type RunResult struct {
	Status    string
	Total     int
	Processed int
	Error     string // empty on success
}

// Document represents one file written during a run
type Document struct {
	ID        int64     `json:"id"`
	RunID     uuid.UUID `json:"run_id"`
	Kind      string    `json:"kind"`
	Key       string    `json:"key"`
	Path      string    `json:"path"`
	SizeBytes int64     `json:"size_bytes"`
	CreatedAt time.Time `json:"created_at"`
}

// ResultFromError builds a RunResult from the outcome of a run.
func ResultFromError(total, processed int, err error) RunResult {
	result := RunResult{
		Status:    RunStatusCompleted,
		Total:     total,
		Processed: processed,
	}
	if err != nil {
		result.Status = RunStatusFailed
		result.Error = err.Error()
	}
	return result
}
