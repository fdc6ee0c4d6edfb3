package export

// Progress steps
const (
	StepCount      = "count"
	StepPage       = "page"
	StepIssue      = "issue"
	StepProject    = "project"
	StepAttachment = "attachment"
)

// ProgressEvent represents a progress update during an export run
type ProgressEvent struct {
	Step    string `json:"step"`
	Key     string `json:"key,omitempty"`
	Message string `json:"message"`
	Path    string `json:"path,omitempty"`
}

// ProgressCallback is called when export progress occurs
type ProgressCallback func(event ProgressEvent)

// emitProgress calls the progress callback if configured
func (d *Driver) emitProgress(step, key, message, path string) {
	if d.opts.OnProgress != nil {
		d.opts.OnProgress(ProgressEvent{
			Step:    step,
			Key:     key,
			Message: message,
			Path:    path,
		})
	}
}
