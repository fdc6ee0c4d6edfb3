package export

import (
	"errors"
	"fmt"
)

// ErrNoProgress is returned when a page comes back empty although the count
// query reported more matching issues.
var ErrNoProgress = errors.New("search returned no issues before reaching the reported total")

// RenderFailure is returned when a record cannot be rendered. The record has
// already been logged in full by the time the caller sees it.
type RenderFailure struct {
	Kind   string // issue or project
	Key    string
	Record string // pretty-printed JSON
	Cause  error
}

func (e *RenderFailure) Error() string {
	return fmt.Sprintf("failed to render %s %s: %v", e.Kind, e.Key, e.Cause)
}

func (e *RenderFailure) Unwrap() error {
	return e.Cause
}

// AttachmentError is returned when an attachment cannot be fetched.
type AttachmentError struct {
	IssueKey string
	Filename string
	URL      string
	Cause    error
}

func (e *AttachmentError) Error() string {
	return fmt.Sprintf("failed to fetch attachment %s of %s from %s: %v", e.Filename, e.IssueKey, e.URL, e.Cause)
}

func (e *AttachmentError) Unwrap() error {
	return e.Cause
}
