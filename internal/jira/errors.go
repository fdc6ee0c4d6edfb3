package jira

import "fmt"

// Error represents a failed API call: transport failure, non-2xx status or an
// unparseable response.
type Error struct {
	URL        string
	StatusCode int // 0 when no response was received
	Message    string
	Cause      error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("jira request %s: %s: %v", e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("jira request %s: %s", e.URL, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// IsUnauthorized reports whether the server rejected the credentials.
func (e *Error) IsUnauthorized() bool {
	return e.StatusCode == 401 || e.StatusCode == 403
}
