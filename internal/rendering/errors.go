package rendering

import "fmt"

// TemplateError represents an error reading or parsing a template
type TemplateError struct {
	Message string
	Cause   error
}

func (e *TemplateError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("template error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("template error: %s", e.Message)
}

func (e *TemplateError) Unwrap() error {
	return e.Cause
}

// RenderError represents a failure executing a template against a record,
// typically a field the template references but the record lacks
type RenderError struct {
	Template string
	Message  string
	Cause    error
}

func (e *RenderError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("render error (%s): %s: %v", e.Template, e.Message, e.Cause)
	}
	return fmt.Sprintf("render error (%s): %s", e.Template, e.Message)
}

func (e *RenderError) Unwrap() error {
	return e.Cause
}
