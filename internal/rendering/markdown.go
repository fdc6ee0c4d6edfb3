// Package rendering turns tracker records into Markdown documents using
// text/template.
package rendering

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"
)

// Record kinds with a built-in template.
const (
	KindIssue   = "issue"
	KindProject = "project"
)

//go:embed templates/*.md.tmpl
var builtinTemplates embed.FS

// Renderer executes one parsed template. It is safe for concurrent use.
type Renderer struct {
	name string
	tmpl *template.Template
}

// New parses text as a template. References to keys a record does not have
// fail at render time instead of producing "<no value>".
func New(name, text string) (*Renderer, error) {
	tmpl, err := template.New(name).
		Option("missingkey=error").
		Funcs(funcMap()).
		Parse(text)
	if err != nil {
		return nil, &TemplateError{
			Message: fmt.Sprintf("failed to parse template %s", name),
			Cause:   err,
		}
	}
	return &Renderer{name: name, tmpl: tmpl}, nil
}

// Load reads and parses a template file.
func Load(path string) (*Renderer, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &TemplateError{
				Message: fmt.Sprintf("template file not found: %s", path),
				Cause:   err,
			}
		}
		return nil, &TemplateError{
			Message: fmt.Sprintf("failed to read template file: %s", path),
			Cause:   err,
		}
	}
	return New(filepath.Base(path), string(content))
}

// Builtin returns the embedded template for kind.
func Builtin(kind string) (*Renderer, error) {
	name := kind + ".md.tmpl"
	content, err := builtinTemplates.ReadFile("templates/" + name)
	if err != nil {
		return nil, &TemplateError{
			Message: fmt.Sprintf("no built-in template for %q", kind),
			Cause:   err,
		}
	}
	return New(name, string(content))
}

// LoadOrBuiltin loads path, or the built-in template for kind when path is empty.
func LoadOrBuiltin(kind, path string) (*Renderer, error) {
	if path == "" {
		return Builtin(kind)
	}
	return Load(path)
}

// Name returns the template name used in error messages.
func (r *Renderer) Name() string {
	return r.name
}

// Render executes the template against record. Nothing is returned on
// failure; a partially rendered document is never handed to the caller.
func (r *Renderer) Render(record any) (string, error) {
	var out strings.Builder
	if err := r.tmpl.Execute(&out, record); err != nil {
		return "", &RenderError{
			Template: r.name,
			Message:  "failed to execute template",
			Cause:    err,
		}
	}
	return out.String(), nil
}
