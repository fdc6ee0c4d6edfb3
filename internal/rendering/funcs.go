package rendering

import (
	"encoding/json"
	"fmt"
	"net/url"
	"reflect"
	"strings"
	"text/template"

	"github.com/PuerkitoBio/goquery"
	"github.com/jonathan/jira-export/internal/paths"
	"gopkg.in/yaml.v3"
)

func funcMap() template.FuncMap {
	return template.FuncMap{
		"escape":         EscapeMarkdown,
		"yaml":           yamlScalar,
		"json":           prettyJSON,
		"plaintext":      PlainText,
		"default":        defaultValue,
		"join":           join,
		"lookup":         lookup,
		"get":            get,
		"attachmentpath": attachmentPath,
	}
}

// yamlScalar formats v for use as a single-line YAML value in front matter.
// Lists and objects are written in flow style.
func yamlScalar(v any) (string, error) {
	if n, ok := v.(json.Number); ok {
		if i, err := n.Int64(); err == nil {
			v = i
		} else if f, err := n.Float64(); err == nil {
			v = f
		}
	}
	if v != nil {
		switch reflect.ValueOf(v).Kind() {
		case reflect.Map, reflect.Slice, reflect.Array, reflect.Struct:
			out, err := json.Marshal(v)
			if err != nil {
				return "", fmt.Errorf("yaml: %w", err)
			}
			return string(out), nil
		}
	}
	out, err := yaml.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("yaml: %w", err)
	}
	return strings.TrimSuffix(string(out), "\n"), nil
}

func prettyJSON(v any) (string, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("json: %w", err)
	}
	return string(out), nil
}

// PlainText converts an HTML fragment (e.g. a renderedFields value) to text,
// one line per block element.
func PlainText(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	doc.Find("script, style").Remove()
	doc.Find("br").ReplaceWithHtml("\n")
	doc.Find("p, div, ul, ol, li, table, tr, pre, blockquote, h1, h2, h3, h4, h5, h6").Each(func(_ int, s *goquery.Selection) {
		s.PrependHtml("\n")
		s.AppendHtml("\n")
	})

	return cleanWhitespace(doc.Text()), nil
}

// cleanWhitespace trims every line and drops empty ones.
func cleanWhitespace(text string) string {
	lines := strings.Split(text, "\n")
	var cleaned []string
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			cleaned = append(cleaned, line)
		}
	}
	return strings.Join(cleaned, "\n")
}

func defaultValue(def, v any) any {
	if isEmpty(v) {
		return def
	}
	return v
}

func isEmpty(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String, reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() == 0
	case reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

func join(sep string, v any) (string, error) {
	if v == nil {
		return "", nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return "", fmt.Errorf("join: expected a list, got %T", v)
	}
	parts := make([]string, rv.Len())
	for i := range parts {
		parts[i] = fmt.Sprint(rv.Index(i).Interface())
	}
	return strings.Join(parts, sep), nil
}

// attachmentPath returns the URL path of a downloaded attachment relative to
// the attachments directory, using the same names the exporter writes to disk.
// A nil project maps to the unknown-project directory.
func attachmentPath(project, issue, filename any) (string, error) {
	elems, err := paths.Attachment(text(project), text(issue), text(filename))
	if err != nil {
		return "", fmt.Errorf("attachmentpath: %w", err)
	}
	for i, e := range elems {
		elems[i] = url.PathEscape(e)
	}
	return strings.Join(elems, "/"), nil
}

func text(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

// lookup walks a dotted path through nested objects and returns nil when any
// step is missing or null. It is the explicit way for a template to treat a
// field as optional.
func lookup(record any, path string) any {
	v, _ := walk(record, path)
	return v
}

// get is lookup that fails when the path does not resolve.
func get(record any, path string) (any, error) {
	v, ok := walk(record, path)
	if !ok {
		return nil, fmt.Errorf("field %q not present", path)
	}
	return v, nil
}

func walk(record any, path string) (any, bool) {
	cur := record
	for _, step := range strings.Split(path, ".") {
		if cur == nil {
			return nil, false
		}
		rv := reflect.ValueOf(cur)
		if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
			return nil, false
		}
		next := rv.MapIndex(reflect.ValueOf(step).Convert(rv.Type().Key()))
		if !next.IsValid() {
			return nil, false
		}
		cur = next.Interface()
	}
	return cur, true
}
