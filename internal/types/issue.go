// Package types provides the record types exchanged between the tracker API client,
// the renderer and the export driver.
//
// Records are kept as raw JSON objects so that templates can reach any field the
// tracker returns, including custom fields the exporter knows nothing about.
package types

// SearchPage is one page of a search response.
type SearchPage struct {
	Total  int     `json:"total"`
	Issues []Issue `json:"issues"`
}

// Issue is a single issue record. It always carries a "key" and optionally a
// "fields" object with "project" and "attachment" entries.
type Issue map[string]any

// Project is a project record referenced from an issue's fields.
type Project map[string]any

// Attachment is one entry of an issue's "fields.attachment" list.
type Attachment map[string]any

// Key returns the issue key, or "" when missing or not a string.
func (i Issue) Key() string {
	return stringField(i, "key")
}

// Fields returns the "fields" sub-object, or nil.
func (i Issue) Fields() map[string]any {
	fields, _ := i["fields"].(map[string]any)
	return fields
}

// Project returns the project referenced by the issue.
func (i Issue) Project() (Project, bool) {
	project, ok := i.Fields()["project"].(map[string]any)
	if !ok {
		return nil, false
	}
	return Project(project), true
}

// ProjectKey returns the key of the referenced project, or "".
func (i Issue) ProjectKey() string {
	project, ok := i.Project()
	if !ok {
		return ""
	}
	return project.Key()
}

// Attachments returns the attachment entries in API order. Entries that are
// not JSON objects are ignored.
func (i Issue) Attachments() []Attachment {
	raw, ok := i.Fields()["attachment"].([]any)
	if !ok {
		return nil
	}
	attachments := make([]Attachment, 0, len(raw))
	for _, entry := range raw {
		if obj, ok := entry.(map[string]any); ok {
			attachments = append(attachments, Attachment(obj))
		}
	}
	return attachments
}

// Key returns the project key, or "".
func (p Project) Key() string {
	return stringField(p, "key")
}

// Filename returns the attachment's relative file name.
func (a Attachment) Filename() string {
	return stringField(a, "filename")
}

// ContentURL returns the URL the attachment bytes are served from.
func (a Attachment) ContentURL() string {
	return stringField(a, "content")
}

func stringField(m map[string]any, name string) string {
	s, _ := m[name].(string)
	return s
}
