// Package paths maps tracker keys and attachment file names to path elements
// of the export tree.
package paths

import (
	"fmt"
	"strings"
)

// UnknownProject is the attachment directory used for issues without a project key.
const UnknownProject = "_unknown"

// SafeName makes a key or file name usable as a single path element.
// Separators are replaced and names that would leave the directory are rejected.
func SafeName(name string) (string, error) {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', 0:
			return '_'
		}
		return r
	}, strings.TrimSpace(name))

	if cleaned == "" || cleaned == "." || cleaned == ".." {
		return "", fmt.Errorf("unusable file name %q", name)
	}
	return cleaned, nil
}

// Attachment returns the project, issue and file name elements of an
// attachment's location below the attachments directory. An empty project key
// maps to UnknownProject.
func Attachment(projectKey, issueKey, filename string) ([]string, error) {
	project := UnknownProject
	if projectKey != "" {
		var err error
		if project, err = SafeName(projectKey); err != nil {
			return nil, fmt.Errorf("project key: %w", err)
		}
	}
	issue, err := SafeName(issueKey)
	if err != nil {
		return nil, fmt.Errorf("issue key: %w", err)
	}
	file, err := SafeName(filename)
	if err != nil {
		return nil, fmt.Errorf("attachment of %s: %w", issueKey, err)
	}
	return []string{project, issue, file}, nil
}
