package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jonathan/jira-export/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeRecord(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "record.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestRender_IssueToStdout(t *testing.T) {
	input := writeRecord(t, `{"key": "PROJ-7", "fields": {"summary": "Offline", "votes": 3}}`)

	stdout, _, err := execute(t, "", "render", "--input", input)
	require.NoError(t, err)
	assert.Contains(t, stdout, "# PROJ-7: Offline")
}

func TestRender_ProjectToFile(t *testing.T) {
	input := writeRecord(t, `{"key": "PROJ", "name": "Project"}`)
	out := filepath.Join(t.TempDir(), "PROJ.md")

	stdout, _, err := execute(t, "", "render", "--input", input, "--kind", "project", "--out", out)
	require.NoError(t, err)
	assert.Empty(t, stdout)

	content, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(content), "# Project (PROJ)")
}

func TestRender_CustomTemplate(t *testing.T) {
	input := writeRecord(t, `{"key": "PROJ-7", "fields": {"votes": 12345678901234567890}}`)
	tmpl := filepath.Join(t.TempDir(), "votes.tmpl")
	require.NoError(t, os.WriteFile(tmpl, []byte("{{ .fields.votes }}"), 0644))

	stdout, _, err := execute(t, "", "render", "--input", input, "--template", tmpl)
	require.NoError(t, err)
	assert.Equal(t, "12345678901234567890", stdout)
}

func TestRender_MissingFieldFails(t *testing.T) {
	input := writeRecord(t, `{"key": "PROJ-7", "fields": {}}`)

	_, _, err := execute(t, "", "render", "--input", input)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "summary")
}

func TestRender_InvalidKind(t *testing.T) {
	input := writeRecord(t, `{"key": "PROJ-7"}`)

	_, _, err := execute(t, "", "render", "--input", input, "--kind", "sprint")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--kind must be")
}

func TestRender_RequiresInput(t *testing.T) {
	_, _, err := execute(t, "", "render")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "input")
}

func TestReadRecord(t *testing.T) {
	path := writeRecord(t, `{"key": "PROJ-1", "fields": {"project": {"key": "PROJ"}}}`)

	record, err := readRecord(path, "issue")
	require.NoError(t, err)
	issue, ok := record.(types.Issue)
	require.True(t, ok)
	assert.Equal(t, "PROJ", issue.ProjectKey())

	_, err = readRecord(writeRecord(t, `[1, 2]`), "issue")
	assert.Error(t, err)
}
