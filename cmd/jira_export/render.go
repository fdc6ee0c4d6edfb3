package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/jonathan/jira-export/internal/rendering"
	"github.com/jonathan/jira-export/internal/types"
	"github.com/spf13/cobra"
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render one saved issue or project record through a template",
	Long: `Renders a single JSON record, as returned by the search API, without contacting
the server. Useful while developing templates.`,
	RunE: runRender,
}

var (
	renderInputFile    string
	renderKind         string
	renderTemplateFile string
	renderOutputFile   string
)

func init() {
	renderCmd.Flags().StringVarP(&renderInputFile, "input", "i", "", "Path to the record JSON file (required)")
	renderCmd.Flags().StringVar(&renderKind, "kind", rendering.KindIssue, "Record kind: issue or project")
	renderCmd.Flags().StringVarP(&renderTemplateFile, "template", "t", "", "Template file (default: built-in template for --kind)")
	renderCmd.Flags().StringVarP(&renderOutputFile, "out", "o", "", "Output file (default: stdout)")

	_ = renderCmd.MarkFlagRequired("input")

	rootCmd.AddCommand(renderCmd)
}

func runRender(cmd *cobra.Command, _ []string) error {
	if renderKind != rendering.KindIssue && renderKind != rendering.KindProject {
		return fmt.Errorf("--kind must be %q or %q, got %q", rendering.KindIssue, rendering.KindProject, renderKind)
	}

	record, err := readRecord(renderInputFile, renderKind)
	if err != nil {
		return err
	}

	renderer, err := rendering.LoadOrBuiltin(renderKind, renderTemplateFile)
	if err != nil {
		return err
	}
	out, err := renderer.Render(record)
	if err != nil {
		return err
	}

	if renderOutputFile == "" {
		_, err = fmt.Fprint(cmd.OutOrStdout(), out)
		return err
	}
	if err := os.WriteFile(renderOutputFile, []byte(out), 0644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return nil
}

// readRecord decodes a record the same way the API client does, keeping
// numbers as json.Number.
func readRecord(path, kind string) (any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read input file: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var record map[string]any
	if err := dec.Decode(&record); err != nil {
		return nil, fmt.Errorf("failed to parse input JSON: %w", err)
	}

	if kind == rendering.KindProject {
		return types.Project(record), nil
	}
	return types.Issue(record), nil
}
