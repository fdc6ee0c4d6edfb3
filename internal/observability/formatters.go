// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/jira-export/internal/config"
	"github.com/jonathan/jira-export/internal/db"
	"github.com/jonathan/jira-export/internal/export"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		// Truncate long lines; width counts runes, as fmt padding does
		if runes := []rune(line); len(runes) > boxWidth-4 {
			line = string(runes[:boxWidth-7]) + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// PrintConfig outputs the effective configuration of a run. The ledger URL
// is shown without its password.
func (p *Printer) PrintConfig(cfg *config.Config) {
	if cfg == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("URL:          %s\n", cfg.URL))
	sb.WriteString(fmt.Sprintf("JQL:          %s\n", orDefault(cfg.JQL, "(all issues)")))
	sb.WriteString(fmt.Sprintf("Output:       %s\n", cfg.Dir))
	sb.WriteString(fmt.Sprintf("Page size:    %d\n", cfg.MaxResults))
	sb.WriteString(fmt.Sprintf("Max overall:  %d\n", cfg.MaxOverall))
	sb.WriteString(fmt.Sprintf("Attachments:  %s\n", onOff(cfg.Attachments)))
	sb.WriteString(fmt.Sprintf("Insecure TLS: %s\n", onOff(cfg.Insecure)))
	sb.WriteString(fmt.Sprintf("Issue tmpl:   %s\n", orDefault(cfg.IssueTemplate, "(built-in)")))
	sb.WriteString(fmt.Sprintf("Project tmpl: %s", orDefault(cfg.ProjectTemplate, "(built-in)")))
	if cfg.RateLimit > 0 {
		sb.WriteString(fmt.Sprintf("\nRate limit:   %.2f req/s", cfg.RateLimit))
	}
	if cfg.DatabaseURL != "" {
		sb.WriteString(fmt.Sprintf("\nLedger:       %s", db.RedactURL(cfg.DatabaseURL)))
	}

	p.printBox("EXPORT CONFIGURATION", sb.String())
}

// PrintExportSummary outputs the counters of a finished or aborted run.
func (p *Printer) PrintExportSummary(summary *export.Summary) {
	if summary == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Matching issues:     %d\n", summary.Total))
	sb.WriteString(fmt.Sprintf("Processed:           %d\n", summary.Processed))
	sb.WriteString(fmt.Sprintf("Pages requested:     %d\n", summary.Pages))
	sb.WriteString(fmt.Sprintf("Issue documents:     %d\n", summary.IssuesWritten))
	sb.WriteString(fmt.Sprintf("Project documents:   %d\n", summary.ProjectsWritten))
	sb.WriteString(fmt.Sprintf("Attachments fetched: %d\n", summary.AttachmentsFetched))
	sb.WriteString(fmt.Sprintf("Attachments skipped: %d\n", summary.AttachmentsSkipped))
	sb.WriteString(fmt.Sprintf("Duration:            %s", summary.Duration.Round(1e6)))

	p.printBox("EXPORT SUMMARY", sb.String())
}

// PrintRuns outputs the most recent ledger runs, newest first.
func (p *Printer) PrintRuns(runs []db.Run) {
	if len(runs) == 0 {
		p.printBox("RECENT RUNS", "No runs recorded")
		return
	}

	var sb strings.Builder
	count := min(len(runs), maxItemsToShow)
	for i := 0; i < count; i++ {
		run := runs[i]
		sb.WriteString(fmt.Sprintf("%s  %s\n", run.CreatedAt.Format("2006-01-02 15:04"), run.Status))
		sb.WriteString(fmt.Sprintf("    %s\n", run.ID))
		if run.Processed != nil && run.Total != nil {
			sb.WriteString(fmt.Sprintf("    %d of %d issues\n", *run.Processed, *run.Total))
		}
		if run.ErrorMessage != nil {
			sb.WriteString(fmt.Sprintf("    Error: %s\n", *run.ErrorMessage))
		}
		if i < count-1 {
			sb.WriteString("\n")
		}
	}

	if len(runs) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("\n... and %d more runs", len(runs)-maxItemsToShow))
	}

	p.printBox("RECENT RUNS", strings.TrimSuffix(sb.String(), "\n"))
}
