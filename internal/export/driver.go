// Package export pages through a tracker search and writes every issue, the
// projects they reference and optionally their attachments to disk.
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/jonathan/jira-export/internal/config"
	"github.com/jonathan/jira-export/internal/jira"
	"github.com/jonathan/jira-export/internal/paths"
	"github.com/jonathan/jira-export/internal/types"
)

// Document kinds reported to a Recorder.
const (
	KindIssue      = "issue"
	KindProject    = "project"
	KindAttachment = "attachment"
)

// API is the subset of the tracker client the driver needs.
type API interface {
	Search(ctx context.Context, req jira.SearchRequest) (*types.SearchPage, error)
	Download(ctx context.Context, rawURL, dest string) (int64, error)
}

// Renderer turns one record into a document.
type Renderer interface {
	Render(record any) (string, error)
}

// Recorder is told about every file the driver writes.
type Recorder interface {
	RecordDocument(ctx context.Context, kind, key, path string, size int64) error
}

// Options holds the resolved settings for one run.
type Options struct {
	BaseURL        string
	JQL            string
	IssuesDir      string
	ProjectsDir    string
	AttachmentsDir string
	MaxResults     int
	MaxOverall     int
	Attachments    bool
	RenderedFields bool
	OnProgress     ProgressCallback
}

// OptionsFromConfig builds driver options from a validated configuration.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		BaseURL:        cfg.URL,
		JQL:            cfg.JQL,
		IssuesDir:      cfg.IssuesDir(),
		ProjectsDir:    cfg.ProjectsDir(),
		AttachmentsDir: cfg.AttachmentsDir(),
		MaxResults:     cfg.MaxResults,
		MaxOverall:     cfg.MaxOverall,
		Attachments:    cfg.Attachments,
		RenderedFields: cfg.RenderedFields,
	}
}

// Summary describes a finished (or aborted) run.
type Summary struct {
	Total              int           `json:"total"`
	Processed          int           `json:"processed"`
	Pages              int           `json:"pages"`
	IssuesWritten      int           `json:"issues_written"`
	ProjectsWritten    int           `json:"projects_written"`
	AttachmentsFetched int           `json:"attachments_fetched"`
	AttachmentsSkipped int           `json:"attachments_skipped"`
	Duration           time.Duration `json:"duration"`
}

// Driver runs one export. It owns the processed count and the set of project
// keys already written; a Driver is not safe for concurrent use.
type Driver struct {
	api      API
	issues   Renderer
	projects Renderer
	recorder Recorder
	logger   *slog.Logger
	opts     Options

	seenProjects map[string]struct{}
	summary      *Summary
}

// NewDriver creates a driver. A nil logger discards log output.
func NewDriver(api API, issues, projects Renderer, opts Options, logger *slog.Logger) *Driver {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Driver{
		api:      api,
		issues:   issues,
		projects: projects,
		logger:   logger,
		opts:     opts,
	}
}

// WithRecorder sets the recorder notified of written files.
func (d *Driver) WithRecorder(r Recorder) *Driver {
	d.recorder = r
	return d
}

// Run performs the export: one count query, then pages in increasing offset
// order until the reported total or the overall cap is reached. The first
// error aborts the run; files written before it stay on disk. The returned
// summary is never nil.
func (d *Driver) Run(ctx context.Context) (*Summary, error) {
	start := time.Now()
	d.seenProjects = make(map[string]struct{})
	d.summary = &Summary{}
	defer func() { d.summary.Duration = time.Since(start) }()

	if d.opts.MaxResults < 1 || d.opts.MaxOverall < 1 {
		return d.summary, fmt.Errorf("max results and max overall must be positive, got %d and %d", d.opts.MaxResults, d.opts.MaxOverall)
	}
	for _, dir := range []string{d.opts.IssuesDir, d.opts.ProjectsDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return d.summary, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	count, err := d.api.Search(ctx, jira.SearchRequest{JQL: d.opts.JQL, MaxResults: 1})
	if err != nil {
		return d.summary, fmt.Errorf("count query failed: %w", err)
	}
	total := count.Total
	d.summary.Total = total
	d.logger.Info("Total issue count", "total", total, "max_overall", d.opts.MaxOverall)
	d.emitProgress(StepCount, "", fmt.Sprintf("%d matching issues", total), "")

	var expand []string
	if d.opts.RenderedFields {
		expand = []string{"renderedFields"}
	}

	index := 0
	for index < total && index < d.opts.MaxOverall {
		pageSize := min(d.opts.MaxResults, d.opts.MaxOverall-index)
		d.logger.Info("Requesting issues", "count", pageSize, "start_at", index)

		page, err := d.api.Search(ctx, jira.SearchRequest{
			JQL:        d.opts.JQL,
			MaxResults: pageSize,
			StartAt:    index,
			AllFields:  true,
			Expand:     expand,
		})
		if err != nil {
			return d.summary, fmt.Errorf("search at offset %d failed: %w", index, err)
		}
		d.summary.Pages++

		issues := page.Issues
		if len(issues) == 0 {
			return d.summary, fmt.Errorf("%w: offset %d, total %d", ErrNoProgress, index, total)
		}
		if limit := min(pageSize, total-index); len(issues) > limit {
			d.logger.Debug("Ignoring issues beyond the requested page", "returned", len(issues), "kept", limit)
			issues = issues[:limit]
		}
		d.emitProgress(StepPage, "", fmt.Sprintf("%d issues at offset %d", len(issues), index), "")

		for _, issue := range issues {
			if err := d.exportIssue(ctx, issue); err != nil {
				return d.summary, err
			}
			d.summary.Processed++
		}
		index += len(issues)
	}

	d.logger.Info("Export finished", "processed", d.summary.Processed, "projects", d.summary.ProjectsWritten,
		"attachments", d.summary.AttachmentsFetched)
	return d.summary, nil
}

func (d *Driver) exportIssue(ctx context.Context, issue types.Issue) error {
	key := issue.Key()
	name, err := paths.SafeName(key)
	if err != nil {
		return fmt.Errorf("issue key: %w", err)
	}

	content, err := d.issues.Render(issue)
	if err != nil {
		return d.renderFailure(KindIssue, key, issue, err)
	}
	path := filepath.Join(d.opts.IssuesDir, name+".md")
	d.logger.Debug("Writing issue file", "key", key, "path", path)
	if err := d.writeDocument(ctx, KindIssue, key, path, content); err != nil {
		return err
	}
	d.summary.IssuesWritten++
	d.emitProgress(StepIssue, key, "issue written", path)

	if project, ok := issue.Project(); ok {
		if err := d.exportProject(ctx, project); err != nil {
			return err
		}
	}

	if d.opts.Attachments {
		for _, attachment := range issue.Attachments() {
			if err := d.exportAttachment(ctx, issue, attachment); err != nil {
				return err
			}
		}
	}
	return nil
}

func (d *Driver) exportProject(ctx context.Context, project types.Project) error {
	key := project.Key()
	if key == "" {
		return nil
	}
	if _, seen := d.seenProjects[key]; seen {
		return nil
	}
	name, err := paths.SafeName(key)
	if err != nil {
		return fmt.Errorf("project key: %w", err)
	}

	content, err := d.projects.Render(project)
	if err != nil {
		return d.renderFailure(KindProject, key, project, err)
	}
	path := filepath.Join(d.opts.ProjectsDir, name+".md")
	d.logger.Info("Writing project file", "key", key, "path", path)
	if err := d.writeDocument(ctx, KindProject, key, path, content); err != nil {
		return err
	}
	d.seenProjects[key] = struct{}{}
	d.summary.ProjectsWritten++
	d.emitProgress(StepProject, key, "project written", path)
	return nil
}

func (d *Driver) exportAttachment(ctx context.Context, issue types.Issue, attachment types.Attachment) error {
	elems, err := paths.Attachment(issue.ProjectKey(), issue.Key(), attachment.Filename())
	if err != nil {
		return err
	}
	filename := elems[2]
	target := filepath.Join(append([]string{d.opts.AttachmentsDir}, elems...)...)

	if info, err := os.Stat(target); err == nil && info.Mode().IsRegular() && info.Size() > 0 {
		d.logger.Debug("Attachment already present", "path", target)
		d.summary.AttachmentsSkipped++
		return nil
	}

	source, err := jira.RewriteURL(d.opts.BaseURL, attachment.ContentURL())
	if err != nil {
		return &AttachmentError{IssueKey: issue.Key(), Filename: filename, URL: attachment.ContentURL(), Cause: err}
	}
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return fmt.Errorf("failed to create attachment directory: %w", err)
	}

	d.logger.Info("Fetching attachment", "issue", issue.Key(), "file", filename)
	size, err := d.api.Download(ctx, source, target)
	if err != nil {
		return &AttachmentError{IssueKey: issue.Key(), Filename: filename, URL: source, Cause: err}
	}
	d.summary.AttachmentsFetched++
	d.record(ctx, KindAttachment, issue.Key(), target, size)
	d.emitProgress(StepAttachment, issue.Key(), "attachment fetched", target)
	return nil
}

// renderFailure logs the complete record before returning the error, so the
// offending input is visible even though the run stops.
func (d *Driver) renderFailure(kind, key string, record any, cause error) error {
	pretty, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		pretty = []byte(fmt.Sprintf("%v", record))
	}
	d.logger.Error("Failed to render "+kind, "key", key, "error", cause, "record", string(pretty))
	return &RenderFailure{Kind: kind, Key: key, Record: string(pretty), Cause: cause}
}

func (d *Driver) writeDocument(ctx context.Context, kind, key, path, content string) error {
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write %s %s: %w", kind, key, err)
	}
	d.record(ctx, kind, key, path, int64(len(content)))
	return nil
}

// record reports a written file. Ledger failures are logged and do not stop
// the export.
func (d *Driver) record(ctx context.Context, kind, key, path string, size int64) {
	if d.recorder == nil {
		return
	}
	if err := d.recorder.RecordDocument(ctx, kind, key, path, size); err != nil {
		d.logger.Warn("Failed to record document", "kind", kind, "key", key, "error", err)
	}
}
