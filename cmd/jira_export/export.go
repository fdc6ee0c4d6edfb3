package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/jonathan/jira-export/internal/config"
	"github.com/jonathan/jira-export/internal/credentials"
	"github.com/jonathan/jira-export/internal/db"
	"github.com/jonathan/jira-export/internal/export"
	"github.com/jonathan/jira-export/internal/jira"
	"github.com/jonathan/jira-export/internal/observability"
	"github.com/jonathan/jira-export/internal/rendering"
	"github.com/spf13/cobra"
)

var exportCommand = &cobra.Command{
	Use:   "export",
	Short: "Export issues, projects and attachments matching a JQL query",
	Long: `Counts the issues matching --jql, then requests them page by page and writes
<dir>/issues/<KEY>.md for each issue and <dir>/projects/<KEY>.md for each project
referenced. With --attachments every attachment is downloaded to
<dir>/attachments/<PROJECT>/<ISSUE>/<filename>; files already present are skipped.

Credentials are taken from JIRA_USERNAME/JIRA_PASSWORD, then the netrc file,
then an interactive prompt.

Configuration can be loaded from a JSON, YAML or TOML file using --config.
Command-line arguments override config file values.`,
	RunE: runExportCmd,
}

var (
	exportConfigPath      string
	exportURL             string
	exportJQL             string
	exportDir             string
	exportMaxResults      int
	exportMaxOverall      int
	exportAttachments     bool
	exportNetrc           string
	exportInsecure        bool
	exportDebug           bool
	exportVerbose         bool
	exportIssueTemplate   string
	exportProjectTemplate string
	exportRenderedFields  bool
	exportRateLimit       float64
	exportTimeout         int
	exportDatabaseURL     string
)

func init() {
	// Config file flag (processed first)
	exportCommand.Flags().StringVar(&exportConfigPath, "config", "", "Path to a .json, .yaml or .toml config file (values can be overridden by other flags)")

	exportCommand.Flags().StringVarP(&exportURL, "url", "u", "", "JIRA base URL (required)")
	exportCommand.Flags().StringVarP(&exportJQL, "jql", "q", "", "JQL query filter (default: all issues visible to the user)")
	exportCommand.Flags().StringVarP(&exportDir, "dir", "d", config.DefaultDir, "Output directory")
	exportCommand.Flags().IntVar(&exportMaxResults, "max-results", config.DefaultMaxResults, "Issues requested per page")
	exportCommand.Flags().IntVar(&exportMaxOverall, "max-overall", config.DefaultMaxOverall, "Maximum number of issues exported in this run")
	exportCommand.Flags().BoolVarP(&exportAttachments, "attachments", "a", false, "Download attachments")
	exportCommand.Flags().StringVar(&exportNetrc, "netrc", "", "Path to the netrc credentials file (default: $NETRC or ~/.netrc)")
	exportCommand.Flags().BoolVarP(&exportInsecure, "insecure", "k", false, "Skip TLS certificate verification")
	exportCommand.Flags().BoolVar(&exportDebug, "debug", false, "Debug logging and a wire trace of every request")
	exportCommand.Flags().BoolVarP(&exportVerbose, "verbose", "v", false, "Print configuration and summary boxes")
	exportCommand.Flags().StringVar(&exportIssueTemplate, "issue-template", "", "Issue template file (default: built-in)")
	exportCommand.Flags().StringVar(&exportProjectTemplate, "project-template", "", "Project template file (default: built-in)")
	exportCommand.Flags().BoolVar(&exportRenderedFields, "rendered-fields", false, "Also request HTML renderings of fields (renderedFields)")
	exportCommand.Flags().Float64Var(&exportRateLimit, "rate-limit", 0, "Maximum requests per second (0 = unlimited)")
	exportCommand.Flags().IntVar(&exportTimeout, "timeout", 0, "Per-request timeout in seconds (0 = transport default)")

	// Database URL for the run ledger
	exportCommand.Flags().StringVar(&exportDatabaseURL, "db-url", "", "PostgreSQL connection URL for the run ledger (optional, defaults to DATABASE_URL env var)")

	rootCmd.AddCommand(exportCommand)
}

// buildExportConfig starts from the defaults, overlays the config file and
// then the explicitly set flags. An explicit zero survives every layer so that
// Validate can reject it. It does not validate.
func buildExportConfig(cmd *cobra.Command) (config.Config, error) {
	// Step 1: Defaults, overlaid by the config file if provided
	cfg := config.Defaults()
	if exportConfigPath != "" {
		loaded, err := config.LoadConfig(exportConfigPath)
		if err != nil {
			return cfg, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = *loaded
	}

	// Step 2: Apply CLI overrides (command-line args take priority)
	// Only override if the flag was explicitly set
	flags := cmd.Flags()
	if flags.Changed("url") {
		cfg.URL = exportURL
	}
	if flags.Changed("jql") {
		cfg.JQL = exportJQL
	}
	if flags.Changed("dir") {
		cfg.Dir = exportDir
	}
	if flags.Changed("max-results") {
		cfg.MaxResults = exportMaxResults
	}
	if flags.Changed("max-overall") {
		cfg.MaxOverall = exportMaxOverall
	}
	if flags.Changed("attachments") {
		cfg.Attachments = exportAttachments
	}
	if flags.Changed("netrc") {
		cfg.Netrc = exportNetrc
	}
	if flags.Changed("insecure") {
		cfg.Insecure = exportInsecure
	}
	if flags.Changed("debug") {
		cfg.Debug = exportDebug
	}
	if flags.Changed("verbose") {
		cfg.Verbose = exportVerbose
	}
	if flags.Changed("issue-template") {
		cfg.IssueTemplate = exportIssueTemplate
	}
	if flags.Changed("project-template") {
		cfg.ProjectTemplate = exportProjectTemplate
	}
	if flags.Changed("rendered-fields") {
		cfg.RenderedFields = exportRenderedFields
	}
	if flags.Changed("rate-limit") {
		cfg.RateLimit = exportRateLimit
	}
	if flags.Changed("timeout") {
		cfg.Timeout = exportTimeout
	}
	if flags.Changed("db-url") {
		cfg.DatabaseURL = exportDatabaseURL
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}

	return cfg, nil
}

func runExportCmd(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := buildExportConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.URL == "" {
		_ = cmd.Usage()
		return errors.New("--url must be provided (via flag or config)")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	stderr := cmd.ErrOrStderr()
	logger := newLogger(stderr, cfg.Debug)
	printer := observability.NewPrinter(cmd.OutOrStdout())
	if cfg.Verbose {
		printer.PrintConfig(&cfg)
	}

	issueRenderer, err := rendering.LoadOrBuiltin(rendering.KindIssue, cfg.IssueTemplate)
	if err != nil {
		return err
	}
	projectRenderer, err := rendering.LoadOrBuiltin(rendering.KindProject, cfg.ProjectTemplate)
	if err != nil {
		return err
	}

	host, err := cfg.Host()
	if err != nil {
		return err
	}
	creds, err := credentialChain(&cfg, cmd.InOrStdin(), stderr).Resolve(ctx, host)
	if err != nil {
		return err
	}

	client, err := jira.NewClient(cfg.URL, creds, clientOptions(&cfg, stderr))
	if err != nil {
		return err
	}

	driver := export.NewDriver(client, issueRenderer, projectRenderer, export.OptionsFromConfig(&cfg), logger)

	ledger, runID := openLedger(ctx, &cfg, logger)
	if ledger != nil {
		defer ledger.Close()
		driver.WithRecorder(ledger.Recorder(runID))
	}

	summary, runErr := driver.Run(ctx)

	if ledger != nil {
		result := db.ResultFromError(summary.Total, summary.Processed, runErr)
		if err := ledger.CompleteRun(context.WithoutCancel(ctx), runID, result); err != nil {
			logger.Warn("Failed to complete ledger run", "run_id", runID, "error", err)
		}
	}
	if cfg.Verbose {
		printer.PrintExportSummary(summary)
	}
	return runErr
}

// credentialChain resolves credentials from the environment, then the netrc
// file, then an interactive prompt on in/out.
func credentialChain(cfg *config.Config, in io.Reader, out io.Writer) credentials.Chain {
	prompt := credentials.NewPrompt()
	if in != os.Stdin {
		prompt = &credentials.Prompt{In: in}
	}
	prompt.Out = out

	return credentials.Chain{
		credentials.Env{},
		credentials.Netrc{Path: cfg.Netrc},
		prompt,
	}
}

func clientOptions(cfg *config.Config, trace io.Writer) *jira.Options {
	opts := jira.DefaultOptions()
	opts.Timeout = cfg.RequestTimeout()
	opts.Insecure = cfg.Insecure
	opts.RateLimit = cfg.RateLimit
	if cfg.Debug {
		opts.Trace = trace
	}
	return opts
}

// openLedger connects to the run ledger when configured. A ledger that cannot
// be reached is reported and the export continues without it.
func openLedger(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*db.DB, uuid.UUID) {
	if cfg.DatabaseURL == "" {
		return nil, uuid.Nil
	}

	ledger, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Warn("Failed to connect to database, continuing without run ledger", "error", err)
		return nil, uuid.Nil
	}
	if err := ledger.EnsureSchema(ctx); err != nil {
		logger.Warn("Failed to prepare run ledger, continuing without it", "error", err)
		ledger.Close()
		return nil, uuid.Nil
	}
	runID, err := ledger.CreateRun(ctx, db.RunInput{BaseURL: cfg.URL, JQL: cfg.JQL, OutputDir: cfg.Dir})
	if err != nil {
		logger.Warn("Failed to create ledger run, continuing without it", "error", err)
		ledger.Close()
		return nil, uuid.Nil
	}
	logger.Info("Recording run", "run_id", runID)
	return ledger, runID
}
