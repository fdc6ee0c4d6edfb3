// Package config provides configuration loading and validation for the exporter CLI.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Default values for fields set by neither the config file nor the CLI.
const (
	DefaultDir        = "jekyll"
	DefaultMaxResults = 1000
	DefaultMaxOverall = 1000000000
)

// Output subdirectories below Dir.
const (
	IssuesSubdir      = "issues"
	ProjectsSubdir    = "projects"
	AttachmentsSubdir = "attachments"
)

// Config represents the export configuration. It can be loaded from a JSON, YAML
// or TOML file; CLI flags override file values. After the overlay and validation
// it is treated as immutable for the rest of the run.
type Config struct {
	// Tracker
	URL            string `json:"url,omitempty" yaml:"url,omitempty" toml:"url,omitempty" validate:"required,http_url"` // Base URL of the tracker
	JQL            string `json:"jql,omitempty" yaml:"jql,omitempty" toml:"jql,omitempty"`                              // Query filter, empty matches everything visible
	RenderedFields bool   `json:"rendered_fields,omitempty" yaml:"rendered_fields,omitempty" toml:"rendered_fields,omitempty"`

	// Output
	Dir             string `json:"dir,omitempty" yaml:"dir,omitempty" toml:"dir,omitempty" validate:"required"`
	IssueTemplate   string `json:"issue_template,omitempty" yaml:"issue_template,omitempty" toml:"issue_template,omitempty"`       // Empty uses the built-in template
	ProjectTemplate string `json:"project_template,omitempty" yaml:"project_template,omitempty" toml:"project_template,omitempty"` // Empty uses the built-in template
	Attachments     bool   `json:"attachments,omitempty" yaml:"attachments,omitempty" toml:"attachments,omitempty"`

	// Limits
	MaxResults int     `json:"max_results,omitempty" yaml:"max_results,omitempty" toml:"max_results,omitempty" validate:"gte=1"` // Page size per request
	MaxOverall int     `json:"max_overall,omitempty" yaml:"max_overall,omitempty" toml:"max_overall,omitempty" validate:"gte=1"` // Overall cap on processed issues
	RateLimit  float64 `json:"rate_limit,omitempty" yaml:"rate_limit,omitempty" toml:"rate_limit,omitempty" validate:"gte=0"`    // Requests per second, 0 disables pacing
	Timeout    int     `json:"timeout_seconds,omitempty" yaml:"timeout_seconds,omitempty" toml:"timeout_seconds,omitempty" validate:"gte=0"`

	// Transport and credentials
	Netrc    string `json:"netrc,omitempty" yaml:"netrc,omitempty" toml:"netrc,omitempty"`
	Insecure bool   `json:"insecure,omitempty" yaml:"insecure,omitempty" toml:"insecure,omitempty"`

	// Diagnostics
	Debug   bool `json:"debug,omitempty" yaml:"debug,omitempty" toml:"debug,omitempty"`
	Verbose bool `json:"verbose,omitempty" yaml:"verbose,omitempty" toml:"verbose,omitempty"`

	// Run ledger
	DatabaseURL string `json:"database_url,omitempty" yaml:"database_url,omitempty" toml:"database_url,omitempty"`
}

// Defaults returns the built-in defaults.
func Defaults() Config {
	return Config{
		Dir:        DefaultDir,
		MaxResults: DefaultMaxResults,
		MaxOverall: DefaultMaxOverall,
	}
}

// LoadConfig loads configuration from a file. The format is chosen by extension:
// .json, .yaml/.yml or .toml. The file is decoded over Defaults(), so keys the
// file omits keep their default while keys it sets, including explicit zeros,
// are kept as written.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	cfg := Defaults()
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	case ".toml":
		if _, err := toml.Decode(string(data), &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config TOML: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config format %q (want .json, .yaml, .yml or .toml)", ext)
	}

	return &cfg, nil
}

// Validate checks a fully merged configuration.
func (c *Config) Validate() error {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})

	if err := validate.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return fmt.Errorf("config error: %w", err)
		}
		return fmt.Errorf("config error: %s", describeFieldError(fieldErrs[0]))
	}

	for _, tmpl := range []struct{ name, path string }{
		{"issue_template", c.IssueTemplate},
		{"project_template", c.ProjectTemplate},
	} {
		if tmpl.path == "" {
			continue
		}
		if _, err := os.Stat(tmpl.path); os.IsNotExist(err) {
			return fmt.Errorf("config error: %s file not found: %s", tmpl.name, tmpl.path)
		}
	}

	return nil
}

func describeFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("'%s' is required", fe.Field())
	case "http_url":
		return fmt.Sprintf("'%s' must be an absolute http(s) URL, got %q", fe.Field(), fe.Value())
	case "gte":
		return fmt.Sprintf("'%s' must be >= %s", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("'%s' failed %q validation", fe.Field(), fe.Tag())
	}
}

// Host returns the host name of the base URL without the port. This is the
// key credentials are looked up by.
func (c *Config) Host() (string, error) {
	u, err := url.Parse(c.URL)
	if err != nil {
		return "", fmt.Errorf("invalid url %q: %w", c.URL, err)
	}
	if u.Hostname() == "" {
		return "", fmt.Errorf("url %q has no host", c.URL)
	}
	return u.Hostname(), nil
}

// RequestTimeout returns the per-request timeout, zero meaning the transport default.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}

// IssuesDir returns the directory issue documents are written to.
func (c *Config) IssuesDir() string {
	return filepath.Join(c.Dir, IssuesSubdir)
}

// ProjectsDir returns the directory project documents are written to.
func (c *Config) ProjectsDir() string {
	return filepath.Join(c.Dir, ProjectsSubdir)
}

// AttachmentsDir returns the root directory for downloaded attachments.
func (c *Config) AttachmentsDir() string {
	return filepath.Join(c.Dir, AttachmentsSubdir)
}
