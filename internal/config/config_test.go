package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func validConfig() Config {
	cfg := Defaults()
	cfg.URL = "https://jira.example.com"
	return cfg
}

func TestLoadConfig_ValidJSON(t *testing.T) {
	path := writeConfigFile(t, "config.json", `{
		"url": "https://jira.example.com",
		"jql": "project = PROJ",
		"dir": "out",
		"max_results": 50,
		"max_overall": 200,
		"attachments": true,
		"rate_limit": 2.5,
		"verbose": true
	}`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "https://jira.example.com", cfg.URL)
	assert.Equal(t, "project = PROJ", cfg.JQL)
	assert.Equal(t, "out", cfg.Dir)
	assert.Equal(t, 50, cfg.MaxResults)
	assert.Equal(t, 200, cfg.MaxOverall)
	assert.True(t, cfg.Attachments)
	assert.InDelta(t, 2.5, cfg.RateLimit, 0.0001)
	assert.True(t, cfg.Verbose)
}

func TestLoadConfig_ValidYAML(t *testing.T) {
	path := writeConfigFile(t, "config.yaml", `
url: https://jira.example.com
jql: "status = Done"
max_results: 25
insecure: true
netrc: /etc/jira.netrc
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "https://jira.example.com", cfg.URL)
	assert.Equal(t, "status = Done", cfg.JQL)
	assert.Equal(t, 25, cfg.MaxResults)
	assert.True(t, cfg.Insecure)
	assert.Equal(t, "/etc/jira.netrc", cfg.Netrc)
}

func TestLoadConfig_ValidTOML(t *testing.T) {
	path := writeConfigFile(t, "config.toml", `
url = "https://jira.example.com"
dir = "archive"
max_overall = 10
timeout_seconds = 30
database_url = "postgres://localhost/jira"
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "archive", cfg.Dir)
	assert.Equal(t, 10, cfg.MaxOverall)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout())
	assert.Equal(t, "postgres://localhost/jira", cfg.DatabaseURL)
}

func TestLoadConfig_InvalidJSON(t *testing.T) {
	path := writeConfigFile(t, "config.json", `{ invalid json }`)

	cfg, err := LoadConfig(path)
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to parse config JSON")
}

func TestLoadConfig_UnsupportedExtension(t *testing.T) {
	path := writeConfigFile(t, "config.ini", `url=https://jira.example.com`)

	cfg, err := LoadConfig(path)
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "unsupported config format")
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	cfg, err := LoadConfig("/nonexistent/path/config.json")
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoadConfig_EmptyPath(t *testing.T) {
	cfg, err := LoadConfig("")
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "config path is empty")
}

func TestValidate_ValidConfig(t *testing.T) {
	cfg := validConfig()
	assert.NoError(t, cfg.Validate())
}

func TestValidate_MissingURL(t *testing.T) {
	cfg := Defaults()

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "'url' is required")
}

func TestValidate_NonHTTPURL(t *testing.T) {
	cfg := validConfig()
	cfg.URL = "ftp://jira.example.com"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "'url' must be an absolute http(s) URL")
}

func TestValidate_NonPositiveLimits(t *testing.T) {
	cfg := validConfig()
	cfg.MaxResults = -1

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "'max_results' must be >= 1")

	cfg = validConfig()
	cfg.RateLimit = -0.5
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate_limit")
}

func TestValidate_MissingTemplateFile(t *testing.T) {
	cfg := validConfig()
	cfg.ProjectTemplate = "/nonexistent/project.md.tmpl"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "project_template file not found")
}

func TestLoadConfig_OmittedKeysKeepDefaults(t *testing.T) {
	path := writeConfigFile(t, "config.yaml", "url: https://jira.example.com\n")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, DefaultDir, cfg.Dir)
	assert.Equal(t, DefaultMaxResults, cfg.MaxResults)
	assert.Equal(t, DefaultMaxOverall, cfg.MaxOverall)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig_ExplicitZeroLimitsRejected(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		field   string
	}{
		{"yaml max_results", "config.yaml", "url: https://jira.example.com\nmax_results: 0\n", "max_results"},
		{"json max_overall", "config.json", `{"url": "https://jira.example.com", "max_overall": 0}`, "max_overall"},
		{"toml max_results", "config.toml", "url = \"https://jira.example.com\"\nmax_results = 0\n", "max_results"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadConfig(writeConfigFile(t, tt.file, tt.content))
			require.NoError(t, err)

			err = cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), "'"+tt.field+"' must be >= 1")
		})
	}
}

func TestHost(t *testing.T) {
	cfg := Config{URL: "https://jira.example.com:8443/jira"}
	host, err := cfg.Host()
	require.NoError(t, err)
	assert.Equal(t, "jira.example.com", host)

	cfg.URL = "/relative/only"
	_, err = cfg.Host()
	assert.Error(t, err)
}

func TestOutputDirs(t *testing.T) {
	cfg := Config{Dir: "site"}

	assert.Equal(t, filepath.Join("site", "issues"), cfg.IssuesDir())
	assert.Equal(t, filepath.Join("site", "projects"), cfg.ProjectsDir())
	assert.Equal(t, filepath.Join("site", "attachments"), cfg.AttachmentsDir())
}
