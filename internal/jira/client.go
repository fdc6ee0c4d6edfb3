// Package jira provides a thin client for the JIRA REST search API and for
// downloading attachment content.
package jira

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/jonathan/jira-export/internal/credentials"
	"github.com/jonathan/jira-export/internal/schemas"
	"github.com/jonathan/jira-export/internal/types"
	"golang.org/x/time/rate"
)

// SearchPath is the search endpoint relative to the base URL.
const SearchPath = "/rest/api/2/search"

// DefaultUserAgent is the user agent string for API requests.
const DefaultUserAgent = "jira-export/1.0"

// Options configures the client.
type Options struct {
	// Timeout per request. Zero leaves the transport default (no timeout).
	Timeout time.Duration

	UserAgent string

	// Insecure skips TLS certificate verification.
	Insecure bool

	// RateLimit paces requests to at most this many per second. Zero disables pacing.
	RateLimit float64

	// Trace receives a wire-level dump of request and response headers.
	Trace io.Writer

	// Transport overrides the HTTP transport (tests).
	Transport http.RoundTripper
}

// DefaultOptions returns sensible defaults for the client.
func DefaultOptions() *Options {
	return &Options{UserAgent: DefaultUserAgent}
}

// Client issues authenticated GET requests against one tracker instance.
// Requests are never retried.
type Client struct {
	baseURL    *url.URL
	creds      credentials.Credentials
	userAgent  string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient creates a client for baseURL authenticating with HTTP Basic auth.
func NewClient(baseURL string, creds credentials.Credentials, opts *Options) (*Client, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	parsed, err := url.Parse(baseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, &Error{URL: baseURL, Message: "invalid base URL", Cause: err}
	}

	transport := opts.Transport
	if transport == nil {
		base := http.DefaultTransport.(*http.Transport).Clone()
		if opts.Insecure {
			base.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // opt-in via --insecure
		}
		transport = base
	}
	if opts.Trace != nil {
		transport = &traceTransport{next: transport, w: opts.Trace}
	}

	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	var limiter *rate.Limiter
	if opts.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	}

	return &Client{
		baseURL:   parsed,
		creds:     creds,
		userAgent: userAgent,
		httpClient: &http.Client{
			Timeout:   opts.Timeout,
			Transport: transport,
		},
		limiter: limiter,
	}, nil
}

// BaseURL returns the configured base URL.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// SearchRequest describes one call to the search endpoint.
type SearchRequest struct {
	JQL        string
	MaxResults int
	StartAt    int
	AllFields  bool     // fields=*all
	Expand     []string // e.g. renderedFields
}

func (r SearchRequest) query() url.Values {
	q := url.Values{}
	q.Set("jql", r.JQL)
	q.Set("maxResults", strconv.Itoa(r.MaxResults))
	q.Set("startAt", strconv.Itoa(r.StartAt))
	if r.AllFields {
		q.Set("fields", "*all")
	}
	if len(r.Expand) > 0 {
		q.Set("expand", strings.Join(r.Expand, ","))
	}
	return q
}

// Search performs one search call and returns the decoded page. Issues are
// decoded with json.Number so numeric fields keep their original text.
func (c *Client) Search(ctx context.Context, req SearchRequest) (*types.SearchPage, error) {
	target := endpoint(c.baseURL, SearchPath, req.query())

	resp, err := c.get(ctx, target, "application/json")
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{URL: target, StatusCode: resp.StatusCode, Message: "failed to read response body", Cause: err}
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var page types.SearchPage
	if err := dec.Decode(&page); err != nil {
		return nil, &Error{URL: target, StatusCode: resp.StatusCode, Message: "malformed JSON response", Cause: err}
	}
	if err := schemas.ValidateSearchPage(body); err != nil {
		return nil, &Error{URL: target, StatusCode: resp.StatusCode, Message: "unexpected search response", Cause: err}
	}

	return &page, nil
}

// Download fetches rawURL and writes the body to dest. The body goes to a
// temporary file in dest's directory first and is renamed into place once
// complete, so an interrupted download never leaves a non-empty file behind.
// The parent directory must exist.
func (c *Client) Download(ctx context.Context, rawURL, dest string) (int64, error) {
	resp, err := c.get(ctx, rawURL, "*/*")
	if err != nil {
		return 0, err
	}
	defer func() { _ = resp.Body.Close() }()

	tmp, err := os.CreateTemp(filepath.Dir(dest), ".download-*")
	if err != nil {
		return 0, fmt.Errorf("create temp file for %s: %w", dest, err)
	}
	tmpPath := tmp.Name()
	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	n, err := io.Copy(tmp, resp.Body)
	if err != nil {
		return 0, &Error{URL: rawURL, StatusCode: resp.StatusCode, Message: "failed to read response body", Cause: err}
	}
	// CreateTemp creates the file 0600.
	if err := tmp.Chmod(0644); err != nil {
		return 0, fmt.Errorf("set mode of temp file for %s: %w", dest, err)
	}
	if err := tmp.Close(); err != nil {
		return 0, fmt.Errorf("close temp file for %s: %w", dest, err)
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		return 0, fmt.Errorf("move download into place at %s: %w", dest, err)
	}
	success = true

	return n, nil
}

// get performs an authenticated GET and returns the response for a 2xx
// status. The caller closes the body.
func (c *Client) get(ctx context.Context, target, accept string) (*http.Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &Error{URL: target, Message: "rate limiter", Cause: err}
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, &Error{URL: target, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", accept)
	req.Header.Set("Content-Type", "application/json")
	if c.creds.Username != "" || c.creds.Password != "" {
		req.SetBasicAuth(c.creds.Username, c.creds.Password)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &Error{URL: target, Message: "HTTP request failed", Cause: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		_ = resp.Body.Close()
		msg := fmt.Sprintf("HTTP status %d", resp.StatusCode)
		if text := strings.TrimSpace(string(body)); text != "" {
			msg += ": " + text
		}
		return nil, &Error{URL: target, StatusCode: resp.StatusCode, Message: msg}
	}

	return resp, nil
}
