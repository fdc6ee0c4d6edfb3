package jira

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/http/httputil"
	"regexp"
	"strings"
	"sync"
)

var authHeader = regexp.MustCompile(`(?mi)^(Authorization:\s*\S+)\s+.*$`)

// maxTraceBody caps how much of a response body is written to the trace.
const maxTraceBody = 64 << 10

// traceTransport dumps requests and responses to w. Response bodies are
// included for REST API calls, up to maxTraceBody bytes; attachment content
// is never dumped.
type traceTransport struct {
	next http.RoundTripper
	w    io.Writer
	mu   sync.Mutex
}

//nolint:errcheck // trace output is best effort
func (t *traceTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if dump, err := httputil.DumpRequestOut(req, false); err == nil {
		t.write("-> ", authHeader.ReplaceAll(dump, []byte("$1 [redacted]")))
	}

	resp, err := t.next.RoundTrip(req)
	if err != nil {
		t.mu.Lock()
		fmt.Fprintf(t.w, "<- error: %v\n", err)
		t.mu.Unlock()
		return nil, err
	}

	dump, err := httputil.DumpResponse(resp, false)
	if err != nil {
		return resp, nil
	}
	if strings.Contains(req.URL.Path, "/rest/") {
		head, readErr := io.ReadAll(io.LimitReader(resp.Body, maxTraceBody+1))
		resp.Body = replayBody{Reader: io.MultiReader(bytes.NewReader(head), resp.Body), Closer: resp.Body}
		if readErr == nil {
			if len(head) > maxTraceBody {
				head = append(head[:maxTraceBody:maxTraceBody], "\n... [truncated]"...)
			}
			dump = append(dump, head...)
		}
	}
	t.write("<- ", dump)
	return resp, nil
}

// replayBody serves the already traced prefix of a body before the rest.
type replayBody struct {
	io.Reader
	io.Closer
}

//nolint:errcheck // trace output is best effort
func (t *traceTransport) write(prefix string, dump []byte) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintf(t.w, "%s%s\n", prefix, dump)
}
