package jira

import (
	"fmt"
	"net/url"
	"strings"
)

// RewriteURL returns advertised with its scheme and host replaced by those of
// base. Some servers echo an internal address (e.g. http://localhost:8080) in
// attachment content URLs; the path and query are kept as advertised.
func RewriteURL(base, advertised string) (string, error) {
	if strings.TrimSpace(advertised) == "" {
		return "", fmt.Errorf("empty attachment URL")
	}

	b, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid base URL %q: %w", base, err)
	}
	if b.Scheme == "" || b.Host == "" {
		return "", fmt.Errorf("base URL %q must be absolute", base)
	}

	a, err := url.Parse(advertised)
	if err != nil {
		return "", fmt.Errorf("invalid attachment URL %q: %w", advertised, err)
	}

	a.Scheme = b.Scheme
	a.Host = b.Host
	a.User = nil
	return a.String(), nil
}

// endpoint joins an API path onto the base URL, keeping any context path the
// base carries (e.g. https://example.com/jira).
func endpoint(base *url.URL, path string, query url.Values) string {
	u := *base
	u.Path = strings.TrimSuffix(base.Path, "/") + "/" + strings.TrimPrefix(path, "/")
	u.RawPath = ""
	u.RawQuery = query.Encode()
	u.Fragment = ""
	return u.String()
}
