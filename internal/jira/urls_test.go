package jira

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRewriteURL(t *testing.T) {
	tests := []struct {
		name       string
		base       string
		advertised string
		want       string
	}{
		{
			name:       "internal host replaced",
			base:       "https://jira.example.com",
			advertised: "http://localhost:8080/secure/attachment/123/foo.png",
			want:       "https://jira.example.com/secure/attachment/123/foo.png",
		},
		{
			name:       "query preserved",
			base:       "https://jira.example.com",
			advertised: "http://10.0.0.5/secure/attachment/7/a%20b.txt?download=true",
			want:       "https://jira.example.com/secure/attachment/7/a%20b.txt?download=true",
		},
		{
			name:       "base port kept",
			base:       "http://jira.internal:8443/jira",
			advertised: "https://jira.example.com/jira/secure/attachment/1/x.log",
			want:       "http://jira.internal:8443/jira/secure/attachment/1/x.log",
		},
		{
			name:       "relative advertised URL",
			base:       "https://jira.example.com",
			advertised: "/secure/attachment/5/y.txt",
			want:       "https://jira.example.com/secure/attachment/5/y.txt",
		},
		{
			name:       "userinfo dropped",
			base:       "https://jira.example.com",
			advertised: "http://admin:pw@localhost:8080/secure/attachment/2/z",
			want:       "https://jira.example.com/secure/attachment/2/z",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := RewriteURL(tt.base, tt.advertised)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRewriteURL_Errors(t *testing.T) {
	_, err := RewriteURL("https://jira.example.com", "")
	assert.Error(t, err)

	_, err = RewriteURL("jira.example.com", "http://localhost/secure/attachment/1/a")
	assert.Error(t, err)

	_, err = RewriteURL("https://jira.example.com", "http://[::1")
	assert.Error(t, err)
}

func TestEndpoint(t *testing.T) {
	base, err := url.Parse("https://jira.example.com/jira/")
	require.NoError(t, err)

	got := endpoint(base, SearchPath, url.Values{"jql": {"project = A"}})
	assert.Equal(t, "https://jira.example.com/jira/rest/api/2/search?jql=project+%3D+A", got)
}
