package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRuns_RequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	_, _, err := execute(t, "", "runs")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--db-url or DATABASE_URL is required")
}

func TestRuns_ConnectionFailure(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	_, _, err := execute(t, "", "runs", "--db-url", "postgres://jira@localhost:notaport/ledger")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to connect to database")
}
