// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/trialscope/pkg/types"
)

func TestNewLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "run.log")
	l, closer, err := newLogger("debug", "json", path)
	require.NoError(t, err)
	require.NotNil(t, closer)
	l.Debug("hello", "k", "v")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"hello"`)

	_, _, err = newLogger("loud", "text", "")
	assert.Error(t, err)
	_, _, err = newLogger("info", "xml", "")
	assert.Error(t, err)
}

func TestWriteArtifacts(t *testing.T) {
	dir := t.TempDir()
	res := &types.RunResult{
		Metadata: types.RunMetadata{
			RunID:           "run-7",
			Timestamp:       time.Date(2026, 5, 4, 3, 2, 1, 0, time.UTC),
			DiseasesQueried: []string{"Asthma"},
		},
		ResultsByDisease: map[string]*types.QueryResult{
			"Asthma": {Disease: "Asthma", Studies: []types.TrialSummary{{NCTID: "NCT1", OverallStatus: "COMPLETED"}}},
		},
		FailedQueries: []string{},
	}
	out := types.OutputConfig{
		Dir:      dir,
		Basename: "trials",
		Formats:  []types.OutputFormat{types.OutputJSON, types.OutputSQLite, types.OutputCSV, types.OutputMarkdown, types.OutputHTML},
	}

	written, err := writeArtifacts(context.Background(), out, res)
	require.NoError(t, err)

	stem := filepath.Join(dir, "trials_20260504_030201")
	assert.ElementsMatch(t, []string{
		stem + ".json",
		filepath.Join(dir, "trials.db"),
		stem + "_summary.csv",
		stem + "_trials.csv",
		stem + "_report.md",
		stem + "_report.html",
	}, written)
	for _, p := range written {
		assert.FileExists(t, p)
	}
}
