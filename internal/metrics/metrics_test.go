// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorderCounts(t *testing.T) {
	r := New()

	r.PageFetched()
	r.PageFetched()
	r.PageFailed(true)
	r.PageFailed(false)
	r.PageFailed(false)
	r.Records("kept", 5)
	r.Records("cutoff", 0)
	r.QueryDone(true, 200*time.Millisecond)
	r.QueryDone(false, time.Second)
	r.Normalized("fallback")

	assert.Equal(t, 2.0, testutil.ToFloat64(r.pages))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.pageFailures.WithLabelValues("first")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.pageFailures.WithLabelValues("later")))
	assert.Equal(t, 5.0, testutil.ToFloat64(r.records.WithLabelValues("kept")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.queries.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.queries.WithLabelValues("failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.normalization.WithLabelValues("fallback")))
}

func TestNilRecorderIsNoop(t *testing.T) {
	var r *Recorder
	assert.NotPanics(t, func() {
		r.PageFetched()
		r.PageFailed(true)
		r.Records("kept", 3)
		r.QueryDone(true, time.Second)
		r.Normalized("llm")
	})
	assert.Nil(t, r.Registry())
	assert.NoError(t, r.WriteTextfile(filepath.Join(t.TempDir(), "none.prom")))
}

func TestWriteTextfile(t *testing.T) {
	r := New()
	r.PageFetched()

	path := filepath.Join(t.TempDir(), "run.prom")
	require.NoError(t, r.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "trialscope_registry_pages_total 1")
}
