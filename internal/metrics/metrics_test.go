package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/venue-planner/constants"
	"github.com/joseph-ayodele/venue-planner/internal/merge"
)

func TestRecorder_Counts(t *testing.T) {
	r := New(false)

	r.JobFinished("venues", constants.JobStatusSucceeded, 2*time.Second)
	r.JobFinished("venues", constants.JobStatusFailed, time.Second)
	r.JobFinished("venues", constants.JobStatusSucceeded, time.Second)
	r.BatchCompleted("venues", 4)
	r.Depth("vendors", 3)
	r.MergeApplied("venue", merge.Summary{Added: 2, Updated: 1})
	r.SyncFinished("poll", true)
	r.SyncFinished("push", false)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.jobs.WithLabelValues("venues", "SUCCEEDED")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.jobs.WithLabelValues("venues", "FAILED")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.batches.WithLabelValues("venues")))
	assert.Equal(t, 3.0, testutil.ToFloat64(r.depth.WithLabelValues("vendors")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.merged.WithLabelValues("venue", "added")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.merged.WithLabelValues("venue", "updated")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.syncs.WithLabelValues("push", "error")))
}

func TestRecorder_Handler(t *testing.T) {
	r := New(true)
	r.SyncFinished("connect", true)

	srv := httptest.NewServer(r.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `planner_sync_operations_total{op="connect",result="ok"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}
