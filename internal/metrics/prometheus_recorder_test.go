package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)
	pr.ObserveStageDuration("parse", 150*time.Millisecond)
	pr.ObserveBuildDuration(500 * time.Millisecond)
	pr.IncStageResult("parse", ResultSuccess)
	pr.IncBuildOutcome("success")
	pr.SetDocuments("published", 12)
	pr.AddFilesEmitted("content-page", 12)
	pr.IncPluginError("crawl-links")
	pr.IncRebuild("watch")

	mfs, err := reg.Gather()
	require.NoError(t, err)
	names := map[string]bool{}
	for _, mf := range mfs {
		names[mf.GetName()] = true
	}
	assert.True(t, names["gardenbuild_stage_duration_seconds"])
	assert.True(t, names["gardenbuild_documents"])
	assert.True(t, names["gardenbuild_preview_rebuilds_total"])
}

func TestPrometheusRecorder_NilSafe(t *testing.T) {
	var pr *PrometheusRecorder
	assert.NotPanics(t, func() {
		pr.ObserveStageDuration("parse", time.Second)
		pr.IncBuildOutcome("failed")
		pr.SetDocuments("published", 1)
	})
}

func TestHTTPHandler(t *testing.T) {
	reg := prom.NewRegistry()
	NewPrometheusRecorder(reg).IncBuildOutcome("success")

	srv := httptest.NewServer(HTTPHandler(reg))
	defer srv.Close()
	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `gardenbuild_build_outcomes_total{outcome="success"} 1`)
}

func TestTestRecorderCounts(t *testing.T) {
	r := newTestRecorder()
	r.IncStageResult("emit", ResultWarning)
	r.IncStageResult("emit", ResultWarning)
	r.SetDocuments("published", 3)
	assert.Equal(t, 2, r.stageResults["emit"][ResultWarning])
	assert.Equal(t, 3, r.documents["published"])
}
