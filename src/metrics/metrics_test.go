package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrewyi/dirfetch/src/entity"
)

func TestCollectorCounts(t *testing.T) {
	c := NewCollector()

	c.SetListing(3, 300)
	c.ProbeFinished("a", true)
	c.ProbeFinished("b", false)

	c.FileStarted("a", 100)
	c.FileStarted("b", 200)
	assert.Equal(t, 2.0, testutil.ToFloat64(c.inFlight))

	c.BytesTransferred("a", 100)
	c.BytesTransferred("b", 50)
	c.FileFinished("a", true)
	c.FileFinished("b", false)
	require.NoError(t, c.RecordResult(entity.DownloadResult{URL: "a", Success: true, Bytes: 100}))
	require.NoError(t, c.RecordResult(entity.DownloadResult{URL: "b", Bytes: 50}))
	// failed before any byte was streamed, no FileStarted/FileFinished
	require.NoError(t, c.RecordResult(entity.DownloadResult{URL: "c"}))

	assert.Equal(t, 3.0, testutil.ToFloat64(c.listedFiles))
	assert.Equal(t, 300.0, testutil.ToFloat64(c.listedBytes))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.probes.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.probes.WithLabelValues("failure")))
	assert.Equal(t, 150.0, testutil.ToFloat64(c.bytes))
	assert.Equal(t, 0.0, testutil.ToFloat64(c.inFlight))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.files.WithLabelValues("success")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.files.WithLabelValues("failure")))
}

func TestHandlerExposesMetrics(t *testing.T) {
	c := NewCollector()
	c.BytesTransferred("a", 42)

	srv := httptest.NewServer(c.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Contains(t, string(body), "dirfetch_downloaded_bytes_total 42")
	assert.Contains(t, string(body), "dirfetch_downloads_in_flight 0")
}
