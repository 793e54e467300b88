package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mediajob/worker-sdk/internal/exchange"
	"github.com/mediajob/worker-sdk/pkg/job"
)

type fakeStatusSource struct {
	report exchange.StatusReport
}

func (f fakeStatusSource) StatusReport(context.Context) exchange.StatusReport {
	return f.report
}

func newTestServer(t *testing.T, source StatusSource) *httptest.Server {
	t.Helper()
	s := NewServer(ServerConfig{Host: "127.0.0.1", Port: 0, ShutdownTimeout: time.Second}, source, nil)
	return httptest.NewServer(s.httpServer.Handler)
}

func TestHealthz_ReturnsOK(t *testing.T) {
	srv := newTestServer(t, fakeStatusSource{})
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Status string `json:"status"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body.Status)
}

func TestStatus_ReflectsSource(t *testing.T) {
	source := fakeStatusSource{report: exchange.StatusReport{
		Activity: exchange.ActivityBusy,
		System:   exchange.SystemSnapshot{Hostname: "worker-1", CPUPercent: 12.5, MemoryUsed: 100, MemoryTotal: 1000},
		Current:  job.NewJobResult(42),
	}}
	srv := newTestServer(t, source)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/status")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body statusBody
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "busy", body.Activity)
	assert.Equal(t, "worker-1", body.Hostname)
	require.NotNil(t, body.CurrentJob)
	assert.Equal(t, uint64(42), *body.CurrentJob)
}

func TestStatus_NoCurrentJobOmitsField(t *testing.T) {
	srv := newTestServer(t, fakeStatusSource{report: exchange.StatusReport{Activity: exchange.ActivityIdle}})
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/status")
	require.NoError(t, err)
	defer resp.Body.Close()

	var body statusBody
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Nil(t, body.CurrentJob)
}
