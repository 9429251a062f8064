package api

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/primestress/primestress/internal/worker"
)

type stubReporter struct {
	runID uuid.UUID
	snaps []worker.Snapshot
}

func (r *stubReporter) RunID() uuid.UUID             { return r.runID }
func (r *stubReporter) Snapshots() []worker.Snapshot { return r.snaps }

func newTestServer(t *testing.T, reporter StatusReporter, gatherer prometheus.Gatherer) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(NewServer(reporter, gatherer, zap.NewNop()).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func TestHealthz(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, &stubReporter{}, nil)
	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}

func TestReadyz_NoHarness(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, nil, nil)
	resp, err := http.Get(srv.URL + "/readyz")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestStatus_ReportsWorkers(t *testing.T) {
	t.Parallel()

	runID := uuid.New()
	reporter := &stubReporter{
		runID: runID,
		snaps: []worker.Snapshot{
			{Instance: 0, Method: "inc", State: worker.StateRun, Ops: 42, Digits: 7, Rate: 3.5},
			{Instance: 1, Method: "inc", State: worker.StateRun, Ops: 40, Digits: 7, Rate: 3.1},
		},
	}
	srv := newTestServer(t, reporter, nil)

	resp, err := http.Get(srv.URL + "/v1/status")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body statusResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Equal(t, runID.String(), body.RunID)
	require.Len(t, body.Workers, 2)
	require.Equal(t, uint64(42), body.Workers[0].Ops)
}

func TestMetrics_ServesRegistry(t *testing.T) {
	t.Parallel()

	registry := prometheus.NewRegistry()
	gauge := prometheus.NewGauge(prometheus.GaugeOpts{Name: "primestress_workers_running"})
	registry.MustRegister(gauge)
	gauge.Set(4)

	srv := newTestServer(t, &stubReporter{}, registry)
	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), "primestress_workers_running")
}

func TestMetrics_AbsentWithoutGatherer(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, &stubReporter{}, nil)
	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}
