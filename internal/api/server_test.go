package api

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/voltseed/pkg/buildinfo"
	"github.com/matzehuels/voltseed/pkg/cache"
	voltErrors "github.com/matzehuels/voltseed/pkg/errors"
	"github.com/matzehuels/voltseed/pkg/observability"
	"github.com/matzehuels/voltseed/pkg/observability/prom"
	"github.com/matzehuels/voltseed/pkg/pipeline"
	"github.com/matzehuels/voltseed/pkg/store"
)

const feederJSON = `{
  "name": "feeder",
  "buses": [
    {"id": 0, "vn_kv": 220},
    {"id": 1, "vn_kv": 110},
    {"id": 2, "vn_kv": 110}
  ],
  "ext_grids": [{"bus": 0, "vm_pu": 1.02, "va_degree": 5}],
  "transformers": [{"hv_bus": 0, "lv_bus": 1, "vn_hv_kv": 220, "vn_lv_kv": 110, "shift_degree": 30}]
}`

func discard() *log.Logger { return log.NewWithOptions(io.Discard, log.Options{}) }

func newTestServer(t *testing.T, withStore bool) *Server {
	t.Helper()
	var runs store.Store
	if withStore {
		fs, err := store.NewFileStore(t.TempDir())
		require.NoError(t, err)
		runs = fs
	}
	return New(Config{
		Runner:   pipeline.NewRunner(nil, nil, runs, discard()),
		Gatherer: prometheus.NewRegistry(),
	})
}

func do(t *testing.T, s *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var e ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &e))
	return e
}

func TestHealth(t *testing.T) {
	rec := do(t, newTestServer(t, false), http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestVersion(t *testing.T) {
	rec := do(t, newTestServer(t, false), http.MethodGet, "/version", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, buildinfo.UserAgent(), rec.Header().Get("Server"))

	var info buildinfo.Info
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	assert.Equal(t, buildinfo.Get(), info)
}

func TestEstimate(t *testing.T) {
	s := newTestServer(t, true)

	rec := do(t, s, http.MethodPost, "/v1/estimate", feederJSON)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp EstimateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.RunID)
	assert.NotEmpty(t, resp.NetworkHash)
	assert.False(t, resp.Cached)
	assert.Equal(t, 1, resp.Stats.Resolved)
	assert.Equal(t, 1, resp.Stats.Unresolved)
	assert.Equal(t, []string{"1 buses have no estimate"}, resp.Warnings)

	require.NotNil(t, resp.Result)
	v, ok := resp.Result.Get(1)
	require.True(t, ok)
	assert.InDelta(t, 1.02, v.VmPU, 1e-12)
	assert.InDelta(t, -25.0, v.VaDegree, 1e-12)
	assert.False(t, resp.Result.Resolved(2))

	// Raw output keeps unresolved buses as explicit nulls.
	assert.Contains(t, rec.Body.String(), `{"bus":2,"vm_pu":null,"va_degree":null}`)
}

func TestEstimateFillAndCache(t *testing.T) {
	s := newTestServer(t, false)
	c, err := cache.NewFileCache(t.TempDir())
	require.NoError(t, err)
	s.runner.Cache = c

	first := do(t, s, http.MethodPost, "/v1/estimate?fill=true", feederJSON)
	require.Equal(t, http.StatusOK, first.Code, first.Body.String())

	var resp EstimateResponse
	require.NoError(t, json.Unmarshal(first.Body.Bytes(), &resp))
	assert.Empty(t, resp.RunID, "no store, no run ID")
	assert.Equal(t, 0, resp.Stats.Unresolved)
	assert.Equal(t, 1, resp.Stats.Filled)
	assert.Equal(t, []string{}, resp.Warnings)

	second := do(t, s, http.MethodPost, "/v1/estimate?fill=true", feederJSON)
	require.Equal(t, http.StatusOK, second.Code)
	require.NoError(t, json.Unmarshal(second.Body.Bytes(), &resp))
	assert.True(t, resp.Cached)
}

func TestEstimateBadRequests(t *testing.T) {
	s := newTestServer(t, false)

	tests := []struct {
		name   string
		target string
		body   string
		code   voltErrors.Code
	}{
		{"malformed json", "/v1/estimate", `{"buses": [`, voltErrors.ErrCodeInvalidFormat},
		{"empty body", "/v1/estimate", ``, voltErrors.ErrCodeInvalidFormat},
		{"duplicate bus", "/v1/estimate", `{"buses": [{"id": 1, "vn_kv": 20}, {"id": 1, "vn_kv": 20}]}`, voltErrors.ErrCodeInvalidNetwork},
		{"unknown bus", "/v1/estimate", `{"buses": [{"id": 1, "vn_kv": 20}], "ext_grids": [{"bus": 9, "vm_pu": 1}]}`, voltErrors.ErrCodeInvalidNetwork},
		{"bad fill", "/v1/estimate?fill=maybe", feederJSON, voltErrors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, http.MethodPost, tt.target, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			e := decodeError(t, rec)
			assert.Equal(t, tt.code, e.Code)
			assert.NotEmpty(t, e.Message)
		})
	}
}

// zeroRatedJSON steps a 220 kV grid down through a transformer rated 0 kV on
// its LV side, which puts +Inf on bus 1.
const zeroRatedJSON = `{
  "name": "zero-rated",
  "buses": [{"id": 0, "vn_kv": 220}, {"id": 1, "vn_kv": 110}],
  "ext_grids": [{"bus": 0, "vm_pu": 1}],
  "transformers": [{"hv_bus": 0, "lv_bus": 1, "vn_hv_kv": 220, "vn_lv_kv": 0}]
}`

func TestEstimateNonFiniteWithStore(t *testing.T) {
	for _, withStore := range []bool{false, true} {
		s := newTestServer(t, withStore)

		rec := do(t, s, http.MethodPost, "/v1/estimate", zeroRatedJSON)
		require.Equal(t, http.StatusBadRequest, rec.Code, "store=%v: %s", withStore, rec.Body.String())
		assert.Equal(t, voltErrors.ErrCodeInvalidNetwork, decodeError(t, rec).Code)

		if withStore {
			rec = do(t, s, http.MethodGet, "/v1/runs", "")
			require.Equal(t, http.StatusOK, rec.Code)
			var runs []RunSummary
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &runs))
			assert.Empty(t, runs, "a non-finite result must not be saved")
		}
	}
}

func TestGetRun(t *testing.T) {
	s := newTestServer(t, true)

	rec := do(t, s, http.MethodPost, "/v1/estimate", feederJSON)
	require.Equal(t, http.StatusOK, rec.Code)
	var posted EstimateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &posted))

	rec = do(t, s, http.MethodGet, "/v1/runs/"+posted.RunID, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var got EstimateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, posted.RunID, got.RunID)
	assert.Equal(t, posted.NetworkHash, got.NetworkHash)
	assert.Equal(t, posted.Result.Rows(), got.Result.Rows())

	rec = do(t, s, http.MethodGet, "/v1/runs/"+uuid.NewString(), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, voltErrors.ErrCodeNotFound, decodeError(t, rec).Code)

	rec = do(t, s, http.MethodGet, "/v1/runs/not-a-uuid", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListRuns(t *testing.T) {
	s := newTestServer(t, true)
	for _, target := range []string{"/v1/estimate", "/v1/estimate?fill=true"} {
		rec := do(t, s, http.MethodPost, target, feederJSON)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := do(t, s, http.MethodGet, "/v1/runs", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var runs []RunSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &runs))
	require.Len(t, runs, 2)
	assert.Equal(t, "feeder", runs[0].Network)
	assert.Equal(t, 3, runs[0].Buses)

	rec = do(t, s, http.MethodGet, "/v1/runs?limit=1", "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &runs))
	assert.Len(t, runs, 1)

	rec = do(t, s, http.MethodGet, "/v1/runs?limit=-1", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, newTestServer(t, false), http.MethodGet, "/v1/runs", "")
	assert.Equal(t, http.StatusNotImplemented, rec.Code)
}

func TestRender(t *testing.T) {
	s := newTestServer(t, false)

	rec := do(t, s, http.MethodPost, "/v1/render?format=dot&voltages=true", feederJSON)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "text/vnd.graphviz; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "graph G {"))
	assert.Contains(t, rec.Body.String(), "1.0200 pu ∠ -25.00°")

	rec = do(t, s, http.MethodPost, "/v1/render?format=gif", feederJSON)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, voltErrors.ErrCodeInvalidInput, decodeError(t, rec).Code)
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	prom.New(reg).Install()
	t.Cleanup(observability.Reset)

	s := New(Config{
		Runner:   pipeline.NewRunner(nil, nil, nil, discard()),
		Gatherer: reg,
	})

	require.Equal(t, http.StatusOK, do(t, s, http.MethodPost, "/v1/estimate", feederJSON).Code)
	do(t, s, http.MethodGet, "/v1/runs/"+uuid.NewString(), "")

	rec := do(t, s, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `voltseed_estimates_total{outcome="ok"} 1`)
	assert.Contains(t, body, `voltseed_http_requests_total{method="POST",route="/v1/estimate",status="200"} 1`)
	assert.Contains(t, body, `route="/v1/runs/{id}"`)
}
