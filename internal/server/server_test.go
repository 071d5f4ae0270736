package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/buildmatrix/internal/app"
	"git.home.luguber.info/inful/buildmatrix/internal/config"
	"git.home.luguber.info/inful/buildmatrix/internal/metrics"
)

type fixedSource struct{ comp *app.Composition }

func (f fixedSource) Current() *app.Composition { return f.comp }

func newTestServer(t *testing.T, opts ...Option) *Server {
	t.Helper()
	t.Chdir(t.TempDir())
	cfg, source, err := config.Resolve("")
	require.NoError(t, err)
	comp, err := app.NewComposer().Compose(context.Background(), cfg, source)
	require.NoError(t, err)
	return New(":0", fixedSource{comp: comp}, opts...)
}

func get(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var resp struct {
		Success bool           `json:"success"`
		Data    map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.True(t, resp.Success)
	return resp.Data
}

func TestServer_Registries(t *testing.T) {
	s := newTestServer(t)

	rec := get(t, s, "/packages")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	// Members come back in composition order.
	assert.Regexp(t, `"maxmind".*"cn".*"commit"`, rec.Body.String())

	checks := decodeData(t, get(t, s, "/checks"))
	assert.Len(t, checks, 2)
	assert.Contains(t, checks, "maxmind")
	assert.Contains(t, checks, "cn")
	assert.NotContains(t, checks, "commit")

	apps := decodeData(t, get(t, s, "/apps"))
	assert.Contains(t, apps, "update")
	assert.Contains(t, apps, "cn")
}

func TestServer_EntryLookup(t *testing.T) {
	s := newTestServer(t)

	pkg := decodeData(t, get(t, s, "/packages/cn"))
	assert.Equal(t, "cn", pkg["key"])
	assert.Equal(t, "artifact", pkg["kind"])

	entry := decodeData(t, get(t, s, "/apps/maxmind"))
	assert.Equal(t, "app", entry["type"])
	assert.Equal(t, "maxmind/bin/dcompass", entry["program"])

	def := decodeData(t, get(t, s, "/default"))
	assert.Equal(t, "maxmind", def["key"])

	overlay := decodeData(t, get(t, s, "/overlay"))
	assert.Equal(t, "dcompass", overlay["namespace"])
}

func TestServer_LookupIsExact(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{"/packages/geoip-cn", "/checks/commit", "/apps/CN"} {
		rec := get(t, s, path)
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
		assert.Contains(t, rec.Body.String(), `"code":"not_found"`, path)
	}
}

func TestServer_NoComposition(t *testing.T) {
	s := New(":0", fixedSource{})

	rec := get(t, s, "/packages")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = get(t, s, "/healthz")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"starting"`)
}

func TestServer_IndexAndHealth(t *testing.T) {
	s := newTestServer(t)

	rec := get(t, s, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "<table>")
	assert.Contains(t, rec.Body.String(), `href="/packages/maxmind"`)

	health := decodeData(t, get(t, s, "/healthz"))
	assert.Equal(t, "healthy", health["status"])
	assert.NotEmpty(t, health["composition_id"])
}

func TestServer_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec := metrics.NewPrometheusRecorder(reg)
	rec.IncReload("watch")

	s := newTestServer(t, WithMetrics("/metrics", metrics.HTTPHandler(reg)))
	out := get(t, s, "/metrics")
	require.Equal(t, http.StatusOK, out.Code)
	assert.Contains(t, out.Body.String(), "buildmatrix_reloads_total")
}
