package server

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chris-regnier/warden/internal/cache"
	"github.com/chris-regnier/warden/internal/engine"
	"github.com/chris-regnier/warden/internal/metrics"
	"github.com/chris-regnier/warden/internal/module"
	"github.com/chris-regnier/warden/internal/sarif"
	"github.com/chris-regnier/warden/internal/violation"
)

const treeYAML = `
name: Checker
children:
  - name: RegexpSingleline
    id: no-exit
    properties:
      format: System\.exit
      message: Do not call System.exit.
`

func newTestServer(t *testing.T, opts ...Option) (*httptest.Server, *metrics.Collector) {
	t.Helper()
	root, err := module.Parse([]byte(treeYAML))
	require.NoError(t, err)
	collector := metrics.NewCollector()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	eng, err := engine.New(root, engine.DefaultRegistry(),
		engine.WithLogger(logger),
		engine.WithRecorder(metrics.NewRecorder(collector)))
	require.NoError(t, err)

	opts = append([]Option{WithLogger(logger), WithCollector(collector), WithVersion("test")}, opts...)
	srv := httptest.NewServer(New(eng, opts...).Handler())
	t.Cleanup(srv.Close)
	return srv, collector
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func checkRequest(format string) CheckRequest {
	return CheckRequest{
		Format: format,
		Files: []FileInput{
			{Path: "A.java", Source: "class A {\n  void m() { System.exit(1); }\n}\n"},
			{Path: "B.java", Source: "class B {}\n"},
			{Path: "notes.txt", Source: "System.exit"},
		},
	}
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)
	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, map[string]string{"status": "ok", "version": "test"}, body)
}

func TestCheckJSON(t *testing.T) {
	srv, collector := newTestServer(t)
	resp := postJSON(t, srv.URL+"/v1/check", checkRequest(""))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body CheckResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Results, 2, "files with other extensions are skipped")
	require.Len(t, body.Results[0].Violations, 1)
	v := body.Results[0].Violations[0]
	assert.Equal(t, 2, v.Line)
	assert.Equal(t, "Do not call System.exit.", v.Message)
	assert.Equal(t, violation.SeverityError, v.Severity)
	assert.Equal(t, "no-exit", v.ModuleID)
	assert.Empty(t, body.Results[1].Violations)
	assert.Equal(t, 1, body.Summary.Errors)

	assert.EqualValues(t, 2, collector.GetStats().TotalFiles)
}

func TestCheckPlain(t *testing.T) {
	srv, _ := newTestServer(t)
	resp := postJSON(t, srv.URL+"/v1/check", checkRequest("plain"))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "A.java:2: Do not call System.exit.\n", string(data))
}

func TestCheckSARIF(t *testing.T) {
	srv, _ := newTestServer(t)
	resp := postJSON(t, srv.URL+"/v1/check", checkRequest("sarif"))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var log sarif.Log
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&log))
	results := log.Results()
	require.Len(t, results, 1)
	assert.Equal(t, "no-exit", results[0].RuleID)
	assert.Equal(t, "error", results[0].Level)
	assert.Equal(t, "A.java", results[0].URI())
}

func TestCheckBadRequests(t *testing.T) {
	srv, _ := newTestServer(t)
	tests := []struct {
		name string
		body string
		want string
	}{
		{"malformed", "{", "invalid request body"},
		{"no files", `{"files":[]}`, "no files to check"},
		{"missing path", `{"files":[{"source":"x"}]}`, "files[0]: path is required"},
		{"unknown format", `{"files":[{"path":"A.java"}],"format":"xml"}`, `unknown format "xml"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Post(srv.URL+"/v1/check", "application/json", strings.NewReader(tt.body))
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			var e errorResponse
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&e))
			assert.Contains(t, e.Error, tt.want)
		})
	}
}

func TestModules(t *testing.T) {
	srv, _ := newTestServer(t)
	resp, err := http.Get(srv.URL + "/v1/modules")
	require.NoError(t, err)
	defer resp.Body.Close()

	var mods []engine.ModuleInfo
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&mods))
	require.NotEmpty(t, mods)
	var names []string
	for _, m := range mods {
		names = append(names, m.Name)
	}
	assert.Contains(t, names, "RegexpSingleline")
}

func TestToken(t *testing.T) {
	srv, _ := newTestServer(t, WithToken("s3cret"))

	resp, err := http.Get(srv.URL + "/v1/modules")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/v1/modules", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer s3cret")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode, "health is open")
}

func TestStatsWithoutCollector(t *testing.T) {
	root, err := module.Parse([]byte(treeYAML))
	require.NoError(t, err)
	eng, err := engine.New(root, engine.DefaultRegistry())
	require.NoError(t, err)
	srv := httptest.NewServer(New(eng).Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/v1/stats")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCacheEndpointsNeedCache(t *testing.T) {
	srv, _ := newTestServer(t)
	resp, err := http.Get(srv.URL + "/v1/cache/stats")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

// The remote cache client and the server agree on the wire format.
func TestRemoteCacheAgainstServer(t *testing.T) {
	store := cache.NewMemoryCache()
	srv, _ := newTestServer(t, WithCache(store), WithToken("tok"))
	ctx := t.Context()

	client := cache.NewRemoteCache(srv.URL, cache.WithToken("tok"))
	require.NoError(t, client.Ping(ctx))

	key := cache.CacheKey{FileHash: cache.ContentHash("class A {}"), Fingerprint: "cfg", Version: "test"}
	_, err := client.Get(ctx, key)
	assert.ErrorIs(t, err, cache.ErrCacheMiss)

	entry := &cache.CacheEntry{Key: key, Violations: violation.List{
		{Line: 1, Severity: violation.SeverityWarning, Message: "m", Source: "RegexpSingleline"},
	}}
	require.NoError(t, client.Put(ctx, entry))

	got, err := client.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, entry.Violations, got.Violations)

	stats, err := client.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Size)
	assert.EqualValues(t, 1, stats.Hits)

	require.NoError(t, client.Delete(ctx, key))
	_, err = client.Get(ctx, key)
	assert.ErrorIs(t, err, cache.ErrCacheMiss)
}

func TestCachePutKeyMismatch(t *testing.T) {
	srv, _ := newTestServer(t, WithCache(cache.NewMemoryCache()))
	entry := cache.CacheEntry{Key: cache.CacheKey{FileHash: "a", Fingerprint: "b", Version: "c"}}
	data, err := json.Marshal(entry)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPut, srv.URL+"/v1/cache/deadbeef", bytes.NewReader(data))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
