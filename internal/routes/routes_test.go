package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/karulmca/ScurmBoard/internal/handlers"
	"github.com/karulmca/ScurmBoard/internal/proxy"
	"github.com/karulmca/ScurmBoard/internal/scrumconfig"
)

type hit struct {
	Method     string
	RequestURI string
}

type recorder struct {
	mu   sync.Mutex
	hits []hit
}

func (r *recorder) last() hit {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.hits) == 0 {
		return hit{}
	}
	return r.hits[len(r.hits)-1]
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.hits)
}

func newUpstream(t *testing.T, name string) (*httptest.Server, *recorder) {
	t.Helper()
	rec := &recorder{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.mu.Lock()
		rec.hits = append(rec.hits, hit{Method: r.Method, RequestURI: r.RequestURI})
		rec.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"upstream": name})
	}))
	t.Cleanup(srv.Close)
	return srv, rec
}

func newGateway(t *testing.T, backendURL, configURL string, maxImport int64) *fiber.App {
	t.Helper()
	backend, err := proxy.New(backendURL, proxy.Options{Name: "backend"})
	require.NoError(t, err)
	ups := Upstreams{Backend: backend}
	if configURL != "" {
		cfgProxy, err := proxy.New(configURL, proxy.Options{Name: "config", Unavailable: "Config service unavailable"})
		require.NoError(t, err)
		ups[ConfigService] = cfgProxy
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler,
		BodyLimit:    handlers.MaxImportSize + 1024*1024,
	})
	Setup(app, ups, handlers.NewSystemHandler(nil), handlers.NewImportHandler(backend, maxImport), true)
	return app
}

func TestTable_Consistency(t *testing.T) {
	seen := map[string]bool{}
	for _, route := range Table() {
		key := route.Method + " " + route.Path
		assert.False(t, seen[key], "duplicate route %s", key)
		seen[key] = true

		for _, seg := range strings.Split(route.Path, "/") {
			if strings.HasPrefix(seg, ":") {
				assert.Contains(t, route.Target, seg, "%s drops %s", key, seg)
			}
		}
		assert.True(t, strings.HasPrefix(route.Target, "/"), key)
	}
}

func TestTargetPath(t *testing.T) {
	params := map[string]string{
		"taskId": "T 1",
		"id":     "42",
		"userId": "u%2Fx",
		"key":    "work_item_states",
	}
	get := func(name string) string { return params[name] }

	assert.Equal(t, "/workitems/T%201", TargetPath("/workitems/:taskId", get))
	assert.Equal(t, "/projects/42/access/u%2Fx", TargetPath("/projects/:id/access/:userId", get))
	assert.Equal(t, "/config/work_item_states", TargetPath("/config/:key", get))
	assert.Equal(t, "/reports/daily", TargetPath("/reports/daily", get))
}

func TestSetup_RoutesForwardToUpstream(t *testing.T) {
	backendSrv, backend := newUpstream(t, "backend")
	configSrv, cfg := newUpstream(t, "config")
	app := newGateway(t, backendSrv.URL, configSrv.URL, 0)

	tests := []struct {
		method   string
		path     string
		body     string
		wantURI  string
		toConfig bool
	}{
		{http.MethodGet, "/api/workitems?state=Active&work_item_type=Bug", "", "/workitems?state=Active&work_item_type=Bug", false},
		{http.MethodPost, "/api/workitems", `{"title":"x"}`, "/workitems", false},
		{http.MethodPatch, "/api/workitems/T%201", `{"state":"Active"}`, "/workitems/T%201", false},
		{http.MethodDelete, "/api/workitems/T-1", "", "/workitems/T-1", false},
		{http.MethodGet, "/api/tasks", "", "/tasks", false},
		{http.MethodGet, "/api/tasks/export/excel", "", "/export/excel", false},
		{http.MethodGet, "/api/tasks/T-7/updates", "", "/tasks/T-7/updates", false},
		{http.MethodPatch, "/api/tasks/T-7", `{"status":"Done"}`, "/tasks/T-7", false},
		{http.MethodGet, "/api/reports/weekly", "", "/reports/weekly", false},
		{http.MethodDelete, "/api/organizations/3", "", "/organizations/3", false},
		{http.MethodGet, "/api/projects?org_id=3", "", "/projects?org_id=3", false},
		{http.MethodPost, "/api/projects/9/sprints", `{"name":"S1"}`, "/projects/9/sprints", false},
		{http.MethodPost, "/api/sprints/4/activate", "", "/sprints/4/activate", false},
		{http.MethodPost, "/api/sprints/4/complete", "", "/sprints/4/complete", false},
		{http.MethodPatch, "/api/sprints/4/retrospective", `{"went_well":"all"}`, "/sprints/4/retrospective", false},
		{http.MethodPatch, "/api/roles/11", `{"role":"admin"}`, "/roles/11", false},
		{http.MethodGet, "/api/teams/2/members", "", "/teams/2/members", false},
		{http.MethodPost, "/api/projects/9/teams/2", "", "/projects/9/teams/2", false},
		{http.MethodGet, "/api/projects/9/access/17", "", "/projects/9/access/17", false},
		{http.MethodGet, "/api/config?org_id=5", "", "/config?org_id=5", true},
		{http.MethodGet, "/api/config/defaults", "", "/config/defaults", true},
		{http.MethodPost, "/api/config", `{"config_key":"sub_states","value":[]}`, "/config", true},
		{http.MethodDelete, "/api/config/work_item_states?org_id=5", "", "/config/work_item_states?org_id=5", true},
		{http.MethodGet, "/api/config/priorities?org_id=5", "", "/config/priorities?org_id=5", true},
		{http.MethodPost, "/api/config/priorities", `{"value":[]}`, "/config/priorities", true},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			var body io.Reader
			if tt.body != "" {
				body = strings.NewReader(tt.body)
			}
			req := httptest.NewRequest(tt.method, tt.path, body)
			if tt.body != "" {
				req.Header.Set("Content-Type", "application/json")
			}

			resp, err := app.Test(req, -1)
			require.NoError(t, err)
			resp.Body.Close()
			assert.Equal(t, http.StatusOK, resp.StatusCode)

			rec := backend
			if tt.toConfig {
				rec = cfg
			}
			got := rec.last()
			assert.Equal(t, tt.method, got.Method)
			assert.Equal(t, tt.wantURI, got.RequestURI)
		})
	}
}

func TestSetup_ConfigFallsBackToBackend(t *testing.T) {
	backendSrv, backend := newUpstream(t, "backend")
	app := newGateway(t, backendSrv.URL, "", 0)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/config", nil), -1)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "/config", backend.last().RequestURI)
}

func TestSetup_UnknownRoute(t *testing.T) {
	backendSrv, backend := newUpstream(t, "backend")
	app := newGateway(t, backendSrv.URL, "", 0)

	for _, path := range []string{"/api/nope", "/elsewhere", "/api/reports/yearly"} {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil), -1)
		require.NoError(t, err)
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		assert.Equal(t, http.StatusNotFound, resp.StatusCode, path)
		assert.JSONEq(t, `{"error":"Route not found"}`, string(body))
	}
	assert.Zero(t, backend.count())
}

func TestSetup_RootAndHealth(t *testing.T) {
	backendSrv, _ := newUpstream(t, "backend")
	app := newGateway(t, backendSrv.URL, "", 0)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	var root map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&root))
	assert.Equal(t, "Scrum Board API Gateway", root["name"])
	assert.Equal(t, "running", root["status"])

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
	require.NoError(t, err)
	var health map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	assert.Equal(t, "ok", health["status"])
	assert.Equal(t, "scrum-board", health["gateway"])
	assert.IsType(t, float64(0), health["uptime"])

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.NoError(t, err)
	metricsBody, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(metricsBody), "scrumboard_gateway_inflight_requests")
}

func multipartUpload(t *testing.T, field, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestImport_ForwardsFileBytes(t *testing.T) {
	content := []byte("ID,Work Item Type,Title\n1,Epic,Checkout\n2,Bug,\"Crash, on save\"\n\x00\xff")

	type received struct {
		field, filename, contentType string
		data                         []byte
	}
	var got received
	backendSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/import", r.URL.Path)
		f, fh, err := r.FormFile("file")
		if !assert.NoError(t, err) {
			return
		}
		defer f.Close()
		data, _ := io.ReadAll(f)
		got = received{field: "file", filename: fh.Filename, contentType: fh.Header.Get("Content-Type"), data: data}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"imported": 2, "skipped": 0}`)
	}))
	defer backendSrv.Close()

	app := newGateway(t, backendSrv.URL, "", 0)
	body, ct := multipartUpload(t, "file", "ado dump.csv", content)
	req := httptest.NewRequest(http.MethodPost, "/api/import", body)
	req.Header.Set("Content-Type", ct)

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	respBody, _ := io.ReadAll(resp.Body)

	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.JSONEq(t, `{"imported":2,"skipped":0}`, string(respBody))
	assert.Equal(t, "ado dump.csv", got.filename)
	assert.Equal(t, "application/octet-stream", got.contentType)
	assert.Equal(t, content, got.data)
}

func TestImport_MissingFile(t *testing.T) {
	backendSrv, backend := newUpstream(t, "backend")
	app := newGateway(t, backendSrv.URL, "", 0)

	body, ct := multipartUpload(t, "upload", "dump.csv", []byte("x"))
	req := httptest.NewRequest(http.MethodPost, "/api/import", body)
	req.Header.Set("Content-Type", ct)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	respBody, _ := io.ReadAll(resp.Body)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.JSONEq(t, `{"error":"No file uploaded. Use field name \"file\"."}`, string(respBody))

	resp, err = app.Test(httptest.NewRequest(http.MethodPost, "/api/import", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Zero(t, backend.count())
}

func TestImport_TooLarge(t *testing.T) {
	backendSrv, backend := newUpstream(t, "backend")
	app := newGateway(t, backendSrv.URL, "", 8)

	body, ct := multipartUpload(t, "file", "dump.csv", []byte("0123456789"))
	req := httptest.NewRequest(http.MethodPost, "/api/import", body)
	req.Header.Set("Content-Type", ct)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
	assert.Zero(t, backend.count())
}

func TestImport_NonJSONResponseReturnedAsText(t *testing.T) {
	backendSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, "<h1>Internal Server Error</h1>")
	}))
	defer backendSrv.Close()

	app := newGateway(t, backendSrv.URL, "", 0)
	body, ct := multipartUpload(t, "file", "dump.json", []byte(`[]`))
	req := httptest.NewRequest(http.MethodPost, "/api/import", body)
	req.Header.Set("Content-Type", ct)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	respBody, _ := io.ReadAll(resp.Body)

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "<h1>Internal Server Error</h1>", string(respBody))
	assert.Equal(t, "text/html", resp.Header.Get("Content-Type"))
}

func TestImport_BackendDown(t *testing.T) {
	backendSrv := httptest.NewServer(http.NotFoundHandler())
	deadURL := backendSrv.URL
	backendSrv.Close()

	app := newGateway(t, deadURL, "", 0)
	body, ct := multipartUpload(t, "file", "dump.csv", []byte("a,b\n"))
	req := httptest.NewRequest(http.MethodPost, "/api/import", body)
	req.Header.Set("Content-Type", ct)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Equal(t, "FastAPI backend unavailable", out["error"])
	assert.NotEmpty(t, out["detail"])
}

type defaultsStore struct{}

func (defaultsStore) Effective(context.Context, scrumconfig.Scope) (scrumconfig.Values, error) {
	return scrumconfig.Defaults(), nil
}

func (defaultsStore) Upsert(context.Context, string, json.RawMessage, scrumconfig.Scope) error {
	return nil
}

func (defaultsStore) Reset(context.Context, string, scrumconfig.Scope) error { return nil }

func TestSetupConfigService_ServesEveryForwardedRoute(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: handlers.ErrorHandler})
	SetupConfigService(app,
		handlers.NewSystemHandler(nil),
		handlers.NewConfigHandler(defaultsStore{}),
		false)

	key := func(string) string { return scrumconfig.KeyPriorities }
	for _, rt := range ConfigRoutes() {
		t.Run(rt.Method+" "+rt.Path, func(t *testing.T) {
			var body io.Reader
			if rt.Method == fiber.MethodPost {
				body = strings.NewReader(`{"config_key":"priorities","value":[]}`)
			}
			req := httptest.NewRequest(rt.Method, TargetPath(rt.Target, key), body)
			req.Header.Set("Content-Type", "application/json")

			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Less(t, resp.StatusCode, 300, "config service does not serve %s %s", rt.Method, rt.Target)
		})
	}
}
