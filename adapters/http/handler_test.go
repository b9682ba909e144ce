package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/easyworld/worldgen/adapters/clock"
	"github.com/easyworld/worldgen/adapters/hasher"
	apihttp "github.com/easyworld/worldgen/adapters/http"
	"github.com/easyworld/worldgen/adapters/idgen"
	"github.com/easyworld/worldgen/adapters/metrics"
	"github.com/easyworld/worldgen/adapters/oracle"
	"github.com/easyworld/worldgen/app"
	"github.com/easyworld/worldgen/core/schema"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
)

const meadowReply = `Here you go:
{
  "terrainsData": [{
    "heightsGeneratorData": {"depth": 120, "octaves": 4},
    "waterGeneratorData": {"waterType": "lake"}
  }],
  "objectList": [{"name": "Oak Tree", "x": 10, "y": 20}],
  "atmosphereGeneratorData": {"timeOfDay": 12}
}`

type testServer struct {
	router  http.Handler
	oracle  *oracle.Static
	metrics *metrics.Collector
}

func setupRouter(t *testing.T, o *oracle.Static, checker apihttp.HealthChecker) testServer {
	t.Helper()

	m := metrics.NewWithRegistry(prometheus.NewRegistry())
	svc := app.NewWorldService(app.WorldDeps{
		Oracle:        o,
		Observer:      m,
		Fingerprinter: hasher.Fake{},
		Clock:         clock.NewFake(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)),
		IDGen:         idgen.NewSequential("req-"),
		Logger:        zerolog.Nop(),
	}, app.WorldConfig{OracleTimeout: 50 * time.Millisecond})

	worldHandler := apihttp.NewWorldHandler(svc, zerolog.Nop())
	worldHandler.SetRetryAfter(7 * time.Second)

	router := apihttp.NewRouter(
		worldHandler,
		apihttp.NewSchemaHandler(svc.Registry()),
		apihttp.NewHealthHandler(checker),
		zerolog.Nop(),
		apihttp.RouterConfig{Metrics: m, Version: "1.2.3"},
	)
	return testServer{router: router, oracle: o, metrics: m}
}

func post(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/parse_description", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

type errorDoc struct {
	Errors []apihttp.Error `json:"errors"`
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) apihttp.Error {
	t.Helper()
	if ct := rec.Header().Get("Content-Type"); ct != apihttp.ContentTypeJSONAPI {
		t.Errorf("Content-Type = %q, want %q", ct, apihttp.ContentTypeJSONAPI)
	}
	var doc errorDoc
	if err := json.Unmarshal(rec.Body.Bytes(), &doc); err != nil {
		t.Fatalf("decode error document: %v (body %s)", err, rec.Body.String())
	}
	if len(doc.Errors) != 1 {
		t.Fatalf("errors = %d, want 1", len(doc.Errors))
	}
	return doc.Errors[0]
}

func TestParseDescription_Success(t *testing.T) {
	srv := setupRouter(t, oracle.NewStatic(meadowReply), nil)

	rec := post(t, srv.router, `{"description": "a quiet meadow with a lake"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("X-Request-ID"); got != "req-1" {
		t.Errorf("X-Request-ID = %q, want req-1", got)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}

	var body map[string]json.RawMessage
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	for _, key := range []string{"terrainsData", "objectList", "atmosphereGeneratorData"} {
		if _, ok := body[key]; !ok {
			t.Errorf("response missing %s", key)
		}
	}
	if _, ok := body["cityData"]; ok {
		t.Error("cityData present for a non-city description")
	}

	var terrains []map[string]json.RawMessage
	if err := json.Unmarshal(body["terrainsData"], &terrains); err != nil {
		t.Fatalf("decode terrainsData: %v", err)
	}
	if len(terrains) != 1 {
		t.Fatalf("terrains = %d, want 1", len(terrains))
	}
	if _, ok := terrains[0]["heightsGeneratorData"]; !ok {
		t.Error("terrain missing heightsGeneratorData")
	}

	prompts := srv.oracle.Prompts()
	if len(prompts) != 1 || !strings.Contains(prompts[0], "a quiet meadow with a lake") {
		t.Errorf("oracle prompts = %q, want one containing the description", prompts)
	}
}

func TestParseDescription_BadRequests(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantCode string
		pointer  string
	}{
		{"invalid json", `{"description": `, "invalid_json", ""},
		{"missing description", `{}`, "description_required", "/description"},
		{"blank description", `{"description": "   "}`, "description_required", "/description"},
		{"wrong type", `{"description": 42}`, "invalid_json", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := setupRouter(t, oracle.NewStatic(meadowReply), nil)

			rec := post(t, srv.router, tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
			e := decodeError(t, rec)
			if e.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", e.Code, tt.wantCode)
			}
			if tt.pointer != "" && (e.Source == nil || e.Source.Pointer != tt.pointer) {
				t.Errorf("source = %+v, want pointer %s", e.Source, tt.pointer)
			}
			if n := len(srv.oracle.Prompts()); n != 0 {
				t.Errorf("oracle called %d times, want 0", n)
			}
		})
	}
}

func TestParseDescription_OracleUnavailable(t *testing.T) {
	o := oracle.NewStatic("")
	o.Err = errors.New("connection refused")
	srv := setupRouter(t, o, nil)

	rec := post(t, srv.router, `{"description": "a forest"}`)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
	if got := rec.Header().Get("Retry-After"); got != "7" {
		t.Errorf("Retry-After = %q, want 7", got)
	}
	if e := decodeError(t, rec); e.Code != "oracle_unavailable" {
		t.Errorf("code = %q, want oracle_unavailable", e.Code)
	}
}

func TestParseDescription_OracleTimeout(t *testing.T) {
	o := oracle.NewStatic(meadowReply)
	o.Delay = time.Minute
	srv := setupRouter(t, o, nil)

	rec := post(t, srv.router, `{"description": "a forest"}`)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
	if e := decodeError(t, rec); e.Code != "oracle_timeout" {
		t.Errorf("code = %q, want oracle_timeout", e.Code)
	}
}

func TestParseDescription_ExtractionFailed(t *testing.T) {
	srv := setupRouter(t, oracle.NewStatic("I cannot help with that."), nil)

	rec := post(t, srv.router, `{"description": "a forest"}`)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	e := decodeError(t, rec)
	if e.Code != "extraction_failed" {
		t.Errorf("code = %q, want extraction_failed", e.Code)
	}
	if raw, _ := e.Meta["raw"].(string); raw != "I cannot help with that." {
		t.Errorf("meta.raw = %q, want the oracle reply", raw)
	}
}

func TestParseDescription_Metrics(t *testing.T) {
	srv := setupRouter(t, oracle.NewStatic(meadowReply), nil)

	post(t, srv.router, `{"description": "a quiet meadow"}`)
	post(t, srv.router, `{}`)

	ok := testutil.ToFloat64(srv.metrics.RequestsTotal.WithLabelValues("POST", "/parse_description", "2xx"))
	if ok != 1 {
		t.Errorf("2xx requests = %v, want 1", ok)
	}
	bad := testutil.ToFloat64(srv.metrics.RequestsTotal.WithLabelValues("POST", "/parse_description", "4xx"))
	if bad != 1 {
		t.Errorf("4xx requests = %v, want 1", bad)
	}
}

func TestSchema_List(t *testing.T) {
	srv := setupRouter(t, oracle.NewStatic(meadowReply), nil)

	rec := httptest.NewRecorder()
	srv.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/schema", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var doc struct {
		Data []apihttp.Resource `json:"data"`
		Meta apihttp.Meta       `json:"meta"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &doc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(doc.Data) != len(schema.Kinds) {
		t.Fatalf("modules = %d, want %d", len(doc.Data), len(schema.Kinds))
	}
	for i, k := range schema.Kinds {
		if doc.Data[i].ID != string(k) || doc.Data[i].Type != "module" {
			t.Errorf("data[%d] = %s/%s, want module/%s", i, doc.Data[i].Type, doc.Data[i].ID, k)
		}
	}
}

func TestSchema_Get(t *testing.T) {
	tests := []struct {
		path       string
		wantStatus int
		wantKey    string
	}{
		{"/schema/heights", http.StatusOK, "heightsGeneratorData"},
		{"/schema/atmosphere", http.StatusOK, "atmosphereGeneratorData"},
		{"/schema/volcano", http.StatusNotFound, ""},
	}

	srv := setupRouter(t, oracle.NewStatic(meadowReply), nil)
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			srv.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantStatus != http.StatusOK {
				if e := decodeError(t, rec); e.Code != "module_not_found" {
					t.Errorf("code = %q, want module_not_found", e.Code)
				}
				return
			}

			var doc struct {
				Data apihttp.Resource `json:"data"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &doc); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if got := doc.Data.Attributes["key"]; got != tt.wantKey {
				t.Errorf("key = %v, want %s", got, tt.wantKey)
			}
			if _, ok := doc.Data.Attributes["fields"]; !ok {
				t.Error("fields attribute missing")
			}
		})
	}
}

type fakeChecker struct{ err error }

func (f fakeChecker) HealthCheck(ctx context.Context) error { return f.err }

func TestHealth(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		checker    apihttp.HealthChecker
		wantStatus int
	}{
		{"liveness", "/health", nil, http.StatusOK},
		{"live alias", "/health/live", fakeChecker{err: errors.New("down")}, http.StatusOK},
		{"ready without checker", "/health/ready", nil, http.StatusOK},
		{"ready", "/health/ready", fakeChecker{}, http.StatusOK},
		{"not ready", "/health/ready", fakeChecker{err: errors.New("database is locked")}, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := setupRouter(t, oracle.NewStatic(meadowReply), tt.checker)

			rec := httptest.NewRecorder()
			srv.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestVersion(t *testing.T) {
	srv := setupRouter(t, oracle.NewStatic(meadowReply), nil)

	rec := httptest.NewRecorder()
	srv.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/version", nil))

	var v apihttp.VersionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if v.Version != "1.2.3" || v.Service != "worldgen" {
		t.Errorf("version = %+v, want 1.2.3/worldgen", v)
	}
}

func TestRouter_NotFound(t *testing.T) {
	srv := setupRouter(t, oracle.NewStatic(meadowReply), nil)

	rec := httptest.NewRecorder()
	srv.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nowhere", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if e := decodeError(t, rec); e.Code != "not_found" {
		t.Errorf("code = %q, want not_found", e.Code)
	}
}

func TestRouter_OpenAPI(t *testing.T) {
	m := metrics.NewWithRegistry(prometheus.NewRegistry())
	svc := app.NewWorldService(app.WorldDeps{Logger: zerolog.Nop()}, app.WorldConfig{})
	router := apihttp.NewRouter(
		apihttp.NewWorldHandler(svc, zerolog.Nop()),
		apihttp.NewSchemaHandler(nil),
		apihttp.NewHealthHandler(nil),
		zerolog.Nop(),
		apihttp.RouterConfig{Metrics: m, EnableOpenAPI: true},
	)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/.well-known/openapi.json", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var doc struct {
		Paths map[string]any `json:"paths"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &doc); err != nil {
		t.Fatalf("decode openapi: %v", err)
	}
	if _, ok := doc.Paths["/parse_description"]; !ok {
		t.Error("openapi document missing /parse_description")
	}
}

func TestError_StatusCode(t *testing.T) {
	e := apihttp.NewError(http.StatusTeapot, "teapot", "Teapot").Build()
	if got := e.StatusCode(); got != http.StatusTeapot {
		t.Errorf("StatusCode() = %d, want 418", got)
	}
}
