package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/lookdevkit/shaderbridge/pkg/pipeline"

	_ "github.com/lookdevkit/shaderbridge/pkg/mapping/rulesets/arnold"
	_ "github.com/lookdevkit/shaderbridge/pkg/mapping/rulesets/prman"
)

const testSnapshot = `{
  "selection": ["SG1"],
  "nodes": {
    "SG1": {
      "type": "shadingEngine",
      "connections": [
        {"input": "surfaceShader", "node": "surf1", "port": "outColor"}
      ]
    },
    "surf1": {
      "type": "aiStandardSurface",
      "attributes": {"base": 0.8}
    }
  }
}`

func testServer(t *testing.T) *Server {
	t.Helper()
	logger := log.NewWithOptions(io.Discard, log.Options{})
	runner := pipeline.NewRunner(nil, nil, logger)
	t.Cleanup(func() { _ = runner.Close() })
	return New(runner, logger)
}

func convertBody(snapshot string) string {
	return `{"snapshot": ` + snapshot + `}`
}

func TestHealthz(t *testing.T) {
	srv := testServer(t)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf(`status field = %q, want "ok"`, body["status"])
	}
}

func TestConvert(t *testing.T) {
	srv := testServer(t)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/convert", strings.NewReader(convertBody(testSnapshot)))
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body)
	}
	if got := rec.Header().Get("X-Request-ID"); got == "" {
		t.Error("X-Request-ID header missing")
	}

	var body convertResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.RuleSet != "arnold" {
		t.Errorf("ruleset = %q, want arnold", body.RuleSet)
	}
	if !strings.Contains(body.Document, `type="networkMaterial"`) {
		t.Errorf("document missing networkMaterial node:\n%s", body.Document)
	}
	if body.GraphHash == "" {
		t.Error("graph_hash is empty")
	}
	if body.RequestID == "" {
		t.Error("request_id is empty")
	}
}

func TestConvertRaw(t *testing.T) {
	srv := testServer(t)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/convert?raw=true", strings.NewReader(convertBody(testSnapshot)))
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/xml") {
		t.Errorf("Content-Type = %q, want application/xml", ct)
	}
	if !strings.HasPrefix(rec.Body.String(), "<?xml") {
		t.Errorf("body is not an XML document:\n%s", rec.Body)
	}
}

func TestConvertRejectsSnapshotPath(t *testing.T) {
	srv := testServer(t)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/convert", strings.NewReader(`{"snapshot_path": "/etc/passwd"}`))
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestConvertBadJSON(t *testing.T) {
	srv := testServer(t)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/convert", strings.NewReader("{nope"))
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestConvertNoRoot(t *testing.T) {
	srv := testServer(t)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/convert",
		strings.NewReader(convertBody(`{"nodes": {"a": {"type": "file"}}}`)))
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422; body: %s", rec.Code, rec.Body)
	}
	var body errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Code != "NO_ROOT" {
		t.Errorf("code = %q, want NO_ROOT", body.Code)
	}
}

func TestConvertUnknownRuleSet(t *testing.T) {
	srv := testServer(t)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/convert",
		strings.NewReader(`{"snapshot": `+testSnapshot+`, "ruleset": "octane"}`))
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404; body: %s", rec.Code, rec.Body)
	}
}
