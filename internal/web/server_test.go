package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/lucasnoah/scapagent/internal/scan"
)

type fakeAgent struct {
	running   bool
	status    scan.Status
	triggered []string
	direct    []scan.Request
}

func (f *fakeAgent) Running() bool { return f.running }

func (f *fakeAgent) PerformScan(_ context.Context, profile string) *scan.Result {
	f.triggered = append(f.triggered, profile)
	return &scan.Result{ScanID: "scan-1", Profile: profile, Status: f.status}
}

func (f *fakeAgent) Scan(_ context.Context, req scan.Request) *scan.Result {
	f.direct = append(f.direct, req)
	return &scan.Result{ScanID: "scan-2", Profile: req.Profile, Datastream: req.Datastream, Status: f.status}
}

func do(t *testing.T, s *Server, method, target string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("%s %s: decode body %q: %v", method, target, rec.Body.String(), err)
	}
	return rec, body
}

func TestHealth(t *testing.T) {
	agent := &fakeAgent{running: true}
	s := NewServer(agent, "", "1.0.0", nil)
	s.now = func() time.Time { return time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC) }

	rec, body := do(t, s, http.MethodGet, "/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	want := map[string]any{"status": "healthy", "timestamp": "2025-05-01T10:00:00Z", "version": "1.0.0"}
	if diff := cmp.Diff(want, body); diff != "" {
		t.Errorf("health mismatch (-want +got):\n%s", diff)
	}

	agent.running = false
	_, body = do(t, s, http.MethodGet, "/health")
	if body["status"] != "stopped" {
		t.Errorf("expected stopped, got %v", body["status"])
	}

	_, body = do(t, NewServer(nil, "", "1.0.0", nil), http.MethodGet, "/health")
	if body["status"] != "stopped" {
		t.Errorf("expected stopped without agent, got %v", body["status"])
	}
}

func TestScan(t *testing.T) {
	agent := &fakeAgent{status: scan.StatusCompleted}
	s := NewServer(agent, "", "dev", nil)

	rec, body := do(t, s, http.MethodPost, "/scan?profile=xccdf_org.ssgproject.content_profile_stig")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if body["status"] != "completed" || body["scan_id"] != "scan-1" {
		t.Errorf("unexpected body %v", body)
	}
	results, ok := body["results"].(map[string]any)
	if !ok || results["profile"] != "xccdf_org.ssgproject.content_profile_stig" {
		t.Errorf("expected nested results, got %v", body["results"])
	}
	if len(agent.triggered) != 1 || agent.triggered[0] != "xccdf_org.ssgproject.content_profile_stig" {
		t.Errorf("unexpected triggered profiles %v", agent.triggered)
	}
}

func TestScanFailedIsStill200(t *testing.T) {
	s := NewServer(&fakeAgent{status: scan.StatusFailed}, "", "dev", nil)
	rec, body := do(t, s, http.MethodPost, "/scan")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for failed scan, got %d", rec.Code)
	}
	if body["results"].(map[string]any)["status"] != "failed" {
		t.Errorf("expected failed status in results, got %v", body["results"])
	}
}

func TestScanWithoutAgent(t *testing.T) {
	s := NewServer(nil, "", "dev", nil)
	for _, target := range []string{"/scan", "/scan/oscap"} {
		rec, body := do(t, s, http.MethodPost, target)
		if rec.Code != http.StatusServiceUnavailable {
			t.Errorf("%s: expected 503, got %d", target, rec.Code)
		}
		if body["detail"] != "Agent not initialized" {
			t.Errorf("%s: unexpected body %v", target, body)
		}
	}
}

func TestOSCAPScanDefaults(t *testing.T) {
	agent := &fakeAgent{status: scan.StatusMock}
	s := NewServer(agent, "", "dev", nil)

	_, body := do(t, s, http.MethodPost, "/scan/oscap")
	if body["profile"] != scan.DefaultOSCAPProfile {
		t.Errorf("expected default profile, got %v", body["profile"])
	}
	if body["datastream"] != "auto-detected" {
		t.Errorf("expected auto-detected, got %v", body["datastream"])
	}
	want := scan.Request{Profile: scan.DefaultOSCAPProfile}
	if diff := cmp.Diff(want, agent.direct[0]); diff != "" {
		t.Errorf("request mismatch (-want +got):\n%s", diff)
	}
	if len(agent.triggered) != 0 {
		t.Error("direct scan must not go through the reporting path")
	}
}

func TestOSCAPScanWithParams(t *testing.T) {
	agent := &fakeAgent{status: scan.StatusCompleted}
	s := NewServer(agent, "", "dev", nil)

	_, body := do(t, s, http.MethodPost, "/scan/oscap?profile=p2&datastream=ssg-rhel9-ds.xml")
	if body["profile"] != "p2" || body["datastream"] != "ssg-rhel9-ds.xml" {
		t.Errorf("unexpected body %v", body)
	}
	if agent.direct[0].Datastream != "ssg-rhel9-ds.xml" {
		t.Errorf("expected datastream passed through, got %q", agent.direct[0].Datastream)
	}
}

func TestOSCAPScanRejectsPaths(t *testing.T) {
	agent := &fakeAgent{status: scan.StatusCompleted}
	s := NewServer(agent, "", "dev", nil)

	for _, ds := range []string{"/etc/shadow", "../ssg-rhel9-ds.xml", "sub/ssg-rhel9-ds.xml"} {
		rec, body := do(t, s, http.MethodPost, "/scan/oscap?datastream="+url.QueryEscape(ds))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", ds, rec.Code)
		}
		if body["detail"] != "datastream must be a file name" {
			t.Errorf("%s: unexpected body %v", ds, body)
		}
	}
	if len(agent.direct) != 0 {
		t.Errorf("expected no scans for rejected datastreams, got %d", len(agent.direct))
	}
}

func TestProfiles(t *testing.T) {
	rec, body := do(t, NewServer(nil, "", "dev", nil), http.MethodGet, "/scan/profiles")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	profiles, ok := body["profiles"].([]any)
	if !ok || len(profiles) != 5 {
		t.Fatalf("expected 5 profiles, got %v", body["profiles"])
	}
	first := profiles[0].(map[string]any)
	if first["title"] != "CIS Level 1 Server" {
		t.Errorf("unexpected first profile %v", first)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	rec := httptest.NewRecorder()
	NewServer(nil, "", "dev", nil).Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "go_goroutines") {
		t.Error("expected default Go collectors in metrics output")
	}
}

func TestWrongMethod(t *testing.T) {
	rec := httptest.NewRecorder()
	NewServer(&fakeAgent{}, "", "dev", nil).Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/scan", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", rec.Code)
	}
}
