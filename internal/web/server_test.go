package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/outbound-caller/cli/cmd/config"
	"github.com/outbound-caller/cli/cmd/dispatch"
	"github.com/outbound-caller/cli/cmd/history"
	"github.com/outbound-caller/cli/cmd/liveness"
	"github.com/outbound-caller/cli/cmd/operator"
)

type stubBackend struct {
	running  bool
	result   *dispatch.Result
	placeErr error
	calls    []history.Record
	placed   []dispatch.Request
	forced   []bool
}

func (b *stubBackend) CheckAgent(context.Context) liveness.Verdict {
	return liveness.Verdict{Running: b.running, DecidedBy: "process"}
}

func (b *stubBackend) Environment() config.Environment {
	return config.Environment{LiveKitURL: "ws://localhost:7880"}
}

func (b *stubBackend) PlaceCall(_ context.Context, req dispatch.Request, force bool) (*operator.CallOutcome, error) {
	b.placed = append(b.placed, req)
	b.forced = append(b.forced, force)
	if _, err := req.Metadata(); err != nil {
		return nil, err
	}
	if !force && !b.running {
		return nil, operator.ErrAgentNotRunning
	}
	if b.placeErr != nil {
		return nil, b.placeErr
	}
	res := *b.result
	res.PhoneNumber = req.PhoneNumber
	return &operator.CallOutcome{Result: &res, Record: history.Record{ID: "abc", PhoneNumber: req.PhoneNumber, Success: res.Success}}, nil
}

func (b *stubBackend) RecentCalls(_ context.Context, n int) ([]history.Record, error) {
	if n > 0 && len(b.calls) > n {
		return b.calls[:n], nil
	}
	return b.calls, nil
}

func (b *stubBackend) StartCommand() string { return "python agent.py dev" }

func (b *stubBackend) NotRunningMessage() string {
	return "Agent is not running! Start it with `python agent.py dev` before placing calls."
}

func newTestServer(b *stubBackend) *Server {
	return New(DefaultConfig(), b)
}

func do(t *testing.T, s *Server, method, path, contentType, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	rec := do(t, newTestServer(&stubBackend{}), http.MethodGet, "/health", "", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "healthy") {
		t.Fatalf("health = %d %s", rec.Code, rec.Body)
	}
}

func TestStatusJSON(t *testing.T) {
	rec := do(t, newTestServer(&stubBackend{running: true}), http.MethodGet, "/api/status", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body struct {
		Agent struct {
			Running   bool   `json:"running"`
			DecidedBy string `json:"decided_by"`
		} `json:"agent"`
		Environment  config.Environment `json:"environment"`
		StartCommand string             `json:"start_command"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if !body.Agent.Running || body.Agent.DecidedBy != "process" || body.Environment.LiveKitURL != "ws://localhost:7880" || body.StartCommand == "" {
		t.Errorf("body = %+v", body)
	}
}

func TestCreateCallResponses(t *testing.T) {
	tests := []struct {
		name     string
		backend  *stubBackend
		body     string
		wantCode int
		wantText string
	}{
		{"success", &stubBackend{running: true, result: &dispatch.Result{Success: true}}, `{"phone_number":"+15551234567"}`, http.StatusOK, "Call placed successfully to +15551234567"},
		{"dispatcher failure", &stubBackend{running: true, result: &dispatch.Result{Stderr: "unauthorized"}}, `{"phone_number":"+1"}`, http.StatusOK, "unauthorized"},
		{"silent dispatcher failure", &stubBackend{running: true, result: &dispatch.Result{ExitCode: 1}}, `{"phone_number":"+1"}`, http.StatusOK, "Failed to place call"},
		{"agent down", &stubBackend{}, `{"phone_number":"+1"}`, http.StatusConflict, "Agent is not running!"},
		{"forced while down", &stubBackend{result: &dispatch.Result{Success: true}}, `{"phone_number":"+1","force":true}`, http.StatusOK, "Call placed"},
		{"empty phone", &stubBackend{running: true}, `{"phone_number":"  "}`, http.StatusBadRequest, "phone number is required"},
		{"lk missing", &stubBackend{running: true, placeErr: errors.New("failed to run lk")}, `{"phone_number":"+1"}`, http.StatusBadGateway, "failed to run lk"},
		{"bad json", &stubBackend{}, `{`, http.StatusBadRequest, "invalid JSON"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, newTestServer(tt.backend), http.MethodPost, "/api/calls", "application/json", tt.body)
			if rec.Code != tt.wantCode {
				t.Errorf("code = %d, want %d (%s)", rec.Code, tt.wantCode, rec.Body)
			}
			if !strings.Contains(rec.Body.String(), tt.wantText) {
				t.Errorf("body %s missing %q", rec.Body, tt.wantText)
			}
		})
	}
}

func TestListCalls(t *testing.T) {
	b := &stubBackend{calls: []history.Record{
		{ID: "2", PhoneNumber: "+2", PlacedAt: time.Now()},
		{ID: "1", PhoneNumber: "+1", PlacedAt: time.Now()},
	}}
	s := newTestServer(b)

	rec := do(t, s, http.MethodGet, "/api/calls?limit=1", "", "")
	var body struct {
		Calls []history.Record `json:"calls"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if len(body.Calls) != 1 || body.Calls[0].ID != "2" {
		t.Errorf("calls = %+v", body.Calls)
	}

	if rec := do(t, s, http.MethodGet, "/api/calls?limit=x", "", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("bad limit code = %d", rec.Code)
	}

	empty := do(t, newTestServer(&stubBackend{}), http.MethodGet, "/api/calls", "", "")
	if !strings.Contains(empty.Body.String(), `"calls":[]`) {
		t.Errorf("empty list body = %s", empty.Body)
	}
}

func TestIndexPage(t *testing.T) {
	rec := do(t, newTestServer(&stubBackend{}), http.MethodGet, "/", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d", rec.Code)
	}
	page := rec.Body.String()
	for _, want := range []string{"Not Running", "python agent.py dev", "ws://localhost:7880", "SIP Trunk ID: Not configured", "Place Call", "How it works", "No calls yet"} {
		if !strings.Contains(page, want) {
			t.Errorf("page missing %q", want)
		}
	}
}

func TestFormCallRefusedWhenAgentDown(t *testing.T) {
	b := &stubBackend{}
	form := url.Values{"phone_number": {"+15551234567"}}.Encode()
	rec := do(t, newTestServer(b), http.MethodPost, "/calls", "application/x-www-form-urlencoded", form)
	page := rec.Body.String()
	if !strings.Contains(page, "Agent is not running!") {
		t.Error("guard message missing")
	}
	if !strings.Contains(page, `value="&#43;15551234567"`) && !strings.Contains(page, `value="+15551234567"`) {
		t.Error("phone number not preserved in the form")
	}
	if len(b.forced) != 1 || b.forced[0] {
		t.Errorf("form submissions must not force: %v", b.forced)
	}
}

func TestFormCallSuccess(t *testing.T) {
	b := &stubBackend{running: true, result: &dispatch.Result{Success: true}}
	form := url.Values{"phone_number": {"+15551234567"}, "transfer_to": {"+15557654321"}}.Encode()
	rec := do(t, newTestServer(b), http.MethodPost, "/calls", "application/x-www-form-urlencoded", form)
	if !strings.Contains(rec.Body.String(), "Call placed successfully to") {
		t.Errorf("success message missing:\n%s", rec.Body)
	}
	if len(b.placed) != 1 || b.placed[0].TransferTo != "+15557654321" {
		t.Errorf("placed = %+v", b.placed)
	}
}

func TestCreateCallRequiresJSONContentType(t *testing.T) {
	b := &stubBackend{result: &dispatch.Result{Success: true}}
	rec := do(t, newTestServer(b), http.MethodPost, "/api/calls", "text/plain", `{"phone_number":"+19005550100","force":true}`)
	if rec.Code != http.StatusUnsupportedMediaType {
		t.Errorf("code = %d, want %d", rec.Code, http.StatusUnsupportedMediaType)
	}
	if len(b.placed) != 0 {
		t.Errorf("placed = %+v, want none", b.placed)
	}
}

func TestCrossSiteCallsRejected(t *testing.T) {
	form := url.Values{"phone_number": {"+19005550100"}}.Encode()
	tests := []struct {
		name        string
		path        string
		contentType string
		body        string
		headers     map[string]string
		wantCode    int
	}{
		{"form from other origin", "/calls", "application/x-www-form-urlencoded", form, map[string]string{"Origin": "https://evil.example"}, http.StatusForbidden},
		{"form cross-site fetch", "/calls", "application/x-www-form-urlencoded", form, map[string]string{"Sec-Fetch-Site": "cross-site"}, http.StatusForbidden},
		{"form null origin", "/calls", "application/x-www-form-urlencoded", form, map[string]string{"Origin": "null"}, http.StatusForbidden},
		{"api from other origin", "/api/calls", "application/json", `{"phone_number":"+19005550100","force":true}`, map[string]string{"Origin": "http://localhost:3000"}, http.StatusForbidden},
		{"api same-site other port", "/api/calls", "application/json", `{"phone_number":"+19005550100","force":true}`, map[string]string{"Sec-Fetch-Site": "same-site"}, http.StatusForbidden},
		{"form same origin", "/calls", "application/x-www-form-urlencoded", form, map[string]string{"Origin": "http://example.com", "Sec-Fetch-Site": "same-origin"}, http.StatusOK},
		{"api same origin", "/api/calls", "application/json", `{"phone_number":"+19005550100"}`, map[string]string{"Origin": "http://example.com"}, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &stubBackend{running: true, result: &dispatch.Result{Success: true}}
			req := httptest.NewRequest(http.MethodPost, tt.path, strings.NewReader(tt.body))
			req.Header.Set("Content-Type", tt.contentType)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()
			newTestServer(b).Handler().ServeHTTP(rec, req)

			if rec.Code != tt.wantCode {
				t.Errorf("code = %d, want %d (%s)", rec.Code, tt.wantCode, rec.Body)
			}
			if tt.wantCode == http.StatusForbidden && len(b.placed) != 0 {
				t.Errorf("placed = %+v, want none", b.placed)
			}
			if tt.wantCode == http.StatusOK && len(b.placed) != 1 {
				t.Errorf("placed = %+v, want one call", b.placed)
			}
		})
	}
}
