package translate

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dgallion1/deckedit/internal/edit"
)

func fakeAnthropic(t *testing.T, status int, text string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			t.Errorf("expected /v1/messages, got %s", r.URL.Path)
		}
		if r.Header.Get("x-api-key") != "test-key" {
			t.Errorf("expected api key header, got %q", r.Header.Get("x-api-key"))
		}
		var req anthropicRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.System == "" || len(req.Messages) != 1 || !strings.Contains(req.Messages[0].Content, "Instruction:") {
			t.Errorf("unexpected request: %+v", req)
		}
		w.WriteHeader(status)
		if status != http.StatusOK {
			w.Write([]byte(`{"error":{"type":"overloaded_error","message":"busy"}}`))
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"content": []map[string]string{{"type": "text", "text": text}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClaudeClient_Translate(t *testing.T) {
	srv := fakeAnthropic(t, http.StatusOK, `{"action":"update_text","slide":1,"oldText":"Quarterly","newText":"Annual"}`)
	c := NewClaudeClient("test-key", "test-model").WithBaseURL(srv.URL)
	defer c.Close()

	cmd, err := c.Translate(context.Background(), "call it annual", testSlides())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cmd != edit.UpdateText(1, "Quarterly", "Annual") {
		t.Errorf("unexpected command %+v", cmd)
	}
	if snap := c.Stats.Snapshot(); snap.Count != 1 || snap.Failures != 0 {
		t.Errorf("expected one successful sample, got %+v", snap)
	}
}

func TestClaudeClient_RetryableStatus(t *testing.T) {
	srv := fakeAnthropic(t, http.StatusServiceUnavailable, "")
	c := NewClaudeClient("test-key", "test-model").WithBaseURL(srv.URL)

	_, err := c.Translate(context.Background(), "anything", testSlides())
	var re *RetryableError
	if !errors.As(err, &re) {
		t.Fatalf("expected RetryableError, got %v", err)
	}
	if re.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("expected status 503, got %d", re.StatusCode)
	}
	if snap := c.Stats.Snapshot(); snap.Failures != 1 {
		t.Errorf("expected failure recorded, got %+v", snap)
	}
}

func TestClaudeClient_ClientErrorNotRetryable(t *testing.T) {
	srv := fakeAnthropic(t, http.StatusBadRequest, "")
	c := NewClaudeClient("test-key", "test-model").WithBaseURL(srv.URL)

	_, err := c.Translate(context.Background(), "anything", testSlides())
	var re *RetryableError
	if err == nil || errors.As(err, &re) {
		t.Fatalf("expected non-retryable error, got %v", err)
	}
}

func TestStripCodeBlock(t *testing.T) {
	tests := map[string]string{
		"```json\n{}\n```": "{}",
		"```\n[1]\n```":    "[1]",
		"  {\"a\":1}  ":    `{"a":1}`,
	}
	for in, want := range tests {
		if got := stripCodeBlock(in); got != want {
			t.Errorf("stripCodeBlock(%q): expected %q, got %q", in, want, got)
		}
	}
}
