package completion

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/meshilogapp/meshilog-backend/pkg/config"
	pkgerrors "github.com/meshilogapp/meshilog-backend/pkg/errors"
	pkgretry "github.com/meshilogapp/meshilog-backend/pkg/retry"
)

func testClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	policy := pkgretry.NewPolicy(config.RetryConfig{MaxAttempts: 2, BaseDelay: time.Millisecond})
	client, err := NewClient(config.CompletionConfig{
		APIKey: "test-key",
		Model:  "test-model",
	}, policy, WithBaseURL(baseURL))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func chatReply(content string) string {
	payload := map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"content": content}},
		},
	}
	raw, _ := json.Marshal(payload)
	return string(raw)
}

func TestCompleteReturnsContent(t *testing.T) {
	var captured chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Fatalf("unexpected auth header %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		w.Write([]byte(chatReply(`{"recommendations":[]}`)))
	}))
	defer server.Close()

	client := testClient(t, server.URL)
	content, err := client.Complete(context.Background(), Request{
		Op:       "test",
		Messages: []Message{TextMessage("user", "hello")},
		Schema:   &JSONSchema{Name: "recs", Schema: json.RawMessage(`{"type":"object"}`)},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if content != `{"recommendations":[]}` {
		t.Fatalf("unexpected content %q", content)
	}
	if captured.ResponseFormat == nil || captured.ResponseFormat.Type != "json_schema" {
		t.Fatalf("expected json_schema response format, got %+v", captured.ResponseFormat)
	}
	if captured.Model != "test-model" {
		t.Fatalf("unexpected model %q", captured.Model)
	}
}

func TestCompleteRetriesServerErrors(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(chatReply("ok")))
	}))
	defer server.Close()

	client := testClient(t, server.URL)
	content, err := client.Complete(context.Background(), Request{
		Op:       "test",
		Messages: []Message{TextMessage("user", "hello")},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if content != "ok" {
		t.Fatalf("unexpected content %q", content)
	}
	if calls != 2 {
		t.Fatalf("expected 2 calls, got %d", calls)
	}
}

func TestCompleteDoesNotRetryClientErrors(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"bad request"}`))
	}))
	defer server.Close()

	client := testClient(t, server.URL)
	_, err := client.Complete(context.Background(), Request{
		Op:       "test",
		Messages: []Message{TextMessage("user", "hello")},
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}
}

func TestCompleteEmptyContentIsFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(chatReply("")))
	}))
	defer server.Close()

	client := testClient(t, server.URL)
	if _, err := client.Complete(context.Background(), Request{
		Op:       "test",
		Messages: []Message{TextMessage("user", "hello")},
	}); err == nil {
		t.Fatal("expected error for empty content")
	}
}

func TestNewClientRequiresAPIKey(t *testing.T) {
	_, err := NewClient(config.CompletionConfig{}, pkgretry.NewPolicy(config.RetryConfig{}))
	if err == nil {
		t.Fatal("expected error for missing api key")
	}
}

func TestStripFences(t *testing.T) {
	cases := map[string]string{
		"```json\n{\"a\":1}\n```": `{"a":1}`,
		"```\n{\"a\":1}\n```":     `{"a":1}`,
		`{"a":1}`:                 `{"a":1}`,
	}
	for input, want := range cases {
		if got := StripFences(input); got != want {
			t.Fatalf("StripFences(%q) = %q, want %q", input, got, want)
		}
	}
}
