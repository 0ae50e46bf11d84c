package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

type fakeStore struct {
	data map[string]string
}

func newFakeStore() *fakeStore {
	return &fakeStore{data: make(map[string]string)}
}

func (f *fakeStore) Get(_ context.Context, key string) (string, error) {
	if v, ok := f.data[key]; ok {
		return v, nil
	}
	return "", redis.Nil
}

func (f *fakeStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	if _, ok := f.data[key]; ok {
		return false, nil
	}
	str, _ := value.(string)
	f.data[key] = str
	return true, nil
}

func (f *fakeStore) IdempotencyKey(scope, id string) string {
	return fmt.Sprintf("fake:%s:%s", scope, id)
}

func mutatingRequest(method, url string, body io.Reader) *http.Request {
	return httptest.NewRequest(method, url, body)
}

func TestRouteTTLSelection(t *testing.T) {
	tests := []struct {
		name    string
		method  string
		path    string
		want    time.Duration
		ok      bool
	}{
		{"create meal", http.MethodPost, "/api/v1/meals", defaultIdempotencyTTL, true},
		{"analyze image", http.MethodPost, "/api/v1/meals/analyze-image", defaultIdempotencyTTL, true},
		{"join group", http.MethodPost, "/api/v1/groups/join", defaultIdempotencyTTL, true},
		{"leave group", http.MethodPost, "/api/v1/groups/5/leave", defaultIdempotencyTTL, true},
		{"use favorite", http.MethodPost, "/api/v1/favorites/12/use", defaultIdempotencyTTL, true},
		{"guest migration", http.MethodPost, "/api/v1/auth/migrate", criticalIdempotencyTTL, true},
		{"login is not idempotency-gated", http.MethodPost, "/api/v1/auth/login", 0, false},
		{"reads are not gated", http.MethodGet, "/api/v1/meals", 0, false},
	}

	for _, tt := range tests {
		ttl, ok := routeTTL(tt.method, tt.path)
		if ok != tt.ok {
			t.Fatalf("%s: expected ok=%v got %v", tt.name, tt.ok, ok)
		}
		if ok && ttl != tt.want {
			t.Fatalf("%s: expected ttl=%v got %v", tt.name, tt.want, ttl)
		}
	}
}

func TestIdempotencyMiddlewareRequiresHeader(t *testing.T) {
	store := newFakeStore()
	mw := Idempotency(store, nil)
	handlerCalled := false
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true
		w.WriteHeader(http.StatusCreated)
	})

	req := mutatingRequest(http.MethodPost, "/api/v1/meals", strings.NewReader(`{"dishName":"curry"}`))
	resp := httptest.NewRecorder()
	mw(handler).ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	if handlerCalled {
		t.Fatalf("handler should not run without idempotency key")
	}
}

func TestIdempotencyMiddlewareReplaysStoredResponse(t *testing.T) {
	store := newFakeStore()
	mw := Idempotency(store, nil)
	calls := 0
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"success":true,"data":{"id":1}}`))
	})

	body := `{"dishName":"curry","mealDate":"2025-12-16","mealType":"dinner"}`

	first := mutatingRequest(http.MethodPost, "/api/v1/meals", strings.NewReader(body))
	first.Header.Set("Idempotency-Key", "key-1")
	firstResp := httptest.NewRecorder()
	mw(handler).ServeHTTP(firstResp, first)

	if firstResp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", firstResp.Code)
	}
	if calls != 1 {
		t.Fatalf("expected 1 handler call got %d", calls)
	}

	second := mutatingRequest(http.MethodPost, "/api/v1/meals", strings.NewReader(body))
	second.Header.Set("Idempotency-Key", "key-1")
	secondResp := httptest.NewRecorder()
	mw(handler).ServeHTTP(secondResp, second)

	if calls != 1 {
		t.Fatalf("handler should not run on replay, got %d calls", calls)
	}
	if secondResp.Code != http.StatusCreated {
		t.Fatalf("expected replayed 201 got %d", secondResp.Code)
	}
	if secondResp.Body.String() != firstResp.Body.String() {
		t.Fatalf("expected replayed body %q got %q", firstResp.Body.String(), secondResp.Body.String())
	}
	if ct := secondResp.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("expected stored content type, got %q", ct)
	}
}

func TestIdempotencyMiddlewareRejectsKeyReuseWithDifferentBody(t *testing.T) {
	store := newFakeStore()
	mw := Idempotency(store, nil)
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})

	first := mutatingRequest(http.MethodPost, "/api/v1/meals", strings.NewReader(`{"dishName":"curry"}`))
	first.Header.Set("Idempotency-Key", "key-1")
	mw(handler).ServeHTTP(httptest.NewRecorder(), first)

	second := mutatingRequest(http.MethodPost, "/api/v1/meals", strings.NewReader(`{"dishName":"ramen"}`))
	second.Header.Set("Idempotency-Key", "key-1")
	resp := httptest.NewRecorder()
	mw(handler).ServeHTTP(resp, second)

	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", resp.Code)
	}

	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode error envelope: %v", err)
	}
	if envelope.Error.Code != "IDEMPOTENCY_KEY_REUSED" {
		t.Fatalf("expected IDEMPOTENCY_KEY_REUSED got %q", envelope.Error.Code)
	}
}

func TestIdempotencyMiddlewareScopesByUser(t *testing.T) {
	store := newFakeStore()
	mw := Idempotency(store, nil)
	calls := 0
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusCreated)
	})

	body := `{"dishName":"curry"}`

	first := mutatingRequest(http.MethodPost, "/api/v1/meals", strings.NewReader(body))
	first = first.WithContext(WithUserID(first.Context(), 1))
	first.Header.Set("Idempotency-Key", "key-1")
	mw(handler).ServeHTTP(httptest.NewRecorder(), first)

	second := mutatingRequest(http.MethodPost, "/api/v1/meals", strings.NewReader(body))
	second = second.WithContext(WithUserID(second.Context(), 2))
	second.Header.Set("Idempotency-Key", "key-1")
	mw(handler).ServeHTTP(httptest.NewRecorder(), second)

	if calls != 2 {
		t.Fatalf("same key for different users should not collide, got %d calls", calls)
	}
}
