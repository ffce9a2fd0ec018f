package httpx

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	lenderr "github.com/ggonzalez94/lend-risk/errors"
)

func TestDoJSONDecodes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok": true}`))
	}))
	defer srv.Close()

	var out struct {
		OK bool `json:"ok"`
	}
	client := New(2*time.Second, 0)
	if _, err := DoBodyJSON(context.Background(), client, http.MethodGet, srv.URL, nil, nil, &out); err != nil {
		t.Fatalf("DoBodyJSON failed: %v", err)
	}
	if !out.OK {
		t.Fatalf("response not decoded: %+v", out)
	}
}

func TestDoJSONRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	client := New(2*time.Second, 2)
	var out map[string]any
	if _, err := DoBodyJSON(context.Background(), client, http.MethodGet, srv.URL, nil, nil, &out); err != nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected 2 attempts, got %d", calls.Load())
	}
}

func TestDoJSONRetriesPostBodies(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	client := New(2*time.Second, 1)
	var out map[string]any
	if _, err := DoBodyJSON(context.Background(), client, http.MethodPost, srv.URL, []byte(`{"q":1}`), nil, &out); err != nil {
		t.Fatalf("expected rate-limit retry to succeed, got %v", err)
	}
}

func TestDoJSONClassifiesFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := New(2*time.Second, 0)
	_, err := DoBodyJSON(context.Background(), client, http.MethodGet, srv.URL, nil, nil, &map[string]any{})
	rec, ok := lenderr.As(err)
	if !ok {
		t.Fatalf("expected a classified record, got %v", err)
	}
	if rec.Code != lenderr.CodeDataFetchFailed || !rec.Retryable {
		t.Fatalf("5xx must be retryable DATA_FETCH_FAILED, got %+v", rec)
	}
}

func TestDoJSONTerminalOnClientError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	client := New(2*time.Second, 2)
	_, err := DoBodyJSON(context.Background(), client, http.MethodGet, srv.URL, nil, nil, &map[string]any{})
	rec, ok := lenderr.As(err)
	if !ok {
		t.Fatalf("expected a classified record, got %v", err)
	}
	if rec.Retryable {
		t.Fatalf("4xx responses are terminal, got %+v", rec)
	}
}

func TestDoJSONEmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	client := New(2*time.Second, 0)
	_, err := DoBodyJSON(context.Background(), client, http.MethodGet, srv.URL, nil, nil, &map[string]any{})
	rec, ok := lenderr.As(err)
	if !ok || rec.Code != lenderr.CodeDataFetchFailed {
		t.Fatalf("empty body must classify as DATA_FETCH_FAILED, got %v", err)
	}
}
