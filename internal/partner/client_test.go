package partner

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRequestExportPostsJSON(t *testing.T) {
	t.Parallel()

	var gotBody map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %s", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	client, err := New(Config{APIURL: srv.URL, Timeout: time.Second})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	status, err := client.RequestExport(context.Background(), "req-1")
	if err != nil {
		t.Fatalf("request export: %v", err)
	}
	if status != http.StatusCreated {
		t.Fatalf("status = %d, want 201", status)
	}
	if gotBody["request_id"] != "req-1" {
		t.Fatalf("body request_id = %q", gotBody["request_id"])
	}
}

func TestRequestExportSurfacesNon201(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client, err := New(Config{APIURL: srv.URL, Timeout: time.Second})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	status, err := client.RequestExport(context.Background(), "req-1")
	if err != nil {
		t.Fatalf("request export: %v", err)
	}
	if status != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429 passthrough", status)
	}
}

func TestRequestExportRespectsRateLimit(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	client, err := New(Config{APIURL: srv.URL, Timeout: time.Second, RPS: 1, Burst: 1})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := client.RequestExport(ctx, "req-1"); err != nil {
		t.Fatalf("first request: %v", err)
	}
	// Bucket exhausted: the second call must block until the context ends.
	if _, err := client.RequestExport(ctx, "req-2"); err == nil {
		t.Fatal("expected rate-limited second request to fail under a short context")
	}
}
