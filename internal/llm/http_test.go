package llm

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestPostJSON_RetriesOnceOnServerError(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			http.Error(w, "bad gateway", http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	raw, status, err := PostJSON(context.Background(), srv.Client(), srv.URL, map[string]string{"q": "x"}, nil, time.Millisecond, nil)
	if err != nil {
		t.Fatalf("PostJSON() error: %v", err)
	}
	if attempts != 2 {
		t.Errorf("attempts = %d, want 2", attempts)
	}
	if status != http.StatusOK {
		t.Errorf("status = %d", status)
	}
	if string(raw) != `{"ok":true}` {
		t.Errorf("raw = %s", raw)
	}
}

func TestPostJSON_StopsAfterSecondFailure(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, status, err := PostJSON(context.Background(), srv.Client(), srv.URL, nil, nil, time.Millisecond, nil)
	if err == nil {
		t.Fatal("PostJSON() succeeded, want error")
	}
	if attempts != 2 {
		t.Errorf("attempts = %d, want 2", attempts)
	}
	if status != http.StatusServiceUnavailable {
		t.Errorf("status = %d", status)
	}
}

func TestPostJSON_ContextCancelSkipsRetry(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	_, _, err := PostJSON(ctx, srv.Client(), srv.URL, nil, nil, time.Second, nil)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("PostJSON() error = %v, want deadline exceeded", err)
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1", attempts)
	}
}
