package transport

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestCallDecodesResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Custom") != "yes" {
			t.Errorf("expected custom header to pass through")
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"name":"widget"}`))
	}))
	defer server.Close()

	headers := http.Header{}
	headers.Set("X-Custom", "yes")

	var out struct {
		Name string `json:"name"`
	}
	err := Call(context.Background(), server.Client(), http.MethodGet, server.URL, headers, nil, &out)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Name != "widget" {
		t.Fatalf("unexpected payload: %+v", out)
	}
}

func TestCallSetsContentTypeForBody(t *testing.T) {
	var gotContentType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	err := Call(context.Background(), server.Client(), http.MethodPost, server.URL, nil,
		map[string]int{"quantity": 3}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotContentType != "application/json" {
		t.Fatalf("unexpected content type: %q", gotContentType)
	}
}

func TestCallReturnsStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte("no such product"))
	}))
	defer server.Close()

	err := Call(context.Background(), server.Client(), http.MethodGet, server.URL, nil, nil, nil)
	if err == nil {
		t.Fatal("expected error for 404 response")
	}

	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected StatusError, got %T", err)
	}
	if statusErr.Code != http.StatusNotFound {
		t.Fatalf("unexpected code: %d", statusErr.Code)
	}
	if !strings.Contains(statusErr.Body, "no such product") {
		t.Fatalf("expected body in error, got %q", statusErr.Body)
	}

	if !IsStatus(err, http.StatusNotFound) {
		t.Fatal("IsStatus should match 404")
	}
	if IsStatus(err, http.StatusConflict) {
		t.Fatal("IsStatus should not match other codes")
	}
	if IsStatus(errors.New("plain"), http.StatusNotFound) {
		t.Fatal("IsStatus should reject non-status errors")
	}
}

func TestCallTruncatesLargeErrorBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(strings.Repeat("x", maxErrorBody*2)))
	}))
	defer server.Close()

	err := Call(context.Background(), server.Client(), http.MethodGet, server.URL, nil, nil, nil)

	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected StatusError, got %T", err)
	}
	if len(statusErr.Body) > maxErrorBody {
		t.Fatalf("error body not truncated: %d bytes", len(statusErr.Body))
	}
}
