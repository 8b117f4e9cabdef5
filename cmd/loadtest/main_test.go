package main

import (
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestPercentile(t *testing.T) {
	sorted := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}

	if got := percentile(sorted, 50); !almostEqual(got, 5.5) {
		t.Fatalf("unexpected p50: %v", got)
	}
	if got := percentile(sorted, 95); !almostEqual(got, 9.55) {
		t.Fatalf("unexpected p95: %v", got)
	}
	if got := percentile([]float64{42}, 99); !almostEqual(got, 42) {
		t.Fatalf("unexpected single-value percentile: %v", got)
	}
	if got := percentile(nil, 50); got != 0 {
		t.Fatalf("unexpected empty percentile: %v", got)
	}
}

func TestBuildLatencySummary(t *testing.T) {
	summary := buildLatencySummary([]float64{30, 10, 20})

	if summary.Min != 10 || summary.Max != 30 {
		t.Fatalf("unexpected min/max: %+v", summary)
	}
	if !almostEqual(summary.Avg, 20) {
		t.Fatalf("unexpected avg: %v", summary.Avg)
	}
	if !almostEqual(summary.P50, 20) {
		t.Fatalf("unexpected p50: %v", summary.P50)
	}

	if empty := buildLatencySummary(nil); empty != (latencySummary{}) {
		t.Fatalf("expected zero summary for no samples, got %+v", empty)
	}
}

func TestRatio(t *testing.T) {
	if got := ratio(1, 4); !almostEqual(got, 0.25) {
		t.Fatalf("unexpected ratio: %v", got)
	}
	if got := ratio(1, 0); got != 0 {
		t.Fatalf("expected 0 for empty total, got %v", got)
	}
}

func TestParseMode(t *testing.T) {
	if mode, err := parseMode(" browse "); err != nil || mode != modeBrowse {
		t.Fatalf("unexpected result: %v %v", mode, err)
	}
	if mode, err := parseMode("checkout"); err != nil || mode != modeCheckout {
		t.Fatalf("unexpected result: %v %v", mode, err)
	}
	if _, err := parseMode("create-pay"); err == nil {
		t.Fatal("expected error for unsupported mode")
	}
}

func TestCollectorRecordsScenario(t *testing.T) {
	col := newCollector()
	col.record("scenario", 10*time.Millisecond, "ok", true)
	col.record("scenario", 20*time.Millisecond, "failed", false)
	col.record("ListProducts", 5*time.Millisecond, "200", true)

	result := col.buildReport(time.Now(), time.Second)

	if result.TotalScenarios != 2 || result.SuccessScenarios != 1 || result.FailedScenarios != 1 {
		t.Fatalf("unexpected scenario counts: %+v", result)
	}
	if !almostEqual(result.ErrorRate, 0.5) {
		t.Fatalf("unexpected error rate: %v", result.ErrorRate)
	}
	if result.Endpoints["ListProducts"].Codes["200"] != 1 {
		t.Fatalf("unexpected endpoint codes: %+v", result.Endpoints["ListProducts"])
	}
}

func TestRunScenarioBrowse(t *testing.T) {
	var paths []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		_, _ = w.Write([]byte("[]"))
	}))
	defer server.Close()

	cfg := config{
		gateway:   server.URL,
		mode:      modeBrowse,
		productID: "3",
		qty:       1,
	}
	col := newCollector()

	if err := runScenario(server.Client(), cfg, 0, "run-1", col); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(paths) != 2 {
		t.Fatalf("expected 2 requests, got %v", paths)
	}
	if paths[1] != "/product-service/api/products/3" {
		t.Fatalf("unexpected product path: %s", paths[1])
	}
}

func TestRunScenarioCheckoutSendsIdempotencyKey(t *testing.T) {
	var keys []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			keys = append(keys, r.Header.Get(idempotencyHeader))
		}
		_, _ = w.Write([]byte("{}"))
	}))
	defer server.Close()

	cfg := config{
		gateway:   server.URL,
		token:     "load-token",
		mode:      modeCheckout,
		productID: "1",
		qty:       2,
	}
	col := newCollector()

	if err := runScenario(server.Client(), cfg, 7, "run-2", col); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(keys) != 1 || keys[0] != "lt-order-run-2-7" {
		t.Fatalf("unexpected idempotency keys: %v", keys)
	}
}

func TestRunScenarioFailureRecorded(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	cfg := config{
		gateway:   server.URL,
		mode:      modeBrowse,
		productID: "1",
		qty:       1,
	}
	col := newCollector()

	if err := runScenario(server.Client(), cfg, 0, "run-3", col); err == nil {
		t.Fatal("expected scenario failure")
	}

	result := col.buildReport(time.Now(), time.Second)
	if result.FailedScenarios != 1 {
		t.Fatalf("expected failed scenario, got %+v", result)
	}
	if result.Endpoints["ListProducts"].Codes["502"] != 1 {
		t.Fatalf("expected 502 recorded, got %+v", result.Endpoints["ListProducts"])
	}
}
