package weather

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sony/gobreaker"
)

const samplePayload = `{
	"location": {"name": "Ludhiana", "region": "Punjab", "country": "India"},
	"current": {
		"temp_c": 33.6,
		"condition": {"text": "Partly Cloudy", "icon": "//cdn.example.com/64x64/day/116.png"},
		"humidity": 45,
		"wind_kph": 11.2,
		"wind_dir": "NW",
		"feelslike_c": 36.4,
		"vis_km": 6.0,
		"uv": 8.0,
		"last_updated": "2025-06-01 14:30"
	}
}`

// TestAPIClient_CurrentConditions verifies request shape and normalization:
// rounded whole-degree temperatures and lowercased condition text.
func TestAPIClient_CurrentConditions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("key") != "test-key-123" || q.Get("q") != "ludhiana" || q.Get("aqi") != "no" {
			t.Errorf("query = %q", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(samplePayload))
	}))
	defer srv.Close()

	c, err := NewAPIClient("test-key-123", srv.URL, 2*time.Second)
	if err != nil {
		t.Fatalf("NewAPIClient: %v", err)
	}

	got, err := c.CurrentConditions(context.Background(), "ludhiana")
	if err != nil {
		t.Fatalf("CurrentConditions: %v", err)
	}
	if got.Location != "Ludhiana" || got.Region != "Punjab" || got.Country != "India" {
		t.Errorf("location fields = %q/%q/%q", got.Location, got.Region, got.Country)
	}
	if got.Temperature != 34 {
		t.Errorf("Temperature = %d, want 34 (rounded from 33.6)", got.Temperature)
	}
	if got.FeelsLike != 36 {
		t.Errorf("FeelsLike = %d, want 36 (rounded from 36.4)", got.FeelsLike)
	}
	if got.Condition != "partly cloudy" {
		t.Errorf("Condition = %q, want lowercased", got.Condition)
	}
	if got.Humidity != 45 || got.WindSpeed != 11.2 || got.WindDirection != "NW" {
		t.Errorf("wind/humidity fields = %+v", got)
	}
}

// TestAPIClient_RetriesServerErrors verifies 5xx responses are retried and
// eventually succeed.
func TestAPIClient_RetriesServerErrors(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(samplePayload))
	}))
	defer srv.Close()

	c, err := NewAPIClientWithRetry("test-key-123", srv.URL, 2*time.Second, 3, time.Millisecond, 5*time.Millisecond)
	if err != nil {
		t.Fatalf("NewAPIClientWithRetry: %v", err)
	}
	got, err := c.CurrentConditions(context.Background(), "ludhiana")
	if err != nil {
		t.Fatalf("CurrentConditions after retries: %v", err)
	}
	if calls != 3 {
		t.Fatalf("upstream calls = %d, want 3", calls)
	}
	if got.Location != "Ludhiana" {
		t.Fatalf("Location = %q", got.Location)
	}
}

// TestAPIClient_NotFoundIsTerminal verifies 404 is not retried and maps to
// ErrLocationNotFound.
func TestAPIClient_NotFoundIsTerminal(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c, err := NewAPIClientWithRetry("test-key-123", srv.URL, 2*time.Second, 3, time.Millisecond, 5*time.Millisecond)
	if err != nil {
		t.Fatalf("NewAPIClientWithRetry: %v", err)
	}
	_, err = c.CurrentConditions(context.Background(), "nowhere")
	if !errors.Is(err, ErrLocationNotFound) {
		t.Fatalf("err = %v, want ErrLocationNotFound", err)
	}
	if calls != 1 {
		t.Fatalf("upstream calls = %d, want 1 (no retry on 404)", calls)
	}
}

// TestAPIClient_OpenBreakerStopsRetries verifies that once the circuit opens
// the retry loop stops immediately instead of backing off against a breaker
// that will not close for minutes.
func TestAPIClient_OpenBreakerStopsRetries(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c, err := NewAPIClientWithRetry("test-key-123", srv.URL, 2*time.Second, 8, time.Millisecond, 5*time.Millisecond)
	if err != nil {
		t.Fatalf("NewAPIClientWithRetry: %v", err)
	}

	_, err = c.CurrentConditions(context.Background(), "ludhiana")
	if !errors.Is(err, ErrUpstreamFailure) {
		t.Fatalf("err = %v, want ErrUpstreamFailure", err)
	}
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Fatalf("err = %v, want wrapped gobreaker.ErrOpenState", err)
	}
	// The breaker trips after 5 consecutive failures, so of 8 attempts only
	// the first 5 reach the upstream.
	if calls != 5 {
		t.Fatalf("upstream calls = %d, want 5", calls)
	}

	// With the circuit open, subsequent lookups fail fast without touching
	// the upstream at all.
	_, err = c.CurrentConditions(context.Background(), "amritsar")
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Fatalf("err = %v, want wrapped gobreaker.ErrOpenState", err)
	}
	if calls != 5 {
		t.Fatalf("upstream calls = %d after open-circuit lookup, want 5", calls)
	}
}

// TestNewAPIClient_RequiresKey verifies construction fails without an API key.
func TestNewAPIClient_RequiresKey(t *testing.T) {
	if _, err := NewAPIClient("", "https://api.example.com", time.Second); !errors.Is(err, ErrInvalidAPIKey) {
		t.Fatalf("err = %v, want ErrInvalidAPIKey", err)
	}
}
