package httpretry

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func getRequest(url string) RequestFunc {
	return func(ctx context.Context) (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	}
}

func TestDoRetriesServerErrorsThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "try again", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	var sleeps []time.Duration
	var retries []int
	policy := DefaultPolicy()
	policy.Sleeper = func(d time.Duration) { sleeps = append(sleeps, d) }
	policy.OnRetry = func(attempt int, _ time.Duration, _ error) { retries = append(retries, attempt) }

	body, err := policy.Do(context.Background(), server.Client(), "test get", getRequest(server.URL))
	if err != nil {
		t.Fatalf("Do returned error: %v", err)
	}
	if string(body) != "ok" {
		t.Fatalf("unexpected body %q", body)
	}
	if calls.Load() != 3 {
		t.Fatalf("expected 3 calls, got %d", calls.Load())
	}
	if len(sleeps) != 2 || sleeps[0] != time.Second || sleeps[1] != 2*time.Second {
		t.Fatalf("unexpected backoff sequence %v", sleeps)
	}
	if len(retries) != 2 || retries[0] != 1 || retries[1] != 2 {
		t.Fatalf("unexpected retry callbacks %v", retries)
	}
}

func TestDoDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "bad key", http.StatusForbidden)
	}))
	defer server.Close()

	policy := DefaultPolicy()
	policy.Sleeper = func(time.Duration) { t.Fatal("should not sleep") }

	_, err := policy.Do(context.Background(), server.Client(), "test get", getRequest(server.URL))
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if statusErr.StatusCode != http.StatusForbidden || !strings.Contains(statusErr.Body, "bad key") {
		t.Fatalf("unexpected status error %+v", statusErr)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected single call, got %d", calls.Load())
	}
}

func TestDoHonorsRetryAfterAndGivesUp(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	var sleeps []time.Duration
	policy := Policy{MaxAttempts: 3, BaseDelay: time.Second, MaxDelay: 5 * time.Second}
	policy.Sleeper = func(d time.Duration) { sleeps = append(sleeps, d) }

	_, err := policy.Do(context.Background(), server.Client(), "test get", getRequest(server.URL))
	if err == nil {
		t.Fatal("expected error after exhausting attempts")
	}
	if !strings.Contains(err.Error(), "failed after 3 attempts") {
		t.Fatalf("unexpected error %v", err)
	}
	if calls.Load() != 3 {
		t.Fatalf("expected 3 calls, got %d", calls.Load())
	}
	for _, d := range sleeps {
		if d != 5*time.Second {
			t.Fatalf("expected Retry-After capped at max delay, got %v", sleeps)
		}
	}
}

func TestDoStopsOnCancelledContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	policy := DefaultPolicy()
	policy.Sleeper = func(time.Duration) { cancel() }

	_, err := policy.Do(ctx, server.Client(), "test get", getRequest(server.URL))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context cancellation, got %v", err)
	}
}

func TestBackoffDelayCaps(t *testing.T) {
	policy := DefaultPolicy()
	want := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second, 10 * time.Second, 10 * time.Second}
	for i, expected := range want {
		if got := policy.backoffDelay(i + 1); got != expected {
			t.Fatalf("backoffDelay(%d) = %v, want %v", i+1, got, expected)
		}
	}
}

func TestParseRetryAfter(t *testing.T) {
	if d, ok := ParseRetryAfter("3"); !ok || d != 3*time.Second {
		t.Fatalf("ParseRetryAfter(3) = %v %v", d, ok)
	}
	if _, ok := ParseRetryAfter("-1"); ok {
		t.Fatal("negative seconds should be rejected")
	}
	if _, ok := ParseRetryAfter("soon"); ok {
		t.Fatal("garbage should be rejected")
	}
	future := time.Now().Add(time.Minute).UTC().Format(http.TimeFormat)
	if d, ok := ParseRetryAfter(future); !ok || d <= 0 {
		t.Fatalf("ParseRetryAfter(date) = %v %v", d, ok)
	}
}

func TestIsTimeout(t *testing.T) {
	if !IsTimeout(context.DeadlineExceeded) {
		t.Fatal("deadline exceeded should be a timeout")
	}
	if IsTimeout(errors.New("boom")) {
		t.Fatal("plain errors are not timeouts")
	}
	if IsTimeout(nil) {
		t.Fatal("nil is not a timeout")
	}
}

func TestSnippetTruncates(t *testing.T) {
	long := strings.Repeat("a ", 300)
	got := Snippet(long)
	if !strings.HasSuffix(got, "...") || len([]rune(got)) != 203 {
		t.Fatalf("unexpected snippet length %d", len([]rune(got)))
	}
	if Snippet(" \n\t ") != "" {
		t.Fatal("blank content should produce empty snippet")
	}
}
