package httpx

import (
	"net/http"
	"testing"
	"time"
)

func TestIsRetryableHTTPStatus(t *testing.T) {
	for _, code := range []int{408, 429, 500, 502, 503, 599} {
		if !IsRetryableHTTPStatus(code) {
			t.Fatalf("expected %d retryable", code)
		}
	}
	for _, code := range []int{200, 201, 301, 400, 401, 404, 422} {
		if IsRetryableHTTPStatus(code) {
			t.Fatalf("expected %d not retryable", code)
		}
	}
}

func TestRetryAfterDuration(t *testing.T) {
	resp := &http.Response{Header: http.Header{}}
	resp.Header.Set("Retry-After", "3")

	got := RetryAfterDuration(resp, time.Second, 10*time.Second)
	if got != 3*time.Second {
		t.Fatalf("expected 3s, got %s", got)
	}

	got = RetryAfterDuration(resp, time.Second, 2*time.Second)
	if got != 2*time.Second {
		t.Fatalf("expected cap at 2s, got %s", got)
	}

	got = RetryAfterDuration(nil, time.Second, 10*time.Second)
	if got != time.Second {
		t.Fatalf("expected fallback 1s, got %s", got)
	}

	resp.Header.Set("Retry-After", "not-a-number")
	got = RetryAfterDuration(resp, time.Second, 10*time.Second)
	if got != time.Second {
		t.Fatalf("expected fallback on garbage header, got %s", got)
	}
}

func TestJitterSleepBounds(t *testing.T) {
	base := time.Second
	for i := 0; i < 50; i++ {
		v := JitterSleep(base)
		if v < 800*time.Millisecond || v > 1200*time.Millisecond {
			t.Fatalf("jitter out of bounds: %s", v)
		}
	}
	if JitterSleep(0) != 0 {
		t.Fatalf("expected zero for zero base")
	}
}
