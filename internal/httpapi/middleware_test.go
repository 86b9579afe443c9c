package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRateBucketsSweepEvictsIdleClients(t *testing.T) {
	rb := newRateBuckets()
	clock := time.Now()
	rb.now = func() time.Time { return clock }

	rb.get("10.0.0.1", 1, 1)
	rb.get("10.0.0.2", 1, 1)
	if rb.len() != 2 {
		t.Fatalf("expected 2 buckets, got %d", rb.len())
	}

	// Requests inside the sweep interval leave everything in place.
	clock = clock.Add(30 * time.Second)
	rb.get("10.0.0.1", 1, 1)
	if rb.len() != 2 {
		t.Fatalf("expected 2 buckets after early request, got %d", rb.len())
	}

	// Past the idle TTL both old clients are evicted on the next request.
	clock = clock.Add(10 * time.Minute)
	rb.get("10.0.0.3", 1, 1)
	if rb.len() != 1 {
		t.Fatalf("expected idle buckets swept, got %d", rb.len())
	}
}

func TestRateLimitRejectsBurstOverflow(t *testing.T) {
	h := RateLimit(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}), 2, 1)

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		req.Header.Set("X-Forwarded-For", "203.0.113.9")
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK {
		t.Fatalf("burst requests should pass: %v", codes)
	}
	if codes[2] != http.StatusTooManyRequests {
		t.Fatalf("expected 429 past the burst, got %v", codes)
	}
}
