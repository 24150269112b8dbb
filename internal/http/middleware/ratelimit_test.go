package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRateLimitRejectsBurstOverflow(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	limited := RateLimit(0.001, 2)(handler)

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/bookings", nil)
		req.Header.Set("X-Real-Ip", "10.0.0.1")
		rec := httptest.NewRecorder()
		limited.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}

	if codes[0] != http.StatusOK || codes[1] != http.StatusOK {
		t.Fatalf("first two requests should pass, got %v", codes)
	}
	if codes[2] != http.StatusTooManyRequests {
		t.Errorf("third request code = %d, want 429", codes[2])
	}
}

func TestThrottleReplenishesOverTime(t *testing.T) {
	clock := time.Date(2026, time.June, 1, 12, 0, 0, 0, time.UTC)
	th := NewThrottle(1, 1)
	th.now = func() time.Time { return clock }

	if !th.Allow("10.0.0.1") {
		t.Fatal("first request should pass")
	}
	if th.Allow("10.0.0.1") {
		t.Fatal("bucket should be empty immediately after the burst")
	}

	clock = clock.Add(1500 * time.Millisecond)
	if !th.Allow("10.0.0.1") {
		t.Error("a token should have replenished after 1.5s at 1 req/s")
	}
}

func TestThrottleEvictsIdleClients(t *testing.T) {
	clock := time.Date(2026, time.June, 1, 12, 0, 0, 0, time.UTC)
	th := NewThrottle(1, 1)
	th.now = func() time.Time { return clock }

	th.Allow("10.0.0.1")
	th.evictIdle(clock.Add(-time.Minute))
	if len(th.clients) != 1 {
		t.Fatalf("recently seen client evicted, have %d buckets", len(th.clients))
	}

	th.evictIdle(clock.Add(time.Minute))
	if len(th.clients) != 0 {
		t.Errorf("idle client not evicted, have %d buckets", len(th.clients))
	}
}

func TestRateLimitTracksClientsSeparately(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	limited := RateLimit(0.001, 1)(handler)

	for _, ip := range []string{"10.0.0.1", "10.0.0.2"} {
		req := httptest.NewRequest(http.MethodPost, "/bookings", nil)
		req.Header.Set("X-Real-Ip", ip)
		rec := httptest.NewRecorder()
		limited.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("first request for %s code = %d, want 200", ip, rec.Code)
		}
	}
}
