package middleware

import (
	"net/http"
	"sync"
	"time"
)

// Throttle caps request rates per client address using a token bucket.
// Booking creation sits behind it so a single client cannot hoard slot
// holds.
type Throttle struct {
	mu      sync.Mutex
	clients map[string]*tokenBucket
	rate    float64 // tokens replenished per second
	burst   int
	now     func() time.Time
}

type tokenBucket struct {
	tokens float64
	seen   time.Time
}

// NewThrottle allows rate requests per second with the given burst per
// client.
func NewThrottle(rate float64, burst int) *Throttle {
	th := &Throttle{
		clients: make(map[string]*tokenBucket),
		rate:    rate,
		burst:   burst,
		now:     time.Now,
	}
	go th.evictLoop()
	return th
}

// Allow consumes a token for the client if one is available.
func (th *Throttle) Allow(client string) bool {
	th.mu.Lock()
	defer th.mu.Unlock()

	now := th.now()
	b, ok := th.clients[client]
	if !ok {
		b = &tokenBucket{tokens: float64(th.burst), seen: now}
		th.clients[client] = b
	}
	b.tokens += now.Sub(b.seen).Seconds() * th.rate
	if b.tokens > float64(th.burst) {
		b.tokens = float64(th.burst)
	}
	b.seen = now

	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

// evictIdle drops buckets not seen since the cutoff.
func (th *Throttle) evictIdle(cutoff time.Time) {
	th.mu.Lock()
	defer th.mu.Unlock()
	for client, b := range th.clients {
		if b.seen.Before(cutoff) {
			delete(th.clients, client)
		}
	}
}

func (th *Throttle) evictLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		th.evictIdle(time.Now().Add(-10 * time.Minute))
	}
}

// RateLimit returns a middleware rejecting clients that exceed rate
// requests per second with 429 Too Many Requests.
func RateLimit(rate float64, burst int) func(http.Handler) http.Handler {
	th := NewThrottle(rate, burst)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			client := r.RemoteAddr
			// chi's RealIP middleware rewrites this header upstream.
			if xri := r.Header.Get("X-Real-Ip"); xri != "" {
				client = xri
			}
			if !th.Allow(client) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				w.Write([]byte(`{"error":"too many requests"}` + "\n"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
