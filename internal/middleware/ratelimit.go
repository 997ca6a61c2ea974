package middleware

import (
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/CodeByDouglas/rocks-monitoramento-backend/internal/metrics"
)

// RateLimiter applies a per-client token bucket, keyed by remote address
// (chi's RealIP middleware runs first, so r.RemoteAddr is the real client
// behind a proxy). Limits are requests-per-window with a burst of the full
// window — an agent that submits a batch after being offline is not
// penalized, sustained flooding is.
type RateLimiter struct {
	mu       sync.Mutex
	clients  map[string]*clientBucket
	limit    rate.Limit
	burst    int
	lastSeen time.Duration // eviction horizon for idle clients
}

type clientBucket struct {
	limiter *rate.Limiter
	seen    time.Time
}

// NewRateLimiter allows `requests` per `window` per client.
func NewRateLimiter(requests int, window time.Duration) *RateLimiter {
	if requests <= 0 {
		requests = 120
	}
	if window <= 0 {
		window = time.Minute
	}
	return &RateLimiter{
		clients:  make(map[string]*clientBucket),
		limit:    rate.Limit(float64(requests) / window.Seconds()),
		burst:    requests,
		lastSeen: 3 * window,
	}
}

// Handler is the middleware entry point.
func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.allow(r.RemoteAddr) {
			metrics.RateLimited.Inc()
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"error":"rate_limited","message":"Too Many Requests"}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (rl *RateLimiter) allow(client string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()

	b, ok := rl.clients[client]
	if !ok {
		// Piggyback idle-client eviction on new-client arrivals so the map
		// cannot grow without bound.
		for addr, bucket := range rl.clients {
			if now.Sub(bucket.seen) > rl.lastSeen {
				delete(rl.clients, addr)
			}
		}
		b = &clientBucket{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.clients[client] = b
	}
	b.seen = now

	return b.limiter.Allow()
}
