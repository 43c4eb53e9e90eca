package middleware

import (
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/iamasit07/wishplace/backend/pkg/useragent"
)

const limiterIdleTTL = 10 * time.Minute

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter throttles requests per client IP with a token bucket each.
// Idle buckets are dropped lazily.
type RateLimiter struct {
	perMinute int
	limit     rate.Limit
	burst     int
	now       func() time.Time

	// Rejected, when set, is incremented for every throttled request.
	Rejected prometheus.Counter

	mu        sync.Mutex
	visitors  map[string]*visitor
	lastSweep time.Time
}

func NewRateLimiter(perMinute, burst int) *RateLimiter {
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{
		perMinute: perMinute,
		limit:     rate.Limit(float64(perMinute) / 60),
		burst:     burst,
		now:       time.Now,
		visitors:  make(map[string]*visitor),
	}
}

// Allow reports whether key may make a request now.
func (l *RateLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) > limiterIdleTTL {
		for k, v := range l.visitors {
			if now.Sub(v.lastSeen) > limiterIdleTTL {
				delete(l.visitors, k)
			}
		}
		l.lastSweep = now
	}

	v, ok := l.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.visitors[key] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

func (l *RateLimiter) Handler(next http.Handler) http.Handler {
	retryAfter := "60"
	if l.perMinute > 0 {
		retryAfter = strconv.Itoa((60 + l.perMinute - 1) / l.perMinute)
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if l.Allow(useragent.ExtractIPAddress(r)) {
			next.ServeHTTP(w, r)
			return
		}
		if l.Rejected != nil {
			l.Rejected.Inc()
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Retry-After", retryAfter)
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]string{"error": "Too many attempts, try again later"})
	})
}
