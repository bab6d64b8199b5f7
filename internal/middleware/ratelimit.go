package middleware

import (
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Idle per-client buckets are swept periodically so one-off callers
// (ingestion scripts, curl probes) do not grow the map forever.
const (
	limiterSweepInterval = 5 * time.Minute
	limiterIdleExpiry    = 10 * time.Minute
)

// RateLimitConfig holds configuration for the rate limiter middleware.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate limit (tokens added per second).
	RequestsPerSecond float64
	// Burst is the maximum number of requests allowed in a burst.
	Burst int
}

type clientBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// clientLimiters keeps one token bucket per client IP.
type clientLimiters struct {
	cfg RateLimitConfig

	mu      sync.Mutex
	buckets map[string]*clientBucket
}

func newClientLimiters(cfg RateLimitConfig) *clientLimiters {
	l := &clientLimiters{cfg: cfg, buckets: make(map[string]*clientBucket)}
	go l.sweep()
	return l
}

func (l *clientLimiters) get(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	if b, ok := l.buckets[ip]; ok {
		b.lastSeen = time.Now()
		return b.limiter
	}
	limiter := rate.NewLimiter(rate.Limit(l.cfg.RequestsPerSecond), l.cfg.Burst)
	l.buckets[ip] = &clientBucket{limiter: limiter, lastSeen: time.Now()}
	return limiter
}

func (l *clientLimiters) sweep() {
	for {
		time.Sleep(limiterSweepInterval)
		l.mu.Lock()
		for ip, b := range l.buckets {
			if time.Since(b.lastSeen) > limiterIdleExpiry {
				delete(l.buckets, ip)
			}
		}
		l.mu.Unlock()
	}
}

// RateLimiter returns an HTTP middleware enforcing a per-client token
// bucket. Lineage traversals can be expensive on large graphs, so
// over-limit requests are rejected up front with 429 Too Many Requests
// rather than queued.
func RateLimiter(cfg RateLimitConfig) func(http.Handler) http.Handler {
	limiters := newClientLimiters(cfg)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			limiter := limiters.get(clientIP(r))

			reservation := limiter.Reserve()
			if !reservation.OK() {
				writeRateLimited(w, 0)
				return
			}
			if delay := reservation.Delay(); delay > 0 {
				// Granting now would exceed the sustained rate. Give the
				// tokens back and tell the client when to retry.
				reservation.Cancel()
				writeRateLimited(w, int(delay.Seconds())+1)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(cfg.Burst))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(int(limiter.Tokens())))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(time.Second).Unix(), 10))

			next.ServeHTTP(w, r)
		})
	}
}

// clientIP keys buckets by RemoteAddr with the port stripped.
// X-Forwarded-For is deliberately ignored: it is caller-controlled and
// would let a client rotate its own bucket.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeRateLimited(w http.ResponseWriter, retryAfterSecs int) {
	if retryAfterSecs > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(retryAfterSecs))
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"code":    http.StatusTooManyRequests,
		"message": "rate limit exceeded",
	})
}
