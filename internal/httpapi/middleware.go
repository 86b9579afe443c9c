package httpapi

import (
	"context"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/fixline/admin-api/internal/audit"
	"github.com/fixline/admin-api/internal/ids"
	"github.com/fixline/admin-api/internal/obs"
)

type requestIDKey struct{}

// RequestIDFromContext returns the per-request correlation id.
func RequestIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(requestIDKey{}).(string); ok {
		return v
	}
	return ""
}

type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}

// Logging assigns a request id and emits one JSON line per request.
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := ids.New()
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		ctx = audit.WithRequestID(ctx, requestID)

		sw := &statusWriter{ResponseWriter: w, code: 200}
		start := time.Now()
		next.ServeHTTP(sw, r.WithContext(ctx))

		obs.LogRequest(map[string]any{
			"ts":         start.UTC().Format(time.RFC3339Nano),
			"level":      "info",
			"request_id": requestID,
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     sw.code,
			"duration":   time.Since(start).String(),
			"remote":     clientIP(r),
		})
	})
}

// SecurityHeaders sets the standard hardening headers.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "no-referrer")
		w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		next.ServeHTTP(w, r)
	})
}

// CORS allows local development origins; extend the check for deployments.
func CORS(next http.Handler) http.Handler {
	allowedMethods := "GET,POST,PATCH,DELETE,OPTIONS"
	allowedHeaders := "Content-Type,Authorization,Platform"

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if origin := r.Header.Get("Origin"); origin != "" && isLocalOrigin(origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Vary", "Origin")
		}
		w.Header().Set("Access-Control-Allow-Methods", allowedMethods)
		w.Header().Set("Access-Control-Allow-Headers", allowedHeaders)
		w.Header().Set("Access-Control-Max-Age", "600")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// MaxBodyBytes caps request body size.
func MaxBodyBytes(next http.Handler, maxBytes int64) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
		next.ServeHTTP(w, r)
	})
}

type rateBucket struct {
	lim *rate.Limiter
	ts  time.Time
}

// rateBuckets holds per-client token buckets. Idle entries are swept
// opportunistically on the request path, so no background goroutine is
// needed and the limiter never outlives its handler.
type rateBuckets struct {
	mu        sync.Mutex
	buckets   map[string]*rateBucket
	ttl       time.Duration
	sweepEach time.Duration
	lastSweep time.Time
	now       func() time.Time
}

func newRateBuckets() *rateBuckets {
	return &rateBuckets{
		buckets:   make(map[string]*rateBucket),
		ttl:       5 * time.Minute,
		sweepEach: time.Minute,
		now:       time.Now,
	}
}

func (rb *rateBuckets) get(key string, perSecond, burst int) *rate.Limiter {
	now := rb.now()
	rb.mu.Lock()
	defer rb.mu.Unlock()
	if now.Sub(rb.lastSweep) >= rb.sweepEach {
		for k, b := range rb.buckets {
			if now.Sub(b.ts) > rb.ttl {
				delete(rb.buckets, k)
			}
		}
		rb.lastSweep = now
	}
	b, ok := rb.buckets[key]
	if !ok {
		b = &rateBucket{lim: rate.NewLimiter(rate.Limit(perSecond), burst)}
		rb.buckets[key] = b
	}
	b.ts = now
	return b.lim
}

func (rb *rateBuckets) len() int {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	return len(rb.buckets)
}

// RateLimit applies a token bucket per client IP.
func RateLimit(next http.Handler, burst int, perSecond int) http.Handler {
	rb := newRateBuckets()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		if ip == "" {
			ip = "unknown"
		}
		if !rb.get(ip, perSecond, burst).Allow() {
			writeJSON(w, http.StatusTooManyRequests, envelope{Success: false, Message: "rate limit exceeded"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		return strings.TrimSpace(parts[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func isLocalOrigin(o string) bool {
	return strings.HasPrefix(o, "http://localhost:") || strings.HasPrefix(o, "http://127.0.0.1:")
}
