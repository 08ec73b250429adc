package httpapi

import (
	"errors"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

var errTooManyWrites = errors.New("too many writes to this resource, retry shortly")

// mutationKey scopes a token bucket to one client acting on one resource.
type mutationKey struct {
	client string
	target string
}

type mutationBucket struct {
	limiter *rate.Limiter
	touched time.Time
}

// MutationLimiter throttles repeated writes per client and resource path.
// Buckets untouched for idleAfter are swept at most once per idleAfter.
type MutationLimiter struct {
	mu        sync.Mutex
	buckets   map[mutationKey]*mutationBucket
	every     rate.Limit
	burst     int
	idleAfter time.Duration
	lastSweep time.Time
	now       func() time.Time
}

// NewMutationLimiter allows burst writes, refilled at every per second.
func NewMutationLimiter(every rate.Limit, burst int) *MutationLimiter {
	return &MutationLimiter{
		buckets:   make(map[mutationKey]*mutationBucket),
		every:     every,
		burst:     burst,
		idleAfter: 10 * time.Minute,
		now:       time.Now,
	}
}

// Allow spends one token from the client's bucket for target.
func (l *MutationLimiter) Allow(client, target string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) >= l.idleAfter {
		for k, b := range l.buckets {
			if now.Sub(b.touched) >= l.idleAfter {
				delete(l.buckets, k)
			}
		}
		l.lastSweep = now
	}

	key := mutationKey{client: client, target: target}
	b, ok := l.buckets[key]
	if !ok {
		b = &mutationBucket{limiter: rate.NewLimiter(l.every, l.burst)}
		l.buckets[key] = b
	}
	b.touched = now
	return b.limiter.AllowN(now, 1)
}

func (l *MutationLimiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

// clientAddr reads the client host. middleware.RealIP has already replaced
// RemoteAddr with the forwarded address when one was sent.
func clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// LimitMutations throttles POST, PUT and DELETE per client and path. Reads
// pass through untouched.
func LimitMutations(l *MutationLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				next.ServeHTTP(w, r)
				return
			}

			if !l.Allow(clientAddr(r), r.URL.Path) {
				w.Header().Set("Retry-After", "1")
				WriteError(w, http.StatusTooManyRequests, errTooManyWrites)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// CORSMiddleware sets CORS headers for the configured origins. With no
// origins configured it adds nothing.
func CORSMiddleware(allowedOrigins []string) func(http.Handler) http.Handler {
	origins := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		origins[strings.TrimRight(o, "/")] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if origin := r.Header.Get("Origin"); origin != "" {
				if _, ok := origins[origin]; ok {
					w.Header().Set("Access-Control-Allow-Origin", origin)
					w.Header().Set("Access-Control-Allow-Credentials", "true")
					w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
					w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Correlation-ID")
					w.Header().Add("Vary", "Origin")
				}
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
