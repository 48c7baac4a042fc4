package middleware

import (
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/csrf"
)

// RateLimiter provides a per-IP token bucket rate limiter.
type RateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	rate     int           // tokens per interval
	interval time.Duration // refill interval
	stop     chan struct{}
}

type visitor struct {
	tokens     float64
	lastRefill time.Time
	lastSeen   time.Time
}

// NewRateLimiter creates a rate limiter allowing `rate` requests per `interval`.
// Call Stop to end the cleanup goroutine.
func NewRateLimiter(rate int, interval time.Duration) *RateLimiter {
	rl := &RateLimiter{
		visitors: make(map[string]*visitor),
		rate:     rate,
		interval: interval,
		stop:     make(chan struct{}),
	}
	go rl.cleanup()
	return rl
}

// cleanup drops visitors idle for five minutes, once a minute.
func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-rl.stop:
			return
		case <-ticker.C:
			rl.mu.Lock()
			for ip, v := range rl.visitors {
				if time.Since(v.lastSeen) > 5*time.Minute {
					delete(rl.visitors, ip)
				}
			}
			rl.mu.Unlock()
		}
	}
}

// Stop ends the cleanup goroutine.
func (rl *RateLimiter) Stop() {
	close(rl.stop)
}

// Allow checks if a request from the given IP is allowed.
// PRE: ip is non-empty
// POST: Returns true if within rate limit, false if exceeded
func (rl *RateLimiter) Allow(ip string) bool {
	return rl.allowAt(ip, time.Now())
}

// allowAt refills the bucket continuously: rate tokens per interval, capped at rate.
func (rl *RateLimiter) allowAt(ip string, now time.Time) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, exists := rl.visitors[ip]
	if !exists {
		v = &visitor{tokens: float64(rl.rate), lastRefill: now}
		rl.visitors[ip] = v
	}
	v.lastSeen = now

	if elapsed := now.Sub(v.lastRefill); elapsed > 0 {
		v.tokens += float64(rl.rate) * float64(elapsed) / float64(rl.interval)
		if v.tokens > float64(rl.rate) {
			v.tokens = float64(rl.rate)
		}
		v.lastRefill = now
	}

	if v.tokens < 1 {
		slog.Warn("rate_limit_exceeded", "ip", ip)
		return false
	}
	v.tokens--
	return true
}

// RateLimit returns middleware that limits requests per IP.
func RateLimit(limiter *RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow(clientIP(r)) {
				http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP strips the port from RemoteAddr.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// ClientIP is the address recorded in audit events.
func ClientIP(r *http.Request) string {
	return clientIP(r)
}

// SecurityHeaders adds OWASP recommended headers. Pages carry their CSS and
// JS inline, so the policy allows inline style and script from self only.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Security-Policy", "default-src 'self'; style-src 'self' 'unsafe-inline'; script-src 'self' 'unsafe-inline'; img-src 'self' data:; connect-src 'self'; form-action 'self'; frame-ancestors 'none'")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

// multipartMemory is the in-memory share of a parsed multipart body; the rest
// spills to temporary files.
const multipartMemory = 8 << 20

// BodyLimit caps POST bodies at limit bytes and parses form posts up front, so
// the CSRF check reads an already bounded form. Oversized bodies get a 400.
func BodyLimit(limit int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				next.ServeHTTP(w, r)
				return
			}
			if r.ContentLength > limit {
				bodyTooLarge(w, r)
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, limit)
			var err error
			if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
				err = r.ParseMultipartForm(multipartMemory)
			} else {
				err = r.ParseForm()
			}
			var tooBig *http.MaxBytesError
			if errors.As(err, &tooBig) {
				bodyTooLarge(w, r)
				return
			}
			// Other parse errors are reported by the handler that reads the form.
			next.ServeHTTP(w, r)
		})
	}
}

func bodyTooLarge(w http.ResponseWriter, r *http.Request) {
	slog.Warn("request_body_too_large", "path", r.URL.Path, "content_length", r.ContentLength)
	if IsAJAX(r) {
		deny(w, http.StatusBadRequest, "the upload is larger than the allowed size")
		return
	}
	http.Error(w, "the upload is larger than the allowed size", http.StatusBadRequest)
}

// CSRF names shared with the templates and the admin JavaScript.
const (
	CSRFFieldName  = "csrf_token"
	CSRFHeaderName = "X-CSRF-Token"
	CSRFCookieName = "_marketadmin_csrf"
)

// CSRFOptions configures CSRF.
type CSRFOptions struct {
	Key            []byte // 32 bytes
	Secure         bool   // cookie Secure flag; false serves plain HTTP in development
	TrustedOrigins []string
}

// CSRF returns a handler that rejects POST requests without a valid token in
// the csrf_token form field or the X-CSRF-Token header.
func CSRF(opts CSRFOptions) func(http.Handler) http.Handler {
	protect := csrf.Protect(
		opts.Key,
		csrf.Secure(opts.Secure),
		csrf.Path("/"),
		csrf.HttpOnly(true),
		csrf.SameSite(csrf.SameSiteStrictMode),
		csrf.CookieName(CSRFCookieName),
		csrf.FieldName(CSRFFieldName),
		csrf.RequestHeader(CSRFHeaderName),
		csrf.TrustedOrigins(opts.TrustedOrigins),
		csrf.ErrorHandler(http.HandlerFunc(csrfFailure)),
	)

	return func(next http.Handler) http.Handler {
		protected := protect(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !opts.Secure && r.TLS == nil {
				r = csrf.PlaintextHTTPRequest(r)
			}
			protected.ServeHTTP(w, r)
		})
	}
}

func csrfFailure(w http.ResponseWriter, r *http.Request) {
	slog.Warn("csrf_rejected", "path", r.URL.Path, "reason", csrf.FailureReason(r))
	if IsAJAX(r) {
		deny(w, http.StatusForbidden, "your form has expired, reload the page and try again")
		return
	}
	http.Error(w, "Forbidden - invalid CSRF token", http.StatusForbidden)
}
