package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/time/rate"

	"github.com/piwi3910/MoldQuote/internal/metrics"
)

type contextKey string

const subjectKey contextKey = "subject"

// anonymous is recorded as the author of changes when authentication is off.
const anonymous = "api"

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.WithFields(map[string]interface{}{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      ww.Status(),
			"bytes":       ww.BytesWritten(),
			"duration_ms": time.Since(start).Milliseconds(),
			"remote":      r.RemoteAddr,
		}).Info("HTTP request")
	})
}

func (s *Server) recordMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		timer := metrics.NewTimer()
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		s.metrics.RecordRequest(r.Method, route, status, timer.Duration())
	})
}

// Idle clients are forgotten after clientIdleTTL; the map is swept at most
// once per clientSweepInterval, on the request path.
const (
	clientIdleTTL       = 10 * time.Minute
	clientSweepInterval = time.Minute
)

type clientEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// clientRateLimiter keeps one token bucket per client address.
type clientRateLimiter struct {
	mu        sync.Mutex
	clients   map[string]*clientEntry
	r         rate.Limit
	b         int
	now       func() time.Time
	lastSweep time.Time
}

func newClientRateLimiter(r rate.Limit, b int) *clientRateLimiter {
	return &clientRateLimiter{
		clients: make(map[string]*clientEntry),
		r:       r,
		b:       b,
		now:     time.Now,
	}
}

func (l *clientRateLimiter) limiter(client string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) >= clientSweepInterval {
		l.sweep(now)
	}
	e, ok := l.clients[client]
	if !ok {
		e = &clientEntry{limiter: rate.NewLimiter(l.r, l.b)}
		l.clients[client] = e
	}
	e.lastSeen = now
	return e.limiter
}

// sweep drops clients idle for longer than clientIdleTTL. Callers hold mu.
func (l *clientRateLimiter) sweep(now time.Time) {
	for client, e := range l.clients {
		if now.Sub(e.lastSeen) > clientIdleTTL {
			delete(l.clients, client)
		}
	}
	l.lastSweep = now
}

// middleware rejects requests over the client's budget with 429. A
// non-positive rate disables limiting.
func (l *clientRateLimiter) middleware(rec *metrics.Recorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if l.r <= 0 || l.b <= 0 {
				next.ServeHTTP(w, r)
				return
			}
			if !l.limiter(clientKey(r)).Allow() {
				rec.RecordRateLimited()
				w.Header().Set("Retry-After", "1")
				writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "too many requests, try again later"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// authenticator checks HS256 bearer tokens. An empty key lets every request
// through.
type authenticator struct {
	key []byte
}

func newAuthenticator(key []byte) *authenticator {
	return &authenticator{key: key}
}

func (a *authenticator) enabled() bool {
	return len(a.key) > 0
}

func (a *authenticator) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !a.enabled() {
			next.ServeHTTP(w, r)
			return
		}
		subject, err := a.verify(r.Header.Get("Authorization"))
		if err != nil {
			w.Header().Set("WWW-Authenticate", `Bearer realm="moldquote"`)
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: err.Error()})
			return
		}
		ctx := context.WithValue(r.Context(), subjectKey, subject)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// verify parses the bearer token of header and returns its subject.
func (a *authenticator) verify(header string) (string, error) {
	raw, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || strings.TrimSpace(raw) == "" {
		return "", errors.New("missing bearer token")
	}
	token, err := jwt.Parse(strings.TrimSpace(raw), func(token *jwt.Token) (interface{}, error) {
		return a.key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return "", errors.New("invalid token")
	}
	subject, err := token.Claims.GetSubject()
	if err != nil || subject == "" {
		return anonymous, nil
	}
	return subject, nil
}

// changedBy returns the authenticated subject of the request.
func changedBy(r *http.Request) string {
	if s, ok := r.Context().Value(subjectKey).(string); ok && s != "" {
		return s
	}
	return anonymous
}
