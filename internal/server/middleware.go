// Provides the HTTP middleware chain.

package server

import (
	"log/slog"
	"net/http"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/maruel/ksid"
	"golang.org/x/crypto/bcrypt"

	"github.com/mirieri/mdb/internal/metrics"
	"github.com/mirieri/mdb/internal/server/dto"
	"github.com/mirieri/mdb/internal/server/ratelimit"
	"github.com/mirieri/mdb/internal/server/reqctx"
)

// adminUser is the basic auth user name required when a password is set.
const adminUser = "admin"

type middleware func(http.Handler) http.Handler

// chain applies mw so that the first one is the outermost.
func chain(h http.Handler, mw ...middleware) http.Handler {
	for i := len(mw) - 1; i >= 0; i-- {
		h = mw[i](h)
	}
	return h
}

// isMutating returns true for HTTP methods that modify state.
func isMutating(method string) bool {
	return method == http.MethodPost || method == http.MethodPut || method == http.MethodPatch || method == http.MethodDelete
}

// recoverPanics turns a handler panic into a 500 response.
func recoverPanics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if v := recover(); v != nil {
				if v == http.ErrAbortHandler { //nolint:errorlint // sentinel compared by identity
					panic(v)
				}
				slog.ErrorContext(r.Context(), "Handler panic", "panic", v, "stack", string(debug.Stack()))
				writeAPIError(w, dto.Internal("internal error"))
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// withRequestMetadata assigns a request id and records the client IP.
func withRequestMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := ksid.NewID()
		w.Header().Set(reqctx.RequestIDHeader, id.String())
		ctx := reqctx.WithRequestID(r.Context(), id)
		ctx = reqctx.WithClientIP(ctx, reqctx.GetClientIP(r))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// statusRecorder captures the response status for logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (s *statusRecorder) WriteHeader(code int) {
	if s.status == 0 {
		s.status = code
	}
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	if s.status == 0 {
		s.status = http.StatusOK
	}
	n, err := s.ResponseWriter.Write(b)
	s.bytes += n
	return n, err
}

func (s *statusRecorder) Unwrap() http.ResponseWriter {
	return s.ResponseWriter
}

// logRequests logs one line per request and counts it.
func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)
		if rec.status == 0 {
			rec.status = http.StatusOK
		}
		ctx := r.Context()
		metrics.HTTPRequests.WithLabelValues(r.Method, strconv.Itoa(rec.status)).Inc()
		slog.InfoContext(ctx, "http",
			"id", reqctx.RequestID(ctx).String(),
			"ip", reqctx.ClientIP(ctx),
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"size", rec.bytes,
			"dur", time.Since(start).Round(time.Microsecond),
		)
	})
}

// rateLimit rejects clients exceeding their tier with 429.
func rateLimit(limits *ratelimit.Config) middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tier := limits.Match(r.Method, r.URL.Path)
			if tier == nil {
				next.ServeHTTP(w, r)
				return
			}
			ip := reqctx.ClientIP(r.Context())
			result := tier.Limiter.Allow(ratelimit.BuildKey(ip, tier.Name))
			w = ratelimit.NewResponseWriter(w, result)
			if !result.Allowed {
				metrics.RateLimited.Inc()
				slog.WarnContext(r.Context(), "Rate limited", "ip", ip, "tier", tier.Name)
				writeRateLimitError(w, result)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// requireAdmin gates mutating requests behind HTTP basic auth when hash, a
// bcrypt hash, is not empty.
func requireAdmin(hash string) middleware {
	return func(next http.Handler) http.Handler {
		if hash == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !isMutating(r.Method) {
				next.ServeHTTP(w, r)
				return
			}
			user, pass, ok := r.BasicAuth()
			if !ok || user != adminUser || bcrypt.CompareHashAndPassword([]byte(hash), []byte(pass)) != nil {
				slog.WarnContext(r.Context(), "Unauthorized", "user", user)
				w.Header().Set("WWW-Authenticate", `Basic realm="mdb", charset="UTF-8"`)
				writeAPIError(w, dto.Unauthorized())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// limitBody caps request bodies to n bytes. n <= 0 disables the cap.
func limitBody(n int64) middleware {
	return func(next http.Handler) http.Handler {
		if n <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, n)
			}
			next.ServeHTTP(w, r)
		})
	}
}
