package httpserver

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"net/netip"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/time/rate"

	"github.com/yndnr/memkv-go/pkg/cmap"
)

type ctxKey int

const (
	requestIDKey ctxKey = iota
	startKey
)

// HeaderRequestID carries the request ID in both directions.
const HeaderRequestID = "X-Request-ID"

// maxTrackedClients bounds the limiter table before idle entries are
// pruned.
const maxTrackedClients = 4096

// Middleware wraps an http.Handler.
type Middleware func(http.Handler) http.Handler

// Chain applies middlewares so the first one listed runs first.
func Chain(h http.Handler, middlewares ...Middleware) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}

// RequestID tags the request with the caller's X-Request-ID or a fresh
// ULID and echoes it in the response.
func RequestID() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(HeaderRequestID)
			if id == "" {
				id = "req-" + ulid.Make().String()
			}
			w.Header().Set(HeaderRequestID, id)

			ctx := context.WithValue(r.Context(), requestIDKey, id)
			ctx = context.WithValue(ctx, startKey, time.Now())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequestIDFrom returns the ID set by RequestID.
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// RateLimit gives each peer address a token bucket of perSecond requests
// per second with an equal burst.
func RateLimit(perSecond int) Middleware {
	limiters := cmap.New[*rate.Limiter]()
	full := float64(perSecond)

	limiter := func(peer string) *rate.Limiter {
		l, existed := limiters.GetOrCreate(peer, func() *rate.Limiter {
			return rate.NewLimiter(rate.Limit(perSecond), perSecond)
		})
		if !existed && limiters.Count() > maxTrackedClients {
			limiters.DeleteFunc(func(k string, l *rate.Limiter) bool {
				return k != peer && l.Tokens() >= full
			})
		}
		return l
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter(peerIP(r)).Allow() {
				w.Header().Set("Retry-After", "1")
				writeError(w, http.StatusTooManyRequests, "too many requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// AccessLog writes one record per request: debug for success, warn for
// 4xx and error for 5xx.
func AccessLog(logger *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			start, ok := r.Context().Value(startKey).(time.Time)
			if !ok {
				start = time.Now()
			}
			level := slog.LevelDebug
			switch {
			case rec.status >= 500:
				level = slog.LevelError
			case rec.status >= 400:
				level = slog.LevelWarn
			}
			logger.LogAttrs(r.Context(), level, "http request",
				slog.String("request_id", RequestIDFrom(r.Context())),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", rec.status),
				slog.Duration("duration", time.Since(start)),
				slog.String("peer", peerIP(r)),
			)
		})
	}
}

// Recover turns a handler panic into a 500.
func Recover(logger *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if v := recover(); v != nil {
					logger.Error("handler panic",
						"request_id", RequestIDFrom(r.Context()),
						"path", r.URL.Path,
						"panic", v)
					writeError(w, http.StatusInternalServerError, "internal server error")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// NetworkACL admits only peers inside allowList. Entries are addresses
// or CIDR prefixes; malformed ones are logged and skipped. An empty list
// admits everyone. Proxy headers are never consulted.
func NetworkACL(allowList []string, logger *slog.Logger) Middleware {
	prefixes := parseAllowList(allowList, logger)

	return func(next http.Handler) http.Handler {
		if len(prefixes) == 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			peer := peerIP(r)
			if !admitted(prefixes, peer) {
				logger.Warn("request denied by network ACL", "peer", peer, "path", r.URL.Path)
				writeError(w, http.StatusForbidden, "IP not in allowlist")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func parseAllowList(entries []string, logger *slog.Logger) []netip.Prefix {
	var out []netip.Prefix
	for _, e := range entries {
		e = strings.TrimSpace(e)
		if strings.Contains(e, "/") {
			p, err := netip.ParsePrefix(e)
			if err != nil {
				logger.Warn("invalid CIDR in allowlist", "entry", e, "error", err)
				continue
			}
			out = append(out, p.Masked())
			continue
		}
		a, err := netip.ParseAddr(e)
		if err != nil {
			logger.Warn("invalid IP in allowlist", "entry", e)
			continue
		}
		a = a.Unmap()
		out = append(out, netip.PrefixFrom(a, a.BitLen()))
	}
	return out
}

func admitted(prefixes []netip.Prefix, peer string) bool {
	a, err := netip.ParseAddr(peer)
	if err != nil {
		return false
	}
	a = a.Unmap()
	for _, p := range prefixes {
		if p.Contains(a) {
			return true
		}
	}
	return false
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (w *statusRecorder) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// peerIP is the host part of the connection's remote address.
func peerIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
