package httpserver

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

// ============================================================
// Chain Tests
// ============================================================

func TestChain_Order(t *testing.T) {
	var order []string
	mark := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := Chain(okHandler, mark("a"), mark("b"), mark("c"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if got := strings.Join(order, ","); got != "a,b,c" {
		t.Errorf("order = %s, want a,b,c", got)
	}
}

// ============================================================
// RequestID Tests
// ============================================================

func TestRequestID_Generated(t *testing.T) {
	var seen string
	h := RequestID()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFrom(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if !strings.HasPrefix(seen, "req-") {
		t.Errorf("request id = %q, want req- prefix", seen)
	}
	if rec.Header().Get("X-Request-ID") != seen {
		t.Errorf("header = %q, context = %q", rec.Header().Get("X-Request-ID"), seen)
	}
}

func TestRequestID_Propagated(t *testing.T) {
	h := RequestID()(okHandler)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "upstream-1")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Request-ID"); got != "upstream-1" {
		t.Errorf("X-Request-ID = %q, want upstream-1", got)
	}
}

// ============================================================
// RateLimit Tests
// ============================================================

func TestRateLimit(t *testing.T) {
	h := RateLimit(2)(okHandler)

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}

	if codes[0] != http.StatusOK || codes[1] != http.StatusOK {
		t.Errorf("first requests = %v, want 200s", codes[:2])
	}
	if codes[2] != http.StatusTooManyRequests {
		t.Errorf("third request = %d, want 429", codes[2])
	}

	// Another client has its own bucket.
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("other client = %d, want 200", rec.Code)
	}
}

// ============================================================
// Recover Tests
// ============================================================

func TestRecover(t *testing.T) {
	h := Recover(discardLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

// ============================================================
// NetworkACL Tests
// ============================================================

func TestNetworkACL(t *testing.T) {
	h := NetworkACL([]string{"127.0.0.1", "10.1.0.0/16", "not-an-ip", "300.0.0.0/8"}, discardLogger())(okHandler)

	tests := []struct {
		name       string
		remoteAddr string
		xff        string
		want       int
	}{
		{"single ip", "127.0.0.1:5555", "", http.StatusOK},
		{"cidr", "10.1.2.3:5555", "", http.StatusOK},
		{"outside", "192.168.1.1:5555", "", http.StatusForbidden},
		{"spoofed header ignored", "192.168.1.1:5555", "127.0.0.1", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestNetworkACL_EmptyAllowsAll(t *testing.T) {
	h := NetworkACL(nil, discardLogger())(okHandler)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "203.0.113.9:1"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

// ============================================================
// Peer Address Tests
// ============================================================

func TestPeerIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		xff        string
		want       string
	}{
		{"ipv4", "192.0.2.1:80", "", "192.0.2.1"},
		{"ipv6", "[::1]:80", "", "::1"},
		{"forwarded header ignored", "192.0.2.1:80", "198.51.100.7", "192.0.2.1"},
		{"no port", "192.0.2.1", "", "192.0.2.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if got := peerIP(req); got != tt.want {
				t.Errorf("peerIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseAllowList(t *testing.T) {
	got := parseAllowList([]string{" 10.0.0.1 ", "10.1.2.3/16", "::ffff:192.0.2.5", "bogus", "1.2.3.4/40"}, discardLogger())
	want := []string{"10.0.0.1/32", "10.1.0.0/16", "192.0.2.5/32"}
	if len(got) != len(want) {
		t.Fatalf("parseAllowList() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i].String() != want[i] {
			t.Errorf("prefix[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}
