package httpserver

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestListen(t *testing.T) {
	s, err := Listen("127.0.0.1:0", http.NotFoundHandler(), nil)
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	defer s.Shutdown(context.Background())

	if s.Scheme() != "http" {
		t.Errorf("Scheme() = %q, want http", s.Scheme())
	}
	if _, port, _ := net.SplitHostPort(s.Addr().String()); port == "0" {
		t.Errorf("Addr() = %s, want an assigned port", s.Addr())
	}
}

func TestListen_AddressInUse(t *testing.T) {
	s, err := Listen("127.0.0.1:0", http.NotFoundHandler(), nil)
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	defer s.Shutdown(context.Background())

	if _, err := Listen(s.Addr().String(), http.NotFoundHandler(), nil); err == nil {
		t.Error("second Listen() on the same address succeeded")
	}
}

func TestServer_ServeAndShutdown(t *testing.T) {
	s, err := Listen("127.0.0.1:0", NewRouter(&RouterConfig{Logger: discardLogger()}), nil)
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}

	errChan := make(chan error, 1)
	go func() {
		errChan <- s.Serve()
	}()

	resp, err := http.Get("http://" + s.Addr().String() + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("GET /healthz status = %d", resp.StatusCode)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		t.Errorf("Shutdown error: %v", err)
	}

	select {
	case err := <-errChan:
		if err != nil {
			t.Errorf("Serve() after Shutdown = %v, want nil", err)
		}
	case <-time.After(5 * time.Second):
		t.Error("timeout waiting for Serve to return")
	}
}

func TestDefaultRouterConfig(t *testing.T) {
	cfg := DefaultRouterConfig()
	if cfg == nil {
		t.Fatal("DefaultRouterConfig returned nil")
	}
	if cfg.RateLimit <= 0 {
		t.Error("RateLimit should be positive")
	}
}

// ============================================================
// Router Tests
// ============================================================

func TestNewRouter_Routes(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "memkv_up 1\n")
	})
	router := NewRouter(&RouterConfig{Metrics: metrics, Logger: discardLogger()})

	tests := []struct {
		method   string
		path     string
		wantCode int
		wantBody string
	}{
		{http.MethodGet, "/healthz", http.StatusOK, `"status":"healthy"`},
		{http.MethodGet, "/readyz", http.StatusOK, `"status":"ready"`},
		{http.MethodGet, "/metrics", http.StatusOK, "memkv_up 1"},
		{http.MethodPost, "/metrics", http.StatusMethodNotAllowed, ""},
		{http.MethodGet, "/sessions", http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
			if rec.Code != tt.wantCode {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantCode)
			}
			if tt.wantBody != "" && !strings.Contains(rec.Body.String(), tt.wantBody) {
				t.Errorf("body = %q, want substring %q", rec.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestNewRouter_NotReady(t *testing.T) {
	router := NewRouter(&RouterConfig{
		Ready:  func() error { return errors.New("event loop stopped") },
		Logger: discardLogger(),
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "event loop stopped") {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestNewRouter_NoMetricsHandler(t *testing.T) {
	router := NewRouter(&RouterConfig{Logger: discardLogger()})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}
