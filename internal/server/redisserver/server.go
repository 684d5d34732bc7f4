package redisserver

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/yndnr/memkv-go/internal/storage/memory"
	"github.com/yndnr/memkv-go/internal/telemetry/metric"
)

// ErrUnsupportedPlatform is returned by Start where no readiness facility
// is implemented.
var ErrUnsupportedPlatform = errors.New("redisserver: event loop not supported on this platform")

// ErrServerClosed is returned by Start after Shutdown.
var ErrServerClosed = errors.New("redisserver: server closed")

// Config holds the RESP server configuration.
type Config struct {
	// Addr is the TCP listen address.
	Addr string
	// MaxClients bounds concurrent connections (default: 4096).
	MaxClients int
	// MaxPendingBytes bounds unparsed request bytes and unsent reply bytes
	// per connection. Exceeding it disconnects the client.
	MaxPendingBytes int
	// RateLimit is the per-connection command rate in commands per second.
	// Set to 0 to disable rate limiting.
	RateLimit float64
	// RateBurst is the per-connection burst size.
	RateBurst int
	// SweepInterval is the active expiry period and the poll timeout.
	SweepInterval time.Duration
	// SweepBatch caps keys removed per database per sweep.
	SweepBatch int
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Addr:            "localhost:6379",
		MaxClients:      4096,
		MaxPendingBytes: 64 << 20,
		SweepInterval:   100 * time.Millisecond,
		SweepBatch:      1000,
	}
}

// Server serves the keyspace over RESP from a single event loop.
//
// Every command executes on the loop goroutine, so the keyspace needs no
// locking. Only Start, Shutdown, Addr, Done and Stats are safe to call
// from other goroutines.
type Server struct {
	cfg      *Config
	keyspace *memory.Keyspace
	metrics  *metric.Registry
	logger   *slog.Logger
	handler  *handler

	mu      sync.Mutex
	addr    net.Addr
	wake    func() error
	started bool

	stopping atomic.Bool
	done     chan struct{}
	loopErr  error

	stats atomic.Pointer[[]metric.KeyspaceStats]
}

// New creates a server over ks. A nil registry uses metric.Global and a
// nil logger uses slog.Default.
func New(cfg *Config, ks *memory.Keyspace, reg *metric.Registry, logger *slog.Logger) *Server {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if reg == nil {
		reg = metric.Global()
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		cfg:      cfg,
		keyspace: ks,
		metrics:  reg,
		logger:   logger,
		done:     make(chan struct{}),
	}
	s.handler = &handler{
		keyspace:   ks,
		metrics:    reg,
		logger:     logger,
		maxPending: cfg.MaxPendingBytes,
	}
	s.publishStats()
	return s
}

// Start binds the listener and runs the event loop in its own goroutine.
// Bind errors are returned directly. Cancelling ctx shuts the loop down.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopping.Load() {
		return ErrServerClosed
	}
	if s.started {
		return errors.New("redisserver: already started")
	}

	l, err := newEventLoop(s)
	if err != nil {
		return err
	}
	s.addr = l.addr
	s.wake = l.poller.wake
	s.started = true

	s.logger.Info("redis server listening", "address", l.addr.String(), "max_clients", s.cfg.MaxClients)

	go func() {
		defer close(s.done)
		s.loopErr = l.run()
	}()
	context.AfterFunc(ctx, s.stop)
	return nil
}

// Shutdown stops the event loop, closing every connection, and waits for
// it to exit or for ctx to expire.
func (s *Server) Shutdown(ctx context.Context) error {
	s.stop()

	s.mu.Lock()
	started := s.started
	s.mu.Unlock()
	if !started {
		return nil
	}

	select {
	case <-s.done:
		return s.loopErr
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Server) stop() {
	if !s.stopping.CompareAndSwap(false, true) {
		return
	}
	s.mu.Lock()
	wake := s.wake
	s.mu.Unlock()
	if wake != nil {
		if err := wake(); err != nil {
			s.logger.Error("failed to wake event loop", "error", err)
		}
	}
}

// Addr returns the bound listen address, or nil before Start.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// Done is closed when the event loop exits.
func (s *Server) Done() <-chan struct{} {
	return s.done
}

// Err returns the error that ended the event loop, if any. It is only
// meaningful after Done is closed.
func (s *Server) Err() error {
	select {
	case <-s.done:
		return s.loopErr
	default:
		return nil
	}
}

// Stats returns the keyspace snapshot taken at the last sweep. It is safe
// for concurrent use and feeds metric.KeyspaceCollector.
func (s *Server) Stats() []metric.KeyspaceStats {
	if p := s.stats.Load(); p != nil {
		return *p
	}
	return nil
}

// publishStats snapshots the keyspace. Loop goroutine only (or before
// Start).
func (s *Server) publishStats() {
	raw := s.keyspace.Stats()
	out := make([]metric.KeyspaceStats, len(raw))
	for i, st := range raw {
		out[i] = metric.KeyspaceStats{DB: st.Index, Keys: st.Keys, Expires: st.Expires}
	}
	s.stats.Store(&out)
}

// sweep runs one active expiry pass and refreshes the stats snapshot.
func (s *Server) sweep() {
	if n := s.keyspace.SweepExpired(s.cfg.SweepBatch); n > 0 {
		s.logger.Debug("expired keys swept", "count", n)
	}
	s.publishStats()
}
