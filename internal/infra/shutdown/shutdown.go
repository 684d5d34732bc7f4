package shutdown

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
)

// Hook releases one resource during shutdown.
type Hook func(context.Context) error

type namedHook struct {
	name string
	fn   Hook
}

// Handler handles graceful shutdown.
type Handler struct {
	timeout time.Duration
	signals []os.Signal

	mu    sync.Mutex
	hooks []namedHook

	trigger     chan string
	triggerOnce sync.Once
	done        chan struct{}
}

// NewHandler creates a handler that waits for signals (SIGINT and SIGTERM
// when none are given) and allows hooks timeout to finish.
func NewHandler(timeout time.Duration, signals ...os.Signal) *Handler {
	if len(signals) == 0 {
		signals = []os.Signal{syscall.SIGINT, syscall.SIGTERM}
	}
	return &Handler{
		timeout: timeout,
		signals: signals,
		trigger: make(chan string, 1),
		done:    make(chan struct{}),
	}
}

// OnShutdown registers a named shutdown hook.
// Hooks are called in reverse order of registration.
func (h *Handler) OnShutdown(name string, hook Hook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.hooks = append(h.hooks, namedHook{name: name, fn: hook})
}

// Trigger starts shutdown without a signal, for example when a server
// goroutine exits on its own. Only the first reason is kept.
func (h *Handler) Trigger(reason string) {
	h.triggerOnce.Do(func() {
		h.trigger <- reason
	})
}

// Wait blocks until a signal or Trigger arrives, runs every hook and
// returns the joined hook errors. The returned reason names what started
// the shutdown.
func (h *Handler) Wait() (reason string, err error) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, h.signals...)
	defer signal.Stop(sigCh)

	select {
	case sig := <-sigCh:
		reason = "signal " + sig.String()
	case reason = <-h.trigger:
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	h.mu.Lock()
	hooks := make([]namedHook, len(h.hooks))
	copy(hooks, h.hooks)
	h.mu.Unlock()

	var errs []error
	for i := len(hooks) - 1; i >= 0; i-- {
		if hookErr := hooks[i].fn(ctx); hookErr != nil {
			errs = append(errs, fmt.Errorf("%s: %w", hooks[i].name, hookErr))
		}
	}

	close(h.done)
	return reason, errors.Join(errs...)
}

// Done returns a channel that closes when shutdown is complete.
func (h *Handler) Done() <-chan struct{} {
	return h.done
}
