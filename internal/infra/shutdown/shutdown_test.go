package shutdown

import (
	"context"
	"errors"
	"strings"
	"sync"
	"syscall"
	"testing"
	"time"
)

// waitAsync runs Wait in a goroutine and returns its results.
func waitAsync(h *Handler) <-chan [2]any {
	ch := make(chan [2]any, 1)
	go func() {
		reason, err := h.Wait()
		ch <- [2]any{reason, err}
	}()
	return ch
}

func TestNewHandler(t *testing.T) {
	h := NewHandler(5 * time.Second)
	if h == nil {
		t.Fatal("NewHandler returned nil")
	}
	if h.timeout != 5*time.Second {
		t.Errorf("timeout = %v, want 5s", h.timeout)
	}
	if len(h.signals) != 2 {
		t.Errorf("default signals = %v, want SIGINT and SIGTERM", h.signals)
	}
	if h.done == nil {
		t.Error("done channel should be initialized")
	}
}

func TestHandler_Trigger_ReverseOrder(t *testing.T) {
	h := NewHandler(5 * time.Second)

	var (
		mu        sync.Mutex
		callOrder []int
	)
	for i := 1; i <= 3; i++ {
		i := i
		h.OnShutdown("hook", func(ctx context.Context) error {
			mu.Lock()
			callOrder = append(callOrder, i)
			mu.Unlock()
			return nil
		})
	}

	resCh := waitAsync(h)
	h.Trigger("server exited")
	h.Trigger("ignored")

	select {
	case res := <-resCh:
		if res[0] != "server exited" {
			t.Errorf("reason = %v, want %q", res[0], "server exited")
		}
		if res[1] != nil {
			t.Errorf("Wait() error = %v", res[1])
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Wait() did not complete in time")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(callOrder) != 3 || callOrder[0] != 3 || callOrder[1] != 2 || callOrder[2] != 1 {
		t.Errorf("hooks called in wrong order: %v, want [3 2 1]", callOrder)
	}

	select {
	case <-h.Done():
	default:
		t.Error("Done channel should be closed after Wait completes")
	}
}

func TestHandler_Wait_WithSignal(t *testing.T) {
	h := NewHandler(5*time.Second, syscall.SIGUSR1)

	called := make(chan struct{}, 1)
	h.OnShutdown("probe", func(ctx context.Context) error {
		called <- struct{}{}
		return nil
	})

	resCh := waitAsync(h)
	time.Sleep(100 * time.Millisecond)
	if err := syscall.Kill(syscall.Getpid(), syscall.SIGUSR1); err != nil {
		t.Fatalf("Kill() error = %v", err)
	}

	select {
	case res := <-resCh:
		if reason, _ := res[0].(string); !strings.HasPrefix(reason, "signal ") {
			t.Errorf("reason = %q, want signal", reason)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Wait() did not complete in time")
	}

	select {
	case <-called:
	default:
		t.Error("hook was not called")
	}
}

func TestHandler_Wait_HookErrors(t *testing.T) {
	h := NewHandler(5 * time.Second)

	errA := errors.New("listener busy")
	errB := errors.New("lock held")

	h.OnShutdown("lock file", func(ctx context.Context) error { return errB })
	h.OnShutdown("ok", func(ctx context.Context) error { return nil })
	h.OnShutdown("redis server", func(ctx context.Context) error { return errA })

	resCh := waitAsync(h)
	h.Trigger("test")

	select {
	case res := <-resCh:
		err, _ := res[1].(error)
		if !errors.Is(err, errA) || !errors.Is(err, errB) {
			t.Fatalf("Wait() error = %v, want both hook errors", err)
		}
		if !strings.Contains(err.Error(), "redis server: listener busy") {
			t.Errorf("error should name the hook, got %q", err.Error())
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Wait() did not complete in time")
	}
}

func TestHandler_HookDeadline(t *testing.T) {
	h := NewHandler(20 * time.Millisecond)

	h.OnShutdown("slow", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	resCh := waitAsync(h)
	h.Trigger("test")

	select {
	case res := <-resCh:
		err, _ := res[1].(error)
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("Wait() error = %v, want deadline exceeded", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("hook deadline was not applied")
	}
}

func TestHandler_ConcurrentOnShutdown(t *testing.T) {
	h := NewHandler(5 * time.Second)

	var wg sync.WaitGroup
	numGoroutines := 10

	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h.OnShutdown("noop", func(ctx context.Context) error {
				return nil
			})
		}()
	}

	wg.Wait()

	h.mu.Lock()
	if len(h.hooks) != numGoroutines {
		t.Errorf("expected %d hooks, got %d", numGoroutines, len(h.hooks))
	}
	h.mu.Unlock()
}
