// Package shutdown provides graceful shutdown for memkv.
//
// A Handler waits for SIGINT, SIGTERM or an in-process Trigger, then runs
// the registered hooks in reverse registration order under one deadline.
//
// Usage:
//
//	h := shutdown.NewHandler(10 * time.Second)
//	h.OnShutdown("redis server", srv.Shutdown)
//	if err := h.Wait(); err != nil {
//		// one or more hooks failed
//	}
package shutdown
