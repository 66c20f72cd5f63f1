// Package shutdown runs cleanup hooks when api-server is asked to stop.
//
// Usage:
//
//	h := shutdown.NewHandler(10*time.Second, logger)
//	h.OnShutdown("http", srv.Shutdown)
//	h.OnShutdown("storage", func(context.Context) error { return db.Close() })
//	err := h.Wait(ctx) // SIGINT, SIGTERM, Trigger or ctx cancellation
package shutdown
