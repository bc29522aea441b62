package numexpr

import (
	"net/http"

	"numexpr/internal/diagnostics"
)

// DiagnosticsHandler returns an http.HandlerFunc that upgrades
// requests to a websocket connection and streams every diagnostic
// line this process logs — JIT fallbacks and compiled-kernel events
// (jit_accel.go), the block evaluator's per-call block-size/arena-size
// announcement (internal/eval.EvalBlock) — to every connected
// subscriber, live. Each call creates a new hub and attaches it to the
// process-wide logger in place of the previous one, so only the
// handler from the latest call receives new lines.
func DiagnosticsHandler() http.HandlerFunc {
	hub := diagnostics.NewHub()
	diagLog.Attach(hub)
	return hub.Handler
}
