package agent

import (
	"context"
	"time"

	"k8s.io/utils/clock"
)

// Poll evaluates cond every interval until it returns true or timeout
// elapses on clk. It reports whether cond was observed true. cond is always
// evaluated at least once; a cancelled ctx ends polling early.
func Poll(ctx context.Context, clk clock.Clock, interval, timeout time.Duration, cond func(context.Context) bool) bool {
	deadline := clk.Now().Add(timeout)
	for {
		if cond(ctx) {
			return true
		}
		remaining := deadline.Sub(clk.Now())
		if remaining <= 0 || ctx.Err() != nil {
			return false
		}
		clk.Sleep(min(interval, remaining))
	}
}
