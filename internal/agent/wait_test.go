package agent

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	testingclock "k8s.io/utils/clock/testing"
)

func TestPollImmediate(t *testing.T) {
	clk := testingclock.NewFakeClock(time.Unix(0, 0))
	calls := 0
	ok := Poll(context.Background(), clk, time.Second, 10*time.Second, func(context.Context) bool {
		calls++
		return true
	})
	assert.True(t, ok)
	assert.Equal(t, 1, calls)
	assert.Equal(t, time.Unix(0, 0), clk.Now(), "no time should pass")
}

func TestPollEventuallyTrue(t *testing.T) {
	clk := testingclock.NewFakeClock(time.Unix(0, 0))
	start := clk.Now()
	ok := Poll(context.Background(), clk, time.Second, 10*time.Second, func(context.Context) bool {
		return clk.Since(start) >= 3*time.Second
	})
	assert.True(t, ok)
	assert.Equal(t, 3*time.Second, clk.Since(start))
}

func TestPollTimeout(t *testing.T) {
	clk := testingclock.NewFakeClock(time.Unix(0, 0))
	start := clk.Now()
	calls := 0
	ok := Poll(context.Background(), clk, 4*time.Second, 10*time.Second, func(context.Context) bool {
		calls++
		return false
	})
	assert.False(t, ok)
	// Checks at 0s, 4s, 8s and a final one at the 10s deadline.
	assert.Equal(t, 4, calls)
	assert.Equal(t, 10*time.Second, clk.Since(start), "last sleep is clamped to the deadline")
}

func TestPollZeroTimeoutChecksOnce(t *testing.T) {
	clk := testingclock.NewFakeClock(time.Unix(0, 0))
	calls := 0
	ok := Poll(context.Background(), clk, time.Second, 0, func(context.Context) bool {
		calls++
		return false
	})
	assert.False(t, ok)
	assert.Equal(t, 1, calls)
}

func TestPollCancelled(t *testing.T) {
	clk := testingclock.NewFakeClock(time.Unix(0, 0))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	calls := 0
	ok := Poll(ctx, clk, time.Second, time.Minute, func(context.Context) bool {
		calls++
		return false
	})
	assert.False(t, ok)
	assert.Equal(t, 1, calls)
}
