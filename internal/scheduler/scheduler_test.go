package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseIntervalDuration(t *testing.T) {
	cases := []struct {
		in   string
		want time.Duration
		ok   bool
	}{
		{"30s", 30 * time.Second, true},
		{"5m", 5 * time.Minute, true},
		{"1h", time.Hour, true},
		{"4H", 4 * time.Hour, true},
		{"1d", 24 * time.Hour, true},
		{"1w", 7 * 24 * time.Hour, true},
		{" 15m ", 15 * time.Minute, true},
		{"", 0, false},
		{"h", 0, false},
		{"0m", 0, false},
		{"-1h", 0, false},
		{"1x", 0, false},
		{"soon", 0, false},
	}
	for _, c := range cases {
		got, ok := ParseIntervalDuration(c.in)
		assert.Equal(t, c.ok, ok, c.in)
		assert.Equal(t, c.want, got, c.in)
	}
}

func TestSchedulerRunsImmediatelyAndStops(t *testing.T) {
	var runs atomic.Int32
	ctx, cancel := context.WithCancel(context.Background())

	s := NewIntervalScheduler(time.Hour)
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.Start(ctx, func(context.Context) { runs.Add(1) })
	}()

	require.Eventually(t, func() bool { return runs.Load() == 1 }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop on cancel")
	}
	assert.Equal(t, int32(1), runs.Load())
}

func TestSchedulerTicks(t *testing.T) {
	var runs atomic.Int32
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := NewIntervalScheduler(10 * time.Millisecond)
	s.RunImmediately = false
	go s.Start(ctx, func(context.Context) { runs.Add(1) })

	require.Eventually(t, func() bool { return runs.Load() >= 3 }, time.Second, 5*time.Millisecond)
}

func TestSchedulerInvalidInterval(t *testing.T) {
	s := NewIntervalScheduler(0)
	// must return instead of spinning
	s.Start(context.Background(), func(context.Context) {})
}
