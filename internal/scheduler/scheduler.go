// Package scheduler runs a task on a fixed interval until the context ends.
package scheduler

import (
	"context"
	"strconv"
	"strings"
	"time"

	"dipper/internal/logger"
)

type IntervalScheduler struct {
	Interval       time.Duration
	RunImmediately bool

	nowFn func() time.Time
}

func NewIntervalScheduler(interval time.Duration) *IntervalScheduler {
	return &IntervalScheduler{
		Interval:       interval,
		RunImmediately: true,
		nowFn:          time.Now,
	}
}

// Start blocks, invoking task every Interval. Task runtime is not subtracted
// from the wait; slow tasks stretch the cycle instead of overlapping.
func (s *IntervalScheduler) Start(ctx context.Context, task func(context.Context)) {
	if s == nil || task == nil {
		return
	}
	if s.Interval <= 0 {
		logger.Warnf("scheduler: invalid interval=%s, exit", s.Interval)
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if s.nowFn == nil {
		s.nowFn = time.Now
	}

	startAt := s.nowFn()
	logger.Infof("scheduler: started interval=%s run_immediately=%v", s.Interval, s.RunImmediately)

	if s.RunImmediately {
		task(ctx)
	}

	timer := time.NewTimer(s.Interval)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			logger.Infof("scheduler: ctx done after %s, exit", s.nowFn().Sub(startAt).Truncate(time.Second))
			return
		case <-timer.C:
		}
		task(ctx)
		timer.Reset(s.Interval)
	}
}

// ParseIntervalDuration maps candle interval strings like "5m", "1h", "1d"
// onto durations. Returns (0, false) on anything it cannot parse.
func ParseIntervalDuration(interval string) (time.Duration, bool) {
	interval = strings.ToLower(strings.TrimSpace(interval))
	if len(interval) < 2 {
		return 0, false
	}
	n, err := strconv.Atoi(interval[:len(interval)-1])
	if err != nil || n <= 0 {
		return 0, false
	}
	switch interval[len(interval)-1] {
	case 's':
		return time.Duration(n) * time.Second, true
	case 'm':
		return time.Duration(n) * time.Minute, true
	case 'h':
		return time.Duration(n) * time.Hour, true
	case 'd':
		return time.Duration(n) * 24 * time.Hour, true
	case 'w':
		return time.Duration(n) * 7 * 24 * time.Hour, true
	default:
		return 0, false
	}
}
