package logging

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Throttle rate limits repeated warnings per key. The first warning for a
// key is always logged; later ones are dropped until the limiter allows
// another, which then carries the number of suppressed messages.
type Throttle struct {
	mu         sync.Mutex
	every      time.Duration
	now        func() time.Time
	limiters   map[string]*rate.Limiter
	suppressed map[string]int
}

// NewThrottle allows one message per key every interval.
func NewThrottle(every time.Duration) *Throttle {
	return &Throttle{
		every:      every,
		now:        time.Now,
		limiters:   make(map[string]*rate.Limiter),
		suppressed: make(map[string]int),
	}
}

// Warn logs msg at warn level on the logger in ctx unless key is throttled.
// It reports whether the message was emitted.
func (t *Throttle) Warn(ctx context.Context, key, msg string, args ...any) bool {
	if t == nil {
		FromContext(ctx).Warn(msg, args...)
		return true
	}
	t.mu.Lock()
	lim, ok := t.limiters[key]
	if !ok {
		lim = rate.NewLimiter(rate.Every(t.every), 1)
		t.limiters[key] = lim
	}
	if !lim.AllowN(t.now(), 1) {
		t.suppressed[key]++
		t.mu.Unlock()
		return false
	}
	dropped := t.suppressed[key]
	delete(t.suppressed, key)
	t.mu.Unlock()

	if dropped > 0 {
		args = append(args, slog.Int("suppressed", dropped))
	}
	FromContext(ctx).Warn(msg, args...)
	return true
}
