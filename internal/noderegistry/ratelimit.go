package noderegistry

import (
	"context"
	"sync"
	"time"

	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

// hostLimiter enforces a fixed-window request rate per remote host,
// lazily creating a limiter instance the first time a host is seen.
type hostLimiter struct {
	mu       sync.Mutex
	store    limiter.Store
	rate     limiter.Rate
	limiters map[string]*limiter.Limiter
}

// newHostLimiter caps each distinct host to limit requests per period.
func newHostLimiter(limit int64, period time.Duration) *hostLimiter {
	return &hostLimiter{
		store:    memory.NewStore(),
		rate:     limiter.Rate{Period: period, Limit: limit},
		limiters: make(map[string]*limiter.Limiter),
	}
}

func (h *hostLimiter) instanceFor(host string) *limiter.Limiter {
	h.mu.Lock()
	defer h.mu.Unlock()
	if inst, ok := h.limiters[host]; ok {
		return inst
	}
	inst := limiter.New(h.store, h.rate)
	h.limiters[host] = inst
	return inst
}

// Wait blocks, polling the window, until host is under its rate limit or
// ctx is canceled.
func (h *hostLimiter) Wait(ctx context.Context, host string) error {
	inst := h.instanceFor(host)
	for {
		state, err := inst.Get(ctx, host)
		if err != nil {
			return err
		}
		if !state.Reached {
			return nil
		}
		resetAt := time.Unix(state.Reset, 0)
		wait := time.Until(resetAt)
		if wait <= 0 {
			wait = 10 * time.Millisecond
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}
