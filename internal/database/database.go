package database

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrUnavailable means the store could not be reached in time.
var ErrUnavailable = errors.New("store unavailable")

type Pinger interface {
	Ping(ctx context.Context) error
}

// Health remembers the last successful ping so that a healthy store is not
// pinged on every request. A failed ping clears the memory.
type Health struct {
	pinger  Pinger
	ttl     time.Duration
	timeout time.Duration
	now     func() time.Time

	mu     sync.Mutex
	lastOK time.Time
}

func NewHealth(pinger Pinger, ttl, timeout time.Duration) *Health {
	return &Health{
		pinger:  pinger,
		ttl:     ttl,
		timeout: timeout,
		now:     time.Now,
	}
}

// Ready returns nil when the store answered within the TTL or answers a
// fresh ping within the connect timeout. Otherwise it wraps ErrUnavailable.
func (h *Health) Ready(ctx context.Context) error {
	h.mu.Lock()
	fresh := !h.lastOK.IsZero() && h.now().Sub(h.lastOK) < h.ttl
	h.mu.Unlock()
	if fresh {
		return nil
	}

	pingCtx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	if err := h.pinger.Ping(pingCtx); err != nil {
		h.mu.Lock()
		h.lastOK = time.Time{}
		h.mu.Unlock()
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	h.mu.Lock()
	h.lastOK = h.now()
	h.mu.Unlock()
	return nil
}
