package handler

import (
	"context"

	"github.com/use-agent/a11yaudit/models"
)

// Slots caps how many browser-backed requests run at once.
type Slots struct {
	ch chan struct{}
}

// NewSlots creates a limiter admitting max concurrent holders.
func NewSlots(max int) *Slots {
	if max < 1 {
		max = 1
	}
	return &Slots{ch: make(chan struct{}, max)}
}

// Acquire blocks until a slot is free or ctx is done.
func (s *Slots) Acquire(ctx context.Context) error {
	select {
	case s.ch <- struct{}{}:
		return nil
	case <-ctx.Done():
		return models.NewAuditError(models.ErrCodeRateLimited, "timed out waiting for a free browser slot", ctx.Err())
	}
}

// Release frees a slot taken by Acquire.
func (s *Slots) Release() { <-s.ch }

// Active is the number of slots in use.
func (s *Slots) Active() int { return len(s.ch) }

// Max is the slot capacity.
func (s *Slots) Max() int { return cap(s.ch) }
