package scroller

import (
	"github.com/dshills/scroller/internal/scroller/operation"
)

// Tick advances the queue by one frame. Delayed operations become queued
// once an engine is attached, queued operations dispatch when their
// countdown runs out and dispatched non-animated operations complete after
// a quiet frame without engine activity. Canceled operations complete
// Interrupted.
func (s *Scroller) Tick() {
	b, end := s.begin()
	defer end()

	if !s.tickHooked || s.closed {
		return
	}
	s.frame++
	s.trace.Tick()

	for _, op := range s.ops.Snapshot() {
		// An earlier completion in this frame may have removed op.
		if !s.ops.Contains(op) {
			continue
		}

		if op.Pending() && op.Canceled() {
			s.complete(op, operation.Interrupted, b)
			continue
		}

		switch {
		case op.IsDelayed():
			if s.engine == nil {
				continue
			}
			if err := op.Ready(s.ctx); err != nil {
				s.log.Error("ready transition", "id", op.ViewChangeID(), "err", err)
			}

		case op.IsQueued():
			if s.engine == nil {
				continue
			}
			if op.TickCountdown() == 0 {
				s.dispatch(op, b)
			}

		case !op.IsAnimated():
			if op.TakeObserved() {
				op.SetCountdown(s.policy.NonAnimatedCompletionTicks)
				continue
			}
			if op.TickCountdown() == 0 {
				s.complete(op, operation.Completed, b)
			}
		}
	}
}

// Frame returns the number of ticks processed.
func (s *Scroller) Frame() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frame
}
