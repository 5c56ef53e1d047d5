package scroller

import (
	"math"

	"seehuhn.de/go/geom/vec"

	"github.com/dshills/scroller/internal/scroller/engine"
	"github.com/dshills/scroller/internal/scroller/notify"
	"github.com/dshills/scroller/internal/scroller/operation"
	"github.com/dshills/scroller/internal/scroller/trace"
	"github.com/dshills/scroller/internal/scroller/viewchange"
)

// newOperation copies change into a new operation, assigns its view change
// id and either dispatches it right away or queues it.
//
// Without an engine the operation waits in the delayed state. Direct calls
// dispatch immediately unless an in-flight animation of the same family has
// to be settled first. Controller and wheel requests always wait at least
// one tick so requests within a frame can merge.
func (s *Scroller) newOperation(name string, change viewchange.Change, trigger operation.Trigger, b *notify.Batch) (int32, error) {
	c, err := viewchange.Clone(change)
	if err != nil {
		return -1, opError(name, "change", ErrInvalidArgument)
	}

	// Only the newest generation of delayed work survives.
	for _, d := range s.ops.Delayed(nil) {
		s.complete(d, operation.Interrupted, b)
	}

	id := s.nextID()
	s.metrics.Submitted(c.Kind().String(), trigger.String())
	s.trace.Record(trace.Record{
		Type:         trace.TypeSubmit,
		ViewChangeID: id,
		Kind:         c.Kind().String(),
		Trigger:      trigger.String(),
		Detail:       viewchange.Describe(c),
	})

	if s.engine == nil {
		op := operation.New(id, c, trigger, operation.StateDelayed)
		op.SetCountdown(s.policy.QueuedOperationTicks)
		s.ops.Push(op)
		s.log.Debug("delayed", "id", id, "change", viewchange.Describe(c), "trigger", trigger)
		return id, nil
	}

	op := operation.New(id, c, trigger, operation.StateQueued)
	s.ops.Push(op)

	// A settled animation needs one more tick before the engine accepts
	// the next change.
	settling := s.needsSettle(op)
	if settling {
		s.settle(op.IsZoom())
	}

	if !trigger.Has(operation.TriggerDirectCall) {
		ticks := max(1, s.ops.MaxPendingCountdown(operation.TriggerDirectCall))
		if settling {
			ticks++
		}
		op.SetCountdown(ticks)
		s.log.Debug("queued", "id", id, "change", viewchange.Describe(c), "trigger", trigger, "ticks", ticks)
		return id, nil
	}

	if settling {
		op.SetCountdown(2)
		s.log.Debug("queued behind settle", "id", id, "change", viewchange.Describe(c))
		return id, nil
	}

	s.dispatch(op, b)
	return id, nil
}

// coalesced records that a request merged into op.
func (s *Scroller) coalesced(op *operation.Operation) {
	s.metrics.Coalesced()
	s.trace.Record(trace.Record{
		Type:         trace.TypeCoalesce,
		ViewChangeID: op.ViewChangeID(),
		Kind:         op.Kind().String(),
		Trigger:      op.Trigger().String(),
		Detail:       viewchange.Describe(op.Change()),
	})
	s.log.Debug("coalesced", "id", op.ViewChangeID(), "change", viewchange.Describe(op.Change()))
}

// needsSettle reports whether the platform would lose op because an
// animation of the same family, started by the latest request, is still
// running.
func (s *Scroller) needsSettle(op *operation.Operation) bool {
	if !s.shim.InterruptsAnimatedChanges() || s.state != engine.StateAnimation {
		return false
	}
	if op.Kind().IsVelocity() || !op.IsAnimated() {
		return false
	}
	return s.latestRequest != engine.NoRequest && s.lastRequestAnimated && s.lastRequestZoom == op.IsZoom()
}

// settle stops the running animation with a zero-delta request.
func (s *Scroller) settle(zoom bool) {
	var id engine.RequestID
	if zoom {
		id = s.engine.TryUpdateScale(s.zoom, vec.Vec2{})
		s.metrics.EngineRequest("TryUpdateScale")
	} else {
		id = s.engine.TryUpdatePositionBy(vec.Vec2{})
		s.metrics.EngineRequest("TryUpdatePositionBy")
	}
	s.metrics.Workaround()
	s.setLatestRequest(id, zoom, false)
	s.log.Debug("settling animation", "zoom", zoom, "req", id)
}

// dispatch issues the engine request for op and binds the returned id.
func (s *Scroller) dispatch(op *operation.Operation, b *notify.Batch) {
	id, method := s.issue(op.Change())
	s.metrics.EngineRequest(method)

	// The engine reuses ids; the older holder is done.
	if holder := s.ops.ByRequestID(id); holder != nil && holder != op {
		result := operation.Completed
		if holder.IsAnimated() {
			result = operation.Interrupted
		}
		s.complete(holder, result, b)
	}

	if err := op.Dispatch(s.ctx, id); err != nil {
		s.log.Error("dispatch transition", "id", op.ViewChangeID(), "err", err)
		return
	}
	s.setLatestRequest(id, op.IsZoom(), op.IsAnimated() && !op.Kind().IsVelocity())
	if !op.IsAnimated() {
		op.SetCountdown(s.policy.NonAnimatedCompletionTicks)
	}

	s.trace.Record(trace.Record{
		Type:         trace.TypeDispatch,
		ViewChangeID: op.ViewChangeID(),
		RequestID:    int32(id),
		Kind:         op.Kind().String(),
		Detail:       method,
	})
	s.log.Debug("dispatched", "id", op.ViewChangeID(), "req", id, "method", method)
}

// setLatestRequest records the most recent engine request and whether it
// started a timed animation.
func (s *Scroller) setLatestRequest(id engine.RequestID, zoom, animated bool) {
	s.latestRequest = id
	s.lastRequestZoom = zoom
	s.lastRequestAnimated = animated
}

// issue translates a change into one engine request and returns the
// request id and the engine method used.
func (s *Scroller) issue(change viewchange.Change) (engine.RequestID, string) {
	switch c := change.(type) {
	case *viewchange.AbsoluteOffsets:
		return s.issueOffsets(c.Offsets, c.Options)
	case *viewchange.RelativeOffsets:
		return s.issueOffsets(s.offsets.Add(c.Delta), c.Options)
	case *viewchange.OffsetsWithVelocity:
		if c.DecayRate != nil {
			rate := vec.Vec2{X: clamp01(c.DecayRate.X), Y: clamp01(c.DecayRate.Y)}
			s.engine.SetPositionInertiaDecayRate(&rate)
		}
		return s.engine.TryUpdatePositionWithAdditionalVelocity(c.Velocity), "TryUpdatePositionWithAdditionalVelocity"
	case *viewchange.AbsoluteZoom:
		return s.issueZoom(c.Factor, c.Center, c.Options)
	case *viewchange.RelativeZoom:
		return s.issueZoom(s.zoom+c.Delta, c.Center, c.Options)
	case *viewchange.ZoomWithVelocity:
		if c.DecayRate != nil {
			rate := clamp01(*c.DecayRate)
			s.engine.SetScaleInertiaDecayRate(&rate)
		}
		return s.engine.TryUpdateScaleWithAdditionalVelocity(c.Velocity, s.zoomCenter(c.Center)), "TryUpdateScaleWithAdditionalVelocity"
	}
	// Changes are cloned into pointer variants before they reach the queue.
	panic("scroller: unexpected change type")
}

// issueOffsets snaps and clamps target, then requests the position.
func (s *Scroller) issueOffsets(target vec.Vec2, opts viewchange.Options) (engine.RequestID, string) {
	if opts.SnapPoints == viewchange.SnapPointsDefault {
		target.X = s.hSnap.Resolve(target.X)
		target.Y = s.vSnap.Resolve(target.Y)
	}
	target = s.layout.Clamp(target, s.zoom)
	pos := s.layout.OffsetsToPosition(target, s.zoom)

	if opts.Animation == viewchange.AnimationEnabled {
		d := s.policy.OffsetsAnimationDuration(target.Sub(s.offsets).Length())
		return s.engine.TryUpdatePositionWithAnimation(pos, d), "TryUpdatePositionWithAnimation"
	}
	return s.engine.TryUpdatePosition(pos), "TryUpdatePosition"
}

// issueZoom snaps and clamps factor, then requests the scale.
func (s *Scroller) issueZoom(factor float64, center *vec.Vec2, opts viewchange.Options) (engine.RequestID, string) {
	if opts.SnapPoints == viewchange.SnapPointsDefault {
		factor = s.zoomSnap.Resolve(factor)
	}
	factor = math.Max(s.minZoom, math.Min(s.maxZoom, factor))
	c := s.zoomCenter(center)

	if opts.Animation == viewchange.AnimationEnabled {
		d := s.policy.ZoomAnimationDuration(factor - s.zoom)
		return s.engine.TryUpdateScaleWithAnimation(factor, c, d), "TryUpdateScaleWithAnimation"
	}
	return s.engine.TryUpdateScale(factor, c), "TryUpdateScale"
}

// zoomCenter converts an optional viewport point into the engine's zoom
// center. Nil means the viewport center.
func (s *Scroller) zoomCenter(center *vec.Vec2) vec.Vec2 {
	var c vec.Vec2
	if center != nil {
		c = *center
	} else {
		c = s.layout.Viewport().Mul(0.5)
	}
	return c.Sub(vec.Vec2{X: s.layout.Horizontal.LayoutOffset, Y: s.layout.Vertical.LayoutOffset})
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

// updateTickHook reports whether any operation still needs ticks: anything
// undispatched while an engine is attached, and dispatched non-animated
// operations counting down to completion.
func (s *Scroller) updateTickHook() {
	hooked := false
	for _, op := range s.ops.Snapshot() {
		// Undispatched work cannot move until an engine is attached.
		if op.Pending() && s.engine == nil {
			continue
		}
		if op.Pending() || !op.IsAnimated() {
			hooked = true
			break
		}
	}
	if hooked != s.tickHooked {
		s.tickHooked = hooked
		s.log.Debug("tick hook", "hooked", hooked)
	}
}
