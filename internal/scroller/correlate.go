package scroller

import (
	"math"

	"seehuhn.de/go/geom/vec"

	"github.com/dshills/scroller/internal/scroller/engine"
	"github.com/dshills/scroller/internal/scroller/notify"
	"github.com/dshills/scroller/internal/scroller/operation"
	"github.com/dshills/scroller/internal/scroller/queue"
	"github.com/dshills/scroller/internal/scroller/trace"
	"github.com/dshills/scroller/internal/scroller/viewchange"
)

// HandleNotification correlates one engine notification with the queue.
// Notifications are handled in the order the host delivers them.
func (s *Scroller) HandleNotification(n engine.Notification) {
	b, end := s.begin()
	defer end()

	if s.closed || n == nil {
		return
	}

	name := engine.Name(n)
	id := n.RequestID()
	s.metrics.Notification(name)
	rec := trace.Record{Type: trace.TypeNotification, RequestID: int32(id), Kind: name}
	if v, ok := n.(engine.ValuesChanged); ok {
		rec.X, rec.Y, rec.Zoom = v.Position.X, v.Position.Y, v.Scale
	}
	s.trace.Record(rec)

	switch n := n.(type) {
	case engine.IdleStateEntered:
		s.setState(engine.StateIdle, b)
		s.endOfInertiaZoom = s.zoom
		if id != 0 {
			s.completeBatch(queue.Batch{
				RequestID:        id,
				Match:            queue.Apply{On: true, Result: operation.Completed},
				PriorNonAnimated: queue.Apply{On: true, Result: operation.Completed},
				PriorAnimated:    queue.Apply{On: true, Result: operation.Interrupted},
			}, b)
		}

	case engine.InteractingStateEntered:
		s.setState(engine.StateInteracting, b)
		// User manipulation preempts everything in flight.
		s.completeBatch(queue.Batch{
			RequestID:        id,
			All:              true,
			PriorNonAnimated: queue.Apply{On: true, Result: operation.Completed},
			PriorAnimated:    queue.Apply{On: true, Result: operation.Interrupted},
		}, b)

	case engine.InertiaStateEntered:
		s.setState(engine.StateInertia, b)
		s.endOfInertiaZoom = n.NaturalRestingScale
		s.observe(id)
		s.snapInertia(n)

	case engine.AnimationStateEntered:
		s.setState(engine.StateAnimation, b)
		s.observe(id)

	case engine.RequestIgnored:
		s.completeBatch(queue.Batch{
			RequestID: id,
			Match:     queue.Apply{On: true, Result: operation.Ignored},
		}, b)

	case engine.ValuesChanged:
		s.position = n.Position
		s.updateView(n.Scale, b)
		if id != 0 {
			s.observe(id)
			s.completeBatch(queue.Batch{
				RequestID:        id,
				PriorNonAnimated: queue.Apply{On: true, Result: operation.Completed},
				PriorAnimated:    queue.Apply{On: true, Result: operation.Interrupted},
			}, b)
		}
	}
}

// updateView applies a new zoom factor and recomputes the offsets,
// publishing ViewChanged when either moved.
func (s *Scroller) updateView(zoom float64, b *notify.Batch) {
	offsets := s.layout.PositionToOffsets(s.position, zoom)
	if offsets == s.offsets && zoom == s.zoom {
		return
	}
	s.offsets = offsets
	s.zoom = zoom
	b.Add(notify.Event{Kind: notify.ViewChanged, Offsets: offsets, Zoom: zoom})
}

func (s *Scroller) setState(st engine.State, b *notify.Batch) {
	if s.state == st {
		return
	}
	s.log.Debug("state", "from", s.state, "to", st)
	s.state = st
	b.Add(notify.Event{Kind: notify.StateChanged, State: st, Offsets: s.offsets, Zoom: s.zoom})
}

func (s *Scroller) observe(id engine.RequestID) {
	if op := s.ops.ByRequestID(id); op != nil {
		op.Observe()
	}
}

// snapInertia redirects an inertia phase whose natural resting point is
// not a snap point. The operation that started the inertia, if any, is
// rebound to the redirecting animation so it completes when that settles.
func (s *Scroller) snapInertia(n engine.InertiaStateEntered) {
	if s.engine == nil {
		return
	}
	op := s.ops.ByRequestID(n.ID)
	if op != nil && !op.Kind().IsVelocity() {
		return
	}

	var id engine.RequestID
	if op != nil && op.IsZoom() {
		if s.zoomSnap.Len() == 0 {
			return
		}
		rest := n.NaturalRestingScale
		snapped := math.Max(s.minZoom, math.Min(s.maxZoom, s.zoomSnap.Resolve(rest)))
		if snapped == rest {
			return
		}
		var center *vec.Vec2
		if c, ok := op.Change().(*viewchange.ZoomWithVelocity); ok {
			center = c.Center
		}
		id = s.engine.TryUpdateScaleWithAnimation(snapped, s.zoomCenter(center), s.policy.ZoomAnimationDuration(snapped-s.zoom))
		s.metrics.EngineRequest("TryUpdateScaleWithAnimation")
		s.endOfInertiaZoom = snapped
		s.log.Debug("snapping zoom inertia", "rest", rest, "snapped", snapped, "req", id)
	} else {
		if s.hSnap.Len() == 0 && s.vSnap.Len() == 0 {
			return
		}
		rest := s.layout.PositionToOffsets(n.NaturalRestingPosition, n.NaturalRestingScale)
		snapped := s.layout.Clamp(vec.Vec2{X: s.hSnap.Resolve(rest.X), Y: s.vSnap.Resolve(rest.Y)}, n.NaturalRestingScale)
		if snapped == rest {
			return
		}
		pos := s.layout.OffsetsToPosition(snapped, n.NaturalRestingScale)
		id = s.engine.TryUpdatePositionWithAnimation(pos, s.policy.OffsetsAnimationDuration(snapped.Sub(s.offsets).Length()))
		s.metrics.EngineRequest("TryUpdatePositionWithAnimation")
		s.log.Debug("snapping inertia", "rest", rest, "snapped", snapped, "req", id)
	}

	if op != nil {
		op.SetRequestID(id)
	}
	s.setLatestRequest(id, op != nil && op.IsZoom(), true)
}

// completeBatch completes every operation a notification resolves, older
// first.
func (s *Scroller) completeBatch(batch queue.Batch, b *notify.Batch) {
	for _, c := range s.ops.Select(batch) {
		s.complete(c.Op, c.Result, b)
	}
}

// complete removes op and queues its completion event. An operation
// completes at most once; later calls are no-ops.
func (s *Scroller) complete(op *operation.Operation, result operation.Result, b *notify.Batch) {
	if !s.ops.Remove(op) {
		return
	}

	if op.Kind().IsVelocity() && op.IsDispatched() && s.engine != nil {
		s.resetDecay(op)
	}

	b.Completed(op.IsZoom(), op.ViewChangeID(), result)
	s.metrics.Completed(op.IsZoom(), result.String())
	s.trace.Record(trace.Record{
		Type:         trace.TypeCompletion,
		ViewChangeID: op.ViewChangeID(),
		RequestID:    int32(op.RequestID()),
		Kind:         op.Kind().String(),
		Result:       result.String(),
	})
	s.log.Debug("completed", "id", op.ViewChangeID(), "req", op.RequestID(), "result", result)
}

// resetDecay restores the engine's default inertia decay after a velocity
// change, unless a newer velocity change of the same kind now owns the
// latest request and still needs its override.
func (s *Scroller) resetDecay(op *operation.Operation) {
	if newer := s.ops.Latest(op.Kind(), op); newer != nil && newer.RequestID() == s.latestRequest {
		return
	}
	if op.IsZoom() {
		s.engine.SetScaleInertiaDecayRate(nil)
	} else {
		s.engine.SetPositionInertiaDecayRate(nil)
	}
}
