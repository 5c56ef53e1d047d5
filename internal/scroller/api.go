package scroller

import (
	"errors"
	"fmt"
	"math"

	"seehuhn.de/go/geom/vec"

	"github.com/dshills/scroller/internal/scroller/bringintoview"
	"github.com/dshills/scroller/internal/scroller/engine"
	"github.com/dshills/scroller/internal/scroller/operation"
	"github.com/dshills/scroller/internal/scroller/viewchange"
)

// ScrollTo scrolls to zoomed offsets (h, v). It returns the view change id,
// or -1 when there is no content.
func (s *Scroller) ScrollTo(h, v float64, opts viewchange.Options) (int32, error) {
	b, end := s.begin()
	defer end()

	if err := s.admit("ScrollTo", h, v); err != nil {
		return rejected(err)
	}
	return s.newOperation("ScrollTo", &viewchange.AbsoluteOffsets{
		Offsets: vec.Vec2{X: h, Y: v},
		Options: opts,
	}, operation.TriggerDirectCall, b)
}

// ScrollBy scrolls by (dh, dv) from the current offsets.
func (s *Scroller) ScrollBy(dh, dv float64, opts viewchange.Options) (int32, error) {
	b, end := s.begin()
	defer end()

	if err := s.admit("ScrollBy", dh, dv); err != nil {
		return rejected(err)
	}
	return s.newOperation("ScrollBy", &viewchange.RelativeOffsets{
		Delta:   vec.Vec2{X: dh, Y: dv},
		Options: opts,
	}, operation.TriggerDirectCall, b)
}

// ScrollFrom adds velocity to the position inertia. A non-nil decay
// overrides the engine's inertia decay rate while the change is in flight.
func (s *Scroller) ScrollFrom(velocity vec.Vec2, decay *vec.Vec2) (int32, error) {
	b, end := s.begin()
	defer end()

	if err := s.admit("ScrollFrom", velocity.X, velocity.Y); err != nil {
		return rejected(err)
	}
	return s.newOperation("ScrollFrom", &viewchange.OffsetsWithVelocity{
		Velocity:  velocity,
		DecayRate: decay,
	}, operation.TriggerDirectCall, b)
}

// ZoomTo zooms to factor around center, given in viewport coordinates. A
// nil center zooms around the viewport center.
func (s *Scroller) ZoomTo(factor float64, center *vec.Vec2, opts viewchange.Options) (int32, error) {
	b, end := s.begin()
	defer end()

	if err := s.admit("ZoomTo", factor); err != nil {
		return rejected(err)
	}
	return s.newOperation("ZoomTo", &viewchange.AbsoluteZoom{
		Factor:  factor,
		Center:  center,
		Options: opts,
	}, operation.TriggerDirectCall, b)
}

// ZoomBy zooms by delta from the current factor.
func (s *Scroller) ZoomBy(delta float64, center *vec.Vec2, opts viewchange.Options) (int32, error) {
	b, end := s.begin()
	defer end()

	if err := s.admit("ZoomBy", delta); err != nil {
		return rejected(err)
	}
	return s.newOperation("ZoomBy", &viewchange.RelativeZoom{
		Delta:   delta,
		Center:  center,
		Options: opts,
	}, operation.TriggerDirectCall, b)
}

// ZoomFrom adds velocity to the scale inertia.
func (s *Scroller) ZoomFrom(velocity float64, center *vec.Vec2, decay *float64) (int32, error) {
	b, end := s.begin()
	defer end()

	if err := s.admit("ZoomFrom", velocity); err != nil {
		return rejected(err)
	}
	return s.newOperation("ZoomFrom", &viewchange.ZoomWithVelocity{
		Velocity:  velocity,
		Center:    center,
		DecayRate: decay,
	}, operation.TriggerDirectCall, b)
}

// RequestControllerOffset handles a scroll controller request on one axis.
// Requests from either controller that arrive before the pending one is
// dispatched and share its kind and animation mode merge into it and
// return its view change id.
func (s *Scroller) RequestControllerOffset(axis viewchange.Axis, value float64, relative bool, anim viewchange.AnimationMode) (int32, error) {
	b, end := s.begin()
	defer end()

	if err := s.admit("RequestControllerOffset", value); err != nil {
		return rejected(err)
	}

	trigger := controllerTrigger(axis)
	opts := viewchange.Options{Animation: anim, SnapPoints: viewchange.SnapPointsDefault}
	kind := viewchange.KindAbsoluteOffsets
	if relative {
		kind = viewchange.KindRelativeOffsets
	}

	if op := s.ops.Coalescable(operation.TriggerController, kind, opts); op != nil {
		viewchange.SetOffsetAxis(op.Change(), axis, value)
		op.AddTrigger(trigger)
		s.coalesced(op)
		return op.ViewChangeID(), nil
	}

	var change viewchange.Change
	if relative {
		change = &viewchange.RelativeOffsets{Options: opts}
	} else {
		change = &viewchange.AbsoluteOffsets{Offsets: s.offsets, Options: opts}
	}
	viewchange.SetOffsetAxis(change, axis, value)
	return s.newOperation("RequestControllerOffset", change, trigger, b)
}

// RequestControllerVelocity handles a scroll controller velocity request on
// one axis. A pending controller velocity change absorbs the request and
// keeps the other axis untouched.
func (s *Scroller) RequestControllerVelocity(axis viewchange.Axis, velocity float64, decay *float64) (int32, error) {
	b, end := s.begin()
	defer end()

	if err := s.admit("RequestControllerVelocity", velocity); err != nil {
		return rejected(err)
	}

	trigger := controllerTrigger(axis)
	def := s.policy.DefaultDecayRate

	if op := s.ops.Coalescable(operation.TriggerController, viewchange.KindOffsetsWithVelocity, viewchange.Options{}); op != nil {
		if c, ok := op.Change().(*viewchange.OffsetsWithVelocity); ok {
			viewchange.MergeAxisVelocity(c, axis, velocity, decay, def)
			op.AddTrigger(trigger)
			s.coalesced(op)
			return op.ViewChangeID(), nil
		}
	}

	change := viewchange.NewAxisVelocity(axis, velocity, decay, def)
	return s.newOperation("RequestControllerVelocity", change, trigger, b)
}

func controllerTrigger(axis viewchange.Axis) operation.Trigger {
	if axis == viewchange.Vertical {
		return operation.TriggerVerticalController
	}
	return operation.TriggerHorizontalController
}

// OnMouseWheel handles a wheel notch. Only a vertical wheel with Ctrl held
// zooms; anything else returns -1 so the host can scroll instead. Notches
// within the same tick accumulate into one zoom velocity change.
func (s *Scroller) OnMouseWheel(delta int32, horizontal, ctrl bool, pointer vec.Vec2) (int32, error) {
	if !ctrl || horizontal || delta == 0 {
		return -1, nil
	}

	b, end := s.begin()
	defer end()

	if err := s.admit("OnMouseWheel", pointer.X, pointer.Y); err != nil {
		return rejected(err)
	}

	endZoom := s.zoom
	if s.state == engine.StateInertia {
		endZoom = s.endOfInertiaZoom
	}
	if (endZoom <= s.minZoom && delta < 0) || (endZoom >= s.maxZoom && delta > 0) {
		s.log.Debug("wheel zoom at boundary", "zoom", endZoom, "delta", delta)
		return -1, nil
	}

	p := s.policy
	units := float64(delta) / p.WheelDeltaForVelocityUnit

	existing := s.ops.Coalescable(operation.TriggerMouseWheel, viewchange.KindZoomWithVelocity, viewchange.Options{})
	var pending *viewchange.ZoomWithVelocity
	if existing != nil {
		pending, _ = existing.Change().(*viewchange.ZoomWithVelocity)
	}
	if pending != nil {
		units += pending.Velocity
	}

	if units > 0 {
		units = math.Min(p.WheelMaxVelocityUnits, units)
		units = math.Min((s.maxZoom-endZoom)/p.WheelZoomPerVelocityUnit, units)
	} else {
		units = math.Max(-p.WheelMaxVelocityUnits, units)
		units = math.Max((s.minZoom-endZoom)/p.WheelZoomPerVelocityUnit, units)
	}

	if pending != nil {
		pending.Velocity = units
		s.coalesced(existing)
		return existing.ViewChangeID(), nil
	}

	if units > 0 {
		units += p.WheelMinVelocity
	} else {
		units -= p.WheelMinVelocity
	}

	decay := p.WheelInertiaDecayRate
	if decay <= 0 {
		decay = s.shim.MouseWheelInertiaDecayRate()
	}
	center := s.layout.WheelZoomCenter(pointer, s.zoom)

	return s.newOperation("OnMouseWheel", &viewchange.ZoomWithVelocity{
		Velocity:  units,
		Center:    &center,
		DecayRate: &decay,
	}, operation.TriggerMouseWheel, b)
}

// CancelViewChange cancels an operation that has not been dispatched yet.
// The operation completes Interrupted on the next tick. It reports whether
// a pending operation was found.
func (s *Scroller) CancelViewChange(viewChangeID int32) bool {
	_, end := s.begin()
	defer end()

	op := s.ops.ByViewChangeID(viewChangeID)
	if op == nil || !op.Pending() {
		return false
	}
	op.Cancel()
	s.log.Debug("cancel", "id", viewChangeID)
	return true
}

// BringIntoViewResult is the outcome of BringIntoView.
type BringIntoViewResult struct {
	bringintoview.Result

	// ViewChangeID identifies the scroll issued, or -1 when the view did
	// not need to move.
	ViewChangeID int32
}

// BringIntoView scrolls the minimal amount that reveals req.Target and
// returns the resolver output for propagation to outer surfaces.
func (s *Scroller) BringIntoView(req bringintoview.Request) (BringIntoViewResult, error) {
	b, end := s.begin()
	defer end()

	out := BringIntoViewResult{ViewChangeID: -1}
	if err := req.Validate(); err != nil {
		return out, opError("BringIntoView", "alignment ratio", ErrInvalidArgument)
	}
	if err := s.admit("BringIntoView"); err != nil {
		if errors.Is(err, ErrNoContent) {
			return out, nil
		}
		return out, err
	}

	res, err := bringintoview.Resolve(req, bringintoview.View{
		Offsets:        s.offsets,
		Viewport:       s.layout.Viewport(),
		Extent:         vec.Vec2{X: s.layout.Horizontal.Extent, Y: s.layout.Vertical.Extent},
		Zoom:           s.zoom,
		HorizontalSnap: s.hSnap,
		VerticalSnap:   s.vSnap,
	})
	if err != nil {
		return out, opError("BringIntoView", "request", ErrInvalidArgument)
	}
	out.Result = res

	if !res.Moves(s.offsets) {
		return out, nil
	}

	id, err := s.newOperation("BringIntoView", &viewchange.AbsoluteOffsets{
		Offsets: res.Offsets,
		Options: viewchange.Options{Animation: req.Animation, SnapPoints: viewchange.SnapPointsIgnore},
	}, operation.TriggerDirectCall, b)
	out.ViewChangeID = id
	return out, err
}

// OnPointerPressed hands a pressed pointer to the engine so the user can
// manipulate the surface. It reports whether the engine took the pointer.
// An access-denied refusal is logged and reported as not started.
func (s *Scroller) OnPointerPressed(pointerID uint32) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.engine == nil {
		return false, opError("OnPointerPressed", "", ErrDetached)
	}
	err := s.engine.TryRedirectForManipulation(pointerID)
	switch {
	case errors.Is(err, engine.ErrAccessDenied):
		s.log.Warn("redirect for manipulation denied", "pointer", pointerID)
		return false, nil
	case err != nil:
		return false, fmt.Errorf("redirect pointer %d: %w", pointerID, err)
	}
	return true, nil
}

// admit checks platform support, numeric inputs and content presence.
func (s *Scroller) admit(op string, values ...float64) error {
	if !s.shim.Supported() {
		return opError(op, "", ErrUnsupportedOperation)
	}
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return opError(op, "value", ErrInvalidArgument)
		}
	}
	if s.closed || !s.hasContent {
		return ErrNoContent
	}
	return nil
}

func rejected(err error) (int32, error) {
	if errors.Is(err, ErrNoContent) {
		return -1, nil
	}
	return -1, err
}
