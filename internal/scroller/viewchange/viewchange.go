// Package viewchange describes requested scroll-offset and zoom-factor
// changes.
//
// A Change is a closed sum type: exactly one of AbsoluteOffsets,
// RelativeOffsets, OffsetsWithVelocity, AbsoluteZoom, RelativeZoom or
// ZoomWithVelocity. Callers switch on the concrete type.
package viewchange

import (
	"fmt"

	"github.com/tiendc/go-deepcopy"
	"seehuhn.de/go/geom/vec"
)

// AnimationMode selects whether a change is animated by the engine.
type AnimationMode int

const (
	// AnimationDisabled jumps to the target.
	AnimationDisabled AnimationMode = iota

	// AnimationEnabled animates toward the target.
	AnimationEnabled
)

// String returns the mode name.
func (m AnimationMode) String() string {
	if m == AnimationEnabled {
		return "enabled"
	}
	return "disabled"
}

// SnapPointsMode selects whether snap points adjust the target.
type SnapPointsMode int

const (
	// SnapPointsDefault resolves the target through the snap point set.
	SnapPointsDefault SnapPointsMode = iota

	// SnapPointsIgnore uses the target as is.
	SnapPointsIgnore
)

// String returns the mode name.
func (m SnapPointsMode) String() string {
	if m == SnapPointsIgnore {
		return "ignore"
	}
	return "default"
}

// Options are the caller-selected modes of an offsets or zoom change.
type Options struct {
	Animation  AnimationMode
	SnapPoints SnapPointsMode
}

// Kind identifies the variant of a Change.
type Kind int

const (
	KindAbsoluteOffsets Kind = iota
	KindRelativeOffsets
	KindOffsetsWithVelocity
	KindAbsoluteZoom
	KindRelativeZoom
	KindZoomWithVelocity
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindAbsoluteOffsets:
		return "absolute-offsets"
	case KindRelativeOffsets:
		return "relative-offsets"
	case KindOffsetsWithVelocity:
		return "offsets-velocity"
	case KindAbsoluteZoom:
		return "absolute-zoom"
	case KindRelativeZoom:
		return "relative-zoom"
	case KindZoomWithVelocity:
		return "zoom-velocity"
	default:
		return "unknown"
	}
}

// IsZoom reports whether the kind changes the zoom factor.
func (k Kind) IsZoom() bool {
	return k == KindAbsoluteZoom || k == KindRelativeZoom || k == KindZoomWithVelocity
}

// IsVelocity reports whether the kind launches inertia.
func (k Kind) IsVelocity() bool {
	return k == KindOffsetsWithVelocity || k == KindZoomWithVelocity
}

// Change is one requested view change.
type Change interface {
	Kind() Kind
	isChange()
}

// AbsoluteOffsets scrolls to zoomed offsets.
type AbsoluteOffsets struct {
	Offsets vec.Vec2
	Options Options
}

// RelativeOffsets scrolls by a delta from the current offsets.
type RelativeOffsets struct {
	Delta   vec.Vec2
	Options Options
}

// OffsetsWithVelocity adds velocity to the position inertia. DecayRate,
// when set, overrides the engine's position inertia decay rate per axis.
type OffsetsWithVelocity struct {
	Velocity  vec.Vec2
	DecayRate *vec.Vec2
}

// AbsoluteZoom zooms to a factor around an optional center point given in
// viewport coordinates. A nil center uses the viewport center.
type AbsoluteZoom struct {
	Factor  float64
	Center  *vec.Vec2
	Options Options
}

// RelativeZoom zooms by a delta from the current factor.
type RelativeZoom struct {
	Delta   float64
	Center  *vec.Vec2
	Options Options
}

// ZoomWithVelocity adds velocity to the scale inertia.
type ZoomWithVelocity struct {
	Velocity  float64
	Center    *vec.Vec2
	DecayRate *float64
}

func (AbsoluteOffsets) Kind() Kind     { return KindAbsoluteOffsets }
func (RelativeOffsets) Kind() Kind     { return KindRelativeOffsets }
func (OffsetsWithVelocity) Kind() Kind { return KindOffsetsWithVelocity }
func (AbsoluteZoom) Kind() Kind        { return KindAbsoluteZoom }
func (RelativeZoom) Kind() Kind        { return KindRelativeZoom }
func (ZoomWithVelocity) Kind() Kind    { return KindZoomWithVelocity }

func (AbsoluteOffsets) isChange()     {}
func (RelativeOffsets) isChange()     {}
func (OffsetsWithVelocity) isChange() {}
func (AbsoluteZoom) isChange()        {}
func (RelativeZoom) isChange()        {}
func (ZoomWithVelocity) isChange()    {}

// OptionsOf returns the options of a change. Velocity changes carry no
// options and report false.
func OptionsOf(c Change) (Options, bool) {
	switch v := c.(type) {
	case *AbsoluteOffsets:
		return v.Options, true
	case AbsoluteOffsets:
		return v.Options, true
	case *RelativeOffsets:
		return v.Options, true
	case RelativeOffsets:
		return v.Options, true
	case *AbsoluteZoom:
		return v.Options, true
	case AbsoluteZoom:
		return v.Options, true
	case *RelativeZoom:
		return v.Options, true
	case RelativeZoom:
		return v.Options, true
	default:
		return Options{}, false
	}
}

// IsAnimated reports whether the engine will run an animation or inertia
// phase for the change, which decides how the change completes.
func IsAnimated(c Change) bool {
	if c.Kind().IsVelocity() {
		return true
	}
	opts, _ := OptionsOf(c)
	return opts.Animation == AnimationEnabled
}

// Clone returns a deep copy of c so that caller-side mutation after
// submission has no effect on the queued change. Values and pointers are
// both accepted; the result is always a pointer variant.
func Clone(c Change) (Change, error) {
	var err error
	switch v := c.(type) {
	case *AbsoluteOffsets:
		var dst AbsoluteOffsets
		err = deepcopy.Copy(&dst, v)
		return &dst, err
	case AbsoluteOffsets:
		return Clone(&v)
	case *RelativeOffsets:
		var dst RelativeOffsets
		err = deepcopy.Copy(&dst, v)
		return &dst, err
	case RelativeOffsets:
		return Clone(&v)
	case *OffsetsWithVelocity:
		var dst OffsetsWithVelocity
		err = deepcopy.Copy(&dst, v)
		return &dst, err
	case OffsetsWithVelocity:
		return Clone(&v)
	case *AbsoluteZoom:
		var dst AbsoluteZoom
		err = deepcopy.Copy(&dst, v)
		return &dst, err
	case AbsoluteZoom:
		return Clone(&v)
	case *RelativeZoom:
		var dst RelativeZoom
		err = deepcopy.Copy(&dst, v)
		return &dst, err
	case RelativeZoom:
		return Clone(&v)
	case *ZoomWithVelocity:
		var dst ZoomWithVelocity
		err = deepcopy.Copy(&dst, v)
		return &dst, err
	case ZoomWithVelocity:
		return Clone(&v)
	case nil:
		return nil, fmt.Errorf("viewchange: nil change")
	default:
		return nil, fmt.Errorf("viewchange: unsupported change %T", c)
	}
}

// Describe returns a compact human-readable form used in logs and traces.
func Describe(c Change) string {
	switch v := c.(type) {
	case *AbsoluteOffsets:
		return fmt.Sprintf("%s(%g, %g, anim=%s, snap=%s)", v.Kind(), v.Offsets.X, v.Offsets.Y, v.Options.Animation, v.Options.SnapPoints)
	case *RelativeOffsets:
		return fmt.Sprintf("%s(%g, %g, anim=%s, snap=%s)", v.Kind(), v.Delta.X, v.Delta.Y, v.Options.Animation, v.Options.SnapPoints)
	case *OffsetsWithVelocity:
		return fmt.Sprintf("%s(%g, %g)", v.Kind(), v.Velocity.X, v.Velocity.Y)
	case *AbsoluteZoom:
		return fmt.Sprintf("%s(%g, anim=%s, snap=%s)", v.Kind(), v.Factor, v.Options.Animation, v.Options.SnapPoints)
	case *RelativeZoom:
		return fmt.Sprintf("%s(%g, anim=%s, snap=%s)", v.Kind(), v.Delta, v.Options.Animation, v.Options.SnapPoints)
	case *ZoomWithVelocity:
		return fmt.Sprintf("%s(%g)", v.Kind(), v.Velocity)
	default:
		return fmt.Sprintf("%T", c)
	}
}
