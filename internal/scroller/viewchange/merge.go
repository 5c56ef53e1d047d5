package viewchange

import "seehuhn.de/go/geom/vec"

// Axis selects one scrolling dimension.
type Axis int

const (
	Horizontal Axis = iota
	Vertical
)

// String returns the axis name.
func (a Axis) String() string {
	if a == Vertical {
		return "vertical"
	}
	return "horizontal"
}

func setAxis(v *vec.Vec2, axis Axis, value float64) {
	if axis == Vertical {
		v.Y = value
	} else {
		v.X = value
	}
}

func getAxis(v vec.Vec2, axis Axis) float64 {
	if axis == Vertical {
		return v.Y
	}
	return v.X
}

// SetOffsetAxis overwrites one axis of an absolute or relative offsets
// change. It reports false for any other variant.
func SetOffsetAxis(c Change, axis Axis, value float64) bool {
	switch v := c.(type) {
	case *AbsoluteOffsets:
		setAxis(&v.Offsets, axis, value)
		return true
	case *RelativeOffsets:
		setAxis(&v.Delta, axis, value)
		return true
	default:
		return false
	}
}

// NewAxisVelocity builds an offsets-with-velocity change for a single axis.
// A decay rate supplied for that axis is paired with defaultDecay on the
// other axis.
func NewAxisVelocity(axis Axis, velocity float64, decay *float64, defaultDecay float64) *OffsetsWithVelocity {
	c := &OffsetsWithVelocity{}
	setAxis(&c.Velocity, axis, velocity)
	if decay != nil {
		rate := vec.Vec2{X: defaultDecay, Y: defaultDecay}
		setAxis(&rate, axis, *decay)
		c.DecayRate = &rate
	}
	return c
}

// MergeAxisVelocity coalesces a single-axis velocity request into c. The
// other axis keeps its stored velocity and decay rate. When the merged
// request carries no decay rate its axis falls back to defaultDecay, and the
// override is dropped entirely once both axes are back to the default.
func MergeAxisVelocity(c *OffsetsWithVelocity, axis Axis, velocity float64, decay *float64, defaultDecay float64) {
	setAxis(&c.Velocity, axis, velocity)

	other := Horizontal
	if axis == Horizontal {
		other = Vertical
	}

	if decay == nil {
		if c.DecayRate == nil {
			return
		}
		if getAxis(*c.DecayRate, other) == defaultDecay {
			c.DecayRate = nil
			return
		}
		rate := *c.DecayRate
		setAxis(&rate, axis, defaultDecay)
		c.DecayRate = &rate
		return
	}

	rate := vec.Vec2{X: defaultDecay, Y: defaultDecay}
	if c.DecayRate != nil {
		rate = *c.DecayRate
	}
	setAxis(&rate, axis, *decay)
	c.DecayRate = &rate
}
