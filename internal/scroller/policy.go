package scroller

import (
	"math"
	"time"
)

// Policy holds the numeric parameters of the queue and of animation and
// mouse-wheel handling. It is injected at construction so tests and hosts
// can tune it without global state.
type Policy struct {
	// QueuedOperationTicks is the countdown of an operation that leaves the
	// delayed state.
	QueuedOperationTicks int

	// NonAnimatedCompletionTicks is how many ticks a dispatched non-animated
	// operation waits without engine activity before it completes.
	NonAnimatedCompletionTicks int

	MinZoomFactor float64
	MaxZoomFactor float64

	OffsetsMsPerUnit float64
	OffsetsMin       time.Duration
	OffsetsMax       time.Duration
	ZoomMsPerUnit    float64
	ZoomMin          time.Duration
	ZoomMax          time.Duration

	WheelDeltaForVelocityUnit float64
	WheelMaxVelocityUnits     float64
	WheelZoomPerVelocityUnit  float64
	WheelMinVelocity          float64

	// WheelInertiaDecayRate overrides the platform decay rate when
	// positive.
	WheelInertiaDecayRate float64

	// DefaultDecayRate is the engine's inertia decay rate, used when only
	// one axis of a velocity request carries an override.
	DefaultDecayRate float64
}

// DefaultPolicy returns the built-in parameters.
func DefaultPolicy() Policy {
	return Policy{
		QueuedOperationTicks:       3,
		NonAnimatedCompletionTicks: 1,
		MinZoomFactor:              0.1,
		MaxZoomFactor:              10,
		OffsetsMsPerUnit:           5,
		OffsetsMin:                 50 * time.Millisecond,
		OffsetsMax:                 1000 * time.Millisecond,
		ZoomMsPerUnit:              250,
		ZoomMin:                    50 * time.Millisecond,
		ZoomMax:                    1000 * time.Millisecond,
		WheelDeltaForVelocityUnit:  120,
		WheelMaxVelocityUnits:      5,
		WheelZoomPerVelocityUnit:   0.1,
		WheelMinVelocity:           0.05,
		DefaultDecayRate:           0.95,
	}
}

// OffsetsAnimationDuration returns the animation length for a move of
// distance zoomed units.
func (p Policy) OffsetsAnimationDuration(distance float64) time.Duration {
	return animationDuration(distance, p.OffsetsMsPerUnit, p.OffsetsMin, p.OffsetsMax)
}

// ZoomAnimationDuration returns the animation length for a zoom factor
// change of delta.
func (p Policy) ZoomAnimationDuration(delta float64) time.Duration {
	return animationDuration(delta, p.ZoomMsPerUnit, p.ZoomMin, p.ZoomMax)
}

func animationDuration(distance, msPerUnit float64, lo, hi time.Duration) time.Duration {
	units := math.Trunc(math.Abs(distance))
	d := time.Duration(units*msPerUnit) * time.Millisecond
	if d < lo {
		return lo
	}
	if d > hi {
		return hi
	}
	return d
}
