// Package engine defines the contract of the external interaction engine
// that owns the live position and scale and simulates inertia and
// animations.
//
// Every request returns a RequestID. The engine reports progress through a
// closed set of typed notifications that carry the id of the request that
// caused them, or zero when the user caused them.
package engine

import (
	"errors"
	"time"

	"seehuhn.de/go/geom/vec"
)

// ErrAccessDenied is returned by TryRedirectForManipulation when the engine
// refuses to take over a pointer.
var ErrAccessDenied = errors.New("engine: access denied")

// RequestID identifies one engine request. Zero means "no request".
type RequestID int32

// NoRequest marks an operation that has not been handed to the engine.
const NoRequest RequestID = -1

// State is the interaction state of the engine.
type State int

const (
	StateIdle State = iota
	StateInteracting
	StateInertia
	StateAnimation
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateInteracting:
		return "interacting"
	case StateInertia:
		return "inertia"
	case StateAnimation:
		return "animation"
	default:
		return "unknown"
	}
}

// BoundsFunc returns the reachable position range for a scale.
type BoundsFunc func(scale float64) (min, max vec.Vec2)

// Engine is the request surface of the interaction engine.
//
// Positions are in engine coordinates and zoom centers are in viewport
// coordinates. Requests never block; their outcome arrives as
// notifications.
type Engine interface {
	TryUpdatePosition(position vec.Vec2) RequestID
	TryUpdatePositionBy(delta vec.Vec2) RequestID
	TryUpdatePositionWithAnimation(target vec.Vec2, duration time.Duration) RequestID
	TryUpdatePositionWithAdditionalVelocity(velocity vec.Vec2) RequestID

	TryUpdateScale(scale float64, center vec.Vec2) RequestID
	TryUpdateScaleWithAnimation(scale float64, center vec.Vec2, duration time.Duration) RequestID
	TryUpdateScaleWithAdditionalVelocity(velocity float64, center vec.Vec2) RequestID

	// SetPositionInertiaDecayRate overrides the position decay rate, or
	// restores the default when rate is nil.
	SetPositionInertiaDecayRate(rate *vec.Vec2)

	// SetScaleInertiaDecayRate overrides the scale decay rate, or restores
	// the default when rate is nil.
	SetScaleInertiaDecayRate(rate *float64)

	// SetPositionBounds publishes the reachable position range as a
	// function of the scale.
	SetPositionBounds(fn BoundsFunc)

	// SetScaleBounds publishes the reachable scale range.
	SetScaleBounds(min, max float64)

	// TryRedirectForManipulation hands a pressed pointer to the engine.
	TryRedirectForManipulation(pointerID uint32) error
}

// Notification is one engine event. The set of implementations is closed.
type Notification interface {
	RequestID() RequestID
	isNotification()
}

// IdleStateEntered reports that the engine came to rest.
type IdleStateEntered struct {
	ID RequestID
}

// InteractingStateEntered reports that the user started manipulating.
type InteractingStateEntered struct {
	ID RequestID
}

// InertiaStateEntered reports the start of an inertia phase and where it
// will naturally end.
type InertiaStateEntered struct {
	ID                     RequestID
	NaturalRestingPosition vec.Vec2
	NaturalRestingScale    float64
}

// AnimationStateEntered reports the start of a requested animation.
type AnimationStateEntered struct {
	ID RequestID
}

// RequestIgnored reports that the engine dropped a request.
type RequestIgnored struct {
	ID RequestID
}

// ValuesChanged carries a position and scale sample.
type ValuesChanged struct {
	ID       RequestID
	Position vec.Vec2
	Scale    float64
}

func (n IdleStateEntered) RequestID() RequestID        { return n.ID }
func (n InteractingStateEntered) RequestID() RequestID { return n.ID }
func (n InertiaStateEntered) RequestID() RequestID     { return n.ID }
func (n AnimationStateEntered) RequestID() RequestID   { return n.ID }
func (n RequestIgnored) RequestID() RequestID          { return n.ID }
func (n ValuesChanged) RequestID() RequestID           { return n.ID }

func (IdleStateEntered) isNotification()        {}
func (InteractingStateEntered) isNotification() {}
func (InertiaStateEntered) isNotification()     {}
func (AnimationStateEntered) isNotification()   {}
func (RequestIgnored) isNotification()          {}
func (ValuesChanged) isNotification()           {}

// Name returns a short label for a notification, used in logs and traces.
func Name(n Notification) string {
	switch n.(type) {
	case IdleStateEntered:
		return "idle"
	case InteractingStateEntered:
		return "interacting"
	case InertiaStateEntered:
		return "inertia"
	case AnimationStateEntered:
		return "animation"
	case RequestIgnored:
		return "ignored"
	case ValuesChanged:
		return "values"
	default:
		return "unknown"
	}
}
