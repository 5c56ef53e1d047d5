// Package sim provides a deterministic, frame-stepped interaction engine.
//
// The engine keeps a live position and scale, runs animations and inertia
// when Advance is called, and queues notifications until the host drains
// them. It is used by the CLI, the interactive demo, the scripting layer
// and tests in place of a compositor-backed engine.
package sim

import (
	"math"
	"sync"
	"time"

	"seehuhn.de/go/geom/vec"

	"github.com/dshills/scroller/internal/scroller/engine"
)

// DefaultInertiaDecayRate is the decay rate used when no override is set.
const DefaultInertiaDecayRate = 0.95

// Velocities below these thresholds end an inertia phase.
const (
	minPositionVelocity = 1.0
	minScaleVelocity    = 0.001
)

type motion int

const (
	motionNone motion = iota
	motionPosition
	motionScale
)

// Engine is a simulated interaction engine.
type Engine struct {
	mu sync.RWMutex

	// Live values
	position vec.Vec2
	scale    float64
	state    engine.State

	// Reachable range
	bounds   engine.BoundsFunc
	minScale float64
	maxScale float64

	// Request bookkeeping
	nextID   engine.RequestID
	activeID engine.RequestID

	// Animation state
	anim        motion
	target      vec.Vec2
	targetScale float64
	center      vec.Vec2
	remaining   time.Duration

	// Inertia state
	velocity      vec.Vec2
	scaleVelocity float64
	posDecay      *vec.Vec2
	scaleDecay    *float64

	redirectErr error
	pending     []engine.Notification
}

// Option configures an Engine.
type Option func(*Engine)

// WithScale sets the initial scale.
func WithScale(scale float64) Option {
	return func(e *Engine) {
		e.scale = scale
	}
}

// WithPosition sets the initial position.
func WithPosition(p vec.Vec2) Option {
	return func(e *Engine) {
		e.position = p
	}
}

// WithRedirectError makes TryRedirectForManipulation fail with err.
func WithRedirectError(err error) Option {
	return func(e *Engine) {
		e.redirectErr = err
	}
}

// New creates a simulated engine at rest.
func New(opts ...Option) *Engine {
	e := &Engine{
		scale:    1,
		minScale: 0.1,
		maxScale: 10,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Position returns the live position.
func (e *Engine) Position() vec.Vec2 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.position
}

// Scale returns the live scale.
func (e *Engine) Scale() float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.scale
}

// State returns the interaction state.
func (e *Engine) State() engine.State {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state
}

// Pending returns the number of undelivered notifications.
func (e *Engine) Pending() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.pending)
}

// Drain returns and clears the queued notifications in emission order.
func (e *Engine) Drain() []engine.Notification {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := e.pending
	e.pending = nil
	return out
}

// SetPositionBounds implements engine.Engine.
func (e *Engine) SetPositionBounds(fn engine.BoundsFunc) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.bounds = fn
}

// SetScaleBounds implements engine.Engine.
func (e *Engine) SetScaleBounds(lo, hi float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.minScale = lo
	e.maxScale = hi
}

// SetPositionInertiaDecayRate implements engine.Engine.
func (e *Engine) SetPositionInertiaDecayRate(rate *vec.Vec2) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if rate == nil {
		e.posDecay = nil
		return
	}
	r := *rate
	e.posDecay = &r
}

// SetScaleInertiaDecayRate implements engine.Engine.
func (e *Engine) SetScaleInertiaDecayRate(rate *float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if rate == nil {
		e.scaleDecay = nil
		return
	}
	r := *rate
	e.scaleDecay = &r
}

// TryUpdatePosition implements engine.Engine.
func (e *Engine) TryUpdatePosition(position vec.Vec2) engine.RequestID {
	e.mu.Lock()
	defer e.mu.Unlock()

	id, ok := e.beginRequest()
	if !ok {
		return id
	}
	e.jump(id, position, e.scale)
	return id
}

// TryUpdatePositionBy implements engine.Engine.
func (e *Engine) TryUpdatePositionBy(delta vec.Vec2) engine.RequestID {
	e.mu.Lock()
	defer e.mu.Unlock()

	id, ok := e.beginRequest()
	if !ok {
		return id
	}
	e.jump(id, e.position.Add(delta), e.scale)
	return id
}

// TryUpdatePositionWithAnimation implements engine.Engine.
func (e *Engine) TryUpdatePositionWithAnimation(target vec.Vec2, duration time.Duration) engine.RequestID {
	e.mu.Lock()
	defer e.mu.Unlock()

	id, ok := e.beginRequest()
	if !ok {
		return id
	}
	e.stopMotion()
	e.anim = motionPosition
	e.target = e.clampPosition(target, e.scale)
	e.remaining = duration
	e.activeID = id
	e.enter(engine.StateAnimation, engine.AnimationStateEntered{ID: id})
	return id
}

// TryUpdatePositionWithAdditionalVelocity implements engine.Engine.
func (e *Engine) TryUpdatePositionWithAdditionalVelocity(velocity vec.Vec2) engine.RequestID {
	e.mu.Lock()
	defer e.mu.Unlock()

	id, ok := e.beginRequest()
	if !ok {
		return id
	}
	if e.state != engine.StateInertia {
		e.stopMotion()
	}
	e.velocity = e.velocity.Add(velocity)
	e.activeID = id
	e.startInertia(id)
	return id
}

// TryUpdateScale implements engine.Engine.
func (e *Engine) TryUpdateScale(scale float64, center vec.Vec2) engine.RequestID {
	e.mu.Lock()
	defer e.mu.Unlock()

	id, ok := e.beginRequest()
	if !ok {
		return id
	}
	s := e.clampScale(scale)
	e.jump(id, zoomAround(e.position, center, e.scale, s), s)
	return id
}

// TryUpdateScaleWithAnimation implements engine.Engine.
func (e *Engine) TryUpdateScaleWithAnimation(scale float64, center vec.Vec2, duration time.Duration) engine.RequestID {
	e.mu.Lock()
	defer e.mu.Unlock()

	id, ok := e.beginRequest()
	if !ok {
		return id
	}
	e.stopMotion()
	e.anim = motionScale
	e.targetScale = e.clampScale(scale)
	e.center = center
	e.remaining = duration
	e.activeID = id
	e.enter(engine.StateAnimation, engine.AnimationStateEntered{ID: id})
	return id
}

// TryUpdateScaleWithAdditionalVelocity implements engine.Engine.
func (e *Engine) TryUpdateScaleWithAdditionalVelocity(velocity float64, center vec.Vec2) engine.RequestID {
	e.mu.Lock()
	defer e.mu.Unlock()

	id, ok := e.beginRequest()
	if !ok {
		return id
	}
	if e.state != engine.StateInertia {
		e.stopMotion()
	}
	e.scaleVelocity += velocity
	e.center = center
	e.activeID = id
	e.startInertia(id)
	return id
}

// TryRedirectForManipulation implements engine.Engine. On success the
// engine enters the interacting state.
func (e *Engine) TryRedirectForManipulation(pointerID uint32) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.redirectErr != nil {
		return e.redirectErr
	}
	e.beginInteraction()
	return nil
}

// BeginInteraction simulates the user touching the surface.
func (e *Engine) BeginInteraction() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.beginInteraction()
}

// Pan simulates a user drag while interacting.
func (e *Engine) Pan(delta vec.Vec2) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != engine.StateInteracting {
		return
	}
	p := e.clampPosition(e.position.Add(delta), e.scale)
	if p != e.position {
		e.position = p
		e.emit(engine.ValuesChanged{ID: 0, Position: p, Scale: e.scale})
	}
}

// EndInteraction simulates the user lifting the pointer with a release
// velocity. A zero velocity brings the engine to rest.
func (e *Engine) EndInteraction(velocity vec.Vec2) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != engine.StateInteracting {
		return
	}
	e.activeID = 0
	if velocity.X == 0 && velocity.Y == 0 {
		e.enter(engine.StateIdle, engine.IdleStateEntered{ID: 0})
		return
	}
	e.velocity = velocity
	e.startInertia(0)
}

// Advance moves animations and inertia forward by dt and reports whether
// the position or scale changed.
func (e *Engine) Advance(dt time.Duration) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch e.state {
	case engine.StateAnimation:
		return e.advanceAnimation(dt)
	case engine.StateInertia:
		return e.advanceInertia(dt)
	default:
		return false
	}
}

func (e *Engine) advanceAnimation(dt time.Duration) bool {
	oldPos, oldScale := e.position, e.scale

	e.remaining -= dt
	done := e.remaining <= 0

	// Exponential interpolation toward the target, forced to land at the
	// end of the requested duration.
	factor := 1.0 - math.Pow(0.1, dt.Seconds()*10)

	switch e.anim {
	case motionPosition:
		if done {
			e.position = e.target
		} else {
			diff := e.target.Sub(e.position)
			e.position = e.position.Add(diff.Mul(factor))
			if diff.Length() < 0.5 {
				e.position = e.target
				done = true
			}
		}
	case motionScale:
		next := e.targetScale
		if !done {
			next = e.scale + (e.targetScale-e.scale)*factor
			if math.Abs(e.targetScale-next) < 0.0005 {
				next = e.targetScale
				done = true
			}
		}
		e.position = zoomAround(e.position, e.center, e.scale, next)
		e.scale = next
		e.position = e.clampPosition(e.position, e.scale)
	}

	moved := e.position != oldPos || e.scale != oldScale
	if moved {
		e.emit(engine.ValuesChanged{ID: e.activeID, Position: e.position, Scale: e.scale})
	}
	if done {
		e.anim = motionNone
		e.enter(engine.StateIdle, engine.IdleStateEntered{ID: e.activeID})
	}
	return moved
}

func (e *Engine) advanceInertia(dt time.Duration) bool {
	oldPos, oldScale := e.position, e.scale
	secs := dt.Seconds()

	if e.velocity.X != 0 || e.velocity.Y != 0 {
		next := e.clampPosition(e.position.Add(e.velocity.Mul(secs)), e.scale)
		if next.X == e.position.X {
			e.velocity.X = 0
		}
		if next.Y == e.position.Y {
			e.velocity.Y = 0
		}
		e.position = next
		rate := e.positionDecay()
		e.velocity.X *= math.Pow(1-rate.X, secs)
		e.velocity.Y *= math.Pow(1-rate.Y, secs)
	}

	if e.scaleVelocity != 0 {
		s := e.clampScale(e.scale + e.scaleVelocity*secs)
		if s == e.scale {
			e.scaleVelocity = 0
		}
		e.position = e.clampPosition(zoomAround(e.position, e.center, e.scale, s), s)
		e.scale = s
		e.scaleVelocity *= math.Pow(1-e.scaleDecayRate(), secs)
	}

	moved := e.position != oldPos || e.scale != oldScale
	if moved {
		e.emit(engine.ValuesChanged{ID: e.activeID, Position: e.position, Scale: e.scale})
	}

	if e.velocity.Length() < minPositionVelocity && math.Abs(e.scaleVelocity) < minScaleVelocity {
		e.velocity = vec.Vec2{}
		e.scaleVelocity = 0
		e.enter(engine.StateIdle, engine.IdleStateEntered{ID: e.activeID})
	}
	return moved
}

// beginRequest allocates an id. Requests made while the user interacts are
// ignored.
func (e *Engine) beginRequest() (engine.RequestID, bool) {
	e.nextID++
	id := e.nextID
	if e.state == engine.StateInteracting {
		e.emit(engine.RequestIgnored{ID: id})
		return id, false
	}
	return id, true
}

// jump moves to a new view without animation.
func (e *Engine) jump(id engine.RequestID, position vec.Vec2, scale float64) {
	wasMoving := e.state != engine.StateIdle
	e.stopMotion()

	position = e.clampPosition(position, scale)
	if position != e.position || scale != e.scale {
		e.position = position
		e.scale = scale
		e.emit(engine.ValuesChanged{ID: id, Position: position, Scale: scale})
	}
	if wasMoving {
		e.enter(engine.StateIdle, engine.IdleStateEntered{ID: id})
	}
}

func (e *Engine) startInertia(id engine.RequestID) {
	rest := e.position
	rate := e.positionDecay()
	rest.X += restingDistance(e.velocity.X, rate.X)
	rest.Y += restingDistance(e.velocity.Y, rate.Y)

	restScale := e.clampScale(e.scale + restingDistance(e.scaleVelocity, e.scaleDecayRate()))
	rest = e.clampPosition(rest, restScale)

	e.state = engine.StateInertia
	e.emit(engine.InertiaStateEntered{
		ID:                     id,
		NaturalRestingPosition: rest,
		NaturalRestingScale:    restScale,
	})
}

func (e *Engine) beginInteraction() {
	e.stopMotion()
	e.activeID = 0
	e.enter(engine.StateInteracting, engine.InteractingStateEntered{ID: 0})
}

func (e *Engine) stopMotion() {
	e.anim = motionNone
	e.velocity = vec.Vec2{}
	e.scaleVelocity = 0
	e.remaining = 0
}

func (e *Engine) enter(state engine.State, n engine.Notification) {
	e.state = state
	e.emit(n)
}

func (e *Engine) emit(n engine.Notification) {
	e.pending = append(e.pending, n)
}

func (e *Engine) positionDecay() vec.Vec2 {
	if e.posDecay != nil {
		return *e.posDecay
	}
	return vec.Vec2{X: DefaultInertiaDecayRate, Y: DefaultInertiaDecayRate}
}

func (e *Engine) scaleDecayRate() float64 {
	if e.scaleDecay != nil {
		return *e.scaleDecay
	}
	return DefaultInertiaDecayRate
}

func (e *Engine) clampPosition(p vec.Vec2, scale float64) vec.Vec2 {
	if e.bounds == nil {
		return p
	}
	lo, hi := e.bounds(scale)
	p.X = math.Max(lo.X, math.Min(hi.X, p.X))
	p.Y = math.Max(lo.Y, math.Min(hi.Y, p.Y))
	return p
}

func (e *Engine) clampScale(s float64) float64 {
	return math.Max(e.minScale, math.Min(e.maxScale, s))
}

// restingDistance integrates v(t) = v0 * (1-rate)^t over [0, inf).
func restingDistance(v0, rate float64) float64 {
	if v0 == 0 || rate >= 1 {
		return 0
	}
	if rate <= 0 {
		return math.Copysign(math.Inf(1), v0)
	}
	return -v0 / math.Log(1-rate)
}

// zoomAround keeps the content point under center fixed while the scale
// changes from old to next.
func zoomAround(position, center vec.Vec2, old, next float64) vec.Vec2 {
	if old == 0 {
		return position
	}
	return position.Add(center).Mul(next / old).Sub(center)
}
