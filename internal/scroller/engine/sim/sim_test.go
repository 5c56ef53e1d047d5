package sim

import (
	"errors"
	"math"
	"testing"
	"time"

	"seehuhn.de/go/geom/vec"

	"github.com/dshills/scroller/internal/scroller/engine"
)

const frame = 16 * time.Millisecond

func boundsTo(x, y float64) engine.BoundsFunc {
	return func(scale float64) (vec.Vec2, vec.Vec2) {
		return vec.Vec2{}, vec.Vec2{X: x * scale, Y: y * scale}
	}
}

func settle(t *testing.T, e *Engine) {
	t.Helper()
	for i := 0; i < 1000; i++ {
		if e.State() == engine.StateIdle {
			return
		}
		e.Advance(frame)
	}
	t.Fatalf("engine did not settle, state %s", e.State())
}

func TestTryUpdatePosition(t *testing.T) {
	e := New()
	e.SetPositionBounds(boundsTo(500, 500))

	id := e.TryUpdatePosition(vec.Vec2{X: 700, Y: 20})
	if id != 1 {
		t.Errorf("expected id 1, got %d", id)
	}
	if p := e.Position(); p.X != 500 || p.Y != 20 {
		t.Errorf("expected clamped position (500, 20), got %v", p)
	}

	ns := e.Drain()
	if len(ns) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(ns))
	}
	vc, ok := ns[0].(engine.ValuesChanged)
	if !ok || vc.ID != id {
		t.Errorf("expected ValuesChanged for %d, got %#v", id, ns[0])
	}

	// Same position again: no values change, engine was idle so no idle either.
	e.TryUpdatePosition(vec.Vec2{X: 500, Y: 20})
	if n := e.Pending(); n != 0 {
		t.Errorf("expected no notifications, got %d", n)
	}
}

func TestTryUpdatePositionBy(t *testing.T) {
	e := New(WithPosition(vec.Vec2{X: 10, Y: 10}))
	e.TryUpdatePositionBy(vec.Vec2{X: 5, Y: -3})
	if p := e.Position(); p.X != 15 || p.Y != 7 {
		t.Errorf("expected (15, 7), got %v", p)
	}
}

func TestAnimationReachesTarget(t *testing.T) {
	e := New()
	e.SetPositionBounds(boundsTo(1000, 1000))

	id := e.TryUpdatePositionWithAnimation(vec.Vec2{X: 300}, 200*time.Millisecond)
	if e.State() != engine.StateAnimation {
		t.Fatalf("expected animation state, got %s", e.State())
	}
	settle(t, e)

	if p := e.Position(); p.X != 300 {
		t.Errorf("expected X 300, got %v", p.X)
	}

	ns := e.Drain()
	if _, ok := ns[0].(engine.AnimationStateEntered); !ok {
		t.Errorf("expected AnimationStateEntered first, got %#v", ns[0])
	}
	last := ns[len(ns)-1]
	if idle, ok := last.(engine.IdleStateEntered); !ok || idle.ID != id {
		t.Errorf("expected IdleStateEntered(%d) last, got %#v", id, last)
	}
	for _, n := range ns[1 : len(ns)-1] {
		if n.RequestID() != id {
			t.Errorf("expected intermediate notifications for %d, got %#v", id, n)
		}
	}
}

func TestNewRequestInterruptsAnimation(t *testing.T) {
	e := New()
	e.SetPositionBounds(boundsTo(1000, 1000))

	e.TryUpdatePositionWithAnimation(vec.Vec2{X: 800}, time.Second)
	e.Advance(frame)
	e.Drain()

	id := e.TryUpdatePosition(vec.Vec2{X: 10})
	ns := e.Drain()
	last := ns[len(ns)-1]
	if idle, ok := last.(engine.IdleStateEntered); !ok || idle.ID != id {
		t.Errorf("expected IdleStateEntered(%d), got %#v", id, last)
	}
	if e.State() != engine.StateIdle {
		t.Errorf("expected idle, got %s", e.State())
	}
}

func TestScaleAnimation(t *testing.T) {
	e := New()
	e.SetScaleBounds(0.5, 4)
	e.TryUpdateScaleWithAnimation(8, vec.Vec2{}, 300*time.Millisecond)
	settle(t, e)
	if s := e.Scale(); s != 4 {
		t.Errorf("expected clamped scale 4, got %v", s)
	}
}

func TestTryUpdateScaleKeepsCenter(t *testing.T) {
	e := New(WithPosition(vec.Vec2{X: 100, Y: 0}))
	e.TryUpdateScale(2, vec.Vec2{X: 50, Y: 0})

	// Content under the center was at (100+50)/1 = 150 and stays there.
	if p := e.Position(); p.X != 250 {
		t.Errorf("expected X 250, got %v", p.X)
	}
	if s := e.Scale(); s != 2 {
		t.Errorf("expected scale 2, got %v", s)
	}
}

func TestInertia(t *testing.T) {
	e := New()
	e.SetPositionBounds(boundsTo(1000, 1000))

	id := e.TryUpdatePositionWithAdditionalVelocity(vec.Vec2{X: 100})
	ns := e.Drain()
	in, ok := ns[0].(engine.InertiaStateEntered)
	if !ok || in.ID != id {
		t.Fatalf("expected InertiaStateEntered(%d), got %#v", id, ns[0])
	}
	want := -100 / math.Log(1-DefaultInertiaDecayRate)
	if math.Abs(in.NaturalRestingPosition.X-want) > 1e-9 {
		t.Errorf("expected resting X %v, got %v", want, in.NaturalRestingPosition.X)
	}

	settle(t, e)
	if p := e.Position(); p.X <= 0 || p.X > want {
		t.Errorf("expected X in (0, %v], got %v", want, p.X)
	}
}

func TestDecayOverride(t *testing.T) {
	e := New()
	rate := 0.5
	e.SetScaleInertiaDecayRate(&rate)
	rate = 0.9
	if got := e.scaleDecayRate(); got != 0.5 {
		t.Errorf("expected stored rate 0.5, got %v", got)
	}
	e.SetScaleInertiaDecayRate(nil)
	if got := e.scaleDecayRate(); got != DefaultInertiaDecayRate {
		t.Errorf("expected default rate, got %v", got)
	}
}

func TestRequestsIgnoredWhileInteracting(t *testing.T) {
	e := New()
	e.BeginInteraction()
	e.Drain()

	id := e.TryUpdatePosition(vec.Vec2{X: 10})
	ns := e.Drain()
	if len(ns) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(ns))
	}
	if ig, ok := ns[0].(engine.RequestIgnored); !ok || ig.ID != id {
		t.Errorf("expected RequestIgnored(%d), got %#v", id, ns[0])
	}

	e.Pan(vec.Vec2{X: 5})
	e.EndInteraction(vec.Vec2{})
	ns = e.Drain()
	if idle, ok := ns[len(ns)-1].(engine.IdleStateEntered); !ok || idle.ID != 0 {
		t.Errorf("expected IdleStateEntered(0), got %#v", ns[len(ns)-1])
	}
}

func TestRedirectForManipulation(t *testing.T) {
	e := New(WithRedirectError(engine.ErrAccessDenied))
	if err := e.TryRedirectForManipulation(1); !errors.Is(err, engine.ErrAccessDenied) {
		t.Errorf("expected ErrAccessDenied, got %v", err)
	}

	e = New()
	if err := e.TryRedirectForManipulation(1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.State() != engine.StateInteracting {
		t.Errorf("expected interacting, got %s", e.State())
	}
}
