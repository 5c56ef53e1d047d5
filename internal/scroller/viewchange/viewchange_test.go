package viewchange

import (
	"testing"

	"seehuhn.de/go/geom/vec"
)

func TestCloneIsolatesCaller(t *testing.T) {
	center := &vec.Vec2{X: 10, Y: 20}
	orig := &AbsoluteZoom{Factor: 2, Center: center}

	c, err := Clone(orig)
	if err != nil {
		t.Fatalf("Clone: %v", err)
	}

	orig.Factor = 5
	center.X = 99

	z, ok := c.(*AbsoluteZoom)
	if !ok {
		t.Fatalf("expected *AbsoluteZoom, got %T", c)
	}
	if z.Factor != 2 {
		t.Errorf("expected factor 2, got %v", z.Factor)
	}
	if z.Center == nil || z.Center.X != 10 {
		t.Errorf("expected center X 10, got %v", z.Center)
	}
}

func TestCloneValueVariant(t *testing.T) {
	c, err := Clone(RelativeOffsets{Delta: vec.Vec2{X: 1, Y: 2}})
	if err != nil {
		t.Fatalf("Clone: %v", err)
	}
	r, ok := c.(*RelativeOffsets)
	if !ok {
		t.Fatalf("expected *RelativeOffsets, got %T", c)
	}
	if r.Delta.X != 1 || r.Delta.Y != 2 {
		t.Errorf("expected delta (1, 2), got %v", r.Delta)
	}

	if _, err := Clone(nil); err == nil {
		t.Error("expected error for nil change")
	}
}

func TestIsAnimated(t *testing.T) {
	tests := []struct {
		change Change
		want   bool
	}{
		{&AbsoluteOffsets{}, false},
		{&AbsoluteOffsets{Options: Options{Animation: AnimationEnabled}}, true},
		{&RelativeZoom{Options: Options{Animation: AnimationEnabled}}, true},
		{&OffsetsWithVelocity{}, true},
		{&ZoomWithVelocity{}, true},
	}
	for _, tt := range tests {
		if got := IsAnimated(tt.change); got != tt.want {
			t.Errorf("%s: expected %v, got %v", Describe(tt.change), tt.want, got)
		}
	}
}

func TestKindPredicates(t *testing.T) {
	if !KindZoomWithVelocity.IsZoom() || !KindZoomWithVelocity.IsVelocity() {
		t.Error("expected zoom-velocity to be zoom and velocity")
	}
	if KindRelativeOffsets.IsZoom() || KindRelativeOffsets.IsVelocity() {
		t.Error("expected relative-offsets to be neither zoom nor velocity")
	}
}

func TestSetOffsetAxis(t *testing.T) {
	c := &AbsoluteOffsets{Offsets: vec.Vec2{X: 1, Y: 2}}
	if !SetOffsetAxis(c, Vertical, 50) {
		t.Fatal("expected SetOffsetAxis to succeed")
	}
	if c.Offsets.X != 1 || c.Offsets.Y != 50 {
		t.Errorf("expected (1, 50), got %v", c.Offsets)
	}
	if SetOffsetAxis(&AbsoluteZoom{}, Horizontal, 1) {
		t.Error("expected SetOffsetAxis to reject zoom changes")
	}
}

func TestMergeAxisVelocity(t *testing.T) {
	const def = 0.95
	decay := 0.5

	c := NewAxisVelocity(Horizontal, 100, &decay, def)
	if c.DecayRate == nil || c.DecayRate.X != 0.5 || c.DecayRate.Y != def {
		t.Fatalf("expected decay (0.5, %v), got %v", def, c.DecayRate)
	}

	// Vertical request without decay leaves horizontal untouched.
	MergeAxisVelocity(c, Vertical, 40, nil, def)
	if c.Velocity.X != 100 || c.Velocity.Y != 40 {
		t.Errorf("expected velocity (100, 40), got %v", c.Velocity)
	}
	if c.DecayRate == nil || c.DecayRate.X != 0.5 {
		t.Errorf("expected horizontal decay 0.5 to survive, got %v", c.DecayRate)
	}

	// Horizontal request without decay drops the override.
	MergeAxisVelocity(c, Horizontal, 10, nil, def)
	if c.DecayRate != nil {
		t.Errorf("expected override dropped, got %v", c.DecayRate)
	}

	vd := 0.7
	MergeAxisVelocity(c, Vertical, 60, &vd, def)
	if c.DecayRate == nil || c.DecayRate.X != def || c.DecayRate.Y != 0.7 {
		t.Errorf("expected decay (%v, 0.7), got %v", def, c.DecayRate)
	}
	if c.Velocity.X != 10 || c.Velocity.Y != 60 {
		t.Errorf("expected velocity (10, 60), got %v", c.Velocity)
	}
}
