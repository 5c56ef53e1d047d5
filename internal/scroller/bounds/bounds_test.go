package bounds

import (
	"testing"

	"seehuhn.de/go/geom/vec"
)

func TestAxisMinMax(t *testing.T) {
	tests := []struct {
		name   string
		axis   Axis
		zoom   float64
		wantLo float64
		wantHi float64
	}{
		{"near larger", Axis{Extent: 1000, Viewport: 500}, 1, 0, 500},
		{"near smaller", Axis{Extent: 200, Viewport: 500}, 1, 0, 0},
		{"center larger", Axis{Extent: 1000, Viewport: 500, Alignment: AlignCenter}, 1, 0, 500},
		{"center smaller", Axis{Extent: 200, Viewport: 500, Alignment: AlignCenter}, 1, -150, -150},
		{"stretch smaller", Axis{Extent: 200, Viewport: 500, Alignment: AlignStretch}, 1, -150, -150},
		{"far larger", Axis{Extent: 1000, Viewport: 500, Alignment: AlignFar}, 1, 0, 500},
		{"far smaller", Axis{Extent: 200, Viewport: 500, Alignment: AlignFar}, 1, -300, -300},
		{"zoomed", Axis{Extent: 1000, Viewport: 500}, 2, 0, 1500},
		{"layout offset", Axis{Extent: 1000, Viewport: 500, LayoutOffset: 20}, 1, 20, 520},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lo, hi := tt.axis.MinMax(tt.zoom)
			if lo != tt.wantLo || hi != tt.wantHi {
				t.Errorf("expected (%v, %v), got (%v, %v)", tt.wantLo, tt.wantHi, lo, hi)
			}
		})
	}
}

func TestLayoutClamp(t *testing.T) {
	l := Layout{
		Horizontal: Axis{Extent: 1000, Viewport: 500},
		Vertical:   Axis{Extent: 300, Viewport: 400},
	}

	got := l.Clamp(vec.Vec2{X: 700, Y: 50}, 1)
	if got.X != 500 {
		t.Errorf("expected X 500, got %v", got.X)
	}
	if got.Y != 0 {
		t.Errorf("expected Y 0, got %v", got.Y)
	}

	got = l.Clamp(vec.Vec2{X: -10, Y: -10}, 1)
	if got.X != 0 || got.Y != 0 {
		t.Errorf("expected origin, got %v", got)
	}
}

func TestOffsetsPositionRoundTrip(t *testing.T) {
	l := Layout{
		Horizontal: Axis{Extent: 200, Viewport: 500, Alignment: AlignCenter},
		Vertical:   Axis{Extent: 1000, Viewport: 400, LayoutOffset: 10},
	}

	offsets := vec.Vec2{X: 0, Y: 120}
	pos := l.OffsetsToPosition(offsets, 1)
	if pos.X != -150 || pos.Y != 130 {
		t.Errorf("expected position (-150, 130), got %v", pos)
	}

	back := l.PositionToOffsets(pos, 1)
	if back != offsets {
		t.Errorf("expected %v, got %v", offsets, back)
	}
}

func TestWheelZoomCenter(t *testing.T) {
	pointer := vec.Vec2{X: 42, Y: 17}

	l := Layout{
		Horizontal: Axis{Extent: 100, Viewport: 500, Alignment: AlignCenter},
		Vertical:   Axis{Extent: 1000, Viewport: 400, Alignment: AlignFar},
	}
	got := l.WheelZoomCenter(pointer, 1)
	if got.X != 250 {
		t.Errorf("expected X 250, got %v", got.X)
	}
	if got.Y != 17 {
		t.Errorf("expected Y to follow pointer, got %v", got.Y)
	}

	l.Vertical.Extent = 100
	got = l.WheelZoomCenter(pointer, 1)
	if got.Y != 400 {
		t.Errorf("expected Y 400, got %v", got.Y)
	}
}

func TestParseAlignment(t *testing.T) {
	for s, want := range map[string]Alignment{
		"near":    AlignNear,
		"center":  AlignCenter,
		"stretch": AlignStretch,
		"far":     AlignFar,
		"bogus":   AlignNear,
	} {
		if got := ParseAlignment(s); got != want {
			t.Errorf("%s: expected %v, got %v", s, want, got)
		}
	}
}
