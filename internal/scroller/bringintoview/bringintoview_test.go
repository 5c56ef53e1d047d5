package bringintoview

import (
	"errors"
	"testing"

	"seehuhn.de/go/geom/rect"
	"seehuhn.de/go/geom/vec"

	"github.com/dshills/scroller/internal/scroller/snap"
	"github.com/dshills/scroller/internal/scroller/viewchange"
)

func view(offsetX float64) View {
	return View{
		Offsets:  vec.Vec2{X: offsetX},
		Viewport: vec.Vec2{X: 500, Y: 500},
		Extent:   vec.Vec2{X: 2000, Y: 2000},
		Zoom:     1,
	}
}

func span(x0, x1 float64) rect.Rect {
	return rect.Rect{LLx: x0, LLy: 0, URx: x1, URy: 100}
}

func TestMinimalChange(t *testing.T) {
	tests := []struct {
		name       string
		offset     float64
		x0, x1     float64
		wantOffset float64
	}{
		{"before, smaller", 600, 100, 300, 100},
		{"before, larger", 600, 0, 800, 300},
		{"after, smaller", 0, 700, 900, 400},
		{"after, larger", 0, 700, 1400, 700},
		{"inside", 0, 100, 200, 0},
		{"spanning", 600, 500, 1200, 600},
		{"clamped to extent", 0, 1900, 2100, 1500},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Resolve(Request{Target: span(tt.x0, tt.x1), SnapPoints: viewchange.SnapPointsIgnore}, view(tt.offset))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if res.Offsets.X != tt.wantOffset {
				t.Errorf("expected offset %v, got %v", tt.wantOffset, res.Offsets.X)
			}
		})
	}
}

func TestAlignmentRatio(t *testing.T) {
	half := 0.5
	res, err := Resolve(Request{
		Target:          span(1000, 1100),
		HorizontalRatio: &half,
		SnapPoints:      viewchange.SnapPointsIgnore,
	}, view(0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Offsets.X != 800 {
		t.Errorf("expected centered offset 800, got %v", res.Offsets.X)
	}
	if res.Target.LLx != 800 || res.Target.URx != 1300 {
		t.Errorf("expected adjusted target [800, 1300], got [%v, %v]", res.Target.LLx, res.Target.URx)
	}
}

func TestInvalidRatio(t *testing.T) {
	bad := 1.5
	_, err := Resolve(Request{Target: span(0, 10), VerticalRatio: &bad}, view(0))
	if !errors.Is(err, ErrInvalidRatio) {
		t.Errorf("expected ErrInvalidRatio, got %v", err)
	}
}

func TestAdditionalOffset(t *testing.T) {
	res, err := Resolve(Request{
		Target:     span(700, 900),
		Offset:     vec.Vec2{X: 100},
		SnapPoints: viewchange.SnapPointsIgnore,
	}, view(0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Offsets.X != 300 || res.Applied.X != 100 || res.Remaining.X != 0 {
		t.Errorf("expected offset 300 applied 100 remaining 0, got %v %v %v", res.Offsets.X, res.Applied.X, res.Remaining.X)
	}

	res, err = Resolve(Request{
		Target:     span(700, 900),
		Offset:     vec.Vec2{X: -2000},
		SnapPoints: viewchange.SnapPointsIgnore,
	}, view(0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Offsets.X != 1500 || res.Applied.X != -1100 || res.Remaining.X != -900 {
		t.Errorf("expected offset 1500 applied -1100 remaining -900, got %v %v %v", res.Offsets.X, res.Applied.X, res.Remaining.X)
	}
}

func TestSnapResolution(t *testing.T) {
	p, err := snap.NewPoint(450)
	if err != nil {
		t.Fatalf("NewPoint: %v", err)
	}
	s := snap.NewSet()
	if err := s.Insert(p); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	v := view(0)
	v.HorizontalSnap = s

	res, err := Resolve(Request{Target: span(700, 900)}, v)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Offsets.X != 450 {
		t.Errorf("expected snapped offset 450, got %v", res.Offsets.X)
	}

	res, _ = Resolve(Request{Target: span(700, 900), SnapPoints: viewchange.SnapPointsIgnore}, v)
	if res.Offsets.X != 400 {
		t.Errorf("expected unsnapped offset 400, got %v", res.Offsets.X)
	}
}

func TestPropagation(t *testing.T) {
	res, err := Resolve(Request{Target: span(700, 900), SnapPoints: viewchange.SnapPointsIgnore}, view(0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Propagate {
		t.Error("expected target to land inside the viewport")
	}
	if res.Next.LLx != 300 || res.Next.URx != 500 {
		t.Errorf("expected next rect [300, 500], got [%v, %v]", res.Next.LLx, res.Next.URx)
	}
	if !res.Moves(vec.Vec2{}) {
		t.Error("expected result to move the view")
	}
}
