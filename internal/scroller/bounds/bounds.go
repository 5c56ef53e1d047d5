// Package bounds computes the reachable position range of a zoomable surface.
//
// Positions are expressed in the engine's coordinate space while offsets are
// relative to the minimal position. The two differ when the content is
// smaller than the viewport and aligned to its center or far edge, or when
// the layout adds an offset correction.
package bounds

import (
	"math"

	"seehuhn.de/go/geom/vec"
)

// Alignment describes how content smaller than the viewport is placed
// along one axis.
type Alignment int

const (
	// AlignNear pins the content to the left or top edge.
	AlignNear Alignment = iota

	// AlignCenter centers the content.
	AlignCenter

	// AlignStretch behaves like AlignCenter for positioning purposes.
	AlignStretch

	// AlignFar pins the content to the right or bottom edge.
	AlignFar
)

// String returns the alignment name.
func (a Alignment) String() string {
	switch a {
	case AlignNear:
		return "near"
	case AlignCenter:
		return "center"
	case AlignStretch:
		return "stretch"
	case AlignFar:
		return "far"
	default:
		return "unknown"
	}
}

// ParseAlignment converts a configuration string to an Alignment.
// Unknown names map to AlignNear.
func ParseAlignment(s string) Alignment {
	switch s {
	case "center":
		return AlignCenter
	case "stretch":
		return AlignStretch
	case "far", "right", "bottom":
		return AlignFar
	default:
		return AlignNear
	}
}

// Axis holds the committed layout values of one dimension.
type Axis struct {
	// Extent is the unzoomed content size.
	Extent float64

	// Viewport is the visible size.
	Viewport float64

	// LayoutOffset is the correction applied by the layout pass.
	LayoutOffset float64

	// Alignment places content smaller than the viewport.
	Alignment Alignment
}

// ScrollableExtent returns how far the zoomed content can be scrolled.
func (a Axis) ScrollableExtent(zoom float64) float64 {
	return math.Max(0, a.Extent*zoom-a.Viewport)
}

// MinMax returns the minimal and maximal reachable positions.
func (a Axis) MinMax(zoom float64) (lo, hi float64) {
	s := a.Extent*zoom - a.Viewport

	switch a.Alignment {
	case AlignCenter, AlignStretch:
		lo = math.Min(0, s/2)
		if s >= 0 {
			hi = s
		} else {
			hi = s / 2
		}
	case AlignFar:
		lo = math.Min(0, s)
		hi = s
	default:
		lo = 0
		hi = math.Max(0, s)
	}

	return lo + a.LayoutOffset, hi + a.LayoutOffset
}

// WheelZoomCenter returns the zoom center used for mouse-wheel zooming.
// When the zoomed content is smaller than the viewport the center follows
// the alignment, otherwise the pointer position is used.
func (a Axis) WheelZoomCenter(pointer, zoom float64) float64 {
	if a.Extent*zoom >= a.Viewport {
		return pointer
	}
	switch a.Alignment {
	case AlignCenter, AlignStretch:
		return a.Viewport / 2
	case AlignFar:
		return a.Viewport
	default:
		return 0
	}
}

// Layout is the two-axis layout snapshot consumed from the layout pass.
type Layout struct {
	Horizontal Axis
	Vertical   Axis
}

// ComputeMinMax returns the min and max positions for the given zoom factor.
// It must be called with committed values, never during a resize.
func (l Layout) ComputeMinMax(zoom float64) (lo, hi vec.Vec2) {
	lo.X, hi.X = l.Horizontal.MinMax(zoom)
	lo.Y, hi.Y = l.Vertical.MinMax(zoom)
	return lo, hi
}

// ScrollableExtent returns the scrollable extent on both axes.
func (l Layout) ScrollableExtent(zoom float64) vec.Vec2 {
	return vec.Vec2{
		X: l.Horizontal.ScrollableExtent(zoom),
		Y: l.Vertical.ScrollableExtent(zoom),
	}
}

// Clamp limits offsets to [0, scrollable extent] on both axes.
func (l Layout) Clamp(offsets vec.Vec2, zoom float64) vec.Vec2 {
	ext := l.ScrollableExtent(zoom)
	return vec.Vec2{
		X: clamp(offsets.X, 0, ext.X),
		Y: clamp(offsets.Y, 0, ext.Y),
	}
}

// OffsetsToPosition converts zoomed offsets to an engine position.
func (l Layout) OffsetsToPosition(offsets vec.Vec2, zoom float64) vec.Vec2 {
	lo, _ := l.ComputeMinMax(zoom)
	return offsets.Add(lo)
}

// PositionToOffsets converts an engine position to zoomed offsets.
func (l Layout) PositionToOffsets(position vec.Vec2, zoom float64) vec.Vec2 {
	lo, _ := l.ComputeMinMax(zoom)
	return position.Sub(lo)
}

// Viewport returns the viewport size.
func (l Layout) Viewport() vec.Vec2 {
	return vec.Vec2{X: l.Horizontal.Viewport, Y: l.Vertical.Viewport}
}

// WheelZoomCenter returns the mouse-wheel zoom center for a pointer.
func (l Layout) WheelZoomCenter(pointer vec.Vec2, zoom float64) vec.Vec2 {
	return vec.Vec2{
		X: l.Horizontal.WheelZoomCenter(pointer.X, zoom),
		Y: l.Vertical.WheelZoomCenter(pointer.Y, zoom),
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
