// Package bringintoview computes the offsets that bring a content rectangle
// into the viewport with as little movement as possible.
//
// Rectangles use content coordinates with LL as the start edge and UR as the
// end edge on each axis. Offsets are zoomed offsets.
package bringintoview

import (
	"errors"
	"math"

	"seehuhn.de/go/geom/rect"
	"seehuhn.de/go/geom/vec"

	"github.com/dshills/scroller/internal/scroller/snap"
	"github.com/dshills/scroller/internal/scroller/viewchange"
)

// ErrInvalidRatio is returned for alignment ratios outside [0, 1].
var ErrInvalidRatio = errors.New("bringintoview: alignment ratio outside [0, 1]")

// Request describes one bring-into-view call.
type Request struct {
	// Target is the rectangle to reveal, in unzoomed content coordinates.
	Target rect.Rect

	// HorizontalRatio and VerticalRatio, when set, anchor the target within
	// the viewport at that fraction.
	HorizontalRatio *float64
	VerticalRatio   *float64

	// Offset is an extra zoomed shift applied as far as bounds allow.
	Offset vec.Vec2

	SnapPoints viewchange.SnapPointsMode
	Animation  viewchange.AnimationMode
}

// View is the current view state the request is resolved against.
type View struct {
	Offsets  vec.Vec2
	Viewport vec.Vec2
	Extent   vec.Vec2
	Zoom     float64

	HorizontalSnap *snap.Set
	VerticalSnap   *snap.Set
}

// Result is the resolver output.
type Result struct {
	// Offsets are the target zoomed offsets.
	Offsets vec.Vec2

	// Applied is the part of Request.Offset that fit within bounds.
	Applied vec.Vec2

	// Remaining is the part of Request.Offset left for an outer surface.
	Remaining vec.Vec2

	// Target is the possibly ratio-adjusted rectangle in content
	// coordinates.
	Target rect.Rect

	// Next is where the target lands in viewport coordinates once the
	// offsets are reached, excluding the applied offset.
	Next rect.Rect

	// Propagate reports whether Next intersects the viewport, so an outer
	// surface should continue the request.
	Propagate bool
}

// Moves reports whether the result differs from the current offsets.
func (r Result) Moves(current vec.Vec2) bool {
	return r.Offsets != current
}

// Validate checks the request's ratios.
func (r Request) Validate() error {
	for _, ratio := range []*float64{r.HorizontalRatio, r.VerticalRatio} {
		if ratio == nil {
			continue
		}
		if math.IsNaN(*ratio) || *ratio < 0 || *ratio > 1 {
			return ErrInvalidRatio
		}
	}
	return nil
}

type axis struct {
	start, size float64
	offset      float64
	viewport    float64
	extent      float64
	extra       float64
	ratio       *float64
	snap        *snap.Set
}

type axisResult struct {
	start, size float64
	offset      float64
	applied     float64
}

// Resolve computes the target offsets for req.
func Resolve(req Request, v View) (Result, error) {
	if err := req.Validate(); err != nil {
		return Result{}, err
	}
	zoom := v.Zoom
	if zoom <= 0 {
		zoom = 1
	}
	useSnap := req.SnapPoints == viewchange.SnapPointsDefault

	h := resolveAxis(axis{
		start:    req.Target.LLx,
		size:     req.Target.URx - req.Target.LLx,
		offset:   v.Offsets.X,
		viewport: v.Viewport.X,
		extent:   v.Extent.X,
		extra:    req.Offset.X,
		ratio:    req.HorizontalRatio,
		snap:     v.HorizontalSnap,
	}, zoom, useSnap)
	vv := resolveAxis(axis{
		start:    req.Target.LLy,
		size:     req.Target.URy - req.Target.LLy,
		offset:   v.Offsets.Y,
		viewport: v.Viewport.Y,
		extent:   v.Extent.Y,
		extra:    req.Offset.Y,
		ratio:    req.VerticalRatio,
		snap:     v.VerticalSnap,
	}, zoom, useSnap)

	res := Result{
		Offsets:   vec.Vec2{X: h.offset, Y: vv.offset},
		Applied:   vec.Vec2{X: h.applied, Y: vv.applied},
		Remaining: req.Offset.Sub(vec.Vec2{X: h.applied, Y: vv.applied}),
		Target: rect.Rect{
			LLx: h.start, LLy: vv.start,
			URx: h.start + h.size, URy: vv.start + vv.size,
		},
	}

	nx := h.start*zoom - h.offset - h.applied
	ny := vv.start*zoom - vv.offset - vv.applied
	res.Next = rect.Rect{
		LLx: nx,
		LLy: ny,
		URx: nx + math.Min(h.size*zoom, v.Viewport.X),
		URy: ny + math.Min(vv.size*zoom, v.Viewport.Y),
	}
	res.Propagate = intersects(res.Next, rect.Rect{URx: v.Viewport.X, URy: v.Viewport.Y})
	return res, nil
}

func resolveAxis(a axis, zoom float64, useSnap bool) axisResult {
	start, size := a.start, a.size
	if a.ratio != nil {
		visible := a.viewport / zoom
		start += (size - visible) * *a.ratio
		size = visible
	}

	target := MinimalChange(a.offset, a.offset+a.viewport, start*zoom, (start+size)*zoom)

	scrollable := math.Max(0, a.extent*zoom-a.viewport)
	target = clamp(target, 0, scrollable)

	var applied float64
	if a.extra != 0 {
		if a.extra > 0 {
			applied = math.Min(target, a.extra)
		} else {
			applied = -math.Min(scrollable-target, -a.extra)
		}
		target -= applied
	}

	if useSnap && a.snap != nil && a.snap.Len() > 0 {
		target = clamp(a.snap.Resolve(target), 0, scrollable)
	}

	return axisResult{start: start, size: size, offset: target, applied: applied}
}

// MinimalChange returns the viewport start that reveals [childStart,
// childEnd] with the least movement. A child before the viewport aligns its
// start edge unless it is larger than the viewport, a child after the
// viewport aligns its end edge unless it is larger, and a child that is
// inside or spans the viewport leaves it unchanged.
func MinimalChange(viewportStart, viewportEnd, childStart, childEnd float64) float64 {
	above := childStart < viewportStart && childEnd < viewportEnd
	below := childEnd > viewportEnd && childStart > viewportStart
	larger := childEnd-childStart > viewportEnd-viewportStart

	switch {
	case (above && !larger) || (below && larger):
		return childStart
	case above || below:
		return childEnd - viewportEnd + viewportStart
	default:
		return viewportStart
	}
}

func intersects(a, b rect.Rect) bool {
	return a.LLx < b.URx && b.LLx < a.URx && a.LLy < b.URy && b.LLy < a.URy
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
