package script

import (
	"fmt"
	"strings"

	lua "github.com/yuin/gopher-lua"
	"seehuhn.de/go/geom/rect"
	"seehuhn.de/go/geom/vec"

	"github.com/dshills/scroller/internal/scroller/bounds"
	"github.com/dshills/scroller/internal/scroller/bringintoview"
	"github.com/dshills/scroller/internal/scroller/notify"
	"github.com/dshills/scroller/internal/scroller/snap"
	"github.com/dshills/scroller/internal/scroller/viewchange"
)

// install registers the scroller table.
func (r *Runner) install() {
	tbl := r.L.SetFuncs(r.L.NewTable(), map[string]lua.LGFunction{
		"content":   r.luaContent,
		"viewport":  r.luaViewport,
		"alignment": r.luaAlignment,
		"anchor":    r.luaAnchor,

		"scroll_to":   r.luaScrollTo,
		"scroll_by":   r.luaScrollBy,
		"scroll_from": r.luaScrollFrom,
		"zoom_to":     r.luaZoomTo,
		"zoom_by":     r.luaZoomBy,
		"zoom_from":   r.luaZoomFrom,

		"controller":          r.luaController,
		"controller_velocity": r.luaControllerVelocity,
		"wheel":               r.luaWheel,
		"cancel":              r.luaCancel,
		"bring_into_view":     r.luaBringIntoView,

		"snap":          r.luaSnap,
		"snap_repeated": r.luaSnapRepeated,

		"touch":   r.luaTouch,
		"pan":     r.luaPan,
		"release": r.luaRelease,

		"frame":  r.luaFrame,
		"settle": r.luaSettle,

		"offsets":     r.luaOffsets,
		"zoom":        r.luaZoom,
		"state":       r.luaState,
		"pending":     r.luaPending,
		"completions": r.luaCompletions,
	})
	r.L.SetGlobal("scroller", tbl)
	r.L.SetGlobal("print", r.L.NewFunction(r.luaPrint))
}

func (r *Runner) luaPrint(L *lua.LState) int {
	n := L.GetTop()
	parts := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		parts = append(parts, L.ToStringMeta(L.Get(i)).String())
	}
	fmt.Fprintln(r.out, strings.Join(parts, "\t"))
	return 0
}

// pushID pushes a view change id, raising a Lua error for a failed call.
func (r *Runner) pushID(L *lua.LState, id int32, err error) int {
	if err != nil {
		L.RaiseError("%v", err)
		return 0
	}
	L.Push(lua.LNumber(id))
	return 1
}

// options reads {animate=bool, snap=bool} from an optional table argument.
func options(L *lua.LState, n int) viewchange.Options {
	var o viewchange.Options
	t := L.OptTable(n, nil)
	if t == nil {
		return o
	}
	if lua.LVAsBool(t.RawGetString("animate")) {
		o.Animation = viewchange.AnimationEnabled
	}
	if v := t.RawGetString("snap"); v != lua.LNil && !lua.LVAsBool(v) {
		o.SnapPoints = viewchange.SnapPointsIgnore
	}
	return o
}

// center reads an optional {cx=, cy=} center from a table argument.
func center(L *lua.LState, n int) *vec.Vec2 {
	t := L.OptTable(n, nil)
	if t == nil {
		return nil
	}
	cx, cy := t.RawGetString("cx"), t.RawGetString("cy")
	if cx == lua.LNil || cy == lua.LNil {
		return nil
	}
	return &vec.Vec2{X: float64(lua.LVAsNumber(cx)), Y: float64(lua.LVAsNumber(cy))}
}

func optDecay(L *lua.LState, t *lua.LTable, key string) *float64 {
	if t == nil {
		return nil
	}
	v := t.RawGetString(key)
	if v == lua.LNil {
		return nil
	}
	d := float64(lua.LVAsNumber(v))
	return &d
}

func checkVec(L *lua.LState, n int) vec.Vec2 {
	return vec.Vec2{X: float64(L.CheckNumber(n)), Y: float64(L.CheckNumber(n + 1))}
}

func (r *Runner) luaContent(L *lua.LState) int {
	r.s.SetContent(checkVec(L, 1))
	r.pump()
	return 0
}

func (r *Runner) luaViewport(L *lua.LState) int {
	r.s.SetViewport(checkVec(L, 1))
	r.pump()
	return 0
}

func (r *Runner) luaAlignment(L *lua.LState) int {
	h := bounds.ParseAlignment(L.CheckString(1))
	v := bounds.ParseAlignment(L.OptString(2, L.CheckString(1)))
	r.s.SetAlignment(h, v)
	r.pump()
	return 0
}

func (r *Runner) luaAnchor(L *lua.LState) int {
	if err := r.s.SetHorizontalAnchorRatio(float64(L.CheckNumber(1))); err != nil {
		L.RaiseError("%v", err)
	}
	if err := r.s.SetVerticalAnchorRatio(float64(L.CheckNumber(2))); err != nil {
		L.RaiseError("%v", err)
	}
	return 0
}

func (r *Runner) luaScrollTo(L *lua.LState) int {
	v := checkVec(L, 1)
	id, err := r.s.ScrollTo(v.X, v.Y, options(L, 3))
	return r.pushID(L, id, err)
}

func (r *Runner) luaScrollBy(L *lua.LState) int {
	v := checkVec(L, 1)
	id, err := r.s.ScrollBy(v.X, v.Y, options(L, 3))
	return r.pushID(L, id, err)
}

// scroll_from(vx, vy [, {dx=, dy=}])
func (r *Runner) luaScrollFrom(L *lua.LState) int {
	v := checkVec(L, 1)
	var decay *vec.Vec2
	if t := L.OptTable(3, nil); t != nil {
		dx, dy := optDecay(L, t, "dx"), optDecay(L, t, "dy")
		if dx != nil && dy != nil {
			decay = &vec.Vec2{X: *dx, Y: *dy}
		}
	}
	id, err := r.s.ScrollFrom(v, decay)
	return r.pushID(L, id, err)
}

// zoom_to(factor [, {animate=, snap=, cx=, cy=}])
func (r *Runner) luaZoomTo(L *lua.LState) int {
	f := float64(L.CheckNumber(1))
	id, err := r.s.ZoomTo(f, center(L, 2), options(L, 2))
	return r.pushID(L, id, err)
}

func (r *Runner) luaZoomBy(L *lua.LState) int {
	d := float64(L.CheckNumber(1))
	id, err := r.s.ZoomBy(d, center(L, 2), options(L, 2))
	return r.pushID(L, id, err)
}

// zoom_from(velocity [, {decay=, cx=, cy=}])
func (r *Runner) luaZoomFrom(L *lua.LState) int {
	v := float64(L.CheckNumber(1))
	id, err := r.s.ZoomFrom(v, center(L, 2), optDecay(L, L.OptTable(2, nil), "decay"))
	return r.pushID(L, id, err)
}

func checkAxis(L *lua.LState, n int) viewchange.Axis {
	switch s := L.CheckString(n); s {
	case "h", "horizontal":
		return viewchange.Horizontal
	case "v", "vertical":
		return viewchange.Vertical
	default:
		L.ArgError(n, fmt.Sprintf("unknown axis %q", s))
		return viewchange.Horizontal
	}
}

// controller(axis, value [, {relative=, animate=}])
func (r *Runner) luaController(L *lua.LState) int {
	axis := checkAxis(L, 1)
	value := float64(L.CheckNumber(2))
	relative := false
	if t := L.OptTable(3, nil); t != nil {
		relative = lua.LVAsBool(t.RawGetString("relative"))
	}
	id, err := r.s.RequestControllerOffset(axis, value, relative, options(L, 3).Animation)
	return r.pushID(L, id, err)
}

// controller_velocity(axis, velocity [, decay])
func (r *Runner) luaControllerVelocity(L *lua.LState) int {
	axis := checkAxis(L, 1)
	v := float64(L.CheckNumber(2))
	var decay *float64
	if L.GetTop() >= 3 {
		d := float64(L.CheckNumber(3))
		decay = &d
	}
	id, err := r.s.RequestControllerVelocity(axis, v, decay)
	return r.pushID(L, id, err)
}

// wheel(delta, x, y): a Ctrl+wheel notch at pointer (x, y).
func (r *Runner) luaWheel(L *lua.LState) int {
	delta := L.CheckInt(1)
	p := vec.Vec2{X: float64(L.OptNumber(2, 0)), Y: float64(L.OptNumber(3, 0))}
	id, err := r.s.OnMouseWheel(int32(delta), false, true, p)
	return r.pushID(L, id, err)
}

func (r *Runner) luaCancel(L *lua.LState) int {
	L.Push(lua.LBool(r.s.CancelViewChange(int32(L.CheckInt(1)))))
	return 1
}

// bring_into_view(x0, y0, x1, y1 [, {h_ratio=, v_ratio=, animate=, snap=, dx=, dy=}])
// returns the id and the remaining offset for an outer surface.
func (r *Runner) luaBringIntoView(L *lua.LState) int {
	req := bringintoview.Request{
		Target: rect.Rect{
			LLx: float64(L.CheckNumber(1)),
			LLy: float64(L.CheckNumber(2)),
			URx: float64(L.CheckNumber(3)),
			URy: float64(L.CheckNumber(4)),
		},
	}
	opts := options(L, 5)
	req.Animation, req.SnapPoints = opts.Animation, opts.SnapPoints
	if t := L.OptTable(5, nil); t != nil {
		req.HorizontalRatio = optDecay(L, t, "h_ratio")
		req.VerticalRatio = optDecay(L, t, "v_ratio")
		req.Offset = vec.Vec2{
			X: float64(lua.LVAsNumber(t.RawGetString("dx"))),
			Y: float64(lua.LVAsNumber(t.RawGetString("dy"))),
		}
	}

	res, err := r.s.BringIntoView(req)
	if err != nil {
		L.RaiseError("%v", err)
		return 0
	}
	L.Push(lua.LNumber(res.ViewChangeID))
	L.Push(lua.LNumber(res.Remaining.X))
	L.Push(lua.LNumber(res.Remaining.Y))
	return 3
}

func (r *Runner) snapSet(L *lua.LState, n int) *snap.Set {
	switch s := L.CheckString(n); s {
	case "h", "horizontal":
		return r.s.HorizontalSnapPoints()
	case "v", "vertical":
		return r.s.VerticalSnapPoints()
	case "zoom":
		return r.s.ZoomSnapPoints()
	default:
		L.ArgError(n, fmt.Sprintf("unknown snap set %q", s))
		return nil
	}
}

// pointOptions reads {align=, range=}.
func pointOptions(L *lua.LState, n int) []snap.PointOption {
	t := L.OptTable(n, nil)
	if t == nil {
		return nil
	}
	var opts []snap.PointOption
	switch lua.LVAsString(t.RawGetString("align")) {
	case "center":
		opts = append(opts, snap.WithAlignment(snap.AlignCenter))
	case "far":
		opts = append(opts, snap.WithAlignment(snap.AlignFar))
	}
	if v := t.RawGetString("range"); v != lua.LNil {
		opts = append(opts, snap.WithApplicableRange(float64(lua.LVAsNumber(v))))
	}
	return opts
}

// snap(set, value [, {align=, range=}])
func (r *Runner) luaSnap(L *lua.LState) int {
	set := r.snapSet(L, 1)
	p, err := snap.NewPoint(float64(L.CheckNumber(2)), pointOptions(L, 3)...)
	if err == nil {
		err = set.Insert(p)
	}
	if err != nil {
		L.RaiseError("%v", err)
	}
	return 0
}

// snap_repeated(set, offset, interval, start, end [, {align=, range=}])
func (r *Runner) luaSnapRepeated(L *lua.LState) int {
	set := r.snapSet(L, 1)
	p, err := snap.NewRepeatedPoint(
		float64(L.CheckNumber(2)),
		float64(L.CheckNumber(3)),
		float64(L.CheckNumber(4)),
		float64(L.CheckNumber(5)),
		pointOptions(L, 6)...,
	)
	if err == nil {
		err = set.Insert(p)
	}
	if err != nil {
		L.RaiseError("%v", err)
	}
	return 0
}

func (r *Runner) luaTouch(L *lua.LState) int {
	r.e.BeginInteraction()
	r.pump()
	return 0
}

func (r *Runner) luaPan(L *lua.LState) int {
	r.e.Pan(checkVec(L, 1))
	r.pump()
	return 0
}

// release([vx, vy])
func (r *Runner) luaRelease(L *lua.LState) int {
	r.e.EndInteraction(vec.Vec2{X: float64(L.OptNumber(1, 0)), Y: float64(L.OptNumber(2, 0))})
	r.pump()
	return 0
}

// frame([n]) steps n frames, default 1.
func (r *Runner) luaFrame(L *lua.LState) int {
	n := L.OptInt(1, 1)
	for i := 0; i < n; i++ {
		r.step()
	}
	return 0
}

// settle() returns the frames used; it raises an error when the limit is
// reached first.
func (r *Runner) luaSettle(L *lua.LState) int {
	n, ok := r.settle()
	if !ok {
		L.RaiseError("did not settle within %d frames", n)
		return 0
	}
	L.Push(lua.LNumber(n))
	return 1
}

func (r *Runner) luaOffsets(L *lua.LState) int {
	o := r.s.Offsets()
	L.Push(lua.LNumber(o.X))
	L.Push(lua.LNumber(o.Y))
	return 2
}

func (r *Runner) luaZoom(L *lua.LState) int {
	L.Push(lua.LNumber(r.s.ZoomFactor()))
	return 1
}

func (r *Runner) luaState(L *lua.LState) int {
	L.Push(lua.LString(r.s.State().String()))
	return 1
}

func (r *Runner) luaPending(L *lua.LState) int {
	L.Push(lua.LNumber(r.s.Pending()))
	return 1
}

// completions() returns {{id=, kind="scroll"|"zoom", result=}, ...}.
func (r *Runner) luaCompletions(L *lua.LState) int {
	out := L.NewTable()
	for _, ev := range r.events {
		t := L.NewTable()
		t.RawSetString("id", lua.LNumber(ev.ViewChangeID))
		kind := "scroll"
		if ev.Kind == notify.ZoomCompleted {
			kind = "zoom"
		}
		t.RawSetString("kind", lua.LString(kind))
		t.RawSetString("result", lua.LString(ev.Result.String()))
		out.Append(t)
	}
	L.Push(out)
	return 1
}
