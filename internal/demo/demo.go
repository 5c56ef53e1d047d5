// Package demo is an interactive terminal surface that drives a scroller
// against the simulated engine.
//
// Each terminal cell covers CellUnits content units at zoom 1. The last row
// is a status line. Arrow keys, paging keys, the mouse wheel, Ctrl+wheel
// zoom and mouse drags all go through the scroller's public operations.
package demo

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gdamore/tcell/v2"
	"seehuhn.de/go/geom/vec"

	"github.com/dshills/scroller/internal/config"
	"github.com/dshills/scroller/internal/logging"
	"github.com/dshills/scroller/internal/scroller"
	"github.com/dshills/scroller/internal/scroller/engine/sim"
	"github.com/dshills/scroller/internal/scroller/notify"
	"github.com/dshills/scroller/internal/scroller/viewchange"
)

// Surface geometry.
const (
	CellUnits  = 10.0
	BlockUnits = 100.0
	FrameTime  = 16 * time.Millisecond
)

// DefaultContent is the unzoomed content extent.
var DefaultContent = vec.Vec2{X: 4000, Y: 2000}

var (
	styleLight  = tcell.StyleDefault
	styleDark   = tcell.StyleDefault.Background(tcell.ColorDarkSlateGray)
	styleStatus = tcell.StyleDefault.Reverse(true)
)

var (
	animate = viewchange.Options{Animation: viewchange.AnimationEnabled}
	jump    = viewchange.Options{}
)

// Demo owns the screen, the scroller and the simulated engine.
type Demo struct {
	screen tcell.Screen
	s      *scroller.Scroller
	e      *sim.Engine
	log    *log.Logger

	mu      sync.Mutex
	last    notify.Event
	status  string
	configs chan *config.Config

	// pointer drag state
	dragging bool
	dragAt   vec.Vec2
	dragVel  vec.Vec2
}

// New wires a demo onto screen, which must already be initialized.
func New(screen tcell.Screen, s *scroller.Scroller, e *sim.Engine, l *log.Logger) (*Demo, error) {
	d := &Demo{
		screen:  screen,
		s:       s,
		e:       e,
		log:     logging.Component(l, "demo"),
		configs: make(chan *config.Config, 1),
	}
	if err := s.Attach(e); err != nil {
		return nil, err
	}
	d.resize()
	s.SetContent(DefaultContent)
	d.pump()

	s.Events().SubscribeKind(notify.ScrollCompleted, d.completed)
	s.Events().SubscribeKind(notify.ZoomCompleted, d.completed)
	return d, nil
}

func (d *Demo) completed(ev notify.Event) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.last = ev
}

// Reload queues cfg to be applied on the next frame. It is safe to call
// from any goroutine; a newer config replaces one not yet applied.
func (d *Demo) Reload(cfg *config.Config) {
	for {
		select {
		case d.configs <- cfg:
			return
		default:
		}
		select {
		case <-d.configs:
		default:
		}
	}
}

// ApplyConfig applies a reloaded configuration to the running scroller.
func (d *Demo) ApplyConfig(cfg *config.Config) {
	if err := d.s.SetPolicy(cfg.Policy()); err != nil {
		d.setStatus(fmt.Sprintf("config rejected: %v", err))
		d.log.Warn("config rejected", "err", err)
		return
	}
	d.log.SetLevel(logging.ParseLevel(cfg.Log.Level))
	d.setStatus("config reloaded")
	d.log.Info("config reloaded", "max_zoom", cfg.Scroller.MaxZoomFactor)
}

func (d *Demo) setStatus(msg string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.status = msg
}

// Run processes events and frames until ctx is done or the user quits.
func (d *Demo) Run(ctx context.Context) error {
	events := make(chan tcell.Event, 16)
	quit := make(chan struct{})
	defer close(quit)
	go d.poll(events, quit)

	ticker := time.NewTicker(FrameTime)
	defer ticker.Stop()

	d.Draw()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if !d.HandleEvent(ev) {
				return nil
			}
		case cfg := <-d.configs:
			d.ApplyConfig(cfg)
		case <-ticker.C:
			d.Frame(FrameTime)
		}
	}
}

// poll forwards screen events until the screen is finalized or quit closes.
func (d *Demo) poll(events chan<- tcell.Event, quit <-chan struct{}) {
	defer close(events)
	for {
		ev := d.screen.PollEvent()
		if ev == nil {
			return
		}
		select {
		case events <- ev:
		case <-quit:
			return
		}
	}
}

// Frame advances the engine by dt, runs the scroller tick and redraws.
func (d *Demo) Frame(dt time.Duration) {
	d.e.Advance(dt)
	d.pump()
	d.s.Tick()
	d.pump()
	d.Draw()
}

func (d *Demo) pump() {
	for _, n := range d.e.Drain() {
		d.s.HandleNotification(n)
	}
}

func (d *Demo) resize() {
	w, h := d.screen.Size()
	rows := max(h-1, 1)
	d.s.SetViewport(vec.Vec2{X: float64(w) * CellUnits, Y: float64(rows) * CellUnits})
	d.pump()
}

// HandleEvent applies one terminal event and reports whether the demo
// should keep running.
func (d *Demo) HandleEvent(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventResize:
		d.resize()
		d.screen.Sync()
	case *tcell.EventKey:
		return d.key(ev)
	case *tcell.EventMouse:
		d.mouse(ev)
	}
	return true
}

func (d *Demo) key(ev *tcell.EventKey) bool {
	page := d.s.Layout().Viewport()
	var err error
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return false
	case tcell.KeyUp:
		_, err = d.s.ScrollBy(0, -BlockUnits, animate)
	case tcell.KeyDown:
		_, err = d.s.ScrollBy(0, BlockUnits, animate)
	case tcell.KeyLeft:
		_, err = d.s.ScrollBy(-BlockUnits, 0, animate)
	case tcell.KeyRight:
		_, err = d.s.ScrollBy(BlockUnits, 0, animate)
	case tcell.KeyPgUp:
		_, err = d.s.ScrollBy(0, -page.Y, animate)
	case tcell.KeyPgDn:
		_, err = d.s.ScrollBy(0, page.Y, animate)
	case tcell.KeyHome:
		_, err = d.s.ScrollTo(0, 0, jump)
	case tcell.KeyEnd:
		ext := d.s.ScrollableExtent()
		_, err = d.s.ScrollTo(ext.X, ext.Y, jump)
	case tcell.KeyRune:
		switch ev.Rune() {
		case 'q':
			return false
		case '+', '=':
			_, err = d.s.ZoomBy(0.5, nil, animate)
		case '-':
			_, err = d.s.ZoomBy(-0.5, nil, animate)
		case '0':
			_, err = d.s.ZoomTo(1, nil, animate)
		case 'f':
			_, err = d.s.ScrollFrom(vec.Vec2{X: 0, Y: 2000}, nil)
		case 'F':
			_, err = d.s.ScrollFrom(vec.Vec2{X: 0, Y: -2000}, nil)
		}
	}
	if err != nil {
		d.setStatus(err.Error())
		d.log.Debug("key rejected", "err", err)
	}
	return true
}

func (d *Demo) mouse(ev *tcell.EventMouse) {
	x, y := ev.Position()
	p := vec.Vec2{X: float64(x) * CellUnits, Y: float64(y) * CellUnits}
	btn := ev.Buttons()
	ctrl := ev.Modifiers()&tcell.ModCtrl != 0

	var err error
	switch {
	case btn&tcell.WheelUp != 0:
		if ctrl {
			_, err = d.s.OnMouseWheel(120, false, true, p)
		} else {
			_, err = d.s.ScrollBy(0, -3*CellUnits, jump)
		}
	case btn&tcell.WheelDown != 0:
		if ctrl {
			_, err = d.s.OnMouseWheel(-120, false, true, p)
		} else {
			_, err = d.s.ScrollBy(0, 3*CellUnits, jump)
		}
	case btn&tcell.Button1 != 0:
		if !d.dragging {
			d.beginDrag(p)
			return
		}
		delta := d.dragAt.Sub(p)
		d.dragAt, d.dragVel = p, delta.Mul(1/FrameTime.Seconds())
		d.e.Pan(delta)
		d.pump()
	case btn == tcell.ButtonNone && d.dragging:
		d.dragging = false
		d.e.EndInteraction(d.dragVel)
		d.pump()
	}
	if err != nil {
		d.setStatus(err.Error())
	}
}

func (d *Demo) beginDrag(p vec.Vec2) {
	ok, err := d.s.OnPointerPressed(0)
	if err != nil {
		d.setStatus(err.Error())
		return
	}
	if !ok {
		return
	}
	d.dragging, d.dragAt, d.dragVel = true, p, vec.Vec2{}
	d.pump()
}

// Draw renders the visible part of the content and the status line.
func (d *Demo) Draw() {
	w, h := d.screen.Size()
	off := d.s.Offsets()
	zoom := d.s.ZoomFactor()

	for row := 0; row < h-1; row++ {
		for col := 0; col < w; col++ {
			cx := (off.X + float64(col)*CellUnits) / zoom
			cy := (off.Y + float64(row)*CellUnits) / zoom
			r, style := cellAt(cx, cy)
			d.screen.SetContent(col, row, r, nil, style)
		}
	}
	d.drawStatus(w, h-1)
	d.screen.Show()
}

// cellAt returns the glyph for content point (x, y): a checkerboard of
// blocks with a marker at each block corner.
func cellAt(x, y float64) (rune, tcell.Style) {
	if x < 0 || y < 0 || x >= DefaultContent.X || y >= DefaultContent.Y {
		return ' ', tcell.StyleDefault
	}
	bx, by := math.Floor(x/BlockUnits), math.Floor(y/BlockUnits)
	style := styleLight
	if int(bx+by)%2 == 1 {
		style = styleDark
	}
	if math.Mod(x, BlockUnits) < CellUnits && math.Mod(y, BlockUnits) < CellUnits {
		return '+', style
	}
	return ' ', style
}

func (d *Demo) drawStatus(w, row int) {
	off := d.s.Offsets()
	d.mu.Lock()
	last, status := d.last, d.status
	d.mu.Unlock()

	line := fmt.Sprintf(" x=%.0f y=%.0f zoom=%.2f %s pending=%d", off.X, off.Y, d.s.ZoomFactor(), d.s.State(), d.s.Pending())
	if last.ViewChangeID != 0 {
		line += fmt.Sprintf(" last=#%d %s", last.ViewChangeID, last.Result)
	}
	if status != "" {
		line += " | " + status
	}

	col := 0
	for _, r := range line {
		if col >= w {
			break
		}
		d.screen.SetContent(col, row, r, nil, styleStatus)
		col++
	}
	for ; col < w; col++ {
		d.screen.SetContent(col, row, ' ', nil, styleStatus)
	}
}
