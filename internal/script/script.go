// Package script runs Lua scenario scripts against a scroller driven by the
// simulated engine.
//
// Scripts see a single global table, scroller, whose functions submit view
// changes, step frames and inspect the view. The Lua state is sandboxed:
// only the base, table, string and math libraries are opened and the file
// loading functions are removed.
package script

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/scroller/internal/logging"
	"github.com/dshills/scroller/internal/scroller"
	"github.com/dshills/scroller/internal/scroller/engine"
	"github.com/dshills/scroller/internal/scroller/engine/sim"
	"github.com/dshills/scroller/internal/scroller/notify"
)

// Defaults for frame stepping.
const (
	DefaultFrame     = 16 * time.Millisecond
	DefaultMaxFrames = 2000
)

// ErrRunnerClosed indicates use of a closed Runner.
var ErrRunnerClosed = errors.New("script runner closed")

// Runner owns a Lua state bound to one scroller and engine. It is not safe
// for concurrent use.
type Runner struct {
	L *lua.LState

	s   *scroller.Scroller
	e   *sim.Engine
	out io.Writer
	log *log.Logger

	frame     time.Duration
	maxFrames int
	frames    int

	events []notify.Event
	sub    *notify.Subscription
	closed bool
}

// Option configures a Runner.
type Option func(*Runner)

// WithOutput sets where print writes. The default is stdout.
func WithOutput(w io.Writer) Option {
	return func(r *Runner) {
		r.out = w
	}
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(r *Runner) {
		r.log = logging.Component(l, "script")
	}
}

// WithFrame sets the simulated frame duration.
func WithFrame(d time.Duration) Option {
	return func(r *Runner) {
		if d > 0 {
			r.frame = d
		}
	}
}

// WithMaxFrames bounds settle.
func WithMaxFrames(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.maxFrames = n
		}
	}
}

// New creates a runner for s, which must already be attached to e.
func New(s *scroller.Scroller, e *sim.Engine, opts ...Option) *Runner {
	r := &Runner{
		s:         s,
		e:         e,
		out:       os.Stdout,
		log:       logging.Component(logging.Discard(), "script"),
		frame:     DefaultFrame,
		maxFrames: DefaultMaxFrames,
	}
	for _, opt := range opts {
		opt(r)
	}

	r.L = lua.NewState(lua.Options{SkipOpenLibs: true})
	openSafeLibraries(r.L)
	r.install()

	r.sub = s.Events().Subscribe(func(ev notify.Event) {
		switch ev.Kind {
		case notify.ScrollCompleted, notify.ZoomCompleted:
			r.events = append(r.events, ev)
			r.log.Debug("completion", "id", ev.ViewChangeID, "kind", ev.Kind, "result", ev.Result)
		}
	})
	return r
}

// openSafeLibraries opens only the libraries scenarios need.
func openSafeLibraries(L *lua.LState) {
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)

	for _, name := range []string{"dofile", "loadfile", "load", "loadstring"} {
		L.SetGlobal(name, lua.LNil)
	}
}

// DoString runs a scenario held in a string.
func (r *Runner) DoString(ctx context.Context, code string) error {
	return r.run(ctx, func() error { return r.L.DoString(code) })
}

// DoFile runs the scenario at path.
func (r *Runner) DoFile(ctx context.Context, path string) error {
	return r.run(ctx, func() error { return r.L.DoFile(path) })
}

func (r *Runner) run(ctx context.Context, fn func() error) (err error) {
	if r.closed {
		return ErrRunnerClosed
	}
	r.L.SetContext(ctx)
	defer r.L.RemoveContext()

	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("lua panic: %v", p)
		}
	}()
	return fn()
}

// Completions returns the completion events seen so far.
func (r *Runner) Completions() []notify.Event {
	out := make([]notify.Event, len(r.events))
	copy(out, r.events)
	return out
}

// Frames returns the number of frames stepped.
func (r *Runner) Frames() int {
	return r.frames
}

// Close releases the Lua state and the event subscription.
func (r *Runner) Close() {
	if r.closed {
		return
	}
	r.closed = true
	r.sub.Unsubscribe()
	r.L.Close()
}

// pump forwards queued engine notifications to the scroller.
func (r *Runner) pump() {
	for _, n := range r.e.Drain() {
		r.s.HandleNotification(n)
	}
}

// step advances one frame: engine motion, notifications, then the queue.
func (r *Runner) step() {
	r.e.Advance(r.frame)
	r.pump()
	r.s.Tick()
	r.pump()
	r.frames++
}

// settle steps until the queue is empty and the engine idle. It reports
// the frames used and whether it settled within the limit.
func (r *Runner) settle() (int, bool) {
	r.pump()
	for i := 0; i < r.maxFrames; i++ {
		if r.s.Pending() == 0 && r.e.State() == engine.StateIdle {
			return i, true
		}
		r.step()
	}
	return r.maxFrames, r.s.Pending() == 0 && r.e.State() == engine.StateIdle
}
