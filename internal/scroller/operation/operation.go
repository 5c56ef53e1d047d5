// Package operation tracks one in-flight view change from submission to
// completion.
//
// An Operation moves through Delayed, Queued and Dispatched. The lifecycle
// is enforced by a finite state machine; completion removes the operation
// from its queue and is handled by the owner.
package operation

import (
	"context"
	"fmt"
	"strings"

	"github.com/looplab/fsm"

	"github.com/dshills/scroller/internal/scroller/engine"
	"github.com/dshills/scroller/internal/scroller/viewchange"
)

// Lifecycle states.
const (
	StateDelayed    = "delayed"
	StateQueued     = "queued"
	StateDispatched = "dispatched"
)

// Lifecycle events.
const (
	EventReady    = "ready"
	EventDispatch = "dispatch"
)

// Result is the outcome reported when an operation completes.
type Result int

const (
	Completed Result = iota
	Interrupted
	Ignored
)

// String returns the result name.
func (r Result) String() string {
	switch r {
	case Completed:
		return "completed"
	case Interrupted:
		return "interrupted"
	case Ignored:
		return "ignored"
	default:
		return "unknown"
	}
}

// Trigger is the set of logical sources that requested an operation.
type Trigger uint8

const (
	TriggerDirectCall Trigger = 1 << iota
	TriggerHorizontalController
	TriggerVerticalController
	TriggerMouseWheel
)

// TriggerController matches either controller source.
const TriggerController = TriggerHorizontalController | TriggerVerticalController

// Has reports whether t shares any source with o.
func (t Trigger) Has(o Trigger) bool {
	return t&o != 0
}

// String returns the sources joined with '|'.
func (t Trigger) String() string {
	var parts []string
	if t.Has(TriggerDirectCall) {
		parts = append(parts, "direct")
	}
	if t.Has(TriggerHorizontalController) {
		parts = append(parts, "hcontroller")
	}
	if t.Has(TriggerVerticalController) {
		parts = append(parts, "vcontroller")
	}
	if t.Has(TriggerMouseWheel) {
		parts = append(parts, "wheel")
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "|")
}

// Operation is one view change awaiting completion.
type Operation struct {
	fsm *fsm.FSM

	viewChangeID int32
	change       viewchange.Change
	trigger      Trigger
	animated     bool

	requestID engine.RequestID
	countdown int
	canceled  bool
	observed  bool
}

// New creates an operation in the given initial state. The change should
// already be a private copy.
func New(viewChangeID int32, change viewchange.Change, trigger Trigger, initial string) *Operation {
	op := &Operation{
		viewChangeID: viewChangeID,
		change:       change,
		trigger:      trigger,
		animated:     viewchange.IsAnimated(change),
		requestID:    engine.NoRequest,
	}
	op.fsm = fsm.NewFSM(
		initial,
		fsm.Events{
			{Name: EventReady, Src: []string{StateDelayed}, Dst: StateQueued},
			{Name: EventDispatch, Src: []string{StateQueued}, Dst: StateDispatched},
		},
		fsm.Callbacks{
			"enter_" + StateDispatched: func(_ context.Context, e *fsm.Event) {
				op.observed = false
				if len(e.Args) > 0 {
					if id, ok := e.Args[0].(engine.RequestID); ok {
						op.requestID = id
					}
				}
			},
		},
	)
	return op
}

// ViewChangeID returns the caller-visible correlation id.
func (o *Operation) ViewChangeID() int32 { return o.viewChangeID }

// Change returns the stored descriptor. Coalescing mutates it in place
// while the operation is not yet dispatched.
func (o *Operation) Change() viewchange.Change { return o.change }

// Kind returns the kind of the stored change.
func (o *Operation) Kind() viewchange.Kind { return o.change.Kind() }

// IsZoom reports whether the operation changes the zoom factor.
func (o *Operation) IsZoom() bool { return o.change.Kind().IsZoom() }

// IsAnimated reports whether the engine runs an animation or inertia phase
// for the operation.
func (o *Operation) IsAnimated() bool { return o.animated }

// Trigger returns the requesting sources.
func (o *Operation) Trigger() Trigger { return o.trigger }

// AddTrigger records another requesting source.
func (o *Operation) AddTrigger(t Trigger) { o.trigger |= t }

// RequestID returns the engine request id, or engine.NoRequest before
// dispatch.
func (o *Operation) RequestID() engine.RequestID { return o.requestID }

// SetRequestID rebinds the operation to a follow-up engine request.
func (o *Operation) SetRequestID(id engine.RequestID) { o.requestID = id }

// Countdown returns the remaining ticks before the next transition.
func (o *Operation) Countdown() int { return o.countdown }

// SetCountdown sets the remaining ticks.
func (o *Operation) SetCountdown(n int) { o.countdown = n }

// TickCountdown decrements the countdown and returns the new value. The
// countdown never drops below zero.
func (o *Operation) TickCountdown() int {
	if o.countdown > 0 {
		o.countdown--
	}
	return o.countdown
}

// Cancel marks the operation so the ticker completes it instead of
// dispatching it.
func (o *Operation) Cancel() { o.canceled = true }

// Canceled reports whether Cancel was called.
func (o *Operation) Canceled() bool { return o.canceled }

// Observe records engine activity for the dispatched request.
func (o *Operation) Observe() { o.observed = true }

// TakeObserved reports and clears the observed flag.
func (o *Operation) TakeObserved() bool {
	seen := o.observed
	o.observed = false
	return seen
}

// State returns the lifecycle state.
func (o *Operation) State() string { return o.fsm.Current() }

// IsDelayed reports whether the operation waits for readiness.
func (o *Operation) IsDelayed() bool { return o.fsm.Is(StateDelayed) }

// IsQueued reports whether the operation waits for its countdown.
func (o *Operation) IsQueued() bool { return o.fsm.Is(StateQueued) }

// IsDispatched reports whether the engine request was issued.
func (o *Operation) IsDispatched() bool { return o.fsm.Is(StateDispatched) }

// Pending reports whether the operation has not been dispatched yet.
func (o *Operation) Pending() bool { return !o.IsDispatched() }

// Ready moves a delayed operation to the queued state.
func (o *Operation) Ready(ctx context.Context) error {
	if err := o.fsm.Event(ctx, EventReady); err != nil {
		return fmt.Errorf("operation %d: %w", o.viewChangeID, err)
	}
	return nil
}

// Dispatch records the engine request id and moves a queued operation to
// the dispatched state.
func (o *Operation) Dispatch(ctx context.Context, id engine.RequestID) error {
	if err := o.fsm.Event(ctx, EventDispatch, id); err != nil {
		return fmt.Errorf("operation %d: %w", o.viewChangeID, err)
	}
	return nil
}

// String returns a compact description for logs.
func (o *Operation) String() string {
	return fmt.Sprintf("op(%d %s %s req=%d %s)", o.viewChangeID, o.State(), o.trigger, o.requestID, viewchange.Describe(o.change))
}
