// Package queue holds the ordered set of in-flight operations.
//
// The queue is a flat slice in submission order. It is not safe for
// concurrent use; the scroller serializes all access.
package queue

import (
	"sort"

	"github.com/dshills/scroller/internal/scroller/engine"
	"github.com/dshills/scroller/internal/scroller/operation"
	"github.com/dshills/scroller/internal/scroller/viewchange"
)

// Queue is an ordered collection of operations.
type Queue struct {
	ops []*operation.Operation

	// generation changes on every mutation so iterators can detect that
	// completion callbacks altered the queue.
	generation uint64
}

// New creates an empty queue.
func New() *Queue {
	return &Queue{}
}

// Len returns the number of operations.
func (q *Queue) Len() int { return len(q.ops) }

// Generation returns a stamp that changes on every mutation.
func (q *Queue) Generation() uint64 { return q.generation }

// Push appends an operation.
func (q *Queue) Push(op *operation.Operation) {
	q.ops = append(q.ops, op)
	q.generation++
}

// Remove deletes op and reports whether it was present.
func (q *Queue) Remove(op *operation.Operation) bool {
	for i, o := range q.ops {
		if o == op {
			q.ops = append(q.ops[:i], q.ops[i+1:]...)
			q.generation++
			return true
		}
	}
	return false
}

// Contains reports whether op is still queued.
func (q *Queue) Contains(op *operation.Operation) bool {
	for _, o := range q.ops {
		if o == op {
			return true
		}
	}
	return false
}

// Snapshot returns a copy of the operations in submission order.
func (q *Queue) Snapshot() []*operation.Operation {
	out := make([]*operation.Operation, len(q.ops))
	copy(out, q.ops)
	return out
}

// ByRequestID returns the operation bound to an engine request.
func (q *Queue) ByRequestID(id engine.RequestID) *operation.Operation {
	if id == engine.NoRequest || id == 0 {
		return nil
	}
	for _, o := range q.ops {
		if o.RequestID() == id {
			return o
		}
	}
	return nil
}

// ByViewChangeID returns the operation with the caller-visible id.
func (q *Queue) ByViewChangeID(id int32) *operation.Operation {
	for _, o := range q.ops {
		if o.ViewChangeID() == id {
			return o
		}
	}
	return nil
}

// Latest returns the most recently dispatched operation of the given kind,
// ignoring exclude.
func (q *Queue) Latest(kind viewchange.Kind, exclude *operation.Operation) *operation.Operation {
	var latest *operation.Operation
	for _, o := range q.ops {
		if o == exclude || !o.IsDispatched() || o.Kind() != kind {
			continue
		}
		if latest == nil || o.RequestID() > latest.RequestID() {
			latest = o
		}
	}
	return latest
}

// Coalescable returns the oldest undispatched, uncanceled operation that a
// new request from trigger with the same kind and options may merge into.
func (q *Queue) Coalescable(trigger operation.Trigger, kind viewchange.Kind, opts viewchange.Options) *operation.Operation {
	for _, o := range q.ops {
		if !o.Pending() || o.Canceled() || !o.Trigger().Has(trigger) || o.Kind() != kind {
			continue
		}
		oo, _ := viewchange.OptionsOf(o.Change())
		if oo == opts {
			return o
		}
	}
	return nil
}

// MaxPendingCountdown returns the largest countdown among undispatched,
// uncanceled operations carrying trigger.
func (q *Queue) MaxPendingCountdown(trigger operation.Trigger) int {
	n := 0
	for _, o := range q.ops {
		if o.Pending() && !o.Canceled() && o.Trigger().Has(trigger) && o.Countdown() > n {
			n = o.Countdown()
		}
	}
	return n
}

// Delayed returns the operations waiting for readiness, excluding keep.
func (q *Queue) Delayed(keep *operation.Operation) []*operation.Operation {
	var out []*operation.Operation
	for _, o := range q.ops {
		if o != keep && o.IsDelayed() {
			out = append(out, o)
		}
	}
	return out
}

// Apply enables one completion target and assigns its result.
type Apply struct {
	On     bool
	Result operation.Result
}

// Batch selects operations to complete in response to one engine event.
type Batch struct {
	// RequestID is the id carried by the engine event.
	RequestID engine.RequestID

	// All widens the prior targets to every operation in the queue
	// regardless of request id.
	All bool

	Match            Apply
	PriorNonAnimated Apply
	PriorAnimated    Apply
}

// Completion pairs an operation with its result.
type Completion struct {
	Op     *operation.Operation
	Result operation.Result
}

func (b Batch) isPrior(o *operation.Operation) bool {
	if b.All {
		return true
	}
	id := o.RequestID()
	return id != engine.NoRequest && b.RequestID > id
}

// Select returns the completions a batch produces, older first. Priors are
// ordered by ascending request id with undispatched operations last, and
// the matching operation, if any, comes at the end.
func (q *Queue) Select(b Batch) []Completion {
	var priors []Completion
	var match *Completion

	for _, o := range q.ops {
		if b.Match.On && !b.All && b.RequestID != 0 && o.RequestID() == b.RequestID {
			match = &Completion{Op: o, Result: b.Match.Result}
			continue
		}
		if !b.isPrior(o) {
			continue
		}
		switch {
		case o.IsAnimated() && b.PriorAnimated.On:
			priors = append(priors, Completion{Op: o, Result: b.PriorAnimated.Result})
		case !o.IsAnimated() && b.PriorNonAnimated.On:
			priors = append(priors, Completion{Op: o, Result: b.PriorNonAnimated.Result})
		}
	}

	sort.SliceStable(priors, func(i, j int) bool {
		return order(priors[i].Op) < order(priors[j].Op)
	})
	if match != nil {
		priors = append(priors, *match)
	}
	return priors
}

func order(o *operation.Operation) int64 {
	if id := o.RequestID(); id != engine.NoRequest {
		return int64(id)
	}
	return 1 << 40
}
