package queue

import (
	"context"
	"testing"

	"github.com/dshills/scroller/internal/scroller/engine"
	"github.com/dshills/scroller/internal/scroller/operation"
	"github.com/dshills/scroller/internal/scroller/viewchange"
)

var animated = viewchange.Options{Animation: viewchange.AnimationEnabled}

func dispatched(t *testing.T, vcID int32, change viewchange.Change, req engine.RequestID) *operation.Operation {
	t.Helper()
	op := operation.New(vcID, change, operation.TriggerDirectCall, operation.StateQueued)
	if err := op.Dispatch(context.Background(), req); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	return op
}

func TestPushRemove(t *testing.T) {
	q := New()
	a := operation.New(1, &viewchange.AbsoluteOffsets{}, operation.TriggerDirectCall, operation.StateDelayed)
	b := operation.New(2, &viewchange.AbsoluteOffsets{}, operation.TriggerDirectCall, operation.StateDelayed)

	g := q.Generation()
	q.Push(a)
	q.Push(b)
	if q.Len() != 2 || q.Generation() == g {
		t.Fatalf("expected 2 ops and a new generation, got %d", q.Len())
	}
	if !q.Remove(a) || q.Remove(a) {
		t.Error("expected Remove to succeed exactly once")
	}
	if q.Contains(a) || !q.Contains(b) {
		t.Error("unexpected membership after Remove")
	}
	if q.ByViewChangeID(2) != b {
		t.Error("expected lookup by view change id")
	}
	if got := q.Delayed(b); len(got) != 0 {
		t.Errorf("expected keep excluded, got %d", len(got))
	}
}

func TestByRequestID(t *testing.T) {
	q := New()
	op := dispatched(t, 1, &viewchange.AbsoluteOffsets{}, 5)
	q.Push(op)
	q.Push(operation.New(2, &viewchange.AbsoluteOffsets{}, operation.TriggerDirectCall, operation.StateQueued))

	if q.ByRequestID(5) != op {
		t.Error("expected op for request 5")
	}
	if q.ByRequestID(engine.NoRequest) != nil || q.ByRequestID(0) != nil {
		t.Error("expected no match for sentinel ids")
	}
}

func TestCoalescable(t *testing.T) {
	q := New()
	h := operation.New(1, &viewchange.AbsoluteOffsets{}, operation.TriggerHorizontalController, operation.StateQueued)
	h.SetCountdown(2)
	q.Push(h)

	if got := q.Coalescable(operation.TriggerController, viewchange.KindAbsoluteOffsets, viewchange.Options{}); got != h {
		t.Error("expected controller op to coalesce")
	}
	if got := q.Coalescable(operation.TriggerController, viewchange.KindAbsoluteOffsets, animated); got != nil {
		t.Error("expected options mismatch to prevent coalescing")
	}
	if got := q.Coalescable(operation.TriggerController, viewchange.KindRelativeOffsets, viewchange.Options{}); got != nil {
		t.Error("expected kind mismatch to prevent coalescing")
	}
	if got := q.Coalescable(operation.TriggerMouseWheel, viewchange.KindAbsoluteOffsets, viewchange.Options{}); got != nil {
		t.Error("expected trigger mismatch to prevent coalescing")
	}

	h.Cancel()
	if got := q.Coalescable(operation.TriggerController, viewchange.KindAbsoluteOffsets, viewchange.Options{}); got != nil {
		t.Error("expected canceled op to be skipped")
	}
}

func TestMaxPendingCountdown(t *testing.T) {
	q := New()
	a := operation.New(1, &viewchange.AbsoluteOffsets{}, operation.TriggerDirectCall, operation.StateDelayed)
	a.SetCountdown(3)
	b := operation.New(2, &viewchange.AbsoluteOffsets{}, operation.TriggerDirectCall, operation.StateQueued)
	b.SetCountdown(5)
	b.Cancel()
	q.Push(a)
	q.Push(b)
	q.Push(dispatched(t, 3, &viewchange.AbsoluteOffsets{}, 1))

	if got := q.MaxPendingCountdown(operation.TriggerDirectCall); got != 3 {
		t.Errorf("expected 3, got %d", got)
	}
	if got := q.MaxPendingCountdown(operation.TriggerMouseWheel); got != 0 {
		t.Errorf("expected 0, got %d", got)
	}
}

func TestSelectIdleOlderFirst(t *testing.T) {
	q := New()
	// Submitted out of request order to check sorting.
	op2 := dispatched(t, 2, &viewchange.AbsoluteOffsets{Options: animated}, 2)
	op1 := dispatched(t, 1, &viewchange.AbsoluteOffsets{}, 1)
	op3 := dispatched(t, 3, &viewchange.AbsoluteOffsets{}, 3)
	op4 := dispatched(t, 4, &viewchange.AbsoluteOffsets{}, 4)
	q.Push(op2)
	q.Push(op1)
	q.Push(op3)
	q.Push(op4)

	got := q.Select(Batch{
		RequestID:        3,
		Match:            Apply{On: true, Result: operation.Completed},
		PriorNonAnimated: Apply{On: true, Result: operation.Completed},
		PriorAnimated:    Apply{On: true, Result: operation.Interrupted},
	})

	want := []Completion{
		{op1, operation.Completed},
		{op2, operation.Interrupted},
		{op3, operation.Completed},
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d completions, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("completion %d: expected %s/%s, got %s/%s", i, want[i].Op, want[i].Result, got[i].Op, got[i].Result)
		}
	}
}

func TestSelectMatchOnly(t *testing.T) {
	q := New()
	op1 := dispatched(t, 1, &viewchange.AbsoluteOffsets{}, 1)
	op2 := dispatched(t, 2, &viewchange.AbsoluteOffsets{}, 2)
	q.Push(op1)
	q.Push(op2)

	got := q.Select(Batch{RequestID: 2, Match: Apply{On: true, Result: operation.Ignored}})
	if len(got) != 1 || got[0].Op != op2 || got[0].Result != operation.Ignored {
		t.Errorf("expected only op2 ignored, got %v", got)
	}
}

func TestSelectPriorsOnly(t *testing.T) {
	q := New()
	op1 := dispatched(t, 1, &viewchange.AbsoluteOffsets{}, 1)
	op2 := dispatched(t, 2, &viewchange.AbsoluteOffsets{}, 2)
	queued := operation.New(3, &viewchange.AbsoluteOffsets{}, operation.TriggerDirectCall, operation.StateQueued)
	q.Push(op1)
	q.Push(op2)
	q.Push(queued)

	got := q.Select(Batch{
		RequestID:        2,
		PriorNonAnimated: Apply{On: true, Result: operation.Completed},
		PriorAnimated:    Apply{On: true, Result: operation.Interrupted},
	})
	if len(got) != 1 || got[0].Op != op1 {
		t.Errorf("expected only op1, got %v", got)
	}
}

func TestSelectAll(t *testing.T) {
	q := New()
	queued := operation.New(9, &viewchange.AbsoluteOffsets{}, operation.TriggerDirectCall, operation.StateQueued)
	op1 := dispatched(t, 1, &viewchange.AbsoluteOffsets{Options: animated}, 1)
	q.Push(queued)
	q.Push(op1)

	got := q.Select(Batch{
		All:              true,
		PriorNonAnimated: Apply{On: true, Result: operation.Completed},
		PriorAnimated:    Apply{On: true, Result: operation.Interrupted},
	})
	if len(got) != 2 {
		t.Fatalf("expected 2 completions, got %d", len(got))
	}
	if got[0].Op != op1 || got[0].Result != operation.Interrupted {
		t.Errorf("expected dispatched animated op first and interrupted, got %s/%s", got[0].Op, got[0].Result)
	}
	if got[1].Op != queued || got[1].Result != operation.Completed {
		t.Errorf("expected queued op last and completed, got %s/%s", got[1].Op, got[1].Result)
	}
}

func TestLatest(t *testing.T) {
	q := New()
	a := dispatched(t, 1, &viewchange.OffsetsWithVelocity{}, 1)
	b := dispatched(t, 2, &viewchange.OffsetsWithVelocity{}, 4)
	q.Push(a)
	q.Push(b)
	q.Push(dispatched(t, 3, &viewchange.ZoomWithVelocity{}, 6))

	if got := q.Latest(viewchange.KindOffsetsWithVelocity, nil); got != b {
		t.Errorf("expected b, got %v", got)
	}
	if got := q.Latest(viewchange.KindOffsetsWithVelocity, b); got != a {
		t.Errorf("expected a with b excluded, got %v", got)
	}
}
