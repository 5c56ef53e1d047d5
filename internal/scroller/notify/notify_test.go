package notify

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/dshills/scroller/internal/scroller/operation"
)

func TestKind_String(t *testing.T) {
	tests := []struct {
		k    Kind
		want string
	}{
		{ScrollCompleted, "scroll-completed"},
		{ZoomCompleted, "zoom-completed"},
		{ViewChanged, "view-changed"},
		{StateChanged, "state-changed"},
		{Kind(99), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.k.String(); got != tt.want {
			t.Errorf("%d.String() = %q, want %q", tt.k, got, tt.want)
		}
	}
}

func TestNotifier_Subscribe(t *testing.T) {
	n := New()
	defer n.Close()

	var received atomic.Int32
	sub := n.Subscribe(func(ev Event) {
		received.Add(1)
	})

	n.Notify(Event{Kind: ViewChanged})
	n.Notify(Event{Kind: ScrollCompleted})
	if got := received.Load(); got != 2 {
		t.Errorf("expected 2 events, got %d", got)
	}

	sub.Unsubscribe()
	n.Notify(Event{Kind: ViewChanged})
	if got := received.Load(); got != 2 {
		t.Errorf("unsubscribed observer received event, count %d", got)
	}
}

func TestNotifier_SubscribeKind(t *testing.T) {
	n := New()
	defer n.Close()

	var zooms, scrolls int
	n.SubscribeKind(ZoomCompleted, func(ev Event) { zooms++ })
	n.SubscribeKind(ScrollCompleted, func(ev Event) { scrolls++ })

	n.Notify(Event{Kind: ZoomCompleted})
	n.Notify(Event{Kind: ViewChanged})

	if zooms != 1 || scrolls != 0 {
		t.Errorf("expected 1 zoom and 0 scroll events, got %d and %d", zooms, scrolls)
	}
}

func TestNotifier_Order(t *testing.T) {
	n := New()
	defer n.Close()

	var order []int
	for i := 0; i < 5; i++ {
		i := i
		n.Subscribe(func(ev Event) { order = append(order, i) })
	}
	n.Notify(Event{})

	for i, v := range order {
		if v != i {
			t.Fatalf("expected subscription order, got %v", order)
		}
	}
}

func TestNotifier_Async(t *testing.T) {
	n := New(WithAsync(16))

	var mu sync.Mutex
	var got []int32
	n.Subscribe(func(ev Event) {
		mu.Lock()
		got = append(got, ev.ViewChangeID)
		mu.Unlock()
	})

	for i := int32(0); i < 10; i++ {
		n.Notify(Event{Kind: ScrollCompleted, ViewChangeID: i})
	}
	n.Close()

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 10 {
		t.Fatalf("expected 10 events after Close drains, got %d", len(got))
	}
	for i, id := range got {
		if id != int32(i) {
			t.Errorf("expected id %d at %d, got %d", i, i, id)
		}
	}
}

func TestNotifier_Closed(t *testing.T) {
	n := New()
	called := false
	n.Subscribe(func(ev Event) { called = true })
	n.Close()
	n.Close()

	n.Notify(Event{})
	if called {
		t.Error("closed notifier delivered an event")
	}
}

func TestBatch(t *testing.T) {
	n := New()
	defer n.Close()

	var events []Event
	n.Subscribe(func(ev Event) { events = append(events, ev) })

	b := n.NewBatch()
	b.Completed(false, 1, operation.Completed)
	b.Completed(true, 2, operation.Interrupted)
	if len(events) != 0 {
		t.Fatal("batch delivered before Commit")
	}
	if b.Len() != 2 {
		t.Errorf("expected 2 pending, got %d", b.Len())
	}

	b.Commit()
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Kind != ScrollCompleted || events[0].ViewChangeID != 1 {
		t.Errorf("unexpected first event %+v", events[0])
	}
	if events[1].Kind != ZoomCompleted || events[1].Result != operation.Interrupted {
		t.Errorf("unexpected second event %+v", events[1])
	}
	if b.Len() != 0 {
		t.Errorf("expected empty batch after Commit, got %d", b.Len())
	}
}
