// Package notify delivers view change events to observers.
//
// The scroller publishes completion, view-changed and state-changed events
// through a Notifier. Observers subscribe to every event or to a single
// kind. Delivery is synchronous and ordered by subscription unless the
// notifier is created with WithAsync.
package notify

import (
	"sort"
	"sync"

	"seehuhn.de/go/geom/vec"

	"github.com/dshills/scroller/internal/scroller/engine"
	"github.com/dshills/scroller/internal/scroller/operation"
)

// Kind identifies an event type.
type Kind int

const (
	// ScrollCompleted reports the completion of an offsets change.
	ScrollCompleted Kind = iota

	// ZoomCompleted reports the completion of a zoom change.
	ZoomCompleted

	// ViewChanged reports new offsets or zoom factor.
	ViewChanged

	// StateChanged reports a new interaction state.
	StateChanged
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case ScrollCompleted:
		return "scroll-completed"
	case ZoomCompleted:
		return "zoom-completed"
	case ViewChanged:
		return "view-changed"
	case StateChanged:
		return "state-changed"
	default:
		return "unknown"
	}
}

// Event is one published event. Fields not relevant to Kind are zero.
type Event struct {
	Kind Kind

	// ViewChangeID and Result are set for completion events.
	ViewChangeID int32
	Result       operation.Result

	// Offsets and Zoom are set for view-changed events.
	Offsets vec.Vec2
	Zoom    float64

	// State is set for state-changed events.
	State engine.State
}

// Observer is called for each delivered event.
type Observer func(ev Event)

// Subscription represents an active observer subscription.
type Subscription struct {
	id       uint64
	notifier *Notifier
}

// Unsubscribe removes this subscription.
func (s *Subscription) Unsubscribe() {
	if s.notifier != nil {
		s.notifier.unsubscribe(s.id)
	}
}

type entry struct {
	observer Observer
	kind     Kind
	all      bool
}

// Notifier manages event subscriptions.
type Notifier struct {
	mu sync.RWMutex

	observers map[uint64]entry
	nextID    uint64

	async  bool
	buffer chan Event
	done   chan struct{}
	wg     sync.WaitGroup
	closed bool
}

// Option configures a Notifier.
type Option func(*Notifier)

// WithAsync enables asynchronous delivery on a background goroutine.
func WithAsync(bufferSize int) Option {
	return func(n *Notifier) {
		if bufferSize > 0 {
			n.async = true
			n.buffer = make(chan Event, bufferSize)
		}
	}
}

// New creates a new Notifier.
func New(opts ...Option) *Notifier {
	n := &Notifier{
		observers: make(map[uint64]entry),
		done:      make(chan struct{}),
	}

	for _, opt := range opts {
		opt(n)
	}

	if n.async {
		n.wg.Add(1)
		go n.processAsync()
	}

	return n
}

// Subscribe registers an observer for all events.
func (n *Notifier) Subscribe(observer Observer) *Subscription {
	return n.add(entry{observer: observer, all: true})
}

// SubscribeKind registers an observer for one event kind.
func (n *Notifier) SubscribeKind(kind Kind, observer Observer) *Subscription {
	return n.add(entry{observer: observer, kind: kind})
}

func (n *Notifier) add(e entry) *Subscription {
	n.mu.Lock()
	defer n.mu.Unlock()

	id := n.nextID
	n.nextID++
	n.observers[id] = e

	return &Subscription{id: id, notifier: n}
}

// Notify sends an event to all matching observers.
func (n *Notifier) Notify(ev Event) {
	n.mu.RLock()
	if n.closed {
		n.mu.RUnlock()
		return
	}
	n.mu.RUnlock()

	if n.async {
		select {
		case n.buffer <- ev:
		case <-n.done:
		}
		return
	}

	n.deliver(ev)
}

// Close shuts down the notifier. It is safe to call Close multiple times.
func (n *Notifier) Close() {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return
	}
	n.closed = true
	n.mu.Unlock()

	close(n.done)
	n.wg.Wait()
}

func (n *Notifier) unsubscribe(id uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.observers, id)
}

// deliver calls matching observers in subscription order.
func (n *Notifier) deliver(ev Event) {
	n.mu.RLock()
	ids := make([]uint64, 0, len(n.observers))
	for id, e := range n.observers {
		if e.all || e.kind == ev.Kind {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	observers := make([]Observer, len(ids))
	for i, id := range ids {
		observers[i] = n.observers[id].observer
	}
	n.mu.RUnlock()

	// Call observers outside the lock
	for _, obs := range observers {
		obs(ev)
	}
}

func (n *Notifier) processAsync() {
	defer n.wg.Done()

	for {
		select {
		case ev := <-n.buffer:
			n.deliver(ev)
		case <-n.done:
			// Drain remaining buffered events
			for {
				select {
				case ev := <-n.buffer:
					n.deliver(ev)
				default:
					return
				}
			}
		}
	}
}

// Batch collects events and delivers them as a group.
type Batch struct {
	notifier *Notifier
	events   []Event
}

// NewBatch creates a batch bound to n.
func (n *Notifier) NewBatch() *Batch {
	return &Batch{notifier: n}
}

// Add appends an event to the batch.
func (b *Batch) Add(ev Event) {
	b.events = append(b.events, ev)
}

// Completed adds a completion event for a view change.
func (b *Batch) Completed(zoom bool, viewChangeID int32, result operation.Result) {
	kind := ScrollCompleted
	if zoom {
		kind = ZoomCompleted
	}
	b.Add(Event{Kind: kind, ViewChangeID: viewChangeID, Result: result})
}

// Commit delivers the batched events in the order they were added.
func (b *Batch) Commit() {
	events := b.events
	b.events = nil
	for _, ev := range events {
		b.notifier.Notify(ev)
	}
}

// Len returns the number of pending events.
func (b *Batch) Len() int {
	return len(b.events)
}
