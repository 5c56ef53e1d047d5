// Package scroller coordinates scroll-offset and zoom-factor changes
// against an external interaction engine.
//
// A Scroller accepts view changes from direct calls, scroll controllers and
// the mouse wheel, queues them until the engine can take them, issues engine
// requests, and maps the engine's asynchronous notifications back to exactly
// one completion per view change.
//
// The Scroller is frame driven. The host calls Tick once per frame while
// IsTickHooked reports true and forwards every engine notification to
// HandleNotification. Observers registered on Events receive completion,
// view-changed and state-changed events after the call that produced them
// has returned its lock, so they may call back into the Scroller.
package scroller

import (
	"context"
	"math"
	"sync"

	"github.com/charmbracelet/log"
	"seehuhn.de/go/geom/vec"

	"github.com/dshills/scroller/internal/logging"
	"github.com/dshills/scroller/internal/scroller/bounds"
	"github.com/dshills/scroller/internal/scroller/compat"
	"github.com/dshills/scroller/internal/scroller/engine"
	"github.com/dshills/scroller/internal/scroller/metrics"
	"github.com/dshills/scroller/internal/scroller/notify"
	"github.com/dshills/scroller/internal/scroller/operation"
	"github.com/dshills/scroller/internal/scroller/queue"
	"github.com/dshills/scroller/internal/scroller/snap"
	"github.com/dshills/scroller/internal/scroller/trace"
)

// Scroller is the view change coordinator of one scrollable surface.
type Scroller struct {
	mu sync.Mutex

	// Collaborators
	log     *log.Logger
	metrics *metrics.Metrics
	trace   *trace.Recorder
	shim    compat.Shim
	policy  Policy
	events  *notify.Notifier
	ownsEvt bool
	ctx     context.Context

	engine engine.Engine
	closed bool

	// Layout snapshot
	layout     bounds.Layout
	hasContent bool

	// View state as last reported by the engine
	position         vec.Vec2
	zoom             float64
	offsets          vec.Vec2
	state            engine.State
	endOfInertiaZoom float64

	minZoom float64
	maxZoom float64

	// Anchor ratios; NaN means unset.
	hAnchor float64
	vAnchor float64

	hSnap    *snap.Set
	vSnap    *snap.Set
	zoomSnap *snap.Set

	// Queue state
	ops              *queue.Queue
	nextViewChangeID int32
	tickHooked       bool
	frame            uint64

	// Latest engine request, its family and whether it started a timed
	// animation.
	latestRequest       engine.RequestID
	lastRequestZoom     bool
	lastRequestAnimated bool
}

// Option configures a Scroller.
type Option func(*Scroller)

// WithLogger sets the logger. The scroller logs under the "scroller"
// prefix.
func WithLogger(l *log.Logger) Option {
	return func(s *Scroller) {
		s.log = logging.Component(l, "scroller")
	}
}

// WithMetrics records queue activity on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Scroller) {
		s.metrics = m
	}
}

// WithTrace records queue activity on r.
func WithTrace(r *trace.Recorder) Option {
	return func(s *Scroller) {
		s.trace = r
	}
}

// WithShim sets the platform compatibility shim.
func WithShim(shim compat.Shim) Option {
	return func(s *Scroller) {
		s.shim = shim
	}
}

// WithPolicy sets the numeric parameters.
func WithPolicy(p Policy) Option {
	return func(s *Scroller) {
		s.policy = p
	}
}

// WithNotifier publishes events on n instead of a private notifier. The
// caller keeps ownership of n.
func WithNotifier(n *notify.Notifier) Option {
	return func(s *Scroller) {
		s.events = n
	}
}

// WithContext sets the context passed to lifecycle transitions.
func WithContext(ctx context.Context) Option {
	return func(s *Scroller) {
		s.ctx = ctx
	}
}

// New creates a detached scroller with no content.
func New(opts ...Option) *Scroller {
	s := &Scroller{
		log:              logging.Component(logging.Discard(), "scroller"),
		shim:             compat.Modern{},
		policy:           DefaultPolicy(),
		ctx:              context.Background(),
		zoom:             1,
		endOfInertiaZoom: 1,
		hAnchor:          math.NaN(),
		vAnchor:          math.NaN(),
		hSnap:            snap.NewSet(),
		vSnap:            snap.NewSet(),
		zoomSnap:         snap.NewSet(),
		ops:              queue.New(),
		latestRequest:    engine.NoRequest,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.events == nil {
		s.events = notify.New()
		s.ownsEvt = true
	}
	s.minZoom = s.policy.MinZoomFactor
	s.maxZoom = s.policy.MaxZoomFactor
	return s
}

// Events returns the notifier that publishes completion and view events.
func (s *Scroller) Events() *notify.Notifier {
	return s.events
}

// begin locks the scroller and returns a batch for events produced under
// the lock. The returned func unlocks and then delivers the batch.
func (s *Scroller) begin() (*notify.Batch, func()) {
	s.mu.Lock()
	b := s.events.NewBatch()
	return b, func() {
		s.updateTickHook()
		s.metrics.QueueDepth(s.ops.Len())
		s.mu.Unlock()
		b.Commit()
	}
}

// Attach binds the engine. Delayed operations become eligible on the next
// tick.
func (s *Scroller) Attach(e engine.Engine) error {
	_, end := s.begin()
	defer end()

	if s.closed {
		return opError("Attach", "", ErrDetached)
	}
	s.engine = e
	s.publishBounds()
	e.SetScaleBounds(s.minZoom, s.maxZoom)
	s.log.Debug("attached", "delayed", len(s.ops.Delayed(nil)))
	return nil
}

// Detach releases the engine and interrupts every outstanding operation,
// since their engine requests can no longer complete.
func (s *Scroller) Detach() {
	b, end := s.begin()
	defer end()
	s.drain(b)
	s.engine = nil
}

// Close tears the scroller down. Every remaining operation completes
// Interrupted. Close is idempotent.
func (s *Scroller) Close() {
	b, end := s.begin()
	if s.closed {
		end()
		return
	}
	s.drain(b)
	s.engine = nil
	s.closed = true
	end()

	if s.ownsEvt {
		s.events.Close()
	}
}

// drain force-completes every operation in submission order.
func (s *Scroller) drain(b *notify.Batch) {
	for _, op := range s.ops.Snapshot() {
		s.complete(op, operation.Interrupted, b)
	}
}

// SetContent sets the unzoomed content extent. Content is present from the
// first call until RemoveContent.
func (s *Scroller) SetContent(extent vec.Vec2) {
	b, end := s.begin()
	defer end()

	old := s.layout
	s.hasContent = true
	s.layout.Horizontal.Extent = extent.X
	s.layout.Vertical.Extent = extent.Y
	s.layoutChanged(old, b)
}

// RemoveContent marks the surface empty. Later view changes return -1.
func (s *Scroller) RemoveContent() {
	b, end := s.begin()
	defer end()

	old := s.layout
	s.hasContent = false
	s.layout.Horizontal.Extent = 0
	s.layout.Vertical.Extent = 0
	s.layoutChanged(old, b)
}

// SetViewport sets the visible size.
func (s *Scroller) SetViewport(size vec.Vec2) {
	b, end := s.begin()
	defer end()

	old := s.layout
	s.layout.Horizontal.Viewport = size.X
	s.layout.Vertical.Viewport = size.Y
	s.hSnap.SetViewport(size.X)
	s.vSnap.SetViewport(size.Y)
	s.layoutChanged(old, b)
}

// SetLayoutOffset sets the correction applied by the layout pass.
func (s *Scroller) SetLayoutOffset(offset vec.Vec2) {
	b, end := s.begin()
	defer end()

	old := s.layout
	s.layout.Horizontal.LayoutOffset = offset.X
	s.layout.Vertical.LayoutOffset = offset.Y
	s.layoutChanged(old, b)
}

// SetAlignment sets how content smaller than the viewport is placed.
func (s *Scroller) SetAlignment(h, v bounds.Alignment) {
	b, end := s.begin()
	defer end()

	old := s.layout
	s.layout.Horizontal.Alignment = h
	s.layout.Vertical.Alignment = v
	s.layoutChanged(old, b)
}

// Layout returns the committed layout snapshot.
func (s *Scroller) Layout() bounds.Layout {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.layout
}

// layoutChanged republishes bounds, keeps anchored content in place and
// refreshes the offsets derived from the engine position.
func (s *Scroller) layoutChanged(old bounds.Layout, b *notify.Batch) {
	s.publishBounds()

	shift := vec.Vec2{
		X: anchorShift(s.hAnchor, old.Horizontal.ScrollableExtent(s.zoom), s.layout.Horizontal.ScrollableExtent(s.zoom)),
		Y: anchorShift(s.vAnchor, old.Vertical.ScrollableExtent(s.zoom), s.layout.Vertical.ScrollableExtent(s.zoom)),
	}
	if (shift.X != 0 || shift.Y != 0) && s.engine != nil && s.hasContent {
		target := s.layout.Clamp(s.offsets.Add(shift), s.zoom)
		id := s.engine.TryUpdatePosition(s.layout.OffsetsToPosition(target, s.zoom))
		s.metrics.EngineRequest("TryUpdatePosition")
		s.log.Debug("anchor shift", "shift", shift, "req", id)
	}

	s.refreshOffsets(b)
}

func anchorShift(ratio, oldScrollable, newScrollable float64) float64 {
	if math.IsNaN(ratio) || oldScrollable == newScrollable {
		return 0
	}
	return (newScrollable - oldScrollable) * ratio
}

func (s *Scroller) publishBounds() {
	if s.engine == nil {
		return
	}
	l := s.layout
	s.engine.SetPositionBounds(l.ComputeMinMax)
}

// refreshOffsets recomputes the offsets from the last engine position and
// publishes ViewChanged when they moved.
func (s *Scroller) refreshOffsets(b *notify.Batch) {
	offsets := s.layout.PositionToOffsets(s.position, s.zoom)
	if offsets != s.offsets {
		s.offsets = offsets
		b.Add(notify.Event{Kind: notify.ViewChanged, Offsets: offsets, Zoom: s.zoom})
	}
}

// Offsets returns the current zoomed offsets.
func (s *Scroller) Offsets() vec.Vec2 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.offsets
}

// ZoomFactor returns the current zoom factor.
func (s *Scroller) ZoomFactor() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.zoom
}

// State returns the engine interaction state.
func (s *Scroller) State() engine.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// ScrollableExtent returns how far the content can scroll at the current
// zoom factor.
func (s *Scroller) ScrollableExtent() vec.Vec2 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.layout.ScrollableExtent(s.zoom)
}

// Pending returns the number of operations awaiting completion.
func (s *Scroller) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ops.Len()
}

// IsTickHooked reports whether the host should keep calling Tick.
func (s *Scroller) IsTickHooked() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tickHooked
}

// MinZoomFactor returns the lower zoom bound.
func (s *Scroller) MinZoomFactor() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.minZoom
}

// MaxZoomFactor returns the upper zoom bound.
func (s *Scroller) MaxZoomFactor() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.maxZoom
}

// SetMinZoomFactor sets the lower zoom bound.
func (s *Scroller) SetMinZoomFactor(v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return opError("SetMinZoomFactor", "value", ErrInvalidArgument)
	}
	_, end := s.begin()
	defer end()

	s.minZoom = v
	if s.engine != nil {
		s.engine.SetScaleBounds(s.minZoom, s.maxZoom)
	}
	return nil
}

// SetMaxZoomFactor sets the upper zoom bound.
func (s *Scroller) SetMaxZoomFactor(v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return opError("SetMaxZoomFactor", "value", ErrInvalidArgument)
	}
	_, end := s.begin()
	defer end()

	s.maxZoom = v
	if s.engine != nil {
		s.engine.SetScaleBounds(s.minZoom, s.maxZoom)
	}
	return nil
}

// SetPolicy replaces the numeric parameters, including the zoom bounds.
// Operations already queued keep their countdowns.
func (s *Scroller) SetPolicy(p Policy) error {
	if math.IsNaN(p.MinZoomFactor) || math.IsNaN(p.MaxZoomFactor) || p.MinZoomFactor > p.MaxZoomFactor {
		return opError("SetPolicy", "zoom bounds", ErrInvalidArgument)
	}
	_, end := s.begin()
	defer end()

	s.policy = p
	s.minZoom, s.maxZoom = p.MinZoomFactor, p.MaxZoomFactor
	if s.engine != nil {
		s.engine.SetScaleBounds(s.minZoom, s.maxZoom)
	}
	return nil
}

func validAnchorRatio(v float64) bool {
	return math.IsNaN(v) || (v >= 0 && v <= 1)
}

// SetHorizontalAnchorRatio sets the fraction of the viewport that stays
// over the same content when the horizontal extent changes. NaN disables
// anchoring.
func (s *Scroller) SetHorizontalAnchorRatio(v float64) error {
	if !validAnchorRatio(v) {
		return opError("SetHorizontalAnchorRatio", "value", ErrInvalidArgument)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hAnchor = v
	return nil
}

// SetVerticalAnchorRatio is the vertical counterpart of
// SetHorizontalAnchorRatio.
func (s *Scroller) SetVerticalAnchorRatio(v float64) error {
	if !validAnchorRatio(v) {
		return opError("SetVerticalAnchorRatio", "value", ErrInvalidArgument)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vAnchor = v
	return nil
}

// HorizontalSnapPoints returns the horizontal snap point set. Callers
// mutate it directly; resolution fixes ranges lazily.
func (s *Scroller) HorizontalSnapPoints() *snap.Set { return s.hSnap }

// VerticalSnapPoints returns the vertical snap point set.
func (s *Scroller) VerticalSnapPoints() *snap.Set { return s.vSnap }

// ZoomSnapPoints returns the zoom factor snap point set.
func (s *Scroller) ZoomSnapPoints() *snap.Set { return s.zoomSnap }

// nextID returns the next view change id. Ids wrap to zero after the
// largest int32.
func (s *Scroller) nextID() int32 {
	if s.nextViewChangeID == math.MaxInt32 {
		s.nextViewChangeID = 0
	} else {
		s.nextViewChangeID++
	}
	return s.nextViewChangeID
}
