// Package snap implements snap points and the ordered sets that resolve
// candidate offsets or zoom factors to their snapped values.
//
// A snap point owns an applicable zone: every candidate value inside the
// zone resolves to the point. Mandatory points grow their zone until it
// meets the neighbors, optional points only capture values within their
// configured applicable range.
package snap

import (
	"errors"
	"fmt"
	"math"
)

// Errors returned when building snap points.
var (
	ErrInvalidSnapPoint      = errors.New("invalid snap point")
	ErrOverlappingSnapPoints = errors.New("overlapping snap points")
)

// Kind distinguishes single-value points from repeated grids.
type Kind int

const (
	// Irregular is a single snap value.
	Irregular Kind = iota

	// Repeated is a grid of values spaced by an interval within a range.
	Repeated
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case Irregular:
		return "irregular"
	case Repeated:
		return "repeated"
	default:
		return "unknown"
	}
}

// Alignment selects which viewport edge a scroll snap point aligns to.
type Alignment int

const (
	// AlignNear aligns the value with the viewport start.
	AlignNear Alignment = iota

	// AlignCenter aligns the value with the viewport center.
	AlignCenter

	// AlignFar aligns the value with the viewport end.
	AlignFar
)

// String returns the alignment name.
func (a Alignment) String() string {
	switch a {
	case AlignNear:
		return "near"
	case AlignCenter:
		return "center"
	case AlignFar:
		return "far"
	default:
		return "unknown"
	}
}

// Zone is the closed interval of candidate values captured by a point.
type Zone struct {
	Min float64
	Max float64
}

// Contains reports whether v lies within the zone.
func (z Zone) Contains(v float64) bool {
	return z.Min <= v && v <= z.Max
}

// Point is a snap point. Points are created through NewPoint or
// NewRepeatedPoint and become immutable once inserted into a Set.
type Point struct {
	kind Kind

	// Irregular
	value float64

	// Repeated
	offset   float64
	interval float64
	start    float64
	end      float64

	// +Inf for mandatory points
	applicableRange float64

	alignment  Alignment
	adjustment float64

	combinationCount int
	zone             Zone
}

// PointOption configures a Point.
type PointOption func(*Point)

// WithAlignment sets the viewport alignment of the point.
func WithAlignment(a Alignment) PointOption {
	return func(p *Point) {
		p.alignment = a
	}
}

// WithApplicableRange makes the point optional: only values within r of
// the point are captured.
func WithApplicableRange(r float64) PointOption {
	return func(p *Point) {
		p.applicableRange = r
	}
}

// NewPoint creates an irregular snap point. Without WithApplicableRange the
// point is mandatory.
func NewPoint(value float64, opts ...PointOption) (*Point, error) {
	p := &Point{
		kind:             Irregular,
		value:            value,
		applicableRange:  math.Inf(1),
		combinationCount: 1,
	}
	for _, opt := range opts {
		opt(p)
	}

	if math.IsNaN(value) || math.IsInf(value, 0) {
		return nil, fmt.Errorf("%w: value %v", ErrInvalidSnapPoint, value)
	}
	if err := p.validateRange(); err != nil {
		return nil, err
	}
	return p, nil
}

// NewRepeatedPoint creates a repeated snap point. Snap values are
// offset + k*interval for every integer k that keeps the value inside
// [start, end].
func NewRepeatedPoint(offset, interval, start, end float64, opts ...PointOption) (*Point, error) {
	p := &Point{
		kind:             Repeated,
		offset:           offset,
		interval:         interval,
		start:            start,
		end:              end,
		applicableRange:  math.Inf(1),
		combinationCount: 1,
	}
	for _, opt := range opts {
		opt(p)
	}

	for _, v := range []float64{offset, interval, start, end} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: non-finite repeated point parameter", ErrInvalidSnapPoint)
		}
	}
	if interval <= 0 {
		return nil, fmt.Errorf("%w: interval must be positive", ErrInvalidSnapPoint)
	}
	if end <= start {
		return nil, fmt.Errorf("%w: end must exceed start", ErrInvalidSnapPoint)
	}
	if offset < start || offset > end {
		return nil, fmt.Errorf("%w: offset outside [start, end]", ErrInvalidSnapPoint)
	}
	if err := p.validateRange(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Point) validateRange() error {
	r := p.applicableRange
	if math.IsNaN(r) || r <= 0 {
		return fmt.Errorf("%w: applicable range %v", ErrInvalidSnapPoint, r)
	}
	return nil
}

// Kind returns the point kind.
func (p *Point) Kind() Kind { return p.kind }

// Value returns the configured value of an irregular point.
func (p *Point) Value() float64 { return p.value }

// Alignment returns the viewport alignment.
func (p *Point) Alignment() Alignment { return p.alignment }

// ApplicableRange returns the configured range, +Inf for mandatory points.
func (p *Point) ApplicableRange() float64 { return p.applicableRange }

// IsOptional reports whether the point only captures values within its range.
func (p *Point) IsOptional() bool { return !math.IsInf(p.applicableRange, 1) }

// CombinationCount returns how many equal points were fused into this one.
func (p *Point) CombinationCount() int { return p.combinationCount }

// Zone returns the actual applicable zone computed by the last FixRanges.
func (p *Point) Zone() Zone { return p.zone }

// ActualValue returns the value after the viewport alignment adjustment.
// For repeated points it returns the adjusted offset.
func (p *Point) ActualValue() float64 {
	if p.kind == Repeated {
		return p.offset + p.adjustment
	}
	return p.value + p.adjustment
}

func (p *Point) actualStart() float64 { return p.start + p.adjustment }
func (p *Point) actualEnd() float64   { return p.end + p.adjustment }

// updateAdjustment recomputes the alignment adjustment for a viewport size.
func (p *Point) updateAdjustment(viewport float64) {
	switch p.alignment {
	case AlignCenter:
		p.adjustment = -viewport / 2
	case AlignFar:
		p.adjustment = -viewport
	default:
		p.adjustment = 0
	}
}

// sortKey orders points: irregular by value, repeated by their range.
type sortKey struct {
	primary   float64
	secondary float64
	tertiary  int
}

func (p *Point) key() sortKey {
	if p.kind == Repeated {
		return sortKey{p.actualStart(), p.actualEnd(), 1}
	}
	v := p.ActualValue()
	return sortKey{v, v, 0}
}

func (k sortKey) less(o sortKey) bool {
	if k.primary != o.primary {
		return k.primary < o.primary
	}
	if k.secondary != o.secondary {
		return k.secondary < o.secondary
	}
	return k.tertiary < o.tertiary
}

// equalityEpsilon is the tolerance within which two points fuse.
const equalityEpsilon = 1e-5

func near(a, b float64) bool {
	return math.Abs(a-b) <= equalityEpsilon
}

// equals reports whether two points share the same anchor, up to
// equalityEpsilon, and fuse instead of coexisting in a set. Both points
// must carry the adjustment for the same viewport.
func (p *Point) equals(o *Point) bool {
	if p.kind != o.kind || p.alignment != o.alignment || p.IsOptional() != o.IsOptional() {
		return false
	}
	pk, qk := p.key(), o.key()
	if !near(pk.primary, qk.primary) || !near(pk.secondary, qk.secondary) || pk.tertiary != qk.tertiary {
		return false
	}
	if p.kind == Repeated {
		return near(p.offset, o.offset) && near(p.interval, o.interval)
	}
	return true
}

// combine fuses an equal point into p.
func (p *Point) combine(o *Point) {
	p.combinationCount++
	if p.IsOptional() {
		p.applicableRange = math.Max(p.applicableRange, o.applicableRange)
	}
}

// influence returns the edge of p's zone facing a neighbor located at edge.
func (p *Point) influence(edge float64) float64 {
	if p.kind == Repeated {
		start, end := p.actualStart(), p.actualEnd()
		if edge <= start {
			return start
		}
		if edge >= end {
			return end
		}
		if edge-start < end-edge {
			return start
		}
		return end
	}

	v := p.ActualValue()
	mid := (v + edge) / 2
	if !p.IsOptional() {
		return mid
	}
	if v <= edge {
		return math.Min(v+p.applicableRange, mid)
	}
	return math.Max(v-p.applicableRange, mid)
}

// fixZone computes the actual zone given the neighbors, either of which
// may be nil.
func (p *Point) fixZone(prev, next *Point) {
	if p.kind == Repeated {
		p.zone = Zone{Min: p.actualStart(), Max: p.actualEnd()}
		return
	}

	v := p.ActualValue()
	r := p.applicableRange
	optional := p.IsOptional()

	switch {
	case prev == nil && optional:
		p.zone.Min = v - r
	case prev == nil:
		p.zone.Min = math.Inf(-1)
	case optional:
		p.zone.Min = math.Max(prev.influence(v), v-r)
	default:
		p.zone.Min = prev.influence(v)
	}

	switch {
	case next == nil && optional:
		p.zone.Max = v + r
	case next == nil:
		p.zone.Max = math.Inf(1)
	case optional:
		p.zone.Max = math.Min(next.influence(v), v+r)
	default:
		p.zone.Max = next.influence(v)
	}
}

// evaluate maps a candidate inside the zone to the snapped value.
func (p *Point) evaluate(v float64) float64 {
	if p.kind == Irregular {
		return p.ActualValue()
	}

	start, end := p.actualStart(), p.actualEnd()
	if v < start || v > end {
		return v
	}

	base := p.ActualValue()
	prev := base + math.Floor((v-base)/p.interval)*p.interval
	next := prev + p.interval

	candidate := prev
	if prev < start || (next <= end && next-v < v-prev) {
		candidate = next
	}
	if candidate > end {
		candidate = prev
	}
	if math.Abs(candidate-v) <= p.applicableRange {
		return candidate
	}
	return v
}

// String returns a short description of the point.
func (p *Point) String() string {
	if p.kind == Repeated {
		return fmt.Sprintf("repeated(%g+%g*k in [%g, %g], %s)", p.offset, p.interval, p.start, p.end, p.alignment)
	}
	return fmt.Sprintf("irregular(%g, %s)", p.value, p.alignment)
}
