package snap

import (
	"fmt"
	"sort"
)

// Set is an ordered collection of non-overlapping snap points for one axis
// or for the zoom factor.
//
// The consolidated zones are recomputed lazily: any mutation marks the set
// dirty and the next Resolve runs FixRanges first.
type Set struct {
	points   []*Point
	viewport float64
	dirty    bool
}

// NewSet creates an empty snap point set.
func NewSet() *Set {
	return &Set{}
}

// Len returns the number of consolidated points.
func (s *Set) Len() int {
	return len(s.points)
}

// Points returns the consolidated points in ascending order.
func (s *Set) Points() []*Point {
	s.ensureFixed()
	out := make([]*Point, len(s.points))
	copy(out, s.points)
	return out
}

// Insert adds p to the set. A point equal to an existing one is fused into
// it instead of being stored twice. Repeated ranges may not overlap each
// other and may not contain an irregular point.
func (s *Set) Insert(p *Point) error {
	if p == nil {
		return fmt.Errorf("%w: nil point", ErrInvalidSnapPoint)
	}

	p.updateAdjustment(s.viewport)
	for _, existing := range s.points {
		if existing.equals(p) {
			existing.combine(p)
			s.dirty = true
			return nil
		}
	}

	if err := s.checkOverlap(p); err != nil {
		return err
	}

	key := p.key()
	i := sort.Search(len(s.points), func(i int) bool {
		return key.less(s.points[i].key())
	})
	s.points = append(s.points, nil)
	copy(s.points[i+1:], s.points[i:])
	s.points[i] = p
	s.dirty = true
	return nil
}

// Remove deletes p from the set and reports whether it was present.
func (s *Set) Remove(p *Point) bool {
	for i, existing := range s.points {
		if existing == p {
			s.points = append(s.points[:i], s.points[i+1:]...)
			s.dirty = true
			return true
		}
	}
	return false
}

// Clear removes all points.
func (s *Set) Clear() {
	s.points = nil
	s.dirty = true
}

// SetViewport updates the viewport size used for alignment adjustments.
func (s *Set) SetViewport(viewport float64) {
	if s.viewport == viewport {
		return
	}
	s.viewport = viewport
	s.dirty = true
}

// FixRanges recomputes the actual applicable zone of every point from its
// configured range and its immediate neighbors.
func (s *Set) FixRanges() {
	for _, p := range s.points {
		p.updateAdjustment(s.viewport)
	}
	sort.SliceStable(s.points, func(i, j int) bool {
		return s.points[i].key().less(s.points[j].key())
	})

	for i, p := range s.points {
		var prev, next *Point
		if i > 0 {
			prev = s.points[i-1]
		}
		if i+1 < len(s.points) {
			next = s.points[i+1]
		}
		p.fixZone(prev, next)
	}
	s.dirty = false
}

// Resolve returns the snapped value for v, or v itself when no zone
// contains it. The first zone containing v in ascending order wins.
func (s *Set) Resolve(v float64) float64 {
	s.ensureFixed()
	for _, p := range s.points {
		if p.zone.Contains(v) {
			return p.evaluate(v)
		}
	}
	return v
}

func (s *Set) ensureFixed() {
	if s.dirty {
		s.FixRanges()
	}
}

func (s *Set) checkOverlap(p *Point) error {
	for _, existing := range s.points {
		existing.updateAdjustment(s.viewport)
		switch {
		case p.kind == Repeated && existing.kind == Repeated:
			if p.actualStart() < existing.actualEnd() && existing.actualStart() < p.actualEnd() {
				return fmt.Errorf("%w: %s and %s", ErrOverlappingSnapPoints, p, existing)
			}
		case p.kind == Repeated:
			v := existing.ActualValue()
			if v > p.actualStart() && v < p.actualEnd() {
				return fmt.Errorf("%w: %s contains %s", ErrOverlappingSnapPoints, p, existing)
			}
		case existing.kind == Repeated:
			v := p.ActualValue()
			if v > existing.actualStart() && v < existing.actualEnd() {
				return fmt.Errorf("%w: %s contains %s", ErrOverlappingSnapPoints, existing, p)
			}
		}
	}
	return nil
}
