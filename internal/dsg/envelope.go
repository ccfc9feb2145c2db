package dsg

import (
	"time"

	"github.com/couchcryptid/storm-data-dsg/internal/domain"
	"github.com/paulmach/orb"
)

// Envelope is a horizontal bounding box that only ever grows.
type Envelope struct {
	bound orb.Bound
	valid bool
}

// ExpandToPoint grows the envelope to include p.
func (e *Envelope) ExpandToPoint(p orb.Point) {
	if !e.valid {
		e.bound = p.Bound()
		e.valid = true
		return
	}
	e.bound = e.bound.Extend(p)
}

// ExpandToBound grows the envelope to include b.
func (e *Envelope) ExpandToBound(b orb.Bound) {
	if !e.valid {
		e.bound = b
		e.valid = true
		return
	}
	e.bound = e.bound.Union(b)
}

// Bound returns the box; ok is false when nothing has been added.
func (e Envelope) Bound() (orb.Bound, bool) {
	return e.bound, e.valid
}

// IsEmpty reports whether nothing has been added.
func (e Envelope) IsEmpty() bool {
	return !e.valid
}

// TimeSpan is the merged extent of a set of phenomenon times.
type TimeSpan struct {
	Begin time.Time
	End   time.Time
	valid bool
}

// Extend grows the span to cover t.
func (s *TimeSpan) Extend(t domain.Time) {
	if !s.valid {
		s.Begin, s.End, s.valid = t.Begin, t.End, true
		return
	}
	if t.Begin.Before(s.Begin) {
		s.Begin = t.Begin
	}
	if t.End.After(s.End) {
		s.End = t.End
	}
}

// IsEmpty reports whether no time has been added.
func (s TimeSpan) IsEmpty() bool {
	return !s.valid
}
