package domain

import "time"

// Time is an observation's phenomenon time: an instant when Begin equals End,
// otherwise a period.
type Time struct {
	Begin time.Time
	End   time.Time
}

// TimeKey is the comparable, ordered identity of a Time. Two observations with
// equal keys fall into the same time bucket.
type TimeKey struct {
	Begin int64
	End   int64
}

// Instant builds an instant time.
func Instant(t time.Time) Time {
	t = t.UTC()
	return Time{Begin: t, End: t}
}

// Period builds a period time.
func Period(begin, end time.Time) Time {
	return Time{Begin: begin.UTC(), End: end.UTC()}
}

// IsInstant reports whether the time has no extent.
func (t Time) IsInstant() bool {
	return t.Begin.Equal(t.End)
}

// Key returns the grouping key.
func (t Time) Key() TimeKey {
	return TimeKey{Begin: t.Begin.UnixNano(), End: t.End.UnixNano()}
}

// Less orders keys by begin, then end.
func (k TimeKey) Less(o TimeKey) bool {
	if k.Begin != o.Begin {
		return k.Begin < o.Begin
	}
	return k.End < o.End
}
