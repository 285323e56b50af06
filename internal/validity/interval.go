package validity

import (
	"errors"
	"fmt"
	"slices"

	"github.com/banshee-data/myrmidon/internal/chrono"
)

var (
	// ErrPrecondition is returned when a caller breaks the contract of a
	// query, for instance asking for the invalid bounds of a valid time.
	ErrPrecondition = errors.New("precondition violated")
	// ErrOverlap is returned when two intervals of a collection that must
	// stay disjoint would overlap.
	ErrOverlap = errors.New("overlapping validity intervals")
	// ErrEmptyInterval is returned when an interval does not end after it
	// starts.
	ErrEmptyInterval = errors.New("empty validity interval")
)

// Interval is a half-open [Start, End) range of time. Nil bounds are
// unbounded.
type Interval struct {
	Start *chrono.Time
	End   *chrono.Time
}

// Always is valid at any time.
var Always = Interval{}

// Between returns the interval [start, end). The sentinels SinceEver and
// Forever map to nil bounds.
func Between(start, end chrono.Time) Interval {
	var res Interval
	if !start.IsInfinite() {
		res.Start = &start
	}
	if !end.IsInfinite() {
		res.End = &end
	}
	return res
}

// From returns [start, +∞).
func From(start chrono.Time) Interval {
	return Between(start, chrono.Forever())
}

// Until returns (−∞, end).
func Until(end chrono.Time) Interval {
	return Between(chrono.SinceEver(), end)
}

// StartOrSinceEver returns Start, or the −∞ sentinel when unbounded.
func (i Interval) StartOrSinceEver() chrono.Time {
	if i.Start == nil {
		return chrono.SinceEver()
	}
	return *i.Start
}

// Clone returns an interval whose bounds do not alias those of i.
func (i Interval) Clone() Interval {
	var res Interval
	if i.Start != nil {
		s := *i.Start
		res.Start = &s
	}
	if i.End != nil {
		e := *i.End
		res.End = &e
	}
	return res
}

// EndOrForever returns End, or the +∞ sentinel when unbounded.
func (i Interval) EndOrForever() chrono.Time {
	if i.End == nil {
		return chrono.Forever()
	}
	return *i.End
}

// IsValid reports whether t lies in [Start, End).
func (i Interval) IsValid(t chrono.Time) bool {
	if i.Start != nil && t.Before(*i.Start) {
		return false
	}
	if i.End != nil && !t.Before(*i.End) {
		return false
	}
	return true
}

// Check returns ErrEmptyInterval when both bounds are set and End is not
// after Start.
func (i Interval) Check() error {
	if i.Start != nil && i.End != nil && !i.End.After(*i.Start) {
		return fmt.Errorf("%s: %w", i, ErrEmptyInterval)
	}
	return nil
}

// Overlaps reports whether i and o share at least one instant.
func (i Interval) Overlaps(o Interval) bool {
	if i.End != nil && o.Start != nil && !i.End.After(*o.Start) {
		return false
	}
	if o.End != nil && i.Start != nil && !o.End.After(*i.Start) {
		return false
	}
	return true
}

// Equal reports whether both bounds are identical.
func (i Interval) Equal(o Interval) bool {
	return i.StartOrSinceEver().Equals(o.StartOrSinceEver()) &&
		i.EndOrForever().Equals(o.EndOrForever())
}

func (i Interval) String() string {
	return fmt.Sprintf("[%s;%s[", i.StartOrSinceEver(), i.EndOrForever())
}

// Bounded is anything carrying a validity interval.
type Bounded interface {
	Interval() Interval
}

// Interval lets a bare Interval be used where a Bounded is expected.
func (i Interval) Interval() Interval { return i }

func compareStart[T Bounded](a, b T) int {
	as, bs := a.Interval().Start, b.Interval().Start
	switch {
	case as == nil && bs == nil:
		return 0
	case as == nil:
		return -1
	case bs == nil:
		return 1
	}
	return as.Compare(*bs)
}

// SortAndCheckOverlap stably sorts items by start, unbounded starts
// first, and returns the indices of the first adjacent pair that
// overlaps. It returns (-1, -1) when the collection is disjoint.
func SortAndCheckOverlap[T Bounded](items []T) (int, int) {
	if len(items) < 2 {
		return -1, -1
	}
	slices.SortStableFunc(items, compareStart[T])
	for i := 1; i < len(items); i++ {
		prev, cur := items[i-1].Interval(), items[i].Interval()
		if cur.Start == nil || prev.End == nil || prev.End.After(*cur.Start) {
			return i - 1, i
		}
	}
	return -1, -1
}

// CheckOverlap is SortAndCheckOverlap reporting ErrOverlap with both
// offending intervals.
func CheckOverlap[T Bounded](items []T) error {
	i, j := SortAndCheckOverlap(items)
	if i < 0 {
		return nil
	}
	return fmt.Errorf("%s and %s: %w", items[i].Interval(), items[j].Interval(), ErrOverlap)
}

// UpperUnvalidBound returns the start of the first interval after t, or
// nil if t stays invalid until +∞. sorted must be ordered by start and
// disjoint, and t must be invalid for all of its elements.
func UpperUnvalidBound[T Bounded](t chrono.Time, sorted []T) (*chrono.Time, error) {
	for _, item := range sorted {
		iv := item.Interval()
		if iv.IsValid(t) {
			return nil, fmt.Errorf("%s is valid for %s: %w", t, iv, ErrPrecondition)
		}
		if iv.Start != nil && t.Before(*iv.Start) {
			res := *iv.Start
			return &res, nil
		}
	}
	return nil, nil
}

// LowerUnvalidBound returns the end of the last interval ending at or
// before t, or nil if t has been invalid since −∞. The same contract as
// UpperUnvalidBound applies.
func LowerUnvalidBound[T Bounded](t chrono.Time, sorted []T) (*chrono.Time, error) {
	for i := len(sorted) - 1; i >= 0; i-- {
		iv := sorted[i].Interval()
		if iv.IsValid(t) {
			return nil, fmt.Errorf("%s is valid for %s: %w", t, iv, ErrPrecondition)
		}
		if iv.End != nil && !t.Before(*iv.End) {
			res := *iv.End
			return &res, nil
		}
	}
	return nil, nil
}
