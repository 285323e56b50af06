package segment

import (
	"errors"
	"fmt"
	"sort"

	"github.com/banshee-data/myrmidon/internal/chrono"
)

var (
	// ErrNotFound is returned when a query precedes every indexed segment.
	ErrNotFound = errors.New("segment not found")
	// ErrInconsistentOrdering is returned when an insert would make the
	// frame order and the time order of the index disagree.
	ErrInconsistentOrdering = errors.New("inconsistent segment ordering")
)

// Entry is one indexed segment.
type Entry[T any] struct {
	FrameID uint64
	Time    chrono.Time
	Value   T
}

// Index maps the first frame of each segment to its payload. The zero
// value is an empty index ready for use.
type Index[T any] struct {
	entries []Entry[T]
}

// New returns an empty index with room for n segments.
func New[T any](n int) *Index[T] {
	return &Index[T]{entries: make([]Entry[T], 0, n)}
}

// framePos returns the number of entries with FrameID <= frameID.
func (idx *Index[T]) framePos(frameID uint64) int {
	return sort.Search(len(idx.entries), func(i int) bool {
		return idx.entries[i].FrameID > frameID
	})
}

// timePos returns the number of entries with Time <= t.
func (idx *Index[T]) timePos(t chrono.Time) int {
	return sort.Search(len(idx.entries), func(i int) bool {
		return idx.entries[i].Time.After(t)
	})
}

// Insert adds a segment starting at frameID and t. It fails with
// ErrInconsistentOrdering if the frame ID or time is already indexed, or
// if the segment would sit at different positions in frame and time
// order.
func (idx *Index[T]) Insert(frameID uint64, t chrono.Time, value T) error {
	fp := idx.framePos(frameID)
	tp := idx.timePos(t)
	if fp > 0 && idx.entries[fp-1].FrameID == frameID {
		return fmt.Errorf("frame %d already indexed: %w", frameID, ErrInconsistentOrdering)
	}
	if tp > 0 && idx.entries[tp-1].Time.Equals(t) {
		return fmt.Errorf("time %s already indexed: %w", t, ErrInconsistentOrdering)
	}
	if fp != tp {
		return fmt.Errorf("frame %d at %s: predecessor by frame is #%d, by time is #%d: %w",
			frameID, t, fp-1, tp-1, ErrInconsistentOrdering)
	}
	idx.entries = append(idx.entries, Entry[T]{})
	copy(idx.entries[fp+1:], idx.entries[fp:])
	idx.entries[fp] = Entry[T]{FrameID: frameID, Time: t, Value: value}
	return nil
}

// FindByFrame returns the segment with the largest FrameID not above
// frameID.
func (idx *Index[T]) FindByFrame(frameID uint64) (Entry[T], error) {
	p := idx.framePos(frameID)
	if p == 0 {
		return Entry[T]{}, fmt.Errorf("frame %d: %w", frameID, ErrNotFound)
	}
	return idx.entries[p-1], nil
}

// FindByTime returns the segment with the latest Time not after t.
func (idx *Index[T]) FindByTime(t chrono.Time) (Entry[T], error) {
	p := idx.timePos(t)
	if p == 0 {
		return Entry[T]{}, fmt.Errorf("time %s: %w", t, ErrNotFound)
	}
	return idx.entries[p-1], nil
}

// Find is FindByFrame returning only the payload.
func (idx *Index[T]) Find(frameID uint64) (T, error) {
	e, err := idx.FindByFrame(frameID)
	return e.Value, err
}

// FindTime is FindByTime returning only the payload.
func (idx *Index[T]) FindTime(t chrono.Time) (T, error) {
	e, err := idx.FindByTime(t)
	return e.Value, err
}

// Segments returns the indexed segments in ascending order. The slice is
// a copy.
func (idx *Index[T]) Segments() []Entry[T] {
	res := make([]Entry[T], len(idx.entries))
	copy(res, idx.entries)
	return res
}

// Len returns the number of indexed segments.
func (idx *Index[T]) Len() int { return len(idx.entries) }
