// Package validity provides half-open time intervals and the algorithms
// keeping collections of them disjoint.
//
// Responsibilities: interval membership, overlap detection over a sorted
// collection, and the nearest invalid boundaries around an instant.
// Key types: Interval, Bounded.
//
// A nil Start stands for −∞ and a nil End for +∞. The range is
// [Start, End): an interval ending exactly where another starts does
// not overlap it.
package validity
