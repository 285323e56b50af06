// Package chrono owns the time representation of the tracking data model.
//
// Responsibilities: a Time value carrying both a wall clock reading and an
// optional monotonic reading tagged by the clock that produced it, the
// ±∞ sentinels used by validity intervals, and a nanosecond Duration with
// overflow-checked construction.
// Key types: Time, Duration, MonoclockID.
//
// Two Time values are compared or subtracted through their monotonic
// readings only when both carry one from the same MonoclockID. Any other
// combination falls back to the wall clock. Frames recorded by a
// framegrabber keep their hardware monotonic stamp, so differences
// between frames of the same recording survive wall clock resets.
//
// Dependency rule: chrono depends only on timeutil and the protobuf
// well-known Timestamp type. No I/O, no logging.
package chrono
