package chrono

import (
	"errors"
	"fmt"
	"math"
	"time"
)

var (
	// ErrParse is returned when a time or duration string is malformed.
	ErrParse = errors.New("parse error")
	// ErrOverflow is returned when an arithmetic result cannot be represented.
	ErrOverflow = errors.New("overflow")
	// ErrClockConstruction is returned when a Time cannot be built from
	// the given clock readings.
	ErrClockConstruction = errors.New("invalid clock reading")
)

// Duration is a signed amount of nanoseconds.
type Duration int64

// Common durations.
const (
	Nanosecond  Duration = 1
	Microsecond          = 1000 * Nanosecond
	Millisecond          = 1000 * Microsecond
	Second               = 1000 * Millisecond
	Minute               = 60 * Second
	Hour                 = 60 * Minute
)

// Largest and smallest representable durations. Saturating arithmetic
// clamps to these.
const (
	MaxDuration Duration = math.MaxInt64
	MinDuration Duration = math.MinInt64
)

// Of returns n units of unit, failing instead of wrapping around.
//
//	d, err := chrono.Of(90, chrono.Minute)
func Of(n int64, unit Duration) (Duration, error) {
	return unit.Mul(n)
}

// Mul multiplies d by n and reports ErrOverflow if the product does not
// fit in 64 bits.
func (d Duration) Mul(n int64) (Duration, error) {
	if d == 0 || n == 0 {
		return 0, nil
	}
	p := int64(d) * n
	if p/n != int64(d) || (n == -1 && d == MinDuration) || (d == -1 && n == math.MinInt64) {
		return 0, fmt.Errorf("%d * %s: %w", n, d, ErrOverflow)
	}
	return Duration(p), nil
}

// SaturatingAdd returns d+o clamped to [MinDuration, MaxDuration].
func (d Duration) SaturatingAdd(o Duration) Duration {
	s := d + o
	if o > 0 && s < d {
		return MaxDuration
	}
	if o < 0 && s > d {
		return MinDuration
	}
	return s
}

// Nanoseconds returns the duration as an integer nanosecond count.
func (d Duration) Nanoseconds() int64 { return int64(d) }

// Microseconds returns the duration as a floating point number of microseconds.
func (d Duration) Microseconds() float64 { return float64(d) / float64(Microsecond) }

// Milliseconds returns the duration as a floating point number of milliseconds.
func (d Duration) Milliseconds() float64 { return float64(d) / float64(Millisecond) }

// Seconds returns the duration as a floating point number of seconds.
func (d Duration) Seconds() float64 { return float64(d) / float64(Second) }

// Minutes returns the duration as a floating point number of minutes.
func (d Duration) Minutes() float64 { return float64(d) / float64(Minute) }

// Hours returns the duration as a floating point number of hours.
func (d Duration) Hours() float64 { return float64(d) / float64(Hour) }

// Std converts to a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// String formats the duration as "1h2m3.4s", the same layout as
// time.Duration.
func (d Duration) String() string {
	return time.Duration(d).String()
}

// ParseDuration parses strings such as "300ms", "-1.5h" or "2h45m".
// Valid units are "ns", "us" (or "µs"/"μs"), "ms", "s", "m", "h".
func ParseDuration(s string) (Duration, error) {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("duration %q: %w", s, errors.Join(ErrParse, err))
	}
	return Duration(d), nil
}
