package chrono

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/banshee-data/myrmidon/internal/timeutil"
	"google.golang.org/protobuf/types/known/timestamppb"
)

// MonoclockID designates the monotonic clock a reading comes from.
type MonoclockID uint32

// SystemMonotonicClock is reserved for the clock of the running process,
// the one used by Now. Recorded data must use any other value, unique
// per recording session.
const SystemMonotonicClock MonoclockID = 0

const nanosPerSecond = int64(time.Second)

// infinity markers
const (
	finite    int8 = 0
	sinceEver int8 = -1
	forever   int8 = 1
)

// Time is a point in time. The zero value is the Unix epoch without a
// monotonic reading.
type Time struct {
	wallSec  int64
	wallNsec int32
	mono     uint64
	monoID   MonoclockID
	hasMono  bool
	inf      int8
}

var clock timeutil.Clock = timeutil.RealClock{}

// SetClock replaces the clock used by Now. Passing nil restores the real
// clock.
func SetClock(c timeutil.Clock) {
	if c == nil {
		clock = timeutil.RealClock{}
		return
	}
	clock = c
}

// Now returns the current wall time together with a reading of the
// process monotonic clock (SystemMonotonicClock).
func Now() Time {
	w := clock.Now()
	return Time{
		wallSec:  w.Unix(),
		wallNsec: int32(w.Nanosecond()),
		mono:     clock.Monotonic(),
		monoID:   SystemMonotonicClock,
		hasMono:  true,
	}
}

// SinceEver returns the −∞ sentinel.
func SinceEver() Time { return Time{inf: sinceEver} }

// Forever returns the +∞ sentinel.
func Forever() Time { return Time{inf: forever} }

// FromUnix builds a wall-only Time from seconds and nanoseconds since the
// Unix epoch. nsec may be outside [0, 1e9) and is normalised.
func FromUnix(sec int64, nsec int64) Time {
	sec += nsec / nanosPerSecond
	nsec %= nanosPerSecond
	if nsec < 0 {
		nsec += nanosPerSecond
		sec--
	}
	return Time{wallSec: sec, wallNsec: int32(nsec)}
}

// FromTime builds a wall-only Time from a time.Time. The monotonic
// reading of t, if any, is discarded: it cannot be tagged with a clock.
func FromTime(t time.Time) Time {
	return Time{wallSec: t.Unix(), wallNsec: int32(t.Nanosecond())}
}

// FromTimestamp builds a wall-only Time from a protobuf Timestamp.
func FromTimestamp(ts *timestamppb.Timestamp) (Time, error) {
	if err := ts.CheckValid(); err != nil {
		return Time{}, fmt.Errorf("%w: %v", ErrClockConstruction, err)
	}
	return Time{wallSec: ts.GetSeconds(), wallNsec: ts.GetNanos()}, nil
}

// FromTimestampAndMonotonic builds a Time from a recorded wall timestamp
// and the reading of an external monotonic clock identified by id.
// Readings above math.MaxInt64 nanoseconds cannot be split into signed
// (sec, nsec) pairs and are rejected with ErrClockConstruction.
func FromTimestampAndMonotonic(ts *timestamppb.Timestamp, monoNanos uint64, id MonoclockID) (Time, error) {
	res, err := FromTimestamp(ts)
	if err != nil {
		return Time{}, err
	}
	return res.withMono(monoNanos, id)
}

// FromTimeAndMonotonic is FromTimestampAndMonotonic for a time.Time wall
// reading.
func FromTimeAndMonotonic(wall time.Time, monoNanos uint64, id MonoclockID) (Time, error) {
	return FromTime(wall).withMono(monoNanos, id)
}

func (t Time) withMono(monoNanos uint64, id MonoclockID) (Time, error) {
	if monoNanos > math.MaxInt64 {
		return Time{}, fmt.Errorf("%w: monotonic value %d ns overflows (sec,nsec) decomposition",
			ErrClockConstruction, monoNanos)
	}
	t.mono = monoNanos
	t.monoID = id
	t.hasMono = true
	return t, nil
}

// Parse parses an RFC 3339 date such as "2019-11-02T23:56:23.123Z". The
// strings "-∞", "-inf", "+∞" and "+inf" yield the sentinels.
func Parse(s string) (Time, error) {
	switch strings.TrimSpace(s) {
	case "-∞", "-inf":
		return SinceEver(), nil
	case "+∞", "+inf":
		return Forever(), nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return Time{}, fmt.Errorf("time %q: %w: %v", s, ErrParse, err)
	}
	return FromTime(t), nil
}

// MustParse is Parse that panics on error. Intended for tests and
// constant tables.
func MustParse(s string) Time {
	t, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return t
}

// IsSinceEver reports whether t is −∞.
func (t Time) IsSinceEver() bool { return t.inf == sinceEver }

// IsForever reports whether t is +∞.
func (t Time) IsForever() bool { return t.inf == forever }

// IsInfinite reports whether t is one of the sentinels.
func (t Time) IsInfinite() bool { return t.inf != finite }

// WallSeconds returns the seconds part of the wall reading.
func (t Time) WallSeconds() int64 { return t.wallSec }

// WallNanos returns the nanoseconds part of the wall reading, in [0, 1e9).
func (t Time) WallNanos() int32 { return t.wallNsec }

// HasMono reports whether t carries a monotonic reading.
func (t Time) HasMono() bool { return t.hasMono }

// MonoID returns the clock of the monotonic reading. Only meaningful when
// HasMono is true.
func (t Time) MonoID() MonoclockID { return t.monoID }

// MonotonicValue returns the monotonic reading in nanoseconds. Only
// meaningful when HasMono is true.
func (t Time) MonotonicValue() uint64 { return t.mono }

// StripMono returns t without its monotonic reading.
func (t Time) StripMono() Time {
	t.mono, t.monoID, t.hasMono = 0, 0, false
	return t
}

// monoComparable is the single rule deciding which clock is used.
func (t Time) monoComparable(u Time) bool {
	return t.hasMono && u.hasMono && t.monoID == u.monoID
}

// Sub returns t−u. When both values carry a monotonic reading of the
// same clock the difference comes from the monotonic readings and is
// immune to wall clock jumps; otherwise it comes from the wall readings.
// Results saturate at MinDuration/MaxDuration, including for sentinels.
func (t Time) Sub(u Time) Duration {
	if t.inf != finite || u.inf != finite {
		switch {
		case t.inf == u.inf:
			return 0
		case t.inf == forever || u.inf == sinceEver:
			return MaxDuration
		default:
			return MinDuration
		}
	}
	if t.monoComparable(u) {
		if t.mono >= u.mono {
			return Duration(t.mono - u.mono)
		}
		return -Duration(u.mono - t.mono)
	}
	return wallDiff(t.wallSec, t.wallNsec, u.wallSec, u.wallNsec)
}

func wallDiff(as int64, an int32, bs int64, bn int32) Duration {
	sec := as - bs
	if (bs < 0 && sec < as) || (bs > 0 && sec > as) {
		if as > bs {
			return MaxDuration
		}
		return MinDuration
	}
	const maxSec = math.MaxInt64 / nanosPerSecond
	if sec > maxSec+1 {
		return MaxDuration
	}
	if sec < -maxSec-1 {
		return MinDuration
	}
	return Duration(sec).saturatingMul(nanosPerSecond).SaturatingAdd(Duration(int64(an) - int64(bn)))
}

func (d Duration) saturatingMul(n int64) Duration {
	p, err := d.Mul(n)
	if err == nil {
		return p
	}
	if (d < 0) != (n < 0) {
		return MinDuration
	}
	return MaxDuration
}

// Add returns t+d. The monotonic reading shifts by the same amount and is
// dropped if it would leave [0, math.MaxInt64]. Sentinels are returned
// unchanged; a finite result beyond the int64 second range saturates to
// the matching sentinel.
func (t Time) Add(d Duration) Time {
	if t.inf != finite {
		return t
	}
	sec := int64(d) / nanosPerSecond
	nsec := int64(t.wallNsec) + int64(d)%nanosPerSecond
	if nsec >= nanosPerSecond {
		nsec -= nanosPerSecond
		sec++
	} else if nsec < 0 {
		nsec += nanosPerSecond
		sec--
	}
	wall := t.wallSec + sec
	if sec > 0 && wall < t.wallSec {
		return Forever()
	}
	if sec < 0 && wall > t.wallSec {
		return SinceEver()
	}
	res := Time{wallSec: wall, wallNsec: int32(nsec)}
	if t.hasMono {
		m := int64(t.mono) + int64(d)
		if (d > 0 && m >= int64(t.mono)) || (d <= 0 && m >= 0 && m <= int64(t.mono)) {
			res.mono, res.monoID, res.hasMono = uint64(m), t.monoID, true
		}
	}
	return res
}

// Before reports whether t is strictly before u.
func (t Time) Before(u Time) bool {
	if t.inf != u.inf {
		return t.inf < u.inf
	}
	if t.inf != finite {
		return false
	}
	if t.monoComparable(u) {
		return t.mono < u.mono
	}
	if t.wallSec != u.wallSec {
		return t.wallSec < u.wallSec
	}
	return t.wallNsec < u.wallNsec
}

// After reports whether t is strictly after u.
func (t Time) After(u Time) bool {
	return u.Before(t)
}

// Equals reports whether t and u denote the same instant, using the same
// clock selection rule as Sub.
func (t Time) Equals(u Time) bool {
	if t.inf != u.inf {
		return false
	}
	if t.inf != finite {
		return true
	}
	if t.monoComparable(u) {
		return t.mono == u.mono
	}
	return t.wallSec == u.wallSec && t.wallNsec == u.wallNsec
}

// Compare returns -1, 0 or +1 when t is before, equal to or after u.
func (t Time) Compare(u Time) int {
	switch {
	case t.Before(u):
		return -1
	case t.After(u):
		return 1
	default:
		return 0
	}
}

// Round returns the wall time rounded to the nearest multiple of d since
// the zero time, without monotonic reading. Halfway values round up.
// Sentinels and d <= 0 only strip the monotonic reading.
func (t Time) Round(d Duration) Time {
	t = t.StripMono()
	if t.inf != finite || d <= 0 {
		return t
	}
	return FromTime(t.std().Round(time.Duration(d)))
}

// Reminder returns the wall clock difference between t and t.Round(d).
func (t Time) Reminder(d Duration) Duration {
	if t.inf != finite {
		return 0
	}
	return t.StripMono().Sub(t.Round(d))
}

// Truncate returns the wall time rounded down to a multiple of d.
func (t Time) Truncate(d Duration) Time {
	t = t.StripMono()
	if t.inf != finite || d <= 0 {
		return t
	}
	return FromTime(t.std().Truncate(time.Duration(d)))
}

func (t Time) std() time.Time {
	return time.Unix(t.wallSec, int64(t.wallNsec)).UTC()
}

// ToTime converts a finite Time to a UTC time.Time.
func (t Time) ToTime() (time.Time, error) {
	if t.inf != finite {
		return time.Time{}, fmt.Errorf("%s: %w", t, ErrOverflow)
	}
	return t.std(), nil
}

// ToTimestamp converts a finite Time to a protobuf Timestamp.
func (t Time) ToTimestamp() (*timestamppb.Timestamp, error) {
	if t.inf != finite {
		return nil, fmt.Errorf("%s: %w", t, ErrOverflow)
	}
	return &timestamppb.Timestamp{Seconds: t.wallSec, Nanos: t.wallNsec}, nil
}

// String formats t as RFC 3339 with nanoseconds, in UTC.
func (t Time) String() string {
	switch t.inf {
	case sinceEver:
		return "-∞"
	case forever:
		return "+∞"
	}
	return t.std().Format(time.RFC3339Nano)
}

// DebugString formats t with its monotonic reading, if any.
func (t Time) DebugString() string {
	if !t.hasMono {
		return t.String() + " (no mono)"
	}
	return fmt.Sprintf("%s (mono %d:%d)", t.String(), t.monoID, t.mono)
}

// MarshalText implements encoding.TextMarshaler. The monotonic reading is
// not encoded.
func (t Time) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Time) UnmarshalText(b []byte) error {
	res, err := Parse(string(b))
	if err != nil {
		return err
	}
	*t = res
	return nil
}
