package chrono

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOf(t *testing.T) {
	t.Parallel()

	d, err := Of(90, Minute)
	require.NoError(t, err)
	assert.Equal(t, "1h30m0s", d.String())
	assert.InDelta(t, 1.5, d.Hours(), 1e-12)

	_, err = Of(1<<40, Hour)
	assert.ErrorIs(t, err, ErrOverflow)
}

func TestMulOverflow(t *testing.T) {
	t.Parallel()

	_, err := MaxDuration.Mul(2)
	assert.ErrorIs(t, err, ErrOverflow)
	_, err = MinDuration.Mul(-1)
	assert.ErrorIs(t, err, ErrOverflow)
	_, err = Duration(-1).Mul(-1 << 63)
	assert.ErrorIs(t, err, ErrOverflow)

	d, err := MaxDuration.Mul(-1)
	require.NoError(t, err)
	assert.Equal(t, -MaxDuration, d)
	d, err = Second.Mul(0)
	require.NoError(t, err)
	assert.Equal(t, Duration(0), d)
}

func TestSaturatingAdd(t *testing.T) {
	t.Parallel()

	assert.Equal(t, MaxDuration, MaxDuration.SaturatingAdd(1))
	assert.Equal(t, MinDuration, MinDuration.SaturatingAdd(-1))
	assert.Equal(t, 3*Second, Second.SaturatingAdd(2*Second))
}

func TestUnitConversions(t *testing.T) {
	t.Parallel()

	d := 1500 * Millisecond
	assert.Equal(t, int64(1_500_000_000), d.Nanoseconds())
	assert.InDelta(t, 1_500_000.0, d.Microseconds(), 1e-9)
	assert.InDelta(t, 1500.0, d.Milliseconds(), 1e-9)
	assert.InDelta(t, 1.5, d.Seconds(), 1e-12)
	assert.InDelta(t, 0.025, d.Minutes(), 1e-12)
}

func TestParseDuration(t *testing.T) {
	t.Parallel()

	valid := []struct {
		in   string
		want Duration
	}{
		{"0", 0},
		{"5s", 5 * Second},
		{"-5s", -5 * Second},
		{"+5s", 5 * Second},
		{"-0", 0},
		{"5.6s", 5*Second + 600*Millisecond},
		{"5.s", 5 * Second},
		{"1.004s", 1*Second + 4*Millisecond},
		{"100.00100s", 100*Second + 1*Millisecond},
		{"10ns", 10 * Nanosecond},
		{"11us", 11 * Microsecond},
		{"12µs", 12 * Microsecond},
		{"13ms", 13 * Millisecond},
		{"15m", 15 * Minute},
		{"16h", 16 * Hour},
		{"3h30m", 3*Hour + 30*Minute},
		{"10.5s4m", 4*Minute + 10*Second + 500*Millisecond},
		{"-2m3.4s", -(2*Minute + 3*Second + 400*Millisecond)},
		{"1h2m3s4ms5us6ns", 1*Hour + 2*Minute + 3*Second + 4*Millisecond + 5*Microsecond + 6*Nanosecond},
		{"39h9m14.425s", 39*Hour + 9*Minute + 14*Second + 425*Millisecond},
		{"9223372036854775807ns", MaxDuration},
	}
	for _, tt := range valid {
		got, err := ParseDuration(tt.in)
		if assert.NoError(t, err, "input %q", tt.in) {
			assert.Equal(t, tt.want, got, "input %q", tt.in)
		}
	}

	for _, bad := range []string{"", "3", "-", "s", ".", "-.", ".s", "+.s", "3000000h", "9223372036854775808ns"} {
		_, err := ParseDuration(bad)
		assert.ErrorIs(t, err, ErrParse, "input %q", bad)
	}
}
