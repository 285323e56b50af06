package pipeline

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/myrmidon/internal/chrono"
	"github.com/banshee-data/myrmidon/internal/identity"
	"github.com/banshee-data/myrmidon/internal/tracking"
)

func TestFrameDecoder(t *testing.T) {
	t.Parallel()

	t.Run("stream", func(t *testing.T) {
		t.Parallel()
		d := NewFrameDecoder(strings.NewReader(`
{"frame_id":7,"time":"2024-03-01T10:00:00Z","width":640,"height":480,"tags":[{"id":42,"x":1.5,"y":2,"theta":0.25}]}
{"frame_id":8,"time":"2024-03-01T10:00:00.5Z","tags":[]}
`), 3)
		first, err := d.Next()
		require.NoError(t, err)
		assert.Equal(t, uint64(7), first.FrameID)
		assert.Equal(t, 640, first.Width)
		require.Len(t, first.Tags, 1)
		assert.Equal(t, tracking.TagDetection{ID: identity.TagID(42), X: 1.5, Y: 2, Theta: 0.25}, first.Tags[0])
		assert.True(t, first.Time.Equals(t0))
		assert.False(t, first.Time.HasMono())

		second, err := d.Next()
		require.NoError(t, err)
		assert.Equal(t, uint64(8), second.FrameID)
		assert.Empty(t, second.Tags)

		_, err = d.Next()
		assert.ErrorIs(t, err, io.EOF)
	})

	t.Run("monotonic clock", func(t *testing.T) {
		t.Parallel()
		// the wall clock is set back by 5s between the two frames
		d := NewFrameDecoder(strings.NewReader(`
{"frame_id":1,"time":"2024-03-01T10:00:10Z","mono":10000000000}
{"frame_id":2,"time":"2024-03-01T10:00:05Z","mono":10040000000}
`), 3)
		first, err := d.Next()
		require.NoError(t, err)
		second, err := d.Next()
		require.NoError(t, err)

		assert.True(t, first.Time.HasMono())
		assert.Equal(t, chrono.MonoclockID(3), first.Time.MonoID())
		assert.Equal(t, uint64(10_000_000_000), first.Time.MonotonicValue())
		assert.True(t, second.Time.After(first.Time))
		assert.Equal(t, 40*chrono.Millisecond, second.Time.Sub(first.Time))
		assert.Equal(t, int64(1709287205), second.Time.WallSeconds())
	})

	for name, input := range map[string]string{
		"unknown field": `{"frame_id":1,"time":"2024-03-01T10:00:00Z","fps":30}`,
		"bad time":      `{"frame_id":1,"time":"yesterday"}`,
		"truncated":     `{"frame_id":1,"time":"2024-03-01T10:00:00Z"`,
		"wrong type":    `{"frame_id":"one"}`,
		"missing time":  `{"frame_id":1}`,
		"mono overflow": `{"frame_id":1,"time":"2024-03-01T10:00:00Z","mono":18446744073709551615}`,
	} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			_, err := NewFrameDecoder(strings.NewReader(input), 1).Next()
			require.ErrorIs(t, err, ErrDecode)
			assert.Contains(t, err.Error(), "frame #0")
		})
	}

	_, err := NewFrameDecoder(strings.NewReader(`{"frame_id":1,"time":"2024-03-01T10:00:00Z","mono":9223372036854775808}`), 1).Next()
	assert.ErrorIs(t, err, chrono.ErrClockConstruction)
}

func TestDecodeFrames(t *testing.T) {
	t.Parallel()

	t.Run("closes output", func(t *testing.T) {
		t.Parallel()
		out := make(chan *tracking.RawFrame, 4)
		err := DecodeFrames(context.Background(), strings.NewReader(`{"frame_id":1,"time":"2024-03-01T10:00:00Z"}
{"frame_id":2,"time":"2024-03-01T10:00:01Z"}`), 1, out)
		require.NoError(t, err)
		var ids []uint64
		for f := range out {
			ids = append(ids, f.FrameID)
		}
		assert.Equal(t, []uint64{1, 2}, ids)
	})

	t.Run("reports the failing frame", func(t *testing.T) {
		t.Parallel()
		out := make(chan *tracking.RawFrame, 4)
		err := DecodeFrames(context.Background(), strings.NewReader(`{"frame_id":1,"time":"2024-03-01T10:00:00Z"}
{"frame_id":2,"time":"2024-03-01T10:00:01Z","bogus":true}`), 1, out)
		require.ErrorIs(t, err, ErrDecode)
		assert.Contains(t, err.Error(), "frame #1")
		assert.Len(t, out, 1)
	})

	t.Run("cancelled", func(t *testing.T) {
		t.Parallel()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		out := make(chan *tracking.RawFrame)
		err := DecodeFrames(ctx, strings.NewReader(`{"frame_id":1,"time":"2024-03-01T10:00:00Z"}`), 1, out)
		require.ErrorIs(t, err, context.Canceled)
		_, open := <-out
		assert.False(t, open)
	})
}
