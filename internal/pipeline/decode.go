package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/banshee-data/myrmidon/internal/chrono"
	"github.com/banshee-data/myrmidon/internal/tracking"
)

// ErrDecode is returned for malformed frame input.
var ErrDecode = errors.New("malformed frame")

// frameRecord is one line of a tracking file. Mono is the framegrabber
// monotonic clock in nanoseconds; frames without it only carry wall time.
type frameRecord struct {
	FrameID uint64                  `json:"frame_id"`
	Time    time.Time               `json:"time"`
	Mono    *uint64                 `json:"mono,omitempty"`
	Width   int                     `json:"width"`
	Height  int                     `json:"height"`
	Tags    []tracking.TagDetection `json:"tags"`
}

// frameTime tags the recorded monotonic reading, if any, with monoID.
func (r *frameRecord) frameTime(monoID chrono.MonoclockID) (chrono.Time, error) {
	if r.Time.IsZero() {
		return chrono.Time{}, errors.New("missing time")
	}
	ts := timestamppb.New(r.Time)
	if r.Mono == nil {
		return chrono.FromTimestamp(ts)
	}
	return chrono.FromTimestampAndMonotonic(ts, *r.Mono, monoID)
}

// FrameDecoder reads raw frames encoded as a stream of JSON objects, one
// per line.
type FrameDecoder struct {
	dec    *json.Decoder
	monoID chrono.MonoclockID
	n      int
}

// NewFrameDecoder returns a decoder reading from r. Monotonic readings
// are attributed to the clock monoID.
func NewFrameDecoder(r io.Reader, monoID chrono.MonoclockID) *FrameDecoder {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	return &FrameDecoder{dec: dec, monoID: monoID}
}

// Next returns the next frame, or io.EOF after the last one.
func (d *FrameDecoder) Next() (*tracking.RawFrame, error) {
	var rec frameRecord
	if err := d.dec.Decode(&rec); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("frame #%d: %w: %w", d.n, ErrDecode, err)
	}
	t, err := rec.frameTime(d.monoID)
	if err != nil {
		return nil, fmt.Errorf("frame #%d: %w: %w", d.n, ErrDecode, err)
	}
	d.n++
	return &tracking.RawFrame{
		FrameID: rec.FrameID,
		Time:    t,
		Width:   rec.Width,
		Height:  rec.Height,
		Tags:    rec.Tags,
	}, nil
}

// DecodeFrames sends every frame read from r on out, then closes out. It
// stops early when ctx is cancelled.
func DecodeFrames(ctx context.Context, r io.Reader, monoID chrono.MonoclockID, out chan<- *tracking.RawFrame) error {
	defer close(out)
	d := NewFrameDecoder(r, monoID)
	for {
		raw, err := d.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		select {
		case out <- raw:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
