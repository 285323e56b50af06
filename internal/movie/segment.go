package movie

import (
	"errors"
	"fmt"
	"slices"
	"sort"
)

var (
	// ErrOutOfRange is returned when a frame ID lies outside the segment.
	ErrOutOfRange = errors.New("frame out of range")
	// ErrInvalidArgument is returned when a segment cannot be built from
	// the given bounds and offsets.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrParse is returned when a frame-matching file is malformed.
	ErrParse = errors.New("frame matching parse error")
)

// Offset is a (movie frame, offset) pair. From MovieFrameID onwards,
// tracking frame = movie frame + Offset, until the next pair.
type Offset struct {
	MovieFrameID uint64
	Offset       int64
}

type key struct {
	at     uint64
	offset int64
}

// Segment maps frames of one movie file to tracking frames.
type Segment struct {
	path          string
	trackingStart uint64
	trackingEnd   uint64
	movieStart    uint64
	movieEnd      uint64

	// ascending by movie frame and by tracking frame
	byMovie    []key
	byTracking []key
}

// NewSegment builds a Segment covering movie frames
// [movieStart, movieEnd] and tracking frames [trackingStart, trackingEnd].
// offsets need not be sorted but must contain an entry for movieStart.
func NewSegment(path string, trackingStart, trackingEnd, movieStart, movieEnd uint64, offsets []Offset) (*Segment, error) {
	s := &Segment{
		path:          path,
		trackingStart: trackingStart,
		trackingEnd:   trackingEnd,
		movieStart:    movieStart,
		movieEnd:      movieEnd,
		byMovie:       make([]key, 0, len(offsets)),
		byTracking:    make([]key, 0, len(offsets)),
	}
	hasStart := false
	for _, o := range offsets {
		if o.MovieFrameID == movieStart {
			hasStart = true
		}
		s.byMovie = append(s.byMovie, key{at: o.MovieFrameID, offset: o.Offset})
		s.byTracking = append(s.byTracking, key{at: uint64(int64(o.MovieFrameID) + o.Offset), offset: o.Offset})
	}
	if !hasStart {
		return nil, fmt.Errorf("movie frame %d is missing from offsets: %w", movieStart, ErrInvalidArgument)
	}
	byAt := func(a, b key) int {
		switch {
		case a.at < b.at:
			return -1
		case a.at > b.at:
			return 1
		}
		return 0
	}
	slices.SortFunc(s.byMovie, byAt)
	slices.SortFunc(s.byTracking, byAt)
	return s, nil
}

// floor returns the entry with the largest at <= v. Bounds checks make
// sure one exists.
func floor(keys []key, v uint64) (key, bool) {
	i := sort.Search(len(keys), func(i int) bool { return keys[i].at > v })
	if i == 0 {
		return key{}, false
	}
	return keys[i-1], true
}

// ToTrackingFrameID returns the tracking frame recorded as movieFrameID.
func (s *Segment) ToTrackingFrameID(movieFrameID uint64) (uint64, error) {
	if movieFrameID < s.movieStart || movieFrameID > s.movieEnd {
		return 0, fmt.Errorf("movie frame %d is not in [%d;%d]: %w",
			movieFrameID, s.movieStart, s.movieEnd, ErrOutOfRange)
	}
	k, ok := floor(s.byMovie, movieFrameID)
	if !ok {
		return 0, fmt.Errorf("no offset for movie frame %d: %w", movieFrameID, ErrOutOfRange)
	}
	return uint64(int64(movieFrameID) + k.offset), nil
}

// ToMovieFrameID returns the movie frame showing trackingFrameID. A
// tracking frame dropped by the encoder maps to the next movie frame.
func (s *Segment) ToMovieFrameID(trackingFrameID uint64) (uint64, error) {
	if trackingFrameID < s.trackingStart || trackingFrameID > s.trackingEnd {
		return 0, fmt.Errorf("tracking frame %d is not in [%d;%d]: %w",
			trackingFrameID, s.trackingStart, s.trackingEnd, ErrOutOfRange)
	}
	k, ok := floor(s.byTracking, trackingFrameID)
	if !ok {
		return 0, fmt.Errorf("no offset for tracking frame %d: %w", trackingFrameID, ErrOutOfRange)
	}
	return uint64(int64(trackingFrameID) - k.offset), nil
}

// StartFrame returns the first tracking frame of the segment.
func (s *Segment) StartFrame() uint64 { return s.trackingStart }

// EndFrame returns the last tracking frame of the segment, inclusive.
func (s *Segment) EndFrame() uint64 { return s.trackingEnd }

// StartMovieFrame returns the first movie frame, usually 0.
func (s *Segment) StartMovieFrame() uint64 { return s.movieStart }

// EndMovieFrame returns the last movie frame, inclusive.
func (s *Segment) EndMovieFrame() uint64 { return s.movieEnd }

// MovieFilepath returns the path of the movie file.
func (s *Segment) MovieFilepath() string { return s.path }

// Offsets returns the offset table in ascending movie frame order.
func (s *Segment) Offsets() []Offset {
	res := make([]Offset, len(s.byMovie))
	for i, k := range s.byMovie {
		res[i] = Offset{MovieFrameID: k.at, Offset: k.offset}
	}
	return res
}
