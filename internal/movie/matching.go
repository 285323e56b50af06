package movie

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Parse reads a frame-matching table and builds the Segment of
// moviePath. Every non-blank line must hold exactly two unsigned
// integers, the movie frame then the tracking frame, both strictly
// increasing. An offset entry is recorded at the first line and wherever
// tracking − movie changes. Parsing is all-or-nothing.
func Parse(moviePath string, r io.Reader) (*Segment, error) {
	var offsets []Offset
	var trackingStart, trackEnd, movieStart, movieEnd uint64
	var lastMovie, lastTracking uint64
	var lastOffset int64

	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 2 {
			return nil, fmt.Errorf("line %d %q: expected 2 fields, got %d: %w", lineNo, line, len(fields), ErrParse)
		}
		movieID, err := strconv.ParseUint(fields[0], 10, 63)
		if err != nil {
			return nil, fmt.Errorf("line %d %q: could not read movie frame: %w", lineNo, line, ErrParse)
		}
		trackingID, err := strconv.ParseUint(fields[1], 10, 63)
		if err != nil {
			return nil, fmt.Errorf("line %d %q: could not read tracking frame: %w", lineNo, line, ErrParse)
		}
		offset := int64(trackingID) - int64(movieID)

		if len(offsets) == 0 {
			trackingStart, movieStart = trackingID, movieID
			offsets = append(offsets, Offset{MovieFrameID: movieID, Offset: offset})
			lastOffset = offset
		} else {
			if movieID <= lastMovie || trackingID <= lastTracking {
				return nil, fmt.Errorf("line %d %q: frames must be strictly increasing: %w", lineNo, line, ErrParse)
			}
			if offset != lastOffset {
				offsets = append(offsets, Offset{MovieFrameID: movieID, Offset: offset})
				lastOffset = offset
			}
		}
		lastMovie, lastTracking = movieID, trackingID
		trackEnd, movieEnd = trackingID, movieID
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading frame matching: %w", err)
	}
	if len(offsets) == 0 {
		return nil, fmt.Errorf("no frame in matching table: %w", ErrParse)
	}
	return NewSegment(moviePath, trackingStart, trackEnd, movieStart, movieEnd, offsets)
}

// Open parses the frame-matching file matchingPath for the movie at
// moviePath. Files larger than maxBytes are refused; maxBytes <= 0
// disables the check.
func Open(moviePath, matchingPath string, maxBytes int64) (*Segment, error) {
	cleanPath := filepath.Clean(matchingPath)
	info, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("frame matching %q: %w: %v", matchingPath, ErrInvalidArgument, err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("frame matching %q is not a regular file: %w", matchingPath, ErrInvalidArgument)
	}
	if maxBytes > 0 && info.Size() > maxBytes {
		return nil, fmt.Errorf("frame matching %q too large: %d bytes (max %d): %w",
			matchingPath, info.Size(), maxBytes, ErrInvalidArgument)
	}

	f, err := os.Open(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open frame matching: %w", err)
	}
	defer f.Close()

	s, err := Parse(moviePath, f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", matchingPath, err)
	}
	return s, nil
}
