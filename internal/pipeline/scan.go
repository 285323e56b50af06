package pipeline

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/banshee-data/myrmidon/internal/chrono"
	"github.com/banshee-data/myrmidon/internal/movie"
	"github.com/banshee-data/myrmidon/internal/tracking"
)

const (
	// TrackingFileExt is the extension of JSON-lines frame files.
	TrackingFileExt = ".jsonl"
	// FrameMatchingSuffix ends the frame-matching table of a movie. The
	// movie itself is the same name with ".mp4" instead.
	FrameMatchingSuffix = ".frame-matching.txt"
)

// ScanDirectory indexes the tracking files and movie segments found in
// path. Each tracking file is keyed by its first frame, whose monotonic
// reading is attributed to monoID so that files stay ordered across wall
// clock resets. Frame-matching tables larger than maxMatchingBytes are
// refused.
func ScanDirectory(path string, monoID chrono.MonoclockID, maxMatchingBytes int64) (*Directory, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}
	d := NewDirectory(path, monoID)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Type().IsRegular() {
			names = append(names, e.Name())
		}
	}
	slices.Sort(names)

	for _, name := range names {
		full := filepath.Join(path, name)
		switch {
		case strings.HasSuffix(name, FrameMatchingSuffix):
			moviePath := strings.TrimSuffix(full, FrameMatchingSuffix) + ".mp4"
			seg, err := movie.Open(moviePath, full, maxMatchingBytes)
			if err != nil {
				return nil, err
			}
			if err := d.AddMovie(seg); err != nil {
				return nil, err
			}
		case filepath.Ext(name) == TrackingFileExt:
			first, err := firstFrame(full, d.MonoID())
			if errors.Is(err, io.EOF) {
				logf("skipping empty tracking file %s", name)
				continue
			}
			if err != nil {
				return nil, err
			}
			if err := d.AddTrackingFile(first.FrameID, first.Time, name); err != nil {
				return nil, err
			}
		}
	}
	logf("indexed %s: %d tracking files, %d movies", path, d.files.Len(), len(d.movies))
	return d, nil
}

func firstFrame(path string, monoID chrono.MonoclockID) (*tracking.RawFrame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	raw, err := NewFrameDecoder(f, monoID).Next()
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return raw, err
}
