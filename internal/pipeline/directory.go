package pipeline

import (
	"errors"
	"fmt"
	"sort"

	"github.com/banshee-data/myrmidon/internal/chrono"
	"github.com/banshee-data/myrmidon/internal/movie"
	"github.com/banshee-data/myrmidon/internal/segment"
)

// ErrMovieOverlap is returned when two movie segments cover the same
// tracking frame.
var ErrMovieOverlap = errors.New("movie segments overlap")

// Directory indexes the tracking files and movie segments recorded by one
// acquisition run. Every timestamp of the run shares a MonoclockID.
type Directory struct {
	path   string
	monoID chrono.MonoclockID
	files  segment.Index[string]
	movies []*movie.Segment
}

// NewDirectory returns an empty Directory whose frame times are tagged
// with monoID.
func NewDirectory(path string, monoID chrono.MonoclockID) *Directory {
	return &Directory{path: path, monoID: monoID}
}

// Path returns the directory path.
func (d *Directory) Path() string { return d.path }

// MonoID returns the monotonic clock of the directory.
func (d *Directory) MonoID() chrono.MonoclockID { return d.monoID }

// AddTrackingFile registers a file whose first frame is firstFrame at
// start.
func (d *Directory) AddTrackingFile(firstFrame uint64, start chrono.Time, name string) error {
	if err := d.files.Insert(firstFrame, start, name); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

// AddMovie registers a movie segment. Segments may be added in any order
// but their tracking frame ranges must not intersect.
func (d *Directory) AddMovie(seg *movie.Segment) error {
	i := sort.Search(len(d.movies), func(i int) bool {
		return d.movies[i].StartFrame() > seg.StartFrame()
	})
	if i > 0 && d.movies[i-1].EndFrame() >= seg.StartFrame() {
		return fmt.Errorf("%s and %s: %w", d.movies[i-1].MovieFilepath(), seg.MovieFilepath(), ErrMovieOverlap)
	}
	if i < len(d.movies) && seg.EndFrame() >= d.movies[i].StartFrame() {
		return fmt.Errorf("%s and %s: %w", seg.MovieFilepath(), d.movies[i].MovieFilepath(), ErrMovieOverlap)
	}
	d.movies = append(d.movies, nil)
	copy(d.movies[i+1:], d.movies[i:])
	d.movies[i] = seg
	return nil
}

// Location is where a tracking frame can be found on disk.
type Location struct {
	TrackingFile string
	// Movie is nil when no movie segment covers the frame.
	Movie      *movie.Segment
	MovieFrame uint64
}

// LocateFrame returns the tracking file holding frameID and, when one was
// recorded, the movie frame showing it.
func (d *Directory) LocateFrame(frameID uint64) (Location, error) {
	file, err := d.files.Find(frameID)
	if err != nil {
		return Location{}, fmt.Errorf("frame %d: %w", frameID, err)
	}
	loc := Location{TrackingFile: file}
	i := sort.Search(len(d.movies), func(i int) bool {
		return d.movies[i].StartFrame() > frameID
	})
	if i == 0 || d.movies[i-1].EndFrame() < frameID {
		return loc, nil
	}
	seg := d.movies[i-1]
	mf, err := seg.ToMovieFrameID(frameID)
	if err != nil {
		return Location{}, err
	}
	loc.Movie = seg
	loc.MovieFrame = mf
	return loc, nil
}

// LocateTime returns the tracking file recording time t.
func (d *Directory) LocateTime(t chrono.Time) (string, error) {
	file, err := d.files.FindTime(t)
	if err != nil {
		return "", fmt.Errorf("time %s: %w", t, err)
	}
	return file, nil
}

// Movies returns the movie segments ordered by first tracking frame.
func (d *Directory) Movies() []*movie.Segment {
	return append([]*movie.Segment(nil), d.movies...)
}
