package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/myrmidon/internal/chrono"
	"github.com/banshee-data/myrmidon/internal/movie"
	"github.com/banshee-data/myrmidon/internal/segment"
)

func newMovie(t *testing.T, path string, trackingStart, trackingEnd uint64) *movie.Segment {
	t.Helper()
	seg, err := movie.NewSegment(path, trackingStart, trackingEnd, 0, trackingEnd-trackingStart,
		[]movie.Offset{{MovieFrameID: 0, Offset: int64(trackingStart)}})
	require.NoError(t, err)
	return seg
}

func newTestDirectory(t *testing.T) *Directory {
	t.Helper()
	d := NewDirectory("/data/colony.0000", 3)
	require.NoError(t, d.AddTrackingFile(0, t0, "tracking.0000.frames"))
	require.NoError(t, d.AddTrackingFile(100, t0.Add(10*chrono.Second), "tracking.0001.frames"))
	require.NoError(t, d.AddMovie(newMovie(t, "stream.0001.mp4", 100, 199)))
	require.NoError(t, d.AddMovie(newMovie(t, "stream.0000.mp4", 0, 99)))
	return d
}

func TestDirectoryLocateFrame(t *testing.T) {
	t.Parallel()
	d := newTestDirectory(t)

	for _, tc := range []struct {
		frame      uint64
		file       string
		movie      string
		movieFrame uint64
	}{
		{frame: 0, file: "tracking.0000.frames", movie: "stream.0000.mp4", movieFrame: 0},
		{frame: 5, file: "tracking.0000.frames", movie: "stream.0000.mp4", movieFrame: 5},
		{frame: 120, file: "tracking.0001.frames", movie: "stream.0001.mp4", movieFrame: 20},
		{frame: 199, file: "tracking.0001.frames", movie: "stream.0001.mp4", movieFrame: 99},
		{frame: 300, file: "tracking.0001.frames"},
	} {
		loc, err := d.LocateFrame(tc.frame)
		require.NoError(t, err, "frame %d", tc.frame)
		assert.Equal(t, tc.file, loc.TrackingFile, "frame %d", tc.frame)
		if tc.movie == "" {
			assert.Nil(t, loc.Movie, "frame %d", tc.frame)
			continue
		}
		require.NotNil(t, loc.Movie, "frame %d", tc.frame)
		assert.Equal(t, tc.movie, loc.Movie.MovieFilepath())
		assert.Equal(t, tc.movieFrame, loc.MovieFrame)
	}

	movies := d.Movies()
	require.Len(t, movies, 2)
	assert.Equal(t, "stream.0000.mp4", movies[0].MovieFilepath())
}

func TestDirectoryLocateTime(t *testing.T) {
	t.Parallel()
	d := newTestDirectory(t)

	file, err := d.LocateTime(t0.Add(15 * chrono.Second))
	require.NoError(t, err)
	assert.Equal(t, "tracking.0001.frames", file)

	file, err = d.LocateTime(t0)
	require.NoError(t, err)
	assert.Equal(t, "tracking.0000.frames", file)

	_, err = d.LocateTime(t0.Add(-chrono.Second))
	assert.ErrorIs(t, err, segment.ErrNotFound)
}

func TestDirectoryRejectsInconsistentInput(t *testing.T) {
	t.Parallel()
	d := newTestDirectory(t)

	err := d.AddTrackingFile(50, t0.Add(20*chrono.Second), "late.frames")
	assert.ErrorIs(t, err, segment.ErrInconsistentOrdering)

	err = d.AddMovie(newMovie(t, "overlap.mp4", 150, 250))
	assert.ErrorIs(t, err, ErrMovieOverlap)
	err = d.AddMovie(newMovie(t, "touching.mp4", 199, 250))
	assert.ErrorIs(t, err, ErrMovieOverlap)
	assert.NoError(t, d.AddMovie(newMovie(t, "next.mp4", 200, 250)))
	assert.Len(t, d.Movies(), 3)
}

func TestDirectoryAccessors(t *testing.T) {
	t.Parallel()
	d := NewDirectory("/data/colony.0001", 7)
	assert.Equal(t, "/data/colony.0001", d.Path())
	assert.Equal(t, chrono.MonoclockID(7), d.MonoID())
	assert.Empty(t, d.Movies())
}
