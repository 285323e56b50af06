package report

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/myrmidon/internal/chrono"
	"github.com/banshee-data/myrmidon/internal/geometry"
	"github.com/banshee-data/myrmidon/internal/identity"
	"github.com/banshee-data/myrmidon/internal/store"
	"github.com/banshee-data/myrmidon/internal/testutil"
	"github.com/banshee-data/myrmidon/internal/tracking"
)

var t0 = chrono.MustParse("2024-03-01T10:00:00Z")

func TestCollisionChart(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	err := CollisionChart(&buf, "Nest collisions", []store.CollisionBin{
		{Start: t0, Count: 3},
		{Start: t0.Add(chrono.Minute), Count: 1},
	})
	require.NoError(t, err)

	html := buf.String()
	assert.Contains(t, html, "<title>Nest collisions</title>")
	assert.Contains(t, html, "collisions=4 bins=2")
	assert.Contains(t, html, `"10:00:00"`)
	assert.Contains(t, html, `"10:01:00"`)
}

func TestTrajectoryPlot(t *testing.T) {
	t.Parallel()

	t.Run("no data", func(t *testing.T) {
		t.Parallel()
		err := TrajectoryPlot(filepath.Join(t.TempDir(), "x.png"), "empty", []Track{{Ant: 1}})
		assert.ErrorIs(t, err, ErrNoData)
	})

	t.Run("png", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "tracks.png")
		tracks := []Track{
			{Ant: 1, Points: []store.TrajectoryPoint{
				{Position: geometry.Vec{X: 0, Y: 0}},
				{Position: geometry.Vec{X: 10, Y: 5}},
			}},
			{Ant: 2, Points: []store.TrajectoryPoint{{Position: geometry.Vec{X: 3, Y: 3}}}},
		}
		require.NoError(t, TrajectoryPlot(path, "tracks", tracks))
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.True(t, bytes.HasPrefix(data, []byte("\x89PNG")))
	})
}

func TestGenerateColors(t *testing.T) {
	t.Parallel()

	assert.Nil(t, generateColors(0))
	assert.Len(t, generateColors(5), 5)

	r, g, b := hslToRGB(0, 1, 0.5)
	assert.Equal(t, [3]uint8{255, 0, 0}, [3]uint8{r, g, b})
	r, g, b = hslToRGB(1.0/3, 1, 0.5)
	assert.Equal(t, [3]uint8{0, 255, 0}, [3]uint8{r, g, b})
}

func TestWriteRun(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	runs := store.NewRunStore(testutil.OpenStore(t))

	runID, err := runs.CreateRun(ctx, 1, "test")
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		ts := t0.Add(chrono.Duration(i) * 30 * chrono.Second)
		require.NoError(t, runs.InsertPositions(ctx, runID, &tracking.IdentifiedFrame{
			FrameID: uint64(i), Space: 1, Time: ts,
			Positions: []tracking.PositionedAnt{
				{AntID: 1, Position: geometry.Vec{X: float64(i), Y: 1}},
				{AntID: 2, Position: geometry.Vec{X: float64(i) + 1, Y: 1}},
			},
		}))
		require.NoError(t, runs.InsertCollisions(ctx, runID, &tracking.CollisionFrame{
			FrameID: uint64(i), Space: 1, Time: ts,
			Collisions: []tracking.Collision{{IDs: [2]identity.AntID{1, 2}, Types: [][2]identity.ShapeTypeID{{1, 1}}}},
		}))
	}
	require.NoError(t, runs.InsertSegments(ctx, runID, tracking.Segments{
		Interactions: []tracking.Interaction{{IDs: [2]identity.AntID{1, 2}, Space: 1, Start: t0, End: t0.Add(chrono.Minute), Frames: 3}},
	}))
	require.NoError(t, runs.InsertTagStatistics(ctx, runID, []tracking.TagStatistics{
		{ID: 1, FirstSeen: t0, LastSeen: t0, TotalSeen: 3},
		{ID: 2, FirstSeen: t0, LastSeen: t0, TotalSeen: 3},
	}))
	require.NoError(t, runs.FinishRun(ctx, runID, 3))

	dir := filepath.Join(t.TempDir(), "out")
	files, err := WriteRun(ctx, runs, runID, dir, chrono.Minute)
	require.NoError(t, err)
	assert.FileExists(t, files.Collisions)
	assert.FileExists(t, files.Trajectories)

	data, err := os.ReadFile(files.Summary)
	require.NoError(t, err)
	var summary Summary
	require.NoError(t, json.Unmarshal(data, &summary))
	assert.Equal(t, runID, summary.Run.RunID)
	assert.Equal(t, 3, summary.Collisions)
	assert.Equal(t, 2, summary.Ants)
	assert.Equal(t, 1, summary.Interactions)
	assert.Equal(t, 2, summary.Tags)
	require.Len(t, summary.Bins, 2)
	assert.Equal(t, 2, summary.Bins[0].Count)
	assert.Equal(t, 1, summary.Bins[1].Count)

	_, err = WriteRun(ctx, runs, "missing", dir, chrono.Minute)
	assert.ErrorIs(t, err, store.ErrNotFound)
}
