package report

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/banshee-data/myrmidon/internal/chrono"
	"github.com/banshee-data/myrmidon/internal/monitoring"
	"github.com/banshee-data/myrmidon/internal/store"
)

var logf = monitoring.Component("report")

// Summary is written next to the rendered files.
type Summary struct {
	Run        store.Run            `json:"run"`
	Bin        string               `json:"bin"`
	Collisions int                  `json:"collisions"`
	Bins       []store.CollisionBin `json:"bins"`
	Ants       int                  `json:"ants"`

	// Interactions counts the contacts lasting more than one frame
	Interactions int `json:"interactions"`
	// Tags counts the tags detected during the run
	Tags int `json:"tags"`
}

// Files lists what WriteRun produced. Trajectories is empty when the run
// recorded no position.
type Files struct {
	Collisions   string
	Trajectories string
	Summary      string
}

// WriteRun renders the report of runID into dir, creating it if needed.
func WriteRun(ctx context.Context, runs *store.RunStore, runID, dir string, bin chrono.Duration) (Files, error) {
	run, err := runs.Run(ctx, runID)
	if err != nil {
		return Files{}, err
	}
	bins, err := runs.CollisionCounts(ctx, runID, bin)
	if err != nil {
		return Files{}, err
	}
	ants, err := runs.TrackedAnts(ctx, runID)
	if err != nil {
		return Files{}, err
	}
	interactions, err := runs.Interactions(ctx, runID)
	if err != nil {
		return Files{}, err
	}
	tags, err := runs.TagStatistics(ctx, runID)
	if err != nil {
		return Files{}, err
	}
	tracks := make([]Track, 0, len(ants))
	for _, a := range ants {
		pts, err := runs.Trajectory(ctx, runID, a)
		if err != nil {
			return Files{}, err
		}
		tracks = append(tracks, Track{Ant: a, Points: pts})
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Files{}, err
	}
	files := Files{
		Collisions: filepath.Join(dir, "collisions.html"),
		Summary:    filepath.Join(dir, "summary.json"),
	}

	title := fmt.Sprintf("Run %s: collisions per %s", runID, bin)
	if err := writeFile(files.Collisions, func(f *os.File) error { return CollisionChart(f, title, bins) }); err != nil {
		return Files{}, err
	}

	trajectories := filepath.Join(dir, "trajectories.png")
	switch err := TrajectoryPlot(trajectories, "Run "+runID+": trajectories", tracks); {
	case errors.Is(err, ErrNoData):
		logf("run %s has no positions, skipping trajectories", runID)
	case err != nil:
		return Files{}, err
	default:
		files.Trajectories = trajectories
	}

	summary := Summary{
		Run:          *run,
		Bin:          bin.String(),
		Bins:         bins,
		Ants:         len(ants),
		Interactions: len(interactions),
		Tags:         len(tags),
	}
	for _, b := range bins {
		summary.Collisions += b.Count
	}
	if err := writeFile(files.Summary, func(f *os.File) error {
		enc := json.NewEncoder(f)
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	}); err != nil {
		return Files{}, err
	}
	logf("wrote report of run %s to %s", runID, dir)
	return files, nil
}

func writeFile(path string, write func(*os.File) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	if err := write(f); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}
