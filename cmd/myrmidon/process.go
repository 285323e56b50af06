package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/banshee-data/myrmidon/internal/chrono"
	"github.com/banshee-data/myrmidon/internal/pipeline"
	"github.com/banshee-data/myrmidon/internal/report"
	"github.com/banshee-data/myrmidon/internal/security"
	"github.com/banshee-data/myrmidon/internal/space"
	"github.com/banshee-data/myrmidon/internal/store"
	"github.com/banshee-data/myrmidon/internal/tracking"
)

func handleProcess(ctx context.Context, e *env, args []string) error {
	fs := newFlagSet("process")
	framesPath := fs.String("frames", "", "JSON-lines frame file (required, - for stdin)")
	spaceID := fs.Uint("space", 0, "Space the frames were recorded in (required)")
	source := fs.String("source", "", "Label stored with the run (defaults to the frame file)")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if *framesPath == "" || *spaceID == 0 {
		fmt.Fprintln(os.Stderr, "Error: -frames and -space are required")
		fs.Usage()
		return errUsage
	}
	if *source == "" {
		*source = *framesPath
	}

	db, err := e.openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	es := store.NewExperimentStore(db)
	id, err := es.LoadIdentifier(ctx)
	if err != nil {
		return err
	}
	u, err := es.LoadUniverse(ctx)
	if err != nil {
		return err
	}
	sid := space.SpaceID(*spaceID)
	if _, err := u.Space(sid); err != nil {
		return err
	}

	in := e.stdin
	if *framesPath != "-" {
		f, err := os.Open(*framesPath)
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}

	runs := store.NewRunStore(db)
	runID, err := runs.CreateRun(ctx, sid, *source)
	if err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	frames := make(chan *tracking.RawFrame, e.cfg.GetInFlightFrames())
	decodeErr := make(chan error, 1)
	go func() { decodeErr <- pipeline.DecodeFrames(runCtx, in, e.cfg.GetMonoclockBase(), frames) }()

	solver := tracking.NewSolver(id.Compile(), u, e.cfg.GetBroadphaseMargin())
	sink := pipeline.NewStoreSink(runs, runID, tracking.NewSegmenter(e.cfg.GetInteractionMaxGap()))
	tags := tracking.NewTagStatsCollector()
	proc := pipeline.NewProcessor(solver, sid, e.cfg)
	proc.Observe(tags.Add)
	stats, err := proc.Run(runCtx, frames, sink)
	cancel()
	if derr := <-decodeErr; err == nil && derr != nil && !errors.Is(derr, context.Canceled) {
		err = derr
	}

	// the run is closed even when interrupted, with the frames stored so far
	finishCtx := context.WithoutCancel(ctx)
	if ferr := sink.Flush(finishCtx); ferr != nil && err == nil {
		err = ferr
	}
	tagStats := tags.Statistics()
	if ferr := runs.InsertTagStatistics(finishCtx, runID, tagStats); ferr != nil && err == nil {
		err = ferr
	}
	if ferr := runs.FinishRun(finishCtx, runID, stats.Frames); ferr != nil && err == nil {
		err = ferr
	}
	fmt.Fprintf(e.stdout, "run %s: %d frames, %d positions, %d collisions, %d interactions, %d tags\n",
		runID, stats.Frames, stats.Positions, stats.Collisions, sink.Interactions(), len(tagStats))
	return err
}

func handleRuns(ctx context.Context, e *env, args []string) error {
	fs := newFlagSet("runs")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	db, err := e.openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	list, err := store.NewRunStore(db).Runs(ctx)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(e.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tSPACE\tFRAMES\tSTARTED\tFINISHED\tSOURCE")
	for _, r := range list {
		finished := "-"
		if r.FinishedAt != nil {
			finished = r.FinishedAt.String()
		}
		fmt.Fprintf(tw, "%s\t%d\t%d\t%s\t%s\t%s\n", r.RunID, r.SpaceID, r.Frames, r.StartedAt, finished, r.Source)
	}
	return tw.Flush()
}

func handleReport(ctx context.Context, e *env, args []string) error {
	fs := newFlagSet("report")
	runID := fs.String("run", "", "Run to report on (required)")
	out := fs.String("out", "", "Output directory (default reports/<run>)")
	bin := fs.String("bin", "", "Collision histogram bin width (overrides report_bin)")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if *runID == "" {
		fmt.Fprintln(os.Stderr, "Error: -run is required")
		fs.Usage()
		return errUsage
	}
	binWidth := e.cfg.GetReportBin()
	if *bin != "" {
		d, err := chrono.ParseDuration(*bin)
		if err != nil || d <= 0 {
			return fmt.Errorf("invalid -bin %q", *bin)
		}
		binWidth = d
	}
	dir := *out
	if dir == "" {
		dir = filepath.Join("reports", security.SanitizeFilename(*runID))
	}

	db, err := e.openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	files, err := report.WriteRun(ctx, store.NewRunStore(db), *runID, dir, binWidth)
	if err != nil {
		return err
	}
	for _, f := range []string{files.Collisions, files.Trajectories, files.Summary} {
		if f != "" {
			fmt.Fprintln(e.stdout, f)
		}
	}
	return nil
}

func handleLocate(e *env, args []string) error {
	fs := newFlagSet("locate")
	dir := fs.String("dir", "", "Acquisition directory (required)")
	frame := fs.Uint64("frame", 0, "Tracking frame to locate")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if *dir == "" {
		fmt.Fprintln(os.Stderr, "Error: -dir is required")
		fs.Usage()
		return errUsage
	}

	d, err := pipeline.ScanDirectory(*dir, e.cfg.GetMonoclockBase(), e.cfg.GetFrameMatchingMaxBytes())
	if err != nil {
		return err
	}
	loc, err := d.LocateFrame(*frame)
	if err != nil {
		return err
	}
	fmt.Fprintf(e.stdout, "frame %d: %s\n", *frame, filepath.Join(d.Path(), loc.TrackingFile))
	if loc.Movie != nil {
		fmt.Fprintf(e.stdout, "movie %s frame %d\n", loc.Movie.MovieFilepath(), loc.MovieFrame)
	} else {
		fmt.Fprintln(e.stdout, "no movie")
	}
	return nil
}
