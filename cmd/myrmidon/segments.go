package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/banshee-data/myrmidon/internal/identity"
	"github.com/banshee-data/myrmidon/internal/store"
	"github.com/banshee-data/myrmidon/internal/tracking"
)

// runStoreFor parses the -run flag of a listing command and opens the
// run store, checking the run exists.
func runStoreFor(ctx context.Context, e *env, name string, args []string) (*store.DB, *store.RunStore, string, error) {
	fs := newFlagSet(name)
	runID := fs.String("run", "", "Run to list (required)")
	if err := parseFlags(fs, args); err != nil {
		return nil, nil, "", err
	}
	if *runID == "" {
		fmt.Fprintln(os.Stderr, "Error: -run is required")
		fs.Usage()
		return nil, nil, "", errUsage
	}
	db, err := e.openStore()
	if err != nil {
		return nil, nil, "", err
	}
	runs := store.NewRunStore(db)
	if _, err := runs.Run(ctx, *runID); err != nil {
		db.Close()
		return nil, nil, "", err
	}
	return db, runs, *runID, nil
}

func handleInteractions(ctx context.Context, e *env, args []string) error {
	db, runs, runID, err := runStoreFor(ctx, e, "interactions", args)
	if err != nil {
		return err
	}
	defer db.Close()

	list, err := runs.Interactions(ctx, runID)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(e.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ANTS\tSPACE\tSTART\tEND\tFRAMES\tTYPES")
	for _, in := range list {
		fmt.Fprintf(tw, "%s-%s\t%d\t%s\t%s\t%d\t%s\n",
			in.IDs[0], in.IDs[1], in.Space, in.Start, in.End, in.Frames, formatTypes(in.Types))
	}
	return tw.Flush()
}

func formatTypes(types [][2]identity.ShapeTypeID) string {
	if len(types) == 0 {
		return "-"
	}
	parts := make([]string, len(types))
	for i, tp := range types {
		parts[i] = fmt.Sprintf("%d-%d", tp[0], tp[1])
	}
	return strings.Join(parts, ",")
}

func handleTagStats(ctx context.Context, e *env, args []string) error {
	db, runs, runID, err := runStoreFor(ctx, e, "tagstats", args)
	if err != nil {
		return err
	}
	defer db.Close()

	list, err := runs.TagStatistics(ctx, runID)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(e.stdout, 0, 4, 2, ' ', 0)
	header := []string{"TAG", "FIRST", "LAST", "SEEN", "MULTIPLE"}
	for b := tracking.GapBucket(0); b < tracking.NumGapBuckets; b++ {
		header = append(header, b.String())
	}
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	for _, st := range list {
		row := []string{st.ID.String(), st.FirstSeen.String(), st.LastSeen.String(),
			fmt.Sprint(st.TotalSeen), fmt.Sprint(st.MultipleSeen)}
		for _, n := range st.Gaps {
			row = append(row, fmt.Sprint(n))
		}
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}
