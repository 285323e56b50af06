package pipeline

import (
	"context"

	"github.com/banshee-data/myrmidon/internal/store"
	"github.com/banshee-data/myrmidon/internal/tracking"
)

// StoreSink records every frame of a run in a RunStore. With a segmenter
// it also records the trajectories and interactions closed by each frame.
type StoreSink struct {
	runs         *store.RunStore
	runID        string
	segmenter    *tracking.Segmenter
	interactions int
}

// NewStoreSink returns a sink writing to runID. segmenter may be nil.
func NewStoreSink(runs *store.RunStore, runID string, segmenter *tracking.Segmenter) *StoreSink {
	return &StoreSink{runs: runs, runID: runID, segmenter: segmenter}
}

// Consume implements Sink.
func (s *StoreSink) Consume(ctx context.Context, identified *tracking.IdentifiedFrame, collisions *tracking.CollisionFrame) error {
	if err := s.runs.InsertPositions(ctx, s.runID, identified); err != nil {
		return err
	}
	if len(collisions.Collisions) > 0 {
		if err := s.runs.InsertCollisions(ctx, s.runID, collisions); err != nil {
			return err
		}
	}
	if s.segmenter == nil {
		return nil
	}
	return s.store(ctx, s.segmenter.Add(identified, collisions))
}

// Flush records the segments still open. It must be called once after
// the last frame.
func (s *StoreSink) Flush(ctx context.Context) error {
	if s.segmenter == nil {
		return nil
	}
	return s.store(ctx, s.segmenter.Flush())
}

// Interactions returns the number of interactions recorded so far.
func (s *StoreSink) Interactions() int { return s.interactions }

func (s *StoreSink) store(ctx context.Context, segs tracking.Segments) error {
	if err := s.runs.InsertSegments(ctx, s.runID, segs); err != nil {
		return err
	}
	s.interactions += len(segs.Interactions)
	return nil
}
