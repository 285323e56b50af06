package pipeline

import (
	"context"
	"fmt"
	"sync"

	"github.com/banshee-data/myrmidon/internal/config"
	"github.com/banshee-data/myrmidon/internal/monitoring"
	"github.com/banshee-data/myrmidon/internal/space"
	"github.com/banshee-data/myrmidon/internal/tracking"
)

var logf = monitoring.Component("pipeline")

// Solver is the per-frame computation run by the workers.
type Solver interface {
	Frame(raw *tracking.RawFrame, spaceID space.SpaceID) (*tracking.IdentifiedFrame, *tracking.CollisionFrame, error)
}

// Sink receives processed frames, one at a time and in input order.
type Sink interface {
	Consume(ctx context.Context, identified *tracking.IdentifiedFrame, collisions *tracking.CollisionFrame) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, identified *tracking.IdentifiedFrame, collisions *tracking.CollisionFrame) error

// Consume calls f.
func (f SinkFunc) Consume(ctx context.Context, identified *tracking.IdentifiedFrame, collisions *tracking.CollisionFrame) error {
	return f(ctx, identified, collisions)
}

// Stats summarises a Run.
type Stats struct {
	Frames     int64
	Positions  int64
	Collisions int64
}

// Processor runs a Solver over a stream of frames.
type Processor struct {
	solver   Solver
	spaceID  space.SpaceID
	workers  int
	inFlight int
	observe  func(*tracking.RawFrame)
}

// NewProcessor returns a Processor for frames of spaceID, sized by the
// workers and in_flight_frames settings of cfg.
func NewProcessor(solver Solver, spaceID space.SpaceID, cfg *config.TuningConfig) *Processor {
	return &Processor{
		solver:   solver,
		spaceID:  spaceID,
		workers:  max(cfg.GetWorkers(), 1),
		inFlight: max(cfg.GetInFlightFrames(), 1),
	}
}

// Observe registers fn to see every raw frame read by Run, in input order
// and before it is solved. fn runs on a single goroutine and has returned
// for every frame it was given once Run returns. Frames read when Run
// stops early may be observed without reaching the sink.
func (p *Processor) Observe(fn func(*tracking.RawFrame)) {
	p.observe = fn
}

type job struct {
	seq uint64
	raw *tracking.RawFrame
}

type result struct {
	seq        uint64
	frameID    uint64
	identified *tracking.IdentifiedFrame
	collisions *tracking.CollisionFrame
	err        error
}

// Run processes frames until the channel is closed, ctx is cancelled or
// an error occurs. At most inFlight frames are processed or waiting for
// the sink at any time. On error or cancellation no further frame reaches
// the sink, and Run returns once every worker has stopped. Run stops
// reading frames when it returns; producers should watch the same ctx and
// the caller should cancel it afterwards.
func (p *Processor) Run(ctx context.Context, frames <-chan *tracking.RawFrame, sink Sink) (Stats, error) {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	tokens := make(chan struct{}, p.inFlight)
	jobs := make(chan job)
	results := make(chan result, p.inFlight)

	var wg sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				identified, collisions, err := p.solver.Frame(j.raw, p.spaceID)
				results <- result{seq: j.seq, frameID: j.raw.FrameID, identified: identified, collisions: collisions, err: err}
			}
		}()
	}

	go func() {
		defer close(jobs)
		var seq uint64
		for {
			var raw *tracking.RawFrame
			select {
			case <-runCtx.Done():
				return
			case r, ok := <-frames:
				if !ok {
					return
				}
				raw = r
			}
			if p.observe != nil {
				p.observe(raw)
			}
			select {
			case tokens <- struct{}{}:
			case <-runCtx.Done():
				return
			}
			select {
			case jobs <- job{seq: seq, raw: raw}:
				seq++
			case <-runCtx.Done():
				<-tokens
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	var (
		stats    Stats
		firstErr error
		next     uint64
	)
	pending := make(map[uint64]result)
	for r := range results {
		pending[r.seq] = r
		for {
			cur, ok := pending[next]
			if !ok {
				break
			}
			delete(pending, next)
			next++
			<-tokens

			if firstErr != nil || runCtx.Err() != nil {
				continue
			}
			if cur.err != nil {
				firstErr = fmt.Errorf("frame %d: %w", cur.frameID, cur.err)
				cancel()
				continue
			}
			if err := sink.Consume(runCtx, cur.identified, cur.collisions); err != nil {
				firstErr = fmt.Errorf("sink: frame %d: %w", cur.frameID, err)
				cancel()
				continue
			}
			stats.Frames++
			stats.Positions += int64(len(cur.identified.Positions))
			stats.Collisions += int64(len(cur.collisions.Collisions))
		}
	}

	if firstErr != nil {
		logf("stopped after %d frames: %v", stats.Frames, firstErr)
		return stats, firstErr
	}
	if err := ctx.Err(); err != nil {
		logf("cancelled after %d frames", stats.Frames)
		return stats, err
	}
	monitoring.Debugf("[pipeline] processed %d frames, %d collisions", stats.Frames, stats.Collisions)
	return stats, nil
}
