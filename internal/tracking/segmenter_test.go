package tracking

import (
	"testing"

	"github.com/banshee-data/myrmidon/internal/chrono"
	"github.com/banshee-data/myrmidon/internal/identity"
	"github.com/banshee-data/myrmidon/internal/space"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(ms int64) chrono.Time { return t0.Add(chrono.Duration(ms) * chrono.Millisecond) }

func seen(ts chrono.Time, sp space.SpaceID, ants ...identity.AntID) *IdentifiedFrame {
	f := &IdentifiedFrame{Space: sp, Time: ts}
	for _, a := range ants {
		f.Positions = append(f.Positions, PositionedAnt{AntID: a})
	}
	return f
}

func touching(ts chrono.Time, sp space.SpaceID, cs ...Collision) *CollisionFrame {
	return &CollisionFrame{Space: sp, Time: ts, Collisions: cs}
}

func contact(a, b identity.AntID, types ...[2]identity.ShapeTypeID) Collision {
	return Collision{IDs: [2]identity.AntID{a, b}, Types: types}
}

// feed runs every frame through s and gathers what was closed,
// flushing at the end.
func feed(s *Segmenter, frames []*IdentifiedFrame, collisions []*CollisionFrame) Segments {
	var all Segments
	for i, f := range frames {
		var c *CollisionFrame
		if i < len(collisions) {
			c = collisions[i]
		}
		got := s.Add(f, c)
		all.Trajectories = append(all.Trajectories, got.Trajectories...)
		all.Interactions = append(all.Interactions, got.Interactions...)
	}
	got := s.Flush()
	all.Trajectories = append(all.Trajectories, got.Trajectories...)
	all.Interactions = append(all.Interactions, got.Interactions...)
	return all
}

var timeCmp = cmp.Comparer(func(a, b chrono.Time) bool { return a.Equals(b) })

func TestSegmenterTrajectories(t *testing.T) {
	t.Parallel()

	s := NewSegmenter(chrono.Second)
	assert.Equal(t, chrono.Second, s.MaxGap())

	frames := []*IdentifiedFrame{
		seen(at(0), 1, 1, 2),
		seen(at(500), 1, 1, 2),
		seen(at(1000), 1, 1),
		// ant 2 unseen for 1.5s, ant 1 keeps going
		seen(at(2000), 1, 1, 2),
		seen(at(2500), 1, 1, 2),
		// ant 3 seen once only
		seen(at(3000), 1, 1, 3),
	}
	got := feed(s, frames, nil)

	want := []AntTrajectory{
		{Ant: 1, Space: 1, Start: at(0), End: at(3000), Frames: 6},
		{Ant: 2, Space: 1, Start: at(0), End: at(500), Frames: 2},
		{Ant: 2, Space: 1, Start: at(2000), End: at(2500), Frames: 2},
	}
	sortedTrajectories := Segments{Trajectories: got.Trajectories}
	sortedTrajectories.sort()
	if diff := cmp.Diff(want, sortedTrajectories.Trajectories, timeCmp); diff != "" {
		t.Errorf("trajectories mismatch (-want +got):\n%s", diff)
	}
	assert.Empty(t, got.Interactions)
}

func TestSegmenterClosesOnGapDuringAdd(t *testing.T) {
	t.Parallel()

	s := NewSegmenter(chrono.Second)
	assert.True(t, s.Add(seen(at(0), 1, 1), nil).Empty())
	assert.True(t, s.Add(seen(at(100), 1, 1), nil).Empty())

	// ant 1 is gone and the frame is past the gap, so the sweep closes it
	got := s.Add(seen(at(1200), 1, 2), nil)
	require.Len(t, got.Trajectories, 1)
	assert.Equal(t, identity.AntID(1), got.Trajectories[0].Ant)
	assert.True(t, got.Trajectories[0].End.Equals(at(100)))
	assert.True(t, s.Flush().Empty(), "single frame trajectory of ant 2 is dropped")
}

func TestSegmenterInteractions(t *testing.T) {
	t.Parallel()

	bb := [2]identity.ShapeTypeID{body, body}
	hb := [2]identity.ShapeTypeID{head, body}

	frames := []*IdentifiedFrame{
		seen(at(0), 1, 1, 2, 3),
		seen(at(200), 1, 1, 2, 3),
		seen(at(400), 1, 1, 2, 3),
		seen(at(600), 1, 1, 2, 3),
		seen(at(3000), 1, 1, 2, 3),
		seen(at(3200), 1, 1, 2, 3),
	}
	collisions := []*CollisionFrame{
		touching(at(0), 1, contact(1, 2, hb)),
		touching(at(200), 1, contact(1, 2, bb), contact(2, 3, bb)),
		touching(at(400), 1, contact(1, 2, hb, bb)),
		touching(at(600), 1),
		touching(at(3000), 1, contact(1, 2, bb)),
		touching(at(3200), 1),
	}

	got := feed(NewSegmenter(chrono.Second), frames, collisions)
	got.sort()

	want := []Interaction{
		{IDs: [2]identity.AntID{1, 2}, Space: 1, Types: [][2]identity.ShapeTypeID{bb, hb}, Start: at(0), End: at(400), Frames: 3},
	}
	if diff := cmp.Diff(want, got.Interactions, timeCmp); diff != "" {
		t.Errorf("interactions mismatch (-want +got):\n%s", diff)
	}
	// every ant broke its trajectory in the 2.4s hole
	assert.Len(t, got.Trajectories, 6)
}

func TestSegmenterAntLossClosesInteraction(t *testing.T) {
	t.Parallel()

	s := NewSegmenter(chrono.Second)
	bb := [2]identity.ShapeTypeID{body, body}
	s.Add(seen(at(0), 1, 1, 2), touching(at(0), 1, contact(1, 2, bb)))
	s.Add(seen(at(100), 1, 1, 2), touching(at(100), 1, contact(1, 2, bb)))

	// ant 2 moved to another space: both its trajectory and the
	// interaction end here
	got := s.Add(seen(at(200), 2, 2), nil)
	require.Len(t, got.Interactions, 1)
	assert.True(t, got.Interactions[0].End.Equals(at(100)))
	require.Len(t, got.Trajectories, 1)
	assert.Equal(t, identity.AntID(2), got.Trajectories[0].Ant)
	assert.Equal(t, space.SpaceID(1), got.Trajectories[0].Space)
}

func TestSegmenterClockChange(t *testing.T) {
	t.Parallel()

	mono := func(wall chrono.Time, ms uint64, id chrono.MonoclockID) chrono.Time {
		ts, err := wall.ToTimestamp()
		require.NoError(t, err)
		res, err := chrono.FromTimestampAndMonotonic(ts, ms*1_000_000, id)
		require.NoError(t, err)
		return res
	}

	s := NewSegmenter(chrono.Second)
	s.Add(seen(mono(at(0), 1000, 1), 1, 1), nil)
	// the wall clock jumps back but the monotonic clock moved 100ms
	assert.True(t, s.Add(seen(mono(at(-5000), 1100, 1), 1, 1), nil).Empty())
	// another clock: the trajectory cannot continue
	got := s.Add(seen(mono(at(0), 1200, 2), 1, 1), nil)
	require.Len(t, got.Trajectories, 1)
	assert.Equal(t, 2, got.Trajectories[0].Frames)
	assert.Equal(t, 100*chrono.Millisecond, got.Trajectories[0].End.Sub(got.Trajectories[0].Start))
}

func TestMergeTypes(t *testing.T) {
	t.Parallel()

	var set [][2]identity.ShapeTypeID
	set = mergeTypes(set, [][2]identity.ShapeTypeID{{2, 1}, {1, 1}})
	set = mergeTypes(set, [][2]identity.ShapeTypeID{{1, 1}, {1, 2}, {2, 1}})
	assert.Equal(t, [][2]identity.ShapeTypeID{{1, 1}, {1, 2}, {2, 1}}, set)
}
