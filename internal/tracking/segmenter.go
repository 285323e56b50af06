package tracking

import (
	"slices"
	"sort"

	"github.com/banshee-data/myrmidon/internal/chrono"
	"github.com/banshee-data/myrmidon/internal/identity"
	"github.com/banshee-data/myrmidon/internal/space"
)

// AntTrajectory is a stretch of consecutive sightings of one ant in one
// space, with no hole longer than the segmenter gap.
type AntTrajectory struct {
	Ant    identity.AntID `json:"ant"`
	Space  space.SpaceID  `json:"space"`
	Start  chrono.Time    `json:"start"`
	End    chrono.Time    `json:"end"`
	Frames int            `json:"frames"`
}

// Interaction is a stretch of frames in which two ants kept colliding.
// Types is the sorted set of shape type pairs that touched at least once.
type Interaction struct {
	IDs    [2]identity.AntID         `json:"ids"`
	Space  space.SpaceID             `json:"space"`
	Types  [][2]identity.ShapeTypeID `json:"types"`
	Start  chrono.Time               `json:"start"`
	End    chrono.Time               `json:"end"`
	Frames int                       `json:"frames"`
}

// Segments holds the trajectories and interactions closed by a Segmenter
// call.
type Segments struct {
	Trajectories []AntTrajectory
	Interactions []Interaction
}

// Empty reports whether s holds nothing.
func (s Segments) Empty() bool {
	return len(s.Trajectories) == 0 && len(s.Interactions) == 0
}

// Segmenter folds a time ordered stream of frames into trajectories and
// interactions. A segment closes when its ant or pair is unseen for more
// than the gap, when the frame space changes, or when time goes backwards
// or moves to another monotonic clock. Segments spanning a single frame
// are dropped. A Segmenter is not safe for concurrent use.
type Segmenter struct {
	maxGap       chrono.Duration
	trajectories map[identity.AntID]*AntTrajectory
	interactions map[[2]identity.AntID]*Interaction
}

// NewSegmenter returns a Segmenter closing segments after maxGap.
func NewSegmenter(maxGap chrono.Duration) *Segmenter {
	return &Segmenter{
		maxGap:       maxGap,
		trajectories: make(map[identity.AntID]*AntTrajectory),
		interactions: make(map[[2]identity.AntID]*Interaction),
	}
}

// MaxGap returns the gap after which segments close.
func (s *Segmenter) MaxGap() chrono.Duration { return s.maxGap }

func sameClock(a, b chrono.Time) bool {
	if a.HasMono() != b.HasMono() {
		return false
	}
	return !a.HasMono() || a.MonoID() == b.MonoID()
}

// continues reports whether a segment last seen at last in space sp can
// be extended by a frame of space cur at now.
func (s *Segmenter) continues(last chrono.Time, sp space.SpaceID, now chrono.Time, cur space.SpaceID) bool {
	if sp != cur || !sameClock(last, now) {
		return false
	}
	d := now.Sub(last)
	return d >= 0 && d <= s.maxGap
}

// Add feeds one processed frame and returns the segments it closed.
// collisions may be nil.
func (s *Segmenter) Add(identified *IdentifiedFrame, collisions *CollisionFrame) Segments {
	var out Segments
	now := identified.Time

	for _, p := range identified.Positions {
		t := s.trajectories[p.AntID]
		if t != nil && !s.continues(t.End, t.Space, now, identified.Space) {
			s.closeAnt(p.AntID, &out)
			t = nil
		}
		if t == nil {
			s.trajectories[p.AntID] = &AntTrajectory{Ant: p.AntID, Space: identified.Space, Start: now, End: now, Frames: 1}
			continue
		}
		t.End = now
		t.Frames++
	}

	if collisions != nil {
		for _, c := range collisions.Collisions {
			i := s.interactions[c.IDs]
			if i != nil && !s.continues(i.End, i.Space, now, collisions.Space) {
				s.closeInteraction(c.IDs, &out)
				i = nil
			}
			if i == nil {
				i = &Interaction{IDs: c.IDs, Space: collisions.Space, Start: now}
				s.interactions[c.IDs] = i
			}
			i.End = now
			i.Frames++
			i.Types = mergeTypes(i.Types, c.Types)
		}
	}

	for ant, t := range s.trajectories {
		if !s.continues(t.End, t.Space, now, t.Space) {
			s.closeAnt(ant, &out)
		}
	}
	for ids, i := range s.interactions {
		if !s.continues(i.End, i.Space, now, i.Space) {
			s.closeInteraction(ids, &out)
		}
	}

	out.sort()
	return out
}

// Flush closes and returns every open segment.
func (s *Segmenter) Flush() Segments {
	var out Segments
	for ant := range s.trajectories {
		s.closeAnt(ant, &out)
	}
	for ids := range s.interactions {
		s.closeInteraction(ids, &out)
	}
	out.sort()
	return out
}

// closeAnt closes the trajectory of ant together with its interactions.
func (s *Segmenter) closeAnt(ant identity.AntID, out *Segments) {
	if t, ok := s.trajectories[ant]; ok {
		delete(s.trajectories, ant)
		if t.Frames >= 2 {
			out.Trajectories = append(out.Trajectories, *t)
		}
	}
	for ids := range s.interactions {
		if ids[0] == ant || ids[1] == ant {
			s.closeInteraction(ids, out)
		}
	}
}

func (s *Segmenter) closeInteraction(ids [2]identity.AntID, out *Segments) {
	i, ok := s.interactions[ids]
	if !ok {
		return
	}
	delete(s.interactions, ids)
	if i.Frames >= 2 {
		out.Interactions = append(out.Interactions, *i)
	}
}

func lessTypes(a, b [2]identity.ShapeTypeID) bool {
	if a[0] != b[0] {
		return a[0] < b[0]
	}
	return a[1] < b[1]
}

func mergeTypes(set, add [][2]identity.ShapeTypeID) [][2]identity.ShapeTypeID {
	for _, tp := range add {
		i := sort.Search(len(set), func(i int) bool { return !lessTypes(set[i], tp) })
		if i < len(set) && set[i] == tp {
			continue
		}
		set = slices.Insert(set, i, tp)
	}
	return set
}

func (s *Segments) sort() {
	sort.Slice(s.Trajectories, func(i, j int) bool {
		a, b := s.Trajectories[i], s.Trajectories[j]
		if a.Ant != b.Ant {
			return a.Ant < b.Ant
		}
		return a.Start.Before(b.Start)
	})
	sort.Slice(s.Interactions, func(i, j int) bool {
		a, b := s.Interactions[i], s.Interactions[j]
		if a.IDs != b.IDs {
			if a.IDs[0] != b.IDs[0] {
				return a.IDs[0] < b.IDs[0]
			}
			return a.IDs[1] < b.IDs[1]
		}
		return a.Start.Before(b.Start)
	})
}
