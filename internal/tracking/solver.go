package tracking

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/banshee-data/myrmidon/internal/geometry"
	"github.com/banshee-data/myrmidon/internal/identity"
	"github.com/banshee-data/myrmidon/internal/space"
)

// ErrUnknownSpace is returned when a frame references a space absent
// from the universe.
var ErrUnknownSpace = space.ErrUnknownSpace

// Solver identifies raw frames and computes their collisions.
type Solver struct {
	identities *identity.Compiled
	universe   *space.Universe
	margin     float64
}

// NewSolver returns a Solver over a compiled identity snapshot. margin
// inflates the bounding boxes of the collision broadphase; it never
// changes the result, only how many capsule pairs are tested.
func NewSolver(identities *identity.Compiled, universe *space.Universe, margin float64) *Solver {
	return &Solver{identities: identities, universe: universe, margin: max(margin, 0)}
}

// IdentifyFrame resolves every tag of raw to its ant. Tags identifying no
// ant at raw.Time are dropped.
func (s *Solver) IdentifyFrame(raw *RawFrame, spaceID space.SpaceID) *IdentifiedFrame {
	res := &IdentifiedFrame{
		FrameID:   raw.FrameID,
		Space:     spaceID,
		Time:      raw.Time,
		Width:     raw.Width,
		Height:    raw.Height,
		Positions: make([]PositionedAnt, 0, len(raw.Tags)),
	}
	for _, tag := range raw.Tags {
		ident := s.identities.Identify(tag.ID, raw.Time)
		if ident == nil {
			continue
		}
		pos, angle := ident.ComputePositionFromTag(geometry.Vec{X: tag.X, Y: tag.Y}, tag.Theta)
		res.Positions = append(res.Positions, PositionedAnt{
			AntID:    ident.TargetAntID(),
			Position: pos,
			Angle:    angle,
		})
	}
	return res
}

type posedAnt struct {
	id       identity.AntID
	zone     space.ZoneID
	capsules []identity.TypedCapsule
	box      geometry.AABB
}

// CollideFrame locates every ant of frame in a zone, writing it back to
// frame.Positions, and returns the contacts between ants sharing a zone.
func (s *Solver) CollideFrame(frame *IdentifiedFrame) (*CollisionFrame, error) {
	sp, err := s.universe.Space(frame.Space)
	if err != nil {
		return nil, fmt.Errorf("frame %d: %w", frame.FrameID, err)
	}
	zones := sp.ZonesAt(frame.Time)

	byZone := make(map[space.ZoneID][]posedAnt)
	for i := range frame.Positions {
		p := &frame.Positions[i]
		p.Zone = locate(zones, p.Position)
		caps := s.identities.Capsules(p.AntID)
		if len(caps) == 0 {
			continue
		}
		iso := geometry.NewIsometry(p.Angle, p.Position)
		posed := posedAnt{id: p.AntID, zone: p.Zone, capsules: make([]identity.TypedCapsule, len(caps))}
		for j, c := range caps {
			posed.capsules[j] = identity.TypedCapsule{Type: c.Type, Capsule: c.Capsule.Transform(iso)}
			if j == 0 {
				posed.box = posed.capsules[j].Capsule.AABB()
			} else {
				posed.box = posed.box.Union(posed.capsules[j].Capsule.AABB())
			}
		}
		posed.box = posed.box.Inflate(s.margin)
		byZone[p.Zone] = append(byZone[p.Zone], posed)
	}

	res := &CollisionFrame{FrameID: frame.FrameID, Space: frame.Space, Time: frame.Time}
	for zone, ants := range byZone {
		res.Collisions = append(res.Collisions, collideZone(zone, ants)...)
	}
	slices.SortFunc(res.Collisions, func(a, b Collision) int {
		return cmp.Or(cmp.Compare(a.IDs[0], b.IDs[0]), cmp.Compare(a.IDs[1], b.IDs[1]))
	})
	return res, nil
}

// Frame identifies raw and computes its collisions.
func (s *Solver) Frame(raw *RawFrame, spaceID space.SpaceID) (*IdentifiedFrame, *CollisionFrame, error) {
	identified := s.IdentifyFrame(raw, spaceID)
	collisions, err := s.CollideFrame(identified)
	if err != nil {
		return nil, nil, err
	}
	return identified, collisions, nil
}

func locate(zones []space.ZoneGeometry, p geometry.Vec) space.ZoneID {
	for _, z := range zones {
		if z.Shapes.Contains(p) {
			return z.ID
		}
	}
	return 0
}

func collideZone(zone space.ZoneID, ants []posedAnt) []Collision {
	boxes := make([]geometry.AABB, len(ants))
	for i, a := range ants {
		boxes[i] = a.box
	}
	var res []Collision
	newGrid(boxes).pairs(func(i, j int) {
		a, b := ants[i], ants[j]
		if a.id == b.id {
			return
		}
		if a.id > b.id {
			a, b = b, a
		}
		var types [][2]identity.ShapeTypeID
		for _, ca := range a.capsules {
			for _, cb := range b.capsules {
				if geometry.CapsuleIntersect(ca.Capsule, cb.Capsule) {
					types = append(types, [2]identity.ShapeTypeID{ca.Type, cb.Type})
				}
			}
		}
		if len(types) == 0 {
			return
		}
		slices.SortFunc(types, func(x, y [2]identity.ShapeTypeID) int {
			return cmp.Or(cmp.Compare(x[0], y[0]), cmp.Compare(x[1], y[1]))
		})
		res = append(res, Collision{
			IDs:   [2]identity.AntID{a.id, b.id},
			Types: slices.Compact(types),
			Zone:  zone,
		})
	})
	return res
}
