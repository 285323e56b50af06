package space

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"sort"

	"github.com/banshee-data/myrmidon/internal/chrono"
	"github.com/banshee-data/myrmidon/internal/geometry"
	"github.com/banshee-data/myrmidon/internal/validity"
)

var (
	// ErrUnknownSpace is returned for a space ID absent from the universe.
	ErrUnknownSpace = errors.New("unknown space")
	// ErrUnknownZone is returned for a zone ID absent from a space.
	ErrUnknownZone = errors.New("unknown zone")
	// ErrUnknownDefinition is returned for a definition not owned by the
	// zone.
	ErrUnknownDefinition = errors.New("unknown zone definition")
	// ErrAlreadyExists is returned when creating with a used ID.
	ErrAlreadyExists = errors.New("already exists")
	// ErrInvalidArgument is returned for malformed values.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrOverlap is returned when two definitions of a zone would overlap.
	ErrOverlap = validity.ErrOverlap
)

// SpaceID identifies a Space. Valid IDs start at 1.
type SpaceID uint32

// Space is one arena, usually the field of view of a camera.
type Space struct {
	id       SpaceID
	name     string
	universe *Universe
	zones    map[ZoneID]*Zone
}

// ID returns the space identifier.
func (s *Space) ID() SpaceID { return s.id }

// Name returns the space name.
func (s *Space) Name() string { return s.name }

// SetName renames the space.
func (s *Space) SetName(name string) { s.name = name }

// CreateZone adds a zone. Zone IDs are unique across the universe; an id
// of 0 picks the lowest free one.
func (s *Space) CreateZone(name string, id ZoneID) (*Zone, error) {
	if id == 0 {
		id = s.universe.nextZoneID()
	}
	if _, used := s.universe.zoneOwner(id); used {
		return nil, fmt.Errorf("zone %d: %w", id, ErrAlreadyExists)
	}
	z := &Zone{id: id, name: name}
	s.zones[id] = z
	return z, nil
}

// DeleteZone removes a zone and its definitions.
func (s *Space) DeleteZone(id ZoneID) error {
	if _, ok := s.zones[id]; !ok {
		return fmt.Errorf("space %d: zone %d: %w", s.id, id, ErrUnknownZone)
	}
	delete(s.zones, id)
	return nil
}

// Zone returns the zone with the given ID.
func (s *Space) Zone(id ZoneID) (*Zone, error) {
	z, ok := s.zones[id]
	if !ok {
		return nil, fmt.Errorf("space %d: zone %d: %w", s.id, id, ErrUnknownZone)
	}
	return z, nil
}

// Zones returns every zone ordered by ID.
func (s *Space) Zones() []*Zone {
	res := make([]*Zone, 0, len(s.zones))
	for _, z := range s.zones {
		res = append(res, z)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].id < res[j].id })
	return res
}

// ZoneGeometry is the shape of a zone at a given time.
type ZoneGeometry struct {
	ID     ZoneID
	Shapes geometry.Shapes
}

// ZonesAt returns the geometry of every zone defined at t, ordered by
// zone ID.
func (s *Space) ZonesAt(t chrono.Time) []ZoneGeometry {
	var res []ZoneGeometry
	for _, z := range s.Zones() {
		if g := z.GeometryAt(t); g != nil {
			res = append(res, ZoneGeometry{ID: z.id, Shapes: g})
		}
	}
	return res
}

// Locate returns the first zone, in ID order, whose geometry at t
// contains p, or 0.
func (s *Space) Locate(p geometry.Vec, t chrono.Time) ZoneID {
	for _, zg := range s.ZonesAt(t) {
		if zg.Shapes.Contains(p) {
			return zg.ID
		}
	}
	return 0
}

// Universe holds every Space of an experiment.
type Universe struct {
	spaces map[SpaceID]*Space
}

// NewUniverse returns an empty universe.
func NewUniverse() *Universe {
	return &Universe{spaces: make(map[SpaceID]*Space)}
}

// CreateSpace adds a space. An id of 0 picks the lowest free one.
func (u *Universe) CreateSpace(name string, id SpaceID) (*Space, error) {
	if id == 0 {
		id = 1
		for u.spaces[id] != nil {
			id++
		}
	}
	if _, ok := u.spaces[id]; ok {
		return nil, fmt.Errorf("space %d: %w", id, ErrAlreadyExists)
	}
	s := &Space{id: id, name: name, universe: u, zones: make(map[ZoneID]*Zone)}
	u.spaces[id] = s
	return s, nil
}

// DeleteSpace removes a space and its zones.
func (u *Universe) DeleteSpace(id SpaceID) error {
	if _, ok := u.spaces[id]; !ok {
		return fmt.Errorf("space %d: %w", id, ErrUnknownSpace)
	}
	delete(u.spaces, id)
	return nil
}

// Space returns the space with the given ID.
func (u *Universe) Space(id SpaceID) (*Space, error) {
	s, ok := u.spaces[id]
	if !ok {
		return nil, fmt.Errorf("space %d: %w", id, ErrUnknownSpace)
	}
	return s, nil
}

// Spaces returns every space ordered by ID.
func (u *Universe) Spaces() []*Space {
	res := make([]*Space, 0, len(u.spaces))
	for _, s := range u.spaces {
		res = append(res, s)
	}
	slices.SortFunc(res, func(a, b *Space) int { return cmp.Compare(a.id, b.id) })
	return res
}

func (u *Universe) zoneOwner(id ZoneID) (*Space, bool) {
	for _, s := range u.spaces {
		if _, ok := s.zones[id]; ok {
			return s, true
		}
	}
	return nil, false
}

func (u *Universe) nextZoneID() ZoneID {
	id := ZoneID(1)
	for {
		if _, used := u.zoneOwner(id); !used {
			return id
		}
		id++
	}
}
