package identity

import (
	"errors"
	"fmt"
	"slices"
	"sort"

	"github.com/banshee-data/myrmidon/internal/chrono"
	"github.com/banshee-data/myrmidon/internal/validity"
)

var (
	// ErrUnknownAnt is returned for an ant ID absent from the registry.
	ErrUnknownAnt = errors.New("unknown ant")
	// ErrUnknownTag is returned for an identification absent from the
	// registry.
	ErrUnknownTag = errors.New("unknown identification")
	// ErrUnknownShapeType is returned for an unregistered shape type.
	ErrUnknownShapeType = errors.New("unknown shape type")
	// ErrAlreadyExists is returned when creating an ant or shape type with
	// a used ID.
	ErrAlreadyExists = errors.New("already exists")
	// ErrInUse is returned when deleting something still referenced.
	ErrInUse = errors.New("still in use")
	// ErrInvalidArgument is returned for malformed values.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrOverlap is returned when an identification would overlap another
	// one of the same tag or of the same ant.
	ErrOverlap = validity.ErrOverlap
)

// Identifier is the registry of ants, shape types and identifications.
type Identifier struct {
	ants       map[AntID]*Ant
	byTag      map[TagID][]*Identification
	shapeTypes *ShapeTypes
}

// NewIdentifier returns an empty registry.
func NewIdentifier() *Identifier {
	return &Identifier{
		ants:       make(map[AntID]*Ant),
		byTag:      make(map[TagID][]*Identification),
		shapeTypes: NewShapeTypes(),
	}
}

// ShapeTypes returns the shape type registry used by the ants.
func (id *Identifier) ShapeTypes() *ShapeTypes { return id.shapeTypes }

// DeleteShapeType unregisters a shape type no ant capsule uses.
func (id *Identifier) DeleteShapeType(typeID ShapeTypeID) error {
	for _, a := range id.ants {
		if a.usesShapeType(typeID) {
			return fmt.Errorf("shape type %d used by ant %s: %w", typeID, a.id, ErrInUse)
		}
	}
	return id.shapeTypes.delete(typeID)
}

// NextAvailableID returns the lowest unused ant ID.
func (id *Identifier) NextAvailableID() AntID {
	next := AntID(1)
	for _, used := range id.sortedAntIDs() {
		if used != next {
			break
		}
		next++
	}
	return next
}

func (id *Identifier) sortedAntIDs() []AntID {
	res := make([]AntID, 0, len(id.ants))
	for a := range id.ants {
		res = append(res, a)
	}
	slices.Sort(res)
	return res
}

// CreateAnt registers a new ant. An antID of 0 picks NextAvailableID.
func (id *Identifier) CreateAnt(antID AntID) (*Ant, error) {
	if antID == 0 {
		antID = id.NextAvailableID()
	}
	if _, ok := id.ants[antID]; ok {
		return nil, fmt.Errorf("ant %s: %w", antID, ErrAlreadyExists)
	}
	a := &Ant{id: antID, types: id.shapeTypes}
	id.ants[antID] = a
	return a, nil
}

// DeleteAnt removes an ant without identifications.
func (id *Identifier) DeleteAnt(antID AntID) error {
	a, ok := id.ants[antID]
	if !ok {
		return fmt.Errorf("ant %s: %w", antID, ErrUnknownAnt)
	}
	if len(a.identifications) > 0 {
		return fmt.Errorf("ant %s has %d identifications: %w", antID, len(a.identifications), ErrInUse)
	}
	delete(id.ants, antID)
	return nil
}

// Ant returns the ant with the given ID.
func (id *Identifier) Ant(antID AntID) (*Ant, error) {
	a, ok := id.ants[antID]
	if !ok {
		return nil, fmt.Errorf("ant %s: %w", antID, ErrUnknownAnt)
	}
	return a, nil
}

// Ants returns every ant ordered by ID.
func (id *Identifier) Ants() []*Ant {
	res := make([]*Ant, 0, len(id.ants))
	for _, a := range id.sortedAntIDs() {
		res = append(res, id.ants[a])
	}
	return res
}

// checkedInsert returns list plus ident sorted by start, or ErrOverlap.
func checkedInsert(list []*Identification, ident *Identification, what string) ([]*Identification, error) {
	res := append(slices.Clone(list), ident)
	if err := validity.CheckOverlap(res); err != nil {
		return nil, fmt.Errorf("%s: %w", what, err)
	}
	return res, nil
}

// AddIdentification binds tag to ant over [start, end). Nil bounds are
// unbounded. It fails with ErrOverlap if the tag or the ant already has
// an identification overlapping that interval.
func (id *Identifier) AddIdentification(antID AntID, tag TagID, start, end *chrono.Time) (*Identification, error) {
	a, ok := id.ants[antID]
	if !ok {
		return nil, fmt.Errorf("ant %s: %w", antID, ErrUnknownAnt)
	}
	ident := &Identification{tag: tag, ant: antID, interval: validity.Interval{Start: start, End: end}.Clone()}
	if err := ident.interval.Check(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}
	byTag, err := checkedInsert(id.byTag[tag], ident, "tag "+tag.String())
	if err != nil {
		return nil, err
	}
	byAnt, err := checkedInsert(a.identifications, ident, "ant "+antID.String())
	if err != nil {
		return nil, err
	}
	id.byTag[tag] = byTag
	a.identifications = byAnt
	return ident, nil
}

func (id *Identifier) lookup(ident *Identification) (*Ant, int, int, error) {
	ti := slices.Index(id.byTag[ident.tag], ident)
	a, ok := id.ants[ident.ant]
	if ti < 0 || !ok {
		return nil, -1, -1, fmt.Errorf("%s: %w", ident, ErrUnknownTag)
	}
	ai := slices.Index(a.identifications, ident)
	if ai < 0 {
		return nil, -1, -1, fmt.Errorf("%s: %w", ident, ErrUnknownTag)
	}
	return a, ti, ai, nil
}

// DeleteIdentification removes ident from the registry.
func (id *Identifier) DeleteIdentification(ident *Identification) error {
	a, ti, ai, err := id.lookup(ident)
	if err != nil {
		return err
	}
	id.byTag[ident.tag] = slices.Delete(slices.Clone(id.byTag[ident.tag]), ti, ti+1)
	if len(id.byTag[ident.tag]) == 0 {
		delete(id.byTag, ident.tag)
	}
	a.identifications = slices.Delete(slices.Clone(a.identifications), ai, ai+1)
	return nil
}

// SetBounds changes the validity of ident to a copy of iv. On overlap the
// previous bounds are kept.
func (id *Identifier) SetBounds(ident *Identification, iv validity.Interval) error {
	a, _, _, err := id.lookup(ident)
	if err != nil {
		return err
	}
	if err := iv.Check(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}
	old := ident.interval
	ident.interval = iv.Clone()
	byTag := slices.Clone(id.byTag[ident.tag])
	byAnt := slices.Clone(a.identifications)
	if err := validity.CheckOverlap(byTag); err != nil {
		ident.interval = old
		return fmt.Errorf("tag %s: %w", ident.tag, err)
	}
	if err := validity.CheckOverlap(byAnt); err != nil {
		ident.interval = old
		return fmt.Errorf("ant %s: %w", ident.ant, err)
	}
	id.byTag[ident.tag] = byTag
	a.identifications = byAnt
	return nil
}

// SetStart changes the start of ident, nil meaning −∞.
func (id *Identifier) SetStart(ident *Identification, start *chrono.Time) error {
	return id.SetBounds(ident, validity.Interval{Start: start, End: ident.interval.End})
}

// SetEnd changes the end of ident, nil meaning +∞.
func (id *Identifier) SetEnd(ident *Identification, end *chrono.Time) error {
	return id.SetBounds(ident, validity.Interval{Start: ident.interval.Start, End: end})
}

// Identify returns the identification of tag valid at t, or nil if the
// tag identifies no ant at that time.
func (id *Identifier) Identify(tag TagID, t chrono.Time) *Identification {
	return identify(id.byTag[tag], t)
}

func identify(list []*Identification, t chrono.Time) *Identification {
	// list is sorted by start: the candidate is the last one starting at
	// or before t.
	i := sort.Search(len(list), func(i int) bool {
		s := list[i].interval.Start
		return s != nil && s.After(t)
	})
	if i == 0 || !list[i-1].IsValid(t) {
		return nil
	}
	return list[i-1]
}

// Identifications returns the identifications of tag ordered by start.
func (id *Identifier) Identifications(tag TagID) []*Identification {
	return slices.Clone(id.byTag[tag])
}

// Tags returns every tag with at least one identification, ascending.
func (id *Identifier) Tags() []TagID {
	res := make([]TagID, 0, len(id.byTag))
	for t := range id.byTag {
		res = append(res, t)
	}
	slices.Sort(res)
	return res
}

// UseCount returns the number of identifications of tag.
func (id *Identifier) UseCount(tag TagID) int { return len(id.byTag[tag]) }

// UpperUnidentifiedBound returns the first time after t at which tag
// identifies an ant, nil if never. t must not be identified.
func (id *Identifier) UpperUnidentifiedBound(tag TagID, t chrono.Time) (*chrono.Time, error) {
	return validity.UpperUnvalidBound(t, id.byTag[tag])
}

// LowerUnidentifiedBound returns the last time before t at which tag
// stopped identifying an ant, nil if it never did. t must not be
// identified.
func (id *Identifier) LowerUnidentifiedBound(tag TagID, t chrono.Time) (*chrono.Time, error) {
	return validity.LowerUnvalidBound(t, id.byTag[tag])
}
