package identity

import (
	"fmt"

	"github.com/banshee-data/myrmidon/internal/chrono"
	"github.com/banshee-data/myrmidon/internal/geometry"
)

// AntID identifies an ant. Valid IDs start at 1.
type AntID uint32

func (id AntID) String() string { return fmt.Sprintf("%03d", uint32(id)) }

// TypedCapsule is one body part of an ant, in the ant's own frame.
type TypedCapsule struct {
	Type    ShapeTypeID      `json:"type"`
	Capsule geometry.Capsule `json:"capsule"`
}

// Ant is a tracked individual. It is owned by an Identifier.
type Ant struct {
	id              AntID
	types           *ShapeTypes
	capsules        []TypedCapsule
	identifications []*Identification
}

// ID returns the ant's identifier.
func (a *Ant) ID() AntID { return a.id }

// Capsules returns a copy of the ant's body parts.
func (a *Ant) Capsules() []TypedCapsule {
	return append([]TypedCapsule(nil), a.capsules...)
}

// AddCapsule appends a body part of a registered shape type.
func (a *Ant) AddCapsule(typeID ShapeTypeID, c geometry.Capsule) error {
	if !a.types.Has(typeID) {
		return fmt.Errorf("ant %s: shape type %d: %w", a.id, typeID, ErrUnknownShapeType)
	}
	if err := c.Validate(); err != nil {
		return fmt.Errorf("ant %s: %w", a.id, err)
	}
	a.capsules = append(a.capsules, TypedCapsule{Type: typeID, Capsule: c})
	return nil
}

// DeleteCapsule removes the i-th body part.
func (a *Ant) DeleteCapsule(i int) error {
	if i < 0 || i >= len(a.capsules) {
		return fmt.Errorf("ant %s: capsule index %d not in [0;%d[: %w", a.id, i, len(a.capsules), ErrInvalidArgument)
	}
	a.capsules = append(a.capsules[:i], a.capsules[i+1:]...)
	return nil
}

// ClearCapsules removes every body part.
func (a *Ant) ClearCapsules() { a.capsules = nil }

// Identifications returns the ant's identifications ordered by start.
func (a *Ant) Identifications() []*Identification {
	return append([]*Identification(nil), a.identifications...)
}

// IdentifiedAt returns the identification of the ant valid at t, or nil.
func (a *Ant) IdentifiedAt(t chrono.Time) *Identification {
	for _, ident := range a.identifications {
		if ident.IsValid(t) {
			return ident
		}
	}
	return nil
}

func (a *Ant) usesShapeType(id ShapeTypeID) bool {
	for _, c := range a.capsules {
		if c.Type == id {
			return true
		}
	}
	return false
}
