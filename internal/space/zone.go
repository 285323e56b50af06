package space

import (
	"fmt"
	"slices"

	"github.com/banshee-data/myrmidon/internal/chrono"
	"github.com/banshee-data/myrmidon/internal/geometry"
	"github.com/banshee-data/myrmidon/internal/validity"
)

// ZoneID identifies a zone within a Universe. 0 means "no zone".
type ZoneID uint32

// Definition is the geometry of a zone during a validity interval.
type Definition struct {
	shapes   geometry.Shapes
	interval validity.Interval
}

// Shapes returns the geometry. The result must not be modified.
func (d *Definition) Shapes() geometry.Shapes { return d.shapes }

// Interval returns a copy of the validity of d. It implements
// validity.Bounded.
func (d *Definition) Interval() validity.Interval { return d.interval.Clone() }

// Zone is a named region of a Space.
type Zone struct {
	id          ZoneID
	name        string
	definitions []*Definition
}

// ID returns the zone identifier.
func (z *Zone) ID() ZoneID { return z.id }

// Name returns the zone name.
func (z *Zone) Name() string { return z.name }

// SetName renames the zone.
func (z *Zone) SetName(name string) { z.name = name }

// Definitions returns the definitions ordered by start.
func (z *Zone) Definitions() []*Definition { return slices.Clone(z.definitions) }

// AddDefinition adds geometry valid over [start, end). Nil bounds are
// unbounded.
func (z *Zone) AddDefinition(shapes geometry.Shapes, start, end *chrono.Time) (*Definition, error) {
	if err := shapes.Validate(); err != nil {
		return nil, fmt.Errorf("zone %d: %w", z.id, err)
	}
	d := &Definition{shapes: slices.Clone(shapes), interval: validity.Interval{Start: start, End: end}.Clone()}
	if err := d.interval.Check(); err != nil {
		return nil, fmt.Errorf("zone %d: %w: %w", z.id, ErrInvalidArgument, err)
	}
	defs := append(slices.Clone(z.definitions), d)
	if err := validity.CheckOverlap(defs); err != nil {
		return nil, fmt.Errorf("zone %d: %w", z.id, err)
	}
	z.definitions = defs
	return d, nil
}

// SetBounds changes the validity of d. On overlap the previous bounds are
// kept.
func (z *Zone) SetBounds(d *Definition, iv validity.Interval) error {
	if !slices.Contains(z.definitions, d) {
		return fmt.Errorf("zone %d: definition %s: %w", z.id, d.interval, ErrUnknownDefinition)
	}
	if err := iv.Check(); err != nil {
		return fmt.Errorf("zone %d: %w: %w", z.id, ErrInvalidArgument, err)
	}
	old := d.interval
	d.interval = iv.Clone()
	defs := slices.Clone(z.definitions)
	if err := validity.CheckOverlap(defs); err != nil {
		d.interval = old
		return fmt.Errorf("zone %d: %w", z.id, err)
	}
	z.definitions = defs
	return nil
}

// SetShapes replaces the geometry of d.
func (z *Zone) SetShapes(d *Definition, shapes geometry.Shapes) error {
	if !slices.Contains(z.definitions, d) {
		return fmt.Errorf("zone %d: %w", z.id, ErrUnknownDefinition)
	}
	if err := shapes.Validate(); err != nil {
		return fmt.Errorf("zone %d: %w", z.id, err)
	}
	d.shapes = slices.Clone(shapes)
	return nil
}

// DeleteDefinition removes d.
func (z *Zone) DeleteDefinition(d *Definition) error {
	i := slices.Index(z.definitions, d)
	if i < 0 {
		return fmt.Errorf("zone %d: %w", z.id, ErrUnknownDefinition)
	}
	z.definitions = slices.Delete(slices.Clone(z.definitions), i, i+1)
	return nil
}

// GeometryAt returns the shapes valid at t, or nil.
func (z *Zone) GeometryAt(t chrono.Time) geometry.Shapes {
	for _, d := range z.definitions {
		if d.interval.IsValid(t) {
			return d.shapes
		}
	}
	return nil
}
