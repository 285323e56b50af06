package identity

import (
	"slices"

	"github.com/banshee-data/myrmidon/internal/chrono"
)

// Compiled is an immutable snapshot of an Identifier. Its methods are
// safe for concurrent use.
type Compiled struct {
	byTag    map[TagID][]*Identification
	capsules map[AntID][]TypedCapsule
	ants     []AntID
}

// Compile snapshots the registry. Later mutations of the Identifier do
// not affect the result.
func (id *Identifier) Compile() *Compiled {
	res := &Compiled{
		byTag:    make(map[TagID][]*Identification, len(id.byTag)),
		capsules: make(map[AntID][]TypedCapsule, len(id.ants)),
		ants:     id.sortedAntIDs(),
	}
	for tag, list := range id.byTag {
		clones := make([]*Identification, len(list))
		for i, ident := range list {
			clones[i] = ident.clone()
		}
		res.byTag[tag] = clones
	}
	for antID, a := range id.ants {
		res.capsules[antID] = slices.Clone(a.capsules)
	}
	return res
}

// Identify returns the identification of tag valid at t, or nil. The
// result must not be modified.
func (c *Compiled) Identify(tag TagID, t chrono.Time) *Identification {
	return identify(c.byTag[tag], t)
}

// Capsules returns the body parts of ant, nil for an unknown ant. The
// result must not be modified.
func (c *Compiled) Capsules(ant AntID) []TypedCapsule {
	return c.capsules[ant]
}

// Ants returns the IDs of every ant, ascending.
func (c *Compiled) Ants() []AntID {
	return slices.Clone(c.ants)
}
