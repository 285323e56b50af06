// Package identity resolves which ant wears which tag at a given time.
//
// Responsibilities: the ant registry with per-ant body capsules, the
// shape type registry, identifications binding a tag to an ant over a
// validity interval, and an immutable compiled snapshot for concurrent
// lookups during frame processing.
// Key types: Identifier, Ant, Identification, ShapeTypes, Compiled.
//
// Invariants enforced on every mutation: identifications of the same tag
// never overlap, and identifications targeting the same ant never
// overlap. A rejected mutation leaves the registry unchanged.
//
// Identifier is not safe for concurrent mutation. Call Compile once the
// registry is built and share the Compiled value between goroutines.
package identity
