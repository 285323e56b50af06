// Package space models the arenas an experiment is recorded in. A Space
// holds Zones whose geometry may change over time through
// non-overlapping Definitions.
package space
