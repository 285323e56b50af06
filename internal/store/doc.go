// Package store persists experiments and processing runs in SQLite.
//
// The schema is managed by golang-migrate from the migrations embedded in
// the binary. Experiment tables hold the identity registry and the space
// universe; run tables hold the per-frame positions and collisions
// produced by the pipeline.
package store
