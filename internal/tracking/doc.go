// Package tracking turns raw tag detections into identified ant
// positions and computes the contacts between ants in each frame.
//
// A Solver is built once from a compiled identity snapshot and a space
// universe. Its methods do not mutate either and may be called from
// several goroutines.
package tracking
