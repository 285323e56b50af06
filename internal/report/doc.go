// Package report renders the output of a processing run: an HTML chart of
// collisions over time and a PNG plot of ant trajectories.
package report
