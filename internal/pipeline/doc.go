// Package pipeline feeds raw tracking frames through a tracking.Solver on
// a pool of workers and hands the results, in input order, to a Sink.
package pipeline
