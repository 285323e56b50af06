// Package movie translates between tracking frame IDs and the frame IDs
// of an encoded movie segment.
//
// Encoders drop frames, so a movie holds fewer frames than the tracking
// stream it was recorded from. The correspondence is an offset table: the
// tracking frame of a movie frame is the movie frame plus the offset
// active at that movie frame, and the offset only changes where frames
// were dropped. Tables come from plain-text frame-matching files with one
// "<movieFrame> <trackingFrame>" pair per line.
//
// A Segment is immutable once built and safe for concurrent lookups.
package movie
