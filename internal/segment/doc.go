// Package segment indexes segments of a recording by their first frame.
//
// Responsibilities: an ordered index from (FrameID, Time) to a payload,
// queried with "latest segment at or before" semantics on either key.
// Key types: Index, Entry.
//
// Frame and time orders must always agree: inserting a segment whose
// predecessor by frame is not its predecessor by time is rejected.
// Inserts must complete before concurrent lookups start; a built index
// is read-only and safe to share.
package segment
