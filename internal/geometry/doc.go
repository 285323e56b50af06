// Package geometry holds the 2-D shapes describing ant bodies and zones.
//
// Responsibilities: rigid transforms, the tapered capsule with its
// pairwise intersection test, circles, polygons, axis-aligned bounding
// boxes for broadphase culling, and a Shape union over the three shape
// kinds.
// Key types: Isometry, Capsule, Circle, Polygon, Shape, AABB.
//
// Vectors are gonum r2.Vec values. Coordinates are image pixels and
// angles radians, counter-clockwise in the image frame.
package geometry
