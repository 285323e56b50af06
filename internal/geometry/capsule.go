package geometry

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// ErrInvalidArgument is returned when a shape is built from non-finite or
// negative values, or from too few vertices.
var ErrInvalidArgument = errors.New("invalid shape")

const (
	// Squared projection distance under which two capsules touch
	// regardless of their radii.
	touchDistance2 = 1e-6
	// Squared segment length under which a segment is treated as a point.
	degenerateLength2 = 1e-12
)

// Capsule is a segment C1-C2 swept by a disk whose radius varies linearly
// from R1 at C1 to R2 at C2.
type Capsule struct {
	C1 Vec     `json:"c1"`
	C2 Vec     `json:"c2"`
	R1 float64 `json:"r1"`
	R2 float64 `json:"r2"`
}

func finite(v ...float64) bool {
	for _, f := range v {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
	}
	return true
}

// NewCapsule returns a validated Capsule.
func NewCapsule(c1, c2 Vec, r1, r2 float64) (Capsule, error) {
	c := Capsule{C1: c1, C2: c2, R1: r1, R2: r2}
	return c, c.Validate()
}

// Validate rejects non-finite coordinates and negative or non-finite
// radii.
func (c Capsule) Validate() error {
	if !finite(c.C1.X, c.C1.Y, c.C2.X, c.C2.Y) {
		return fmt.Errorf("%s: non-finite center: %w", c, ErrInvalidArgument)
	}
	if !finite(c.R1, c.R2) || c.R1 < 0 || c.R2 < 0 {
		return fmt.Errorf("%s: radii must be finite and positive: %w", c, ErrInvalidArgument)
	}
	return nil
}

// Transform returns the capsule moved by iso. Radii are unchanged.
func (c Capsule) Transform(iso Isometry) Capsule {
	return Capsule{C1: iso.Apply(c.C1), C2: iso.Apply(c.C2), R1: c.R1, R2: c.R2}
}

// project returns the parameter in [0,1] of the point of segment
// start + t·dir closest to p, and that point.
func project(p, start, dir Vec) (float64, Vec) {
	l2 := r2.Norm2(dir)
	t := 0.0
	if l2 >= degenerateLength2 {
		t = r2.Dot(r2.Sub(p, start), dir) / l2
	}
	t = max(0, min(t, 1))
	return t, r2.Add(start, r2.Scale(t, dir))
}

// Contains reports whether p lies inside the capsule, boundary included.
func (c Capsule) Contains(p Vec) bool {
	t, proj := project(p, c.C1, r2.Sub(c.C2, c.C1))
	r := c.R1 + t*(c.R2-c.R1)
	return dist2(p, proj) <= r*r
}

// AABB returns the bounding box of both end disks.
func (c Capsule) AABB() AABB {
	return CircleAABB(c.C1, c.R1).Union(CircleAABB(c.C2, c.R2))
}

// Intersects reports whether c and o collide, see CapsuleIntersect.
func (c Capsule) Intersects(o Capsule) bool {
	return CapsuleIntersect(c, o)
}

// endpointHits projects point, the center of a disk of radius r, on the
// segment start + t·dir whose radius goes from rStart to rEnd.
func endpointHits(point Vec, r float64, start, dir Vec, rStart, rEnd float64) bool {
	t, proj := project(point, start, dir)
	d2 := dist2(point, proj)
	if d2 < touchDistance2 {
		return true
	}
	sum := rStart + t*(rEnd-rStart) + r
	return d2 <= sum*sum
}

func dist2(a, b Vec) float64 { return r2.Norm2(r2.Sub(a, b)) }

// CapsuleIntersect is an approximate collision test between two capsules.
// Each of the four centers is projected on the other capsule's segment,
// clamped to the segment, and compared against the interpolated radius
// at the projection plus the radius at that center. The test misses a
// thin band of true contacts between strongly tapered capsules, which
// close in as the shapes approach. It is symmetric in a and b.
func CapsuleIntersect(a, b Capsule) bool {
	aDir := r2.Sub(a.C2, a.C1)
	bDir := r2.Sub(b.C2, b.C1)
	return endpointHits(b.C1, b.R1, a.C1, aDir, a.R1, a.R2) ||
		endpointHits(b.C2, b.R2, a.C1, aDir, a.R1, a.R2) ||
		endpointHits(a.C1, a.R1, b.C1, bDir, b.R1, b.R2) ||
		endpointHits(a.C2, a.R2, b.C1, bDir, b.R1, b.R2)
}

func (c Capsule) String() string {
	return fmt.Sprintf("Capsule{C1:(%g,%g),R1:%g,C2:(%g,%g),R2:%g}",
		c.C1.X, c.C1.Y, c.R1, c.C2.X, c.C2.Y, c.R2)
}
