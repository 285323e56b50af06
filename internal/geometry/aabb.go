package geometry

import (
	"gonum.org/v1/gonum/spatial/r2"
)

// AABB is an axis-aligned bounding box. Unlike r2.Box, a zero-size box
// still covers its point: a disk of radius 0 has a valid bound.
type AABB r2.Box

// CircleAABB bounds the disk of radius r centered on c.
func CircleAABB(c Vec, r float64) AABB {
	return AABB{Min: Vec{X: c.X - r, Y: c.Y - r}, Max: Vec{X: c.X + r, Y: c.Y + r}}
}

// PointsAABB bounds a non-empty point set.
func PointsAABB(pts []Vec) AABB {
	res := AABB{Min: pts[0], Max: pts[0]}
	for _, p := range pts[1:] {
		res = res.Extend(p)
	}
	return res
}

// Extend grows b to include p.
func (b AABB) Extend(p Vec) AABB {
	return AABB{
		Min: Vec{X: min(b.Min.X, p.X), Y: min(b.Min.Y, p.Y)},
		Max: Vec{X: max(b.Max.X, p.X), Y: max(b.Max.Y, p.Y)},
	}
}

// Union returns the smallest box containing b and o.
func (b AABB) Union(o AABB) AABB {
	return b.Extend(o.Min).Extend(o.Max)
}

// Inflate grows b by m on every side.
func (b AABB) Inflate(m float64) AABB {
	return AABB{
		Min: Vec{X: b.Min.X - m, Y: b.Min.Y - m},
		Max: Vec{X: b.Max.X + m, Y: b.Max.Y + m},
	}
}

// Overlaps reports whether b and o share at least one point.
func (b AABB) Overlaps(o AABB) bool {
	return b.Min.X <= o.Max.X && o.Min.X <= b.Max.X &&
		b.Min.Y <= o.Max.Y && o.Min.Y <= b.Max.Y
}

// Contains reports whether p lies in b, boundary included.
func (b AABB) Contains(p Vec) bool {
	return b.Min.X <= p.X && p.X <= b.Max.X && b.Min.Y <= p.Y && p.Y <= b.Max.Y
}

// Center returns the center of b.
func (b AABB) Center() Vec {
	return r2.Box(b).Center()
}
