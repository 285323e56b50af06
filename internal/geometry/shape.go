package geometry

import (
	"encoding/json"
	"fmt"
	"strings"

	"gonum.org/v1/gonum/spatial/r2"
)

// Circle is a disk.
type Circle struct {
	Center Vec     `json:"center"`
	Radius float64 `json:"radius"`
}

// NewCircle returns a validated Circle.
func NewCircle(center Vec, radius float64) (Circle, error) {
	if !finite(center.X, center.Y, radius) || radius < 0 {
		return Circle{}, fmt.Errorf("circle at (%g,%g) radius %g: %w", center.X, center.Y, radius, ErrInvalidArgument)
	}
	return Circle{Center: center, Radius: radius}, nil
}

// Contains reports whether p lies in the disk, boundary included.
func (c Circle) Contains(p Vec) bool {
	return dist2(p, c.Center) <= c.Radius*c.Radius
}

// AABB returns the bounding box of the disk.
func (c Circle) AABB() AABB { return CircleAABB(c.Center, c.Radius) }

// Transform moves the disk by iso.
func (c Circle) Transform(iso Isometry) Circle {
	return Circle{Center: iso.Apply(c.Center), Radius: c.Radius}
}

// Polygon is a closed polygon, possibly self-intersecting.
type Polygon struct {
	Vertices []Vec `json:"vertices"`
}

// NewPolygon returns a Polygon over at least 3 finite vertices. The
// vertex slice is copied.
func NewPolygon(vertices []Vec) (Polygon, error) {
	if len(vertices) < 3 {
		return Polygon{}, fmt.Errorf("polygon needs at least 3 vertices, got %d: %w", len(vertices), ErrInvalidArgument)
	}
	for i, v := range vertices {
		if !finite(v.X, v.Y) {
			return Polygon{}, fmt.Errorf("polygon vertex %d: %w", i, ErrInvalidArgument)
		}
	}
	return Polygon{Vertices: append([]Vec(nil), vertices...)}, nil
}

// Contains reports whether p has a non-zero winding number around the
// polygon.
func (pg Polygon) Contains(p Vec) bool {
	winding := 0
	n := len(pg.Vertices)
	for i, a := range pg.Vertices {
		b := pg.Vertices[(i+1)%n]
		// > 0 when p is left of a→b
		side := r2.Cross(r2.Sub(b, a), r2.Sub(p, a))
		if p.Y >= a.Y {
			if p.Y < b.Y && side > 0 {
				winding++
			}
		} else if p.Y >= b.Y && side < 0 {
			winding--
		}
	}
	return winding != 0
}

// AABB returns the bounding box of the vertices.
func (pg Polygon) AABB() AABB { return PointsAABB(pg.Vertices) }

// Transform moves every vertex by iso.
func (pg Polygon) Transform(iso Isometry) Polygon {
	res := Polygon{Vertices: make([]Vec, len(pg.Vertices))}
	for i, v := range pg.Vertices {
		res.Vertices[i] = iso.Apply(v)
	}
	return res
}

// Kind tags the variant held by a Shape.
type Kind int

const (
	KindCircle Kind = iota + 1
	KindCapsule
	KindPolygon
)

var kindNames = map[Kind]string{
	KindCircle:  "circle",
	KindCapsule: "capsule",
	KindPolygon: "polygon",
}

func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	if _, ok := kindNames[k]; !ok {
		return nil, fmt.Errorf("shape kind %d: %w", int(k), ErrInvalidArgument)
	}
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(b []byte) error {
	s := strings.ToLower(string(b))
	for kind, name := range kindNames {
		if name == s {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("shape kind %q: %w", s, ErrInvalidArgument)
}

// Shape holds exactly one of a circle, a capsule or a polygon, selected
// by Kind.
type Shape struct {
	Kind    Kind     `json:"kind"`
	Circle  *Circle  `json:"circle,omitempty"`
	Capsule *Capsule `json:"capsule,omitempty"`
	Polygon *Polygon `json:"polygon,omitempty"`
}

// CircleShape wraps c.
func CircleShape(c Circle) Shape { return Shape{Kind: KindCircle, Circle: &c} }

// CapsuleShape wraps c.
func CapsuleShape(c Capsule) Shape { return Shape{Kind: KindCapsule, Capsule: &c} }

// PolygonShape wraps p.
func PolygonShape(p Polygon) Shape { return Shape{Kind: KindPolygon, Polygon: &p} }

// Validate checks that the variant selected by Kind is set and valid.
func (s Shape) Validate() error {
	switch s.Kind {
	case KindCircle:
		if s.Circle == nil {
			break
		}
		_, err := NewCircle(s.Circle.Center, s.Circle.Radius)
		return err
	case KindCapsule:
		if s.Capsule == nil {
			break
		}
		return s.Capsule.Validate()
	case KindPolygon:
		if s.Polygon == nil {
			break
		}
		_, err := NewPolygon(s.Polygon.Vertices)
		return err
	}
	return fmt.Errorf("shape of kind %s has no matching geometry: %w", s.Kind, ErrInvalidArgument)
}

// Contains reports whether p lies in the shape.
func (s Shape) Contains(p Vec) bool {
	switch s.Kind {
	case KindCircle:
		return s.Circle.Contains(p)
	case KindCapsule:
		return s.Capsule.Contains(p)
	case KindPolygon:
		return s.Polygon.Contains(p)
	}
	return false
}

// AABB returns the bounding box of the shape.
func (s Shape) AABB() AABB {
	switch s.Kind {
	case KindCircle:
		return s.Circle.AABB()
	case KindCapsule:
		return s.Capsule.AABB()
	case KindPolygon:
		return s.Polygon.AABB()
	}
	return AABB{}
}

// Transform returns the shape moved by iso.
func (s Shape) Transform(iso Isometry) Shape {
	switch s.Kind {
	case KindCircle:
		return CircleShape(s.Circle.Transform(iso))
	case KindCapsule:
		return CapsuleShape(s.Capsule.Transform(iso))
	case KindPolygon:
		return PolygonShape(s.Polygon.Transform(iso))
	}
	return s
}

// Shapes is a union of shapes.
type Shapes []Shape

// Contains reports whether any shape contains p.
func (ss Shapes) Contains(p Vec) bool {
	for _, s := range ss {
		if s.Contains(p) {
			return true
		}
	}
	return false
}

// Validate validates every shape.
func (ss Shapes) Validate() error {
	for i, s := range ss {
		if err := s.Validate(); err != nil {
			return fmt.Errorf("shape %d: %w", i, err)
		}
	}
	return nil
}

// EncodeShapes serialises shapes as JSON, the storage format of zone
// definitions.
func EncodeShapes(ss Shapes) (string, error) {
	if ss == nil {
		ss = Shapes{}
	}
	b, err := json.Marshal(ss)
	if err != nil {
		return "", fmt.Errorf("failed to encode shapes: %w", err)
	}
	return string(b), nil
}

// DecodeShapes parses the output of EncodeShapes and validates it.
func DecodeShapes(s string) (Shapes, error) {
	var res Shapes
	if err := json.Unmarshal([]byte(s), &res); err != nil {
		return nil, fmt.Errorf("failed to decode shapes: %w", err)
	}
	if err := res.Validate(); err != nil {
		return nil, err
	}
	return res, nil
}
