package geometry

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Vec is a 2-D vector.
type Vec = r2.Vec

// NormalizeAngle maps a to (−π, π].
func NormalizeAngle(a float64) float64 {
	res := math.Remainder(a, 2*math.Pi)
	if res <= -math.Pi {
		res += 2 * math.Pi
	}
	return res
}

// Isometry is a rotation by Angle followed by a translation.
type Isometry struct {
	Angle       float64
	Translation Vec
}

// Identity leaves points unchanged.
var Identity = Isometry{}

// NewIsometry returns the isometry rotating by angle then translating by
// translation. The angle is normalised to (−π, π].
func NewIsometry(angle float64, translation Vec) Isometry {
	return Isometry{Angle: NormalizeAngle(angle), Translation: translation}
}

// Apply returns R(Angle)·p + Translation.
func (i Isometry) Apply(p Vec) Vec {
	return r2.Add(r2.Rotate(p, i.Angle, Vec{}), i.Translation)
}

// Compose returns i∘o, the isometry applying o first then i.
func (i Isometry) Compose(o Isometry) Isometry {
	return NewIsometry(i.Angle+o.Angle, i.Apply(o.Translation))
}

// Inverse returns the isometry undoing i.
func (i Isometry) Inverse() Isometry {
	return NewIsometry(-i.Angle, r2.Rotate(r2.Scale(-1, i.Translation), -i.Angle, Vec{}))
}

func (i Isometry) String() string {
	return fmt.Sprintf("Isometry{Angle:%g,Translation:(%g,%g)}", i.Angle, i.Translation.X, i.Translation.Y)
}
