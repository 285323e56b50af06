package geometry

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCapsuleIntersect(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		a, b Capsule
		want bool
	}{
		{
			name: "parallel, far apart",
			a:    Capsule{C1: Vec{X: 0, Y: 0}, C2: Vec{X: 0, Y: 1}, R1: 0.25, R2: 0.25},
			b:    Capsule{C1: Vec{X: 1, Y: 0}, C2: Vec{X: 1, Y: 1}, R1: 0.25, R2: 0.25},
			want: false,
		},
		{
			name: "parallel, overlapping radii",
			a:    Capsule{C1: Vec{X: 0, Y: 0}, C2: Vec{X: 0, Y: 1}, R1: 0.6, R2: 0.6},
			b:    Capsule{C1: Vec{X: 1, Y: 0}, C2: Vec{X: 1, Y: 1}, R1: 0.6, R2: 0.6},
			want: true,
		},
		{
			name: "opposite tapers, a thick first",
			a:    Capsule{C1: Vec{X: 0, Y: 0}, C2: Vec{X: 0, Y: 1}, R1: 0.55, R2: 0.35},
			b:    Capsule{C1: Vec{X: 1, Y: 0}, C2: Vec{X: 1, Y: 1}, R1: 0.35, R2: 0.55},
			want: false,
		},
		{
			name: "opposite tapers, a thin first",
			a:    Capsule{C1: Vec{X: 0, Y: 0}, C2: Vec{X: 0, Y: 1}, R1: 0.35, R2: 0.55},
			b:    Capsule{C1: Vec{X: 1, Y: 0}, C2: Vec{X: 1, Y: 1}, R1: 0.55, R2: 0.35},
			want: false,
		},
		{
			name: "same taper thin first",
			a:    Capsule{C1: Vec{X: 0, Y: 0}, C2: Vec{X: 0, Y: 1}, R1: 0.35, R2: 0.55},
			b:    Capsule{C1: Vec{X: 1, Y: 0}, C2: Vec{X: 1, Y: 1}, R1: 0.35, R2: 0.55},
			want: true,
		},
		{
			name: "same taper thick first",
			a:    Capsule{C1: Vec{X: 0, Y: 0}, C2: Vec{X: 0, Y: 1}, R1: 0.55, R2: 0.35},
			b:    Capsule{C1: Vec{X: 1, Y: 0}, C2: Vec{X: 1, Y: 1}, R1: 0.55, R2: 0.35},
			want: true,
		},
		{
			name: "slanted",
			a:    Capsule{C1: Vec{X: 0, Y: 0}, C2: Vec{X: 0, Y: 1}, R1: 0.3, R2: 0.7},
			b:    Capsule{C1: Vec{X: 1, Y: 0.1}, C2: Vec{X: 1.2, Y: 1.2}, R1: 0.3, R2: 0.7},
			want: true,
		},
		{
			name: "thin tips",
			a:    Capsule{C1: Vec{X: 0, Y: 0}, C2: Vec{X: 0, Y: 1}, R1: 0.02, R2: 0.30},
			b:    Capsule{C1: Vec{X: 0.3, Y: 0}, C2: Vec{X: 0.6, Y: 0.9}, R1: 0.02, R2: 0.33},
			want: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, CapsuleIntersect(tt.a, tt.b))
			assert.Equal(t, tt.want, CapsuleIntersect(tt.b, tt.a), "not symmetric")
			assert.Equal(t, tt.want, tt.a.Intersects(tt.b))
		})
	}
}

func TestCapsuleIntersectProperties(t *testing.T) {
	t.Parallel()

	t.Run("far apart never intersect", func(t *testing.T) {
		t.Parallel()
		a := Capsule{C1: Vec{X: 0, Y: 0}, C2: Vec{X: 3, Y: 1}, R1: 1, R2: 2}
		for angle := 0.0; angle < 2*math.Pi; angle += 0.3 {
			b := a.Transform(NewIsometry(angle, Vec{X: 20, Y: -15}))
			assert.False(t, CapsuleIntersect(a, b), "angle %g", angle)
			assert.False(t, CapsuleIntersect(b, a), "angle %g", angle)
		}
	})

	t.Run("shared point always intersects", func(t *testing.T) {
		t.Parallel()
		a := Capsule{C1: Vec{X: 0, Y: 0}, C2: Vec{X: 10, Y: 0}, R1: 0, R2: 0}
		b := Capsule{C1: Vec{X: 10, Y: 0}, C2: Vec{X: 10, Y: 7}, R1: 0, R2: 0}
		assert.True(t, CapsuleIntersect(a, b))
		assert.True(t, CapsuleIntersect(b, a))
	})

	t.Run("degenerate segments", func(t *testing.T) {
		t.Parallel()
		dot := Capsule{C1: Vec{X: 5, Y: 5}, C2: Vec{X: 5, Y: 5}, R1: 1, R2: 1}
		near := Capsule{C1: Vec{X: 6.5, Y: 5}, C2: Vec{X: 6.5, Y: 5}, R1: 1, R2: 1}
		far := Capsule{C1: Vec{X: 8, Y: 5}, C2: Vec{X: 8, Y: 5}, R1: 0.5, R2: 0.5}
		assert.True(t, CapsuleIntersect(dot, near))
		assert.False(t, CapsuleIntersect(dot, far))
		assert.False(t, CapsuleIntersect(far, dot))
	})
}

func TestCapsuleContains(t *testing.T) {
	t.Parallel()

	c := Capsule{C1: Vec{X: 0, Y: 0}, C2: Vec{X: 0, Y: 1}, R1: 1, R2: 0.01}
	tests := []struct {
		p    Vec
		want bool
	}{
		{Vec{X: 0, Y: 0}, true},
		{Vec{X: 0, Y: 1}, true},
		{Vec{X: 1, Y: 0}, true},
		{Vec{X: 0.5 - 1e-6, Y: 0.5 - 1e-6}, true},
		{Vec{X: 0.1, Y: 1}, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, c.Contains(tt.p), "point %v", tt.p)
	}

	dot := Capsule{C1: Vec{X: 2, Y: 2}, C2: Vec{X: 2, Y: 2}, R1: 1, R2: 1}
	assert.True(t, dot.Contains(Vec{X: 2.5, Y: 2}))
	assert.False(t, dot.Contains(Vec{X: 3.5, Y: 2}))
}

func TestNewCapsule(t *testing.T) {
	t.Parallel()

	_, err := NewCapsule(Vec{}, Vec{X: 1}, 1, 2)
	require.NoError(t, err)

	_, err = NewCapsule(Vec{}, Vec{X: 1}, -1, 2)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = NewCapsule(Vec{}, Vec{X: 1}, 1, math.Inf(1))
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = NewCapsule(Vec{X: math.NaN()}, Vec{X: 1}, 1, 1)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestCapsuleAABB(t *testing.T) {
	t.Parallel()

	c := Capsule{C1: Vec{X: 0, Y: 0}, C2: Vec{X: 10, Y: 2}, R1: 1, R2: 3}
	box := c.AABB()
	assert.Equal(t, Vec{X: -1, Y: -1}, box.Min)
	assert.Equal(t, Vec{X: 13, Y: 5}, box.Max)

	zero := Capsule{C1: Vec{X: 4, Y: 4}, C2: Vec{X: 4, Y: 4}}
	assert.True(t, zero.AABB().Contains(Vec{X: 4, Y: 4}))
	assert.True(t, zero.AABB().Overlaps(box.Inflate(-0.5).Union(zero.AABB())))
}
