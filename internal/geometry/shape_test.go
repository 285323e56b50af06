package geometry

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCircleContains(t *testing.T) {
	t.Parallel()

	s := math.Sqrt2 / 2
	tests := []struct {
		p    Vec
		c    Circle
		want bool
	}{
		{Vec{X: 0, Y: 0}, Circle{Radius: 1e-6}, true},
		{Vec{X: 0, Y: 1 - 1e-6}, Circle{Radius: 1}, true},
		{Vec{X: s, Y: s}, Circle{Radius: 1}, false},
		{Vec{X: s - 1e-6, Y: s - 1e-6}, Circle{Radius: 1}, true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.c.Contains(tt.p), "point %v", tt.p)
	}

	_, err := NewCircle(Vec{}, -1)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestPolygonContains(t *testing.T) {
	t.Parallel()

	square, err := NewPolygon([]Vec{{X: -1, Y: -1}, {X: 1, Y: -1}, {X: 1, Y: 1}, {X: -1, Y: 1}})
	require.NoError(t, err)
	// self-intersecting bow tie
	bowTie, err := NewPolygon([]Vec{{X: -1, Y: -1}, {X: 1, Y: -1}, {X: -1, Y: 1}, {X: 1, Y: 1}})
	require.NoError(t, err)

	tests := []struct {
		name string
		p    Vec
		poly Polygon
		want bool
	}{
		{"square center", Vec{X: 0, Y: 0}, square, true},
		{"above square", Vec{X: 1, Y: 2}, square, false},
		{"below square", Vec{X: 1, Y: -2}, square, false},
		{"near square edge", Vec{X: 0.5, Y: 1 - 1e-6}, square, true},
		{"bow tie crossing", Vec{X: 0, Y: 0}, bowTie, false},
		{"just above crossing", Vec{X: 0, Y: 1e-6}, bowTie, true},
		{"just right of crossing", Vec{X: 1e-6, Y: 0}, bowTie, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.poly.Contains(tt.p))
		})
	}

	_, err = NewPolygon([]Vec{{}, {X: 1}})
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestIsometry(t *testing.T) {
	t.Parallel()

	approx := cmpopts.EquateApprox(0, 1e-12)

	iso := NewIsometry(math.Pi/2, Vec{X: 1, Y: 0})
	got := iso.Apply(Vec{X: 1, Y: 0})
	if diff := cmp.Diff(Vec{X: 1, Y: 1}, got, approx); diff != "" {
		t.Errorf("Apply mismatch (-want +got):\n%s", diff)
	}

	other := NewIsometry(-0.3, Vec{X: 4, Y: -2})
	p := Vec{X: 3.5, Y: -7}
	composed := iso.Compose(other).Apply(p)
	if diff := cmp.Diff(iso.Apply(other.Apply(p)), composed, approx); diff != "" {
		t.Errorf("Compose mismatch (-want +got):\n%s", diff)
	}

	back := iso.Inverse().Apply(iso.Apply(p))
	if diff := cmp.Diff(p, back, approx); diff != "" {
		t.Errorf("Inverse mismatch (-want +got):\n%s", diff)
	}
	id := iso.Compose(iso.Inverse())
	assert.InDelta(t, 0, id.Angle, 1e-12)
	assert.InDelta(t, 0, id.Translation.X, 1e-12)
	assert.InDelta(t, 0, id.Translation.Y, 1e-12)
}

func TestNormalizeAngle(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, math.Pi, NormalizeAngle(-math.Pi), 1e-12)
	assert.Equal(t, math.Pi, NormalizeAngle(math.Pi))
	assert.InDelta(t, -math.Pi/2, NormalizeAngle(3*math.Pi/2), 1e-12)
	assert.InDelta(t, 0.5, NormalizeAngle(0.5+4*math.Pi), 1e-12)
}

func TestShapeUnion(t *testing.T) {
	t.Parallel()

	poly, err := NewPolygon([]Vec{{X: 10, Y: 10}, {X: 20, Y: 10}, {X: 20, Y: 20}, {X: 10, Y: 20}})
	require.NoError(t, err)
	shapes := Shapes{
		CircleShape(Circle{Center: Vec{X: 0, Y: 0}, Radius: 2}),
		CapsuleShape(Capsule{C1: Vec{X: 30, Y: 0}, C2: Vec{X: 40, Y: 0}, R1: 1, R2: 1}),
		PolygonShape(poly),
	}
	require.NoError(t, shapes.Validate())

	assert.True(t, shapes.Contains(Vec{X: 1, Y: 1}))
	assert.True(t, shapes.Contains(Vec{X: 35, Y: 0.5}))
	assert.True(t, shapes.Contains(Vec{X: 15, Y: 15}))
	assert.False(t, shapes.Contains(Vec{X: 25, Y: 5}))

	moved := shapes[2].Transform(NewIsometry(0, Vec{X: 100, Y: 0}))
	assert.True(t, moved.Contains(Vec{X: 115, Y: 15}))
	assert.Equal(t, Vec{X: 110, Y: 10}, moved.AABB().Min)

	assert.Error(t, Shape{Kind: KindCircle}.Validate())
	assert.Error(t, Shape{}.Validate())
}

func TestEncodeShapes(t *testing.T) {
	t.Parallel()

	poly, err := NewPolygon([]Vec{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 0, Y: 1}})
	require.NoError(t, err)
	in := Shapes{
		CircleShape(Circle{Center: Vec{X: 1, Y: 2}, Radius: 3}),
		CapsuleShape(Capsule{C1: Vec{X: 0, Y: 0}, C2: Vec{X: 1, Y: 1}, R1: 0.5, R2: 0.25}),
		PolygonShape(poly),
	}
	s, err := EncodeShapes(in)
	require.NoError(t, err)
	assert.Contains(t, s, `"kind":"capsule"`)

	out, err := DecodeShapes(s)
	require.NoError(t, err)
	if diff := cmp.Diff(in, out); diff != "" {
		t.Errorf("shapes mismatch (-want +got):\n%s", diff)
	}

	_, err = DecodeShapes(`[{"kind":"hexagon"}]`)
	assert.Error(t, err)
	_, err = DecodeShapes(`[{"kind":"polygon","polygon":{"vertices":[]}}]`)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}
