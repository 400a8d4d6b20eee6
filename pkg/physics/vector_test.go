// pkg/physics/vector_test.go
package physics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVector2D_Arithmetic(t *testing.T) {
	tests := []struct {
		name     string
		got      Vector2D
		expected Vector2D
	}{
		{"add", Vec(3, 4).Add(Vec(1, 2)), Vec(4, 6)},
		{"add_mixed_signs", Vec(5, -3).Add(Vec(-2, 7)), Vec(3, 4)},
		{"sub", Vec(3, 4).Sub(Vec(1, 2)), Vec(2, 2)},
		{"scale", Vec(3, -4).Scale(0.5), Vec(1.5, -2)},
		{"scale_zero", Vec(3, -4).Scale(0), Vec(0, 0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.got)
		})
	}
}

func TestVector2D_Rotate(t *testing.T) {
	tests := []struct {
		name     string
		v        Vector2D
		angle    float64
		expected Vector2D
	}{
		{"quarter_turn", Vec(1, 0), math.Pi / 2, Vec(0, 1)},
		{"half_turn", Vec(2, 1), math.Pi, Vec(-2, -1)},
		{"clockwise", Vec(0, 1), -math.Pi / 2, Vec(1, 0)},
		{"none", Vec(-1.5, 0.75), 0, Vec(-1.5, 0.75)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.v.Rotate(tt.angle)
			assert.InDelta(t, tt.expected.X, got.X, 1e-9)
			assert.InDelta(t, tt.expected.Y, got.Y, 1e-9)
		})
	}
}

func TestVector2D_LengthAndDistance(t *testing.T) {
	assert.InDelta(t, 5.0, Vec(3, 4).Length(), 1e-12)
	assert.InDelta(t, 5.0, Vec(1, 1).Distance(Vec(4, 5)), 1e-12)
	assert.Zero(t, Vector2D{}.Length())
}

func TestVector2D_Box2DRoundTrip(t *testing.T) {
	v := Vec(-2.5, 7.25)
	assert.Equal(t, v, fromB2(v.b2()))
	assert.Equal(t, "(-2.500, 7.250)", v.String())
}
