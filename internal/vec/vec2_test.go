package vec

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVec2_Basics(t *testing.T) {
	a := New(3, 4)
	assert.Equal(t, 5.0, a.Length())
	assert.Equal(t, 25.0, a.LengthSq())
	assert.InDelta(t, 1.0, a.Normalized().Length(), 1e-9)
	assert.Equal(t, Zero, Zero.Normalized(), "нормализация нуля не должна давать NaN")
	assert.Equal(t, New(4, 6), a.Add(New(1, 2)))
	assert.Equal(t, 11.0, a.Dot(New(1, 2)))
}

func TestVec2_ClampLength(t *testing.T) {
	v := New(30, 40).ClampLength(5)
	assert.InDelta(t, 5.0, v.Length(), 1e-9)
	assert.Equal(t, New(1, 1), New(1, 1).ClampLength(5))
}

func TestVec2_DistanceToSegment(t *testing.T) {
	a, b := New(0, 0), New(10, 0)
	assert.InDelta(t, 3.0, New(5, 3).DistanceToSegment(a, b), 1e-9)
	assert.InDelta(t, 5.0, New(-3, 4).DistanceToSegment(a, b), 1e-9, "за концом отрезка расстояние до вершины")
	assert.InDelta(t, 5.0, New(3, 4).DistanceToSegment(a, a), 1e-9)
}

func TestVec2_MoveTowards(t *testing.T) {
	p := New(0, 0).MoveTowards(New(10, 0), 4)
	assert.Equal(t, New(4, 0), p)
	assert.Equal(t, New(10, 0), New(8, 0).MoveTowards(New(10, 0), 4), "не перелетаем цель")
}

func TestVec2_Rotate(t *testing.T) {
	v := New(1, 0).Rotate(math.Pi / 2)
	assert.InDelta(t, 0.0, v.X, 1e-9)
	assert.InDelta(t, 1.0, v.Y, 1e-9)
}
