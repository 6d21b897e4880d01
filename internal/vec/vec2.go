package vec

import "math"

// Vec2 представляет 2D координаты арены (мировые единицы, float64)
type Vec2 struct {
	X, Y float64
}

// Zero нулевой вектор
var Zero = Vec2{}

// New создаёт вектор
func New(x, y float64) Vec2 {
	return Vec2{X: x, Y: y}
}

// FromAngle возвращает единичный вектор для угла в радианах
func FromAngle(rad float64) Vec2 {
	return Vec2{X: math.Cos(rad), Y: math.Sin(rad)}
}

// Add складывает два вектора
func (v Vec2) Add(other Vec2) Vec2 {
	return Vec2{X: v.X + other.X, Y: v.Y + other.Y}
}

// Sub вычитает вектор
func (v Vec2) Sub(other Vec2) Vec2 {
	return Vec2{X: v.X - other.X, Y: v.Y - other.Y}
}

// Mul умножает вектор на скаляр
func (v Vec2) Mul(scalar float64) Vec2 {
	return Vec2{X: v.X * scalar, Y: v.Y * scalar}
}

// Dot скалярное произведение
func (v Vec2) Dot(other Vec2) float64 {
	return v.X*other.X + v.Y*other.Y
}

// Perp возвращает перпендикуляр (поворот на 90° против часовой)
func (v Vec2) Perp() Vec2 {
	return Vec2{X: -v.Y, Y: v.X}
}

// Rotate поворачивает вектор на угол в радианах
func (v Vec2) Rotate(rad float64) Vec2 {
	c, s := math.Cos(rad), math.Sin(rad)
	return Vec2{X: v.X*c - v.Y*s, Y: v.X*s + v.Y*c}
}

// Angle возвращает угол вектора в радианах
func (v Vec2) Angle() float64 {
	return math.Atan2(v.Y, v.X)
}

// Normalized возвращает нормализованный вектор
func (v Vec2) Normalized() Vec2 {
	length := v.Length()
	if length == 0 {
		return Vec2{X: 0, Y: 0}
	}
	return Vec2{X: v.X / length, Y: v.Y / length}
}

// ClampLength ограничивает длину вектора сверху
func (v Vec2) ClampLength(max float64) Vec2 {
	l := v.Length()
	if l <= max || l == 0 {
		return v
	}
	return v.Mul(max / l)
}

// Length возвращает длину вектора
func (v Vec2) Length() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y)
}

// LengthSq возвращает квадрат длины
func (v Vec2) LengthSq() float64 {
	return v.X*v.X + v.Y*v.Y
}

// IsZero true для нулевого вектора
func (v Vec2) IsZero() bool {
	return v.X == 0 && v.Y == 0
}

// DistanceTo вычисляет расстояние до другой точки
func (v Vec2) DistanceTo(other Vec2) float64 {
	return math.Sqrt(v.DistanceSqTo(other))
}

// DistanceSqTo квадрат расстояния, без корня
func (v Vec2) DistanceSqTo(other Vec2) float64 {
	dx := v.X - other.X
	dy := v.Y - other.Y
	return dx*dx + dy*dy
}

// DistanceToSegment расстояние от точки до отрезка [a, b]
func (v Vec2) DistanceToSegment(a, b Vec2) float64 {
	ab := b.Sub(a)
	lenSq := ab.LengthSq()
	if lenSq == 0 {
		return v.DistanceTo(a)
	}
	t := v.Sub(a).Dot(ab) / lenSq
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	return v.DistanceTo(a.Add(ab.Mul(t)))
}

// Clamp ограничивает координаты прямоугольником [min, max]
func (v Vec2) Clamp(min, max Vec2) Vec2 {
	return Vec2{X: math.Max(min.X, math.Min(max.X, v.X)), Y: math.Max(min.Y, math.Min(max.Y, v.Y))}
}

// MoveTowards сдвигает точку к цели не дальше чем на maxStep
func (v Vec2) MoveTowards(target Vec2, maxStep float64) Vec2 {
	delta := target.Sub(v)
	dist := delta.Length()
	if dist <= maxStep || dist == 0 {
		return target
	}
	return v.Add(delta.Mul(maxStep / dist))
}
