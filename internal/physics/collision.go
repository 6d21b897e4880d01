package physics

import (
	"github.com/annel0/horde-survival/internal/vec"
)

// Circle круговой коллайдер
type Circle struct {
	Center vec.Vec2
	Radius float64
}

// Overlaps проверяет пересечение двух кругов (касание считается пересечением)
func (c Circle) Overlaps(other Circle) bool {
	reach := c.Radius + other.Radius
	return c.Center.DistanceSqTo(other.Center) <= reach*reach
}

// Contains проверяет, лежит ли точка внутри круга
func (c Circle) Contains(point vec.Vec2) bool {
	return c.Center.DistanceSqTo(point) <= c.Radius*c.Radius
}

// SegmentHitsCircle проверяет, проходит ли отрезок [a, b] толщиной width
// через круг: расстояние от центра до отрезка не больше width/2 + радиус
func SegmentHitsCircle(a, b vec.Vec2, width float64, c Circle) bool {
	return c.Center.DistanceToSegment(a, b) <= width/2+c.Radius
}

// Arena прямоугольная арена с началом координат в левом верхнем углу
type Arena struct {
	Width, Height float64
}

// Clamp удерживает круг радиуса radius внутри арены
func (a Arena) Clamp(pos vec.Vec2, radius float64) vec.Vec2 {
	return pos.Clamp(vec.New(radius, radius), vec.New(a.Width-radius, a.Height-radius))
}

// Center центр арены
func (a Arena) Center() vec.Vec2 {
	return vec.New(a.Width/2, a.Height/2)
}

// Contains true если точка лежит на арене с запасом margin
func (a Arena) Contains(p vec.Vec2, margin float64) bool {
	return p.X >= -margin && p.X <= a.Width+margin && p.Y >= -margin && p.Y <= a.Height+margin
}

// Falloff линейное ослабление урона взрыва: 1 в центре, 0 на границе радиуса
func Falloff(distance, radius float64) float64 {
	if radius <= 0 || distance >= radius {
		return 0
	}
	if distance <= 0 {
		return 1
	}
	return 1 - distance/radius
}
