package wave

import (
	"math"

	"github.com/annel0/horde-survival/internal/config"
	"github.com/annel0/horde-survival/internal/util"
	"github.com/annel0/horde-survival/internal/vec"
)

// Золотое сечение: соседние появления расходятся по периметру
const goldenStep = 0.6180339887498949

// Placement выбирает точки появления на периметре арены, расширенном на отступ.
// Шум Перлина добавляет плавное блуждание к равномерной последовательности.
type Placement struct {
	arena config.ArenaConfig
	noise *util.Noise
	seq   float64
}

// NewPlacement создаёт генератор точек появления
func NewPlacement(arena config.ArenaConfig, seed int64) *Placement {
	return &Placement{arena: arena, noise: util.NewNoise(seed)}
}

// Next возвращает следующую точку на периметре
func (p *Placement) Next(elapsed float64) vec.Vec2 {
	wobble := p.noise.At(elapsed*0.1, p.seq*0.37)
	t := math.Mod(p.seq*goldenStep+wobble*0.5, 1)
	p.seq++
	return p.PerimeterPoint(t)
}

// PerimeterPoint точка периметра по параметру t в [0, 1), обход по часовой от левого верхнего угла
func (p *Placement) PerimeterPoint(t float64) vec.Vec2 {
	m := p.arena.SpawnMargin
	w := p.arena.Width + 2*m
	h := p.arena.Height + 2*m
	d := math.Mod(t, 1) * 2 * (w + h)
	if d < 0 {
		d += 2 * (w + h)
	}

	switch {
	case d < w:
		return vec.New(-m+d, -m)
	case d < w+h:
		return vec.New(p.arena.Width+m, -m+(d-w))
	case d < 2*w+h:
		return vec.New(p.arena.Width+m-(d-w-h), p.arena.Height+m)
	}
	return vec.New(-m, p.arena.Height+m-(d-2*w-h))
}
