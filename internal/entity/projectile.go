package entity

import "github.com/annel0/horde-survival/internal/vec"

// Projectile снаряд игрока или врага
type Projectile struct {
	ID      ID
	Owner   ID // слабая ссылка, владелец может уже не существовать
	Faction Faction
	Kind    ProjectileKind

	Pos      vec.Vec2
	Vel      vec.Vec2
	Radius   float64
	Damage   float64
	Lifetime float64

	PierceRemaining int
	ExplosionRadius float64

	// Навесной снаряд миномёта: не сталкивается в полёте, взрывается в конце
	Lobbed bool

	Dead bool
	hits map[ID]struct{}

	prevPos vec.Vec2
	moved   bool
}

// Advance перемещает снаряд на dt и уменьшает время жизни
func (p *Projectile) Advance(dt float64) {
	p.prevPos = p.Pos
	p.moved = true
	p.Pos = p.Pos.Add(p.Vel.Mul(dt))
	p.Lifetime -= dt
}

// SweepStart начало отрезка, пройденного на последнем шаге
func (p *Projectile) SweepStart() vec.Vec2 {
	if !p.moved {
		return p.Pos
	}
	return p.prevPos
}

// HasHit true если снаряд уже попадал в сущность
func (p *Projectile) HasHit(id ID) bool {
	_, ok := p.hits[id]
	return ok
}

// MarkHit запоминает попадание
func (p *Projectile) MarkHit(id ID) {
	if p.hits == nil {
		p.hits = make(map[ID]struct{}, 2)
	}
	p.hits[id] = struct{}{}
}

// HitCount число разных поражённых целей
func (p *Projectile) HitCount() int {
	return len(p.hits)
}
