package sim

import (
	"math"

	"github.com/annel0/horde-survival/internal/entity"
	"github.com/annel0/horde-survival/internal/vec"
)

// updatePlayer таймеры бонусов, движение, прицел и стрельба
func (s *Simulation) updatePlayer(in Input, dt float64) {
	player := s.entities.Player()
	if !player.Alive() {
		return
	}
	for _, kind := range s.buffs.Tick(dt) {
		s.emit(Event{Type: EventPowerUpExpired, Entity: player.ID, Pos: player.Pos, Kind: kind})
	}

	move := vec.New(clampAxis(in.Move.X), clampAxis(in.Move.Y)).ClampLength(1)
	player.Pos = s.arena.Clamp(player.Pos.Add(move.Mul(player.EffectiveSpeed()*dt)), player.Radius)

	if aim := in.Aim.Sub(player.Pos); !aim.IsZero() && !math.IsNaN(aim.X) && !math.IsNaN(aim.Y) {
		player.Facing = aim.Normalized()
	}

	if player.FireCooldown > 0 {
		player.FireCooldown -= dt
	}
	if in.Fire && player.FireCooldown <= 0 {
		s.fire(player)
	}
}

// fireRate выстрелов в секунду с учётом бонуса и модификатора оружия
func (s *Simulation) fireRate(p *entity.Player) float64 {
	rate := p.FireRate * s.buffs.FireRateFactor()
	if p.RapidFire {
		rate *= s.balance.Weapon.RapidFireMultiplier
	}
	return rate
}

// fire выпускает веер снарядов в направлении прицела
func (s *Simulation) fire(p *entity.Player) {
	rate := s.fireRate(p)
	if rate <= 0 {
		return
	}
	p.FireCooldown = 1 / rate

	w := s.balance.Weapon
	kind := p.ShotKind()
	count := p.ProjectileCount
	if count < 1 {
		count = 1
	}
	spread := p.SpreadDegrees * math.Pi / 180
	base := p.Facing.Angle()
	damage := p.ShotDamage()

	for i := 0; i < count; i++ {
		angle := base
		if count > 1 {
			angle = base - spread/2 + spread*float64(i)/float64(count-1)
		}
		proj := &entity.Projectile{
			Owner:           p.ID,
			Faction:         entity.FactionPlayer,
			Kind:            kind,
			Pos:             p.Pos,
			Vel:             vec.FromAngle(angle).Mul(p.ProjectileSpeed),
			Radius:          w.ProjectileRadius,
			Damage:          damage,
			Lifetime:        s.lifetime(kind),
			PierceRemaining: 1,
		}
		if p.Piercing {
			proj.PierceRemaining = w.PierceCount
		}
		if kind == entity.Explosive {
			proj.ExplosionRadius = w.ExplosionRadius
		}
		s.entities.SpawnProjectile(proj)
	}
	s.stats.Shots += count
}

func (s *Simulation) lifetime(kind entity.ProjectileKind) float64 {
	l := s.balance.Weapon.Lifetimes
	switch kind {
	case entity.Piercing:
		return l.Piercing
	case entity.Explosive:
		return l.Explosive
	case entity.RapidFire:
		return l.RapidFire
	}
	return l.Basic
}
