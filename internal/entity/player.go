package entity

import (
	"github.com/annel0/horde-survival/internal/config"
	"github.com/annel0/horde-survival/internal/powerup"
	"github.com/annel0/horde-survival/internal/vec"
)

// Player управляемый игроком персонаж
type Player struct {
	ID     ID
	Pos    vec.Vec2
	Facing vec.Vec2
	Radius float64

	HP    float64
	MaxHP float64

	Speed            float64
	Damage           float64
	DamageMultiplier float64
	FireRate         float64
	ProjectileSpeed  float64
	ProjectileCount  int
	SpreadDegrees    float64
	PickupRadius     float64
	CollectRadius    float64

	// Модификаторы оружия
	Piercing  bool
	Explosive bool
	RapidFire bool

	Level    int
	XP       int
	XPToNext int

	FireCooldown float64
	Buffs        *powerup.Effects
}

// NewPlayer создаёт игрока из таблицы баланса в точке pos
func NewPlayer(cfg config.PlayerConfig, pos vec.Vec2, buffs *powerup.Effects) *Player {
	return &Player{
		Pos:              pos,
		Facing:           vec.New(1, 0),
		Radius:           cfg.Radius,
		HP:               cfg.MaxHP,
		MaxHP:            cfg.MaxHP,
		Speed:            cfg.Speed,
		Damage:           cfg.Damage,
		DamageMultiplier: cfg.DamageMultiplier,
		FireRate:         cfg.FireRate,
		ProjectileSpeed:  cfg.ProjectileSpeed,
		ProjectileCount:  cfg.ProjectileCount,
		SpreadDegrees:    cfg.SpreadDegrees,
		PickupRadius:     cfg.PickupRadius,
		CollectRadius:    cfg.CollectRadius,
		Level:            1,
		XPToNext:         cfg.XPToNext,
		Buffs:            buffs,
	}
}

// Alive true пока HP > 0
func (p *Player) Alive() bool {
	return p.HP > 0
}

// ApplyDamage наносит урон с учётом бонусов защиты, возвращает фактически снятое HP
func (p *Player) ApplyDamage(amount float64) float64 {
	if amount <= 0 || !p.Alive() {
		return 0
	}
	if p.Buffs != nil {
		amount *= p.Buffs.DamageTakenFactor()
	}
	return p.setHP(p.HP - amount)
}

// Heal восстанавливает HP не выше максимума, возвращает прирост
func (p *Player) Heal(amount float64) float64 {
	if amount <= 0 || !p.Alive() {
		return 0
	}
	return -p.setHP(p.HP + amount)
}

func (p *Player) setHP(hp float64) float64 {
	before := p.HP
	p.HP = clamp(hp, 0, p.MaxHP)
	return before - p.HP
}

// HPFraction доля текущего HP
func (p *Player) HPFraction() float64 {
	if p.MaxHP <= 0 {
		return 0
	}
	return p.HP / p.MaxHP
}

// EffectiveSpeed скорость с учётом бонусов
func (p *Player) EffectiveSpeed() float64 {
	if p.Buffs == nil {
		return p.Speed
	}
	return p.Speed * p.Buffs.SpeedFactor()
}

// ShotDamage урон одного снаряда
func (p *Player) ShotDamage() float64 {
	d := p.Damage * p.DamageMultiplier
	if p.Buffs != nil {
		d *= p.Buffs.DamageFactor()
	}
	return d
}

// ShotKind вид снаряда по активным модификаторам: explosive > piercing > rapid > basic
func (p *Player) ShotKind() ProjectileKind {
	switch {
	case p.Explosive:
		return Explosive
	case p.Piercing:
		return Piercing
	case p.RapidFire:
		return RapidFire
	}
	return Basic
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
