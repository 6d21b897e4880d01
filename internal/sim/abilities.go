package sim

import (
	"math"

	"github.com/annel0/horde-survival/internal/behavior"
	"github.com/annel0/horde-survival/internal/combat"
	"github.com/annel0/horde-survival/internal/entity"
	"github.com/annel0/horde-survival/internal/vec"
)

const (
	// Время жизни вражеской пули, если в таблице не задано
	defaultHostileLifetime = 3.0
	// Самый короткий полёт навесного снаряда
	minShellFlight = 0.1
)

// resolveTriggers исполняет сработавшие способности врагов.
// Источник, погибший раньше в этом же тике, пропускается.
func (s *Simulation) resolveTriggers(triggers []behavior.Trigger, res *combat.Result) {
	for _, t := range triggers {
		src, err := s.entities.Enemy(t.Source)
		if err != nil {
			s.logger.Debug("способность %s пропущена: %v", t.Kind, err)
			continue
		}
		if !src.Alive() {
			continue
		}
		if t.Kind != behavior.TriggerBeam {
			s.emit(Event{Type: EventAbility, Source: t.Source, Kind: t.Kind.String(), Pos: t.Origin, Target: t.Target, Radius: t.Radius})
		}

		switch t.Kind {
		case behavior.TriggerShoot:
			s.shoot(t)
		case behavior.TriggerMortar:
			s.lobShell(t)
		case behavior.TriggerSummon:
			s.summon(src, t)
		case behavior.TriggerHeal:
			s.healAllies(src, t)
		case behavior.TriggerDetonate:
			s.combat.Detonate(s.entities, s.index, res, src, t.Radius, t.Damage)
		case behavior.TriggerStomp:
			s.combat.AreaHitPlayer(s.entities, res, t.Origin, t.Radius, t.Damage, t.Source, combat.CauseStomp)
		case behavior.TriggerShockwave:
			s.combat.AreaHitPlayer(s.entities, res, t.Origin, t.Radius, t.Damage, t.Source, combat.CauseShockwave)
		case behavior.TriggerBeam:
			s.combat.Beam(s.entities, res, t.Origin, t.Target, t.Width, t.Damage, t.Source)
		}
	}
}

func aimDir(from, to vec.Vec2) vec.Vec2 {
	dir := to.Sub(from).Normalized()
	if dir.IsZero() {
		return vec.New(1, 0)
	}
	return dir
}

func (s *Simulation) shoot(t behavior.Trigger) {
	lifetime := t.Lifetime
	if lifetime <= 0 {
		lifetime = defaultHostileLifetime
	}
	s.entities.SpawnProjectile(&entity.Projectile{
		Owner:           t.Source,
		Faction:         entity.FactionHostile,
		Kind:            entity.Basic,
		Pos:             t.Origin,
		Vel:             aimDir(t.Origin, t.Target).Mul(t.Speed),
		Radius:          s.balance.Combat.EnemyProjectileRadius,
		Damage:          t.Damage,
		Lifetime:        lifetime,
		PierceRemaining: 1,
	})
}

// lobShell навесной снаряд летит ровно до точки, где был игрок
func (s *Simulation) lobShell(t behavior.Trigger) {
	dist := t.Origin.DistanceTo(t.Target)
	flight := minShellFlight
	if t.Speed > 0 {
		flight = math.Max(dist/t.Speed, minShellFlight)
	}
	s.entities.SpawnProjectile(&entity.Projectile{
		Owner:           t.Source,
		Faction:         entity.FactionHostile,
		Kind:            entity.Explosive,
		Pos:             t.Origin,
		Vel:             aimDir(t.Origin, t.Target).Mul(dist / flight),
		Radius:          s.balance.Combat.EnemyProjectileRadius,
		Damage:          t.Damage,
		Lifetime:        flight,
		ExplosionRadius: t.Radius,
		Lobbed:          true,
	})
}

// summon приспешники встают по кругу вокруг призывателя
func (s *Simulation) summon(src *entity.Enemy, t behavior.Trigger) {
	minion, err := entity.ParseEnemyType(t.Minion)
	if err != nil {
		s.logger.Warn("призыв %d: %v", src.ID, err)
		return
	}
	speedMult := s.waves.SpeedMultiplier(src.Multiplier)
	for i := 0; i < t.Count; i++ {
		angle := 2*math.Pi*float64(i)/float64(t.Count) + src.Age
		pos := t.Origin.Add(vec.FromAngle(angle).Mul(t.Offset))
		s.spawnEnemy(minion, pos, src.Multiplier, speedMult, src.ID)
	}
}

// healAllies лечит всех раненых союзников в радиусе, кроме самого лекаря
func (s *Simulation) healAllies(src *entity.Enemy, t behavior.Trigger) {
	for _, id := range s.index.QueryRange(t.Origin, t.Radius) {
		if id == src.ID {
			continue
		}
		e, err := s.entities.Enemy(id)
		if err != nil {
			s.logger.Debug("лечение: %v", err)
			continue
		}
		if !e.Alive() || !e.Damaged() || e.Pos.DistanceTo(t.Origin) > t.Radius {
			continue
		}
		if healed := e.Heal(t.Amount); healed > 0 {
			s.emit(Event{Type: EventHeal, Entity: e.ID, Source: src.ID, Pos: e.Pos, Amount: healed})
		}
	}
}
