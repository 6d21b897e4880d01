package sim

import (
	"github.com/annel0/horde-survival/internal/entity"
)

func (s *Simulation) playerView() PlayerView {
	p := s.entities.Player()
	return PlayerView{
		ID:              p.ID,
		Pos:             p.Pos,
		HP:              p.HP,
		MaxHP:           p.MaxHP,
		Level:           p.Level,
		XP:              p.XP,
		XPToNext:        p.XPToNext,
		Damage:          p.ShotDamage(),
		FireRate:        s.fireRate(p),
		Speed:           p.EffectiveSpeed(),
		ProjectileCount: p.ProjectileCount,
		PickupRadius:    p.PickupRadius,
		Buffs:           s.buffs.Snapshot(),
	}
}

func (s *Simulation) snapshot() *Snapshot {
	p := s.entities.Player()
	snap := &Snapshot{
		RunID:   s.runID,
		Tick:    s.tick,
		Elapsed: s.elapsed,
		Phase:   s.phase,
		Wave:    s.waves.CurrentWave(),
		Player:  s.playerView(),
		Events:  s.events,
		Stats:   s.Stats(),
	}
	if s.phase == PhaseLevelUp {
		snap.Choices = describe(s.progress.Current())
	}

	counts := s.entities.Counts()
	snap.Entities = make([]EntityView, 0, 1+counts.Enemies+counts.Projectiles+counts.Pickups)
	snap.Entities = append(snap.Entities, EntityView{
		ID:         p.ID,
		Category:   CategoryPlayer,
		Pos:        p.Pos,
		Radius:     p.Radius,
		HPFraction: p.HPFraction(),
	})
	for _, e := range s.entities.Enemies() {
		snap.Entities = append(snap.Entities, EntityView{
			ID:         e.ID,
			Category:   CategoryEnemy,
			Kind:       e.Type.String(),
			Pos:        e.Pos,
			Radius:     e.Radius,
			HPFraction: e.HPFraction(),
			State:      e.State.String(),
			Hostile:    true,
		})
	}
	for _, pr := range s.entities.Projectiles() {
		if pr.Dead {
			continue
		}
		snap.Entities = append(snap.Entities, EntityView{
			ID:       pr.ID,
			Category: CategoryProjectile,
			Kind:     pr.Kind.String(),
			Pos:      pr.Pos,
			Radius:   pr.Radius,
			Hostile:  pr.Faction == entity.FactionHostile,
		})
	}
	for _, pk := range s.entities.Pickups() {
		if pk.Dead {
			continue
		}
		kind := pk.Kind.String()
		if pk.Kind == entity.PickupPowerUp {
			kind = pk.PowerUp
		}
		snap.Entities = append(snap.Entities, EntityView{
			ID:       pk.ID,
			Category: CategoryPickup,
			Kind:     kind,
			Pos:      pk.Pos,
			Radius:   pk.Radius,
		})
	}
	return snap
}
