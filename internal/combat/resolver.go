// Package combat разрешает столкновения и урон за один тик.
package combat

import (
	"errors"

	"github.com/annel0/horde-survival/internal/behavior"
	"github.com/annel0/horde-survival/internal/config"
	"github.com/annel0/horde-survival/internal/entity"
	"github.com/annel0/horde-survival/internal/logging"
	"github.com/annel0/horde-survival/internal/physics"
	"github.com/annel0/horde-survival/internal/spatial"
	"github.com/annel0/horde-survival/internal/vec"
)

// Причины урона игроку
const (
	CauseContact    = "contact"
	CauseProjectile = "projectile"
	CauseExplosion  = "explosion"
	CauseBeam       = "beam"
	CauseStomp      = "stomp"
	CauseShockwave  = "shockwave"
)

// Resolver разрешает бой. Индекс содержит только живых врагов;
// умирающих он сам из него убирает.
type Resolver struct {
	balance *config.Balance
	engine  *behavior.Engine
	logger  *logging.Logger
}

// NewResolver создаёт резолвер
func NewResolver(balance *config.Balance, engine *behavior.Engine) *Resolver {
	return &Resolver{
		balance: balance,
		engine:  engine,
		logger:  logging.GetCombatLogger(),
	}
}

// Resolve выполняет фазу боя в фиксированном порядке: снаряды игрока,
// вражеские снаряды, контактный урон, подбор предметов.
func (r *Resolver) Resolve(m *entity.Manager, idx *spatial.Index, res *Result, elapsed, dt float64) {
	r.playerProjectiles(m, idx, res)
	r.hostileProjectiles(m, res)
	r.contact(m, idx, res, elapsed)
	r.pickups(m, res, dt)
}

// lookupEnemy берёт врага из пула; пропавший враг пропускается с записью в лог
func (r *Resolver) lookupEnemy(m *entity.Manager, id entity.ID) (*entity.Enemy, bool) {
	e, err := m.Enemy(id)
	if err != nil {
		if errors.Is(err, entity.ErrEntityNotFound) {
			r.logger.Debug("пропуск: %v", err)
		}
		return nil, false
	}
	return e, true
}

// sweepCandidates кандидаты на попадание вдоль пути снаряда за тик, по возрастанию ID
func sweepCandidates(idx *spatial.Index, p *entity.Projectile) []entity.ID {
	from := p.SweepStart()
	mid := from.Add(p.Pos).Mul(0.5)
	reach := from.DistanceTo(p.Pos)/2 + p.Radius
	ids := idx.QueryRange(mid, reach)

	out := ids[:0]
	for _, id := range ids {
		pos, radius, ok := idx.Position(id)
		if ok && pos.DistanceToSegment(from, p.Pos) <= radius+p.Radius {
			out = append(out, id)
		}
	}
	return out
}

func (r *Resolver) playerProjectiles(m *entity.Manager, idx *spatial.Index, res *Result) {
	for _, p := range m.Projectiles() {
		if p.Dead || p.Faction != entity.FactionPlayer || p.Lobbed {
			continue
		}
		for _, id := range sweepCandidates(idx, p) {
			if p.Dead {
				break
			}
			e, ok := r.lookupEnemy(m, id)
			if !ok || !e.Alive() || p.HasHit(id) {
				continue
			}

			p.MarkHit(id)
			res.Hits++
			hitPos := e.Pos
			r.DamageEnemy(idx, res, e, p.Damage, p.Owner, true)

			p.PierceRemaining--
			if p.PierceRemaining > 0 {
				continue
			}
			p.Dead = true
			if p.Kind == entity.Explosive {
				splash := p.Damage * r.balance.Weapon.SplashFactor
				r.Explode(m, idx, res, hitPos, p.ExplosionRadius, splash, id, p.Owner, true)
			}
		}
	}
}

func (r *Resolver) hostileProjectiles(m *entity.Manager, res *Result) {
	player := m.Player()
	if player == nil || !player.Alive() {
		return
	}
	target := physics.Circle{Center: player.Pos, Radius: player.Radius}
	for _, p := range m.Projectiles() {
		if p.Dead || p.Faction != entity.FactionHostile || p.Lobbed {
			continue
		}
		from := p.SweepStart()
		if !physics.SegmentHitsCircle(from, p.Pos, p.Radius*2, target) {
			continue
		}
		p.Dead = true
		r.HitPlayer(m, res, p.Damage, p.Owner, p.Pos, CauseProjectile)
	}
}

// contact урон от касания с кулдауном на каждого врага
func (r *Resolver) contact(m *entity.Manager, idx *spatial.Index, res *Result, elapsed float64) {
	player := m.Player()
	if player == nil || !player.Alive() {
		return
	}
	cooldown := r.balance.Combat.ContactCooldown
	for _, id := range idx.QueryRange(player.Pos, player.Radius) {
		e, ok := r.lookupEnemy(m, id)
		if !ok || !e.Alive() {
			continue
		}
		if e.HasContacted && elapsed-e.LastContactAt < cooldown {
			continue
		}
		e.HasContacted = true
		e.LastContactAt = elapsed

		damage := e.ContactDamage
		if e.BackstabReady {
			if blink, ok := r.balance.Enemies[e.Type.String()].Ability(config.AbilityBlink); ok && blink.Amount > 0 {
				damage *= blink.Amount
			}
			e.BackstabReady = false
		}
		r.HitPlayer(m, res, damage, e.ID, e.Pos, CauseContact)
		if !player.Alive() {
			return
		}
	}
}

// pickups притягивает предметы в радиусе сбора и собирает коснувшиеся игрока
func (r *Resolver) pickups(m *entity.Manager, res *Result, dt float64) {
	player := m.Player()
	if player == nil || !player.Alive() {
		return
	}
	for _, pk := range m.Pickups() {
		if pk.Dead {
			continue
		}
		dist := pk.Pos.DistanceTo(player.Pos)

		if pk.Kind == entity.PickupXP {
			// Притянутая в этом тике сфера начинает лететь со следующего
			if pk.Magnetized {
				pk.Pos = pk.Pos.MoveTowards(player.Pos, r.balance.Pickups.HomingSpeed*dt)
				dist = pk.Pos.DistanceTo(player.Pos)
			} else if dist <= player.PickupRadius {
				pk.Magnetized = true
			}
			if dist > player.CollectRadius+pk.Radius {
				continue
			}
			pk.Dead = true
			res.XP += pk.XP
			res.add(Notice{Kind: NoticePickupCollected, Entity: pk.ID, Pos: pk.Pos, XP: pk.XP})
			continue
		}

		if dist > player.Radius+pk.Radius {
			continue
		}
		pk.Dead = true
		res.PowerUps = append(res.PowerUps, pk.PowerUp)
		res.add(Notice{Kind: NoticePickupCollected, Entity: pk.ID, Pos: pk.Pos, PowerUp: pk.PowerUp})
	}
}

// DamageEnemy наносит урон врагу. Смертельный удар переводит его в Dying
// и убирает из индекса, остальные попадания вызывают оглушение.
func (r *Resolver) DamageEnemy(idx *spatial.Index, res *Result, e *entity.Enemy, amount float64, source entity.ID, byPlayer bool) {
	dealt, killed := e.ApplyDamage(amount)
	if dealt <= 0 {
		return
	}
	if byPlayer {
		res.DamageDealt += dealt
	}
	res.add(Notice{Kind: NoticeEnemyDamaged, Entity: e.ID, Source: source, Pos: e.Pos, Amount: dealt})

	if !killed {
		r.engine.Hurt(e)
		return
	}
	r.engine.BeginDying(e)
	idx.Remove(e.ID)
	res.Killed = append(res.Killed, e.ID)
	res.add(Notice{Kind: NoticeEnemyKilled, Entity: e.ID, Source: source, Pos: e.Pos})
}

// Explode наносит damage всем живым врагам, задетым кругом взрыва, кроме exclude
func (r *Resolver) Explode(m *entity.Manager, idx *spatial.Index, res *Result, center vec.Vec2, radius, damage float64, exclude, source entity.ID, byPlayer bool) {
	res.add(Notice{Kind: NoticeExplosion, Source: source, Pos: center, Radius: radius, Amount: damage})
	if damage <= 0 {
		return
	}
	for _, id := range idx.QueryRange(center, radius) {
		if id == exclude {
			continue
		}
		e, ok := r.lookupEnemy(m, id)
		if !ok || !e.Alive() {
			continue
		}
		r.DamageEnemy(idx, res, e, damage, source, byPlayer)
	}
}

// HitPlayer наносит урон игроку с учётом бонусов защиты
func (r *Resolver) HitPlayer(m *entity.Manager, res *Result, damage float64, source entity.ID, from vec.Vec2, cause string) float64 {
	player := m.Player()
	if player == nil {
		return 0
	}
	taken := player.ApplyDamage(damage)
	if taken <= 0 {
		return 0
	}
	res.DamageTaken += taken
	res.add(Notice{Kind: NoticePlayerDamaged, Entity: player.ID, Source: source, Pos: from, Amount: taken, Cause: cause})
	return taken
}

// PlayerInArea true если круг области задевает игрока
func PlayerInArea(player *entity.Player, center vec.Vec2, radius float64) bool {
	if player == nil || !player.Alive() {
		return false
	}
	return physics.Circle{Center: center, Radius: radius}.Overlaps(physics.Circle{Center: player.Pos, Radius: player.Radius})
}

// AreaHitPlayer урон игроку, если он в области (топот, ударная волна, снаряд миномёта)
func (r *Resolver) AreaHitPlayer(m *entity.Manager, res *Result, center vec.Vec2, radius, damage float64, source entity.ID, cause string) float64 {
	if !PlayerInArea(m.Player(), center, radius) {
		return 0
	}
	return r.HitPlayer(m, res, damage, source, center, cause)
}

// Beam проверяет попадание луча (отрезок from-to толщиной width) по игроку
func (r *Resolver) Beam(m *entity.Manager, res *Result, from, to vec.Vec2, width, damage float64, source entity.ID) float64 {
	res.add(Notice{Kind: NoticeBeam, Source: source, Pos: from, Target: to, Radius: width})
	player := m.Player()
	if player == nil || !player.Alive() {
		return 0
	}
	if !physics.SegmentHitsCircle(from, to, width, physics.Circle{Center: player.Pos, Radius: player.Radius}) {
		return 0
	}
	return r.HitPlayer(m, res, damage, source, from, CauseBeam)
}

// Detonate подрыв бомбера. Урон игроку и другим врагам линейно ослабевает
// от центра к границе радиуса; по врагам он дополнительно умножается на
// EnemySplashFactor. Сам бомбер погибает без награды.
func (r *Resolver) Detonate(m *entity.Manager, idx *spatial.Index, res *Result, bomber *entity.Enemy, radius, damage float64) {
	if !bomber.Alive() {
		return
	}
	res.add(Notice{Kind: NoticeExplosion, Source: bomber.ID, Pos: bomber.Pos, Radius: radius, Amount: damage})

	if player := m.Player(); player != nil && player.Alive() {
		if f := physics.Falloff(player.Pos.DistanceTo(bomber.Pos), radius); f > 0 {
			r.HitPlayer(m, res, damage*f, bomber.ID, bomber.Pos, CauseExplosion)
		}
	}

	splash := damage * r.balance.Combat.EnemySplashFactor
	for _, id := range idx.QueryRange(bomber.Pos, radius) {
		if id == bomber.ID {
			continue
		}
		e, ok := r.lookupEnemy(m, id)
		if !ok || !e.Alive() {
			continue
		}
		if f := physics.Falloff(e.Pos.DistanceTo(bomber.Pos), radius); f > 0 {
			r.DamageEnemy(idx, res, e, splash*f, bomber.ID, false)
		}
	}

	bomber.SelfDestructed = true
	r.engine.BeginDying(bomber)
	idx.Remove(bomber.ID)
	res.Killed = append(res.Killed, bomber.ID)
	res.add(Notice{Kind: NoticeEnemyKilled, Entity: bomber.ID, Source: bomber.ID, Pos: bomber.Pos, Cause: CauseExplosion})
}

// LandShell взрыв навесного снаряда в точке падения
func (r *Resolver) LandShell(m *entity.Manager, res *Result, shell *entity.Projectile) {
	if shell.Dead {
		return
	}
	shell.Dead = true
	res.add(Notice{Kind: NoticeExplosion, Source: shell.Owner, Pos: shell.Pos, Radius: shell.ExplosionRadius, Amount: shell.Damage})
	r.AreaHitPlayer(m, res, shell.Pos, shell.ExplosionRadius, shell.Damage, shell.Owner, CauseExplosion)
}
