// Package behavior реализует автоматы состояний врагов.
//
// Каждый тик Engine.Update получает врага и контекст мира и возвращает
// намерение: вектор скорости, телепорт и список сработавших способностей.
// Сам движок ничего не создаёт и никого не ранит, это делает ядро симуляции.
package behavior

import (
	"math"

	"github.com/annel0/horde-survival/internal/config"
	"github.com/annel0/horde-survival/internal/entity"
	"github.com/annel0/horde-survival/internal/logging"
	"github.com/annel0/horde-survival/internal/vec"
)

// Engine движок поведения врагов
type Engine struct {
	balance *config.Balance
	logger  *logging.Logger
}

// NewEngine создаёт движок поверх таблиц баланса
func NewEngine(balance *config.Balance) *Engine {
	return &Engine{
		balance: balance,
		logger:  logging.GetComponentLogger("behavior"),
	}
}

// Update продвигает автомат врага на dt и возвращает его намерение
func (en *Engine) Update(e *entity.Enemy, ctx Context, dt float64) Intent {
	var intent Intent
	if e.State == entity.Dying || e.State == entity.Dead {
		return intent
	}

	stats, ok := en.balance.Enemies[e.Type.String()]
	if !ok {
		en.logger.Warn("нет таблицы для типа %s (враг %d)", e.Type, e.ID)
		return intent
	}

	e.Age += dt
	for name, left := range e.Cooldowns {
		if left > 0 {
			e.Cooldowns[name] = math.Max(0, left-dt)
		}
	}

	if !ctx.PlayerAlive {
		setState(e, entity.Idle, 0)
		return intent
	}

	switch e.State {
	case entity.Idle:
		setState(e, entity.Chasing, 0)
		en.chase(e, stats, ctx, dt, &intent)
	case entity.Chasing:
		en.chase(e, stats, ctx, dt, &intent)
	case entity.Hurt:
		e.StateTimer -= dt
		if e.ResumeState == entity.Chasing {
			intent.Velocity = en.movement(e, stats, ctx).Mul(en.balance.Combat.HurtSpeedFactor)
		}
		if e.StateTimer <= 0 {
			en.recoverFromHurt(e)
		}
	case entity.Charging:
		e.StateTimer -= dt
		if e.StateTimer <= 0 {
			en.commitCharge(e, stats, &intent)
		}
	case entity.Attacking:
		e.StateTimer -= dt
		if e.ChargeAbility == config.AbilityDash {
			intent.Velocity = en.dashVelocity(e, stats, dt)
		}
		if e.StateTimer <= 0 {
			e.ChargeAbility = ""
			setState(e, entity.Chasing, 0)
		}
	}
	return intent
}

// chase движение и проверка способностей в состоянии Chasing
func (en *Engine) chase(e *entity.Enemy, stats config.EnemyStats, ctx Context, dt float64, intent *Intent) {
	intent.Velocity = en.movement(e, stats, ctx)
	dist := e.Pos.DistanceTo(ctx.PlayerPos)

	switch e.Type {
	case entity.Tank:
		en.tryStomp(e, stats, ctx, dist, intent)
	case entity.FastMelee:
		en.tryDash(e, stats, ctx, dist, intent)
	case entity.Healer:
		en.tryHeal(e, stats, ctx, intent)
	case entity.Bomber:
		en.tryDetonate(e, stats, ctx, dist, intent)
	case entity.Ranged:
		en.tryShoot(e, stats, ctx, dist, intent)
	case entity.Laser:
		en.tryBeam(e, stats, ctx, dist, intent)
	case entity.Mortar:
		en.tryMortar(e, stats, ctx, dist, intent)
	case entity.Summoner:
		en.trySummon(e, stats, ctx, dist, intent)
	case entity.Assassin:
		en.tryBlink(e, stats, ctx, dist, intent)
	case entity.Boss:
		if !en.trySummon(e, stats, ctx, dist, intent) {
			en.tryShockwave(e, stats, ctx, dist, intent)
		}
	case entity.MegaBoss:
		if en.tryDash(e, stats, ctx, dist, intent) {
			return
		}
		if !en.trySummon(e, stats, ctx, dist, intent) {
			en.tryShockwave(e, stats, ctx, dist, intent)
		}
	}
}

// movement вектор скорости преследования по типу врага
func (en *Engine) movement(e *entity.Enemy, stats config.EnemyStats, ctx Context) vec.Vec2 {
	toPlayer := ctx.PlayerPos.Sub(e.Pos)
	dist := toPlayer.Length()
	dir := toPlayer.Normalized()

	switch e.Type {
	case entity.FastMelee:
		v := dir.Mul(e.Speed)
		if stats.Zigzag.Amplitude > 0 {
			v = v.Add(dir.Perp().Mul(stats.Zigzag.Amplitude * math.Sin(e.Age*stats.Zigzag.Frequency)))
		}
		return v
	case entity.Ranged, entity.Laser, entity.Mortar, entity.Summoner:
		return holdDistance(dir, dist, effectiveRange(e.Type, stats), e.Speed)
	case entity.Healer:
		if ctx.World != nil {
			if allyPos, ok := ctx.World.NearestDamagedAlly(e); ok {
				heal, _ := stats.Ability(config.AbilityHeal)
				if e.Pos.DistanceTo(allyPos) > heal.Range*0.5 {
					return allyPos.Sub(e.Pos).Normalized().Mul(e.Speed)
				}
				return vec.Zero
			}
		}
	}
	return dir.Mul(e.Speed)
}

// primaryAbility способность, ради которой стрелок держит дистанцию
var primaryAbility = map[entity.EnemyType]string{
	entity.Ranged:   config.AbilityShoot,
	entity.Laser:    config.AbilityBeam,
	entity.Mortar:   config.AbilityMortar,
	entity.Summoner: config.AbilitySummon,
}

// effectiveRange дистанция, на которой враг перестаёт подходить: hold_distance,
// но не дальше дальности основной способности
func effectiveRange(t entity.EnemyType, stats config.EnemyStats) float64 {
	hold := stats.HoldDistance
	if a, ok := stats.Ability(primaryAbility[t]); ok && a.Range > 0 && (hold <= 0 || hold > a.Range) {
		hold = a.Range
	}
	return hold
}

// holdDistance подходит к игроку, только если он дальше дистанции hold
func holdDistance(dir vec.Vec2, dist, hold, speed float64) vec.Vec2 {
	if hold <= 0 || dist > hold {
		return dir.Mul(speed)
	}
	return vec.Zero
}

// ready true если способность есть у типа и её кулдаун истёк
func ready(e *entity.Enemy, stats config.EnemyStats, name string) (config.AbilitySpec, bool) {
	a, ok := stats.Ability(name)
	if !ok {
		return a, false
	}
	return a, e.Cooldowns[name] <= 0
}

func resetCooldown(e *entity.Enemy, name string, a config.AbilitySpec) {
	e.Cooldowns[name] = a.Cooldown
}

func (en *Engine) tryStomp(e *entity.Enemy, stats config.EnemyStats, ctx Context, dist float64, intent *Intent) bool {
	a, ok := ready(e, stats, config.AbilityStomp)
	if !ok || dist > a.Range {
		return false
	}
	resetCooldown(e, config.AbilityStomp, a)
	intent.Triggers = append(intent.Triggers, Trigger{
		Kind: TriggerStomp, Source: e.ID, Origin: e.Pos, Target: ctx.PlayerPos,
		Radius: a.Radius, Damage: a.Damage * e.Multiplier,
	})
	return true
}

func (en *Engine) tryDash(e *entity.Enemy, stats config.EnemyStats, ctx Context, dist float64, intent *Intent) bool {
	a, ok := ready(e, stats, config.AbilityDash)
	if !ok || dist < a.MinRange || dist > a.Range {
		return false
	}
	resetCooldown(e, config.AbilityDash, a)
	en.beginCharge(e, config.AbilityDash, ctx.PlayerPos, en.balance.Combat.DashChargeTime, intent)
	return true
}

func (en *Engine) tryBeam(e *entity.Enemy, stats config.EnemyStats, ctx Context, dist float64, intent *Intent) bool {
	a, ok := ready(e, stats, config.AbilityBeam)
	if !ok || dist > a.Range {
		return false
	}
	resetCooldown(e, config.AbilityBeam, a)
	en.beginCharge(e, config.AbilityBeam, ctx.PlayerPos, a.Charge, intent)
	return true
}

// beginCharge останавливает врага и запоминает цель рывка или луча
func (en *Engine) beginCharge(e *entity.Enemy, ability string, target vec.Vec2, chargeTime float64, intent *Intent) {
	e.ChargeAbility = ability
	e.ChargeTarget = target
	e.ChargeDir = target.Sub(e.Pos).Normalized()
	setState(e, entity.Charging, chargeTime)
	intent.Velocity = vec.Zero
	intent.Triggers = append(intent.Triggers, Trigger{
		Kind: TriggerCharge, Source: e.ID, Origin: e.Pos, Target: target,
	})
	en.logger.Debug("враг %d (%s) заряжает %s", e.ID, e.Type, ability)
}

// commitCharge завершает зарядку: рывок переходит в Attacking, луч стреляет
func (en *Engine) commitCharge(e *entity.Enemy, stats config.EnemyStats, intent *Intent) {
	attack := en.balance.Combat.DashDuration
	if e.ChargeAbility == config.AbilityBeam {
		if a, ok := stats.Ability(config.AbilityBeam); ok {
			end := e.Pos.Add(e.ChargeDir.Mul(a.Range))
			intent.Triggers = append(intent.Triggers, Trigger{
				Kind: TriggerBeam, Source: e.ID, Origin: e.Pos, Target: end,
				Width: a.Width, Damage: a.Damage * e.Multiplier,
			})
		}
	}
	setState(e, entity.Attacking, attack)
}

// dashVelocity скорость рывка к запомненной точке без перелёта
func (en *Engine) dashVelocity(e *entity.Enemy, stats config.EnemyStats, dt float64) vec.Vec2 {
	a, _ := stats.Ability(config.AbilityDash)
	speed := e.Speed * math.Max(a.Speed, 1)
	remaining := e.ChargeTarget.Sub(e.Pos)
	dist := remaining.Length()
	if dist == 0 || dt <= 0 {
		return vec.Zero
	}
	if speed*dt >= dist {
		return remaining.Mul(1 / dt)
	}
	return e.ChargeDir.Mul(speed)
}

func (en *Engine) tryHeal(e *entity.Enemy, stats config.EnemyStats, ctx Context, intent *Intent) bool {
	a, ok := ready(e, stats, config.AbilityHeal)
	if !ok || ctx.World == nil {
		return false
	}
	allyPos, found := ctx.World.NearestDamagedAlly(e)
	if !found || e.Pos.DistanceTo(allyPos) > a.Range {
		return false
	}
	resetCooldown(e, config.AbilityHeal, a)
	intent.Triggers = append(intent.Triggers, Trigger{
		Kind: TriggerHeal, Source: e.ID, Origin: e.Pos, Radius: a.Range, Amount: a.Amount * e.Multiplier,
	})
	return true
}

func (en *Engine) tryDetonate(e *entity.Enemy, stats config.EnemyStats, ctx Context, dist float64, intent *Intent) bool {
	a, ok := stats.Ability(config.AbilityDetonate)
	if !ok || dist > a.Range {
		return false
	}
	intent.Triggers = append(intent.Triggers, Trigger{
		Kind: TriggerDetonate, Source: e.ID, Origin: e.Pos, Radius: a.Radius, Damage: a.Damage * e.Multiplier,
	})
	intent.Velocity = vec.Zero
	return true
}

func (en *Engine) tryShoot(e *entity.Enemy, stats config.EnemyStats, ctx Context, dist float64, intent *Intent) bool {
	a, ok := ready(e, stats, config.AbilityShoot)
	if !ok || dist > a.Range {
		return false
	}
	resetCooldown(e, config.AbilityShoot, a)
	intent.Triggers = append(intent.Triggers, Trigger{
		Kind: TriggerShoot, Source: e.ID, Origin: e.Pos, Target: ctx.PlayerPos,
		Damage: a.Damage * e.Multiplier, Speed: a.Speed, Lifetime: a.Lifetime,
	})
	return true
}

func (en *Engine) tryMortar(e *entity.Enemy, stats config.EnemyStats, ctx Context, dist float64, intent *Intent) bool {
	a, ok := ready(e, stats, config.AbilityMortar)
	if !ok || dist > a.Range {
		return false
	}
	resetCooldown(e, config.AbilityMortar, a)
	intent.Triggers = append(intent.Triggers, Trigger{
		Kind: TriggerMortar, Source: e.ID, Origin: e.Pos, Target: ctx.PlayerPos,
		Damage: a.Damage * e.Multiplier, Radius: a.Radius, Speed: a.Speed,
	})
	return true
}

// trySummon призывает приспешников вместо движения на этом тике
func (en *Engine) trySummon(e *entity.Enemy, stats config.EnemyStats, ctx Context, dist float64, intent *Intent) bool {
	a, ok := ready(e, stats, config.AbilitySummon)
	if !ok || dist > a.Range || ctx.World == nil {
		return false
	}
	free := a.MaxActive - ctx.World.SummonsOf(e.ID)
	if free <= 0 {
		return false
	}
	resetCooldown(e, config.AbilitySummon, a)
	count := 2
	if free < count {
		count = free
	}
	intent.Velocity = vec.Zero
	intent.Triggers = append(intent.Triggers, Trigger{
		Kind: TriggerSummon, Source: e.ID, Origin: e.Pos, Count: count, Minion: a.Minion, Offset: a.Offset,
	})
	return true
}

func (en *Engine) tryBlink(e *entity.Enemy, stats config.EnemyStats, ctx Context, dist float64, intent *Intent) bool {
	a, ok := ready(e, stats, config.AbilityBlink)
	if !ok || dist < a.MinRange || dist > a.Range {
		return false
	}
	resetCooldown(e, config.AbilityBlink, a)
	behind := ctx.PlayerPos.Add(ctx.PlayerPos.Sub(e.Pos).Normalized().Mul(a.Offset))
	intent.Teleport = true
	intent.TeleportPos = behind
	intent.Velocity = vec.Zero
	e.BackstabReady = true
	intent.Triggers = append(intent.Triggers, Trigger{
		Kind: TriggerBlink, Source: e.ID, Origin: e.Pos, Target: behind, Amount: a.Amount,
	})
	return true
}

func (en *Engine) tryShockwave(e *entity.Enemy, stats config.EnemyStats, ctx Context, dist float64, intent *Intent) bool {
	a, ok := ready(e, stats, config.AbilityShockwave)
	if !ok || dist > a.Range {
		return false
	}
	resetCooldown(e, config.AbilityShockwave, a)
	intent.Triggers = append(intent.Triggers, Trigger{
		Kind: TriggerShockwave, Source: e.ID, Origin: e.Pos, Radius: a.Radius, Damage: a.Damage * e.Multiplier,
	})
	return true
}
