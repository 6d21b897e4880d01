package config

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidConfiguration таблицы баланса непригодны для запуска симуляции
var ErrInvalidConfiguration = errors.New("invalid configuration")

func invalid(field, format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s: %s", ErrInvalidConfiguration, field, fmt.Sprintf(format, args...))
}

func positive(field string, v float64) error {
	if !(v > 0) || math.IsInf(v, 0) {
		return invalid(field, "ожидается положительное число, получено %v", v)
	}
	return nil
}

// Validate проверяет таблицы баланса. Ошибка всегда оборачивает ErrInvalidConfiguration.
func (b *Balance) Validate() error {
	switch b.Run.WinMode {
	case WinModeTime, WinModeWaves, WinModeEndless:
	default:
		return invalid("run.win_mode", "неизвестный режим %q", b.Run.WinMode)
	}

	checks := []struct {
		field string
		value float64
	}{
		{"run.duration_seconds", b.Run.Duration},
		{"run.max_delta", b.Run.MaxDelta},
		{"arena.width", b.Arena.Width},
		{"arena.height", b.Arena.Height},
		{"player.max_hp", b.Player.MaxHP},
		{"player.radius", b.Player.Radius},
		{"player.speed", b.Player.Speed},
		{"player.fire_rate", b.Player.FireRate},
		{"player.projectile_speed", b.Player.ProjectileSpeed},
		{"player.xp_growth", b.Player.XPGrowth},
		{"weapon.projectile_radius", b.Weapon.ProjectileRadius},
		{"weapon.lifetimes.basic", b.Weapon.Lifetimes.Basic},
		{"weapon.lifetimes.piercing", b.Weapon.Lifetimes.Piercing},
		{"weapon.lifetimes.explosive", b.Weapon.Lifetimes.Explosive},
		{"weapon.lifetimes.rapid_fire", b.Weapon.Lifetimes.RapidFire},
		{"weapon.explosion_radius", b.Weapon.ExplosionRadius},
		{"pickups.radius", b.Pickups.Radius},
		{"pickups.ttl_seconds", b.Pickups.TTL},
		{"combat.contact_cooldown", b.Combat.ContactCooldown},
		{"waves.wave_duration", b.Waves.WaveDuration},
		{"waves.base_interval", b.Waves.BaseInterval},
		{"waves.interval_floor", b.Waves.IntervalFloor},
	}
	for _, c := range checks {
		if err := positive(c.field, c.value); err != nil {
			return err
		}
	}

	if b.Player.ProjectileCount < 1 {
		return invalid("player.projectile_count", "должно быть >= 1")
	}
	if b.Player.XPToNext < 1 {
		return invalid("player.xp_to_next", "должно быть >= 1")
	}
	if b.Player.XPGrowth < 1 {
		return invalid("player.xp_growth", "порог опыта не может убывать")
	}
	if b.Weapon.PierceCount < 1 {
		return invalid("weapon.pierce_count", "должно быть >= 1")
	}
	if b.Waves.IntervalFloor > b.Waves.BaseInterval {
		return invalid("waves.interval_floor", "нижняя граница %v больше базового интервала %v",
			b.Waves.IntervalFloor, b.Waves.BaseInterval)
	}
	if b.Waves.IntervalDecay < 0 || b.Waves.LevelIntervalDecay < 0 {
		return invalid("waves.interval_decay", "интервал не должен расти со временем")
	}
	if b.Waves.WaveCount < 1 {
		return invalid("waves.wave_count", "должно быть >= 1")
	}
	if b.Waves.MaxEnemies < 1 {
		return invalid("waves.max_enemies", "должно быть >= 1")
	}
	if len(b.Pickups.XPTiers) == 0 {
		return invalid("pickups.xp_tiers", "нужен хотя бы один уровень опыта")
	}
	for i := 1; i < len(b.Pickups.XPTiers); i++ {
		if b.Pickups.XPTiers[i] <= b.Pickups.XPTiers[i-1] {
			return invalid("pickups.xp_tiers", "уровни должны строго возрастать")
		}
	}

	if err := b.validateEnemies(); err != nil {
		return err
	}
	if err := b.validateUpgrades(); err != nil {
		return err
	}
	return b.validatePowerUps()
}

func (b *Balance) validateEnemies() error {
	for _, name := range KnownEnemyTypes {
		st, ok := b.Enemies[name]
		if !ok {
			return invalid("enemies."+name, "нет строки таблицы")
		}
		for _, f := range []struct {
			field string
			v     float64
		}{{"hp", st.HP}, {"speed", st.Speed}, {"radius", st.Radius}} {
			if err := positive("enemies."+name+"."+f.field, f.v); err != nil {
				return err
			}
		}
		if st.ContactDamage < 0 || st.XP < 0 {
			return invalid("enemies."+name, "урон и опыт не могут быть отрицательными")
		}
		for _, ability := range requiredAbilities[name] {
			a, ok := st.Abilities[ability]
			if !ok {
				return invalid("enemies."+name+".abilities", "нет способности %q", ability)
			}
			if ability != AbilityDetonate && !(a.Cooldown > 0) {
				return invalid("enemies."+name+".abilities."+ability+".cooldown", "ожидается положительное число")
			}
			if ability == AbilitySummon {
				if _, ok := b.Enemies[a.Minion]; !ok {
					return invalid("enemies."+name+".abilities.summon.minion", "неизвестный тип %q", a.Minion)
				}
			}
		}
	}
	for name := range b.Enemies {
		if !isKnownEnemy(name) {
			return invalid("enemies."+name, "неизвестный тип врага")
		}
	}
	for name, wave := range b.Waves.Unlocks {
		if !isKnownEnemy(name) {
			return invalid("waves.unlocks."+name, "неизвестный тип врага")
		}
		if wave < 1 {
			return invalid("waves.unlocks."+name, "номер волны должен быть >= 1")
		}
	}
	hasFirstWave := false
	for _, wave := range b.Waves.Unlocks {
		if wave == 1 {
			hasFirstWave = true
		}
	}
	if !hasFirstWave {
		return invalid("waves.unlocks", "в первой волне нет ни одного типа")
	}
	for i, ev := range b.Waves.Bosses {
		if !isKnownEnemy(ev.Type) || ev.Wave < 1 {
			return invalid(fmt.Sprintf("waves.bosses[%d]", i), "некорректное событие %+v", ev)
		}
	}
	return nil
}

func (b *Balance) validateUpgrades() error {
	seen := make(map[string]bool, len(b.Upgrades))
	unconditional := 0
	for i, u := range b.Upgrades {
		field := fmt.Sprintf("upgrades[%d]", i)
		if u.ID == "" || u.Description == "" {
			return invalid(field, "нужны id и описание")
		}
		if seen[u.ID] {
			return invalid(field, "повтор id %q", u.ID)
		}
		seen[u.ID] = true
		switch u.Op {
		case OpAdd, OpMul:
			if !isNumericStat(u.Stat) {
				return invalid(field, "операция %s неприменима к %q", u.Op, u.Stat)
			}
		case OpFlag:
			if u.Stat != StatPiercing && u.Stat != StatExplosive && u.Stat != StatRapidFire {
				return invalid(field, "флаг %q не существует", u.Stat)
			}
		case OpHeal, OpHealFull, OpMaxHP:
		default:
			return invalid(field, "неизвестная операция %q", u.Op)
		}
		if u.Unconditional() {
			unconditional++
		}
	}
	if unconditional < 3 {
		return invalid("upgrades", "нужно минимум 3 безусловных улучшения, есть %d", unconditional)
	}
	return nil
}

func (b *Balance) validatePowerUps() error {
	for kind, spec := range b.PowerUps.Kinds {
		switch kind {
		case PowerUpSpeed, PowerUpDamage, PowerUpRapidFire, PowerUpShield, PowerUpHeal, PowerUpInvincibility:
		default:
			return invalid("powerups.kinds."+kind, "неизвестный бонус")
		}
		if spec.Weight < 0 || spec.Duration < 0 {
			return invalid("powerups.kinds."+kind, "отрицательные параметры")
		}
	}
	return nil
}

func isKnownEnemy(name string) bool {
	for _, n := range KnownEnemyTypes {
		if n == name {
			return true
		}
	}
	return false
}

func isNumericStat(stat string) bool {
	switch stat {
	case StatDamage, StatDamageMultiplier, StatFireRate, StatMoveSpeed,
		StatProjectileSpeed, StatProjectileCount, StatPickupRadius:
		return true
	}
	return false
}
