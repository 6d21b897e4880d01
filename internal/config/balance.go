package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Режимы победы
const (
	WinModeTime    = "time"
	WinModeWaves   = "waves"
	WinModeEndless = "endless"
)

// Имена типов врагов в таблицах баланса
const (
	EnemyChaser    = "chaser"
	EnemyTank      = "tank"
	EnemyFastMelee = "fast_melee"
	EnemyHealer    = "healer"
	EnemyBomber    = "bomber"
	EnemyRanged    = "ranged"
	EnemyLaser     = "laser"
	EnemyMortar    = "mortar"
	EnemySummoner  = "summoner"
	EnemyAssassin  = "assassin"
	EnemyBoss      = "boss"
	EnemyMegaBoss  = "mega_boss"
)

// KnownEnemyTypes все типы врагов, для каждого обязана быть строка таблицы
var KnownEnemyTypes = []string{
	EnemyChaser, EnemyTank, EnemyFastMelee, EnemyHealer, EnemyBomber, EnemyRanged,
	EnemyLaser, EnemyMortar, EnemySummoner, EnemyAssassin, EnemyBoss, EnemyMegaBoss,
}

// Имена способностей
const (
	AbilityShoot     = "shoot"
	AbilityBeam      = "beam"
	AbilityMortar    = "mortar"
	AbilitySummon    = "summon"
	AbilityHeal      = "heal"
	AbilityDetonate  = "detonate"
	AbilityStomp     = "stomp"
	AbilityShockwave = "shockwave"
	AbilityBlink     = "blink"
	AbilityDash      = "dash"
)

// requiredAbilities способности, без которых поведение типа не определено
var requiredAbilities = map[string][]string{
	EnemyTank:      {AbilityStomp},
	EnemyFastMelee: {AbilityDash},
	EnemyHealer:    {AbilityHeal},
	EnemyBomber:    {AbilityDetonate},
	EnemyRanged:    {AbilityShoot},
	EnemyLaser:     {AbilityBeam},
	EnemyMortar:    {AbilityMortar},
	EnemySummoner:  {AbilitySummon},
	EnemyAssassin:  {AbilityBlink},
	EnemyBoss:      {AbilitySummon, AbilityShockwave},
	EnemyMegaBoss:  {AbilityDash, AbilitySummon, AbilityShockwave},
}

// Balance все таблицы баланса одного забега
type Balance struct {
	Seed     int64                 `yaml:"seed"`
	Run      RunConfig             `yaml:"run"`
	Arena    ArenaConfig           `yaml:"arena"`
	Player   PlayerConfig          `yaml:"player"`
	Weapon   WeaponConfig          `yaml:"weapon"`
	Pickups  PickupConfig          `yaml:"pickups"`
	Combat   CombatConfig          `yaml:"combat"`
	Waves    WaveConfig            `yaml:"waves"`
	Enemies  map[string]EnemyStats `yaml:"enemies"`
	Upgrades []UpgradeSpec         `yaml:"upgrades"`
	PowerUps PowerUpConfig         `yaml:"powerups"`
}

type RunConfig struct {
	WinMode     string  `yaml:"win_mode"`
	Duration    float64 `yaml:"duration_seconds"`
	MaxDelta    float64 `yaml:"max_delta"`
	ComboWindow float64 `yaml:"combo_window"`
}

type ArenaConfig struct {
	Width       float64 `yaml:"width"`
	Height      float64 `yaml:"height"`
	SpawnMargin float64 `yaml:"spawn_margin"`
}

type PlayerConfig struct {
	MaxHP               float64 `yaml:"max_hp"`
	Radius              float64 `yaml:"radius"`
	Speed               float64 `yaml:"speed"`
	Damage              float64 `yaml:"damage"`
	DamageMultiplier    float64 `yaml:"damage_multiplier"`
	FireRate            float64 `yaml:"fire_rate"`
	ProjectileSpeed     float64 `yaml:"projectile_speed"`
	ProjectileCount     int     `yaml:"projectile_count"`
	SpreadDegrees       float64 `yaml:"spread_degrees"`
	PickupRadius        float64 `yaml:"pickup_radius"`
	CollectRadius       float64 `yaml:"collect_radius"`
	XPToNext            int     `yaml:"xp_to_next"`
	XPGrowth            float64 `yaml:"xp_growth"`
	LevelUpHealFraction float64 `yaml:"level_up_heal_fraction"`
}

type LifetimeConfig struct {
	Basic     float64 `yaml:"basic"`
	Piercing  float64 `yaml:"piercing"`
	Explosive float64 `yaml:"explosive"`
	RapidFire float64 `yaml:"rapid_fire"`
}

type WeaponConfig struct {
	ProjectileRadius    float64        `yaml:"projectile_radius"`
	Lifetimes           LifetimeConfig `yaml:"lifetimes"`
	PierceCount         int            `yaml:"pierce_count"`
	ExplosionRadius     float64        `yaml:"explosion_radius"`
	SplashFactor        float64        `yaml:"splash_factor"`
	RapidFireMultiplier float64        `yaml:"rapid_fire_multiplier"`
}

type PickupConfig struct {
	Radius            float64 `yaml:"radius"`
	XPTiers           []int   `yaml:"xp_tiers"`
	TTL               float64 `yaml:"ttl_seconds"`
	HomingSpeed       float64 `yaml:"homing_speed"`
	PowerUpChance     float64 `yaml:"powerup_chance"`
	BossPowerUpChance float64 `yaml:"boss_powerup_chance"`
	PowerUpTTL        float64 `yaml:"powerup_ttl_seconds"`
}

type CombatConfig struct {
	ContactCooldown       float64 `yaml:"contact_cooldown"`
	HurtDuration          float64 `yaml:"hurt_duration"`
	HurtSpeedFactor       float64 `yaml:"hurt_speed_factor"`
	DashChargeTime        float64 `yaml:"dash_charge_time"`
	DashDuration          float64 `yaml:"dash_duration"`
	EnemyProjectileRadius float64 `yaml:"enemy_projectile_radius"`
	EnemySplashFactor     float64 `yaml:"enemy_splash_factor"`
}

// BossEvent запланированное появление босса в начале волны
type BossEvent struct {
	Wave int    `yaml:"wave"`
	Type string `yaml:"type"`
}

type WaveConfig struct {
	WaveDuration         float64        `yaml:"wave_duration"`
	WaveCount            int            `yaml:"wave_count"`
	BaseInterval         float64        `yaml:"base_interval"`
	IntervalDecay        float64        `yaml:"interval_decay"`
	LevelIntervalDecay   float64        `yaml:"level_interval_decay"`
	IntervalFloor        float64        `yaml:"interval_floor"`
	BatchDivisor         int            `yaml:"batch_divisor"`
	MaxBatch             int            `yaml:"max_batch"`
	MaxEnemies           int            `yaml:"max_enemies"`
	Unlocks              map[string]int `yaml:"unlocks"`
	RecencyBias          float64        `yaml:"recency_bias"`
	ScalePerWave         float64        `yaml:"scale_per_wave"`
	EndlessScalePerWave  float64        `yaml:"endless_scale_per_wave"`
	SpeedScaleShare      float64        `yaml:"speed_scale_share"`
	Bosses               []BossEvent    `yaml:"bosses"`
	BossSuppressesSpawns bool           `yaml:"boss_suppresses_spawns"`
	ClearBonusXP         int            `yaml:"clear_bonus_xp"`
}

// AbilitySpec параметры способности врага; неиспользуемые поля остаются нулевыми
type AbilitySpec struct {
	Cooldown  float64 `yaml:"cooldown"`
	MinRange  float64 `yaml:"min_range"`
	Range     float64 `yaml:"range"`
	Damage    float64 `yaml:"damage"`
	Radius    float64 `yaml:"radius"`
	Speed     float64 `yaml:"speed"`
	Charge    float64 `yaml:"charge"`
	Width     float64 `yaml:"width"`
	Amount    float64 `yaml:"amount"`
	MaxActive int     `yaml:"max_active"`
	Minion    string  `yaml:"minion"`
	Offset    float64 `yaml:"offset"`
	Lifetime  float64 `yaml:"lifetime"`
}

// ZigzagSpec боковое колебание при преследовании
type ZigzagSpec struct {
	Amplitude float64 `yaml:"amplitude"`
	Frequency float64 `yaml:"frequency"`
}

type EnemyStats struct {
	HP            float64                `yaml:"hp"`
	Speed         float64                `yaml:"speed"`
	Radius        float64                `yaml:"radius"`
	ContactDamage float64                `yaml:"contact_damage"`
	XP            int                    `yaml:"xp"`
	Staggerable   bool                   `yaml:"staggerable"`
	HoldDistance  float64                `yaml:"hold_distance"`
	Zigzag        ZigzagSpec             `yaml:"zigzag"`
	Abilities     map[string]AbilitySpec `yaml:"abilities"`
}

// Ability возвращает параметры способности и признак её наличия
func (e EnemyStats) Ability(name string) (AbilitySpec, bool) {
	a, ok := e.Abilities[name]
	return a, ok
}

// Операции улучшений
const (
	OpAdd      = "add"
	OpMul      = "mul"
	OpFlag     = "flag"
	OpHeal     = "heal"
	OpHealFull = "heal_full"
	OpMaxHP    = "max_hp"
)

// Характеристики игрока, доступные улучшениям
const (
	StatDamage           = "damage"
	StatDamageMultiplier = "damage_multiplier"
	StatFireRate         = "fire_rate"
	StatMoveSpeed        = "move_speed"
	StatProjectileSpeed  = "projectile_speed"
	StatProjectileCount  = "projectile_count"
	StatPickupRadius     = "pickup_radius"
	StatMaxHP            = "max_hp"
	StatHP               = "hp"
	StatPiercing         = "piercing"
	StatExplosive        = "explosive"
	StatRapidFire        = "rapid_fire"
)

// UpgradeSpec строка каталога улучшений
type UpgradeSpec struct {
	ID              string  `yaml:"id"`
	Description     string  `yaml:"description"`
	Stat            string  `yaml:"stat"`
	Op              string  `yaml:"op"`
	Value           float64 `yaml:"value"`
	Cap             float64 `yaml:"cap"`
	RequiresDamaged bool    `yaml:"requires_damaged"`
}

// Unconditional true, если улучшение доступно в любом состоянии игрока
func (u UpgradeSpec) Unconditional() bool {
	return u.Cap == 0 && !u.RequiresDamaged && u.Op != OpFlag
}

// Виды бонусов
const (
	PowerUpSpeed         = "speed_boost"
	PowerUpDamage        = "damage_boost"
	PowerUpRapidFire     = "rapid_fire"
	PowerUpShield        = "shield"
	PowerUpHeal          = "heal"
	PowerUpInvincibility = "invincibility"
)

type PowerUpSpec struct {
	Duration  float64 `yaml:"duration"`
	Magnitude float64 `yaml:"magnitude"`
	Weight    float64 `yaml:"weight"`
}

type PowerUpConfig struct {
	Kinds map[string]PowerUpSpec `yaml:"kinds"`
}

// LoadBalance читает YAML поверх таблиц по умолчанию.
// Если path == "", пробует ENV HORDE_BALANCE, иначе возвращает DefaultBalance.
func LoadBalance(path string) (*Balance, error) {
	b := DefaultBalance()
	if path == "" {
		path = os.Getenv("HORDE_BALANCE")
		if path == "" {
			return b, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("чтение баланса %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, b); err != nil {
		return nil, fmt.Errorf("%w: разбор %s: %v", ErrInvalidConfiguration, path, err)
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return b, nil
}

// Clone возвращает глубокую копию таблиц
func (b *Balance) Clone() *Balance {
	c := *b
	c.Enemies = make(map[string]EnemyStats, len(b.Enemies))
	for k, v := range b.Enemies {
		abilities := make(map[string]AbilitySpec, len(v.Abilities))
		for an, a := range v.Abilities {
			abilities[an] = a
		}
		v.Abilities = abilities
		c.Enemies[k] = v
	}
	c.Upgrades = append([]UpgradeSpec(nil), b.Upgrades...)
	c.Pickups.XPTiers = append([]int(nil), b.Pickups.XPTiers...)
	c.Waves.Unlocks = make(map[string]int, len(b.Waves.Unlocks))
	for k, v := range b.Waves.Unlocks {
		c.Waves.Unlocks[k] = v
	}
	c.Waves.Bosses = append([]BossEvent(nil), b.Waves.Bosses...)
	c.PowerUps.Kinds = make(map[string]PowerUpSpec, len(b.PowerUps.Kinds))
	for k, v := range b.PowerUps.Kinds {
		c.PowerUps.Kinds[k] = v
	}
	return &c
}
