package config

// DefaultBalance возвращает встроенные таблицы баланса
func DefaultBalance() *Balance {
	return &Balance{
		Seed: 1,
		Run: RunConfig{
			WinMode:     WinModeTime,
			Duration:    600,
			MaxDelta:    0.1,
			ComboWindow: 2.0,
		},
		Arena: ArenaConfig{Width: 1280, Height: 720, SpawnMargin: 50},
		Player: PlayerConfig{
			MaxHP:               100,
			Radius:              20,
			Speed:               280,
			Damage:              10,
			DamageMultiplier:    1.0,
			FireRate:            1.0,
			ProjectileSpeed:     650,
			ProjectileCount:     1,
			SpreadDegrees:       30,
			PickupRadius:        80,
			CollectRadius:       20,
			XPToNext:            50,
			XPGrowth:            1.5,
			LevelUpHealFraction: 0.3,
		},
		Weapon: WeaponConfig{
			ProjectileRadius: 5,
			Lifetimes: LifetimeConfig{
				Basic:     2.0,
				Piercing:  3.0,
				Explosive: 1.5,
				RapidFire: 1.0,
			},
			PierceCount:         3,
			ExplosionRadius:     50,
			SplashFactor:        1.0,
			RapidFireMultiplier: 2.0,
		},
		Pickups: PickupConfig{
			Radius:            6,
			XPTiers:           []int{10, 20, 40},
			TTL:               10,
			HomingSpeed:       300,
			PowerUpChance:     0.05,
			BossPowerUpChance: 1.0,
			PowerUpTTL:        15,
		},
		Combat: CombatConfig{
			ContactCooldown:       1.0,
			HurtDuration:          0.15,
			HurtSpeedFactor:       0.5,
			DashChargeTime:        0.8,
			DashDuration:          0.35,
			EnemyProjectileRadius: 6,
			EnemySplashFactor:     1.0,
		},
		Waves: WaveConfig{
			WaveDuration:       30,
			WaveCount:          20,
			BaseInterval:       2.0,
			IntervalDecay:      0.005,
			LevelIntervalDecay: 0.02,
			IntervalFloor:      0.4,
			BatchDivisor:       5,
			MaxBatch:           4,
			MaxEnemies:         150,
			Unlocks: map[string]int{
				EnemyChaser:    1,
				EnemyFastMelee: 2,
				EnemyTank:      3,
				EnemyRanged:    4,
				EnemyHealer:    6,
				EnemyBomber:    7,
				EnemyLaser:     9,
				EnemyMortar:    12,
				EnemySummoner:  14,
				EnemyAssassin:  16,
			},
			RecencyBias:         0.15,
			ScalePerWave:        0.05,
			EndlessScalePerWave: 0.1,
			SpeedScaleShare:     0.2,
			Bosses: []BossEvent{
				{Wave: 5, Type: EnemyBoss},
				{Wave: 10, Type: EnemyMegaBoss},
				{Wave: 15, Type: EnemyBoss},
				{Wave: 20, Type: EnemyMegaBoss},
			},
			BossSuppressesSpawns: true,
			ClearBonusXP:         25,
		},
		Enemies:  defaultEnemies(),
		Upgrades: defaultUpgrades(),
		PowerUps: PowerUpConfig{Kinds: map[string]PowerUpSpec{
			PowerUpSpeed:         {Duration: 10, Magnitude: 1.5, Weight: 2},
			PowerUpDamage:        {Duration: 12, Magnitude: 2.0, Weight: 2},
			PowerUpRapidFire:     {Duration: 8, Magnitude: 2.0, Weight: 2},
			PowerUpShield:        {Duration: 15, Magnitude: 0.5, Weight: 1.5},
			PowerUpHeal:          {Magnitude: 50, Weight: 2},
			PowerUpInvincibility: {Duration: 5, Weight: 0.5},
		}},
	}
}

func defaultEnemies() map[string]EnemyStats {
	return map[string]EnemyStats{
		EnemyChaser: {HP: 25, Speed: 100, Radius: 15, ContactDamage: 8, XP: 15, Staggerable: true},
		EnemyTank: {HP: 80, Speed: 70, Radius: 22, ContactDamage: 15, XP: 25,
			Abilities: map[string]AbilitySpec{
				AbilityStomp: {Cooldown: 6, Range: 100, Radius: 100, Damage: 10},
			}},
		EnemyFastMelee: {HP: 20, Speed: 200, Radius: 10, ContactDamage: 15, XP: 20, Staggerable: true,
			Zigzag: ZigzagSpec{Amplitude: 30, Frequency: 5},
			Abilities: map[string]AbilitySpec{
				AbilityDash: {Cooldown: 4, MinRange: 150, Range: 300, Speed: 2.5},
			}},
		EnemyHealer: {HP: 40, Speed: 80, Radius: 12, ContactDamage: 8, XP: 20, Staggerable: true,
			Abilities: map[string]AbilitySpec{
				AbilityHeal: {Cooldown: 3, Range: 150, Amount: 5},
			}},
		EnemyBomber: {HP: 35, Speed: 100, Radius: 11, ContactDamage: 20, XP: 18, Staggerable: true,
			Abilities: map[string]AbilitySpec{
				AbilityDetonate: {Range: 50, Radius: 80, Damage: 25},
			}},
		EnemyRanged: {HP: 30, Speed: 60, Radius: 9, ContactDamage: 10, XP: 25, Staggerable: true, HoldDistance: 400,
			Abilities: map[string]AbilitySpec{
				AbilityShoot: {Cooldown: 2, Range: 400, Damage: 15, Speed: 300, Lifetime: 3},
			}},
		EnemyLaser: {HP: 40, Speed: 40, Radius: 10, ContactDamage: 15, XP: 35, Staggerable: true, HoldDistance: 600,
			Abilities: map[string]AbilitySpec{
				AbilityBeam: {Cooldown: 4, Range: 600, Charge: 1.5, Width: 20, Damage: 35},
			}},
		EnemyMortar: {HP: 45, Speed: 30, Radius: 12, ContactDamage: 20, XP: 40, Staggerable: true, HoldDistance: 500,
			Abilities: map[string]AbilitySpec{
				AbilityMortar: {Cooldown: 3.5, Range: 500, Speed: 200, Radius: 60, Damage: 40},
			}},
		EnemySummoner: {HP: 60, Speed: 50, Radius: 14, ContactDamage: 15, XP: 50, Staggerable: true, HoldDistance: 250,
			Abilities: map[string]AbilitySpec{
				AbilitySummon: {Cooldown: 8, Range: 300, MaxActive: 3, Minion: EnemyChaser, Offset: 50},
			}},
		EnemyAssassin: {HP: 35, Speed: 180, Radius: 8, ContactDamage: 40, XP: 45, Staggerable: true,
			Abilities: map[string]AbilitySpec{
				AbilityBlink: {Cooldown: 10, MinRange: 200, Range: 400, Offset: 100, Amount: 2},
			}},
		EnemyBoss: {HP: 500, Speed: 40, Radius: 40, ContactDamage: 50, XP: 100,
			Abilities: map[string]AbilitySpec{
				AbilitySummon:    {Cooldown: 12, Range: 300, MaxActive: 4, Minion: EnemyChaser, Offset: 70},
				AbilityShockwave: {Cooldown: 15, Range: 200, Radius: 200, Damage: 20},
			}},
		EnemyMegaBoss: {HP: 1500, Speed: 50, Radius: 30, ContactDamage: 25, XP: 200,
			Abilities: map[string]AbilitySpec{
				AbilityDash:      {Cooldown: 8, MinRange: 200, Range: 500, Speed: 12},
				AbilitySummon:    {Cooldown: 15, Range: 400, MaxActive: 6, Minion: EnemyFastMelee, Offset: 60},
				AbilityShockwave: {Cooldown: 18, Range: 300, Radius: 300, Damage: 25},
			}},
	}
}

func defaultUpgrades() []UpgradeSpec {
	return []UpgradeSpec{
		{ID: "damage_5", Description: "Урон +5", Stat: StatDamage, Op: OpAdd, Value: 5},
		{ID: "damage_10", Description: "Урон +10", Stat: StatDamage, Op: OpAdd, Value: 10},
		{ID: "damage_pct_20", Description: "Урон +20%", Stat: StatDamage, Op: OpMul, Value: 0.2},
		{ID: "fire_rate_05", Description: "Скорострельность +0.5", Stat: StatFireRate, Op: OpAdd, Value: 0.5},
		{ID: "fire_rate_x2", Description: "Скорострельность x2", Stat: StatFireRate, Op: OpMul, Value: 1.0},
		{ID: "speed_30", Description: "Скорость +30", Stat: StatMoveSpeed, Op: OpAdd, Value: 30},
		{ID: "speed_pct_20", Description: "Скорость +20%", Stat: StatMoveSpeed, Op: OpMul, Value: 0.2},
		{ID: "projectile_1", Description: "+1 снаряд", Stat: StatProjectileCount, Op: OpAdd, Value: 1, Cap: 8},
		{ID: "projectile_2", Description: "+2 снаряда", Stat: StatProjectileCount, Op: OpAdd, Value: 2, Cap: 7},
		{ID: "projectile_speed_100", Description: "Скорость снарядов +100", Stat: StatProjectileSpeed, Op: OpAdd, Value: 100},
		{ID: "pickup_20", Description: "Радиус сбора +20", Stat: StatPickupRadius, Op: OpAdd, Value: 20},
		{ID: "pickup_pct_50", Description: "Радиус сбора +50%", Stat: StatPickupRadius, Op: OpMul, Value: 0.5},
		{ID: "heal_50", Description: "Лечение 50", Stat: StatHP, Op: OpHeal, Value: 50, RequiresDamaged: true},
		{ID: "heal_full", Description: "Полное лечение", Stat: StatHP, Op: OpHealFull, RequiresDamaged: true},
		{ID: "max_hp_20", Description: "Макс. HP +20", Stat: StatMaxHP, Op: OpMaxHP, Value: 20, Cap: 200},
		{ID: "max_hp_50", Description: "Макс. HP +50", Stat: StatMaxHP, Op: OpMaxHP, Value: 50, Cap: 200},
		{ID: "piercing", Description: "Пробивающие снаряды", Stat: StatPiercing, Op: OpFlag},
		{ID: "explosive", Description: "Взрывные снаряды", Stat: StatExplosive, Op: OpFlag},
		{ID: "rapid_fire", Description: "Скорострельное оружие", Stat: StatRapidFire, Op: OpFlag},
		{ID: "enhance_weapon", Description: "Усиление оружия", Stat: StatDamageMultiplier, Op: OpAdd, Value: 0.3},
	}
}
