package sim

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/horde-survival/internal/config"
	"github.com/annel0/horde-survival/internal/entity"
	"github.com/annel0/horde-survival/internal/progression"
	"github.com/annel0/horde-survival/internal/vec"
)

const frame = 1.0 / 60

func newTestSim(t *testing.T, mutate func(b *config.Balance), opts ...Option) *Simulation {
	t.Helper()
	b := config.DefaultBalance()
	if mutate != nil {
		mutate(b)
	}
	opts = append([]Option{WithSeed(42)}, opts...)
	s, err := New(b, opts...)
	require.NoError(t, err)
	return s
}

// quiet симуляция без волн: сценарии расставляют сущности сами
func quiet(t *testing.T, mutate func(b *config.Balance), opts ...Option) *Simulation {
	s := newTestSim(t, mutate, opts...)
	s.waves.Stop()
	return s
}

func idle() Input {
	return Input{DeltaTime: frame}
}

func TestNew_RejectsInvalidBalance(t *testing.T) {
	b := config.DefaultBalance()
	b.Player.MaxHP = 0
	_, err := New(b)
	assert.ErrorIs(t, err, config.ErrInvalidConfiguration)

	_, err = New(nil)
	assert.ErrorIs(t, err, config.ErrInvalidConfiguration)
}

func TestNew_AssignsRunID(t *testing.T) {
	a := newTestSim(t, nil)
	b := newTestSim(t, nil)
	assert.NotEmpty(t, a.RunID())
	assert.NotEqual(t, a.RunID(), b.RunID())

	c := newTestSim(t, nil, WithRunID("fixed"))
	assert.Equal(t, "fixed", c.RunID())
}

func TestTick_InvalidDeltaIsNoop(t *testing.T) {
	s := newTestSim(t, nil)
	for _, dt := range []float64{0, -1, math.NaN()} {
		snap, err := s.Tick(Input{DeltaTime: dt, Fire: true})
		require.NoError(t, err)
		assert.Zero(t, snap.Tick)
		assert.Zero(t, snap.Elapsed)
		assert.Empty(t, snap.Events)
	}
	assert.Zero(t, s.Stats().Shots, "пустой тик не стреляет")
}

func TestTick_DeltaIsCapped(t *testing.T) {
	s := newTestSim(t, nil)
	snap, err := s.Tick(Input{DeltaTime: 5})
	require.NoError(t, err)
	assert.InDelta(t, 0.1, snap.Elapsed, 1e-12)
	assert.Equal(t, uint64(1), snap.Tick)
}

func TestContactCooldown_ChaserDamagesOnce(t *testing.T) {
	s := quiet(t, func(b *config.Balance) {
		st := b.Enemies[config.EnemyChaser]
		st.ContactDamage = 10
		b.Enemies[config.EnemyChaser] = st
	})
	player := s.entities.Player()
	s.spawnEnemy(entity.Chaser, player.Pos.Add(vec.New(25, 0)), 1, 1, entity.NoID)

	damaged := 0
	for i := 0; i < 3; i++ {
		snap, err := s.Tick(idle())
		require.NoError(t, err)
		damaged += Count(snap.Events, EventPlayerDamaged)
	}
	assert.Equal(t, 90.0, player.HP, "три тика касания дают один удар")
	assert.Equal(t, 1, damaged)
}

func TestContactCooldown_HitsAgainAfterWindow(t *testing.T) {
	s := quiet(t, nil)
	player := s.entities.Player()
	s.spawnEnemy(entity.Chaser, player.Pos.Add(vec.New(25, 0)), 1, 1, entity.NoID)

	for i := 0; i < 70; i++ {
		_, err := s.Tick(idle())
		require.NoError(t, err)
	}
	assert.Equal(t, 84.0, player.HP, "через секунду касание снова ранит")
}

func TestPickup_ExpiresAfterTTLWithoutXP(t *testing.T) {
	s := quiet(t, nil)
	pk := &entity.Pickup{Kind: entity.PickupXP, Pos: vec.New(30, 30), Radius: 6, XP: 10, TTL: 10}
	s.entities.SpawnPickup(pk)

	expiredAt := -1.0
	for i := 0; i < 700 && expiredAt < 0; i++ {
		snap, err := s.Tick(idle())
		require.NoError(t, err)
		assert.Zero(t, Count(snap.Events, EventPickupCollected))
		if Count(snap.Events, EventPickupExpired) > 0 {
			expiredAt = snap.Elapsed
		}
	}
	assert.InDelta(t, 10.0, expiredAt, frame+1e-9, "предмет исчезает через 10 с с точностью до тика")
	assert.Zero(t, s.entities.Player().XP)
	assert.Zero(t, s.Stats().XPCollected)
	_, err := s.entities.Pickup(pk.ID)
	assert.ErrorIs(t, err, entity.ErrEntityNotFound)
}

func TestXPCarryOver_LevelsUpWithThreeChoices(t *testing.T) {
	s := quiet(t, nil)
	player := s.entities.Player()
	player.XP = 95
	player.XPToNext = 100
	s.entities.SpawnPickup(&entity.Pickup{Kind: entity.PickupXP, Pos: player.Pos, Radius: 6, XP: 10, TTL: 10})

	snap, err := s.Tick(idle())
	require.NoError(t, err)
	assert.Equal(t, PhaseLevelUp, snap.Phase)
	assert.Equal(t, 2, player.Level)
	assert.Equal(t, 5, player.XP, "излишек переносится")
	assert.Len(t, snap.Choices, 3)
	require.Equal(t, 1, Count(snap.Events, EventLevelUpStarted))
	for _, ev := range snap.Events {
		if ev.Type == EventLevelUpStarted {
			assert.Len(t, ev.Choices, 3)
		}
	}
}

func TestLevelUp_PausesWorldUntilValidSelection(t *testing.T) {
	s := quiet(t, nil)
	player := s.entities.Player()
	enemy := s.spawnEnemy(entity.Chaser, vec.New(100, 100), 1, 1, entity.NoID)
	player.XP = player.XPToNext - 10
	s.entities.SpawnPickup(&entity.Pickup{Kind: entity.PickupXP, Pos: player.Pos, Radius: 6, XP: 10, TTL: 10})

	snap, err := s.Tick(idle())
	require.NoError(t, err)
	require.Equal(t, PhaseLevelUp, snap.Phase)
	frozenAt := enemy.Pos
	elapsed := snap.Elapsed

	for i := 0; i < 30; i++ {
		snap, err = s.Tick(Input{DeltaTime: frame, Move: vec.New(1, 0), Fire: true})
		require.NoError(t, err)
	}
	assert.Equal(t, frozenAt, enemy.Pos, "враги стоят во время выбора")
	assert.Equal(t, elapsed, snap.Elapsed, "игровое время не идёт")
	assert.Zero(t, s.Stats().Shots)

	snap, err = s.Tick(Input{DeltaTime: frame, Selection: Choose(3)})
	assert.ErrorIs(t, err, progression.ErrOutOfRangeSelection, "неверный индекс возвращается из Tick")
	require.NotNil(t, snap, "снимок есть и при отклонённом выборе")
	assert.Equal(t, PhaseLevelUp, snap.Phase)
	assert.Equal(t, 1, Count(snap.Events, EventSelectionRejected))

	choice := snap.Choices[1].ID
	snap, err = s.Tick(Input{DeltaTime: frame, Selection: Choose(1)})
	require.NoError(t, err)
	assert.Equal(t, PhaseRunning, snap.Phase)
	assert.Equal(t, 1, Count(snap.Events, EventLevelUpApplied))
	assert.Equal(t, []string{choice}, s.Stats().Upgrades)

	_, err = s.Tick(idle())
	require.NoError(t, err)
	assert.NotEqual(t, frozenAt, enemy.Pos, "после выбора мир снова движется")
}

func TestLevelUp_ResolverChoosesSynchronously(t *testing.T) {
	calls := 0
	s := quiet(t, nil, WithUpgradeResolver(func(_ PlayerView, choices []UpgradeChoice) int {
		calls++
		return len(choices) - 1
	}))
	player := s.entities.Player()
	s.entities.SpawnPickup(&entity.Pickup{Kind: entity.PickupXP, Pos: player.Pos, Radius: 6, XP: 130, TTL: 10})

	snap, err := s.Tick(idle())
	require.NoError(t, err)
	assert.Equal(t, PhaseRunning, snap.Phase, "решатель закрывает все уровни за тик")
	assert.Equal(t, 2, calls)
	assert.Equal(t, 2, Count(snap.Events, EventLevelUpApplied))
	assert.Len(t, s.Stats().Upgrades, 2)
}

func TestExplosiveProjectile_DamagesOnlyInsideRadius(t *testing.T) {
	s := quiet(t, nil)
	a := s.spawnEnemy(entity.Chaser, vec.New(300, 300), 1, 1, entity.NoID)
	b := s.spawnEnemy(entity.Chaser, vec.New(330, 300), 1, 1, entity.NoID)
	c := s.spawnEnemy(entity.Chaser, vec.New(300, 330), 1, 1, entity.NoID)
	d := s.spawnEnemy(entity.Chaser, vec.New(400, 300), 1, 1, entity.NoID)
	for _, e := range []*entity.Enemy{a, b, c, d} {
		e.MaxHP, e.HP, e.Speed = 100, 100, 0
	}
	s.entities.SpawnProjectile(&entity.Projectile{
		Owner: s.entities.Player().ID, Faction: entity.FactionPlayer, Kind: entity.Explosive,
		Pos: vec.New(290, 300), Vel: vec.New(600, 0), Radius: 5, Damage: 20, Lifetime: 1,
		PierceRemaining: 1, ExplosionRadius: 50,
	})

	snap, err := s.Tick(idle())
	require.NoError(t, err)
	assert.Equal(t, 80.0, a.HP, "прямое попадание")
	assert.Equal(t, 80.0, b.HP)
	assert.Equal(t, 80.0, c.HP)
	assert.Equal(t, 100.0, d.HP, "вне радиуса урона нет")
	assert.Equal(t, 1, Count(snap.Events, EventExplosion))
}

func TestPiercingProjectile_DamagesNDistinctEnemies(t *testing.T) {
	s := quiet(t, nil)
	var enemies []*entity.Enemy
	for i := 0; i < 5; i++ {
		e := s.spawnEnemy(entity.Chaser, vec.New(300+float64(i)*40, 200), 1, 1, entity.NoID)
		e.MaxHP, e.HP, e.Speed = 100, 100, 0
		enemies = append(enemies, e)
	}
	s.entities.SpawnProjectile(&entity.Projectile{
		Owner: s.entities.Player().ID, Faction: entity.FactionPlayer, Kind: entity.Piercing,
		Pos: vec.New(250, 200), Vel: vec.New(600, 0), Radius: 5, Damage: 10, Lifetime: 3,
		PierceRemaining: 3,
	})

	for i := 0; i < 60; i++ {
		_, err := s.Tick(idle())
		require.NoError(t, err)
	}
	damaged := 0
	for _, e := range enemies {
		if e.HP < 100 {
			damaged++
			assert.Equal(t, 90.0, e.HP, "один враг не получает урон дважды")
		}
	}
	assert.Equal(t, 3, damaged)
}

func TestBomber_SelfDestructDropsNothing(t *testing.T) {
	s := quiet(t, nil)
	player := s.entities.Player()
	bomber := s.spawnEnemy(entity.Bomber, player.Pos.Add(vec.New(40, 0)), 1, 1, entity.NoID)

	snap, err := s.Tick(idle())
	require.NoError(t, err)
	assert.InDelta(t, 87.5, player.HP, 1e-9, "подрыв в 40 из 80: половина урона")
	assert.Equal(t, 1, Count(snap.Events, EventDeath))
	assert.Zero(t, bomber.HP)
	assert.Empty(t, snap.Pickups(), "за самоподрыв опыт не выпадает")
	assert.Zero(t, s.Stats().Kills)
}

func TestKill_DropsXPOrb(t *testing.T) {
	s := quiet(t, func(b *config.Balance) { b.Pickups.PowerUpChance = 0 })
	e := s.spawnEnemy(entity.Chaser, vec.New(300, 200), 1, 1, entity.NoID)
	e.Speed = 0
	s.entities.SpawnProjectile(&entity.Projectile{
		Faction: entity.FactionPlayer, Kind: entity.Basic, Pos: vec.New(295, 200),
		Vel: vec.New(60, 0), Radius: 5, Damage: 100, Lifetime: 1, PierceRemaining: 1,
	})

	snap, err := s.Tick(idle())
	require.NoError(t, err)
	assert.Equal(t, 1, Count(snap.Events, EventDeath))
	require.Len(t, snap.Pickups(), 1)
	assert.Equal(t, "xp", snap.Pickups()[0].Kind)
	assert.Equal(t, 1, s.Stats().Kills)

	views := snap.Enemies()
	require.Len(t, views, 1)
	assert.Equal(t, entity.Dying.String(), views[0].State)
	assert.Zero(t, views[0].HPFraction)

	snap, err = s.Tick(idle())
	require.NoError(t, err)
	assert.Empty(t, snap.Enemies(), "после Dying враг удаляется")
	pk, err := s.entities.Pickup(snap.Pickups()[0].ID)
	require.NoError(t, err)
	assert.Equal(t, 10, pk.XP, "награда 15 округляется вниз до номинала 10")
}

func TestPowerUp_CollectedAndExpires(t *testing.T) {
	s := quiet(t, nil)
	player := s.entities.Player()
	s.entities.SpawnPickup(&entity.Pickup{Kind: entity.PickupPowerUp, Pos: player.Pos, Radius: 6, PowerUp: config.PowerUpDamage, TTL: 15})

	snap, err := s.Tick(idle())
	require.NoError(t, err)
	assert.Equal(t, 1, Count(snap.Events, EventPowerUpActivated))
	assert.InDelta(t, player.Damage*2, snap.Player.Damage, 1e-9)

	expired := false
	for i := 0; i < 13*60 && !expired; i++ {
		snap, err = s.Tick(idle())
		require.NoError(t, err)
		expired = Count(snap.Events, EventPowerUpExpired) > 0
	}
	assert.True(t, expired)
	assert.InDelta(t, player.Damage, snap.Player.Damage, 1e-9)
}

func TestPlayerDeath_IsTerminal(t *testing.T) {
	s := newTestSim(t, func(b *config.Balance) { b.Player.MaxHP = 1 })
	player := s.entities.Player()
	s.spawnEnemy(entity.Chaser, player.Pos.Add(vec.New(10, 0)), 1, 1, entity.NoID)

	snap, err := s.Tick(idle())
	require.NoError(t, err)
	assert.Equal(t, PhaseGameOver, snap.Phase)
	assert.Equal(t, 1, Count(snap.Events, EventPlayerDied))
	assert.Zero(t, player.HP)

	for i := 0; i < 300; i++ {
		snap, err = s.Tick(idle())
		require.NoError(t, err)
		assert.Empty(t, snap.Events, "после гибели ничего не происходит")
	}
	assert.Equal(t, PhaseGameOver, s.Phase())
}

func TestVictory_OnceAtDurationAndNoSpawnsAfter(t *testing.T) {
	s := newTestSim(t, func(b *config.Balance) {
		b.Player.MaxHP = 1e9
		b.Waves.MaxEnemies = 30
	}, WithUpgradeResolver(func(PlayerView, []UpgradeChoice) int { return 0 }))

	victories := 0
	var at float64
	for i := 0; i < 7000 && s.Phase() != PhaseVictory; i++ {
		snap, err := s.Tick(Input{DeltaTime: 0.1})
		require.NoError(t, err)
		if n := Count(snap.Events, EventVictory); n > 0 {
			victories += n
			at = snap.Elapsed
			assert.Zero(t, Count(snap.Events, EventSpawn), "в тике победы никто не появляется")
		}
	}
	require.Equal(t, PhaseVictory, s.Phase())
	assert.Equal(t, 1, victories)
	assert.InDelta(t, 600.0, at, 0.1+1e-6)

	before := s.entities.Counts().Enemies
	for i := 0; i < 200; i++ {
		snap, err := s.Tick(Input{DeltaTime: 0.1})
		require.NoError(t, err)
		assert.Zero(t, Count(snap.Events, EventVictory))
		assert.Zero(t, Count(snap.Events, EventSpawn))
	}
	assert.Equal(t, before, s.entities.Counts().Enemies)
}

func TestWavesMode_VictoryAfterLastWaveCleared(t *testing.T) {
	s := newTestSim(t, func(b *config.Balance) {
		b.Run.WinMode = config.WinModeWaves
		b.Waves.WaveCount = 1
		b.Waves.WaveDuration = 5
		b.Waves.Bosses = nil
	})
	for i := 0; i < 100; i++ {
		_, err := s.Tick(Input{DeltaTime: 0.1})
		require.NoError(t, err)
	}
	require.Equal(t, PhaseRunning, s.Phase(), "живые враги ещё на арене")

	for _, e := range s.entities.Enemies() {
		if e.Alive() {
			s.engine.BeginDying(e)
		}
	}
	snap, err := s.Tick(Input{DeltaTime: 0.1})
	require.NoError(t, err)
	assert.Equal(t, PhaseVictory, snap.Phase)
	assert.Equal(t, 1, Count(snap.Events, EventVictory))
}

// nearestEnemy простой прицел для длинных прогонов
func nearestEnemy(snap *Snapshot) (vec.Vec2, bool) {
	best := math.Inf(1)
	var pos vec.Vec2
	for _, e := range snap.Enemies() {
		if d := e.Pos.DistanceTo(snap.Player.Pos); d < best {
			best, pos = d, e.Pos
		}
	}
	return pos, !math.IsInf(best, 1)
}

func TestInvariants_HPClampedAndDeadIffZero(t *testing.T) {
	s := newTestSim(t, func(b *config.Balance) {
		b.Player.MaxHP = 5000
	}, WithUpgradeResolver(func(_ PlayerView, choices []UpgradeChoice) int { return len(choices) / 2 }))
	rng := rand.New(rand.NewSource(3))

	snap := s.Snapshot()
	for i := 0; i < 4000 && !snap.Phase.Terminal(); i++ {
		in := Input{DeltaTime: frame, Fire: true, Move: vec.New(rng.Float64()*2-1, rng.Float64()*2-1)}
		if aim, ok := nearestEnemy(snap); ok {
			in.Aim = aim
		}
		var err error
		snap, err = s.Tick(in)
		require.NoError(t, err)

		assert.GreaterOrEqual(t, snap.Player.HP, 0.0)
		assert.LessOrEqual(t, snap.Player.HP, snap.Player.MaxHP)
		for _, e := range snap.Enemies() {
			require.True(t, e.HPFraction >= 0 && e.HPFraction <= 1, "HP врага %d вне [0, max]", e.ID)
			dead := e.State == entity.Dying.String() || e.State == entity.Dead.String()
			require.Equal(t, e.HPFraction == 0, dead, "враг %d: состояние %s при доле HP %.3f", e.ID, e.State, e.HPFraction)
		}
	}
	assert.Positive(t, s.Stats().Kills)
	assert.Positive(t, s.Stats().Shots)
}

type recordingObserver struct {
	ticks int
	took  time.Duration
}

func (r *recordingObserver) ObserveTick(_ *Snapshot, took time.Duration) {
	r.ticks++
	r.took += took
}

type recordingPublisher struct {
	runID  string
	events int
}

func (r *recordingPublisher) Publish(runID string, events []Event) {
	r.runID = runID
	r.events += len(events)
}

func TestObserverAndPublisher(t *testing.T) {
	obs := &recordingObserver{}
	pub := &recordingPublisher{}
	s := newTestSim(t, nil, WithObserver(obs), WithPublisher(pub))

	total := 0
	for i := 0; i < 120; i++ {
		snap, err := s.Tick(idle())
		require.NoError(t, err)
		total += len(snap.Events)
	}
	assert.Equal(t, 120, obs.ticks)
	assert.Equal(t, s.RunID(), pub.runID)
	assert.Equal(t, total, pub.events)
	assert.Positive(t, total, "за две секунды начинается волна и появляются враги")
}

func TestRunStats_Combo(t *testing.T) {
	var st RunStats
	st.recordKill(1.0, 2, false)
	st.recordKill(2.5, 2, false)
	st.recordKill(4.0, 2, true)
	st.recordKill(9.0, 2, false)
	assert.Equal(t, 4, st.Kills)
	assert.Equal(t, 1, st.BossKills)
	assert.Equal(t, 3, st.MaxCombo)

	st.Shots, st.Hits = 10, 4
	assert.InDelta(t, 0.4, st.Accuracy(), 1e-9)
}

func TestHealer_HealsOnlyAlliesWithinRadius(t *testing.T) {
	s := quiet(t, nil)
	healer := s.spawnEnemy(entity.Healer, vec.New(100, 100), 1, 1, entity.NoID)
	healer.Cooldowns[config.AbilityHeal] = 0
	healer.HP -= 5

	ally := s.spawnEnemy(entity.Chaser, vec.New(140, 100), 1, 1, entity.NoID)
	edge := s.spawnEnemy(entity.Chaser, vec.New(100, 260), 1, 1, entity.NoID)
	for _, e := range []*entity.Enemy{ally, edge} {
		e.Speed = 0
		e.HP -= 10
	}

	snap, err := s.Tick(idle())
	require.NoError(t, err)
	assert.Equal(t, 1, Count(snap.Events, EventHeal))
	assert.Equal(t, 20.0, ally.HP, "союзник в радиусе получает 5 HP")
	assert.Equal(t, 15.0, edge.HP, "центр союзника за радиусом лечения")
	assert.Equal(t, 35.0, healer.HP, "лекарь себя не лечит")
}

func TestWorldView_NearestDamagedAlly(t *testing.T) {
	s := quiet(t, nil)
	self := s.spawnEnemy(entity.Healer, vec.New(0, 0), 1, 1, entity.NoID)
	healthy := s.spawnEnemy(entity.Chaser, vec.New(10, 0), 1, 1, entity.NoID)
	farHurt := s.spawnEnemy(entity.Chaser, vec.New(900, 0), 1, 1, entity.NoID)
	farHurt.HP--
	self.HP--

	w := newWorldView(s.entities, s.entities.Enemies())
	pos, ok := w.NearestDamagedAlly(self)
	require.True(t, ok, "раненый союзник далеко, но найден")
	assert.Equal(t, farHurt.Pos, pos)

	healthy.HP--
	w = newWorldView(s.entities, s.entities.Enemies())
	pos, _ = w.NearestDamagedAlly(self)
	assert.Equal(t, healthy.Pos, pos, "ближайший из раненых")

	_, ok = newWorldView(s.entities, nil).NearestDamagedAlly(self)
	assert.False(t, ok)
}
