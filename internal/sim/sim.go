// Package sim ядро симуляции: один однопоточный тик двигает игрока, волны,
// врагов, снаряды и предметы, разрешает бой и прогресс и публикует снимок.
package sim

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/annel0/horde-survival/internal/behavior"
	"github.com/annel0/horde-survival/internal/clock"
	"github.com/annel0/horde-survival/internal/combat"
	"github.com/annel0/horde-survival/internal/config"
	"github.com/annel0/horde-survival/internal/entity"
	"github.com/annel0/horde-survival/internal/logging"
	"github.com/annel0/horde-survival/internal/physics"
	"github.com/annel0/horde-survival/internal/powerup"
	"github.com/annel0/horde-survival/internal/progression"
	"github.com/annel0/horde-survival/internal/spatial"
	"github.com/annel0/horde-survival/internal/vec"
	"github.com/annel0/horde-survival/internal/wave"
)

const tracerName = "github.com/annel0/horde-survival/internal/sim"

// Погрешность накопления времени при сравнении с длительностью забега
const timeEpsilon = 1e-6

// Input ввод на один тик
type Input struct {
	DeltaTime float64
	Move      vec.Vec2 // каждая ось в [-1, 1]
	Aim       vec.Vec2 // точка прицеливания в мировых координатах
	Fire      bool
	// Индекс выбранного улучшения; читается только во время паузы уровня
	Selection *int
}

// Choose удобный конструктор Input.Selection
func Choose(i int) *int {
	return &i
}

// Simulation ядро забега. Не потокобезопасно: все вызовы из одной горутины.
type Simulation struct {
	balance *config.Balance
	runID   string
	clock   clock.Clock
	rng     *rand.Rand
	arena   physics.Arena

	entities *entity.Manager
	index    *spatial.Index
	engine   *behavior.Engine
	combat   *combat.Resolver
	waves    *wave.Scheduler
	progress *progression.Manager
	buffs    *powerup.Effects

	resolver   UpgradeResolver
	observers  []Observer
	publishers []Publisher
	tracer     trace.Tracer
	logger     *logging.Logger

	tick    uint64
	elapsed float64
	phase   Phase
	stats   RunStats
	events  []Event
	tickErr error
}

// New создаёт забег. Некорректный баланс даёт ошибку, оборачивающую
// config.ErrInvalidConfiguration.
func New(b *config.Balance, opts ...Option) (*Simulation, error) {
	if b == nil {
		return nil, fmt.Errorf("%w: баланс не задан", config.ErrInvalidConfiguration)
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	b = b.Clone()

	engine := behavior.NewEngine(b)
	s := &Simulation{
		balance:  b,
		clock:    clock.New(b.Run.MaxDelta),
		arena:    physics.Arena{Width: b.Arena.Width, Height: b.Arena.Height},
		entities: entity.NewManager(),
		index:    spatial.New(spatial.DefaultCellSize),
		engine:   engine,
		combat:   combat.NewResolver(b, engine),
		progress: progression.NewManager(b),
		buffs:    powerup.NewEffects(b.PowerUps.Kinds),
		logger:   logging.GetSimLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewSource(b.Seed))
	}
	if s.runID == "" {
		s.runID = uuid.NewString()
	}
	if s.tracer == nil {
		s.tracer = otel.Tracer(tracerName)
	}
	s.waves = wave.NewScheduler(b, s.rng, wave.NewPlacement(b.Arena, s.rng.Int63()))

	player := entity.NewPlayer(b.Player, s.arena.Center(), s.buffs)
	s.entities.SetPlayer(player)
	s.stats.LevelReached = player.Level

	s.logger.Info("🎮 Забег %s: режим %s, арена %.0fx%.0f", s.runID, b.Run.WinMode, b.Arena.Width, b.Arena.Height)
	return s, nil
}

// RunID идентификатор забега
func (s *Simulation) RunID() string { return s.runID }

// Phase текущая фаза
func (s *Simulation) Phase() Phase { return s.phase }

// Elapsed игровое время без пауз
func (s *Simulation) Elapsed() float64 { return s.elapsed }

// Stats копия статистики
func (s *Simulation) Stats() RunStats {
	st := s.stats.clone()
	st.LevelReached = s.entities.Player().Level
	return st
}

// Balance таблицы, с которыми идёт забег
func (s *Simulation) Balance() *config.Balance { return s.balance }

// Snapshot текущее состояние без событий
func (s *Simulation) Snapshot() *Snapshot {
	snap := s.snapshot()
	snap.Events = nil
	return snap
}

// Tick продвигает симуляцию на один шаг. Неположительный или NaN шаг ничего не меняет.
// Гибель игрока и победа не ошибки: о них сообщают фаза и события снимка.
func (s *Simulation) Tick(in Input) (*Snapshot, error) {
	s.events = nil
	s.tickErr = nil
	dt, ok := s.clock.Bound(in.DeltaTime)
	if !ok || s.phase.Terminal() {
		return s.snapshot(), nil
	}

	started := time.Now()
	_, span := s.tracer.Start(context.Background(), "sim.Tick")
	defer span.End()
	s.tick++

	switch s.phase {
	case PhaseRunning:
		s.step(in, dt)
	case PhaseLevelUp:
		s.paused(in, dt)
	}

	snap := s.snapshot()
	counts := s.entities.Counts()
	span.SetAttributes(
		attribute.Int64("sim.tick", int64(s.tick)),
		attribute.String("sim.phase", s.phase.String()),
		attribute.Int("sim.enemies", counts.Enemies),
		attribute.Int("sim.projectiles", counts.Projectiles),
		attribute.Int("sim.events", len(snap.Events)),
	)
	if s.tickErr != nil {
		span.RecordError(s.tickErr)
		span.SetStatus(codes.Error, s.tickErr.Error())
	}

	took := time.Since(started)
	for _, o := range s.observers {
		o.ObserveTick(snap, took)
	}
	if len(snap.Events) > 0 {
		for _, p := range s.publishers {
			p.Publish(s.runID, snap.Events)
		}
	}
	return snap, s.tickErr
}

// step обычный тик: игрок, волны, враги, способности, движение, бой, прогресс
func (s *Simulation) step(in Input, dt float64) {
	s.finishDying()
	s.elapsed += dt
	s.stats.Survived = s.elapsed
	if s.checkVictory() {
		return
	}

	res := &combat.Result{}
	s.updatePlayer(in, dt)
	s.spawnWaves(dt)
	triggers := s.updateEnemies(dt)
	s.rebuildIndex()
	s.resolveTriggers(triggers, res)
	s.integrate(dt, res)
	s.combat.Resolve(s.entities, s.index, res, s.elapsed, dt)
	s.expireProjectiles()
	s.applyResult(res)

	player := s.entities.Player()
	switch {
	case !player.Alive():
		s.gameOver()
	case s.progress.Pending() > 0:
		s.beginLevelUp()
	}
	s.entities.Prune()
}

// paused тик во время выбора улучшения: мир стоит, обрабатывается только выбор
func (s *Simulation) paused(in Input, dt float64) {
	s.stats.PausedFor += dt
	if in.Selection != nil {
		// Неверный индекс из ввода возвращается вызывающему из Tick
		if err := s.applySelection(*in.Selection); err != nil {
			s.tickErr = err
			return
		}
	}
	s.autoResolve()
}

func (s *Simulation) checkVictory() bool {
	reached := false
	switch s.balance.Run.WinMode {
	case config.WinModeTime:
		reached = s.elapsed >= s.balance.Run.Duration-timeEpsilon
	case config.WinModeWaves:
		reached = s.waves.Exhausted() && s.entities.LiveEnemies() == 0
	}
	if !reached {
		return false
	}

	player := s.entities.Player()
	s.phase = PhaseVictory
	s.waves.Stop()
	s.emit(Event{Type: EventVictory, Entity: player.ID, Pos: player.Pos, Level: player.Level, Wave: s.waves.CurrentWave()})
	s.logger.Info("🏆 Победа: %.1f с, уровень %d, убито %d", s.elapsed, player.Level, s.stats.Kills)
	return true
}

func (s *Simulation) gameOver() {
	player := s.entities.Player()
	s.phase = PhaseGameOver
	s.waves.Stop()
	s.emit(Event{Type: EventPlayerDied, Entity: player.ID, Pos: player.Pos, Level: player.Level, Wave: s.waves.CurrentWave()})
	s.logger.Info("💀 Игрок погиб на %.1f с (волна %d, уровень %d)", s.elapsed, s.waves.CurrentWave(), player.Level)
}

func (s *Simulation) emit(e Event) {
	e.Tick = s.tick
	e.Time = s.elapsed
	s.events = append(s.events, e)
}

// finishDying переводит убитых на прошлом тике в Dead; Prune их уберёт
func (s *Simulation) finishDying() {
	for _, e := range s.entities.Enemies() {
		if e.State == entity.Dying {
			s.engine.FinishDying(e)
		}
	}
}

func (s *Simulation) rebuildIndex() {
	s.index.Clear()
	for _, e := range s.entities.Enemies() {
		if e.Alive() {
			s.index.Insert(e.ID, e.Pos, e.Radius)
		}
	}
}

func (s *Simulation) spawnWaves(dt float64) {
	player := s.entities.Player()
	st := s.waves.Update(s.elapsed, dt, player.Level, s.entities.LiveEnemies(), s.entities.BossAlive())
	if st.WaveCompleted > 0 {
		s.completeWave(st.WaveCompleted)
	}
	if st.WaveStarted > 0 {
		s.emit(Event{Type: EventWaveStarted, Wave: st.WaveStarted, Amount: s.waves.Multiplier(st.WaveStarted)})
	}
	for _, o := range st.Orders {
		s.spawnEnemy(o.Type, o.Pos, o.Multiplier, o.SpeedMultiplier, entity.NoID)
	}
}

// completeWave бонус опыта за пережитую волну
func (s *Simulation) completeWave(index int) {
	player := s.entities.Player()
	bonus := s.balance.Waves.ClearBonusXP * index
	s.stats.WavesCompleted++
	if bonus > 0 {
		s.stats.XPCollected += bonus
		s.progress.AddXP(player, bonus)
	}
	s.emit(Event{Type: EventWaveCompleted, Wave: index, XP: bonus})
}

func (s *Simulation) spawnEnemy(t entity.EnemyType, pos vec.Vec2, mult, speedMult float64, summoner entity.ID) *entity.Enemy {
	stats, ok := s.balance.Enemies[t.String()]
	if !ok {
		s.logger.Warn("нет таблицы для %s, появление пропущено", t)
		return nil
	}
	e := entity.NewEnemy(t, stats, pos, mult, speedMult)
	e.SummonedBy = summoner
	s.entities.SpawnEnemy(e)
	s.emit(Event{Type: EventSpawn, Entity: e.ID, Source: summoner, Kind: t.String(), Pos: pos, Amount: mult})
	if t.IsBoss() {
		s.logger.Info("👹 %s (ID %d) вышел на арену", t, e.ID)
	}
	return e
}

func (s *Simulation) updateEnemies(dt float64) []behavior.Trigger {
	player := s.entities.Player()
	enemies := s.entities.Enemies()
	ctx := behavior.Context{
		PlayerPos:   player.Pos,
		PlayerAlive: player.Alive(),
		World:       newWorldView(s.entities, enemies),
	}
	var triggers []behavior.Trigger
	for _, e := range enemies {
		if !e.Alive() {
			continue
		}
		intent := s.engine.Update(e, ctx, dt)
		if intent.Teleport {
			e.Pos = s.arena.Clamp(intent.TeleportPos, e.Radius)
		} else {
			e.Pos = e.Pos.Add(intent.Velocity.Mul(dt))
		}
		triggers = append(triggers, intent.Triggers...)
	}
	return triggers
}

// integrate движение снарядов, падение навесных снарядов и таймеры предметов
func (s *Simulation) integrate(dt float64, res *combat.Result) {
	for _, p := range s.entities.Projectiles() {
		if p.Dead {
			continue
		}
		p.Advance(dt)
		if p.Lobbed && p.Lifetime <= 0 {
			s.combat.LandShell(s.entities, res, p)
		}
	}
	for _, pk := range s.entities.Pickups() {
		if pk.Dead {
			continue
		}
		pk.TTL -= dt
		if pk.TTL <= 0 {
			pk.Dead = true
			s.emit(Event{Type: EventPickupExpired, Entity: pk.ID, Pos: pk.Pos, Kind: pk.Kind.String()})
		}
	}
}

// expireProjectiles снаряды с истёкшим временем жизни успевают столкнуться на последнем шаге
func (s *Simulation) expireProjectiles() {
	for _, p := range s.entities.Projectiles() {
		if !p.Dead && p.Lifetime <= 0 {
			p.Dead = true
		}
	}
}

// applyResult превращает итоги боя в события, статистику, опыт и бонусы
func (s *Simulation) applyResult(res *combat.Result) {
	player := s.entities.Player()
	for _, n := range res.Notices {
		switch n.Kind {
		case combat.NoticeEnemyDamaged:
			s.emit(Event{Type: EventEnemyDamaged, Entity: n.Entity, Source: n.Source, Pos: n.Pos, Amount: n.Amount})
		case combat.NoticeEnemyKilled:
			ev := Event{Type: EventDeath, Entity: n.Entity, Source: n.Source, Pos: n.Pos}
			if e, err := s.entities.Enemy(n.Entity); err == nil {
				ev.Kind = e.Type.String()
			}
			s.emit(ev)
		case combat.NoticeExplosion:
			s.emit(Event{Type: EventExplosion, Source: n.Source, Pos: n.Pos, Radius: n.Radius, Amount: n.Amount})
		case combat.NoticePlayerDamaged:
			s.emit(Event{Type: EventPlayerDamaged, Entity: n.Entity, Source: n.Source, Pos: n.Pos, Amount: n.Amount, Kind: n.Cause})
		case combat.NoticePickupCollected:
			s.emit(Event{Type: EventPickupCollected, Entity: n.Entity, Pos: n.Pos, XP: n.XP, Kind: n.PowerUp})
		case combat.NoticeBeam:
			s.emit(Event{Type: EventAbility, Source: n.Source, Kind: behavior.TriggerBeam.String(), Pos: n.Pos, Target: n.Target, Radius: n.Radius})
		}
	}

	for _, id := range res.Killed {
		s.onKill(id)
	}
	s.stats.DamageDealt += res.DamageDealt
	s.stats.DamageTaken += res.DamageTaken
	s.stats.Hits += res.Hits

	if res.XP > 0 && player.Alive() {
		s.stats.XPCollected += res.XP
		s.progress.AddXP(player, res.XP)
	}
	for _, kind := range res.PowerUps {
		s.applyPowerUp(kind)
	}
}

func (s *Simulation) onKill(id entity.ID) {
	e, err := s.entities.Enemy(id)
	if err != nil {
		if errors.Is(err, entity.ErrEntityNotFound) {
			s.logger.Debug("убийство пропущено: %v", err)
		}
		return
	}
	if e.SelfDestructed {
		return
	}
	s.stats.recordKill(s.elapsed, s.balance.Run.ComboWindow, e.Type.IsBoss())
	s.dropLoot(e)
}

// dropLoot сфера опыта и, с некоторой вероятностью, бонус
func (s *Simulation) dropLoot(e *entity.Enemy) {
	cfg := s.balance.Pickups
	s.entities.SpawnPickup(&entity.Pickup{
		Kind:   entity.PickupXP,
		Pos:    e.Pos,
		Radius: cfg.Radius,
		XP:     entity.XPTier(cfg.XPTiers, e.XPReward),
		TTL:    cfg.TTL,
	})

	chance := cfg.PowerUpChance
	if e.Type.IsBoss() {
		chance = cfg.BossPowerUpChance
	}
	if chance <= 0 || s.rng.Float64() >= chance {
		return
	}
	kind := powerup.Pick(s.balance.PowerUps.Kinds, s.rng)
	if kind == "" {
		return
	}
	s.entities.SpawnPickup(&entity.Pickup{
		Kind:    entity.PickupPowerUp,
		Pos:     e.Pos,
		Radius:  cfg.Radius,
		PowerUp: kind,
		TTL:     cfg.PowerUpTTL,
	})
}

func (s *Simulation) applyPowerUp(kind string) {
	player := s.entities.Player()
	instant, err := s.buffs.Apply(kind)
	if err != nil {
		s.logger.Warn("бонус не применён: %v", err)
		return
	}
	s.stats.PowerUps++
	if instant > 0 {
		healed := player.Heal(instant)
		s.emit(Event{Type: EventHeal, Entity: player.ID, Pos: player.Pos, Amount: healed, Kind: kind})
		return
	}
	s.emit(Event{Type: EventPowerUpActivated, Entity: player.ID, Pos: player.Pos, Kind: kind, Amount: s.buffs.Remaining(kind)})
}

func clampAxis(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(-1, math.Min(1, v))
}
