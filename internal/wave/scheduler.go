// Package wave решает, когда и каких врагов выпускать на арену.
package wave

import (
	"math"
	"math/rand"
	"sort"

	"github.com/annel0/horde-survival/internal/config"
	"github.com/annel0/horde-survival/internal/entity"
	"github.com/annel0/horde-survival/internal/logging"
	"github.com/annel0/horde-survival/internal/vec"
)

// SpawnOrder заказ на появление одного врага
type SpawnOrder struct {
	Type            entity.EnemyType
	Pos             vec.Vec2
	Multiplier      float64
	SpeedMultiplier float64
	Boss            bool
	Wave            int
}

// Step итог обновления планировщика за тик
type Step struct {
	Orders []SpawnOrder
	// Номер начавшейся волны, 0 если волна не сменилась
	WaveStarted int
	// Номер завершившейся волны, 0 если ни одна не завершилась
	WaveCompleted int
}

// Scheduler планировщик волн
type Scheduler struct {
	cfg       config.WaveConfig
	mode      string
	placement *Placement
	rng       *rand.Rand
	logger    *logging.Logger

	unlockOrder []entity.EnemyType

	spawnTimer  float64
	currentWave int
	bossesDone  map[int]bool
	stopped     bool
	exhausted   bool
}

// NewScheduler создаёт планировщик
func NewScheduler(b *config.Balance, rng *rand.Rand, placement *Placement) *Scheduler {
	s := &Scheduler{
		cfg:        b.Waves,
		mode:       b.Run.WinMode,
		placement:  placement,
		rng:        rng,
		logger:     logging.GetWaveLogger(),
		bossesDone: make(map[int]bool),
	}

	for name := range b.Waves.Unlocks {
		t, err := entity.ParseEnemyType(name)
		if err != nil {
			continue
		}
		s.unlockOrder = append(s.unlockOrder, t)
	}
	sort.Slice(s.unlockOrder, func(i, j int) bool {
		wi, wj := s.cfg.Unlocks[s.unlockOrder[i].String()], s.cfg.Unlocks[s.unlockOrder[j].String()]
		if wi != wj {
			return wi < wj
		}
		return s.unlockOrder[i] < s.unlockOrder[j]
	})
	return s
}

// WaveIndex номер волны (с 1) для прошедшего времени
func (s *Scheduler) WaveIndex(elapsed float64) int {
	if elapsed < 0 {
		elapsed = 0
	}
	return int(elapsed/s.cfg.WaveDuration) + 1
}

// CurrentWave последняя начавшаяся волна
func (s *Scheduler) CurrentWave() int {
	return s.currentWave
}

// Interval интервал между появлениями: не растёт со временем и уровнем
// и не опускается ниже нижней границы
func (s *Scheduler) Interval(elapsed float64, level int) float64 {
	if level < 1 {
		level = 1
	}
	raw := s.cfg.BaseInterval - s.cfg.IntervalDecay*elapsed - s.cfg.LevelIntervalDecay*float64(level-1)
	return math.Max(s.cfg.IntervalFloor, raw)
}

// Multiplier множитель характеристик для волны; в бесконечном режиме
// продолжает расти после последней волны
func (s *Scheduler) Multiplier(wave int) float64 {
	if wave < 1 {
		wave = 1
	}
	capped := wave
	if capped > s.cfg.WaveCount {
		capped = s.cfg.WaveCount
	}
	m := 1 + s.cfg.ScalePerWave*float64(capped-1)
	if wave > s.cfg.WaveCount {
		m += s.cfg.EndlessScalePerWave * float64(wave-s.cfg.WaveCount)
	}
	return m
}

// SpeedMultiplier скорость растёт лишь на долю прироста множителя
func (s *Scheduler) SpeedMultiplier(mult float64) float64 {
	return 1 + (mult-1)*s.cfg.SpeedScaleShare
}

// tableWave волна, чья таблица типов действует: после последней волны
// используется самая старшая таблица
func (s *Scheduler) tableWave(wave int) int {
	if wave > s.cfg.WaveCount {
		return s.cfg.WaveCount
	}
	return wave
}

// Unlocked типы, доступные в волне, в порядке открытия
func (s *Scheduler) Unlocked(wave int) []entity.EnemyType {
	wave = s.tableWave(wave)
	var out []entity.EnemyType
	for _, t := range s.unlockOrder {
		if s.cfg.Unlocks[t.String()] <= wave {
			out = append(out, t)
		}
	}
	return out
}

// Weights веса выбора для Unlocked(wave): чем позже открыт тип и чем
// старше волна, тем больше его вес
func (s *Scheduler) Weights(wave int) []float64 {
	types := s.Unlocked(wave)
	wave = s.tableWave(wave)
	weights := make([]float64, len(types))
	for i := range types {
		rank := 0.0
		if len(types) > 1 {
			rank = float64(i) / float64(len(types)-1)
		}
		weights[i] = 1 + s.cfg.RecencyBias*float64(wave)*rank
	}
	return weights
}

func (s *Scheduler) pickType(wave int) (entity.EnemyType, bool) {
	types := s.Unlocked(wave)
	if len(types) == 0 {
		return 0, false
	}
	weights := s.Weights(wave)
	total := 0.0
	for _, w := range weights {
		total += w
	}
	r := s.rng.Float64() * total
	for i, w := range weights {
		r -= w
		if r < 0 {
			return types[i], true
		}
	}
	return types[len(types)-1], true
}

// Stop прекращает появления навсегда (победа или гибель игрока)
func (s *Scheduler) Stop() {
	s.stopped = true
}

// Stopped true после Stop
func (s *Scheduler) Stopped() bool {
	return s.stopped
}

// Exhausted true в режиме волн, когда последняя волна отыграна
func (s *Scheduler) Exhausted() bool {
	return s.exhausted
}

// Update продвигает планировщик. live число живых врагов, bossAlive наличие босса.
func (s *Scheduler) Update(elapsed, dt float64, level, live int, bossAlive bool) Step {
	var step Step
	if s.stopped || s.exhausted {
		return step
	}

	wave := s.WaveIndex(elapsed)
	if s.mode == config.WinModeWaves && wave > s.cfg.WaveCount {
		s.exhausted = true
		if s.currentWave > 0 {
			step.WaveCompleted = s.currentWave
		}
		s.logger.Info("🏁 Все %d волн отыграны, новых врагов не будет", s.cfg.WaveCount)
		return step
	}

	if wave != s.currentWave {
		step.WaveCompleted = s.currentWave
		step.WaveStarted = wave
		s.currentWave = wave
		s.logger.Info("🌊 Волна %d (множитель %.2f)", wave, s.Multiplier(wave))
		step.Orders = append(step.Orders, s.bossOrders(elapsed, wave)...)
	}

	mult := s.Multiplier(wave)
	suppressed := s.cfg.BossSuppressesSpawns && (bossAlive || len(step.Orders) > 0)

	s.spawnTimer += dt
	interval := s.Interval(elapsed, level)
	if s.spawnTimer < interval {
		return step
	}
	s.spawnTimer = 0
	if suppressed {
		return step
	}

	batch := 1
	if s.cfg.BatchDivisor > 0 {
		batch += s.tableWave(wave) / s.cfg.BatchDivisor
	}
	if s.cfg.MaxBatch > 0 && batch > s.cfg.MaxBatch {
		batch = s.cfg.MaxBatch
	}
	if free := s.cfg.MaxEnemies - live; batch > free {
		batch = free
	}
	for i := 0; i < batch; i++ {
		t, ok := s.pickType(wave)
		if !ok {
			break
		}
		step.Orders = append(step.Orders, SpawnOrder{
			Type:            t,
			Pos:             s.placement.Next(elapsed),
			Multiplier:      mult,
			SpeedMultiplier: s.SpeedMultiplier(mult),
			Wave:            wave,
		})
	}
	return step
}

// bossOrders боссы, запланированные на начало волны. После последней волны
// расписание повторяется по кругу.
func (s *Scheduler) bossOrders(elapsed float64, wave int) []SpawnOrder {
	if s.bossesDone[wave] {
		return nil
	}
	s.bossesDone[wave] = true

	cycleWave := wave
	if wave > s.cfg.WaveCount {
		cycleWave = (wave-1)%s.cfg.WaveCount + 1
	}
	mult := s.Multiplier(wave)

	var orders []SpawnOrder
	for _, ev := range s.cfg.Bosses {
		if ev.Wave != cycleWave {
			continue
		}
		t, err := entity.ParseEnemyType(ev.Type)
		if err != nil {
			s.logger.Warn("расписание боссов: %v", err)
			continue
		}
		orders = append(orders, SpawnOrder{
			Type:            t,
			Pos:             s.placement.Next(elapsed),
			Multiplier:      mult,
			SpeedMultiplier: s.SpeedMultiplier(mult),
			Boss:            true,
			Wave:            wave,
		})
		s.logger.Info("👹 Босс %s в волне %d", t, wave)
	}
	return orders
}
