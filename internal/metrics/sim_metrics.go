package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/annel0/horde-survival/internal/sim"
)

// SimMetrics экспортирует состояние симуляции в Prometheus. Подключается к
// симуляции как наблюдатель тиков.
type SimMetrics struct {
	tickDuration prometheus.Histogram
	ticks        prometheus.Counter
	elapsed      prometheus.Gauge
	wave         prometheus.Gauge
	enemies      prometheus.Gauge
	projectiles  prometheus.Gauge
	pickups      prometheus.Gauge
	playerHP     prometheus.Gauge
	level        prometheus.Gauge
	kills        prometheus.Gauge
	events       *prometheus.CounterVec
	phase        *prometheus.GaugeVec
}

var _ sim.Observer = (*SimMetrics)(nil)

// NewSimMetrics регистрирует метрики в reg.
func NewSimMetrics(reg prometheus.Registerer) *SimMetrics {
	sm := &SimMetrics{
		tickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "horde",
			Name:      "tick_duration_seconds",
			Help:      "Время расчёта одного тика.",
			Buckets:   []float64{.00005, .0001, .00025, .0005, .001, .0025, .005, .01, .025},
		}),
		ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "horde",
			Name:      "ticks_total",
			Help:      "Обработанные тики.",
		}),
		elapsed: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "horde",
			Name:      "elapsed_seconds",
			Help:      "Игровое время текущего забега.",
		}),
		wave: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "horde",
			Name:      "wave",
			Help:      "Номер текущей волны.",
		}),
		enemies: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "horde",
			Name:      "enemies",
			Help:      "Живые враги.",
		}),
		projectiles: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "horde",
			Name:      "projectiles",
			Help:      "Снаряды в полёте.",
		}),
		pickups: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "horde",
			Name:      "pickups",
			Help:      "Предметы на земле.",
		}),
		playerHP: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "horde",
			Name:      "player_hp",
			Help:      "Здоровье игрока.",
		}),
		level: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "horde",
			Name:      "player_level",
			Help:      "Уровень игрока.",
		}),
		kills: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "horde",
			Name:      "run_kills",
			Help:      "Убийства за текущий забег.",
		}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "horde",
			Name:      "events_total",
			Help:      "События симуляции по типам.",
		}, []string{"type"}),
		phase: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "horde",
			Name:      "phase",
			Help:      "1 для текущей фазы забега.",
		}, []string{"phase"}),
	}
	reg.MustRegister(sm.tickDuration, sm.ticks, sm.elapsed, sm.wave, sm.enemies,
		sm.projectiles, sm.pickups, sm.playerHP, sm.level, sm.kills, sm.events, sm.phase)
	return sm
}

// ObserveTick обновляет метрики по снимку.
func (sm *SimMetrics) ObserveTick(snap *sim.Snapshot, took time.Duration) {
	sm.tickDuration.Observe(took.Seconds())
	sm.ticks.Inc()
	sm.elapsed.Set(snap.Elapsed)
	sm.wave.Set(float64(snap.Wave))
	sm.playerHP.Set(snap.Player.HP)
	sm.level.Set(float64(snap.Player.Level))
	sm.kills.Set(float64(snap.Stats.Kills))

	var enemies, projectiles, pickups int
	for _, e := range snap.Entities {
		switch e.Category {
		case sim.CategoryEnemy:
			enemies++
		case sim.CategoryProjectile:
			projectiles++
		case sim.CategoryPickup:
			pickups++
		}
	}
	sm.enemies.Set(float64(enemies))
	sm.projectiles.Set(float64(projectiles))
	sm.pickups.Set(float64(pickups))

	for _, ev := range snap.Events {
		sm.events.WithLabelValues(ev.Type.String()).Inc()
	}

	for _, p := range []sim.Phase{sim.PhaseRunning, sim.PhaseLevelUp, sim.PhaseGameOver, sim.PhaseVictory} {
		v := 0.0
		if p == snap.Phase {
			v = 1
		}
		sm.phase.WithLabelValues(p.String()).Set(v)
	}
}
