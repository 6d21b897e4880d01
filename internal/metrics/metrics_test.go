package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/horde-survival/internal/config"
	"github.com/annel0/horde-survival/internal/sim"
)

func TestSimMetrics_ObserveTick(t *testing.T) {
	reg := prometheus.NewRegistry()
	sm := NewSimMetrics(reg)

	snap := &sim.Snapshot{
		Tick:    10,
		Elapsed: 12.5,
		Phase:   sim.PhaseLevelUp,
		Wave:    1,
		Player:  sim.PlayerView{HP: 70, Level: 3},
		Entities: []sim.EntityView{
			{Category: sim.CategoryPlayer},
			{Category: sim.CategoryEnemy},
			{Category: sim.CategoryEnemy},
			{Category: sim.CategoryProjectile},
			{Category: sim.CategoryPickup},
		},
		Events: []sim.Event{{Type: sim.EventSpawn}, {Type: sim.EventSpawn}, {Type: sim.EventDeath}},
	}
	sm.ObserveTick(snap, 300*time.Microsecond)
	sm.ObserveTick(&sim.Snapshot{Phase: sim.PhaseRunning}, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(sm.ticks))
	assert.Equal(t, 2.0, testutil.ToFloat64(sm.events.WithLabelValues("spawn")))
	assert.Equal(t, 1.0, testutil.ToFloat64(sm.events.WithLabelValues("death")))
	assert.Equal(t, 1.0, testutil.ToFloat64(sm.phase.WithLabelValues(sim.PhaseRunning.String())))
	assert.Equal(t, 0.0, testutil.ToFloat64(sm.phase.WithLabelValues(sim.PhaseLevelUp.String())), "прошлая фаза сбрасывается")
	assert.Equal(t, 0.0, testutil.ToFloat64(sm.enemies))
}

func TestSimMetrics_CountsCategories(t *testing.T) {
	sm := NewSimMetrics(prometheus.NewRegistry())
	sm.ObserveTick(&sim.Snapshot{Entities: []sim.EntityView{
		{Category: sim.CategoryEnemy},
		{Category: sim.CategoryEnemy},
		{Category: sim.CategoryPickup},
	}}, 0)
	assert.Equal(t, 2.0, testutil.ToFloat64(sm.enemies))
	assert.Equal(t, 1.0, testutil.ToFloat64(sm.pickups))
	assert.Equal(t, 0.0, testutil.ToFloat64(sm.projectiles))
}

func TestSimMetrics_ObservesRealRun(t *testing.T) {
	reg := prometheus.NewRegistry()
	sm := NewSimMetrics(reg)
	s, err := sim.New(config.DefaultBalance(), sim.WithSeed(1), sim.WithObserver(sm))
	require.NoError(t, err)

	for i := 0; i < 120; i++ {
		s.Tick(sim.Input{DeltaTime: 1.0 / 60})
	}
	assert.Equal(t, 120.0, testutil.ToFloat64(sm.ticks))
	assert.InDelta(t, 2.0, testutil.ToFloat64(sm.elapsed), 1e-6)
}

func TestProcessMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	pm, err := NewProcessMetrics(reg)
	require.NoError(t, err)

	assert.Positive(t, pm.MemoryUsage())
	assert.NotEmpty(t, pm.Uptime())

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "horde_process_heap_alloc_mb")
}
