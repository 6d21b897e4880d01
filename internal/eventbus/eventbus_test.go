package eventbus

import (
	"context"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/horde-survival/internal/sim"
	"github.com/annel0/horde-survival/internal/vec"
)

type collector struct {
	mu     sync.Mutex
	events []*Envelope
}

func (c *collector) handle(_ context.Context, ev *Envelope) {
	c.mu.Lock()
	c.events = append(c.events, ev)
	c.mu.Unlock()
}

func (c *collector) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.events)
}

func TestMemoryBus_FilterByType(t *testing.T) {
	bus := NewMemoryBus(16)
	defer bus.Close()

	var all, deaths collector
	_, err := bus.Subscribe(context.Background(), Filter{}, all.handle)
	require.NoError(t, err)
	_, err = bus.Subscribe(context.Background(), Filter{Types: []string{"death"}}, deaths.handle)
	require.NoError(t, err)

	for _, typ := range []string{"spawn", "death", "spawn"} {
		require.NoError(t, bus.Publish(context.Background(), &Envelope{EventType: typ, Source: SourceSimulation}))
	}
	assert.Eventually(t, func() bool { return all.len() == 3 && deaths.len() == 1 }, time.Second, 5*time.Millisecond)
	assert.Eventually(t, func() bool { return bus.Metrics().Consumed == 4 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, uint64(3), bus.Metrics().Published)
}

func TestMemoryBus_FilterByRun(t *testing.T) {
	bus := NewMemoryBus(16)
	defer bus.Close()

	var c collector
	_, err := bus.Subscribe(context.Background(), Filter{Correlations: []string{"run-a"}}, c.handle)
	require.NoError(t, err)
	require.NoError(t, bus.Publish(context.Background(), &Envelope{EventType: "spawn", CorrelationID: "run-b"}))
	require.NoError(t, bus.Publish(context.Background(), &Envelope{EventType: "spawn", CorrelationID: "run-a"}))

	bus.Close()
	assert.Equal(t, 1, c.len(), "после Close все принятые события доставлены")
}

func TestMemoryBus_Unsubscribe(t *testing.T) {
	bus := NewMemoryBus(4)
	defer bus.Close()

	var c collector
	sub, err := bus.Subscribe(context.Background(), Filter{}, c.handle)
	require.NoError(t, err)
	sub.Unsubscribe()

	require.NoError(t, bus.Publish(context.Background(), &Envelope{EventType: "spawn"}))
	bus.Close()
	assert.Zero(t, c.len())
}

func TestMemoryBus_PublishAfterClose(t *testing.T) {
	bus := NewMemoryBus(4)
	bus.Close()
	assert.ErrorIs(t, bus.Publish(context.Background(), &Envelope{}), ErrClosed)
	_, err := bus.Subscribe(context.Background(), Filter{}, func(context.Context, *Envelope) {})
	assert.ErrorIs(t, err, ErrClosed)
}

func TestWrapUnwrap_KeepsEventFields(t *testing.T) {
	ev := sim.Event{Type: sim.EventExplosion, Tick: 12, Time: 0.2, Source: 7, Pos: vec.New(3, 4), Radius: 50, Amount: 20}
	env, err := Wrap("run-1", ev)
	require.NoError(t, err)
	assert.Equal(t, "explosion", env.EventType)
	assert.Equal(t, "run-1", env.CorrelationID)
	assert.Equal(t, "12", env.Metadata["tick"])
	assert.NotEmpty(t, env.ID)

	back, err := Unwrap(env)
	require.NoError(t, err)
	assert.Equal(t, ev, back)

	env.EventType = "nonsense"
	_, err = Unwrap(env)
	assert.Error(t, err)
}

func TestBridge_PublishesSimulationEvents(t *testing.T) {
	bus := NewMemoryBus(1024)
	var c collector
	_, err := bus.Subscribe(context.Background(), Filter{Types: []string{"victory_achieved"}}, c.handle)
	require.NoError(t, err)

	bridge := NewBridge(context.Background(), bus)
	bridge.Publish("run-x", []sim.Event{
		{Type: sim.EventSpawn},
		{Type: sim.EventVictory, Level: 9},
	})
	bus.Close()

	require.Equal(t, 1, c.len())
	assert.Equal(t, 9, c.events[0].Priority)
	ev, err := Unwrap(c.events[0])
	require.NoError(t, err)
	assert.Equal(t, 9, ev.Level)
}

func TestMetricsExporter_Sync(t *testing.T) {
	bus := NewMemoryBus(8)
	defer bus.Close()
	reg := prometheus.NewRegistry()
	me := NewMetricsExporter(bus, reg)

	require.NoError(t, bus.Publish(context.Background(), &Envelope{EventType: "spawn"}))
	require.NoError(t, bus.Publish(context.Background(), &Envelope{EventType: "spawn"}))
	me.Sync()
	me.Sync()
	assert.Equal(t, 2.0, testutil.ToFloat64(me.published), "повторная синхронизация не удваивает счётчик")

	rec := httptest.NewRecorder()
	me.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.True(t, strings.Contains(rec.Body.String(), "eventbus_messages_published_total 2"))

	me.Stop()
}

func TestBridge_FallsBackToGlobalBus(t *testing.T) {
	bus := NewMemoryBus(16)
	Init(bus)
	defer Init(nil)

	c := &collector{}
	_, err := bus.Subscribe(context.Background(), Filter{}, c.handle)
	require.NoError(t, err)

	NewBridge(context.Background(), nil).Publish("run-g", []sim.Event{{Type: sim.EventVictory, Tick: 3}})
	bus.Close()
	assert.Equal(t, 1, c.len())
	assert.Same(t, bus, Default())
}
