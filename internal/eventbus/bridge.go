package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/annel0/horde-survival/internal/logging"
	"github.com/annel0/horde-survival/internal/sim"
)

// SourceSimulation источник событий ядра симуляции
const SourceSimulation = "sim"

// PayloadVersion версия JSON-схемы sim.Event
const PayloadVersion = 1

// Bridge переводит события тика в конверты шины. Реализует sim.Publisher.
type Bridge struct {
	bus    EventBus
	ctx    context.Context
	logger *logging.Logger
}

// NewBridge создаёт мост к шине. При bus == nil события уходят в
// глобальную шину из Init.
func NewBridge(ctx context.Context, bus EventBus) *Bridge {
	if ctx == nil {
		ctx = context.Background()
	}
	return &Bridge{bus: bus, ctx: ctx, logger: logging.GetComponentLogger("eventbus")}
}

// Publish публикует события одного тика
func (b *Bridge) Publish(runID string, events []sim.Event) {
	for i := range events {
		env, err := Wrap(runID, events[i])
		if err != nil {
			b.logger.Warn("событие %s не сериализовано: %v", events[i].Type, err)
			continue
		}
		if err := b.publish(env); err != nil {
			b.logger.Warn("событие %s не опубликовано: %v", env.EventType, err)
			return
		}
	}
}

func (b *Bridge) publish(env *Envelope) error {
	if b.bus != nil {
		return b.bus.Publish(b.ctx, env)
	}
	return Publish(b.ctx, env)
}

// Wrap упаковывает событие симуляции в конверт
func Wrap(runID string, ev sim.Event) (*Envelope, error) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return nil, err
	}
	return &Envelope{
		ID:            uuid.NewString(),
		Timestamp:     time.Now().UTC(),
		Source:        SourceSimulation,
		EventType:     ev.Type.String(),
		Version:       PayloadVersion,
		CorrelationID: runID,
		Priority:      Priority(ev.Type),
		Payload:       payload,
		Metadata: map[string]string{
			"tick": strconv.FormatUint(ev.Tick, 10),
		},
	}, nil
}

// Unwrap достаёт событие из конверта. Тип восстанавливается по EventType.
func Unwrap(env *Envelope) (sim.Event, error) {
	var ev sim.Event
	t, ok := sim.ParseEventType(env.EventType)
	if !ok {
		return ev, fmt.Errorf("неизвестный тип события %q", env.EventType)
	}
	if err := json.Unmarshal(env.Payload, &ev); err != nil {
		return ev, err
	}
	ev.Type = t
	return ev, nil
}

// Priority важность события: исход забега и выбор улучшения не отбрасываются
func Priority(t sim.EventType) int {
	switch t {
	case sim.EventVictory, sim.EventPlayerDied:
		return 9
	case sim.EventLevelUpStarted, sim.EventLevelUpApplied, sim.EventWaveStarted, sim.EventWaveCompleted:
		return 7
	case sim.EventDeath, sim.EventPlayerDamaged, sim.EventPickupCollected:
		return 3
	}
	return 1
}
