package sim

import (
	"github.com/annel0/horde-survival/internal/entity"
	"github.com/annel0/horde-survival/internal/vec"
)

// EventType тип события тика
type EventType uint8

const (
	EventSpawn             EventType = iota // Появление врага
	EventDeath                              // Гибель врага
	EventEnemyDamaged                       // Урон по врагу
	EventExplosion                          // Взрыв (позиция, радиус)
	EventHeal                               // Лечение врага или игрока
	EventLevelUpStarted                     // Новый уровень, три варианта
	EventLevelUpApplied                     // Улучшение выбрано и применено
	EventSelectionRejected                  // Неверный индекс выбора
	EventPickupCollected                    // Предмет подобран
	EventPickupExpired                      // Предмет исчез по таймеру
	EventPlayerDamaged                      // Урон по игроку
	EventPlayerDied                         // Игрок погиб
	EventVictory                            // Победа
	EventWaveStarted                        // Началась волна
	EventWaveCompleted                      // Волна завершена, бонус опыта
	EventAbility                            // Сработала способность врага
	EventPowerUpActivated                   // Бонус активирован
	EventPowerUpExpired                     // Бонус закончился
)

var eventTypeNames = [...]string{
	EventSpawn:             "spawn",
	EventDeath:             "death",
	EventEnemyDamaged:      "enemy_damaged",
	EventExplosion:         "explosion",
	EventHeal:              "heal",
	EventLevelUpStarted:    "level_up_started",
	EventLevelUpApplied:    "level_up_applied",
	EventSelectionRejected: "selection_rejected",
	EventPickupCollected:   "pickup_collected",
	EventPickupExpired:     "pickup_expired",
	EventPlayerDamaged:     "player_damaged",
	EventPlayerDied:        "player_died",
	EventVictory:           "victory_achieved",
	EventWaveStarted:       "wave_started",
	EventWaveCompleted:     "wave_completed",
	EventAbility:           "ability",
	EventPowerUpActivated:  "powerup_activated",
	EventPowerUpExpired:    "powerup_expired",
}

func (t EventType) String() string {
	if int(t) < len(eventTypeNames) {
		return eventTypeNames[t]
	}
	return "unknown"
}

// ParseEventType разбирает имя типа события
func ParseEventType(name string) (EventType, bool) {
	for i, n := range eventTypeNames {
		if n == name {
			return EventType(i), true
		}
	}
	return 0, false
}

// UpgradeChoice описание варианта улучшения для интерфейса
type UpgradeChoice struct {
	ID          string `json:"id"`
	Description string `json:"description"`
}

// Event событие, произошедшее за тик. Заполнены только поля, имеющие смысл для типа.
type Event struct {
	Type    EventType       `json:"-"`
	Tick    uint64          `json:"tick"`
	Time    float64         `json:"time"`
	Entity  entity.ID       `json:"entity,omitempty"`
	Source  entity.ID       `json:"source,omitempty"`
	Kind    string          `json:"kind,omitempty"` // тип врага, способность, бонус или причина урона
	Pos     vec.Vec2        `json:"pos"`
	Target  vec.Vec2        `json:"target"`
	Amount  float64         `json:"amount,omitempty"`
	Radius  float64         `json:"radius,omitempty"`
	XP      int             `json:"xp,omitempty"`
	Level   int             `json:"level,omitempty"`
	Wave    int             `json:"wave,omitempty"`
	Choices []UpgradeChoice `json:"choices,omitempty"`
}

// Count число событий данного типа
func Count(events []Event, t EventType) int {
	n := 0
	for _, e := range events {
		if e.Type == t {
			n++
		}
	}
	return n
}
