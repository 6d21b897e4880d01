package behavior

import (
	"github.com/annel0/horde-survival/internal/entity"
	"github.com/annel0/horde-survival/internal/vec"
)

// TriggerKind вид сработавшей способности
type TriggerKind uint8

const (
	TriggerShoot TriggerKind = iota
	TriggerBeam
	TriggerMortar
	TriggerSummon
	TriggerHeal
	TriggerDetonate
	TriggerStomp
	TriggerShockwave
	TriggerBlink
	TriggerCharge
)

func (k TriggerKind) String() string {
	switch k {
	case TriggerShoot:
		return "shoot"
	case TriggerBeam:
		return "beam"
	case TriggerMortar:
		return "mortar"
	case TriggerSummon:
		return "summon"
	case TriggerHeal:
		return "heal"
	case TriggerDetonate:
		return "detonate"
	case TriggerStomp:
		return "stomp"
	case TriggerShockwave:
		return "shockwave"
	case TriggerBlink:
		return "blink"
	case TriggerCharge:
		return "charge"
	}
	return "unknown"
}

// Trigger запрос на эффект способности. Урон уже умножен на множитель волны.
// Исполняет его ядро симуляции: движок только решает, что способность сработала.
type Trigger struct {
	Kind   TriggerKind
	Source entity.ID
	Origin vec.Vec2
	Target vec.Vec2

	Damage   float64
	Radius   float64
	Speed    float64
	Width    float64
	Amount   float64
	Lifetime float64

	Count  int
	Minion string
	Offset float64
}

// Intent результат обновления одного врага за тик
type Intent struct {
	Velocity    vec.Vec2
	Teleport    bool
	TeleportPos vec.Vec2
	Triggers    []Trigger
}

// World то, что движку нужно знать об остальных врагах
type World interface {
	// NearestDamagedAlly позиция ближайшего раненого живого союзника на арене
	NearestDamagedAlly(self *entity.Enemy) (vec.Vec2, bool)
	// SummonsOf число живых приспешников призывателя
	SummonsOf(owner entity.ID) int
}

// Context состояние мира, видимое врагу на текущем тике
type Context struct {
	PlayerPos   vec.Vec2
	PlayerAlive bool
	World       World
}
