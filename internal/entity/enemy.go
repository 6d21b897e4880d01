package entity

import (
	"github.com/annel0/horde-survival/internal/config"
	"github.com/annel0/horde-survival/internal/vec"
)

// Enemy враг. Характеристики умножены на множитель волны в момент появления
// и дальше не пересчитываются.
type Enemy struct {
	ID     ID
	Type   EnemyType
	Pos    vec.Vec2
	Radius float64

	HP            float64
	MaxHP         float64
	Speed         float64
	ContactDamage float64
	XPReward      int
	Multiplier    float64

	State      BehaviorState
	StateTimer float64

	// Состояние, в которое вернётся враг после Hurt
	ResumeState      BehaviorState
	ResumeStateTimer float64

	Cooldowns map[string]float64
	Age       float64

	// Рывок или заряд луча
	ChargeAbility string
	ChargeTarget  vec.Vec2
	ChargeDir     vec.Vec2

	LastContactAt float64
	HasContacted  bool
	BackstabReady bool

	// Кто призвал этого врага (NoID для обычных)
	SummonedBy ID

	// Самоподрыв: опыт за такую смерть не выпадает
	SelfDestructed bool
}

// NewEnemy создаёт врага из строки таблицы и множителя волны
func NewEnemy(t EnemyType, stats config.EnemyStats, pos vec.Vec2, mult, speedMult float64) *Enemy {
	if mult <= 0 {
		mult = 1
	}
	if speedMult <= 0 {
		speedMult = 1
	}
	e := &Enemy{
		Type:          t,
		Pos:           pos,
		Radius:        stats.Radius,
		HP:            stats.HP * mult,
		MaxHP:         stats.HP * mult,
		Speed:         stats.Speed * speedMult,
		ContactDamage: stats.ContactDamage * mult,
		XPReward:      int(float64(stats.XP) * mult),
		Multiplier:    mult,
		State:         Idle,
		Cooldowns:     make(map[string]float64, len(stats.Abilities)),
	}
	for name, a := range stats.Abilities {
		e.Cooldowns[name] = a.Cooldown
	}
	return e
}

// Alive true пока враг не перешёл в Dying/Dead
func (e *Enemy) Alive() bool {
	return e.HP > 0 && e.State != Dying && e.State != Dead
}

// Damaged true если HP ниже максимума
func (e *Enemy) Damaged() bool {
	return e.HP < e.MaxHP
}

// ApplyDamage снимает HP с ограничением [0, MaxHP].
// Возвращает снятое HP и признак того, что удар оказался смертельным.
func (e *Enemy) ApplyDamage(amount float64) (float64, bool) {
	if amount <= 0 || !e.Alive() {
		return 0, false
	}
	before := e.HP
	e.HP = clamp(e.HP-amount, 0, e.MaxHP)
	return before - e.HP, e.HP == 0
}

// Heal лечит живого врага не выше максимума
func (e *Enemy) Heal(amount float64) float64 {
	if amount <= 0 || !e.Alive() {
		return 0
	}
	before := e.HP
	e.HP = clamp(e.HP+amount, 0, e.MaxHP)
	return e.HP - before
}

// HPFraction доля текущего HP
func (e *Enemy) HPFraction() float64 {
	if e.MaxHP <= 0 {
		return 0
	}
	return e.HP / e.MaxHP
}
