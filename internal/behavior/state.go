package behavior

import (
	"github.com/annel0/horde-survival/internal/entity"
)

// setState переводит врага в новое состояние с таймером состояния
func setState(e *entity.Enemy, s entity.BehaviorState, timer float64) {
	e.State = s
	e.StateTimer = timer
}

// Hurt переводит врага в короткое состояние оглушения.
// Кулдауны способностей продолжают идти; по окончании враг вернётся в прежнее
// состояние с сохранённым таймером. Возвращает true если переход случился.
func (en *Engine) Hurt(e *entity.Enemy) bool {
	if !e.Alive() || e.State == entity.Hurt {
		return false
	}
	stats, ok := en.balance.Enemies[e.Type.String()]
	if !ok || !stats.Staggerable || en.balance.Combat.HurtDuration <= 0 {
		return false
	}

	resume := e.State
	if resume == entity.Idle {
		resume = entity.Chasing
	}
	e.ResumeState = resume
	e.ResumeStateTimer = e.StateTimer
	setState(e, entity.Hurt, en.balance.Combat.HurtDuration)
	return true
}

// BeginDying переводит врага в Dying. HP обнуляется: мёртвый враг всегда имеет HP = 0.
func (en *Engine) BeginDying(e *entity.Enemy) {
	if e.State == entity.Dying || e.State == entity.Dead {
		return
	}
	e.HP = 0
	setState(e, entity.Dying, 0)
}

// FinishDying завершает смерть; после этого враг удаляется из пула
func (en *Engine) FinishDying(e *entity.Enemy) {
	if e.State != entity.Dying {
		return
	}
	setState(e, entity.Dead, 0)
}

func (en *Engine) recoverFromHurt(e *entity.Enemy) {
	setState(e, e.ResumeState, e.ResumeStateTimer)
	e.ResumeState = entity.Idle
	e.ResumeStateTimer = 0
}
