// Package clock выдаёт ограниченный шаг времени для тиков симуляции.
package clock

import (
	"math"
	"time"
)

// DefaultMaxDelta верхняя граница шага по умолчанию (секунды)
const DefaultMaxDelta = 0.1

// Clock ограничивает сырой шаг времени
type Clock struct {
	MaxDelta float64
}

// New создаёт часы с заданной верхней границей шага
func New(maxDelta float64) Clock {
	if !(maxDelta > 0) {
		maxDelta = DefaultMaxDelta
	}
	return Clock{MaxDelta: maxDelta}
}

// Bound возвращает шаг, ограниченный сверху MaxDelta. Второе значение false
// для неположительного, NaN или бесконечного входа: такой тик ничего не двигает.
func (c Clock) Bound(raw float64) (float64, bool) {
	if math.IsNaN(raw) || raw <= 0 {
		return 0, false
	}
	if raw > c.MaxDelta || math.IsInf(raw, 1) {
		return c.MaxDelta, true
	}
	return raw, true
}

// TimeSource источник сырых шагов времени
type TimeSource interface {
	Next() float64
}

// FixedStep всегда возвращает один и тот же шаг
type FixedStep float64

// Next возвращает фиксированный шаг
func (f FixedStep) Next() float64 {
	return float64(f)
}

// Wall измеряет реальное время между вызовами Next
type Wall struct {
	now  func() time.Time
	last time.Time
}

// NewWall создаёт источник реального времени
func NewWall() *Wall {
	return &Wall{now: time.Now}
}

// Next возвращает секунды с предыдущего вызова (0 при первом вызове)
func (w *Wall) Next() float64 {
	now := w.now()
	if w.last.IsZero() {
		w.last = now
		return 0
	}
	dt := now.Sub(w.last).Seconds()
	w.last = now
	return dt
}
