// Package powerup хранит временные бонусы игрока.
package powerup

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/annel0/horde-survival/internal/config"
)

// Effects активные бонусы и их оставшееся время
type Effects struct {
	specs  map[string]config.PowerUpSpec
	active map[string]float64
}

// NewEffects создаёт пустой набор. specs может быть nil, тогда все множители равны 1.
func NewEffects(specs map[string]config.PowerUpSpec) *Effects {
	return &Effects{
		specs:  specs,
		active: make(map[string]float64),
	}
}

// Apply активирует бонус. Мгновенные бонусы (лечение) возвращают величину
// эффекта и не попадают в список активных; повторное получение продлевает таймер.
func (e *Effects) Apply(kind string) (instant float64, err error) {
	spec, ok := e.specs[kind]
	if !ok {
		return 0, fmt.Errorf("неизвестный бонус %q", kind)
	}
	if kind == config.PowerUpHeal || spec.Duration <= 0 {
		return spec.Magnitude, nil
	}
	if spec.Duration > e.active[kind] {
		e.active[kind] = spec.Duration
	}
	return 0, nil
}

// Tick уменьшает таймеры и снимает истёкшие бонусы, возвращает их список
func (e *Effects) Tick(dt float64) []string {
	var expired []string
	for kind, left := range e.active {
		left -= dt
		if left <= 0 {
			delete(e.active, kind)
			expired = append(expired, kind)
			continue
		}
		e.active[kind] = left
	}
	sort.Strings(expired)
	return expired
}

// Active true если бонус действует
func (e *Effects) Active(kind string) bool {
	_, ok := e.active[kind]
	return ok
}

// Remaining оставшееся время бонуса
func (e *Effects) Remaining(kind string) float64 {
	return e.active[kind]
}

// Snapshot копия активных бонусов
func (e *Effects) Snapshot() map[string]float64 {
	out := make(map[string]float64, len(e.active))
	for k, v := range e.active {
		out[k] = v
	}
	return out
}

func (e *Effects) magnitude(kind string, fallback float64) float64 {
	if !e.Active(kind) {
		return 1
	}
	if m := e.specs[kind].Magnitude; m > 0 {
		return m
	}
	return fallback
}

// SpeedFactor множитель скорости передвижения
func (e *Effects) SpeedFactor() float64 { return e.magnitude(config.PowerUpSpeed, 1.5) }

// DamageFactor множитель урона снарядов
func (e *Effects) DamageFactor() float64 { return e.magnitude(config.PowerUpDamage, 2) }

// FireRateFactor множитель скорострельности
func (e *Effects) FireRateFactor() float64 { return e.magnitude(config.PowerUpRapidFire, 2) }

// DamageTakenFactor множитель входящего урона: неуязвимость 0, щит Magnitude
func (e *Effects) DamageTakenFactor() float64 {
	if e.Active(config.PowerUpInvincibility) {
		return 0
	}
	return e.magnitude(config.PowerUpShield, 0.5)
}

// Pick выбирает вид бонуса по весам; пустая строка если выбирать не из чего
func Pick(specs map[string]config.PowerUpSpec, rng *rand.Rand) string {
	kinds := make([]string, 0, len(specs))
	for k, s := range specs {
		if s.Weight > 0 {
			kinds = append(kinds, k)
		}
	}
	if len(kinds) == 0 {
		return ""
	}
	sort.Strings(kinds)
	total := 0.0
	for _, k := range kinds {
		total += specs[k].Weight
	}
	r := rng.Float64() * total
	for _, k := range kinds {
		r -= specs[k].Weight
		if r < 0 {
			return k
		}
	}
	return kinds[len(kinds)-1]
}
