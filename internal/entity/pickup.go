package entity

import "github.com/annel0/horde-survival/internal/vec"

// Pickup выпавший предмет: сфера опыта или бонус
type Pickup struct {
	ID      ID
	Kind    PickupKind
	Pos     vec.Vec2
	Radius  float64
	XP      int
	PowerUp string
	TTL     float64

	Magnetized bool
	Dead       bool
}

// XPTier возвращает номинал сферы: наибольший уровень, не превышающий награду,
// но не меньше младшего уровня
func XPTier(tiers []int, reward int) int {
	if len(tiers) == 0 {
		return reward
	}
	value := tiers[0]
	for _, t := range tiers {
		if t <= reward {
			value = t
		}
	}
	return value
}
