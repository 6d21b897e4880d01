package entity

import (
	"errors"
	"fmt"

	"github.com/annel0/horde-survival/internal/config"
)

// ErrEntityNotFound сущность уже удалена или никогда не существовала
var ErrEntityNotFound = errors.New("entity not found")

// ID уникальный идентификатор сущности, не переиспользуется в пределах забега
type ID uint64

// NoID нулевой идентификатор, ни одна сущность его не получает
const NoID ID = 0

// IDAllocator выдаёт монотонно растущие ID
type IDAllocator struct {
	next ID
}

// Next возвращает следующий ID (первый равен 1)
func (a *IDAllocator) Next() ID {
	a.next++
	return a.next
}

// EnemyType тип врага
type EnemyType uint8

const (
	Chaser EnemyType = iota
	Tank
	FastMelee
	Healer
	Bomber
	Ranged
	Laser
	Mortar
	Summoner
	Assassin
	Boss
	MegaBoss
)

var enemyTypeNames = [...]string{
	Chaser:    config.EnemyChaser,
	Tank:      config.EnemyTank,
	FastMelee: config.EnemyFastMelee,
	Healer:    config.EnemyHealer,
	Bomber:    config.EnemyBomber,
	Ranged:    config.EnemyRanged,
	Laser:     config.EnemyLaser,
	Mortar:    config.EnemyMortar,
	Summoner:  config.EnemySummoner,
	Assassin:  config.EnemyAssassin,
	Boss:      config.EnemyBoss,
	MegaBoss:  config.EnemyMegaBoss,
}

// String возвращает имя типа из таблиц баланса
func (t EnemyType) String() string {
	if int(t) < len(enemyTypeNames) {
		return enemyTypeNames[t]
	}
	return "unknown"
}

// IsBoss true для боссов
func (t EnemyType) IsBoss() bool {
	return t == Boss || t == MegaBoss
}

// ParseEnemyType разбирает имя типа
func ParseEnemyType(name string) (EnemyType, error) {
	for i, n := range enemyTypeNames {
		if n == name {
			return EnemyType(i), nil
		}
	}
	return 0, fmt.Errorf("неизвестный тип врага %q", name)
}

// AllEnemyTypes все типы в порядке объявления
func AllEnemyTypes() []EnemyType {
	out := make([]EnemyType, len(enemyTypeNames))
	for i := range enemyTypeNames {
		out[i] = EnemyType(i)
	}
	return out
}

// BehaviorState состояние автомата врага
type BehaviorState uint8

const (
	Idle BehaviorState = iota
	Chasing
	Charging
	Attacking
	Hurt
	Dying
	Dead
)

func (s BehaviorState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Chasing:
		return "chasing"
	case Charging:
		return "charging"
	case Attacking:
		return "attacking"
	case Hurt:
		return "hurt"
	case Dying:
		return "dying"
	case Dead:
		return "dead"
	}
	return "unknown"
}

// ProjectileKind вид снаряда
type ProjectileKind uint8

const (
	Basic ProjectileKind = iota
	Piercing
	Explosive
	RapidFire
)

func (k ProjectileKind) String() string {
	switch k {
	case Basic:
		return "basic"
	case Piercing:
		return "piercing"
	case Explosive:
		return "explosive"
	case RapidFire:
		return "rapid_fire"
	}
	return "unknown"
}

// Faction сторона, выпустившая снаряд
type Faction uint8

const (
	FactionPlayer Faction = iota
	FactionHostile
)

// PickupKind вид подбираемого предмета
type PickupKind uint8

const (
	PickupXP PickupKind = iota
	PickupPowerUp
)

func (k PickupKind) String() string {
	if k == PickupPowerUp {
		return "powerup"
	}
	return "xp"
}
