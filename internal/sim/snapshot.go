package sim

import (
	"github.com/annel0/horde-survival/internal/entity"
	"github.com/annel0/horde-survival/internal/vec"
)

// Phase фаза забега
type Phase uint8

const (
	PhaseRunning  Phase = iota // Обычный ход времени
	PhaseLevelUp               // Пауза на выбор улучшения
	PhaseGameOver              // Игрок погиб
	PhaseVictory               // Победа
)

func (p Phase) String() string {
	switch p {
	case PhaseRunning:
		return "running"
	case PhaseLevelUp:
		return "level_up"
	case PhaseGameOver:
		return "game_over"
	case PhaseVictory:
		return "victory"
	}
	return "unknown"
}

// Terminal true для конечных фаз
func (p Phase) Terminal() bool {
	return p == PhaseGameOver || p == PhaseVictory
}

// Категории сущностей в снимке
const (
	CategoryPlayer     = "player"
	CategoryEnemy      = "enemy"
	CategoryProjectile = "projectile"
	CategoryPickup     = "pickup"
)

// EntityView неизменяемое представление сущности для отрисовки
type EntityView struct {
	ID         entity.ID
	Category   string
	Kind       string // тип врага, вид снаряда или предмета
	Pos        vec.Vec2
	Radius     float64
	HPFraction float64
	State      string
	Hostile    bool
}

// PlayerView состояние игрока для интерфейса
type PlayerView struct {
	ID              entity.ID
	Pos             vec.Vec2
	HP              float64
	MaxHP           float64
	Level           int
	XP              int
	XPToNext        int
	Damage          float64
	FireRate        float64
	Speed           float64
	ProjectileCount int
	PickupRadius    float64
	Buffs           map[string]float64
}

// Snapshot состояние мира после тика. Владелец снимка вызывающий код,
// симуляция его больше не меняет.
type Snapshot struct {
	RunID    string
	Tick     uint64
	Elapsed  float64
	Phase    Phase
	Wave     int
	Player   PlayerView
	Entities []EntityView
	Events   []Event
	Choices  []UpgradeChoice
	Stats    RunStats
}

// Enemies представления живых и умирающих врагов
func (s *Snapshot) Enemies() []EntityView {
	return s.filter(CategoryEnemy)
}

// Pickups представления предметов
func (s *Snapshot) Pickups() []EntityView {
	return s.filter(CategoryPickup)
}

// Projectiles представления снарядов
func (s *Snapshot) Projectiles() []EntityView {
	return s.filter(CategoryProjectile)
}

func (s *Snapshot) filter(category string) []EntityView {
	var out []EntityView
	for _, v := range s.Entities {
		if v.Category == category {
			out = append(out, v)
		}
	}
	return out
}
