package entity

import (
	"fmt"
	"sort"
)

// Manager управляет пулами сущностей одного забега.
// Симуляция однопоточная, поэтому блокировок нет.
type Manager struct {
	ids         IDAllocator
	player      *Player
	enemies     map[ID]*Enemy
	projectiles map[ID]*Projectile
	pickups     map[ID]*Pickup
}

// Counts число живых сущностей по пулам
type Counts struct {
	Enemies     int
	Projectiles int
	Pickups     int
}

// NewManager создаёт пустой менеджер
func NewManager() *Manager {
	return &Manager{
		enemies:     make(map[ID]*Enemy),
		projectiles: make(map[ID]*Projectile),
		pickups:     make(map[ID]*Pickup),
	}
}

// SetPlayer регистрирует игрока и выдаёт ему ID
func (m *Manager) SetPlayer(p *Player) ID {
	p.ID = m.ids.Next()
	m.player = p
	return p.ID
}

// Player возвращает игрока
func (m *Manager) Player() *Player {
	return m.player
}

// SpawnEnemy добавляет врага в пул
func (m *Manager) SpawnEnemy(e *Enemy) ID {
	e.ID = m.ids.Next()
	m.enemies[e.ID] = e
	return e.ID
}

// SpawnProjectile добавляет снаряд в пул
func (m *Manager) SpawnProjectile(p *Projectile) ID {
	p.ID = m.ids.Next()
	m.projectiles[p.ID] = p
	return p.ID
}

// SpawnPickup добавляет предмет в пул
func (m *Manager) SpawnPickup(p *Pickup) ID {
	p.ID = m.ids.Next()
	m.pickups[p.ID] = p
	return p.ID
}

// Enemy возвращает врага по ID
func (m *Manager) Enemy(id ID) (*Enemy, error) {
	e, ok := m.enemies[id]
	if !ok {
		return nil, fmt.Errorf("enemy %d: %w", id, ErrEntityNotFound)
	}
	return e, nil
}

// Projectile возвращает снаряд по ID
func (m *Manager) Projectile(id ID) (*Projectile, error) {
	p, ok := m.projectiles[id]
	if !ok {
		return nil, fmt.Errorf("projectile %d: %w", id, ErrEntityNotFound)
	}
	return p, nil
}

// Pickup возвращает предмет по ID
func (m *Manager) Pickup(id ID) (*Pickup, error) {
	p, ok := m.pickups[id]
	if !ok {
		return nil, fmt.Errorf("pickup %d: %w", id, ErrEntityNotFound)
	}
	return p, nil
}

// Enemies возвращает врагов по возрастанию ID (включая Dying)
func (m *Manager) Enemies() []*Enemy {
	out := make([]*Enemy, 0, len(m.enemies))
	for _, e := range m.enemies {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Projectiles возвращает снаряды по возрастанию ID
func (m *Manager) Projectiles() []*Projectile {
	out := make([]*Projectile, 0, len(m.projectiles))
	for _, p := range m.projectiles {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Pickups возвращает предметы по возрастанию ID
func (m *Manager) Pickups() []*Pickup {
	out := make([]*Pickup, 0, len(m.pickups))
	for _, p := range m.pickups {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// LiveEnemies число врагов, ещё не перешедших в Dying/Dead
func (m *Manager) LiveEnemies() int {
	n := 0
	for _, e := range m.enemies {
		if e.Alive() {
			n++
		}
	}
	return n
}

// BossAlive true если на арене есть живой босс
func (m *Manager) BossAlive() bool {
	for _, e := range m.enemies {
		if e.Type.IsBoss() && e.Alive() {
			return true
		}
	}
	return false
}

// SummonsOf число живых приспешников призывателя
func (m *Manager) SummonsOf(owner ID) int {
	n := 0
	for _, e := range m.enemies {
		if e.SummonedBy == owner && e.Alive() {
			n++
		}
	}
	return n
}

// Prune удаляет мёртвых врагов, отработавшие снаряды и исчезнувшие предметы
func (m *Manager) Prune() Counts {
	var removed Counts
	for id, e := range m.enemies {
		if e.State == Dead {
			delete(m.enemies, id)
			removed.Enemies++
		}
	}
	for id, p := range m.projectiles {
		if p.Dead {
			delete(m.projectiles, id)
			removed.Projectiles++
		}
	}
	for id, p := range m.pickups {
		if p.Dead {
			delete(m.pickups, id)
			removed.Pickups++
		}
	}
	return removed
}

// Counts текущие размеры пулов
func (m *Manager) Counts() Counts {
	return Counts{
		Enemies:     len(m.enemies),
		Projectiles: len(m.projectiles),
		Pickups:     len(m.pickups),
	}
}
