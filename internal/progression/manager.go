// Package progression отвечает за опыт, уровни и выбор улучшений.
package progression

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"github.com/annel0/horde-survival/internal/config"
	"github.com/annel0/horde-survival/internal/entity"
	"github.com/annel0/horde-survival/internal/logging"
)

// ChoiceCount сколько улучшений предлагается за уровень
const ChoiceCount = 3

// ErrOutOfRangeSelection индекс выбора вне [0, число вариантов)
var ErrOutOfRangeSelection = errors.New("выбор улучшения вне диапазона")

// ErrNoOffer выбор без открытого предложения
var ErrNoOffer = errors.New("нет ожидающего выбора улучшения")

// Manager копит опыт и ведёт очередь повышений уровня
type Manager struct {
	catalog     []Upgrade
	growth      float64
	healPercent float64

	pending int
	offer   []Upgrade
	chosen  []string

	logger *logging.Logger
}

// NewManager создаёт менеджер прогресса
func NewManager(b *config.Balance) *Manager {
	return &Manager{
		catalog:     Catalog(b.Upgrades),
		growth:      b.Player.XPGrowth,
		healPercent: b.Player.LevelUpHealFraction,
		logger:      logging.GetProgressionLogger(),
	}
}

// AddXP начисляет опыт. Излишек переносится на следующий уровень,
// за одно начисление можно получить несколько уровней. Возвращает число новых уровней.
func (m *Manager) AddXP(p *entity.Player, amount int) int {
	if amount <= 0 {
		return 0
	}
	p.XP += amount
	gained := 0
	for p.XPToNext > 0 && p.XP >= p.XPToNext {
		p.XP -= p.XPToNext
		p.Level++
		next := int(math.Floor(float64(p.XPToNext) * m.growth))
		if next <= p.XPToNext {
			next = p.XPToNext + 1
		}
		p.XPToNext = next
		p.Heal(p.MaxHP * m.healPercent)
		gained++
		m.logger.Info("⭐ Уровень %d (опыт %d/%d)", p.Level, p.XP, p.XPToNext)
	}
	m.pending += gained
	return gained
}

// Pending сколько повышений ждут выбора
func (m *Manager) Pending() int {
	return m.pending
}

// Offering true, если предложение открыто
func (m *Manager) Offering() bool {
	return len(m.offer) > 0
}

// Current текущее предложение
func (m *Manager) Current() []Upgrade {
	return m.offer
}

// Offer открывает предложение для следующего ожидающего уровня: до трёх
// различных подходящих улучшений. Повторный вызов возвращает то же предложение.
func (m *Manager) Offer(p *entity.Player, rng *rand.Rand) []Upgrade {
	if m.pending == 0 {
		return nil
	}
	if len(m.offer) > 0 {
		return m.offer
	}

	var eligible []Upgrade
	for _, u := range m.catalog {
		if u.Eligible(p) {
			eligible = append(eligible, u)
		}
	}
	// частичная перетасовка Фишера-Йетса даёт выборку без повторений
	n := ChoiceCount
	if n > len(eligible) {
		n = len(eligible)
	}
	for i := 0; i < n; i++ {
		j := i + rng.Intn(len(eligible)-i)
		eligible[i], eligible[j] = eligible[j], eligible[i]
	}
	m.offer = append([]Upgrade(nil), eligible[:n]...)
	m.logger.Debug("Предложено %d улучшений, подходящих %d", n, len(eligible))
	return m.offer
}

// Select применяет выбранное улучшение сразу и закрывает предложение.
// При неверном индексе предложение остаётся открытым.
func (m *Manager) Select(p *entity.Player, index int) (Upgrade, error) {
	if len(m.offer) == 0 {
		return Upgrade{}, ErrNoOffer
	}
	if index < 0 || index >= len(m.offer) {
		m.logger.Warn("Отклонён выбор %d, вариантов %d", index, len(m.offer))
		return Upgrade{}, fmt.Errorf("%w: %d не в [0,%d)", ErrOutOfRangeSelection, index, len(m.offer))
	}
	u := m.offer[index]
	if err := u.Apply(p); err != nil {
		return Upgrade{}, err
	}
	m.offer = nil
	m.pending--
	m.chosen = append(m.chosen, u.ID)
	m.logger.Info("🛠 Выбрано улучшение %s", u.ID)
	return u, nil
}

// Chosen история выборов в порядке применения
func (m *Manager) Chosen() []string {
	return append([]string(nil), m.chosen...)
}

// Find ищет улучшение каталога по id
func (m *Manager) Find(id string) (Upgrade, bool) {
	for _, u := range m.catalog {
		if u.ID == id {
			return u, true
		}
	}
	return Upgrade{}, false
}
