package progression

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/horde-survival/internal/config"
	"github.com/annel0/horde-survival/internal/entity"
	"github.com/annel0/horde-survival/internal/vec"
)

func newPlayer(b *config.Balance) *entity.Player {
	return entity.NewPlayer(b.Player, vec.New(0, 0), nil)
}

func TestAddXP_CarriesOverflowAndOffersThree(t *testing.T) {
	b := config.DefaultBalance()
	m := NewManager(b)
	p := newPlayer(b)
	p.XPToNext = 100
	p.XP = 95

	gained := m.AddXP(p, 10)
	assert.Equal(t, 1, gained)
	assert.Equal(t, 2, p.Level)
	assert.Equal(t, 5, p.XP, "излишек переносится на следующий уровень")
	assert.Equal(t, 150, p.XPToNext)
	assert.Equal(t, 1, m.Pending())

	offer := m.Offer(p, rand.New(rand.NewSource(1)))
	require.Len(t, offer, ChoiceCount)
	ids := map[string]bool{}
	for _, u := range offer {
		ids[u.ID] = true
	}
	assert.Len(t, ids, ChoiceCount, "варианты не повторяются")
}

func TestAddXP_MultipleLevels(t *testing.T) {
	b := config.DefaultBalance()
	m := NewManager(b)
	p := newPlayer(b)

	// 50 + 75 = 125, остаётся 5
	assert.Equal(t, 2, m.AddXP(p, 130))
	assert.Equal(t, 3, p.Level)
	assert.Equal(t, 5, p.XP)
	assert.Equal(t, 112, p.XPToNext)
	assert.Equal(t, 2, m.Pending())
	assert.Zero(t, m.AddXP(p, 0))
}

func TestAddXP_HealsOnLevelUp(t *testing.T) {
	b := config.DefaultBalance()
	m := NewManager(b)
	p := newPlayer(b)
	p.HP = 50

	m.AddXP(p, 50)
	assert.InDelta(t, 80, p.HP, 1e-9)
}

func TestUpgradeOrderMatters(t *testing.T) {
	b := config.DefaultBalance()
	m := NewManager(b)
	flat, ok := m.Find("damage_5")
	require.True(t, ok)
	pct, ok := m.Find("damage_pct_20")
	require.True(t, ok)

	a := newPlayer(b)
	require.NoError(t, flat.Apply(a))
	require.NoError(t, pct.Apply(a))

	c := newPlayer(b)
	require.NoError(t, pct.Apply(c))
	require.NoError(t, flat.Apply(c))

	assert.InDelta(t, 18, a.Damage, 1e-9, "(10+5)*1.2")
	assert.InDelta(t, 17, c.Damage, 1e-9, "10*1.2+5")
	assert.NotEqual(t, a.Damage, c.Damage)
}

func TestSelect_OutOfRangeKeepsOffer(t *testing.T) {
	b := config.DefaultBalance()
	m := NewManager(b)
	p := newPlayer(b)
	m.AddXP(p, 50)
	offer := m.Offer(p, rand.New(rand.NewSource(2)))
	require.Len(t, offer, 3)

	for _, idx := range []int{-1, 3, 10} {
		_, err := m.Select(p, idx)
		assert.ErrorIs(t, err, ErrOutOfRangeSelection)
	}
	assert.True(t, m.Offering(), "после отказа предложение остаётся")
	assert.Equal(t, offer, m.Offer(p, rand.New(rand.NewSource(99))), "повторный показ того же предложения")

	u, err := m.Select(p, 1)
	require.NoError(t, err)
	assert.Equal(t, offer[1].ID, u.ID)
	assert.False(t, m.Offering())
	assert.Zero(t, m.Pending())
	assert.Equal(t, []string{u.ID}, m.Chosen())

	_, err = m.Select(p, 0)
	assert.ErrorIs(t, err, ErrNoOffer)
}

func TestEligibility(t *testing.T) {
	b := config.DefaultBalance()
	m := NewManager(b)
	p := newPlayer(b)

	heal, _ := m.Find("heal_50")
	assert.False(t, heal.Eligible(p), "лечение не предлагается при полном HP")
	p.HP = 60
	assert.True(t, heal.Eligible(p))

	pierce, _ := m.Find("piercing")
	assert.True(t, pierce.Eligible(p))
	require.NoError(t, pierce.Apply(p))
	assert.True(t, p.Piercing)
	assert.False(t, pierce.Eligible(p), "уже есть пробивание")

	proj, _ := m.Find("projectile_2")
	p.ProjectileCount = 7
	assert.False(t, proj.Eligible(p))
	p.ProjectileCount = 6
	assert.True(t, proj.Eligible(p))

	maxHP, _ := m.Find("max_hp_50")
	require.NoError(t, maxHP.Apply(p))
	assert.Equal(t, 150.0, p.MaxHP)
	assert.Equal(t, 110.0, p.HP, "прибавка максимума лечит на ту же величину")
}

func TestOffer_NeverOffersIneligible(t *testing.T) {
	b := config.DefaultBalance()
	m := NewManager(b)
	p := newPlayer(b)
	p.Piercing, p.Explosive, p.RapidFire = true, true, true
	rng := rand.New(rand.NewSource(5))

	for i := 0; i < 50; i++ {
		m.AddXP(p, p.XPToNext-p.XP)
		for _, u := range m.Offer(p, rng) {
			assert.True(t, u.Eligible(p), "%s не должно предлагаться", u.ID)
			assert.NotEqual(t, config.OpFlag, u.Op)
		}
		_, err := m.Select(p, 0)
		require.NoError(t, err)
	}
}

func TestApply_MulDoublesFireRate(t *testing.T) {
	b := config.DefaultBalance()
	m := NewManager(b)
	p := newPlayer(b)
	u, _ := m.Find("fire_rate_x2")
	require.NoError(t, u.Apply(p))
	assert.InDelta(t, 2.0, p.FireRate, 1e-9)
}
