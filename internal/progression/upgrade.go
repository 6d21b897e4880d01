package progression

import (
	"fmt"
	"math"

	"github.com/annel0/horde-survival/internal/config"
	"github.com/annel0/horde-survival/internal/entity"
)

// Upgrade улучшение из каталога
type Upgrade struct {
	config.UpgradeSpec
}

// Eligible проверяет, имеет ли смысл предлагать улучшение игроку сейчас
func (u Upgrade) Eligible(p *entity.Player) bool {
	if u.RequiresDamaged && p.HP >= p.MaxHP {
		return false
	}
	if u.Op == config.OpFlag && flagValue(p, u.Stat) {
		return false
	}
	if u.Cap > 0 && statValue(p, u.Stat) >= u.Cap {
		return false
	}
	return true
}

// Apply применяет улучшение к текущим характеристикам игрока.
// Процентные операции берут текущее значение, поэтому порядок применения важен.
func (u Upgrade) Apply(p *entity.Player) error {
	switch u.Op {
	case config.OpAdd:
		return setStat(p, u.Stat, statValue(p, u.Stat)+u.Value)
	case config.OpMul:
		return setStat(p, u.Stat, statValue(p, u.Stat)*(1+u.Value))
	case config.OpFlag:
		return setFlag(p, u.Stat)
	case config.OpHeal:
		p.Heal(u.Value)
	case config.OpHealFull:
		p.Heal(p.MaxHP)
	case config.OpMaxHP:
		p.MaxHP += u.Value
		p.Heal(u.Value)
	default:
		return fmt.Errorf("улучшение %s: неизвестная операция %q", u.ID, u.Op)
	}
	return nil
}

// Catalog строит каталог из строк баланса
func Catalog(specs []config.UpgradeSpec) []Upgrade {
	out := make([]Upgrade, len(specs))
	for i, s := range specs {
		out[i] = Upgrade{UpgradeSpec: s}
	}
	return out
}

func statValue(p *entity.Player, stat string) float64 {
	switch stat {
	case config.StatDamage:
		return p.Damage
	case config.StatDamageMultiplier:
		return p.DamageMultiplier
	case config.StatFireRate:
		return p.FireRate
	case config.StatMoveSpeed:
		return p.Speed
	case config.StatProjectileSpeed:
		return p.ProjectileSpeed
	case config.StatProjectileCount:
		return float64(p.ProjectileCount)
	case config.StatPickupRadius:
		return p.PickupRadius
	case config.StatMaxHP:
		return p.MaxHP
	case config.StatHP:
		return p.HP
	}
	return 0
}

func setStat(p *entity.Player, stat string, v float64) error {
	switch stat {
	case config.StatDamage:
		p.Damage = v
	case config.StatDamageMultiplier:
		p.DamageMultiplier = v
	case config.StatFireRate:
		p.FireRate = v
	case config.StatMoveSpeed:
		p.Speed = v
	case config.StatProjectileSpeed:
		p.ProjectileSpeed = v
	case config.StatProjectileCount:
		p.ProjectileCount = int(math.Floor(v + 1e-9))
	case config.StatPickupRadius:
		p.PickupRadius = v
	default:
		return fmt.Errorf("характеристика %q не изменяется улучшениями", stat)
	}
	return nil
}

func flagValue(p *entity.Player, stat string) bool {
	switch stat {
	case config.StatPiercing:
		return p.Piercing
	case config.StatExplosive:
		return p.Explosive
	case config.StatRapidFire:
		return p.RapidFire
	}
	return false
}

func setFlag(p *entity.Player, stat string) error {
	switch stat {
	case config.StatPiercing:
		p.Piercing = true
	case config.StatExplosive:
		p.Explosive = true
	case config.StatRapidFire:
		p.RapidFire = true
	default:
		return fmt.Errorf("флаг %q не существует", stat)
	}
	return nil
}
