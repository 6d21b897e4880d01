// Package autopilot простой бот для безголовых прогонов: уходит от толпы,
// собирает опыт и стреляет в ближайшего врага.
package autopilot

import (
	"math"

	"github.com/annel0/horde-survival/internal/config"
	"github.com/annel0/horde-survival/internal/sim"
	"github.com/annel0/horde-survival/internal/vec"
)

// Pilot принимает решения по снимку мира
type Pilot struct {
	ThreatRadius float64 // враги ближе этого отталкивают
	SeekRadius   float64 // предметы дальше этого игнорируются
	WallMargin   float64 // у стен появляется тяга к центру
	// Priority порядок предпочтения улучшений. Неизвестные идут в конец.
	Priority []string

	width, height float64
}

// DefaultPriority порядок улучшений по умолчанию
var DefaultPriority = []string{
	"projectile_1", "projectile_2", "piercing", "damage_pct_20", "fire_rate_x2",
	"damage_10", "explosive", "rapid_fire", "enhance_weapon", "fire_rate_05",
	"max_hp_50", "speed_pct_20", "damage_5", "max_hp_20", "speed_30",
	"pickup_pct_50", "pickup_20", "projectile_speed_100",
}

func New(arena config.ArenaConfig) *Pilot {
	return &Pilot{
		ThreatRadius: 160,
		SeekRadius:   300,
		WallMargin:   120,
		Priority:     DefaultPriority,
		width:        arena.Width,
		height:       arena.Height,
	}
}

// Decide строит ввод на следующий тик
func (p *Pilot) Decide(snap *sim.Snapshot, dt float64) sim.Input {
	in := sim.Input{DeltaTime: dt}
	if snap.Phase == sim.PhaseLevelUp && len(snap.Choices) > 0 {
		in.Selection = sim.Choose(p.ChooseUpgrade(snap.Player, snap.Choices))
		return in
	}

	me := snap.Player.Pos
	var (
		push      vec.Vec2
		target    *sim.EntityView
		targetD   = math.Inf(1)
		orb       *sim.EntityView
		orbD      = math.Inf(1)
		threatNear bool
	)
	for i := range snap.Entities {
		e := &snap.Entities[i]
		d := me.DistanceTo(e.Pos)
		switch e.Category {
		case sim.CategoryEnemy:
			if e.State == "dying" {
				continue
			}
			if d < targetD {
				target, targetD = e, d
			}
			if d < p.ThreatRadius {
				threatNear = true
				push = push.Add(awayFrom(me, e.Pos, d, p.ThreatRadius))
			}
		case sim.CategoryProjectile:
			if e.Hostile && d < p.ThreatRadius*0.5 {
				push = push.Add(awayFrom(me, e.Pos, d, p.ThreatRadius*0.5).Mul(2))
			}
		case sim.CategoryPickup:
			if d < orbD && d < p.SeekRadius {
				orb, orbD = e, d
			}
		}
	}

	move := push
	if orb != nil {
		pull := orb.Pos.Sub(me).Normalized()
		if threatNear {
			pull = pull.Mul(0.3)
		}
		move = move.Add(pull)
	}
	move = move.Add(p.wallPull(me))
	if !move.IsZero() {
		move = move.Normalized()
	}
	in.Move = move

	if target != nil {
		in.Aim = target.Pos
		in.Fire = true
	}
	return in
}

// ChooseUpgrade выбирает улучшение. Подходит как sim.UpgradeResolver.
func (p *Pilot) ChooseUpgrade(player sim.PlayerView, choices []sim.UpgradeChoice) int {
	if player.MaxHP > 0 && player.HP < player.MaxHP*0.4 {
		for i, c := range choices {
			if c.ID == "heal_full" || c.ID == "heal_50" {
				return i
			}
		}
	}
	best, bestRank := 0, math.MaxInt
	for i, c := range choices {
		rank := len(p.Priority)
		for r, id := range p.Priority {
			if id == c.ID {
				rank = r
				break
			}
		}
		if rank < bestRank {
			best, bestRank = i, rank
		}
	}
	return best
}

func (p *Pilot) wallPull(pos vec.Vec2) vec.Vec2 {
	var out vec.Vec2
	if p.width <= 0 || p.height <= 0 {
		return out
	}
	if pos.X < p.WallMargin {
		out.X = 1
	} else if pos.X > p.width-p.WallMargin {
		out.X = -1
	}
	if pos.Y < p.WallMargin {
		out.Y = 1
	} else if pos.Y > p.height-p.WallMargin {
		out.Y = -1
	}
	return out
}

// awayFrom вектор от источника, тем сильнее чем ближе
func awayFrom(me, from vec.Vec2, d, radius float64) vec.Vec2 {
	dir := me.Sub(from)
	if dir.IsZero() {
		dir = vec.New(1, 0)
	}
	return dir.Normalized().Mul((radius - d) / radius)
}
