package combat

import (
	"github.com/annel0/horde-survival/internal/entity"
	"github.com/annel0/horde-survival/internal/vec"
)

// NoticeKind вид боевого события
type NoticeKind uint8

const (
	NoticeEnemyDamaged NoticeKind = iota
	NoticeEnemyKilled
	NoticeExplosion
	NoticePlayerDamaged
	NoticePickupCollected
	NoticeBeam
)

// Notice факт, произошедший при разрешении боя; ядро превращает их в события тика
type Notice struct {
	Kind    NoticeKind
	Entity  entity.ID
	Source  entity.ID
	Pos     vec.Vec2
	Target  vec.Vec2
	Amount  float64
	Radius  float64
	XP      int
	PowerUp string
	Cause   string
}

// Result накопитель итогов боя за тик
type Result struct {
	Notices     []Notice
	Killed      []entity.ID
	DamageDealt float64
	DamageTaken float64
	Hits        int
	XP          int
	PowerUps    []string
}

func (r *Result) add(n Notice) {
	r.Notices = append(r.Notices, n)
}
