package sim

import (
	"github.com/annel0/horde-survival/internal/entity"
	"github.com/annel0/horde-survival/internal/vec"
)

// worldView то, что видит движок поведения о других врагах.
// Раненые собираются один раз за тик: лекари выбирают цель среди них,
// не перебирая весь пул врагов. Индекс на этом шаге ещё хранит позиции
// прошлого тика, поэтому поиск идёт по текущим позициям из списка.
type worldView struct {
	m       *entity.Manager
	damaged []*entity.Enemy
}

// newWorldView список раненых живых врагов по возрастанию ID
func newWorldView(m *entity.Manager, enemies []*entity.Enemy) worldView {
	w := worldView{m: m}
	for _, e := range enemies {
		if e.Alive() && e.Damaged() {
			w.damaged = append(w.damaged, e)
		}
	}
	return w
}

// NearestDamagedAlly ближайший раненый живой союзник; при равенстве меньший ID
func (w worldView) NearestDamagedAlly(self *entity.Enemy) (vec.Vec2, bool) {
	best := -1.0
	var pos vec.Vec2
	for _, e := range w.damaged {
		if e.ID == self.ID || !e.Alive() {
			continue
		}
		d := e.Pos.DistanceSqTo(self.Pos)
		if best < 0 || d < best {
			best = d
			pos = e.Pos
		}
	}
	return pos, best >= 0
}

func (w worldView) SummonsOf(owner entity.ID) int {
	return w.m.SummonsOf(owner)
}
