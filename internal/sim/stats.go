package sim

// RunStats итоги забега
type RunStats struct {
	Kills          int
	BossKills      int
	DamageDealt    float64
	DamageTaken    float64
	Shots          int
	Hits           int
	XPCollected    int
	LevelReached   int
	Upgrades       []string
	PowerUps       int
	WavesCompleted int
	MaxCombo       int
	Survived       float64
	PausedFor      float64

	combo      int
	lastKillAt float64
}

// Accuracy доля попаданий на выстрел. Пробивающие снаряды могут дать больше 1.
func (r RunStats) Accuracy() float64 {
	if r.Shots == 0 {
		return 0
	}
	return float64(r.Hits) / float64(r.Shots)
}

// recordKill учитывает убийство в серии: убийства чаще окна продолжают серию
func (r *RunStats) recordKill(at, window float64, boss bool) {
	r.Kills++
	if boss {
		r.BossKills++
	}
	if r.combo > 0 && at-r.lastKillAt <= window {
		r.combo++
	} else {
		r.combo = 1
	}
	r.lastKillAt = at
	if r.combo > r.MaxCombo {
		r.MaxCombo = r.combo
	}
}

func (r RunStats) clone() RunStats {
	out := r
	out.Upgrades = append([]string(nil), r.Upgrades...)
	return out
}
