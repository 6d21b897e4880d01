package storage

// Summary сводка по набору забегов
type Summary struct {
	Runs        int            `json:"runs"`
	Outcomes    map[string]int `json:"outcomes"`
	WinRate     float64        `json:"win_rate"`
	AvgElapsed  float64        `json:"avg_elapsed"`
	AvgKills    float64        `json:"avg_kills"`
	AvgLevel    float64        `json:"avg_level"`
	AvgAccuracy float64        `json:"avg_accuracy"`
	// Picks сколько раз выбиралось каждое улучшение
	Picks map[string]int `json:"picks"`
}

// Summarize считает сводку. Пустой набор даёт нулевую сводку.
func Summarize(results []RunResult) Summary {
	s := Summary{Outcomes: map[string]int{}, Picks: map[string]int{}}
	if len(results) == 0 {
		return s
	}
	var elapsed, kills, level, acc float64
	for _, r := range results {
		s.Outcomes[r.Outcome]++
		elapsed += r.Elapsed
		kills += float64(r.Stats.Kills)
		level += float64(r.Stats.LevelReached)
		acc += r.Stats.Accuracy()
		for _, id := range r.Stats.Upgrades {
			s.Picks[id]++
		}
	}
	n := float64(len(results))
	s.Runs = len(results)
	s.WinRate = float64(s.Outcomes["victory"]) / n
	s.AvgElapsed = elapsed / n
	s.AvgKills = kills / n
	s.AvgLevel = level / n
	s.AvgAccuracy = acc / n
	return s
}
