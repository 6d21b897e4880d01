package sim

import (
	"errors"

	"github.com/annel0/horde-survival/internal/progression"
)

func describe(upgrades []progression.Upgrade) []UpgradeChoice {
	out := make([]UpgradeChoice, len(upgrades))
	for i, u := range upgrades {
		out[i] = UpgradeChoice{ID: u.ID, Description: u.Description}
	}
	return out
}

// beginLevelUp ставит мир на паузу и открывает выбор
func (s *Simulation) beginLevelUp() {
	player := s.entities.Player()
	choices := s.progress.Offer(player, s.rng)
	if len(choices) == 0 {
		return
	}
	s.phase = PhaseLevelUp
	s.emit(Event{Type: EventLevelUpStarted, Entity: player.ID, Pos: player.Pos, Level: player.Level, Choices: describe(choices)})
	s.autoResolve()
}

// autoResolve отдаёт выбор решателю, пока он есть и выбор открыт
func (s *Simulation) autoResolve() {
	for s.resolver != nil && s.phase == PhaseLevelUp {
		idx := s.resolver(s.playerView(), describe(s.progress.Current()))
		if err := s.applySelection(idx); err != nil {
			s.logger.Warn("решатель выбрал %d: %v", idx, err)
			return
		}
	}
}

// applySelection применяет выбор. Неверный индекс отклоняется, выбор остаётся открытым.
func (s *Simulation) applySelection(index int) error {
	player := s.entities.Player()
	u, err := s.progress.Select(player, index)
	if err != nil {
		s.emit(Event{Type: EventSelectionRejected, Entity: player.ID, Level: player.Level, Amount: float64(index)})
		if !errors.Is(err, progression.ErrOutOfRangeSelection) {
			s.tickErr = err
			s.logger.Error("улучшение не применено: %v", err)
		}
		return err
	}

	s.stats.Upgrades = append(s.stats.Upgrades, u.ID)
	s.emit(Event{Type: EventLevelUpApplied, Entity: player.ID, Pos: player.Pos, Level: player.Level, Kind: u.ID})

	if s.progress.Pending() > 0 {
		choices := s.progress.Offer(player, s.rng)
		s.emit(Event{Type: EventLevelUpStarted, Entity: player.ID, Pos: player.Pos, Level: player.Level, Choices: describe(choices)})
		return nil
	}
	s.phase = PhaseRunning
	return nil
}
