package storage

import (
	"context"
	"errors"
	"time"

	"github.com/annel0/horde-survival/internal/sim"
)

// ErrInvalidRun запись без идентификатора забега
var ErrInvalidRun = errors.New("storage: пустой идентификатор забега")

// RunResult итог одного забега.
type RunResult struct {
	RunID      string       `json:"run_id"`
	Seed       int64        `json:"seed"`
	Mode       string       `json:"mode"`
	Outcome    string       `json:"outcome"` // victory, game_over или aborted
	Elapsed    float64      `json:"elapsed"`
	Ticks      uint64       `json:"ticks"`
	Wave       int          `json:"wave"`
	Stats      sim.RunStats `json:"stats"`
	FinishedAt time.Time    `json:"finished_at"`
}

// NewRunResult собирает итог по последнему снимку.
func NewRunResult(snap *sim.Snapshot, seed int64, mode string) RunResult {
	outcome := "aborted"
	if snap.Phase.Terminal() {
		outcome = snap.Phase.String()
	}
	return RunResult{
		RunID:      snap.RunID,
		Seed:       seed,
		Mode:       mode,
		Outcome:    outcome,
		Elapsed:    snap.Elapsed,
		Ticks:      snap.Tick,
		Wave:       snap.Wave,
		Stats:      snap.Stats,
		FinishedAt: time.Now().UTC(),
	}
}

// RunRepo хранилище итогов забегов.
type RunRepo interface {
	// Save перезаписывает итог с тем же RunID.
	Save(ctx context.Context, r RunResult) error
	// Load возвращает false, если забег не найден.
	Load(ctx context.Context, runID string) (RunResult, bool, error)
	// Recent последние n забегов, новые первыми.
	Recent(ctx context.Context, n int) ([]RunResult, error)
	Delete(ctx context.Context, runID string) error
	Close() error
}
