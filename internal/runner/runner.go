// Package runner гоняет безголовые забеги с автопилотом и сохраняет итоги.
package runner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/annel0/horde-survival/internal/autopilot"
	"github.com/annel0/horde-survival/internal/config"
	"github.com/annel0/horde-survival/internal/logging"
	"github.com/annel0/horde-survival/internal/progression"
	"github.com/annel0/horde-survival/internal/sim"
	"github.com/annel0/horde-survival/internal/storage"
)

// DefaultDelta шаг по умолчанию, 60 тиков в секунду
const DefaultDelta = 1.0 / 60

// Options параметры раннера
type Options struct {
	Balance   *config.Balance
	DeltaTime float64
	// MaxTicks жёсткий предел тиков на забег, 0: без предела
	MaxTicks  uint64
	Repo      storage.RunRepo
	Publisher sim.Publisher
	Observers []sim.Observer
}

// Runner последовательно проводит забеги
type Runner struct {
	opts   Options
	logger *logging.Logger
}

func New(opts Options) (*Runner, error) {
	if opts.Balance == nil {
		return nil, fmt.Errorf("runner: %w: баланс не задан", config.ErrInvalidConfiguration)
	}
	if opts.DeltaTime <= 0 {
		opts.DeltaTime = DefaultDelta
	}
	if opts.Repo == nil {
		opts.Repo = storage.NewMemoryRunRepo()
	}
	return &Runner{opts: opts, logger: logging.GetComponentLogger("runner")}, nil
}

// Run проводит один забег с данным зерном. Отмена контекста завершает забег
// как прерванный, итог всё равно сохраняется.
func (r *Runner) Run(ctx context.Context, seed int64) (storage.RunResult, error) {
	pilot := autopilot.New(r.opts.Balance.Arena)
	simOpts := []sim.Option{
		sim.WithSeed(seed),
		sim.WithUpgradeResolver(pilot.ChooseUpgrade),
	}
	for _, o := range r.opts.Observers {
		simOpts = append(simOpts, sim.WithObserver(o))
	}
	if r.opts.Publisher != nil {
		simOpts = append(simOpts, sim.WithPublisher(r.opts.Publisher))
	}

	s, err := sim.New(r.opts.Balance, simOpts...)
	if err != nil {
		return storage.RunResult{}, err
	}

	started := time.Now()
	r.logger.Info("🎮 Забег %s начат (seed=%d, режим=%s)", s.RunID(), seed, r.opts.Balance.Run.WinMode)

	snap := s.Snapshot()
loop:
	for !snap.Phase.Terminal() {
		if r.opts.MaxTicks > 0 && snap.Tick >= r.opts.MaxTicks {
			r.logger.Warn("забег %s остановлен по лимиту %d тиков", s.RunID(), r.opts.MaxTicks)
			break
		}
		select {
		case <-ctx.Done():
			r.logger.Warn("забег %s прерван: %v", s.RunID(), ctx.Err())
			break loop
		default:
		}
		snap, err = s.Tick(pilot.Decide(snap, r.opts.DeltaTime))
		if errors.Is(err, progression.ErrOutOfRangeSelection) {
			r.logger.Warn("забег %s: %v", s.RunID(), err)
			continue
		}
		if err != nil {
			return storage.RunResult{}, fmt.Errorf("забег %s: %w", s.RunID(), err)
		}
	}

	res := storage.NewRunResult(snap, seed, r.opts.Balance.Run.WinMode)
	// Сохраняем и прерванный забег, поэтому контекст отмены не передаём
	if err := r.opts.Repo.Save(context.WithoutCancel(ctx), res); err != nil {
		return res, fmt.Errorf("сохранение забега %s: %w", res.RunID, err)
	}

	r.logger.Info("🏁 Забег %s: %s за %.1fс игрового времени (%d тиков, %v), убийств %d, уровень %d",
		res.RunID, res.Outcome, res.Elapsed, res.Ticks, time.Since(started).Round(time.Millisecond),
		res.Stats.Kills, res.Stats.LevelReached)
	return res, nil
}

// RunMany проводит n забегов с зёрнами seed, seed+1, ...
func (r *Runner) RunMany(ctx context.Context, seed int64, n int) ([]storage.RunResult, error) {
	out := make([]storage.RunResult, 0, n)
	for i := 0; i < n; i++ {
		if ctx.Err() != nil {
			break
		}
		res, err := r.Run(ctx, seed+int64(i))
		if err != nil {
			return out, err
		}
		out = append(out, res)
	}
	return out, nil
}
