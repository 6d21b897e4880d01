package runner

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/horde-survival/internal/config"
	"github.com/annel0/horde-survival/internal/sim"
	"github.com/annel0/horde-survival/internal/storage"
)

type countingPublisher struct {
	mu     sync.Mutex
	counts map[sim.EventType]int
}

func (p *countingPublisher) Publish(_ string, events []sim.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.counts == nil {
		p.counts = make(map[sim.EventType]int)
	}
	for _, ev := range events {
		p.counts[ev.Type]++
	}
}

func shortBalance() *config.Balance {
	b := config.DefaultBalance()
	b.Run.Duration = 30
	return b
}

func TestNew_RequiresBalance(t *testing.T) {
	_, err := New(Options{})
	assert.ErrorIs(t, err, config.ErrInvalidConfiguration)
}

func TestRun_FinishesAndSaves(t *testing.T) {
	repo := storage.NewMemoryRunRepo()
	pub := &countingPublisher{}
	r, err := New(Options{Balance: shortBalance(), Repo: repo, Publisher: pub})
	require.NoError(t, err)

	res, err := r.Run(context.Background(), 5)
	require.NoError(t, err)
	assert.Contains(t, []string{"victory", "game_over"}, res.Outcome)
	assert.Equal(t, int64(5), res.Seed)

	saved, found, err := repo.Load(context.Background(), res.RunID)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, res.Ticks, saved.Ticks)
	assert.Positive(t, pub.counts[sim.EventSpawn], "события дошли до издателя")
}

func TestRun_SameSeedSameOutcome(t *testing.T) {
	r, err := New(Options{Balance: shortBalance()})
	require.NoError(t, err)

	a, err := r.Run(context.Background(), 11)
	require.NoError(t, err)
	b, err := r.Run(context.Background(), 11)
	require.NoError(t, err)

	assert.NotEqual(t, a.RunID, b.RunID)
	assert.Equal(t, a.Ticks, b.Ticks)
	assert.Equal(t, a.Stats.Kills, b.Stats.Kills)
	assert.Equal(t, a.Stats.Upgrades, b.Stats.Upgrades)
}

func TestRun_MaxTicksAborts(t *testing.T) {
	r, err := New(Options{Balance: shortBalance(), MaxTicks: 10})
	require.NoError(t, err)
	res, err := r.Run(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "aborted", res.Outcome)
	assert.Equal(t, uint64(10), res.Ticks)
}

func TestRunMany_CancelledContextStillSaves(t *testing.T) {
	repo := storage.NewMemoryRunRepo()
	r, err := New(Options{Balance: shortBalance(), Repo: repo})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := r.Run(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "aborted", res.Outcome)

	runs, err := r.RunMany(ctx, 1, 3)
	require.NoError(t, err)
	assert.Empty(t, runs)

	recent, err := repo.Recent(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, recent, 1)
}
