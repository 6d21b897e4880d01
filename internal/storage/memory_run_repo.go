package storage

import (
	"context"
	"sort"
	"sync"
)

// MemoryRunRepo реализует RunRepo в памяти.
// Используется, когда Redis не настроен, и в тестах.
type MemoryRunRepo struct {
	mu   sync.RWMutex
	data map[string]RunResult
}

func NewMemoryRunRepo() *MemoryRunRepo {
	return &MemoryRunRepo{data: make(map[string]RunResult)}
}

func (r *MemoryRunRepo) Save(ctx context.Context, res RunResult) error {
	if res.RunID == "" {
		return ErrInvalidRun
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[res.RunID] = res
	return nil
}

func (r *MemoryRunRepo) Load(ctx context.Context, runID string) (RunResult, bool, error) {
	if err := ctx.Err(); err != nil {
		return RunResult{}, false, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	res, ok := r.data[runID]
	return res, ok, nil
}

func (r *MemoryRunRepo) Recent(ctx context.Context, n int) ([]RunResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if n <= 0 {
		return nil, nil
	}

	r.mu.RLock()
	out := make([]RunResult, 0, len(r.data))
	for _, res := range r.data {
		out = append(out, res)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].FinishedAt.Equal(out[j].FinishedAt) {
			return out[i].RunID < out[j].RunID
		}
		return out[i].FinishedAt.After(out[j].FinishedAt)
	})
	if len(out) > n {
		out = out[:n]
	}
	return out, nil
}

func (r *MemoryRunRepo) Delete(ctx context.Context, runID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	delete(r.data, runID)
	r.mu.Unlock()
	return nil
}

// Close ничего не делает
func (r *MemoryRunRepo) Close() error { return nil }
