package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/dgraph-io/badger/v3"
	"github.com/klauspost/compress/zstd"

	"github.com/annel0/horde-survival/internal/logging"
)

const (
	badgerRunPrefix   = "run:"
	badgerIndexPrefix = "idx:"
)

// BadgerRunRepo хранит итоги забегов локально в BadgerDB.
// Значения JSON, сжатый zstd; индекс по времени завершения лежит
// отдельными ключами idx:<нс>:<runID>.
type BadgerRunRepo struct {
	db      *badger.DB
	enc     *zstd.Encoder
	dec     *zstd.Decoder
	mutex   sync.RWMutex
	isReady bool
	logger  *logging.Logger
}

// NewBadgerRunRepo открывает хранилище в каталоге dir. Пустой dir
// открывает базу в памяти.
func NewBadgerRunRepo(dir string) (*BadgerRunRepo, error) {
	opts := badger.DefaultOptions(dir)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	opts.Logger = nil // Отключаем логирование BadgerDB

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("не удалось открыть BadgerDB: %w", err)
	}
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		db.Close()
		return nil, err
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		enc.Close()
		db.Close()
		return nil, err
	}

	logger := logging.GetStorageLogger()
	if dir != "" {
		logger.Info("💾 Итоги забегов в BadgerDB: %s", dir)
	}
	return &BadgerRunRepo{db: db, enc: enc, dec: dec, isReady: true, logger: logger}, nil
}

func runKey(runID string) []byte { return []byte(badgerRunPrefix + runID) }

func indexKey(res RunResult) []byte {
	return []byte(fmt.Sprintf("%s%020d:%s", badgerIndexPrefix, res.FinishedAt.UnixNano(), res.RunID))
}

func (r *BadgerRunRepo) ready() error {
	if !r.isReady {
		return fmt.Errorf("хранилище не готово")
	}
	return nil
}

func (r *BadgerRunRepo) Save(ctx context.Context, res RunResult) error {
	if res.RunID == "" {
		return ErrInvalidRun
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	if err := r.ready(); err != nil {
		return err
	}

	data, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("ошибка сериализации забега: %w", err)
	}
	packed := r.enc.EncodeAll(data, nil)

	err = r.db.Update(func(txn *badger.Txn) error {
		prev, found, err := r.get(txn, res.RunID)
		if err != nil {
			return err
		}
		if found {
			if err := txn.Delete(indexKey(prev)); err != nil {
				return err
			}
		}
		if err := txn.Set(runKey(res.RunID), packed); err != nil {
			return err
		}
		return txn.Set(indexKey(res), nil)
	})
	if err != nil {
		return fmt.Errorf("ошибка сохранения в BadgerDB: %w", err)
	}
	r.logger.Debug("сохранён забег %s: %d → %d байт", res.RunID, len(data), len(packed))
	return nil
}

func (r *BadgerRunRepo) get(txn *badger.Txn, runID string) (RunResult, bool, error) {
	var res RunResult
	item, err := txn.Get(runKey(runID))
	if err == badger.ErrKeyNotFound {
		return res, false, nil
	}
	if err != nil {
		return res, false, err
	}
	err = item.Value(func(val []byte) error {
		data, err := r.dec.DecodeAll(val, nil)
		if err != nil {
			return fmt.Errorf("ошибка распаковки забега %s: %w", runID, err)
		}
		return json.Unmarshal(data, &res)
	})
	if err != nil {
		return res, false, err
	}
	return res, true, nil
}

func (r *BadgerRunRepo) Load(ctx context.Context, runID string) (RunResult, bool, error) {
	if err := ctx.Err(); err != nil {
		return RunResult{}, false, err
	}
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	if err := r.ready(); err != nil {
		return RunResult{}, false, err
	}

	var (
		res   RunResult
		found bool
	)
	err := r.db.View(func(txn *badger.Txn) error {
		var err error
		res, found, err = r.get(txn, runID)
		return err
	})
	if err != nil {
		return RunResult{}, false, fmt.Errorf("ошибка чтения из BadgerDB: %w", err)
	}
	return res, found, nil
}

// Recent обходит индекс в обратном порядке
func (r *BadgerRunRepo) Recent(ctx context.Context, n int) ([]RunResult, error) {
	if n <= 0 {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	if err := r.ready(); err != nil {
		return nil, err
	}

	var out []RunResult
	err := r.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.PrefetchValues = false
		opts.Prefix = []byte(badgerIndexPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		seek := append([]byte(badgerIndexPrefix), 0xFF)
		for it.Seek(seek); it.Valid() && len(out) < n; it.Next() {
			key := string(it.Item().Key())
			// idx:<20 цифр>:<runID>
			runID := key[len(badgerIndexPrefix)+21:]
			res, found, err := r.get(txn, runID)
			if err != nil {
				return err
			}
			if found {
				out = append(out, res)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения из BadgerDB: %w", err)
	}
	return out, nil
}

func (r *BadgerRunRepo) Delete(ctx context.Context, runID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	if err := r.ready(); err != nil {
		return err
	}

	return r.db.Update(func(txn *badger.Txn) error {
		prev, found, err := r.get(txn, runID)
		if err != nil || !found {
			return err
		}
		if err := txn.Delete(indexKey(prev)); err != nil {
			return err
		}
		return txn.Delete(runKey(runID))
	})
}

// Close закрывает хранилище данных
func (r *BadgerRunRepo) Close() error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if !r.isReady {
		return nil
	}
	r.isReady = false
	r.enc.Close()
	r.dec.Close()
	return r.db.Close()
}
