package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/annel0/horde-survival/internal/logging"
)

// RedisConfig содержит настройки подключения к Redis
type RedisConfig struct {
	Addr      string        // Адрес Redis сервера
	Password  string        // Пароль (пустой если не требуется)
	DB        int           // Номер базы данных
	KeyPrefix string        // Префикс для ключей
	TTL       time.Duration // Время жизни записей, 0: бессрочно
}

// DefaultRedisConfig возвращает конфигурацию по умолчанию
func DefaultRedisConfig() *RedisConfig {
	return &RedisConfig{
		Addr:      "localhost:6379",
		KeyPrefix: "horde:run:",
		TTL:       7 * 24 * time.Hour,
	}
}

// RedisRunRepo хранит итоги забегов в Redis. Каждый итог лежит JSON строкой,
// порядок завершения ведётся в sorted set по времени.
type RedisRunRepo struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
	logger    *logging.Logger
}

// NewRedisRunRepo подключается к Redis и проверяет соединение
func NewRedisRunRepo(ctx context.Context, config *RedisConfig) (*RedisRunRepo, error) {
	if config == nil {
		config = DefaultRedisConfig()
	}
	prefix := config.KeyPrefix
	if prefix == "" {
		prefix = DefaultRedisConfig().KeyPrefix
	}

	client := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger := logging.GetStorageLogger()
	logger.Info("🔴 Подключено к Redis %s (prefix=%s)", config.Addr, prefix)
	return &RedisRunRepo{
		client:    client,
		keyPrefix: prefix,
		ttl:       config.TTL,
		logger:    logger,
	}, nil
}

func (r *RedisRunRepo) key(runID string) string { return r.keyPrefix + runID }

func (r *RedisRunRepo) indexKey() string { return r.keyPrefix + "index" }

func (r *RedisRunRepo) Save(ctx context.Context, res RunResult) error {
	if res.RunID == "" {
		return ErrInvalidRun
	}
	data, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("failed to marshal run: %w", err)
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, r.key(res.RunID), data, r.ttl)
	pipe.ZAdd(ctx, r.indexKey(), &redis.Z{
		Score:  float64(res.FinishedAt.UnixNano()),
		Member: res.RunID,
	})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save run %s: %w", res.RunID, err)
	}
	r.logger.Debug("сохранён забег %s (%s)", res.RunID, res.Outcome)
	return nil
}

func (r *RedisRunRepo) Load(ctx context.Context, runID string) (RunResult, bool, error) {
	var res RunResult
	data, err := r.client.Get(ctx, r.key(runID)).Bytes()
	if err == redis.Nil {
		return res, false, nil
	} else if err != nil {
		return res, false, fmt.Errorf("failed to get run: %w", err)
	}
	if err := json.Unmarshal(data, &res); err != nil {
		return res, false, fmt.Errorf("failed to unmarshal run: %w", err)
	}
	return res, true, nil
}

// Recent читает индекс и забирает записи одним pipeline. Истёкшие по TTL
// записи пропускаются и вычищаются из индекса.
func (r *RedisRunRepo) Recent(ctx context.Context, n int) ([]RunResult, error) {
	if n <= 0 {
		return nil, nil
	}
	ids, err := r.client.ZRevRange(ctx, r.indexKey(), 0, int64(n-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read run index: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	pipe := r.client.Pipeline()
	cmds := make([]*redis.StringCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.Get(ctx, r.key(id))
	}
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, fmt.Errorf("failed to get runs: %w", err)
	}

	out := make([]RunResult, 0, len(ids))
	var stale []interface{}
	for i, cmd := range cmds {
		data, err := cmd.Bytes()
		if err == redis.Nil {
			stale = append(stale, ids[i])
			continue
		} else if err != nil {
			return nil, err
		}
		var res RunResult
		if err := json.Unmarshal(data, &res); err != nil {
			r.logger.Warn("повреждённая запись забега %s: %v", ids[i], err)
			continue
		}
		out = append(out, res)
	}
	if len(stale) > 0 {
		if err := r.client.ZRem(ctx, r.indexKey(), stale...).Err(); err != nil {
			r.logger.Warn("не удалось вычистить индекс: %v", err)
		}
	}
	return out, nil
}

func (r *RedisRunRepo) Delete(ctx context.Context, runID string) error {
	pipe := r.client.TxPipeline()
	pipe.Del(ctx, r.key(runID))
	pipe.ZRem(ctx, r.indexKey(), runID)
	_, err := pipe.Exec(ctx)
	return err
}

func (r *RedisRunRepo) Close() error {
	return r.client.Close()
}
