package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// MariaRunRepo реализует RunRepo для MariaDB/MySQL.
// Итоги лежат в таблице horde_runs: ключевые поля отдельными колонками
// для выборок, полная статистика JSON.
type MariaRunRepo struct {
	db *sql.DB
}

// NewMariaRunRepo подключается по dsn (user:pass@tcp(host:port)/dbname)
// и создаёт таблицу, если её нет.
func NewMariaRunRepo(dsn string) (*MariaRunRepo, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("не удалось подключиться к MariaDB: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("не удалось проверить соединение с MariaDB: %w", err)
	}

	repo := &MariaRunRepo{db: db}
	if err := repo.createTable(); err != nil {
		db.Close()
		return nil, fmt.Errorf("не удалось создать таблицу: %w", err)
	}
	return repo, nil
}

func (r *MariaRunRepo) createTable() error {
	query := `
		CREATE TABLE IF NOT EXISTS horde_runs (
			run_id      VARCHAR(64)     PRIMARY KEY,
			seed        BIGINT          NOT NULL,
			mode        VARCHAR(16)     NOT NULL,
			outcome     VARCHAR(16)     NOT NULL,
			elapsed     DOUBLE          NOT NULL,
			ticks       BIGINT UNSIGNED NOT NULL,
			wave        INT             NOT NULL,
			kills       INT             NOT NULL,
			level       INT             NOT NULL,
			stats       JSON            NOT NULL,
			finished_at BIGINT          NOT NULL,
			INDEX idx_finished_at (finished_at)
		) ENGINE=InnoDB
	`
	if _, err := r.db.Exec(query); err != nil {
		return fmt.Errorf("ошибка создания таблицы horde_runs: %w", err)
	}
	return nil
}

// Save использует INSERT ... ON DUPLICATE KEY UPDATE для перезаписи.
func (r *MariaRunRepo) Save(ctx context.Context, res RunResult) error {
	if res.RunID == "" {
		return ErrInvalidRun
	}
	stats, err := json.Marshal(res.Stats)
	if err != nil {
		return fmt.Errorf("ошибка сериализации статистики: %w", err)
	}

	query := `
		INSERT INTO horde_runs (run_id, seed, mode, outcome, elapsed, ticks, wave, kills, level, stats, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			seed = VALUES(seed),
			mode = VALUES(mode),
			outcome = VALUES(outcome),
			elapsed = VALUES(elapsed),
			ticks = VALUES(ticks),
			wave = VALUES(wave),
			kills = VALUES(kills),
			level = VALUES(level),
			stats = VALUES(stats),
			finished_at = VALUES(finished_at)
	`
	_, err = r.db.ExecContext(ctx, query, res.RunID, res.Seed, res.Mode, res.Outcome, res.Elapsed,
		res.Ticks, res.Wave, res.Stats.Kills, res.Stats.LevelReached, stats, res.FinishedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("ошибка сохранения забега %s: %w", res.RunID, err)
	}
	return nil
}

const selectRun = `SELECT run_id, seed, mode, outcome, elapsed, ticks, wave, stats, finished_at FROM horde_runs`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row rowScanner) (RunResult, error) {
	var (
		res      RunResult
		stats    []byte
		finished int64
	)
	if err := row.Scan(&res.RunID, &res.Seed, &res.Mode, &res.Outcome, &res.Elapsed,
		&res.Ticks, &res.Wave, &stats, &finished); err != nil {
		return res, err
	}
	if err := json.Unmarshal(stats, &res.Stats); err != nil {
		return res, fmt.Errorf("повреждённая статистика забега %s: %w", res.RunID, err)
	}
	res.FinishedAt = time.Unix(0, finished).UTC()
	return res, nil
}

func (r *MariaRunRepo) Load(ctx context.Context, runID string) (RunResult, bool, error) {
	res, err := scanRun(r.db.QueryRowContext(ctx, selectRun+` WHERE run_id = ?`, runID))
	if err == sql.ErrNoRows {
		return RunResult{}, false, nil
	}
	if err != nil {
		return RunResult{}, false, fmt.Errorf("ошибка загрузки забега %s: %w", runID, err)
	}
	return res, true, nil
}

func (r *MariaRunRepo) Recent(ctx context.Context, n int) ([]RunResult, error) {
	if n <= 0 {
		return nil, nil
	}
	rows, err := r.db.QueryContext(ctx, selectRun+` ORDER BY finished_at DESC, run_id DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("ошибка выборки забегов: %w", err)
	}
	defer rows.Close()

	var out []RunResult
	for rows.Next() {
		res, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, rows.Err()
}

func (r *MariaRunRepo) Delete(ctx context.Context, runID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM horde_runs WHERE run_id = ?`, runID); err != nil {
		return fmt.Errorf("ошибка удаления забега %s: %w", runID, err)
	}
	return nil
}

// Close закрывает соединение с базой данных.
func (r *MariaRunRepo) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}
