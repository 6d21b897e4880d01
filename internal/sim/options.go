package sim

import (
	"math/rand"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// UpgradeResolver решает выбор улучшения синхронно, без участия человека.
// Возвращает индекс в choices.
type UpgradeResolver func(player PlayerView, choices []UpgradeChoice) int

// Observer получает каждый снимок после тика (метрики)
type Observer interface {
	ObserveTick(snap *Snapshot, took time.Duration)
}

// Publisher рассылает события тика наружу
type Publisher interface {
	Publish(runID string, events []Event)
}

// Option настройка симуляции
type Option func(*Simulation)

// WithRand задаёт источник случайности (детерминированные тесты)
func WithRand(rng *rand.Rand) Option {
	return func(s *Simulation) {
		s.rng = rng
	}
}

// WithSeed создаёт источник случайности из сида
func WithSeed(seed int64) Option {
	return WithRand(rand.New(rand.NewSource(seed)))
}

// WithUpgradeResolver включает автоматический выбор улучшений
func WithUpgradeResolver(r UpgradeResolver) Option {
	return func(s *Simulation) {
		s.resolver = r
	}
}

// WithObserver добавляет наблюдателя тиков
func WithObserver(o Observer) Option {
	return func(s *Simulation) {
		s.observers = append(s.observers, o)
	}
}

// WithPublisher добавляет получателя событий
func WithPublisher(p Publisher) Option {
	return func(s *Simulation) {
		s.publishers = append(s.publishers, p)
	}
}

// WithTracer задаёт трассировщик для спанов тиков
func WithTracer(t trace.Tracer) Option {
	return func(s *Simulation) {
		s.tracer = t
	}
}

// WithRunID задаёт идентификатор забега вместо случайного
func WithRunID(id string) Option {
	return func(s *Simulation) {
		s.runID = id
	}
}
