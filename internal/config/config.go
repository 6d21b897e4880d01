package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config корневая структура конфигурации раннера (не баланса).
// Таблицы баланса живут отдельно, см. Balance.
type Config struct {
	Metrics   MetricsConfig   `yaml:"metrics"`
	API       APIConfig       `yaml:"api"`
	Redis     RedisConfig     `yaml:"redis"`
	Storage   StorageConfig   `yaml:"storage"`
	NATS      NATSConfig      `yaml:"nats"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Logging   LoggingConfig   `yaml:"logging"`
}

type MetricsConfig struct {
	Port int `yaml:"port"`
}

type APIConfig struct {
	Port int `yaml:"port"`
	// Secret ключ подписи токенов в base64; пусто: случайный на запуск
	Secret string `yaml:"secret"`
	// Operators имя → bcrypt-хеш пароля (см. simrun -hash-password)
	Operators map[string]string `yaml:"operators"`
}

// StorageConfig хранилища итогов кроме Redis
type StorageConfig struct {
	BadgerDir string `yaml:"badger_dir"`
	MariaDSN  string `yaml:"maria_dsn"`
	MongoURI  string `yaml:"mongo_uri"`
}

type NATSConfig struct {
	URL    string `yaml:"url"`
	Stream string `yaml:"stream"`
}

type RedisConfig struct {
	Addr      string `yaml:"addr"`
	Password  string `yaml:"password"`
	DB        int    `yaml:"db"`
	KeyPrefix string `yaml:"key_prefix"`
}

type TelemetryConfig struct {
	Enabled     bool    `yaml:"enabled"`
	ServiceName string  `yaml:"service_name"`
	Endpoint    string  `yaml:"endpoint"`
	Insecure    bool    `yaml:"insecure"`
	SampleRatio float64 `yaml:"sample_ratio"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
	Dir   string `yaml:"dir"`
	// Уровни отдельных компонентов: sim, combat, wave, storage, http...
	Components map[string]string `yaml:"components"`
}

// GetMetricsPort возвращает порт Prometheus метрик с поддержкой fallback значений
func (m *MetricsConfig) GetMetricsPort() int {
	return getPortWithEnvFallback(m.Port, "HORDE_METRICS_PORT", 2112)
}

// GetAPIPort порт REST API: config -> env -> 0 (выключен)
func (a *APIConfig) GetAPIPort() int {
	return getPortWithEnvFallback(a.Port, "HORDE_API_PORT", 0)
}

// GetURL адрес NATS: config -> env -> пусто (шина в памяти)
func (n *NATSConfig) GetURL() string {
	return getStringWithEnvFallback(n.URL, "HORDE_NATS_URL", "")
}

// GetAddr возвращает адрес Redis: config -> env -> пусто (хранилище в памяти)
func (r *RedisConfig) GetAddr() string {
	return getStringWithEnvFallback(r.Addr, "HORDE_REDIS_ADDR", "")
}

// GetServiceName имя сервиса для трассировки
func (t *TelemetryConfig) GetServiceName() string {
	return getStringWithEnvFallback(t.ServiceName, "OTEL_SERVICE_NAME", "horde-simrun")
}

// getPortWithEnvFallback возвращает порт с приоритетом: config -> env -> default
func getPortWithEnvFallback(configPort int, envVar string, defaultPort int) int {
	// Если порт задан в конфиге и больше 0, используем его
	if configPort > 0 {
		return configPort
	}

	// Пробуем прочитать из environment variable
	if envVal := os.Getenv(envVar); envVal != "" {
		if port, err := strconv.Atoi(envVal); err == nil && port > 0 {
			return port
		}
	}

	return defaultPort
}

func getStringWithEnvFallback(configVal, envVar, defaultVal string) string {
	if configVal != "" {
		return configVal
	}
	if envVal := os.Getenv(envVar); envVal != "" {
		return envVal
	}
	return defaultVal
}

// Load читает YAML файл конфигурации раннера.
// Если path == "", пытается прочитать из ENV HORDE_CONFIG или возвращает пустой Config.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("HORDE_CONFIG")
		if path == "" {
			return &Config{}, nil // конфиг не задан: использовать дефолты
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("чтение конфигурации %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("разбор конфигурации %s: %w", path, err)
	}

	return &cfg, nil
}
