package logging

import (
	"fmt"
	"sort"
	"sync"
)

// Имена компонентов симуляции
const (
	ComponentSim         = "sim"
	ComponentCombat      = "combat"
	ComponentWave        = "wave"
	ComponentProgression = "progression"
	ComponentStorage     = "storage"
)

// LoggerManager хранит логгеры компонентов и заданные для них уровни.
// Уровень можно задать до первого обращения к компоненту: он будет
// применён при создании логгера.
type LoggerManager struct {
	mu        sync.RWMutex
	loggers   map[string]*Logger
	overrides map[string]LogLevel
}

var (
	globalManager *LoggerManager
	managerOnce   sync.Once
)

// GetLoggerManager возвращает глобальный менеджер логгеров
func GetLoggerManager() *LoggerManager {
	managerOnce.Do(func() {
		globalManager = &LoggerManager{
			loggers:   make(map[string]*Logger),
			overrides: make(map[string]LogLevel),
		}
	})
	return globalManager
}

// GetLogger возвращает логгер компонента, создавая его при первом обращении
func (lm *LoggerManager) GetLogger(component string) (*Logger, error) {
	lm.mu.RLock()
	logger, exists := lm.loggers[component]
	lm.mu.RUnlock()
	if exists {
		return logger, nil
	}

	lm.mu.Lock()
	defer lm.mu.Unlock()
	if logger, exists := lm.loggers[component]; exists {
		return logger, nil
	}

	logger, err := NewLogger(component)
	if err != nil {
		return nil, fmt.Errorf("логгер %s: %w", component, err)
	}
	if lvl, ok := lm.overrides[component]; ok {
		logger.minConsoleLevel = lvl
	}
	lm.loggers[component] = logger
	return logger, nil
}

// SetLogLevel меняет уровни уже созданного логгера компонента
func (lm *LoggerManager) SetLogLevel(component string, consoleLevel, fileLevel LogLevel) error {
	lm.mu.RLock()
	logger, exists := lm.loggers[component]
	lm.mu.RUnlock()
	if !exists {
		return fmt.Errorf("логгер компонента %s не создан", component)
	}

	logger.mu.Lock()
	logger.minConsoleLevel = consoleLevel
	logger.minFileLevel = fileLevel
	logger.mu.Unlock()
	return nil
}

// Override запоминает консольный уровень компонента и применяет его,
// если логгер уже создан.
func (lm *LoggerManager) Override(component string, level LogLevel) {
	lm.mu.Lock()
	lm.overrides[component] = level
	logger := lm.loggers[component]
	lm.mu.Unlock()

	if logger != nil {
		logger.mu.Lock()
		logger.minConsoleLevel = level
		logger.mu.Unlock()
	}
}

// SetAllLevels меняет консольный уровень у логгера по умолчанию и у всех
// компонентов без собственного уровня.
func (lm *LoggerManager) SetAllLevels(level LogLevel) {
	SetDefaultLevel(level)

	lm.mu.RLock()
	defer lm.mu.RUnlock()
	for name, l := range lm.loggers {
		if _, pinned := lm.overrides[name]; pinned {
			continue
		}
		l.mu.Lock()
		l.minConsoleLevel = level
		l.mu.Unlock()
	}
}

// Components возвращает отсортированный список созданных логгеров
func (lm *LoggerManager) Components() []string {
	lm.mu.RLock()
	defer lm.mu.RUnlock()

	names := make([]string, 0, len(lm.loggers))
	for name := range lm.loggers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CloseAll закрывает файлы всех логгеров
func (lm *LoggerManager) CloseAll() error {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	var firstErr error
	for name, l := range lm.loggers {
		if err := l.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("логгер %s: %w", name, err)
		}
	}
	lm.loggers = make(map[string]*Logger)
	return firstErr
}

func (lm *LoggerManager) forEach(fn func(*Logger)) {
	lm.mu.RLock()
	defer lm.mu.RUnlock()
	for _, l := range lm.loggers {
		fn(l)
	}
}

// GetComponentLogger возвращает логгер компонента; при ошибке создания
// файла возвращается консольный логгер.
func GetComponentLogger(component string) *Logger {
	logger, err := GetLoggerManager().GetLogger(component)
	if err == nil {
		return logger
	}
	consoleOutMu.RLock()
	out := consoleOut
	consoleOutMu.RUnlock()
	fallback := &Logger{component: component, minConsoleLevel: defaultLogger.consoleLevel(), minFileLevel: ERROR}
	fallback.setConsole(out)
	return fallback
}

func GetSimLogger() *Logger { return GetComponentLogger(ComponentSim) }

func GetCombatLogger() *Logger { return GetComponentLogger(ComponentCombat) }

func GetWaveLogger() *Logger { return GetComponentLogger(ComponentWave) }

func GetProgressionLogger() *Logger { return GetComponentLogger(ComponentProgression) }

func GetStorageLogger() *Logger { return GetComponentLogger(ComponentStorage) }
