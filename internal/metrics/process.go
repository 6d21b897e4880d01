package metrics

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/process"
)

// ProcessMetrics нагрузка процесса, на котором крутятся прогоны
type ProcessMetrics struct {
	StartTime time.Time
	proc      *process.Process
}

// NewProcessMetrics создаёт метрики процесса. reg может быть nil,
// тогда показатели доступны только через методы.
func NewProcessMetrics(reg prometheus.Registerer) (*ProcessMetrics, error) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil, err
	}
	pm := &ProcessMetrics{StartTime: time.Now(), proc: proc}
	if reg == nil {
		return pm, nil
	}

	err = reg.Register(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "horde",
		Subsystem: "process",
		Name:      "cpu_percent",
		Help:      "Загрузка CPU процессом.",
	}, func() float64 {
		v, _ := pm.CPUUsage()
		return v
	}))
	if err != nil {
		return nil, err
	}
	err = reg.Register(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "horde",
		Subsystem: "process",
		Name:      "heap_alloc_mb",
		Help:      "Занятая куча в мегабайтах.",
	}, pm.MemoryUsage))
	if err != nil {
		return nil, err
	}
	return pm, nil
}

// Uptime возвращает время работы в читаемом виде
func (pm *ProcessMetrics) Uptime() string {
	uptime := time.Since(pm.StartTime)

	hours := int(uptime.Hours())
	minutes := int(uptime.Minutes()) % 60
	seconds := int(uptime.Seconds()) % 60

	switch {
	case hours > 0:
		return fmt.Sprintf("%dч %dм %dс", hours, minutes, seconds)
	case minutes > 0:
		return fmt.Sprintf("%dм %dс", minutes, seconds)
	default:
		return fmt.Sprintf("%dс", seconds)
	}
}

// MemoryUsage возвращает занятую кучу в MB
func (pm *ProcessMetrics) MemoryUsage() float64 {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return float64(m.HeapAlloc) / 1024 / 1024
}

// CPUUsage использование CPU процессом в процентах
func (pm *ProcessMetrics) CPUUsage() (float64, error) {
	cpuPercent, err := pm.proc.CPUPercent()
	if err != nil {
		// Если не удалось получить метрику процесса, попробуем системную
		cpuPercents, err := cpu.Percent(100*time.Millisecond, false)
		if err != nil || len(cpuPercents) == 0 {
			return 0, err
		}
		return cpuPercents[0], nil
	}
	return cpuPercent, nil
}

// RSS резидентная память процесса в MB
func (pm *ProcessMetrics) RSS() (float64, error) {
	info, err := pm.proc.MemoryInfo()
	if err != nil {
		return 0, err
	}
	return float64(info.RSS) / 1024 / 1024, nil
}
