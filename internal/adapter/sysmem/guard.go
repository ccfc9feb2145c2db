// Package sysmem provides the memory-pressure hook the classification engine
// calls between observations.
package sysmem

import (
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shirou/gopsutil/v4/mem"

	"github.com/couchcryptid/storm-data-dsg/internal/domain"
)

// UsageFunc reports the share of system memory in use, in percent.
type UsageFunc func() (float64, error)

// VirtualMemoryUsage reads system memory usage through gopsutil.
func VirtualMemoryUsage() (float64, error) {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return 0, err
	}
	return vm.UsedPercent, nil
}

// Guard fails with domain.ErrResourceExhausted once system memory usage reaches
// the configured threshold.
type Guard struct {
	maxUsedPercent float64
	usage          UsageFunc
	gauge          prometheus.Gauge
	logger         *slog.Logger
}

// NewGuard creates a Guard. A nil usage defaults to VirtualMemoryUsage; gauge
// may be nil.
func NewGuard(maxUsedPercent float64, usage UsageFunc, gauge prometheus.Gauge, logger *slog.Logger) *Guard {
	if usage == nil {
		usage = VirtualMemoryUsage
	}
	return &Guard{
		maxUsedPercent: maxUsedPercent,
		usage:          usage,
		gauge:          gauge,
		logger:         logger,
	}
}

// Check reports memory pressure. A failed reading is logged and treated as
// no pressure.
func (g *Guard) Check() error {
	used, err := g.usage()
	if err != nil {
		g.logger.Warn("memory usage unavailable", "error", err)
		return nil
	}
	if g.gauge != nil {
		g.gauge.Set(used)
	}
	if used >= g.maxUsedPercent {
		return fmt.Errorf("%w: memory %.1f%% used, limit %.1f%%", domain.ErrResourceExhausted, used, g.maxUsedPercent)
	}
	return nil
}
