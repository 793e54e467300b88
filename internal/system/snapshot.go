// Package system collects a point-in-time resource snapshot of the host a
// worker runs on, for inclusion in status reports.
package system

import (
	"context"
	"os"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"

	"github.com/mediajob/worker-sdk/internal/exchange"
)

// Collector gathers exchange.SystemSnapshot values on demand.
type Collector struct {
	hostname string
}

// NewCollector resolves the host's name once at startup.
func NewCollector() *Collector {
	hostname, _ := os.Hostname()
	return &Collector{hostname: hostname}
}

// Snapshot gathers current CPU and memory usage. Failures from individual
// gopsutil calls are swallowed and leave the corresponding field zero,
// since a status report is best-effort and must never block a worker on
// system-metrics unavailability.
func (c *Collector) Snapshot(ctx context.Context) exchange.SystemSnapshot {
	snap := exchange.SystemSnapshot{Hostname: c.hostname}

	if percents, err := cpu.PercentWithContext(ctx, 0, false); err == nil && len(percents) > 0 {
		snap.CPUPercent = percents[0]
	}

	if vmem, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		snap.MemoryUsed = vmem.Used
		snap.MemoryTotal = vmem.Total
	}

	return snap
}
