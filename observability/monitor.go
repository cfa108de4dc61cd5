// Package observability reports the process's own resource usage while the
// messenger runs. The numbers land in the structured log; there is no
// metrics endpoint to scrape.
package observability

import (
	"context"
	"log/slog"
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/process"
)

// Snapshot is one reading of the process's resource usage.
type Snapshot struct {
	CPUPercent float64
	RAMPercent float32
	AllocMB    uint64
	NumGC      uint32
	Goroutines int
}

// ResourceMonitor samples the running process on a fixed interval.
type ResourceMonitor struct {
	log      *slog.Logger
	interval time.Duration
	pid      int32
}

func NewResourceMonitor(log *slog.Logger, interval time.Duration) *ResourceMonitor {
	return &ResourceMonitor{log: log, interval: interval, pid: int32(os.Getpid())}
}

// Run samples until the context ends. Sampling errors are logged and the
// loop keeps going; monitoring must never take the service down.
func (m *ResourceMonitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.log.Debug("resource monitor stopped")
			return
		case <-ticker.C:
			snapshot, err := m.Sample()
			if err != nil {
				m.log.Warn("resource sampling failed", "error", err)
				continue
			}
			m.log.Debug("resource usage",
				"cpu_percent", snapshot.CPUPercent,
				"ram_percent", snapshot.RAMPercent,
				"alloc_mb", snapshot.AllocMB,
				"num_gc", snapshot.NumGC,
				"goroutines", snapshot.Goroutines)
		}
	}
}

// Sample takes one reading of the current process.
func (m *ResourceMonitor) Sample() (Snapshot, error) {
	p, err := process.NewProcess(m.pid)
	if err != nil {
		return Snapshot{}, err
	}
	cpu, err := p.CPUPercent()
	if err != nil {
		return Snapshot{}, err
	}
	ram, err := p.MemoryPercent()
	if err != nil {
		return Snapshot{}, err
	}

	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)
	return Snapshot{
		CPUPercent: cpu,
		RAMPercent: ram,
		AllocMB:    stats.Alloc / 1024 / 1024,
		NumGC:      stats.NumGC,
		Goroutines: runtime.NumGoroutine(),
	}, nil
}
