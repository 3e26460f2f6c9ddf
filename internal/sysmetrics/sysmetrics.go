// Package sysmetrics samples host CPU, memory and disk, grounded on
// the teacher's use of gopsutil in internal/core/stats.go (CPU/mem for
// the analytics panel) and internal/filesystem/allocator.go's
// disk.Usage pre-download space check, generalized from
// disk-space-for-downloads into a capacity signal for
// GET /api/tasks/stats (SPEC_FULL.md §12).
package sysmetrics

import (
	"context"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
)

// Snapshot is a best-effort point-in-time host reading. Zero values
// mean the sample failed; callers treat this block as optional.
type Snapshot struct {
	CPUPercent   float64 `json:"cpuPercent"`
	MemUsedGB    float64 `json:"memUsedGB"`
	MemTotalGB   float64 `json:"memTotalGB"`
	MemPercent   float64 `json:"memPercent"`
	DiskFreeGB   float64 `json:"diskFreeGB"`
	DiskTotalGB  float64 `json:"diskTotalGB"`
	DiskPercent  float64 `json:"diskPercent"`
	SampleFailed bool    `json:"sampleFailed"`
}

const bytesPerGB = 1024 * 1024 * 1024

// SampleWithDisk takes one CPU/memory reading, plus free/total/percent
// for the filesystem holding path (the artifact temp dir, usually),
// with a short internal timeout so a slow or unsupported host platform
// never blocks the stats endpoint. An empty path skips the disk reading.
func SampleWithDisk(ctx context.Context, path string) Snapshot {
	ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()

	percents, cpuErr := cpu.PercentWithContext(ctx, 0, false)
	vmem, memErr := mem.VirtualMemoryWithContext(ctx)
	if cpuErr != nil || memErr != nil || len(percents) == 0 {
		return Snapshot{SampleFailed: true}
	}

	snap := Snapshot{
		CPUPercent: percents[0],
		MemUsedGB:  float64(vmem.Used) / bytesPerGB,
		MemTotalGB: float64(vmem.Total) / bytesPerGB,
		MemPercent: vmem.UsedPercent,
	}

	if path != "" {
		if usage, err := disk.UsageWithContext(ctx, path); err == nil {
			snap.DiskFreeGB = float64(usage.Free) / bytesPerGB
			snap.DiskTotalGB = float64(usage.Total) / bytesPerGB
			snap.DiskPercent = usage.UsedPercent
		}
	}

	return snap
}
