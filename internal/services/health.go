package services

import (
	"context"
	"os"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
)

type HealthSample struct {
	CapturedAt        time.Time `json:"captured_at"`
	Database          string    `json:"database"`
	UptimeSeconds     int64     `json:"uptime_seconds"`
	ProcessRSSBytes   int64     `json:"process_rss_bytes"`
	ProcessCPULoad    float64   `json:"process_cpu_load"`
	SystemCPULoad     float64   `json:"system_cpu_load"`
	SystemMemoryTotal int64     `json:"system_memory_total_bytes"`
	SystemMemoryUsed  int64     `json:"system_memory_used_bytes"`
	DiskTotalBytes    int64     `json:"disk_total_bytes"`
	DiskUsedBytes     int64     `json:"disk_used_bytes"`
}

type Pinger interface {
	Ping(ctx context.Context) error
}

// CaptureHealth reports database reachability and host usage. Host samples
// that fail leave their fields at zero.
func CaptureHealth(ctx context.Context, db Pinger, diskPath string, started time.Time) HealthSample {
	now := time.Now().UTC()
	sample := HealthSample{
		CapturedAt:    now,
		Database:      "ok",
		UptimeSeconds: int64(now.Sub(started).Seconds()),
	}
	if err := db.Ping(ctx); err != nil {
		sample.Database = "unreachable"
	}

	if proc, err := process.NewProcessWithContext(ctx, int32(os.Getpid())); err == nil {
		if rss, err := proc.MemoryInfoWithContext(ctx); err == nil && rss != nil {
			sample.ProcessRSSBytes = int64(rss.RSS)
		}
		if perc, err := proc.CPUPercentWithContext(ctx); err == nil {
			sample.ProcessCPULoad = perc / 100.0
		}
	}
	if memStat, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		sample.SystemMemoryTotal = int64(memStat.Total)
		sample.SystemMemoryUsed = int64(memStat.Total - memStat.Available)
	}
	diskStat, err := disk.UsageWithContext(ctx, diskPath)
	if err != nil {
		diskStat, err = disk.UsageWithContext(ctx, "/")
	}
	if err == nil {
		sample.DiskTotalBytes = int64(diskStat.Total)
		sample.DiskUsedBytes = int64(diskStat.Used)
	}
	if sysCPU, err := cpu.PercentWithContext(ctx, 0, false); err == nil && len(sysCPU) > 0 {
		sample.SystemCPULoad = sysCPU[0] / 100.0
	}
	return sample
}

// Healthy is true when the database answered.
func (h HealthSample) Healthy() bool {
	return h.Database == "ok"
}
