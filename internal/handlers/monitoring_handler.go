package handlers

import (
	"net/http"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
)

// MonitoringHandler exposes host-level stats for the ops dashboard
type MonitoringHandler struct{}

func NewMonitoringHandler() *MonitoringHandler {
	return &MonitoringHandler{}
}

// GetSystemStats returns current CPU, memory, disk and runtime figures
func (h *MonitoringHandler) GetSystemStats(w http.ResponseWriter, r *http.Request) {
	v, _ := mem.VirtualMemory()
	c, _ := cpu.Percent(0, false)
	d, _ := disk.Usage("/")

	cpuPercent := 0.0
	if len(c) > 0 {
		cpuPercent = c[0]
	}

	hostInfo, _ := host.Info()
	uptime := time.Duration(0)
	hostname := ""
	if hostInfo != nil {
		uptime = time.Duration(hostInfo.Uptime) * time.Second
		hostname = hostInfo.Hostname
	}

	memUsedPercent := 0.0
	var memUsedMB, memTotalMB float64
	if v != nil {
		memUsedPercent = v.UsedPercent
		memUsedMB = float64(v.Used) / 1024 / 1024
		memTotalMB = float64(v.Total) / 1024 / 1024
	}

	diskUsedPercent := 0.0
	if d != nil {
		diskUsedPercent = d.UsedPercent
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"hostname":          hostname,
		"uptime_seconds":    int64(uptime.Seconds()),
		"cpu_percent":       cpuPercent,
		"memory_percent":    memUsedPercent,
		"memory_used_mb":    memUsedMB,
		"memory_total_mb":   memTotalMB,
		"disk_percent":      diskUsedPercent,
		"goroutines":        runtime.NumGoroutine(),
		"go_version":        runtime.Version(),
		"collected_at_unix": time.Now().Unix(),
	})
}
