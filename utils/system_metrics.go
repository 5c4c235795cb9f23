package utils

import (
	"log"
	"runtime"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"
)

type SystemStats struct {
	CPUPercent    float64 `json:"cpu_percent"`
	MemoryPercent float64 `json:"memory_percent"`
	MemoryUsedMB  uint64  `json:"memory_used_mb"`
	Goroutines    int     `json:"goroutines"`
}

// GetSystemStats returns a point-in-time snapshot of host resource usage.
func GetSystemStats() SystemStats {
	stats := SystemStats{Goroutines: runtime.NumGoroutine()}

	if percentages, err := cpu.Percent(0, false); err != nil {
		log.Printf("Error getting CPU usage: %v", err)
	} else if len(percentages) > 0 {
		stats.CPUPercent = percentages[0]
	}

	if vm, err := mem.VirtualMemory(); err != nil {
		log.Printf("Error getting memory usage: %v", err)
	} else {
		stats.MemoryPercent = vm.UsedPercent
		stats.MemoryUsedMB = vm.Used / 1024 / 1024
	}

	return stats
}
