package bench

import (
	"os"
	"runtime"

	"github.com/shirou/gopsutil/v3/process"
)

// ResourceUsage is a point-in-time view of the process footprint.
type ResourceUsage struct {
	RSS       uint64 `json:"rss_bytes"`
	VMS       uint64 `json:"vms_bytes"`
	HeapAlloc uint64 `json:"heap_alloc_bytes"`
	NumGC     uint32 `json:"num_gc"`
}

// ResourceMonitor samples memory of the current process.
type ResourceMonitor struct {
	process *process.Process
}

// NewResourceMonitor creates a resource monitor. When the process cannot be
// inspected only Go runtime figures are reported.
func NewResourceMonitor() *ResourceMonitor {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		proc = nil
	}
	return &ResourceMonitor{process: proc}
}

// Sample returns current resource usage.
func (rm *ResourceMonitor) Sample() ResourceUsage {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)
	usage := ResourceUsage{
		HeapAlloc: memStats.HeapAlloc,
		NumGC:     memStats.NumGC,
	}
	if rm.process != nil {
		if memInfo, err := rm.process.MemoryInfo(); err == nil {
			usage.RSS = memInfo.RSS
			usage.VMS = memInfo.VMS
		}
	}
	return usage
}
