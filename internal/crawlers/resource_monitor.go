package crawlers

import (
	"runtime"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// MinPoolSize and MaxPoolSize bound every stage's worker pool, per the
// pipeline's resource model: default to the number of cores, clamped to
// [2, 32].
const (
	MinPoolSize = 2
	MaxPoolSize = 32
)

// DefaultPoolSize returns runtime.NumCPU() clamped to [MinPoolSize,
// MaxPoolSize], the sizing rule shared by all three pipeline stages.
func DefaultPoolSize() int {
	n := runtime.NumCPU()
	if n < MinPoolSize {
		return MinPoolSize
	}
	if n > MaxPoolSize {
		return MaxPoolSize
	}
	return n
}

// ResourceMonitor samples system memory and CPU load in the background and
// reports whether it is safe to keep running at the configured pool sizes.
// Adapted from a headless-tab throttle into a generic "should we back off"
// signal the pipeline's worker pools can poll.
type ResourceMonitor struct {
	mu              sync.RWMutex
	totalMemory     uint64
	lastCPUPercent  float64
	cpuLoadPercent  int
	memSafetyMargin uint64

	cancel func()
}

// NewResourceMonitor builds a monitor with a CPU load ceiling (percent, 0
// disables the check) and a memory safety margin below which pools should
// shrink.
func NewResourceMonitor(cpuLoadPercent int, memSafetyMarginMB int) *ResourceMonitor {
	total := uint64(4 * 1024 * 1024 * 1024) // 4GB fallback
	if vm, err := mem.VirtualMemory(); err == nil {
		total = vm.Total
	} else {
		log.Warn().Err(err).Msg("failed to read system memory, assuming 4GB")
	}

	return &ResourceMonitor{
		totalMemory:     total,
		cpuLoadPercent:  cpuLoadPercent,
		memSafetyMargin: uint64(memSafetyMarginMB) * 1024 * 1024,
	}
}

// Start begins periodic sampling. Call Stop to release the background
// goroutine.
func (rm *ResourceMonitor) Start(interval time.Duration) {
	done := make(chan struct{})
	rm.cancel = sync.OnceFunc(func() { close(done) })

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				pct, err := cpu.Percent(0, false)
				if err != nil || len(pct) == 0 {
					continue
				}
				rm.mu.Lock()
				rm.lastCPUPercent = pct[0]
				rm.mu.Unlock()
			}
		}
	}()
}

// Stop halts background sampling. Safe to call more than once.
func (rm *ResourceMonitor) Stop() {
	if rm.cancel != nil {
		rm.cancel()
	}
}

// ShouldThrottle reports whether CPU load currently exceeds the configured
// ceiling. A worker pool can use this to skip spawning new work for a beat
// rather than adding more concurrency on top of an already saturated host.
func (rm *ResourceMonitor) ShouldThrottle() bool {
	if rm.cpuLoadPercent <= 0 {
		return false
	}
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	return rm.lastCPUPercent > float64(rm.cpuLoadPercent)
}

// AvailableMemory returns total system memory minus this process's current
// allocation and the configured safety margin. A negative result means the
// process is already over budget.
func (rm *ResourceMonitor) AvailableMemory() int64 {
	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)
	return int64(rm.totalMemory) - int64(stats.Alloc) - int64(rm.memSafetyMargin)
}
