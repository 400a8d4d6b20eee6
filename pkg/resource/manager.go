// pkg/resource/manager.go
package resource

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/opd-ai/go-hillclimb/pkg/config"
	"github.com/opd-ai/go-hillclimb/pkg/logging"
)

// ResourceManager tracks the goroutines it starts and periodically checks
// memory, goroutine count and any registered gauges against their limits.
type ResourceManager struct {
	maxMemoryMB     int64
	maxGoroutines   int64
	shutdownTimeout time.Duration
	checkInterval   time.Duration

	goroutineCount int64
	memoryUsageMB  int64
	panics         int64

	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}
	mu      sync.RWMutex
	running bool
	logger  *logging.Logger

	gauges map[string]Gauge

	lastCheck time.Time
}

// Gauge is a named reading with a warning threshold.
type Gauge struct {
	Read   func() int
	WarnAt int
}

// NewResourceManager creates a manager with the limits in cfg.
func NewResourceManager(cfg config.MonitorConfig, logger *logging.Logger) *ResourceManager {
	ctx, cancel := context.WithCancel(context.Background())
	if logger == nil {
		logger = logging.Nop()
	}

	return &ResourceManager{
		maxMemoryMB:     cfg.MaxMemoryMB,
		maxGoroutines:   int64(cfg.MaxGoroutines),
		shutdownTimeout: cfg.ShutdownTimeout,
		checkInterval:   cfg.CheckInterval,
		ctx:             ctx,
		cancel:          cancel,
		done:            make(chan struct{}),
		logger:          logger,
		gauges:          make(map[string]Gauge),
	}
}

// AddGauge registers a reading checked on every monitoring pass.
func (rm *ResourceManager) AddGauge(name string, g Gauge) {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	rm.gauges[name] = g
}

// Start begins the monitoring loop.
func (rm *ResourceManager) Start() error {
	rm.mu.Lock()
	if rm.running {
		rm.mu.Unlock()
		return fmt.Errorf("resource manager already running")
	}
	rm.running = true
	rm.mu.Unlock()

	go rm.monitoringLoop()

	rm.logger.Info(rm.ctx, "Resource manager started",
		"max_memory_mb", rm.maxMemoryMB,
		"max_goroutines", rm.maxGoroutines,
		"check_interval", rm.checkInterval,
	)
	return nil
}

// Go starts fn on a tracked goroutine with panic recovery. It fails when
// the goroutine limit is reached.
func (rm *ResourceManager) Go(ctx context.Context, name string, fn func(context.Context)) error {
	current := atomic.LoadInt64(&rm.goroutineCount)
	if current >= rm.maxGoroutines {
		rm.logger.Warn(ctx, "Goroutine limit exceeded",
			"current", current,
			"limit", rm.maxGoroutines,
			"name", name,
		)
		return fmt.Errorf("goroutine limit exceeded: %d/%d", current, rm.maxGoroutines)
	}

	atomic.AddInt64(&rm.goroutineCount, 1)

	go func() {
		defer atomic.AddInt64(&rm.goroutineCount, -1)
		defer func() {
			if r := recover(); r != nil {
				atomic.AddInt64(&rm.panics, 1)
				rm.logger.Error(ctx, "Goroutine panic",
					fmt.Errorf("panic: %v", r),
					"name", name,
				)
			}
		}()

		rm.logger.Debug(ctx, "Goroutine started", "name", name)
		fn(ctx)
	}()

	return nil
}

// CheckMemoryUsage checks current memory usage against the limit.
func (rm *ResourceManager) CheckMemoryUsage() error {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	currentMB := int64(m.Alloc / 1024 / 1024)
	atomic.StoreInt64(&rm.memoryUsageMB, currentMB)

	if currentMB > rm.maxMemoryMB {
		return fmt.Errorf("memory usage %dMB exceeds limit %dMB", currentMB, rm.maxMemoryMB)
	}
	return nil
}

// GetGoroutineCount returns the number of tracked goroutines still running.
func (rm *ResourceManager) GetGoroutineCount() int64 {
	return atomic.LoadInt64(&rm.goroutineCount)
}

// GetMemoryUsage returns the memory usage in MB from the last check.
func (rm *ResourceManager) GetMemoryUsage() int64 {
	return atomic.LoadInt64(&rm.memoryUsageMB)
}

// GetResourceStats returns current resource usage statistics.
func (rm *ResourceManager) GetResourceStats() ResourceStats {
	rm.mu.RLock()
	defer rm.mu.RUnlock()

	stats := ResourceStats{
		GoroutineCount: rm.GetGoroutineCount(),
		MaxGoroutines:  rm.maxGoroutines,
		MemoryUsageMB:  rm.GetMemoryUsage(),
		MaxMemoryMB:    rm.maxMemoryMB,
		Panics:         atomic.LoadInt64(&rm.panics),
		LastCheck:      rm.lastCheck,
		Gauges:         make(map[string]int, len(rm.gauges)),
	}
	for name, g := range rm.gauges {
		stats.Gauges[name] = g.Read()
	}
	return stats
}

// ResourceStats contains resource usage statistics.
type ResourceStats struct {
	GoroutineCount int64          `json:"goroutine_count"`
	MaxGoroutines  int64          `json:"max_goroutines"`
	MemoryUsageMB  int64          `json:"memory_usage_mb"`
	MaxMemoryMB    int64          `json:"max_memory_mb"`
	Panics         int64          `json:"panics"`
	LastCheck      time.Time      `json:"last_check"`
	Gauges         map[string]int `json:"gauges"`
}

// Shutdown stops the monitoring loop and waits for tracked goroutines,
// giving up after the configured timeout.
func (rm *ResourceManager) Shutdown(ctx context.Context) error {
	rm.mu.Lock()
	wasRunning := rm.running
	rm.running = false
	rm.mu.Unlock()

	rm.logger.Info(ctx, "Shutting down resource manager")
	rm.cancel()

	shutdownCtx, cancel := context.WithTimeout(ctx, rm.shutdownTimeout)
	defer cancel()

	if wasRunning {
		select {
		case <-rm.done:
		case <-shutdownCtx.Done():
			rm.logger.Warn(ctx, "Resource manager monitoring loop did not stop gracefully")
		}
	}

	return rm.waitForGoroutines(shutdownCtx)
}

// waitForGoroutines waits for all tracked goroutines to finish or timeout.
func (rm *ResourceManager) waitForGoroutines(ctx context.Context) error {
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	for {
		count := rm.GetGoroutineCount()
		if count == 0 {
			rm.logger.Info(ctx, "All tracked goroutines finished")
			return nil
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			remaining := rm.GetGoroutineCount()
			rm.logger.Warn(ctx, "Shutdown timeout exceeded with goroutines still running",
				"remaining", remaining,
			)
			return fmt.Errorf("shutdown timeout: %d goroutines still running", remaining)
		}
	}
}

// monitoringLoop runs periodic resource checks.
func (rm *ResourceManager) monitoringLoop() {
	defer close(rm.done)

	ticker := time.NewTicker(rm.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rm.performResourceChecks()
		case <-rm.ctx.Done():
			rm.logger.Info(rm.ctx, "Resource monitoring loop stopping")
			return
		}
	}
}

// performResourceChecks executes one monitoring pass.
func (rm *ResourceManager) performResourceChecks() {
	for _, err := range rm.Check() {
		rm.logger.Warn(rm.ctx, "Resource limit exceeded", "error", err)
	}

	rm.mu.Lock()
	rm.lastCheck = time.Now()
	rm.mu.Unlock()

	rm.logger.Debug(rm.ctx, "Resource usage check",
		"goroutines", rm.GetGoroutineCount(),
		"max_goroutines", rm.maxGoroutines,
		"memory_mb", rm.GetMemoryUsage(),
		"max_memory_mb", rm.maxMemoryMB,
	)
}

// gaugeNames returns the registered gauge names in a stable order.
func (rm *ResourceManager) gaugeNames() []string {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	names := make([]string, 0, len(rm.gauges))
	for name := range rm.gauges {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
