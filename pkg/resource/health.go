// pkg/resource/health.go
package resource

import "fmt"

// Check reports every limit currently exceeded: memory, tracked goroutines
// above 80% of the limit, and gauges at or past their threshold. An empty
// result means healthy.
func (rm *ResourceManager) Check() []error {
	var problems []error

	if err := rm.CheckMemoryUsage(); err != nil {
		problems = append(problems, err)
	}

	goroutineThreshold := int64(float64(rm.maxGoroutines) * 0.8)
	if count := rm.GetGoroutineCount(); count > goroutineThreshold {
		problems = append(problems, fmt.Errorf("goroutine count %d exceeds 80%% threshold (%d/%d)",
			count, goroutineThreshold, rm.maxGoroutines))
	}

	for _, name := range rm.gaugeNames() {
		rm.mu.RLock()
		g := rm.gauges[name]
		rm.mu.RUnlock()
		if v := g.Read(); g.WarnAt > 0 && v >= g.WarnAt {
			problems = append(problems, fmt.Errorf("%s is %d, warning threshold %d", name, v, g.WarnAt))
		}
	}
	return problems
}
