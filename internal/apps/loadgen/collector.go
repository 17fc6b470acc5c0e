package loadgen

import (
	"context"
	"fmt"
	"math"
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/cpu"
	"github.com/shirou/gopsutil/mem"

	"github.com/sbilibin2017/telemetry-sidecar/internal/models"
)

// CollectorFunc returns the metrics of one batch.
type CollectorFunc func(ctx context.Context) ([]*models.Metric, error)

// CollectHost reads memory and CPU usage of the host and the Go runtime
// statistics of this process. All metrics share the batch timestamp in
// milliseconds and carry the host name as a tag.
func CollectHost(ctx context.Context) ([]*models.Metric, error) {
	host, err := os.Hostname()
	if err != nil {
		host = "unknown"
	}
	tags := models.Tags{{Key: "host", Value: host}}
	ts := uint64(time.Now().UnixMilli())

	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("read memory stats: %w", err)
	}

	percents, err := cpu.PercentWithContext(ctx, 0, false)
	if err != nil {
		return nil, fmt.Errorf("read cpu stats: %w", err)
	}
	var usage uint64
	if len(percents) > 0 {
		usage = uint64(math.Round(percents[0]))
	}

	metrics := []*models.Metric{
		newMetric("mem", "total", tags, vm.Total, ts),
		newMetric("mem", "available", tags, vm.Available, ts),
		newMetric("mem", "used", tags, vm.Used, ts),
		newMetric("cpu", "usage", tags, usage, ts),
	}

	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	for _, m := range []struct {
		name  string
		value uint64
	}{
		{"go_heap_alloc_bytes", ms.HeapAlloc},
		{"go_heap_objects", ms.HeapObjects},
		{"go_gc_total", uint64(ms.NumGC)},
		{"go_goroutines", uint64(runtime.NumGoroutine())},
	} {
		metrics = append(metrics, newMetric(m.name, "", tags, m.value, ts))
	}

	return metrics, nil
}

func newMetric(name, field string, tags models.Tags, value, ts uint64) *models.Metric {
	return &models.Metric{
		Name:      name,
		Field:     field,
		Tags:      tags,
		Value:     value,
		Timestamp: &ts,
	}
}
