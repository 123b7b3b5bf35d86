package infrastructure

import (
	"context"
	"runtime"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// SnapshotFunc reports the cached dataset: its row count, when it was
// loaded and whether one is cached at all.
type SnapshotFunc func() (rows int, loadedAt time.Time, ok bool)

// SystemStats is a point-in-time view of the process and the cached dataset.
type SystemStats struct {
	GoRoutines     int           `json:"goroutines"`
	HeapAllocBytes uint64        `json:"heap_alloc_bytes"`
	GCCount        uint32        `json:"gc_count"`
	Uptime         time.Duration `json:"-"`
	UptimeSeconds  float64       `json:"uptime_seconds"`
	SnapshotRows   int           `json:"snapshot_rows"`
	SnapshotAge    time.Duration `json:"-"`
	SnapshotAgeSec float64       `json:"snapshot_age_seconds"`
	SnapshotCached bool          `json:"snapshot_cached"`
}

// SystemMetrics samples SystemStats and publishes them as observable
// gauges on every collection.
type SystemMetrics struct {
	startTime time.Time
	snapshot  SnapshotFunc
	now       func() time.Time
	reg       metric.Registration
}

// NewSystemMetrics registers the gauges on meter. snapshot may be nil.
func NewSystemMetrics(meter metric.Meter, startTime time.Time, snapshot SnapshotFunc) (*SystemMetrics, error) {
	sm := &SystemMetrics{startTime: startTime, snapshot: snapshot, now: time.Now}

	goroutines, err := meter.Int64ObservableGauge(
		"system_goroutines",
		metric.WithDescription("Number of active goroutines"),
	)
	if err != nil {
		return nil, err
	}

	heap, err := meter.Int64ObservableGauge(
		"system_heap_alloc_bytes",
		metric.WithDescription("Bytes of allocated heap objects"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, err
	}

	uptime, err := meter.Float64ObservableGauge(
		"system_process_uptime_seconds",
		metric.WithDescription("Process uptime in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	rows, err := meter.Int64ObservableGauge(
		"dataset_snapshot_rows",
		metric.WithDescription("Rows in the cached merged dataset"),
	)
	if err != nil {
		return nil, err
	}

	age, err := meter.Float64ObservableGauge(
		"dataset_snapshot_age_seconds",
		metric.WithDescription("Seconds since the cached dataset was loaded"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	sm.reg, err = meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		stats := sm.Collect()
		o.ObserveInt64(goroutines, int64(stats.GoRoutines))
		o.ObserveInt64(heap, int64(stats.HeapAllocBytes))
		o.ObserveFloat64(uptime, stats.UptimeSeconds)
		if stats.SnapshotCached {
			o.ObserveInt64(rows, int64(stats.SnapshotRows))
			o.ObserveFloat64(age, stats.SnapshotAgeSec)
		}
		return nil
	}, goroutines, heap, uptime, rows, age)
	if err != nil {
		return nil, err
	}

	return sm, nil
}

// Collect samples the current stats.
func (sm *SystemMetrics) Collect() SystemStats {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	now := sm.now()
	stats := SystemStats{
		GoRoutines:     runtime.NumGoroutine(),
		HeapAllocBytes: mem.HeapAlloc,
		GCCount:        mem.NumGC,
		Uptime:         now.Sub(sm.startTime),
	}
	stats.UptimeSeconds = stats.Uptime.Seconds()

	if sm.snapshot != nil {
		if n, loadedAt, ok := sm.snapshot(); ok {
			stats.SnapshotCached = true
			stats.SnapshotRows = n
			stats.SnapshotAge = now.Sub(loadedAt)
			stats.SnapshotAgeSec = stats.SnapshotAge.Seconds()
		}
	}
	return stats
}

// Stop unregisters the gauge callback.
func (sm *SystemMetrics) Stop() error {
	if sm.reg == nil {
		return nil
	}
	return sm.reg.Unregister()
}
