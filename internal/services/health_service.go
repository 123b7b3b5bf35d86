package services

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"propulsores/internal/infrastructure"
	"propulsores/pkg/contracts"
)

// Health states
const (
	StatusOK       = "ok"
	StatusReady    = "ready"
	StatusNotReady = "not_ready"
	StatusAlive    = "alive"
)

// HealthService provides health check functionality
type HealthService struct {
	version   string
	snapshot  infrastructure.SnapshotFunc
	ttl       time.Duration
	system    *infrastructure.SystemMetrics
	startTime time.Time
	now       func() time.Time
	logger    *slog.Logger
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string                      `json:"status"`
	Timestamp time.Time                   `json:"timestamp"`
	Version   string                      `json:"version"`
	Runtime   *infrastructure.SystemStats `json:"runtime,omitempty"`
	Services  map[string]ServiceHealth    `json:"services,omitempty"`
}

// ServiceHealth represents individual service health
type ServiceHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// VersionResponse is the body of /api/version.
type VersionResponse struct {
	contracts.VersionInfo
	UptimeSeconds float64 `json:"uptime_seconds"`
	StartTime     string  `json:"start_time"`
}

// NewHealthService creates a health service. system may be nil, in which
// case runtime stats are sampled without publishing metrics.
func NewHealthService(version string, snapshot infrastructure.SnapshotFunc, ttl time.Duration, system *infrastructure.SystemMetrics, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthService{
		version:   version,
		snapshot:  snapshot,
		ttl:       ttl,
		system:    system,
		startTime: time.Now(),
		now:       time.Now,
		logger:    infrastructure.WithComponent(logger, "health_service"),
	}
}

// HealthCheck returns overall health status
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    StatusOK,
		Timestamp: hs.now(),
		Version:   hs.version,
	}

	hs.logger.DebugContext(ctx, "health check completed", slog.String("status", status.Status))
	return status
}

// ReadinessCheck is ready once a dataset snapshot is cached. A snapshot
// past its TTL still counts; the next data request refreshes it.
func (hs *HealthService) ReadinessCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    StatusReady,
		Timestamp: hs.now(),
		Version:   hs.version,
		Services: map[string]ServiceHealth{
			"dataset": hs.checkDataset(),
		},
	}

	for _, svc := range status.Services {
		if svc.Status != StatusReady {
			status.Status = StatusNotReady
			break
		}
	}

	if status.Status != StatusReady {
		hs.logger.InfoContext(ctx, "readiness check failed", slog.Any("services", status.Services))
	}
	return status
}

// LivenessCheck returns liveness status with runtime stats
func (hs *HealthService) LivenessCheck(ctx context.Context) HealthStatus {
	stats := hs.stats()
	return HealthStatus{
		Status:    StatusAlive,
		Timestamp: hs.now(),
		Version:   hs.version,
		Runtime:   &stats,
	}
}

// Version returns version information
func (hs *HealthService) Version() VersionResponse {
	info := contracts.GetVersionInfo()
	if hs.version != "" {
		info.Version = hs.version
	}
	return VersionResponse{
		VersionInfo:   info,
		UptimeSeconds: hs.now().Sub(hs.startTime).Seconds(),
		StartTime:     hs.startTime.Format(time.RFC3339),
	}
}

func (hs *HealthService) stats() infrastructure.SystemStats {
	if hs.system != nil {
		return hs.system.Collect()
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	uptime := hs.now().Sub(hs.startTime)
	return infrastructure.SystemStats{
		GoRoutines:     runtime.NumGoroutine(),
		HeapAllocBytes: mem.HeapAlloc,
		GCCount:        mem.NumGC,
		Uptime:         uptime,
		UptimeSeconds:  uptime.Seconds(),
	}
}

func (hs *HealthService) checkDataset() ServiceHealth {
	if hs.snapshot == nil {
		return ServiceHealth{Status: StatusNotReady, Message: "dataset cache not configured"}
	}

	rows, loadedAt, ok := hs.snapshot()
	if !ok {
		return ServiceHealth{Status: StatusNotReady, Message: "dataset not loaded yet"}
	}

	age := hs.now().Sub(loadedAt).Round(time.Second)
	msg := fmt.Sprintf("%d rows loaded %s ago", rows, age)
	if hs.ttl > 0 && age > hs.ttl {
		msg += ", refresh due"
	}
	return ServiceHealth{Status: StatusReady, Message: msg}
}
