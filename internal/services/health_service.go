package services

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"crimecast/internal/forecast"
	"crimecast/pkg/contracts"
	"crimecast/pkg/contracts/domain"
)

// Readiness states reported by ReadinessCheck
const (
	StatusReady    = "ready"
	StatusNotReady = "not_ready"
)

// DatasetSource is what the health service needs to know about the data
type DatasetSource interface {
	Stats() domain.DatasetStats
}

// CacheSource reports forecast cache usage
type CacheSource interface {
	CacheStats() forecast.CacheStats
	FitCount() int64
}

// HealthService provides health check functionality
type HealthService struct {
	dataset   DatasetSource
	cache     CacheSource
	startTime time.Time
	logger    *slog.Logger
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Runtime   map[string]interface{} `json:"runtime,omitempty"`
	Services  map[string]interface{} `json:"services,omitempty"`
}

// ServiceHealth represents individual service health
type ServiceHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// DatasetHealth reports the loaded dataset
type DatasetHealth struct {
	ServiceHealth
	domain.DatasetStats
}

// CacheHealth reports forecast cache usage
type CacheHealth struct {
	ServiceHealth
	forecast.CacheStats
	Fits int64 `json:"fits"`
}

// NewHealthService creates a new health service
func NewHealthService(dataset DatasetSource, cache CacheSource, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("HealthService initialized",
		slog.String("version", contracts.Version),
		slog.String("model", contracts.ModelVersion))

	return &HealthService{
		dataset:   dataset,
		cache:     cache,
		startTime: time.Now(),
		logger:    logger,
	}
}

// HealthCheck returns overall health status
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   contracts.Version,
		Services:  map[string]interface{}{},
	}
	status.Services["dataset"] = hs.checkDataset()
	status.Services["forecast_cache"] = hs.checkCache()

	hs.logger.DebugContext(ctx, "HealthCheck: completed",
		slog.String("status", status.Status),
		slog.Duration("uptime", time.Since(hs.startTime)))

	return status
}

// ReadinessCheck is ready once a non-empty dataset is loaded
func (hs *HealthService) ReadinessCheck(ctx context.Context) HealthStatus {
	ds := hs.checkDataset()
	status := HealthStatus{
		Status:    StatusReady,
		Timestamp: time.Now(),
		Version:   contracts.Version,
		Services:  map[string]interface{}{"dataset": ds},
	}
	if ds.Status != StatusReady {
		status.Status = StatusNotReady
	}
	return status
}

// LivenessCheck returns liveness status
func (hs *HealthService) LivenessCheck(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    "alive",
		Timestamp: time.Now(),
		Version:   contracts.Version,
		Runtime: map[string]interface{}{
			"uptime":     time.Since(hs.startTime).Seconds(),
			"go_version": runtime.Version(),
			"goroutines": runtime.NumGoroutine(),
		},
	}
}

// Version returns version information
func (hs *HealthService) Version() map[string]interface{} {
	info := contracts.GetVersionInfo()
	return map[string]interface{}{
		"version":       info.Version,
		"model_version": contracts.ModelVersion,
		"api_version":   contracts.APIVersion,
		"build_time":    info.BuildTime,
		"git_commit":    info.GitCommit,
		"go_version":    runtime.Version(),
		"os":            runtime.GOOS,
		"arch":          runtime.GOARCH,
		"uptime":        time.Since(hs.startTime).Seconds(),
		"start_time":    hs.startTime.Format(time.RFC3339),
	}
}

func (hs *HealthService) checkDataset() DatasetHealth {
	if hs.dataset == nil {
		return DatasetHealth{ServiceHealth: ServiceHealth{Status: StatusNotReady, Message: "no dataset loaded"}}
	}
	stats := hs.dataset.Stats()
	h := DatasetHealth{ServiceHealth: ServiceHealth{Status: StatusReady}, DatasetStats: stats}
	if stats.States == 0 {
		h.Status = StatusNotReady
		h.Message = "dataset contains no states"
	}
	return h
}

func (hs *HealthService) checkCache() CacheHealth {
	if hs.cache == nil {
		return CacheHealth{ServiceHealth: ServiceHealth{Status: "disabled"}}
	}
	return CacheHealth{
		ServiceHealth: ServiceHealth{Status: StatusReady},
		CacheStats:    hs.cache.CacheStats(),
		Fits:          hs.cache.FitCount(),
	}
}
