package services

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/mem"
)

// Pinger checks database reachability. *sqlx.DB satisfies it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type BasicHealth struct {
	Uptime      float64 `json:"uptime"`
	Timestamp   string  `json:"timestamp"`
	Status      string  `json:"status"`
	Environment string  `json:"environment"`
	Version     string  `json:"version"`
}

type ServiceStatus struct {
	Status       string `json:"status"`
	ResponseTime string `json:"responseTime"`
}

type MemoryUsage struct {
	Used  string `json:"used"`
	Total string `json:"total"`
}

type SystemInfo struct {
	Memory    MemoryUsage  `json:"memory"`
	Host      *MemoryUsage `json:"host,omitempty"`
	Platform  string       `json:"platform"`
	GoVersion string       `json:"goVersion"`
}

type DetailedHealth struct {
	Status      string                   `json:"status"`
	Timestamp   string                   `json:"timestamp"`
	Uptime      float64                  `json:"uptime"`
	Environment string                   `json:"environment"`
	Version     string                   `json:"version"`
	Services    map[string]ServiceStatus `json:"services"`
	System      SystemInfo               `json:"system"`
}

func (h *DetailedHealth) Healthy() bool { return h.Status == "healthy" }

// HealthService reports liveness and dependency status.
type HealthService struct {
	db          Pinger
	environment string
	version     string
	started     time.Time
	now         func() time.Time
	hostMemory  func(ctx context.Context) (*mem.VirtualMemoryStat, error)
}

func NewHealthService(db Pinger, environment, version string) *HealthService {
	return &HealthService{
		db:          db,
		environment: environment,
		version:     version,
		started:     time.Now(),
		now:         time.Now,
		hostMemory:  mem.VirtualMemoryWithContext,
	}
}

func (s *HealthService) uptime() float64 {
	return s.now().Sub(s.started).Seconds()
}

func (s *HealthService) Basic() BasicHealth {
	return BasicHealth{
		Uptime:      s.uptime(),
		Timestamp:   s.now().UTC().Format(time.RFC3339Nano),
		Status:      "OK",
		Environment: s.environment,
		Version:     s.version,
	}
}

// Detailed pings the database and collects memory figures. The status is
// degraded when the database cannot be reached.
func (s *HealthService) Detailed(ctx context.Context) *DetailedHealth {
	start := s.now()

	dbStatus := ServiceStatus{Status: "connected"}
	dbStart := s.now()
	if err := s.db.PingContext(ctx); err != nil {
		dbStatus = ServiceStatus{Status: "error", ResponseTime: "0ms"}
	} else {
		dbStatus.ResponseTime = millis(s.now().Sub(dbStart))
	}

	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	info := SystemInfo{
		Memory:    MemoryUsage{Used: megabytes(ms.HeapAlloc), Total: megabytes(ms.HeapSys)},
		Platform:  runtime.GOOS,
		GoVersion: runtime.Version(),
	}
	if vm, err := s.hostMemory(ctx); err == nil && vm != nil {
		info.Host = &MemoryUsage{Used: megabytes(vm.Used), Total: megabytes(vm.Total)}
	}

	status := "healthy"
	if dbStatus.Status != "connected" {
		status = "degraded"
	}

	return &DetailedHealth{
		Status:      status,
		Timestamp:   s.now().UTC().Format(time.RFC3339Nano),
		Uptime:      s.uptime(),
		Environment: s.environment,
		Version:     s.version,
		Services: map[string]ServiceStatus{
			"database": dbStatus,
			"api":      {Status: "running", ResponseTime: millis(s.now().Sub(start))},
		},
		System: info,
	}
}

func millis(d time.Duration) string { return fmt.Sprintf("%dms", d.Milliseconds()) }

func megabytes(b uint64) string { return fmt.Sprintf("%dMB", (b+(1<<19))>>20) }
