package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shirou/gopsutil/v3/mem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePinger struct{ err error }

func (p fakePinger) PingContext(context.Context) error { return p.err }

func TestHealthBasic(t *testing.T) {
	s := NewHealthService(fakePinger{}, "test", "v1")
	s.started = time.Now().Add(-90 * time.Second)

	h := s.Basic()
	assert.Equal(t, "OK", h.Status)
	assert.Equal(t, "test", h.Environment)
	assert.Equal(t, "v1", h.Version)
	assert.InDelta(t, 90, h.Uptime, 5)
	_, err := time.Parse(time.RFC3339Nano, h.Timestamp)
	assert.NoError(t, err)
}

func TestHealthDetailed_Healthy(t *testing.T) {
	s := NewHealthService(fakePinger{}, "test", "v1")
	s.hostMemory = func(context.Context) (*mem.VirtualMemoryStat, error) {
		return &mem.VirtualMemoryStat{Total: 2048 << 20, Used: 1024 << 20}, nil
	}

	h := s.Detailed(context.Background())
	assert.True(t, h.Healthy())
	assert.Equal(t, "connected", h.Services["database"].Status)
	assert.Regexp(t, `^\d+ms$`, h.Services["database"].ResponseTime)
	assert.Equal(t, "running", h.Services["api"].Status)
	assert.Regexp(t, `^\d+MB$`, h.System.Memory.Used)
	require.NotNil(t, h.System.Host)
	assert.Equal(t, "1024MB", h.System.Host.Used)
	assert.Equal(t, "2048MB", h.System.Host.Total)
	assert.NotEmpty(t, h.System.GoVersion)
}

func TestHealthDetailed_Degraded(t *testing.T) {
	s := NewHealthService(fakePinger{err: errors.New("down")}, "test", "v1")
	s.hostMemory = func(context.Context) (*mem.VirtualMemoryStat, error) { return nil, errors.New("n/a") }

	h := s.Detailed(context.Background())
	assert.False(t, h.Healthy())
	assert.Equal(t, "degraded", h.Status)
	assert.Equal(t, "error", h.Services["database"].Status)
	assert.Nil(t, h.System.Host)
}
