package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/foodable/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePurger struct {
	calls atomic.Int32
	n     int64
	err   error
}

func (f *fakePurger) DeleteExpired(context.Context) (int64, error) {
	f.calls.Add(1)
	return f.n, f.err
}

func TestPurgeExpiredTokens(t *testing.T) {
	p := &fakePurger{n: 7}
	n, err := PurgeExpiredTokens(context.Background(), p, logging.Nop())
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)

	p.err = errors.New("db down")
	_, err = PurgeExpiredTokens(context.Background(), p, logging.Nop())
	assert.ErrorIs(t, err, p.err)
}

func TestAddTokenPurge_InvalidSpec(t *testing.T) {
	s := NewScheduler(logging.Nop())
	err := s.AddTokenPurge("every tuesday", &fakePurger{})
	assert.Error(t, err)
}

func TestAddTokenPurge_RunsJob(t *testing.T) {
	s := NewScheduler(logging.Nop())
	p := &fakePurger{}
	require.NoError(t, s.AddTokenPurge("@hourly", p))

	entries := s.cron.Entries()
	require.Len(t, entries, 1)
	entries[0].WrappedJob.Run()
	assert.Equal(t, int32(1), p.calls.Load())
}

func TestScheduler_ServeStopsOnCancel(t *testing.T) {
	s := NewScheduler(logging.Nop())
	require.NoError(t, s.AddTokenPurge("@every 1s", &fakePurger{}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop")
	}
}
