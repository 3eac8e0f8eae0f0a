// Package jobs runs periodic maintenance on a cron schedule.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/foodable/internal/logging"
	"github.com/robfig/cron/v3"
)

const purgeTimeout = time.Minute

// TokenPurger removes refresh tokens past their expiry.
type TokenPurger interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

// Scheduler wraps a cron runner as a supervised service.
type Scheduler struct {
	cron   *cron.Cron
	logger logging.Logger
}

func NewScheduler(logger logging.Logger) *Scheduler {
	cl := cronLogger{l: logger}
	return &Scheduler{
		cron:   cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl))),
		logger: logger.With("module", "jobs"),
	}
}

// AddTokenPurge schedules PurgeExpiredTokens. spec accepts the standard
// five-field syntax and descriptors such as @hourly.
func (s *Scheduler) AddTokenPurge(spec string, p TokenPurger) error {
	_, err := s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), purgeTimeout)
		defer cancel()
		_, _ = PurgeExpiredTokens(ctx, p, s.logger)
	})
	if err != nil {
		return fmt.Errorf("invalid token purge schedule %q: %w", spec, err)
	}
	return nil
}

// Serve runs the scheduled jobs until ctx is cancelled and waits for
// running ones to finish.
func (s *Scheduler) Serve(ctx context.Context) error {
	s.cron.Start()
	<-ctx.Done()
	<-s.cron.Stop().Done()
	return ctx.Err()
}

func (s *Scheduler) String() string { return "cron-scheduler" }

// PurgeExpiredTokens deletes expired refresh tokens once.
func PurgeExpiredTokens(ctx context.Context, p TokenPurger, logger logging.Logger) (int64, error) {
	n, err := p.DeleteExpired(ctx)
	if err != nil {
		logger.Error(ctx, "refresh token purge failed", "error", err)
		return 0, err
	}
	logger.Info(ctx, "expired refresh tokens purged", "deleted", n)
	return n, nil
}

// cronLogger adapts logging.Logger to cron.Logger.
type cronLogger struct {
	l logging.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debug(context.Background(), "cron: "+msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Error(context.Background(), "cron: "+msg, append(keysAndValues, "error", err)...)
}
