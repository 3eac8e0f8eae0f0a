package dbx

import (
	"context"
	"database/sql"
	"time"

	"github.com/dmitrijs2005/foodable/internal/logging"
	"github.com/jmoiron/sqlx"
)

// SlowQueryLogger decorates a DBTX and logs statements slower than threshold.
type SlowQueryLogger struct {
	DBTX
	threshold time.Duration
	logger    logging.Logger
}

// WithSlowQueryLog wraps db unless logging is disabled or db is already wrapped.
func WithSlowQueryLog(db DBTX, threshold time.Duration, logger logging.Logger) DBTX {
	if threshold <= 0 || logger == nil {
		return db
	}
	if _, ok := db.(*SlowQueryLogger); ok {
		return db
	}
	return &SlowQueryLogger{DBTX: db, threshold: threshold, logger: logger}
}

func (s *SlowQueryLogger) observe(ctx context.Context, query string, start time.Time) {
	if d := time.Since(start); d > s.threshold {
		s.logger.Warn(ctx, "slow query", "duration", d.String(), "query", query)
	}
}

func (s *SlowQueryLogger) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	defer s.observe(ctx, query, time.Now())
	return s.DBTX.ExecContext(ctx, query, args...)
}

func (s *SlowQueryLogger) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	defer s.observe(ctx, query, time.Now())
	return s.DBTX.QueryContext(ctx, query, args...)
}

func (s *SlowQueryLogger) QueryxContext(ctx context.Context, query string, args ...any) (*sqlx.Rows, error) {
	defer s.observe(ctx, query, time.Now())
	return s.DBTX.QueryxContext(ctx, query, args...)
}

func (s *SlowQueryLogger) QueryRowxContext(ctx context.Context, query string, args ...any) *sqlx.Row {
	defer s.observe(ctx, query, time.Now())
	return s.DBTX.QueryRowxContext(ctx, query, args...)
}

func (s *SlowQueryLogger) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	defer s.observe(ctx, query, time.Now())
	return s.DBTX.QueryRowContext(ctx, query, args...)
}
