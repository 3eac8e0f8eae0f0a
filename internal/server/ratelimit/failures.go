package ratelimit

import (
	"context"
	"net/http"
	"time"

	"github.com/dmitrijs2005/foodable/internal/logging"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
)

// FailureLimiter limits clients by the number of failed requests they made.
// A response with status >= 400 counts against the client; successful
// responses are free. Once the sliding-window count reaches the limit, the
// client gets onLimit until older failures age out.
type FailureLimiter struct {
	counter httprate.LimitCounter
	limit   int
	window  time.Duration
	keyFn   httprate.KeyFunc
	onLimit http.HandlerFunc
	logger  logging.Logger

	now func() time.Time
}

func NewFailureLimiter(limit int, window time.Duration, counter httprate.LimitCounter, onLimit http.HandlerFunc, logger logging.Logger) *FailureLimiter {
	counter.Config(limit, window)
	return &FailureLimiter{
		counter: counter,
		limit:   limit,
		window:  window,
		keyFn:   httprate.KeyByRealIP,
		onLimit: onLimit,
		logger:  logger,
		now:     time.Now,
	}
}

func (l *FailureLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key, err := l.keyFn(r)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}

		now := l.now().UTC()
		cur, prev := windows(now, l.window)

		curCount, prevCount, err := l.counter.Get(key, cur, prev)
		if err != nil {
			l.logger.Warn(r.Context(), "failure limiter read failed", "error", err)
		} else if slidingRate(now, cur, l.window, curCount, prevCount) >= float64(l.limit) {
			l.onLimit(w, r)
			return
		}

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		if ww.Status() >= http.StatusBadRequest {
			if err := l.counter.Increment(key, cur); err != nil {
				l.logger.Warn(context.WithoutCancel(r.Context()), "failure limiter write failed", "error", err)
			}
		}
	})
}
