package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dmitrijs2005/foodable/internal/logging"
	"github.com/thejerf/suture/v4"
)

// httpServer matches the *http.Server lifecycle methods.
type httpServer interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

// httpService runs an HTTP server under suture and shuts it down gracefully
// when the supervisor stops.
type httpService struct {
	server          httpServer
	shutdownTimeout time.Duration
}

func newHTTPService(server httpServer, shutdownTimeout time.Duration) *httpService {
	if shutdownTimeout <= 0 {
		shutdownTimeout = 30 * time.Second
	}
	return &httpService{server: server, shutdownTimeout: shutdownTimeout}
}

func (h *httpService) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := h.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), h.shutdownTimeout)
		defer cancel()

		if err := h.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http server shutdown failed: %w", err)
		}
		<-errCh
		return ctx.Err()
	}
}

func (h *httpService) String() string { return "http-server" }

// eventHook logs supervisor events such as service panics and restarts.
func eventHook(logger logging.Logger) suture.EventHook {
	return func(e suture.Event) {
		args := make([]any, 0, 2*len(e.Map()))
		for k, v := range e.Map() {
			args = append(args, k, v)
		}
		switch e.Type() {
		case suture.EventTypeServicePanic, suture.EventTypeServiceTerminate:
			logger.Error(context.Background(), e.String(), args...)
		default:
			logger.Warn(context.Background(), e.String(), args...)
		}
	}
}
