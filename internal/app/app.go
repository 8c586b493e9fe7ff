// Package app carries process-level scaffolding: structured logging,
// request-scoped loggers, and graceful HTTP server shutdown.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

type contextKey int

const loggerKey contextKey = iota

// NewLogger initializes the process-wide structured logger, writing JSON
// records to stderr
func NewLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, nil))
}

// WithLogging returns middleware that stashes a request-scoped logger, tagged
// with a unique request ID, into each request's context for handlers to
// retrieve via Log
func WithLogging(logger *slog.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(res http.ResponseWriter, req *http.Request) {
			requestLogger := logger.With(
				"requestId", uuid.NewString(),
				"method", req.Method,
				"path", req.URL.Path,
			)
			ctx := context.WithValue(req.Context(), loggerKey, requestLogger)
			next.ServeHTTP(res, req.WithContext(ctx))
		})
	}
}

// Log returns the request-scoped logger installed by WithLogging, falling
// back to the default logger for requests served outside the middleware (as
// in tests)
func Log(req *http.Request) *slog.Logger {
	if logger, ok := req.Context().Value(loggerKey).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}

// RunServer handles incoming HTTP connections until ctx is canceled, then
// shuts down cleanly, giving in-flight requests a few seconds to finish
func RunServer(ctx context.Context, logger *slog.Logger, handler http.Handler, bindAddr string, port uint16) {
	addr := fmt.Sprintf("%s:%d", bindAddr, port)
	server := &http.Server{Addr: addr, Handler: handler}

	errs := make(chan error, 1)
	go func() {
		logger.Info("Listening", "addr", addr)
		errs <- server.ListenAndServe()
	}()

	select {
	case err := <-errs:
		logger.Error("Server terminated unexpectedly", "error", err)
	case <-ctx.Done():
		logger.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("Failed to shut down cleanly", "error", err)
		}
	}
}
