package bootstrap

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/AntonStoeckl/library-inventory/shell"
)

const shutdownTimeout = 10 * time.Second

// SignalContext returns a context that is cancelled on SIGINT or SIGTERM.
func SignalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// Serve runs e on addr until ctx is done, then shuts it down gracefully.
func Serve(ctx context.Context, e *echo.Echo, addr string, obs *Observability) error {
	errChan := make(chan error, 1)

	go func() {
		obs.Logger.Info("server starting", "addr", addr)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		obs.Logger.Info("shutdown signal received")
	case err := <-errChan:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		obs.Logger.Error("server shutdown failed", shell.LogAttrError, err.Error())
		return err
	}

	obs.Logger.Info("server stopped")

	return nil
}

// Fatal logs err and exits the process.
func Fatal(obs *Observability, msg string, err error) {
	obs.Logger.Error(msg, shell.LogAttrError, err.Error())
	obs.Shutdown()
	os.Exit(1)
}
