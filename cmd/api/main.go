package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/riskibarqy/sportscorex/internal/app"
	"github.com/riskibarqy/sportscorex/internal/config"
	"github.com/riskibarqy/sportscorex/internal/observability"
	"github.com/riskibarqy/sportscorex/internal/platform/logging"
	"github.com/sourcegraph/conc"
)

const shutdownTimeout = 10 * time.Second

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := logging.NewJSON(cfg.LogLevel, cfg.LogFile).With("service", cfg.ServiceName)
	logging.SetDefault(logger)
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Error("api exited", "error", err)
		_ = logger.Sync()
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *logging.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.InitUptrace(cfg, logger)
	if err != nil {
		return err
	}
	defer flush(logger, "uptrace", shutdownTracing)

	stopProfiler, err := observability.InitPyroscope(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := stopProfiler(); err != nil {
			logger.Warn("stop pyroscope failed", "error", err)
		}
	}()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Warn("close app failed", "error", err)
		}
	}()

	srv, err := a.NewHTTPServer()
	if err != nil {
		return err
	}
	pprofSrv := observability.NewPprofServer(cfg, logger)

	serveErr := make(chan error, 1)
	var wg conc.WaitGroup
	wg.Go(func() { a.LiveHub.Run(ctx) })
	wg.Go(func() { a.Warmup.Run(ctx) })
	wg.Go(func() { a.RunCacheJanitor(ctx, cfg.WarmupInterval) })
	wg.Go(func() { observability.ServePprof(pprofSrv, logger) })
	wg.Go(func() {
		logger.Info("http server starting", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
			stop()
		}
	})

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var shutdownErr error
	if err := srv.Shutdown(shutdownCtx); err != nil {
		shutdownErr = err
	}
	if err := observability.StopPprofServer(pprofSrv, logger, shutdownTimeout); err != nil {
		logger.Warn("stop pprof server failed", "error", err)
	}
	wg.Wait()

	select {
	case err := <-serveErr:
		return err
	default:
	}
	if shutdownErr != nil {
		return shutdownErr
	}

	logger.Info("http server stopped")
	return nil
}

func flush(logger *logging.Logger, name string, fn func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := fn(ctx); err != nil {
		logger.Warn("flush failed", "component", name, "error", err)
	}
}
