package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/riskibarqy/sportscorex/internal/app"
	"github.com/riskibarqy/sportscorex/internal/config"
	"github.com/riskibarqy/sportscorex/internal/platform/logging"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	root := newRootCmd(loadApp, os.Stdout)
	if err := root.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

// loadApp builds the same graph as the API server from the environment.
func loadApp(ctx context.Context, verbose bool) (*app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	// Nothing runs in the background for one-shot commands.
	cfg.WarmupTargets = nil

	return app.New(ctx, cfg, stderrLogger(verbose))
}

// stderrLogger keeps stdout clean for JSON output.
func stderrLogger(verbose bool) *logging.Logger {
	level := zapcore.WarnLevel
	if verbose {
		level = zapcore.DebugLevel
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}

	z, err := cfg.Build()
	if err != nil {
		return logging.NewNop()
	}
	return logging.FromZap(z)
}
