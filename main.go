package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"denovo/pipeline/logger"
	"denovo/pipeline/models"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	// a missing .env is fine; the environment may already be set
	_ = godotenv.Load()

	cfg, err := models.LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	level := zapcore.InfoLevel
	if cfg.Debug {
		level = zapcore.DebugLevel
	}
	if err := logger.InitLogger(level); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = newRootCommand(cfg).ExecuteContext(ctx)
	stop()

	code := exitCode(err)
	if err != nil {
		logger.Error("pipeline failed", zap.Error(err), zap.Int("exitCode", code))
	}
	_ = logger.Sync()
	os.Exit(code)
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, models.ErrConfiguration):
		return 2
	default:
		// includes verification.ErrInconsistent
		return 1
	}
}
