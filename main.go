package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/afero"

	"wakeloop/internal/bootstrap"
	"wakeloop/internal/config"
	"wakeloop/internal/domain"
	"wakeloop/internal/usecase"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, os.Stdout, os.Stderr))
}

func run(ctx context.Context, stdout io.Writer, stderr io.Writer) int {
	cfg, err := config.Load()
	if err != nil {
		slog.New(slog.NewTextHandler(stderr, nil)).Error("invalid configuration", "error", err)
		return 1
	}

	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: cfg.Log.Level}))
	slog.SetDefault(logger)

	app := NewApp(stdout, logger, domain.Phrases{
		Wake:   cfg.Phrases.Wake,
		Cancel: cfg.Phrases.Cancel,
		Quit:   cfg.Phrases.Quit,
	})

	services, err := bootstrap.BuildWithConfig(ctx, cfg, app, afero.NewOsFs(), logger)
	if err != nil {
		app.SessionError(domain.ErrorCodeStartup, err.Error())
		return 1
	}
	defer func() {
		if err := services.Close(); err != nil {
			logger.Debug("recognizer close failed", "error", err)
		}
	}()

	return exitCode(services.Loop.Run(ctx), cfg, logger)
}

func exitCode(err error, cfg config.Config, logger *slog.Logger) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, usecase.ErrAudioSourceEnded) && cfg.Audio.Source == config.AudioSourceFile:
		logger.Info("audio file fully processed", "path", cfg.Audio.FilePath)
		return 0
	case errors.Is(err, usecase.ErrAudioSourceEnded):
		logger.Error("audio capture ended unexpectedly", "error", err)
		return 1
	default:
		// Already reported through the event sink.
		logger.Debug("session ended", "error", err)
		return 1
	}
}
