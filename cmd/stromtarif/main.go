package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/stromtarif/stromtarif/pkg/log"
	"github.com/stromtarif/stromtarif/pkg/metrics"
	"github.com/stromtarif/stromtarif/pkg/registry"
	"github.com/stromtarif/stromtarif/pkg/server"
	"github.com/stromtarif/stromtarif/pkg/source"
	"github.com/stromtarif/stromtarif/pkg/storage"

	"github.com/levenlabs/go-lflag"
	"github.com/levenlabs/go-llog"
)

func main() {
	// init packages
	m := metrics.Configured()
	src := source.Configured()
	sessions := registry.Configured()
	st := storage.Observed(storage.Configured(), m.ObserveStorage)

	// init server
	srv := server.Configured(src, sessions, st, m)

	// parse flags
	lflag.Configure()

	level := slogLevel()
	log.SetDefaultLogLevel(level)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
	slog.Debug("logger configured", slog.String("level", level.String()))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	defer func() {
		if err := st.Close(); err != nil {
			log.Ctx(ctx).ErrorContext(ctx, "failed to close storage", "error", err)
		}
	}()

	// Run will block until context is canceled or error happens
	if err := srv.Run(ctx); err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "server failed", "error", err)
		os.Exit(1)
	}
	log.Ctx(ctx).InfoContext(ctx, "server exited cleanly")
}

// slogLevel maps the level lflag set on llog to slog.
func slogLevel() slog.Level {
	switch llog.GetLevel() {
	case llog.DebugLevel:
		return slog.LevelDebug
	case llog.InfoLevel:
		return slog.LevelInfo
	case llog.WarnLevel:
		return slog.LevelWarn
	case llog.ErrorLevel:
		return slog.LevelError
	default:
		panic(fmt.Errorf("unknown log level: %s", llog.GetLevel().String()))
	}
}
