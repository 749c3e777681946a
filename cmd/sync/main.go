package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/levenlabs/go-lflag"

	"github.com/stromtarif/stromtarif/pkg/log"
	"github.com/stromtarif/stromtarif/pkg/source"
	"github.com/stromtarif/stromtarif/pkg/storage"
)

// sync loads the full dataset from the upstream API once and stores it, for
// running from a scheduler instead of calling POST /api/sync.
func main() {
	src := source.Configured()
	st := storage.Configured()
	timeout := lflag.Duration("sync-timeout", 5*time.Minute, "Timeout for the whole sync")
	lflag.Configure()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	ctx, cancelTimeout := context.WithTimeout(ctx, *timeout)
	defer cancelTimeout()

	if err := run(ctx, src, st, time.Now()); err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "sync failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, loader source.Loader, st storage.Database, now time.Time) error {
	defer func() {
		if err := st.Close(); err != nil {
			log.Ctx(ctx).ErrorContext(ctx, "failed to close storage", slog.Any("error", err))
		}
	}()

	log.Ctx(ctx).InfoContext(ctx, "loading dataset")
	ds, err := loader.Load(ctx)
	if err != nil {
		return err
	}
	return storage.SaveDataset(ctx, st, ds, now)
}
