package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/stromtarif/stromtarif/pkg/log"
	"github.com/stromtarif/stromtarif/pkg/types"
)

// Loader loads the dataset from the last stored sync instead of upstream.
type Loader struct {
	db Database
}

// NewLoader returns a Loader reading from db.
func NewLoader(db Database) *Loader {
	return &Loader{db: db}
}

// Load returns the stored dataset. It returns ErrNotFound if nothing was
// ever synced.
func (l *Loader) Load(ctx context.Context) (types.Dataset, error) {
	syncedAt, err := l.db.GetLastSync(ctx)
	if err != nil {
		return types.Dataset{}, fmt.Errorf("failed to get last sync: %w", err)
	}

	ds := types.Dataset{LoadedAt: syncedAt}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		ds.Prices, err = l.db.GetDailyPrices(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		ds.H0, err = l.db.GetProfileDays(gctx, types.ProfileH0)
		return err
	})
	g.Go(func() error {
		var err error
		ds.H0PV, err = l.db.GetProfileDays(gctx, types.ProfileH0PV)
		return err
	})
	if err := g.Wait(); err != nil {
		return types.Dataset{}, err
	}
	return ds, nil
}

// SaveDataset persists all records of a dataset and marks the sync time.
// The sync time is only written after all records were saved.
func SaveDataset(ctx context.Context, db Database, ds types.Dataset, now time.Time) error {
	if err := db.UpsertDailyPrices(ctx, ds.Prices); err != nil {
		return fmt.Errorf("failed to save prices: %w", err)
	}
	if err := db.UpsertProfileDays(ctx, types.ProfileH0, ds.H0); err != nil {
		return fmt.Errorf("failed to save h0 profile: %w", err)
	}
	if err := db.UpsertProfileDays(ctx, types.ProfileH0PV, ds.H0PV); err != nil {
		return fmt.Errorf("failed to save h0pv profile: %w", err)
	}
	if err := db.SetLastSync(ctx, now); err != nil {
		return err
	}
	log.Ctx(ctx).InfoContext(
		ctx,
		"saved dataset",
		slog.Int("prices", len(ds.Prices)),
		slog.Int("h0", len(ds.H0)),
		slog.Int("h0pv", len(ds.H0PV)),
	)
	return nil
}

// IsDisabled returns true if err means no storage provider is configured.
func IsDisabled(err error) bool {
	return errors.Is(err, ErrDisabled)
}
