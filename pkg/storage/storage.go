package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/stromtarif/stromtarif/pkg/tariff"
	"github.com/stromtarif/stromtarif/pkg/types"
)

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDisabled is returned by every operation when no storage provider is
	// configured.
	ErrDisabled = errors.New("storage disabled")
)

// Database persists snapshots of the upstream dataset.
type Database interface {
	// UpsertDailyPrices adds or replaces the prices of each given day.
	UpsertDailyPrices(ctx context.Context, prices []types.DailyPrices) error
	// GetDailyPrices returns all stored days ordered by date.
	GetDailyPrices(ctx context.Context) ([]types.DailyPrices, error)

	// UpsertProfileDays adds or replaces the profile days of a variant.
	UpsertProfileDays(ctx context.Context, variant types.ProfileVariant, days []types.ProfileDay) error
	// GetProfileDays returns all stored days of a variant ordered by date.
	GetProfileDays(ctx context.Context, variant types.ProfileVariant) ([]types.ProfileDay, error)

	// SetLastSync records when the dataset was last synced.
	SetLastSync(ctx context.Context, t time.Time) error
	// GetLastSync returns ErrNotFound if there never was a sync.
	GetLastSync(ctx context.Context) (time.Time, error)

	// Lifecycle
	Close() error
}

// dayKey converts a DD/MM/YYYY date into a sortable YYYY-MM-DD key.
func dayKey(date string) (string, error) {
	t, err := tariff.ParseDate(date)
	if err != nil {
		return "", err
	}
	return t.Format(time.DateOnly), nil
}

// keyDate converts a YYYY-MM-DD key back into a DD/MM/YYYY date.
func keyDate(key string) (string, error) {
	t, err := time.Parse(time.DateOnly, key)
	if err != nil {
		return "", fmt.Errorf("invalid day key %s: %w", key, err)
	}
	return tariff.FormatDate(t), nil
}

type disabled struct{}

// Disabled returns a Database whose operations all fail with ErrDisabled.
func Disabled() Database {
	return disabled{}
}

func (disabled) UpsertDailyPrices(context.Context, []types.DailyPrices) error {
	return ErrDisabled
}

func (disabled) GetDailyPrices(context.Context) ([]types.DailyPrices, error) {
	return nil, ErrDisabled
}

func (disabled) UpsertProfileDays(context.Context, types.ProfileVariant, []types.ProfileDay) error {
	return ErrDisabled
}

func (disabled) GetProfileDays(context.Context, types.ProfileVariant) ([]types.ProfileDay, error) {
	return nil, ErrDisabled
}

func (disabled) SetLastSync(context.Context, time.Time) error {
	return ErrDisabled
}

func (disabled) GetLastSync(context.Context) (time.Time, error) {
	return time.Time{}, ErrDisabled
}

func (disabled) Close() error {
	return nil
}
