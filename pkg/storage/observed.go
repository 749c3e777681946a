package storage

import (
	"context"
	"time"

	"github.com/stromtarif/stromtarif/pkg/types"
)

// Observer is called after every database operation.
type Observer func(op string, took time.Duration, err error)

type observed struct {
	db      Database
	observe Observer
}

// Observed wraps db so fn is called after every operation except Close.
func Observed(db Database, fn Observer) Database {
	return &observed{db: db, observe: fn}
}

func (o *observed) track(op string, start time.Time, err error) {
	o.observe(op, time.Since(start), err)
}

func (o *observed) UpsertDailyPrices(ctx context.Context, prices []types.DailyPrices) (err error) {
	defer func(start time.Time) { o.track("upsert_daily_prices", start, err) }(time.Now())
	return o.db.UpsertDailyPrices(ctx, prices)
}

func (o *observed) GetDailyPrices(ctx context.Context) (_ []types.DailyPrices, err error) {
	defer func(start time.Time) { o.track("get_daily_prices", start, err) }(time.Now())
	return o.db.GetDailyPrices(ctx)
}

func (o *observed) UpsertProfileDays(ctx context.Context, variant types.ProfileVariant, days []types.ProfileDay) (err error) {
	defer func(start time.Time) { o.track("upsert_profile_days", start, err) }(time.Now())
	return o.db.UpsertProfileDays(ctx, variant, days)
}

func (o *observed) GetProfileDays(ctx context.Context, variant types.ProfileVariant) (_ []types.ProfileDay, err error) {
	defer func(start time.Time) { o.track("get_profile_days", start, err) }(time.Now())
	return o.db.GetProfileDays(ctx, variant)
}

func (o *observed) SetLastSync(ctx context.Context, t time.Time) (err error) {
	defer func(start time.Time) { o.track("set_last_sync", start, err) }(time.Now())
	return o.db.SetLastSync(ctx, t)
}

func (o *observed) GetLastSync(ctx context.Context) (_ time.Time, err error) {
	defer func(start time.Time) { o.track("get_last_sync", start, err) }(time.Now())
	return o.db.GetLastSync(ctx)
}

func (o *observed) Close() error {
	return o.db.Close()
}
