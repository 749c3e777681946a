package storagemock

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/stromtarif/stromtarif/pkg/storage"
	"github.com/stromtarif/stromtarif/pkg/types"
)

type MockDatabase struct {
	mock.Mock
}

var _ storage.Database = (*MockDatabase)(nil)

func (m *MockDatabase) UpsertDailyPrices(ctx context.Context, prices []types.DailyPrices) error {
	args := m.Called(ctx, prices)
	return args.Error(0)
}

func (m *MockDatabase) GetDailyPrices(ctx context.Context) ([]types.DailyPrices, error) {
	args := m.Called(ctx)
	if len(args) > 0 {
		prices, _ := args.Get(0).([]types.DailyPrices)
		return prices, args.Error(1)
	}
	return nil, nil
}

func (m *MockDatabase) UpsertProfileDays(ctx context.Context, variant types.ProfileVariant, days []types.ProfileDay) error {
	args := m.Called(ctx, variant, days)
	return args.Error(0)
}

func (m *MockDatabase) GetProfileDays(ctx context.Context, variant types.ProfileVariant) ([]types.ProfileDay, error) {
	args := m.Called(ctx, variant)
	if len(args) > 0 {
		days, _ := args.Get(0).([]types.ProfileDay)
		return days, args.Error(1)
	}
	return nil, nil
}

func (m *MockDatabase) SetLastSync(ctx context.Context, t time.Time) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *MockDatabase) GetLastSync(ctx context.Context) (time.Time, error) {
	args := m.Called(ctx)
	if len(args) > 0 {
		return args.Get(0).(time.Time), args.Error(1)
	}
	return time.Time{}, nil
}

func (m *MockDatabase) Close() error {
	args := m.Called()
	if len(args) > 0 {
		return args.Error(0)
	}
	return nil
}
