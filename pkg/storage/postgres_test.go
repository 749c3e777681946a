package storage

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresProvider(t *testing.T) {
	dsn := os.Getenv("STROMTARIF_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("STROMTARIF_TEST_POSTGRES_DSN not set")
	}

	p := &PostgresProvider{dsn: dsn, maxOpenConns: 2}
	require.NoError(t, p.Validate())

	ctx := context.Background()
	require.NoError(t, p.Init(ctx))
	defer p.Close()

	_, err := p.db.ExecContext(ctx, `TRUNCATE daily_prices, profile_days, sync_state`)
	require.NoError(t, err)

	testDatabase(t, p)
}

func TestPostgresValidate(t *testing.T) {
	p := &PostgresProvider{}
	assert.ErrorContains(t, p.Validate(), "postgres-dsn")
}
