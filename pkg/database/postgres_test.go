package database

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolConfig(t *testing.T) {
	cfg, err := PoolConfig("postgres://u:p@db:5433/catalog?sslmode=disable", PoolOptions{
		MaxConns: 8, MinConns: 20, MaxConnIdle: time.Minute,
	})
	require.NoError(t, err)
	assert.Equal(t, int32(8), cfg.MaxConns)
	assert.Equal(t, int32(8), cfg.MinConns, "min is capped at max")
	assert.Equal(t, time.Minute, cfg.MaxConnIdleTime)
	assert.Equal(t, "db", cfg.ConnConfig.Host)
	assert.Equal(t, "catalog", cfg.ConnConfig.Database)
}

func TestPoolConfig_ZeroOptionsKeepDefaults(t *testing.T) {
	def, err := PoolConfig("postgres://u:p@db/catalog", PoolOptions{})
	require.NoError(t, err)
	assert.Positive(t, def.MaxConns)
	assert.Zero(t, def.MinConns)

	_, err = PoolConfig("postgres://u:p@db:notaport/catalog", PoolOptions{})
	assert.ErrorContains(t, err, "parse pgx config")
}

func TestMigrations_Ordered(t *testing.T) {
	names, err := Migrations()
	require.NoError(t, err)
	assert.Equal(t, []string{"001_schema.sql", "002_audit_log.sql"}, names)
}
