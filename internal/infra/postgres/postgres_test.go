package postgres

import (
	"testing"
	"time"

	"github.com/sifan077/tinylink/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnString(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.PostgresConfig
		want string
	}{
		{
			name: "defaults",
			cfg:  config.PostgresConfig{User: "tinylink", Database: "links"},
			want: "postgres://tinylink@localhost:5432/links?sslmode=disable",
		},
		{
			name: "escapes credentials",
			cfg: config.PostgresConfig{
				Host: "db", Port: 6543, User: "app", Password: "p@ss/word",
				Database: "links", SSLMode: "require",
			},
			want: "postgres://app:p%40ss%2Fword@db:6543/links?sslmode=require",
		},
		{
			name: "url wins",
			cfg:  config.PostgresConfig{URL: "postgres://u:p@remote:5432/x", Host: "ignored"},
			want: "postgres://u:p@remote:5432/x",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ConnString(tt.cfg))
		})
	}
}

func TestPoolConfig(t *testing.T) {
	poolCfg, err := PoolConfig(config.PostgresConfig{
		User:              "tinylink",
		Database:          "links",
		MaxConns:          8,
		MinConns:          2,
		MaxConnLifetime:   "30m",
		MaxConnIdleTime:   "not-a-duration",
		HealthCheckPeriod: "15s",
	})
	require.NoError(t, err)

	assert.Equal(t, int32(8), poolCfg.MaxConns)
	assert.Equal(t, int32(2), poolCfg.MinConns)
	assert.Equal(t, 30*time.Minute, poolCfg.MaxConnLifetime)
	assert.Equal(t, 30*time.Minute, poolCfg.MaxConnIdleTime)
	assert.Equal(t, 15*time.Second, poolCfg.HealthCheckPeriod)
}

func TestParseDuration(t *testing.T) {
	assert.Equal(t, time.Second, parseDuration("", time.Second))
	assert.Equal(t, time.Second, parseDuration("soon", time.Second))
	assert.Equal(t, 2*time.Minute, parseDuration("2m", time.Second))
}
