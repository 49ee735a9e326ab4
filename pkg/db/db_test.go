package db

import (
	"context"
	"testing"
	"time"

	"bump-server/config"

	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDSN(t *testing.T) {
	dsn := DSN(config.DatabaseConfig{
		Host:     "db.internal",
		Port:     3307,
		Username: "bump",
		Password: "p@ss:word",
		Database: "bump",
		Charset:  "utf8mb4",
	})

	parsed, err := mysqldriver.ParseDSN(dsn)
	require.NoError(t, err)
	assert.Equal(t, "bump", parsed.User)
	assert.Equal(t, "p@ss:word", parsed.Passwd)
	assert.Equal(t, "tcp", parsed.Net)
	assert.Equal(t, "db.internal:3307", parsed.Addr)
	assert.Equal(t, "bump", parsed.DBName)
	assert.True(t, parsed.ParseTime)
	assert.Equal(t, time.Local, parsed.Loc)
	assert.True(t, parsed.ClientFoundRows)
	assert.Contains(t, dsn, "charset=utf8mb4")
}

func TestHealthCheckWithoutInit(t *testing.T) {
	assert.Error(t, HealthCheck(context.Background()))
}
