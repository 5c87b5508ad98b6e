package database

import (
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/learning-platform/internal/config"
)

func TestDSN_RoundTrip(t *testing.T) {
	dsn := DSN(config.DBConfig{Host: "db.internal", Port: "3307", User: "app", Password: "p@ss:word", Name: "learning", TLS: "true"})

	mc, err := mysql.ParseDSN(dsn)
	require.NoError(t, err)
	assert.Equal(t, "app", mc.User)
	assert.Equal(t, "p@ss:word", mc.Passwd)
	assert.Equal(t, "db.internal:3307", mc.Addr)
	assert.Equal(t, "learning", mc.DBName)
	assert.True(t, mc.ParseTime)
	assert.Equal(t, "true", mc.TLSConfig)
}

func TestMigrationsEmbedded(t *testing.T) {
	b, err := migrations.ReadFile("migrations/00001_init.sql")
	require.NoError(t, err)
	for _, table := range []string{"users", "sessions", "password_resets", "profiles", "user_progress", "audit_logs"} {
		assert.Contains(t, string(b), "CREATE TABLE IF NOT EXISTS "+table)
	}
}
