package storage

import (
	"io/fs"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"room_manager/pkg/config"
)

func TestDSN(t *testing.T) {
	dsn := DSN(config.DBConfig{
		Host: "db", User: "u", Password: "p", Name: "rooms", Port: 5433, SSLMode: "require",
	})
	assert.Equal(t, "host=db user=u password=p dbname=rooms port=5433 sslmode=require TimeZone=UTC", dsn)
}

func TestMigrationsAreEmbedded(t *testing.T) {
	files, err := fs.Glob(migrationsFS, "migrations/*.sql")
	require.NoError(t, err)
	assert.Contains(t, files, "migrations/000001_init.up.sql")
	assert.Contains(t, files, "migrations/000001_init.down.sql")
}

func TestGormConfigKeepsDriverErrors(t *testing.T) {
	cfg := GormConfig()
	assert.False(t, cfg.TranslateError)
	assert.Equal(t, time.UTC, cfg.NowFunc().Location())
}
