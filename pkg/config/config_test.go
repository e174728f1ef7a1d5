package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdirTemp 切換到空的暫存目錄，避免讀到專案內的 config.yaml
func chdirTemp(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "memory", cfg.Storage.Driver)
	assert.Equal(t, 300, cfg.Rooms.MaxCodeAttempts)
	assert.Equal(t, 240*time.Hour, cfg.JWT.TTL)
	assert.False(t, cfg.Redis.Enabled)
}

func TestLoad_FileAndEnvOverrides(t *testing.T) {
	dir := chdirTemp(t)

	yaml := []byte("storage:\n  driver: postgres\ndb:\n  host: db.internal\n  port: 6543\nrooms:\n  max_code_attempts: 50\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), yaml, 0o600))

	t.Setenv("ROOM_MANAGER_DB_HOST", "db.from.env")
	t.Setenv("ROOM_MANAGER_JWT_TTL", "1h")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Storage.Driver)
	assert.Equal(t, "db.from.env", cfg.DB.Host)
	assert.Equal(t, 6543, cfg.DB.Port)
	assert.Equal(t, 50, cfg.Rooms.MaxCodeAttempts)
	assert.Equal(t, time.Hour, cfg.JWT.TTL)
}

func TestValidate(t *testing.T) {
	valid := Config{
		Storage: StorageConfig{Driver: "memory"},
		Rooms:   RoomsConfig{MaxCodeAttempts: 10},
		JWT:     JWTConfig{Secret: "s"},
	}
	assert.NoError(t, valid.Validate())

	badDriver := valid
	badDriver.Storage.Driver = "sqlite"
	assert.Error(t, badDriver.Validate())

	badAttempts := valid
	badAttempts.Rooms.MaxCodeAttempts = 0
	assert.Error(t, badAttempts.Validate())

	noSecret := valid
	noSecret.JWT.Secret = ""
	assert.Error(t, noSecret.Validate())
}
