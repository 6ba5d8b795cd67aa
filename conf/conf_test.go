package conf

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	config, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8090, config.APIServer.Port)
	assert.Equal(t, "kanban", config.APIServer.Name)
	assert.Equal(t, 30*time.Second, config.APIServer.RequestTimeout)
	assert.Equal(t, "sqlite", config.DB.Dialect)
	assert.Equal(t, "memory", config.Cache.Mode)
	assert.Equal(t, "log", config.Notify.Sender)
	assert.Equal(t, "0 0 8 * * *", config.DueScan.CRON)
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	content := `
server:
  port: 9000
  debug: true
db:
  dialect: postgres
  dsn: postgres://localhost/kanban
auth:
  secret: filesecret
  access_ttl: 15m
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "kanban.yaml"), []byte(content), 0o600))
	t.Chdir(dir)

	config, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9000, config.APIServer.Port)
	assert.True(t, config.APIServer.Debug)
	assert.Equal(t, "postgres", config.DB.Dialect)
	assert.Equal(t, "postgres://localhost/kanban", config.DB.DSN)
	assert.Equal(t, "filesecret", config.Auth.Secret)
	assert.Equal(t, 15*time.Minute, config.Auth.AccessTTL)

	// Sections the file does not mention keep their defaults.
	assert.Equal(t, "kanban", config.APIServer.Name)
	assert.Equal(t, "memory", config.Cache.Mode)
}

func TestLoad_Environment(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("KANBAN_SERVER_PORT", "7070")
	t.Setenv("KANBAN_DB_DSN", "file:env.db")

	config, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 7070, config.APIServer.Port)
	assert.Equal(t, "file:env.db", config.DB.DSN)
}

func TestLoad_BadFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "kanban.yaml"), []byte("server: ["), 0o600))
	t.Chdir(dir)

	_, err := Load()
	require.Error(t, err)
}
