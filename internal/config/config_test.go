package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	path := filepath.Join(t.TempDir(), "threaducate.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, StorageInMemory, cfg.Storage.Type)
	assert.Equal(t, 25, cfg.Database.MaxConnections)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := writeConfig(t, `
server:
  port: "9090"
storage:
  type: local
  data_file: /tmp/t.db
log:
  level: debug
seed: true
`)
	t.Setenv("PORT", "7070")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "7070", cfg.Server.Port, "env wins over file")
	assert.Equal(t, StorageLocal, cfg.Storage.Type)
	assert.Equal(t, "/tmp/t.db", cfg.Storage.DataFile)
	assert.True(t, cfg.Seed)
}

func TestLoad_PostgresNeedsURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("THREADUCATE_STORAGE", StoragePostgres)

	_, err := Load(writeConfig(t, "{}"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}

func TestLoad_UnknownStorage(t *testing.T) {
	t.Setenv("THREADUCATE_STORAGE", "redis")
	_, err := Load(writeConfig(t, "{}"))
	assert.Error(t, err)
}

func TestLoad_BadYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "server: [unterminated"))
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	cfg := Default()
	log, err := cfg.NewLogger()
	require.NoError(t, err)
	assert.NotNil(t, log)

	cfg.Log.Level = "loud"
	_, err = cfg.NewLogger()
	assert.Error(t, err)
}
