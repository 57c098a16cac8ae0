package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GuardianUI/storycheck/mockwallet/pkg/bridge"
	"github.com/GuardianUI/storycheck/mockwallet/pkg/log"
)

func isolateConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv(configDirPathEnv, dir)
	return dir
}

func TestLoadConfigDefaults(t *testing.T) {
	isolateConfig(t)

	cfg, err := LoadConfig(log.NewNoopLogger())
	require.NoError(t, err)

	assert.Equal(t, "http://127.0.0.1:8545", cfg.NodeURL)
	assert.Equal(t, bridge.ModeObserve, cfg.SubmitMode)
	assert.Equal(t, 100*time.Millisecond, cfg.ConnectDelay)
	assert.Equal(t, ":8546", cfg.ListenAddr)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Empty(t, cfg.PrivateKey)
	assert.Nil(t, cfg.ChainIDBig())
}

func TestLoadConfigFromEnv(t *testing.T) {
	isolateConfig(t)
	t.Setenv("MOCKWALLET_SUBMIT_MODE", "live")
	t.Setenv("MOCKWALLET_CHAIN_ID", "31337")
	t.Setenv("MOCKWALLET_CONNECT_DELAY", "250ms")
	t.Setenv("MOCKWALLET_LOG_FORMAT", "json")
	t.Setenv("MOCKWALLET_PRIVATE_KEY", "0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80")

	cfg, err := LoadConfig(log.NewNoopLogger())
	require.NoError(t, err)

	assert.Equal(t, bridge.ModeLive, cfg.SubmitMode)
	assert.Equal(t, int64(31337), cfg.ChainIDBig().Int64())
	assert.Equal(t, 250*time.Millisecond, cfg.ConnectDelay)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadConfigDotEnv(t *testing.T) {
	dir := isolateConfig(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("MOCKWALLET_LISTEN_ADDR=:9999\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("MOCKWALLET_LISTEN_ADDR") })

	cfg, err := LoadConfig(log.NewNoopLogger())
	require.NoError(t, err)
	assert.Equal(t, ":9999", cfg.ListenAddr)
}

func TestLoadConfigDatabaseURL(t *testing.T) {
	isolateConfig(t)
	t.Setenv("MOCKWALLET_DATABASE_URL", "postgres://wallet:secret@db:5433/stories?search_path=runs")

	cfg, err := LoadConfig(log.NewNoopLogger())
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "db", cfg.Database.Host)
	assert.Equal(t, "5433", cfg.Database.Port)
	assert.Equal(t, "stories", cfg.Database.Name)
	assert.Equal(t, "runs", cfg.Database.Schema)
	assert.Equal(t, "wallet", cfg.Database.Username)
}

func TestLoadConfigInvalid(t *testing.T) {
	tcs := map[string][2]string{
		"unknown mode":  {"MOCKWALLET_SUBMIT_MODE", "broadcast"},
		"bad key":       {"MOCKWALLET_PRIVATE_KEY", "not-hex"},
		"bad log level": {"MOCKWALLET_LOG_LEVEL", "loud"},
		"bad driver":    {"MOCKWALLET_DATABASE_DRIVER", "mysql"},
		"bad node url":  {"MOCKWALLET_NODE_URL", "::"},
	}

	for name, env := range tcs {
		t.Run(name, func(t *testing.T) {
			isolateConfig(t)
			t.Setenv(env[0], env[1])

			_, err := LoadConfig(log.NewNoopLogger())
			require.Error(t, err)
		})
	}
}
