package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stroop/internal/config"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	configPath, initForce = "", false

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func TestConfigSetSavesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	out, err := execute(t, "--config", path, "config", "set", "method", "qr")
	require.NoError(t, err)
	assert.Contains(t, out, "method = qr saved to "+path)

	_, err = execute(t, "--config", path, "config", "set", "notifications", "off")
	require.NoError(t, err)
	_, err = execute(t, "--config", path, "config", "set", "congruent_odds", "0")
	require.NoError(t, err)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, config.MethodQR, cfg.Method())
	assert.False(t, cfg.NotificationsEnabled())
	assert.Zero(t, cfg.CongruentOdds())
}

func TestConfigSetRejectsUnknownKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	_, err := execute(t, "--config", path, "config", "set", "volume", "11")
	assert.ErrorIs(t, err, config.ErrUnknownKey)
	_, err = execute(t, "--config", path, "config", "set", "method")
	assert.Error(t, err, "value is required")
	assert.NoFileExists(t, path)
}

func TestConfigInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	out, err := execute(t, "--config", path, "config", "init")
	require.NoError(t, err)
	assert.Contains(t, out, "wrote "+path)
	body, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(body), `method = "keys"`)
	assert.Contains(t, string(body), "[gesture]")

	_, err = execute(t, "--config", path, "config", "init")
	assert.ErrorContains(t, err, "exists")

	_, err = execute(t, "--config", path, "config", "init", "--force")
	assert.NoError(t, err)
}

func TestConfigPathAndBrokenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	out, err := execute(t, "--config", path, "config", "path")
	require.NoError(t, err)
	assert.Equal(t, path, strings.TrimSpace(out))

	require.NoError(t, os.WriteFile(path, []byte("rounds = 0"), 0o644))
	_, err = execute(t, "--config", path, "config", "path")
	assert.ErrorContains(t, err, "rounds")
}
