package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "config.toml"))
	require.NoError(t, err)

	assert.Equal(t, "english", c.Language())
	assert.Equal(t, MethodKeys, c.Method())
	assert.Equal(t, 5, c.Rounds())
	assert.Equal(t, time.Second, c.Voice().GetReady.Duration)
	assert.Equal(t, 1500*time.Millisecond, c.Gesture().Hold.Duration)
	assert.Equal(t, []int{0, 1, 2}, c.Swatch().Devices)
	assert.Equal(t, 10*time.Second, c.Manual().KeyTimeout.Duration)
	assert.Equal(t, 0.25, c.CongruentOdds())
	assert.Equal(t, "palm-detection", c.Gesture().PalmModelID)
}

func TestLoadOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
language = "hindi"
method = "gesture"
rounds = 8

[gesture]
hold = "2s"
devices = [1]

[qr]
dir = "codes"
`), 0o644))

	c, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "hindi", c.Language())
	assert.Equal(t, MethodGesture, c.Method())
	assert.Equal(t, 8, c.Rounds())
	assert.Equal(t, 2*time.Second, c.Gesture().Hold.Duration)
	assert.Equal(t, []int{1}, c.Gesture().Devices)
	assert.Equal(t, 10, c.Gesture().StableFrames, "untouched keys keep defaults")
	assert.Equal(t, filepath.Join(dir, "codes"), c.QR().Dir)
}

func TestLoadRejectsBadFiles(t *testing.T) {
	dir := t.TempDir()
	cases := map[string]string{
		"syntax":   "language = ",
		"duration": "[voice]\ntimeout = \"soon\"",
		"method":   `method = "telepathy"`,
		"rounds":   "rounds = 0",
		"odds":     "congruent_odds = 1.5",
		"language": `language = ""`,
	}
	for name, body := range cases {
		path := filepath.Join(dir, name+".toml")
		require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
		_, err := Load(path)
		assert.Error(t, err, name)
	}
}

func TestEnvironmentOverridesAreNotSaved(t *testing.T) {
	t.Setenv(EnvLanguage, "hindi")
	t.Setenv(EnvGoogleAPIKey, "secret")

	path := filepath.Join(t.TempDir(), "config.toml")
	c, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "hindi", c.Language())
	assert.Equal(t, "secret", c.Voice().GoogleAPIKey)

	require.NoError(t, c.SetMethod(MethodVoice))
	saved, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(saved), `method = "voice"`)
	assert.Contains(t, string(saved), `language = "english"`)
	assert.NotContains(t, string(saved), "secret")
}

func TestSettersPersist(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	c, err := Load(path)
	require.NoError(t, err)

	require.NoError(t, c.SetLanguage("hindi"))
	on, err := c.ToggleNotifications()
	require.NoError(t, err)
	assert.False(t, on)
	assert.Error(t, c.SetMethod("telepathy"))

	reloaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "hindi", reloaded.Language())
	assert.False(t, reloaded.NotificationsEnabled())
	assert.Equal(t, 800*time.Millisecond, reloaded.Voice().Pause.Duration)
}

func TestSectionsAreCopies(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "config.toml"))
	require.NoError(t, err)

	v := c.Voice()
	v.Recorders[0] = "changed"
	assert.Equal(t, "portaudio", c.Voice().Recorders[0])
}

func TestSetParsesAndPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	c, err := Load(path)
	require.NoError(t, err)

	require.NoError(t, c.Set(KeyMethod, MethodQR))
	require.NoError(t, c.Set(KeyLanguage, "hindi"))
	require.NoError(t, c.Set(KeyRounds, "12"))
	require.NoError(t, c.Set(KeyCongruentOdds, "0"))
	require.NoError(t, c.Set(KeyNotifications, "off"))
	require.NoError(t, c.Set(KeyNotifications, "off"), "setting the current value keeps it")

	reloaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, MethodQR, reloaded.Method())
	assert.Equal(t, "hindi", reloaded.Language())
	assert.Equal(t, 12, reloaded.Rounds())
	assert.Zero(t, reloaded.CongruentOdds())
	assert.False(t, reloaded.NotificationsEnabled())

	require.NoError(t, c.Set(KeyNotifications, "true"))
	assert.True(t, c.NotificationsEnabled())
}

func TestSetRejectsBadValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	c, err := Load(path)
	require.NoError(t, err)

	assert.ErrorIs(t, c.Set("volume", "11"), ErrUnknownKey)
	assert.Error(t, c.Set(KeyMethod, "telepathy"))
	assert.Error(t, c.Set(KeyLanguage, ""))
	assert.Error(t, c.Set(KeyRounds, "0"))
	assert.Error(t, c.Set(KeyRounds, "many"))
	assert.Error(t, c.Set(KeyCongruentOdds, "2"))
	assert.Error(t, c.Set(KeyNotifications, "maybe"))

	assert.Equal(t, 5, c.Rounds(), "a rejected value leaves the config untouched")
	assert.Equal(t, 0.25, c.CongruentOdds())
	assert.NoFileExists(t, path)
}

func TestNewReadsFileNextToBinary(t *testing.T) {
	path := DefaultPath()
	require.NotEmpty(t, path)
	if _, err := os.Stat(path); err == nil {
		t.Skip("a config.toml already sits next to the test binary")
	}
	t.Cleanup(func() { os.Remove(path) })

	c, err := New()
	require.NoError(t, err)
	assert.Equal(t, path, c.Path())

	require.NoError(t, os.WriteFile(path, []byte(`method = "telepathy"`), 0o644))
	_, err = New()
	assert.ErrorContains(t, err, "telepathy")

	require.NoError(t, os.WriteFile(path, []byte("rounds = "), 0o644))
	_, err = New()
	assert.Error(t, err)
}
