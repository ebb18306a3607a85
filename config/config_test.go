package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettingsRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")

	settings, err := LoadSettings(path)
	require.NoError(t, err)
	assert.Empty(t, settings.LibraryLocation)

	require.NoError(t, SaveSettings(path, &UserSettings{LibraryLocation: "/srv/music"}))

	settings, err = LoadSettings(path)
	require.NoError(t, err)
	assert.Equal(t, "/srv/music", settings.LibraryLocation)
}

func TestLoadSettings_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := LoadSettings(path)
	assert.Error(t, err)
}

func TestValidateLibraryLocation(t *testing.T) {
	dir := t.TempDir()
	assert.NoError(t, ValidateLibraryLocation(dir))

	filePath := filepath.Join(dir, "song.mp3")
	require.NoError(t, os.WriteFile(filePath, []byte("x"), 0o600))
	assert.Error(t, ValidateLibraryLocation(filePath))

	assert.Error(t, ValidateLibraryLocation(filepath.Join(dir, "missing")))
}

func TestLoad_ConfigFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", dir)

	toml := `
library_location = "/from/config"
port = 9000
cover_max_size = 256
fetch_timeout = "3s"
settings_path = "` + filepath.Join(dir, "settings.json") + `"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(toml), 0o600))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/from/config", cfg.LibraryLocation)
	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, 256, cfg.CoverMaxSize)
	assert.Equal(t, "3s", cfg.FetchTimeout.String())
	assert.Equal(t, defaultPlaceholderCover, cfg.PlaceholderCover)

	t.Setenv("A4BLEND_LIBRARY", "/from/env")
	t.Setenv("SERVER_PORT", "9100")

	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, "/from/env", cfg.LibraryLocation)
	assert.Equal(t, 9100, cfg.Port)
}

func TestLoad_SettingsOverrideConfigFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", dir)

	settingsPath := filepath.Join(dir, "settings.json")
	require.NoError(t, SaveSettings(settingsPath, &UserSettings{LibraryLocation: "/from/settings"}))

	toml := `
library_location = "/from/config"
settings_path = "` + settingsPath + `"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(toml), 0o600))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/from/settings", cfg.LibraryLocation)
}
