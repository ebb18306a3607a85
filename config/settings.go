package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// UserSettings holds values the user can change from the browser.
// They are read at startup; a changed library location applies on the next rebuild.
type UserSettings struct {
	LibraryLocation string `json:"libraryLocation"`
}

func defaultSettingsPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".a4blend-settings.json"
	}
	return filepath.Join(homeDir, ".a4blend-settings.json")
}

// LoadSettings reads the settings file. A missing file yields empty settings.
func LoadSettings(path string) (*UserSettings, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return &UserSettings{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	var settings UserSettings
	if err := json.Unmarshal(data, &settings); err != nil {
		return nil, fmt.Errorf("parse settings: %w", err)
	}
	return &settings, nil
}

// SaveSettings writes the settings file
func SaveSettings(path string, settings *UserSettings) error {
	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// ValidateLibraryLocation checks that path is an existing readable directory
func ValidateLibraryLocation(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", path)
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	return f.Close()
}
