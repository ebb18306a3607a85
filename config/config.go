package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	defaultPort             = 8080
	defaultPlaceholderCover = "/assets/default.jpg"
	defaultFallbackCover    = "/assets/default.png"
	defaultBuildWorkers     = 8
	defaultFetchTimeout     = 10 * time.Second
)

var defaultCORSOrigins = []string{"http://localhost:3000", "http://localhost:5173", "http://localhost:5174"}

type Config struct {
	LibraryLocation string   `koanf:"library_location"` // directory scanned for audio files
	AssetsDir       string   `koanf:"assets_dir"`       // served under /assets
	Port            int      `koanf:"port"`
	CORSOrigins     []string `koanf:"cors_origins"`
	LogLevel        string   `koanf:"log_level"` // "debug", "info", "warn", "error"

	// Catalog build
	PlaceholderCover string        `koanf:"placeholder_cover"` // cover used when extraction yields nothing
	FallbackCover    string        `koanf:"fallback_cover"`    // second-level default for failed image loads
	CoverMaxSize     int           `koanf:"cover_max_size"`    // 0 keeps embedded art untouched
	BuildWorkers     int           `koanf:"build_workers"`     // concurrent extractions
	FetchTimeout     time.Duration `koanf:"fetch_timeout"`
	StreamBaseURL    string        `koanf:"stream_base_url"` // when set, covers are fetched over HTTP instead of from disk

	SettingsPath string `koanf:"settings_path"`
}

// Load reads config files, then the user settings file, then env overrides
func Load() (*Config, error) {
	k := koanf.New(".")

	for _, path := range getConfigPaths() {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return nil, err
			}
		}
	}

	cfg := &Config{
		Port:             defaultPort,
		CORSOrigins:      defaultCORSOrigins,
		LogLevel:         "info",
		PlaceholderCover: defaultPlaceholderCover,
		FallbackCover:    defaultFallbackCover,
		BuildWorkers:     defaultBuildWorkers,
		FetchTimeout:     defaultFetchTimeout,
		AssetsDir:        "assets",
		SettingsPath:     defaultSettingsPath(),
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}

	if cfg.LibraryLocation == "" {
		cfg.LibraryLocation = defaultLibraryLocation()
	}

	// Saved user settings win over config files
	if settings, err := LoadSettings(cfg.SettingsPath); err == nil && settings.LibraryLocation != "" {
		cfg.LibraryLocation = settings.LibraryLocation
	}

	applyEnv(cfg)

	cfg.LibraryLocation = expandPath(cfg.LibraryLocation)
	cfg.AssetsDir = expandPath(cfg.AssetsDir)
	cfg.SettingsPath = expandPath(cfg.SettingsPath)
	cfg.StreamBaseURL = strings.TrimSuffix(cfg.StreamBaseURL, "/")

	if cfg.BuildWorkers <= 0 {
		cfg.BuildWorkers = defaultBuildWorkers
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = defaultFetchTimeout
	}

	return cfg, nil
}

func applyEnv(cfg *Config) {
	if library := os.Getenv("A4BLEND_LIBRARY"); library != "" {
		cfg.LibraryLocation = library
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil && p > 0 {
			cfg.Port = p
		}
	}
	if origins := os.Getenv("CORS_ORIGINS"); origins != "" {
		cfg.CORSOrigins = strings.Split(origins, ",")
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		cfg.LogLevel = level
	}
}

func getConfigPaths() []string {
	paths := []string{}

	// 1. ~/.config/a4blend/config.toml
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "a4blend", "config.toml"))
	}

	// 2. ./config.toml (pwd, highest priority)
	paths = append(paths, "config.toml")

	return paths
}

func defaultLibraryLocation() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "songs")
	}
	return filepath.Join(homeDir, "Music")
}

func expandPath(path string) string {
	if path != "" && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}
