package config

import (
	"errors"
	"log"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pelletier/go-toml/v2"
)

// AppConfig holds the full application configuration.
type AppConfig struct {
	Telegram TelegramConfig `toml:"telegram"`
	Sheets   SheetsConfig   `toml:"sheets"`
	Cache    CacheConfig    `toml:"cache"`
	Bot      BotConfig      `toml:"bot"`
	Server   ServerConfig   `toml:"server"`
}

// TelegramConfig holds bot credentials and registration settings.
type TelegramConfig struct {
	Token            string `toml:"token"`
	RegistrationCode string `toml:"registration_code"`
}

// SheetsConfig points at the workbook backing the row store.
type SheetsConfig struct {
	WorkbookPath string `toml:"workbook_path"`
}

// CacheConfig controls the reference-data cache.
type CacheConfig struct {
	RefreshIntervalMinutes int `toml:"refresh_interval_minutes"`
}

// BotConfig holds conversation-level settings.
type BotConfig struct {
	IdleTimeoutMinutes int `toml:"idle_timeout_minutes"`
}

// ServerConfig configures the mini-app HTTP server.
type ServerConfig struct {
	Port    int  `toml:"port"`
	DevMode bool `toml:"dev_mode"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Telegram: TelegramConfig{
			RegistrationCode: "vipe",
		},
		Sheets: SheetsConfig{
			WorkbookPath: "data/vibe.xlsx",
		},
		Cache: CacheConfig{
			RefreshIntervalMinutes: 1440,
		},
		Bot: BotConfig{
			IdleTimeoutMinutes: 10,
		},
		Server: ServerConfig{
			Port:    8080,
			DevMode: false,
		},
	}
}

// GetExeDir returns the directory of the running executable.
func GetExeDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	return filepath.Dir(exe), nil
}

// LoadConfig reads config.toml next to the executable and applies
// environment overrides. A missing file is not an error; a missing
// Telegram token is.
func LoadConfig() (*AppConfig, error) {
	cfg := DefaultConfig()

	exeDir, err := GetExeDir()
	if err != nil {
		exeDir = "."
	}

	configPath := filepath.Join(exeDir, "config.toml")

	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	case os.IsNotExist(err):
		// First run: write the defaults next to the executable as a
		// template. The process still works off env overrides if the
		// directory is read-only.
		if err := SaveConfig(cfg); err != nil {
			log.Printf("config: could not write default config.toml: %v", err)
		}
	default:
		return nil, err
	}

	applyEnvOverrides(cfg)

	if cfg.Telegram.Token == "" {
		return nil, errors.New("telegram token is not set (config.toml or VIBE_TELEGRAM_TOKEN)")
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *AppConfig) {
	if v := os.Getenv("VIBE_TELEGRAM_TOKEN"); v != "" {
		cfg.Telegram.Token = v
	}
	if v := os.Getenv("VIBE_REGISTRATION_CODE"); v != "" {
		cfg.Telegram.RegistrationCode = v
	}
	if v := os.Getenv("VIBE_WORKBOOK_PATH"); v != "" {
		cfg.Sheets.WorkbookPath = v
	}
	if v := os.Getenv("VIBE_CACHE_REFRESH_INTERVAL"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Cache.RefreshIntervalMinutes = n
		}
	}
	if v := os.Getenv("VIBE_SERVER_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Server.Port = n
		}
	}
}

// SaveConfig writes the configuration back to config.toml.
func SaveConfig(cfg *AppConfig) error {
	exeDir, err := GetExeDir()
	if err != nil {
		exeDir = "."
	}

	data, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}

	return os.WriteFile(filepath.Join(exeDir, "config.toml"), data, 0644)
}
