package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/DoyleJ11/versus-room/internal/diff"
	"github.com/DoyleJ11/versus-room/internal/scheduler"
)

type Config struct {
	Env      string
	Addr     string
	LogLevel string

	// DataDir holds file snapshots when no database is configured.
	DataDir string
	DBDSN   string

	// Settings seed every new room.
	Settings   scheduler.Settings
	Thresholds diff.Thresholds
}

// Load reads an optional .env file, then the process environment. Values
// already set in the environment win over the file.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return LoadFromEnv(os.Getenv)
}

func LoadFromEnv(getenv func(string) string) (Config, error) {
	cfg := Config{
		Env:      getenv("APP_ENV"),
		Addr:     getenv("APP_ADDR"),
		LogLevel: getenv("APP_LOG_LEVEL"),
		DataDir:  getenv("APP_DATA_DIR"),
		DBDSN:    getenv("APP_DB_DSN"),
	}

	if cfg.Env == "" {
		cfg.Env = "dev"
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8080"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.DataDir == "" {
		cfg.DataDir = "data"
	}

	switch cfg.Env {
	case "dev", "prod", "test":
	default:
		return Config{}, errors.New("APP_ENV: must be one of dev, test, prod")
	}
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return Config{}, errors.New("APP_LOG_LEVEL: must be one of debug, info, warn, error")
	}

	var err error
	cfg.Settings = scheduler.DefaultSettings
	if cfg.Settings.NewcomerBoost, err = parseBool(getenv, "APP_NEWCOMER_BOOST", cfg.Settings.NewcomerBoost); err != nil {
		return Config{}, err
	}
	if cfg.Settings.Safeguard, err = parseBool(getenv, "APP_SAFEGUARD", cfg.Settings.Safeguard); err != nil {
		return Config{}, err
	}
	if cfg.Settings.HardCap, err = parseBool(getenv, "APP_HARD_CAP", cfg.Settings.HardCap); err != nil {
		return Config{}, err
	}

	cfg.Thresholds = diff.DefaultThresholds
	if cfg.Thresholds.Icon, err = parseDistance(getenv, "APP_ICON_THRESHOLD", cfg.Thresholds.Icon); err != nil {
		return Config{}, err
	}
	if cfg.Thresholds.Text, err = parseDistance(getenv, "APP_TEXT_THRESHOLD", cfg.Thresholds.Text); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) IsProd() bool { return c.Env == "prod" }

func parseBool(getenv func(string) string, key string, def bool) (bool, error) {
	raw := getenv(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return v, nil
}

func parseDistance(getenv func(string) string, key string, def int) (int, error) {
	raw := getenv(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if v < 0 {
		return 0, fmt.Errorf("%s: must be >= 0", key)
	}
	return v, nil
}
