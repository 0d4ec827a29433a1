package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hazyhaar/himnario/pkg/cache"
	"github.com/hazyhaar/himnario/pkg/source/drive"
	"github.com/hazyhaar/himnario/pkg/source/rest"
)

const (
	sourceAssets = "assets"
	sourceREST   = "rest"
	sourceDrive  = "drive"

	backendSQLite = "sqlite"
	backendRedis  = "redis"
	backendMemory = "memory"
)

type config struct {
	Addr          string        `yaml:"addr"`
	LogLevel      string        `yaml:"log_level"`
	DataPath      string        `yaml:"data_path"`
	CheckInterval time.Duration `yaml:"check_interval"`
	Source        sourceConfig  `yaml:"source"`
	Cache         cacheConfig   `yaml:"cache"`
}

type sourceConfig struct {
	Kind   string       `yaml:"kind"`
	Assets assetsConfig `yaml:"assets"`
	REST   rest.Config  `yaml:"rest"`
	Drive  drive.Config `yaml:"drive"`
}

type assetsConfig struct {
	Base string `yaml:"base"`
}

type cacheConfig struct {
	Enabled bool              `yaml:"enabled"`
	Backend string            `yaml:"backend"`
	TTL     time.Duration     `yaml:"ttl"`
	Prefix  string            `yaml:"prefix"`
	Redis   cache.RedisConfig `yaml:"redis"`
}

func defaultConfig() config {
	return config{
		Addr:          ":8420",
		LogLevel:      "info",
		DataPath:      "himnario.db",
		CheckInterval: 5 * time.Minute,
		Source: sourceConfig{
			Kind:   sourceAssets,
			Assets: assetsConfig{Base: "./himnos"},
			REST: rest.Config{
				BaseURL: "http://localhost:8080",
				Client:  "front-end-himnary",
				Country: "CL",
			},
		},
		Cache: cacheConfig{
			Enabled: true,
			Backend: backendSQLite,
			TTL:     cache.DefaultTTL,
			Prefix:  "himnario:drive:",
			Redis:   cache.RedisConfig{Addr: "localhost:6379"},
		},
	}
}

// loadConfig reads path over the defaults. A missing file means defaults.
// Secrets may come from the environment instead of the file.
func loadConfig(path string) (config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return cfg, fmt.Errorf("read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if v := os.Getenv("HIMNARIO_DRIVE_API_KEY"); v != "" {
		cfg.Source.Drive.APIKey = v
	}
	if v := os.Getenv("HIMNARIO_REDIS_PASSWORD"); v != "" {
		cfg.Cache.Redis.Password = v
	}

	return cfg, cfg.validate()
}

func (c config) validate() error {
	switch c.Source.Kind {
	case sourceAssets:
		if c.Source.Assets.Base == "" {
			return fmt.Errorf("source.assets.base is required")
		}
	case sourceREST:
		if c.Source.REST.BaseURL == "" {
			return fmt.Errorf("source.rest.base_url is required")
		}
	case sourceDrive:
		if c.Source.Drive.APIKey == "" || c.Source.Drive.FolderID == "" {
			return fmt.Errorf("source.drive.api_key and source.drive.folder_id are required")
		}
	default:
		return fmt.Errorf("unknown source.kind %q (want assets, rest or drive)", c.Source.Kind)
	}

	switch c.Cache.Backend {
	case backendSQLite, backendRedis, backendMemory:
	default:
		return fmt.Errorf("unknown cache.backend %q (want sqlite, redis or memory)", c.Cache.Backend)
	}
	if c.CheckInterval <= 0 {
		return fmt.Errorf("check_interval must be positive")
	}
	return nil
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
