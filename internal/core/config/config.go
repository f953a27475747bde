package config

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config represents the top-level application config.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Store    StoreConfig    `koanf:"store"`
	Registry RegistryConfig `koanf:"registry"`
}

type ServerConfig struct {
	Port int    `koanf:"port"`
	Host string `koanf:"host"`
	Mode string `koanf:"mode"` // debug | release
}

// StoreConfig selects and tunes the health store backend. The postgres
// backend needs a DSN; the memory backend ignores everything but Type.
type StoreConfig struct {
	Type         string `koanf:"type"` // postgres | memory
	DSN          string `koanf:"dsn"`
	MaxOpenConns int    `koanf:"max_open_conns"`
	MaxIdleConns int    `koanf:"max_idle_conns"`
	AutoMigrate  bool   `koanf:"auto_migrate"`
}

// RegistryConfig points at the optional directory of metric descriptor
// extension files.
type RegistryConfig struct {
	ConfigDir string `koanf:"config_dir"`
}

func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d (must be 1-65535)", c.Server.Port)
	}
	if strings.TrimSpace(c.Server.Host) == "" {
		return fmt.Errorf("server.host is required")
	}
	if c.Server.Mode != "debug" && c.Server.Mode != "release" {
		return fmt.Errorf("invalid server.mode %q (must be debug or release)", c.Server.Mode)
	}

	switch c.Store.Type {
	case "memory":
	case "postgres":
		if strings.TrimSpace(c.Store.DSN) == "" {
			return fmt.Errorf("store.dsn is required for the postgres store")
		}
		if c.Store.MaxOpenConns <= 0 {
			return fmt.Errorf("store.max_open_conns must be > 0")
		}
		if c.Store.MaxIdleConns <= 0 {
			return fmt.Errorf("store.max_idle_conns must be > 0")
		}
	default:
		return fmt.Errorf("unsupported store.type %q (must be postgres or memory)", c.Store.Type)
	}

	return nil
}

// Load parses config from file + env and validates it. The registry config
// dir is allowed to be absent; the loader treats a missing directory as
// "no extensions".
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	defaults := map[string]interface{}{
		"server.port":          8080,
		"server.host":          "0.0.0.0",
		"server.mode":          "release",
		"store.type":           "postgres",
		"store.dsn":            "postgres://localhost:5432/healthbridge?sslmode=disable",
		"store.max_open_conns": 25,
		"store.max_idle_conns": 25,
		"store.auto_migrate":   true,
		"registry.config_dir":  "./config/metrics",
	}
	for key, value := range defaults {
		k.Set(key, value)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	if err := k.Load(env.Provider("HEALTHBRIDGE_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, "HEALTHBRIDGE_")), "__", ".", -1)
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}
