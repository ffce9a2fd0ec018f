package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Settings configures one engine instance. Layering order is hard defaults,
// then the optional YAML file, then LENDRISK_* environment variables.
type Settings struct {
	Endpoint string
	APIKey   string

	ChainID int64

	Timeout time.Duration
	Retries int

	CacheEnabled bool
	CacheTTL     time.Duration
}

type fileConfig struct {
	Endpoint string `yaml:"endpoint"`
	ChainID  *int64 `yaml:"chain_id"`
	Timeout  string `yaml:"timeout"`
	Retries  *int   `yaml:"retries"`
	Cache    struct {
		Enabled *bool  `yaml:"enabled"`
		TTL     string `yaml:"ttl"`
	} `yaml:"cache"`
	Provider struct {
		APIKey    string `yaml:"api_key"`
		APIKeyEnv string `yaml:"api_key_env"`
	} `yaml:"provider"`
}

func Default() Settings {
	return Settings{
		Endpoint:     "https://api.v3.aave.com/graphql",
		ChainID:      1,
		Timeout:      10 * time.Second,
		Retries:      2,
		CacheEnabled: true,
		CacheTTL:     time.Minute,
	}
}

// Load reads settings from path (missing file is fine) and applies the
// environment on top.
func Load(path string) (Settings, error) {
	settings := Default()

	if err := applyFile(path, &settings); err != nil {
		return Settings{}, err
	}
	applyEnv(&settings)

	if settings.Timeout <= 0 {
		settings.Timeout = 10 * time.Second
	}
	if settings.Retries < 0 {
		settings.Retries = 0
	}
	if settings.CacheTTL <= 0 || settings.CacheTTL > time.Minute {
		settings.CacheTTL = time.Minute
	}
	if settings.ChainID <= 0 {
		settings.ChainID = 1
	}

	return settings, nil
}

func applyFile(path string, settings *Settings) error {
	if strings.TrimSpace(path) == "" {
		return nil
	}
	buf, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}

	var cfg fileConfig
	if err := yaml.Unmarshal(buf, &cfg); err != nil {
		return fmt.Errorf("parse config yaml: %w", err)
	}

	if cfg.Endpoint != "" {
		settings.Endpoint = cfg.Endpoint
	}
	if cfg.ChainID != nil {
		settings.ChainID = *cfg.ChainID
	}
	if cfg.Timeout != "" {
		d, err := time.ParseDuration(cfg.Timeout)
		if err != nil {
			return fmt.Errorf("config timeout: %w", err)
		}
		settings.Timeout = d
	}
	if cfg.Retries != nil {
		settings.Retries = *cfg.Retries
	}
	if cfg.Cache.Enabled != nil {
		settings.CacheEnabled = *cfg.Cache.Enabled
	}
	if cfg.Cache.TTL != "" {
		d, err := time.ParseDuration(cfg.Cache.TTL)
		if err != nil {
			return fmt.Errorf("config cache.ttl: %w", err)
		}
		settings.CacheTTL = d
	}
	if cfg.Provider.APIKey != "" {
		settings.APIKey = cfg.Provider.APIKey
	}
	if cfg.Provider.APIKeyEnv != "" {
		settings.APIKey = os.Getenv(cfg.Provider.APIKeyEnv)
	}

	return nil
}

func applyEnv(settings *Settings) {
	if v := os.Getenv("LENDRISK_ENDPOINT"); v != "" {
		settings.Endpoint = v
	}
	if v := os.Getenv("LENDRISK_CHAIN_ID"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			settings.ChainID = n
		}
	}
	if v := os.Getenv("LENDRISK_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			settings.Timeout = d
		}
	}
	if v := os.Getenv("LENDRISK_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			settings.Retries = n
		}
	}
	if v := os.Getenv("LENDRISK_CACHE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			settings.CacheTTL = d
		}
	}
	if v := os.Getenv("LENDRISK_NO_CACHE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			settings.CacheEnabled = !b
		}
	}
	if v := os.Getenv("LENDRISK_API_KEY"); v != "" {
		settings.APIKey = v
	}
}
