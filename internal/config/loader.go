package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	// EnvPrefix prefixes every configuration environment variable.
	EnvPrefix = "PAXMON_"

	// EnvConfigFile names the variable holding the YAML config path.
	EnvConfigFile = EnvPrefix + "CONFIG"
)

// Load builds a Config by layering defaults, an optional file and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. YAML file: path, or PAXMON_CONFIG when path is empty
//  3. env (prefix PAXMON_)
func Load(_ context.Context, path string) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path == "" {
		path = os.Getenv(EnvConfigFile)
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	// PAXMON_API_URL -> api_url (flat keys)
	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "paxmon_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadDotEnv loads .env style files into the process environment without
// overriding variables that are already set. Missing files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case c.APIURL == "":
		return errors.New("api_url must not be empty")
	case c.UserAgent == "":
		return errors.New("user_agent must not be empty")
	case c.Timeout <= 0:
		return fmt.Errorf("timeout must be > 0 (got %s)", c.Timeout)
	case c.MaxAttempts < 1:
		return fmt.Errorf("max_attempts must be >= 1 (got %d)", c.MaxAttempts)
	case c.StaleTime < 0:
		return fmt.Errorf("stale_time must not be negative (got %s)", c.StaleTime)
	case c.CacheTime <= 0:
		return fmt.Errorf("cache_time must be > 0 (got %s)", c.CacheTime)
	case c.KeepAliveInterval <= 0:
		return fmt.Errorf("keepalive_interval must be > 0 (got %s)", c.KeepAliveInterval)
	}
	return nil
}
