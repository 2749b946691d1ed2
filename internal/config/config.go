// Package config defines the configuration of the paxmon CLI and the serve
// daemon, and how it is loaded.
package config

import (
	"time"

	"github.com/motis-project/paxmon-client/pkg/logging"
	"github.com/motis-project/paxmon-client/pkg/query"
	"github.com/motis-project/paxmon-client/pkg/transport"
)

// Config contains process configuration.
type Config struct {
	// APIURL is the MOTIS API endpoint requests are posted to.
	APIURL string `koanf:"api_url"`

	// UserAgent is sent with every request.
	UserAgent string `koanf:"user_agent"`

	// Timeout bounds a single HTTP round trip.
	Timeout time.Duration `koanf:"timeout"`

	// MaxAttempts enables retries of server and network failures when > 1.
	MaxAttempts int `koanf:"max_attempts"`

	// InitialBackoff is the first retry delay.
	InitialBackoff time.Duration `koanf:"initial_backoff"`

	// RedisAddr selects the Redis query store and keep-alive state.
	// Empty keeps everything in memory.
	RedisAddr string `koanf:"redis_addr"`

	// RedisDB is the Redis database number.
	RedisDB int `koanf:"redis_db"`

	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogPretty switches to human-readable console logs.
	LogPretty bool `koanf:"log_pretty"`

	// ListenAddr is the serve daemon's HTTP address, e.g. ":9090".
	ListenAddr string `koanf:"listen_addr"`

	// StaleTime and CacheTime are the query engine defaults.
	StaleTime time.Duration `koanf:"stale_time"`
	CacheTime time.Duration `koanf:"cache_time"`

	// KeepAliveInterval is the period of universe keep-alive rounds.
	KeepAliveInterval time.Duration `koanf:"keepalive_interval"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		APIURL:            "http://localhost:8080/",
		UserAgent:         "paxmon-client/1.0",
		Timeout:           60 * time.Second,
		MaxAttempts:       1,
		InitialBackoff:    500 * time.Millisecond,
		LogLevel:          "info",
		ListenAddr:        ":9090",
		StaleTime:         10 * time.Second,
		CacheTime:         5 * time.Minute,
		KeepAliveInterval: 30 * time.Second,
	}
}

// Transport returns the transport configuration.
func (c *Config) Transport() transport.Config {
	cfg := transport.DefaultConfig(c.APIURL, c.UserAgent)
	cfg.Timeout = c.Timeout
	cfg.Retry.MaxAttempts = c.MaxAttempts
	if c.InitialBackoff > 0 {
		cfg.Retry.InitialBackoff = c.InitialBackoff
	}
	return cfg
}

// Query returns the query engine defaults.
func (c *Config) Query() query.Config {
	return query.Config{
		StaleTime: c.StaleTime,
		CacheTime: c.CacheTime,
	}
}

// Logging returns the logger configuration.
func (c *Config) Logging() logging.Config {
	cfg := logging.DefaultConfig()
	cfg.Level = logging.ParseLevel(c.LogLevel)
	cfg.Pretty = c.LogPretty
	return cfg
}
