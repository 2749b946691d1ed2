package config_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/motis-project/paxmon-client/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()

		convey.Convey("When loading config with defaults only", func() {
			clearConfigEnvVars()

			cfg, err := config.Load(ctx, "")

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.APIURL, convey.ShouldEqual, "http://localhost:8080/")
				convey.So(cfg.MaxAttempts, convey.ShouldEqual, 1)
				convey.So(cfg.ListenAddr, convey.ShouldEqual, ":9090")
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("PAXMON_API_URL", "http://motis:8080/")
			_ = os.Setenv("PAXMON_MAX_ATTEMPTS", "3")
			_ = os.Setenv("PAXMON_TIMEOUT", "15s")
			_ = os.Setenv("PAXMON_REDIS_ADDR", "localhost:6379")
			_ = os.Setenv("PAXMON_LOG_PRETTY", "true")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx, "")

			convey.Convey("Then it should use environment values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.APIURL, convey.ShouldEqual, "http://motis:8080/")
				convey.So(cfg.MaxAttempts, convey.ShouldEqual, 3)
				convey.So(cfg.Timeout, convey.ShouldEqual, 15*time.Second)
				convey.So(cfg.RedisAddr, convey.ShouldEqual, "localhost:6379")
				convey.So(cfg.LogPretty, convey.ShouldBeTrue)
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			yamlContent := `
api_url: "http://file:8080/"
listen_addr: ":7070"
stale_time: 30s
keepalive_interval: 1m
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("PAXMON_CONFIG", tmpFile)
			_ = os.Setenv("PAXMON_LISTEN_ADDR", ":6060")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx, "")

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.APIURL, convey.ShouldEqual, "http://file:8080/")
				convey.So(cfg.ListenAddr, convey.ShouldEqual, ":6060")
				convey.So(cfg.StaleTime, convey.ShouldEqual, 30*time.Second)
				convey.So(cfg.KeepAliveInterval, convey.ShouldEqual, time.Minute)
				convey.So(cfg.CacheTime, convey.ShouldEqual, 5*time.Minute)
			})
		})

		convey.Convey("When an explicit path is given", func() {
			envFile := createTempConfigFile(`api_url: "http://from-env:8080/"`)
			flagFile := createTempConfigFile(`api_url: "http://from-flag:8080/"`)
			defer func() {
				_ = os.Remove(envFile)
				_ = os.Remove(flagFile)
			}()

			_ = os.Setenv("PAXMON_CONFIG", envFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx, flagFile)

			convey.Convey("Then it takes precedence over PAXMON_CONFIG", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.APIURL, convey.ShouldEqual, "http://from-flag:8080/")
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			tmpFile := createTempConfigFile(`invalid: yaml: content: [`)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("PAXMON_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx, "")

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("PAXMON_CONFIG", "/non/existent/file.yaml")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx, "")

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with empty api_url", func() {
			_ = os.Setenv("PAXMON_API_URL", "")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx, "")

			convey.Convey("Then it should return a validation error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err.Error(), convey.ShouldContainSubstring, "api_url must not be empty")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When max_attempts is zero", func() {
			_ = os.Setenv("PAXMON_MAX_ATTEMPTS", "0")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx, "")

			convey.Convey("Then it should return a validation error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err.Error(), convey.ShouldContainSubstring, "max_attempts")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

func TestLoadDotEnv(t *testing.T) {
	convey.Convey("Given a .env file", t, func() {
		dir := t.TempDir()
		path := filepath.Join(dir, ".env")
		err := os.WriteFile(path, []byte("PAXMON_USER_AGENT=dotenv-agent/1.0\n"), 0o600)
		convey.So(err, convey.ShouldBeNil)
		defer clearConfigEnvVars()

		convey.Convey("When it is loaded before the config", func() {
			convey.So(config.LoadDotEnv(path), convey.ShouldBeNil)
			cfg, err := config.Load(context.Background(), "")

			convey.Convey("Then its variables feed the env layer", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.UserAgent, convey.ShouldEqual, "dotenv-agent/1.0")
			})
		})

		convey.Convey("When the file does not exist", func() {
			err := config.LoadDotEnv(filepath.Join(dir, "missing.env"))

			convey.Convey("Then it is ignored", func() {
				convey.So(err, convey.ShouldBeNil)
			})
		})
	})
}

func clearConfigEnvVars() {
	envVars := []string{
		"PAXMON_CONFIG",
		"PAXMON_API_URL",
		"PAXMON_USER_AGENT",
		"PAXMON_TIMEOUT",
		"PAXMON_MAX_ATTEMPTS",
		"PAXMON_REDIS_ADDR",
		"PAXMON_LOG_PRETTY",
		"PAXMON_LISTEN_ADDR",
	}
	for _, envVar := range envVars {
		_ = os.Unsetenv(envVar)
	}
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "paxmon-config-*.yaml")
	if err != nil {
		panic(err)
	}

	if _, err := tmpFile.WriteString(content); err != nil {
		panic(err)
	}

	if err := tmpFile.Close(); err != nil {
		panic(err)
	}

	return tmpFile.Name()
}
