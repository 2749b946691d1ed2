// Package cli implements the paxmon command line tool.
package cli

import (
	"fmt"
	"os"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/motis-project/paxmon-client/internal/config"
	"github.com/motis-project/paxmon-client/pkg/logging"
	"github.com/motis-project/paxmon-client/pkg/paxmon"
	"github.com/motis-project/paxmon-client/pkg/query"
	"github.com/motis-project/paxmon-client/pkg/transport"
)

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	cmd := newRootCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// app carries the global flags and the clients built from them.
type app struct {
	configPath string
	apiURL     string
	logLevel   string
	output     string
	selectExpr string

	cfg       *config.Config
	transport *transport.Client
	api       *paxmon.Client
	redis     *redis.Client
	logger    zerolog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:           "paxmon",
		Short:         "Query the MOTIS passenger monitoring API",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
		PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
			return a.close()
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "YAML config file (default: $PAXMON_CONFIG)")
	flags.StringVar(&a.apiURL, "api", "", "MOTIS API URL (overrides api_url)")
	flags.StringVar(&a.logLevel, "log-level", "", "Log level: debug|info|warn|error")
	flags.StringVarP(&a.output, "output", "o", "json", "Output format: json|yaml")
	flags.StringVar(&a.selectExpr, "select", "", "JSONPath expression applied to the result, e.g. $.universes[*].id")

	cmd.AddCommand(
		statusCmd(a),
		universesCmd(a),
		datasetInfoCmd(a),
		findTripsCmd(a),
		forkCmd(a),
		destroyCmd(a),
		keepAliveCmd(a),
		callCmd(a),
		endpointsCmd(a),
		serveCmd(a),
	)
	return cmd
}

// init loads the configuration and builds the clients. Flags override
// config values.
func (a *app) init(cmd *cobra.Command) error {
	if err := config.LoadDotEnv(); err != nil {
		return err
	}

	cfg, err := config.Load(cmd.Context(), a.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if a.apiURL != "" {
		cfg.APIURL = a.apiURL
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}
	if err := validateOutput(a.output); err != nil {
		return err
	}
	a.cfg = cfg

	logging.Setup(cfg.Logging())
	a.logger = logging.NewLogger("cli")

	a.transport, err = transport.New(cfg.Transport())
	if err != nil {
		return fmt.Errorf("create transport: %w", err)
	}
	a.api = paxmon.NewClient(a.transport)

	if cfg.RedisAddr != "" {
		a.redis = redis.NewClient(&redis.Options{
			Addr: cfg.RedisAddr,
			DB:   cfg.RedisDB,
		})
	}
	return nil
}

func (a *app) close() error {
	if a.transport != nil {
		_ = a.transport.Close()
	}
	if a.redis != nil {
		return a.redis.Close()
	}
	return nil
}

// queryClient returns a query engine on Redis when configured, in memory
// otherwise.
func (a *app) queryClient() *query.Client {
	var store query.Store
	if a.redis != nil {
		store = query.NewRedisStore(a.redis)
	}
	return query.NewClient(store, a.cfg.Query())
}

// keepAliver tracks universes in Redis when configured so that a running
// serve daemon keeps universes forked from the CLI alive.
func (a *app) keepAliver() *paxmon.KeepAliver {
	var store paxmon.UniverseStore
	if a.redis != nil {
		store = paxmon.NewRedisUniverseStore(a.redis)
	}
	return paxmon.NewKeepAliver(a.api, store, a.cfg.KeepAliveInterval, logging.NewLogger("keepalive"))
}
