package cli

import (
	"errors"
	"fmt"
	"math"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/motis-project/paxmon-client/pkg/paxmon"
	"github.com/motis-project/paxmon-client/pkg/protocol"
	"github.com/motis-project/paxmon-client/pkg/query"
)

func statusCmd(a *app) *cobra.Command {
	var universe uint32

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the status of a universe",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			resp, err := a.api.Status(cmd.Context(), protocol.PaxMonStatusRequest{Universe: universe})
			if err != nil {
				return err
			}
			return a.print(cmd.OutOrStdout(), resp)
		},
	}

	cmd.Flags().Uint32VarP(&universe, "universe", "u", protocol.PrimaryUniverse, "Universe id")
	return cmd
}

func universesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "universes",
		Short: "List the universes of the current multiverse",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			resp, err := a.api.GetUniverses(cmd.Context())
			if err != nil {
				return err
			}
			return a.print(cmd.OutOrStdout(), resp)
		},
	}
}

func datasetInfoCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "dataset-info",
		Short: "Show the loaded schedule, journey and capacity files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			resp, err := a.api.DatasetInfo(cmd.Context())
			if err != nil {
				return err
			}
			return a.print(cmd.OutOrStdout(), resp)
		},
	}
}

func findTripsCmd(a *app) *cobra.Command {
	var universe uint32

	cmd := &cobra.Command{
		Use:   "find-trips <train-nr>",
		Short: "Find trips with passenger data by train number",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			trainNr, err := parseTrainNr(args[0])
			if err != nil {
				return err
			}

			q := paxmon.FindTripsQuery(a.api, universe, &trainNr, false)
			resp, _, err := query.Fetch(cmd.Context(), a.queryClient(), q)
			if err != nil {
				return err
			}
			return a.print(cmd.OutOrStdout(), resp)
		},
	}

	cmd.Flags().Uint32VarP(&universe, "universe", "u", protocol.PrimaryUniverse, "Universe id")
	return cmd
}

func parseTrainNr(s string) (float64, error) {
	n, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) || n < 0 || n > math.MaxUint32 {
		return 0, fmt.Errorf("invalid train number %q", s)
	}
	return n, nil
}

func forkCmd(a *app) *cobra.Command {
	var req protocol.PaxMonForkUniverseRequest

	cmd := &cobra.Command{
		Use:   "fork",
		Short: "Fork a universe and register it for keep-alive",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			resp, err := a.keepAliver().Fork(cmd.Context(), req)
			if resp == nil {
				return err
			}
			if err != nil {
				a.logger.Warn().
					Err(err).
					Uint32("universe", resp.Universe).
					Msg("Universe forked but not registered for keep-alive")
			}
			return a.print(cmd.OutOrStdout(), resp)
		},
	}

	cmd.Flags().Uint32VarP(&req.Universe, "universe", "u", protocol.PrimaryUniverse, "Base universe id")
	cmd.Flags().BoolVar(&req.ForkSchedule, "fork-schedule", false, "Also fork the schedule")
	cmd.Flags().Uint32Var(&req.TTL, "ttl", 120, "Seconds the universe lives without keep-alive")
	return cmd
}

func destroyCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "destroy <universe>",
		Short: "Destroy a forked universe",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			universe, err := parseUniverse(args[0])
			if err != nil {
				return err
			}
			if universe == protocol.PrimaryUniverse {
				return errors.New("the primary universe cannot be destroyed")
			}
			if err := a.keepAliver().Destroy(cmd.Context(), universe); err != nil {
				return err
			}
			return a.print(cmd.OutOrStdout(), map[string]any{"destroyed": universe})
		},
	}
}

func parseUniverse(s string) (uint32, error) {
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid universe %q", s)
	}
	return uint32(n), nil
}

func keepAliveCmd(a *app) *cobra.Command {
	var multiverseID int64
	var watch bool

	cmd := &cobra.Command{
		Use:   "keep-alive [universe...]",
		Short: "Keep forked universes alive",
		Long: "Registers the given universes and sends one keep-alive request for every\n" +
			"tracked universe. With --watch it keeps sending until interrupted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			k := a.keepAliver()

			if cmd.Flags().Changed("multiverse-id") {
				if err := k.SetMultiverseID(ctx, multiverseID); err != nil {
					return err
				}
			}
			for _, arg := range args {
				universe, err := parseUniverse(arg)
				if err != nil {
					return err
				}
				if err := k.Register(ctx, universe); err != nil {
					return err
				}
			}

			resp, err := k.KeepAlive(ctx)
			if errors.Is(err, paxmon.ErrNoMultiverse) {
				return fmt.Errorf("%w: pass --multiverse-id", err)
			}
			if err != nil {
				return err
			}

			if !watch {
				if resp == nil {
					return a.print(cmd.OutOrStdout(), protocol.PaxMonKeepAliveResponse{})
				}
				return a.print(cmd.OutOrStdout(), resp)
			}

			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()
			if err := k.Run(ctx); err != nil && ctx.Err() == nil {
				return err
			}
			return nil
		},
	}

	cmd.Flags().Int64Var(&multiverseID, "multiverse-id", 0, "Multiverse the universes belong to")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Keep sending at the configured interval")
	return cmd
}

func callCmd(a *app) *cobra.Command {
	var data string

	cmd := &cobra.Command{
		Use:   "call <endpoint>",
		Short: "Send a raw JSON request to any paxmon endpoint",
		Long: "Sends --data (inline JSON, @file or @- for stdin) to the endpoint and\n" +
			"prints the verified reply payload. See 'paxmon endpoints'.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ep, ok := paxmon.LookupEndpoint(args[0])
			if !ok {
				return fmt.Errorf("unknown endpoint %q", args[0])
			}

			payload, err := readPayload(data, cmd.InOrStdin())
			if err != nil {
				return err
			}
			if len(payload) > 0 && !ep.HasPayload() {
				return fmt.Errorf("endpoint %s takes no request payload", ep.Name)
			}

			msg, err := a.api.Call(cmd.Context(), ep, payload)
			if err != nil {
				return err
			}
			return a.print(cmd.OutOrStdout(), msg.Content)
		},
	}

	cmd.Flags().StringVarP(&data, "data", "d", "", "Request payload: JSON, @file or @-")
	return cmd
}

func endpointsCmd(_ *app) *cobra.Command {
	return &cobra.Command{
		Use:   "endpoints",
		Short: "List the paxmon endpoints",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tTARGET\tREQUEST\tRESPONSE")
			for _, ep := range paxmon.Endpoints() {
				request := ep.RequestType
				if request == "" {
					request = "-"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", ep.Name, ep.Path, request, ep.ResponseType)
			}
			return tw.Flush()
		},
	}
}
