package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/motis-project/paxmon-client/pkg/logging"
	"github.com/motis-project/paxmon-client/pkg/metrics"
	"github.com/motis-project/paxmon-client/pkg/paxmon"
	"github.com/motis-project/paxmon-client/pkg/protocol"
	"github.com/motis-project/paxmon-client/pkg/query"
)

const (
	requestTimeout  = 30 * time.Second
	shutdownTimeout = 10 * time.Second
)

func serveCmd(a *app) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve cached paxmon queries, health and metrics over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if listen != "" {
				a.cfg.ListenAddr = listen
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if a.redis != nil {
				if err := a.redis.Ping(ctx).Err(); err != nil {
					return err
				}
				a.logger.Info().Str("redis_addr", a.cfg.RedisAddr).Msg("Connected to Redis")
			}

			srv := newServer(a.api, a.queryClient(), a.keepAliver(), a.redis)
			return srv.run(ctx, a.cfg.ListenAddr)
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "Listen address (overrides listen_addr)")
	return cmd
}

// server exposes the query engine over HTTP and runs universe keep-alive.
type server struct {
	api       *paxmon.Client
	queries   *query.Client
	keepAlive *paxmon.KeepAliver
	redis     *redis.Client
	logger    zerolog.Logger
}

func newServer(api *paxmon.Client, queries *query.Client, keepAlive *paxmon.KeepAliver, redisClient *redis.Client) *server {
	return &server{
		api:       api,
		queries:   queries,
		keepAlive: keepAlive,
		redis:     redisClient,
		logger:    logging.NewLogger("serve"),
	}
}

func (s *server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /ready", s.handleReady)
	mux.Handle("GET /metrics", metrics.Handler())

	mux.HandleFunc("GET /api/status", s.handleStatus)
	mux.HandleFunc("GET /api/universes", s.handleUniverses)
	mux.HandleFunc("GET /api/dataset_info", s.handleDatasetInfo)
	mux.HandleFunc("GET /api/find_trips", s.handleFindTrips)
	mux.HandleFunc("GET /api/keepalive", s.handleKeepAliveList)
	mux.HandleFunc("POST /api/invalidate", s.handleInvalidate)
	return mux
}

// run serves until ctx is cancelled, then shuts down gracefully.
func (s *server) run(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info().Str("addr", addr).Msg("Starting paxmon server")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		if err := s.keepAlive.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		s.logger.Info().Msg("Shutting down paxmon server")
		return httpServer.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func (s *server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// handleReady reports ready when the backend answers a status request and
// Redis, if configured, answers a ping.
func (s *server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := map[string]string{}
	ready := true

	if _, err := s.api.Status(ctx, protocol.PaxMonStatusRequest{}); err != nil {
		checks["motis"] = err.Error()
		ready = false
	} else {
		checks["motis"] = "ok"
	}

	if s.redis != nil {
		if err := s.redis.Ping(ctx).Err(); err != nil {
			checks["redis"] = err.Error()
			ready = false
		} else {
			checks["redis"] = "ok"
		}
	}

	status := http.StatusOK
	if !ready {
		status = http.StatusServiceUnavailable
	}
	s.writeJSON(w, status, map[string]any{"ready": ready, "checks": checks})
}

func (s *server) handleStatus(w http.ResponseWriter, r *http.Request) {
	universe, ok := s.universeParam(w, r)
	if !ok {
		return
	}
	serveQuery(s, w, r, paxmon.StatusQuery(s.api, universe))
}

func (s *server) handleUniverses(w http.ResponseWriter, r *http.Request) {
	serveQuery(s, w, r, paxmon.UniversesQuery(s.api))
}

func (s *server) handleDatasetInfo(w http.ResponseWriter, r *http.Request) {
	serveQuery(s, w, r, paxmon.DatasetInfoQuery(s.api))
}

// handleFindTrips answers 400 while train_nr is missing, the same way the
// underlying query stays disabled.
func (s *server) handleFindTrips(w http.ResponseWriter, r *http.Request) {
	universe, ok := s.universeParam(w, r)
	if !ok {
		return
	}

	var trainNr *float64
	if v := r.URL.Query().Get("train_nr"); v != "" {
		n, err := parseTrainNr(v)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, err)
			return
		}
		trainNr = &n
	}

	serveQuery(s, w, r, paxmon.FindTripsQuery(s.api, universe, trainNr, false))
}

func (s *server) handleKeepAliveList(w http.ResponseWriter, r *http.Request) {
	universes, err := s.keepAlive.Universes(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	if universes == nil {
		universes = []uint32{}
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"universes": universes})
}

// handleInvalidate drops every cached paxmon query.
func (s *server) handleInvalidate(w http.ResponseWriter, r *http.Request) {
	n, err := s.queries.Invalidate(r.Context(), paxmon.QueryKeys.All())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"invalidated": n})
}

func serveQuery[T any](s *server, w http.ResponseWriter, r *http.Request, q query.Query[T]) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	data, updatedAt, err := query.Fetch(ctx, s.queries, q)
	if err != nil {
		s.writeError(w, errorStatus(err), err)
		return
	}

	w.Header().Set("X-Paxmon-Query-Key", q.Key.String())
	w.Header().Set("X-Paxmon-Updated-At", updatedAt.UTC().Format(time.RFC3339Nano))
	s.writeJSON(w, http.StatusOK, data)
}

func (s *server) universeParam(w http.ResponseWriter, r *http.Request) (uint32, bool) {
	v := r.URL.Query().Get("universe")
	if v == "" {
		return protocol.PrimaryUniverse, true
	}
	universe, err := parseUniverse(v)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return 0, false
	}
	return universe, true
}

// errorStatus maps query and backend failures to HTTP status codes.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, query.ErrDisabled):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

func (s *server) writeError(w http.ResponseWriter, status int, err error) {
	if status >= 500 {
		s.logger.Error().Err(err).Int("status", status).Msg("Request failed")
	}
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (s *server) writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := protocol.Marshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
