package paxmon

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/motis-project/paxmon-client/pkg/protocol"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// Prometheus metrics for universe keep-alive.
var (
	keepAliveUniverses = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "paxmon_keepalive_universes",
		Help: "Number of forked universes currently kept alive",
	})

	keepAliveRoundsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "paxmon_keepalive_rounds_total",
		Help: "Total number of keep-alive requests by outcome",
	}, []string{"outcome"})

	keepAliveExpiredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "paxmon_keepalive_expired_total",
		Help: "Total number of universes reported expired by the backend",
	})
)

// DefaultKeepAliveInterval is well below the backend's default universe TTL.
const DefaultKeepAliveInterval = 30 * time.Second

// ErrNoMultiverse is returned when universes are tracked but the multiverse
// they belong to is unknown.
var ErrNoMultiverse = errors.New("multiverse id unknown")

// KeepAliver keeps forked universes from expiring on the backend. Universes
// forked through it are tracked in a UniverseStore and refreshed with a
// keep-alive request every interval; universes the backend reports as
// expired are dropped.
type KeepAliver struct {
	api      *Client
	store    UniverseStore
	interval time.Duration
	logger   zerolog.Logger
}

// NewKeepAliver creates a keep-aliver. A nil store keeps state in process.
func NewKeepAliver(api *Client, store UniverseStore, interval time.Duration, logger zerolog.Logger) *KeepAliver {
	if store == nil {
		store = NewMemoryUniverseStore()
	}
	if interval <= 0 {
		interval = DefaultKeepAliveInterval
	}
	return &KeepAliver{
		api:      api,
		store:    store,
		interval: interval,
		logger:   logger,
	}
}

// Fork forks a universe and starts keeping the new one alive.
func (k *KeepAliver) Fork(ctx context.Context, req protocol.PaxMonForkUniverseRequest) (*protocol.PaxMonForkUniverseResponse, error) {
	resp, err := k.api.ForkUniverse(ctx, req)
	if err != nil {
		return nil, err
	}

	_, known, err := k.store.MultiverseID(ctx)
	if err != nil {
		return resp, fmt.Errorf("read multiverse id: %w", err)
	}
	if !known {
		status, err := k.api.Status(ctx, protocol.PaxMonStatusRequest{Universe: resp.Universe})
		if err != nil {
			return resp, fmt.Errorf("learn multiverse id: %w", err)
		}
		if err := k.store.SetMultiverseID(ctx, status.MultiverseID); err != nil {
			return resp, err
		}
	}

	if err := k.Register(ctx, resp.Universe); err != nil {
		return resp, err
	}

	k.logger.Info().
		Uint32("universe", resp.Universe).
		Uint32("base_universe", req.Universe).
		Uint32("ttl", resp.TTL).
		Msg("Forked universe")

	return resp, nil
}

// Destroy destroys a forked universe and stops keeping it alive.
func (k *KeepAliver) Destroy(ctx context.Context, universe uint32) error {
	if _, err := k.api.DestroyUniverse(ctx, protocol.PaxMonDestroyUniverseRequest{Universe: universe}); err != nil {
		return err
	}
	if err := k.Unregister(ctx, universe); err != nil {
		return err
	}

	k.logger.Info().
		Uint32("universe", universe).
		Msg("Destroyed universe")
	return nil
}

// Register starts keeping an existing universe alive. The primary universe
// never expires and is ignored.
func (k *KeepAliver) Register(ctx context.Context, universe uint32) error {
	if universe == protocol.PrimaryUniverse {
		return nil
	}
	if err := k.store.Add(ctx, universe); err != nil {
		return err
	}
	k.refreshGauge(ctx)
	return nil
}

// Unregister stops keeping a universe alive.
func (k *KeepAliver) Unregister(ctx context.Context, universe uint32) error {
	if err := k.store.Remove(ctx, universe); err != nil {
		return err
	}
	k.refreshGauge(ctx)
	return nil
}

// Universes returns the tracked universes.
func (k *KeepAliver) Universes(ctx context.Context) ([]uint32, error) {
	return k.store.List(ctx)
}

// SetMultiverseID records the multiverse the tracked universes belong to.
func (k *KeepAliver) SetMultiverseID(ctx context.Context, id int64) error {
	return k.store.SetMultiverseID(ctx, id)
}

// KeepAlive sends one keep-alive request for every tracked universe. It
// returns nil without contacting the backend when nothing is tracked.
//
// Universes reported expired are dropped. When the backend answers for a
// different multiverse (it restarted), every tracked universe is gone and
// the state is cleared.
func (k *KeepAliver) KeepAlive(ctx context.Context) (*protocol.PaxMonKeepAliveResponse, error) {
	universes, err := k.store.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(universes) == 0 {
		keepAliveUniverses.Set(0)
		return nil, nil
	}

	multiverseID, known, err := k.store.MultiverseID(ctx)
	if err != nil {
		return nil, err
	}
	if !known {
		return nil, ErrNoMultiverse
	}

	resp, err := k.api.KeepAlive(ctx, protocol.PaxMonKeepAliveRequest{
		MultiverseID: multiverseID,
		Universes:    universes,
	})
	if err != nil {
		keepAliveRoundsTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	keepAliveRoundsTotal.WithLabelValues("success").Inc()

	if resp.MultiverseID != multiverseID {
		k.logger.Warn().
			Int64("multiverse_id", multiverseID).
			Int64("backend_multiverse_id", resp.MultiverseID).
			Int("universes", len(universes)).
			Msg("Backend multiverse changed, dropping tracked universes")
		keepAliveExpiredTotal.Add(float64(len(universes)))
		if err := k.store.Clear(ctx); err != nil {
			return resp, err
		}
		keepAliveUniverses.Set(0)
		return resp, nil
	}

	if len(resp.Expired) > 0 {
		k.logger.Warn().
			Interface("universes", resp.Expired).
			Msg("Universes expired")
		keepAliveExpiredTotal.Add(float64(len(resp.Expired)))
		if err := k.store.Remove(ctx, resp.Expired...); err != nil {
			return resp, err
		}
	}

	k.refreshGauge(ctx)

	k.logger.Debug().
		Int("alive", len(resp.Alive)).
		Int("expired", len(resp.Expired)).
		Msg("Keep-alive round complete")

	return resp, nil
}

// Run sends keep-alive requests every interval until ctx is cancelled.
// Failed rounds are logged and retried on the next tick.
func (k *KeepAliver) Run(ctx context.Context) error {
	ticker := time.NewTicker(k.interval)
	defer ticker.Stop()

	k.logger.Info().
		Dur("interval", k.interval).
		Msg("Universe keep-alive started")

	for {
		select {
		case <-ctx.Done():
			k.logger.Info().Msg("Universe keep-alive stopped")
			return ctx.Err()
		case <-ticker.C:
			if _, err := k.KeepAlive(ctx); err != nil && ctx.Err() == nil {
				k.logger.Error().
					Err(err).
					Msg("Keep-alive round failed")
			}
		}
	}
}

func (k *KeepAliver) refreshGauge(ctx context.Context) {
	if universes, err := k.store.List(ctx); err == nil {
		keepAliveUniverses.Set(float64(len(universes)))
	}
}
