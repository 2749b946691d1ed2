//go:build integration

package integration

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/motis-project/paxmon-client/internal/testutil"
	"github.com/motis-project/paxmon-client/pkg/paxmon"
	"github.com/motis-project/paxmon-client/pkg/protocol"
	"github.com/motis-project/paxmon-client/pkg/query"
	"github.com/motis-project/paxmon-client/pkg/transport"
)

// setupRedis creates a Redis container for integration testing.
func setupRedis(t *testing.T) (*redis.Client, func()) {
	t.Helper()

	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections"),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("Failed to start Redis container: %v", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}

	port, err := container.MappedPort(ctx, "6379")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr: host + ":" + port.Port(),
	})

	cleanup := func() {
		redisClient.Close()
		container.Terminate(ctx)
	}

	return redisClient, cleanup
}

func newAPI(t *testing.T, mock *testutil.MockMotis) *paxmon.Client {
	t.Helper()
	tr, err := transport.New(transport.DefaultConfig(mock.URL(), "paxmon-integration/1.0"))
	if err != nil {
		t.Fatalf("Failed to create transport: %v", err)
	}
	return paxmon.NewClient(tr)
}

// TestQueryCacheSharedAcrossClients checks that two query clients on the
// same Redis share cached values and invalidations.
func TestQueryCacheSharedAcrossClients(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	mock := testutil.NewMockMotis()
	defer mock.Close()
	mock.SetResponse("/paxmon/universes", testutil.NewSuccessResponse("PaxMonGetUniversesResponse",
		protocol.PaxMonGetUniversesResponse{MultiverseID: 17}))

	api := newAPI(t, mock)
	cfg := query.Config{StaleTime: time.Minute, CacheTime: 5 * time.Minute}
	first := query.NewClient(query.NewRedisStore(redisClient), cfg)
	second := query.NewClient(query.NewRedisStore(redisClient), cfg)

	ctx := context.Background()

	resp, _, err := query.Fetch(ctx, first, paxmon.UniversesQuery(api))
	if err != nil {
		t.Fatalf("first fetch: %v", err)
	}
	if resp.MultiverseID != 17 {
		t.Errorf("MultiverseID = %d, want 17", resp.MultiverseID)
	}

	resp, _, err = query.Fetch(ctx, second, paxmon.UniversesQuery(api))
	if err != nil {
		t.Fatalf("second fetch: %v", err)
	}
	if resp.MultiverseID != 17 {
		t.Errorf("cached MultiverseID = %d, want 17", resp.MultiverseID)
	}
	if got := mock.TargetCount("/paxmon/universes"); got != 1 {
		t.Errorf("backend calls = %d, want 1 (second client should hit Redis)", got)
	}

	n, err := second.Invalidate(ctx, paxmon.QueryKeys.All())
	if err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if n != 1 {
		t.Errorf("invalidated = %d, want 1", n)
	}

	if _, _, err := query.Fetch(ctx, first, paxmon.UniversesQuery(api)); err != nil {
		t.Fatalf("fetch after invalidate: %v", err)
	}
	if got := mock.TargetCount("/paxmon/universes"); got != 2 {
		t.Errorf("backend calls = %d, want 2 after invalidation", got)
	}
}

// TestConcurrentFetchDeduplicated checks that concurrent identical queries
// share a single backend request.
func TestConcurrentFetchDeduplicated(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	mock := testutil.NewMockMotis()
	defer mock.Close()
	resp := testutil.NewSuccessResponse("PaxMonDatasetInfoResponse", protocol.PaxMonDatasetInfoResponse{MotisStartTime: 1})
	resp.Delay = 200 * time.Millisecond
	mock.SetResponse("/paxmon/dataset_info", resp)

	api := newAPI(t, mock)
	client := query.NewClient(query.NewRedisStore(redisClient), query.DefaultConfig())

	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, _, err := query.Fetch(context.Background(), client, paxmon.DatasetInfoQuery(api)); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("fetch: %v", err)
	}
	if got := mock.TargetCount("/paxmon/dataset_info"); got != 1 {
		t.Errorf("backend calls = %d, want 1", got)
	}
}

// TestKeepAliveStateShared checks that a universe forked by one process is
// kept alive by another process using the same Redis.
func TestKeepAliveStateShared(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	mock := testutil.NewMockMotis()
	defer mock.Close()
	mock.SetResponse("/paxmon/fork_universe", testutil.NewSuccessResponse("PaxMonForkUniverseResponse",
		protocol.PaxMonForkUniverseResponse{Universe: 8, TTL: 120}))
	mock.SetResponse("/paxmon/status", testutil.NewSuccessResponse("PaxMonStatusResponse",
		protocol.PaxMonStatusResponse{MultiverseID: 21}))
	mock.SetResponse("/paxmon/keep_alive", testutil.NewSuccessResponse("PaxMonKeepAliveResponse",
		protocol.PaxMonKeepAliveResponse{
			MultiverseID: 21,
			Alive:        []protocol.PaxMonUniverseKeepAliveInfo{{Universe: 8, ExpiresIn: 120}},
		}))

	api := newAPI(t, mock)
	ctx := context.Background()

	forker := paxmon.NewKeepAliver(api, paxmon.NewRedisUniverseStore(redisClient), time.Minute, zerolog.Nop())
	if _, err := forker.Fork(ctx, protocol.PaxMonForkUniverseRequest{TTL: 120}); err != nil {
		t.Fatalf("fork: %v", err)
	}

	daemon := paxmon.NewKeepAliver(api, paxmon.NewRedisUniverseStore(redisClient), time.Minute, zerolog.Nop())
	universes, err := daemon.Universes(ctx)
	if err != nil {
		t.Fatalf("universes: %v", err)
	}
	if len(universes) != 1 || universes[0] != 8 {
		t.Fatalf("tracked universes = %v, want [8]", universes)
	}

	ka, err := daemon.KeepAlive(ctx)
	if err != nil {
		t.Fatalf("keep-alive: %v", err)
	}
	if len(ka.Alive) != 1 {
		t.Errorf("alive = %v, want one universe", ka.Alive)
	}

	var req protocol.PaxMonKeepAliveRequest
	if err := protocol.Unmarshal(mock.LastMessage().Content, &req); err != nil {
		t.Fatalf("decode keep-alive request: %v", err)
	}
	if req.MultiverseID != 21 {
		t.Errorf("multiverse id = %d, want 21", req.MultiverseID)
	}
}

// TestKeepAliveMultiverseChange checks that a backend restart clears the
// shared keep-alive state.
func TestKeepAliveMultiverseChange(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	mock := testutil.NewMockMotis()
	defer mock.Close()
	mock.SetResponse("/paxmon/keep_alive", testutil.NewSuccessResponse("PaxMonKeepAliveResponse",
		protocol.PaxMonKeepAliveResponse{MultiverseID: 99, Expired: []uint32{3, 4}}))

	api := newAPI(t, mock)
	ctx := context.Background()

	store := paxmon.NewRedisUniverseStore(redisClient)
	k := paxmon.NewKeepAliver(api, store, time.Minute, zerolog.Nop())
	if err := k.SetMultiverseID(ctx, 5); err != nil {
		t.Fatalf("set multiverse: %v", err)
	}
	for _, u := range []uint32{3, 4} {
		if err := k.Register(ctx, u); err != nil {
			t.Fatalf("register %d: %v", u, err)
		}
	}

	if _, err := k.KeepAlive(ctx); err != nil {
		t.Fatalf("keep-alive: %v", err)
	}

	universes, err := store.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(universes) != 0 {
		t.Errorf("tracked universes = %v, want none", universes)
	}
	if _, known, err := store.MultiverseID(ctx); err != nil || known {
		t.Errorf("multiverse id should be cleared (known=%v, err=%v)", known, err)
	}
}
