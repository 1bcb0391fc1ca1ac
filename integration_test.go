//go:build integration

package discocache_test

import (
	"context"
	"net"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/redis/go-redis/v9"
	testcontainers "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/goforj/discocache"
	"github.com/goforj/discocache/discofake"
	"github.com/goforj/discocache/discotest"
)

var integrationRedis struct {
	container testcontainers.Container
	addr      string
}

func TestMain(m *testing.M) {
	ctx := context.Background()

	if integrationDriverEnabled("redis") {
		container, addr, err := startRedisContainer(ctx)
		if err != nil {
			// Surface error and exit early to avoid running partial suites.
			_, _ = os.Stderr.WriteString("failed to start redis integration container: " + err.Error() + "\n")
			os.Exit(1)
		}
		integrationRedis.container = container
		integrationRedis.addr = addr
	}

	exitCode := m.Run()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if integrationRedis.container != nil {
		_ = integrationRedis.container.Terminate(shutdownCtx)
	}

	os.Exit(exitCode)
}

// selectedIntegrationDrivers chooses which drivers run under the integration
// tag. INTEGRATION_DRIVER may be "all" (default) or a comma-separated list
// such as "redis,sql".
func selectedIntegrationDrivers() map[string]bool {
	selected := map[string]bool{
		"redis": true,
		"sql":   true,
	}
	value := strings.TrimSpace(strings.ToLower(os.Getenv("INTEGRATION_DRIVER")))
	if value == "" || value == "all" {
		return selected
	}
	for key := range selected {
		selected[key] = false
	}
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		selected[part] = true
	}
	return selected
}

func integrationDriverEnabled(name string) bool {
	return selectedIntegrationDrivers()[strings.ToLower(name)]
}

func startRedisContainer(ctx context.Context) (testcontainers.Container, string, error) {
	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, "", err
	}
	host, err := container.Host(ctx)
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, "", err
	}
	port, err := container.MappedPort(ctx, nat.Port("6379/tcp"))
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, "", err
	}
	return container, net.JoinHostPort(host, port.Port()), nil
}

func newIntegrationRedisStore(t *testing.T, prefix string) discocache.Store {
	t.Helper()
	if !integrationDriverEnabled("redis") {
		t.Skip("redis integration driver disabled")
	}
	client := redis.NewClient(&redis.Options{Addr: integrationRedis.addr})
	t.Cleanup(func() { _ = client.Close() })
	return discocache.NewRedisStore(context.Background(), client,
		discocache.WithPrefix(prefix),
		discocache.WithDefaultTTL(2*time.Second),
	)
}

func TestRedisStoreContractIntegration(t *testing.T) {
	store := newIntegrationRedisStore(t, "itest-contract")
	discotest.RunStoreContract(t, store, discotest.Options{
		TTL:     200 * time.Millisecond,
		TTLWait: time.Second,
	})
}

func TestCachingSupplierOverRedisIntegration(t *testing.T) {
	ctx := context.Background()
	store := newIntegrationRedisStore(t, "itest-supplier")
	t.Cleanup(func() { _ = store.Flush(context.Background()) })

	delegate := discofake.NewSupplier("orders", discocache.Snapshot{
		{ID: "orders-1", Host: "10.0.0.1", Port: 8080},
		{ID: "orders-2", Host: "10.0.0.2", Port: 8080},
	})
	supplier, err := discocache.New(delegate, store)
	if err != nil {
		t.Fatalf("new failed: %v", err)
	}

	run := func() discocache.Snapshot {
		var last discocache.Snapshot
		if err := supplier.Instances(ctx, func(snap discocache.Snapshot) error {
			last = snap
			return nil
		}); err != nil {
			t.Fatalf("subscription failed: %v", err)
		}
		return last
	}

	first := run()
	if len(first) != 2 {
		t.Fatalf("unexpected first snapshot: %+v", first)
	}
	second := run()
	if len(second) != 2 || second[0].ID != "orders-1" {
		t.Fatalf("unexpected cached snapshot: %+v", second)
	}
	delegate.AssertCalls(t, 1)
}

func TestCachingSupplierOverSQLIntegration(t *testing.T) {
	if !integrationDriverEnabled("sql") {
		t.Skip("sql integration driver disabled")
	}
	ctx := context.Background()
	store := discocache.NewSQLStore(ctx, "sqlite", t.TempDir()+"/cache.db",
		discocache.WithDefaultTTL(2*time.Second),
	)

	delegate := discofake.NewSupplier("orders", discocache.Snapshot{
		{ID: "orders-1", Host: "10.0.0.1", Port: 8080},
	})
	supplier, err := discocache.New(delegate, store)
	if err != nil {
		t.Fatalf("new failed: %v", err)
	}
	for i := 0; i < 2; i++ {
		if err := supplier.Instances(ctx, func(discocache.Snapshot) error { return nil }); err != nil {
			t.Fatalf("subscription %d failed: %v", i, err)
		}
	}
	delegate.AssertCalls(t, 1)
}
