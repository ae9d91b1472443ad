package suite

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/redis/go-redis/v9"
)

const (
	containerTTL = 120
	bootTimeout  = 90 * time.Second
)

// SkipEnv disables every docker-backed suite when set to any value.
const SkipEnv = "TTT_SKIP_DOCKER"

const (
	redisPort  = "6379/tcp"
	redisImage = "redis"
	redisTag   = "7-alpine"
)

// Suite carries a throwaway redis and a logger for store tests.
type Suite struct {
	*testing.T
	Logger *slog.Logger

	Storage *redis.Client
}

func Skip() bool {
	return os.Getenv(SkipEnv) != ""
}

func New(t *testing.T) (context.Context, *Suite) {
	t.Helper()

	if Skip() {
		t.Skipf("%s is set", SkipEnv)
	}

	ctx, cancel := context.WithTimeout(context.Background(), bootTimeout)
	t.Cleanup(cancel)

	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Fatalf("failed to connect to docker: %v", err)
	}
	pool.MaxWait = bootTimeout

	resource, err := startRedis(pool)
	if err != nil {
		t.Fatalf("failed to start redis: %v", err)
	}

	t.Cleanup(func() {
		if err := pool.Purge(resource); err != nil {
			t.Logf("failed to purge redis container: %v", err)
		}
	})

	client, err := connectRedis(ctx, pool, resource.GetHostPort(redisPort))
	if err != nil {
		t.Fatalf("failed to connect to redis: %v", err)
	}

	t.Cleanup(func() {
		_ = client.Close()
	})

	return ctx, &Suite{
		T:       t,
		Logger:  slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn})),
		Storage: client,
	}
}

// Key namespaces a store key by test name so subtests never share counters.
func (that *Suite) Key(name string) string {
	return strings.ReplaceAll(that.Name(), "/", ":") + ":" + name
}

func startRedis(pool *dockertest.Pool) (*dockertest.Resource, error) {
	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: redisImage,
		Tag:        redisTag,
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to run %s:%s: %w", redisImage, redisTag, err)
	}

	// hard kill even if the test binary dies before cleanup
	_ = resource.Expire(containerTTL)

	return resource, nil
}

func connectRedis(ctx context.Context, pool *dockertest.Pool, addr string) (*redis.Client, error) {
	var client *redis.Client

	err := pool.Retry(func() error {
		client = redis.NewClient(&redis.Options{Addr: addr})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return err
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to ping %s: %w", addr, err)
	}

	if err = client.FlushDB(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to flush database: %w", err)
	}

	return client, nil
}
