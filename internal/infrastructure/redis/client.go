package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/go-redis/redis/v8"

	"github.com/nerrad567/device-pulse/internal/infrastructure/config"
)

// defaultPingTimeout is the maximum time to wait for the connectivity check.
const defaultPingTimeout = 5 * time.Second

// Connect creates a Redis client and verifies connectivity with a ping.
//
// Parameters:
//   - ctx: Context for the connectivity check
//   - cfg: Redis configuration from config.yaml
//
// Returns:
//   - *goredis.Client: Connected client ready for use
//   - error: If the server is unreachable
func Connect(ctx context.Context, cfg config.RedisConfig) (*goredis.Client, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, defaultPingTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	return client, nil
}

// HealthCheck verifies the Redis connection is alive and functioning.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - client: The client to check
//
// Returns:
//   - error: nil if healthy, error describing the issue otherwise
func HealthCheck(ctx context.Context, client *goredis.Client) error {
	checkCtx, cancel := context.WithTimeout(ctx, defaultPingTimeout)
	defer cancel()

	if err := client.Ping(checkCtx).Err(); err != nil {
		return fmt.Errorf("redis health check failed: %w", err)
	}

	return nil
}
