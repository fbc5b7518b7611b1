// Package cycleguard gives scheduled cycles best-effort exclusion against
// overlapping timer firings using a redis SET NX EX window key. The guard is
// advisory: redis being unreachable never blocks a cycle, and true
// exactly-once execution across replicas is explicitly not guaranteed.
package cycleguard

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const guardKey = "open-scouts:cycle-window"

type Guard struct {
	client *redis.Client
	window time.Duration
	log    zerolog.Logger
}

func New(redisAddr string, window time.Duration, log zerolog.Logger) (*Guard, error) {
	client := redis.NewClient(&redis.Options{
		Addr: redisAddr,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Guard{
		client: client,
		window: window,
		log:    log,
	}, nil
}

// TryAcquire claims the current run window. It returns false only when
// another cycle demonstrably holds the window; a redis failure is logged and
// treated as acquired.
func (g *Guard) TryAcquire(ctx context.Context) bool {
	ok, err := g.client.SetNX(ctx, guardKey, time.Now().Format(time.RFC3339), g.window).Result()
	if err != nil {
		g.log.Warn().Err(err).Msg("cycle guard unavailable, proceeding without exclusion")
		return true
	}

	return ok
}

// Release frees the window early so a manual trigger right after a short
// cycle is not delayed by the full window TTL.
func (g *Guard) Release(ctx context.Context) {
	if err := g.client.Del(ctx, guardKey).Err(); err != nil {
		g.log.Warn().Err(err).Msg("failed to release cycle guard")
	}
}

func (g *Guard) Close() error {
	return g.client.Close()
}
