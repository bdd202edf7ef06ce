package health

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/project-odysseus/odyctl/internal/utils"
)

const (
	datastoreTimeout = 5 * time.Second

	// Readiness waiting retries with exponential backoff, capped.
	retryInitialWait = time.Second
	retryMaxWait     = 8 * time.Second
)

// ProbePostgres checks connection readiness: a pool can be established and
// answers a ping within the timeout.
func ProbePostgres(ctx context.Context, dsn string) error {
	ctx, cancel := context.WithTimeout(ctx, datastoreTimeout)
	defer cancel()

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return fmt.Errorf("postgres not ready: %w", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("postgres not ready: %w", err)
	}
	return nil
}

// ProbeRedis checks ping-style liveness.
func ProbeRedis(ctx context.Context, addr, password string) error {
	ctx, cancel := context.WithTimeout(ctx, datastoreTimeout)
	defer cancel()

	client := redis.NewClient(&redis.Options{
		Addr:        addr,
		Password:    password,
		DialTimeout: datastoreTimeout,
	})
	defer utils.Close(client)

	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis not ready: %w", err)
	}
	return nil
}

// WaitReady retries a probe with exponential backoff until it succeeds or
// the deadline passes. Used right after service launch, when the datastores
// are still warming up.
func WaitReady(ctx context.Context, timeout time.Duration, probe func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	wait := retryInitialWait
	attempt := 0
	for {
		attempt++
		err := probe(ctx)
		if err == nil {
			return nil
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("not ready after %d attempts (timeout %v): %w", attempt, timeout, err)
		case <-timer.C:
			// Exponential backoff with cap
			wait *= 2
			if wait > retryMaxWait {
				wait = retryMaxWait
			}
		}
	}
}
