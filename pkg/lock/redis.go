package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/xid"
	"github.com/rs/zerolog"

	"github.com/Sternrassler/boxnow-labels/pkg/parcel"
)

// DefaultTTL bounds how long a crashed holder can block others. A live
// holder renews the key every third of the TTL until it releases.
const DefaultTTL = 5 * time.Minute

// releaseScript deletes the key only when it still belongs to the caller.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// extendScript renews the key only when it still belongs to the caller.
var extendScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

// RedisGuard is a Guard shared by every process using the same Redis.
type RedisGuard struct {
	redis  *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

// NewRedisGuard creates a Redis-backed guard. A non-positive ttl means
// DefaultTTL.
func NewRedisGuard(redisClient *redis.Client, ttl time.Duration, logger zerolog.Logger) *RedisGuard {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisGuard{
		redis:  redisClient,
		ttl:    ttl,
		logger: logger,
	}
}

// Acquire implements Guard.
func (g *RedisGuard) Acquire(ctx context.Context, token parcel.AccessToken) (func(), error) {
	key := KeyFor(token)
	owner := xid.New().String()

	ok, err := g.redis.SetNX(ctx, key, owner, g.ttl).Result()
	if err != nil {
		lockAcquiredTotal.WithLabelValues("redis", "error").Inc()
		return nil, fmt.Errorf("redis setnx: %w", err)
	}
	if !ok {
		lockAcquiredTotal.WithLabelValues("redis", "busy").Inc()
		g.logger.Warn().Str("key", key).Msg("Session lock busy")
		return nil, ErrBusy
	}

	lockAcquiredTotal.WithLabelValues("redis", "acquired").Inc()
	g.logger.Debug().Str("key", key).Str("owner", owner).Dur("ttl", g.ttl).Msg("Session lock acquired")

	stop := make(chan struct{})
	done := make(chan struct{})
	go g.keepAlive(key, owner, stop, done)

	var once sync.Once
	return func() {
		once.Do(func() {
			close(stop)
			<-done

			// Released with a fresh context so a cancelled operation still
			// frees its lock.
			releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := releaseScript.Run(releaseCtx, g.redis, []string{key}, owner).Err(); err != nil {
				g.logger.Warn().Err(err).Str("key", key).Msg("Failed to release session lock")
				return
			}
			g.logger.Debug().Str("key", key).Msg("Session lock released")
		})
	}, nil
}

// keepAlive renews the lock until stop is closed or ownership is lost.
func (g *RedisGuard) keepAlive(key, owner string, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(max(g.ttl/3, time.Millisecond))
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			n, err := extendScript.Run(ctx, g.redis, []string{key}, owner, g.ttl.Milliseconds()).Int()
			cancel()

			switch {
			case err != nil:
				g.logger.Warn().Err(err).Str("key", key).Msg("Failed to renew session lock")
			case n == 0:
				lockAcquiredTotal.WithLabelValues("redis", "lost").Inc()
				g.logger.Warn().Str("key", key).Msg("Session lock lost before release")
				return
			}
		}
	}
}
