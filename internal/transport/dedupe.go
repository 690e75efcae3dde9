package transport

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nimbusobs/nimbus-go/internal/obs"
)

// seenAndBumpScript atomically marks a fingerprint as seen and returns the
// number of times it has now been observed within the TTL window, preloaded
// at construction time the same way the agent's RedisStore preloads its
// lock-renewal script rather than shipping Lua text on every call.
const seenAndBumpScript = `
local count = redis.call("incr", KEYS[1])
if count == 1 then
	redis.call("pexpire", KEYS[1], ARGV[1])
end
return count
`

// RedisDedupeCache suppresses duplicate events — the same fingerprint
// submitted by multiple instances of a horizontally-scaled host application
// within a TTL window. It is a short-lived suppression cache keyed by event
// fingerprint, not a durable queue: it never persists an undelivered event,
// only a "have I seen this" marker.
type RedisDedupeCache struct {
	client    *redis.Client
	scriptSHA string
	ttl       time.Duration
}

// NewRedisDedupeCache connects to addr, preloads the dedupe script, and
// verifies connectivity with a bounded ping, mirroring NewRedisStore.
func NewRedisDedupeCache(addr, password string, db int, ttl time.Duration) (*RedisDedupeCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("dedupe cache: connect to redis: %w", err)
	}

	sha, err := client.ScriptLoad(ctx, seenAndBumpScript).Result()
	if err != nil {
		return nil, fmt.Errorf("dedupe cache: preload script: %w", err)
	}

	return &RedisDedupeCache{client: client, scriptSHA: sha, ttl: ttl}, nil
}

// ShouldSuppress reports whether an event with this fingerprint has already
// been seen within the TTL window, bumping the seen-count as a side effect.
func (c *RedisDedupeCache) ShouldSuppress(ctx context.Context, fingerprint string) (bool, error) {
	key := "nimbus:dedupe:" + fingerprint
	res, err := c.client.EvalSha(ctx, c.scriptSHA, []string{key}, c.ttl.Milliseconds()).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("dedupe cache: eval seen-and-bump: %w", err)
	}

	count, ok := res.(int64)
	if !ok {
		return false, fmt.Errorf("dedupe cache: unexpected script result type %T", res)
	}

	suppress := count > 1
	if suppress {
		obs.DedupeSuppressed.Inc()
	}
	return suppress, nil
}

// Close releases the underlying Redis connection pool.
func (c *RedisDedupeCache) Close() error {
	return c.client.Close()
}
