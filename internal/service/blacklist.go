package service

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/web-storefront/internal/utils"
)

// KV is the minimal key/TTL surface the blacklist needs from its backing
// store. Redis satisfies it in production; tests use an in-memory fake.
type KV interface {
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Exists(ctx context.Context, key string) (bool, error)
}

// Blacklist marks access tokens invalidated before their natural expiry
// (logout). Entries carry the token's remaining lifetime as TTL and expire
// on their own; no sweep is required. Keys are digests of the raw token so
// the cache never holds a usable credential.
type Blacklist struct {
	kv     KV
	prefix string
}

func NewBlacklist(kv KV) *Blacklist {
	return &Blacklist{kv: kv, prefix: "blacklist:"}
}

func (b *Blacklist) key(rawToken string) string {
	return b.prefix + utils.DigestToken(rawToken)
}

// Add marks rawToken dead for ttl. A non-positive ttl is a no-op: an
// already-expired token is rejected on expiry grounds anyway.
func (b *Blacklist) Add(ctx context.Context, rawToken string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if b.kv == nil {
		return redis.ErrClosed
	}
	return b.kv.Set(ctx, b.key(rawToken), "blacklisted", ttl)
}

// Contains reports whether rawToken was blacklisted. It is consulted on
// every inbound request before cryptographic validation, so a dead token
// is rejected without any signature work. When the cache is unavailable
// the answer is false: the short access TTL bounds the exposure.
func (b *Blacklist) Contains(ctx context.Context, rawToken string) bool {
	if b.kv == nil {
		return false
	}
	found, err := b.kv.Exists(ctx, b.key(rawToken))
	return err == nil && found
}

// Cleanup is a maintenance no-op hook: Redis expires entries natively.
// Implementations backed by stores without TTLs would sweep here.
func (b *Blacklist) Cleanup(ctx context.Context) error { return nil }

// redisKV adapts a go-redis client to the KV interface.
type redisKV struct{ rdb *redis.Client }

// NewRedisKV wraps rdb for use as the blacklist backing store. A nil
// client yields a nil KV, which degrades the blacklist to best-effort
// (writes fail, reads report not-found).
func NewRedisKV(rdb *redis.Client) KV {
	if rdb == nil {
		return nil
	}
	return &redisKV{rdb: rdb}
}

func (r *redisKV) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return r.rdb.Set(ctx, key, value, ttl).Err()
}

func (r *redisKV) Exists(ctx context.Context, key string) (bool, error) {
	n, err := r.rdb.Exists(ctx, key).Result()
	return n > 0, err
}
