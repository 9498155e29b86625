package store

import (
	"context"

	"github.com/hyp3rd/ewrap"
	"github.com/redis/go-redis/v9"

	"github.com/hyp3rd/settingsync/internal/constants"
	"github.com/hyp3rd/settingsync/internal/sentinel"
	redisclient "github.com/hyp3rd/settingsync/pkg/store/redis"
)

// Redis is a durable store backed by a redis server. Module slot keys live in
// a tracking set so Keys does not need a SCAN over the whole keyspace.
type Redis struct {
	rdb         *redis.Client // redis client to interact with the redis server
	keysSetName string        // name of the set that tracks the slot keys held by this store

	addr          string
	clientOptions []redisclient.Option
}

// RedisOption configures a Redis store.
type RedisOption func(*Redis)

// WithRedisClient sets a prebuilt redis client the store uses.
func WithRedisClient(rdb *redis.Client) RedisOption {
	return func(r *Redis) {
		r.rdb = rdb
	}
}

// WithRedisAddr has the store build its own client for the given address,
// configured through the redis client options. Ignored when a prebuilt client
// is supplied.
func WithRedisAddr(addr string, options ...redisclient.Option) RedisOption {
	return func(r *Redis) {
		r.addr = addr
		r.clientOptions = options
	}
}

// WithKeysSetName sets the name of the tracking set for slot keys.
func WithKeysSetName(name string) RedisOption {
	return func(r *Redis) {
		r.keysSetName = name
	}
}

// NewRedis creates a redis-backed durable store with the given options.
func NewRedis(opts ...RedisOption) (*Redis, error) {
	redisStore := &Redis{}

	for _, opt := range opts {
		opt(redisStore)
	}

	// Build a client from the address when none was supplied directly.
	if redisStore.rdb == nil && redisStore.addr != "" {
		cli, err := redisclient.New(append([]redisclient.Option{redisclient.WithAddr(redisStore.addr)}, redisStore.clientOptions...)...)
		if err != nil {
			return nil, err
		}

		redisStore.rdb = cli.Client
	}

	// Check if the client is nil
	if redisStore.rdb == nil {
		return nil, sentinel.ErrNilClient
	}

	// Check if the `keysSetName` is empty
	if redisStore.keysSetName == "" {
		redisStore.keysSetName = constants.RedisKeySetName
	}

	return redisStore, nil
}

// Get retrieves a record.
func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := r.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, false, nil
		}

		return nil, false, ewrap.Wrap(err, "failed to read slot "+key)
	}

	return data, true, nil
}

// Set saves a record and tracks its key.
func (r *Redis) Set(ctx context.Context, key string, data []byte) error {
	pipeline := r.rdb.TxPipeline()
	pipeline.Set(ctx, key, data, 0)
	pipeline.SAdd(ctx, r.keysSetName, key)

	if _, err := pipeline.Exec(ctx); err != nil {
		return ewrap.Wrap(err, "failed to write slot "+key)
	}

	return nil
}

// Delete removes a record and untracks its key.
func (r *Redis) Delete(ctx context.Context, key string) error {
	pipeline := r.rdb.TxPipeline()
	pipeline.Del(ctx, key)
	pipeline.SRem(ctx, r.keysSetName, key)

	if _, err := pipeline.Exec(ctx); err != nil {
		return ewrap.Wrap(err, "failed to delete slot "+key)
	}

	return nil
}

// Keys returns all slot keys tracked by this store.
func (r *Redis) Keys(ctx context.Context) ([]string, error) {
	keys, err := r.rdb.SMembers(ctx, r.keysSetName).Result()
	if err != nil {
		return nil, ewrap.Wrap(err, "failed to list slot keys")
	}

	return keys, nil
}

// Close closes the underlying redis client.
func (r *Redis) Close() error {
	if err := r.rdb.Close(); err != nil {
		return ewrap.Wrap(err, "failed to close redis client")
	}

	return nil
}
