package checkpoint

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/zeu5/forage-rl/policies"
	"github.com/zeu5/forage-rl/types"
)

// RedisStore keeps checkpoints as binary values under <prefix><name>
type RedisStore struct {
	client *redis.Client
	prefix string
}

var _ Store = &RedisStore{}

func NewRedisStore(addr, prefix string) *RedisStore {
	return &RedisStore{
		client: redis.NewClient(&redis.Options{
			Addr: addr,
		}),
		prefix: prefix,
	}
}

func (r *RedisStore) key(name string) string {
	return r.prefix + name
}

// Ping checks the server is reachable
func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Save replaces the value in a single SET, which redis applies atomically
func (r *RedisStore) Save(ctx context.Context, name string, table *policies.QTable) error {
	data, err := Encode(table)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, r.key(name), data, 0).Err(); err != nil {
		return fmt.Errorf("storing %s: %w", r.key(name), err)
	}
	return nil
}

func (r *RedisStore) Load(ctx context.Context, name string) (*policies.QTable, error) {
	data, err := r.client.Get(ctx, r.key(name)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s", types.ErrCheckpointAbsent, r.key(name))
	}
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", r.key(name), err)
	}
	return Decode(data)
}

func (r *RedisStore) Exists(ctx context.Context, name string) (bool, error) {
	n, err := r.client.Exists(ctx, r.key(name)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}
