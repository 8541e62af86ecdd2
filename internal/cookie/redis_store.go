package cookie

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStateStore keeps the pool snapshot in a single Redis key. Useful when
// several collector hosts share one pool and a local file would diverge.
type RedisStateStore struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// NewRedisStateStore creates a Redis-backed store. An empty keyPrefix
// defaults to "bilitrack".
func NewRedisStateStore(client *redis.Client, keyPrefix string) *RedisStateStore {
	if keyPrefix == "" {
		keyPrefix = "bilitrack"
	}
	return &RedisStateStore{
		client: client,
		key:    keyPrefix + ":cookie_pool:state",
		ttl:    30 * 24 * time.Hour,
	}
}

func (r *RedisStateStore) Save(ctx context.Context, state *PoolState) error {
	if state == nil {
		return nil
	}
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal pool state: %w", err)
	}
	if err := r.client.Set(ctx, r.key, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", r.key, err)
	}
	return nil
}

func (r *RedisStateStore) Load(ctx context.Context) (*PoolState, error) {
	data, err := r.client.Get(ctx, r.key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, fmt.Errorf("no pool state at %s: %w", r.key, err)
		}
		return nil, fmt.Errorf("redis get %s: %w", r.key, err)
	}
	var st PoolState
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("unmarshal pool state: %w", err)
	}
	if st.UsageStatistics == nil {
		st.UsageStatistics = make(map[string]*UsageStats)
	}
	return &st, nil
}
