package lookup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"registrar/pkg/platform/sentinel"
)

const lookupKeyPrefix = "registrar:lookup:"

// RedisStore shares fetched lookup tables between replicas. Keys expire with
// the staleness window so Redis never outlives the local tier's view of freshness.
type RedisStore struct {
	client redis.UniversalClient
	ttl    time.Duration
}

type redisPayload struct {
	FetchedAt time.Time `json:"fetched_at"`
	Entities  []Entity  `json:"entities"`
}

// NewRedisStore constructs a store whose keys live for ttl.
func NewRedisStore(client redis.UniversalClient, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) Load(ctx context.Context, name string) ([]Entity, time.Time, error) {
	raw, err := s.client.Get(ctx, lookupKeyPrefix+name).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, time.Time{}, sentinel.ErrCacheMiss
	}
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("load lookup %s: %w", name, err)
	}
	var payload redisPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, time.Time{}, fmt.Errorf("decode lookup %s: %w", name, err)
	}
	return payload.Entities, payload.FetchedAt, nil
}

func (s *RedisStore) Save(ctx context.Context, name string, entities []Entity, fetchedAt time.Time) error {
	raw, err := json.Marshal(redisPayload{FetchedAt: fetchedAt.UTC(), Entities: entities})
	if err != nil {
		return fmt.Errorf("encode lookup %s: %w", name, err)
	}
	return s.client.Set(ctx, lookupKeyPrefix+name, raw, s.ttl).Err()
}

func (s *RedisStore) Delete(ctx context.Context, name string) error {
	return s.client.Del(ctx, lookupKeyPrefix+name).Err()
}
