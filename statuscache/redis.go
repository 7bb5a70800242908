package statuscache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"missioncore/robot"
)

// CachedStatus is a robot status snapshot plus the time it was taken.
type CachedStatus struct {
	robot.Status
	UpdatedAt time.Time `json:"updated_at"`
}

type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func statusKey(serial string) string {
	return fmt.Sprintf("missioncore:robot:%s:status", serial)
}

func (r *RedisStore) SetStatus(ctx context.Context, serial string, s *CachedStatus, ttl time.Duration) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, statusKey(serial), data, ttl).Err()
}

func (r *RedisStore) GetStatus(ctx context.Context, serial string) (*CachedStatus, error) {
	data, err := r.client.Get(ctx, statusKey(serial)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var s CachedStatus
	return &s, json.Unmarshal(data, &s)
}

func (r *RedisStore) Remove(ctx context.Context, serial string) error {
	return r.client.Del(ctx, statusKey(serial)).Err()
}
