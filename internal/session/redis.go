package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/stockadmin/console/internal/models"
)

// RedisPersister stores the session as a JSON document in Redis
type RedisPersister struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// NewRedisPersister creates a Redis backed persister. A zero ttl keeps the session until logout.
func NewRedisPersister(client *redis.Client, key string, ttl time.Duration) *RedisPersister {
	return &RedisPersister{
		client: client,
		key:    key,
		ttl:    ttl,
	}
}

// Load retrieves the session from Redis
func (p *RedisPersister) Load(ctx context.Context) (*models.Session, error) {
	data, err := p.client.Get(ctx, p.key).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	var s models.Session
	if err := json.Unmarshal([]byte(data), &s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &s, nil
}

// Save stores the session in Redis with the configured TTL
func (p *RedisPersister) Save(ctx context.Context, s models.Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	if err := p.client.Set(ctx, p.key, data, p.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Delete removes the session from Redis
func (p *RedisPersister) Delete(ctx context.Context) error {
	if err := p.client.Del(ctx, p.key).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
