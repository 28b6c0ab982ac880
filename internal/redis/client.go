package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/rooftop/solar-rewards-go/internal/config"
	"github.com/rooftop/solar-rewards-go/internal/model"
)

type Client struct {
	*redis.Client
}

func NewClient(redisURL string) (*Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &Client{client}, nil
}

func (c *Client) Close() error {
	return c.Client.Close()
}

// releaseScript deletes the lock only while it still holds the caller's token,
// so an expired holder cannot release a lock taken over by another replica.
var releaseScript = redis.NewScript(`
if redis.call('GET', KEYS[1]) == ARGV[1] then
    return redis.call('DEL', KEYS[1])
end
return 0
`)

// PassStore coordinates daily passes across replicas: a SET NX PX lock plus
// the cached summary of the last finished pass.
type PassStore struct {
	client  *redis.Client
	lockTTL time.Duration
}

func NewPassStore(client *redis.Client, lockTTL time.Duration) *PassStore {
	return &PassStore{client: client, lockTTL: lockTTL}
}

// Acquire returns acquired=false without error when another pass holds the lock.
func (s *PassStore) Acquire(ctx context.Context) (string, bool, error) {
	token := uuid.NewString()
	ok, err := s.client.SetNX(ctx, config.PassLockKey, token, s.lockTTL).Result()
	if err != nil {
		return "", false, fmt.Errorf("acquire pass lock: %w", err)
	}
	if !ok {
		return "", false, nil
	}
	return token, true, nil
}

func (s *PassStore) Release(ctx context.Context, token string) error {
	if err := releaseScript.Run(ctx, s.client, []string{config.PassLockKey}, token).Err(); err != nil {
		return fmt.Errorf("release pass lock: %w", err)
	}
	return nil
}

func (s *PassStore) SaveLastSummary(ctx context.Context, summary *model.PassSummary) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("marshal pass summary: %w", err)
	}
	if err := s.client.Set(ctx, config.LastPassSummaryKey, data, config.LastPassSummaryTTL).Err(); err != nil {
		return fmt.Errorf("save pass summary: %w", err)
	}
	return nil
}

// LastSummary returns nil without error when no pass finished recently.
func (s *PassStore) LastSummary(ctx context.Context) (*model.PassSummary, error) {
	data, err := s.client.Get(ctx, config.LastPassSummaryKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load pass summary: %w", err)
	}

	var summary model.PassSummary
	if err := json.Unmarshal(data, &summary); err != nil {
		return nil, fmt.Errorf("decode pass summary: %w", err)
	}
	return &summary, nil
}
