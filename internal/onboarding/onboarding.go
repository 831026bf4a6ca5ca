// Package onboarding tracks whether a person has been shown the one-time
// onboarding flow. This is cross-session bookkeeping keyed by an explicit
// person id, not ambient global state: reads and writes go through Store
// and nothing else.
package onboarding

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

type Store interface {
	Seen(ctx context.Context, personID string) (bool, error)
	MarkSeen(ctx context.Context, personID string) error
}

type redisStore struct {
	rdb *redis.Client
}

func New(rdb *redis.Client) Store {
	return &redisStore{rdb: rdb}
}

func key(personID string) string { return "onboarding_seen:" + personID }

func (s *redisStore) Seen(ctx context.Context, personID string) (bool, error) {
	_, err := s.rdb.Get(ctx, key(personID)).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read onboarding flag: %w", err)
	}
	return true, nil
}

func (s *redisStore) MarkSeen(ctx context.Context, personID string) error {
	// No TTL: the flag lives as long as the person does.
	if err := s.rdb.Set(ctx, key(personID), "1", 0).Err(); err != nil {
		return fmt.Errorf("write onboarding flag: %w", err)
	}
	return nil
}
