package presence

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store mirrors online state to Redis so other processes can read presence.
// It is advisory only: message routing uses the in-process registry.
type Store struct {
	cli    *redis.Client
	prefix string
}

func NewStore(cli *redis.Client, prefix string) *Store {
	return &Store{cli: cli, prefix: prefix}
}

func (s *Store) key(userID string) string {
	return s.prefix + ":presence:" + userID
}

func (s *Store) SetOnline(ctx context.Context, userID string) error {
	if s == nil {
		return nil
	}
	return s.cli.Set(ctx, s.key(userID), "1", 24*time.Hour).Err()
}

func (s *Store) SetOffline(ctx context.Context, userID string) error {
	if s == nil {
		return nil
	}
	return s.cli.Set(ctx, s.key(userID), "0", 24*time.Hour).Err()
}

func (s *Store) IsOnline(ctx context.Context, userID string) (bool, error) {
	if s == nil {
		return false, nil
	}
	v, err := s.cli.Get(ctx, s.key(userID)).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return v == "1", nil
}
