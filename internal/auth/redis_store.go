package auth

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const (
	fieldToken    = "token"
	fieldRole     = "role"
	fieldOperator = "operator"
	fieldStation  = "station"
)

// RedisStore keeps the session in a hash so several desks on one gate can share it.
type RedisStore struct {
	rdb *redis.Client
	key string
}

func NewRedisStore(rdb *redis.Client, station string) *RedisStore {
	return &RedisStore{
		rdb: rdb,
		key: "frontdesk:session:" + station,
	}
}

func (s *RedisStore) Load(ctx context.Context) (Session, error) {
	values, err := s.rdb.HGetAll(ctx, s.key).Result()
	if err != nil {
		return Session{}, fmt.Errorf("loading session %s: %w", s.key, err)
	}
	if len(values) == 0 {
		return Session{}, ErrNoSession
	}

	return Session{
		Auth: Context{
			Token: values[fieldToken],
			Role:  values[fieldRole],
		},
		Preferences: Preferences{
			Operator: values[fieldOperator],
			Station:  values[fieldStation],
		},
	}, nil
}

func (s *RedisStore) Save(ctx context.Context, session Session) error {
	err := s.rdb.HSet(ctx, s.key,
		fieldToken, session.Auth.Token,
		fieldRole, session.Auth.Role,
		fieldOperator, session.Preferences.Operator,
		fieldStation, session.Preferences.Station,
	).Err()
	if err != nil {
		return fmt.Errorf("saving session %s: %w", s.key, err)
	}

	return nil
}

func (s *RedisStore) Clear(ctx context.Context) error {
	return s.rdb.Del(ctx, s.key).Err()
}
