package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"frontdesk/internal/domain/checkin"
)

var releaseLock = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// CheckInGuard is an advisory lock shared by all desks. It keeps two desks from
// sending a check-in for the same record at the same time; the backend still decides.
type CheckInGuard struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewCheckInGuard(rdb *redis.Client, ttl time.Duration) *CheckInGuard {
	if rdb == nil {
		panic("redis client is nil")
	}
	if ttl <= 0 {
		ttl = 15 * time.Second
	}

	return &CheckInGuard{rdb: rdb, ttl: ttl}
}

func lockKey(kind checkin.Kind, recordID string) string {
	return fmt.Sprintf("frontdesk:checkin-lock:%s:%s", kind, recordID)
}

// Acquire returns checkin.ErrCheckInInProgress when another desk holds the lock.
func (g *CheckInGuard) Acquire(ctx context.Context, kind checkin.Kind, recordID string) (func(context.Context) error, error) {
	key := lockKey(kind, recordID)
	token := uuid.NewString()

	ok, err := g.rdb.SetNX(ctx, key, token, g.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire check-in lock: %w", err)
	}
	if !ok {
		return nil, checkin.ErrCheckInInProgress
	}

	release := func(ctx context.Context) error {
		err := releaseLock.Run(ctx, g.rdb, []string{key}, token).Err()
		if err != nil && !errors.Is(err, redis.Nil) {
			return fmt.Errorf("failed to release check-in lock: %w", err)
		}
		return nil
	}

	return release, nil
}
