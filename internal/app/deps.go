package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"frontdesk/internal/auth"
	"frontdesk/internal/config"
	"frontdesk/internal/infrastructure/clients"
)

// Infra holds the optional backing services. Either field may be nil: without Redis the
// desk runs without messaging, the cross-desk guard and the shared session store, and
// without Postgres it keeps no history.
type Infra struct {
	Redis *redis.Client
	DB    *sqlx.DB
}

func Connect(ctx context.Context, cfg config.Config) (*Infra, error) {
	infra := &Infra{}

	if cfg.RedisAddr != "" {
		infra.Redis = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := infra.Redis.Ping(ctx).Err(); err != nil {
			_ = infra.Close()
			return nil, fmt.Errorf("connecting to redis: %w", err)
		}
	}

	if cfg.PostgresURL != "" {
		db, err := sqlx.ConnectContext(ctx, "postgres", cfg.PostgresURL)
		if err != nil {
			_ = infra.Close()
			return nil, fmt.Errorf("connecting to postgres: %w", err)
		}
		infra.DB = db
	}

	return infra, nil
}

func (i *Infra) Close() error {
	var errs []error
	if i.Redis != nil {
		errs = append(errs, i.Redis.Close())
	}
	if i.DB != nil {
		errs = append(errs, i.DB.Close())
	}
	return errors.Join(errs...)
}

func NewAuthStore(cfg config.Config, rdb *redis.Client) (auth.Store, error) {
	switch cfg.AuthStore {
	case config.AuthStoreRedis:
		if rdb == nil {
			return nil, errors.New("redis auth store needs REDIS_ADDR")
		}
		return auth.NewRedisStore(rdb, cfg.Station), nil
	default:
		return auth.NewFileStore(cfg.AuthFile), nil
	}
}

// LoadSession returns the stored session, or an empty one when nothing was saved yet.
func LoadSession(ctx context.Context, store auth.Store) (auth.Session, error) {
	session, err := store.Load(ctx)
	if errors.Is(err, auth.ErrNoSession) {
		return auth.Session{}, nil
	}
	if err != nil {
		return auth.Session{}, fmt.Errorf("loading session: %w", err)
	}

	return session, nil
}

func NewBackendClient(cfg config.Config, session auth.Session) (*clients.BackendClient, error) {
	return clients.NewBackendClient(cfg.BackendURL, session.Auth, cfg.BackendTimeout)
}
