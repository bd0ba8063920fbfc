package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

const (
	AuthStoreFile  = "file"
	AuthStoreRedis = "redis"
)

type Config struct {
	BackendURL     string
	StorageURL     string
	BackendTimeout time.Duration

	AuthStore string
	AuthFile  string

	RedisAddr   string
	PostgresURL string
	HTTPAddr    string

	CamerasDir       string
	ScanTimeout      time.Duration
	ScanPollInterval time.Duration

	NotificationTTL time.Duration
	CheckInLockTTL  time.Duration

	Station        string
	JaegerEndpoint string
	LogLevel       logrus.Level
}

// Load reads the configuration from the environment. Variables from envFiles
// never override ones that are already set.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("loading %s: %w", f, err)
		}
	}

	var errs []error
	duration := func(key string, fallback time.Duration) time.Duration {
		d, err := getDuration(key, fallback)
		if err != nil {
			errs = append(errs, err)
		}
		return d
	}

	cfg := Config{
		BackendURL:       getEnv("BACKEND_URL", "http://localhost:8000/api"),
		StorageURL:       getEnv("STORAGE_URL", ""),
		BackendTimeout:   duration("BACKEND_TIMEOUT", 10*time.Second),
		AuthStore:        strings.ToLower(getEnv("AUTH_STORE", AuthStoreFile)),
		AuthFile:         getEnv("AUTH_FILE", defaultAuthFile()),
		RedisAddr:        getEnv("REDIS_ADDR", ""),
		PostgresURL:      getEnv("POSTGRES_URL", ""),
		HTTPAddr:         getEnv("HTTP_ADDR", ":8080"),
		CamerasDir:       getEnv("CAMERAS_DIR", "/var/lib/frontdesk/cameras"),
		ScanTimeout:      duration("SCAN_TIMEOUT", 30*time.Second),
		ScanPollInterval: duration("SCAN_POLL_INTERVAL", 200*time.Millisecond),
		NotificationTTL:  duration("NOTIFICATION_TTL", 5*time.Second),
		CheckInLockTTL:   duration("CHECKIN_LOCK_TTL", 15*time.Second),
		Station:          getEnv("STATION", hostname()),
		JaegerEndpoint:   getEnv("JAEGER_ENDPOINT", ""),
		LogLevel:         logrus.InfoLevel,
	}

	if raw := getEnv("LOG_LEVEL", ""); raw != "" {
		level, err := logrus.ParseLevel(raw)
		if err != nil {
			errs = append(errs, fmt.Errorf("LOG_LEVEL: %w", err))
		}
		cfg.LogLevel = level
	}

	if err := errors.Join(errs...); err != nil {
		return Config{}, err
	}

	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	switch c.AuthStore {
	case AuthStoreFile:
		if c.AuthFile == "" {
			return errors.New("AUTH_FILE is required for the file auth store")
		}
	case AuthStoreRedis:
		if c.RedisAddr == "" {
			return errors.New("REDIS_ADDR is required for the redis auth store")
		}
	default:
		return fmt.Errorf("unknown AUTH_STORE %q", c.AuthStore)
	}

	if c.BackendURL == "" {
		return errors.New("BACKEND_URL is required")
	}

	return nil
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback, nil
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback, fmt.Errorf("%s: %w", key, err)
	}
	if d <= 0 {
		return fallback, fmt.Errorf("%s must be positive", key)
	}

	return d, nil
}

func defaultAuthFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "frontdesk", "session.json")
}

func hostname() string {
	name, err := os.Hostname()
	if err != nil {
		return "desk"
	}
	return name
}
