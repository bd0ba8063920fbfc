package notify

import (
	"context"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/lithammer/shortuuid/v3"
	"github.com/sirupsen/logrus"

	"frontdesk/internal/domain/checkin"
)

type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

type Notification struct {
	ID        string    `json:"id"`
	Level     Level     `json:"level"`
	Message   string    `json:"message"`
	At        time.Time `json:"at"`
	ExpiresAt time.Time `json:"expires_at"`
}

type Sink interface {
	Deliver(ctx context.Context, n Notification) error
}

type Option func(*Center)

func WithClock(now func() time.Time) Option {
	return func(c *Center) {
		c.now = now
	}
}

// Center keeps the notifications currently on screen and hands every new one to the sinks.
// Notifications dismiss themselves once their TTL has passed.
type Center struct {
	ttl      time.Duration
	capacity int
	sinks    []Sink
	queue    chan Notification
	now      func() time.Time

	mu     sync.Mutex
	active []Notification
}

func NewCenter(ttl time.Duration, capacity int, sinks []Sink, opts ...Option) *Center {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}
	if capacity <= 0 {
		capacity = 10
	}

	c := &Center{
		ttl:      ttl,
		capacity: capacity,
		sinks:    sinks,
		queue:    make(chan Notification, capacity*4),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}

	return c
}

func (c *Center) Notify(ctx context.Context, level Level, message string) Notification {
	now := c.now()
	n := Notification{
		ID:        shortuuid.New(),
		Level:     level,
		Message:   message,
		At:        now,
		ExpiresAt: now.Add(c.ttl),
	}

	c.mu.Lock()
	c.active = append(c.pruneLocked(now), n)
	if len(c.active) > c.capacity {
		c.active = c.active[len(c.active)-c.capacity:]
	}
	c.mu.Unlock()

	select {
	case c.queue <- n:
	default:
		log.FromContext(ctx).WithField("notification", n.Message).Warn("Notification queue full, sinks skipped")
	}

	return n
}

func (c *Center) Success(ctx context.Context, message string) Notification {
	return c.Notify(ctx, LevelSuccess, message)
}

func (c *Center) Error(ctx context.Context, err error) Notification {
	return c.Notify(ctx, LevelError, checkin.UserMessage(err))
}

// Active returns the notifications that have not expired yet, oldest first.
func (c *Center) Active() []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.active = c.pruneLocked(c.now())

	out := make([]Notification, len(c.active))
	copy(out, c.active)
	return out
}

func (c *Center) Dismiss(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, n := range c.active {
		if n.ID == id {
			c.active = append(c.active[:i], c.active[i+1:]...)
			return true
		}
	}

	return false
}

func (c *Center) pruneLocked(now time.Time) []Notification {
	kept := c.active[:0]
	for _, n := range c.active {
		if now.Before(n.ExpiresAt) {
			kept = append(kept, n)
		}
	}
	return kept
}

// Run feeds queued notifications to the sinks until ctx is done.
func (c *Center) Run(ctx context.Context) error {
	ticker := time.NewTicker(c.ttl)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case n := <-c.queue:
			for _, sink := range c.sinks {
				if err := sink.Deliver(ctx, n); err != nil {
					log.FromContext(ctx).WithError(err).Warn("Failed to deliver notification")
				}
			}
		case <-ticker.C:
			c.Active()
		}
	}
}

// LogSink writes notifications to the context logger.
type LogSink struct{}

func (LogSink) Deliver(ctx context.Context, n Notification) error {
	entry := log.FromContext(ctx).WithFields(logrus.Fields{
		"notification_id": n.ID,
		"level":           n.Level,
	})

	switch n.Level {
	case LevelError:
		entry.Error(n.Message)
	case LevelWarning:
		entry.Warn(n.Message)
	default:
		entry.Info(n.Message)
	}

	return nil
}
