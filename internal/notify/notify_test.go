package notify_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"frontdesk/internal/domain/checkin"
	"frontdesk/internal/notify"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type chanSink chan notify.Notification

func (s chanSink) Deliver(ctx context.Context, n notify.Notification) error {
	s <- n
	return nil
}

func TestCenter_AutoDismiss(t *testing.T) {
	clk := &clock{now: time.Date(2025, 9, 19, 10, 0, 0, 0, time.UTC)}
	c := notify.NewCenter(5*time.Second, 10, nil, notify.WithClock(clk.Now))
	ctx := context.Background()

	c.Success(ctx, "Checked in successfully")
	clk.Advance(3 * time.Second)
	c.Error(ctx, checkin.ErrNotFound)

	active := c.Active()
	require.Len(t, active, 2)
	assert.Equal(t, notify.LevelSuccess, active[0].Level)
	assert.Equal(t, notify.LevelError, active[1].Level)
	assert.Equal(t, checkin.UserMessage(checkin.ErrNotFound), active[1].Message)

	clk.Advance(3 * time.Second)
	active = c.Active()
	require.Len(t, active, 1)
	assert.Equal(t, notify.LevelError, active[0].Level)

	clk.Advance(3 * time.Second)
	assert.Empty(t, c.Active())
}

func TestCenter_BoundedAndDismiss(t *testing.T) {
	c := notify.NewCenter(time.Minute, 2, nil)
	ctx := context.Background()

	c.Notify(ctx, notify.LevelInfo, "one")
	second := c.Notify(ctx, notify.LevelInfo, "two")
	c.Notify(ctx, notify.LevelInfo, "three")

	active := c.Active()
	require.Len(t, active, 2)
	assert.Equal(t, "two", active[0].Message)
	assert.Equal(t, "three", active[1].Message)

	assert.True(t, c.Dismiss(second.ID))
	assert.False(t, c.Dismiss(second.ID))
	assert.Len(t, c.Active(), 1)
}

func TestCenter_RunDeliversToSinks(t *testing.T) {
	sink := make(chanSink, 1)
	c := notify.NewCenter(time.Minute, 5, []notify.Sink{sink, notify.LogSink{}})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	sent := c.Error(ctx, errors.New("boom"))

	select {
	case got := <-sink:
		assert.Equal(t, sent, got)
		assert.Equal(t, "Something went wrong. Please try again.", got.Message)
	case <-time.After(5 * time.Second):
		t.Fatal("notification not delivered")
	}

	cancel()
	assert.NoError(t, <-done)
}
