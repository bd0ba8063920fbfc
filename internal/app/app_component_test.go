//go:build component

package app_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"frontdesk/internal/app"
	"frontdesk/internal/auth"
	"frontdesk/internal/config"
	"frontdesk/internal/domain/checkin"
	"frontdesk/internal/notify"
	"frontdesk/internal/repository"
)

func startRedisContainer(ctx context.Context, t *testing.T) string {
	t.Helper()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections"),
	}
	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Terminate(context.Background()) })

	host, err := c.Host(ctx)
	require.NoError(t, err)
	port, err := c.MappedPort(ctx, "6379")
	require.NoError(t, err)

	return fmt.Sprintf("%s:%s", host, port.Port())
}

func startPostgresContainer(ctx context.Context, t *testing.T) string {
	t.Helper()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "user",
			"POSTGRES_PASSWORD": "password",
			"POSTGRES_DB":       "db",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(time.Minute),
	}
	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Terminate(context.Background()) })

	host, err := c.Host(ctx)
	require.NoError(t, err)
	port, err := c.MappedPort(ctx, "5432")
	require.NoError(t, err)

	return fmt.Sprintf("postgres://user:password@%s:%s/db?sslmode=disable", host, port.Port())
}

type backendStub struct {
	checkIns atomic.Int32
}

func (b *backendStub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	switch r.Method + " " + r.URL.Path {
	case "GET /api/tickets/reference/TXN68cd3c347a069":
		_, _ = w.Write([]byte(`{"data":{
			"id": 17,
			"created_at": "2025-09-19T10:00:00.000000Z",
			"event": {"name": "Jazz Night"},
			"email": "guest@example.com",
			"ticket_type": "VIP",
			"quantity": "2",
			"used": "0",
			"checked_in_by": null,
			"checked_in_at": null
		}}`))
	case "POST /api/tickets/17/check-in":
		b.checkIns.Add(1)
		_, _ = w.Write([]byte(`{"message":"Checked in successfully"}`))
	default:
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"not found"}`))
	}
}

func TestCheckInReachesAttendance(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	backend := &backendStub{}
	srv := httptest.NewServer(backend)
	defer srv.Close()

	cfg := config.Config{
		BackendURL:       srv.URL + "/api",
		BackendTimeout:   5 * time.Second,
		AuthStore:        config.AuthStoreRedis,
		RedisAddr:        startRedisContainer(ctx, t),
		PostgresURL:      startPostgresContainer(ctx, t),
		HTTPAddr:         "127.0.0.1:0",
		CamerasDir:       t.TempDir(),
		ScanTimeout:      time.Second,
		ScanPollInterval: 50 * time.Millisecond,
		NotificationTTL:  time.Second,
		CheckInLockTTL:   5 * time.Second,
		Station:          "desk-1",
		LogLevel:         logrus.InfoLevel,
	}

	infra, err := app.Connect(ctx, cfg)
	require.NoError(t, err)
	defer func() { _ = infra.Close() }()
	require.NoError(t, repository.InitializeDBSchema(ctx, infra.DB))

	store, err := app.NewAuthStore(cfg, infra.Redis)
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, auth.Session{
		Auth:        auth.Context{Token: "token-1", Role: "staff"},
		Preferences: auth.Preferences{Operator: "Ada", Station: "desk-1"},
	}))

	session, err := app.LoadSession(ctx, store)
	require.NoError(t, err)

	a, err := app.NewApp(watermill.NewStdLogger(false, false), cfg, infra, session, []notify.Sink{notify.LogSink{}})
	require.NoError(t, err)
	defer func() { _ = a.Close(context.Background()) }()

	runErr := make(chan error, 1)
	go func() {
		runErr <- a.Run(ctx)
	}()

	record, err := a.Desk().ValidateByReference(ctx, checkin.KindPurchase, "TXN68cd3c347a069")
	require.NoError(t, err)
	assert.Equal(t, "17", record.RecordID())

	done, err := a.Desk().CheckIn(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Checked in successfully", done.Message)
	assert.Equal(t, int32(1), backend.checkIns.Load())

	assert.EventuallyWithT(t, func(collect *assert.CollectT) {
		rows, err := a.Attendance().List(ctx, time.Now().UTC())
		if !assert.NoError(collect, err) || !assert.Len(collect, rows, 1) {
			return
		}
		assert.Equal(collect, "Jazz Night", rows[0].Subject)
		assert.Equal(collect, 1, rows[0].Verified)
		assert.Equal(collect, 1, rows[0].CheckedIn)
		assert.Equal(collect, 2, rows[0].Guests)
	}, 30*time.Second, 200*time.Millisecond)

	assert.EventuallyWithT(t, func(collect *assert.CollectT) {
		stored, err := a.Events().ListByName(ctx, "PurchaseCheckedIn_v1", 10)
		if !assert.NoError(collect, err) || !assert.Len(collect, stored, 1) {
			return
		}
		assert.Equal(collect, "desk-1", stored[0].Station)
	}, 30*time.Second, 200*time.Millisecond)

	cancel()
	select {
	case err := <-runErr:
		assert.NoError(t, err)
	case <-time.After(15 * time.Second):
		t.Fatal("app did not stop")
	}
}
