package repository_test

import (
	"context"
	"encoding/json"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	trmsqlx "github.com/avito-tech/go-transaction-manager/drivers/sqlx/v2"
	trmanager "github.com/avito-tech/go-transaction-manager/trm/v2/manager"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"frontdesk/internal/domain/checkin"
	"frontdesk/internal/entities"
	"frontdesk/internal/outbox"
	"frontdesk/internal/repository"
)

var (
	db        *sqlx.DB
	getDbOnce sync.Once
)

func getDb(t *testing.T) *sqlx.DB {
	t.Helper()

	url := os.Getenv("POSTGRES_URL")
	if url == "" {
		t.Skip("POSTGRES_URL not set")
	}

	getDbOnce.Do(func() {
		var err error
		db, err = sqlx.Open("postgres", url)
		if err != nil {
			panic(err)
		}
		if err := repository.InitializeDBSchema(context.Background(), db); err != nil {
			panic(err)
		}
	})

	return db
}

func newTrManager(db *sqlx.DB) *trmanager.Manager {
	return trmanager.Must(trmsqlx.NewDefaultFactory(db))
}

func TestScanHistoryRepo_Integration(t *testing.T) {
	db := getDb(t)
	ctx := context.Background()
	station := "test-" + uuid.NewString()[:8]

	repo := repository.NewScanHistoryRepo(db, trmsqlx.DefaultCtxGetter, newTrManager(db), watermill.NopLogger{})

	entry := checkin.HistoryEntry{
		ID:        uuid.NewString(),
		Station:   station,
		Operator:  "Ada",
		Kind:      checkin.KindPurchase,
		Action:    checkin.ActionVerify,
		LookupKey: "TXN68cd3c347a069",
		RecordID:  "17",
		Status:    checkin.HistorySuccess,
		CreatedAt: time.Now().Add(-time.Minute),
	}
	require.NoError(t, repo.Record(ctx, entry))
	require.NoError(t, repo.Record(ctx, entry), "recording the same entry twice is a no-op")

	_, err := outbox.NewForwarder(db, nopPublisher{}, watermill.NopLogger{}, outbox.ForwarderConfig{})
	require.NoError(t, err)

	countOutbox := func() int {
		var n int
		require.NoError(t, db.GetContext(ctx, &n, `SELECT COUNT(*) FROM watermill_`+outbox.Topic))
		return n
	}
	outboxedBefore := countOutbox()

	checkInEntry := entry
	checkInEntry.ID = uuid.NewString()
	checkInEntry.Action = checkin.ActionCheckIn
	checkInEntry.CreatedAt = time.Now()

	event := entities.PurchaseCheckedIn_v1{
		Header:      entities.NewEventHeader(station),
		PurchaseID:  "17",
		EventName:   "Jazz Night",
		Quantity:    2,
		CheckedInBy: "Ada",
		CheckedInAt: time.Now().UTC(),
	}
	require.NoError(t, repo.RecordWithEvent(ctx, checkInEntry, event))

	entries, err := repo.List(ctx, repository.HistoryFilter{Station: station})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, checkin.ActionCheckIn, entries[0].Action)
	assert.Equal(t, checkin.ActionVerify, entries[1].Action)
	assert.Equal(t, "Ada", entries[1].Operator)

	assert.Equal(t, outboxedBefore+1, countOutbox())
}

type nopPublisher struct{}

func (nopPublisher) Publish(string, ...*message.Message) error { return nil }

func (nopPublisher) Close() error { return nil }

func TestAttendanceReadModel_Integration(t *testing.T) {
	db := getDb(t)
	ctx := context.Background()

	repo := repository.NewAttendanceReadModelRepo(db, trmsqlx.DefaultCtxGetter, newTrManager(db))

	subject := "Jazz Night " + uuid.NewString()[:8]
	day := time.Date(2031, 1, 2, 0, 0, 0, 0, time.UTC)
	header := func() entities.EventHeader {
		h := entities.NewEventHeader("gate-1")
		h.PublishedAt = day.Add(20 * time.Hour)
		return h
	}

	checkedIn := &entities.PurchaseCheckedIn_v1{Header: header(), EventName: subject, Quantity: 3}
	require.NoError(t, repo.OnPurchaseVerified(ctx, &entities.PurchaseVerified_v1{Header: header(), EventName: subject}))
	require.NoError(t, repo.OnPurchaseCheckedIn(ctx, checkedIn))
	require.NoError(t, repo.OnPurchaseCheckedIn(ctx, checkedIn), "redelivered event is ignored")

	rows, err := repo.List(ctx, day)
	require.NoError(t, err)

	var found *checkin.Attendance
	for i := range rows {
		if rows[i].Subject == subject {
			found = &rows[i]
		}
	}
	require.NotNil(t, found)
	assert.Equal(t, 1, found.Verified)
	assert.Equal(t, 1, found.CheckedIn)
	assert.Equal(t, 3, found.Guests)
}

func TestEventsRepo_Integration(t *testing.T) {
	db := getDb(t)
	ctx := context.Background()
	repo := repository.NewEventsRepo(db)

	payload, err := json.Marshal(map[string]string{"purchase_id": "17"})
	require.NoError(t, err)

	name := "TestEvent_" + uuid.NewString()[:8]
	stored := entities.StoredEvent{
		Id:          uuid.New(),
		PublishedAt: time.Now().UTC().Truncate(time.Millisecond),
		EventName:   name,
		Station:     "gate-1",
		Payload:     payload,
	}
	require.NoError(t, repo.SaveEvent(ctx, stored))
	require.NoError(t, repo.SaveEvent(ctx, stored))

	events, err := repo.ListByName(ctx, name, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, stored.Id, events[0].Id)
	assert.Equal(t, "gate-1", events[0].Station)
}

func getRedis(t *testing.T) *redis.Client {
	t.Helper()

	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}

	rdb := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func TestCheckInGuard_Integration(t *testing.T) {
	rdb := getRedis(t)
	ctx := context.Background()

	guard := repository.NewCheckInGuard(rdb, 5*time.Second)
	other := repository.NewCheckInGuard(rdb, 5*time.Second)
	recordID := uuid.NewString()

	release, err := guard.Acquire(ctx, checkin.KindPurchase, recordID)
	require.NoError(t, err)

	_, err = other.Acquire(ctx, checkin.KindPurchase, recordID)
	assert.ErrorIs(t, err, checkin.ErrCheckInInProgress)

	_, err = other.Acquire(ctx, checkin.KindBooking, recordID)
	require.NoError(t, err, "locks are scoped by record kind")

	require.NoError(t, release(ctx))
	require.NoError(t, release(ctx))

	releaseAgain, err := other.Acquire(ctx, checkin.KindPurchase, recordID)
	require.NoError(t, err)
	require.NoError(t, releaseAgain(ctx))
}
