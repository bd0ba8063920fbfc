package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/ThreeDotsLabs/watermill"
	trmsql "github.com/avito-tech/go-transaction-manager/drivers/sql/v2"
	trmsqlx "github.com/avito-tech/go-transaction-manager/drivers/sqlx/v2"
	trmanager "github.com/avito-tech/go-transaction-manager/trm/v2/manager"
	"github.com/avito-tech/go-transaction-manager/trm/v2/settings"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"frontdesk/internal/domain/checkin"
	"frontdesk/internal/entities"
	"frontdesk/internal/interfaces/message/events"
	"frontdesk/internal/outbox"
)

type historyRow struct {
	ID        uuid.UUID `db:"id"`
	Station   string    `db:"station"`
	Operator  string    `db:"operator"`
	Kind      string    `db:"kind"`
	Action    string    `db:"action"`
	LookupKey string    `db:"lookup_key"`
	RecordID  string    `db:"record_id"`
	Status    string    `db:"status"`
	Error     string    `db:"error"`
	CreatedAt time.Time `db:"created_at"`
}

func toHistoryRow(e checkin.HistoryEntry) (historyRow, error) {
	id := uuid.New()
	if e.ID != "" {
		parsed, err := uuid.Parse(e.ID)
		if err != nil {
			return historyRow{}, fmt.Errorf("invalid history entry id %q: %w", e.ID, err)
		}
		id = parsed
	}

	createdAt := e.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	return historyRow{
		ID:        id,
		Station:   e.Station,
		Operator:  e.Operator,
		Kind:      string(e.Kind),
		Action:    string(e.Action),
		LookupKey: e.LookupKey,
		RecordID:  e.RecordID,
		Status:    string(e.Status),
		Error:     e.Error,
		CreatedAt: createdAt.UTC(),
	}, nil
}

func (r historyRow) toDomain() checkin.HistoryEntry {
	return checkin.HistoryEntry{
		ID:        r.ID.String(),
		Station:   r.Station,
		Operator:  r.Operator,
		Kind:      checkin.Kind(r.Kind),
		Action:    checkin.Action(r.Action),
		LookupKey: r.LookupKey,
		RecordID:  r.RecordID,
		Status:    checkin.HistoryStatus(r.Status),
		Error:     r.Error,
		CreatedAt: r.CreatedAt,
	}
}

type ScanHistoryRepo struct {
	db              *sqlx.DB
	getter          *trmsqlx.CtxGetter
	trManager       *trmanager.Manager
	watermillLogger watermill.LoggerAdapter
}

func NewScanHistoryRepo(
	db *sqlx.DB,
	getter *trmsqlx.CtxGetter,
	trManager *trmanager.Manager,
	watermillLogger watermill.LoggerAdapter,
) *ScanHistoryRepo {
	if db == nil {
		panic("db is nil")
	}

	return &ScanHistoryRepo{
		db:              db,
		getter:          getter,
		trManager:       trManager,
		watermillLogger: watermillLogger,
	}
}

const insertHistory = `
	INSERT INTO scan_history (id, station, operator, kind, action, lookup_key, record_id, status, error, created_at)
	VALUES (:id, :station, :operator, :kind, :action, :lookup_key, :record_id, :status, :error, :created_at)
	ON CONFLICT (id) DO NOTHING`

func (r *ScanHistoryRepo) Record(ctx context.Context, entry checkin.HistoryEntry) error {
	row, err := toHistoryRow(entry)
	if err != nil {
		return err
	}

	if _, err := sqlx.NamedExecContext(ctx, r.getter.DefaultTrOrDB(ctx, r.db), insertHistory, row); err != nil {
		return fmt.Errorf("failed to insert scan history: %w", err)
	}

	return nil
}

// RecordWithEvent stores the entry and puts event into the outbox in one transaction.
func (r *ScanHistoryRepo) RecordWithEvent(ctx context.Context, entry checkin.HistoryEntry, event entities.Event) error {
	return r.trManager.DoWithSettings(
		ctx,
		trmsql.MustSettings(
			settings.Must(settings.WithCancelable(true)),
			trmsql.WithTxOptions(&sql.TxOptions{Isolation: sql.LevelReadCommitted}),
		),
		func(ctx context.Context) error {
			if err := r.Record(ctx, entry); err != nil {
				return err
			}

			publisher, err := outbox.NewPublisher(r.getter.DefaultTrOrDB(ctx, r.db), r.watermillLogger)
			if err != nil {
				return err
			}

			bus, err := events.NewEventBus(publisher, r.watermillLogger)
			if err != nil {
				return fmt.Errorf("failed to create event bus: %w", err)
			}

			log.FromContext(ctx).
				WithField("event_id", event.EventHeader().Id).
				Debug("Publishing event through outbox")

			if err := bus.Publish(ctx, event); err != nil {
				return fmt.Errorf("failed to publish %T: %w", event, err)
			}

			return nil
		},
	)
}

type HistoryFilter struct {
	Station string
	Limit   int
}

func (r *ScanHistoryRepo) List(ctx context.Context, filter HistoryFilter) ([]checkin.HistoryEntry, error) {
	if filter.Limit <= 0 || filter.Limit > 500 {
		filter.Limit = 50
	}

	var rows []historyRow
	err := sqlx.SelectContext(ctx, r.getter.DefaultTrOrDB(ctx, r.db), &rows, `
		SELECT id, station, operator, kind, action, lookup_key, record_id, status, error, created_at
		FROM scan_history
		WHERE ($1 = '' OR station = $1)
		ORDER BY created_at DESC
		LIMIT $2
	`, filter.Station, filter.Limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list scan history: %w", err)
	}

	entries := make([]checkin.HistoryEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, row.toDomain())
	}

	return entries, nil
}
