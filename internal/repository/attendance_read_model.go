package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	trmsql "github.com/avito-tech/go-transaction-manager/drivers/sql/v2"
	trmsqlx "github.com/avito-tech/go-transaction-manager/drivers/sqlx/v2"
	trmanager "github.com/avito-tech/go-transaction-manager/trm/v2/manager"
	"github.com/avito-tech/go-transaction-manager/trm/v2/settings"
	"github.com/jmoiron/sqlx"

	"frontdesk/internal/domain/checkin"
	"frontdesk/internal/entities"
	"frontdesk/internal/idempotency"
)

const unknownSubject = "unknown"

type attendanceDelta struct {
	verified   int
	failed     int
	checkedIn  int
	guests     int
	checkedOut int
}

type attendanceRow struct {
	Day        time.Time `db:"day"`
	Subject    string    `db:"subject"`
	Verified   int       `db:"verified"`
	Failed     int       `db:"failed"`
	CheckedIn  int       `db:"checked_in"`
	Guests     int       `db:"guests"`
	CheckedOut int       `db:"checked_out"`
	LastUpdate time.Time `db:"last_update"`
}

// AttendanceReadModelRepo builds per-day counters from desk events.
// Every event is applied at most once, keyed by its idempotency key.
type AttendanceReadModelRepo struct {
	db        *sqlx.DB
	getter    *trmsqlx.CtxGetter
	trManager *trmanager.Manager
}

func NewAttendanceReadModelRepo(
	db *sqlx.DB,
	getter *trmsqlx.CtxGetter,
	trManager *trmanager.Manager,
) *AttendanceReadModelRepo {
	if db == nil {
		panic("db is nil")
	}

	return &AttendanceReadModelRepo{
		db:        db,
		getter:    getter,
		trManager: trManager,
	}
}

func (r *AttendanceReadModelRepo) OnPurchaseVerified(ctx context.Context, event *entities.PurchaseVerified_v1) error {
	return r.apply(ctx, "PurchaseVerified_v1", event.Header, event.EventName, attendanceDelta{verified: 1})
}

func (r *AttendanceReadModelRepo) OnVerificationFailed(ctx context.Context, event *entities.VerificationFailed_v1) error {
	return r.apply(ctx, "VerificationFailed_v1", event.Header, "", attendanceDelta{failed: 1})
}

func (r *AttendanceReadModelRepo) OnPurchaseCheckedIn(ctx context.Context, event *entities.PurchaseCheckedIn_v1) error {
	guests := event.Quantity
	if guests < 1 {
		guests = 1
	}

	return r.apply(ctx, "PurchaseCheckedIn_v1", event.Header, event.EventName, attendanceDelta{checkedIn: 1, guests: guests})
}

func (r *AttendanceReadModelRepo) OnBookingCheckedIn(ctx context.Context, event *entities.BookingCheckedIn_v1) error {
	return r.apply(ctx, "BookingCheckedIn_v1", event.Header, event.Room, attendanceDelta{checkedIn: 1, guests: 1})
}

func (r *AttendanceReadModelRepo) OnBookingCheckedOut(ctx context.Context, event *entities.BookingCheckedOut_v1) error {
	return r.apply(ctx, "BookingCheckedOut_v1", event.Header, event.Room, attendanceDelta{checkedOut: 1})
}

func (r *AttendanceReadModelRepo) apply(
	ctx context.Context,
	eventName string,
	header entities.EventHeader,
	subject string,
	delta attendanceDelta,
) error {
	if subject == "" {
		subject = unknownSubject
	}
	day := header.PublishedAt.UTC().Truncate(24 * time.Hour)
	key := idempotency.Derive(header.IdempotencyKey, "attendance", eventName)

	return r.trManager.DoWithSettings(
		ctx,
		trmsql.MustSettings(
			settings.Must(settings.WithCancelable(true)),
			trmsql.WithTxOptions(&sql.TxOptions{Isolation: sql.LevelRepeatableRead}),
		),
		func(ctx context.Context) error {
			tx := r.getter.DefaultTrOrDB(ctx, r.db)

			res, err := tx.ExecContext(ctx, `
				INSERT INTO read_model_attendance_processed (idempotency_key)
				VALUES ($1)
				ON CONFLICT DO NOTHING
			`, key)
			if err != nil {
				return fmt.Errorf("failed to mark %s as processed: %w", eventName, err)
			}
			if affected, _ := res.RowsAffected(); affected == 0 {
				log.FromContext(ctx).
					WithField("idempotency_key", header.IdempotencyKey).
					Info("Event already applied to attendance, skipping")
				return nil
			}

			_, err = tx.ExecContext(ctx, `
				INSERT INTO read_model_attendance (day, subject, verified, failed, checked_in, guests, checked_out, last_update)
				VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
				ON CONFLICT (day, subject) DO UPDATE SET
					verified = read_model_attendance.verified + EXCLUDED.verified,
					failed = read_model_attendance.failed + EXCLUDED.failed,
					checked_in = read_model_attendance.checked_in + EXCLUDED.checked_in,
					guests = read_model_attendance.guests + EXCLUDED.guests,
					checked_out = read_model_attendance.checked_out + EXCLUDED.checked_out,
					last_update = NOW()
			`, day, subject, delta.verified, delta.failed, delta.checkedIn, delta.guests, delta.checkedOut)
			if err != nil {
				return fmt.Errorf("failed to update attendance for %s: %w", subject, err)
			}

			return nil
		},
	)
}

// List returns the attendance of one day, or of every day when day is zero.
func (r *AttendanceReadModelRepo) List(ctx context.Context, day time.Time) ([]checkin.Attendance, error) {
	var rows []attendanceRow

	query := `
		SELECT day, subject, verified, failed, checked_in, guests, checked_out, last_update
		FROM read_model_attendance`
	args := []any{}
	if !day.IsZero() {
		query += ` WHERE day = $1`
		args = append(args, day.UTC().Truncate(24*time.Hour))
	}
	query += ` ORDER BY day DESC, subject`

	if err := sqlx.SelectContext(ctx, r.getter.DefaultTrOrDB(ctx, r.db), &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list attendance: %w", err)
	}

	out := make([]checkin.Attendance, 0, len(rows))
	for _, row := range rows {
		out = append(out, checkin.Attendance{
			Day:        row.Day,
			Subject:    row.Subject,
			Verified:   row.Verified,
			Failed:     row.Failed,
			CheckedIn:  row.CheckedIn,
			Guests:     row.Guests,
			CheckedOut: row.CheckedOut,
			LastUpdate: row.LastUpdate,
		})
	}

	return out, nil
}
