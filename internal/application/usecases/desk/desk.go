package desk

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"frontdesk/internal/domain/checkin"
	"frontdesk/internal/entities"
	"frontdesk/internal/idempotency"
	"frontdesk/internal/infrastructure/clients"
	"frontdesk/internal/notify"
	"frontdesk/internal/observability"
)

var (
	operationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "frontdesk",
		Name:      "desk_operations_total",
		Help:      "Desk operations by outcome",
	}, []string{"operation", "outcome"})
	backendDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "frontdesk",
		Name:      "desk_backend_request_duration_seconds",
		Help:      "Duration of backend calls made by the desk",
		Buckets:   prometheus.DefBuckets,
	}, []string{"operation"})
)

func outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, checkin.ErrStale):
		return "stale"
	case checkin.IsValidation(err), errors.Is(err, checkin.ErrAlreadyUsed):
		return "rejected_locally"
	default:
		return "error"
	}
}

type Config struct {
	Station  string
	Operator string
}

type Deps struct {
	Backend  Backend
	Scanner  Scanner
	Notifier Notifier

	// optional
	History   History
	Guard     Guard
	Publisher EventPublisher
}

// Desk drives one check-in station: one camera, one operator, one record at a time.
// Every new scan, validation or reset supersedes the request in flight; a response
// that arrives for a superseded request never touches the state.
type Desk struct {
	backend   Backend
	scanner   Scanner
	notifier  Notifier
	history   History
	guard     Guard
	publisher EventPublisher

	station string
	now     func() time.Time

	mu         sync.Mutex
	state      checkin.State
	generation uint64
	cancel     context.CancelFunc
	operator   string
	listeners  []func(checkin.State)
}

func NewDesk(deps Deps, config Config) *Desk {
	if deps.Backend == nil {
		panic("missing backend")
	}
	if deps.Notifier == nil {
		panic("missing notifier")
	}

	d := &Desk{
		backend:   deps.Backend,
		scanner:   deps.Scanner,
		notifier:  deps.Notifier,
		history:   deps.History,
		guard:     deps.Guard,
		publisher: deps.Publisher,
		station:   config.Station,
		operator:  config.Operator,
		now:       time.Now,
		state:     checkin.Idle{},
		cancel:    func() {},
	}
	if d.history == nil {
		d.history = nopHistory{}
	}
	if d.guard == nil {
		d.guard = nopGuard{}
	}
	if d.publisher == nil {
		d.publisher = nopPublisher{}
	}

	return d
}

func (d *Desk) State() checkin.State {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.state
}

// OnTransition registers fn to be called with every new state.
func (d *Desk) OnTransition(fn func(checkin.State)) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.listeners = append(d.listeners, fn)
}

func (d *Desk) SetOperator(name string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.operator = strings.TrimSpace(name)
}

func (d *Desk) Operator() string {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.operator
}

// begin supersedes whatever is in flight and enters next.
// The returned context is cancelled as soon as another operation begins.
func (d *Desk) begin(ctx context.Context, next checkin.State) (context.Context, uint64) {
	d.mu.Lock()
	reqCtx, gen, t := d.beginLocked(ctx, next)
	d.mu.Unlock()

	d.finishBegin(t)

	return reqCtx, gen
}

// transition is what is left to do once the lock is released.
type transition struct {
	next         checkin.State
	listeners    []func(checkin.State)
	leftScanning bool
}

func (d *Desk) beginLocked(ctx context.Context, next checkin.State) (context.Context, uint64, transition) {
	d.cancel()
	d.generation++

	_, wasScanning := d.state.(checkin.Scanning)

	reqCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	d.state = next

	return reqCtx, d.generation, transition{
		next:         next,
		listeners:    d.listeners,
		leftScanning: wasScanning,
	}
}

// finishBegin releases the camera when the desk stopped scanning and notifies listeners.
// Stop is a no-op when called from a scan callback, the session is already released then.
func (d *Desk) finishBegin(t transition) {
	if t.leftScanning && d.scanner != nil {
		d.scanner.Stop()
	}

	notifyListeners(t.listeners, t.next)
}

// commit moves to next only if no other operation began since gen.
func (d *Desk) commit(gen uint64, next ...checkin.State) error {
	d.mu.Lock()
	if gen != d.generation {
		d.mu.Unlock()
		return checkin.ErrStale
	}
	d.state = next[len(next)-1]
	listeners := d.listeners
	d.mu.Unlock()

	for _, s := range next {
		notifyListeners(listeners, s)
	}

	return nil
}

func notifyListeners(listeners []func(checkin.State), s checkin.State) {
	for _, fn := range listeners {
		fn(s)
	}
}

func (d *Desk) fail(ctx context.Context, gen uint64, err error) error {
	if commitErr := d.commit(gen, checkin.Failed{Reason: err}); commitErr != nil {
		return commitErr
	}

	d.notifier.Error(ctx, err)
	return err
}

// StartScan opens the camera. The first decoded code is validated as a purchase code.
func (d *Desk) StartScan(ctx context.Context) error {
	ctx, span := observability.Start(ctx, "desk.StartScan")
	defer span.End()

	if d.scanner == nil {
		return checkin.ErrNoCameraFound
	}

	d.mu.Lock()
	if _, scanning := d.state.(checkin.Scanning); scanning {
		d.mu.Unlock()
		return checkin.ErrScannerBusy
	}
	_, gen, t := d.beginLocked(ctx, checkin.Scanning{})
	d.mu.Unlock()

	d.finishBegin(t)

	// the scan session outlives the request that started it
	sessionCtx := context.WithoutCancel(ctx)

	onResult := func(res checkin.ScanResult) {
		if !d.isCurrent(gen) {
			return
		}
		log.FromContext(sessionCtx).
			WithField("device", res.DeviceID).
			Info("QR code decoded")

		_, _ = d.ValidateByCode(sessionCtx, res.Text)
	}
	onError := func(err error) {
		operationsTotal.WithLabelValues("scan", "error").Inc()
		_ = d.fail(sessionCtx, gen, err)
	}

	if err := d.scanner.Start(sessionCtx, onResult, onError); err != nil {
		operationsTotal.WithLabelValues("scan", "error").Inc()
		span.RecordError(err)
		return d.fail(ctx, gen, err)
	}
	if !d.isCurrent(gen) {
		// superseded while the camera was being bound
		d.scanner.Stop()
		return checkin.ErrStale
	}

	operationsTotal.WithLabelValues("scan", "started").Inc()
	return nil
}

// StopScan releases the camera and returns to idle.
func (d *Desk) StopScan() {
	d.Reset()
}

// Reset abandons whatever is in progress and clears the loaded record.
func (d *Desk) Reset() {
	d.mu.Lock()
	_, _, t := d.beginLocked(context.Background(), checkin.Idle{})
	d.mu.Unlock()

	t.leftScanning = true
	d.finishBegin(t)
}

func (d *Desk) isCurrent(gen uint64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	return gen == d.generation
}

func (d *Desk) ValidateByCode(ctx context.Context, code string) (checkin.Record, error) {
	return d.validate(ctx, checkin.KindPurchase, code, true)
}

func (d *Desk) ValidateByReference(ctx context.Context, kind checkin.Kind, ref string) (checkin.Record, error) {
	return d.validate(ctx, kind, ref, false)
}

func (d *Desk) validate(ctx context.Context, kind checkin.Kind, lookupKey string, byCode bool) (checkin.Record, error) {
	ctx, span := observability.Start(ctx, "desk.Validate", trace.WithAttributes(
		attribute.String("kind", string(kind)),
		attribute.Bool("by_code", byCode),
	))
	defer span.End()

	record, err := d.doValidate(ctx, kind, lookupKey, byCode)
	operationsTotal.WithLabelValues("validate", outcome(err)).Inc()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	return record, err
}

func (d *Desk) doValidate(ctx context.Context, kind checkin.Kind, lookupKey string, byCode bool) (checkin.Record, error) {
	if kind != checkin.KindPurchase && kind != checkin.KindBooking {
		d.notifier.Error(ctx, checkin.ErrUnknownKind)
		return nil, checkin.ErrUnknownKind
	}

	ref, err := checkin.NewTransactionReference(lookupKey)
	if err != nil {
		d.notifier.Error(ctx, err)
		return nil, err
	}
	reqCtx, gen := d.begin(ctx, checkin.Validating{Kind: kind, LookupKey: ref.String()})

	start := time.Now()
	record, err := d.lookup(reqCtx, kind, ref, byCode)
	backendDuration.WithLabelValues("lookup_" + string(kind)).Observe(time.Since(start).Seconds())

	entry := d.historyEntry(kind, checkin.ActionVerify, ref.String())

	if err != nil {
		if failErr := d.fail(ctx, gen, err); errors.Is(failErr, checkin.ErrStale) {
			return nil, failErr
		}

		entry.Status = checkin.HistoryFailed
		entry.Error = err.Error()
		d.recordVerification(ctx, entry, entities.VerificationFailed_v1{
			Header:    entities.NewEventHeader(d.station),
			Kind:      string(kind),
			LookupKey: ref.String(),
			Reason:    checkin.UserMessage(err),
		})

		return nil, err
	}

	if err := d.commit(gen, checkin.Validated{Record: record, LookupKey: ref.String()}); err != nil {
		return nil, err
	}

	if record.Redeemed() {
		d.notifier.Notify(ctx, notify.LevelWarning, checkin.UserMessage(checkin.ErrAlreadyUsed))
	} else {
		d.notifier.Success(ctx, "Record found. Ready to check in.")
	}

	entry.RecordID = record.RecordID()
	entry.Status = checkin.HistorySuccess

	var event entities.Event
	if p, ok := record.(checkin.PurchaseRecord); ok {
		event = entities.PurchaseVerified_v1{
			Header:     entities.NewEventHeader(d.station),
			PurchaseID: p.ID,
			LookupKey:  ref.String(),
			EventName:  p.EventName,
			Used:       p.Used,
		}
	}
	d.recordVerification(ctx, entry, event)

	return record, nil
}

func (d *Desk) lookup(ctx context.Context, kind checkin.Kind, ref checkin.TransactionReference, byCode bool) (checkin.Record, error) {
	switch {
	case kind == checkin.KindBooking:
		b, err := d.backend.LookupBookingByReference(ctx, ref)
		if err != nil {
			return nil, err
		}
		return *b, nil
	case byCode:
		p, err := d.backend.LookupPurchaseByCode(ctx, ref.String())
		if err != nil {
			return nil, err
		}
		return *p, nil
	default:
		p, err := d.backend.LookupPurchaseByReference(ctx, ref)
		if err != nil {
			return nil, err
		}
		return *p, nil
	}
}

func (d *Desk) recordVerification(ctx context.Context, entry checkin.HistoryEntry, event entities.Event) {
	logger := log.FromContext(ctx)

	if err := d.history.Record(ctx, entry); err != nil {
		logger.WithError(err).Warn("Failed to record scan history")
	}
	if event == nil {
		return
	}
	if err := d.publisher.Publish(ctx, event); err != nil {
		logger.WithError(err).Warn("Failed to publish verification event")
	}
}

func (d *Desk) historyEntry(kind checkin.Kind, action checkin.Action, lookupKey string) checkin.HistoryEntry {
	return checkin.HistoryEntry{
		ID:        uuid.NewString(),
		Station:   d.station,
		Operator:  d.Operator(),
		Kind:      kind,
		Action:    action,
		LookupKey: lookupKey,
		CreatedAt: d.now(),
	}
}

// loadedLocked returns the record the next action applies to, rejecting the action
// locally when it cannot be sent.
func (d *Desk) loadedLocked() (checkin.Record, string, error) {
	switch st := d.state.(type) {
	case checkin.CheckingIn:
		return nil, "", checkin.ErrCheckInInProgress
	case checkin.Validated:
		if st.Record == nil {
			return nil, "", checkin.ErrNoRecordLoaded
		}
		return st.Record, st.LookupKey, nil
	}

	return nil, "", checkin.ErrNoRecordLoaded
}

// CheckIn redeems the loaded record. On success the desk goes through Done back to
// Idle and the record is cleared; it is not fetched again.
func (d *Desk) CheckIn(ctx context.Context) (checkin.Done, error) {
	ctx, span := observability.Start(ctx, "desk.CheckIn")
	defer span.End()

	done, err := d.redeem(ctx, checkin.ActionCheckIn)
	operationsTotal.WithLabelValues("check_in", outcome(err)).Inc()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	return done, err
}

// CheckOut closes the stay of a loaded booking that is checked in.
func (d *Desk) CheckOut(ctx context.Context) (checkin.Done, error) {
	ctx, span := observability.Start(ctx, "desk.CheckOut")
	defer span.End()

	done, err := d.redeem(ctx, checkin.ActionCheckOut)
	operationsTotal.WithLabelValues("check_out", outcome(err)).Inc()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	return done, err
}

func checkAllowed(record checkin.Record, action checkin.Action) error {
	if action == checkin.ActionCheckIn {
		if record.Redeemed() {
			return checkin.ErrAlreadyUsed
		}
		return nil
	}

	booking, ok := record.(checkin.BookingRecord)
	if !ok {
		return checkin.ErrNotABooking
	}
	if booking.CheckedOut() {
		return checkin.ErrAlreadyUsed
	}
	if !booking.CheckedIn() {
		return checkin.ErrNotCheckedIn
	}

	return nil
}

func (d *Desk) redeem(ctx context.Context, action checkin.Action) (checkin.Done, error) {
	d.mu.Lock()
	record, lookupKey, err := d.loadedLocked()
	if err == nil {
		err = checkAllowed(record, action)
	}
	if err != nil {
		d.mu.Unlock()
		d.notifier.Error(ctx, err)
		return checkin.Done{}, err
	}

	reqCtx, gen, t := d.beginLocked(ctx, checkin.CheckingIn{Record: record, Action: action})
	d.mu.Unlock()

	d.finishBegin(t)

	release, err := d.acquire(reqCtx, record)
	if err != nil {
		return checkin.Done{}, d.fail(ctx, gen, err)
	}
	defer func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			log.FromContext(ctx).WithError(err).Warn("Failed to release check-in lock")
		}
	}()

	key := uuid.NewString()
	reqCtx = idempotency.WithKey(reqCtx, key)

	start := time.Now()
	message, err := d.send(reqCtx, record, action)
	backendDuration.WithLabelValues(string(action) + "_" + string(record.Kind())).Observe(time.Since(start).Seconds())

	entry := d.historyEntry(record.Kind(), action, lookupKey)
	entry.RecordID = record.RecordID()

	if err != nil {
		if failErr := d.fail(ctx, gen, err); errors.Is(failErr, checkin.ErrStale) {
			return checkin.Done{}, failErr
		}

		entry.Status = checkin.HistoryFailed
		entry.Error = err.Error()
		if histErr := d.history.Record(ctx, entry); histErr != nil {
			log.FromContext(ctx).WithError(histErr).Warn("Failed to record scan history")
		}

		return checkin.Done{}, err
	}

	if message == "" {
		if action == checkin.ActionCheckOut {
			message = "Checked out successfully"
		} else {
			message = "Checked in successfully"
		}
	}
	done := checkin.Done{Record: record, Action: action, Message: message}

	if err := d.commit(gen, done, checkin.Idle{}); err != nil {
		// the backend accepted the request, only the desk moved on
		log.FromContext(ctx).
			WithField("record_id", record.RecordID()).
			Info("Check-in completed after the desk moved on")
	} else {
		d.notifier.Success(ctx, message)
	}

	entry.Status = checkin.HistorySuccess
	if err := d.history.RecordWithEvent(ctx, entry, d.redeemedEvent(key, record, action)); err != nil {
		log.FromContext(ctx).WithError(err).Warn("Failed to record check-in")
	}

	return done, nil
}

// acquire takes the cross-desk lock for record. Only another desk holding it stops the
// check-in; when the lock store is unreachable the backend alone decides.
func (d *Desk) acquire(ctx context.Context, record checkin.Record) (func(context.Context) error, error) {
	release, err := d.guard.Acquire(ctx, record.Kind(), record.RecordID())
	if err == nil {
		return release, nil
	}
	if errors.Is(err, checkin.ErrCheckInInProgress) {
		return nil, err
	}

	log.FromContext(ctx).
		WithError(err).
		WithField("record_id", record.RecordID()).
		Warn("Check-in lock unavailable, continuing without it")

	return func(context.Context) error { return nil }, nil
}

func (d *Desk) send(ctx context.Context, record checkin.Record, action checkin.Action) (string, error) {
	var (
		res *clients.CheckInResult
		err error
	)

	switch {
	case action == checkin.ActionCheckOut:
		res, err = d.backend.CheckOutBooking(ctx, record.RecordID())
	case record.Kind() == checkin.KindBooking:
		res, err = d.backend.CheckInBooking(ctx, record.RecordID())
	default:
		res, err = d.backend.CheckInPurchase(ctx, record.RecordID())
	}
	if err != nil {
		return "", err
	}

	return res.Message, nil
}

func (d *Desk) redeemedEvent(idempotencyKey string, record checkin.Record, action checkin.Action) entities.Event {
	header := entities.NewEventHeaderWithIdempotencyKey(d.station, idempotencyKey)
	now := d.now().UTC()
	operator := d.Operator()

	switch r := record.(type) {
	case checkin.PurchaseRecord:
		return entities.PurchaseCheckedIn_v1{
			Header:      header,
			PurchaseID:  r.ID,
			EventName:   r.EventName,
			TicketType:  r.TicketType,
			Quantity:    r.Quantity,
			CheckedInBy: operator,
			CheckedInAt: now,
		}
	case checkin.BookingRecord:
		if action == checkin.ActionCheckOut {
			return entities.BookingCheckedOut_v1{
				Header:       header,
				BookingID:    r.ID,
				Reference:    r.Reference,
				Room:         r.Room,
				CheckedOutBy: operator,
				CheckedOutAt: now,
			}
		}
		return entities.BookingCheckedIn_v1{
			Header:      header,
			BookingID:   r.ID,
			Reference:   r.Reference,
			Room:        r.Room,
			CheckedInBy: operator,
			CheckedInAt: now,
		}
	}

	return nil
}
