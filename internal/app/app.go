package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	commonHTTP "github.com/ThreeDotsLabs/go-event-driven/common/http"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	trmsqlx "github.com/avito-tech/go-transaction-manager/drivers/sqlx/v2"
	"github.com/avito-tech/go-transaction-manager/trm/v2/manager"
	"github.com/rs/zerolog"
	tracesdk "go.opentelemetry.io/otel/sdk/trace"
	"golang.org/x/sync/errgroup"

	"frontdesk/internal/application/usecases/desk"
	"frontdesk/internal/auth"
	"frontdesk/internal/config"
	"frontdesk/internal/infrastructure/clients"
	"frontdesk/internal/infrastructure/event_publisher"
	"frontdesk/internal/infrastructure/scanner"
	watermillMessage "frontdesk/internal/interfaces/message"
	"frontdesk/internal/interfaces/message/events"
	"frontdesk/internal/interfaces/http"
	"frontdesk/internal/notify"
	"frontdesk/internal/observability"
	"frontdesk/internal/outbox"
	"frontdesk/internal/repository"
)

const serviceName = "frontdesk"

type App struct {
	watermillLogger watermill.LoggerAdapter
	logger          zerolog.Logger
	cfg             config.Config
	infra           *Infra

	desk     *desk.Desk
	notifier *notify.Center
	backend  *clients.BackendClient

	attendance *repository.AttendanceReadModelRepo
	eventsRepo *repository.EventsRepo

	router    *message.Router
	forwarder *outbox.Forwarder
	srv       *http.Server

	tracerProvider *tracesdk.TracerProvider
}

func NewApp(
	watermillLogger watermill.LoggerAdapter,
	cfg config.Config,
	infra *Infra,
	session auth.Session,
	sinks []notify.Sink,
) (*App, error) {
	tp, err := observability.ConfigureTraceProvider(serviceName, cfg.Station, cfg.JaegerEndpoint)
	if err != nil {
		return nil, err
	}

	backend, err := NewBackendClient(cfg, session)
	if err != nil {
		return nil, err
	}

	a := &App{
		watermillLogger: watermillLogger,
		logger:          zerolog.New(os.Stdout).With().Timestamp().Str("station", cfg.Station).Logger(),
		cfg:             cfg,
		infra:           infra,
		backend:         backend,
		notifier:        notify.NewCenter(cfg.NotificationTTL, 10, sinks),
		tracerProvider:  tp,
	}

	deskDeps := desk.Deps{
		Backend: backend,
		Scanner: scanner.NewScanner(
			scanner.NewDirEnumerator(cfg.CamerasDir, cfg.ScanPollInterval),
			scanner.NewQRDecoder(),
			scanner.Config{Timeout: cfg.ScanTimeout},
		),
		Notifier: a.notifier,
	}
	httpDeps := http.Deps{
		Notifications: a.notifier,
		Catalog:       backend,
		Station:       cfg.Station,
		StorageURL:    cfg.StorageURL,
	}

	var (
		attendance *repository.AttendanceReadModelRepo
		eventsRepo *repository.EventsRepo
	)
	if infra.DB != nil {
		trManager := manager.Must(trmsqlx.NewDefaultFactory(infra.DB))

		history := repository.NewScanHistoryRepo(infra.DB, trmsqlx.DefaultCtxGetter, trManager, watermillLogger)
		attendance = repository.NewAttendanceReadModelRepo(infra.DB, trmsqlx.DefaultCtxGetter, trManager)
		eventsRepo = repository.NewEventsRepo(infra.DB)

		a.attendance = attendance
		a.eventsRepo = eventsRepo
		deskDeps.History = history
		httpDeps.History = history
		httpDeps.Attendance = attendance
		httpDeps.Events = eventsRepo
	}

	if infra.Redis != nil {
		deskDeps.Guard = repository.NewCheckInGuard(infra.Redis, cfg.CheckInLockTTL)

		redisPublisher, err := event_publisher.NewRedisPublisher(watermillLogger, infra.Redis)
		if err != nil {
			return nil, err
		}

		eventBus, err := events.NewEventBus(redisPublisher, watermillLogger)
		if err != nil {
			return nil, err
		}
		deskDeps.Publisher = eventBus

		if infra.DB != nil {
			a.router, err = a.newRouter(redisPublisher, attendance, eventsRepo)
			if err != nil {
				return nil, err
			}
			httpDeps.RouterIsRunning = a.router.IsRunning

			a.forwarder, err = outbox.NewForwarder(infra.DB, redisPublisher, watermillLogger, outbox.ForwarderConfig{})
			if err != nil {
				return nil, err
			}
		}
	}

	a.desk = desk.NewDesk(deskDeps, desk.Config{
		Station:  cfg.Station,
		Operator: session.Preferences.Operator,
	})
	httpDeps.Desk = a.desk
	a.srv = http.NewServer(commonHTTP.NewEcho(), cfg.HTTPAddr, httpDeps)

	return a, nil
}

func (a *App) newRouter(
	redisPublisher message.Publisher,
	attendance *repository.AttendanceReadModelRepo,
	eventsRepo *repository.EventsRepo,
) (*message.Router, error) {
	splitterSubscriber, err := event_publisher.NewRedisSubscriber(a.watermillLogger, a.infra.Redis, "svc-frontdesk.events_splitter")
	if err != nil {
		return nil, err
	}
	saverSubscriber, err := event_publisher.NewRedisSubscriber(a.watermillLogger, a.infra.Redis, "svc-frontdesk.events_saver")
	if err != nil {
		return nil, err
	}

	return watermillMessage.NewRouter(
		a.watermillLogger,
		splitterSubscriber,
		saverSubscriber,
		redisPublisher,
		events.NewHandler(attendance),
		events.NewEventProcessorConfig(a.infra.Redis, a.watermillLogger),
		eventsRepo,
	)
}

func (a *App) Desk() *desk.Desk                { return a.desk }
func (a *App) Notifier() *notify.Center        { return a.notifier }
func (a *App) Backend() *clients.BackendClient { return a.backend }

// Attendance and Events are nil when no database is configured.
func (a *App) Attendance() *repository.AttendanceReadModelRepo { return a.attendance }
func (a *App) Events() *repository.EventsRepo                  { return a.eventsRepo }

// Run serves the kiosk API and processes events until ctx is done.
func (a *App) Run(ctx context.Context) error {
	if a.infra.DB != nil {
		if err := repository.InitializeDBSchema(ctx, a.infra.DB); err != nil {
			return err
		}
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return a.notifier.Run(ctx)
	})

	if a.forwarder != nil {
		g.Go(func() error {
			a.logger.Info().Msg("starting outbox forwarder")
			return a.forwarder.Run(ctx)
		})
	}

	if a.router != nil {
		g.Go(func() error {
			a.logger.Info().Msg("starting router")
			return a.router.Run(ctx)
		})
	}

	g.Go(func() error {
		if a.router != nil {
			<-a.router.Running()
			a.logger.Info().Msg("router is running")
		}

		a.logger.Info().Str("addr", a.cfg.HTTPAddr).Msg("starting server")
		return a.srv.Start()
	})

	g.Go(func() error {
		// Shut down
		<-ctx.Done()
		a.desk.Reset()

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()

		err := a.srv.Stop(shutdownCtx)
		if err != nil {
			a.logger.Err(err).Msg("error stopping server")
		}

		return err
	})

	// Will block until all goroutines finish
	err := g.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func (a *App) Close(ctx context.Context) error {
	var errs []error

	a.desk.Reset()
	if a.router != nil {
		errs = append(errs, a.router.Close())
	}
	if a.forwarder != nil {
		errs = append(errs, a.forwarder.Close())
	}
	if err := a.tracerProvider.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("shutting down tracer: %w", err))
	}

	return errors.Join(errs...)
}

// NewPoisonQueue browses the messages the router gave up on. It needs Redis.
func NewPoisonQueue(watermillLogger watermill.LoggerAdapter, infra *Infra) (*watermillMessage.PoisonQueue, error) {
	if infra.Redis == nil {
		return nil, errors.New("poison queue needs REDIS_ADDR")
	}

	sub, err := event_publisher.NewRedisSubscriber(watermillLogger, infra.Redis, "svc-frontdesk.poison_queue_browser")
	if err != nil {
		return nil, err
	}
	pub, err := event_publisher.NewRedisPublisher(watermillLogger, infra.Redis)
	if err != nil {
		return nil, err
	}

	return watermillMessage.NewPoisonQueue(sub, pub, watermillLogger), nil
}
