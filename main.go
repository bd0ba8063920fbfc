package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"frontdesk/internal/app"
	"frontdesk/internal/config"
	"frontdesk/internal/notify"
)

func main() {
	if err := newCLIApp().Run(os.Args); err != nil {
		logrus.WithError(err).Error("frontdesk failed")
		os.Exit(1)
	}
}

func newCLIApp() *cli.App {
	return &cli.App{
		Name:  "frontdesk",
		Usage: "Verify and check in tickets and room bookings at the front desk",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "env-file", Value: ".env", Usage: "load environment variables from `FILE`"},
			&cli.StringFlag{Name: "backend-url", Usage: "override BACKEND_URL"},
			&cli.StringFlag{Name: "station", Usage: "override STATION"},
		},
		Commands: []*cli.Command{
			serveCommand(),
			validateCommand(),
			checkInCommand(),
			checkOutCommand(),
			scanCommand(),
			transactionsCommand(),
			bookingsCommand(),
			authCommand(),
			prefsCommand(),
			poisonCommand(),
		},
	}
}

func loadConfig(c *cli.Context) (config.Config, error) {
	cfg, err := config.Load(c.String("env-file"))
	if err != nil {
		return config.Config{}, err
	}

	if v := c.String("backend-url"); v != "" {
		cfg.BackendURL = v
	}
	if v := c.String("station"); v != "" {
		cfg.Station = v
	}

	log.Init(cfg.LogLevel)

	return cfg, nil
}

// runtime is everything a command needs to talk to the desk.
type runtime struct {
	cfg   config.Config
	infra *app.Infra
	app   *app.App
}

func newRuntime(c *cli.Context, sinks ...notify.Sink) (*runtime, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}

	infra, err := app.Connect(c.Context, cfg)
	if err != nil {
		return nil, err
	}

	store, err := app.NewAuthStore(cfg, infra.Redis)
	if err != nil {
		_ = infra.Close()
		return nil, err
	}
	session, err := app.LoadSession(c.Context, store)
	if err != nil {
		_ = infra.Close()
		return nil, err
	}

	if session.Preferences.Station != "" && os.Getenv("STATION") == "" && c.String("station") == "" {
		cfg.Station = session.Preferences.Station
	}

	a, err := app.NewApp(watermill.NewStdLogger(false, false), cfg, infra, session, sinks)
	if err != nil {
		_ = infra.Close()
		return nil, err
	}

	return &runtime{cfg: cfg, infra: infra, app: a}, nil
}

func (r *runtime) Close() {
	if err := r.app.Close(context.Background()); err != nil {
		logrus.WithError(err).Warn("Failed to close app")
	}
	if err := r.infra.Close(); err != nil {
		logrus.WithError(err).Warn("Failed to close connections")
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "run the kiosk API and the event processors",
		Action: func(c *cli.Context) error {
			rt, err := newRuntime(c, notify.LogSink{})
			if err != nil {
				return err
			}
			defer rt.Close()

			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()

			return rt.app.Run(ctx)
		},
	}
}
