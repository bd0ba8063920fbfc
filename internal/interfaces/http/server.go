package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"frontdesk/internal/domain/checkin"
	"frontdesk/internal/entities"
	"frontdesk/internal/infrastructure/clients"
	"frontdesk/internal/notify"
	"frontdesk/internal/repository"
)

type Desk interface {
	State() checkin.State
	Operator() string
	SetOperator(name string)
	StartScan(ctx context.Context) error
	StopScan()
	ValidateByCode(ctx context.Context, code string) (checkin.Record, error)
	ValidateByReference(ctx context.Context, kind checkin.Kind, ref string) (checkin.Record, error)
	CheckIn(ctx context.Context) (checkin.Done, error)
	CheckOut(ctx context.Context) (checkin.Done, error)
	Reset()
}

type Notifications interface {
	Active() []notify.Notification
	Dismiss(id string) bool
}

type Catalog interface {
	ListTransactions(ctx context.Context, page int) (clients.Page[checkin.Transaction], error)
	ListBookings(ctx context.Context, page int) (clients.Page[checkin.BookingRecord], error)
}

type AttendanceQuery interface {
	List(ctx context.Context, day time.Time) ([]checkin.Attendance, error)
}

type HistoryQuery interface {
	List(ctx context.Context, filter repository.HistoryFilter) ([]checkin.HistoryEntry, error)
}

type EventsQuery interface {
	ListByName(ctx context.Context, eventName string, limit int) ([]entities.StoredEvent, error)
}

type Deps struct {
	Desk          Desk
	Notifications Notifications
	Catalog       Catalog

	// optional, only available with Postgres
	Attendance AttendanceQuery
	History    HistoryQuery
	Events     EventsQuery

	// optional, nil when messaging is disabled
	RouterIsRunning func() bool

	Station    string
	StorageURL string
}

type Server struct {
	e    *echo.Echo
	addr string

	desk          Desk
	notifications Notifications
	catalog       Catalog
	attendance    AttendanceQuery
	history       HistoryQuery
	events        EventsQuery

	station    string
	storageURL string
}

var httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "frontdesk",
	Name:      "http_requests_total",
	Help:      "HTTP requests by route and status",
}, []string{"method", "route", "status"})

func NewServer(e *echo.Echo, addr string, deps Deps) *Server {
	if deps.Desk == nil {
		panic("missing desk")
	}
	if deps.Notifications == nil {
		panic("missing notifications")
	}
	if deps.Catalog == nil {
		panic("missing catalog")
	}

	srv := &Server{
		e:             e,
		addr:          addr,
		desk:          deps.Desk,
		notifications: deps.Notifications,
		catalog:       deps.Catalog,
		attendance:    deps.Attendance,
		history:       deps.History,
		events:        deps.Events,
		station:       deps.Station,
		storageURL:    deps.StorageURL,
	}

	defaultErrorHandler := e.HTTPErrorHandler
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		var he *echo.HTTPError
		if errors.As(err, &he) {
			if body, ok := he.Message.(ErrorResponse); ok {
				if !c.Response().Committed {
					_ = c.JSON(he.Code, body)
				}
				return
			}
		}
		defaultErrorHandler(err, c)
	}

	// logging middleware
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			log.FromContext(c.Request().Context()).
				WithField("path", c.Request().URL.Path).
				Info("Handling a request")

			err := next(c)

			if err != nil {
				log.FromContext(c.Request().Context()).
					WithField("error", err).
					Error("Request handling error")
			}

			return err
		}
	})
	e.Use(metricsMiddleware)

	e.GET("/health", func(c echo.Context) error {
		if deps.RouterIsRunning != nil && !deps.RouterIsRunning() {
			return c.String(http.StatusServiceUnavailable, "router is not running")
		}
		return c.String(http.StatusOK, "ok")
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/config", srv.GetConfigHandler)

	e.GET("/state", srv.GetStateHandler)
	e.PUT("/operator", srv.SetOperatorHandler)
	e.POST("/scan/start", srv.StartScanHandler)
	e.POST("/scan/stop", srv.StopScanHandler)
	e.POST("/validate", srv.ValidateHandler)
	e.POST("/check-in", srv.CheckInHandler)
	e.POST("/check-out", srv.CheckOutHandler)
	e.POST("/reset", srv.ResetHandler)

	e.GET("/notifications", srv.GetNotificationsHandler)
	e.DELETE("/notifications/:id", srv.DismissNotificationHandler)

	e.GET("/transactions", srv.GetTransactionsHandler)
	e.GET("/bookings", srv.GetBookingsHandler)
	e.GET("/attendance", srv.GetAttendanceHandler)
	e.GET("/history", srv.GetHistoryHandler)
	e.GET("/events", srv.GetEventsHandler)

	return srv
}

func metricsMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		err := next(c)

		status := c.Response().Status
		var he *echo.HTTPError
		if errors.As(err, &he) {
			status = he.Code
		} else if err != nil {
			status = http.StatusInternalServerError
		}

		route := c.Path()
		if route == "" {
			route = "unmatched"
		}
		httpRequestsTotal.WithLabelValues(c.Request().Method, route, strconv.Itoa(status)).Inc()

		return err
	}
}

func (s *Server) Handler() http.Handler {
	return s.e
}

func (s *Server) Start() error {
	err := s.e.Start(s.addr)
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	return s.e.Shutdown(ctx)
}
