package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"frontdesk/internal/repository"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

func pageParam(c echo.Context) (int, error) {
	raw := c.QueryParam("page")
	if raw == "" {
		return 1, nil
	}

	page, err := strconv.Atoi(raw)
	if err != nil || page < 1 {
		return 0, badRequest("page must be a positive number")
	}

	return page, nil
}

func limitParam(c echo.Context) (int, error) {
	raw := c.QueryParam("limit")
	if raw == "" {
		return defaultListLimit, nil
	}

	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 {
		return 0, badRequest("limit must be a positive number")
	}

	return min(limit, maxListLimit), nil
}

func notAvailable(c echo.Context, what string) error {
	return c.JSON(http.StatusServiceUnavailable, ErrorResponse{
		Error:   "not configured",
		Message: what + " requires a database",
	})
}

func (s *Server) GetTransactionsHandler(c echo.Context) error {
	page, err := pageParam(c)
	if err != nil {
		return err
	}

	transactions, err := s.catalog.ListTransactions(c.Request().Context(), page)
	if err != nil {
		return toHTTPError(err)
	}

	return c.JSON(http.StatusOK, transactions)
}

func (s *Server) GetBookingsHandler(c echo.Context) error {
	page, err := pageParam(c)
	if err != nil {
		return err
	}

	bookings, err := s.catalog.ListBookings(c.Request().Context(), page)
	if err != nil {
		return toHTTPError(err)
	}

	return c.JSON(http.StatusOK, bookings)
}

func (s *Server) GetAttendanceHandler(c echo.Context) error {
	if s.attendance == nil {
		return notAvailable(c, "attendance")
	}

	day := time.Now().UTC()
	if raw := c.QueryParam("day"); raw != "" {
		var err error
		day, err = time.Parse("2006-01-02", raw)
		if err != nil {
			return badRequest("day is not a valid date")
		}
	}

	attendance, err := s.attendance.List(c.Request().Context(), day)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, attendance)
}

func (s *Server) GetHistoryHandler(c echo.Context) error {
	if s.history == nil {
		return notAvailable(c, "history")
	}

	limit, err := limitParam(c)
	if err != nil {
		return err
	}

	entries, err := s.history.List(c.Request().Context(), repository.HistoryFilter{
		Station: c.QueryParam("station"),
		Limit:   limit,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, entries)
}

type StoredEventResponse struct {
	ID          string    `json:"id"`
	EventName   string    `json:"event_name"`
	Station     string    `json:"station"`
	PublishedAt time.Time `json:"published_at"`
	Payload     string    `json:"payload"`
}

func (s *Server) GetEventsHandler(c echo.Context) error {
	if s.events == nil {
		return notAvailable(c, "events")
	}

	name := c.QueryParam("name")
	if name == "" {
		return badRequest("name is required")
	}
	limit, err := limitParam(c)
	if err != nil {
		return err
	}

	stored, err := s.events.ListByName(c.Request().Context(), name, limit)
	if err != nil {
		return err
	}

	resp := make([]StoredEventResponse, 0, len(stored))
	for _, e := range stored {
		resp = append(resp, StoredEventResponse{
			ID:          e.Id.String(),
			EventName:   e.EventName,
			Station:     e.Station,
			PublishedAt: e.PublishedAt,
			Payload:     string(e.Payload),
		})
	}

	return c.JSON(http.StatusOK, resp)
}
