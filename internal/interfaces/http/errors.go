package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"frontdesk/internal/domain/checkin"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func statusFor(err error) int {
	switch {
	case checkin.IsValidation(err):
		return http.StatusBadRequest
	case errors.Is(err, checkin.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, checkin.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, checkin.ErrAlreadyCheckedIn),
		errors.Is(err, checkin.ErrAlreadyUsed),
		errors.Is(err, checkin.ErrCheckInInProgress),
		errors.Is(err, checkin.ErrScannerBusy),
		errors.Is(err, checkin.ErrStale),
		errors.Is(err, context.Canceled):
		return http.StatusConflict
	case errors.Is(err, checkin.ErrRejected):
		return http.StatusUnprocessableEntity
	case errors.Is(err, checkin.ErrNetwork):
		return http.StatusBadGateway
	case errors.Is(err, checkin.ErrNoCameraFound),
		errors.Is(err, checkin.ErrCameraPermissionDenied),
		errors.Is(err, checkin.ErrDeviceEnumeration):
		return http.StatusServiceUnavailable
	}

	return http.StatusInternalServerError
}

// toHTTPError keeps the original error as Internal so it is logged, and sends the
// operator message as the body.
func toHTTPError(err error) *echo.HTTPError {
	return &echo.HTTPError{
		Code: statusFor(err),
		Message: ErrorResponse{
			Error:   err.Error(),
			Message: checkin.UserMessage(err),
		},
		Internal: err,
	}
}

func badRequest(message string) *echo.HTTPError {
	return &echo.HTTPError{
		Code:    http.StatusBadRequest,
		Message: ErrorResponse{Error: "bad request", Message: message},
	}
}
