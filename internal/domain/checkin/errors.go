package checkin

import (
	"context"
	"errors"
)

// local validation
var (
	ErrEmptyReference = errors.New("reference is required")
	ErrUnknownKind    = errors.New("unknown record kind")
	ErrNoRecordLoaded = errors.New("no record loaded")
	ErrAlreadyUsed    = errors.New("record already redeemed")
	ErrNotABooking    = errors.New("loaded record is not a booking")
	ErrNotCheckedIn   = errors.New("booking is not checked in")
	ErrStale          = errors.New("superseded by a newer request")

	ErrCheckInInProgress = errors.New("check-in already in progress for this record")
)

// remote lookups and actions
var (
	ErrNetwork          = errors.New("network failure")
	ErrUnauthenticated  = errors.New("unauthenticated")
	ErrNotFound         = errors.New("not found")
	ErrAlreadyCheckedIn = errors.New("already checked in")
	ErrRejected         = errors.New("rejected by server")
	ErrServer           = errors.New("server error")
)

// camera
var (
	ErrNoCameraFound          = errors.New("no camera found")
	ErrCameraPermissionDenied = errors.New("camera permission denied")
	ErrDeviceEnumeration      = errors.New("failed to enumerate video devices")
	ErrScanTimeout            = errors.New("no QR code decoded before timeout")
	ErrScannerBusy            = errors.New("scanner already running")
)

// IsValidation reports whether err was raised locally, before any request.
func IsValidation(err error) bool {
	return errors.Is(err, ErrEmptyReference) ||
		errors.Is(err, ErrUnknownKind) ||
		errors.Is(err, ErrNoRecordLoaded) ||
		errors.Is(err, ErrNotABooking) ||
		errors.Is(err, ErrNotCheckedIn)
}

type serverMessager interface {
	ServerMessage() string
}

// UserMessage maps an error to the line shown to the operator.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var sm serverMessager
	hasServerMessage := errors.As(err, &sm) && sm.ServerMessage() != ""

	switch {
	case errors.Is(err, ErrCameraPermissionDenied):
		return "Camera access denied. Allow camera access and reopen the scanner."
	case errors.Is(err, ErrNoCameraFound):
		return "No camera found. Connect a camera or type the reference instead."
	case errors.Is(err, ErrDeviceEnumeration):
		return "Could not list the available cameras."
	case errors.Is(err, ErrScanTimeout):
		return "No QR code detected. Try again or type the reference."
	case errors.Is(err, ErrScannerBusy):
		return "The scanner is already running."
	case errors.Is(err, ErrEmptyReference):
		return "Please enter a transaction reference."
	case errors.Is(err, ErrUnknownKind):
		return "Choose either a ticket or a booking lookup."
	case errors.Is(err, ErrNoRecordLoaded):
		return "Validate a ticket or booking before checking in."
	case errors.Is(err, ErrAlreadyUsed):
		return "This ticket or booking has already been used."
	case errors.Is(err, ErrNotABooking):
		return "Only room bookings can be checked out."
	case errors.Is(err, ErrNotCheckedIn):
		return "This booking has not been checked in yet."
	case errors.Is(err, ErrCheckInInProgress):
		return "Another desk is checking in this record right now."
	case errors.Is(err, ErrUnauthenticated):
		return "Your session has expired. Please log in again."
	case errors.Is(err, ErrNetwork):
		return "Network error. Check the connection and try again."
	case errors.Is(err, ErrNotFound):
		return "No ticket or booking matches this code."
	case errors.Is(err, ErrAlreadyCheckedIn):
		if hasServerMessage {
			return sm.ServerMessage()
		}
		return "Already checked in."
	case errors.Is(err, ErrRejected):
		if hasServerMessage {
			return sm.ServerMessage()
		}
		return "The request was rejected."
	case errors.Is(err, ErrStale), errors.Is(err, context.Canceled):
		return "The request was cancelled."
	}

	return "Something went wrong. Please try again."
}
