package clients

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"frontdesk/internal/domain/checkin"
)

// APIError carries the error class (one of the checkin.Err* remote sentinels) and what the server said.
type APIError struct {
	Op         string
	StatusCode int
	Message    string
	Err        error

	cause error
}

func (e *APIError) Error() string {
	var b strings.Builder
	b.WriteString(e.Op)
	b.WriteString(": ")
	b.WriteString(e.Err.Error())
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (status %d)", e.StatusCode)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}

	return b.String()
}

func (e *APIError) Unwrap() []error {
	if e.cause != nil {
		return []error{e.Err, e.cause}
	}
	return []error{e.Err}
}

func (e *APIError) ServerMessage() string {
	if e.Err == checkin.ErrNetwork {
		return ""
	}
	return e.Message
}

func classify(status int) error {
	switch {
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return checkin.ErrUnauthenticated
	case status == http.StatusNotFound:
		return checkin.ErrNotFound
	case status == http.StatusConflict:
		return checkin.ErrAlreadyCheckedIn
	case status == http.StatusBadRequest, status == http.StatusUnprocessableEntity:
		return checkin.ErrRejected
	}

	return checkin.ErrServer
}

func newAPIError(op string, resp *http.Response) *APIError {
	apiErr := &APIError{
		Op:         op,
		StatusCode: resp.StatusCode,
		Err:        classify(resp.StatusCode),
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return apiErr
	}

	var body errorBody
	if json.Unmarshal(raw, &body) == nil {
		apiErr.Message = body.Message
		if apiErr.Message == "" {
			apiErr.Message = body.Error
		}
	}

	return apiErr
}
