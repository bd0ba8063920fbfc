package http

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"frontdesk/internal/domain/checkin"
)

type RecordResponse struct {
	Kind   checkin.Kind   `json:"kind"`
	Used   bool           `json:"used"`
	Record checkin.Record `json:"record"`
}

func recordResponse(r checkin.Record) *RecordResponse {
	if r == nil {
		return nil
	}
	return &RecordResponse{Kind: r.Kind(), Used: r.Redeemed(), Record: r}
}

type StateResponse struct {
	State     string          `json:"state"`
	Operator  string          `json:"operator"`
	Kind      checkin.Kind    `json:"kind,omitempty"`
	LookupKey string          `json:"lookup_key,omitempty"`
	Record    *RecordResponse `json:"record,omitempty"`
	Error     *ErrorResponse  `json:"error,omitempty"`
}

func (s *Server) stateResponse() StateResponse {
	st := s.desk.State()
	resp := StateResponse{
		State:    st.Name(),
		Operator: s.desk.Operator(),
	}

	switch v := st.(type) {
	case checkin.Validating:
		resp.Kind = v.Kind
		resp.LookupKey = v.LookupKey
	case checkin.Validated:
		resp.LookupKey = v.LookupKey
		resp.Record = recordResponse(v.Record)
	case checkin.CheckingIn:
		resp.Record = recordResponse(v.Record)
	case checkin.Done:
		resp.Record = recordResponse(v.Record)
	case checkin.Failed:
		resp.Error = &ErrorResponse{Error: v.Reason.Error(), Message: checkin.UserMessage(v.Reason)}
	}
	if resp.Record != nil {
		resp.Kind = resp.Record.Kind
	}

	return resp
}

func (s *Server) GetStateHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, s.stateResponse())
}

type SetOperatorRequest struct {
	Operator string `json:"operator"`
}

func (s *Server) SetOperatorHandler(c echo.Context) error {
	var request SetOperatorRequest
	if err := c.Bind(&request); err != nil {
		return err
	}

	s.desk.SetOperator(request.Operator)

	return c.JSON(http.StatusOK, s.stateResponse())
}

func (s *Server) StartScanHandler(c echo.Context) error {
	if err := s.desk.StartScan(c.Request().Context()); err != nil {
		return toHTTPError(err)
	}

	return c.JSON(http.StatusAccepted, s.stateResponse())
}

func (s *Server) StopScanHandler(c echo.Context) error {
	s.desk.StopScan()

	return c.JSON(http.StatusOK, s.stateResponse())
}

type ValidateRequest struct {
	Kind      string `json:"kind"`
	Reference string `json:"reference"`
	Code      string `json:"code"`
}

func (s *Server) ValidateHandler(c echo.Context) error {
	ctx := c.Request().Context()

	var request ValidateRequest
	if err := c.Bind(&request); err != nil {
		return err
	}

	kind, err := checkin.ParseKind(request.Kind)
	if err != nil {
		return toHTTPError(err)
	}

	var record checkin.Record
	if strings.TrimSpace(request.Code) != "" {
		if kind != checkin.KindPurchase {
			return badRequest("QR codes can only be used for tickets.")
		}
		record, err = s.desk.ValidateByCode(ctx, request.Code)
	} else {
		record, err = s.desk.ValidateByReference(ctx, kind, request.Reference)
	}
	if err != nil {
		return toHTTPError(err)
	}

	return c.JSON(http.StatusOK, recordResponse(record))
}

type DoneResponse struct {
	Action  checkin.Action  `json:"action"`
	Message string          `json:"message"`
	Record  *RecordResponse `json:"record"`
}

func (s *Server) CheckInHandler(c echo.Context) error {
	done, err := s.desk.CheckIn(c.Request().Context())
	if err != nil {
		return toHTTPError(err)
	}

	return c.JSON(http.StatusOK, DoneResponse{
		Action:  done.Action,
		Message: done.Message,
		Record:  recordResponse(done.Record),
	})
}

func (s *Server) CheckOutHandler(c echo.Context) error {
	done, err := s.desk.CheckOut(c.Request().Context())
	if err != nil {
		return toHTTPError(err)
	}

	return c.JSON(http.StatusOK, DoneResponse{
		Action:  done.Action,
		Message: done.Message,
		Record:  recordResponse(done.Record),
	})
}

func (s *Server) ResetHandler(c echo.Context) error {
	s.desk.Reset()

	return c.JSON(http.StatusOK, s.stateResponse())
}

func (s *Server) GetNotificationsHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, s.notifications.Active())
}

func (s *Server) DismissNotificationHandler(c echo.Context) error {
	if !s.notifications.Dismiss(c.Param("id")) {
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: "not found", Message: "notification not found"})
	}

	return c.NoContent(http.StatusNoContent)
}

type ConfigResponse struct {
	Station    string `json:"station"`
	StorageURL string `json:"storage_url"`
}

func (s *Server) GetConfigHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, ConfigResponse{Station: s.station, StorageURL: s.storageURL})
}
