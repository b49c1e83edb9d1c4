package httpapi

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/benjamonnguyen/studyplan"
)

type ErrorResponse struct {
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty"`
}

// statusOf maps an error kind to its HTTP status.
func statusOf(err error) int {
	switch {
	case errors.Is(err, studyplan.ErrUpstream):
		return http.StatusBadGateway
	case errors.Is(err, studyplan.ErrAuth):
		return http.StatusUnauthorized
	case errors.Is(err, studyplan.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, studyplan.ErrValidation),
		errors.Is(err, studyplan.ErrInvalidCredentials),
		errors.Is(err, studyplan.ErrQuotaExceeded):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var status int
	var body ErrorResponse
	var he *echo.HTTPError
	if errors.As(err, &he) {
		status = he.Code
		body.Error = fmt.Sprint(he.Message)
		if he.Internal != nil {
			s.l.Debug("http error", "status", status, "error", he.Internal)
		}
	} else {
		status = statusOf(err)
		body.Error = studyplan.Message(err)
		body.Reason = studyplan.Reason(err)
	}

	if status == http.StatusInternalServerError {
		s.l.Error("internal error",
			"error", err,
			"method", c.Request().Method,
			"uri", c.Request().RequestURI,
			"request_id", c.Response().Header().Get(echo.HeaderXRequestID),
		)
		body = ErrorResponse{Error: "Something went wrong."}
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = c.JSON(status, body)
	}
	if err != nil {
		s.l.Error("failed to write error response", "error", err)
	}
}
