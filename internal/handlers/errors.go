package handlers

import (
	"net/http"

	"corrcreate/internal/errreport"
	"corrcreate/internal/models"
	"corrcreate/internal/session"

	"github.com/labstack/echo/v4"
)

// ErrorStateResponse is the session's surfaced-error slot.
// @Description Open error, if any
type ErrorStateResponse struct {
	Open   bool              `json:"open"`
	Report *errreport.Report `json:"report,omitempty"`
}

// GetErrorHandler returns the session's open error, if one is surfaced.
func GetErrorHandler(reg *session.Registry) echo.HandlerFunc {
	return func(c echo.Context) error {
		sess, ok := reg.Get(c.Param("sid"))
		if !ok {
			return c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "session not found"})
		}

		report, open := sess.Errors.Current()
		resp := ErrorStateResponse{Open: open}
		if open {
			resp.Report = &report
		}
		return c.JSON(http.StatusOK, resp)
	}
}

// DismissErrorHandler closes the open error so the next failure can surface.
func DismissErrorHandler(reg *session.Registry) echo.HandlerFunc {
	return func(c echo.Context) error {
		sess, ok := reg.Get(c.Param("sid"))
		if !ok {
			return c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "session not found"})
		}

		sess.Errors.Dismiss()
		return c.NoContent(http.StatusNoContent)
	}
}
