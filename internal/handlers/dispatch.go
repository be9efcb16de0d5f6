package handlers

import (
	"net/http"

	"corrcreate/internal/dataservice"
	"corrcreate/internal/dispatch"
	"corrcreate/internal/models"
	"corrcreate/internal/session"

	"github.com/labstack/echo/v4"
)

// DispatchHandler runs a batch email/print/preview operation across the
// selected items. A validation failure returns the verdict and the message
// list without sending anything.
func DispatchHandler(reg *session.Registry) echo.HandlerFunc {
	return func(c echo.Context) error {
		sess, ok := reg.Get(c.Param("sid"))
		if !ok {
			return c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "session not found"})
		}

		var req dispatch.Request
		if err := c.Bind(&req); err != nil || req.Channel == "" {
			return c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "channel required"})
		}

		result, err := sess.Dispatch.Dispatch(c.Request().Context(), req)
		if err != nil {
			return c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		}

		if !result.Valid {
			return c.JSON(http.StatusUnprocessableEntity, struct {
				dispatch.Result
				Messages []models.PopoverMessage `json:"messages"`
			}{Result: result, Messages: sess.Store.Messages()})
		}
		return c.JSON(http.StatusOK, result)
	}
}

// EmailValueHelpHandler searches recipient suggestions for a business
// partner.
func EmailValueHelpHandler(data dataservice.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		filter := dataservice.EmailValueHelpFilter{
			BusinessPartner: c.QueryParam("businessPartner"),
			CompanyCode:     c.QueryParam("companyCode"),
			ClerkSourceType: c.QueryParam("clerkSourceType"),
		}
		if filter.BusinessPartner == "" {
			return c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "businessPartner required"})
		}

		candidates, err := data.ReadEmailValueHelp(c.Request().Context(), filter)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: err.Error()})
		}
		if candidates == nil {
			candidates = []dataservice.EmailCandidate{}
		}
		return c.JSON(http.StatusOK, candidates)
	}
}
