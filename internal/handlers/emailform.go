package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"corrcreate/internal/errreport"
	"corrcreate/internal/models"
	"corrcreate/internal/session"
	"corrcreate/internal/store"

	"github.com/labstack/echo/v4"
)

// RemoveRecipientRequest names one tokenized address to drop.
// @Description Recipient removal payload
type RemoveRecipientRequest struct {
	Address string `json:"address"`
}

// OpenEmailFormHandler prepares the email sub-form for display: dialog
// defaults, sender address, fallback recipients and the template list load
// lazily, driven by the item's invalidation flags.
func OpenEmailFormHandler(reg *session.Registry) echo.HandlerFunc {
	return func(c echo.Context) error {
		sess, ok := reg.Get(c.Param("sid"))
		if !ok {
			return c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "session not found"})
		}

		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			return c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid item id"})
		}

		if err := sess.Emails.OpenForm(c.Request().Context(), id); err != nil {
			return emailFormError(c, sess, err)
		}
		return itemResponse(c, sess, id)
	}
}

// PreviewEmailHandler renders the selected template into the item's preview
// fields when the preview is stale.
func PreviewEmailHandler(reg *session.Registry) echo.HandlerFunc {
	return func(c echo.Context) error {
		sess, ok := reg.Get(c.Param("sid"))
		if !ok {
			return c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "session not found"})
		}

		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			return c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid item id"})
		}

		if err := sess.Emails.RenderPreview(c.Request().Context(), id); err != nil {
			return emailFormError(c, sess, err)
		}
		return itemResponse(c, sess, id)
	}
}

// RemoveRecipientHandler drops one tokenized address from the item.
func RemoveRecipientHandler(reg *session.Registry) echo.HandlerFunc {
	return func(c echo.Context) error {
		sess, ok := reg.Get(c.Param("sid"))
		if !ok {
			return c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "session not found"})
		}

		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			return c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid item id"})
		}

		var req RemoveRecipientRequest
		if err := c.Bind(&req); err != nil || req.Address == "" {
			return c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "address required"})
		}

		if err := sess.Emails.RemoveRecipient(id, req.Address); err != nil {
			return emailFormError(c, sess, err)
		}
		return itemResponse(c, sess, id)
	}
}

// emailFormError maps an email sub-form failure to a response, surfacing
// backend failures in the session's error slot.
func emailFormError(c echo.Context, sess *session.Session, err error) error {
	if errors.Is(err, store.ErrItemNotFound) {
		return c.JSON(http.StatusNotFound, models.ErrorResponse{Error: err.Error()})
	}
	sess.Errors.Show(errreport.Report{Text: errreport.TextGenericError, Details: err.Error()})
	return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: err.Error()})
}
