package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"corrcreate/internal/errreport"
	"corrcreate/internal/fieldpath"
	"corrcreate/internal/models"
	"corrcreate/internal/rules"
	"corrcreate/internal/session"
	"corrcreate/internal/store"

	"github.com/labstack/echo/v4"
)

// CreateItemRequest optionally names an existing item to clone.
// @Description Item creation payload
type CreateItemRequest struct {
	SourceID int `json:"sourceId,omitempty"`
}

// DeleteItemsRequest lists the items to remove.
// @Description Item deletion payload
type DeleteItemsRequest struct {
	IDs []int `json:"ids"`
}

// FieldChangeRequest carries one field edit.
// @Description Field change payload
type FieldChangeRequest struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

// CreateItemHandler adds an item to the session, cloned from sourceId when
// given, blank otherwise. The new item becomes active and selected.
func CreateItemHandler(reg *session.Registry) echo.HandlerFunc {
	return func(c echo.Context) error {
		sess, ok := reg.Get(c.Param("sid"))
		if !ok {
			return c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "session not found"})
		}

		var req CreateItemRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request body"})
		}

		var source *models.CorrespondenceItem
		if req.SourceID != 0 {
			err := sess.Store.View(req.SourceID, func(it *models.CorrespondenceItem) {
				source = it.Clone(it.ID)
			})
			if err != nil {
				return c.JSON(http.StatusNotFound, models.ErrorResponse{Error: err.Error()})
			}
		}

		id := sess.Store.CreateItem(source)
		return c.JSON(http.StatusCreated, models.SessionResponse{
			SessionID: sess.ID,
			CreatedAt: sess.CreatedAt,
			ItemCount: len(sess.Store.IDs()),
			ActiveID:  id,
		})
	}
}

// DeleteItemsHandler removes the listed items, re-seating the active item
// per the deletion rules.
func DeleteItemsHandler(reg *session.Registry) echo.HandlerFunc {
	return func(c echo.Context) error {
		sess, ok := reg.Get(c.Param("sid"))
		if !ok {
			return c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "session not found"})
		}

		var req DeleteItemsRequest
		if err := c.Bind(&req); err != nil || len(req.IDs) == 0 {
			return c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "ids required"})
		}

		sess.Store.DeleteItems(req.IDs)
		return c.JSON(http.StatusOK, models.SessionResponse{
			SessionID: sess.ID,
			CreatedAt: sess.CreatedAt,
			ItemCount: len(sess.Store.IDs()),
			ActiveID:  sess.Store.ActiveID(),
		})
	}
}

// ActivateItemHandler switches the active item.
func ActivateItemHandler(reg *session.Registry) echo.HandlerFunc {
	return func(c echo.Context) error {
		sess, ok := reg.Get(c.Param("sid"))
		if !ok {
			return c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "session not found"})
		}

		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			return c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid item id"})
		}

		if err := sess.Store.SwitchActive(id); err != nil {
			return c.JSON(http.StatusNotFound, models.ErrorResponse{Error: err.Error()})
		}
		return itemResponse(c, sess, id)
	}
}

// FieldChangeHandler applies one field edit, routing it to the lookup or
// email-form coordinator that owns the field's cascade.
func FieldChangeHandler(reg *session.Registry) echo.HandlerFunc {
	return func(c echo.Context) error {
		sess, ok := reg.Get(c.Param("sid"))
		if !ok {
			return c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "session not found"})
		}

		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			return c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid item id"})
		}

		var req FieldChangeRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request body"})
		}

		ctx := c.Request().Context()
		switch fieldpath.Field(req.Field) {
		case fieldpath.FieldCompanyCode:
			err = sess.Lookups.CompanyCodeChanged(ctx, id, req.Value)
		case fieldpath.FieldAccountNumber, fieldpath.FieldCustomerNumber, fieldpath.FieldVendorNumber:
			err = sess.Lookups.AccountNumberChanged(ctx, id, req.Value)
		case fieldpath.FieldCorrespondenceType:
			err = sess.Lookups.CorrespondenceTypeChanged(ctx, id, req.Value)
		case fieldpath.FieldDocumentNumber:
			err = sess.Lookups.DocumentNumberChanged(id, req.Value)
		case fieldpath.FieldFiscalYear:
			err = sess.Lookups.FiscalYearChanged(id, req.Value)
		case fieldpath.FieldDate1:
			err = sess.Lookups.DateChanged(id, fieldpath.FieldDate1, rules.ParseAbapDate(req.Value))
		case fieldpath.FieldDate2:
			err = sess.Lookups.DateChanged(id, fieldpath.FieldDate2, rules.ParseAbapDate(req.Value))
		case fieldpath.FieldPrintType:
			err = sess.Lookups.PrinterTypeChanged(ctx, id, req.Value)
		case fieldpath.FieldEmailTo:
			err = sess.Emails.Tokenize(id, req.Value)
		case fieldpath.FieldEmailSubject:
			err = sess.Emails.SubjectEdited(id, req.Value)
		case fieldpath.FieldEmailTemplate:
			err = sess.Emails.TemplateSelected(id, req.Value)
		default:
			return c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "unsupported field: " + req.Field})
		}

		if err != nil {
			if errors.Is(err, store.ErrItemNotFound) {
				return c.JSON(http.StatusNotFound, models.ErrorResponse{Error: err.Error()})
			}
			// the lookup already recorded the field-level state; surface the
			// backend failure in the session's error slot as well
			sess.Errors.Show(errreport.Report{Text: errreport.TextGenericError, Details: err.Error()})
			return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: err.Error()})
		}
		return itemResponse(c, sess, id)
	}
}

// ValidateItemHandler runs the full validation pass for one item.
func ValidateItemHandler(reg *session.Registry) echo.HandlerFunc {
	return func(c echo.Context) error {
		sess, ok := reg.Get(c.Param("sid"))
		if !ok {
			return c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "session not found"})
		}

		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			return c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid item id"})
		}

		valid, err := sess.Validator.ValidateItem(id, false)
		if err != nil {
			if errors.Is(err, store.ErrItemNotFound) {
				return c.JSON(http.StatusNotFound, models.ErrorResponse{Error: err.Error()})
			}
			return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: err.Error()})
		}

		return c.JSON(http.StatusOK, models.ValidationResponse{
			Valid:    valid,
			Messages: sess.Store.ItemMessages(id),
		})
	}
}

// itemResponse writes the item's current state plus its validation messages.
func itemResponse(c echo.Context, sess *session.Session, id int) error {
	var copied *models.CorrespondenceItem
	if err := sess.Store.View(id, func(it *models.CorrespondenceItem) {
		copied = it.Clone(it.ID)
		copied.State = it.State
		copied.Title = it.Title
	}); err != nil {
		return c.JSON(http.StatusNotFound, models.ErrorResponse{Error: err.Error()})
	}

	return c.JSON(http.StatusOK, models.ItemResponse{
		Item:     copied,
		Messages: sess.Store.ItemMessages(id),
	})
}
