package handlers

import (
	"net/http"

	"corrcreate/internal/appstate"
	"corrcreate/internal/deeplink"
	"corrcreate/internal/models"
	"corrcreate/internal/session"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// CreateSessionRequest optionally carries deep-link url parameters.
// @Description Session creation payload
type CreateSessionRequest struct {
	Parameters deeplink.Params `json:"parameters,omitempty"`
}

// CreateSessionResponse describes the created session.
// @Description Created session descriptor
type CreateSessionResponse struct {
	models.SessionResponse
	Settings deeplink.Settings `json:"settings"`
}

// CreateSessionHandler creates a form session, seeding items from deep-link
// parameters when present. A session without seeds starts with one blank
// item.
func CreateSessionHandler(reg *session.Registry, logger zerolog.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req CreateSessionRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request body"})
		}

		parsed := deeplink.Parse(req.Parameters)

		var settings deeplink.Settings
		if parsed != nil {
			settings = parsed.Settings
		}
		sess := reg.Create(settings)

		ctx := c.Request().Context()
		if parsed == nil || len(parsed.Seeds) == 0 {
			sess.Store.CreateItem(nil)
		} else {
			for _, seed := range parsed.Seeds {
				id := sess.Store.CreateItem(seed.BuildItem(0))
				if seed.Title != "" {
					_ = sess.Store.Update(id, func(it *models.CorrespondenceItem) {
						it.Title = seed.Title
					})
				}

				// resolve seeded values best-effort; a failing lookup leaves
				// the field in Error state rather than failing the session
				if seed.CompanyCode != "" {
					if err := sess.Lookups.CompanyCodeChanged(ctx, id, seed.CompanyCode); err != nil {
						logger.Warn().Err(err).Int("item_id", id).Msg("seeded company code lookup failed")
					}
				}
				if number := accountNumberOf(seed); number != "" {
					if err := sess.Lookups.AccountNumberChanged(ctx, id, number); err != nil {
						logger.Warn().Err(err).Int("item_id", id).Msg("seeded account lookup failed")
					}
				}
			}
		}

		return c.JSON(http.StatusCreated, CreateSessionResponse{
			SessionResponse: models.SessionResponse{
				SessionID: sess.ID,
				CreatedAt: sess.CreatedAt,
				ItemCount: len(sess.Store.IDs()),
				ActiveID:  sess.Store.ActiveID(),
			},
			Settings: sess.Settings,
		})
	}
}

func accountNumberOf(seed deeplink.Seed) string {
	switch seed.AccountType {
	case models.AccountTypeCustomer:
		return seed.CustomerNumber
	case models.AccountTypeVendor:
		return seed.VendorNumber
	}
	return ""
}

// GetStateHandler returns the session's app-state snapshot.
func GetStateHandler(reg *session.Registry) echo.HandlerFunc {
	return func(c echo.Context) error {
		sess, ok := reg.Get(c.Param("sid"))
		if !ok {
			return c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "session not found"})
		}
		return c.JSON(http.StatusOK, sess.AppState.Capture())
	}
}

// RestoreStateHandler replaces the session's items with a snapshot.
func RestoreStateHandler(reg *session.Registry) echo.HandlerFunc {
	return func(c echo.Context) error {
		sess, ok := reg.Get(c.Param("sid"))
		if !ok {
			return c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "session not found"})
		}

		var snap appstate.Snapshot
		if err := c.Bind(&snap); err != nil {
			return c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid snapshot"})
		}

		if err := sess.AppState.Restore(c.Request().Context(), snap); err != nil {
			return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: err.Error()})
		}

		return c.JSON(http.StatusOK, models.SessionResponse{
			SessionID: sess.ID,
			CreatedAt: sess.CreatedAt,
			ItemCount: len(sess.Store.IDs()),
			ActiveID:  sess.Store.ActiveID(),
		})
	}
}
