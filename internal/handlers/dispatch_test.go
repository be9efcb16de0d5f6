package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"corrcreate/internal/dataservice"
	"corrcreate/internal/models"
)

func TestDispatchHandler_ValidationFailure(t *testing.T) {
	reg := newTestRegistry(newFakeService())
	sess := reg.Create(nil)
	sess.Store.CreateItem(nil) // blank item cannot pass validation

	e := echo.New()
	c, rec := itemContext(t, e, http.MethodPost, `{"channel":"Print"}`, sess.ID, 0)
	require.NoError(t, DispatchHandler(reg)(c))
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var resp struct {
		Valid    bool                    `json:"valid"`
		State    string                  `json:"state"`
		Messages []models.PopoverMessage `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Valid)
	assert.Equal(t, "Idle", resp.State)
	assert.NotEmpty(t, resp.Messages)
}

func TestDispatchHandler_NothingSelected(t *testing.T) {
	reg := newTestRegistry(newFakeService())
	sess := reg.Create(nil)

	e := echo.New()
	c, rec := itemContext(t, e, http.MethodPost, `{"channel":"Print"}`, sess.ID, 0)
	require.NoError(t, DispatchHandler(reg)(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDispatchHandler_MissingChannel(t *testing.T) {
	reg := newTestRegistry(newFakeService())
	sess := reg.Create(nil)

	e := echo.New()
	c, rec := itemContext(t, e, http.MethodPost, `{}`, sess.ID, 0)
	require.NoError(t, DispatchHandler(reg)(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEmailValueHelpHandler(t *testing.T) {
	tests := []struct {
		name           string
		query          string
		candidates     []dataservice.EmailCandidate
		expectedStatus int
		expectedLen    int
	}{
		{
			name:           "returns matched candidates",
			query:          "businessPartner=BP7&companyCode=1000&clerkSourceType=CLERK",
			candidates:     []dataservice.EmailCandidate{{Address: "clerk@acme.example"}},
			expectedStatus: http.StatusOK,
			expectedLen:    1,
		},
		{
			name:           "empty result is an empty array",
			query:          "businessPartner=BP9",
			expectedStatus: http.StatusOK,
			expectedLen:    0,
		},
		{
			name:           "missing business partner rejected",
			query:          "companyCode=1000",
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newFakeService()
			svc.candidates = tt.candidates

			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/api/email-value-help?"+tt.query, nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			require.NoError(t, EmailValueHelpHandler(svc)(c))
			assert.Equal(t, tt.expectedStatus, rec.Code)

			if tt.expectedStatus == http.StatusOK {
				var got []dataservice.EmailCandidate
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
				assert.Len(t, got, tt.expectedLen)
			}
		})
	}
}
