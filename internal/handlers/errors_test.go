package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"corrcreate/internal/errreport"
)

func TestErrorHandlers(t *testing.T) {
	reg := newTestRegistry(newFakeService())
	sess := reg.Create(nil)
	e := echo.New()

	get := func() (ErrorStateResponse, int) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("sid")
		c.SetParamValues(sess.ID)
		require.NoError(t, GetErrorHandler(reg)(c))

		var resp ErrorStateResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		return resp, rec.Code
	}

	resp, code := get()
	assert.Equal(t, http.StatusOK, code)
	assert.False(t, resp.Open)
	assert.Nil(t, resp.Report)

	sess.Errors.Show(errreport.Report{Text: "backend unreachable"})

	resp, code = get()
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, resp.Open)
	require.NotNil(t, resp.Report)
	assert.Equal(t, "backend unreachable", resp.Report.Text)

	req := httptest.NewRequest(http.MethodDelete, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("sid")
	c.SetParamValues(sess.ID)
	require.NoError(t, DismissErrorHandler(reg)(c))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	resp, _ = get()
	assert.False(t, resp.Open)
}
