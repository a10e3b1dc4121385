package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WismutNaN/resource-queue/internal/engine"
	"github.com/WismutNaN/resource-queue/internal/handler"
	"github.com/WismutNaN/resource-queue/internal/history"
	"github.com/WismutNaN/resource-queue/internal/ledger"
	"github.com/WismutNaN/resource-queue/internal/middleware"
	"github.com/WismutNaN/resource-queue/internal/model"
	"github.com/WismutNaN/resource-queue/internal/registry"
	"github.com/WismutNaN/resource-queue/internal/router"
	"github.com/WismutNaN/resource-queue/internal/utils"
)

const testSecret = "test-secret"

type app struct {
	echo *echo.Echo
}

func newApp(t *testing.T) *app {
	t.Helper()
	reg, err := registry.New(context.Background(), nil)
	require.NoError(t, err)

	eng := engine.New(engine.Config{}, reg, ledger.New(), ledger.NewSubscriptions(),
		history.NewMemoryRecorder(0), nil)

	names := middleware.NewNameCache()
	e := echo.New()
	router.Register(e, router.Deps{
		Admin:   handler.NewAdminHandler(eng),
		Booking: handler.NewBookingHandler(eng),
		Status:  handler.NewStatusHandler(eng, names, []model.DurationPreset{{Label: "1 hour", Minutes: 60}}),
		Names:   names,
		Secret:  testSecret,
	})
	return &app{echo: e}
}

func token(t *testing.T, userID, name, role string) string {
	t.Helper()
	tok, err := utils.NewIdentityToken(testSecret, userID, name, role, time.Hour)
	require.NoError(t, err)
	return tok
}

func (a *app) do(t *testing.T, method, path, bearer, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if bearer != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	a.echo.ServeHTTP(rec, req)
	return rec
}

func (a *app) createResource(t *testing.T, name string) model.Resource {
	t.Helper()
	rec := a.do(t, http.MethodPost, "/v1/resources", token(t, "root", "Root", middleware.AdminRole),
		`{"name":"`+name+`"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var res model.Resource
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	return res
}

func TestHealthIsOpen(t *testing.T) {
	a := newApp(t)
	rec := a.do(t, http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthRequired(t *testing.T) {
	a := newApp(t)

	rec := a.do(t, http.MethodGet, "/v1/resources", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = a.do(t, http.MethodGet, "/v1/resources", "not-a-jwt", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	forged, err := utils.NewIdentityToken("wrong-secret", "u1", "Eve", "", time.Hour)
	require.NoError(t, err)
	rec = a.do(t, http.MethodGet, "/v1/resources", forged, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestResourceCRUDRequiresAdmin(t *testing.T) {
	a := newApp(t)
	user := token(t, "u1", "Alice", "")

	rec := a.do(t, http.MethodPost, "/v1/resources", user, `{"name":"rig"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	res := a.createResource(t, "rig")

	rec = a.do(t, http.MethodPut, "/v1/resources/"+res.ID, user, `{"name":"renamed"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = a.do(t, http.MethodDelete, "/v1/resources/"+res.ID, user, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	admin := token(t, "root", "Root", middleware.AdminRole)
	rec = a.do(t, http.MethodPut, "/v1/resources/"+res.ID, admin, `{"name":"renamed"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = a.do(t, http.MethodDelete, "/v1/resources/"+res.ID, admin, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = a.do(t, http.MethodDelete, "/v1/resources/"+res.ID, admin, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBookLifecycle(t *testing.T) {
	a := newApp(t)
	res := a.createResource(t, "build-box")
	alice := token(t, "u1", "Alice", "")
	bob := token(t, "u2", "Bob", "")

	rec := a.do(t, http.MethodPost, "/v1/resources/"+res.ID+"/book", alice,
		`{"minutes":60,"purpose":"nightly build"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var booked model.Reservation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &booked))
	assert.Equal(t, "u1", booked.HolderID)
	assert.Equal(t, "nightly build", booked.Purpose)

	rec = a.do(t, http.MethodPost, "/v1/resources/"+res.ID+"/book", bob, `{"minutes":30}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = a.do(t, http.MethodPost, "/v1/resources/"+res.ID+"/book", bob, `{"minutes":0}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Only the holder may release; an admin may override.
	rec = a.do(t, http.MethodPost, "/v1/resources/"+res.ID+"/release", bob, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = a.do(t, http.MethodPost, "/v1/resources/"+res.ID+"/release", alice, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = a.do(t, http.MethodPost, "/v1/resources/"+res.ID+"/release", alice, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestQueueEndpoints(t *testing.T) {
	a := newApp(t)
	res := a.createResource(t, "scope")
	alice := token(t, "u1", "Alice", "")
	bob := token(t, "u2", "Bob", "")

	// Strict policy: queueing on a free resource is rejected.
	rec := a.do(t, http.MethodPost, "/v1/resources/"+res.ID+"/queue", bob, `{"minutes":30}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = a.do(t, http.MethodPost, "/v1/resources/"+res.ID+"/book", alice, `{"minutes":60}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = a.do(t, http.MethodPost, "/v1/resources/"+res.ID+"/queue", bob, `{"minutes":30}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var joined map[string]int
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &joined))
	assert.Equal(t, 1, joined["position"])

	rec = a.do(t, http.MethodPost, "/v1/resources/"+res.ID+"/queue", bob, `{"minutes":30}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = a.do(t, http.MethodDelete, "/v1/resources/"+res.ID+"/queue", bob, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = a.do(t, http.MethodDelete, "/v1/resources/"+res.ID+"/queue", bob, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStatusEndpointResolvesNames(t *testing.T) {
	a := newApp(t)
	res := a.createResource(t, "rack-7")
	alice := token(t, "u1", "Alice", "")

	rec := a.do(t, http.MethodPost, "/v1/resources/"+res.ID+"/book", alice, `{"minutes":60}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = a.do(t, http.MethodPost, "/v1/resources/"+res.ID+"/subscribe", alice, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = a.do(t, http.MethodGet, "/v1/status/"+res.ID, alice, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var st model.ResourceStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	require.NotNil(t, st.Reservation)
	assert.Equal(t, "Alice", st.Reservation.HolderName)
	assert.True(t, st.IsHolder)
	assert.True(t, st.IsSubscribed)
	assert.Equal(t, 1, st.Subscribers)

	rec = a.do(t, http.MethodGet, "/v1/status/nope", alice, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAllStatusesEnvelope(t *testing.T) {
	a := newApp(t)
	a.createResource(t, "one")
	a.createResource(t, "two")

	rec := a.do(t, http.MethodGet, "/v1/status", token(t, "root", "Root", middleware.AdminRole), "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		UserID   string                 `json:"user_id"`
		IsAdmin  bool                   `json:"is_admin"`
		Statuses []model.ResourceStatus `json:"statuses"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "root", body.UserID)
	assert.True(t, body.IsAdmin)
	assert.Len(t, body.Statuses, 2)
}

func TestHistoryEndpoint(t *testing.T) {
	a := newApp(t)
	res := a.createResource(t, "logger")
	alice := token(t, "u1", "Alice", "")

	rec := a.do(t, http.MethodPost, "/v1/resources/"+res.ID+"/book", alice, `{"minutes":60}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = a.do(t, http.MethodPost, "/v1/resources/"+res.ID+"/release", alice, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = a.do(t, http.MethodGet, "/v1/resources/"+res.ID+"/history", alice, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var views []model.HistoryView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &views))
	require.Len(t, views, 1)
	assert.Equal(t, "u1", views[0].HolderID)
	assert.Equal(t, "Alice", views[0].HolderName)

	rec = a.do(t, http.MethodGet, "/v1/resources/"+res.ID+"/history?limit=abc", alice, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPresetsEndpoint(t *testing.T) {
	a := newApp(t)

	rec := a.do(t, http.MethodGet, "/v1/presets", token(t, "u1", "Alice", ""), "")
	require.Equal(t, http.StatusOK, rec.Code)
	var presets []model.DurationPreset
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &presets))
	require.Len(t, presets, 1)
	assert.Equal(t, 60, presets[0].Minutes)
}
