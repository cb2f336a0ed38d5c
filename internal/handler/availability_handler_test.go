package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusbook/appointment-api/internal/middleware"
	"github.com/campusbook/appointment-api/internal/models"
	"github.com/campusbook/appointment-api/internal/service"
	appErrors "github.com/campusbook/appointment-api/pkg/errors"
)

type availabilityServiceMock struct {
	createResp   *models.AvailabilityWindow
	createErr    error
	freeResp     []models.AvailabilityWindow
	freeErr      error
	ownResp      []models.OwnedWindow
	deleteErr    error
	createCalled bool
	lastProfID   string
	lastWindowID string
}

func (m *availabilityServiceMock) Create(ctx context.Context, actor *models.JWTClaims, req service.CreateWindowRequest) (*models.AvailabilityWindow, error) {
	m.createCalled = true
	return m.createResp, m.createErr
}

func (m *availabilityServiceMock) ListFree(ctx context.Context, actor *models.JWTClaims, professorID string) ([]models.AvailabilityWindow, error) {
	m.lastProfID = professorID
	return m.freeResp, m.freeErr
}

func (m *availabilityServiceMock) ListOwn(ctx context.Context, actor *models.JWTClaims) ([]models.OwnedWindow, error) {
	return m.ownResp, nil
}

func (m *availabilityServiceMock) Delete(ctx context.Context, actor *models.JWTClaims, windowID string) error {
	m.lastWindowID = windowID
	return m.deleteErr
}

func professorContext(w *httptest.ResponseRecorder) (*gin.Context, *models.JWTClaims) {
	c, _ := gin.CreateTestContext(w)
	claims := &models.JWTClaims{UserID: "prof-1", Role: models.RoleProfessor}
	c.Set(middleware.ContextUserKey, claims)
	return c, claims
}

func TestAvailabilityHandlerCreate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	start := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	mockSvc := &availabilityServiceMock{
		createResp: &models.AvailabilityWindow{ID: "w1", ProfessorID: "prof-1", StartTime: start, EndTime: start.Add(time.Hour)},
	}
	handler := NewAvailabilityHandler(mockSvc)

	payload, _ := json.Marshal(service.CreateWindowRequest{StartTime: start, EndTime: start.Add(time.Hour)})
	w := httptest.NewRecorder()
	c, _ := professorContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/availability", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Create(c)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, mockSvc.createCalled)
}

func TestAvailabilityHandlerCreateInvalidBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewAvailabilityHandler(&availabilityServiceMock{})

	w := httptest.NewRecorder()
	c, _ := professorContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/availability", bytes.NewBufferString(`{"start_time":`))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Create(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAvailabilityHandlerCreateOverlap(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &availabilityServiceMock{createErr: appErrors.ErrOverlapConflict}
	handler := NewAvailabilityHandler(mockSvc)

	start := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	payload, _ := json.Marshal(service.CreateWindowRequest{StartTime: start, EndTime: start.Add(time.Hour)})
	w := httptest.NewRecorder()
	c, _ := professorContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/availability", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Create(c)
	require.Equal(t, http.StatusConflict, w.Code)

	var envelope struct {
		Error *appErrors.Error `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.NotNil(t, envelope.Error)
	assert.Equal(t, appErrors.ErrOverlapConflict.Code, envelope.Error.Code)
}

func TestAvailabilityHandlerListByProfessor(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &availabilityServiceMock{freeResp: []models.AvailabilityWindow{{ID: "w1"}, {ID: "w2"}}}
	handler := NewAvailabilityHandler(mockSvc)

	w := httptest.NewRecorder()
	c, _ := professorContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/availability/professor/prof-9", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "professorId", Value: "prof-9"}}

	handler.ListByProfessor(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "prof-9", mockSvc.lastProfID)

	var envelope struct {
		Meta map[string]interface{} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.EqualValues(t, 2, envelope.Meta["count"])
}

func TestAvailabilityHandlerDelete(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &availabilityServiceMock{}
	handler := NewAvailabilityHandler(mockSvc)

	w := httptest.NewRecorder()
	c, _ := professorContext(w)
	req, _ := http.NewRequest(http.MethodDelete, "/availability/w1", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "w1"}}

	handler.Delete(c)
	c.Writer.WriteHeaderNow()
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "w1", mockSvc.lastWindowID)
}

func TestAvailabilityHandlerDeleteBooked(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewAvailabilityHandler(&availabilityServiceMock{deleteErr: appErrors.ErrWindowBooked})

	w := httptest.NewRecorder()
	c, _ := professorContext(w)
	req, _ := http.NewRequest(http.MethodDelete, "/availability/w1", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "w1"}}

	handler.Delete(c)
	require.Equal(t, http.StatusConflict, w.Code)
}
