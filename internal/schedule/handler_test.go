package schedule

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) CreateTemplate(ctx context.Context, req CreateTemplateRequest) (*Template, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Template), args.Error(1)
}

func (m *MockService) ListTemplates(ctx context.Context) ([]Template, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Template), args.Error(1)
}

func (m *MockService) GetTemplate(ctx context.Context, id uuid.UUID) (*Template, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Template), args.Error(1)
}

func setupRouter(svc Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	h := NewHandler(svc)
	router.POST("/admin/templates", h.CreateTemplate)
	router.GET("/templates", h.ListTemplates)
	router.GET("/templates/:templateID", h.GetTemplate)
	return router
}

func TestHandler_CreateTemplate(t *testing.T) {
	svc := new(MockService)
	router := setupRouter(svc)

	created := tpl("Spin", Tuesday, "06:30")
	svc.On("CreateTemplate", mock.Anything, mock.MatchedBy(func(req CreateTemplateRequest) bool {
		return req.DayOfWeek != nil && *req.DayOfWeek == Tuesday && req.Capacity == 20
	})).Return(&created, nil)

	body := `{"title":"Spin","day_of_week":"Tuesday","start_time":"06:30","eligibility":"mixed","capacity":20}`
	req := httptest.NewRequest(http.MethodPost, "/admin/templates", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Tuesday", resp["day_of_week"])
	assert.Equal(t, "06:30", resp["start_time"])
	svc.AssertExpectations(t)
}

func TestHandler_CreateTemplate_BadRequest(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"title":`},
		{"unknown weekday", `{"title":"x","day_of_week":"Someday","start_time":"06:30","eligibility":"mixed","capacity":1}`},
		{"zero capacity", `{"title":"x","day_of_week":"Monday","start_time":"06:30","eligibility":"mixed","capacity":0}`},
		{"bad time", `{"title":"x","day_of_week":"Monday","start_time":"6.30pm","eligibility":"mixed","capacity":3}`},
		{"bad eligibility", `{"title":"x","day_of_week":"Monday","start_time":"06:30","eligibility":"kids","capacity":3}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			router := setupRouter(svc)

			req := httptest.NewRequest(http.MethodPost, "/admin/templates", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			svc.AssertNotCalled(t, "CreateTemplate", mock.Anything, mock.Anything)
		})
	}
}

func TestHandler_CreateTemplate_ServiceErrors(t *testing.T) {
	body := `{"title":"x","day_of_week":"Monday","start_time":"06:30","eligibility":"mixed","capacity":3}`

	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"invalid", ErrInvalidTemplate, http.StatusBadRequest},
		{"storage", errors.New("db down"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			router := setupRouter(svc)
			svc.On("CreateTemplate", mock.Anything, mock.Anything).Return(nil, tt.err)

			req := httptest.NewRequest(http.MethodPost, "/admin/templates", bytes.NewBufferString(body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestHandler_ListTemplates(t *testing.T) {
	svc := new(MockService)
	router := setupRouter(svc)

	svc.On("ListTemplates", mock.Anything).Return([]Template{tpl("a", Monday, "08:00")}, nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/templates", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var resp []Template
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp, 1)
	assert.Equal(t, Monday, resp[0].DayOfWeek)
}

func TestHandler_GetTemplate(t *testing.T) {
	svc := new(MockService)
	router := setupRouter(svc)
	missing := uuid.New()

	svc.On("GetTemplate", mock.Anything, missing).Return(nil, ErrTemplateNotFound)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/templates/"+missing.String(), nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/templates/not-a-uuid", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
