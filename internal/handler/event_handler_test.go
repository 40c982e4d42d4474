package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opencenters/catalog-api/internal/middleware"
	"github.com/opencenters/catalog-api/internal/models"
	"github.com/opencenters/catalog-api/internal/service"
	appErrors "github.com/opencenters/catalog-api/pkg/errors"
)

type eventServiceStub struct {
	getFn  func(ctx context.Context, id int) (*models.FullEvent, error)
	saveFn func(ctx context.Context, req models.EventUpdateRequest, claims *models.JWTClaims) (*models.FullEvent, error)
}

func (s *eventServiceStub) Get(ctx context.Context, id int) (*models.FullEvent, error) {
	return s.getFn(ctx, id)
}

func (s *eventServiceStub) Save(ctx context.Context, req models.EventUpdateRequest, claims *models.JWTClaims) (*models.FullEvent, error) {
	return s.saveFn(ctx, req, claims)
}

type queryServiceStub struct {
	queryFn func(ctx context.Context, req service.QueryRequest) (*models.QueryResult, error)
}

func (s *queryServiceStub) Query(ctx context.Context, req service.QueryRequest) (*models.QueryResult, error) {
	return s.queryFn(ctx, req)
}

func setupEventRouter(events eventService, query queryService, claims *models.JWTClaims) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	if claims != nil {
		r.Use(func(c *gin.Context) { c.Set(middleware.ContextUserKey, claims) })
	}
	h := NewEventHandler(events, query)
	r.GET("/api/v1/events", h.List)
	r.GET("/api/v1/events/:id", h.Get)
	r.POST("/api/v1/events", h.Save)
	return r
}

func TestEventHandlerListPassesQueryParams(t *testing.T) {
	var captured service.QueryRequest
	query := &queryServiceStub{queryFn: func(_ context.Context, req service.QueryRequest) (*models.QueryResult, error) {
		captured = req
		return &models.QueryResult{TotalCount: 0, Events: []models.EventListEntry{}}, nil
	}}
	router := setupEventRouter(nil, query, nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/api/v1/events?start=2024-05-01&center=x&country=US&skip=5&count=10", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2024-05-01", captured.Start)
	assert.Equal(t, "x", captured.Center)
	assert.Equal(t, "US", captured.Country)
	assert.Equal(t, 5, captured.Skip)
	assert.Equal(t, 10, captured.Count)

	var envelope struct {
		Data models.QueryResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, 0, envelope.Data.TotalCount)
}

func TestEventHandlerGet(t *testing.T) {
	events := &eventServiceStub{getFn: func(_ context.Context, id int) (*models.FullEvent, error) {
		if id != 7 {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "unknown event")
		}
		ev := &models.FullEvent{}
		ev.ID = 7
		ev.Title = "T"
		ev.Center = "x"
		return ev, nil
	}}
	router := setupEventRouter(events, nil, nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/api/v1/events/7", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"title":"T"`)

	w = httptest.NewRecorder()
	req, _ = http.NewRequest(http.MethodGet, "/api/v1/events/99", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	req, _ = http.NewRequest(http.MethodGet, "/api/v1/events/abc", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEventHandlerSaveRequiresClaims(t *testing.T) {
	router := setupEventRouter(&eventServiceStub{}, nil, nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/api/v1/events", strings.NewReader(`{"title":"T"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestEventHandlerSaveCreateAndUpdateStatus(t *testing.T) {
	var captured models.EventUpdateRequest
	events := &eventServiceStub{saveFn: func(_ context.Context, req models.EventUpdateRequest, _ *models.JWTClaims) (*models.FullEvent, error) {
		captured = req
		ev := &models.FullEvent{}
		ev.ID = 1
		return ev, nil
	}}
	claims := &models.JWTClaims{UserID: "u1"}
	router := setupEventRouter(events, nil, claims)

	// No id means create: 201 and the delta keeps only string fields.
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/api/v1/events",
		strings.NewReader(`{"center":"x","title":"T","startDate":"2024-05-01","bogus":42}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, 0, captured.ID)
	assert.Equal(t, map[string]string{"center": "x", "title": "T", "startDate": "2024-05-01"}, captured.Fields)

	// A numeric id means update: 200.
	w = httptest.NewRecorder()
	req, _ = http.NewRequest(http.MethodPost, "/api/v1/events", strings.NewReader(`{"id":1,"title":"New"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, captured.ID)

	// A stringly-typed id is accepted too.
	w = httptest.NewRecorder()
	req, _ = http.NewRequest(http.MethodPost, "/api/v1/events", strings.NewReader(`{"id":"1","title":"New"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, captured.ID)
	assert.NotContains(t, captured.Fields, "id")
}

func TestEventHandlerSaveBadJSON(t *testing.T) {
	claims := &models.JWTClaims{UserID: "u1"}
	router := setupEventRouter(&eventServiceStub{}, nil, claims)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/api/v1/events", strings.NewReader(`{notjson`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
