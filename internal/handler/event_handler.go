package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/opencenters/catalog-api/internal/models"
	"github.com/opencenters/catalog-api/internal/service"
	appErrors "github.com/opencenters/catalog-api/pkg/errors"
	"github.com/opencenters/catalog-api/pkg/response"
)

type eventService interface {
	Get(ctx context.Context, id int) (*models.FullEvent, error)
	Save(ctx context.Context, req models.EventUpdateRequest, claims *models.JWTClaims) (*models.FullEvent, error)
}

type queryService interface {
	Query(ctx context.Context, req service.QueryRequest) (*models.QueryResult, error)
}

// EventHandler exposes the event read, query, and mutation endpoints.
type EventHandler struct {
	events eventService
	query  queryService
}

// NewEventHandler constructs the handler.
func NewEventHandler(events eventService, query queryService) *EventHandler {
	return &EventHandler{events: events, query: query}
}

// List godoc
// @Summary Query events
// @Tags Events
// @Produce json
// @Param start query string false "Window start (YYYY-MM-DD)"
// @Param stop query string false "Window stop (YYYY-MM-DD)"
// @Param center query string false "Center id"
// @Param country query string false "Country code"
// @Param skip query int false "Offset"
// @Param count query int false "Page size (max 100)"
// @Success 200 {object} response.Envelope
// @Router /events [get]
func (h *EventHandler) List(c *gin.Context) {
	req := service.QueryRequest{
		Start:   c.Query("start"),
		Stop:    c.Query("stop"),
		Center:  c.Query("center"),
		Country: c.Query("country"),
		Skip:    intQuery(c, "skip"),
		Count:   intQuery(c, "count"),
	}
	result, err := h.query.Query(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// Get godoc
// @Summary Get one event
// @Tags Events
// @Produce json
// @Param id path int true "Event id"
// @Success 200 {object} response.Envelope
// @Router /events/{id} [get]
func (h *EventHandler) Get(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid event id"))
		return
	}
	ev, err := h.events.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, ev)
}

// Save godoc
// @Summary Create or update an event
// @Tags Events
// @Accept json
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /events [post]
func (h *EventHandler) Save(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var payload map[string]interface{}
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid JSON payload"))
		return
	}
	req := buildUpdateRequest(payload)

	created := req.ID <= 0
	ev, err := h.events.Save(c.Request.Context(), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	if created {
		response.Created(c, ev)
		return
	}
	response.JSON(c, http.StatusOK, ev)
}

// buildUpdateRequest splits the raw payload into the optional numeric
// id and the string delta. Non-string values other than id are dropped,
// matching the whitelist's silent-ignore rule.
func buildUpdateRequest(payload map[string]interface{}) models.EventUpdateRequest {
	req := models.EventUpdateRequest{Fields: make(map[string]string, len(payload))}
	for key, value := range payload {
		if key == "id" {
			switch v := value.(type) {
			case float64:
				req.ID = int(v)
			case string:
				if n, err := strconv.Atoi(v); err == nil {
					req.ID = n
				}
			}
			continue
		}
		if s, ok := value.(string); ok {
			req.Fields[key] = s
		}
	}
	return req
}

func intQuery(c *gin.Context, key string) int {
	raw := c.Query(key)
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return n
}
