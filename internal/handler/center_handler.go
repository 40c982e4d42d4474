package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/opencenters/catalog-api/internal/models"
	appErrors "github.com/opencenters/catalog-api/pkg/errors"
	"github.com/opencenters/catalog-api/pkg/response"
)

type centerService interface {
	Get(ctx context.Context, id string) (*models.CenterView, error)
	List(ctx context.Context) ([]models.CenterView, error)
	Update(ctx context.Context, id string, delta map[string]string, claims *models.JWTClaims) (*models.CenterView, error)
}

// CenterHandler exposes the center directory endpoints.
type CenterHandler struct {
	centers centerService
}

// NewCenterHandler constructs the handler.
func NewCenterHandler(centers centerService) *CenterHandler {
	return &CenterHandler{centers: centers}
}

// List godoc
// @Summary List all centers
// @Tags Centers
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /centers [get]
func (h *CenterHandler) List(c *gin.Context) {
	centers, err := h.centers.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, centers)
}

// Get godoc
// @Summary Get one center
// @Tags Centers
// @Produce json
// @Param id path string true "Center id"
// @Success 200 {object} response.Envelope
// @Router /centers/{id} [get]
func (h *CenterHandler) Get(c *gin.Context) {
	center, err := h.centers.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, center)
}

// Update godoc
// @Summary Partially update a center
// @Tags Centers
// @Accept json
// @Produce json
// @Param id path string true "Center id"
// @Success 200 {object} response.Envelope
// @Router /centers/{id} [post]
func (h *CenterHandler) Update(c *gin.Context) {
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
	delta := make(map[string]string, len(payload))
	for key, value := range payload {
		if s, ok := value.(string); ok {
			delta[key] = s
		}
	}

	center, err := h.centers.Update(c.Request.Context(), c.Param("id"), delta, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, center)
}
