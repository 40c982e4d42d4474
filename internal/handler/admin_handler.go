package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	appErrors "github.com/opencenters/catalog-api/pkg/errors"
	"github.com/opencenters/catalog-api/pkg/response"
)

type storePuller interface {
	Pull(ctx context.Context) (bool, error)
}

// AdminHandler exposes operational endpoints.
type AdminHandler struct {
	puller storePuller
}

// NewAdminHandler constructs the handler. puller may be nil when the
// store has no remote.
func NewAdminHandler(puller storePuller) *AdminHandler {
	return &AdminHandler{puller: puller}
}

// Pull godoc
// @Summary Pull new history into the document store
// @Tags Admin
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/pull [post]
func (h *AdminHandler) Pull(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil || !claims.Admin {
		response.Error(c, appErrors.ErrForbidden)
		return
	}
	if h.puller == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "store has no remote"))
		return
	}
	changed, err := h.puller.Pull(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"pulled": changed})
}
