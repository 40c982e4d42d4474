package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/opencenters/catalog-api/internal/service"
	"github.com/opencenters/catalog-api/pkg/response"
)

type exportService interface {
	Render(ctx context.Context, req service.QueryRequest, format string) (*service.ExportResult, error)
}

// ExportHandler serves query results as CSV or PDF downloads.
type ExportHandler struct {
	exports exportService
}

// NewExportHandler constructs the handler.
func NewExportHandler(exports exportService) *ExportHandler {
	return &ExportHandler{exports: exports}
}

// Export godoc
// @Summary Export events as CSV or PDF
// @Tags Events
// @Produce octet-stream
// @Param format query string false "csv or pdf (default csv)"
// @Param start query string false "Window start (YYYY-MM-DD)"
// @Param stop query string false "Window stop (YYYY-MM-DD)"
// @Param center query string false "Center id"
// @Param country query string false "Country code"
// @Success 200 {file} binary
// @Router /events/export [get]
func (h *ExportHandler) Export(c *gin.Context) {
	req := service.QueryRequest{
		Start:   c.Query("start"),
		Stop:    c.Query("stop"),
		Center:  c.Query("center"),
		Country: c.Query("country"),
		Skip:    intQuery(c, "skip"),
		Count:   intQuery(c, "count"),
	}
	result, err := h.exports.Render(c.Request.Context(), req, c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+result.Filename+`"`)
	c.Data(http.StatusOK, result.ContentType, result.Data)
}
