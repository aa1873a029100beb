package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/participium/participium-api/internal/service"
	"github.com/participium/participium-api/pkg/response"
)

// ExportHandler serves report listings rendered as downloadable documents.
type ExportHandler struct {
	service *service.ExportService
}

// NewExportHandler creates a new handler.
func NewExportHandler(svc *service.ExportService) *ExportHandler {
	return &ExportHandler{service: svc}
}

// Export godoc
// @Summary Export reports
// @Description Render filtered reports as CSV or PDF
// @Tags Reports
// @Produce octet-stream
// @Param format query string true "Export format (csv or pdf)"
// @Param status query string false "Filter by status"
// @Param category_id query string false "Filter by category"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /reports/export [get]
func (h *ExportHandler) Export(c *gin.Context) {
	format := service.ExportFormat(c.DefaultQuery("format", "csv"))
	filter := parseReportFilter(c)

	result, err := h.service.Export(c.Request.Context(), filter, format)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	c.Data(http.StatusOK, result.ContentType, result.Data)
}
