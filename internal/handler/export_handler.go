package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/gyh/gyh-api/internal/dto"
	"github.com/gyh/gyh-api/pkg/response"
)

type studioExporter interface {
	ExportStudios(ctx context.Context, query dto.NailStudioExportQuery) (*dto.ExportFile, error)
}

// ExportHandler serves downloadable directory exports.
type ExportHandler struct {
	exporter studioExporter
}

// NewExportHandler constructs the handler.
func NewExportHandler(exporter studioExporter) *ExportHandler {
	return &ExportHandler{exporter: exporter}
}

// Studios godoc
// @Summary Export the nail studio directory
// @Description Accepts the list filters. Paging parameters are ignored; the row count is capped.
// @Tags NailStudios
// @Produce text/csv
// @Produce application/pdf
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param format query string false "csv, pdf or xlsx" default(csv)
// @Param search query string false "Matches nama, alamat, desa or description"
// @Param desa query string false "Locality substring"
// @Param survey_status query string false "true or false"
// @Param rating_min query number false "Minimum rating"
// @Param open_today query string false "true or false"
// @Param sort_by query string false "nama, rating or created_at"
// @Param sort_order query string false "asc or desc"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /nail-studios/export [get]
func (h *ExportHandler) Studios(c *gin.Context) {
	query := dto.NailStudioExportQuery{NailStudioListQuery: listQuery(c), Format: c.Query("format")}
	file, err := h.exporter.ExportStudios(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", file.Filename))
	c.Header("Cache-Control", "no-store")
	c.Header("X-Export-Rows", strconv.Itoa(file.Rows))
	c.Header("X-Export-Truncated", strconv.FormatBool(file.Truncated))
	c.Data(http.StatusOK, file.ContentType, file.Content)
}
