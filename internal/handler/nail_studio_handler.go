package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/gyh/gyh-api/internal/dto"
	"github.com/gyh/gyh-api/internal/models"
	appErrors "github.com/gyh/gyh-api/pkg/errors"
	"github.com/gyh/gyh-api/pkg/response"
)

type nailStudioService interface {
	List(ctx context.Context, query dto.NailStudioListQuery) (*dto.NailStudioListResult, error)
	Get(ctx context.Context, id string) (*dto.NailStudioDetail, error)
	Create(ctx context.Context, req dto.CreateNailStudioRequest) (*models.NailStudioView, error)
	Update(ctx context.Context, id string, req dto.UpdateNailStudioRequest) (*models.NailStudioView, error)
	UpdateSurveyStatus(ctx context.Context, id string, req dto.UpdateSurveyStatusRequest) (*dto.SurveyStatusResult, error)
	Delete(ctx context.Context, id string) (string, error)
	Stats(ctx context.Context) (*models.NailStudioStats, error)
}

// NailStudioHandler serves the nail studio directory.
type NailStudioHandler struct {
	service nailStudioService
}

// NewNailStudioHandler constructs the handler.
func NewNailStudioHandler(service nailStudioService) *NailStudioHandler {
	return &NailStudioHandler{service: service}
}

// List godoc
// @Summary List nail studios
// @Tags NailStudios
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Page size, at most 100" default(20)
// @Param search query string false "Matches nama, alamat, desa or description"
// @Param desa query string false "Locality substring"
// @Param survey_status query string false "true or false"
// @Param rating_min query number false "Minimum rating"
// @Param open_today query string false "true or false"
// @Param sort_by query string false "nama, rating or created_at"
// @Param sort_order query string false "asc or desc"
// @Success 200 {object} dto.NailStudioListResult
// @Router /nail-studios [get]
func (h *NailStudioHandler) List(c *gin.Context) {
	query := listQuery(c)
	result, err := h.service.List(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Fields(c, http.StatusOK, fmt.Sprintf("Found %d nail studios", len(result.Data)), gin.H{
		"data":       result.Data,
		"pagination": result.Pagination,
		"filters":    result.Filters,
	})
}

// Stats godoc
// @Summary Nail studio statistics
// @Tags NailStudios
// @Produce json
// @Success 200 {object} models.NailStudioStats
// @Router /nail-studios/stats [get]
func (h *NailStudioHandler) Stats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Fields(c, http.StatusOK, "Statistics retrieved successfully", gin.H{"stats": stats})
}

// Get godoc
// @Summary Get a nail studio
// @Tags NailStudios
// @Produce json
// @Param id path string true "Studio ID"
// @Success 200 {object} dto.NailStudioDetail
// @Failure 404 {object} response.Envelope
// @Router /nail-studios/{id} [get]
func (h *NailStudioHandler) Get(c *gin.Context) {
	detail, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Fields(c, http.StatusOK, fmt.Sprintf("Nail studio %s retrieved successfully", detail.Data.Name), gin.H{
		"data":     detail.Data,
		"schedule": detail.Schedule,
	})
}

// Create godoc
// @Summary Create a nail studio
// @Tags NailStudios
// @Accept json
// @Produce json
// @Param payload body dto.CreateNailStudioRequest true "Studio"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /nail-studios [post]
func (h *NailStudioHandler) Create(c *gin.Context) {
	var req dto.CreateNailStudioRequest
	if err := bindJSON(c, &req); err != nil {
		response.Error(c, err)
		return
	}
	studio, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, fmt.Sprintf("Nail studio %s created successfully", studio.Name), studio)
}

// Update godoc
// @Summary Update a nail studio
// @Description Only the keys present in the body are changed. null clears optional fields.
// @Tags NailStudios
// @Accept json
// @Produce json
// @Param id path string true "Studio ID"
// @Param payload body dto.UpdateNailStudioRequest true "Fields to change"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /nail-studios/{id} [put]
func (h *NailStudioHandler) Update(c *gin.Context) {
	var req dto.UpdateNailStudioRequest
	if err := bindJSON(c, &req); err != nil {
		response.Error(c, err)
		return
	}
	studio, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, fmt.Sprintf("Nail studio %s updated successfully", studio.Name), studio)
}

// UpdateSurveyStatus godoc
// @Summary Set the survey flag of a nail studio
// @Tags NailStudios
// @Accept json
// @Produce json
// @Param id path string true "Studio ID"
// @Param payload body dto.UpdateSurveyStatusRequest true "Survey flag"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /nail-studios/{id}/survey-status [patch]
func (h *NailStudioHandler) UpdateSurveyStatus(c *gin.Context) {
	var req dto.UpdateSurveyStatusRequest
	if err := bindJSON(c, &req); err != nil {
		response.Error(c, err)
		return
	}
	result, err := h.service.UpdateSurveyStatus(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, fmt.Sprintf("Survey status updated to %t", result.SurveyStatus), result)
}

// Delete godoc
// @Summary Delete a nail studio
// @Tags NailStudios
// @Produce json
// @Param id path string true "Studio ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /nail-studios/{id} [delete]
func (h *NailStudioHandler) Delete(c *gin.Context) {
	name, err := h.service.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, fmt.Sprintf("Nail studio %s deleted successfully", name))
}

// bindJSON decodes the request body, reporting malformed input as a validation error.
func bindJSON(c *gin.Context, dst interface{}) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return appErrors.Clone(appErrors.ErrValidation, "Request body is required")
		}
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "Invalid data format: "+err.Error())
	}
	return nil
}

// listQuery reads the directory filters shared by the list and export endpoints.
func listQuery(c *gin.Context) dto.NailStudioListQuery {
	query := dto.NailStudioListQuery{
		Page:         queryInt(c, "page"),
		PerPage:      queryInt(c, "per_page"),
		Search:       strings.TrimSpace(c.Query("search")),
		Desa:         strings.TrimSpace(c.Query("desa")),
		SurveyStatus: strings.TrimSpace(c.Query("survey_status")),
		SortBy:       c.Query("sort_by"),
		SortOrder:    c.Query("sort_order"),
		OpenToday:    strings.TrimSpace(c.Query("open_today")),
	}
	if raw := strings.TrimSpace(c.Query("rating_min")); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			query.RatingMin = v
		}
	}
	return query
}

// queryInt returns 0 for a missing or unparsable value.
func queryInt(c *gin.Context, key string) int {
	v, err := strconv.Atoi(strings.TrimSpace(c.Query(key)))
	if err != nil {
		return 0
	}
	return v
}
