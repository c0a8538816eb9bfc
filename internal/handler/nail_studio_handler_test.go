package handler

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gyh/gyh-api/internal/dto"
	"github.com/gyh/gyh-api/internal/models"
	appErrors "github.com/gyh/gyh-api/pkg/errors"
)

type studioServiceMock struct {
	lastQuery  dto.NailStudioListQuery
	lastID     string
	lastCreate dto.CreateNailStudioRequest
	lastUpdate dto.UpdateNailStudioRequest
	listResp   *dto.NailStudioListResult
	getResp    *dto.NailStudioDetail
	statsResp  *models.NailStudioStats
	err        error
}

func (m *studioServiceMock) List(ctx context.Context, query dto.NailStudioListQuery) (*dto.NailStudioListResult, error) {
	m.lastQuery = query
	if m.err != nil {
		return nil, m.err
	}
	return m.listResp, nil
}

func (m *studioServiceMock) Get(ctx context.Context, id string) (*dto.NailStudioDetail, error) {
	m.lastID = id
	if m.err != nil {
		return nil, m.err
	}
	return m.getResp, nil
}

func (m *studioServiceMock) Create(ctx context.Context, req dto.CreateNailStudioRequest) (*models.NailStudioView, error) {
	m.lastCreate = req
	if m.err != nil {
		return nil, m.err
	}
	studio := req.ToModel()
	studio.ID = "ns_20250106100000_abcdef"
	return &models.NailStudioView{NailStudio: *studio}, nil
}

func (m *studioServiceMock) Update(ctx context.Context, id string, req dto.UpdateNailStudioRequest) (*models.NailStudioView, error) {
	m.lastID = id
	m.lastUpdate = req
	if m.err != nil {
		return nil, m.err
	}
	studio := models.NailStudio{ID: id, Name: "Glow"}
	if err := req.ApplyTo(&studio); err != nil {
		return nil, err
	}
	return &models.NailStudioView{NailStudio: studio}, nil
}

func (m *studioServiceMock) UpdateSurveyStatus(ctx context.Context, id string, req dto.UpdateSurveyStatusRequest) (*dto.SurveyStatusResult, error) {
	m.lastID = id
	if m.err != nil {
		return nil, m.err
	}
	return &dto.SurveyStatusResult{ID: id, Nama: "Glow", SurveyStatus: bool(*req.SurveyStatus)}, nil
}

func (m *studioServiceMock) Delete(ctx context.Context, id string) (string, error) {
	m.lastID = id
	if m.err != nil {
		return "", m.err
	}
	return "Glow", nil
}

func (m *studioServiceMock) Stats(ctx context.Context) (*models.NailStudioStats, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.statsResp, nil
}

type failingPinger struct{}

func (failingPinger) PingContext(context.Context) error {
	return errors.New("dial tcp 10.0.0.5:5432: i/o timeout")
}

type exporterMock struct {
	lastQuery dto.NailStudioExportQuery
	err       error
}

func (m *exporterMock) ExportStudios(ctx context.Context, query dto.NailStudioExportQuery) (*dto.ExportFile, error) {
	m.lastQuery = query
	if m.err != nil {
		return nil, m.err
	}
	return &dto.ExportFile{Filename: "nail-studios-20250106.csv", ContentType: "text/csv; charset=utf-8", Content: []byte("ID,Nama\n"), Rows: 0}, nil
}

func newStudioRouter(mock *studioServiceMock) *gin.Engine {
	return newStudioRouterWithExporter(mock, &exporterMock{})
}

func newStudioRouterWithExporter(mock *studioServiceMock, exporter *exporterMock) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	RegisterRoutes(router, "/api", NewMetricsHandler(nil, nil, nil), NewJakeHandler(nil), NewNailStudioHandler(mock), NewExportHandler(exporter))
	return router
}

func jsonRequest(method, path, body string) *http.Request {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestNailStudioHandlerList(t *testing.T) {
	mock := &studioServiceMock{listResp: &dto.NailStudioListResult{
		Data:       []models.NailStudioView{{NailStudio: models.NailStudio{ID: "ns_1", Name: "Glow"}}},
		Pagination: models.NewPagination(1, 20, 1),
		Filters:    dto.NailStudioFilters{DesaOptions: []string{"Dukuh"}},
	}}
	router := newStudioRouter(mock)

	w, body := serve(router, httptest.NewRequest(http.MethodGet, "/api/nail-studios?page=abc&per_page=5&rating_min=4.5&survey_status=TRUE&open_today=false&sort_by=rating&search=%20glow%20", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, dto.NailStudioListQuery{
		Page:         0,
		PerPage:      5,
		Search:       "glow",
		SurveyStatus: "TRUE",
		RatingMin:    4.5,
		SortBy:       "rating",
		OpenToday:    "false",
	}, mock.lastQuery)
	assert.Equal(t, "Found 1 nail studios", body["message"])
	assert.Len(t, body["data"], 1)
	assert.Contains(t, body, "pagination")
	filters := body["filters"].(map[string]interface{})
	assert.Equal(t, []interface{}{"Dukuh"}, filters["desa_options"])
}

func TestNailStudioHandlerStatsRouteIsNotAnID(t *testing.T) {
	mock := &studioServiceMock{statsResp: &models.NailStudioStats{TotalStudios: 2, DesaDistribution: []models.DesaCount{}}}
	router := newStudioRouter(mock)

	w, body := serve(router, httptest.NewRequest(http.MethodGet, "/api/nail-studios/stats", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, mock.lastID)
	assert.Equal(t, "Statistics retrieved successfully", body["message"])
	stats := body["stats"].(map[string]interface{})
	assert.EqualValues(t, 2, stats["total_studios"])
	assert.Equal(t, []interface{}{}, stats["desa_distribution"])
}

func TestNailStudioHandlerGet(t *testing.T) {
	studio := models.NailStudio{ID: "ns_1", Name: "Glow"}
	studio.OperatingHours.Days[models.Monday] = models.OpenDay("09:00", "18:00")
	mock := &studioServiceMock{getResp: &dto.NailStudioDetail{Data: studio.ViewAt(mondayNoon()), Schedule: studio.OperatingHours.View()}}
	router := newStudioRouter(mock)

	w, body := serve(router, httptest.NewRequest(http.MethodGet, "/api/nail-studios/ns_1", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ns_1", mock.lastID)
	assert.Equal(t, "Nail studio Glow retrieved successfully", body["message"])
	data := body["data"].(map[string]interface{})
	assert.Equal(t, true, data["isOpenToday"])
	assert.Equal(t, map[string]interface{}{"isOpen": true, "openTime": "09:00", "closeTime": "18:00"}, data["todayHours"])
	schedule := body["schedule"].(map[string]interface{})
	assert.Equal(t, "09:00 - 18:00", schedule["Senin"])
	assert.Equal(t, "Tutup", schedule["Minggu"])

	mock.err = appErrors.Clone(appErrors.ErrNotFound, "Nail studio not found")
	w, body = serve(router, httptest.NewRequest(http.MethodGet, "/api/nail-studios/ns_missing", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Nail studio not found", body["message"])
}

func TestNailStudioHandlerCreate(t *testing.T) {
	mock := &studioServiceMock{}
	router := newStudioRouter(mock)

	w, body := serve(router, jsonRequest(http.MethodPost, "/api/nail-studios", `{"nama":"Glow","rating":"4.5","totalReviews":"12"}`))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "Nail studio Glow created successfully", body["message"])
	data := body["data"].(map[string]interface{})
	assert.Equal(t, "ns_20250106100000_abcdef", data["id"])
	assert.Equal(t, 4.5, data["rating"])
	assert.EqualValues(t, 12, data["totalReviews"])

	w, body = serve(router, jsonRequest(http.MethodPost, "/api/nail-studios", `{"nama":"Glow","totalReviews":"many"}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, body["message"], "Invalid data format")

	w, body = serve(router, jsonRequest(http.MethodPost, "/api/nail-studios", ``))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Request body is required", body["message"])
}

func TestNailStudioHandlerUpdate(t *testing.T) {
	mock := &studioServiceMock{}
	router := newStudioRouter(mock)

	w, body := serve(router, jsonRequest(http.MethodPut, "/api/nail-studios/ns_1", `{"rating":4.5,"alamat":null}`))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ns_1", mock.lastID)
	assert.True(t, mock.lastUpdate.Rating.Set)
	assert.True(t, mock.lastUpdate.Alamat.Null)
	assert.False(t, mock.lastUpdate.Nama.Set)
	assert.Equal(t, "Nail studio Glow updated successfully", body["message"])

	mock.err = appErrors.Clone(appErrors.ErrNotFound, "Nail studio not found")
	w, _ = serve(router, jsonRequest(http.MethodPut, "/api/nail-studios/ns_missing", `{"rating":1}`))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestNailStudioHandlerSurveyStatusAndDelete(t *testing.T) {
	mock := &studioServiceMock{}
	router := newStudioRouter(mock)

	w, body := serve(router, jsonRequest(http.MethodPatch, "/api/nail-studios/ns_1/survey-status", `{"surveyStatus":true}`))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Survey status updated to true", body["message"])
	assert.Equal(t, map[string]interface{}{"id": "ns_1", "nama": "Glow", "surveyStatus": true}, body["data"])

	w, body = serve(router, httptest.NewRequest(http.MethodDelete, "/api/nail-studios/ns_1", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Nail studio Glow deleted successfully", body["message"])
	assert.Equal(t, true, body["success"])
}

func TestNailStudioHandlerHidesInternalErrors(t *testing.T) {
	mock := &studioServiceMock{err: appErrors.Internal(errors.New("pq: relation \"nail_studios\" does not exist"), "failed to list nail studios")}
	router := newStudioRouter(mock)

	w, body := serve(router, httptest.NewRequest(http.MethodGet, "/api/nail-studios", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "failed to list nail studios", body["message"])
	assert.NotContains(t, w.Body.String(), "relation")
}

func TestExportHandlerStudios(t *testing.T) {
	mock := &studioServiceMock{}
	exporter := &exporterMock{}
	router := newStudioRouterWithExporter(mock, exporter)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/nail-studios/export?format=csv&desa=Dukuh&open_today=true&page=3", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, mock.lastID)
	assert.Equal(t, "csv", exporter.lastQuery.Format)
	assert.Equal(t, "Dukuh", exporter.lastQuery.Desa)
	assert.Equal(t, "true", exporter.lastQuery.OpenToday)
	assert.Equal(t, `attachment; filename="nail-studios-20250106.csv"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Equal(t, "0", w.Header().Get("X-Export-Rows"))
	assert.Equal(t, "ID,Nama\n", w.Body.String())

	exporter.err = appErrors.Clone(appErrors.ErrValidation, "format must be csv, pdf or xlsx")
	w, body := serve(router, httptest.NewRequest(http.MethodGet, "/api/nail-studios/export?format=xlsx", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "format must be csv, pdf or xlsx", body["message"])
}

func mondayNoon() time.Time {
	return time.Date(2025, 1, 6, 12, 0, 0, 0, time.FixedZone("WIB", 7*3600))
}
