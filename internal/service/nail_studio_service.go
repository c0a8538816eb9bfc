package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gyh/gyh-api/internal/dto"
	"github.com/gyh/gyh-api/internal/models"
	"github.com/gyh/gyh-api/pkg/config"
	appErrors "github.com/gyh/gyh-api/pkg/errors"
	"github.com/gyh/gyh-api/pkg/jobs"
)

const (
	nailStudioCachePattern = "nail_studios:*"
	desaOptionsCacheKey    = "nail_studios:desa_options"
	statsCacheKeyPrefix    = "nail_studios:stats:"

	// WarmCacheJob is the job type that recomputes the cached directory aggregates.
	WarmCacheJob = "nail_studios.warm_cache"
)

type jobEnqueuer interface {
	Enqueue(job jobs.Job) error
}

type nailStudioRepository interface {
	List(ctx context.Context, filter models.NailStudioFilter) ([]models.NailStudio, int, error)
	DesaOptions(ctx context.Context) ([]string, error)
	FindByID(ctx context.Context, id string) (*models.NailStudio, error)
	Create(ctx context.Context, studio *models.NailStudio) error
	Update(ctx context.Context, id string, apply func(*models.NailStudio) error) (*models.NailStudio, error)
	Delete(ctx context.Context, id string) (string, error)
	Aggregate(ctx context.Context) (*models.NailStudioAggregate, error)
	ListSchedules(ctx context.Context) ([]models.WeeklySchedule, error)
}

// NailStudioService handles the nail studio directory.
type NailStudioService struct {
	repo       nailStudioRepository
	cache      *CacheService
	validator  *validator.Validate
	logger     *zap.Logger
	loc        *time.Location
	perPage    int
	maxPerPage int
	now        func() time.Time
	newID      func(time.Time) string
	warmer     jobEnqueuer
	// generation advances on every invalidation; a read that started in an older
	// generation does not write its result back.
	generation atomic.Uint64
}

// NewNailStudioService creates a new nail studio service. Open-today status is evaluated in loc.
func NewNailStudioService(repo nailStudioRepository, cache *CacheService, cfg config.StudiosConfig, loc *time.Location, validate *validator.Validate, logger *zap.Logger) *NailStudioService {
	if validate == nil {
		validate = newJSONValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}
	maxPerPage := cfg.MaxSearchResults
	if maxPerPage <= 0 {
		maxPerPage = 100
	}
	perPage := cfg.ItemsPerPage
	if perPage <= 0 || perPage > maxPerPage {
		perPage = min(20, maxPerPage)
	}
	return &NailStudioService{
		repo:       repo,
		cache:      cache,
		validator:  validate,
		logger:     logger,
		loc:        loc,
		perPage:    perPage,
		maxPerPage: maxPerPage,
		now:        time.Now,
		newID:      newStudioID,
	}
}

// SetCacheWarmer makes every mutation schedule a WarmCacheJob after invalidating the cache.
func (s *NailStudioService) SetCacheWarmer(warmer jobEnqueuer) {
	s.warmer = warmer
}

func newStudioID(now time.Time) string {
	return fmt.Sprintf("ns_%s_%s", now.Format("20060102150405"), strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
}

// newJSONValidator reports fields by their JSON names.
func newJSONValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})
	return v
}

func (s *NailStudioService) clock() time.Time {
	return s.now().In(s.loc)
}

// List returns one page of studios matching the query.
func (s *NailStudioService) List(ctx context.Context, query dto.NailStudioListQuery) (*dto.NailStudioListResult, error) {
	now := s.clock()

	page := query.Page
	if page < 1 {
		page = 1
	}
	perPage := query.PerPage
	switch {
	case perPage == 0:
		perPage = s.perPage
	case perPage < 1:
		perPage = 1
	case perPage > s.maxPerPage:
		perPage = s.maxPerPage
	}

	sortBy := strings.ToLower(strings.TrimSpace(query.SortBy))
	switch sortBy {
	case models.StudioSortRating, models.StudioSortCreatedAt:
	default:
		sortBy = models.StudioSortName
	}
	sortOrder := strings.ToLower(strings.TrimSpace(query.SortOrder))
	if sortOrder != "desc" {
		sortOrder = "asc"
	}

	surveyStatus, surveyEcho := parseTriState(query.SurveyStatus)
	openToday, openEcho := parseTriState(query.OpenToday)
	ratingMin := query.RatingMin
	if ratingMin < 0 || math.IsNaN(ratingMin) {
		ratingMin = 0
	}

	filter := models.NailStudioFilter{
		Search:       strings.TrimSpace(query.Search),
		Desa:         strings.TrimSpace(query.Desa),
		SurveyStatus: surveyStatus,
		RatingMin:    ratingMin,
		OpenToday:    openToday,
		OpenDay:      models.DayOf(now.Weekday()),
		Page:         page,
		PerPage:      perPage,
		SortBy:       sortBy,
		SortOrder:    sortOrder,
	}

	studios, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list nail studios")
	}
	options, err := s.desaOptions(ctx)
	if err != nil {
		return nil, err
	}

	views := make([]models.NailStudioView, 0, len(studios))
	for _, studio := range studios {
		views = append(views, studio.ViewAt(now))
	}

	return &dto.NailStudioListResult{
		Data:       views,
		Pagination: models.NewPagination(page, perPage, total),
		Filters: dto.NailStudioFilters{
			DesaOptions: options,
			AppliedFilters: dto.AppliedFilters{
				Search:       filter.Search,
				Desa:         filter.Desa,
				SurveyStatus: surveyEcho,
				RatingMin:    ratingMin,
				OpenToday:    openEcho,
				SortBy:       sortBy,
				SortOrder:    sortOrder,
			},
		},
	}, nil
}

// parseTriState accepts "true"/"false" in any case; anything else leaves the filter unset.
func parseTriState(raw string) (*bool, string) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true":
		v := true
		return &v, "true"
	case "false":
		v := false
		return &v, "false"
	default:
		return nil, ""
	}
}

func (s *NailStudioService) desaOptions(ctx context.Context) ([]string, error) {
	var options []string
	if s.cache.Get(ctx, desaOptionsCacheKey, &options) && options != nil {
		return options, nil
	}
	gen := s.generation.Load()
	options, err := s.repo.DesaOptions(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list desa options")
	}
	s.store(ctx, gen, desaOptionsCacheKey, options)
	return options, nil
}

// Get returns a studio with its readable week schedule.
func (s *NailStudioService) Get(ctx context.Context, id string) (*dto.NailStudioDetail, error) {
	studio, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.lookupError(err, "failed to load nail studio")
	}
	return &dto.NailStudioDetail{Data: studio.ViewAt(s.clock()), Schedule: studio.OperatingHours.View()}, nil
}

// Create validates and stores a new studio.
func (s *NailStudioService) Create(ctx context.Context, req dto.CreateNailStudioRequest) (*models.NailStudioView, error) {
	studio := req.ToModel()
	if err := s.validate(studio); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	studio.ID = s.newID(now.In(s.loc))
	studio.CreatedAt = now
	studio.UpdatedAt = now
	if err := s.repo.Create(ctx, studio); err != nil {
		return nil, appErrors.Internal(err, "failed to create nail studio")
	}
	s.invalidate(ctx)
	s.logger.Info("nail studio created", zap.String("id", studio.ID), zap.String("nama", studio.Name))

	view := studio.ViewAt(s.clock())
	return &view, nil
}

// Update applies a partial update inside one transaction.
func (s *NailStudioService) Update(ctx context.Context, id string, req dto.UpdateNailStudioRequest) (*models.NailStudioView, error) {
	studio, err := s.repo.Update(ctx, id, func(studio *models.NailStudio) error {
		if err := req.ApplyTo(studio); err != nil {
			return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "Invalid data format: "+joinLines(err))
		}
		if err := s.validate(studio); err != nil {
			return err
		}
		studio.UpdatedAt = s.now().UTC()
		return nil
	})
	if err != nil {
		return nil, s.lookupError(err, "failed to update nail studio")
	}
	s.invalidate(ctx)
	s.logger.Info("nail studio updated", zap.String("id", studio.ID))

	view := studio.ViewAt(s.clock())
	return &view, nil
}

// UpdateSurveyStatus sets the survey flag only.
func (s *NailStudioService) UpdateSurveyStatus(ctx context.Context, id string, req dto.UpdateSurveyStatusRequest) (*dto.SurveyStatusResult, error) {
	if req.SurveyStatus == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "surveyStatus is required")
	}
	status := bool(*req.SurveyStatus)
	studio, err := s.repo.Update(ctx, id, func(studio *models.NailStudio) error {
		studio.SurveyStatus = status
		studio.UpdatedAt = s.now().UTC()
		return nil
	})
	if err != nil {
		return nil, s.lookupError(err, "failed to update survey status")
	}
	s.invalidate(ctx)
	return &dto.SurveyStatusResult{ID: studio.ID, Nama: studio.Name, SurveyStatus: studio.SurveyStatus}, nil
}

// Delete removes a studio and returns its name.
func (s *NailStudioService) Delete(ctx context.Context, id string) (string, error) {
	name, err := s.repo.Delete(ctx, id)
	if err != nil {
		return "", s.lookupError(err, "failed to delete nail studio")
	}
	s.invalidate(ctx)
	s.logger.Info("nail studio deleted", zap.String("id", id))
	return name, nil
}

// Stats summarises the directory for the current day.
func (s *NailStudioService) Stats(ctx context.Context) (*models.NailStudioStats, error) {
	today := models.DayOf(s.clock().Weekday())

	var cached models.NailStudioStats
	if s.cache.Get(ctx, statsCacheKeyPrefix+today.Key(), &cached) {
		return &cached, nil
	}
	return s.refreshStats(ctx, today, s.generation.Load())
}

// WarmCache recomputes the cached desa options and today's statistics. It runs as a WarmCacheJob.
func (s *NailStudioService) WarmCache(ctx context.Context, job jobs.Job) error {
	if !s.cache.Enabled() {
		return nil
	}
	gen := s.generation.Load()
	options, err := s.repo.DesaOptions(ctx)
	if err != nil {
		return fmt.Errorf("warm desa options: %w", err)
	}
	s.store(ctx, gen, desaOptionsCacheKey, options)

	if _, err := s.refreshStats(ctx, models.DayOf(s.clock().Weekday()), gen); err != nil {
		return fmt.Errorf("warm stats: %w", err)
	}
	s.logger.Debug("nail studio cache warmed", zap.Int("attempt", job.Attempt))
	return nil
}

func (s *NailStudioService) refreshStats(ctx context.Context, today models.Day, gen uint64) (*models.NailStudioStats, error) {
	agg, err := s.repo.Aggregate(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to compute statistics")
	}
	schedules, err := s.repo.ListSchedules(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to compute statistics")
	}

	openToday := 0
	for _, schedule := range schedules {
		if schedule.On(today).IsOpen {
			openToday++
		}
	}
	distribution := agg.Distribution
	if distribution == nil {
		distribution = []models.DesaCount{}
	}

	stats := &models.NailStudioStats{
		TotalStudios:      agg.Total,
		SurveyedStudios:   agg.Surveyed,
		UnsurveyedStudios: agg.Total - agg.Surveyed,
		OpenToday:         openToday,
		AverageRating:     math.Round(agg.AverageRating*100) / 100,
		DesaDistribution:  distribution,
	}
	s.store(ctx, gen, statsCacheKeyPrefix+today.Key(), stats)
	return stats, nil
}

// store caches value unless an invalidation happened since gen was read.
func (s *NailStudioService) store(ctx context.Context, gen uint64, key string, value interface{}) {
	if s.generation.Load() != gen {
		s.logger.Debug("skipping stale cache write", zap.String("key", key))
		return
	}
	s.cache.Set(ctx, key, value, 0)
}

func (s *NailStudioService) validate(studio *models.NailStudio) error {
	if err := s.validator.Struct(studio); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, validationMessage(err))
	}
	if err := studio.OperatingHours.Validate(); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}
	return nil
}

func (s *NailStudioService) invalidate(ctx context.Context) {
	s.generation.Add(1)
	s.cache.Invalidate(ctx, nailStudioCachePattern)
	if s.warmer == nil || !s.cache.Enabled() {
		return
	}
	if err := s.warmer.Enqueue(jobs.Job{Key: WarmCacheJob, Type: WarmCacheJob}); err != nil {
		s.logger.Warn("failed to schedule cache warm-up", zap.Error(err))
	}
}

func (s *NailStudioService) lookupError(err error, message string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, "Nail studio not found")
	}
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return appErrors.Internal(err, message)
}

func validationMessage(err error) string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err.Error()
	}
	messages := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		switch fe.Tag() {
		case "required":
			messages = append(messages, fe.Field()+" is required")
		case "gte":
			messages = append(messages, fmt.Sprintf("%s must be greater than or equal to %s", fe.Field(), fe.Param()))
		case "lte":
			messages = append(messages, fmt.Sprintf("%s must be less than or equal to %s", fe.Field(), fe.Param()))
		case "max":
			messages = append(messages, fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param()))
		default:
			messages = append(messages, fe.Field()+" is invalid")
		}
	}
	return strings.Join(messages, "; ")
}

func joinLines(err error) string {
	return strings.ReplaceAll(err.Error(), "\n", "; ")
}
