package repository

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/gyh/gyh-api/internal/models"
)

const nailStudioColumns = "id, nama, alamat, desa, no_telp, instagram, whatsapp, rating, total_reviews, description, photo_url, instagram_embed, maps_embed, latitude, longitude, operating_hours, survey_status, created_at, updated_at"

var nailStudioSorts = map[string]string{
	"nama":       models.StudioSortName,
	"name":       models.StudioSortName,
	"rating":     models.StudioSortRating,
	"created_at": models.StudioSortCreatedAt,
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// QueryObserver receives query timings.
type QueryObserver interface {
	ObserveDBQuery(label string, duration time.Duration)
}

// NailStudioRepository handles persistence for nail studios.
type NailStudioRepository struct {
	db       *sqlx.DB
	observer QueryObserver
}

// NewNailStudioRepository creates a new repository instance. observer may be nil.
func NewNailStudioRepository(db *sqlx.DB, observer QueryObserver) *NailStudioRepository {
	return &NailStudioRepository{db: db, observer: observer}
}

func (r *NailStudioRepository) observe(label string, start time.Time) {
	if r.observer != nil {
		r.observer.ObserveDBQuery(label, time.Since(start))
	}
}

// List returns studios matching filters together with the unpaginated total.
func (r *NailStudioRepository) List(ctx context.Context, filter models.NailStudioFilter) ([]models.NailStudio, int, error) {
	defer r.observe("nail_studios.list", time.Now())

	base := "FROM nail_studios WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.Search != "" {
		n := len(args) + 1
		conditions = append(conditions, fmt.Sprintf("(nama ILIKE $%d OR alamat ILIKE $%d OR desa ILIKE $%d OR description ILIKE $%d)", n, n, n, n))
		args = append(args, "%"+likeEscaper.Replace(filter.Search)+"%")
	}
	if filter.Desa != "" {
		conditions = append(conditions, fmt.Sprintf("desa ILIKE $%d", len(args)+1))
		args = append(args, "%"+likeEscaper.Replace(filter.Desa)+"%")
	}
	if filter.SurveyStatus != nil {
		conditions = append(conditions, fmt.Sprintf("survey_status = $%d", len(args)+1))
		args = append(args, *filter.SurveyStatus)
	}
	if filter.RatingMin > 0 {
		conditions = append(conditions, fmt.Sprintf("rating >= $%d", len(args)+1))
		args = append(args, filter.RatingMin)
	}
	if filter.OpenToday != nil {
		n := len(args) + 1
		conditions = append(conditions, fmt.Sprintf("COALESCE((operating_hours -> $%d::text ->> 'isOpen')::boolean, FALSE) = $%d", n, n+1))
		args = append(args, filter.OpenDay.Key(), *filter.OpenToday)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy, ok := nailStudioSorts[strings.ToLower(filter.SortBy)]
	if !ok {
		sortBy = models.StudioSortName
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PerPage
	if size <= 0 {
		size = 20
	}

	var studios []models.NailStudio
	// A page whose offset does not fit an int lies past any table, so only the count runs.
	if page-1 <= math.MaxInt/size {
		offset := (page - 1) * size
		query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s, id ASC LIMIT %d OFFSET %d", nailStudioColumns, base, sortBy, order, size, offset)
		if err := r.db.SelectContext(ctx, &studios, query, args...); err != nil {
			return nil, 0, fmt.Errorf("list nail studios: %w", err)
		}
	}

	var total int
	if err := r.db.GetContext(ctx, &total, fmt.Sprintf("SELECT COUNT(*) %s", base), args...); err != nil {
		return nil, 0, fmt.Errorf("count nail studios: %w", err)
	}
	return studios, total, nil
}

// DesaOptions returns the distinct non-empty localities in ascending order.
func (r *NailStudioRepository) DesaOptions(ctx context.Context) ([]string, error) {
	defer r.observe("nail_studios.desa_options", time.Now())
	const query = `SELECT DISTINCT desa FROM nail_studios WHERE desa IS NOT NULL AND desa <> '' ORDER BY desa`
	options := []string{}
	if err := r.db.SelectContext(ctx, &options, query); err != nil {
		return nil, fmt.Errorf("list desa options: %w", err)
	}
	return options, nil
}

// FindByID returns a studio by id. A missing row surfaces as sql.ErrNoRows.
func (r *NailStudioRepository) FindByID(ctx context.Context, id string) (*models.NailStudio, error) {
	defer r.observe("nail_studios.find", time.Now())
	query := fmt.Sprintf("SELECT %s FROM nail_studios WHERE id = $1", nailStudioColumns)
	var studio models.NailStudio
	if err := r.db.GetContext(ctx, &studio, query, id); err != nil {
		return nil, fmt.Errorf("find nail studio %s: %w", id, err)
	}
	return &studio, nil
}

// Create persists a new studio. The caller assigns id and timestamps.
func (r *NailStudioRepository) Create(ctx context.Context, studio *models.NailStudio) error {
	defer r.observe("nail_studios.create", time.Now())
	now := time.Now().UTC()
	if studio.CreatedAt.IsZero() {
		studio.CreatedAt = now
	}
	if studio.UpdatedAt.IsZero() {
		studio.UpdatedAt = studio.CreatedAt
	}

	const query = `INSERT INTO nail_studios (id, nama, alamat, desa, no_telp, instagram, whatsapp, rating, total_reviews, description, photo_url, instagram_embed, maps_embed, latitude, longitude, operating_hours, survey_status, created_at, updated_at)
VALUES (:id, :nama, :alamat, :desa, :no_telp, :instagram, :whatsapp, :rating, :total_reviews, :description, :photo_url, :instagram_embed, :maps_embed, :latitude, :longitude, :operating_hours, :survey_status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, studio); err != nil {
		return fmt.Errorf("create nail studio: %w", err)
	}
	return nil
}

// Update locks the row, lets apply mutate it and writes it back in one transaction.
// Any error from apply rolls the transaction back and is returned unchanged.
func (r *NailStudioRepository) Update(ctx context.Context, id string, apply func(*models.NailStudio) error) (studio *models.NailStudio, err error) {
	defer r.observe("nail_studios.update", time.Now())

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin nail studio update: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var current models.NailStudio
	selectQuery := fmt.Sprintf("SELECT %s FROM nail_studios WHERE id = $1 FOR UPDATE", nailStudioColumns)
	if err = tx.GetContext(ctx, &current, selectQuery, id); err != nil {
		return nil, fmt.Errorf("lock nail studio %s: %w", id, err)
	}

	if err = apply(&current); err != nil {
		return nil, err
	}

	const updateQuery = `UPDATE nail_studios SET nama = :nama, alamat = :alamat, desa = :desa, no_telp = :no_telp, instagram = :instagram, whatsapp = :whatsapp, rating = :rating, total_reviews = :total_reviews, description = :description, photo_url = :photo_url, instagram_embed = :instagram_embed, maps_embed = :maps_embed, latitude = :latitude, longitude = :longitude, operating_hours = :operating_hours, survey_status = :survey_status, updated_at = :updated_at WHERE id = :id`
	if _, err = tx.NamedExecContext(ctx, updateQuery, &current); err != nil {
		return nil, fmt.Errorf("update nail studio %s: %w", id, err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit nail studio update: %w", err)
	}
	return &current, nil
}

// Delete removes a studio and returns its name. A missing row surfaces as sql.ErrNoRows.
func (r *NailStudioRepository) Delete(ctx context.Context, id string) (string, error) {
	defer r.observe("nail_studios.delete", time.Now())
	var name string
	if err := r.db.GetContext(ctx, &name, `DELETE FROM nail_studios WHERE id = $1 RETURNING nama`, id); err != nil {
		return "", fmt.Errorf("delete nail studio %s: %w", id, err)
	}
	return name, nil
}

// Aggregate computes counts, the mean rating and the locality distribution.
func (r *NailStudioRepository) Aggregate(ctx context.Context) (*models.NailStudioAggregate, error) {
	defer r.observe("nail_studios.aggregate", time.Now())

	const totalsQuery = `SELECT COUNT(*) AS total, COUNT(*) FILTER (WHERE survey_status) AS surveyed, COALESCE(AVG(rating), 0) AS average_rating FROM nail_studios`
	var agg models.NailStudioAggregate
	if err := r.db.GetContext(ctx, &agg, totalsQuery); err != nil {
		return nil, fmt.Errorf("aggregate nail studios: %w", err)
	}

	const distributionQuery = `SELECT desa, COUNT(*) AS count FROM nail_studios WHERE desa IS NOT NULL AND desa <> '' GROUP BY desa ORDER BY desa`
	agg.Distribution = []models.DesaCount{}
	if err := r.db.SelectContext(ctx, &agg.Distribution, distributionQuery); err != nil {
		return nil, fmt.Errorf("desa distribution: %w", err)
	}
	return &agg, nil
}

// ListSchedules returns the operating hours of every studio.
func (r *NailStudioRepository) ListSchedules(ctx context.Context) ([]models.WeeklySchedule, error) {
	defer r.observe("nail_studios.schedules", time.Now())
	var schedules []models.WeeklySchedule
	if err := r.db.SelectContext(ctx, &schedules, `SELECT operating_hours FROM nail_studios`); err != nil {
		return nil, fmt.Errorf("list operating hours: %w", err)
	}
	return schedules, nil
}
