package models

import "time"

// NailStudio is a nail salon business record.
type NailStudio struct {
	ID             string         `db:"id" json:"id"`
	Name           string         `db:"nama" json:"nama" validate:"required,max=255"`
	Address        *string        `db:"alamat" json:"alamat"`
	Locality       *string        `db:"desa" json:"desa" validate:"omitempty,max=100"`
	Phone          *string        `db:"no_telp" json:"noTelp" validate:"omitempty,max=20"`
	Instagram      *string        `db:"instagram" json:"instagram" validate:"omitempty,max=100"`
	WhatsApp       *string        `db:"whatsapp" json:"whatsapp" validate:"omitempty,max=20"`
	Rating         float64        `db:"rating" json:"rating" validate:"gte=0"`
	TotalReviews   int            `db:"total_reviews" json:"totalReviews" validate:"gte=0"`
	Description    *string        `db:"description" json:"description"`
	PhotoURL       *string        `db:"photo_url" json:"photoUrl"`
	InstagramEmbed *string        `db:"instagram_embed" json:"instagramEmbed"`
	MapsEmbed      *string        `db:"maps_embed" json:"mapsEmbed"`
	Latitude       *float64       `db:"latitude" json:"latitude" validate:"omitempty,gte=-90,lte=90"`
	Longitude      *float64       `db:"longitude" json:"longitude" validate:"omitempty,gte=-180,lte=180"`
	OperatingHours WeeklySchedule `db:"operating_hours" json:"operatingHours"`
	SurveyStatus   bool           `db:"survey_status" json:"surveyStatus"`
	CreatedAt      time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time      `db:"updated_at" json:"updatedAt"`
}

// NailStudioView is a studio plus its status for the current day.
type NailStudioView struct {
	NailStudio
	IsOpenToday bool       `json:"isOpenToday"`
	TodayHours  TodayHours `json:"todayHours"`
}

// ViewAt evaluates the studio's schedule for now, which must be in the directory's zone.
func (s NailStudio) ViewAt(now time.Time) NailStudioView {
	today := s.OperatingHours.At(now)
	return NailStudioView{NailStudio: s, IsOpenToday: today.IsOpen, TodayHours: today}
}

// Sortable studio columns.
const (
	StudioSortName      = "nama"
	StudioSortRating    = "rating"
	StudioSortCreatedAt = "created_at"
)

// NailStudioFilter captures supported filters for listing studios.
type NailStudioFilter struct {
	Search       string
	Desa         string
	SurveyStatus *bool
	RatingMin    float64
	// OpenToday filters on the open flag of OpenDay in the stored schedule.
	OpenToday *bool
	OpenDay   Day
	Page      int
	PerPage   int
	SortBy    string
	SortOrder string
}

// DesaCount is the number of studios in one locality.
type DesaCount struct {
	Desa  string `db:"desa" json:"desa"`
	Count int    `db:"count" json:"count"`
}

// NailStudioAggregate holds the figures computed by the database.
type NailStudioAggregate struct {
	Total         int         `db:"total"`
	Surveyed      int         `db:"surveyed"`
	AverageRating float64     `db:"average_rating"`
	Distribution  []DesaCount `db:"-"`
}

// NailStudioStats summarises the directory.
type NailStudioStats struct {
	TotalStudios      int         `json:"total_studios"`
	SurveyedStudios   int         `json:"surveyed_studios"`
	UnsurveyedStudios int         `json:"unsurveyed_studios"`
	OpenToday         int         `json:"open_today"`
	AverageRating     float64     `json:"average_rating"`
	DesaDistribution  []DesaCount `json:"desa_distribution"`
}
