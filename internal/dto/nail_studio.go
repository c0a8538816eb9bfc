package dto

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gyh/gyh-api/internal/models"
)

// CreateNailStudioRequest is the body accepted when registering a studio.
type CreateNailStudioRequest struct {
	Nama           string                 `json:"nama"`
	Alamat         *string                `json:"alamat"`
	Desa           *string                `json:"desa"`
	NoTelp         *string                `json:"noTelp"`
	Instagram      *string                `json:"instagram"`
	Whatsapp       *string                `json:"whatsapp"`
	Rating         *FlexFloat             `json:"rating"`
	TotalReviews   *FlexInt               `json:"totalReviews"`
	Description    *string                `json:"description"`
	PhotoURL       *string                `json:"photoUrl"`
	InstagramEmbed *string                `json:"instagramEmbed"`
	MapsEmbed      *string                `json:"mapsEmbed"`
	Latitude       *FlexFloat             `json:"latitude"`
	Longitude      *FlexFloat             `json:"longitude"`
	OperatingHours *models.WeeklySchedule `json:"operatingHours"`
	SurveyStatus   *FlexBool              `json:"surveyStatus"`
}

// ToModel builds an unsaved studio; missing numeric fields default to zero.
func (r CreateNailStudioRequest) ToModel() *models.NailStudio {
	studio := &models.NailStudio{
		Name:           strings.TrimSpace(r.Nama),
		Address:        r.Alamat,
		Locality:       r.Desa,
		Phone:          r.NoTelp,
		Instagram:      r.Instagram,
		WhatsApp:       r.Whatsapp,
		Description:    r.Description,
		PhotoURL:       r.PhotoURL,
		InstagramEmbed: r.InstagramEmbed,
		MapsEmbed:      r.MapsEmbed,
		Latitude:       floatPtr(r.Latitude),
		Longitude:      floatPtr(r.Longitude),
	}
	if r.Rating != nil {
		studio.Rating = float64(*r.Rating)
	}
	if r.TotalReviews != nil {
		studio.TotalReviews = int(*r.TotalReviews)
	}
	if r.OperatingHours != nil {
		studio.OperatingHours = *r.OperatingHours
	}
	if r.SurveyStatus != nil {
		studio.SurveyStatus = bool(*r.SurveyStatus)
	}
	return studio
}

// UpdateNailStudioRequest is a partial update. Only keys present in the body are applied;
// an explicit null clears nullable fields and is rejected for required ones.
type UpdateNailStudioRequest struct {
	Nama           Optional[string]                `json:"nama"`
	Alamat         Optional[string]                `json:"alamat"`
	Desa           Optional[string]                `json:"desa"`
	NoTelp         Optional[string]                `json:"noTelp"`
	Instagram      Optional[string]                `json:"instagram"`
	Whatsapp       Optional[string]                `json:"whatsapp"`
	Rating         Optional[FlexFloat]             `json:"rating"`
	TotalReviews   Optional[FlexInt]               `json:"totalReviews"`
	Description    Optional[string]                `json:"description"`
	PhotoURL       Optional[string]                `json:"photoUrl"`
	InstagramEmbed Optional[string]                `json:"instagramEmbed"`
	MapsEmbed      Optional[string]                `json:"mapsEmbed"`
	Latitude       Optional[FlexFloat]             `json:"latitude"`
	Longitude      Optional[FlexFloat]             `json:"longitude"`
	OperatingHours Optional[models.WeeklySchedule] `json:"operatingHours"`
	SurveyStatus   Optional[FlexBool]              `json:"surveyStatus"`
}

// ApplyTo copies the present fields onto studio.
func (r UpdateNailStudioRequest) ApplyTo(studio *models.NailStudio) error {
	var errs []error
	required := func(name string, set, null bool) bool {
		if set && null {
			errs = append(errs, fmt.Errorf("%s cannot be null", name))
			return false
		}
		return set
	}

	if required("nama", r.Nama.Set, r.Nama.Null) {
		studio.Name = strings.TrimSpace(r.Nama.Value)
	}
	if required("rating", r.Rating.Set, r.Rating.Null) {
		studio.Rating = float64(r.Rating.Value)
	}
	if required("totalReviews", r.TotalReviews.Set, r.TotalReviews.Null) {
		studio.TotalReviews = int(r.TotalReviews.Value)
	}
	if required("surveyStatus", r.SurveyStatus.Set, r.SurveyStatus.Null) {
		studio.SurveyStatus = bool(r.SurveyStatus.Value)
	}
	if r.OperatingHours.Set {
		studio.OperatingHours = r.OperatingHours.Value
	}

	setString(&studio.Address, r.Alamat)
	setString(&studio.Locality, r.Desa)
	setString(&studio.Phone, r.NoTelp)
	setString(&studio.Instagram, r.Instagram)
	setString(&studio.WhatsApp, r.Whatsapp)
	setString(&studio.Description, r.Description)
	setString(&studio.PhotoURL, r.PhotoURL)
	setString(&studio.InstagramEmbed, r.InstagramEmbed)
	setString(&studio.MapsEmbed, r.MapsEmbed)
	if r.Latitude.Set {
		studio.Latitude = floatPtr(r.Latitude.Ptr())
	}
	if r.Longitude.Set {
		studio.Longitude = floatPtr(r.Longitude.Ptr())
	}

	return errors.Join(errs...)
}

// UpdateSurveyStatusRequest toggles the survey flag only.
type UpdateSurveyStatusRequest struct {
	SurveyStatus *FlexBool `json:"surveyStatus"`
}

// SurveyStatusResult is returned after toggling the survey flag.
type SurveyStatusResult struct {
	ID           string `json:"id"`
	Nama         string `json:"nama"`
	SurveyStatus bool   `json:"surveyStatus"`
}

// NailStudioListQuery carries the raw query string values of the list endpoint.
type NailStudioListQuery struct {
	Page         int
	PerPage      int
	Search       string
	Desa         string
	SurveyStatus string
	RatingMin    float64
	SortBy       string
	SortOrder    string
	OpenToday    string
}

// AppliedFilters echoes the filters a list call ran with.
type AppliedFilters struct {
	Search       string  `json:"search"`
	Desa         string  `json:"desa"`
	SurveyStatus string  `json:"survey_status"`
	RatingMin    float64 `json:"rating_min"`
	OpenToday    string  `json:"open_today"`
	SortBy       string  `json:"sort_by"`
	SortOrder    string  `json:"sort_order"`
}

// NailStudioFilters feeds the filter UI: every locality plus the applied filters.
type NailStudioFilters struct {
	DesaOptions    []string       `json:"desa_options"`
	AppliedFilters AppliedFilters `json:"applied_filters"`
}

// NailStudioListResult is one page of studios.
type NailStudioListResult struct {
	Data       []models.NailStudioView `json:"data"`
	Pagination *models.Pagination      `json:"pagination"`
	Filters    NailStudioFilters       `json:"filters"`
}

// NailStudioDetail is a single studio with its readable week schedule.
type NailStudioDetail struct {
	Data     models.NailStudioView `json:"data"`
	Schedule models.WeekView       `json:"schedule"`
}

func setString(dst **string, src Optional[string]) {
	if src.Set {
		*dst = src.Ptr()
	}
}

func floatPtr(f *FlexFloat) *float64 {
	if f == nil {
		return nil
	}
	v := float64(*f)
	return &v
}
