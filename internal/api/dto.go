package api

import (
	"github.com/starford/sideload/internal/importer"
	"github.com/starford/sideload/internal/models"
	"github.com/starford/sideload/internal/settings"
)

// ImportRequest is the request body for POST /api/import.
type ImportRequest struct {
	Files *[]string `json:"files" example:"/var/www/content/photo.jpg" validate:"required"`
}

// ImportResponse is the outcome of an import batch (aliased from the domain layer).
type ImportResponse = importer.Summary

// BrowseResponse is a directory listing with breadcrumbs.
type BrowseResponse = models.BrowseResult

// SettingsResponse carries the saved settings and any sanitization notices.
type SettingsResponse struct {
	Settings settings.Settings `json:"settings" validate:"required"`
	Notices  []string          `json:"notices,omitempty"`
}

// AssetListResponse wraps paginated asset listings.
type AssetListResponse struct {
	Assets []models.Asset `json:"assets" validate:"required"`
	Total  int            `json:"total" example:"42" validate:"required"`
}

// AssetSearchResponse wraps search results.
type AssetSearchResponse struct {
	Results []models.Asset `json:"results" validate:"required"`
}

// ActivityResponse wraps the import activity log.
type ActivityResponse struct {
	Activity []models.Activity `json:"activity" validate:"required"`
}
