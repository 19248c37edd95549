package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/starford/sideload/internal/apperr"
	"github.com/starford/sideload/internal/importservice"
	"github.com/starford/sideload/internal/models"
	"github.com/starford/sideload/internal/settings"
)

// maxImportFiles bounds a single import request.
const maxImportFiles = 1000

// Handler holds API route handlers.
type Handler struct {
	svc *importservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *importservice.Service) *Handler {
	return &Handler{svc: svc}
}

// Browse handles GET /api/browse.
//
//	@Summary		List a directory beneath the browse root
//	@Tags			import
//	@Produce		json
//	@Param			path	query		string	false	"Absolute directory path; empty for the root"
//	@Success		200		{object}	BrowseResponse
//	@Failure		403		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/browse [get]
func (h *Handler) Browse(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.Browse(r.Context(), r.URL.Query().Get("path"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Import handles POST /api/import.
//
//	@Summary		Import files into the media library
//	@Tags			import
//	@Accept			json
//	@Produce		json
//	@Param			body	body		ImportRequest	true	"Absolute file paths"
//	@Success		200		{object}	ImportResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/import [post]
func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req ImportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.Files == nil {
		writeJSON(w, http.StatusBadRequest, errorBody("No files selected."))
		return
	}
	if len(*req.Files) > maxImportFiles {
		writeJSON(w, http.StatusBadRequest, errorBody("too many files in one request"))
		return
	}
	writeJSON(w, http.StatusOK, h.svc.Import(r.Context(), *req.Files))
}

// GetSettings handles GET /api/settings.
//
//	@Summary		Get the import settings
//	@Tags			settings
//	@Produce		json
//	@Success		200	{object}	SettingsResponse
//	@Security		BearerAuth
//	@Router			/settings [get]
func (h *Handler) GetSettings(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, SettingsResponse{Settings: h.svc.Settings()})
}

// UpdateSettings handles PUT /api/settings.
//
//	@Summary		Save the import settings
//	@Tags			settings
//	@Accept			json
//	@Produce		json
//	@Param			body	body		settings.Settings	true	"New settings"
//	@Success		200		{object}	SettingsResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/settings [put]
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 64<<10)
	var req settings.Settings
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	saved, notices, err := h.svc.UpdateSettings(r.Context(), req)
	if err != nil {
		slog.Error("update settings failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("failed to save settings"))
		return
	}
	writeJSON(w, http.StatusOK, SettingsResponse{Settings: saved, Notices: notices})
}

// ListAssets handles GET /api/assets.
//
//	@Summary		List registered assets
//	@Tags			assets
//	@Produce		json
//	@Param			limit	query		int	false	"Page size"
//	@Param			offset	query		int	false	"Page offset"
//	@Success		200		{object}	AssetListResponse
//	@Security		BearerAuth
//	@Router			/assets [get]
func (h *Handler) ListAssets(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	assets, total, err := h.svc.ListAssets(r.Context(), limit, offset)
	if err != nil {
		slog.Error("list assets failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	if assets == nil {
		assets = []models.Asset{}
	}
	writeJSON(w, http.StatusOK, AssetListResponse{Assets: assets, Total: total})
}

// SearchAssets handles GET /api/assets/search.
//
//	@Summary		Search assets by title or storage path
//	@Tags			assets
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	AssetSearchResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/assets/search [get]
func (h *Handler) SearchAssets(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("q parameter is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	results, err := h.svc.SearchAssets(r.Context(), query, limit)
	if err != nil {
		slog.Error("search failed", slog.String("query", query), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	if results == nil {
		results = []models.Asset{}
	}
	writeJSON(w, http.StatusOK, AssetSearchResponse{Results: results})
}

// GetAsset handles GET /api/assets/{id}.
//
//	@Summary		Get one asset
//	@Tags			assets
//	@Produce		json
//	@Param			id	path		int	true	"Asset id"
//	@Success		200	{object}	models.Asset
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/assets/{id} [get]
func (h *Handler) GetAsset(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid asset id"))
		return
	}
	a, err := h.svc.GetAsset(r.Context(), id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		} else {
			slog.Error("get asset failed", slog.Int64("id", id), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// Activity handles GET /api/activity.
//
//	@Summary		Recent import attempts
//	@Tags			import
//	@Produce		json
//	@Param			limit	query		int	false	"Max entries"
//	@Success		200		{object}	ActivityResponse
//	@Security		BearerAuth
//	@Router			/activity [get]
func (h *Handler) Activity(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	items, err := h.svc.Activity(r.Context(), limit)
	if err != nil {
		slog.Error("list activity failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	if items == nil {
		items = []models.Activity{}
	}
	writeJSON(w, http.StatusOK, ActivityResponse{Activity: items})
}
