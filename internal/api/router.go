package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/sideload/internal/auth"
	"github.com/starford/sideload/internal/importservice"
)

// NewRouter creates a chi router with all API routes mounted.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *importservice.Service, authCfg AuthConfig, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authCfg))

	// Browse and import.
	r.Get("/browse", h.Browse)
	r.Post("/import", h.Import)
	r.Get("/activity", h.Activity)

	// Settings.
	r.Get("/settings", h.GetSettings)
	// Moving the root redraws the containment boundary, so saving needs more
	// than the upload capability.
	r.With(RequireCapability(authCfg, auth.CapManageOptions)).Put("/settings", h.UpdateSettings)

	// Registered assets.
	r.Get("/assets", h.ListAssets)
	r.Get("/assets/search", h.SearchAssets)
	r.Get("/assets/{id}", h.GetAsset)

	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
