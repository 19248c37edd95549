package api

import (
	"net/http"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/sideload/internal/library"
)

// MediaHandler serves files from the managed storage area.
type MediaHandler struct {
	lib *library.Library
}

// NewMediaHandler creates a handler over lib.
func NewMediaHandler(lib *library.Library) *MediaHandler {
	return &MediaHandler{lib: lib}
}

// ServeFile handles GET /media/*.
func (h *MediaHandler) ServeFile(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "*")
	rel := path.Clean("/" + raw)[1:]
	if rel == "" || strings.HasPrefix(path.Base(rel), ".") {
		http.NotFound(w, r)
		return
	}

	info, err := h.lib.Stat(rel)
	if err != nil {
		if library.IsNotExist(err) {
			http.NotFound(w, r)
			return
		}
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if info.IsDir() {
		http.NotFound(w, r)
		return
	}

	f, err := h.lib.Open(rel)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	defer f.Close()

	w.Header().Set("X-Content-Type-Options", "nosniff")
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
}
