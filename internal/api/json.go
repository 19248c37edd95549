package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/starford/sideload/internal/apperr"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode failed", slog.String("error", err.Error()))
	}
}

type errResponse struct {
	Error string `json:"error" validate:"required"`
	Code  string `json:"code,omitempty"`
}

func errorBody(msg string) errResponse {
	return errResponse{Error: msg}
}

// statusFor maps an error kind from the browse core to an HTTP status.
func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindPathNotFound:
		return http.StatusNotFound
	case apperr.KindOutsideRoot, apperr.KindNotReadable:
		return http.StatusForbidden
	case apperr.KindNotADirectory:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders a classified error with its display message.
func writeError(w http.ResponseWriter, err error) {
	kind := apperr.KindOf(err)
	if kind == "" {
		slog.Error("request failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	status := statusFor(kind)
	if status >= http.StatusInternalServerError {
		slog.Error("request failed", slog.String("kind", string(kind)), slog.String("error", err.Error()))
	}
	writeJSON(w, status, errResponse{Error: apperr.Message(err), Code: string(kind)})
}
