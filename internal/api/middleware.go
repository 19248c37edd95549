// Package api implements the sideload REST API using chi.
package api

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/starford/sideload/internal/auth"
	"github.com/starford/sideload/internal/metrics"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
	AuthModeJWT      = "jwt"
)

// AuthConfig selects how API callers prove they may upload files.
// AdminToken is the token-mode credential that may also change settings;
// when empty, settings are read-only in token mode.
type AuthConfig struct {
	Mode       string
	Token      string
	AdminToken string
	JWTSecret  string
}

type contextKey string

const claimsContextKey contextKey = "claims"

// ClaimsFrom returns the JWT claims of an authenticated request, if any.
func ClaimsFrom(ctx context.Context) (*auth.Claims, bool) {
	c, ok := ctx.Value(claimsContextKey).(*auth.Claims)
	return c, ok
}

func bearer(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	if !strings.HasPrefix(h, "Bearer ") {
		return "", false
	}
	return strings.TrimPrefix(h, "Bearer "), true
}

func tokenMatches(got, want string) bool {
	return want != "" && subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}

// AuthMiddleware enforces the upload capability and records the caller's
// capabilities for RequireCapability.
//   - disabled: every request passes.
//   - token: "Authorization: Bearer <token>" must equal Token (upload_files)
//     or AdminToken (upload_files and manage_options).
//   - jwt: the bearer must be a valid HS256 token whose caps include
//     upload_files; 401 for a bad token, 403 for a missing capability.
func AuthMiddleware(cfg AuthConfig) func(http.Handler) http.Handler {
	secret := []byte(cfg.JWTSecret)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var claims *auth.Claims
			switch cfg.Mode {
			case AuthModeToken:
				tok, _ := bearer(r)
				switch {
				case tokenMatches(tok, cfg.AdminToken):
					claims = &auth.Claims{Caps: []string{auth.CapUploadFiles, auth.CapManageOptions}}
				case tokenMatches(tok, cfg.Token):
					claims = &auth.Claims{Caps: []string{auth.CapUploadFiles}}
				default:
					metrics.RecordAuthAttempt("unauthorized")
					writeJSON(w, http.StatusUnauthorized, errorBody("unauthorized"))
					return
				}
			case AuthModeJWT:
				tok, ok := bearer(r)
				if !ok {
					metrics.RecordAuthAttempt("unauthorized")
					writeJSON(w, http.StatusUnauthorized, errorBody("unauthorized"))
					return
				}
				var err error
				claims, err = auth.Validate(secret, tok)
				if err != nil {
					metrics.RecordAuthAttempt("unauthorized")
					writeJSON(w, http.StatusUnauthorized, errorBody("unauthorized"))
					return
				}
				if !claims.Can(auth.CapUploadFiles) {
					metrics.RecordAuthAttempt("forbidden")
					writeJSON(w, http.StatusForbidden, errorBody("Sorry, you are not allowed to upload files."))
					return
				}
			default:
				next.ServeHTTP(w, r)
				return
			}
			metrics.RecordAuthAttempt("ok")
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), claimsContextKey, claims)))
		})
	}
}

// RequireCapability rejects authenticated callers lacking capability with 403.
// With auth disabled every request passes.
func RequireCapability(cfg AuthConfig, capability string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg.Mode == AuthModeToken || cfg.Mode == AuthModeJWT {
				claims, ok := ClaimsFrom(r.Context())
				if !ok || !claims.Can(capability) {
					metrics.RecordAuthAttempt("forbidden")
					writeJSON(w, http.StatusForbidden, errorBody("Sorry, you are not allowed to manage options for this site."))
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
