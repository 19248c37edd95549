// Package auth issues and validates the bearer tokens accepted in jwt mode.
package auth

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Capabilities carried in the caps claim.
const (
	// CapUploadFiles is required to browse and import.
	CapUploadFiles = "upload_files"
	// CapManageOptions is additionally required to change the settings.
	CapManageOptions = "manage_options"
)

const issuer = "sideload"

// ErrInvalidToken is returned for tokens that fail verification.
var ErrInvalidToken = errors.New("invalid token")

// Claims holds JWT token claims.
type Claims struct {
	Caps []string `json:"caps"`
	jwt.RegisteredClaims
}

// Can reports whether the token grants capability c.
func (c *Claims) Can(capability string) bool {
	return slices.Contains(c.Caps, capability)
}

// Issue signs an HS256 token for subject with the given capabilities.
func Issue(secret []byte, subject string, caps []string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		Caps: caps,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("auth: sign token: %w", err)
	}
	return s, nil
}

// Validate verifies tokenStr and returns its claims.
func Validate(secret []byte, tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	}, jwt.WithIssuer(issuer), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
