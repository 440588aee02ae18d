package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"WEAPON_DETECTOR/go-backend/internal/models"
)

type ctxKey struct{}

// ClaimsFrom returns the claims the access gate attached to the request
// context, if any.
func ClaimsFrom(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(ctxKey{}).(*Claims)
	return claims, ok
}

// BearerToken extracts the token from an "Authorization: Bearer ..." header.
func BearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" || !strings.HasPrefix(header, "Bearer ") {
		return "", false
	}
	return strings.TrimPrefix(header, "Bearer "), true
}

// RequireToken wraps a handler with the access gate: the bearer token is
// validated and the decoded claims are attached to the request context
// before next runs. Missing or invalid tokens get a 401 and next never
// executes.
func RequireToken(tm *TokenManager, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, ok := BearerToken(r)
		if !ok {
			unauthorized(w, "Missing or invalid authorization header")
			return
		}

		claims, err := tm.Validate(token)
		if err != nil {
			unauthorized(w, "Invalid token")
			return
		}

		ctx := context.WithValue(r.Context(), ctxKey{}, claims)
		next(w, r.WithContext(ctx))
	}
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(models.ErrorResponse{Error: msg})
}
