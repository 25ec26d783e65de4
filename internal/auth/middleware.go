package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"resident-manager/internal/jwttoken"
	dErrors "resident-manager/pkg/domain-errors"
)

type contextKey struct{}

// ClaimsFrom returns the token claims attached by RequireResident, or nil
// when the request did not pass through it.
func ClaimsFrom(ctx context.Context) *jwttoken.Claims {
	claims, _ := ctx.Value(contextKey{}).(*jwttoken.Claims)
	return claims
}

// RequireResident rejects requests without a valid bearer token and attaches
// the claims to the request context.
func RequireResident(tokens *jwttoken.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			raw, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || raw == "" {
				writeAuthError(w, dErrors.New(dErrors.CodeUnauthorized, "missing bearer token"))
				return
			}

			claims, err := tokens.Validate(raw)
			if err != nil {
				writeAuthError(w, err)
				return
			}

			ctx := context.WithValue(r.Context(), contextKey{}, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeAuthError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(dErrors.ToHTTPStatus(dErrors.CodeOf(err)))
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
