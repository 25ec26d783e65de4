package admin

import (
	"encoding/json"
	"log/slog"
	"net/http"

	dErrors "resident-manager/pkg/domain-errors"
)

// Credential headers. The client submits the admin username and password on
// every admin request; there is no admin session state.
const (
	HeaderUsername = "X-Username"
	HeaderPassword = "X-Password"
)

// Require wraps admin routes with credential verification. Bad credentials
// get 401; a corrupt credential store surfaces as 500 so operators notice.
func Require(svc *Service, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			username := r.Header.Get(HeaderUsername)
			password := r.Header.Get(HeaderPassword)

			if err := svc.Verify(r.Context(), username, password); err != nil {
				code := dErrors.CodeOf(err)
				if code != dErrors.CodeUnauthorized {
					logger.ErrorContext(r.Context(), "admin credential verification failed",
						"error", err,
					)
				}
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(dErrors.ToHTTPStatus(code))
				_ = json.NewEncoder(w).Encode(map[string]string{
					"error": string(code),
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
