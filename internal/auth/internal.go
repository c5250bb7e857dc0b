package auth

import (
	"crypto/subtle"
	"net/http"
)

const InternalSecretHeader = "X-API-Secret"

// RequireInternalSecret guards service-to-service routes. The header must
// match secret exactly; an empty secret rejects every request.
func RequireInternalSecret(secret string) func(http.Handler) http.Handler {
	want := []byte(secret)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := []byte(r.Header.Get(InternalSecretHeader))
			if len(want) == 0 || subtle.ConstantTimeCompare(got, want) != 1 {
				writeError(w, http.StatusUnauthorized, "invalid API secret")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
