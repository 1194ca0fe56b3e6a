package middlewarex

import (
	"encoding/json"
	"net/http"
	"strings"

	"imsidesk/internal/auth"

	"github.com/rs/zerolog/log"
)

// BearerAuth verifies the access token and resolves the caller's operator
// role. Requests naming a different mno than the token are refused.
func BearerAuth(iss *auth.Issuer, reserved []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				deny(w, http.StatusUnauthorized, "missing bearer")
				return
			}

			claims, err := iss.Verify(strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				log.Debug().Err(err).Msg("rejected access token")
				deny(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			operator, err := claims.Operator(iss.ClientID, reserved)
			if err != nil {
				deny(w, http.StatusForbidden, "no operator role")
				return
			}
			if mno := r.URL.Query().Get("mno"); mno != "" && mno != operator {
				deny(w, http.StatusForbidden, "mno does not match token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithOperator(r.Context(), operator, claims.Subject)))
		})
	}
}

func deny(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"message": msg})
}
