package auth

import (
	"crypto/subtle"
	"fmt"
	"log/slog"
	"net/http"
)

const Realm = "Planos de Inspeção"

// BasicAuth guards the destructive plan operations. An empty password
// rejects every request.
func BasicAuth(log *slog.Logger, username, password string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, pass, ok := r.BasicAuth()
			if !ok || password == "" || !equal(user, username) || !equal(pass, password) {
				log.WarnContext(r.Context(), "unauthorized request", slog.String("path", r.URL.Path))
				requireAuth(w)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func equal(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func requireAuth(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", fmt.Sprintf(`Basic realm=%q`, Realm))
	http.Error(w, "Unauthorized", http.StatusUnauthorized)
}
