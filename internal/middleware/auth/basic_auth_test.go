package auth

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBasicAuth(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	tests := []struct {
		name     string
		password string
		setAuth  func(r *http.Request)
		code     int
	}{
		{"valid", "secret", func(r *http.Request) { r.SetBasicAuth("admin", "secret") }, http.StatusNoContent},
		{"wrong password", "secret", func(r *http.Request) { r.SetBasicAuth("admin", "nope") }, http.StatusUnauthorized},
		{"wrong user", "secret", func(r *http.Request) { r.SetBasicAuth("root", "secret") }, http.StatusUnauthorized},
		{"missing header", "secret", func(r *http.Request) {}, http.StatusUnauthorized},
		{"bearer token", "secret", func(r *http.Request) { r.Header.Set("Authorization", "Bearer abc") }, http.StatusUnauthorized},
		{"no password configured", "", func(r *http.Request) { r.SetBasicAuth("admin", "") }, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodDelete, "/api/inspection-plans/p1", nil)
			tt.setAuth(req)
			rr := httptest.NewRecorder()

			BasicAuth(log, "admin", tt.password)(ok).ServeHTTP(rr, req)

			assert.Equal(t, tt.code, rr.Code)
			if tt.code == http.StatusUnauthorized {
				assert.Equal(t, `Basic realm="Planos de Inspeção"`, rr.Header().Get("WWW-Authenticate"))
			}
		})
	}
}
